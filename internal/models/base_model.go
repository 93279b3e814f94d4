// internal/models/base_model.go
//
// Bu dosya, tüm modellerin kalıtım yoluyla devraldığı temel alanları
// (ID, CreatedAt, UpdatedAt) ve davranışları içerir.
//
// Laravel'deki `Model.php` dosyasının sade ve Go’ya uyarlanmış
// karşılığı olarak düşünülebilir.
//
// BaseModel’in amacı:
//
// - Tekrarlayan alanların merkezi bir yerde tanımlanması,
// - Modellerin ortak davranışlara sahip olması,
// - ORM tarafında standart bir base yapının oluşması,
// - Genişletilebilir bir üst sınıf mimarisinin sağlanmasıdır.
//
// Kullanım:
//    type User struct {
//        models.BaseModel
//        Name string
//        Email string
//    }
//
// Bu sayede User modeli otomatik olarak ID, CreatedAt, UpdatedAt alanlarına sahip olur.

package models

import "time"

// BaseModel
//
// Tüm modellerin gövdesini oluşturur. Timestamp yönetimi dahildir.
//
// Alanlar:
//   - ID:        int64  → birincil anahtar
//   - CreatedAt: time   → oluşturulma zamanı
//   - UpdatedAt: time   → güncellenme zamanı
type BaseModel struct {
	ID        int64     `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Initialize
//
// CreatedAt ve UpdatedAt alanlarını verilen zamana ayarlar. Yeni bir kayıt
// oluşturulmadan önce çağrılır. Zaman UTC'ye ve saniyeye yuvarlanır; MySQL
// TIMESTAMP ve SQLite DATETIME kolonları aynı değeri geri döndürür.
func (m *BaseModel) Initialize(now time.Time) {
	now = now.UTC().Truncate(time.Second)
	m.CreatedAt = now
	m.UpdatedAt = now
}

// Touch
//
// UpdatedAt alanını verilen zamana günceller.
func (m *BaseModel) Touch(now time.Time) {
	m.UpdatedAt = now.UTC().Truncate(time.Second)
}
