// -----------------------------------------------------------------------------
// Database Types - SQL Builder İçin Yardımcı Tipler
// -----------------------------------------------------------------------------
// QueryBuilder'ın kullandığı internal struct tipleri. Direction ve lock gibi
// alanlar enum-like tutulur; kullanıcı input'u direkt SQL'e giremez.
// -----------------------------------------------------------------------------

package database

// OrderDirection, ORDER BY için izin verilen yönleri temsil eder.
type OrderDirection string

const (
	OrderAsc  OrderDirection = "ASC"
	OrderDesc OrderDirection = "DESC"
)

// OrderClause, bir ORDER BY ifadesini temsil eder.
//
//	OrderClause{Column: "created_at", Direction: OrderDesc}
//	→ SQL: ORDER BY `created_at` DESC
type OrderClause struct {
	Column    string
	Direction OrderDirection
}

// WhereClause, bir WHERE koşulunu temsil eder. Değerler her zaman
// placeholder (?) ile bağlanır.
//
// Operator "IN" ise Value bir []interface{} olmalıdır.
// Koşullar AND ile bağlanır.
type WhereClause struct {
	Column   string
	Operator string
	Value    interface{}
}

// aggregateColumn, SELECT listesindeki tek aggregate ifadesi.
type aggregateColumn struct {
	Func   string
	Column string
	Alias  string
}

// LockMode, SELECT sorgusuna eklenecek satır kilidini belirtir.
type LockMode int

const (
	// LockNone, kilitsiz okuma.
	LockNone LockMode = iota
	// LockUpdate, SELECT ... FOR UPDATE. Satır transaction bitene kadar
	// diğer yazma ve kilitli okumalara kapanır.
	LockUpdate
)
