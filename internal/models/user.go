// -----------------------------------------------------------------------------
// User Model
// -----------------------------------------------------------------------------
// Bilet servisleri için kullanıcı opak bir kimliktir; sadece ID okunur.
// Diğer alanlar seed ve yönetim akışları içindir.
// -----------------------------------------------------------------------------

package models

import (
	"strings"

	"github.com/biyonik/ticket-purchase-api/pkg/auth"
)

// Kullanıcı grupları (rolleri).
const (
	GroupUser       = "USER"
	GroupAdmin      = "ADMIN"
	GroupSuperAdmin = "SUPERADMIN"
)

// User, user tablosunu temsil eden modeldir.
type User struct {
	BaseModel
	Username  string `json:"username" db:"username"`
	Email     string `json:"email" db:"email"`
	Password  string `json:"-" db:"password"` // json:"-" = API'ye göndermez
	Fullname  string `json:"fullname" db:"fullname"`
	Activated bool   `json:"activated" db:"activated"`
	Groups    string `json:"groups" db:"groups"` // virgülle ayrılmış: "ADMIN,SUPERADMIN"
}

// GroupList, Groups alanını ayrıştırır.
func (u *User) GroupList() []string {
	var groups []string
	for _, g := range strings.Split(u.Groups, ",") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}

// HasGroup, kullanıcının verilen gruba üye olup olmadığını söyler.
func (u *User) HasGroup(group string) bool {
	for _, g := range u.GroupList() {
		if g == group {
			return true
		}
	}
	return false
}

// CheckPassword, verilen şifreyi kullanıcının bcrypt hash'i ile karşılaştırır.
func (u *User) CheckPassword(password string) bool {
	return auth.Check(password, u.Password)
}
