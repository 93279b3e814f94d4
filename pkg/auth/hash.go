// -----------------------------------------------------------------------------
// Password Hashing Package
// -----------------------------------------------------------------------------
// Kullanıcı şifrelerinin bcrypt ile hash'lenmesi ve doğrulanması.
//
// Güvenlik Notu:
// - Minimum cost: 10
// - Her şifre için unique salt kullanılır (bcrypt otomatik halleder)
// -----------------------------------------------------------------------------

package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost, seed edilen hesaplar ve Hash için kullanılan maliyet faktörü.
const DefaultCost = 10

// ErrEmptyPassword, boş şifre hash'lenmek istendiğinde döner.
var ErrEmptyPassword = errors.New("password cannot be empty")

// Hash, düz metin şifreyi DefaultCost ile hash'ler.
//
//	hashed, err := auth.Hash("Superadmin1#")
//	// hashed: "$2a$10$..."
func Hash(password string) (string, error) {
	return HashWithCost(password, DefaultCost)
}

// HashWithCost, düz metin şifreyi verilen cost ile hash'ler. Cost
// bcrypt.MinCost ile bcrypt.MaxCost arasında olmalıdır.
func HashWithCost(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Check, düz metin şifreyi hash ile karşılaştırır.
func Check(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NeedsRehash, hash'in cost'u istenen değerin altındaysa true döner.
func NeedsRehash(hash string, cost int) bool {
	current, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return false
	}
	return current < cost
}
