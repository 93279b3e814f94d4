// -----------------------------------------------------------------------------
// Application Errors
// -----------------------------------------------------------------------------
// Servis katmanının döndürdüğü tipli hatalar. Her hata bir Kind (HTTP
// karşılığı olan kategori) ve sabit bir Code taşır. Kind/Code'u olmayan her
// hata beklenmeyen hatadır; servis sınırında loglanır ve Internal() ile
// değiştirilir.
// -----------------------------------------------------------------------------

package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind, hatanın kategorisi.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidOperation
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidOperation:
		return "invalid_operation"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Hata kodları.
const (
	CodePurchaseNotFound = "PURCHASE_NOT_FOUND"
	CodePurchaseInvalid  = "PURCHASE_INVALID"
	CodeTicketUsed       = "TICKET_USED"
	CodeEventNotOwned    = "EVENT_NOT_OWNED"
	CodeInternal         = "INTERNAL_ERROR"
)

// Error, tipli uygulama hatası.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status, hatanın HTTP durum kodu. InvalidOperation 406 Not Acceptable'dır.
func (e *Error) Status() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidOperation:
		return http.StatusNotAcceptable
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Wrap, alttaki hatayı ekleyerek yeni bir kopya döner.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.Err = err
	return &c
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func PurchaseNotFound() *Error {
	return New(KindNotFound, CodePurchaseNotFound, "purchase not found")
}

func PurchaseInvalid() *Error {
	return New(KindInvalidOperation, CodePurchaseInvalid, "purchase is not valid for this event")
}

func TicketUsed() *Error {
	return New(KindInvalidOperation, CodeTicketUsed, "ticket has already been used")
}

func EventNotOwned() *Error {
	return New(KindForbidden, CodeEventNotOwned, "event is not owned by the user")
}

// Internal, detay içermeyen genel hata.
func Internal() *Error {
	return New(KindInternal, CodeInternal, "internal server error")
}

// As, zincirde bir *Error arar.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsDomain, hatanın olduğu gibi çağırana iletilecek bir iş kuralı hatası
// (NotFound, InvalidOperation, Forbidden) olup olmadığını söyler.
func IsDomain(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind != KindInternal
}
