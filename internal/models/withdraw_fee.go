package models

import "github.com/shopspring/decimal"

// DefaultWithdrawFeeID, platformun varsayılan çekim ücreti satırı.
const DefaultWithdrawFeeID int64 = 0

// WithdrawFee, organizatör ödemelerinden kesilen sabit ücret. ID otomatik
// artmaz; satırlar bilinen id'lerle seed edilir.
type WithdrawFee struct {
	BaseModel
	Amount decimal.Decimal `json:"amount" db:"amount"`
}
