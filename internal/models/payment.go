package models

import "time"

// Payment.Status values.
const (
	PaymentInitiated = "initiated"
	PaymentPending   = "pending"
	PaymentSuccess   = "success"
	PaymentFailed    = "failed"
)

type Payment struct {
	ID        uint      `gorm:"primaryKey"           json:"id"`
	OrderID   *uint     `gorm:"index"                json:"order_id"`
	Provider  string    `gorm:"size:16;not null"     json:"provider"`
	AmountMWK int64     `gorm:"not null"             json:"amount_mwk"`
	Status    string    `gorm:"size:16;not null"     json:"status"`
	CreatedAt time.Time `                            json:"created_at"`
}

const (
	ManualMethodBankDeposit = "bank_deposit"
	ManualMethodMobileMoney = "mobile_money"
	ManualMethodOther       = "other"
)

// ManualPayment.Status values.
const (
	ManualSubmitted = "submitted"
	ManualApproved  = "approved"
	ManualRejected  = "rejected"
)

type ManualPayment struct {
	ID            uint       `gorm:"primaryKey"                          json:"id"`
	OrderID       *uint      `gorm:"index"                               json:"order_id"`
	Order         *Order     `gorm:"constraint:OnDelete:SET NULL"        json:"-"`
	PayerName     string     `gorm:"size:150;not null"                   json:"payer_name"`
	MSISDN        string     `gorm:"size:32;not null"                    json:"msisdn"`
	Method        string     `gorm:"size:32;not null"                    json:"method"`
	ReferenceCode string     `gorm:"size:100;not null"                   json:"reference_code"`
	AmountMWK     int64      `gorm:"not null;default:0"                  json:"amount_mwk"`
	ReceiptImage  string     `gorm:"size:255"                            json:"receipt_image,omitempty"`
	Status        string     `gorm:"size:16;not null;index"              json:"status"`
	ReviewedByID  *uint      `                                           json:"reviewed_by_id,omitempty"`
	ReviewedAt    *time.Time `                                           json:"reviewed_at,omitempty"`
	CreatedAt     time.Time  `gorm:"index"                               json:"created_at"`
}

// All lists every model in dependency order for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &RefreshToken{}, &Wallet{},
		&Product{}, &ProductImage{},
		&Order{}, &OrderItem{}, &Payment{}, &ManualPayment{},
	}
}
