package models

import "time"

const (
	PaymentMethodCOD    = "cod"
	PaymentMethodManual = "manual"
)

// Order.PaymentStatus values.
const (
	OrderPaymentPending = "pending"
	OrderPaymentPaid    = "paid"
	OrderPaymentFailed  = "failed"
)

const DeliveryPending = "pending"

type Order struct {
	ID              uint        `gorm:"primaryKey;autoIncrement"    json:"id"`
	CustomerID      uint        `gorm:"not null;index"              json:"customer_id"`
	TotalAmountMWK  int64       `gorm:"not null;default:0"          json:"total_amount_mwk"`
	PaymentStatus   string      `gorm:"size:16;not null;index"      json:"payment_status"`
	DeliveryStatus  string      `gorm:"size:16;not null"            json:"delivery_status"`
	PaymentMethod   string      `gorm:"size:16;not null"            json:"payment_method"`
	ShippingAddress string      `gorm:"type:text;not null"          json:"shipping_address"`
	MSISDN          string      `gorm:"size:32"                     json:"msisdn,omitempty"`
	Items           []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Payments        []Payment   `                                   json:"payments,omitempty"`
	CreatedAt       time.Time   `gorm:"index"                       json:"created_at"`
}

func (o *Order) IsPaid() bool { return o.PaymentStatus == OrderPaymentPaid }

type OrderItem struct {
	ID           uint     `gorm:"primaryKey"                   json:"id"`
	OrderID      uint     `gorm:"not null;index"               json:"order_id"`
	ProductID    uint     `gorm:"not null;index"               json:"product_id"`
	Product      *Product `gorm:"constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	Quantity     int      `gorm:"not null;check:quantity > 0"  json:"quantity"`
	UnitPriceMWK int64    `gorm:"not null"                     json:"unit_price_mwk"`
}

func (i OrderItem) LineTotal() int64 { return int64(i.Quantity) * i.UnitPriceMWK }
