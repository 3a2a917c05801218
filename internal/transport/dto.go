package transport

type AddToCartRequest struct {
	ProductID uint `json:"product_id" form:"product_id" validate:"required,gt=0"`
	Qty       int  `json:"qty"        form:"qty"        validate:"gte=0,lte=1000"`
}

type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address" form:"shipping_address" validate:"required"`
	PaymentMethod   string `json:"payment_method"   form:"payment_method"   validate:"required,oneof=cod manual"`
	MSISDN          string `json:"msisdn"           form:"msisdn"           validate:"max=32"`
}

type ManualPaymentRequest struct {
	PayerName     string `form:"payer_name"     json:"payer_name"     validate:"required,max=150"`
	MSISDN        string `form:"msisdn"         json:"msisdn"         validate:"required,max=32"`
	Method        string `form:"method"         json:"method"         validate:"required,oneof=bank_deposit mobile_money other"`
	ReferenceCode string `form:"reference_code" json:"reference_code" validate:"required,max=100"`
	AmountMWK     int64  `form:"amount_mwk"     json:"amount_mwk"     validate:"gt=0"`
}

type ProductRequest struct {
	Name          string `form:"name"           json:"name"           validate:"required,max=200"`
	Description   string `form:"description"    json:"description"`
	Category      string `form:"category"       json:"category"       validate:"max=100"`
	PriceMWK      int64  `form:"price_mwk"      json:"price_mwk"      validate:"gt=0,lte=1000000000000"`
	StockQuantity int    `form:"stock_quantity" json:"stock_quantity" validate:"gte=0,lte=2147483647"`
}

type TopUpRequest struct {
	AmountMWK int64 `json:"amount_mwk" form:"amount_mwk" validate:"gt=0,lte=1000000000000"`
}

type SignupRequest struct {
	Username    string `json:"username"     form:"username"     validate:"required,min=3,max=150"`
	Email       string `json:"email"        form:"email"        validate:"omitempty,email"`
	Password    string `json:"password"     form:"password"     validate:"required,min=8"`
	DisplayName string `json:"display_name" form:"display_name" validate:"max=150"`
	PhoneNumber string `json:"phone_number" form:"phone_number" validate:"max=32"`
	Address     string `json:"address"      form:"address"`
}

type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type UserResponse struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email,omitempty"`
	Role           string `json:"role"`
	VendorApproved bool   `json:"vendor_approved"`
}
