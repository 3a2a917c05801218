package models

import "time"

const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
	RoleAdmin    = "admin"
)

type User struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"       json:"id"`
	Username       string    `gorm:"uniqueIndex;size:150;not null"  json:"username"`
	Email          string    `gorm:"size:254"                       json:"email"`
	PasswordHash   string    `gorm:"not null"                       json:"-"`
	Role           string    `gorm:"size:16;not null;index"         json:"role"`
	IsStaff        bool      `gorm:"not null;default:false"         json:"is_staff"`
	PhoneNumber    string    `gorm:"size:32"                        json:"phone_number,omitempty"`
	Address        string    `gorm:"type:text"                      json:"address,omitempty"`
	DisplayName    string    `gorm:"size:150"                       json:"display_name,omitempty"`
	VendorApproved bool      `gorm:"not null;default:false;index"   json:"vendor_approved"`
	CreatedAt      time.Time `                                      json:"created_at"`
}

func (u *User) IsVendor() bool { return u.Role == RoleVendor }

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin || u.IsStaff }

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"              json:"id"`
	UserID    uint      `gorm:"index;not null"          json:"user_id"`
	JTI       string    `gorm:"uniqueIndex;size:64"     json:"-"`
	Token     string    `gorm:"uniqueIndex;size:64"     json:"-"`
	ExpiresAt time.Time `gorm:"not null"                json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false"  json:"revoked"`
	CreatedAt time.Time `                               json:"created_at"`
}

type Wallet struct {
	ID         uint      `gorm:"primaryKey"              json:"id"`
	UserID     uint      `gorm:"uniqueIndex;not null"    json:"user_id"`
	BalanceMWK int64     `gorm:"not null;default:0"      json:"balance_mwk"`
	CreatedAt  time.Time `                               json:"created_at"`
	UpdatedAt  time.Time `                               json:"updated_at"`
}
