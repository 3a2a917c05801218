package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
)

// Actor is the caller of a service operation. The zero value is anonymous.
type Actor struct {
	UserID         uint
	Role           string
	IsStaff        bool
	VendorApproved bool
}

func ActorFromUser(u *models.User) Actor {
	return Actor{
		UserID:         u.ID,
		Role:           u.Role,
		IsStaff:        u.IsStaff,
		VendorApproved: u.VendorApproved,
	}
}

func (a Actor) Authenticated() bool { return a.UserID != 0 }

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin || a.IsStaff }

func (a Actor) IsVendor() bool { return a.Role == models.RoleVendor }

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision { return Decision{Allowed: true} }

func Forbid(reason string) Decision { return Decision{Reason: reason} }

// Err converts a denied decision into an error the boundary can render.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &ForbiddenError{Reason: d.Reason}
}

func requireLogin(a Actor) error {
	if !a.Authenticated() {
		return ErrUnauthorized
	}
	return nil
}

func CanCheckout(a Actor) Decision {
	if !a.Authenticated() {
		return Forbid("login required")
	}
	return Allow()
}

func CanReviewManualPayments(a Actor) Decision {
	if !a.IsAdmin() {
		return Forbid("only administrators can review manual payments")
	}
	return Allow()
}

func CanApproveVendors(a Actor) Decision {
	if !a.IsAdmin() {
		return Forbid("only administrators can approve vendors")
	}
	return Allow()
}

func CanCollectCOD(a Actor) Decision {
	if !a.IsVendor() {
		return Forbid("only vendors can confirm cash collection")
	}
	return Allow()
}

func CanSell(a Actor) Decision {
	switch {
	case !a.IsVendor():
		return Forbid("only vendors can manage products")
	case !a.VendorApproved:
		return Forbid("vendor account is awaiting approval")
	}
	return Allow()
}

func CanViewVendorArea(a Actor) Decision {
	if !a.IsVendor() {
		return Forbid("vendor account required")
	}
	return Allow()
}

func CanViewAdminArea(a Actor) Decision {
	if !a.IsAdmin() {
		return Forbid("administrator account required")
	}
	return Allow()
}

// ActorService loads the current caller from the user table so role and
// approval changes apply without waiting for a token refresh.
type ActorService struct {
	Repo *repo.GormRepo
}

func (s *ActorService) Load(ctx context.Context, userID uint) (Actor, error) {
	if userID == 0 {
		return Actor{}, ErrUnauthorized
	}
	u, err := s.Repo.GetUserByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Actor{}, ErrUnauthorized
	}
	if err != nil {
		return Actor{}, err
	}
	return ActorFromUser(u), nil
}
