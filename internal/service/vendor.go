package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type VendorService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

// Approve grants a vendor permission to sell. Approval cannot be revoked here,
// and approving an approved vendor is a no-op.
func (s *VendorService) Approve(ctx context.Context, actor Actor, userID uint) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "vendor.approve", "target_id", userID)

	if err := requireLogin(actor); err != nil {
		return nil, err
	}
	if err := CanApproveVendors(actor).Err(); err != nil {
		return nil, err
	}

	var (
		user    *models.User
		changed bool
	)
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		user, err = tx.LockUser(ctx, userID)
		if err != nil {
			return notFound(err, "vendor")
		}
		if !user.IsVendor() {
			return fmt.Errorf("%w: vendor", ErrNotFound)
		}
		if user.VendorApproved {
			return nil
		}
		if changed, err = tx.ApproveVendor(ctx, user.ID); err != nil {
			return err
		}
		user.VendorApproved = true
		return nil
	})
	if err != nil {
		l.Warn("approve_vendor_error", "error", err)
		return nil, err
	}

	if changed {
		l.Info("approve_vendor_success")
		publish(ctx, s.Events, events.VendorApproved, key("user", user.ID), map[string]any{
			"user_id":     user.ID,
			"username":    user.Username,
			"email":       user.Email,
			"approved_by": actor.UserID,
		})
	}
	return user, nil
}

func (s *VendorService) PendingVendors(ctx context.Context, actor Actor) ([]models.User, error) {
	if err := CanApproveVendors(actor).Err(); err != nil {
		return nil, err
	}
	return s.Repo.ListPendingVendors(ctx)
}
