package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type CODService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

// MarkCollected records that the vendor received cash for a COD order. Calling
// it again on a paid order changes nothing and returns the order.
func (s *CODService) MarkCollected(ctx context.Context, actor Actor, orderID uint) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "cod.collected", "order_id", orderID, "vendor_id", actor.UserID)

	if err := requireLogin(actor); err != nil {
		return nil, err
	}
	if err := CanCollectCOD(actor).Err(); err != nil {
		return nil, err
	}

	var order *models.Order
	collected := false
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		sells, err := tx.VendorSellsInOrder(ctx, actor.UserID, orderID)
		if err != nil {
			return err
		}
		if !sells {
			return fmt.Errorf("%w: order", ErrNotFound)
		}

		order, err = tx.LockOrder(ctx, orderID)
		if err != nil {
			return notFound(err, "order")
		}
		if order.PaymentMethod != models.PaymentMethodCOD {
			return fmt.Errorf("%w: order %d is not cash on delivery", ErrConflict, order.ID)
		}
		if order.IsPaid() {
			return nil
		}

		if err := tx.CreatePayment(ctx, &models.Payment{
			OrderID:   &order.ID,
			Provider:  models.PaymentMethodCOD,
			AmountMWK: order.TotalAmountMWK,
			Status:    models.PaymentSuccess,
		}); err != nil {
			return err
		}
		if err := tx.SetOrderPaymentStatus(ctx, order.ID, models.OrderPaymentPaid); err != nil {
			return err
		}
		order.PaymentStatus = models.OrderPaymentPaid
		collected = true
		return nil
	})
	if err != nil {
		l.Warn("cod_collected_error", "error", err)
		return nil, err
	}

	if !collected {
		l.Info("cod_collected_noop", "reason", "order already paid")
		return order, nil
	}

	l.Info("cod_collected_success", "amount_mwk", order.TotalAmountMWK)
	publish(ctx, s.Events, events.CODCollected, key("order", order.ID), map[string]any{
		"order_id":    order.ID,
		"vendor_id":   actor.UserID,
		"amount_mwk":  order.TotalAmountMWK,
		"customer_id": order.CustomerID,
	})
	return order, nil
}

// VendorOrders lists orders that contain at least one of the vendor's products.
func (s *CODService) VendorOrders(ctx context.Context, actor Actor) ([]models.Order, error) {
	if err := requireLogin(actor); err != nil {
		return nil, err
	}
	if err := CanViewVendorArea(actor).Err(); err != nil {
		return nil, err
	}
	return s.Repo.ListVendorOrders(ctx, actor.UserID)
}

// VendorOrder shows one order to a vendor who sells at least one of its items.
func (s *CODService) VendorOrder(ctx context.Context, actor Actor, orderID uint) (*models.Order, error) {
	if err := requireLogin(actor); err != nil {
		return nil, err
	}
	if err := CanViewVendorArea(actor).Err(); err != nil {
		return nil, err
	}
	sells, err := s.Repo.VendorSellsInOrder(ctx, actor.UserID, orderID)
	if err != nil {
		return nil, err
	}
	if !sells {
		return nil, fmt.Errorf("%w: order", ErrNotFound)
	}
	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return order, nil
}
