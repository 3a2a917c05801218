package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/session"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

// StockPolicy decides what checkout does when a line asks for more than is in stock.
type StockPolicy string

const (
	// StockReject aborts the whole checkout.
	StockReject StockPolicy = "reject"
	// StockClamp accepts the order and floors stock at zero.
	StockClamp StockPolicy = "clamp"
)

func ParseStockPolicy(s string) (StockPolicy, error) {
	switch StockPolicy(strings.ToLower(s)) {
	case StockReject, "":
		return StockReject, nil
	case StockClamp:
		return StockClamp, nil
	}
	return "", fmt.Errorf("%w: unknown stock policy %q", ErrValidation, s)
}

type CheckoutService struct {
	Repo        *repo.GormRepo
	Events      events.Publisher
	StockPolicy StockPolicy
}

type CheckoutInput struct {
	Actor           Actor
	Cart            session.Cart
	ShippingAddress string
	PaymentMethod   string
	MSISDN          string
}

type CartLine struct {
	Product   models.Product `json:"product"`
	Quantity  int            `json:"quantity"`
	LineTotal int64          `json:"line_total_mwk"`
}

type CartSummary struct {
	Lines []CartLine `json:"lines"`
	Total int64      `json:"total_mwk"`
}

func validateCheckout(in CheckoutInput) error {
	fe := fieldErrors{}
	if strings.TrimSpace(in.ShippingAddress) == "" {
		fe.add("shipping_address", "this field is required")
	}
	switch in.PaymentMethod {
	case models.PaymentMethodCOD, models.PaymentMethodManual:
	case "":
		fe.add("payment_method", "this field is required")
	default:
		fe.add("payment_method", "must be cod or manual")
	}
	if len(in.MSISDN) > 32 {
		fe.add("msisdn", "must be at most 32 characters")
	}
	for _, q := range in.Cart {
		if q > models.MaxQuantity {
			fe.add("cart", fmt.Sprintf("a line can hold at most %d units", models.MaxQuantity))
		}
	}
	return fe.err()
}

func totalTooLarge() error { return invalid("cart", "order total is too large") }

// addLine returns total + price*qty, or false when the result would not fit
// in an int64.
func addLine(total, price int64, qty int) (int64, bool) {
	if price < 0 || qty < 0 || total < 0 {
		return 0, false
	}
	if price != 0 && int64(qty) > math.MaxInt64/price {
		return 0, false
	}
	line := price * int64(qty)
	if line > math.MaxInt64-total {
		return 0, false
	}
	return total + line, true
}

// Preview resolves the cart the way Checkout would, without locking or writing.
func (s *CheckoutService) Preview(ctx context.Context, cart session.Cart) (*CartSummary, error) {
	ids := cart.ProductIDs()
	summary := &CartSummary{Lines: []CartLine{}}
	if len(ids) == 0 {
		return summary, nil
	}
	products, err := s.Repo.PurchasableProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		qty := cart[p.ID]
		total, ok := addLine(summary.Total, p.PriceMWK, qty)
		if !ok {
			return nil, totalTooLarge()
		}
		line := CartLine{Product: p, Quantity: qty, LineTotal: total - summary.Total}
		summary.Lines = append(summary.Lines, line)
		summary.Total = total
	}
	return summary, nil
}

// Checkout turns the cart into an order, its items and one initial payment in
// a single transaction. Clearing the session cart is left to the caller and
// must happen only after Checkout returns without error.
func (s *CheckoutService) Checkout(ctx context.Context, in CheckoutInput) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "checkout", "user_id", in.Actor.UserID)

	if err := requireLogin(in.Actor); err != nil {
		return nil, err
	}
	if err := CanCheckout(in.Actor).Err(); err != nil {
		return nil, err
	}
	if err := validateCheckout(in); err != nil {
		return nil, err
	}

	ids := in.Cart.ProductIDs()
	if len(ids) == 0 {
		return nil, ErrEmptyCart
	}

	policy := s.StockPolicy
	if policy == "" {
		policy = StockReject
	}

	var order models.Order
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		products, err := tx.LockPurchasableProducts(ctx, ids)
		if err != nil {
			return err
		}
		if len(products) == 0 {
			return ErrEmptyCart
		}

		order = models.Order{
			CustomerID:      in.Actor.UserID,
			PaymentStatus:   models.OrderPaymentPending,
			DeliveryStatus:  models.DeliveryPending,
			PaymentMethod:   in.PaymentMethod,
			ShippingAddress: strings.TrimSpace(in.ShippingAddress),
			MSISDN:          strings.TrimSpace(in.MSISDN),
		}
		if err := tx.CreateOrder(ctx, &order); err != nil {
			return err
		}

		var total int64
		for _, p := range products {
			qty := in.Cart[p.ID]
			if p.StockQuantity < qty && policy == StockReject {
				return fmt.Errorf("%w: %q has %d left, %d requested", ErrInsufficientStock, p.Name, p.StockQuantity, qty)
			}
			next, ok := addLine(total, p.PriceMWK, qty)
			if !ok {
				return totalTooLarge()
			}
			total = next

			item := models.OrderItem{
				OrderID:      order.ID,
				ProductID:    p.ID,
				Quantity:     qty,
				UnitPriceMWK: p.PriceMWK,
			}
			if err := tx.CreateOrderItem(ctx, &item); err != nil {
				return err
			}
			if err := tx.SetStock(ctx, p.ID, max(p.StockQuantity-qty, 0)); err != nil {
				return err
			}
			order.Items = append(order.Items, item)
		}

		if err := tx.SetOrderTotal(ctx, order.ID, total); err != nil {
			return err
		}
		order.TotalAmountMWK = total

		payment := models.Payment{
			OrderID:   &order.ID,
			Provider:  in.PaymentMethod,
			AmountMWK: total,
			Status:    initialPaymentStatus(in.PaymentMethod),
		}
		if err := tx.CreatePayment(ctx, &payment); err != nil {
			return err
		}
		order.Payments = []models.Payment{payment}
		return nil
	})
	if err != nil {
		l.Warn("checkout_error", "reason", "transaction rolled back", "error", err)
		return nil, err
	}

	l.Info("checkout_success", "order_id", order.ID, "total_mwk", order.TotalAmountMWK, "items", len(order.Items))
	publish(ctx, s.Events, events.OrderCreated, key("order", order.ID), map[string]any{
		"order_id":       order.ID,
		"customer_id":    order.CustomerID,
		"total_mwk":      order.TotalAmountMWK,
		"payment_method": order.PaymentMethod,
	})
	return &order, nil
}

func initialPaymentStatus(method string) string {
	if method == models.PaymentMethodCOD {
		return models.PaymentPending
	}
	return models.PaymentInitiated
}

// GetCustomerOrder returns an order only to the customer who placed it.
func (s *CheckoutService) GetCustomerOrder(ctx context.Context, actor Actor, orderID uint) (*models.Order, error) {
	if err := requireLogin(actor); err != nil {
		return nil, err
	}
	o, err := s.Repo.GetCustomerOrder(ctx, actor.UserID, orderID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return o, nil
}
