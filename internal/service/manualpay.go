package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

// FileStore persists uploads and returns a reference to store in the database.
type FileStore interface {
	Save(ctx context.Context, folder, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

type ManualPaymentService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	Files  FileStore
	Now    func() time.Time
}

type Upload struct {
	Filename string
	Body     io.Reader
}

type SubmitManualPaymentInput struct {
	Actor         Actor
	OrderID       uint
	PayerName     string
	MSISDN        string
	Method        string
	ReferenceCode string
	AmountMWK     int64
	Receipt       *Upload
}

const (
	ReviewApprove = "approve"
	ReviewReject  = "reject"
)

func (s *ManualPaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func validateManualPayment(in SubmitManualPaymentInput) error {
	fe := fieldErrors{}
	in.PayerName = strings.TrimSpace(in.PayerName)
	switch {
	case in.PayerName == "":
		fe.add("payer_name", "this field is required")
	case len(in.PayerName) > 150:
		fe.add("payer_name", "must be at most 150 characters")
	}
	switch m := strings.TrimSpace(in.MSISDN); {
	case m == "":
		fe.add("msisdn", "this field is required")
	case len(m) > 32:
		fe.add("msisdn", "must be at most 32 characters")
	}
	switch in.Method {
	case models.ManualMethodBankDeposit, models.ManualMethodMobileMoney, models.ManualMethodOther:
	default:
		fe.add("method", "must be bank_deposit, mobile_money or other")
	}
	switch r := strings.TrimSpace(in.ReferenceCode); {
	case r == "":
		fe.add("reference_code", "this field is required")
	case len(r) > 100:
		fe.add("reference_code", "must be at most 100 characters")
	}
	if in.AmountMWK <= 0 {
		fe.add("amount_mwk", "must be greater than 0")
	}
	return fe.err()
}

// OrderForSubmission returns the caller's order with its earlier attestations.
func (s *ManualPaymentService) OrderForSubmission(ctx context.Context, actor Actor, orderID uint) (*models.Order, []models.ManualPayment, error) {
	if err := requireLogin(actor); err != nil {
		return nil, nil, err
	}
	order, err := s.Repo.GetCustomerOrder(ctx, actor.UserID, orderID)
	if err != nil {
		return nil, nil, notFound(err, "order")
	}
	prior, err := s.Repo.ListOrderManualPayments(ctx, order.ID)
	if err != nil {
		return nil, nil, err
	}
	return order, prior, nil
}

// Submit records a customer's attestation of an off-platform payment.
func (s *ManualPaymentService) Submit(ctx context.Context, in SubmitManualPaymentInput) (*models.ManualPayment, error) {
	l := logging.FromContext(ctx).With("svc", "manual_payment.submit", "order_id", in.OrderID)

	if err := requireLogin(in.Actor); err != nil {
		return nil, err
	}
	order, err := s.Repo.GetCustomerOrder(ctx, in.Actor.UserID, in.OrderID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if order.IsPaid() {
		return nil, fmt.Errorf("%w: order %d is already paid", ErrConflict, order.ID)
	}
	if err := validateManualPayment(in); err != nil {
		return nil, err
	}

	mp := models.ManualPayment{
		OrderID:       &order.ID,
		PayerName:     strings.TrimSpace(in.PayerName),
		MSISDN:        strings.TrimSpace(in.MSISDN),
		Method:        in.Method,
		ReferenceCode: strings.TrimSpace(in.ReferenceCode),
		AmountMWK:     in.AmountMWK,
		Status:        models.ManualSubmitted,
	}

	if in.Receipt != nil && s.Files != nil {
		ref, err := s.Files.Save(ctx, "receipts", in.Receipt.Filename, in.Receipt.Body)
		if err != nil {
			if ferr := uploadError("receipt_image", err); ferr != nil {
				return nil, ferr
			}
			l.Error("manual_payment_error", "reason", "cannot store receipt", "error", err)
			return nil, err
		}
		mp.ReceiptImage = ref
	}

	if err := s.Repo.CreateManualPayment(ctx, &mp); err != nil {
		if mp.ReceiptImage != "" {
			_ = s.Files.Delete(ctx, mp.ReceiptImage)
		}
		return nil, err
	}

	l.Info("manual_payment_submitted", "manual_payment_id", mp.ID)
	publish(ctx, s.Events, events.ManualPaymentSubmitted, key("order", order.ID), map[string]any{
		"manual_payment_id": mp.ID,
		"order_id":          order.ID,
		"amount_mwk":        mp.AmountMWK,
		"reference_code":    mp.ReferenceCode,
	})
	return &mp, nil
}

func (s *ManualPaymentService) ListSubmitted(ctx context.Context, actor Actor) ([]models.ManualPayment, error) {
	if err := CanReviewManualPayments(actor).Err(); err != nil {
		return nil, err
	}
	return s.Repo.ListManualPayments(ctx, models.ManualSubmitted)
}

// Review approves or rejects a submitted attestation. Approval marks the linked
// order paid and records a successful manual Payment for the order total.
// A row can be reviewed once; later attempts fail with ErrConflict.
func (s *ManualPaymentService) Review(ctx context.Context, actor Actor, id uint, action string) (*models.ManualPayment, error) {
	l := logging.FromContext(ctx).With("svc", "manual_payment.review", "manual_payment_id", id, "action", action)

	if err := CanReviewManualPayments(actor).Err(); err != nil {
		return nil, err
	}
	var status string
	switch action {
	case ReviewApprove:
		status = models.ManualApproved
	case ReviewReject:
		status = models.ManualRejected
	default:
		return nil, invalid("action", "must be approve or reject")
	}

	var mp *models.ManualPayment
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		mp, err = tx.LockManualPayment(ctx, id)
		if err != nil {
			return notFound(err, "manual payment")
		}
		if mp.Status != models.ManualSubmitted {
			return fmt.Errorf("%w: manual payment already %s", ErrConflict, mp.Status)
		}

		var order *models.Order
		if status == models.ManualApproved && mp.OrderID != nil {
			order, err = tx.LockOrder(ctx, *mp.OrderID)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				order = nil
			case err != nil:
				return err
			}
			if order != nil && mp.AmountMWK < order.TotalAmountMWK {
				return invalid("amount_mwk", fmt.Sprintf("attested %d MWK does not cover the order total of %d MWK", mp.AmountMWK, order.TotalAmountMWK))
			}
		}

		at := s.now()
		changed, err := tx.ReviewManualPayment(ctx, mp.ID, status, actor.UserID, at)
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("%w: manual payment was reviewed concurrently", ErrConflict)
		}
		reviewer := actor.UserID
		mp.Status, mp.ReviewedByID, mp.ReviewedAt = status, &reviewer, &at

		if order == nil || order.IsPaid() {
			return nil
		}
		if err := tx.SetOrderPaymentStatus(ctx, order.ID, models.OrderPaymentPaid); err != nil {
			return err
		}
		return tx.CreatePayment(ctx, &models.Payment{
			OrderID:   &order.ID,
			Provider:  models.PaymentMethodManual,
			AmountMWK: order.TotalAmountMWK,
			Status:    models.PaymentSuccess,
		})
	})
	if err != nil {
		l.Warn("manual_review_error", "error", err)
		return nil, err
	}

	l.Info("manual_review_success", "status", mp.Status)
	publish(ctx, s.Events, events.ManualPaymentReviewed, key("manual-payment", mp.ID), map[string]any{
		"manual_payment_id": mp.ID,
		"order_id":          mp.OrderID,
		"status":            mp.Status,
		"reviewed_by":       actor.UserID,
	})
	return mp, nil
}
