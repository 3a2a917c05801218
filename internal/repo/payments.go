package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func (r *GormRepo) CreatePayment(ctx context.Context, p *models.Payment) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) CreateManualPayment(ctx context.Context, mp *models.ManualPayment) error {
	return r.DB.WithContext(ctx).Omit("Order").Create(mp).Error
}

func (r *GormRepo) LockManualPayment(ctx context.Context, id uint) (*models.ManualPayment, error) {
	var mp models.ManualPayment
	if err := r.DB.WithContext(ctx).Clauses(forUpdate()).First(&mp, id).Error; err != nil {
		return nil, err
	}
	return &mp, nil
}

// ReviewManualPayment moves a submitted row to status. It reports false when
// the row was no longer submitted.
func (r *GormRepo) ReviewManualPayment(ctx context.Context, id uint, status string, reviewerID uint, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.ManualPayment{}).
		Where("id = ? AND status = ?", id, models.ManualSubmitted).
		Updates(map[string]any{
			"status":         status,
			"reviewed_by_id": reviewerID,
			"reviewed_at":    at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *GormRepo) ListManualPayments(ctx context.Context, status string) ([]models.ManualPayment, error) {
	var items []models.ManualPayment
	err := r.DB.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	return items, err
}

func (r *GormRepo) ListOrderManualPayments(ctx context.Context, orderID uint) ([]models.ManualPayment, error) {
	var items []models.ManualPayment
	err := r.DB.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	return items, err
}
