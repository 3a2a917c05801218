package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func (r *GormRepo) GetOrCreateWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	w := models.Wallet{UserID: userID}
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).FirstOrCreate(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *GormRepo) CreditWallet(ctx context.Context, walletID uint, amount int64) error {
	return r.DB.WithContext(ctx).Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Update("balance_mwk", gorm.Expr("balance_mwk + ?", amount)).Error
}

func (r *GormRepo) GetWallet(ctx context.Context, walletID uint) (*models.Wallet, error) {
	var w models.Wallet
	if err := r.DB.WithContext(ctx).First(&w, walletID).Error; err != nil {
		return nil, err
	}
	return &w, nil
}
