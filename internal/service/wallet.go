package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type WalletService struct {
	Repo *repo.GormRepo
}

func (s *WalletService) Get(ctx context.Context, actor Actor) (*models.Wallet, error) {
	if err := requireLogin(actor); err != nil {
		return nil, err
	}
	return s.Repo.GetOrCreateWallet(ctx, actor.UserID)
}

// TopUp adds amount to the caller's balance. There is no withdrawal.
func (s *WalletService) TopUp(ctx context.Context, actor Actor, amount int64) (*models.Wallet, error) {
	l := logging.FromContext(ctx).With("svc", "wallet.topup", "user_id", actor.UserID)

	if err := requireLogin(actor); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, invalid("amount_mwk", "must be greater than 0")
	}
	if amount > models.MaxPriceMWK {
		return nil, invalid("amount_mwk", fmt.Sprintf("must be at most %d", models.MaxPriceMWK))
	}

	var w *models.Wallet
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		created, err := tx.GetOrCreateWallet(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if err := tx.CreditWallet(ctx, created.ID, amount); err != nil {
			return err
		}
		w, err = tx.GetWallet(ctx, created.ID)
		return err
	})
	if err != nil {
		l.Error("topup_error", "error", err)
		return nil, err
	}
	l.Info("topup_success", "amount_mwk", amount, "balance_mwk", w.BalanceMWK)
	return w, nil
}
