package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/testutil"
)

func TestWalletTopUp(t *testing.T) {
	db := testutil.InitTestDB(t)
	svc := &WalletService{Repo: repo.New(db)}
	actor := ActorFromUser(testutil.CreateUser(t, db, models.RoleCustomer, false))

	w, err := svc.Get(context.Background(), actor)
	require.NoError(t, err)
	require.Zero(t, w.BalanceMWK)

	w, err = svc.TopUp(context.Background(), actor, 2500)
	require.NoError(t, err)
	require.Equal(t, int64(2500), w.BalanceMWK)

	w, err = svc.TopUp(context.Background(), actor, 500)
	require.NoError(t, err)
	require.Equal(t, int64(3000), w.BalanceMWK)
	require.Equal(t, int64(1), testutil.CountRows(t, db, &models.Wallet{}))

	_, err = svc.TopUp(context.Background(), actor, 0)
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.TopUp(context.Background(), actor, -10)
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.TopUp(context.Background(), actor, models.MaxPriceMWK+1)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Get(context.Background(), Actor{})
	require.ErrorIs(t, err, ErrUnauthorized)
}
