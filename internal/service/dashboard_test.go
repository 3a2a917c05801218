package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/testutil"
)

func TestDashboards(t *testing.T) {
	db := testutil.InitTestDB(t)
	svc := &DashboardService{Repo: repo.New(db)}
	p := placeOrder(t, db, models.PaymentMethodManual)
	testutil.CreateUser(t, db, models.RoleVendor, false)
	admin := adminActor(t, db)

	customer, err := svc.Customer(context.Background(), p.Buyer)
	require.NoError(t, err)
	require.Len(t, customer.Orders, 1)

	vendor, err := svc.Vendor(context.Background(), ActorFromUser(p.Vendor))
	require.NoError(t, err)
	require.True(t, vendor.Approved)
	require.Len(t, vendor.Products, 1)
	require.Len(t, vendor.Orders, 1)

	_, err = svc.Vendor(context.Background(), p.Buyer)
	require.ErrorIs(t, err, ErrForbidden)

	adm, err := svc.Admin(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, adm.PendingVendors, 1)
	require.Empty(t, adm.SubmittedPayments)
	require.Equal(t, int64(1), adm.OrderCount)

	_, err = svc.Admin(context.Background(), p.Buyer)
	require.ErrorIs(t, err, ErrForbidden)
}
