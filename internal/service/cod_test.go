package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/testutil"
)

func TestMarkCollectedIsIdempotent(t *testing.T) {
	db := testutil.InitTestDB(t)
	rec := &events.Recorder{}
	svc := &CODService{Repo: repo.New(db), Events: rec}
	p := placeOrder(t, db, models.PaymentMethodCOD)
	vendor := ActorFromUser(p.Vendor)

	order, err := svc.MarkCollected(context.Background(), vendor, p.Order.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderPaymentPaid, order.PaymentStatus)

	order, err = svc.MarkCollected(context.Background(), vendor, p.Order.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderPaymentPaid, order.PaymentStatus)

	require.Equal(t, int64(1), paymentsByStatus(t, db, p.Order.ID, models.PaymentSuccess))
	require.Equal(t, int64(1), paymentsByStatus(t, db, p.Order.ID, models.PaymentPending))
	require.Equal(t, models.OrderPaymentPaid, reloadOrder(t, db, p.Order.ID).PaymentStatus)
	require.Equal(t, []string{events.CODCollected}, rec.Types())
}

func TestMarkCollectedRequiresCODOrder(t *testing.T) {
	db := testutil.InitTestDB(t)
	svc := &CODService{Repo: repo.New(db)}
	p := placeOrder(t, db, models.PaymentMethodManual)

	_, err := svc.MarkCollected(context.Background(), ActorFromUser(p.Vendor), p.Order.ID)
	require.ErrorIs(t, err, ErrConflict)
	require.Zero(t, paymentsByStatus(t, db, p.Order.ID, models.PaymentSuccess))
}

func TestMarkCollectedOtherVendor(t *testing.T) {
	db := testutil.InitTestDB(t)
	svc := &CODService{Repo: repo.New(db)}
	p := placeOrder(t, db, models.PaymentMethodCOD)
	stranger := ActorFromUser(testutil.CreateUser(t, db, models.RoleVendor, true))

	_, err := svc.MarkCollected(context.Background(), stranger, p.Order.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, models.OrderPaymentPending, reloadOrder(t, db, p.Order.ID).PaymentStatus)
}

func TestMarkCollectedNonVendorForbidden(t *testing.T) {
	db := testutil.InitTestDB(t)
	svc := &CODService{Repo: repo.New(db)}
	p := placeOrder(t, db, models.PaymentMethodCOD)

	_, err := svc.MarkCollected(context.Background(), p.Buyer, p.Order.ID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestVendorOrders(t *testing.T) {
	db := testutil.InitTestDB(t)
	svc := &CODService{Repo: repo.New(db)}
	p := placeOrder(t, db, models.PaymentMethodCOD)
	placeOrder(t, db, models.PaymentMethodCOD)

	orders, err := svc.VendorOrders(context.Background(), ActorFromUser(p.Vendor))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, p.Order.ID, orders[0].ID)
}

func TestVendorOrderVisibleToSellingVendorOnly(t *testing.T) {
	db := testutil.InitTestDB(t)
	svc := &CODService{Repo: repo.New(db)}
	p := placeOrder(t, db, models.PaymentMethodCOD)

	order, err := svc.VendorOrder(context.Background(), ActorFromUser(p.Vendor), p.Order.ID)
	require.NoError(t, err)
	require.Equal(t, p.Order.ID, order.ID)
	require.Len(t, order.Items, 1)
	require.Len(t, order.Payments, 1)

	stranger := ActorFromUser(testutil.CreateUser(t, db, models.RoleVendor, true))
	_, err = svc.VendorOrder(context.Background(), stranger, p.Order.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.VendorOrder(context.Background(), p.Buyer, p.Order.ID)
	require.ErrorIs(t, err, ErrForbidden)
}
