package service

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/session"
	"github.com/Skotchmaster/marketplace/internal/testutil"
	"github.com/Skotchmaster/marketplace/pkg/hash"
)

func TestMain(m *testing.M) {
	hash.Cost = bcrypt.MinCost
	os.Exit(m.Run())
}

type placed struct {
	Order  *models.Order
	Buyer  Actor
	Vendor *models.User
}

// placeOrder checks out one product of price 500 with quantity 2.
func placeOrder(t *testing.T, db *gorm.DB, method string) placed {
	t.Helper()
	vendor := testutil.CreateUser(t, db, models.RoleVendor, true)
	p := testutil.CreateProduct(t, db, vendor, 500, 10)
	buyer := ActorFromUser(testutil.CreateUser(t, db, models.RoleCustomer, false))

	co := &CheckoutService{Repo: repo.New(db)}
	order, err := co.Checkout(context.Background(), CheckoutInput{
		Actor:           buyer,
		Cart:            session.Cart{p.ID: 2},
		ShippingAddress: "Mzuzu",
		PaymentMethod:   method,
	})
	require.NoError(t, err)
	return placed{Order: order, Buyer: buyer, Vendor: vendor}
}

func adminActor(t *testing.T, db *gorm.DB) Actor {
	t.Helper()
	return ActorFromUser(testutil.CreateUser(t, db, models.RoleAdmin, false))
}

func reloadOrder(t *testing.T, db *gorm.DB, id uint) models.Order {
	t.Helper()
	var o models.Order
	require.NoError(t, db.First(&o, id).Error)
	return o
}

func paymentsByStatus(t *testing.T, db *gorm.DB, orderID uint, status string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Payment{}).Where("order_id = ? AND status = ?", orderID, status).Count(&n).Error)
	return n
}
