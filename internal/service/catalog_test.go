package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/testutil"
)

type fakeIndex struct {
	mu      sync.Mutex
	docs    map[uint]models.Product
	hits    []uint
	total   int64
	failing bool
}

func (f *fakeIndex) Put(_ context.Context, p models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docs == nil {
		f.docs = map[uint]models.Product{}
	}
	f.docs[p.ID] = p
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *fakeIndex) Search(context.Context, string, int, int) (int64, []uint, error) {
	if f.failing {
		return 0, nil, errors.New("connection refused")
	}
	return f.total, f.hits, nil
}

func newCatalog(t *testing.T) (*CatalogService, *gorm.DB, *fakeIndex, *memFiles) {
	db := testutil.InitTestDB(t)
	idx := &fakeIndex{}
	files := &memFiles{}
	return &CatalogService{Repo: repo.New(db), Index: idx, Files: files}, db, idx, files
}

func TestCatalogListHidesUnapprovedVendors(t *testing.T) {
	svc, db, _, _ := newCatalog(t)
	approved := testutil.CreateUser(t, db, models.RoleVendor, true)
	pending := testutil.CreateUser(t, db, models.RoleVendor, false)
	for i := 0; i < 13; i++ {
		testutil.CreateProduct(t, db, approved, 100, 1)
	}
	hidden := testutil.CreateProduct(t, db, pending, 100, 1)

	page, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 12)
	require.Equal(t, int64(13), page.Meta.Total)
	require.True(t, page.Meta.HasNext)

	page, err = svc.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	_, err = svc.Detail(context.Background(), hidden.Slug)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateProduct(t *testing.T) {
	svc, db, idx, files := newCatalog(t)
	vendor := ActorFromUser(testutil.CreateUser(t, db, models.RoleVendor, true))

	p, err := svc.CreateProduct(context.Background(), vendor, ProductInput{
		Name:          "Chambo Fish (dried)",
		Description:   "Lake Malawi",
		PriceMWK:      3500,
		StockQuantity: 4,
		Images:        []Upload{{Filename: "a.png", Body: strings.NewReader("1")}},
	})
	require.NoError(t, err)
	require.Equal(t, "chambo-fish-dried", p.Slug)
	require.Len(t, p.Images, 1)
	require.Len(t, files.saved, 1)
	require.Contains(t, idx.docs, p.ID)

	again, err := svc.CreateProduct(context.Background(), vendor, ProductInput{Name: "Chambo fish dried", PriceMWK: 1})
	require.NoError(t, err)
	require.Equal(t, "chambo-fish-dried-2", again.Slug)

	detail, err := svc.Detail(context.Background(), p.Slug)
	require.NoError(t, err)
	require.Equal(t, p.ID, detail.ID)
}

func TestCreateProductRules(t *testing.T) {
	svc, db, _, files := newCatalog(t)
	pending := ActorFromUser(testutil.CreateUser(t, db, models.RoleVendor, false))
	vendor := ActorFromUser(testutil.CreateUser(t, db, models.RoleVendor, true))

	_, err := svc.CreateProduct(context.Background(), pending, ProductInput{Name: "x", PriceMWK: 1})
	var fe *ForbiddenError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "vendor account is awaiting approval", fe.Reason)

	_, err = svc.CreateProduct(context.Background(), vendor, ProductInput{Name: "", PriceMWK: 0, StockQuantity: -1})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Contains(t, ve.Fields, "name")
	require.Contains(t, ve.Fields, "price_mwk")
	require.Contains(t, ve.Fields, "stock_quantity")

	_, err = svc.CreateProduct(context.Background(), vendor, ProductInput{
		Name: "x", PriceMWK: models.MaxPriceMWK + 1, StockQuantity: models.MaxQuantity + 1,
	})
	require.True(t, errors.As(err, &ve))
	require.Contains(t, ve.Fields, "price_mwk")
	require.Contains(t, ve.Fields, "stock_quantity")

	images := make([]Upload, models.MaxProductImages+1)
	for i := range images {
		images[i] = Upload{Filename: "a.png", Body: strings.NewReader("1")}
	}
	_, err = svc.CreateProduct(context.Background(), vendor, ProductInput{Name: "x", PriceMWK: 1, Images: images})
	require.True(t, errors.As(err, &ve))
	require.Contains(t, ve.Fields, "images")

	_, err = svc.CreateProduct(context.Background(), vendor, ProductInput{
		Name: "x", PriceMWK: 1,
		Images: []Upload{{Filename: "a.png", Body: strings.NewReader("1")}, {Filename: "b.bmp", Body: strings.NewReader("2")}},
	})
	require.True(t, errors.As(err, &ve))
	require.Contains(t, ve.Fields, "images")
	require.Empty(t, files.saved)
	require.Zero(t, testutil.CountRows(t, db, &models.Product{}))
}

func TestUpdateProductOwnership(t *testing.T) {
	svc, db, idx, _ := newCatalog(t)
	owner := testutil.CreateUser(t, db, models.RoleVendor, true)
	other := ActorFromUser(testutil.CreateUser(t, db, models.RoleVendor, true))
	p := testutil.CreateProduct(t, db, owner, 100, 1)

	in := ProductInput{Name: "Renamed", PriceMWK: 250, StockQuantity: 9}
	_, err := svc.UpdateProduct(context.Background(), other, p.ID, in)
	require.ErrorIs(t, err, ErrNotFound)

	in.Images = []Upload{{Filename: "c.png", Body: strings.NewReader("3")}}
	updated, err := svc.UpdateProduct(context.Background(), ActorFromUser(owner), p.ID, in)
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.Equal(t, int64(250), updated.PriceMWK)
	require.Equal(t, 9, updated.StockQuantity)
	require.Equal(t, p.Slug, updated.Slug)
	require.Len(t, updated.Images, 1)
	require.Equal(t, "Renamed", idx.docs[p.ID].Name)
}

func TestUpdateProductCountsStoredImages(t *testing.T) {
	svc, db, _, _ := newCatalog(t)
	vendor := ActorFromUser(testutil.CreateUser(t, db, models.RoleVendor, true))

	images := make([]Upload, models.MaxProductImages)
	for i := range images {
		images[i] = Upload{Filename: fmt.Sprintf("%d.png", i), Body: strings.NewReader("1")}
	}
	p, err := svc.CreateProduct(context.Background(), vendor, ProductInput{Name: "Full", PriceMWK: 1, Images: images})
	require.NoError(t, err)

	_, err = svc.UpdateProduct(context.Background(), vendor, p.ID, ProductInput{
		Name: "Full", PriceMWK: 1,
		Images: []Upload{{Filename: "b.png", Body: strings.NewReader("2")}},
	})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Contains(t, ve.Fields, "images")
	require.Equal(t, int64(models.MaxProductImages), testutil.CountRows(t, db, &models.ProductImage{}))
}

func TestDeleteProductProtectsOrderedProducts(t *testing.T) {
	svc, db, idx, _ := newCatalog(t)
	placed := placeOrder(t, db, models.PaymentMethodCOD)
	vendor := ActorFromUser(placed.Vendor)

	var ordered models.OrderItem
	require.NoError(t, db.Where("order_id = ?", placed.Order.ID).First(&ordered).Error)

	err := svc.DeleteProduct(context.Background(), vendor, ordered.ProductID)
	require.ErrorIs(t, err, ErrConflict)
	require.Equal(t, int64(1), testutil.CountRows(t, db, &models.Product{}))

	fresh := testutil.CreateProduct(t, db, placed.Vendor, 10, 1)
	require.NoError(t, idx.Put(context.Background(), *fresh))
	require.NoError(t, svc.DeleteProduct(context.Background(), vendor, fresh.ID))
	require.NotContains(t, idx.docs, fresh.ID)

	err = svc.DeleteProduct(context.Background(), vendor, fresh.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSearchUsesIndexInHitOrder(t *testing.T) {
	svc, db, idx, _ := newCatalog(t)
	vendor := testutil.CreateUser(t, db, models.RoleVendor, true)
	a := testutil.CreateProduct(t, db, vendor, 100, 1)
	b := testutil.CreateProduct(t, db, vendor, 100, 1)
	idx.hits, idx.total = []uint{b.ID, 999, a.ID}, 3

	page, err := svc.Search(context.Background(), "product", 1, 12)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, b.ID, page.Items[0].ID)
	require.Equal(t, a.ID, page.Items[1].ID)
	require.Equal(t, int64(3), page.Meta.Total)
}

func TestSearchFallsBackToDatabase(t *testing.T) {
	svc, db, idx, _ := newCatalog(t)
	idx.failing = true
	vendor := testutil.CreateUser(t, db, models.RoleVendor, true)
	p := testutil.CreateProduct(t, db, vendor, 100, 1)
	require.NoError(t, db.Model(p).Update("name", "Nsima Flour").Error)
	testutil.CreateProduct(t, db, vendor, 100, 1)

	page, err := svc.Search(context.Background(), "nsima", 1, 12)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, p.ID, page.Items[0].ID)

	_, err = svc.Search(context.Background(), "  ", 1, 12)
	require.ErrorIs(t, err, ErrValidation)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":      "hello-world",
		"  --Tea & Sugar ": "tea-sugar",
		"Mango!!":          "mango",
		"???":              "product",
		"Zikomo 2026":      "zikomo-2026",
	}
	for in, want := range cases {
		require.Equal(t, want, slugify(in), in)
	}
}

func TestReindexSkipsHiddenProducts(t *testing.T) {
	svc, db, idx, _ := newCatalog(t)
	vendor := testutil.CreateUser(t, db, models.RoleVendor, true)
	pending := testutil.CreateUser(t, db, models.RoleVendor, false)
	a := testutil.CreateProduct(t, db, vendor, 100, 1)
	testutil.CreateProduct(t, db, pending, 100, 1)

	n, err := svc.Reindex(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Contains(t, idx.docs, a.ID)

	svc.Index = nil
	_, err = svc.Reindex(context.Background())
	require.Error(t, err)
}
