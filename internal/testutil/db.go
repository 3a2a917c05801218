// Package testutil builds in-memory databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/marketplace/internal/models"
)

var seq atomic.Int64

func InitTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// one connection keeps the in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, role string, approved bool) *models.User {
	t.Helper()
	n := seq.Add(1)
	u := &models.User{
		Username:       fmt.Sprintf("%s_%d", role, n),
		Email:          fmt.Sprintf("%s_%d@example.test", role, n),
		PasswordHash:   "x",
		Role:           role,
		VendorApproved: approved,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func CreateProduct(t *testing.T, db *gorm.DB, vendor *models.User, price int64, stock int) *models.Product {
	t.Helper()
	n := seq.Add(1)
	p := &models.Product{
		VendorID:      vendor.ID,
		Name:          fmt.Sprintf("Product %d", n),
		Slug:          fmt.Sprintf("product-%d", n),
		Description:   "test product",
		PriceMWK:      price,
		StockQuantity: stock,
	}
	if err := db.Omit("Vendor").Create(p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func ReloadProduct(t *testing.T, db *gorm.DB, id uint) *models.Product {
	t.Helper()
	var p models.Product
	if err := db.First(&p, id).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return &p
}

func CountRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
