package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
)

const approvedVendorSQL = "vendor_id IN (SELECT id FROM users WHERE role = ? AND vendor_approved = ?)"

func purchasable(db *gorm.DB) *gorm.DB {
	return db.Where(approvedVendorSQL, models.RoleVendor, true)
}

// ListProducts returns the public catalog, newest first.
func (r *GormRepo) ListProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Scopes(purchasable).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := r.DB.WithContext(ctx).Scopes(purchasable).
		Preload("Images").
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Scopes(purchasable).Preload("Images").
		Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) GetVendorProduct(ctx context.Context, vendorID, productID uint) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Preload("Images").
		Where("id = ? AND vendor_id = ?", productID, vendorID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) ListVendorProducts(ctx context.Context, vendorID uint) ([]models.Product, error) {
	var items []models.Product
	err := r.DB.WithContext(ctx).Preload("Images").
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	return items, err
}

// PurchasableProducts resolves ids without locking. Unknown ids and products of
// unapproved vendors are left out.
func (r *GormRepo) PurchasableProducts(ctx context.Context, ids []uint) ([]models.Product, error) {
	var items []models.Product
	err := r.DB.WithContext(ctx).Scopes(purchasable).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// LockPurchasableProducts is PurchasableProducts with FOR UPDATE. Rows are
// locked in id order so concurrent checkouts cannot deadlock.
func (r *GormRepo) LockPurchasableProducts(ctx context.Context, ids []uint) ([]models.Product, error) {
	var items []models.Product
	err := r.DB.WithContext(ctx).Clauses(forUpdate()).Scopes(purchasable).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *GormRepo) SetStock(ctx context.Context, productID uint, stock int) error {
	return r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock_quantity", stock).Error
}

func (r *GormRepo) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Product{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) UpdateProduct(ctx context.Context, p *models.Product, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Model(p).Updates(fields).Error
}

func (r *GormRepo) AddProductImages(ctx context.Context, images []models.ProductImage) error {
	if len(images) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Create(&images).Error
}

func (r *GormRepo) CountProductImages(ctx context.Context, productID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.ProductImage{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}

func (r *GormRepo) ProductOrdered(ctx context.Context, productID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.OrderItem{}).Where("product_id = ?", productID).Count(&count).Error
	return count > 0, err
}

func (r *GormRepo) DeleteProduct(ctx context.Context, productID uint) error {
	if err := r.DB.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.ProductImage{}).Error; err != nil {
		return err
	}
	res := r.DB.WithContext(ctx).Delete(&models.Product{}, productID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SearchProductsLike is the database search used when no index is configured.
func (r *GormRepo) SearchProductsLike(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	where := "(LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(category) LIKE ?)"

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Scopes(purchasable).
		Where(where, pattern, pattern, pattern).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := r.DB.WithContext(ctx).Scopes(purchasable).Preload("Images").
		Where(where, pattern, pattern, pattern).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// ProductsByIDs hydrates search hits; the result is in no particular order.
func (r *GormRepo) ProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	var items []models.Product
	if len(ids) == 0 {
		return items, nil
	}
	err := r.DB.WithContext(ctx).Scopes(purchasable).Preload("Images").Where("id IN ?", ids).Find(&items).Error
	return items, err
}
