package repo

import (
	"context"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func (r *GormRepo) CreateOrder(ctx context.Context, o *models.Order) error {
	return r.DB.WithContext(ctx).Omit("Items", "Payments").Create(o).Error
}

func (r *GormRepo) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	return r.DB.WithContext(ctx).Omit("Product").Create(item).Error
}

func (r *GormRepo) SetOrderTotal(ctx context.Context, orderID uint, total int64) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("total_amount_mwk", total).Error
}

func (r *GormRepo) SetOrderPaymentStatus(ctx context.Context, orderID uint, status string) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("payment_status", status).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items").Preload("Items.Product").Preload("Payments").
		First(&o, orderID).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// GetCustomerOrder only finds orders placed by customerID.
func (r *GormRepo) GetCustomerOrder(ctx context.Context, customerID, orderID uint) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items").Preload("Items.Product").Preload("Payments").
		Where("id = ? AND customer_id = ?", orderID, customerID).
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) LockOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Clauses(forUpdate()).First(&o, orderID).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) ListCustomerOrders(ctx context.Context, customerID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

const vendorOrderSQL = "id IN (SELECT oi.order_id FROM order_items oi JOIN products p ON p.id = oi.product_id WHERE p.vendor_id = ?)"

// ListVendorOrders returns orders containing at least one of the vendor's products.
func (r *GormRepo) ListVendorOrders(ctx context.Context, vendorID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").Preload("Items.Product").
		Where(vendorOrderSQL, vendorID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

func (r *GormRepo) VendorSellsInOrder(ctx context.Context, vendorID, orderID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Where(vendorOrderSQL, vendorID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormRepo) CountOrders(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).Count(&count).Error
	return count, err
}
