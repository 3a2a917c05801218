package service

import (
	"context"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
)

type DashboardService struct {
	Repo *repo.GormRepo
}

type CustomerDashboard struct {
	Orders []models.Order `json:"orders"`
}

type VendorDashboard struct {
	Approved bool             `json:"approved"`
	Products []models.Product `json:"products"`
	Orders   []models.Order   `json:"orders"`
}

type AdminDashboard struct {
	PendingVendors    []models.User          `json:"pending_vendors"`
	SubmittedPayments []models.ManualPayment `json:"submitted_payments"`
	OrderCount        int64                  `json:"order_count"`
}

func (s *DashboardService) Customer(ctx context.Context, actor Actor) (*CustomerDashboard, error) {
	if err := requireLogin(actor); err != nil {
		return nil, err
	}
	orders, err := s.Repo.ListCustomerOrders(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &CustomerDashboard{Orders: orders}, nil
}

func (s *DashboardService) Vendor(ctx context.Context, actor Actor) (*VendorDashboard, error) {
	if err := requireLogin(actor); err != nil {
		return nil, err
	}
	if err := CanViewVendorArea(actor).Err(); err != nil {
		return nil, err
	}
	products, err := s.Repo.ListVendorProducts(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	orders, err := s.Repo.ListVendorOrders(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &VendorDashboard{Approved: actor.VendorApproved, Products: products, Orders: orders}, nil
}

func (s *DashboardService) Admin(ctx context.Context, actor Actor) (*AdminDashboard, error) {
	if err := requireLogin(actor); err != nil {
		return nil, err
	}
	if err := CanViewAdminArea(actor).Err(); err != nil {
		return nil, err
	}
	vendors, err := s.Repo.ListPendingVendors(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := s.Repo.ListManualPayments(ctx, models.ManualSubmitted)
	if err != nil {
		return nil, err
	}
	count, err := s.Repo.CountOrders(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminDashboard{PendingVendors: vendors, SubmittedPayments: payments, OrderCount: count}, nil
}
