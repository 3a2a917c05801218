package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type AdminHTTP struct {
	Manual  *service.ManualPaymentService
	Vendors *service.VendorService
	Actors  *service.ActorService
}

func (h *AdminHTTP) ListManualPayments(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.manual_list")

	a, err := actor(c, h.Actors)
	if err != nil {
		return fail(l, "manual_list_error", err)
	}
	items, err := h.Manual.ListSubmitted(ctx, a)
	if err != nil {
		return fail(l, "manual_list_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items})
}

func (h *AdminHTTP) ReviewManualPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.manual_review")

	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(l, "manual_review_error", "id is not a positive integer", nil)
	}
	a, err := actor(c, h.Actors)
	if err != nil {
		return fail(l, "manual_review_error", err)
	}
	mp, err := h.Manual.Review(ctx, a, id, c.Param("action"))
	if err != nil {
		return fail(l, "manual_review_error", err)
	}
	l.Info("manual_review_success", "manual_payment_id", mp.ID, "result", mp.Status)
	return c.JSON(http.StatusOK, mp)
}

func (h *AdminHTTP) ApproveVendor(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.approve_vendor")

	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(l, "approve_vendor_error", "id is not a positive integer", nil)
	}
	a, err := actor(c, h.Actors)
	if err != nil {
		return fail(l, "approve_vendor_error", err)
	}
	u, err := h.Vendors.Approve(ctx, a, id)
	if err != nil {
		return fail(l, "approve_vendor_error", err)
	}
	return c.JSON(http.StatusOK, transport.UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		Role:           u.Role,
		VendorApproved: u.VendorApproved,
	})
}
