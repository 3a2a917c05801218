package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/session"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type CheckoutHTTP struct {
	Svc          *service.CheckoutService
	Actors       *service.ActorService
	Carts        session.Store
	SessionTTL   time.Duration
	CookieSecure bool
}

func (h *CheckoutHTTP) cart(c echo.Context) (string, session.Cart, error) {
	sid := sessionID(c, false, h.SessionTTL, h.CookieSecure)
	if sid == "" {
		return "", session.Cart{}, nil
	}
	cart, err := h.Carts.Get(c.Request().Context(), sid)
	return sid, cart, err
}

func (h *CheckoutHTTP) Preview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.preview")

	_, cart, err := h.cart(c)
	if err != nil {
		return fail(l, "checkout_preview_error", err)
	}
	summary, err := h.Svc.Preview(ctx, cart)
	if err != nil {
		return fail(l, "checkout_preview_error", err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *CheckoutHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.submit")

	a, err := actor(c, h.Actors)
	if err != nil {
		return fail(l, "checkout_error", err)
	}

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "checkout_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "checkout_error", err)
	}

	sid, cart, err := h.cart(c)
	if err != nil {
		return fail(l, "checkout_error", err)
	}

	order, err := h.Svc.Checkout(ctx, service.CheckoutInput{
		Actor:           a,
		Cart:            cart,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		MSISDN:          req.MSISDN,
	})
	if err != nil {
		return fail(l, "checkout_error", err)
	}

	if sid != "" {
		if err := h.Carts.Clear(ctx, sid); err != nil {
			l.Error("clear_cart_error", "order_id", order.ID, "error", err)
		}
	}

	l.Info("checkout_success", "status", http.StatusCreated, "order_id", order.ID)
	c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("/orders/%d/thank-you/", order.ID))
	return c.JSON(http.StatusCreated, order)
}

func (h *CheckoutHTTP) ThankYou(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.thank_you")

	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(l, "thank_you_error", "id is not a positive integer", nil)
	}
	a, err := actor(c, h.Actors)
	if err != nil {
		return fail(l, "thank_you_error", err)
	}
	order, err := h.Svc.GetCustomerOrder(ctx, a, id)
	if err != nil {
		return fail(l, "thank_you_error", err)
	}
	return c.JSON(http.StatusOK, order)
}
