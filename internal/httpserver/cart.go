package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/session"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type CartHTTP struct {
	Store        session.Store
	Checkout     *service.CheckoutService
	SessionTTL   time.Duration
	CookieSecure bool
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	sid := sessionID(c, false, h.SessionTTL, h.CookieSecure)
	cart := session.Cart{}
	if sid != "" {
		var err error
		if cart, err = h.Store.Get(ctx, sid); err != nil {
			return fail(l, "get_cart_error", err)
		}
	}

	summary, err := h.Checkout.Preview(ctx, cart)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_to_cart_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "add_to_cart_error", err)
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	sid := sessionID(c, true, h.SessionTTL, h.CookieSecure)
	cart, err := h.Store.Add(ctx, sid, req.ProductID, req.Qty)
	if err != nil {
		return fail(l, "add_to_cart_error", err)
	}

	summary, err := h.Checkout.Preview(ctx, cart)
	if err != nil {
		return fail(l, "add_to_cart_error", err)
	}
	l.Info("add_to_cart_success", "product_id", req.ProductID, "qty", cart[req.ProductID])
	return c.JSON(http.StatusOK, summary)
}
