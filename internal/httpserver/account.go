package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	middleware "github.com/Skotchmaster/marketplace/pkg/middleware/auth"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

type AuthHTTP struct {
	Svc          *service.AuthService
	CookieSecure bool
}

func userResponse(u *models.User) transport.UserResponse {
	return transport.UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		Role:           u.Role,
		VendorApproved: u.VendorApproved,
	}
}

func (h *AuthHTTP) signup(c echo.Context, role string) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.signup_"+role)

	var req transport.SignupRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "signup_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "signup_error", err)
	}

	u, err := h.Svc.Signup(ctx, role, service.SignupInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	})
	if err != nil {
		return fail(l, "signup_error", err)
	}
	l.Info("signup_success", "status", http.StatusCreated, "user_id", u.ID)
	return c.JSON(http.StatusCreated, userResponse(u))
}

func (h *AuthHTTP) SignupCustomer(c echo.Context) error { return h.signup(c, models.RoleCustomer) }

func (h *AuthHTTP) SignupVendor(c echo.Context) error { return h.signup(c, models.RoleVendor) }

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "login_error", err)
	}

	u, pair, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return fail(l, "login_failed", err)
	}
	middleware.SetAuthCookies(c, pair, h.CookieSecure)
	l.Info("login_success", "status", http.StatusOK, "user_id", u.ID)
	return c.JSON(http.StatusOK, userResponse(u))
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	if ck, err := c.Cookie(tokens.RefreshCookie); err == nil {
		if err := h.Svc.Logout(ctx, ck.Value); err != nil {
			l.Error("logout_error", "reason", "cannot revoke refresh token", "error", err)
		}
	}
	middleware.ClearAuthCookies(c)
	return c.NoContent(http.StatusNoContent)
}

type DashboardHTTP struct {
	Svc    *service.DashboardService
	Actors *service.ActorService
}

func (h *DashboardHTTP) Customer(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "dashboard.customer")

	a, err := actor(c, h.Actors)
	if err != nil {
		return fail(l, "dashboard_error", err)
	}
	d, err := h.Svc.Customer(ctx, a)
	if err != nil {
		return fail(l, "dashboard_error", err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *DashboardHTTP) Vendor(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "dashboard.vendor")

	a, err := actor(c, h.Actors)
	if err != nil {
		return fail(l, "dashboard_error", err)
	}
	d, err := h.Svc.Vendor(ctx, a)
	if err != nil {
		return fail(l, "dashboard_error", err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *DashboardHTTP) Admin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "dashboard.admin")

	a, err := actor(c, h.Actors)
	if err != nil {
		return fail(l, "dashboard_error", err)
	}
	d, err := h.Svc.Admin(ctx, a)
	if err != nil {
		return fail(l, "dashboard_error", err)
	}
	return c.JSON(http.StatusOK, d)
}

type WalletHTTP struct {
	Svc    *service.WalletService
	Actors *service.ActorService
}

func (h *WalletHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wallet.get")

	a, err := actor(c, h.Actors)
	if err != nil {
		return fail(l, "wallet_error", err)
	}
	w, err := h.Svc.Get(ctx, a)
	if err != nil {
		return fail(l, "wallet_error", err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *WalletHTTP) TopUp(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wallet.topup")

	a, err := actor(c, h.Actors)
	if err != nil {
		return fail(l, "topup_error", err)
	}
	var req transport.TopUpRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "topup_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "topup_error", err)
	}
	w, err := h.Svc.TopUp(ctx, a, req.AmountMWK)
	if err != nil {
		return fail(l, "topup_error", err)
	}
	return c.JSON(http.StatusOK, w)
}
