package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/models"
	middleware "github.com/Skotchmaster/marketplace/pkg/middleware/auth"
)

type Deps struct {
	Catalog   *CatalogHTTP
	Cart      *CartHTTP
	Checkout  *CheckoutHTTP
	Manual    *ManualPaymentHTTP
	Admin     *AdminHTTP
	Vendor    *VendorHTTP
	Dashboard *DashboardHTTP
	Wallet    *WalletHTTP
	Auth      *AuthHTTP

	JWTSecret    []byte
	CookieSecure bool
	// Ready reports whether backing stores answer. Nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, errorBody{Status: "error", Message: err.Error()})
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.Auth.Svc, d.CookieSecure)

	e.GET("/", d.Catalog.GetProducts)
	e.GET("/p/:slug/", d.Catalog.GetProduct)
	e.GET("/search/", d.Catalog.SearchProducts)

	e.GET("/cart/", d.Cart.GetCart)
	e.POST("/cart/add/", d.Cart.AddToCart)

	accounts := e.Group("/accounts")
	accounts.POST("/signup/customer/", d.Auth.SignupCustomer)
	accounts.POST("/signup/vendor/", d.Auth.SignupVendor)
	accounts.POST("/login/", d.Auth.Login)
	accounts.POST("/logout/", d.Auth.Logout)

	user := e.Group("", authMW.RequireAuth)
	user.GET("/checkout/", d.Checkout.Preview)
	user.POST("/checkout/", d.Checkout.Checkout)
	user.GET("/orders/:id/thank-you/", d.Checkout.ThankYou)
	user.GET("/payments/manual/:order_id/submit/", d.Manual.GetSubmission)
	user.POST("/payments/manual/:order_id/submit/", d.Manual.Submit)
	user.GET("/wallet/", d.Wallet.Get)
	user.POST("/wallet/topup/", d.Wallet.TopUp)
	user.GET("/dashboard/customer/", d.Dashboard.Customer)
	user.GET("/dashboard/vendor/", d.Dashboard.Vendor)
	user.GET("/dashboard/admin/", d.Dashboard.Admin)

	// Staff accounts keep their signup role, so admin access is decided by
	// the services against the stored user rather than by the token role.
	admin := e.Group("/admin", authMW.RequireAuth)
	admin.GET("/manual/review/", d.Admin.ListManualPayments)
	admin.POST("/manual/review/:id/:action/", d.Admin.ReviewManualPayment)
	admin.POST("/approve-vendor/:id/", d.Admin.ApproveVendor)

	vendor := e.Group("/vendor", authMW.RequireRole(models.RoleVendor))
	vendor.GET("/orders/", d.Vendor.ListOrders)
	vendor.GET("/orders/:id/", d.Vendor.GetOrder)
	vendor.POST("/orders/:id/cod-collected/", d.Vendor.MarkCODCollected)
	vendor.GET("/products/", d.Vendor.ListProducts)
	vendor.POST("/products/add/", d.Vendor.CreateProduct)
	vendor.POST("/products/:id/edit/", d.Vendor.UpdateProduct)
	vendor.POST("/products/:id/delete/", d.Vendor.DeleteProduct)
}
