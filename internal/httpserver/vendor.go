package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type VendorHTTP struct {
	COD     *service.CODService
	Catalog *service.CatalogService
	Actors  *service.ActorService
}

func (h *VendorHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.orders")

	a, err := actor(c, h.Actors)
	if err != nil {
		return fail(l, "vendor_orders_error", err)
	}
	orders, err := h.COD.VendorOrders(ctx, a)
	if err != nil {
		return fail(l, "vendor_orders_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": orders})
}

func (h *VendorHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.order")

	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(l, "vendor_order_error", "id is not a positive integer", nil)
	}
	a, err := actor(c, h.Actors)
	if err != nil {
		return fail(l, "vendor_order_error", err)
	}
	order, err := h.COD.VendorOrder(ctx, a, id)
	if err != nil {
		return fail(l, "vendor_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *VendorHTTP) MarkCODCollected(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.cod_collected")

	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(l, "cod_collected_error", "id is not a positive integer", nil)
	}
	a, err := actor(c, h.Actors)
	if err != nil {
		return fail(l, "cod_collected_error", err)
	}
	order, err := h.COD.MarkCollected(ctx, a, id)
	if err != nil {
		return fail(l, "cod_collected_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *VendorHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.products")

	a, err := actor(c, h.Actors)
	if err != nil {
		return fail(l, "vendor_products_error", err)
	}
	items, err := h.Catalog.VendorProducts(ctx, a)
	if err != nil {
		return fail(l, "vendor_products_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items})
}

func (h *VendorHTTP) productInput(c echo.Context) (service.ProductInput, func(), error) {
	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		return service.ProductInput{}, func() {}, echo.NewHTTPError(http.StatusBadRequest, errorBody{Status: "error", Message: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return service.ProductInput{}, func() {}, err
	}
	images, closeFiles, err := formFiles(c, "images")
	if err != nil {
		return service.ProductInput{}, func() {}, echo.NewHTTPError(http.StatusBadRequest, errorBody{Status: "error", Message: "invalid multipart form"})
	}
	return service.ProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		PriceMWK:      req.PriceMWK,
		StockQuantity: req.StockQuantity,
		Images:        images,
	}, closeFiles, nil
}

func (h *VendorHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.create_product")

	a, err := actor(c, h.Actors)
	if err != nil {
		return fail(l, "create_product_error", err)
	}
	in, closeFiles, err := h.productInput(c)
	defer closeFiles()
	if err != nil {
		return fail(l, "create_product_error", err)
	}

	p, err := h.Catalog.CreateProduct(ctx, a, in)
	if err != nil {
		return fail(l, "create_product_error", err)
	}
	l.Info("create_product_success", "status", http.StatusCreated, "product_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *VendorHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.update_product")

	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(l, "update_product_error", "id is not a positive integer", nil)
	}
	a, err := actor(c, h.Actors)
	if err != nil {
		return fail(l, "update_product_error", err)
	}
	in, closeFiles, err := h.productInput(c)
	defer closeFiles()
	if err != nil {
		return fail(l, "update_product_error", err)
	}

	p, err := h.Catalog.UpdateProduct(ctx, a, id, in)
	if err != nil {
		return fail(l, "update_product_error", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *VendorHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.delete_product")

	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(l, "delete_product_error", "id is not a positive integer", nil)
	}
	a, err := actor(c, h.Actors)
	if err != nil {
		return fail(l, "delete_product_error", err)
	}
	if err := h.Catalog.DeleteProduct(ctx, a, id); err != nil {
		return fail(l, "delete_product_error", err)
	}
	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}
