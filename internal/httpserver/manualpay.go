package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type ManualPaymentHTTP struct {
	Svc    *service.ManualPaymentService
	Actors *service.ActorService
}

func (h *ManualPaymentHTTP) GetSubmission(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "manual_payment.view")

	orderID, ok := idParam(c, "order_id")
	if !ok {
		return badRequest(l, "manual_payment_view_error", "order_id is not a positive integer", nil)
	}
	a, err := actor(c, h.Actors)
	if err != nil {
		return fail(l, "manual_payment_view_error", err)
	}
	order, prior, err := h.Svc.OrderForSubmission(ctx, a, orderID)
	if err != nil {
		return fail(l, "manual_payment_view_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"order": order, "manual_payments": prior})
}

func (h *ManualPaymentHTTP) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "manual_payment.submit")

	orderID, ok := idParam(c, "order_id")
	if !ok {
		return badRequest(l, "manual_payment_submit_error", "order_id is not a positive integer", nil)
	}
	a, err := actor(c, h.Actors)
	if err != nil {
		return fail(l, "manual_payment_submit_error", err)
	}

	var req transport.ManualPaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "manual_payment_submit_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "manual_payment_submit_error", err)
	}

	uploads, closeFiles, err := formFiles(c, "receipt_image")
	if err != nil {
		return badRequest(l, "manual_payment_submit_error", "invalid multipart form", err)
	}
	defer closeFiles()

	in := service.SubmitManualPaymentInput{
		Actor:         a,
		OrderID:       orderID,
		PayerName:     req.PayerName,
		MSISDN:        req.MSISDN,
		Method:        req.Method,
		ReferenceCode: req.ReferenceCode,
		AmountMWK:     req.AmountMWK,
	}
	if len(uploads) > 0 {
		in.Receipt = &uploads[0]
	}

	mp, err := h.Svc.Submit(ctx, in)
	if err != nil {
		return fail(l, "manual_payment_submit_error", err)
	}
	l.Info("manual_payment_submit_success", "status", http.StatusCreated, "manual_payment_id", mp.ID)
	return c.JSON(http.StatusCreated, mp)
}
