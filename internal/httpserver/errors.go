package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
)

type errorBody struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Reason  string            `json:"reason,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// httpError maps service errors to a status code and a body that is safe to
// show. Unknown errors become a generic 500.
func httpError(err error) *echo.HTTPError {
	var (
		he *echo.HTTPError
		ve *service.ValidationError
		fe *service.ForbiddenError
	)
	switch {
	case errors.As(err, &he):
		return he
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, errorBody{Status: "error", Message: "invalid input", Fields: ve.Fields})
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, errorBody{Status: "error", Message: err.Error()})
	case errors.Is(err, service.ErrEmptyCart):
		return echo.NewHTTPError(http.StatusBadRequest, errorBody{Status: "error", Message: "cart is empty"})
	case errors.Is(err, service.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, errorBody{Status: "error", Message: "login required"})
	case errors.As(err, &fe):
		return echo.NewHTTPError(http.StatusForbidden, errorBody{Status: "error", Message: "forbidden", Reason: fe.Reason})
	case errors.Is(err, service.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, errorBody{Status: "error", Message: "forbidden"})
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, errorBody{Status: "error", Message: "not found"})
	case errors.Is(err, service.ErrInsufficientStock), errors.Is(err, service.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, errorBody{Status: "error", Message: err.Error()})
	}
	return echo.NewHTTPError(http.StatusInternalServerError, errorBody{Status: "error", Message: "internal error"})
}

// fail logs err under event at a level matching the mapped status and returns
// the HTTP error for echo to render.
func fail(l *slog.Logger, event string, err error) error {
	he := httpError(err)
	if he.Code >= http.StatusInternalServerError {
		l.Error(event, "status", he.Code, "error", err)
	} else {
		l.Warn(event, "status", he.Code, "error", err)
	}
	return he
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, errorBody{Status: "error", Message: reason})
}
