package loggingmw

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/pkg/logging"
)

func TestRequestLoggerWritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(logging.NewWithWriter("debug", &buf)))
	e.GET("/orders/:id/thank-you/", func(c echo.Context) error {
		c.Set("user_id", "42")
		logging.FromContext(c.Request().Context()).Info("handler_line")
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	})

	req := httptest.NewRequest(http.MethodGet, "/orders/7/thank-you/", nil)
	req.Header.Set(echo.HeaderXRequestID, "rid-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "rid-1", rec.Header().Get(echo.HeaderXRequestID))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first, last map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.Equal(t, "rid-1", first["request_id"])

	require.NoError(t, json.Unmarshal(lines[1], &last))
	require.Equal(t, "request_completed", last["msg"])
	require.Equal(t, "WARN", last["level"])
	require.Equal(t, "/orders/:id/thank-you/", last["path"])
	require.Equal(t, "42", last["user_id"])
	require.EqualValues(t, 404, last["status"])
}

func TestRequestLoggerGeneratesRequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestLogger(logging.Discard()))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}
