package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

var secret = []byte("test-access")

type fakeRefresher struct {
	pair *tokens.Pair
	err  error
	seen string
}

func (f *fakeRefresher) Refresh(_ context.Context, refreshToken string) (*tokens.Pair, error) {
	f.seen = refreshToken
	return f.pair, f.err
}

func okHandler(c echo.Context) error {
	id, _ := UserID(c)
	return c.JSON(http.StatusOK, map[string]any{"user_id": id, "role": c.Get(CtxRole)})
}

func serve(t *testing.T, mw echo.MiddlewareFunc, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := mw(okHandler)(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestRequireAuthValidToken(t *testing.T) {
	tok, err := tokens.SignAccess(secret, "5", "customer", time.Now().Add(time.Minute))
	require.NoError(t, err)

	m := NewAutoRefreshMiddleware(secret, nil, false)
	rec := serve(t, m.RequireAuth, &http.Cookie{Name: tokens.AccessCookie, Value: tok})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"user_id":5`)
}

func TestRequireAuthMissingCookies(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, &fakeRefresher{}, false)
	rec := serve(t, m.RequireAuth)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRefreshesExpired(t *testing.T) {
	expired, err := tokens.SignAccess(secret, "5", "customer", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	fresh, err := tokens.SignAccess(secret, "5", "customer", time.Now().Add(time.Minute))
	require.NoError(t, err)

	r := &fakeRefresher{pair: &tokens.Pair{
		AccessToken:  fresh,
		RefreshToken: "new-refresh",
		AccessExp:    time.Now().Add(time.Minute),
		RefreshExp:   time.Now().Add(time.Hour),
	}}
	m := NewAutoRefreshMiddleware(secret, r, false)
	rec := serve(t, m.RequireAuth,
		&http.Cookie{Name: tokens.AccessCookie, Value: expired},
		&http.Cookie{Name: tokens.RefreshCookie, Value: "old-refresh"},
	)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "old-refresh", r.seen)
	require.Len(t, rec.Result().Cookies(), 2)
}

func TestRequireAuthRefreshFails(t *testing.T) {
	expired, err := tokens.SignAccess(secret, "5", "customer", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	m := NewAutoRefreshMiddleware(secret, &fakeRefresher{err: errors.New("revoked")}, false)
	rec := serve(t, m.RequireAuth,
		&http.Cookie{Name: tokens.AccessCookie, Value: expired},
		&http.Cookie{Name: tokens.RefreshCookie, Value: "old"},
	)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	tok, err := tokens.SignAccess(secret, "9", "customer", time.Now().Add(time.Minute))
	require.NoError(t, err)

	m := NewAutoRefreshMiddleware(secret, nil, false)
	rec := serve(t, m.RequireRole("admin"), &http.Cookie{Name: tokens.AccessCookie, Value: tok})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(t, m.RequireRole("admin", "customer"), &http.Cookie{Name: tokens.AccessCookie, Value: tok})
	require.Equal(t, http.StatusOK, rec.Code)
}
