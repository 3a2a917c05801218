package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/session"
	"github.com/Skotchmaster/marketplace/internal/storage"
	"github.com/Skotchmaster/marketplace/internal/testutil"
	"github.com/Skotchmaster/marketplace/pkg/hash"
	middleware "github.com/Skotchmaster/marketplace/pkg/middleware/auth"
)

func TestMain(m *testing.M) {
	hash.Cost = bcrypt.MinCost
	os.Exit(m.Run())
}

type testEnv struct {
	DB     *gorm.DB
	E      *echo.Echo
	Deps   *Deps
	Carts  *session.RedisStore
	Events *events.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.InitTestDB(t)
	r := repo.New(db)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	carts := session.NewRedisStore(client, time.Hour)

	rec := &events.Recorder{}
	files := storage.NewLocal(t.TempDir(), "/media/")
	actors := &service.ActorService{Repo: r}
	checkout := &service.CheckoutService{Repo: r, Events: rec}
	manual := &service.ManualPaymentService{Repo: r, Events: rec, Files: files}
	catalog := &service.CatalogService{Repo: r, Files: files}
	auth := &service.AuthService{
		Repo:          r,
		Events:        rec,
		AccessSecret:  []byte("test-access"),
		RefreshSecret: []byte("test-refresh"),
	}

	d := &Deps{
		Catalog:  &CatalogHTTP{Svc: catalog},
		Cart:     &CartHTTP{Store: carts, Checkout: checkout, SessionTTL: time.Hour},
		Checkout: &CheckoutHTTP{Svc: checkout, Actors: actors, Carts: carts, SessionTTL: time.Hour},
		Manual:   &ManualPaymentHTTP{Svc: manual, Actors: actors},
		Admin: &AdminHTTP{
			Manual:  manual,
			Vendors: &service.VendorService{Repo: r, Events: rec},
			Actors:  actors,
		},
		Vendor: &VendorHTTP{
			COD:     &service.CODService{Repo: r, Events: rec},
			Catalog: catalog,
			Actors:  actors,
		},
		Dashboard: &DashboardHTTP{Svc: &service.DashboardService{Repo: r}, Actors: actors},
		Wallet:    &WalletHTTP{Svc: &service.WalletService{Repo: r}, Actors: actors},
		Auth:      &AuthHTTP{Svc: auth},
		JWTSecret: auth.AccessSecret,
	}

	e := echo.New()
	e.Validator = NewValidator()
	Register(e, d)
	return &testEnv{DB: db, E: e, Deps: d, Carts: carts, Events: rec}
}

// doJSONRequest builds a context for calling a handler directly. userID 0
// leaves the request anonymous.
func (env *testEnv) doJSONRequest(method, target string, body any, userID uint, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var rdr io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	if userID != 0 {
		asUser(c, userID)
	}
	return rec, c
}

func asUser(c echo.Context, id uint) {
	c.Set(middleware.CtxUserID, strconv.FormatUint(uint64(id), 10))
}

// serve runs the request through the router and middleware.
func (env *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func cookieFrom(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func requireHTTPError(t *testing.T, err error, code int) errorBody {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	require.Equal(t, code, he.Code)
	body, _ := he.Message.(errorBody)
	return body
}
