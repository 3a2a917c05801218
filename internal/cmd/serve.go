package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/httpserver"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/search"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/session"
	"github.com/Skotchmaster/marketplace/internal/storage"
	"github.com/Skotchmaster/marketplace/pkg/config"
	"github.com/Skotchmaster/marketplace/pkg/db"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/marketplace/pkg/middleware/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// app holds the long-lived connections shared by the commands.
type app struct {
	cfg    config.Config
	log    *slog.Logger
	db     *gorm.DB
	repo   *repo.GormRepo
	events events.Publisher
	closer []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(log)

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, db: gdb, repo: repo.New(gdb), events: events.Nop{}}
	a.closer = append(a.closer, func() error { return db.Close(gdb) })

	if len(cfg.KafkaBrokers) > 0 {
		pub := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		a.events = pub
		a.closer = append(a.closer, pub.Close)
	} else {
		log.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}
	return a, nil
}

func (a *app) close() {
	for i := len(a.closer) - 1; i >= 0; i-- {
		if err := a.closer[i](); err != nil {
			a.log.Error("shutdown_error", "error", err)
		}
	}
}

// productIndex connects to Elasticsearch when configured. A nil result makes
// search fall back to the database.
func (a *app) productIndex(ctx context.Context) *search.Index {
	if a.cfg.ESURL == "" {
		a.log.Warn("search_disabled", "reason", "ES_URL is empty")
		return nil
	}
	client, err := search.NewClient(ctx, a.cfg.ESURL, a.cfg.ESUser, a.cfg.ESPassword)
	if err != nil {
		a.log.Error("search_disabled", "reason", "cannot reach elasticsearch", "error", err)
		return nil
	}
	idx := search.New(client, a.cfg.ESIndex)
	if err := idx.EnsureIndex(ctx); err != nil {
		a.log.Error("search_disabled", "reason", "cannot create index", "error", err)
		return nil
	}
	return idx
}

// catalog builds the catalog service, leaving Index nil when search is off so
// the interface does not hold a typed nil.
func (a *app) catalog(ctx context.Context, files service.FileStore) *service.CatalogService {
	svc := &service.CatalogService{Repo: a.repo, Files: files}
	if idx := a.productIndex(ctx); idx != nil {
		svc.Index = idx
	}
	return svc
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg

	policy, err := service.ParseStockPolicy(cfg.StockPolicy)
	if err != nil {
		return err
	}

	config.MustNonEmpty(cfg.RedisAddr, "REDIS_ADDR")
	config.MustNonEmpty(cfg.MediaRoot, "MEDIA_ROOT")
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	a.closer = append(a.closer, rdb.Close)
	carts := session.NewRedisStore(rdb, cfg.SessionTTL)
	if err := carts.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	files := storage.NewLocal(cfg.MediaRoot, cfg.MediaBaseURL)
	actors := &service.ActorService{Repo: a.repo}
	checkout := &service.CheckoutService{Repo: a.repo, Events: a.events, StockPolicy: policy}
	manual := &service.ManualPaymentService{Repo: a.repo, Events: a.events, Files: files}
	catalog := a.catalog(ctx, files)
	auth := &service.AuthService{
		Repo:          a.repo,
		Events:        a.events,
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}

	deps := &httpserver.Deps{
		Catalog: &httpserver.CatalogHTTP{Svc: catalog},
		Cart: &httpserver.CartHTTP{
			Store: carts, Checkout: checkout,
			SessionTTL: cfg.SessionTTL, CookieSecure: cfg.CookieSecure,
		},
		Checkout: &httpserver.CheckoutHTTP{
			Svc: checkout, Actors: actors, Carts: carts,
			SessionTTL: cfg.SessionTTL, CookieSecure: cfg.CookieSecure,
		},
		Manual: &httpserver.ManualPaymentHTTP{Svc: manual, Actors: actors},
		Admin: &httpserver.AdminHTTP{
			Manual:  manual,
			Vendors: &service.VendorService{Repo: a.repo, Events: a.events},
			Actors:  actors,
		},
		Vendor: &httpserver.VendorHTTP{
			COD:     &service.CODService{Repo: a.repo, Events: a.events},
			Catalog: catalog,
			Actors:  actors,
		},
		Dashboard:    &httpserver.DashboardHTTP{Svc: &service.DashboardService{Repo: a.repo}, Actors: actors},
		Wallet:       &httpserver.WalletHTTP{Svc: &service.WalletService{Repo: a.repo}, Actors: actors},
		Auth:         &httpserver.AuthHTTP{Svc: auth, CookieSecure: cfg.CookieSecure},
		JWTSecret:    cfg.JWTAccessSecret,
		CookieSecure: cfg.CookieSecure,
		Ready: func(ctx context.Context) error {
			if err := db.Ping(ctx, a.db); err != nil {
				return err
			}
			return carts.Ping(ctx)
		},
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpserver.NewValidator()
	e.Use(echomw.Recover())
	e.Use(loggingmw.RequestLogger(a.log))
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dM", (4*storage.MaxUploadBytes)>>20)))
	e.Use(csrf.Middleware(csrf.Config{
		Secure:       cfg.CookieSecure,
		SkipPrefixes: []string{"/health"},
	}))
	e.Static(strings.TrimRight(cfg.MediaBaseURL, "/"), cfg.MediaRoot)
	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http_server_started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.log.Error("http_server_error", "error", err)
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("http_server_shutdown_error", "error", err)
		return err
	}
	a.log.Info("http_server_stopped")
	return nil
}
