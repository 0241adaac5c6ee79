package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/roledesk/internal/app"
	"github.com/odyssey-erp/roledesk/internal/observability"
	"github.com/odyssey-erp/roledesk/internal/roles"
	"github.com/odyssey-erp/roledesk/internal/shared"
	"github.com/odyssey-erp/roledesk/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("roledesk exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	store, closeStore, err := app.OpenStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	metrics := observability.NewMetrics()
	audit := shared.NewAuditLogger(logger)

	roleStore := roles.NewStore(ctx, store, logger, metrics.StoreListener(), audit.Listener())
	userStore := users.NewStore(ctx, store, roleStore, logger, metrics.StoreListener(), audit.Listener())
	logger.Info("collections loaded",
		slog.String("driver", cfg.StorageDriver),
		slog.Int("roles", len(roleStore.List())),
		slog.Int("users", len(userStore.List())),
	)

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		RolesHandler: roles.NewHandler(logger, roleStore),
		UsersHandler: users.NewHandler(logger, userStore),
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
