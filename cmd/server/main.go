package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eToThePiIPower/tldrit/internal/config"
	"github.com/eToThePiIPower/tldrit/internal/db"
	"github.com/eToThePiIPower/tldrit/internal/logger"
	"github.com/eToThePiIPower/tldrit/internal/router"
	"github.com/eToThePiIPower/tldrit/internal/services"
	"github.com/eToThePiIPower/tldrit/internal/utils"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const sessionName = "tldrit_session"

func main() {
	app := &cli.Command{
		Name:   "tldrit",
		Usage:  "Link aggregator server",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Create or update the database schema",
				Action: migrate,
			},
			{
				Name:   "reconcile",
				Usage:  "Recompute every cached score from the vote records",
				Action: reconcile,
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

// setup loads configuration and opens the database.
func setup() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	zl, err := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	gdb, err := db.Open(cfg.Database, zl)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, zl, gdb, nil
}

func migrate(_ context.Context, _ *cli.Command) error {
	_, zl, gdb, err := setup()
	if err != nil {
		return err
	}
	defer zl.Sync() //nolint:errcheck

	if err := db.Migrate(gdb); err != nil {
		return err
	}
	zl.Info("Database schema is up to date")
	return nil
}

func reconcile(ctx context.Context, _ *cli.Command) error {
	cfg, zl, gdb, err := setup()
	if err != nil {
		return err
	}
	defer zl.Sync() //nolint:errcheck

	fixed, err := services.NewScoreReconciler(gdb, zl, cfg.Reconcile.BatchSize).Reconcile(ctx)
	if err != nil {
		return err
	}
	zl.Info("Reconciliation complete", zap.Int("fixed", fixed))
	return nil
}

func serve(ctx context.Context, _ *cli.Command) error {
	cfg, zl, gdb, err := setup()
	if err != nil {
		return err
	}
	defer zl.Sync() //nolint:errcheck

	if err := db.Migrate(gdb); err != nil {
		return err
	}

	listCache, err := utils.NewTTLCache(cfg.ListCache.Size, cfg.ListCache.TTL)
	if err != nil {
		return err
	}

	ledger := services.NewVoteLedger(gdb, zl)
	svc := router.Services{
		Posts:    services.NewPostService(gdb, zl, ledger, listCache),
		Comments: services.NewCommentService(gdb, zl, listCache),
		Users:    services.NewUserService(gdb, zl),
	}

	if cfg.Reconcile.Schedule != "" {
		reconciler := services.NewScoreReconciler(gdb, zl, cfg.Reconcile.BatchSize)
		if err := reconciler.Start(cfg.Reconcile.Schedule); err != nil {
			return err
		}
		defer reconciler.Stop()
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(logger.Gin(zl), gin.Recovery())

	secret := cfg.SessionSecret
	if secret == "" {
		zl.Warn("SESSION_SECRET is not set, using an insecure default")
		secret = "secret_key_change_me"
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 30 * 24 * 3600, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))

	router.RegisterRoutes(r, svc, zl)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zl.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		zl.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
