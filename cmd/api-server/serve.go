package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"redeploy/db"
	"redeploy/db/migrations"
	"redeploy/internal/auth"
	"redeploy/internal/events"
	"redeploy/internal/handlers"
	"redeploy/internal/matching"
	"redeploy/internal/metrics"
	"redeploy/internal/oracle"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) serveCommand() *cobra.Command {
	var skipMigrations bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations on start")
	return cmd
}

func (a *app) serve(skipMigrations bool) error {
	if err := a.cfg.RequireJWT(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if !skipMigrations {
		if err := migrations.Run(ctx, conn.DB, a.cfg.DBDriver, a.log); err != nil {
			return err
		}
	}
	store := db.NewStorage(conn)

	var publisher events.Publisher = events.Nop{}
	if a.cfg.NATSURL != "" {
		p, err := events.Connect(a.cfg.NATSURL, a.cfg.NATSSubject, a.log)
		if err != nil {
			return err
		}
		publisher = p
		a.log.Info("publishing match events to NATS", zap.String("url", a.cfg.NATSURL))
	}
	defer publisher.Close()

	// без ключа оракул остаётся nil, подбор отвечает 503, ручной путь работает
	var matchOracle matching.Oracle
	gemini, err := oracle.NewGemini(ctx, oracle.Config{APIKey: a.cfg.GeminiAPIKey, Model: a.cfg.GeminiModel}, a.log)
	switch {
	case errors.Is(err, matching.ErrOracleNotConfigured):
		a.log.Warn("GEMINI_API_KEY is not set, oracle matching is disabled")
	case err != nil:
		return err
	default:
		matchOracle = gemini
	}

	collector := metrics.New()
	matchingSvc := matching.NewService(store, matchOracle, a.log,
		matching.WithEvents(publisher),
		matching.WithMetrics(collector),
		matching.WithOracleTimeout(a.cfg.OracleTimeout),
	)
	authSvc := auth.NewService(store, auth.NewTokens(a.cfg.JWTSecret, a.cfg.TokenTTL), a.log)
	h := handlers.NewHandler(store, matchingSvc, authSvc, a.log)

	router := handlers.NewRouter(handlers.RouterDependencies{
		Handler:        h,
		AuthMiddleware: authSvc.Middleware,
		Metrics:        collector,
		LoginLimiter:   handlers.NewIPRateLimiter(a.cfg.LoginPerMinute),
		CORSOrigins:    a.cfg.CORSOrigins,
		RequestTimeout: a.cfg.RequestTimeout,
		Log:            a.log,
	})
	server := &http.Server{
		Addr:              a.cfg.ServerAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      a.cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("starting server", zap.String("addr", a.cfg.ServerAddress), zap.String("db_driver", a.cfg.DBDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
