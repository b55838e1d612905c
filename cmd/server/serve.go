package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/config"
	"github.com/AnshRaj112/sentimentpulse-backend/internal/middleware"
	"github.com/AnshRaj112/sentimentpulse-backend/internal/observability"
	"github.com/AnshRaj112/sentimentpulse-backend/internal/routes"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		log.Error().Err(err).Msg("❌ Failed to start")
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.feed.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("🚀 Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("❌ Server stopped with error")
		return err
	}
	log.Info().Msg("✅ Server stopped")
	return nil
}

func newRouter(cfg *config.Config, a *app) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetrics)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → HostCheck → per-IP limit.
	// Non-production: Redis-based rate limit when Redis is configured.
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		log.Info().Msg("✅ Production security enabled (security headers, host check, per-IP rate limiting)")
	} else if a.redis != nil {
		r.Use(middleware.RedisRateLimit(a.redis, middleware.RateLimitMaxRequests, middleware.RateLimitWindow))
	}

	routes.SetupRoutes(r, a.handlers(cfg), a.users, routes.Limits{
		Login:  middleware.NewLoginLimiter(),
		Public: middleware.NewPublicLimiter(),
	})
	return r
}
