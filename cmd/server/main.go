package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkout-be/internal/catalog"
	"checkout-be/internal/config"
	"checkout-be/internal/logger"
	"checkout-be/internal/middleware"
	"checkout-be/internal/payment"
	"checkout-be/internal/server"

	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway := payment.NewPaystackGateway(payment.PaystackConfig{
		SecretKey:   cfg.PaystackSecretKey,
		BaseURL:     cfg.PaystackBaseURL,
		CallbackURL: cfg.CallbackURL(),
		Timeout:     cfg.GatewayTimeout,
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx)

	srv := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      setupRouter(cfg, gateway, limiter),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.GatewayTimeout + 30*time.Second,
		IdleTimeout:  time.Minute,
	}

	if err := run(ctx, srv); err != nil {
		logger.L().Fatal("server error", zap.Error(err))
	}
}

func setupRouter(cfg *config.Config, gateway payment.Gateway, limiter *middleware.RateLimiter) http.Handler {
	return server.New(server.Deps{
		Catalog:        catalog.Default(),
		Gateway:        gateway,
		Currency:       cfg.Currency,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Limiter:        limiter,
	}).Routes()
}

// run serves until ctx is cancelled, then drains in-flight requests.
func run(ctx context.Context, srv *http.Server) error {
	shutdown := make(chan error, 1)

	go func() {
		<-ctx.Done()
		logger.L().Info("signal caught, shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdown <- srv.Shutdown(shutdownCtx)
	}()

	logger.L().Info("server has started", zap.String("addr", srv.Addr))

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdown; err != nil {
		return err
	}

	logger.L().Info("server has stopped", zap.String("addr", srv.Addr))
	return nil
}
