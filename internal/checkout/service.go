package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"checkout-be/internal/catalog"
	"checkout-be/internal/logger"
	"checkout-be/internal/metrics"
	"checkout-be/internal/payment"

	"go.uber.org/zap"
)

type Service interface {
	// Start begins a checkout for a catalog product and returns where to
	// redirect the buyer.
	Start(ctx context.Context, email, productID string) (*payment.Initialization, error)
	// Initialize validates a raw initialize request and forwards it to the gateway.
	Initialize(ctx context.Context, req InitializeRequest) (*payment.Initialization, error)
}

type service struct {
	catalog  catalog.Catalog
	gateway  payment.Gateway
	currency string
}

func NewService(cat catalog.Catalog, gateway payment.Gateway, currency string) Service {
	return &service{
		catalog:  cat,
		gateway:  gateway,
		currency: strings.ToUpper(currency),
	}
}

func (s *service) Start(ctx context.Context, email, productID string) (*payment.Initialization, error) {
	email = strings.TrimSpace(email)
	productID = strings.TrimSpace(productID)

	if productID == "" {
		return nil, s.reject(ctx, &ValidationError{Field: "productId", Message: "is required"})
	}

	product, err := s.catalog.Get(productID)
	if err != nil {
		return nil, s.reject(ctx, &ValidationError{Field: "productId", Message: "is not a known product"})
	}

	return s.Initialize(ctx, InitializeRequest{
		Email:     email,
		Amount:    product.MinorAmount(),
		ProductID: product.ID,
		Currency:  s.currency,
	})
}

func (s *service) Initialize(ctx context.Context, req InitializeRequest) (*payment.Initialization, error) {
	metrics.CheckoutAttempts.Inc()

	req.Email = strings.TrimSpace(req.Email)
	req.ProductID = strings.TrimSpace(req.ProductID)
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if req.Currency == "" {
		req.Currency = s.currency
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Initialize"),
		zap.String("product_id", req.ProductID),
	)

	if err := validate.Struct(req); err != nil {
		return nil, s.reject(ctx, toValidationError(err))
	}

	// The amount is client supplied; it must match the catalog so the
	// provider is never asked to charge something other than the listed price.
	product, err := s.catalog.Get(req.ProductID)
	if err != nil {
		return nil, s.reject(ctx, &ValidationError{Field: "productId", Message: "is not a known product"})
	}
	if req.Amount != product.MinorAmount() {
		return nil, s.reject(ctx, &ValidationError{Field: "amount", Message: "does not match the product price"})
	}

	timer := metrics.StartTimer()
	res, err := s.gateway.Initialize(ctx, payment.Intent{
		Email:     req.Email,
		Amount:    req.Amount,
		Currency:  req.Currency,
		ProductID: req.ProductID,
	})
	if err != nil {
		metrics.CheckoutFailures.With(failureReason(err)).Inc()
		log.Error("payment initialization failed",
			zap.Error(err),
			zap.Duration("duration", timer.Duration()),
		)
		return nil, fmt.Errorf("initialize payment: %w", err)
	}

	log.Info("payment initialized",
		zap.String("reference", res.Reference),
		zap.Int64("amount", req.Amount),
		zap.Duration("duration", timer.Duration()),
	)
	return res, nil
}

func (s *service) reject(ctx context.Context, err error) error {
	metrics.CheckoutFailures.With("validation").Inc()
	logger.FromCtx(ctx).Warn("checkout rejected", zap.Error(err))
	return err
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, payment.ErrGatewayUnavailable):
		return "gateway_unavailable"
	case errors.Is(err, payment.ErrGatewayRejected):
		return "gateway_rejected"
	default:
		return "gateway_error"
	}
}
