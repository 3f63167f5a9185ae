// Package callback decides the outcome of a checkout when the buyer returns
// from the hosted payment page carrying a reference.
//
// Verification is attempted exactly once per callback. If the provider has
// not finalized the transaction at that instant the buyer sees a failure
// even though the payment may still complete.
package callback

import (
	"context"
	"errors"
	"strings"

	"checkout-be/internal/catalog"
	"checkout-be/internal/logger"
	"checkout-be/internal/metrics"
	"checkout-be/internal/payment"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type State string

const (
	StatePending State = "pending"
	StateSuccess State = "success"
	StateFailed  State = "failed"
)

const (
	ReasonMissingReference   = "missing_reference"
	ReasonNotFound           = "not_found"
	ReasonGatewayUnavailable = "gateway_unavailable"
	ReasonGatewayError       = "gateway_error"
	ReasonAmountMismatch     = "amount_mismatch"
	ReasonCurrencyMismatch   = "currency_mismatch"
)

type Outcome struct {
	State  State
	Record *payment.Record
	Reason string
	Err    error
}

func (o Outcome) Terminal() bool {
	return o.State == StateSuccess || o.State == StateFailed
}

type Verifier struct {
	gateway  payment.Gateway
	catalog  catalog.Catalog
	currency string
}

// NewVerifier builds a Verifier that expects payments in currency. An empty
// currency accepts any.
func NewVerifier(gateway payment.Gateway, cat catalog.Catalog, currency string) *Verifier {
	return &Verifier{
		gateway:  gateway,
		catalog:  cat,
		currency: strings.ToUpper(strings.TrimSpace(currency)),
	}
}

// Verify moves a callback from Pending to a terminal state.
func (v *Verifier) Verify(ctx context.Context, reference string) Outcome {
	reference = strings.TrimSpace(reference)
	log := logger.FromCtx(ctx).With(zap.String("reference", reference))

	out := v.resolve(ctx, reference)

	metrics.VerifyOutcomes.With(string(out.State) + "_" + outcomeLabel(out)).Inc()
	if out.State == StateSuccess {
		log.Info("payment verified", zap.String("amount", out.Record.Amount.String()))
	} else {
		log.Warn("payment not verified", zap.String("reason", out.Reason), zap.Error(out.Err))
	}
	return out
}

func (v *Verifier) resolve(ctx context.Context, reference string) Outcome {
	if reference == "" {
		return failed(ReasonMissingReference, nil, nil)
	}

	rec, err := v.gateway.Verify(ctx, reference)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrNotFound):
			return failed(ReasonNotFound, nil, err)
		case errors.Is(err, payment.ErrGatewayUnavailable):
			return failed(ReasonGatewayUnavailable, nil, err)
		default:
			return failed(ReasonGatewayError, nil, err)
		}
	}

	if !rec.Succeeded() {
		return failed("status_"+rec.Status, rec, nil)
	}

	if v.currency != "" && !strings.EqualFold(strings.TrimSpace(rec.Currency), v.currency) {
		return failed(ReasonCurrencyMismatch, rec, nil)
	}

	if !v.amountMatches(rec) {
		return failed(ReasonAmountMismatch, rec, nil)
	}

	return Outcome{State: StateSuccess, Record: rec}
}

// amountMatches reconciles the verified amount against the listed price of
// the product echoed back in the metadata. Records without a known product
// are accepted as-is.
func (v *Verifier) amountMatches(rec *payment.Record) bool {
	if v.catalog == nil {
		return true
	}
	product, err := v.catalog.Get(rec.ProductID())
	if err != nil {
		return true
	}
	return rec.Amount.Equal(decimal.NewFromInt(product.Price))
}

func failed(reason string, rec *payment.Record, err error) Outcome {
	return Outcome{State: StateFailed, Record: rec, Reason: reason, Err: err}
}

func outcomeLabel(o Outcome) string {
	if o.Reason == "" {
		return "ok"
	}
	return o.Reason
}
