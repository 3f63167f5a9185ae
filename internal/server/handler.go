package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"checkout-be/internal/catalog"
	"checkout-be/internal/checkout"
	"checkout-be/internal/logger"
	"checkout-be/internal/payment"

	"go.uber.org/zap"
)

const (
	msgInitializeFailed = "Payment initialization failed"
	msgVerifyFailed     = "Payment verification failed"
	msgInvalidBody      = "Invalid request body"
	msgMissingReference = "Reference is required"
)

type verifyResponse struct {
	Status    string           `json:"status"`
	Reference string           `json:"reference"`
	Amount    json.Number      `json:"amount"`
	Currency  string           `json:"currency"`
	Customer  payment.Customer `json:"customer"`
	Metadata  json.RawMessage  `json:"metadata,omitempty"`
	PaidAt    *time.Time       `json:"paid_at"`
}

func newVerifyResponse(rec *payment.Record) verifyResponse {
	return verifyResponse{
		Status:    rec.Status,
		Reference: rec.Reference,
		Amount:    json.Number(rec.Amount.String()),
		Currency:  rec.Currency,
		Customer:  rec.Customer,
		Metadata:  rec.Metadata,
		PaidAt:    rec.PaidAt,
	}
}

func (s *Server) initializeHandler(w http.ResponseWriter, r *http.Request) {
	var req checkout.InitializeRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, msgInvalidBody, nil)
		return
	}

	res, err := s.checkout.Initialize(r.Context(), req)
	if err != nil {
		var verr *checkout.ValidationError
		if errors.As(err, &verr) {
			writeJSONError(w, r, http.StatusBadRequest, verr.Error(), nil)
			return
		}
		writeJSONError(w, r, http.StatusInternalServerError, msgInitializeFailed, gatewayDetails(err))
		return
	}

	if err := writeJSON(w, http.StatusOK, res); err != nil {
		logger.FromCtx(r.Context()).Error("failed writing initialize response", zap.Error(err))
	}
}

func (s *Server) verifyHandler(w http.ResponseWriter, r *http.Request) {
	reference := strings.TrimSpace(r.URL.Query().Get("reference"))
	if reference == "" {
		writeJSONError(w, r, http.StatusBadRequest, msgMissingReference, nil)
		return
	}

	rec, err := s.gateway.Verify(r.Context(), reference)
	if err != nil {
		writeJSONError(w, r, http.StatusInternalServerError, msgVerifyFailed, gatewayDetails(err))
		return
	}

	if err := writeJSON(w, http.StatusOK, newVerifyResponse(rec)); err != nil {
		logger.FromCtx(r.Context()).Error("failed writing verify response", zap.Error(err))
	}
}

func (s *Server) productsHandler(w http.ResponseWriter, r *http.Request) {
	type envelope struct {
		Data []catalog.Product `json:"data"`
	}
	if err := writeJSON(w, http.StatusOK, &envelope{Data: s.catalog.List()}); err != nil {
		logger.FromCtx(r.Context()).Error("failed writing products response", zap.Error(err))
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// gatewayDetails returns the provider payload for a gateway failure, or the
// error text when there is none.
func gatewayDetails(err error) json.RawMessage {
	if details := payment.DetailsOf(err); len(details) > 0 {
		return details
	}
	msg, _ := json.Marshal(err.Error())
	return msg
}
