package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"checkout-be/internal/logger"
	"checkout-be/internal/metrics"

	"go.uber.org/zap"
)

// referencePattern is Paystack's reference charset. Dot-only references
// are rejected separately since they are path segments of their own.
var referencePattern = regexp.MustCompile(`^[A-Za-z0-9_.=-]+$`)

const (
	DefaultPaystackBaseURL = "https://api.paystack.co"
	defaultTimeout         = 30 * time.Second
)

type PaystackConfig struct {
	SecretKey   string
	BaseURL     string
	CallbackURL string
	Timeout     time.Duration
}

type paystackGateway struct {
	secretKey   string
	baseURL     string
	callbackURL string
	channels    []string
	httpClient  *http.Client
}

// ----------------- Constructor -----------------

func NewPaystackGateway(cfg PaystackConfig) Gateway {
	if cfg.SecretKey == "" {
		logger.L().Warn("Paystack secret key is empty")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultPaystackBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &paystackGateway{
		secretKey:   cfg.SecretKey,
		baseURL:     baseURL,
		callbackURL: cfg.CallbackURL,
		channels:    []string{ChannelCard},
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ----------------- Wire types -----------------

type customField struct {
	DisplayName  string `json:"display_name"`
	VariableName string `json:"variable_name"`
	Value        string `json:"value"`
}

type initializeMetadata struct {
	ProductID    string        `json:"productId"`
	CustomFields []customField `json:"custom_fields"`
}

type initializeRequest struct {
	Email       string             `json:"email"`
	Amount      int64              `json:"amount"`
	Currency    string             `json:"currency"`
	Channels    []string           `json:"channels"`
	Metadata    initializeMetadata `json:"metadata"`
	CallbackURL string             `json:"callback_url"`
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type verifyData struct {
	Status          string          `json:"status"`
	Reference       string          `json:"reference"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	Channel         string          `json:"channel"`
	GatewayResponse string          `json:"gateway_response"`
	PaidAt          *string         `json:"paid_at"`
	Metadata        json.RawMessage `json:"metadata"`
	Customer        Customer        `json:"customer"`
}

// ----------------- Initialize -----------------

func (p *paystackGateway) Initialize(ctx context.Context, intent Intent) (_ *Initialization, err error) {
	const op = "initialize"
	defer func() { recordCall(op, err) }()

	log := logger.FromCtx(ctx).With(
		zap.String("op", op),
		zap.String("product_id", intent.ProductID),
		zap.Int64("amount", intent.Amount),
		zap.String("currency", intent.Currency),
	)

	body := initializeRequest{
		Email:    intent.Email,
		Amount:   intent.Amount,
		Currency: intent.Currency,
		Channels: p.channels,
		Metadata: initializeMetadata{
			ProductID: intent.ProductID,
			CustomFields: []customField{{
				DisplayName:  "Product ID",
				VariableName: "product_id",
				Value:        intent.ProductID,
			}},
		},
		CallbackURL: p.callbackURL,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Error("Failed to marshal initialize request", zap.Error(err))
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/transaction/initialize", bytes.NewReader(jsonBody))
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	log.Info("Sending initialize request to Paystack")

	status, bodyBytes, err := p.do(req)
	if err != nil {
		log.Error("Paystack request failed", zap.Error(err))
		return nil, &GatewayError{Kind: ErrGatewayUnavailable, Op: op, Err: err}
	}

	if status < 200 || status > 299 {
		log.Error("Paystack returned non-success status",
			zap.Int("status", status),
			zap.ByteString("response", bodyBytes),
		)
		return nil, &GatewayError{Kind: ErrGatewayRejected, Op: op, StatusCode: status, Details: rawDetails(bodyBytes)}
	}

	var res envelope[Initialization]
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		log.Error("Failed decoding Paystack response", zap.Error(err))
		return nil, &GatewayError{Kind: ErrGatewayRejected, Op: op, StatusCode: status, Details: rawDetails(bodyBytes), Err: err}
	}

	if !res.Status || res.Data.AuthorizationURL == "" {
		log.Error("Paystack declined initialize", zap.String("message", res.Message))
		return nil, &GatewayError{Kind: ErrGatewayRejected, Op: op, StatusCode: status, Details: rawDetails(bodyBytes)}
	}

	log.Info("Paystack transaction initialized", zap.String("reference", res.Data.Reference))

	return &res.Data, nil
}

// ----------------- Verify -----------------

func (p *paystackGateway) Verify(ctx context.Context, reference string) (_ *Record, err error) {
	const op = "verify"
	defer func() { recordCall(op, err) }()

	reference = strings.TrimSpace(reference)
	log := logger.FromCtx(ctx).With(zap.String("op", op), zap.String("reference", reference))

	if reference == "" {
		return nil, &GatewayError{Kind: ErrNotFound, Op: op, Err: errors.New("empty reference")}
	}
	if !validReference(reference) {
		log.Warn("Rejected malformed reference")
		return nil, &GatewayError{Kind: ErrNotFound, Op: op, Err: errors.New("malformed reference")}
	}

	endpoint := fmt.Sprintf("%s/transaction/verify/%s", p.baseURL, url.PathEscape(reference))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		log.Error("Failed building request", zap.Error(err))
		return nil, err
	}

	status, bodyBytes, err := p.do(req)
	if err != nil {
		log.Error("Request to Paystack failed", zap.Error(err))
		return nil, &GatewayError{Kind: ErrGatewayUnavailable, Op: op, Err: err}
	}

	var res envelope[verifyData]
	decodeErr := json.Unmarshal(bodyBytes, &res)

	if status < 200 || status > 299 || !res.Status {
		kind := ErrGatewayRejected
		if status == http.StatusNotFound || strings.Contains(strings.ToLower(res.Message), "not found") {
			kind = ErrNotFound
		}
		log.Warn("Paystack verify unsuccessful",
			zap.Int("http_status", status),
			zap.ByteString("response", bodyBytes),
		)
		return nil, &GatewayError{Kind: kind, Op: op, StatusCode: status, Details: rawDetails(bodyBytes)}
	}

	if decodeErr != nil {
		log.Error("Failed decoding transaction", zap.Error(decodeErr))
		return nil, &GatewayError{Kind: ErrGatewayRejected, Op: op, StatusCode: status, Details: rawDetails(bodyBytes), Err: decodeErr}
	}

	d := res.Data
	log.Info("Paystack transaction verified",
		zap.String("status", d.Status),
		zap.Int64("amount_minor", d.Amount),
	)

	if d.Reference == "" {
		d.Reference = reference
	}

	return &Record{
		Status:          d.Status,
		Reference:       d.Reference,
		Amount:          ToMajor(d.Amount),
		Currency:        d.Currency,
		Customer:        d.Customer,
		Metadata:        d.Metadata,
		PaidAt:          parsePaidAt(d.PaidAt),
		Channel:         d.Channel,
		GatewayResponse: d.GatewayResponse,
	}, nil
}

// do sends an authenticated request and returns the status and full body.
// Any error here is a transport failure.
func (p *paystackGateway) do(req *http.Request) (int, []byte, error) {
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read paystack response: %w", err)
	}
	return resp.StatusCode, bodyBytes, nil
}

// validReference reports whether the untrusted reference can only address
// its own verify endpoint.
func validReference(reference string) bool {
	return referencePattern.MatchString(reference) && strings.Trim(reference, ".") != ""
}

// parsePaidAt tolerates the null or empty paid_at sent for unpaid transactions.
func parsePaidAt(v *string) *time.Time {
	if v == nil || *v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, *v)
	if err != nil {
		return nil
	}
	return &t
}

func recordCall(op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case errors.Is(err, ErrGatewayUnavailable):
		result = "unavailable"
	default:
		result = "rejected"
	}
	metrics.GatewayCalls.With(op + "_" + result).Inc()
}
