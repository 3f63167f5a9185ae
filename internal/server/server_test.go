package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"checkout-be/internal/catalog"
	mw "checkout-be/internal/middleware"
	"checkout-be/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Initialize(ctx context.Context, intent payment.Intent) (*payment.Initialization, error) {
	args := m.Called(ctx, intent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Initialization), args.Error(1)
}

func (m *MockGateway) Verify(ctx context.Context, reference string) (*payment.Record, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Record), args.Error(1)
}

// --- Helpers ---

func newTestRouter(limiter *mw.RateLimiter) (*MockGateway, http.Handler) {
	gw := new(MockGateway)
	srv := New(Deps{
		Catalog:        catalog.Default(),
		Gateway:        gw,
		Currency:       "KES",
		AllowedOrigins: []string{"http://*"},
		Limiter:        limiter,
	})
	return gw, srv.Routes()
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

var okInit = &payment.Initialization{
	AuthorizationURL: "https://checkout.paystack.com/xyz",
	AccessCode:       "xyz",
	Reference:        "ref_123",
}

func successRecord() *payment.Record {
	return &payment.Record{
		Status:    payment.StatusSuccess,
		Reference: "ref_123",
		Amount:    payment.ToMajor(2500000),
		Currency:  "KES",
		Customer:  payment.Customer{Email: "a@b.com"},
		Metadata:  json.RawMessage(`{"productId":"prod_1"}`),
	}
}

// --- API ---

func TestInitializeHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		gw, h := newTestRouter(nil)
		gw.On("Initialize", mock.Anything, payment.Intent{
			Email: "a@b.com", Amount: 2500000, Currency: "KES", ProductID: "prod_1",
		}).Return(okInit, nil).Once()

		body := `{"email":"a@b.com","amount":2500000,"productId":"prod_1","currency":"KES"}`
		rr := do(h, httptest.NewRequest(http.MethodPost, "/api/paystack/initialize", strings.NewReader(body)))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{
			"authorization_url":"https://checkout.paystack.com/xyz",
			"access_code":"xyz",
			"reference":"ref_123"
		}`, rr.Body.String())
		gw.AssertExpectations(t)
	})

	t.Run("MissingEmail", func(t *testing.T) {
		gw, h := newTestRouter(nil)

		body := `{"amount":2500000,"productId":"prod_1"}`
		rr := do(h, httptest.NewRequest(http.MethodPost, "/api/paystack/initialize", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"error":"email is required"}`, rr.Body.String())
		gw.AssertNotCalled(t, "Initialize", mock.Anything, mock.Anything)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		gw, h := newTestRouter(nil)

		rr := do(h, httptest.NewRequest(http.MethodPost, "/api/paystack/initialize", strings.NewReader(`{"email":`)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), msgInvalidBody)
		gw.AssertNotCalled(t, "Initialize", mock.Anything, mock.Anything)
	})

	t.Run("GatewayRejected", func(t *testing.T) {
		gw, h := newTestRouter(nil)
		gw.On("Initialize", mock.Anything, mock.Anything).Return(nil, &payment.GatewayError{
			Kind:       payment.ErrGatewayRejected,
			Op:         "initialize",
			StatusCode: http.StatusBadRequest,
			Details:    json.RawMessage(`{"status":false,"message":"Invalid key"}`),
		}).Once()

		body := `{"email":"a@b.com","amount":2500000,"productId":"prod_1"}`
		rr := do(h, httptest.NewRequest(http.MethodPost, "/api/paystack/initialize", strings.NewReader(body)))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{
			"error":"Payment initialization failed",
			"details":{"status":false,"message":"Invalid key"}
		}`, rr.Body.String())
	})

	t.Run("GatewayUnavailableWithoutPayload", func(t *testing.T) {
		gw, h := newTestRouter(nil)
		gw.On("Initialize", mock.Anything, mock.Anything).Return(nil, &payment.GatewayError{
			Kind: payment.ErrGatewayUnavailable,
			Op:   "initialize",
			Err:  errors.New("dial tcp: timeout"),
		}).Once()

		body := `{"email":"a@b.com","amount":2500000,"productId":"prod_1"}`
		rr := do(h, httptest.NewRequest(http.MethodPost, "/api/paystack/initialize", strings.NewReader(body)))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)

		var res errorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
		assert.Equal(t, msgInitializeFailed, res.Error)
		assert.Contains(t, string(res.Details), "timeout")
	})
}

func TestVerifyHandler(t *testing.T) {
	t.Run("Success_AmountInMajorUnits", func(t *testing.T) {
		gw, h := newTestRouter(nil)
		gw.On("Verify", mock.Anything, "ref_123").Return(successRecord(), nil).Once()

		rr := do(h, httptest.NewRequest(http.MethodGet, "/api/paystack/verify?reference=ref_123", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{
			"status":"success",
			"reference":"ref_123",
			"amount":25000,
			"currency":"KES",
			"customer":{
				"id":0,"first_name":null,"last_name":null,"email":"a@b.com",
				"customer_code":"","phone":null,"risk_action":""
			},
			"metadata":{"productId":"prod_1"},
			"paid_at":null
		}`, rr.Body.String())
	})

	t.Run("MissingReference", func(t *testing.T) {
		gw, h := newTestRouter(nil)

		rr := do(h, httptest.NewRequest(http.MethodGet, "/api/paystack/verify", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"error":"Reference is required"}`, rr.Body.String())
		gw.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	})

	t.Run("NotFound", func(t *testing.T) {
		gw, h := newTestRouter(nil)
		gw.On("Verify", mock.Anything, "ref_unknown").Return(nil, &payment.GatewayError{
			Kind:       payment.ErrNotFound,
			Op:         "verify",
			StatusCode: http.StatusNotFound,
			Details:    json.RawMessage(`{"status":false,"message":"Transaction reference not found"}`),
		}).Once()

		rr := do(h, httptest.NewRequest(http.MethodGet, "/api/paystack/verify?reference=ref_unknown", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{
			"error":"Payment verification failed",
			"details":{"status":false,"message":"Transaction reference not found"}
		}`, rr.Body.String())
	})
}

func TestProductsHandler(t *testing.T) {
	_, h := newTestRouter(nil)

	rr := do(h, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var res struct {
		Data []catalog.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.Len(t, res.Data, 2)
	assert.Equal(t, "prod_1", res.Data[0].ID)
	assert.EqualValues(t, 25000, res.Data[0].Price)
}

func TestOperationalRoutes(t *testing.T) {
	_, h := newTestRouter(nil)

	t.Run("Health", func(t *testing.T) {
		rr := do(h, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "OK", rr.Body.String())
	})

	t.Run("DebugVars", func(t *testing.T) {
		rr := do(h, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "checkout_attempts")
		assert.Contains(t, rr.Body.String(), "gateway_calls")
	})

	t.Run("RequestIDEchoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "req-42")
		rr := do(h, req)
		assert.Equal(t, "req-42", rr.Header().Get("X-Request-ID"))
	})
}

func TestRateLimitedRoutes(t *testing.T) {
	gw, h := newTestRouter(mw.NewRateLimiter(0.001, 1))
	gw.On("Verify", mock.Anything, "ref_123").Return(successRecord(), nil)

	first := do(h, httptest.NewRequest(http.MethodGet, "/api/paystack/verify?reference=ref_123", nil))
	second := do(h, httptest.NewRequest(http.MethodGet, "/api/paystack/verify?reference=ref_123", nil))
	products := do(h, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, http.StatusOK, products.Code)
	gw.AssertNumberOfCalls(t, "Verify", 1)
}

// --- Storefront ---

func TestIndexHandler(t *testing.T) {
	_, h := newTestRouter(nil)

	t.Run("NoSelection", func(t *testing.T) {
		rr := do(h, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rr.Body.String(), "Select a product to continue")
		assert.NotContains(t, rr.Body.String(), `action="/checkout"`)
	})

	t.Run("ProductSelected", func(t *testing.T) {
		rr := do(h, httptest.NewRequest(http.MethodGet, "/?product=prod_2", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `action="/checkout"`)
		assert.Contains(t, rr.Body.String(), `value="prod_2"`)
		assert.Contains(t, rr.Body.String(), "Pay KES 3,500.00")
	})
}

func TestCheckoutHandler(t *testing.T) {
	t.Run("RedirectsToAuthorizationURL", func(t *testing.T) {
		gw, h := newTestRouter(nil)
		gw.On("Initialize", mock.Anything, payment.Intent{
			Email: "a@b.com", Amount: 2500000, Currency: "KES", ProductID: "prod_1",
		}).Return(okInit, nil).Once()

		rr := do(h, postForm("/checkout", url.Values{"product_id": {"prod_1"}, "email": {"a@b.com"}}))

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "https://checkout.paystack.com/xyz", rr.Header().Get("Location"))
		gw.AssertExpectations(t)
	})

	t.Run("IncompleteForm", func(t *testing.T) {
		gw, h := newTestRouter(nil)

		rr := do(h, postForm("/checkout", url.Values{"product_id": {"prod_1"}}))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Please select a product and enter your email")
		gw.AssertNotCalled(t, "Initialize", mock.Anything, mock.Anything)
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		gw, h := newTestRouter(nil)

		rr := do(h, postForm("/checkout", url.Values{"product_id": {"prod_1"}, "email": {"nope"}}))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "email must be a valid email address")
		gw.AssertNotCalled(t, "Initialize", mock.Anything, mock.Anything)
	})

	t.Run("GatewayFailureRendersError", func(t *testing.T) {
		gw, h := newTestRouter(nil)
		gw.On("Initialize", mock.Anything, mock.Anything).
			Return(nil, &payment.GatewayError{Kind: payment.ErrGatewayUnavailable, Op: "initialize", Err: errors.New("timeout")}).Once()

		rr := do(h, postForm("/checkout", url.Values{"product_id": {"prod_1"}, "email": {"a@b.com"}}))

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Contains(t, rr.Body.String(), "Payment initialization failed")
		// selection and email survive so the buyer can retry
		assert.Contains(t, rr.Body.String(), `value="a@b.com"`)
		gw.AssertNumberOfCalls(t, "Initialize", 1)
	})
}

func TestCallbackHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		gw, h := newTestRouter(nil)
		gw.On("Verify", mock.Anything, "ref_123").Return(successRecord(), nil).Once()

		rr := do(h, httptest.NewRequest(http.MethodGet, "/payment/callback?reference=ref_123", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, "Payment Successful!")
		assert.Contains(t, body, "KES 25,000.00")
		assert.Contains(t, body, "ref_123")
		assert.Contains(t, body, "a@b.com")
	})

	t.Run("TrxrefFallback", func(t *testing.T) {
		gw, h := newTestRouter(nil)
		gw.On("Verify", mock.Anything, "ref_123").Return(successRecord(), nil).Once()

		rr := do(h, httptest.NewRequest(http.MethodGet, "/payment/callback?trxref=ref_123", nil))

		assert.Contains(t, rr.Body.String(), "Payment Successful!")
		gw.AssertExpectations(t)
	})

	t.Run("CurrencyMismatch", func(t *testing.T) {
		gw, h := newTestRouter(nil)
		rec := successRecord()
		rec.Currency = "NGN"
		gw.On("Verify", mock.Anything, "ref_123").Return(rec, nil).Once()

		rr := do(h, httptest.NewRequest(http.MethodGet, "/payment/callback?reference=ref_123", nil))

		assert.Contains(t, rr.Body.String(), "Payment Failed")
		assert.NotContains(t, rr.Body.String(), "Payment Successful!")
	})

	t.Run("MissingReference", func(t *testing.T) {
		gw, h := newTestRouter(nil)

		rr := do(h, httptest.NewRequest(http.MethodGet, "/payment/callback", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Payment Failed")
		gw.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	})

	t.Run("UnknownReference", func(t *testing.T) {
		gw, h := newTestRouter(nil)
		gw.On("Verify", mock.Anything, "ref_unknown").
			Return(nil, &payment.GatewayError{Kind: payment.ErrNotFound, Op: "verify"}).Once()

		rr := do(h, httptest.NewRequest(http.MethodGet, "/payment/callback?reference=ref_unknown", nil))

		assert.Contains(t, rr.Body.String(), "Payment Failed")
		gw.AssertNumberOfCalls(t, "Verify", 1)
	})
}
