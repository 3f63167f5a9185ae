package server

import (
	"errors"
	"net/http"

	"checkout-be/internal/checkout"
	"checkout-be/internal/logger"
	"checkout-be/internal/storefront"

	"go.uber.org/zap"
)

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	state := storefront.Initial()
	if id := r.URL.Query().Get("product"); id != "" {
		state = storefront.Reduce(state, storefront.ProductSelected{ID: id})
	}
	s.renderIndex(w, r, http.StatusOK, state)
}

func (s *Server) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		s.renderIndex(w, r, http.StatusBadRequest, storefront.Reduce(storefront.Initial(), storefront.Submitted{}))
		return
	}

	state := storefront.Initial()
	state = storefront.Reduce(state, storefront.ProductSelected{ID: r.PostForm.Get("product_id")})
	state = storefront.Reduce(state, storefront.EmailEntered{Email: r.PostForm.Get("email")})
	state = storefront.Reduce(state, storefront.Submitted{})

	if state.Phase != storefront.PhaseSubmitting {
		s.renderIndex(w, r, http.StatusBadRequest, state)
		return
	}

	res, err := s.checkout.Start(r.Context(), state.Email, state.SelectedID)
	if err != nil {
		status := http.StatusBadGateway
		message := ""
		var verr *checkout.ValidationError
		if errors.As(err, &verr) {
			status = http.StatusBadRequest
			message = verr.Error()
		}
		s.renderIndex(w, r, status, storefront.Reduce(state, storefront.InitializeFailed{Message: message}))
		return
	}

	state = storefront.Reduce(state, storefront.InitializeSucceeded{RedirectURL: res.AuthorizationURL})
	http.Redirect(w, r, state.RedirectURL, http.StatusSeeOther)
}

// callbackHandler is where the provider sends the buyer back. Paystack
// appends both reference and trxref.
func (s *Server) callbackHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reference := q.Get("reference")
	if reference == "" {
		reference = q.Get("trxref")
	}

	outcome := s.verifier.Verify(r.Context(), reference)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if err := s.pages.Callback(w, storefront.NewCallbackView(outcome)); err != nil {
		logger.FromCtx(r.Context()).Error("failed rendering callback page", zap.Error(err))
	}
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, state storefront.State) {
	view := storefront.NewIndexView(s.catalog.List(), s.currency, state)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.pages.Index(w, view); err != nil {
		logger.FromCtx(r.Context()).Error("failed rendering index page", zap.Error(err))
	}
}
