package storefront

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func apply(s State, events ...Event) State {
	for _, e := range events {
		s = Reduce(s, e)
	}
	return s
}

func TestReduce_HappyPath(t *testing.T) {
	s := apply(Initial(),
		ProductSelected{ID: "prod_1"},
		EmailEntered{Email: " a@b.com "},
	)
	assert.Equal(t, PhaseBrowsing, s.Phase)
	assert.True(t, s.CanSubmit())
	assert.Equal(t, "a@b.com", s.Email)

	s = Reduce(s, Submitted{})
	assert.Equal(t, PhaseSubmitting, s.Phase)
	assert.True(t, s.Loading())
	assert.False(t, s.CanSubmit())

	s = Reduce(s, InitializeSucceeded{RedirectURL: "https://checkout.paystack.com/x"})
	assert.Equal(t, PhaseRedirecting, s.Phase)
	assert.Equal(t, "https://checkout.paystack.com/x", s.RedirectURL)
}

func TestReduce_SubmitIncomplete(t *testing.T) {
	t.Run("NoProduct", func(t *testing.T) {
		s := apply(Initial(), EmailEntered{Email: "a@b.com"}, Submitted{})
		assert.Equal(t, PhaseError, s.Phase)
		assert.Equal(t, msgIncomplete, s.Error)
	})

	t.Run("NoEmail", func(t *testing.T) {
		s := apply(State{}, ProductSelected{ID: "prod_1"}, Submitted{})
		assert.Equal(t, PhaseError, s.Phase)
	})

	t.Run("SelectingClearsError", func(t *testing.T) {
		s := apply(Initial(), Submitted{}, ProductSelected{ID: "prod_2"})
		assert.Equal(t, PhaseBrowsing, s.Phase)
		assert.Empty(t, s.Error)
	})
}

func TestReduce_InitializeFailed(t *testing.T) {
	s := apply(Initial(),
		ProductSelected{ID: "prod_1"},
		EmailEntered{Email: "a@b.com"},
		Submitted{},
		InitializeFailed{},
	)
	assert.Equal(t, PhaseError, s.Phase)
	assert.Equal(t, msgInitializeFailed, s.Error)
	assert.False(t, s.Loading())

	// retry from the error phase is allowed
	s = apply(s, Submitted{})
	assert.Equal(t, PhaseSubmitting, s.Phase)
	assert.Empty(t, s.Error)

	s = Reduce(s, InitializeFailed{Message: "amount does not match the product price"})
	assert.Equal(t, "amount does not match the product price", s.Error)
}

func TestReduce_IgnoresOutOfPhaseEvents(t *testing.T) {
	submitting := apply(Initial(),
		ProductSelected{ID: "prod_1"},
		EmailEntered{Email: "a@b.com"},
		Submitted{},
	)

	assert.Equal(t, submitting, Reduce(submitting, Submitted{}))
	assert.Equal(t, submitting, Reduce(submitting, ProductSelected{ID: "prod_2"}))
	assert.Equal(t, submitting, Reduce(submitting, EmailEntered{Email: "x@y.com"}))

	browsing := Initial()
	assert.Equal(t, browsing, Reduce(browsing, InitializeSucceeded{RedirectURL: "x"}))
	assert.Equal(t, browsing, Reduce(browsing, InitializeFailed{Message: "x"}))
}
