package storefront

import "strings"

type Phase string

const (
	PhaseBrowsing    Phase = "browsing"
	PhaseSubmitting  Phase = "submitting"
	PhaseRedirecting Phase = "redirecting"
	PhaseError       Phase = "error"
)

const (
	msgIncomplete       = "Please select a product and enter your email"
	msgInitializeFailed = "Payment initialization failed"
)

// State is everything the checkout page shows. It only changes through Reduce.
type State struct {
	Phase       Phase
	SelectedID  string
	Email       string
	Error       string
	RedirectURL string
}

type Event interface {
	event()
}

type ProductSelected struct{ ID string }
type EmailEntered struct{ Email string }
type Submitted struct{}
type InitializeSucceeded struct{ RedirectURL string }
type InitializeFailed struct{ Message string }

func (ProductSelected) event()     {}
func (EmailEntered) event()        {}
func (Submitted) event()           {}
func (InitializeSucceeded) event() {}
func (InitializeFailed) event()    {}

func Initial() State {
	return State{Phase: PhaseBrowsing}
}

// Reduce returns the state that follows s after e. Events that make no
// sense in the current phase leave the state unchanged.
func Reduce(s State, e Event) State {
	if s.Phase == "" {
		s.Phase = PhaseBrowsing
	}

	switch ev := e.(type) {
	case ProductSelected:
		if s.Phase == PhaseSubmitting || s.Phase == PhaseRedirecting {
			return s
		}
		s.SelectedID = strings.TrimSpace(ev.ID)
		s.Phase = PhaseBrowsing
		s.Error = ""

	case EmailEntered:
		if s.Phase == PhaseSubmitting || s.Phase == PhaseRedirecting {
			return s
		}
		s.Email = strings.TrimSpace(ev.Email)

	case Submitted:
		if !s.CanSubmit() {
			if s.Phase == PhaseSubmitting || s.Phase == PhaseRedirecting {
				return s
			}
			s.Phase = PhaseError
			s.Error = msgIncomplete
			return s
		}
		s.Phase = PhaseSubmitting
		s.Error = ""

	case InitializeSucceeded:
		if s.Phase != PhaseSubmitting {
			return s
		}
		s.Phase = PhaseRedirecting
		s.RedirectURL = ev.RedirectURL

	case InitializeFailed:
		if s.Phase != PhaseSubmitting {
			return s
		}
		s.Phase = PhaseError
		s.Error = ev.Message
		if s.Error == "" {
			s.Error = msgInitializeFailed
		}
	}

	return s
}

func (s State) CanSubmit() bool {
	return s.Phase != PhaseSubmitting && s.Phase != PhaseRedirecting &&
		s.SelectedID != "" && s.Email != ""
}

func (s State) Loading() bool {
	return s.Phase == PhaseSubmitting || s.Phase == PhaseRedirecting
}
