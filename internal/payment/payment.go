// Package payment is the only part of the service that talks to the
// external payment provider. It holds no state between calls.
package payment

import "context"

type Gateway interface {
	// Initialize opens a transaction and returns where to send the buyer.
	Initialize(ctx context.Context, intent Intent) (*Initialization, error)
	// Verify asks the provider for the current state of a transaction.
	Verify(ctx context.Context, reference string) (*Record, error)
}
