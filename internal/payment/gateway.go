// Package payment abstracts the external checkout provider. The rest of the
// backend only ever sees a session id and a checkout URL; provider internals
// stay behind the Gateway interface.
package payment

import "context"

// CheckoutParams describes one checkout handoff. SuccessURL and CancelURL may
// contain the {CHECKOUT_SESSION_ID} placeholder; the provider substitutes the
// real session id before redirecting.
type CheckoutParams struct {
	ReferenceID string
	Title       string
	AmountCents int64
	Currency    string
	SuccessURL  string
	CancelURL   string
}

type Session struct {
	ID          string
	CheckoutURL string
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (Session, error)
}
