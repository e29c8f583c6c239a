// Package auth defines how a node decides whether a transaction's sender is
// who they claim to be and tracks replay protection across transactions.
package auth

import (
	"rapido/pkg/store"
	"rapido/pkg/tx"
)

// Authenticator gates every transaction before it is admitted to the
// mempool or executed in a block.
type Authenticator interface {
	// Validate checks a transaction against the given view without
	// mutating it. A non-nil error rejects the transaction.
	Validate(t *tx.Tx, view *store.View) error

	// AdvanceNonce records that this transaction's nonce has been
	// consumed, mutating view. Called once per transaction per cache; see
	// package node for exactly when.
	AdvanceNonce(t *tx.Tx, view *store.View) error
}

// SpeculativeAdvancer is an optional capability an Authenticator can
// implement to opt into advancing the admission-cache nonce even when
// Validate rejected the transaction. Neither Default nor
// AccountAuthenticator implements it: the harness's default behavior
// leaves a rejected sender's admission nonce untouched, so a
// well-formed-but-out-of-order transaction can still be retried with the
// correct nonce later in the same block of mempool checks.
type SpeculativeAdvancer interface {
	AdvanceNonceSpeculatively() bool
}

// Default is the no-op authenticator: every transaction is valid, and
// nonces are never tracked. Useful for examples and tests that don't care
// about replay protection.
type Default struct{}

func (Default) Validate(t *tx.Tx, view *store.View) error    { return nil }
func (Default) AdvanceNonce(t *tx.Tx, view *store.View) error { return nil }
