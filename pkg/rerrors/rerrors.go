// Package rerrors defines the sentinel errors returned throughout a node's
// transaction and block lifecycle, so callers can distinguish failure kinds
// with errors.Is/errors.As instead of matching on response codes or log
// strings.
package rerrors

import "errors"

var (
	// ErrMalformedTransaction means a raw transaction could not be decoded.
	ErrMalformedTransaction = errors.New("rerrors: malformed transaction")

	// ErrUnknownModule means a transaction or query addressed a module name
	// that is not registered.
	ErrUnknownModule = errors.New("rerrors: unknown module")

	// ErrAuthFailure means the configured authenticator rejected a
	// transaction during CheckTx.
	ErrAuthFailure = errors.New("rerrors: authentication failure")

	// ErrNonceFailure means the authenticator's AdvanceNonce call failed,
	// during either CheckTx or DeliverTx.
	ErrNonceFailure = errors.New("rerrors: nonce advancement failure")

	// ErrExecFailure means a module's HandleTx returned an error during
	// DeliverTx. The transaction's writes were discarded; only the
	// authenticator's nonce advancement survives.
	ErrExecFailure = errors.New("rerrors: transaction execution failure")

	// ErrQueryFailure means a module's HandleQuery returned an error.
	ErrQueryFailure = errors.New("rerrors: query failure")

	// ErrGenesisFailure means a module failed to initialize genesis state
	// during InitChain. This is fatal: Node.InitChain panics rather than
	// starting from undefined state.
	ErrGenesisFailure = errors.New("rerrors: genesis initialization failure")

	// ErrCommitMergeFailure means a fork failed to merge into durable
	// storage during Commit. This is fatal: Node.Commit panics rather than
	// reporting a height that was never actually persisted.
	ErrCommitMergeFailure = errors.New("rerrors: commit merge failure")
)
