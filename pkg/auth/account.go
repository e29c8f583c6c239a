package auth

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"rapido/pkg/store"
	"rapido/pkg/tx"
)

// DeriveAccountID returns a stable identifier for an ed25519 public key:
// "did:rapido:<hex(sha256(pubkey))>". It is used purely as a human-readable
// account handle; the account store itself is keyed on the raw sender bytes.
func DeriveAccountID(pubkey []byte) string {
	sum := sha256.Sum256(pubkey)
	return "did:rapido:" + hex.EncodeToString(sum[:])
}

// Account is the state tracked per sender: the ed25519 public key recorded
// at account creation, and the next expected nonce. PubKey, not the Sender
// field a later transaction happens to carry, is what signatures are
// checked against once an account exists.
type Account struct {
	PubKey []byte
	Nonce  uint64
}

func (a Account) encode() []byte {
	out := make([]byte, 40)
	copy(out[:32], a.PubKey)
	binary.BigEndian.PutUint64(out[32:], a.Nonce)
	return out
}

func decodeAccount(b []byte) (Account, error) {
	if len(b) != 40 {
		return Account{}, fmt.Errorf("auth: malformed account record: %d bytes", len(b))
	}
	pubkey := make([]byte, 32)
	copy(pubkey, b[:32])
	return Account{PubKey: pubkey, Nonce: binary.BigEndian.Uint64(b[32:])}, nil
}

type accountCodec struct{}

func (accountCodec) Encode(a Account) ([]byte, error) { return a.encode(), nil }
func (accountCodec) Decode(b []byte) (Account, error) { return decodeAccount(b) }

// accountStoreName is shared across every AccountAuthenticator instance so
// account state is addressed consistently regardless of which modules a
// node happens to register.
const accountStoreName = "rapido.account.store"

// AccountAuthenticator is backed by an AccountStore holding {pubkey, nonce}
// per sender. The first transaction seen from a given sender bootstraps its
// account, recording the public key it claims in Sender; every later
// transaction is checked against that recorded key rather than whatever key
// the transaction itself carries, so a sender address is an identifier, not
// a self-certifying credential. Nonces are strictly sequential starting
// from zero.
type AccountAuthenticator struct {
	accounts *store.Store[string, Account]
}

// NewAccountAuthenticator builds an AccountAuthenticator.
func NewAccountAuthenticator() *AccountAuthenticator {
	return &AccountAuthenticator{
		accounts: store.New[string, Account](accountStoreName, store.StringCodec{}, accountCodec{}),
	}
}

func accountKey(sender []byte) string {
	return hex.EncodeToString(sender)
}

// Validate checks the signature against the sender's registered key (or,
// for a sender with no account yet, against the key the transaction itself
// claims) and that the nonce matches the account's next expected nonce.
func (a *AccountAuthenticator) Validate(t *tx.Tx, view *store.View) error {
	account, ok, err := a.lookupAccount(t, view)
	if err != nil {
		return err
	}

	verifyKey := t.Sender
	var expected uint64
	if ok {
		verifyKey = account.PubKey
		expected = account.Nonce
	}
	if err := t.VerifyAgainstKey(verifyKey); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if t.Nonce != expected {
		return fmt.Errorf("auth: bad nonce: tx has %d, expected %d", t.Nonce, expected)
	}
	return nil
}

// AdvanceNonce increments the sender's stored nonce by one, creating the
// account record (recording its registered key) if this is its first
// transaction.
func (a *AccountAuthenticator) AdvanceNonce(t *tx.Tx, view *store.View) error {
	account, ok, err := a.lookupAccount(t, view)
	if err != nil {
		return err
	}

	pubkey := t.Sender
	var expected uint64
	if ok {
		pubkey = account.PubKey
		expected = account.Nonce
	}
	return a.accounts.Put(view, accountKey(t.Sender), Account{PubKey: pubkey, Nonce: expected + 1})
}

func (a *AccountAuthenticator) lookupAccount(t *tx.Tx, view *store.View) (Account, bool, error) {
	account, ok, err := a.accounts.Get(view, accountKey(t.Sender))
	if err != nil {
		return Account{}, false, fmt.Errorf("auth: read account: %w", err)
	}
	return account, ok, nil
}

// AccountNonce returns the currently recorded nonce for a sender, for tests
// and diagnostics. A sender with no account yet has nonce 0.
func (a *AccountAuthenticator) AccountNonce(view *store.View, sender []byte) (uint64, error) {
	account, ok, err := a.accounts.Get(view, accountKey(sender))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return account.Nonce, nil
}
