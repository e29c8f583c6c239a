// Package tx defines the wire record a client submits to a node and the
// deterministic encoding, hashing, and signing rules around it.
package tx

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrMalformed       = errors.New("tx: malformed transaction bytes")
	ErrBadSignature    = errors.New("tx: signature verification failed")
	ErrWrongKeySize    = errors.New("tx: sender public key has wrong size")
	ErrWrongSigSize    = errors.New("tx: signature has wrong size")
)

// Tx is a signed transaction addressed to a single registered module.
type Tx struct {
	Sender     []byte // ed25519 public key, 32 bytes
	ModuleName string
	Payload    []byte
	Nonce      uint64
	Signature  []byte // ed25519 signature, 64 bytes, empty until Sign
}

// New builds an unsigned transaction. Call Sign before Encode-ing it for
// submission.
func New(sender []byte, moduleName string, payload []byte, nonce uint64) *Tx {
	return &Tx{
		Sender:     sender,
		ModuleName: moduleName,
		Payload:    payload,
		Nonce:      nonce,
	}
}

// SigningDigest returns H(sender || module_name || payload || little_endian_u64(nonce)),
// the exact bytes an ed25519 signature is computed over. The signature field
// itself never participates in this digest.
func (t *Tx) SigningDigest() []byte {
	h := sha256.New()
	h.Write(t.Sender)
	h.Write([]byte(t.ModuleName))
	h.Write(t.Payload)
	var nonceBuf [8]byte
	binary.LittleEndian.PutUint64(nonceBuf[:], t.Nonce)
	h.Write(nonceBuf[:])
	return h.Sum(nil)
}

// Sign computes the signing digest and signs it with priv, setting
// Signature in place.
func (t *Tx) Sign(priv ed25519.PrivateKey) {
	t.Signature = ed25519.Sign(priv, t.SigningDigest())
}

// VerifySignature checks Signature against Sender over the signing digest,
// treating the transaction's own claimed Sender as the verification key.
// It does not consult any store; callers needing nonce or account-existence
// checks do that separately through an Authenticator. This is what bootstraps
// a brand new account: its first transaction has nothing else to check
// against.
func (t *Tx) VerifySignature() error {
	return t.VerifyAgainstKey(t.Sender)
}

// VerifyAgainstKey checks Signature over the signing digest against pubkey,
// which need not be Sender. An Authenticator backed by a registered-key
// store uses this to verify later transactions against the key it recorded
// for Sender at account creation, rather than trusting whatever key the
// transaction itself claims to carry.
func (t *Tx) VerifyAgainstKey(pubkey []byte) error {
	if len(pubkey) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: got %d bytes", ErrWrongKeySize, len(pubkey))
	}
	if len(t.Signature) != ed25519.SignatureSize {
		return fmt.Errorf("%w: got %d bytes", ErrWrongSigSize, len(t.Signature))
	}
	if !ed25519.Verify(ed25519.PublicKey(pubkey), t.SigningDigest(), t.Signature) {
		return ErrBadSignature
	}
	return nil
}

// Hex returns a short human-readable identifier for logs and test output:
// the hex-encoded SHA-256 of the encoded transaction, including its
// signature. It is never used as a storage or signing digest.
func (t *Tx) Hex() string {
	h := sha256.Sum256(t.Encode())
	return hex.EncodeToString(h[:])
}

// Encode serialises t into a deterministic, length-prefixed binary form.
// Every variable-length field is preceded by its length as a big-endian
// uint32 so Decode never has to guess where one field ends and the next
// begins.
func (t *Tx) Encode() []byte {
	moduleBytes := []byte(t.ModuleName)

	size := 4 + len(t.Sender) +
		4 + len(moduleBytes) +
		4 + len(t.Payload) +
		8 +
		4 + len(t.Signature)
	out := make([]byte, 0, size)

	out = appendLenPrefixed(out, t.Sender)
	out = appendLenPrefixed(out, moduleBytes)
	out = appendLenPrefixed(out, t.Payload)

	var nonceBuf [8]byte
	binary.LittleEndian.PutUint64(nonceBuf[:], t.Nonce)
	out = append(out, nonceBuf[:]...)

	out = appendLenPrefixed(out, t.Signature)
	return out
}

// Decode parses the binary form produced by Encode.
func Decode(data []byte) (*Tx, error) {
	r := &reader{buf: data}

	sender, err := r.readLenPrefixed()
	if err != nil {
		return nil, fmt.Errorf("%w: sender: %v", ErrMalformed, err)
	}
	moduleBytes, err := r.readLenPrefixed()
	if err != nil {
		return nil, fmt.Errorf("%w: module name: %v", ErrMalformed, err)
	}
	payload, err := r.readLenPrefixed()
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrMalformed, err)
	}
	nonceBytes, err := r.readFixed(8)
	if err != nil {
		return nil, fmt.Errorf("%w: nonce: %v", ErrMalformed, err)
	}
	signature, err := r.readLenPrefixed()
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", ErrMalformed, err)
	}
	if !r.atEnd() {
		return nil, fmt.Errorf("%w: trailing bytes", ErrMalformed)
	}

	return &Tx{
		Sender:     sender,
		ModuleName: string(moduleBytes),
		Payload:    payload,
		Nonce:      binary.LittleEndian.Uint64(nonceBytes),
		Signature:  signature,
	}, nil
}

func appendLenPrefixed(out []byte, field []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(field)))
	out = append(out, lenBuf[:]...)
	return append(out, field...)
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) atEnd() bool {
	return r.pos == len(r.buf)
}

func (r *reader) readFixed(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, errors.New("unexpected end of input")
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *reader) readLenPrefixed() ([]byte, error) {
	lenBytes, err := r.readFixed(4)
	if err != nil {
		return nil, err
	}
	n := int(binary.BigEndian.Uint32(lenBytes))
	return r.readFixed(n)
}
