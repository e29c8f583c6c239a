// Package rcontext carries the per-transaction execution context a module's
// HandleTx receives: who sent the transaction, its payload, and an outbound
// event buffer. It is a distinct name from the standard library's context
// package, which this type is unrelated to.
package rcontext

import (
	"sync"

	"rapido/pkg/hostabci"
	"rapido/pkg/tx"
)

// MessageDecoder turns a transaction's raw payload into a module-specific
// message type. Modules supply their own; Context does no decoding itself
// beyond invoking the function passed to DecodeMessage.
type MessageDecoder[M any] func([]byte) (M, error)

// Context is created fresh for every DeliverTx call and handed to exactly
// one module's HandleTx.
type Context struct {
	sender     []byte
	moduleName string
	payload    []byte
	nonce      uint64

	mu     sync.Mutex
	events []hostabci.Event
}

// New builds a Context from the transaction being delivered.
func New(t *tx.Tx) *Context {
	return &Context{
		sender:     t.Sender,
		moduleName: t.ModuleName,
		payload:    t.Payload,
		nonce:      t.Nonce,
	}
}

// Sender returns the transaction's sender public key.
func (c *Context) Sender() []byte {
	return c.sender
}

// ModuleName returns the name of the module this transaction was routed to.
func (c *Context) ModuleName() string {
	return c.moduleName
}

// Nonce returns the transaction's nonce.
func (c *Context) Nonce() uint64 {
	return c.nonce
}

// Payload returns the transaction's raw, undecoded payload.
func (c *Context) Payload() []byte {
	return c.payload
}

// DecodeMessage decodes the context's payload using the supplied decoder.
// Generic over the module's own message type so HandleTx implementations
// never touch raw bytes directly.
func DecodeMessage[M any](c *Context, decode MessageDecoder[M]) (M, error) {
	return decode(c.payload)
}

// EmitEvent appends an event to the context's outbound buffer. The event
// type is namespaced as "<module_name>.<typeSuffix>" so events from
// different modules never collide in a block's event log.
func (c *Context) EmitEvent(typeSuffix string, attrs ...hostabci.EventAttribute) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, hostabci.Event{
		Type:       c.moduleName + "." + typeSuffix,
		Attributes: attrs,
	})
}

// DrainEvents returns every event emitted on this context so far and clears
// the buffer. Called once by the harness after HandleTx returns.
func (c *Context) DrainEvents() []hostabci.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	events := c.events
	c.events = nil
	return events
}

// Attr builds an EventAttribute from plain strings, a small convenience for
// the common case of UTF-8 key/value pairs.
func Attr(key, value string) hostabci.EventAttribute {
	return hostabci.EventAttribute{Key: []byte(key), Value: []byte(value)}
}
