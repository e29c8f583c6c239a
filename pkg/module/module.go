// Package module defines the contract every application module implements
// and the registry that routes transactions and queries to the right one.
package module

import (
	"fmt"
	"strings"
	"sync"

	"rapido/pkg/rcontext"
	"rapido/pkg/store"
)

// ReservedName is the module name the harness itself reserves. A module
// registered under this exact name causes the node to fail to build.
const ReservedName = "rapido"

// Module is one deterministic unit of application logic: a name, an
// optional genesis hook, a transaction handler, and a query handler.
type Module interface {
	// Name identifies the module and namespaces its storage keys, events,
	// and query path. Must be non-empty and not equal to ReservedName.
	Name() string

	// Initialize seeds genesis state. The default no-op is fine for
	// modules with no genesis data.
	Initialize(view *store.View) error

	// HandleTx executes one transaction routed to this module.
	HandleTx(ctx *rcontext.Context, view *store.View) error

	// HandleQuery answers a read-only query against committed state. path
	// is whatever remained after the module name was stripped by
	// ParseQueryPath (e.g. "/balance" for a query addressed to
	// "accounts/balance").
	HandleQuery(path string, key []byte, view *store.View) ([]byte, error)
}

// Registry holds the set of modules a node dispatches to, keyed by name.
// It is built once at construction time and never mutated afterward.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
	order   []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// Register adds a module under its own Name(). Registration is first-come-
// wins: a second call with an already-taken name is silently ignored,
// matching the harness's construction-time registry semantics. Registering
// the reserved name panics, since that indicates a construction-time
// programming error rather than a recoverable runtime condition.
func (r *Registry) Register(m Module) {
	name := m.Name()
	if name == ReservedName {
		panic(fmt.Sprintf("module: %q is a reserved module name", ReservedName))
	}
	if name == "" {
		panic("module: module name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.modules[name]; taken {
		return
	}
	r.modules[name] = m
	r.order = append(r.order, name)
}

// Lookup returns the module registered under name, if any.
func (r *Registry) Lookup(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	return m, ok
}

// All returns every registered module in registration order.
func (r *Registry) All() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Module, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.modules[name])
	}
	return out
}

// ParseQueryPath splits a raw ABCI query path into a module name and the
// remaining sub-path handed to that module's HandleQuery:
//
//	""           -> ("", "")      no module addressed
//	"/"          -> ("", "")      no module addressed
//	"accounts"   -> ("accounts", "/")
//	"accounts/x" -> ("accounts", "/x")
func ParseQueryPath(path string) (name string, rest string) {
	if path == "" || path == "/" {
		return "", ""
	}
	idx := strings.Index(path, "/")
	if idx == -1 {
		return path, "/"
	}
	return path[:idx], path[idx:]
}
