package node

import (
	"fmt"

	"rapido/pkg/auth"
	"rapido/pkg/kvdb"
	"rapido/pkg/metrics"
	"rapido/pkg/module"
)

// Builder assembles a Node from a set of modules, an authenticator, and a
// storage choice. The zero value is not usable; start from NewBuilder.
type Builder struct {
	modules       []module.Module
	authenticator auth.Authenticator
	homeDir       string
	persistent    bool
}

// NewBuilder returns a Builder defaulting to auth.Default and in-memory
// storage.
func NewBuilder() *Builder {
	return &Builder{authenticator: auth.Default{}}
}

// WithModule registers a module to be included in the built Node.
func (b *Builder) WithModule(m module.Module) *Builder {
	b.modules = append(b.modules, m)
	return b
}

// WithAuthenticator overrides the default no-op authenticator.
func (b *Builder) WithAuthenticator(a auth.Authenticator) *Builder {
	b.authenticator = a
	return b
}

// UsePersistentStorage switches the node from in-memory storage to a
// GoLevelDB-backed store rooted at homeDir.
func (b *Builder) UsePersistentStorage(homeDir string) *Builder {
	b.persistent = true
	b.homeDir = homeDir
	return b
}

// Build constructs the Node. Module registration happens here, so a
// reserved-name collision panics during Build rather than at some later,
// harder-to-diagnose point in the node's lifecycle. A Node with no modules
// at all can never do anything useful, so that is a construction-time
// panic too, not a deferred runtime error.
func (b *Builder) Build() (*Node, error) {
	if len(b.modules) == 0 {
		panic("node: a node requires at least one registered module")
	}

	db, err := kvdb.Open(b.homeDir, b.persistent)
	if err != nil {
		return nil, fmt.Errorf("node: open database: %w", err)
	}

	registry := module.NewRegistry()
	for _, m := range b.modules {
		registry.Register(m)
	}

	m, reg := metrics.New()
	return newNode(db, registry, b.authenticator, m, reg), nil
}
