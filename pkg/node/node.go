// Package node implements the harness that drives a set of registered
// modules through the ABCI-shaped lifecycle a consensus host expects: one
// admission-phase cache backs CheckTx, one execution-phase cache backs
// DeliverTx, and Commit merges the execution cache into durable storage and
// resets both.
package node

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"rapido/pkg/auth"
	"rapido/pkg/hostabci"
	"rapido/pkg/kvdb"
	"rapido/pkg/metrics"
	"rapido/pkg/module"
	"rapido/pkg/rcontext"
	"rapido/pkg/rerrors"
	"rapido/pkg/state"
	"rapido/pkg/store"
	"rapido/pkg/tx"
)

// Node is a complete ABCI-shaped application built from a module registry,
// an authenticator, and a backing database. Exactly one call is in flight
// against a Node at a time; the mutex below enforces that regardless of how
// many goroutines a host driver happens to use.
type Node struct {
	mu sync.Mutex

	// instanceID tags this node's log lines, so output from several nodes
	// running in one process (as happens in tests) can be told apart.
	instanceID string

	db            *kvdb.Database
	registry      *module.Registry
	authenticator auth.Authenticator

	admissionCache store.Cache
	executionCache store.Cache

	metrics         *metrics.Metrics
	metricsRegistry *prometheus.Registry
	logger          *log.Logger
}

var _ hostabci.Application = (*Node)(nil)

func newNode(db *kvdb.Database, registry *module.Registry, authenticator auth.Authenticator, m *metrics.Metrics, reg *prometheus.Registry) *Node {
	return &Node{
		instanceID:      uuid.NewString(),
		db:              db,
		registry:        registry,
		authenticator:   authenticator,
		admissionCache:  store.NewCache(),
		executionCache:  store.NewCache(),
		metrics:         m,
		metricsRegistry: reg,
		logger:          log.New(os.Stdout, "rapido: ", log.LstdFlags),
	}
}

// MetricsRegistry returns the Prometheus registry this node reports
// through, for callers that want to serve it over HTTP.
func (n *Node) MetricsRegistry() *prometheus.Registry {
	return n.metricsRegistry
}

// InstanceID returns the random identifier generated for this node at
// construction time, used to tell nodes apart in shared log output.
func (n *Node) InstanceID() string {
	return n.instanceID
}

// Info reports the last height and app hash this node has durably
// committed.
func (n *Node) Info(req hostabci.InfoRequest) hostabci.InfoResponse {
	n.mu.Lock()
	defer n.mu.Unlock()

	cs, ok, err := state.Get(n.db.Snapshot())
	if err != nil {
		n.logger.Printf("info: failed to read chain state: %v", err)
		return hostabci.InfoResponse{Data: "rapido", Version: req.Version}
	}
	if !ok {
		return hostabci.InfoResponse{Data: "rapido", Version: req.Version}
	}
	return hostabci.InfoResponse{
		Data:             "rapido",
		Version:          req.Version,
		LastBlockHeight:  cs.Height,
		LastBlockAppHash: cs.AppHash,
	}
}

// InitChain seeds genesis state by calling Initialize on every registered
// module, in registration order, against a single fresh view. A module
// that fails to initialize is treated as a fatal construction error: the
// node has no well-defined state to start consensus from, so it panics
// rather than limping forward with partial genesis data.
func (n *Node) InitChain(req hostabci.InitChainRequest) hostabci.InitChainResponse {
	n.mu.Lock()
	defer n.mu.Unlock()

	view := store.WrapSnapshot(n.db.Snapshot())
	for _, m := range n.registry.All() {
		if err := m.Initialize(view); err != nil {
			panic(fmt.Errorf("node: module %q failed to initialize genesis state: %v: %w", m.Name(), err, rerrors.ErrGenesisFailure))
		}
	}

	fork := n.db.Fork()
	view.CommitInto(fork)

	aggHash, err := fork.AggregateHash()
	if err != nil {
		panic(fmt.Errorf("node: failed to compute genesis state aggregator hash: %v: %w", err, rerrors.ErrGenesisFailure))
	}
	state.Save(fork, state.ChainState{Height: 0, AppHash: aggHash})

	if err := n.db.Merge(fork); err != nil {
		panic(fmt.Errorf("node: failed to merge genesis state: %v: %w", err, rerrors.ErrCommitMergeFailure))
	}

	n.admissionCache = store.NewCache()
	n.executionCache = store.NewCache()

	n.logger.Printf("[%s] initialized chain %q at genesis, apphash=%x", n.instanceID, req.ChainID, aggHash)
	return hostabci.InitChainResponse{}
}

// Query answers a read-only request against committed state. It never
// touches the admission or execution cache, so a query can never observe
// a transaction that has not yet been committed.
func (n *Node) Query(req hostabci.QueryRequest) hostabci.QueryResponse {
	n.mu.Lock()
	defer n.mu.Unlock()

	name, rest := module.ParseQueryPath(req.Path)
	if name == "" {
		err := fmt.Errorf("no module addressed by query path: %w", rerrors.ErrUnknownModule)
		return hostabci.QueryResponse{Code: CodeUnknownModule, Log: err.Error()}
	}

	m, ok := n.registry.Lookup(name)
	if !ok {
		err := fmt.Errorf("unregistered module %q: %w", name, rerrors.ErrUnknownModule)
		return hostabci.QueryResponse{Code: CodeUnknownModule, Log: err.Error()}
	}

	view := store.WrapSnapshot(n.db.Snapshot())
	value, err := m.HandleQuery(rest, req.Data, view)
	if err != nil {
		wrapped := fmt.Errorf("%v: %w", err, rerrors.ErrQueryFailure)
		return hostabci.QueryResponse{Code: CodeQueryFailed, Log: wrapped.Error()}
	}
	return hostabci.QueryResponse{Code: CodeOK, Key: req.Data, Value: value}
}

// CheckTx admits or rejects a transaction for the mempool, mutating the
// admission cache. On rejection, the admission cache is left untouched
// unless the configured authenticator opts into speculative advancement by
// implementing auth.SpeculativeAdvancer.
func (n *Node) CheckTx(req hostabci.CheckTxRequest) hostabci.CheckTxResponse {
	n.mu.Lock()
	defer n.mu.Unlock()

	transaction, err := tx.Decode(req.Tx)
	if err != nil {
		wrapped := fmt.Errorf("%v: %w", err, rerrors.ErrMalformedTransaction)
		return hostabci.CheckTxResponse{Code: CodeMalformedTx, Log: wrapped.Error()}
	}

	if _, ok := n.registry.Lookup(transaction.ModuleName); !ok {
		wrapped := fmt.Errorf("unregistered module %q: %w", transaction.ModuleName, rerrors.ErrUnknownModule)
		return hostabci.CheckTxResponse{Code: CodeUnknownModule, Log: wrapped.Error()}
	}

	view := store.Wrap(n.db.Snapshot(), n.admissionCache)
	validateErr := n.authenticator.Validate(transaction, view)

	if validateErr == nil {
		if err := n.authenticator.AdvanceNonce(transaction, view); err != nil {
			n.admissionCache = view.IntoCache()
			n.metrics.TxRejected.Inc()
			wrapped := fmt.Errorf("%v: %w", err, rerrors.ErrNonceFailure)
			return hostabci.CheckTxResponse{Code: CodeNonceFailure, Log: wrapped.Error()}
		}
		n.admissionCache = view.IntoCache()
		n.metrics.TxAdmitted.Inc()
		return hostabci.CheckTxResponse{Code: CodeOK}
	}

	if sa, ok := n.authenticator.(auth.SpeculativeAdvancer); ok && sa.AdvanceNonceSpeculatively() {
		if err := n.authenticator.AdvanceNonce(transaction, view); err == nil {
			n.admissionCache = view.IntoCache()
		}
	}

	n.metrics.TxRejected.Inc()
	wrapped := fmt.Errorf("%v: %w", validateErr, rerrors.ErrAuthFailure)
	return hostabci.CheckTxResponse{Code: CodeAuthFailure, Log: wrapped.Error()}
}

// BeginBlock is a no-op: nothing about starting a block requires state
// beyond what DeliverTx and Commit already track.
func (n *Node) BeginBlock(req hostabci.BeginBlockRequest) hostabci.BeginBlockResponse {
	return hostabci.BeginBlockResponse{}
}

// DeliverTx executes one transaction against the execution cache. The
// module's own writes land only if HandleTx succeeds; the authenticator's
// nonce advancement always lands, win or lose, so a sender's nonce never
// gets stuck behind a transaction that failed for application-level
// reasons.
func (n *Node) DeliverTx(req hostabci.DeliverTxRequest) hostabci.DeliverTxResponse {
	n.mu.Lock()
	defer n.mu.Unlock()

	transaction, err := tx.Decode(req.Tx)
	if err != nil {
		n.metrics.TxFailed.Inc()
		wrapped := fmt.Errorf("%v: %w", err, rerrors.ErrMalformedTransaction)
		return hostabci.DeliverTxResponse{Code: CodeMalformedTx, Log: wrapped.Error()}
	}

	m, ok := n.registry.Lookup(transaction.ModuleName)
	if !ok {
		n.metrics.TxFailed.Inc()
		wrapped := fmt.Errorf("unregistered module %q: %w", transaction.ModuleName, rerrors.ErrUnknownModule)
		return hostabci.DeliverTxResponse{Code: CodeUnknownModule, Log: wrapped.Error()}
	}

	snap := n.db.Snapshot()
	scratch := n.executionCache.Clone()
	scratchView := store.Wrap(snap, scratch)

	ctx := rcontext.New(transaction)
	handleErr := m.HandleTx(ctx, scratchView)

	if handleErr == nil {
		n.executionCache = scratchView.IntoCache()
	}

	nonceView := store.Wrap(snap, n.executionCache)
	advanceErr := n.authenticator.AdvanceNonce(transaction, nonceView)
	n.executionCache = nonceView.IntoCache()

	if advanceErr != nil {
		n.metrics.TxFailed.Inc()
		wrapped := fmt.Errorf("%v: %w", advanceErr, rerrors.ErrNonceFailure)
		return hostabci.DeliverTxResponse{Code: CodeNonceFailure, Log: wrapped.Error()}
	}
	n.executionCache = nonceView.IntoCache()
	if handleErr != nil {
		n.metrics.TxFailed.Inc()
		wrapped := fmt.Errorf("%v: %w", handleErr, rerrors.ErrExecFailure)
		return hostabci.DeliverTxResponse{Code: CodeExecutionFailed, Log: wrapped.Error()}
	}

	n.metrics.TxDelivered.Inc()
	return hostabci.DeliverTxResponse{Code: CodeOK, Events: ctx.DrainEvents()}
}

// EndBlock is a no-op: nothing about finishing a block requires state
// beyond what Commit already computes.
func (n *Node) EndBlock(req hostabci.EndBlockRequest) hostabci.EndBlockResponse {
	return hostabci.EndBlockResponse{}
}

// Commit merges the execution cache into durable storage, computes a fresh
// state aggregator hash over the resulting store, records it alongside the
// next height, and resets both caches.
func (n *Node) Commit(req hostabci.CommitRequest) hostabci.CommitResponse {
	n.mu.Lock()
	defer n.mu.Unlock()

	start := time.Now()
	defer n.metrics.ObserveCommit(start)

	fork := n.db.Fork()
	view := store.Wrap(n.db.Snapshot(), n.executionCache)
	view.CommitInto(fork)

	aggHash, err := fork.AggregateHash()
	if err != nil {
		panic(fmt.Errorf("node: failed to compute state aggregator hash: %v: %w", err, rerrors.ErrCommitMergeFailure))
	}

	prev, _, err := state.Get(n.db.Snapshot())
	if err != nil {
		panic(fmt.Errorf("node: failed to read previous chain state: %v: %w", err, rerrors.ErrCommitMergeFailure))
	}
	next := state.ChainState{Height: prev.Height + 1, AppHash: aggHash}
	state.Save(fork, next)

	if err := n.db.Merge(fork); err != nil {
		panic(fmt.Errorf("node: failed to merge commit: %v: %w", err, rerrors.ErrCommitMergeFailure))
	}

	n.admissionCache = store.NewCache()
	n.executionCache = store.NewCache()
	n.metrics.CommittedHeight.Set(float64(next.Height))

	return hostabci.CommitResponse{AppHash: aggHash}
}
