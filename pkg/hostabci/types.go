// Package hostabci defines the request/response shapes and Application
// contract a consensus host drives a rapido node through. The consensus
// host itself -- the thing that actually orders transactions into blocks
// and calls these methods -- is an external collaborator outside this
// module; these types exist so package node has something concrete to
// implement and testkit has something concrete to drive, independent of
// any one host's wire protocol or client library version.
package hostabci

// InfoRequest asks the application to describe itself and report the last
// height it has durably committed, so the host can decide whether to replay
// blocks after a restart.
type InfoRequest struct {
	Version string
}

// InfoResponse answers InfoRequest.
type InfoResponse struct {
	Data             string
	Version          string
	LastBlockHeight  int64
	LastBlockAppHash []byte
}

// InitChainRequest carries genesis data to be loaded exactly once, before
// the first block.
type InitChainRequest struct {
	ChainID       string
	GenesisBytes  []byte
}

// InitChainResponse is empty; InitChain either succeeds or the node refuses
// to start.
type InitChainResponse struct{}

// QueryRequest is a read-only request against committed state, addressed
// by a "<module_name>/<rest>"-shaped path.
type QueryRequest struct {
	Path string
	Data []byte
}

// QueryResponse answers QueryRequest. Code 0 means success.
type QueryResponse struct {
	Code  uint32
	Key   []byte
	Value []byte
	Log   string
}

// CheckTxRequest carries a raw, encoded transaction proposed for the
// mempool.
type CheckTxRequest struct {
	Tx []byte
}

// CheckTxResponse reports whether a transaction is admissible right now.
// Code 0 means admitted.
type CheckTxResponse struct {
	Code uint32
	Log  string
}

// BeginBlockRequest announces the start of a new block at Height.
type BeginBlockRequest struct {
	Height int64
}

// BeginBlockResponse is empty.
type BeginBlockResponse struct{}

// DeliverTxRequest carries a raw, encoded transaction to execute as part of
// the block currently being built.
type DeliverTxRequest struct {
	Tx []byte
}

// EventAttribute is one key/value pair attached to an Event.
type EventAttribute struct {
	Key   []byte
	Value []byte
}

// Event is one structured log entry emitted by a module while handling a
// transaction.
type Event struct {
	Type       string
	Attributes []EventAttribute
}

// DeliverTxResponse reports the outcome of executing one transaction. Code
// 0 means the transaction's effects were applied; any other code means the
// execution-cache write was discarded for this transaction, aside from the
// authenticator's own nonce bookkeeping.
type DeliverTxResponse struct {
	Code   uint32
	Log    string
	Events []Event
}

// EndBlockRequest announces that every transaction in the current block has
// been delivered.
type EndBlockRequest struct {
	Height int64
}

// EndBlockResponse is empty.
type EndBlockResponse struct{}

// CommitRequest triggers a commit of the current block's execution cache.
type CommitRequest struct{}

// CommitResponse reports the application hash computed for the block just
// committed.
type CommitResponse struct {
	AppHash []byte
}

// Application is the contract a rapido node exposes to a consensus host.
// Method order here follows the lifecycle of one block: Info is called
// once at startup, InitChain once before the first block, then Query/
// CheckTx interleave with consensus on the mempool side while BeginBlock/
// DeliverTx/EndBlock/Commit drive block execution.
type Application interface {
	Info(InfoRequest) InfoResponse
	InitChain(InitChainRequest) InitChainResponse
	Query(QueryRequest) QueryResponse
	CheckTx(CheckTxRequest) CheckTxResponse
	BeginBlock(BeginBlockRequest) BeginBlockResponse
	DeliverTx(DeliverTxRequest) DeliverTxResponse
	EndBlock(EndBlockRequest) EndBlockResponse
	Commit(CommitRequest) CommitResponse
}
