// Package testkit drives a node through a full block lifecycle in tests
// without a real consensus host, mirroring the shape of the original
// reference harness's TestKit.
package testkit

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"

	"rapido/pkg/hostabci"
	"rapido/pkg/node"
	"rapido/pkg/tx"
)

// DeterministicKeypair derives an ed25519 keypair from an arbitrary seed
// string, so tests can refer to "alice" and "bob" instead of juggling
// random keys.
func DeterministicKeypair(seed string) (ed25519.PublicKey, ed25519.PrivateKey) {
	h := sha256.Sum256([]byte(seed))
	priv := ed25519.NewKeyFromSeed(h[:])
	return priv.Public().(ed25519.PublicKey), priv
}

// TestKit wraps a Node and tracks whether InitChain has been called, so
// tests get a clear error instead of a confusing panic when they forget it.
type TestKit struct {
	node        *node.Node
	initialized bool
}

// New wraps an already-built node.Node.
func New(n *node.Node) *TestKit {
	return &TestKit{node: n}
}

// Start calls InitChain. It must be called before CheckTx, DeliverAndCommit,
// or Query.
func (tk *TestKit) Start(chainID string) {
	tk.node.InitChain(hostabci.InitChainRequest{ChainID: chainID})
	tk.initialized = true
}

// CheckTx runs the transactions through CheckTx in order and stops at the
// first one that gets a non-zero response code. It returns the responses
// collected up to and including that one, and an error naming the rejected
// transaction's index, code and log; transactions after it are not checked.
func (tk *TestKit) CheckTx(txs ...*tx.Tx) ([]hostabci.CheckTxResponse, error) {
	if !tk.initialized {
		return nil, fmt.Errorf("testkit: Start must be called before CheckTx")
	}

	responses := make([]hostabci.CheckTxResponse, 0, len(txs))
	for i, t := range txs {
		resp := tk.node.CheckTx(hostabci.CheckTxRequest{Tx: t.Encode()})
		responses = append(responses, resp)
		if resp.Code != node.CodeOK {
			return responses, fmt.Errorf("testkit: tx %d rejected by CheckTx: code=%d log=%q", i, resp.Code, resp.Log)
		}
	}
	return responses, nil
}

// DeliverAndCommit runs BeginBlock, DeliverTx for every transaction, then
// EndBlock and Commit, returning the DeliverTx responses and the resulting
// app hash. It does not stop early on a failed DeliverTx: callers inspect
// the returned responses to see which transactions succeeded.
func (tk *TestKit) DeliverAndCommit(height int64, txs ...*tx.Tx) ([]hostabci.DeliverTxResponse, []byte, error) {
	if !tk.initialized {
		return nil, nil, fmt.Errorf("testkit: Start must be called before DeliverAndCommit")
	}

	tk.node.BeginBlock(hostabci.BeginBlockRequest{Height: height})

	responses := make([]hostabci.DeliverTxResponse, 0, len(txs))
	for _, t := range txs {
		responses = append(responses, tk.node.DeliverTx(hostabci.DeliverTxRequest{Tx: t.Encode()}))
	}

	tk.node.EndBlock(hostabci.EndBlockRequest{Height: height})
	commit := tk.node.Commit(hostabci.CommitRequest{})

	return responses, commit.AppHash, nil
}

// Query issues a read-only query.
func (tk *TestKit) Query(path string, key []byte) hostabci.QueryResponse {
	return tk.node.Query(hostabci.QueryRequest{Path: path, Data: key})
}

// Node returns the underlying node.Node for tests that need lower-level
// access (e.g. Info).
func (tk *TestKit) Node() *node.Node {
	return tk.node
}
