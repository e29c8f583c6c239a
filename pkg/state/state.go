// Package state defines the chain-state record a node persists on every
// commit: the height just committed and the resulting application hash.
// It is kept deliberately separate from the content-addressed core map so
// it can be excluded from the state aggregator hash.
package state

import (
	"encoding/binary"
	"fmt"

	"rapido/pkg/kvdb"
)

// ChainState is the height/apphash pair a node reports through Info and
// Commit.
type ChainState struct {
	Height  int64
	AppHash []byte
}

// Encode serialises a ChainState as an 8-byte big-endian height followed by
// the raw app hash bytes.
func (c ChainState) Encode() []byte {
	out := make([]byte, 8+len(c.AppHash))
	binary.BigEndian.PutUint64(out[:8], uint64(c.Height))
	copy(out[8:], c.AppHash)
	return out
}

// Decode parses the form produced by Encode.
func Decode(data []byte) (ChainState, error) {
	if len(data) < 8 {
		return ChainState{}, fmt.Errorf("state: chain state record too short: %d bytes", len(data))
	}
	height := int64(binary.BigEndian.Uint64(data[:8]))
	appHash := make([]byte, len(data)-8)
	copy(appHash, data[8:])
	return ChainState{Height: height, AppHash: appHash}, nil
}

// Get reads the chain state recorded in a snapshot. ok is false before the
// first commit has ever happened.
func Get(snap *kvdb.Snapshot) (cs ChainState, ok bool, err error) {
	raw, found := snap.ChainState()
	if !found {
		return ChainState{}, false, nil
	}
	cs, err = Decode(raw)
	if err != nil {
		return ChainState{}, false, err
	}
	return cs, true, nil
}

// Save stages a chain-state write on a fork.
func Save(fork *kvdb.Fork, cs ChainState) {
	fork.SetChainState(cs.Encode())
}
