package kvdb

import (
	"crypto/sha256"
	"fmt"

	"rapido/pkg/merkle"
)

type chainStateOverride struct {
	present bool
	bytes   []byte
}

// Fork is a mutable scratch view layered over a Snapshot. Puts and removes
// accumulate in memory and are invisible to everything but this Fork until
// it is handed to Database.Merge.
type Fork struct {
	base    *Snapshot
	puts    map[string][]byte
	removed map[string]struct{}

	chainState *chainStateOverride
}

func (f *Fork) ensure() {
	if f.puts == nil {
		f.puts = make(map[string][]byte)
	}
	if f.removed == nil {
		f.removed = make(map[string]struct{})
	}
}

// Get returns the value for a digest, reading through to the base snapshot
// when the fork has not overridden it.
func (f *Fork) Get(digest [32]byte) ([]byte, bool) {
	k := string(coreKey(digest))
	if v, ok := f.puts[k]; ok {
		return v, true
	}
	if _, ok := f.removed[k]; ok {
		return nil, false
	}
	return f.base.Get(digest)
}

// Put stages a write under the given digest.
func (f *Fork) Put(digest [32]byte, value []byte) {
	f.ensure()
	k := string(coreKey(digest))
	delete(f.removed, k)
	cp := make([]byte, len(value))
	copy(cp, value)
	f.puts[k] = cp
}

// Remove stages a deletion of the given digest.
func (f *Fork) Remove(digest [32]byte) {
	f.ensure()
	k := string(coreKey(digest))
	delete(f.puts, k)
	f.removed[k] = struct{}{}
}

// ChainState returns the pending chain-state record if this fork has set
// one, otherwise falls through to the base snapshot.
func (f *Fork) ChainState() ([]byte, bool) {
	if f.chainState != nil {
		return f.chainState.bytes, f.chainState.present
	}
	return f.base.ChainState()
}

// SetChainState stages a chain-state write. Chain state lives outside the
// core map and never contributes to the state aggregator hash.
func (f *Fork) SetChainState(encoded []byte) {
	cp := make([]byte, len(encoded))
	copy(cp, encoded)
	f.chainState = &chainStateOverride{present: true, bytes: cp}
}

// AggregateHash computes the deterministic state-aggregator hash over every
// core-map entry the fork would contain once merged: the base snapshot's
// committed entries overlaid with this fork's pending puts and removes. The
// leaf for each entry folds in both the digest and its value so a changed
// value under an unchanged key still moves the root.
func (f *Fork) AggregateHash() ([]byte, error) {
	entries, err := f.base.entries()
	if err != nil {
		return nil, fmt.Errorf("kvdb: read base entries: %w", err)
	}
	for k := range f.removed {
		if digest, ok := digestFromKey([]byte(k)); ok {
			delete(entries, digest)
		}
	}
	for k, v := range f.puts {
		if digest, ok := digestFromKey([]byte(k)); ok {
			entries[digest] = v
		}
	}

	leaves := make([][]byte, 0, len(entries))
	for digest, value := range entries {
		leaves = append(leaves, leafHash(digest, value))
	}
	return merkle.Aggregate(leaves), nil
}

func leafHash(digest [32]byte, value []byte) []byte {
	h := sha256.New()
	h.Write(digest[:])
	h.Write(value)
	return h.Sum(nil)
}
