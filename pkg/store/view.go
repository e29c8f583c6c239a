// Package store implements the staging cache every module reads and writes
// through (View) and a generic typed wrapper around it (Store[K, V]).
//
// A View overlays a Cache on top of a read-only kvdb.Snapshot. Reads check
// the cache first and fall through to the snapshot; writes only ever touch
// the cache. Nothing is visible outside a View until its cache is committed
// into a kvdb.Fork and that fork is merged into the database.
package store

import (
	"crypto/sha256"
	"io"

	"rapido/pkg/kvdb"
)

// ChangeKind distinguishes a staged write from a staged deletion.
type ChangeKind int

const (
	Put ChangeKind = iota
	Remove
)

// ViewChange is one staged mutation against a single content-addressed key.
type ViewChange struct {
	Kind  ChangeKind
	Value []byte // meaningful only when Kind == Put
}

// Cache maps storage digests to their staged change. It is shared by value
// across every View wrapping it within the same admission or execution
// phase, and is reset to an empty Cache on every commit.
type Cache map[[32]byte]ViewChange

// NewCache returns an empty Cache.
func NewCache() Cache {
	return make(Cache)
}

// Clone returns a shallow copy of c, for callers that need to try a change
// and be able to discard it without disturbing the original.
func (c Cache) Clone() Cache {
	out := make(Cache, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// View is a read/write handle over a Cache layered on a kvdb.Snapshot. Modules and authenticators never touch the Cache or the
// Snapshot directly; they go through a View.
type View struct {
	cache Cache
	snap  *kvdb.Snapshot
}

// Wrap builds a View over an existing cache and snapshot. Used by the node
// harness to resume the admission or execution cache across calls.
func Wrap(snap *kvdb.Snapshot, cache Cache) *View {
	if cache == nil {
		cache = NewCache()
	}
	return &View{cache: cache, snap: snap}
}

// WrapSnapshot builds a View over a fresh snapshot with an empty cache, used
// for read-only query paths that must never leave a residue.
func WrapSnapshot(snap *kvdb.Snapshot) *View {
	return Wrap(snap, NewCache())
}

// Digest computes the content-addressed storage key for a (prefix, rawKey)
// pair: SHA-256 over a length-prefixed encoding of the two fields, so a key
// boundary can never be forged by concatenation (e.g. prefix "ab"+key "c"
// colliding with prefix "a"+key "bc").
func Digest(prefix string, rawKey []byte) [32]byte {
	h := sha256.New()
	writeLenPrefixed(h, []byte(prefix))
	writeLenPrefixed(h, rawKey)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func writeLenPrefixed(h io.Writer, b []byte) {
	var lenBuf [4]byte
	n := len(b)
	lenBuf[0] = byte(n >> 24)
	lenBuf[1] = byte(n >> 16)
	lenBuf[2] = byte(n >> 8)
	lenBuf[3] = byte(n)
	h.Write(lenBuf[:])
	h.Write(b)
}

// Exists reports whether a digest has a value, checking the cache before
// falling through to the snapshot.
func (v *View) Exists(digest [32]byte) bool {
	_, ok := v.Get(digest)
	return ok
}

// Get reads a digest, preferring a staged change over the committed
// snapshot value.
func (v *View) Get(digest [32]byte) ([]byte, bool) {
	if change, ok := v.cache[digest]; ok {
		if change.Kind == Remove {
			return nil, false
		}
		return change.Value, true
	}
	return v.snap.Get(digest)
}

// GetFromStore bypasses the cache entirely, reading only the committed
// snapshot. Used by query handling, which must never observe speculative
// writes from an in-flight admission or execution cache.
func (v *View) GetFromStore(digest [32]byte) ([]byte, bool) {
	return v.snap.Get(digest)
}

// Put stages a write.
func (v *View) Put(digest [32]byte, value []byte) {
	cp := make([]byte, len(value))
	copy(cp, value)
	v.cache[digest] = ViewChange{Kind: Put, Value: cp}
}

// Remove stages a deletion.
func (v *View) Remove(digest [32]byte) {
	v.cache[digest] = ViewChange{Kind: Remove}
}

// IntoCache returns the View's underlying cache, for the harness to retain
// across calls.
func (v *View) IntoCache() Cache {
	return v.cache
}

// CommitInto applies every staged change in the View's cache to a
// kvdb.Fork. It does not merge the fork into the database; the caller
// decides when that happens.
func (v *View) CommitInto(fork *kvdb.Fork) {
	for digest, change := range v.cache {
		switch change.Kind {
		case Put:
			fork.Put(digest, change.Value)
		case Remove:
			fork.Remove(digest)
		}
	}
}
