package store

import (
	"bytes"
	"testing"

	"rapido/pkg/kvdb"
)

func TestViewCacheOverridesSnapshot(t *testing.T) {
	db, _ := kvdb.Open("", false)
	defer db.Close()

	digest := Digest("person_app.people", []byte("alice"))

	fork := db.Fork()
	fork.Put(digest, []byte("committed"))
	if err := db.Merge(fork); err != nil {
		t.Fatalf("merge: %v", err)
	}

	view := WrapSnapshot(db.Snapshot())
	v, ok := view.Get(digest)
	if !ok || !bytes.Equal(v, []byte("committed")) {
		t.Fatalf("expected to read through to committed state, got %q ok=%v", v, ok)
	}

	view.Put(digest, []byte("staged"))
	v, ok = view.Get(digest)
	if !ok || !bytes.Equal(v, []byte("staged")) {
		t.Fatalf("expected staged value to shadow committed state, got %q ok=%v", v, ok)
	}

	fromStore, ok := view.GetFromStore(digest)
	if !ok || !bytes.Equal(fromStore, []byte("committed")) {
		t.Fatalf("GetFromStore must bypass the cache, got %q ok=%v", fromStore, ok)
	}
}

func TestViewRemoveShadowsSnapshot(t *testing.T) {
	db, _ := kvdb.Open("", false)
	defer db.Close()

	digest := Digest("person_app.people", []byte("bob"))
	fork := db.Fork()
	fork.Put(digest, []byte("x"))
	db.Merge(fork)

	view := WrapSnapshot(db.Snapshot())
	view.Remove(digest)

	if _, ok := view.Get(digest); ok {
		t.Fatalf("removed digest should not be visible through the view")
	}
	if view.Exists(Digest("irrelevant", []byte("nope"))) {
		t.Fatalf("unrelated digest should not exist")
	}
}

func TestCommitIntoAppliesAllStagedChanges(t *testing.T) {
	db, _ := kvdb.Open("", false)
	defer db.Close()

	put := Digest("m.s", []byte("k1"))
	removed := Digest("m.s", []byte("k2"))

	seed := db.Fork()
	seed.Put(removed, []byte("will be removed"))
	db.Merge(seed)

	view := WrapSnapshot(db.Snapshot())
	view.Put(put, []byte("v1"))
	view.Remove(removed)

	fork := db.Fork()
	view.CommitInto(fork)
	if err := db.Merge(fork); err != nil {
		t.Fatalf("merge: %v", err)
	}

	if v, ok := db.Snapshot().Get(put); !ok || !bytes.Equal(v, []byte("v1")) {
		t.Fatalf("expected put to land, got %q ok=%v", v, ok)
	}
	if _, ok := db.Snapshot().Get(removed); ok {
		t.Fatalf("expected removal to land")
	}
}

func TestDigestDistinguishesPrefixBoundary(t *testing.T) {
	a := Digest("ab", []byte("c"))
	b := Digest("a", []byte("bc"))
	if a == b {
		t.Fatalf("length-prefixed digest must not collide across a forged prefix/key boundary")
	}
}
