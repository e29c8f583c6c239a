package kvdb

import (
	"bytes"
	"crypto/sha256"
	"testing"
)

func digestOf(s string) [32]byte {
	return sha256.Sum256([]byte(s))
}

func TestForkIsolatedUntilMerge(t *testing.T) {
	db, err := Open("", false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	d := digestOf("alice")
	fork := db.Fork()
	fork.Put(d, []byte("balance=10"))

	if _, ok := db.Snapshot().Get(d); ok {
		t.Fatalf("uncommitted fork write leaked into a fresh snapshot")
	}

	if err := db.Merge(fork); err != nil {
		t.Fatalf("merge: %v", err)
	}

	v, ok := db.Snapshot().Get(d)
	if !ok || !bytes.Equal(v, []byte("balance=10")) {
		t.Fatalf("expected merged value, got %q ok=%v", v, ok)
	}
}

func TestForkReadsThroughToBase(t *testing.T) {
	db, _ := Open("", false)
	defer db.Close()

	d := digestOf("bob")
	f1 := db.Fork()
	f1.Put(d, []byte("v1"))
	if err := db.Merge(f1); err != nil {
		t.Fatalf("merge: %v", err)
	}

	f2 := db.Fork()
	v, ok := f2.Get(d)
	if !ok || !bytes.Equal(v, []byte("v1")) {
		t.Fatalf("fork should read through to merged base state, got %q ok=%v", v, ok)
	}

	f2.Remove(d)
	if _, ok := f2.Get(d); ok {
		t.Fatalf("removed digest should not be visible within the same fork")
	}
	if _, ok := db.Snapshot().Get(d); !ok {
		t.Fatalf("unmerged removal must not affect the database")
	}
}

func TestAggregateHashChangesWithValueNotJustKey(t *testing.T) {
	db, _ := Open("", false)
	defer db.Close()

	d := digestOf("counter")
	f1 := db.Fork()
	f1.Put(d, []byte("1"))
	h1, err := f1.AggregateHash()
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	f2 := db.Fork()
	f2.Put(d, []byte("2"))
	h2, err := f2.AggregateHash()
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if bytes.Equal(h1, h2) {
		t.Fatalf("aggregate hash must change when a value changes under the same digest")
	}
}

func TestChainStateExcludedFromAggregate(t *testing.T) {
	db, _ := Open("", false)
	defer db.Close()

	f1 := db.Fork()
	d := digestOf("only-key")
	f1.Put(d, []byte("v"))
	before, err := f1.AggregateHash()
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	f1.SetChainState([]byte("height=1"))
	after, err := f1.AggregateHash()
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if !bytes.Equal(before, after) {
		t.Fatalf("setting chain state must not change the state aggregator hash")
	}
}

func TestMergePersistsChainState(t *testing.T) {
	db, _ := Open("", false)
	defer db.Close()

	fork := db.Fork()
	fork.SetChainState([]byte("height=7"))
	if err := db.Merge(fork); err != nil {
		t.Fatalf("merge: %v", err)
	}

	v, ok := db.Snapshot().ChainState()
	if !ok || !bytes.Equal(v, []byte("height=7")) {
		t.Fatalf("expected persisted chain state, got %q ok=%v", v, ok)
	}
}
