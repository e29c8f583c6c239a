package merkle

import (
	"bytes"
	"crypto/sha256"
	"testing"
)

func TestAggregate_Empty(t *testing.T) {
	root := Aggregate(nil)
	if len(root) != 32 {
		t.Fatalf("expected 32-byte zero root, got %d bytes", len(root))
	}
	for _, b := range root {
		if b != 0 {
			t.Fatalf("expected all-zero root for empty input, got %x", root)
		}
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	a := sha256.Sum256([]byte("a"))
	b := sha256.Sum256([]byte("b"))
	c := sha256.Sum256([]byte("c"))

	r1 := Aggregate([][]byte{a[:], b[:], c[:]})
	r2 := Aggregate([][]byte{c[:], a[:], b[:]})
	r3 := Aggregate([][]byte{b[:], c[:], a[:]})

	if !bytes.Equal(r1, r2) || !bytes.Equal(r2, r3) {
		t.Fatalf("aggregate root must not depend on input order: %x vs %x vs %x", r1, r2, r3)
	}
}

func TestAggregate_SingleDigest(t *testing.T) {
	a := sha256.Sum256([]byte("solo"))
	root := Aggregate([][]byte{a[:]})
	if !bytes.Equal(root, a[:]) {
		t.Fatalf("single-digest aggregate should equal the digest itself: got %x want %x", root, a[:])
	}
}

func TestAggregate_DifferentSetsDifferentRoots(t *testing.T) {
	a := sha256.Sum256([]byte("a"))
	b := sha256.Sum256([]byte("b"))
	c := sha256.Sum256([]byte("c"))

	r1 := Aggregate([][]byte{a[:], b[:]})
	r2 := Aggregate([][]byte{a[:], b[:], c[:]})

	if bytes.Equal(r1, r2) {
		t.Fatalf("different digest sets should not produce the same root")
	}
}
