package merkle

import "sort"

// Aggregate computes a single deterministic root hash over an arbitrary set of
// 32-byte digests, independent of the order they are supplied in. This is used
// by the node harness to compute the application hash over one leaf hash per
// core-map entry (the entry's storage digest hashed together with its value,
// see kvdb.Fork.AggregateHash): the
// digests are sorted first so that two replicas presented with the same set in
// different iteration orders (e.g. differing map iteration order) still agree
// on the resulting root.
//
// An empty input returns a fixed 32-byte zero digest rather than an error,
// since an application with no state yet (e.g. immediately after genesis with
// no writes) must still report a well-defined apphash.
func Aggregate(digests [][]byte) []byte {
	if len(digests) == 0 {
		return make([]byte, 32)
	}

	sorted := make([][]byte, len(digests))
	for i, d := range digests {
		cp := make([]byte, len(d))
		copy(cp, d)
		sorted[i] = cp
	}
	sort.Slice(sorted, func(i, j int) bool {
		return lessBytes(sorted[i], sorted[j])
	})

	tree, err := BuildTree(sorted)
	if err != nil {
		// BuildTree only fails on a malformed (non-32-byte) leaf, which can't
		// happen here since callers pass SHA-256 digests.
		panic(err)
	}
	return tree.Root()
}

func lessBytes(a, b []byte) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
