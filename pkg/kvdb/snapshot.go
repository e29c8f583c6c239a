package kvdb

import dbm "github.com/cometbft/cometbft-db"

// Snapshot is a read-only view over the database's committed state. It reads
// the live database handle rather than a frozen copy, so a Merge made after
// the Snapshot was taken is visible through it.
type Snapshot struct {
	db dbm.DB
}

// Get looks up the value stored under a content-addressed digest.
func (s *Snapshot) Get(digest [32]byte) ([]byte, bool) {
	v, err := s.db.Get(coreKey(digest))
	if err != nil || v == nil {
		return nil, false
	}
	return v, true
}

// ChainState returns the raw encoded chain-state record, if one has been
// committed yet.
func (s *Snapshot) ChainState() ([]byte, bool) {
	v, err := s.db.Get(chainStateKey)
	if err != nil || v == nil {
		return nil, false
	}
	return v, true
}

// entries returns every (digest, value) pair currently committed under the
// core map. It is used to compute the state aggregator hash after a commit
// and is deliberately unexported: callers outside this package only ever
// need the aggregate, not the raw entry set.
func (s *Snapshot) entries() (map[[32]byte][]byte, error) {
	it, err := s.db.Iterator(coreMapPrefix, prefixUpperBound(coreMapPrefix))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	out := make(map[[32]byte][]byte)
	for ; it.Valid(); it.Next() {
		digest, ok := digestFromKey(it.Key())
		if !ok {
			continue
		}
		value := make([]byte, len(it.Value()))
		copy(value, it.Value())
		out[digest] = value
	}
	return out, it.Error()
}

// prefixUpperBound returns the smallest key that sorts after every key with
// the given prefix, for use as the exclusive end bound of a prefix scan.
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		upper[i]++
		if upper[i] != 0 {
			return upper[:i+1]
		}
	}
	return nil
}
