// Package kvdb is the node's backing key-value engine. It wraps
// github.com/cometbft/cometbft-db and adds the snapshot/fork lifecycle
// the harness needs: a Snapshot is a read-only view over committed state,
// a Fork is a mutable scratch view layered over a Snapshot, and Merge is
// the only way a Fork's changes reach committed state. Snapshots read the
// live database, so they also see Merges made after they were taken.
package kvdb

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	dbm "github.com/cometbft/cometbft-db"
)

var coreMapPrefix = []byte("rapido.core.map:")

var chainStateKey = []byte("rapido.app.state")

func coreKey(digest [32]byte) []byte {
	key := make([]byte, 0, len(coreMapPrefix)+32)
	key = append(key, coreMapPrefix...)
	key = append(key, digest[:]...)
	return key
}

func digestFromKey(key []byte) ([32]byte, bool) {
	var d [32]byte
	if len(key) != len(coreMapPrefix)+32 {
		return d, false
	}
	copy(d[:], key[len(coreMapPrefix):])
	return d, true
}

// Database owns the single underlying dbm.DB handle for a node. Reads go
// through Snapshot, writes accumulate in a Fork and only land once passed
// to Merge.
type Database struct {
	mu sync.RWMutex
	db dbm.DB
}

// Open returns a Database. With persistent false, state lives only in
// memory for the life of the process, which is enough for development and
// tests. With persistent true, state is kept under <homeDir>/state using
// cometbft-db's GoLevelDB backend.
func Open(homeDir string, persistent bool) (*Database, error) {
	if !persistent {
		return &Database{db: dbm.NewMemDB()}, nil
	}

	dir := filepath.Join(homeDir, "state")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("kvdb: create state dir %s: %w", dir, err)
	}
	db, err := dbm.NewGoLevelDB("rapido", dir)
	if err != nil {
		return nil, fmt.Errorf("kvdb: open goleveldb at %s: %w", dir, err)
	}
	return &Database{db: db}, nil
}

// Close releases the underlying database handle.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db.Close()
}

// Snapshot returns a read-only view of the database's committed state. The
// view is not frozen: it reflects any later Merge.
func (d *Database) Snapshot() *Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return &Snapshot{db: d.db}
}

// Fork returns a fresh mutable scratch view layered over a Snapshot.
func (d *Database) Fork() *Fork {
	return &Fork{base: d.Snapshot()}
}

// Merge atomically writes a Fork's accumulated changes into the database,
// making them visible to every Snapshot taken afterward.
func (d *Database) Merge(f *Fork) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	batch := d.db.NewBatch()
	defer batch.Close()

	for k, v := range f.puts {
		if err := batch.Set([]byte(k), v); err != nil {
			return fmt.Errorf("kvdb: stage put: %w", err)
		}
	}
	for k := range f.removed {
		if err := batch.Delete([]byte(k)); err != nil {
			return fmt.Errorf("kvdb: stage delete: %w", err)
		}
	}
	if f.chainState != nil {
		if f.chainState.present {
			if err := batch.Set(chainStateKey, f.chainState.bytes); err != nil {
				return fmt.Errorf("kvdb: stage chain state: %w", err)
			}
		} else if err := batch.Delete(chainStateKey); err != nil {
			return fmt.Errorf("kvdb: stage chain state delete: %w", err)
		}
	}

	return batch.WriteSync()
}
