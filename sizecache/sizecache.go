// Package sizecache persists per-document page geometry across sessions.
//
// Fetching geometry from the engine requires touching every page, which for
// large documents dominates document-open latency. The reader consults this
// cache first; on a hit it skips the engine entirely for sizing.
//
// Storage is LevelDB, one record per document, JSON-encoded. An empty path
// opens in-memory storage (used by tests).
package sizecache

import (
	"encoding/json"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
)

// PageSize is the persisted geometry of one page, in points.
type PageSize struct {
	PageIndex int     `json:"pageIndex"`
	WidthPt   float64 `json:"widthPt"`
	HeightPt  float64 `json:"heightPt"`
}

// Store is a LevelDB-backed page geometry cache.
// Thread-safe: LevelDB handles its own synchronization.
type Store struct {
	db *leveldb.DB
}

// Open opens or creates the cache database at the given path.
// An empty path opens in-memory storage.
func Open(path string) (*Store, error) {
	var db *leveldb.DB
	var err error
	if path == "" {
		db, err = leveldb.Open(leveldbstorage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("sizecache: open %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Get returns the cached page sizes for a document, or nil on a miss.
func (s *Store) Get(documentID string) ([]PageSize, error) {
	data, err := s.db.Get(key(documentID), nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sizecache: get %q: %w", documentID, err)
	}

	var sizes []PageSize
	if err := json.Unmarshal(data, &sizes); err != nil {
		// A corrupt record is a miss, not a failure; it will be
		// overwritten by the next Put.
		return nil, nil
	}
	return sizes, nil
}

// Put stores the page sizes for a document, replacing any previous record.
func (s *Store) Put(documentID string, sizes []PageSize) error {
	data, err := json.Marshal(sizes)
	if err != nil {
		return fmt.Errorf("sizecache: encode %q: %w", documentID, err)
	}
	if err := s.db.Put(key(documentID), data, nil); err != nil {
		return fmt.Errorf("sizecache: put %q: %w", documentID, err)
	}
	return nil
}

// Delete removes a document's record. Deleting a missing record is not an
// error.
func (s *Store) Delete(documentID string) error {
	if err := s.db.Delete(key(documentID), nil); err != nil {
		return fmt.Errorf("sizecache: delete %q: %w", documentID, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func key(documentID string) []byte {
	return []byte("sizes/" + documentID)
}
