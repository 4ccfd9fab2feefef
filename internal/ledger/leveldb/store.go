package leveldb

import (
	"context"
	"errors"

	"github.com/lumilend/backend/internal/ledger"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// Store is a persistent single-process backend on LevelDB.
type Store struct {
	db *leveldb.DB
}

// Open creates or opens a LevelDB database at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenInMemory backs the database with goleveldb's memory storage.
func OpenInMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	v, err := s.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Commit writes the batch through leveldb.Batch, which LevelDB applies
// atomically.
func (s *Store) Commit(_ context.Context, batch *ledger.Batch) error {
	b := new(leveldb.Batch)
	for _, op := range batch.Ops() {
		if op.Delete {
			b.Delete([]byte(op.Key))
			continue
		}
		b.Put([]byte(op.Key), op.Value)
	}
	return s.db.Write(b, nil)
}

func (s *Store) Close() error {
	return s.db.Close()
}

var _ ledger.Store = (*Store)(nil)
