package memory

import (
	"context"
	"sync"

	"github.com/lumilend/backend/internal/ledger"
)

// Store keeps everything in process memory. Used for tests and the local
// profile; state is lost on restart.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Commit(_ context.Context, batch *ledger.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range batch.Ops() {
		if op.Delete {
			delete(s.data, op.Key)
			continue
		}
		s.data[op.Key] = op.Value
	}
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *Store) Close() error {
	return nil
}

var _ ledger.Store = (*Store)(nil)
