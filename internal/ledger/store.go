// Package ledger is the durable key-value state holder behind the lending
// pool. It carries no domain logic: records are opaque bytes addressed by the
// key schema in keys.go, and every mutation goes through an atomic Batch.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("ledger: key not found")

// Store is implemented by every backend. Commit must apply all operations of
// the batch or none of them.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Commit(ctx context.Context, batch *Batch) error
	Close() error
}

// Pinger is implemented by backends with a network connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Op struct {
	Key    string
	Value  []byte
	Delete bool
}

type Batch struct {
	ops []Op
}

func NewBatch() *Batch {
	return &Batch{}
}

func (b *Batch) Put(key string, value []byte) {
	cp := append([]byte(nil), value...)
	b.ops = append(b.ops, Op{Key: key, Value: cp})
}

func (b *Batch) PutJSON(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("ledger: encode %s: %w", key, err)
	}
	b.Put(key, raw)
	return nil
}

func (b *Batch) Delete(key string) {
	b.ops = append(b.ops, Op{Key: key, Delete: true})
}

func (b *Batch) Ops() []Op {
	return b.ops
}

func (b *Batch) Len() int {
	return len(b.ops)
}

// GetJSON loads key into out. It returns ErrNotFound untouched so callers can
// fall back to a zero record.
func GetJSON(ctx context.Context, s Store, key string, out any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("ledger: decode %s: %w", key, err)
	}
	return nil
}

// Has reports whether key is present.
func Has(ctx context.Context, s Store, key string) (bool, error) {
	_, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Ping checks reachability of s. Backends without a Pinger are probed with a
// read.
func Ping(ctx context.Context, s Store) error {
	if p, ok := s.(Pinger); ok {
		return p.Ping(ctx)
	}
	_, err := s.Get(ctx, KeyPoolTotals)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// StorePinger adapts a Store to a single-method health probe.
type StorePinger struct {
	Store Store
}

func (p StorePinger) Ping(ctx context.Context) error {
	return Ping(ctx, p.Store)
}
