// Package indexer projects committed pool events into a queryable activity
// journal kept in the ledger store.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/lumilend/backend/internal/domain/pool"
	"github.com/lumilend/backend/internal/ledger"
	"github.com/lumilend/backend/internal/observability"
)

const (
	DefaultQueueSize = 1024
	MaxPageSize      = 200
)

// Journal is a pool.EventSink. Publish only enqueues; RunOnce drains the
// queue and appends each event under the next global sequence number, with
// a per-account index for the account it concerns.
type Journal struct {
	store   ledger.Store
	logger  *slog.Logger
	metrics *observability.Metrics
	queue   chan pool.Event
}

func NewJournal(store ledger.Store, logger *slog.Logger, metrics *observability.Metrics, queueSize int) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Journal{
		store:   store,
		logger:  logger.With("component", "activity_journal"),
		metrics: metrics,
		queue:   make(chan pool.Event, queueSize),
	}
}

func (j *Journal) Publish(_ context.Context, ev pool.Event) {
	select {
	case j.queue <- ev:
	default:
		j.count("dropped")
		j.logger.Warn("activity queue full, event dropped", "event_id", ev.ID, "type", ev.Type)
	}
}

// RunOnce records every event queued at the time of the call and returns how
// many it recorded.
func (j *Journal) RunOnce(ctx context.Context) (int, error) {
	n := 0
	for {
		select {
		case ev := <-j.queue:
			if err := j.append(ctx, ev); err != nil {
				j.count("error")
				return n, err
			}
			j.count("ok")
			n++
		default:
			return n, nil
		}
	}
}

// Run drains the queue every interval until ctx is done, then flushes what
// is left.
func (j *Journal) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			n, err := j.RunOnce(flushCtx)
			cancel()
			if err != nil {
				j.logger.Error("final activity flush failed", "err", err)
			}
			j.logger.Info("activity journal stopped", "flushed", n)
			return nil
		case <-ticker.C:
			if _, err := j.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				j.logger.Error("activity flush failed", "err", err)
			}
		}
	}
}

func (j *Journal) append(ctx context.Context, ev pool.Event) error {
	seq, err := readSeq(ctx, j.store, ledger.KeyActivitySeq)
	if err != nil {
		return err
	}
	seq++

	batch := ledger.NewBatch()
	if err := batch.PutJSON(ledger.ActivityKey(seq), ev); err != nil {
		return err
	}
	batch.Put(ledger.KeyActivitySeq, []byte(strconv.FormatUint(seq, 10)))

	if ev.Account != "" {
		n, err := readSeq(ctx, j.store, ledger.AccountActivitySeqKey(ev.Account))
		if err != nil {
			return err
		}
		n++
		batch.Put(ledger.AccountActivityKey(ev.Account, n), []byte(strconv.FormatUint(seq, 10)))
		batch.Put(ledger.AccountActivitySeqKey(ev.Account), []byte(strconv.FormatUint(n, 10)))
	}

	if err := j.store.Commit(ctx, batch); err != nil {
		return fmt.Errorf("record activity %s: %w", ev.ID, err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]pool.Event, error) {
	limit = clampLimit(limit)
	seq, err := readSeq(ctx, j.store, ledger.KeyActivitySeq)
	if err != nil {
		return nil, err
	}
	out := make([]pool.Event, 0, min(uint64(limit), seq))
	for s := seq; s > 0 && len(out) < limit; s-- {
		ev, err := j.event(ctx, s)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

// ForAccount returns up to limit events concerning account, newest first.
func (j *Journal) ForAccount(ctx context.Context, account string, limit int) ([]pool.Event, error) {
	limit = clampLimit(limit)
	n, err := readSeq(ctx, j.store, ledger.AccountActivitySeqKey(account))
	if err != nil {
		return nil, err
	}
	out := make([]pool.Event, 0, min(uint64(limit), n))
	for i := n; i > 0 && len(out) < limit; i-- {
		seq, err := readSeq(ctx, j.store, ledger.AccountActivityKey(account, i))
		if err != nil {
			return nil, err
		}
		ev, err := j.event(ctx, seq)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func (j *Journal) event(ctx context.Context, seq uint64) (pool.Event, error) {
	var ev pool.Event
	if err := ledger.GetJSON(ctx, j.store, ledger.ActivityKey(seq), &ev); err != nil {
		return pool.Event{}, fmt.Errorf("activity %d: %w", seq, err)
	}
	return ev, nil
}

func (j *Journal) count(result string) {
	if j.metrics != nil {
		j.metrics.ActivityRecorded.WithLabelValues(result).Inc()
	}
}

func readSeq(ctx context.Context, s ledger.Store, key string) (uint64, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ledger.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", key, err)
	}
	return n, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

var _ pool.EventSink = (*Journal)(nil)
