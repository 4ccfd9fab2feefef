package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lumilend/backend/internal/domain/pool"
	"github.com/lumilend/backend/internal/observability"
)

// LoanBook is the slice of the pool the keeper needs. It is served by the
// in-process pool service or by the HTTP client.
type LoanBook interface {
	NextLoanID(ctx context.Context) (uint64, error)
	Loan(ctx context.Context, loanID uint64) (pool.LoanRecord, error)
	LiquidateDefaulted(ctx context.Context, loanID uint64) error
}

// Keeper liquidates overdue loans. Loan ids are sequential, so it walks
// [cursor, next_loan_id) and moves the cursor past every leading loan that
// is already settled.
type Keeper struct {
	book    LoanBook
	logger  *slog.Logger
	metrics *observability.Metrics
	now     func() time.Time
	cursor  uint64
}

func NewKeeper(book LoanBook, logger *slog.Logger, metrics *observability.Metrics) *Keeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Keeper{
		book:    book,
		logger:  logger.With("component", "liquidation_keeper"),
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
		cursor:  1,
	}
}

func (k *Keeper) Cursor() uint64 {
	return k.cursor
}

// RunOnce liquidates at most batchSize overdue loans and returns how many it
// liquidated.
func (k *Keeper) RunOnce(ctx context.Context, batchSize int32) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	next, err := k.book.NextLoanID(ctx)
	if err != nil {
		return 0, err
	}

	liquidated := 0
	advancing := true
	now := k.now()
	for id := k.cursor; id < next && liquidated < int(batchSize); id++ {
		if err := ctx.Err(); err != nil {
			return liquidated, err
		}

		loan, err := k.book.Loan(ctx, id)
		switch {
		case errors.Is(err, pool.ErrLoanNotFound):
			// id burned by a rolled back request
		case err != nil:
			return liquidated, err
		case loan.Status != pool.LoanActive:
		case !loan.Overdue(now):
			advancing = false
		default:
			err := k.book.LiquidateDefaulted(ctx, id)
			switch {
			case err == nil:
				liquidated++
				if k.metrics != nil {
					k.metrics.KeeperLiquidations.Inc()
				}
				k.logger.Info("loan liquidated", "loan_id", id, "borrower", loan.Borrower, "principal", loan.Principal)
			case errors.Is(err, pool.ErrLoanNotActive):
			case errors.Is(err, pool.ErrNotYetDefaulted):
				advancing = false
			default:
				k.logger.Warn("liquidation failed", "loan_id", id, "err", err)
				advancing = false
			}
		}

		if advancing {
			k.cursor = id + 1
		}
	}
	return liquidated, nil
}

// Run calls RunOnce every interval until ctx is done.
func (k *Keeper) Run(ctx context.Context, interval time.Duration, batchSize int32) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	k.logger.Info("keeper started", "interval", interval.String(), "batch_size", batchSize)
	for {
		select {
		case <-ctx.Done():
			k.logger.Info("keeper stopped", "cursor", k.cursor)
			return nil
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			n, err := k.RunOnce(runCtx, batchSize)
			cancel()
			if err != nil && !errors.Is(err, context.Canceled) {
				k.logger.Error("keeper run failed", "err", err)
				continue
			}
			if n > 0 {
				k.logger.Info("keeper run complete", "liquidated", n, "cursor", k.cursor)
			}
		}
	}
}
