package pool

import (
	"context"
	"errors"
	"strings"

	"github.com/lumilend/backend/internal/ledger"
)

// Reader answers queries straight from the ledger. Unlike Engine it works on
// an uninitialized store, where stats and lender records read as zero.
type Reader struct {
	store ledger.Store
}

func NewReader(store ledger.Store) *Reader {
	return &Reader{store: store}
}

func (r *Reader) PoolStats(ctx context.Context) (Stats, error) {
	state, err := r.state(ctx)
	if errors.Is(err, ErrNotInitialized) {
		return Stats{}, nil
	}
	if err != nil {
		return Stats{}, err
	}
	return state.Stats(), nil
}

func (r *Reader) LenderInfo(ctx context.Context, address string) (LenderRecord, error) {
	var out LenderRecord
	err := ledger.GetJSON(ctx, r.store, ledger.LenderKey(address), &out)
	if errors.Is(err, ledger.ErrNotFound) {
		return LenderRecord{}, nil
	}
	if err != nil {
		return LenderRecord{}, err
	}
	return out, nil
}

func (r *Reader) Loan(ctx context.Context, loanID uint64) (LoanRecord, error) {
	var out LoanRecord
	err := ledger.GetJSON(ctx, r.store, ledger.LoanKey(loanID), &out)
	if errors.Is(err, ledger.ErrNotFound) {
		return LoanRecord{}, ErrLoanNotFound
	}
	if err != nil {
		return LoanRecord{}, err
	}
	return out, nil
}

// ActiveLoan resolves the borrower's entry in the active-loan index.
func (r *Reader) ActiveLoan(ctx context.Context, borrower string) (LoanRecord, error) {
	loanID, ok, err := r.activeLoanID(ctx, borrower)
	if err != nil {
		return LoanRecord{}, err
	}
	if !ok {
		return LoanRecord{}, ErrLoanNotFound
	}
	return r.Loan(ctx, loanID)
}

// NextLoanID is the id the next loan will receive; 0 before initialization.
func (r *Reader) NextLoanID(ctx context.Context) (uint64, error) {
	var out uint64
	err := ledger.GetJSON(ctx, r.store, ledger.KeyNextLoanID, &out)
	if errors.Is(err, ledger.ErrNotFound) {
		return 0, nil
	}
	return out, err
}

func (r *Reader) Config(ctx context.Context) (Config, error) {
	var out Config
	err := ledger.GetJSON(ctx, r.store, ledger.KeyPoolConfig, &out)
	if errors.Is(err, ledger.ErrNotFound) {
		return Config{}, ErrNotInitialized
	}
	return out, err
}

func (r *Reader) state(ctx context.Context) (State, error) {
	var out State
	err := ledger.GetJSON(ctx, r.store, ledger.KeyPoolTotals, &out)
	if errors.Is(err, ledger.ErrNotFound) {
		return State{}, ErrNotInitialized
	}
	return out, err
}

func (r *Reader) activeLoanID(ctx context.Context, borrower string) (uint64, bool, error) {
	if strings.TrimSpace(borrower) == "" {
		return 0, false, nil
	}
	var loanID uint64
	err := ledger.GetJSON(ctx, r.store, ledger.ActiveLoanKey(borrower), &loanID)
	if errors.Is(err, ledger.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return loanID, true, nil
}
