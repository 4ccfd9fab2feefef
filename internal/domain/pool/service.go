package pool

import (
	"context"
	"errors"
	"sync"

	"github.com/lumilend/backend/internal/ledger"
)

// Service owns the engine for a store that may not be initialized yet.
// Queries fall back to the Reader so they answer zeros before
// initialization; mutations fail with ErrNotInitialized.
type Service struct {
	store  ledger.Store
	deps   Deps
	reader *Reader

	mu     sync.RWMutex
	engine *Engine
}

// NewService opens the pool in store when it exists.
func NewService(ctx context.Context, store ledger.Store, deps Deps) (*Service, error) {
	s := &Service{store: store, deps: deps, reader: NewReader(store)}
	engine, err := Open(ctx, store, deps)
	switch {
	case err == nil:
		s.engine = engine
	case errors.Is(err, ErrNotInitialized):
	default:
		return nil, err
	}
	return s, nil
}

func (s *Service) Initialize(ctx context.Context, params InitParams) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine != nil {
		return Config{}, ErrAlreadyInitialized
	}
	engine, err := Initialize(ctx, s.store, s.deps, params)
	if err != nil {
		return Config{}, err
	}
	s.engine = engine
	return engine.Config(), nil
}

func (s *Service) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine != nil
}

func (s *Service) Engine() (*Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.engine == nil {
		return nil, ErrNotInitialized
	}
	return s.engine, nil
}

func (s *Service) Deposit(ctx context.Context, account string, amount int64) error {
	e, err := s.Engine()
	if err != nil {
		return err
	}
	return e.Deposit(ctx, account, amount)
}

func (s *Service) Withdraw(ctx context.Context, account string, amount int64) error {
	e, err := s.Engine()
	if err != nil {
		return err
	}
	return e.Withdraw(ctx, account, amount)
}

func (s *Service) RequestLoan(ctx context.Context, borrower string, amount int64, durationDays uint32) (uint64, error) {
	e, err := s.Engine()
	if err != nil {
		return 0, err
	}
	return e.RequestLoan(ctx, borrower, amount, durationDays)
}

func (s *Service) RepayLoan(ctx context.Context, caller string, loanID uint64) error {
	e, err := s.Engine()
	if err != nil {
		return err
	}
	return e.RepayLoan(ctx, caller, loanID)
}

func (s *Service) LiquidateDefaulted(ctx context.Context, loanID uint64) error {
	e, err := s.Engine()
	if err != nil {
		return err
	}
	return e.LiquidateDefaulted(ctx, loanID)
}

func (s *Service) PoolStats(ctx context.Context) (Stats, error) {
	if e, err := s.Engine(); err == nil {
		return e.PoolStats(ctx)
	}
	return s.reader.PoolStats(ctx)
}

func (s *Service) LenderInfo(ctx context.Context, address string) (LenderRecord, error) {
	if e, err := s.Engine(); err == nil {
		return e.LenderInfo(ctx, address)
	}
	return s.reader.LenderInfo(ctx, address)
}

func (s *Service) Loan(ctx context.Context, loanID uint64) (LoanRecord, error) {
	if e, err := s.Engine(); err == nil {
		return e.Loan(ctx, loanID)
	}
	return s.reader.Loan(ctx, loanID)
}

func (s *Service) ActiveLoan(ctx context.Context, borrower string) (LoanRecord, error) {
	if e, err := s.Engine(); err == nil {
		return e.ActiveLoan(ctx, borrower)
	}
	return s.reader.ActiveLoan(ctx, borrower)
}

func (s *Service) NextLoanID(ctx context.Context) (uint64, error) {
	if e, err := s.Engine(); err == nil {
		return e.NextLoanID(ctx)
	}
	return s.reader.NextLoanID(ctx)
}

func (s *Service) Config(ctx context.Context) (Config, error) {
	if e, err := s.Engine(); err == nil {
		return e.Config(), nil
	}
	return s.reader.Config(ctx)
}
