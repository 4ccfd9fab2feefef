package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lumilend/backend/internal/ledger"
	"github.com/lumilend/backend/internal/observability"
)

const (
	opDeposit   = "deposit"
	opWithdraw  = "withdraw"
	opRequest   = "request_loan"
	opRepay     = "repay_loan"
	opLiquidate = "liquidate_defaulted"
)

// undoTimeout bounds a compensating commit or refund once it no longer
// follows the caller's deadline.
const undoTimeout = 10 * time.Second

type AssetTransfer interface {
	Transfer(ctx context.Context, from, to string, amount int64) error
}

type PriceOracle interface {
	GetPrice(ctx context.Context, symbol string) (int64, error)
}

type RewardIssuer interface {
	Mint(ctx context.Context, to string, amount int64) error
}

// Authorizer decides whether the caller carried by ctx may move funds of
// account.
type Authorizer interface {
	Authorize(ctx context.Context, account string) error
}

type Deps struct {
	Assets  AssetTransfer
	Oracle  PriceOracle
	Rewards RewardIssuer
	Auth    Authorizer
	Events  EventSink
	Logger  *slog.Logger
	Metrics *observability.Metrics
	Now     func() time.Time
}

func (d Deps) validate() error {
	if d.Assets == nil || d.Oracle == nil || d.Rewards == nil || d.Auth == nil {
		return fmt.Errorf("%w: assets, oracle, rewards and auth are required", ErrInvalidParams)
	}
	return nil
}

// Engine is the lending pool state machine. Every public method holds the
// engine lock for its whole duration, collaborator calls included, so
// operations never interleave.
type Engine struct {
	mu sync.Mutex

	store   ledger.Store
	reader  *Reader
	cfg     Config
	assets  AssetTransfer
	oracle  PriceOracle
	rewards RewardIssuer
	auth    Authorizer
	events  EventSink
	logger  *slog.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// Initialize creates the pool in an empty store and returns its engine. It
// fails with ErrAlreadyInitialized, writing nothing, when pool state exists.
func Initialize(ctx context.Context, store ledger.Store, deps Deps, params InitParams) (*Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if params.InterestRateBPS > MaxInterestRateBPS {
		return nil, ErrInvalidRate
	}
	params.AssetID = strings.TrimSpace(params.AssetID)
	params.PoolAccount = strings.TrimSpace(params.PoolAccount)
	if params.AssetID == "" || params.PoolAccount == "" {
		return nil, fmt.Errorf("%w: asset id and pool account are required", ErrInvalidParams)
	}
	if strings.TrimSpace(params.OracleSymbol) == "" {
		params.OracleSymbol = DefaultOracleSymbol
	}

	for _, key := range []string{ledger.KeyPoolTotals, ledger.KeyPoolConfig} {
		exists, err := ledger.Has(ctx, store, key)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrAlreadyInitialized
		}
	}

	e := newEngine(store, deps)
	cfg := Config{
		AssetID:       params.AssetID,
		OracleID:      strings.TrimSpace(params.OracleID),
		RewardAssetID: strings.TrimSpace(params.RewardAssetID),
		OracleSymbol:  strings.ToUpper(strings.TrimSpace(params.OracleSymbol)),
		PoolAccount:   params.PoolAccount,
		CreatedAt:     unixSeconds(e.now()),
	}
	state := State{InterestRateBPS: params.InterestRateBPS}

	batch := ledger.NewBatch()
	if err := batch.PutJSON(ledger.KeyPoolConfig, cfg); err != nil {
		return nil, err
	}
	if err := batch.PutJSON(ledger.KeyPoolTotals, state); err != nil {
		return nil, err
	}
	if err := batch.PutJSON(ledger.KeyNextLoanID, uint64(1)); err != nil {
		return nil, err
	}
	if err := store.Commit(ctx, batch); err != nil {
		return nil, fmt.Errorf("initialize: commit: %w", err)
	}

	e.cfg = cfg
	e.observeState(state)
	e.logger.Info("pool initialized", "asset", cfg.AssetID, "interest_rate_bps", state.InterestRateBPS, "oracle", cfg.OracleID, "reward_asset", cfg.RewardAssetID)
	return e, nil
}

// Open returns the engine of an initialized store, or ErrNotInitialized.
func Open(ctx context.Context, store ledger.Store, deps Deps) (*Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	e := newEngine(store, deps)
	cfg, err := e.reader.Config(ctx)
	if err != nil {
		return nil, err
	}
	state, err := e.reader.state(ctx)
	if err != nil {
		return nil, err
	}
	e.cfg = cfg
	e.observeState(state)
	return e, nil
}

func newEngine(store ledger.Store, deps Deps) *Engine {
	e := &Engine{
		store:   store,
		reader:  NewReader(store),
		assets:  deps.Assets,
		oracle:  deps.Oracle,
		rewards: deps.Rewards,
		auth:    deps.Auth,
		events:  deps.Events,
		logger:  deps.Logger,
		metrics: deps.Metrics,
		now:     deps.Now,
	}
	if e.events == nil {
		e.events = discardSink{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "lending_pool")
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	return e
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) Deposit(ctx context.Context, account string, amount int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := time.Now()

	err := e.deposit(ctx, account, amount)
	e.record(opDeposit, start, err, "account", account, "amount", amount)
	return err
}

func (e *Engine) deposit(ctx context.Context, account string, amount int64) error {
	if err := e.authorize(ctx, account); err != nil {
		return err
	}
	if account == e.cfg.PoolAccount {
		return ErrInvalidParams
	}
	if amount <= 0 {
		return ErrInsufficientBalance
	}

	state, err := e.reader.state(ctx)
	if err != nil {
		return err
	}
	lender, err := e.reader.LenderInfo(ctx, account)
	if err != nil {
		return err
	}
	if state.TotalDeposited, err = addAmounts(state.TotalDeposited, amount); err != nil {
		return err
	}
	if lender.Amount, err = addAmounts(lender.Amount, amount); err != nil {
		return err
	}
	lender.DepositTimestamp = unixSeconds(e.now())

	if err := e.assets.Transfer(ctx, account, e.cfg.PoolAccount, amount); err != nil {
		return fmt.Errorf("deposit transfer: %w", err)
	}

	batch := ledger.NewBatch()
	if err := putAll(batch, ledger.KeyPoolTotals, state, ledger.LenderKey(account), lender); err != nil {
		return e.refund(ctx, opDeposit, account, amount, err)
	}
	if err := e.store.Commit(ctx, batch); err != nil {
		return e.refund(ctx, opDeposit, account, amount, fmt.Errorf("deposit commit: %w", err))
	}

	e.observeState(state)
	ev := newEvent(EventDeposited, e.now())
	ev.Account, ev.Amount, ev.Stats = account, amount, state.Stats()
	e.events.Publish(ctx, ev)
	return nil
}

// Withdraw commits the reduced balances before paying out. When the payout
// fails the previous records are committed back and the transfer error is
// returned.
func (e *Engine) Withdraw(ctx context.Context, account string, amount int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := time.Now()

	err := e.withdraw(ctx, account, amount)
	e.record(opWithdraw, start, err, "account", account, "amount", amount)
	return err
}

func (e *Engine) withdraw(ctx context.Context, account string, amount int64) error {
	if err := e.authorize(ctx, account); err != nil {
		return err
	}
	if amount <= 0 {
		return ErrInsufficientBalance
	}

	lender, err := e.reader.LenderInfo(ctx, account)
	if err != nil {
		return err
	}
	if lender.Amount < amount {
		return ErrInsufficientBalance
	}
	state, err := e.reader.state(ctx)
	if err != nil {
		return err
	}
	if state.Available() < amount {
		return ErrInsufficientPoolLiquidity
	}

	prevState, prevLender := state, lender
	state.TotalDeposited -= amount
	lender.Amount -= amount

	lenderKey := ledger.LenderKey(account)
	batch := ledger.NewBatch()
	if err := putAll(batch, ledger.KeyPoolTotals, state, lenderKey, lender); err != nil {
		return err
	}
	if err := e.store.Commit(ctx, batch); err != nil {
		return fmt.Errorf("withdraw commit: %w", err)
	}

	if err := e.assets.Transfer(ctx, e.cfg.PoolAccount, account, amount); err != nil {
		undo := ledger.NewBatch()
		if perr := putAll(undo, ledger.KeyPoolTotals, prevState, lenderKey, prevLender); perr != nil {
			return errors.Join(fmt.Errorf("withdraw transfer: %w", err), perr)
		}
		return e.rollback(ctx, opWithdraw, undo, fmt.Errorf("withdraw transfer: %w", err))
	}

	e.observeState(state)
	ev := newEvent(EventWithdrawn, e.now())
	ev.Account, ev.Amount, ev.Stats = account, amount, state.Stats()
	e.events.Publish(ctx, ev)
	return nil
}

// RequestLoan opens a loan of amount for borrower, due durationDays from now,
// and pays the principal out of the pool. The oracle price is fetched and
// reported but does not gate the loan.
func (e *Engine) RequestLoan(ctx context.Context, borrower string, amount int64, durationDays uint32) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := time.Now()

	loanID, err := e.requestLoan(ctx, borrower, amount, durationDays)
	e.record(opRequest, start, err, "borrower", borrower, "amount", amount, "duration_days", durationDays, "loan_id", loanID)
	return loanID, err
}

func (e *Engine) requestLoan(ctx context.Context, borrower string, amount int64, durationDays uint32) (uint64, error) {
	if err := e.authorize(ctx, borrower); err != nil {
		return 0, err
	}
	if borrower == e.cfg.PoolAccount {
		return 0, ErrInvalidParams
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	if _, active, err := e.reader.activeLoanID(ctx, borrower); err != nil {
		return 0, err
	} else if active {
		return 0, ErrLoanAlreadyActive
	}

	state, err := e.reader.state(ctx)
	if err != nil {
		return 0, err
	}
	if state.Available() < amount {
		return 0, ErrInsufficientPoolLiquidity
	}

	price, err := e.oracle.GetPrice(ctx, e.cfg.OracleSymbol)
	if err != nil {
		return 0, fmt.Errorf("oracle price %s: %w", e.cfg.OracleSymbol, err)
	}

	interest, err := InterestOwed(amount, state.InterestRateBPS)
	if err != nil {
		return 0, err
	}
	nowUnix := unixSeconds(e.now())
	due, err := DueTimestamp(nowUnix, durationDays)
	if err != nil {
		return 0, err
	}
	loanID, err := e.reader.NextLoanID(ctx)
	if err != nil {
		return 0, err
	}
	if loanID == 0 {
		return 0, ErrNotInitialized
	}

	prevState := state
	state.TotalLent += amount
	loan := LoanRecord{
		LoanID:       loanID,
		Borrower:     borrower,
		Principal:    amount,
		InterestOwed: interest,
		DueTimestamp: due,
		Status:       LoanActive,
		OpenedAt:     nowUnix,
	}

	loanKey := ledger.LoanKey(loanID)
	activeKey := ledger.ActiveLoanKey(borrower)
	batch := ledger.NewBatch()
	if err := putAll(batch,
		ledger.KeyPoolTotals, state,
		ledger.KeyNextLoanID, loanID+1,
		loanKey, loan,
		activeKey, loanID,
	); err != nil {
		return 0, err
	}
	if err := e.store.Commit(ctx, batch); err != nil {
		return 0, fmt.Errorf("request loan commit: %w", err)
	}

	if err := e.assets.Transfer(ctx, e.cfg.PoolAccount, borrower, amount); err != nil {
		// The id stays consumed so that ids are never handed out twice.
		undo := ledger.NewBatch()
		if perr := undo.PutJSON(ledger.KeyPoolTotals, prevState); perr != nil {
			return 0, errors.Join(fmt.Errorf("loan disbursement: %w", err), perr)
		}
		undo.Delete(loanKey)
		undo.Delete(activeKey)
		return 0, e.rollback(ctx, opRequest, undo, fmt.Errorf("loan disbursement: %w", err))
	}

	e.observeState(state)
	if e.metrics != nil {
		e.metrics.ActiveLoans.Inc()
	}
	ev := newEvent(EventLoanRequested, e.now())
	ev.Account, ev.LoanID, ev.Amount, ev.Price, ev.Stats = borrower, loanID, amount, price, state.Stats()
	e.events.Publish(ctx, ev)
	return loanID, nil
}

// RepayLoan settles loanID in full. Interest accrues to the pool. An on-time
// repayment also mints a reward to the borrower; a failed mint is logged,
// counted and published as EventRewardMintFailed but never fails the
// repayment.
func (e *Engine) RepayLoan(ctx context.Context, caller string, loanID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := time.Now()

	err := e.repayLoan(ctx, caller, loanID)
	e.record(opRepay, start, err, "caller", caller, "loan_id", loanID)
	return err
}

func (e *Engine) repayLoan(ctx context.Context, caller string, loanID uint64) error {
	if err := e.authorize(ctx, caller); err != nil {
		return err
	}
	loan, err := e.reader.Loan(ctx, loanID)
	if err != nil {
		return err
	}
	if loan.Borrower != caller {
		return ErrUnauthorized
	}
	if loan.Status != LoanActive {
		return ErrLoanNotActive
	}
	totalOwed, err := loan.TotalOwed()
	if err != nil {
		return err
	}
	state, err := e.reader.state(ctx)
	if err != nil {
		return err
	}
	if state.TotalDeposited, err = addAmounts(state.TotalDeposited, loan.InterestOwed); err != nil {
		return err
	}
	state.TotalLent -= loan.Principal

	now := e.now()
	loan.Status = LoanRepaid
	loan.SettledAt = unixSeconds(now)

	if err := e.assets.Transfer(ctx, caller, e.cfg.PoolAccount, totalOwed); err != nil {
		return fmt.Errorf("repayment transfer: %w", err)
	}

	batch := ledger.NewBatch()
	if err := putAll(batch, ledger.LoanKey(loanID), loan, ledger.KeyPoolTotals, state); err != nil {
		return e.refund(ctx, opRepay, caller, totalOwed, err)
	}
	batch.Delete(ledger.ActiveLoanKey(loan.Borrower))
	if err := e.store.Commit(ctx, batch); err != nil {
		return e.refund(ctx, opRepay, caller, totalOwed, fmt.Errorf("repay commit: %w", err))
	}

	e.observeState(state)
	if e.metrics != nil {
		e.metrics.ActiveLoans.Dec()
	}
	ev := newEvent(EventLoanRepaid, now)
	ev.Account, ev.LoanID, ev.Amount, ev.Stats = caller, loanID, totalOwed, state.Stats()
	e.events.Publish(ctx, ev)

	if !loan.Overdue(now) {
		e.issueReward(ctx, loan, state.Stats())
	}
	return nil
}

func (e *Engine) issueReward(ctx context.Context, loan LoanRecord, stats Stats) {
	reward := RewardFor(loan.Principal)
	if reward == 0 {
		return
	}
	if err := e.rewards.Mint(ctx, loan.Borrower, reward); err != nil {
		e.logger.Warn("reward mint failed; repayment kept", "loan_id", loan.LoanID, "borrower", loan.Borrower, "reward", reward, "err", err)
		if e.metrics != nil {
			e.metrics.RewardMintFailures.Inc()
		}
		ev := newEvent(EventRewardMintFailed, e.now())
		ev.Account, ev.LoanID, ev.Amount, ev.Stats, ev.Error = loan.Borrower, loan.LoanID, reward, stats, err.Error()
		e.events.Publish(ctx, ev)
		return
	}
	ev := newEvent(EventRewardMinted, e.now())
	ev.Account, ev.LoanID, ev.Amount, ev.Stats = loan.Borrower, loan.LoanID, reward, stats
	e.events.Publish(ctx, ev)
}

// LiquidateDefaulted writes off an overdue loan's principal against the
// pool. Anyone may call it.
func (e *Engine) LiquidateDefaulted(ctx context.Context, loanID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := time.Now()

	err := e.liquidateDefaulted(ctx, loanID)
	e.record(opLiquidate, start, err, "loan_id", loanID)
	return err
}

func (e *Engine) liquidateDefaulted(ctx context.Context, loanID uint64) error {
	loan, err := e.reader.Loan(ctx, loanID)
	if err != nil {
		return err
	}
	if loan.Status != LoanActive {
		return ErrLoanNotActive
	}
	now := e.now()
	if !loan.Overdue(now) {
		return ErrNotYetDefaulted
	}

	state, err := e.reader.state(ctx)
	if err != nil {
		return err
	}
	state.TotalDeposited -= loan.Principal
	state.TotalLent -= loan.Principal
	loan.Status = LoanDefaulted
	loan.SettledAt = unixSeconds(now)

	batch := ledger.NewBatch()
	if err := putAll(batch, ledger.LoanKey(loanID), loan, ledger.KeyPoolTotals, state); err != nil {
		return err
	}
	batch.Delete(ledger.ActiveLoanKey(loan.Borrower))
	if err := e.store.Commit(ctx, batch); err != nil {
		return fmt.Errorf("liquidate commit: %w", err)
	}

	e.observeState(state)
	if e.metrics != nil {
		e.metrics.ActiveLoans.Dec()
	}
	ev := newEvent(EventLoanDefaulted, now)
	ev.Account, ev.LoanID, ev.Amount, ev.Stats = loan.Borrower, loanID, loan.Principal, state.Stats()
	e.events.Publish(ctx, ev)
	return nil
}

func (e *Engine) PoolStats(ctx context.Context) (Stats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reader.PoolStats(ctx)
}

func (e *Engine) LenderInfo(ctx context.Context, address string) (LenderRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reader.LenderInfo(ctx, address)
}

func (e *Engine) Loan(ctx context.Context, loanID uint64) (LoanRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reader.Loan(ctx, loanID)
}

func (e *Engine) ActiveLoan(ctx context.Context, borrower string) (LoanRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reader.ActiveLoan(ctx, borrower)
}

func (e *Engine) NextLoanID(ctx context.Context) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reader.NextLoanID(ctx)
}

func (e *Engine) authorize(ctx context.Context, account string) error {
	if strings.TrimSpace(account) == "" {
		return ErrUnauthorized
	}
	if err := e.auth.Authorize(ctx, account); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return nil
}

// refund returns funds already pulled into the pool when the state commit
// that should have accounted for them failed.
func (e *Engine) refund(ctx context.Context, op, account string, amount int64, cause error) error {
	if e.metrics != nil {
		e.metrics.Rollbacks.WithLabelValues(op).Inc()
	}
	undoCtx, cancel := undoContext(ctx)
	defer cancel()
	if err := e.assets.Transfer(undoCtx, e.cfg.PoolAccount, account, amount); err != nil {
		e.logger.Error("refund after failed commit did not complete", "op", op, "account", account, "amount", amount, "cause", cause, "err", err)
		return errors.Join(cause, fmt.Errorf("refund: %w", err))
	}
	e.logger.Warn("commit failed, funds refunded", "op", op, "account", account, "amount", amount, "cause", cause)
	return cause
}

// undoContext detaches compensating work from the caller's cancellation.
func undoContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), undoTimeout)
}

// rollback restores records committed ahead of an outbound transfer that
// then failed.
func (e *Engine) rollback(ctx context.Context, op string, undo *ledger.Batch, cause error) error {
	if e.metrics != nil {
		e.metrics.Rollbacks.WithLabelValues(op).Inc()
	}
	undoCtx, cancel := undoContext(ctx)
	defer cancel()
	if err := e.store.Commit(undoCtx, undo); err != nil {
		e.logger.Error("rollback commit failed; ledger ahead of asset balances", "op", op, "cause", cause, "err", err)
		return errors.Join(cause, fmt.Errorf("rollback: %w", err))
	}
	e.logger.Warn("outbound transfer failed, state rolled back", "op", op, "cause", cause)
	return cause
}

func (e *Engine) record(op string, start time.Time, err error, attrs ...any) {
	result := "ok"
	if err != nil {
		result = "error"
		if code := Code(err); code != 0 {
			result = strconv.FormatUint(uint64(code), 10)
		}
	}
	if e.metrics != nil {
		e.metrics.OperationsTotal.WithLabelValues(op, result).Inc()
		e.metrics.OpLatencyMS.WithLabelValues(op).Observe(float64(time.Since(start).Milliseconds()))
	}
	attrs = append(attrs, "op", op, "latency_ms", time.Since(start).Milliseconds())
	if err != nil {
		e.logger.Info("operation rejected", append(attrs, "err", err)...)
		return
	}
	e.logger.Info("operation committed", attrs...)
}

func (e *Engine) observeState(state State) {
	if e.metrics == nil {
		return
	}
	e.metrics.TotalDeposited.Set(float64(state.TotalDeposited))
	e.metrics.TotalLent.Set(float64(state.TotalLent))
}

// putAll encodes alternating key/value pairs into batch.
func putAll(batch *ledger.Batch, kv ...any) error {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			return fmt.Errorf("putAll: key at %d is %T", i, kv[i])
		}
		if err := batch.PutJSON(key, kv[i+1]); err != nil {
			return err
		}
	}
	return nil
}
