package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lumilend/backend/internal/blockchain"
	"github.com/lumilend/backend/internal/domain/pool"
	"github.com/lumilend/backend/internal/ledger/memory"
	"github.com/lumilend/backend/internal/observability"
)

// allowAll skips caller checks; these tests drive the service in-process.
type allowAll struct{}

func (allowAll) Authorize(context.Context, string) error { return nil }

type fakeBook struct {
	next       uint64
	loans      map[uint64]pool.LoanRecord
	liquidated []uint64
	failIDs    map[uint64]error
}

func (b *fakeBook) NextLoanID(context.Context) (uint64, error) {
	return b.next, nil
}

func (b *fakeBook) Loan(_ context.Context, id uint64) (pool.LoanRecord, error) {
	l, ok := b.loans[id]
	if !ok {
		return pool.LoanRecord{}, pool.ErrLoanNotFound
	}
	return l, nil
}

func (b *fakeBook) LiquidateDefaulted(_ context.Context, id uint64) error {
	if err := b.failIDs[id]; err != nil {
		return err
	}
	l := b.loans[id]
	l.Status = pool.LoanDefaulted
	b.loans[id] = l
	b.liquidated = append(b.liquidated, id)
	return nil
}

var keeperNow = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

func loanDue(id uint64, status pool.LoanStatus, due time.Time) pool.LoanRecord {
	return pool.LoanRecord{LoanID: id, Borrower: "G", Principal: 10, Status: status, DueTimestamp: uint64(due.Unix())}
}

func newTestKeeper(book LoanBook) *Keeper {
	k := NewKeeper(book, nil, observability.NewMetrics(nil))
	k.now = func() time.Time { return keeperNow }
	return k
}

func TestKeeperLiquidatesOverdueLoans(t *testing.T) {
	past := keeperNow.Add(-time.Hour)
	future := keeperNow.Add(time.Hour)
	book := &fakeBook{
		next: 6,
		loans: map[uint64]pool.LoanRecord{
			1: loanDue(1, pool.LoanRepaid, past),
			2: loanDue(2, pool.LoanActive, past),
			// 3 was burned
			4: loanDue(4, pool.LoanActive, future),
			5: loanDue(5, pool.LoanActive, past),
		},
	}
	k := newTestKeeper(book)

	n, err := k.RunOnce(context.Background(), 10)
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if n != 2 || len(book.liquidated) != 2 || book.liquidated[0] != 2 || book.liquidated[1] != 5 {
		t.Fatalf("unexpected liquidations: n=%d ids=%v", n, book.liquidated)
	}
	if k.Cursor() != 4 {
		t.Fatalf("cursor should stop at the first open loan, got %d", k.Cursor())
	}

	k.now = func() time.Time { return keeperNow.Add(2 * time.Hour) }
	n, err = k.RunOnce(context.Background(), 10)
	if err != nil || n != 1 {
		t.Fatalf("second run: n=%d err=%v", n, err)
	}
	if k.Cursor() != 6 {
		t.Fatalf("expected cursor 6, got %d", k.Cursor())
	}
}

func TestKeeperRespectsBatchSize(t *testing.T) {
	past := keeperNow.Add(-time.Hour)
	book := &fakeBook{next: 4, loans: map[uint64]pool.LoanRecord{
		1: loanDue(1, pool.LoanActive, past),
		2: loanDue(2, pool.LoanActive, past),
		3: loanDue(3, pool.LoanActive, past),
	}}
	k := newTestKeeper(book)

	n, err := k.RunOnce(context.Background(), 2)
	if err != nil || n != 2 {
		t.Fatalf("run once: n=%d err=%v", n, err)
	}
	if k.Cursor() != 3 {
		t.Fatalf("expected cursor 3, got %d", k.Cursor())
	}
}

func TestKeeperHoldsCursorOnFailure(t *testing.T) {
	past := keeperNow.Add(-time.Hour)
	book := &fakeBook{
		next:    3,
		loans:   map[uint64]pool.LoanRecord{1: loanDue(1, pool.LoanActive, past), 2: loanDue(2, pool.LoanActive, past)},
		failIDs: map[uint64]error{1: errors.New("store unavailable")},
	}
	k := newTestKeeper(book)

	n, err := k.RunOnce(context.Background(), 10)
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if n != 1 || k.Cursor() != 1 {
		t.Fatalf("expected one liquidation and cursor 1, got n=%d cursor=%d", n, k.Cursor())
	}
}

func TestKeeperEmptyBook(t *testing.T) {
	book := &fakeBook{next: 1, loans: map[uint64]pool.LoanRecord{}}
	k := newTestKeeper(book)
	n, err := k.RunOnce(context.Background(), 0)
	if err != nil || n != 0 || k.Cursor() != 1 {
		t.Fatalf("empty book: n=%d err=%v cursor=%d", n, err, k.Cursor())
	}
}

func TestKeeperAgainstPoolService(t *testing.T) {
	ctx := context.Background()
	now := keeperNow
	stubs := blockchain.NewStubSet("native", "lumi")
	collab := stubs.Collaborators()
	svc, err := pool.NewService(ctx, memory.New(), pool.Deps{
		Assets:  collab.Assets,
		Oracle:  collab.Oracle,
		Rewards: collab.Rewards,
		Auth:    allowAll{},
		Now:     func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.Initialize(ctx, pool.InitParams{AssetID: "native", InterestRateBPS: 500, PoolAccount: "GPOOL"}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := stubs.Assets.Mint(ctx, "GLENDER", 100); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := svc.Deposit(ctx, "GLENDER", 100); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := svc.RequestLoan(ctx, "GBORROWER", 40, 1); err != nil {
		t.Fatalf("request loan: %v", err)
	}

	k := newTestKeeper(svc)
	if n, err := k.RunOnce(ctx, 10); err != nil || n != 0 {
		t.Fatalf("loan not yet due: n=%d err=%v", n, err)
	}

	now = now.Add(25 * time.Hour)
	k.now = func() time.Time { return now }
	if n, err := k.RunOnce(ctx, 10); err != nil || n != 1 {
		t.Fatalf("overdue loan: n=%d err=%v", n, err)
	}
	stats, err := svc.PoolStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalDeposited != 60 || stats.TotalLent != 0 {
		t.Fatalf("unexpected stats after liquidation: %+v", stats)
	}
}
