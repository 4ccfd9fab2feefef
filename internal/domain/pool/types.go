package pool

import "time"

const (
	MaxInterestRateBPS  = 10_000
	secondsPerDay       = 86_400
	DefaultOracleSymbol = "XLM"
)

type LoanStatus string

const (
	LoanActive    LoanStatus = "active"
	LoanRepaid    LoanStatus = "repaid"
	LoanDefaulted LoanStatus = "defaulted"
)

// Config holds the identities recorded at initialization. It never changes
// afterwards.
type Config struct {
	AssetID       string `json:"asset_id"`
	OracleID      string `json:"oracle_id"`
	RewardAssetID string `json:"reward_asset_id"`
	OracleSymbol  string `json:"oracle_symbol"`
	PoolAccount   string `json:"pool_account"`
	CreatedAt     uint64 `json:"created_at"`
}

// State is the pool-wide totals record. TotalLent never exceeds
// TotalDeposited after a committed operation.
type State struct {
	TotalDeposited  int64  `json:"total_deposited"`
	TotalLent       int64  `json:"total_lent"`
	InterestRateBPS uint32 `json:"interest_rate_bps"`
}

func (s State) Available() int64 {
	return s.TotalDeposited - s.TotalLent
}

type Stats struct {
	TotalDeposited  int64  `json:"total_deposited"`
	TotalLent       int64  `json:"total_lent"`
	Available       int64  `json:"available"`
	InterestRateBPS uint32 `json:"interest_rate_bps"`
}

func (s State) Stats() Stats {
	return Stats{
		TotalDeposited:  s.TotalDeposited,
		TotalLent:       s.TotalLent,
		Available:       s.Available(),
		InterestRateBPS: s.InterestRateBPS,
	}
}

// LenderRecord is absent until the first deposit; an absent record reads as
// the zero value.
type LenderRecord struct {
	Amount           int64  `json:"amount"`
	DepositTimestamp uint64 `json:"deposit_timestamp"`
}

type LoanRecord struct {
	LoanID       uint64     `json:"loan_id"`
	Borrower     string     `json:"borrower"`
	Principal    int64      `json:"principal"`
	InterestOwed int64      `json:"interest_owed"`
	DueTimestamp uint64     `json:"due_timestamp"`
	Status       LoanStatus `json:"status"`
	OpenedAt     uint64     `json:"opened_at"`
	SettledAt    uint64     `json:"settled_at,omitempty"`
}

func (l LoanRecord) TotalOwed() (int64, error) {
	return addAmounts(l.Principal, l.InterestOwed)
}

// Overdue reports whether now is strictly past the due time.
func (l LoanRecord) Overdue(now time.Time) bool {
	return unixSeconds(now) > l.DueTimestamp
}

type InitParams struct {
	AssetID         string
	InterestRateBPS uint32
	OracleID        string
	RewardAssetID   string
	OracleSymbol    string
	PoolAccount     string
}

func unixSeconds(t time.Time) uint64 {
	s := t.Unix()
	if s < 0 {
		return 0
	}
	return uint64(s)
}
