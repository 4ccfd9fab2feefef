package pool

import "errors"

// Error is a terminal, non-retryable outcome of a pool operation. Code values
// 1-9 are stable and shared with external clients.
type Error struct {
	Code uint32
	Slug string
}

func (e *Error) Error() string {
	return "lending pool: " + e.Slug
}

var (
	ErrAlreadyInitialized        = &Error{Code: 1, Slug: "already_initialized"}
	ErrInsufficientPoolLiquidity = &Error{Code: 2, Slug: "insufficient_pool_liquidity"}
	ErrInsufficientBalance       = &Error{Code: 3, Slug: "insufficient_balance"}
	ErrLoanAlreadyActive         = &Error{Code: 4, Slug: "loan_already_active"}
	ErrLoanNotFound              = &Error{Code: 5, Slug: "loan_not_found"}
	ErrLoanNotActive             = &Error{Code: 6, Slug: "loan_not_active"}
	// ErrRepaymentTooLow is reserved for partial repayment; nothing returns it.
	ErrRepaymentTooLow = &Error{Code: 7, Slug: "repayment_too_low"}
	ErrNotYetDefaulted = &Error{Code: 8, Slug: "not_yet_defaulted"}
	ErrUnauthorized    = &Error{Code: 9, Slug: "unauthorized"}

	ErrNotInitialized = &Error{Code: 100, Slug: "not_initialized"}
	ErrInvalidAmount  = &Error{Code: 101, Slug: "invalid_amount"}
	ErrInvalidRate    = &Error{Code: 102, Slug: "invalid_interest_rate"}
	ErrInvalidParams  = &Error{Code: 103, Slug: "invalid_params"}
	ErrAmountOverflow = &Error{Code: 104, Slug: "amount_overflow"}
)

// Code returns the pool error code carried by err, or 0 when err is not a
// pool error (collaborator and storage failures).
func Code(err error) uint32 {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return 0
}

var errorsByCode = map[uint32]*Error{}

func init() {
	for _, e := range []*Error{
		ErrAlreadyInitialized, ErrInsufficientPoolLiquidity, ErrInsufficientBalance,
		ErrLoanAlreadyActive, ErrLoanNotFound, ErrLoanNotActive, ErrRepaymentTooLow,
		ErrNotYetDefaulted, ErrUnauthorized, ErrNotInitialized, ErrInvalidAmount,
		ErrInvalidRate, ErrInvalidParams, ErrAmountOverflow,
	} {
		errorsByCode[e.Code] = e
	}
}

// ErrorByCode returns the sentinel for a code received from a remote pool.
func ErrorByCode(code uint32) (*Error, bool) {
	e, ok := errorsByCode[code]
	return e, ok
}
