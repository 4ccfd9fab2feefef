package pool

import (
	"math"

	"github.com/holiman/uint256"
)

var bpsDenominator = uint256.NewInt(MaxInterestRateBPS)

// InterestOwed is floor(principal * rateBPS / 10000). The product is taken in
// 256 bits so large principals cannot wrap.
func InterestOwed(principal int64, rateBPS uint32) (int64, error) {
	if principal < 0 {
		return 0, ErrInvalidAmount
	}
	if rateBPS > MaxInterestRateBPS {
		return 0, ErrInvalidRate
	}
	out, overflow := new(uint256.Int).MulDivOverflow(
		uint256.NewInt(uint64(principal)),
		uint256.NewInt(uint64(rateBPS)),
		bpsDenominator,
	)
	if overflow || !out.IsUint64() || out.Uint64() > math.MaxInt64 {
		return 0, ErrAmountOverflow
	}
	return int64(out.Uint64()), nil
}

// RewardFor is the on-time repayment reward: a tenth of the principal,
// rounded down.
func RewardFor(principal int64) int64 {
	if principal <= 0 {
		return 0
	}
	return principal / 10
}

func DueTimestamp(nowUnix uint64, durationDays uint32) (uint64, error) {
	span := uint64(durationDays) * secondsPerDay
	if nowUnix > math.MaxUint64-span {
		return 0, ErrAmountOverflow
	}
	return nowUnix + span, nil
}

func addAmounts(a, b int64) (int64, error) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, ErrAmountOverflow
	}
	return a + b, nil
}
