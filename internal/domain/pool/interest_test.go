package pool

import (
	"math"
	"testing"
)

func TestInterestOwed(t *testing.T) {
	tests := []struct {
		principal int64
		bps       uint32
		want      int64
	}{
		{20, 500, 1},
		{19, 500, 0},
		{10_000, 1, 1},
		{1_000_000, 10_000, 1_000_000},
		{0, 500, 0},
		{math.MaxInt64, 10_000, math.MaxInt64},
		{math.MaxInt64, 5_000, math.MaxInt64 / 2},
	}
	for _, tc := range tests {
		got, err := InterestOwed(tc.principal, tc.bps)
		if err != nil {
			t.Fatalf("InterestOwed(%d, %d): %v", tc.principal, tc.bps, err)
		}
		if got != tc.want {
			t.Fatalf("InterestOwed(%d, %d) = %d, want %d", tc.principal, tc.bps, got, tc.want)
		}
	}

	if _, err := InterestOwed(10, 10_001); err != ErrInvalidRate {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
	if _, err := InterestOwed(-1, 10); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestRewardAndDue(t *testing.T) {
	if got := RewardFor(29); got != 2 {
		t.Fatalf("RewardFor(29) = %d", got)
	}
	if got := RewardFor(9); got != 0 {
		t.Fatalf("RewardFor(9) = %d", got)
	}
	due, err := DueTimestamp(1_000, 2)
	if err != nil || due != 1_000+2*86_400 {
		t.Fatalf("DueTimestamp = %d, %v", due, err)
	}
	if _, err := DueTimestamp(math.MaxUint64-10, 1); err != ErrAmountOverflow {
		t.Fatalf("expected overflow, got %v", err)
	}
	if _, err := addAmounts(math.MaxInt64, 1); err != ErrAmountOverflow {
		t.Fatalf("expected overflow, got %v", err)
	}
}
