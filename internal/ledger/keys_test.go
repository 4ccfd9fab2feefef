package ledger

import (
	"strings"
	"testing"
)

func TestKeySchema(t *testing.T) {
	if got := LoanKey(42); got != "loan/42" {
		t.Fatalf("LoanKey = %q", got)
	}
	lk := LenderKey("GABC")
	if !strings.HasPrefix(lk, "lender/") || len(lk) != len("lender/")+64 {
		t.Fatalf("LenderKey = %q", lk)
	}
	if LenderKey(" GABC ") != lk {
		t.Fatalf("address whitespace must not change the key")
	}
	if strings.TrimPrefix(ActiveLoanKey("GABC"), "active_loan/") != strings.TrimPrefix(lk, "lender/") {
		t.Fatalf("lender and active loan keys must hash the same address identically")
	}
	if HashAddress("GABC") == HashAddress("GABD") {
		t.Fatalf("distinct addresses collided")
	}
}
