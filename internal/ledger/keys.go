package ledger

import (
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	KeyPoolConfig = "pool/config"
	KeyPoolTotals = "pool/totals"
	KeyNextLoanID = "pool/next_loan_id"
)

func LenderKey(address string) string {
	return "lender/" + HashAddress(address)
}

func LoanKey(loanID uint64) string {
	return "loan/" + strconv.FormatUint(loanID, 10)
}

func ActiveLoanKey(address string) string {
	return "active_loan/" + HashAddress(address)
}

// HashAddress gives account identities a fixed-width, backend-safe key
// component regardless of the address format the asset ledger uses.
func HashAddress(address string) string {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(strings.TrimSpace(address)))
	return hex.EncodeToString(h.Sum(nil))
}

const KeyActivitySeq = "activity/seq"

func ActivityKey(seq uint64) string {
	return "activity/" + strconv.FormatUint(seq, 10)
}

func AccountActivitySeqKey(address string) string {
	return "account_activity/" + HashAddress(address) + "/seq"
}

// AccountActivityKey maps an account's n-th event to its global sequence.
func AccountActivityKey(address string, n uint64) string {
	return "account_activity/" + HashAddress(address) + "/" + strconv.FormatUint(n, 10)
}
