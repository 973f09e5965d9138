/*
cashbook.go - Institution cash ledger

PURPOSE:
  Cash movements that do not involve a student: manual income ("Gelir") and
  expense ("Gider") entries, plus the reconciliation check that ties cash to
  the transaction history.

CONSERVATION:
  For any sequence of ledger operations since the last reset, the
  institution's cash equals the sum of all transaction amounts. Reconcile
  reports the drift; the engine itself never writes cash and history out of
  lockstep.

SEE ALSO:
  - student.go: Cash movements with a student counterpart
  - safe.go: Cash leaving the institution into the safe
*/
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// EntryKind selects the direction of a manual cashbook entry.
type EntryKind string

const (
	EntryIncome  EntryKind = "income"
	EntryExpense EntryKind = "expense"
)

// =============================================================================
// MANUAL ENTRIES
// =============================================================================

// RecordManualEntry books a manual income or expense. Income adds to cash
// with a positive transaction; expense subtracts with a negative one.
// amount must be positive regardless of kind - the kind carries the sign.
func RecordManualEntry(s State, kind EntryKind, description string, amount int64, now time.Time) (Update, error) {
	if amount <= 0 {
		return Update{}, ErrInvalidAmount
	}

	signed := amount
	txType := TxIncome
	if kind == EntryExpense {
		signed = -amount
		txType = TxExpense
	} else if kind != EntryIncome {
		return Update{}, ErrInvalidAmount
	}

	stamp := NewStamp(now)
	tx := Transaction{
		ID:          uuid.NewString(),
		Type:        txType,
		Description: description,
		Amount:      signed,
		Date:        stamp.Date,
		Time:        stamp.Time,
		Unix:        stamp.Unix,
	}

	return Update{
		Cash:         int64Ptr(s.Cash + signed),
		Transactions: prepend(s.Transactions, tx),
	}, nil
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// Reconcile returns cash minus the sum of all transaction amounts. Zero
// means the books balance; anything else is drift from edits that bypassed
// the ledger (or history that predates it).
func Reconcile(s State) int64 {
	var sum int64
	for _, tx := range s.Transactions {
		sum += tx.Amount
	}
	return s.Cash - sum
}
