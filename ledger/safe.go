/*
safe.go - Global safe ledger

PURPOSE:
  The safe is a user-level cash pool shared across institutions. Money
  enters via transfers from an institution's drawer and leaves via
  withdrawals (paid out to the owner, gone from the system).

THE ZERO-SUM INVARIANT:
  A transfer moves the institution and the safe in equal and opposite
  steps: institution cash -amount with a negative transaction, safe cash
  +amount with a positive transfer_in record. Summing both deltas is always
  zero. This pairing is created atomically here - callers persist the two
  updates as one logical operation.

WITHDRAWALS:
  Withdrawing touches only the safe. The per-institution books stay as they
  are; the money has left the system entirely.

SEE ALSO:
  - cashbook.go: The institution-side ledger
  - tutor/service.go: Persists the paired updates
*/
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// SafeResetLabel tags the withdraw record produced by ResetSafe.
const SafeResetLabel = "Kasa Sıfırlama"

// =============================================================================
// TRANSFERS IN
// =============================================================================

// TransferToSafe moves amount from the institution's cash drawer into the
// safe. Rejected unless 0 < amount <= institution cash; on rejection
// neither ledger changes.
func TransferToSafe(s State, safe Safe, amount int64, institutionName string, now time.Time) (Update, SafeUpdate, error) {
	if amount <= 0 {
		return Update{}, SafeUpdate{}, ErrInvalidAmount
	}
	if amount > s.Cash {
		return Update{}, SafeUpdate{}, &InsufficientFundsError{
			Op:        "transfer",
			Available: s.Cash,
			Requested: amount,
			sentinel:  ErrInsufficientCash,
		}
	}

	stamp := NewStamp(now)

	instTx := Transaction{
		ID:          uuid.NewString(),
		Type:        TxSafeTransfer,
		Description: "Genel kasaya aktarım",
		Amount:      -amount,
		Date:        stamp.Date,
		Time:        stamp.Time,
		Unix:        stamp.Unix,
	}
	safeTx := GlobalTransaction{
		ID:              uuid.NewString(),
		Type:            GlobalTxTransferIn,
		InstitutionName: institutionName,
		Amount:          amount,
		Date:            stamp.Date,
		Time:            stamp.Time,
		Unix:            stamp.Unix,
	}

	instUpd := Update{
		Cash:         int64Ptr(s.Cash - amount),
		Transactions: prepend(s.Transactions, instTx),
	}
	safeUpd := SafeUpdate{
		Cash:         int64Ptr(safe.Cash + amount),
		Transactions: prependGlobal(safe.Transactions, safeTx),
	}
	return instUpd, safeUpd, nil
}

// =============================================================================
// WITHDRAWALS
// =============================================================================

// WithdrawFromSafe takes amount out of the safe. label becomes the record's
// display name (e.g. "Para Çekme"). Rejected unless 0 < amount <= safe cash.
func WithdrawFromSafe(safe Safe, amount int64, label string, now time.Time) (SafeUpdate, error) {
	if amount <= 0 {
		return SafeUpdate{}, ErrInvalidAmount
	}
	if amount > safe.Cash {
		return SafeUpdate{}, &InsufficientFundsError{
			Op:        "withdraw",
			Available: safe.Cash,
			Requested: amount,
			sentinel:  ErrInsufficientSafe,
		}
	}

	stamp := NewStamp(now)
	tx := GlobalTransaction{
		ID:              uuid.NewString(),
		Type:            GlobalTxWithdraw,
		InstitutionName: label,
		Amount:          -amount,
		Date:            stamp.Date,
		Time:            stamp.Time,
		Unix:            stamp.Unix,
	}

	return SafeUpdate{
		Cash:         int64Ptr(safe.Cash - amount),
		Transactions: prependGlobal(safe.Transactions, tx),
	}, nil
}

// ResetSafe withdraws the entire safe balance in one step. A safe at or
// below zero is left untouched (ErrSafeEmpty, no transaction written).
func ResetSafe(safe Safe, now time.Time) (SafeUpdate, error) {
	if safe.Cash <= 0 {
		return SafeUpdate{}, ErrSafeEmpty
	}
	return WithdrawFromSafe(safe, safe.Cash, SafeResetLabel, now)
}

// =============================================================================
// DERIVED READS
// =============================================================================

// LifetimeCollected computes the all-time total that ever entered the safe:
// the sum of positive transaction amounts plus a legacy balance covering
// cash that predates transaction history. Recomputed on every read, never
// stored.
//
// Legacy balance = max(0, cash - net of all transactions). This is a
// compatibility shim for safes opened before the history existed.
func LifetimeCollected(safe Safe) int64 {
	var positive, net int64
	for _, tx := range safe.Transactions {
		net += tx.Amount
		if tx.Amount > 0 {
			positive += tx.Amount
		}
	}
	legacy := safe.Cash - net
	if legacy < 0 {
		legacy = 0
	}
	return positive + legacy
}
