/*
student.go - Student balance ledger

PURPOSE:
  Operations that move money between a student's wallet and the
  institution's cash drawer: prepaid wallet loads, debt collection (one
  student or everyone at once), and partial payments against a debt.

THE THREE-WAY INVARIANT:
  A wallet load or collection touches three fields at once: the student's
  balance, the institution's cash, and the transaction history. Each
  operation returns all three in ONE Update so the store can write them as
  one partial-update call. Never split them.

SIGN CONVENTIONS:
  - Wallet load:      balance += amount, cash += amount, tx amount > 0
  - Debt collection:  balance -> 0,      cash += abs(old balance), tx > 0
  - Collection never over- or under-collects: it zeroes exactly the debt.

SEE ALSO:
  - lesson.go: Settlement, the other path that moves a balance
  - cashbook.go: Manual entries that touch cash without a student
*/
package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// WALLET LOADS
// =============================================================================

// CreditWallet adds prepaid credit to a student's wallet. The cash drawer
// and history move in lockstep: the tutor physically received the money.
// amount must be positive (run user input through ParseAmount first).
func CreditWallet(s State, studentID string, amount int64, now time.Time) (Update, error) {
	if amount <= 0 {
		return Update{}, ErrInvalidAmount
	}
	i := findStudent(s.Students, studentID)
	if i < 0 {
		return Update{}, ErrStudentNotFound
	}

	students := cloneStudents(s.Students)
	students[i].Balance += amount

	stamp := NewStamp(now)
	tx := Transaction{
		ID:          uuid.NewString(),
		Type:        TxWalletLoad,
		Description: fmt.Sprintf("Cüzdan Yükleme: %s", students[i].Name),
		Amount:      amount,
		Date:        stamp.Date,
		Time:        stamp.Time,
		Unix:        stamp.Unix,
	}

	return Update{
		Students:     students,
		Cash:         int64Ptr(s.Cash + amount),
		Transactions: prepend(s.Transactions, tx),
	}, nil
}

// =============================================================================
// DEBT COLLECTION
// =============================================================================

// CollectDebt zeroes one student's debt and moves it into cash.
// Collection is exact: the student ends at balance 0, never above or below,
// and exactly one transaction of abs(old balance) is recorded.
func CollectDebt(s State, studentID string, now time.Time) (Update, int64, error) {
	i := findStudent(s.Students, studentID)
	if i < 0 {
		return Update{}, 0, ErrStudentNotFound
	}
	if s.Students[i].Balance >= 0 {
		return Update{}, 0, ErrNoOutstandingDebt
	}

	owed := -s.Students[i].Balance
	students := cloneStudents(s.Students)
	students[i].Balance = 0

	stamp := NewStamp(now)
	tx := Transaction{
		ID:          uuid.NewString(),
		Type:        students[i].Name,
		Description: fmt.Sprintf("Borç Tahsilatı: %s", students[i].Name),
		Amount:      owed,
		Date:        stamp.Date,
		Time:        stamp.Time,
		Unix:        stamp.Unix,
	}

	return Update{
		Students:     students,
		Cash:         int64Ptr(s.Cash + owed),
		Transactions: prepend(s.Transactions, tx),
	}, owed, nil
}

// CollectAllDebts zeroes every negative balance and moves the sum into cash,
// one transaction per affected student. With no debtors it returns
// ErrNothingToCollect and changes nothing: re-running collect-all is safe
// and never creates zero-amount transactions.
func CollectAllDebts(s State, now time.Time) (Update, int64, error) {
	var total int64
	for _, st := range s.Students {
		if st.Balance < 0 {
			total += -st.Balance
		}
	}
	if total == 0 {
		return Update{}, 0, ErrNothingToCollect
	}

	stamp := NewStamp(now)
	students := cloneStudents(s.Students)
	var txs []Transaction
	for i := range students {
		if students[i].Balance >= 0 {
			continue
		}
		owed := -students[i].Balance
		students[i].Balance = 0
		txs = append(txs, Transaction{
			ID:          uuid.NewString(),
			Type:        students[i].Name,
			Description: fmt.Sprintf("Borç Tahsilatı: %s", students[i].Name),
			Amount:      owed,
			Date:        stamp.Date,
			Time:        stamp.Time,
			Unix:        stamp.Unix,
		})
	}

	return Update{
		Students:     students,
		Cash:         int64Ptr(s.Cash + total),
		Transactions: prepend(s.Transactions, txs...),
	}, total, nil
}

// CollectPayment records a partial payment against a student's debt.
// The balance moves up by amount (it may cross zero into credit; the books
// treat overpayment as prepaid credit, matching the payment sheet's
// per-lesson buttons). label describes the payment, e.g. "1 Ders Ücreti".
func CollectPayment(s State, studentID string, amount int64, label string, now time.Time) (Update, error) {
	if amount <= 0 {
		return Update{}, ErrInvalidAmount
	}
	i := findStudent(s.Students, studentID)
	if i < 0 {
		return Update{}, ErrStudentNotFound
	}

	students := cloneStudents(s.Students)
	students[i].Balance += amount

	stamp := NewStamp(now)
	tx := Transaction{
		ID:          uuid.NewString(),
		Type:        students[i].Name,
		Description: label,
		Amount:      amount,
		Date:        stamp.Date,
		Time:        stamp.Time,
		Unix:        stamp.Unix,
	}

	return Update{
		Students:     students,
		Cash:         int64Ptr(s.Cash + amount),
		Transactions: prepend(s.Transactions, tx),
	}, nil
}

// =============================================================================
// READ-ONLY AGGREGATES
// =============================================================================

// TotalReceivables sums the outstanding debt across all students.
func TotalReceivables(students []Student) int64 {
	var total int64
	for _, st := range students {
		if st.Balance < 0 {
			total += -st.Balance
		}
	}
	return total
}

// Debtors returns the students with negative balance, deepest debt first.
func Debtors(students []Student) []Student {
	var out []Student
	for _, st := range students {
		if st.Balance < 0 {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Balance < out[j].Balance })
	return out
}
