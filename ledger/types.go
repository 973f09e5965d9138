/*
Package ledger provides the core bookkeeping engine for a tutoring studio.

PURPOSE:
  This package contains the domain types and pure operations that keep a
  student's wallet balance, an institution's cash drawer, and the transaction
  history mutually consistent as money moves between three places: student
  wallets, institution cash, and a cross-institution safe.

KEY CONCEPTS IN THIS FILE (types.go):
  - Student: A pupil with a signed balance (credit when positive, debt when
    negative) and a per-lesson fee
  - Transaction: An immutable record of a signed money movement inside one
    institution
  - GlobalTransaction: The same, scoped to the user-level safe
  - Lesson: A scheduled lesson moving through a small status machine
  - Update / SafeUpdate: Partial-update records naming only changed fields

DESIGN PRINCIPLES:
  1. Purity: Every operation takes a snapshot and returns an Update; nothing
     in this package touches a store
  2. Copy-on-write: Input slices are never mutated in place
  3. Immutability: Transactions are appended most-recent-first and never edited
  4. Integer money: Amounts are whole currency units (int64), no fractions

USAGE:
  upd, err := ledger.CreditWallet(state, studentID, 200, time.Now())
  if err != nil { ... }
  err = store.ApplyUpdate(ctx, ownerID, instID, upd)

SEE ALSO:
  - student.go: Wallet loads and debt collection
  - cashbook.go: Manual income/expense entries and reconciliation
  - safe.go: Cross-institution safe transfers
  - lesson.go: Lesson lifecycle and payment settlement
*/
package ledger

// =============================================================================
// STUDENT
// =============================================================================

// Student is a pupil enrolled at one institution.
//
// Balance is signed: positive means prepaid credit available for future
// lessons, negative means debt owed to the tutor. Balance changes only
// through ledger operations (wallet load, settlement, collection).
type Student struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Instrument   string `json:"instrument"`
	FeePerLesson int64  `json:"feePerLesson"`
	Balance      int64  `json:"balance"`
	Phone        string `json:"phone,omitempty"`
	Photo        string `json:"photo,omitempty"`
	AvatarColor  string `json:"avatarColor,omitempty"`
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// Well-known transaction type tags. Type is a free string because the
// original books also tag collections with the student's name; these
// constants cover the tags the engine itself writes.
const (
	TxWalletLoad   = "wallet_load"
	TxCollection   = "collection"
	TxIncome       = "Gelir"
	TxExpense      = "Gider"
	TxSafeTransfer = "Genel Kasa Transfer"
)

// Transaction is an institution-scoped, append-only money movement.
// Amount > 0 means money entering the institution's cash; Amount < 0 means
// money leaving. Records are prepended (most-recent-first) and never mutated.
type Transaction struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	// Unix is the sortable epoch (seconds). The display strings above are
	// never parsed back for ordering.
	Unix int64 `json:"unix"`
}

// GlobalTransactionType tags safe-level movements.
type GlobalTransactionType string

const (
	GlobalTxTransferIn GlobalTransactionType = "transfer_in"
	GlobalTxWithdraw   GlobalTransactionType = "withdraw"
)

// GlobalTransaction is a money movement on the user-level safe.
// InstitutionName is a display label, not a foreign key: withdrawals reuse it
// for the withdrawal reason.
type GlobalTransaction struct {
	ID              string                `json:"id"`
	Type            GlobalTransactionType `json:"type"`
	InstitutionName string                `json:"institutionName"`
	Amount          int64                 `json:"amount"`
	Date            string                `json:"date"`
	Time            string                `json:"time"`
	Unix            int64                 `json:"unix"`
}

// =============================================================================
// LESSON
// =============================================================================

type LessonStatus string

const (
	LessonUpcoming  LessonStatus = "upcoming"
	LessonScheduled LessonStatus = "scheduled"
	LessonStarted   LessonStatus = "started"
	LessonAbsent    LessonStatus = "absent"
	LessonCancelled LessonStatus = "cancelled"
	LessonCompleted LessonStatus = "completed"
)

// IsTerminal reports whether no further transition may leave this status.
func (s LessonStatus) IsTerminal() bool {
	return s == LessonCompleted || s == LessonCancelled || s == LessonAbsent
}

// isPending reports whether the lesson has not yet been acted on.
func (s LessonStatus) isPending() bool {
	return s == LessonUpcoming || s == LessonScheduled
}

type PaymentStatus string

const (
	PaymentUnpaid          PaymentStatus = "unpaid"
	PaymentDeductedBalance PaymentStatus = "deducted_balance"
	PaymentPaidCash        PaymentStatus = "paid_cash"
)

// PaymentMethod selects how a completed lesson is settled.
type PaymentMethod string

const (
	MethodBalance PaymentMethod = "balance" // deduct from prepaid credit
	MethodCash    PaymentMethod = "cash"    // collected now, into the drawer
	MethodDebt    PaymentMethod = "debt"    // recorded as owed
)

// Lesson is one scheduled lesson for one student.
// Date is "2006-01-02", Time is "15:04"; both are owned by the scheduler.
type Lesson struct {
	ID            string        `json:"id"`
	StudentID     string        `json:"studentId"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	Status        LessonStatus  `json:"status"`
	Topic         string        `json:"topic,omitempty"`
	Homework      string        `json:"homework,omitempty"`
	Attendance    string        `json:"attendance,omitempty"`
	PaymentStatus PaymentStatus `json:"paymentStatus,omitempty"`
}

// =============================================================================
// RESOURCE
// =============================================================================

// Resource is a teaching material attached to an institution (book, pdf, link).
type Resource struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
	URL   string `json:"url,omitempty"`
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// State is the in-memory snapshot of one institution's books that every
// ledger operation works against.
type State struct {
	Students     []Student     `json:"students"`
	Lessons      []Lesson      `json:"lessons"`
	Transactions []Transaction `json:"transactions"`
	Cash         int64         `json:"cash"`
}

// Institution is the owning document for one studio/workspace.
type Institution struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Photo string `json:"photo,omitempty"`
	State
	Resources []Resource `json:"resources,omitempty"`
}

// Safe is the user-level cash pool shared across institutions.
type Safe struct {
	Cash         int64               `json:"cash"`
	Transactions []GlobalTransaction `json:"transactions"`
}

// =============================================================================
// PARTIAL UPDATES
// =============================================================================

// Update names the institution fields changed by one logical operation.
// Nil slice / nil pointer means "unchanged". The whole Update is handed to
// the store as ONE partial-update call: the three-way change (students +
// cash + transactions) is never decomposed into separate writes.
type Update struct {
	Students     []Student     `json:"students,omitempty"`
	Lessons      []Lesson      `json:"lessons,omitempty"`
	Transactions []Transaction `json:"transactions,omitempty"`
	Cash         *int64        `json:"cash,omitempty"`
	Name         *string       `json:"name,omitempty"`
	Photo        *string       `json:"photo,omitempty"`
	Resources    []Resource    `json:"resources,omitempty"`
}

// IsZero reports whether the update changes nothing.
func (u Update) IsZero() bool {
	return u.Students == nil && u.Lessons == nil && u.Transactions == nil &&
		u.Cash == nil && u.Name == nil && u.Photo == nil && u.Resources == nil
}

// SafeUpdate names the safe fields changed by one logical operation.
type SafeUpdate struct {
	Cash         *int64              `json:"cash,omitempty"`
	Transactions []GlobalTransaction `json:"transactions,omitempty"`
}

// Apply returns the state with the update folded in. Used by stores and
// tests; the ledger itself only produces updates.
func (s State) Apply(u Update) State {
	out := s
	if u.Students != nil {
		out.Students = u.Students
	}
	if u.Lessons != nil {
		out.Lessons = u.Lessons
	}
	if u.Transactions != nil {
		out.Transactions = u.Transactions
	}
	if u.Cash != nil {
		out.Cash = *u.Cash
	}
	return out
}

// Apply folds a SafeUpdate into the safe snapshot.
func (s Safe) Apply(u SafeUpdate) Safe {
	out := s
	if u.Cash != nil {
		out.Cash = *u.Cash
	}
	if u.Transactions != nil {
		out.Transactions = u.Transactions
	}
	return out
}

// =============================================================================
// HELPERS
// =============================================================================

func int64Ptr(v int64) *int64 { return &v }

// findStudent returns the index of the student or -1.
func findStudent(students []Student, id string) int {
	for i := range students {
		if students[i].ID == id {
			return i
		}
	}
	return -1
}

// findLesson returns the index of the lesson or -1.
func findLesson(lessons []Lesson, id string) int {
	for i := range lessons {
		if lessons[i].ID == id {
			return i
		}
	}
	return -1
}

// cloneStudents makes a copy-on-write duplicate of the slice.
func cloneStudents(students []Student) []Student {
	out := make([]Student, len(students))
	copy(out, students)
	return out
}

func cloneLessons(lessons []Lesson) []Lesson {
	out := make([]Lesson, len(lessons))
	copy(out, lessons)
	return out
}

// prepend puts new transactions in front of the history (most-recent-first).
func prepend(history []Transaction, txs ...Transaction) []Transaction {
	out := make([]Transaction, 0, len(history)+len(txs))
	out = append(out, txs...)
	out = append(out, history...)
	return out
}

func prependGlobal(history []GlobalTransaction, txs ...GlobalTransaction) []GlobalTransaction {
	out := make([]GlobalTransaction, 0, len(history)+len(txs))
	out = append(out, txs...)
	out = append(out, history...)
	return out
}
