package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/studio-ledger/ledger"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func lessonState(balance int64, status ledger.LessonStatus) ledger.State {
	return ledger.State{
		Students: []ledger.Student{
			{ID: "st-1", Name: "Ayşe", FeePerLesson: 100, Balance: balance},
		},
		Lessons: []ledger.Lesson{
			{ID: "ls-1", StudentID: "st-1", Date: "2026-09-01", Time: "10:00", Status: status},
		},
	}
}

// =============================================================================
// SCHEDULING
// =============================================================================

func TestScheduleLessons_SingleLesson(t *testing.T) {
	s := ledger.State{Students: []ledger.Student{{ID: "st-1", Name: "Ayşe"}}}

	upd, created, err := ledger.ScheduleLessons(s, ledger.ScheduleRequest{
		StudentID: "st-1", Date: "2026-09-07", Time: "14:00",
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, ledger.LessonUpcoming, created[0].Status)
	assert.Equal(t, "2026-09-07", created[0].Date)
	assert.Len(t, s.Apply(upd).Lessons, 1)
}

func TestScheduleLessons_WeeklyRecurrence(t *testing.T) {
	// GIVEN: A four-week recurring request
	// WHEN: Scheduling
	// THEN: One lesson per week, inclusive of the end date

	s := ledger.State{Students: []ledger.Student{{ID: "st-1", Name: "Ayşe"}}}

	_, created, err := ledger.ScheduleLessons(s, ledger.ScheduleRequest{
		StudentID: "st-1", Date: "2026-09-07", Time: "14:00",
		Recurring: true, Until: "2026-09-28",
	})
	require.NoError(t, err)
	require.Len(t, created, 4)
	assert.Equal(t, "2026-09-07", created[0].Date)
	assert.Equal(t, "2026-09-14", created[1].Date)
	assert.Equal(t, "2026-09-28", created[3].Date)
}

func TestScheduleLessons_RecurrenceCapTruncates(t *testing.T) {
	// GIVEN: A recurring request spanning two years
	// WHEN: Scheduling
	// THEN: The series is cut at the cap and the return shows the truncation

	s := ledger.State{Students: []ledger.Student{{ID: "st-1", Name: "Ayşe"}}}

	_, created, err := ledger.ScheduleLessons(s, ledger.ScheduleRequest{
		StudentID: "st-1", Date: "2026-01-05", Time: "14:00",
		Recurring: true, Until: "2028-01-05",
	})
	require.NoError(t, err)
	assert.Len(t, created, ledger.MaxRecurrence)
}

func TestScheduleLessons_Rejections(t *testing.T) {
	s := ledger.State{Students: []ledger.Student{{ID: "st-1", Name: "Ayşe"}}}

	_, _, err := ledger.ScheduleLessons(s, ledger.ScheduleRequest{StudentID: "nope", Date: "2026-09-07"})
	assert.ErrorIs(t, err, ledger.ErrStudentNotFound)

	_, _, err = ledger.ScheduleLessons(s, ledger.ScheduleRequest{StudentID: "st-1", Date: "07.09.2026"})
	assert.Error(t, err, "malformed dates are rejected")

	_, _, err = ledger.ScheduleLessons(s, ledger.ScheduleRequest{
		StudentID: "st-1", Date: "2026-09-07", Recurring: true, Until: "2026-09-01",
	})
	assert.Error(t, err, "recurrence end before start creates nothing")
}

func TestMarkDueLessons_PromotesOnlyDueUpcoming(t *testing.T) {
	// GIVEN: Upcoming lessons on both sides of today plus settled history
	// WHEN: Marking due lessons
	// THEN: Only past-or-today upcoming lessons move to scheduled

	s := ledger.State{Lessons: []ledger.Lesson{
		{ID: "past", Date: "2026-08-30", Status: ledger.LessonUpcoming},
		{ID: "today", Date: "2026-09-01", Status: ledger.LessonUpcoming},
		{ID: "future", Date: "2026-09-08", Status: ledger.LessonUpcoming},
		{ID: "done", Date: "2026-08-01", Status: ledger.LessonCompleted},
	}}

	upd, due := ledger.MarkDueLessons(s, testNow)
	assert.Equal(t, 2, due)
	after := s.Apply(upd)
	assert.Equal(t, ledger.LessonScheduled, after.Lessons[0].Status)
	assert.Equal(t, ledger.LessonScheduled, after.Lessons[1].Status)
	assert.Equal(t, ledger.LessonUpcoming, after.Lessons[2].Status)
	assert.Equal(t, ledger.LessonCompleted, after.Lessons[3].Status)

	upd, due = ledger.MarkDueLessons(after, testNow)
	assert.Zero(t, due, "second pass finds nothing due")
	assert.True(t, upd.IsZero())
}

// =============================================================================
// STATUS MACHINE
// =============================================================================

func TestLessonTransitions_PendingPaths(t *testing.T) {
	// GIVEN: An upcoming lesson
	// WHEN: Starting, cancelling or marking absent
	// THEN: Status and attendance land together

	cases := []struct {
		name       string
		op         func(ledger.State, string) (ledger.Update, error)
		status     ledger.LessonStatus
		attendance string
	}{
		{"start", ledger.StartLesson, ledger.LessonStarted, "present"},
		{"cancel", ledger.CancelLesson, ledger.LessonCancelled, "cancelled"},
		{"absent", ledger.MarkAbsent, ledger.LessonAbsent, "absent"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := lessonState(0, ledger.LessonUpcoming)
			upd, err := tc.op(s, "ls-1")
			require.NoError(t, err)
			after := s.Apply(upd)
			assert.Equal(t, tc.status, after.Lessons[0].Status)
			assert.Equal(t, tc.attendance, after.Lessons[0].Attendance)
		})
	}
}

func TestLessonTransitions_TerminalIsFinal(t *testing.T) {
	// GIVEN: Lessons in each terminal status
	// WHEN: Any transition is attempted
	// THEN: Rejected as a conflict with the offending pair named

	for _, status := range []ledger.LessonStatus{ledger.LessonCancelled, ledger.LessonAbsent, ledger.LessonCompleted} {
		s := lessonState(0, status)
		_, err := ledger.StartLesson(s, "ls-1")
		assert.ErrorIs(t, err, ledger.ErrLessonFinalized, "from %s", status)
		var stateErr *ledger.LessonStateError
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, status, stateErr.From)
		assert.True(t, ledger.IsConflict(err))
	}
}

func TestLessonTransitions_StartedCannotBeCancelled(t *testing.T) {
	s := lessonState(0, ledger.LessonStarted)
	_, err := ledger.CancelLesson(s, "ls-1")
	assert.ErrorIs(t, err, ledger.ErrLessonFinalized, "started only moves forward to completed")
}

// =============================================================================
// SETTLEMENT
// =============================================================================

func TestCompleteLesson_BalanceMethod(t *testing.T) {
	// GIVEN: A started lesson, fee 100, balance 250
	// WHEN: Settling from balance
	// THEN: Balance drops to 150; cash and history stay untouched

	s := lessonState(250, ledger.LessonStarted)
	s.Cash = 40

	upd, err := ledger.CompleteLesson(s, "ls-1", "Gamlar", "Etüt 3", ledger.MethodBalance, testNow)
	require.NoError(t, err)

	after := s.Apply(upd)
	assert.Equal(t, int64(150), after.Students[0].Balance)
	assert.Equal(t, int64(40), after.Cash, "prepaid settlement moves no cash")
	assert.Empty(t, after.Transactions)
	assert.Equal(t, ledger.LessonCompleted, after.Lessons[0].Status)
	assert.Equal(t, ledger.PaymentDeductedBalance, after.Lessons[0].PaymentStatus)
	assert.Equal(t, "Gamlar", after.Lessons[0].Topic)
	assert.Equal(t, "Etüt 3", after.Lessons[0].Homework)
}

func TestCompleteLesson_BalanceMethod_InsufficientCredit(t *testing.T) {
	// GIVEN: Balance 60 against fee 100
	// WHEN: Settling from balance
	// THEN: Rejected with the shortfall; the lesson stays started

	s := lessonState(60, ledger.LessonStarted)

	_, err := ledger.CompleteLesson(s, "ls-1", "", "", ledger.MethodBalance, testNow)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	var fundsErr *ledger.InsufficientFundsError
	require.ErrorAs(t, err, &fundsErr)
	assert.Equal(t, int64(60), fundsErr.Available)
	assert.Equal(t, int64(100), fundsErr.Requested)
	assert.Equal(t, ledger.LessonStarted, s.Lessons[0].Status, "rejection precedes any state change")
}

func TestCompleteLesson_CashMethod(t *testing.T) {
	// GIVEN: A started lesson, fee 100
	// WHEN: Settling in cash
	// THEN: Balance unchanged, cash +100 with a collection transaction

	s := lessonState(30, ledger.LessonStarted)

	upd, err := ledger.CompleteLesson(s, "ls-1", "", "", ledger.MethodCash, testNow)
	require.NoError(t, err)

	after := s.Apply(upd)
	assert.Equal(t, int64(30), after.Students[0].Balance)
	assert.Equal(t, int64(100), after.Cash)
	require.Len(t, after.Transactions, 1)
	assert.Equal(t, ledger.TxCollection, after.Transactions[0].Type)
	assert.Equal(t, "Ders Ücreti: Ayşe", after.Transactions[0].Description)
	assert.Equal(t, ledger.PaymentPaidCash, after.Lessons[0].PaymentStatus)
}

func TestCompleteLesson_CashMethod_ZeroFeeBooksNothing(t *testing.T) {
	// GIVEN: A started lesson for a student with a zero fee
	// WHEN: Settling in cash
	// THEN: The lesson completes as paid_cash with no transaction and no
	//       cash movement

	s := lessonState(0, ledger.LessonStarted)
	s.Students[0].FeePerLesson = 0

	upd, err := ledger.CompleteLesson(s, "ls-1", "", "", ledger.MethodCash, testNow)
	require.NoError(t, err)

	after := s.Apply(upd)
	assert.Equal(t, int64(0), after.Cash)
	assert.Empty(t, after.Transactions, "zero-amount records never enter the book")
	assert.Equal(t, ledger.LessonCompleted, after.Lessons[0].Status)
	assert.Equal(t, ledger.PaymentPaidCash, after.Lessons[0].PaymentStatus)
}

func TestCompleteLesson_DebtMethod(t *testing.T) {
	// GIVEN: A started lesson, balance 0
	// WHEN: Settling as debt
	// THEN: Balance goes negative by the fee, no cash movement

	s := lessonState(0, ledger.LessonStarted)

	upd, err := ledger.CompleteLesson(s, "ls-1", "", "", ledger.MethodDebt, testNow)
	require.NoError(t, err)

	after := s.Apply(upd)
	assert.Equal(t, int64(-100), after.Students[0].Balance)
	assert.Zero(t, after.Cash)
	assert.Empty(t, after.Transactions)
	assert.Equal(t, ledger.PaymentUnpaid, after.Lessons[0].PaymentStatus)
}

func TestCompleteLesson_SingleFire(t *testing.T) {
	// GIVEN: A lesson settled once
	// WHEN: Completing it again
	// THEN: ErrLessonAlreadySettled before any state change - no double charge

	s := lessonState(0, ledger.LessonStarted)
	upd, err := ledger.CompleteLesson(s, "ls-1", "", "", ledger.MethodDebt, testNow)
	require.NoError(t, err)
	s = s.Apply(upd)
	require.Equal(t, int64(-100), s.Students[0].Balance)

	_, err = ledger.CompleteLesson(s, "ls-1", "", "", ledger.MethodDebt, testNow)
	assert.ErrorIs(t, err, ledger.ErrLessonAlreadySettled)
	assert.True(t, ledger.IsConflict(err))
	assert.Equal(t, int64(-100), s.Students[0].Balance, "balance moved exactly once")
}

func TestCompleteLesson_RequiresStarted(t *testing.T) {
	// GIVEN: A lesson that was never started
	// WHEN: Completing it
	// THEN: ErrLessonNotStarted; attendance must be confirmed first

	for _, status := range []ledger.LessonStatus{ledger.LessonUpcoming, ledger.LessonScheduled} {
		s := lessonState(500, status)
		_, err := ledger.CompleteLesson(s, "ls-1", "", "", ledger.MethodBalance, testNow)
		assert.ErrorIs(t, err, ledger.ErrLessonNotStarted, "from %s", status)
	}

	s := lessonState(0, ledger.LessonCancelled)
	_, err := ledger.CompleteLesson(s, "ls-1", "", "", ledger.MethodCash, testNow)
	assert.ErrorIs(t, err, ledger.ErrLessonFinalized)
}

func TestCompleteLesson_UnknownMethod(t *testing.T) {
	s := lessonState(0, ledger.LessonStarted)
	_, err := ledger.CompleteLesson(s, "ls-1", "", "", ledger.PaymentMethod("iban"), testNow)
	assert.ErrorIs(t, err, ledger.ErrUnknownPaymentMethod)
	assert.True(t, ledger.IsValidation(err))
}
