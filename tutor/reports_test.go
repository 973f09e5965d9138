package tutor_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/studio-ledger/ledger"
	"github.com/warp/studio-ledger/tutor"
)

func september(day int) string {
	return time.Date(2026, time.September, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

func TestComputeMonthlyStats_CountsAndRevenue(t *testing.T) {
	// GIVEN: A month with settled, unpaid, absent, cancelled and pending lessons
	// WHEN: Aggregating
	// THEN: Counts split per status; cancelled lessons carry no expectation

	inst := &ledger.Institution{
		Name: "Kurumum",
		State: ledger.State{
			Cash: 250,
			Students: []ledger.Student{
				{ID: "a", Name: "Ali", FeePerLesson: 100, Balance: -100},
				{ID: "b", Name: "Banu", FeePerLesson: 80},
			},
			Lessons: []ledger.Lesson{
				{ID: "1", StudentID: "a", Date: september(1), Status: ledger.LessonCompleted, PaymentStatus: ledger.PaymentPaidCash},
				{ID: "2", StudentID: "a", Date: september(8), Status: ledger.LessonCompleted, PaymentStatus: ledger.PaymentUnpaid},
				{ID: "3", StudentID: "b", Date: september(2), Status: ledger.LessonAbsent},
				{ID: "4", StudentID: "b", Date: september(9), Status: ledger.LessonCancelled},
				{ID: "5", StudentID: "b", Date: september(16), Status: ledger.LessonUpcoming},
				{ID: "6", StudentID: "a", Date: "2026-08-31", Status: ledger.LessonCompleted, PaymentStatus: ledger.PaymentPaidCash},
			},
		},
	}

	stats := tutor.ComputeMonthlyStats(inst, time.Date(2026, time.September, 15, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, 5, stats.LessonsTotal, "August lesson is out of range")
	assert.Equal(t, 2, stats.LessonsCompleted)
	assert.Equal(t, 1, stats.LessonsCancelled)
	assert.Equal(t, 1, stats.LessonsAbsent)
	assert.Equal(t, 1, stats.LessonsPending)

	// Expected: 100+100 completed + 80 absent + 80 pending = 360
	// Realized: only the cash-settled 100
	assert.Equal(t, int64(360), stats.ExpectedRevenue)
	assert.Equal(t, int64(100), stats.RealizedRevenue)

	want := decimal.NewFromInt(100).Div(decimal.NewFromInt(360)).Mul(decimal.NewFromInt(100)).Round(1)
	assert.True(t, stats.CollectionRate.Equal(want), "got %s want %s", stats.CollectionRate, want)

	assert.Equal(t, int64(250), stats.CashOnHand)
	assert.Equal(t, int64(100), stats.TotalReceivables)
	require.Len(t, stats.Debtors, 1)
	assert.Equal(t, "a", stats.Debtors[0].ID)
}

func TestComputeMonthlyStats_EmptyMonth(t *testing.T) {
	// GIVEN: No lessons in the month
	// WHEN: Aggregating
	// THEN: The rate is zero, not a division error

	inst := &ledger.Institution{State: ledger.State{}}
	stats := tutor.ComputeMonthlyStats(inst, time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC))

	assert.Zero(t, stats.LessonsTotal)
	assert.True(t, stats.CollectionRate.IsZero())
}

func TestComputeMonthlyStats_OffRosterLessonCountedWithoutRevenue(t *testing.T) {
	// GIVEN: A lesson whose student left the roster
	// WHEN: Aggregating
	// THEN: It counts as a lesson but contributes no revenue figures

	inst := &ledger.Institution{
		State: ledger.State{
			Lessons: []ledger.Lesson{
				{ID: "1", StudentID: "gone", Date: september(1), Status: ledger.LessonCompleted, PaymentStatus: ledger.PaymentPaidCash},
			},
		},
	}
	stats := tutor.ComputeMonthlyStats(inst, time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, 1, stats.LessonsCompleted)
	assert.Zero(t, stats.ExpectedRevenue)
	assert.Zero(t, stats.RealizedRevenue)
}
