/*
reports.go - Read-only monthly aggregates over one institution's books

PURPOSE:
  Derives the dashboard figures from the raw state: lesson counts per
  status, expected vs realized revenue for a month, the collection rate,
  and the current debtor list. Pure reads; nothing here writes.

RATE ARITHMETIC:
  Money stays in int64 whole units everywhere, but the collection rate is
  a ratio of two sums and integer division would round it uselessly. The
  rate alone is computed with arbitrary-precision decimals and rounded to
  one place.
*/
package tutor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/studio-ledger/ledger"
)

const lessonDateLayout = "2006-01-02"

// MonthlyStats is the dashboard aggregate for one institution and month.
type MonthlyStats struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`

	LessonsTotal     int `json:"lessonsTotal"`
	LessonsCompleted int `json:"lessonsCompleted"`
	LessonsCancelled int `json:"lessonsCancelled"`
	LessonsAbsent    int `json:"lessonsAbsent"`
	LessonsPending   int `json:"lessonsPending"`

	// ExpectedRevenue sums the per-lesson fee over every non-cancelled
	// lesson of the month; RealizedRevenue over the settled ones.
	ExpectedRevenue int64 `json:"expectedRevenue"`
	RealizedRevenue int64 `json:"realizedRevenue"`

	// CollectionRate is realized/expected as a percentage, one decimal
	// place. Zero when nothing was expected.
	CollectionRate decimal.Decimal `json:"collectionRate"`

	CashOnHand       int64            `json:"cashOnHand"`
	TotalReceivables int64            `json:"totalReceivables"`
	Debtors          []ledger.Student `json:"debtors"`
}

// ComputeMonthlyStats aggregates one institution's books for the month
// containing ref. Lessons whose student left the roster are counted but
// contribute no revenue figures.
func ComputeMonthlyStats(inst *ledger.Institution, ref time.Time) MonthlyStats {
	stats := MonthlyStats{
		Year:             ref.Year(),
		Month:            ref.Month(),
		CollectionRate:   decimal.Zero,
		CashOnHand:       inst.Cash,
		TotalReceivables: ledger.TotalReceivables(inst.Students),
		Debtors:          ledger.Debtors(inst.Students),
	}

	fees := make(map[string]int64, len(inst.Students))
	for _, st := range inst.Students {
		fees[st.ID] = st.FeePerLesson
	}

	for _, l := range inst.Lessons {
		day, err := time.Parse(lessonDateLayout, l.Date)
		if err != nil || day.Year() != stats.Year || day.Month() != stats.Month {
			continue
		}
		stats.LessonsTotal++
		fee, onRoster := fees[l.StudentID]

		switch l.Status {
		case ledger.LessonCompleted:
			stats.LessonsCompleted++
			if onRoster {
				stats.ExpectedRevenue += fee
				if l.PaymentStatus == ledger.PaymentPaidCash || l.PaymentStatus == ledger.PaymentDeductedBalance {
					stats.RealizedRevenue += fee
				}
			}
		case ledger.LessonCancelled:
			stats.LessonsCancelled++
		case ledger.LessonAbsent:
			stats.LessonsAbsent++
			if onRoster {
				stats.ExpectedRevenue += fee
			}
		default:
			stats.LessonsPending++
			if onRoster {
				stats.ExpectedRevenue += fee
			}
		}
	}

	if stats.ExpectedRevenue > 0 {
		stats.CollectionRate = decimal.NewFromInt(stats.RealizedRevenue).
			Div(decimal.NewFromInt(stats.ExpectedRevenue)).
			Mul(decimal.NewFromInt(100)).
			Round(1)
	}
	return stats
}

// MonthlyStats loads the institution and aggregates the month containing
// the service clock's current time.
func (s *Service) MonthlyStats(ctx context.Context, instID string) (*MonthlyStats, error) {
	inst, err := s.Store.GetInstitution(ctx, s.owner(), instID)
	if err != nil {
		return nil, err
	}
	stats := ComputeMonthlyStats(inst, s.now())
	return &stats, nil
}
