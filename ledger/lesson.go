/*
lesson.go - Lesson lifecycle and payment settlement

PURPOSE:
  Scheduling (one-off or weekly recurring) and the status machine every
  lesson walks:

    upcoming/scheduled --> started --> completed
            |                |
            +--> cancelled   (terminal)
            +--> absent      (terminal)

  completed, cancelled and absent are terminal: no operation transitions
  out of them.

SINGLE-FIRE SETTLEMENT:
  started -> completed is the only transition that moves money, and it
  fires exactly once per lesson. Completing an already-completed lesson is
  rejected before any state change - reapplying would double-charge.

RECURRENCE:
  Weekly recurrence is capped at 52 occurrences. The cap is an explicit
  contract: ScheduleLessons returns the lessons actually created so callers
  can see truncation instead of guessing.

SEE ALSO:
  - student.go: The balance ledger settlement writes through
*/
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxRecurrence caps how many occurrences one scheduling request creates.
const MaxRecurrence = 52

const lessonDateLayout = "2006-01-02"

// ScheduleRequest describes one scheduling action.
type ScheduleRequest struct {
	StudentID string
	Date      string // first occurrence, "2006-01-02"
	Time      string // "15:04"
	Recurring bool
	Until     string // last occurrence date (inclusive) when Recurring
}

// =============================================================================
// SCHEDULING
// =============================================================================

// ScheduleLessons creates one lesson, or a weekly series through
// req.Until when req.Recurring. The series is truncated at MaxRecurrence
// occurrences; the returned slice is exactly what was created.
func ScheduleLessons(s State, req ScheduleRequest) (Update, []Lesson, error) {
	if findStudent(s.Students, req.StudentID) < 0 {
		return Update{}, nil, ErrStudentNotFound
	}
	start, err := time.Parse(lessonDateLayout, req.Date)
	if err != nil {
		return Update{}, nil, fmt.Errorf("invalid lesson date %q: %w", req.Date, err)
	}
	end := start
	if req.Recurring {
		end, err = time.Parse(lessonDateLayout, req.Until)
		if err != nil {
			return Update{}, nil, fmt.Errorf("invalid recurrence end %q: %w", req.Until, err)
		}
	}

	var created []Lesson
	for day := start; !day.After(end) && len(created) < MaxRecurrence; day = day.AddDate(0, 0, 7) {
		created = append(created, Lesson{
			ID:        uuid.NewString(),
			StudentID: req.StudentID,
			Date:      day.Format(lessonDateLayout),
			Time:      req.Time,
			Status:    LessonUpcoming,
		})
		if !req.Recurring {
			break
		}
	}
	if len(created) == 0 {
		return Update{}, nil, fmt.Errorf("recurrence end %q precedes start %q", req.Until, req.Date)
	}

	lessons := make([]Lesson, 0, len(s.Lessons)+len(created))
	lessons = append(lessons, s.Lessons...)
	lessons = append(lessons, created...)
	return Update{Lessons: lessons}, created, nil
}

// MarkDueLessons promotes upcoming lessons whose date has arrived to
// scheduled. Returns a zero Update and count 0 when nothing is due; only
// pending lessons move, settled history is never touched.
func MarkDueLessons(s State, today time.Time) (Update, int) {
	cutoff := today.Format(lessonDateLayout)
	var lessons []Lesson
	due := 0
	for i, l := range s.Lessons {
		if l.Status != LessonUpcoming || l.Date > cutoff {
			continue
		}
		if lessons == nil {
			lessons = cloneLessons(s.Lessons)
		}
		lessons[i].Status = LessonScheduled
		due++
	}
	if due == 0 {
		return Update{}, 0
	}
	return Update{Lessons: lessons}, due
}

// =============================================================================
// STATUS TRANSITIONS
// =============================================================================

// StartLesson confirms attendance and moves a pending lesson to started.
func StartLesson(s State, lessonID string) (Update, error) {
	return transition(s, lessonID, LessonStarted, "present")
}

// CancelLesson moves a pending lesson to cancelled. No settlement happens.
func CancelLesson(s State, lessonID string) (Update, error) {
	return transition(s, lessonID, LessonCancelled, "cancelled")
}

// MarkAbsent moves a pending lesson to absent. No settlement happens.
func MarkAbsent(s State, lessonID string) (Update, error) {
	return transition(s, lessonID, LessonAbsent, "absent")
}

func transition(s State, lessonID string, to LessonStatus, attendance string) (Update, error) {
	i := findLesson(s.Lessons, lessonID)
	if i < 0 {
		return Update{}, ErrLessonNotFound
	}
	from := s.Lessons[i].Status
	if from.IsTerminal() {
		return Update{}, &LessonStateError{LessonID: lessonID, From: from, To: to, sentinel: ErrLessonFinalized}
	}
	if !from.isPending() {
		// started can only go to completed, which has its own path
		return Update{}, &LessonStateError{LessonID: lessonID, From: from, To: to, sentinel: ErrLessonFinalized}
	}

	lessons := cloneLessons(s.Lessons)
	lessons[i].Status = to
	lessons[i].Attendance = attendance
	return Update{Lessons: lessons}, nil
}

// =============================================================================
// SETTLEMENT
// =============================================================================

// CompleteLesson settles a started lesson with the chosen payment method
// and stamps topic/homework. The balance/cash delta is applied exactly
// once: an already-completed lesson is rejected with ErrLessonAlreadySettled
// and nothing changes.
//
// Methods:
//   - balance: requires balance >= fee; balance -= fee, no cash movement
//     (the money entered the system at wallet-load time)
//   - cash:    balance unchanged; cash += fee with a collection transaction
//   - debt:    balance -= fee (may go negative); fee is owed, not collected
func CompleteLesson(s State, lessonID, topic, homework string, method PaymentMethod, now time.Time) (Update, error) {
	li := findLesson(s.Lessons, lessonID)
	if li < 0 {
		return Update{}, ErrLessonNotFound
	}
	lesson := s.Lessons[li]
	if lesson.Status == LessonCompleted {
		return Update{}, ErrLessonAlreadySettled
	}
	if lesson.Status.IsTerminal() {
		return Update{}, &LessonStateError{LessonID: lessonID, From: lesson.Status, To: LessonCompleted, sentinel: ErrLessonFinalized}
	}
	if lesson.Status != LessonStarted {
		return Update{}, ErrLessonNotStarted
	}

	si := findStudent(s.Students, lesson.StudentID)
	if si < 0 {
		return Update{}, ErrStudentNotFound
	}
	student := s.Students[si]
	fee := student.FeePerLesson

	upd := Update{}
	var pStatus PaymentStatus

	switch method {
	case MethodBalance:
		if student.Balance < fee {
			return Update{}, &InsufficientFundsError{
				Op:        "settle",
				Available: student.Balance,
				Requested: fee,
				sentinel:  ErrInsufficientBalance,
			}
		}
		students := cloneStudents(s.Students)
		students[si].Balance -= fee
		upd.Students = students
		pStatus = PaymentDeductedBalance

	case MethodCash:
		// A zero fee settles without a transaction: zero-amount records
		// never enter the book.
		if fee > 0 {
			stamp := NewStamp(now)
			tx := Transaction{
				ID:          uuid.NewString(),
				Type:        TxCollection,
				Description: fmt.Sprintf("Ders Ücreti: %s", student.Name),
				Amount:      fee,
				Date:        stamp.Date,
				Time:        stamp.Time,
				Unix:        stamp.Unix,
			}
			upd.Cash = int64Ptr(s.Cash + fee)
			upd.Transactions = prepend(s.Transactions, tx)
		}
		pStatus = PaymentPaidCash

	case MethodDebt:
		students := cloneStudents(s.Students)
		students[si].Balance -= fee
		upd.Students = students
		pStatus = PaymentUnpaid

	default:
		return Update{}, ErrUnknownPaymentMethod
	}

	lessons := cloneLessons(s.Lessons)
	lessons[li].Status = LessonCompleted
	lessons[li].Topic = topic
	lessons[li].Homework = homework
	lessons[li].PaymentStatus = pStatus
	upd.Lessons = lessons

	return upd, nil
}
