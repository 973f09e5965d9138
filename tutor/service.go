/*
Package tutor wires the pure ledger to a store behind a single service.

PURPOSE:
  The ledger package computes updates; this package owns the read-op-write
  cycle around it. Every mutating method follows the same confirm-then-
  reflect shape:

    1. Read a fresh snapshot from the store
    2. Run the pure ledger operation on it
    3. Hand the resulting Update to the store as ONE call
    4. Re-read and return the confirmed document

  Nothing is reflected back to the caller until the store accepts the
  write, so a persistence failure leaves the books exactly as they were.

BOOTSTRAP:
  A brand-new user gets a default institution ("Kurumum") on first read so
  the rest of the system never deals with an empty workspace.

SEE ALSO:
  - ledger: The pure operations this service drives
  - api: The HTTP layer sitting on top of this service
*/
package tutor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/warp/studio-ledger/ledger"
)

// DefaultInstitutionName is given to the institution created for a user
// who has none yet.
const DefaultInstitutionName = "Kurumum"

// Clock abstracts time.Now so tests can pin timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// =============================================================================
// SERVICE
// =============================================================================

// Service is the application-level facade over the ledger and its store.
type Service struct {
	Store    ledger.Store
	Identity ledger.Identity
	Clock    Clock
}

// NewService builds a Service with the system clock.
func NewService(store ledger.Store, identity ledger.Identity) *Service {
	return &Service{Store: store, Identity: identity, Clock: systemClock{}}
}

func (s *Service) owner() string { return s.Identity.CurrentUserID() }

func (s *Service) now() time.Time { return s.Clock.Now() }

// apply writes an update and returns the confirmed document. A zero update
// short-circuits to a plain read.
func (s *Service) apply(ctx context.Context, instID string, u ledger.Update) (*ledger.Institution, error) {
	if !u.IsZero() {
		if err := s.Store.ApplyUpdate(ctx, s.owner(), instID, u); err != nil {
			return nil, fmt.Errorf("apply institution update: %w", err)
		}
	}
	return s.Store.GetInstitution(ctx, s.owner(), instID)
}

// =============================================================================
// INSTITUTIONS
// =============================================================================

// Institutions lists the owner's institutions, creating the default one on
// first contact.
func (s *Service) Institutions(ctx context.Context) ([]ledger.Institution, error) {
	insts, err := s.Store.Institutions(ctx, s.owner())
	if err != nil {
		return nil, err
	}
	if len(insts) > 0 {
		return insts, nil
	}
	def := ledger.Institution{ID: uuid.NewString(), Name: DefaultInstitutionName}
	if err := s.Store.CreateInstitution(ctx, s.owner(), def); err != nil {
		return nil, fmt.Errorf("bootstrap default institution: %w", err)
	}
	return s.Store.Institutions(ctx, s.owner())
}

// GetInstitution returns one institution or ledger.ErrInstitutionNotFound.
func (s *Service) GetInstitution(ctx context.Context, instID string) (*ledger.Institution, error) {
	return s.Store.GetInstitution(ctx, s.owner(), instID)
}

// CreateInstitution adds a named institution with empty books.
func (s *Service) CreateInstitution(ctx context.Context, name, photo string) (*ledger.Institution, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: institution name is required", ledger.ErrInvalidInput)
	}
	inst := ledger.Institution{ID: uuid.NewString(), Name: name, Photo: photo}
	if err := s.Store.CreateInstitution(ctx, s.owner(), inst); err != nil {
		return nil, err
	}
	return s.Store.GetInstitution(ctx, s.owner(), inst.ID)
}

// UpdateInstitutionProfile changes display fields only; the books are
// untouched. Nil pointers mean "leave as is".
func (s *Service) UpdateInstitutionProfile(ctx context.Context, instID string, name, photo *string) (*ledger.Institution, error) {
	if name != nil && strings.TrimSpace(*name) == "" {
		return nil, fmt.Errorf("%w: institution name is required", ledger.ErrInvalidInput)
	}
	return s.apply(ctx, instID, ledger.Update{Name: name, Photo: photo})
}

// DeleteInstitution removes the institution and everything it owns.
func (s *Service) DeleteInstitution(ctx context.Context, instID string) error {
	return s.Store.DeleteInstitution(ctx, s.owner(), instID)
}

// ResetInstitution wipes the books back to an empty state. Name, photo and
// resources survive; students, lessons, history and cash do not.
func (s *Service) ResetInstitution(ctx context.Context, instID string) (*ledger.Institution, error) {
	return s.apply(ctx, instID, ledger.Update{
		Students:     []ledger.Student{},
		Lessons:      []ledger.Lesson{},
		Transactions: []ledger.Transaction{},
		Cash:         new(int64),
	})
}

// =============================================================================
// STUDENT ROSTER
// =============================================================================

// StudentInput carries the editable student fields. Balance is not here:
// it moves only through ledger operations.
type StudentInput struct {
	Name         string `json:"name"`
	Instrument   string `json:"instrument"`
	FeePerLesson int64  `json:"feePerLesson"`
	Phone        string `json:"phone"`
	Photo        string `json:"photo"`
}

func (in StudentInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: student name is required", ledger.ErrInvalidInput)
	}
	if in.FeePerLesson < 0 {
		return fmt.Errorf("%w: fee per lesson must not be negative", ledger.ErrInvalidInput)
	}
	return nil
}

// AddStudent enrolls a student with a zero balance.
func (s *Service) AddStudent(ctx context.Context, instID string, in StudentInput) (*ledger.Institution, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	inst, err := s.Store.GetInstitution(ctx, s.owner(), instID)
	if err != nil {
		return nil, err
	}
	st := ledger.Student{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Instrument:   in.Instrument,
		FeePerLesson: in.FeePerLesson,
		Phone:        in.Phone,
		Photo:        in.Photo,
	}
	st.AvatarColor = avatarColor(st.Name)
	return s.apply(ctx, instID, ledger.Update{Students: append(inst.Students, st)})
}

// UpdateStudent edits roster fields. The balance is carried over untouched.
func (s *Service) UpdateStudent(ctx context.Context, instID, studentID string, in StudentInput) (*ledger.Institution, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	inst, err := s.Store.GetInstitution(ctx, s.owner(), instID)
	if err != nil {
		return nil, err
	}
	students := make([]ledger.Student, len(inst.Students))
	copy(students, inst.Students)
	found := false
	for i := range students {
		if students[i].ID != studentID {
			continue
		}
		students[i].Name = strings.TrimSpace(in.Name)
		students[i].Instrument = in.Instrument
		students[i].FeePerLesson = in.FeePerLesson
		students[i].Phone = in.Phone
		students[i].Photo = in.Photo
		students[i].AvatarColor = avatarColor(students[i].Name)
		found = true
		break
	}
	if !found {
		return nil, ledger.ErrStudentNotFound
	}
	return s.apply(ctx, instID, ledger.Update{Students: students})
}

// DeleteStudent removes a student from the roster. Past transactions stay
// in the history; they record money that really moved.
func (s *Service) DeleteStudent(ctx context.Context, instID, studentID string) (*ledger.Institution, error) {
	inst, err := s.Store.GetInstitution(ctx, s.owner(), instID)
	if err != nil {
		return nil, err
	}
	students := make([]ledger.Student, 0, len(inst.Students))
	found := false
	for _, st := range inst.Students {
		if st.ID == studentID {
			found = true
			continue
		}
		students = append(students, st)
	}
	if !found {
		return nil, ledger.ErrStudentNotFound
	}
	return s.apply(ctx, instID, ledger.Update{Students: students})
}

// =============================================================================
// RESOURCES
// =============================================================================

// AddResource attaches a teaching material to the institution.
func (s *Service) AddResource(ctx context.Context, instID, title, typ, url string) (*ledger.Institution, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: resource title is required", ledger.ErrInvalidInput)
	}
	inst, err := s.Store.GetInstitution(ctx, s.owner(), instID)
	if err != nil {
		return nil, err
	}
	res := ledger.Resource{ID: uuid.NewString(), Title: strings.TrimSpace(title), Type: typ, URL: url}
	return s.apply(ctx, instID, ledger.Update{Resources: append(inst.Resources, res)})
}

// DeleteResource detaches a teaching material.
func (s *Service) DeleteResource(ctx context.Context, instID, resourceID string) (*ledger.Institution, error) {
	inst, err := s.Store.GetInstitution(ctx, s.owner(), instID)
	if err != nil {
		return nil, err
	}
	resources := make([]ledger.Resource, 0, len(inst.Resources))
	found := false
	for _, r := range inst.Resources {
		if r.ID == resourceID {
			found = true
			continue
		}
		resources = append(resources, r)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ledger.ErrResourceNotFound, resourceID)
	}
	return s.apply(ctx, instID, ledger.Update{Resources: resources})
}

// =============================================================================
// STUDENT MONEY
// =============================================================================

// CreditWallet parses a raw amount and loads it onto a student's wallet.
func (s *Service) CreditWallet(ctx context.Context, instID, studentID, rawAmount string) (*ledger.Institution, error) {
	amount, err := ledger.ParseAmount(rawAmount)
	if err != nil {
		return nil, err
	}
	inst, err := s.Store.GetInstitution(ctx, s.owner(), instID)
	if err != nil {
		return nil, err
	}
	upd, err := ledger.CreditWallet(inst.State, studentID, amount, s.now())
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, instID, upd)
}

// CollectDebt zeroes one student's debt. Returns the collected amount.
func (s *Service) CollectDebt(ctx context.Context, instID, studentID string) (*ledger.Institution, int64, error) {
	inst, err := s.Store.GetInstitution(ctx, s.owner(), instID)
	if err != nil {
		return nil, 0, err
	}
	upd, owed, err := ledger.CollectDebt(inst.State, studentID, s.now())
	if err != nil {
		return nil, 0, err
	}
	out, err := s.apply(ctx, instID, upd)
	return out, owed, err
}

// CollectAllDebts zeroes every outstanding debt at once.
func (s *Service) CollectAllDebts(ctx context.Context, instID string) (*ledger.Institution, int64, error) {
	inst, err := s.Store.GetInstitution(ctx, s.owner(), instID)
	if err != nil {
		return nil, 0, err
	}
	upd, total, err := ledger.CollectAllDebts(inst.State, s.now())
	if err != nil {
		return nil, 0, err
	}
	out, err := s.apply(ctx, instID, upd)
	return out, total, err
}

// CollectPayment records a labeled partial payment against a debt.
func (s *Service) CollectPayment(ctx context.Context, instID, studentID, rawAmount, label string) (*ledger.Institution, error) {
	amount, err := ledger.ParseAmount(rawAmount)
	if err != nil {
		return nil, err
	}
	inst, err := s.Store.GetInstitution(ctx, s.owner(), instID)
	if err != nil {
		return nil, err
	}
	upd, err := ledger.CollectPayment(inst.State, studentID, amount, label, s.now())
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, instID, upd)
}

// =============================================================================
// INSTITUTION CASH
// =============================================================================

// RecordManualEntry books a manual income or expense line.
func (s *Service) RecordManualEntry(ctx context.Context, instID string, kind ledger.EntryKind, description, rawAmount string) (*ledger.Institution, error) {
	amount, err := ledger.ParseAmount(rawAmount)
	if err != nil {
		return nil, err
	}
	inst, err := s.Store.GetInstitution(ctx, s.owner(), instID)
	if err != nil {
		return nil, err
	}
	upd, err := ledger.RecordManualEntry(inst.State, kind, description, amount, s.now())
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, instID, upd)
}

// =============================================================================
// SAFE
// =============================================================================

// SafeSummary is the safe plus its derived lifetime total.
type SafeSummary struct {
	Safe              ledger.Safe `json:"safe"`
	LifetimeCollected int64       `json:"lifetimeCollected"`
}

// Safe returns the owner's safe with the lifetime-collected figure.
func (s *Service) Safe(ctx context.Context) (*SafeSummary, error) {
	p, err := s.Store.Profile(ctx, s.owner())
	if err != nil {
		return nil, err
	}
	return &SafeSummary{Safe: p.Safe, LifetimeCollected: ledger.LifetimeCollected(p.Safe)}, nil
}

// TransferToSafe moves cash from an institution's drawer into the safe.
//
// The two documents live apart, so this is the one operation issued as two
// writes. The institution side goes first; if the safe side then fails, the
// institution write is compensated with the original cash and history so
// no money is left in flight.
func (s *Service) TransferToSafe(ctx context.Context, instID, rawAmount string) (*ledger.Institution, error) {
	amount, err := ledger.ParseAmount(rawAmount)
	if err != nil {
		return nil, err
	}
	inst, err := s.Store.GetInstitution(ctx, s.owner(), instID)
	if err != nil {
		return nil, err
	}
	p, err := s.Store.Profile(ctx, s.owner())
	if err != nil {
		return nil, err
	}

	instUpd, safeUpd, err := ledger.TransferToSafe(inst.State, p.Safe, amount, inst.Name, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.Store.ApplyUpdate(ctx, s.owner(), instID, instUpd); err != nil {
		return nil, fmt.Errorf("debit institution: %w", err)
	}
	if err := s.Store.ApplySafeUpdate(ctx, s.owner(), safeUpd); err != nil {
		// Compensate the institution debit so the books stay zero-sum.
		rollback := ledger.Update{
			Cash:         &inst.Cash,
			Transactions: inst.Transactions,
		}
		if rbErr := s.Store.ApplyUpdate(ctx, s.owner(), instID, rollback); rbErr != nil {
			return nil, fmt.Errorf("credit safe failed (%v) and rollback failed: %w", err, rbErr)
		}
		return nil, fmt.Errorf("credit safe: %w", err)
	}
	return s.Store.GetInstitution(ctx, s.owner(), instID)
}

// WithdrawFromSafe takes money out of the safe with a free-form label.
func (s *Service) WithdrawFromSafe(ctx context.Context, rawAmount, label string) (*SafeSummary, error) {
	amount, err := ledger.ParseAmount(rawAmount)
	if err != nil {
		return nil, err
	}
	p, err := s.Store.Profile(ctx, s.owner())
	if err != nil {
		return nil, err
	}
	upd, err := ledger.WithdrawFromSafe(p.Safe, amount, label, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.Store.ApplySafeUpdate(ctx, s.owner(), upd); err != nil {
		return nil, fmt.Errorf("apply safe update: %w", err)
	}
	return s.Safe(ctx)
}

// ResetSafe withdraws the full safe balance in one labeled movement.
func (s *Service) ResetSafe(ctx context.Context) (*SafeSummary, error) {
	p, err := s.Store.Profile(ctx, s.owner())
	if err != nil {
		return nil, err
	}
	upd, err := ledger.ResetSafe(p.Safe, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.Store.ApplySafeUpdate(ctx, s.owner(), upd); err != nil {
		return nil, fmt.Errorf("apply safe update: %w", err)
	}
	return s.Safe(ctx)
}

// UpdateProfile changes the user's display name and photo.
func (s *Service) UpdateProfile(ctx context.Context, name, photo string) (*ledger.Profile, error) {
	p, err := s.Store.Profile(ctx, s.owner())
	if err != nil {
		return nil, err
	}
	p.Name = name
	p.Photo = photo
	if err := s.Store.SaveProfile(ctx, *p); err != nil {
		return nil, err
	}
	return s.Store.Profile(ctx, s.owner())
}

// =============================================================================
// LESSONS
// =============================================================================

// ScheduleLessons creates one lesson or a capped weekly series.
func (s *Service) ScheduleLessons(ctx context.Context, instID string, req ledger.ScheduleRequest) (*ledger.Institution, []ledger.Lesson, error) {
	inst, err := s.Store.GetInstitution(ctx, s.owner(), instID)
	if err != nil {
		return nil, nil, err
	}
	upd, created, err := ledger.ScheduleLessons(inst.State, req)
	if err != nil {
		return nil, nil, err
	}
	out, err := s.apply(ctx, instID, upd)
	return out, created, err
}

// StartLesson marks a pending lesson as in progress.
func (s *Service) StartLesson(ctx context.Context, instID, lessonID string) (*ledger.Institution, error) {
	return s.transitionLesson(ctx, instID, lessonID, ledger.StartLesson)
}

// CancelLesson marks a lesson cancelled. No money moves.
func (s *Service) CancelLesson(ctx context.Context, instID, lessonID string) (*ledger.Institution, error) {
	return s.transitionLesson(ctx, instID, lessonID, ledger.CancelLesson)
}

// MarkAbsent marks the student absent. No money moves.
func (s *Service) MarkAbsent(ctx context.Context, instID, lessonID string) (*ledger.Institution, error) {
	return s.transitionLesson(ctx, instID, lessonID, ledger.MarkAbsent)
}

func (s *Service) transitionLesson(ctx context.Context, instID, lessonID string, op func(ledger.State, string) (ledger.Update, error)) (*ledger.Institution, error) {
	inst, err := s.Store.GetInstitution(ctx, s.owner(), instID)
	if err != nil {
		return nil, err
	}
	upd, err := op(inst.State, lessonID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, instID, upd)
}

// PromoteDueLessons walks every institution and moves upcoming lessons
// whose date has arrived to scheduled. Returns how many lessons moved.
func (s *Service) PromoteDueLessons(ctx context.Context) (int, error) {
	insts, err := s.Store.Institutions(ctx, s.owner())
	if err != nil {
		return 0, err
	}
	total := 0
	for _, inst := range insts {
		upd, due := ledger.MarkDueLessons(inst.State, s.now())
		if due == 0 {
			continue
		}
		if err := s.Store.ApplyUpdate(ctx, s.owner(), inst.ID, upd); err != nil {
			return total, fmt.Errorf("promote lessons for %s: %w", inst.ID, err)
		}
		total += due
	}
	return total, nil
}

// CompleteLesson settles a started lesson with the chosen payment method.
func (s *Service) CompleteLesson(ctx context.Context, instID, lessonID, topic, homework string, method ledger.PaymentMethod) (*ledger.Institution, error) {
	inst, err := s.Store.GetInstitution(ctx, s.owner(), instID)
	if err != nil {
		return nil, err
	}
	upd, err := ledger.CompleteLesson(inst.State, lessonID, topic, homework, method, s.now())
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, instID, upd)
}
