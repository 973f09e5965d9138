/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error types in one place. Operations reject BEFORE any state change,
  so callers can always treat an error as "nothing happened".

ERROR CATEGORIES:
  1. Validation errors - bad amounts, violated preconditions
  2. State conflicts   - operation no longer matches the entity's state
  3. Not found         - unknown student/lesson/institution

USAGE:
  Callers classify with the helpers:

    if ledger.IsValidation(err) { // 400
    if ledger.IsConflict(err)   { // 409, safe no-op
    if ledger.IsNotFound(err)   { // 404

SEE ALSO:
  - student.go, safe.go, lesson.go: Producers of these errors
  - api/handlers.go: HTTP status mapping
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned when a user-entered amount is empty,
	// non-numeric, zero, negative, or past int64.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidInput is returned for non-amount field validation failures,
	// such as a blank name or a negative fee.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientBalance is returned when settling from prepaid credit
	// that does not cover the lesson fee.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientCash is returned when a safe transfer exceeds the
	// institution's cash.
	ErrInsufficientCash = errors.New("insufficient institution cash")

	// ErrInsufficientSafe is returned when a withdrawal exceeds the safe.
	ErrInsufficientSafe = errors.New("insufficient safe balance")

	// ErrNothingToCollect is returned by collect-all when no student is in
	// debt. The operation is a no-op: no transactions, no cash change.
	ErrNothingToCollect = errors.New("no outstanding receivables")

	// ErrNoOutstandingDebt is returned when single-student collection
	// targets a student whose balance is not negative.
	ErrNoOutstandingDebt = errors.New("student has no outstanding debt")

	// ErrSafeEmpty is returned when resetting a safe that is already <= 0.
	ErrSafeEmpty = errors.New("safe is already empty")

	// ErrLessonAlreadySettled is returned when completing a lesson that is
	// already completed. Settlement fires exactly once per lesson.
	ErrLessonAlreadySettled = errors.New("lesson already settled")

	// ErrLessonFinalized is returned on any transition out of a terminal
	// status (completed, cancelled, absent).
	ErrLessonFinalized = errors.New("lesson is in a terminal status")

	// ErrLessonNotStarted is returned when completing a lesson that has not
	// had attendance confirmed.
	ErrLessonNotStarted = errors.New("lesson has not been started")

	// ErrStudentNotFound is returned when a referenced student doesn't exist.
	ErrStudentNotFound = errors.New("student not found")

	// ErrLessonNotFound is returned when a referenced lesson doesn't exist.
	ErrLessonNotFound = errors.New("lesson not found")

	// ErrInstitutionNotFound is returned by stores and services when the
	// owning institution document is missing.
	ErrInstitutionNotFound = errors.New("institution not found")

	// ErrResourceNotFound is returned when a referenced teaching resource
	// doesn't exist.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrUnknownPaymentMethod is returned for a method outside
	// balance/cash/debt.
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientFundsError reports how far a movement overshoots what is
// available. Unwraps to one of the insufficiency sentinels.
type InsufficientFundsError struct {
	Op        string // "settle", "transfer", "withdraw"
	Available int64
	Requested int64
	sentinel  error
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%s: available %d, requested %d", e.Op, e.Available, e.Requested)
}

func (e *InsufficientFundsError) Unwrap() error { return e.sentinel }

// LessonStateError reports an illegal lesson transition.
type LessonStateError struct {
	LessonID string
	From     LessonStatus
	To       LessonStatus
	sentinel error
}

func (e *LessonStateError) Error() string {
	return fmt.Sprintf("lesson %s: cannot move %s -> %s", e.LessonID, e.From, e.To)
}

func (e *LessonStateError) Unwrap() error { return e.sentinel }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports whether the error is a precondition failure: reject
// before mutation, surface to the user, no retry.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInsufficientCash) ||
		errors.Is(err, ErrInsufficientSafe) ||
		errors.Is(err, ErrUnknownPaymentMethod)
}

// IsConflict reports whether the operation targeted an entity that no longer
// matches expectations. These are guaranteed no-ops, not crashes.
func IsConflict(err error) bool {
	return errors.Is(err, ErrNothingToCollect) ||
		errors.Is(err, ErrNoOutstandingDebt) ||
		errors.Is(err, ErrSafeEmpty) ||
		errors.Is(err, ErrLessonAlreadySettled) ||
		errors.Is(err, ErrLessonFinalized) ||
		errors.Is(err, ErrLessonNotStarted)
}

// IsNotFound reports whether the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStudentNotFound) ||
		errors.Is(err, ErrLessonNotFound) ||
		errors.Is(err, ErrInstitutionNotFound) ||
		errors.Is(err, ErrResourceNotFound)
}
