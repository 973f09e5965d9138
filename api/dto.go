/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

AMOUNTS:
  Money amounts cross the wire as strings and go through the ledger's
  lenient parser, so clients can pass raw input straight through.

VALIDATION:
  Validation is done in the ledger and service layers, not in DTOs. DTOs
  are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/studio-ledger/ledger"
	"github.com/warp/studio-ledger/tutor"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateInstitutionRequest creates a studio workspace.
type CreateInstitutionRequest struct {
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

// UpdateInstitutionRequest edits display fields; nil means unchanged.
type UpdateInstitutionRequest struct {
	Name  *string `json:"name"`
	Photo *string `json:"photo"`
}

// AmountRequest carries a raw user-entered amount.
type AmountRequest struct {
	Amount string `json:"amount"`
}

// PaymentRequest is a labeled partial payment against a debt.
type PaymentRequest struct {
	Amount string `json:"amount"`
	Label  string `json:"label"`
}

// ManualEntryRequest books income or expense ("income" / "expense").
type ManualEntryRequest struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// WithdrawRequest takes money out of the safe.
type WithdrawRequest struct {
	Amount string `json:"amount"`
	Label  string `json:"label"`
}

// ScheduleLessonRequest creates one lesson or a weekly series.
type ScheduleLessonRequest struct {
	StudentID string `json:"studentId"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Recurring bool   `json:"recurring"`
	Until     string `json:"until"`
}

// CompleteLessonRequest settles a started lesson.
type CompleteLessonRequest struct {
	Topic    string `json:"topic"`
	Homework string `json:"homework"`
	Method   string `json:"method"` // balance | cash | debt
}

// ResourceRequest attaches a teaching material.
type ResourceRequest struct {
	Title string `json:"title"`
	Type  string `json:"type"`
	URL   string `json:"url"`
}

// ProfileRequest edits the user's display identity.
type ProfileRequest struct {
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// InstitutionDTO is an institution document plus derived figures the
// dashboard needs on every payload.
type InstitutionDTO struct {
	ledger.Institution
	TotalReceivables int64 `json:"totalReceivables"`
}

func toInstitutionDTO(inst *ledger.Institution) InstitutionDTO {
	return InstitutionDTO{
		Institution:      *inst,
		TotalReceivables: ledger.TotalReceivables(inst.Students),
	}
}

func toInstitutionDTOs(insts []ledger.Institution) []InstitutionDTO {
	dtos := make([]InstitutionDTO, len(insts))
	for i := range insts {
		dtos[i] = toInstitutionDTO(&insts[i])
	}
	return dtos
}

// CollectionDTO reports a debt collection alongside the confirmed books.
type CollectionDTO struct {
	Collected   int64          `json:"collected"`
	Institution InstitutionDTO `json:"institution"`
}

// ScheduleDTO reports exactly what a scheduling request created, so
// clients can see recurrence truncation.
type ScheduleDTO struct {
	Created     []ledger.Lesson `json:"created"`
	Institution InstitutionDTO  `json:"institution"`
}

// SafeDTO is the safe with its derived lifetime figure.
type SafeDTO = tutor.SafeSummary

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
