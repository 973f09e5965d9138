/*
handlers.go - HTTP API handlers for the studio ledger

PURPOSE:
  Exposes the tutoring-studio bookkeeping service via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to the service
  layer.

ENDPOINTS:
  Institutions:
    GET    /api/institutions                    List (bootstraps default)
    POST   /api/institutions                    Create
    GET    /api/institutions/{id}               Get one
    PUT    /api/institutions/{id}               Edit display fields
    DELETE /api/institutions/{id}               Delete
    POST   /api/institutions/{id}/reset         Wipe the books
    GET    /api/institutions/{id}/stats         Monthly dashboard figures

  Students and money:
    POST   /api/institutions/{id}/students                          Enroll
    PUT    /api/institutions/{id}/students/{studentID}              Edit
    DELETE /api/institutions/{id}/students/{studentID}              Remove
    POST   /api/institutions/{id}/students/{studentID}/wallet       Load credit
    POST   /api/institutions/{id}/students/{studentID}/collect      Collect debt
    POST   /api/institutions/{id}/students/{studentID}/payments     Partial payment
    POST   /api/institutions/{id}/collect-all                       Collect everything

  Cashbook and safe:
    POST   /api/institutions/{id}/entries           Manual income/expense
    POST   /api/institutions/{id}/transfer-to-safe  Move cash to the safe
    GET    /api/safe                                Safe + lifetime total
    POST   /api/safe/withdraw                       Withdraw
    POST   /api/safe/reset                          Empty the safe

  Lessons:
    POST   /api/institutions/{id}/lessons                       Schedule
    POST   /api/institutions/{id}/lessons/{lessonID}/start      Start
    POST   /api/institutions/{id}/lessons/{lessonID}/cancel     Cancel
    POST   /api/institutions/{id}/lessons/{lessonID}/absent     Mark absent
    POST   /api/institutions/{id}/lessons/{lessonID}/complete   Settle

ERROR HANDLING:
  Errors are returned as JSON with the status derived from the ledger's
  error taxonomy:
  - 400: Validation errors, invalid input
  - 404: Missing student/lesson/institution
  - 409: State conflicts (already settled, nothing to collect)
  - 500: Store failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/studio-ledger/ledger"
	"github.com/warp/studio-ledger/tutor"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *tutor.Service
}

// NewHandler creates a new handler over the service.
func NewHandler(svc *tutor.Service) *Handler {
	return &Handler{Service: svc}
}

// =============================================================================
// INSTITUTION HANDLERS
// =============================================================================

// ListInstitutions returns all institutions, bootstrapping the default one
// for a brand-new user.
func (h *Handler) ListInstitutions(w http.ResponseWriter, r *http.Request) {
	insts, err := h.Service.Institutions(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list institutions", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstitutionDTOs(insts))
}

// GetInstitution returns one institution document.
func (h *Handler) GetInstitution(w http.ResponseWriter, r *http.Request) {
	inst, err := h.Service.GetInstitution(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get institution", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstitutionDTO(inst))
}

// CreateInstitution adds a named institution with empty books.
func (h *Handler) CreateInstitution(w http.ResponseWriter, r *http.Request) {
	var req CreateInstitutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	inst, err := h.Service.CreateInstitution(r.Context(), req.Name, req.Photo)
	if err != nil {
		writeDomainError(w, "Failed to create institution", err)
		return
	}
	writeJSON(w, http.StatusCreated, toInstitutionDTO(inst))
}

// UpdateInstitution edits display fields only.
func (h *Handler) UpdateInstitution(w http.ResponseWriter, r *http.Request) {
	var req UpdateInstitutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	inst, err := h.Service.UpdateInstitutionProfile(r.Context(), chi.URLParam(r, "id"), req.Name, req.Photo)
	if err != nil {
		writeDomainError(w, "Failed to update institution", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstitutionDTO(inst))
}

// DeleteInstitution removes the institution and everything it owns.
func (h *Handler) DeleteInstitution(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteInstitution(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete institution", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// ResetInstitution wipes the books back to an empty state.
func (h *Handler) ResetInstitution(w http.ResponseWriter, r *http.Request) {
	inst, err := h.Service.ResetInstitution(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to reset institution", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstitutionDTO(inst))
}

// GetStats returns the monthly dashboard aggregate.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.MonthlyStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to compute stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// =============================================================================
// STUDENT HANDLERS
// =============================================================================

// AddStudent enrolls a student with a zero balance.
func (h *Handler) AddStudent(w http.ResponseWriter, r *http.Request) {
	var req tutor.StudentInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	inst, err := h.Service.AddStudent(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, "Failed to add student", err)
		return
	}
	writeJSON(w, http.StatusCreated, toInstitutionDTO(inst))
}

// UpdateStudent edits roster fields; the balance is untouched.
func (h *Handler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	var req tutor.StudentInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	inst, err := h.Service.UpdateStudent(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "studentID"), req)
	if err != nil {
		writeDomainError(w, "Failed to update student", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstitutionDTO(inst))
}

// DeleteStudent removes a student; the money trail stays.
func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	inst, err := h.Service.DeleteStudent(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "studentID"))
	if err != nil {
		writeDomainError(w, "Failed to delete student", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstitutionDTO(inst))
}

// CreditWallet loads prepaid credit onto a student's wallet.
func (h *Handler) CreditWallet(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	inst, err := h.Service.CreditWallet(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "studentID"), req.Amount)
	if err != nil {
		writeDomainError(w, "Failed to load wallet", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstitutionDTO(inst))
}

// CollectDebt zeroes one student's debt.
func (h *Handler) CollectDebt(w http.ResponseWriter, r *http.Request) {
	inst, collected, err := h.Service.CollectDebt(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "studentID"))
	if err != nil {
		writeDomainError(w, "Failed to collect debt", err)
		return
	}
	writeJSON(w, http.StatusOK, CollectionDTO{Collected: collected, Institution: toInstitutionDTO(inst)})
}

// CollectAllDebts zeroes every outstanding debt at once.
func (h *Handler) CollectAllDebts(w http.ResponseWriter, r *http.Request) {
	inst, collected, err := h.Service.CollectAllDebts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to collect debts", err)
		return
	}
	writeJSON(w, http.StatusOK, CollectionDTO{Collected: collected, Institution: toInstitutionDTO(inst)})
}

// CollectPayment records a labeled partial payment.
func (h *Handler) CollectPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	inst, err := h.Service.CollectPayment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "studentID"), req.Amount, req.Label)
	if err != nil {
		writeDomainError(w, "Failed to collect payment", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstitutionDTO(inst))
}

// =============================================================================
// CASHBOOK AND SAFE HANDLERS
// =============================================================================

// RecordManualEntry books a manual income or expense line.
func (h *Handler) RecordManualEntry(w http.ResponseWriter, r *http.Request) {
	var req ManualEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	inst, err := h.Service.RecordManualEntry(r.Context(), chi.URLParam(r, "id"), ledger.EntryKind(req.Kind), req.Description, req.Amount)
	if err != nil {
		writeDomainError(w, "Failed to record entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstitutionDTO(inst))
}

// TransferToSafe moves cash from the institution's drawer into the safe.
func (h *Handler) TransferToSafe(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	inst, err := h.Service.TransferToSafe(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeDomainError(w, "Failed to transfer to safe", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstitutionDTO(inst))
}

// GetSafe returns the safe and its lifetime-collected total.
func (h *Handler) GetSafe(w http.ResponseWriter, r *http.Request) {
	safe, err := h.Service.Safe(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to read safe", err)
		return
	}
	writeJSON(w, http.StatusOK, safe)
}

// WithdrawFromSafe takes money out of the safe.
func (h *Handler) WithdrawFromSafe(w http.ResponseWriter, r *http.Request) {
	var req WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	safe, err := h.Service.WithdrawFromSafe(r.Context(), req.Amount, req.Label)
	if err != nil {
		writeDomainError(w, "Failed to withdraw", err)
		return
	}
	writeJSON(w, http.StatusOK, safe)
}

// ResetSafe withdraws the full safe balance in one labeled movement.
func (h *Handler) ResetSafe(w http.ResponseWriter, r *http.Request) {
	safe, err := h.Service.ResetSafe(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to reset safe", err)
		return
	}
	writeJSON(w, http.StatusOK, safe)
}

// UpdateProfile edits the user's display identity.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	p, err := h.Service.UpdateProfile(r.Context(), req.Name, req.Photo)
	if err != nil {
		writeDomainError(w, "Failed to update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// =============================================================================
// RESOURCE HANDLERS
// =============================================================================

// AddResource attaches a teaching material to the institution.
func (h *Handler) AddResource(w http.ResponseWriter, r *http.Request) {
	var req ResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	inst, err := h.Service.AddResource(r.Context(), chi.URLParam(r, "id"), req.Title, req.Type, req.URL)
	if err != nil {
		writeDomainError(w, "Failed to add resource", err)
		return
	}
	writeJSON(w, http.StatusCreated, toInstitutionDTO(inst))
}

// DeleteResource detaches a teaching material.
func (h *Handler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	inst, err := h.Service.DeleteResource(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "resourceID"))
	if err != nil {
		writeDomainError(w, "Failed to delete resource", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstitutionDTO(inst))
}

// =============================================================================
// LESSON HANDLERS
// =============================================================================

// ScheduleLessons creates one lesson or a capped weekly series.
func (h *Handler) ScheduleLessons(w http.ResponseWriter, r *http.Request) {
	var req ScheduleLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	inst, created, err := h.Service.ScheduleLessons(r.Context(), chi.URLParam(r, "id"), ledger.ScheduleRequest{
		StudentID: req.StudentID,
		Date:      req.Date,
		Time:      req.Time,
		Recurring: req.Recurring,
		Until:     req.Until,
	})
	if err != nil {
		writeDomainError(w, "Failed to schedule lessons", err)
		return
	}
	writeJSON(w, http.StatusCreated, ScheduleDTO{Created: created, Institution: toInstitutionDTO(inst)})
}

// StartLesson confirms attendance.
func (h *Handler) StartLesson(w http.ResponseWriter, r *http.Request) {
	h.lessonTransition(w, r, h.Service.StartLesson, "Failed to start lesson")
}

// CancelLesson marks the lesson cancelled without settlement.
func (h *Handler) CancelLesson(w http.ResponseWriter, r *http.Request) {
	h.lessonTransition(w, r, h.Service.CancelLesson, "Failed to cancel lesson")
}

// MarkAbsent marks the student absent without settlement.
func (h *Handler) MarkAbsent(w http.ResponseWriter, r *http.Request) {
	h.lessonTransition(w, r, h.Service.MarkAbsent, "Failed to mark absent")
}

func (h *Handler) lessonTransition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, instID, lessonID string) (*ledger.Institution, error), msg string) {
	inst, err := op(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "lessonID"))
	if err != nil {
		writeDomainError(w, msg, err)
		return
	}
	writeJSON(w, http.StatusOK, toInstitutionDTO(inst))
}

// CompleteLesson settles a started lesson with the chosen payment method.
func (h *Handler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	var req CompleteLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	inst, err := h.Service.CompleteLesson(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "lessonID"),
		req.Topic, req.Homework, ledger.PaymentMethod(req.Method))
	if err != nil {
		writeDomainError(w, "Failed to complete lesson", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstitutionDTO(inst))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the ledger's error taxonomy to HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case ledger.IsValidation(err):
		writeError(w, http.StatusBadRequest, message, err)
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case ledger.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
