/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate a studio with realistic data
  for testing and demos. Each scenario creates students, lessons and
  money movements that demonstrate specific features.

AVAILABLE SCENARIOS:
  fresh-studio:    The bootstrapped default institution, empty books
  busy-studio:     A roster with prepaid credit, debtors and settled lessons
  month-end:       Collected debts and a safe transfer ready to withdraw

HOW SCENARIOS WORK:
  1. Delete the owner's existing institutions
  2. Re-bootstrap and enroll students
  3. Drive the normal service operations (never raw store writes), so
     every invariant the engine enforces holds in the demo data too

USAGE VIA API:
  POST /api/scenarios/load
  {"scenarioId": "busy-studio"}

NOTE:
  Scenarios wipe the owner's data. Only use in development/demo
  environments.

SEE ALSO:
  - tutor/service.go: The operations scenarios drive
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/studio-ledger/ledger"
	"github.com/warp/studio-ledger/tutor"
)

// =============================================================================
// SCENARIO CATALOG
// =============================================================================

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario by ID.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenarioId"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-studio",
		Name:        "Fresh studio",
		Description: "The default institution with empty books",
	},
	{
		ID:          "busy-studio",
		Name:        "Busy studio",
		Description: "A roster with prepaid credit, debtors and settled lessons",
	},
	{
		ID:          "month-end",
		Name:        "Month end",
		Description: "Debts collected and cash moved to the safe",
	},
}

// ListScenarios returns the scenario catalog.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario wipes the owner's data and loads the selected scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	if err := h.wipe(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset data", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "fresh-studio":
		_, err = h.Service.Institutions(ctx)
	case "busy-studio":
		err = h.loadBusyStudio(ctx)
	case "month-end":
		err = h.loadMonthEnd(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	insts, err := h.Service.Institutions(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read institutions", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstitutionDTOs(insts))
}

// wipe deletes every institution the owner has. The safe is left alone:
// the month-end scenario builds on whatever is already in it.
func (h *Handler) wipe(ctx context.Context) error {
	insts, err := h.Service.Institutions(ctx)
	if err != nil {
		return err
	}
	for _, inst := range insts {
		if err := h.Service.DeleteInstitution(ctx, inst.ID); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// busyStudio enrolls three students and walks them through the normal
// flows: a wallet load, a balance settlement, and two debt settlements.
func (h *Handler) loadBusyStudio(ctx context.Context) error {
	insts, err := h.Service.Institutions(ctx)
	if err != nil {
		return err
	}
	instID := insts[0].ID

	type pupil struct {
		name       string
		instrument string
		fee        int64
	}
	pupils := []pupil{
		{"Ayşe Yılmaz", "Piyano", 100},
		{"Mehmet Demir", "Gitar", 80},
		{"Zeynep Kaya", "Keman", 120},
	}
	var ids []string
	for _, p := range pupils {
		inst, err := h.Service.AddStudent(ctx, instID, tutor.StudentInput{
			Name: p.name, Instrument: p.instrument, FeePerLesson: p.fee,
		})
		if err != nil {
			return err
		}
		ids = append(ids, inst.Students[len(inst.Students)-1].ID)
	}

	// Ayşe prepays four lessons.
	if _, err := h.Service.CreditWallet(ctx, instID, ids[0], "400"); err != nil {
		return err
	}

	// One settled lesson per student: balance, debt, debt.
	methods := []ledger.PaymentMethod{ledger.MethodBalance, ledger.MethodDebt, ledger.MethodDebt}
	for i, studentID := range ids {
		_, created, err := h.Service.ScheduleLessons(ctx, instID, ledger.ScheduleRequest{
			StudentID: studentID, Date: "2026-09-01", Time: fmt.Sprintf("%02d:00", 10+i),
		})
		if err != nil {
			return err
		}
		if _, err := h.Service.StartLesson(ctx, instID, created[0].ID); err != nil {
			return err
		}
		if _, err := h.Service.CompleteLesson(ctx, instID, created[0].ID, "Gamlar", "", methods[i]); err != nil {
			return err
		}
	}

	// Upcoming lessons for next week.
	for i, studentID := range ids {
		if _, _, err := h.Service.ScheduleLessons(ctx, instID, ledger.ScheduleRequest{
			StudentID: studentID, Date: "2026-09-08", Time: fmt.Sprintf("%02d:00", 10+i),
		}); err != nil {
			return err
		}
	}
	return nil
}

// monthEnd builds on busyStudio, then collects everything and transfers
// half the drawer to the safe.
func (h *Handler) loadMonthEnd(ctx context.Context) error {
	if err := h.loadBusyStudio(ctx); err != nil {
		return err
	}
	insts, err := h.Service.Institutions(ctx)
	if err != nil {
		return err
	}
	instID := insts[0].ID

	inst, _, err := h.Service.CollectAllDebts(ctx, instID)
	if err != nil {
		return err
	}
	if inst.Cash > 1 {
		half := inst.Cash / 2
		if _, err := h.Service.TransferToSafe(ctx, instID, fmt.Sprintf("%d", half)); err != nil {
			return err
		}
	}
	return nil
}
