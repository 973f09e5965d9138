/*
scenarios_test.go - Tests for demo scenario loaders

Verifies each scenario produces books that satisfy the engine's own
invariants: cash matches the transaction history and balances line up
with what the flows should have left behind.
*/
package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/studio-ledger/api"
	"github.com/warp/studio-ledger/ledger"
)

func loadScenario(t *testing.T, srv *httptest.Server, id string) []api.InstitutionDTO {
	t.Helper()
	var insts []api.InstitutionDTO
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/load",
		api.LoadScenarioRequest{ScenarioID: id}, &insts)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, insts)
	return insts
}

func TestListScenarios_CatalogIsStable(t *testing.T) {
	srv := newTestServer(t)

	var catalog []api.ScenarioDTO
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/scenarios", nil, &catalog)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, catalog, 3)
	assert.Equal(t, "fresh-studio", catalog[0].ID)
}

func TestLoadScenario_FreshStudio(t *testing.T) {
	srv := newTestServer(t)

	insts := loadScenario(t, srv, "fresh-studio")
	assert.Empty(t, insts[0].Students)
	assert.Zero(t, insts[0].Cash)
}

func TestLoadScenario_BusyStudio_BooksBalance(t *testing.T) {
	// GIVEN: The busy-studio scenario
	// WHEN: Loading it
	// THEN: One prepaid student, two debtors, books reconciled

	srv := newTestServer(t)
	insts := loadScenario(t, srv, "busy-studio")
	inst := insts[0]

	require.Len(t, inst.Students, 3)
	assert.Zero(t, ledger.Reconcile(inst.State), "cash equals the transaction sum")

	// Ayşe loaded 400 and settled one 100 lesson from balance.
	assert.Equal(t, int64(300), inst.Students[0].Balance)
	// Mehmet and Zeynep each owe one lesson fee.
	assert.Equal(t, int64(-80), inst.Students[1].Balance)
	assert.Equal(t, int64(-120), inst.Students[2].Balance)
	assert.Equal(t, int64(200), inst.TotalReceivables)

	// 3 settled + 3 upcoming lessons.
	assert.Len(t, inst.Lessons, 6)
}

func TestLoadScenario_MonthEnd_SafeHoldsHalf(t *testing.T) {
	// GIVEN: The month-end scenario
	// WHEN: Loading it
	// THEN: No debt remains and half the drawer moved to the safe

	srv := newTestServer(t)
	insts := loadScenario(t, srv, "month-end")
	inst := insts[0]

	assert.Zero(t, inst.TotalReceivables)
	assert.Zero(t, ledger.Reconcile(inst.State))

	var safe api.SafeDTO
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/safe", nil, &safe)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Positive(t, safe.Safe.Cash)
	assert.Equal(t, safe.Safe.Cash, safe.LifetimeCollected)
}

func TestLoadScenario_Unknown(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/load",
		api.LoadScenarioRequest{ScenarioID: "nope"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoadScenario_IsRepeatable(t *testing.T) {
	// Loading twice wipes and rebuilds rather than stacking data.
	srv := newTestServer(t)
	loadScenario(t, srv, "busy-studio")
	insts := loadScenario(t, srv, "busy-studio")
	require.Len(t, insts, 1)
	assert.Len(t, insts[0].Students, 3)
}
