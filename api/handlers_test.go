/*
handlers_test.go - HTTP tests over a real in-memory database

Exercises the full stack: router -> handlers -> service -> ledger ->
sqlite. Each test gets a fresh :memory: database.
*/
package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/studio-ledger/api"
	"github.com/warp/studio-ledger/ledger"
	"github.com/warp/studio-ledger/store/sqlite"
	"github.com/warp/studio-ledger/tutor"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := tutor.NewService(store, ledger.StaticIdentity("user-1"))
	srv := httptest.NewServer(api.NewRouter(api.NewHandler(svc)))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

// bootInstitution lists institutions, which creates the default one.
func bootInstitution(t *testing.T, srv *httptest.Server) api.InstitutionDTO {
	t.Helper()
	var insts []api.InstitutionDTO
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/institutions", nil, &insts)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, insts, 1)
	return insts[0]
}

func addStudent(t *testing.T, srv *httptest.Server, instID, name string, fee int64) ledger.Student {
	t.Helper()
	var inst api.InstitutionDTO
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/institutions/"+instID+"/students",
		tutor.StudentInput{Name: name, Instrument: "Piyano", FeePerLesson: fee}, &inst)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return inst.Students[len(inst.Students)-1]
}

// =============================================================================
// INSTITUTION FLOW
// =============================================================================

func TestListInstitutions_BootstrapsDefault(t *testing.T) {
	// GIVEN: A fresh database
	// WHEN: Listing institutions
	// THEN: The default institution is created with empty books

	srv := newTestServer(t)

	inst := bootInstitution(t, srv)
	assert.Equal(t, tutor.DefaultInstitutionName, inst.Name)
	assert.Zero(t, inst.Cash)
	assert.Zero(t, inst.TotalReceivables)
}

func TestCreateInstitution_Validation(t *testing.T) {
	srv := newTestServer(t)

	var errResp api.ErrorResponse
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/institutions",
		api.CreateInstitutionRequest{Name: "   "}, &errResp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, errResp.Error)
}

func TestGetInstitution_NotFound(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/institutions/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// WALLET AND COLLECTION FLOW
// =============================================================================

func TestWalletLoad_EndToEnd(t *testing.T) {
	// GIVEN: An enrolled student
	// WHEN: Loading 200 via the API
	// THEN: The confirmed document shows balance, cash and history moved together

	srv := newTestServer(t)
	inst := bootInstitution(t, srv)
	st := addStudent(t, srv, inst.ID, "Ayşe", 100)

	var after api.InstitutionDTO
	resp := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/institutions/%s/students/%s/wallet", srv.URL, inst.ID, st.ID),
		api.AmountRequest{Amount: "200"}, &after)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, int64(200), after.Students[0].Balance)
	assert.Equal(t, int64(200), after.Cash)
	require.Len(t, after.Transactions, 1)
	assert.Equal(t, ledger.TxWalletLoad, after.Transactions[0].Type)
}

func TestWalletLoad_ErrorStatuses(t *testing.T) {
	srv := newTestServer(t)
	inst := bootInstitution(t, srv)
	st := addStudent(t, srv, inst.ID, "Ayşe", 100)

	// Invalid amount -> 400
	resp := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/institutions/%s/students/%s/wallet", srv.URL, inst.ID, st.ID),
		api.AmountRequest{Amount: "-50"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown student -> 404
	resp = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/institutions/%s/students/ghost/wallet", srv.URL, inst.ID),
		api.AmountRequest{Amount: "50"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCollectAll_ConflictWhenNothingOwed(t *testing.T) {
	// GIVEN: Nobody in debt
	// WHEN: Collecting all
	// THEN: 409, and the books are untouched

	srv := newTestServer(t)
	inst := bootInstitution(t, srv)
	addStudent(t, srv, inst.ID, "Ayşe", 100)

	resp := doJSON(t, http.MethodPost,
		srv.URL+"/api/institutions/"+inst.ID+"/collect-all", nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// =============================================================================
// LESSON SETTLEMENT FLOW
// =============================================================================

func TestLessonLifecycle_DebtThenCollect(t *testing.T) {
	// GIVEN: A scheduled and started lesson
	// WHEN: Settling as debt, then collecting the student's debt
	// THEN: Balance dips to -fee and returns to zero with cash up by fee

	srv := newTestServer(t)
	inst := bootInstitution(t, srv)
	st := addStudent(t, srv, inst.ID, "Ayşe", 100)

	var sched api.ScheduleDTO
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/institutions/"+inst.ID+"/lessons",
		api.ScheduleLessonRequest{StudentID: st.ID, Date: "2026-09-01", Time: "10:00"}, &sched)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, sched.Created, 1)
	lessonID := sched.Created[0].ID

	resp = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/institutions/%s/lessons/%s/start", srv.URL, inst.ID, lessonID), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var after api.InstitutionDTO
	resp = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/institutions/%s/lessons/%s/complete", srv.URL, inst.ID, lessonID),
		api.CompleteLessonRequest{Topic: "Gamlar", Method: "debt"}, &after)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(-100), after.Students[0].Balance)
	assert.Equal(t, int64(100), after.TotalReceivables)

	// Completing again is a conflict, not a double charge.
	resp = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/institutions/%s/lessons/%s/complete", srv.URL, inst.ID, lessonID),
		api.CompleteLessonRequest{Method: "debt"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var collected api.CollectionDTO
	resp = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/institutions/%s/students/%s/collect", srv.URL, inst.ID, st.ID), nil, &collected)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(100), collected.Collected)
	assert.Zero(t, collected.Institution.Students[0].Balance)
	assert.Equal(t, int64(100), collected.Institution.Cash)
}

func TestCompleteLesson_InsufficientBalanceIs400(t *testing.T) {
	srv := newTestServer(t)
	inst := bootInstitution(t, srv)
	st := addStudent(t, srv, inst.ID, "Ayşe", 100)

	var sched api.ScheduleDTO
	doJSON(t, http.MethodPost, srv.URL+"/api/institutions/"+inst.ID+"/lessons",
		api.ScheduleLessonRequest{StudentID: st.ID, Date: "2026-09-01", Time: "10:00"}, &sched)
	lessonID := sched.Created[0].ID
	doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/institutions/%s/lessons/%s/start", srv.URL, inst.ID, lessonID), nil, nil)

	resp := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/institutions/%s/lessons/%s/complete", srv.URL, inst.ID, lessonID),
		api.CompleteLessonRequest{Method: "balance"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// SAFE FLOW
// =============================================================================

func TestSafe_TransferWithdrawReset(t *testing.T) {
	// GIVEN: An institution with 500 cash
	// WHEN: Transferring to the safe, withdrawing, then resetting
	// THEN: Every step shows in the safe document and its lifetime total

	srv := newTestServer(t)
	inst := bootInstitution(t, srv)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/institutions/"+inst.ID+"/entries",
		api.ManualEntryRequest{Kind: "income", Description: "Kira geliri", Amount: "500"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var after api.InstitutionDTO
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/institutions/"+inst.ID+"/transfer-to-safe",
		api.AmountRequest{Amount: "200"}, &after)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(300), after.Cash)

	var safe api.SafeDTO
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/safe", nil, &safe)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(200), safe.Safe.Cash)
	assert.Equal(t, int64(200), safe.LifetimeCollected)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/safe/withdraw",
		api.WithdrawRequest{Amount: "50", Label: "Para Çekme"}, &safe)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(150), safe.Safe.Cash)
	assert.Equal(t, int64(200), safe.LifetimeCollected)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/safe/reset", nil, &safe)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, safe.Safe.Cash)

	// Resetting an empty safe is a conflict.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/safe/reset", nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestTransferToSafe_OverdrawIs400(t *testing.T) {
	srv := newTestServer(t)
	inst := bootInstitution(t, srv)

	var errResp api.ErrorResponse
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/institutions/"+inst.ID+"/transfer-to-safe",
		api.AmountRequest{Amount: "100"}, &errResp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, errResp.Details)
}

// =============================================================================
// STATS
// =============================================================================

func TestGetStats_ReflectsSettledLessons(t *testing.T) {
	srv := newTestServer(t)
	inst := bootInstitution(t, srv)
	st := addStudent(t, srv, inst.ID, "Ayşe", 100)

	var sched api.ScheduleDTO
	doJSON(t, http.MethodPost, srv.URL+"/api/institutions/"+inst.ID+"/lessons",
		api.ScheduleLessonRequest{StudentID: st.ID, Date: "2026-09-01", Time: "10:00"}, &sched)
	lessonID := sched.Created[0].ID
	doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/institutions/%s/lessons/%s/start", srv.URL, inst.ID, lessonID), nil, nil)
	doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/institutions/%s/lessons/%s/complete", srv.URL, inst.ID, lessonID),
		api.CompleteLessonRequest{Method: "cash"}, nil)

	var stats tutor.MonthlyStats
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/institutions/"+inst.ID+"/stats", nil, &stats)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(100), stats.CashOnHand)
}
