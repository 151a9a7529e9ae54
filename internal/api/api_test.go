package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminal-bench/glp-fleet/internal/control"
	"github.com/terminal-bench/glp-fleet/internal/environment"
	"github.com/terminal-bench/glp-fleet/internal/eventqueue"
	"github.com/terminal-bench/glp-fleet/internal/grid"
	"github.com/terminal-bench/glp-fleet/internal/model"
	"github.com/terminal-bench/glp-fleet/internal/orchestrator"
	"github.com/terminal-bench/glp-fleet/internal/solver"
	"github.com/terminal-bench/glp-fleet/pkg/units"
)

func buildTestServer(t *testing.T) (*Server, *model.Vehicle) {
	gin.SetMode(gin.TestMode)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	env := environment.New(start)
	main := model.NewDepot(uuid.New(), "MAIN", model.Position{0, 0}, units.ZeroVolume, true, true)
	env.AddDepot(main)
	v := model.NewVehicle(uuid.New(), "TD01", model.VehicleTypes[model.TypeTD], model.Position{0, 0})
	env.AddVehicle(v)

	g := grid.New(10, 10, grid.DefaultSpeedKPH)
	sv := solver.New(solver.DefaultConfig())
	q := eventqueue.New()
	orch := orchestrator.New(orchestrator.DefaultConfig(), env, g, sv, q, nil, nil, nil, nil)

	ctrl := control.New(env, orch)
	return New(DefaultConfig(":0"), ctrl, nil, nil), v
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := buildTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetEnvironmentReturnsFullSnapshot(t *testing.T) {
	s, v := buildTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/environment", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp environmentSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Vehicles, 1)
	assert.Equal(t, v.Code, resp.Vehicles[0].Code)
}

func TestGetVehiclesReturnsFleet(t *testing.T) {
	s, v := buildTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/vehicles", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), v.Code)
}

func TestGetSpeedReturnsCurrentInterval(t *testing.T) {
	s, _ := buildTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/simulation/speed", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 200, resp["speed"])
}

func TestPostSpeedValidatesRange(t *testing.T) {
	s, _ := buildTestServer(t)
	body := strings.NewReader(`{"speed": 10}`)
	req := httptest.NewRequest(http.MethodPost, "/simulation/speed", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp["status"])
}

func TestBreakdownAndRepairFlow(t *testing.T) {
	s, v := buildTestServer(t)

	payload := `{"vehicleId":"` + v.ID.String() + `","reason":"flat","estimatedRepairHours":1}`
	req := httptest.NewRequest(http.MethodPost, "/vehicle/breakdown", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	repairPayload := `{"vehicleId":"` + v.ID.String() + `"}`
	req2 := httptest.NewRequest(http.MethodPost, "/vehicle/repair", strings.NewReader(repairPayload))
	req2.Header.Set("Content-Type", "application/json")
	rec2 := httptest.NewRecorder()
	s.Router().ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusOK, rec2.Code)
}

func TestBreakdownAlreadyUnavailableReturns400(t *testing.T) {
	s, v := buildTestServer(t)
	payload := `{"vehicleId":"` + v.ID.String() + `","estimatedRepairHours":1}`

	req := httptest.NewRequest(http.MethodPost, "/vehicle/breakdown", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req2 := httptest.NewRequest(http.MethodPost, "/vehicle/breakdown", strings.NewReader(payload))
	req2.Header.Set("Content-Type", "application/json")
	rec2 := httptest.NewRecorder()
	s.Router().ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestBreakdownUnknownVehicleReturns404(t *testing.T) {
	s, _ := buildTestServer(t)
	payload := `{"vehicleId":"` + uuid.New().String() + `","estimatedRepairHours":1}`
	req := httptest.NewRequest(http.MethodPost, "/vehicle/breakdown", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSHeaderPresent(t *testing.T) {
	s, _ := buildTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
