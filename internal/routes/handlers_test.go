package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/khetsense/khetsense-api/internal/cache"
	"github.com/khetsense/khetsense-api/internal/kpi"
	"github.com/khetsense/khetsense-api/internal/report"
	"github.com/khetsense/khetsense-api/internal/resolve"
	"github.com/khetsense/khetsense-api/pkg/types"
	"github.com/rs/zerolog"
)

func f(v float64) *float64 { return &v }

// memStore is a full in-memory record store for handler tests.
type memStore struct {
	farms    []types.Farm
	logs     []types.OperationalLog
	expenses []types.Expense
	cycles   []types.CropCycle
	harvests []types.Harvest
	devices  []types.Device
	readings []types.Reading

	insertCycleErr error
}

func (s *memStore) GetFarmsByOwnerID(ownerID uuid.UUID) ([]types.Farm, error) {
	var out []types.Farm
	for _, farm := range s.farms {
		if farm.OwnerID == ownerID {
			out = append(out, farm)
		}
	}
	return out, nil
}

func (s *memStore) GetFarmByID(farmID uuid.UUID) (*types.Farm, error) {
	for i, farm := range s.farms {
		if farm.ID == farmID {
			return &s.farms[i], nil
		}
	}
	return nil, nil
}

func (s *memStore) GetLogsByFarmID(farmID uuid.UUID) ([]types.OperationalLog, error) {
	return s.GetLogsByFarmIDs([]uuid.UUID{farmID})
}

func (s *memStore) GetLogsByFarmIDs(farmIDs []uuid.UUID) ([]types.OperationalLog, error) {
	var out []types.OperationalLog
	for _, l := range s.logs {
		for _, id := range farmIDs {
			if l.FarmID == id {
				out = append(out, l)
			}
		}
	}
	return out, nil
}

func (s *memStore) GetExpensesByFarmID(farmID uuid.UUID) ([]types.Expense, error) {
	return s.GetExpensesByFarmIDs([]uuid.UUID{farmID})
}

func (s *memStore) GetExpensesByFarmIDs(farmIDs []uuid.UUID) ([]types.Expense, error) {
	var out []types.Expense
	for _, e := range s.expenses {
		for _, id := range farmIDs {
			if e.FarmID == id {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func (s *memStore) GetCyclesByFarmID(farmID uuid.UUID) ([]types.CropCycle, error) {
	var out []types.CropCycle
	for _, c := range s.cycles {
		if c.FarmID == farmID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) GetActiveCycle(farmID uuid.UUID) (*types.CropCycle, error) {
	for i, c := range s.cycles {
		if c.FarmID == farmID && c.Status == types.CycleStatusActive {
			return &s.cycles[i], nil
		}
	}
	return nil, nil
}

func (s *memStore) GetNewestCycle(farmID uuid.UUID) (*types.CropCycle, error) {
	var newest *types.CropCycle
	for i, c := range s.cycles {
		if c.FarmID != farmID {
			continue
		}
		if newest == nil || c.CreatedAt.After(newest.CreatedAt) {
			newest = &s.cycles[i]
		}
	}
	return newest, nil
}

func (s *memStore) GetHarvestsByCycleIDs(cycleIDs []uuid.UUID) ([]types.Harvest, error) {
	var out []types.Harvest
	for _, h := range s.harvests {
		for _, id := range cycleIDs {
			if h.CropCycleID == id {
				out = append(out, h)
			}
		}
	}
	return out, nil
}

func (s *memStore) GetDevice(farmID uuid.UUID, deviceType types.DeviceType, deviceName string) (*types.Device, error) {
	for i, d := range s.devices {
		if d.FarmID == farmID && d.DeviceType == deviceType && d.DeviceName == deviceName {
			return &s.devices[i], nil
		}
	}
	return nil, nil
}

func (s *memStore) GetDeviceByID(deviceID uuid.UUID) (*types.Device, error) {
	for i, d := range s.devices {
		if d.ID == deviceID {
			return &s.devices[i], nil
		}
	}
	return nil, nil
}

func (s *memStore) GetDevicesByFarmID(farmID uuid.UUID) ([]types.Device, error) {
	var out []types.Device
	for _, d := range s.devices {
		if d.FarmID == farmID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *memStore) GetReadingsByDeviceID(deviceID uuid.UUID, limit int) ([]types.Reading, error) {
	readings, _ := s.GetReadingsByDeviceIDs([]uuid.UUID{deviceID}, limit)
	return readings, nil
}

func (s *memStore) GetReadingsByDeviceIDs(deviceIDs []uuid.UUID, limit int) ([]types.Reading, error) {
	var out []types.Reading
	for _, r := range s.readings {
		for _, id := range deviceIDs {
			if r.DeviceID == id {
				out = append(out, r)
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) GetLatestReading() (*types.Reading, error) {
	var latest *types.Reading
	for i, r := range s.readings {
		if latest == nil || r.RecordedAt.After(latest.RecordedAt) {
			latest = &s.readings[i]
		}
	}
	return latest, nil
}

func (s *memStore) InsertFarm(farm *types.Farm) error {
	farm.ID = uuid.New()
	farm.CreatedAt = time.Now().UTC()
	s.farms = append(s.farms, *farm)
	return nil
}

func (s *memStore) InsertLog(l *types.OperationalLog) error {
	l.ID = uuid.New()
	s.logs = append(s.logs, *l)
	return nil
}

func (s *memStore) InsertExpense(e *types.Expense) error {
	e.ID = uuid.New()
	s.expenses = append(s.expenses, *e)
	return nil
}

func (s *memStore) InsertHarvest(h *types.Harvest) error {
	h.ID = uuid.New()
	s.harvests = append(s.harvests, *h)
	return nil
}

func (s *memStore) InsertReading(r *types.Reading) error {
	r.ID = uuid.New()
	s.readings = append(s.readings, *r)
	return nil
}

func (s *memStore) InsertDevice(d *types.Device) error {
	d.ID = uuid.New()
	s.devices = append(s.devices, *d)
	return nil
}

func (s *memStore) InsertCycle(c *types.CropCycle) error {
	if s.insertCycleErr != nil {
		return s.insertCycleErr
	}
	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()
	s.cycles = append(s.cycles, *c)
	return nil
}

func newTestApp(store *memStore) (*App, http.Handler) {
	c := cache.NewNoop()
	reports := report.New(store, c, zerolog.Nop(), report.Options{
		InitialStock: 1000,
		Thresholds:   kpi.DefaultThresholds(),
	})
	app := New(store, c, resolve.New(store), reports, zerolog.Nop())
	return app, NewMux(app)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealthz(t *testing.T) {
	_, mux := newTestApp(&memStore{})
	rec := do(t, mux, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateFarm(t *testing.T) {
	store := &memStore{}
	_, mux := newTestApp(store)

	ownerID := uuid.NewString()
	rec := do(t, mux, http.MethodPost, "/farms",
		`{"owner_id":"`+ownerID+`","name":"Riverside","location":"Khulna","total_area":2.5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(store.farms) != 1 {
		t.Fatalf("stored %d farms, want 1", len(store.farms))
	}
	if store.farms[0].ID == uuid.Nil {
		t.Error("stored farm has no id")
	}
}

func TestCreateFarmValidation(t *testing.T) {
	store := &memStore{}
	_, mux := newTestApp(store)

	rec := do(t, mux, http.MethodPost, "/farms",
		`{"owner_id":"`+uuid.NewString()+`","name":"","location":"","total_area":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decode(t, rec)
	if body["fields"] == nil {
		t.Error("validation reply carries no field list")
	}
	if len(store.farms) != 0 {
		t.Error("invalid farm reached the store")
	}
}

func TestListFarmsRequiresOwner(t *testing.T) {
	_, mux := newTestApp(&memStore{})
	rec := do(t, mux, http.MethodGet, "/farms", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 without owner_id", rec.Code)
	}
}

func TestCreateLogDerivesQuantity(t *testing.T) {
	store := &memStore{}
	_, mux := newTestApp(store)

	rec := do(t, mux, http.MethodPost, "/logs",
		`{"farm_id":"`+uuid.NewString()+`","log_type":"biomass_check","unit":"kg","log_date":"2025-03-01","average_weight":0.5,"total_count":200}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(store.logs) != 1 || store.logs[0].Quantity != 100 {
		t.Errorf("stored logs = %+v, want one with derived quantity 100", store.logs)
	}
}

func TestCreateExpense(t *testing.T) {
	store := &memStore{}
	_, mux := newTestApp(store)

	rec := do(t, mux, http.MethodPost, "/expenses",
		`{"farm_id":"`+uuid.NewString()+`","expense_date":"2025-03-01","category":"feed","amount":150}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(store.expenses) != 1 {
		t.Fatalf("stored %d expenses, want 1", len(store.expenses))
	}
}

func TestCreateHarvestResolvesCycle(t *testing.T) {
	store := &memStore{}
	_, mux := newTestApp(store)

	rec := do(t, mux, http.MethodPost, "/harvests",
		`{"farm_id":"`+uuid.NewString()+`","harvest_date":"2025-03-10","quantity_kg":200,"sale_price_per_kg":12}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(store.cycles) != 1 {
		t.Fatalf("stored %d cycles, want an auto-created one", len(store.cycles))
	}
	if len(store.harvests) != 1 {
		t.Fatalf("stored %d harvests, want 1", len(store.harvests))
	}
	h := store.harvests[0]
	if h.CropCycleID != store.cycles[0].ID {
		t.Error("harvest not linked to the resolved cycle")
	}
	if h.RevenueRealized != 2400 {
		t.Errorf("RevenueRealized = %v, want 2400", h.RevenueRealized)
	}
}

func TestCreateHarvestReusesActiveCycle(t *testing.T) {
	farmID := uuid.New()
	cycleID := uuid.New()
	store := &memStore{
		cycles: []types.CropCycle{{ID: cycleID, FarmID: farmID, Status: types.CycleStatusActive}},
	}
	_, mux := newTestApp(store)

	rec := do(t, mux, http.MethodPost, "/harvests",
		`{"farm_id":"`+farmID.String()+`","harvest_date":"2025-03-10","quantity_kg":50}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(store.cycles) != 1 {
		t.Errorf("stored %d cycles, want the existing one reused", len(store.cycles))
	}
	if store.harvests[0].CropCycleID != cycleID {
		t.Error("harvest not linked to the active cycle")
	}
}

func TestCreateHarvestCycleFailureAbortsWrite(t *testing.T) {
	store := &memStore{insertCycleErr: errors.New("write timeout")}
	_, mux := newTestApp(store)

	rec := do(t, mux, http.MethodPost, "/harvests",
		`{"farm_id":"`+uuid.NewString()+`","harvest_date":"2025-03-10","quantity_kg":50}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decode(t, rec)
	if body["error"] != "failed to create tracking cycle for harvest" {
		t.Errorf("error = %v", body["error"])
	}
	if len(store.harvests) != 0 {
		t.Error("harvest written despite cycle resolution failure")
	}
}

func TestCreateReadingsFansOutPerDevice(t *testing.T) {
	store := &memStore{}
	_, mux := newTestApp(store)

	farmID := uuid.NewString()
	rec := do(t, mux, http.MethodPost, "/readings",
		`{"farm_id":"`+farmID+`","recorded_at":"2025-03-01T10:00:00Z","soil_moisture":42,"water_ph_level":7.1}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Soil and water devices auto-created, climate skipped entirely.
	if len(store.devices) != 2 {
		t.Fatalf("stored %d devices, want 2", len(store.devices))
	}
	if len(store.readings) != 2 {
		t.Fatalf("stored %d readings, want 2", len(store.readings))
	}
	body := decode(t, rec)
	if body["saved"] != float64(2) {
		t.Errorf("saved = %v, want 2", body["saved"])
	}
}

func TestCreateReadingsIdempotentDevices(t *testing.T) {
	store := &memStore{}
	_, mux := newTestApp(store)

	farmID := uuid.NewString()
	payload := `{"farm_id":"` + farmID + `","recorded_at":"2025-03-01","soil_moisture":42}`
	do(t, mux, http.MethodPost, "/readings", payload)
	do(t, mux, http.MethodPost, "/readings", payload)

	if len(store.devices) != 1 {
		t.Errorf("stored %d devices across two submissions, want 1", len(store.devices))
	}
	if len(store.readings) != 2 {
		t.Errorf("stored %d readings, want 2", len(store.readings))
	}
}

func TestCreateReadingsRejectsOutOfRange(t *testing.T) {
	store := &memStore{}
	_, mux := newTestApp(store)

	rec := do(t, mux, http.MethodPost, "/readings",
		`{"farm_id":"`+uuid.NewString()+`","recorded_at":"2025-03-01","soil_moisture":130}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(store.devices) != 0 || len(store.readings) != 0 {
		t.Error("rejected submission reached the store")
	}
}

func TestLatestFallsBackToStore(t *testing.T) {
	deviceID := uuid.New()
	store := &memStore{
		devices: []types.Device{{ID: deviceID, DeviceType: types.DeviceTypeSoilMoisture}},
		readings: []types.Reading{
			{DeviceID: deviceID, SoilMoisture: f(42), RecordedAt: time.Now()},
		},
	}
	_, mux := newTestApp(store)

	rec := do(t, mux, http.MethodGet, "/latest?device_id="+deviceID.String()+"&n=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	entries, ok := body["data"].([]any)
	if !ok || len(entries) != 1 {
		t.Errorf("data = %v, want one entry from the store fallback", body["data"])
	}
}

func TestLatestUnknownDevice(t *testing.T) {
	_, mux := newTestApp(&memStore{})
	rec := do(t, mux, http.MethodGet, "/latest?device_id="+uuid.NewString(), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	userID := uuid.New()
	farmID := uuid.New()
	store := &memStore{
		farms: []types.Farm{{ID: farmID, OwnerID: userID, Name: "Riverside", TotalArea: 2}},
	}
	_, mux := newTestApp(store)

	rec := do(t, mux, http.MethodGet, "/dashboard?user_id="+userID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("data = %v", body["data"])
	}
	if data["farm_count"] != float64(1) {
		t.Errorf("farm_count = %v, want 1", data["farm_count"])
	}
}

func TestFarmEndpointNotFound(t *testing.T) {
	_, mux := newTestApp(&memStore{})
	rec := do(t, mux, http.MethodGet, "/farm?farm_id="+uuid.NewString(), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestMethodGuards(t *testing.T) {
	_, mux := newTestApp(&memStore{})

	for _, target := range []string{"/logs", "/expenses", "/harvests", "/readings"} {
		rec := do(t, mux, http.MethodGet, target, "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("GET %s = %d, want 405", target, rec.Code)
		}
	}
	rec := do(t, mux, http.MethodDelete, "/dashboard", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE /dashboard = %d, want 405", rec.Code)
	}
}
