package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/khetsense/khetsense-api/internal/metrics"
	"github.com/khetsense/khetsense-api/internal/resolve"
	"github.com/khetsense/khetsense-api/pkg/types"
	"github.com/khetsense/khetsense-api/pkg/utils"
)

func healthHandler(w http.ResponseWriter, r *http.Request) {
	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"state": "healthy",
	})
}

func (app *App) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.ReplyMethodNotAllowed(w)
		return
	}

	start := time.Now()
	defer func() {
		metrics.HttpRequestLatencySeconds.WithLabelValues("GET").Observe(time.Since(start).Seconds())
	}()

	userID, ok := queryUUID(w, r, "user_id")
	if !ok {
		return
	}

	dashboard, err := app.Reports.Dashboard(r.Context(), userID)
	if err != nil {
		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": dashboard,
	})
}

func (app *App) monitoringHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.ReplyMethodNotAllowed(w)
		return
	}

	userID, ok := queryUUID(w, r, "user_id")
	if !ok {
		return
	}

	monitoring, err := app.Reports.Monitoring(r.Context(), userID)
	if err != nil {
		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": monitoring,
	})
}

func (app *App) farmHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.ReplyMethodNotAllowed(w)
		return
	}

	farmID, ok := queryUUID(w, r, "farm_id")
	if !ok {
		return
	}

	detail, err := app.Reports.FarmDetail(r.Context(), farmID)
	if err != nil {
		utils.ReplyInternalServerError(w, err.Error())
		return
	}
	if detail == nil {
		utils.ReplyNotFound(w, "farm not found")
		return
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": detail,
	})
}

func (app *App) farmsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ownerID, ok := queryUUID(w, r, "owner_id")
		if !ok {
			return
		}

		farms, err := app.Store.GetFarmsByOwnerID(ownerID)
		if err != nil {
			utils.ReplyInternalServerError(w, fmt.Sprintf("db error: %v", err))
			return
		}

		utils.ReplyJSON(w, http.StatusOK, utils.Body{
			"data": farms,
		})

	case http.MethodPost:
		var req struct {
			OwnerID string `json:"owner_id"`
			types.FarmInput
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.ReplyBadRequest(w, "invalid request body")
			return
		}

		ownerID, err := uuid.Parse(req.OwnerID)
		if err != nil {
			utils.ReplyBadRequest(w, "invalid owner_id")
			return
		}

		farm, ferrs := req.FarmInput.Parse(ownerID)
		if ferrs != nil {
			replyValidation(w, ferrs)
			return
		}

		if err := app.Store.InsertFarm(&farm); err != nil {
			app.Logger.Error().Err(err).Msg("farm insert failed")
			utils.ReplyInternalServerError(w, "failed to create farm")
			return
		}

		utils.ReplyJSON(w, http.StatusCreated, utils.Body{
			"data": farm,
		})

	default:
		utils.ReplyMethodNotAllowed(w)
	}
}

func (app *App) logsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.ReplyMethodNotAllowed(w)
		return
	}

	var req types.LogInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ReplyBadRequest(w, "invalid request body")
		return
	}

	logEntry, ferrs := req.Parse()
	if ferrs != nil {
		replyValidation(w, ferrs)
		return
	}

	if err := app.Store.InsertLog(&logEntry); err != nil {
		app.Logger.Error().Err(err).Msg("log insert failed")
		utils.ReplyInternalServerError(w, "failed to add log")
		return
	}

	utils.ReplyJSON(w, http.StatusCreated, utils.Body{
		"data": logEntry,
	})
}

func (app *App) expensesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.ReplyMethodNotAllowed(w)
		return
	}

	var req types.ExpenseInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ReplyBadRequest(w, "invalid request body")
		return
	}

	expense, ferrs := req.Parse()
	if ferrs != nil {
		replyValidation(w, ferrs)
		return
	}

	if err := app.Store.InsertExpense(&expense); err != nil {
		app.Logger.Error().Err(err).Msg("expense insert failed")
		utils.ReplyInternalServerError(w, "failed to add expense")
		return
	}

	utils.ReplyJSON(w, http.StatusCreated, utils.Body{
		"data": expense,
	})
}

func (app *App) harvestsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.ReplyMethodNotAllowed(w)
		return
	}

	var req types.HarvestInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ReplyBadRequest(w, "invalid request body")
		return
	}

	farmID, harvest, ferrs := req.Parse()
	if ferrs != nil {
		replyValidation(w, ferrs)
		return
	}

	// The cycle must resolve before the harvest insert; a failed
	// resolution aborts the write, leaving no orphaned harvest.
	cycleID, err := app.Resolver.CropCycleForHarvest(farmID)
	if err != nil {
		var cycleErr *resolve.CycleCreationError
		if errors.As(err, &cycleErr) {
			app.Logger.Error().Err(err).Str("farm_id", farmID.String()).Msg("cycle resolution failed")
			utils.ReplyInternalServerError(w, "failed to create tracking cycle for harvest")
			return
		}
		utils.ReplyInternalServerError(w, err.Error())
		return
	}
	harvest.CropCycleID = cycleID

	if err := app.Store.InsertHarvest(&harvest); err != nil {
		app.Logger.Error().Err(err).Msg("harvest insert failed")
		utils.ReplyInternalServerError(w, "failed to add harvest")
		return
	}

	utils.ReplyJSON(w, http.StatusCreated, utils.Body{
		"data": harvest,
	})
}

// primaryMetric selects the headline field cached per device type.
func primaryMetric(deviceType types.DeviceType, reading types.Reading) *float64 {
	switch deviceType {
	case types.DeviceTypeSoilMoisture:
		return reading.SoilMoisture
	case types.DeviceTypeWaterQuality:
		return reading.PHLevel
	case types.DeviceTypeClimateStation:
		return reading.Temperature
	default:
		return nil
	}
}

func (app *App) readingsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.ReplyMethodNotAllowed(w)
		return
	}

	var req types.ReadingInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ReplyBadRequest(w, "invalid request body")
		return
	}

	farmID, recordedAt, groups, ferrs := req.Parse()
	if ferrs != nil {
		replyValidation(w, ferrs)
		return
	}

	saved := 0
	for _, group := range groups {
		if !group.HasData() {
			continue
		}

		// Resolve before insert: a failed resolution must not leave an
		// orphaned reading behind.
		deviceID, err := app.Resolver.Device(farmID, group.DeviceType, group.DeviceName)
		if err != nil {
			app.Logger.Error().Err(err).Str("device", group.DeviceName).Msg("device resolution failed")
			utils.ReplyInternalServerError(w, fmt.Sprintf("failed to save %s readings", group.DeviceName))
			return
		}

		reading := group.Values
		reading.DeviceID = deviceID
		reading.RecordedAt = recordedAt

		if err := app.Store.InsertReading(&reading); err != nil {
			app.Logger.Error().Err(err).Str("device", group.DeviceName).Msg("reading insert failed")
			utils.ReplyInternalServerError(w, fmt.Sprintf("failed to save %s readings", group.DeviceName))
			return
		}
		saved++

		if v := primaryMetric(group.DeviceType, reading); v != nil {
			key := fmt.Sprintf("device:%s", deviceID)
			if err := app.Cache.Store(key, types.Entry{Timestamp: recordedAt, Value: *v}); err != nil {
				app.Logger.Debug().Err(err).Str("device", group.DeviceName).Msg("reading cache store failed")
			}
		}
	}

	utils.ReplyJSON(w, http.StatusCreated, utils.Body{
		"saved":   saved,
		"message": "readings recorded successfully",
	})
}

func (app *App) latestHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.ReplyMethodNotAllowed(w)
		return
	}

	deviceID, ok := queryUUID(w, r, "device_id")
	if !ok {
		return
	}

	n := 5
	if nStr := r.URL.Query().Get("n"); nStr != "" {
		parsed, err := strconv.Atoi(nStr)
		if err != nil || parsed < 1 {
			utils.ReplyBadRequest(w, "invalid n")
			return
		}
		n = parsed
	}

	key := fmt.Sprintf("device:%s", deviceID)
	entries, err := app.Cache.FetchLast(key, n)
	if err != nil {
		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	// Fewer than asked for: cache is cold or stale, refill from the store.
	if len(entries) < n {
		device, err := app.Store.GetDeviceByID(deviceID)
		if err != nil {
			utils.ReplyInternalServerError(w, fmt.Sprintf("db error: %v", err))
			return
		}
		if device == nil {
			utils.ReplyNotFound(w, "device not found")
			return
		}

		readings, err := app.Store.GetReadingsByDeviceID(deviceID, n)
		if err != nil {
			utils.ReplyInternalServerError(w, fmt.Sprintf("db error: %v", err))
			return
		}

		entries = entries[:0]
		for _, reading := range readings {
			v := primaryMetric(device.DeviceType, reading)
			if v == nil {
				continue
			}
			entry := types.Entry{Timestamp: reading.RecordedAt, Value: *v}
			entries = append(entries, entry)
			if err := app.Cache.Store(key, entry); err != nil {
				app.Logger.Debug().Err(err).Msg("latest cache refill failed")
			}
		}
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": entries,
	})
}

func queryUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		utils.ReplyBadRequest(w, "missing "+param)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.ReplyBadRequest(w, "invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}

func replyValidation(w http.ResponseWriter, ferrs types.FieldErrors) {
	utils.ReplyJSON(w, http.StatusBadRequest, utils.Body{
		"error":  ferrs.Error(),
		"fields": ferrs,
	})
}
