package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/khetsense/khetsense-api/internal/kpi"
	"github.com/khetsense/khetsense-api/pkg/types"
)

// LogRow is one formatted line of the operations table.
type LogRow struct {
	ID       uuid.UUID     `json:"id"`
	Date     time.Time     `json:"date"`
	Type     types.LogType `json:"type"`
	Quantity float64       `json:"quantity"`
	Unit     string        `json:"unit"`
	Notes    string        `json:"notes"`
}

// FarmDetail is the single-farm report: production, agronomy and the
// raw operations log.
type FarmDetail struct {
	FarmID   uuid.UUID `json:"farm_id"`
	FarmName string    `json:"farm_name"`

	TotalYield      float64 `json:"total_yield"`
	TotalRevenue    float64 `json:"total_revenue"`
	CurrentBiomass  float64 `json:"current_biomass"`
	GrowthVelocity  string  `json:"growth_velocity"`
	MortalityEvents int     `json:"mortality_events"`

	FeedConsumption float64 `json:"feed_consumption"`
	WaterUsage      float64 `json:"water_usage"`

	// Latest sensor values per (device type, field). Nil means no
	// reading carries the field, which is not the same as zero.
	SoilMoisture    *float64 `json:"soil_moisture"`
	SoilPH          *float64 `json:"soil_ph"`
	WaterPH         *float64 `json:"water_ph"`
	DissolvedOxygen *float64 `json:"dissolved_oxygen"`
	Temperature     *float64 `json:"temperature"`
	Humidity        *float64 `json:"humidity"`

	Logs           []LogRow        `json:"logs"`
	RecentHarvests []types.Harvest `json:"recent_harvests"`
}

// FarmDetail builds the single-farm report. The farm record itself is
// the only hard dependency.
func (b *Builder) FarmDetail(ctx context.Context, farmID uuid.UUID) (*FarmDetail, error) {
	farm, err := b.store.GetFarmByID(farmID)
	if err != nil {
		return nil, fmt.Errorf("fetch farm: %w", err)
	}
	if farm == nil {
		return nil, nil
	}

	logs, err := b.store.GetLogsByFarmID(farmID)
	if err != nil {
		b.degrade("operational_logs", err)
		logs = nil
	}

	harvests := b.harvestsForFarms([]uuid.UUID{farmID})

	devices, err := b.store.GetDevicesByFarmID(farmID)
	if err != nil {
		b.degrade("iot_devices", err)
		devices = nil
	}

	var readings []types.Reading
	typeOf := make(map[uuid.UUID]types.DeviceType, len(devices))
	if len(devices) > 0 {
		deviceIDs := make([]uuid.UUID, 0, len(devices))
		for _, d := range devices {
			deviceIDs = append(deviceIDs, d.ID)
			typeOf[d.ID] = d.DeviceType
		}
		readings, err = b.store.GetReadingsByDeviceIDs(deviceIDs, readingsWindow)
		if err != nil {
			b.degrade("iot_readings", err)
			readings = nil
		}
	}

	rows := make([]LogRow, 0, len(logs))
	for _, l := range logs {
		rows = append(rows, LogRow{
			ID:       l.ID,
			Date:     l.LogDate,
			Type:     l.LogType,
			Quantity: l.Quantity,
			Unit:     l.Unit,
			Notes:    l.Notes,
		})
	}

	return &FarmDetail{
		FarmID:   farmID,
		FarmName: farm.Name,

		TotalYield:      kpi.TotalYield(harvests),
		TotalRevenue:    kpi.TotalRevenue(harvests),
		CurrentBiomass:  kpi.CurrentBiomass(logs),
		GrowthVelocity:  kpi.GrowthVelocity(logs),
		MortalityEvents: kpi.CountLogs(logs, types.LogTypeMortality),

		FeedConsumption: kpi.SumQuantity(logs, types.LogTypeFeedInput),
		WaterUsage:      kpi.SumQuantity(logs, types.LogTypeWaterUsage),

		SoilMoisture:    kpi.LatestMetric(readings, typeOf, types.DeviceTypeSoilMoisture, kpi.SourceSoilMoisture),
		SoilPH:          kpi.LatestMetric(readings, typeOf, types.DeviceTypeSoilMoisture, kpi.SourcePHLevel),
		WaterPH:         kpi.LatestMetric(readings, typeOf, types.DeviceTypeWaterQuality, kpi.SourcePHLevel),
		DissolvedOxygen: kpi.LatestMetric(readings, typeOf, types.DeviceTypeWaterQuality, kpi.SourceDissolvedOxygen),
		Temperature:     kpi.LatestMetric(readings, typeOf, types.DeviceTypeClimateStation, kpi.SourceTemperature),
		Humidity:        kpi.LatestMetric(readings, typeOf, types.DeviceTypeClimateStation, kpi.SourceHumidity),

		Logs:           rows,
		RecentHarvests: harvests,
	}, nil
}
