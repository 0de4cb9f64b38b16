package kpi

import (
	"time"

	"github.com/google/uuid"
	"github.com/khetsense/khetsense-api/pkg/types"
)

type Status string

const (
	StatusGood     Status = "good"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// MetricKey is the semantic identity of a sensor card. Two devices
// reporting the same key collapse into one card.
type MetricKey string

const (
	MetricSoilMoisture    MetricKey = "soil_moisture"
	MetricSoilPH          MetricKey = "soil_ph"
	MetricWaterPH         MetricKey = "water_ph"
	MetricDissolvedOxygen MetricKey = "dissolved_oxygen"
	MetricTemperature     MetricKey = "temperature"
	MetricHumidity        MetricKey = "humidity"
)

// Source selects one value field out of a raw reading row. Nil means
// the row holds no data for that field, never zero.
type Source func(types.Reading) *float64

func SourceSoilMoisture(r types.Reading) *float64    { return r.SoilMoisture }
func SourcePHLevel(r types.Reading) *float64         { return r.PHLevel }
func SourceDissolvedOxygen(r types.Reading) *float64 { return r.DissolvedOxygen }
func SourceTemperature(r types.Reading) *float64     { return r.Temperature }
func SourceHumidity(r types.Reading) *float64        { return r.Humidity }

type statusRule func(v *float64, th Thresholds) Status

func soilMoistureStatus(v *float64, th Thresholds) Status {
	if v == nil || *v < th.SoilMoistureWarn {
		return StatusWarning
	}
	return StatusGood
}

func phStatus(v *float64, th Thresholds) Status {
	if v == nil || *v < th.PHMin || *v > th.PHMax {
		return StatusWarning
	}
	return StatusGood
}

func dissolvedOxygenStatus(v *float64, th Thresholds) Status {
	switch {
	case v == nil:
		return StatusWarning
	case *v < th.DOCritical:
		return StatusCritical
	default:
		return StatusGood
	}
}

func alwaysGood(_ *float64, _ Thresholds) Status { return StatusGood }

type metricSpec struct {
	Key    MetricKey
	Unit   string
	Source Source
	Status statusRule
}

// deviceMetrics maps each device type to the metric cards its readings
// feed. Water pH intentionally keeps the always-good rule observed in
// production; whether it should share the soil pH band is an open
// question for the product owners.
var deviceMetrics = map[types.DeviceType][]metricSpec{
	types.DeviceTypeSoilMoisture: {
		{MetricSoilMoisture, "%", SourceSoilMoisture, soilMoistureStatus},
		{MetricSoilPH, " pH", SourcePHLevel, phStatus},
	},
	types.DeviceTypeWaterQuality: {
		{MetricWaterPH, " pH", SourcePHLevel, alwaysGood},
		{MetricDissolvedOxygen, "mg/L", SourceDissolvedOxygen, dissolvedOxygenStatus},
	},
	types.DeviceTypeClimateStation: {
		{MetricTemperature, "°C", SourceTemperature, alwaysGood},
		{MetricHumidity, "%", SourceHumidity, alwaysGood},
	},
}

// MetricCard is one live sensor tile on the monitoring view.
type MetricCard struct {
	Metric     MetricKey `json:"metric"`
	Value      *float64  `json:"value"`
	Unit       string    `json:"unit"`
	Status     Status    `json:"status"`
	DeviceID   uuid.UUID `json:"device_id"`
	RecordedAt time.Time `json:"recorded_at"`
}

// LatestMetric scans readings newest-to-oldest and returns the first
// value of the wanted field recorded by a device of the given type.
// Nil means no such reading exists; a recorded zero comes back as zero.
func LatestMetric(
	readings []types.Reading,
	typeOf map[uuid.UUID]types.DeviceType,
	dt types.DeviceType,
	source Source,
) *float64 {
	for _, r := range readings {
		if typeOf[r.DeviceID] != dt {
			continue
		}
		if v := source(r); v != nil {
			return v
		}
	}
	return nil
}

// BuildCards assembles one card per semantic metric for a farm's
// devices. Each device contributes the cards of its type, valued from
// its most recent reading; when several devices map to the same metric
// key, the card with the greatest recorded_at wins.
func BuildCards(devices []types.Device, readings []types.Reading, th Thresholds) []MetricCard {
	best := make(map[MetricKey]MetricCard)
	var order []MetricKey

	for _, d := range devices {
		latest, ok := latestReadingFor(d.ID, readings)
		if !ok {
			continue
		}
		for _, spec := range deviceMetrics[d.DeviceType] {
			v := spec.Source(latest)
			card := MetricCard{
				Metric:     spec.Key,
				Value:      v,
				Unit:       spec.Unit,
				Status:     spec.Status(v, th),
				DeviceID:   d.ID,
				RecordedAt: latest.RecordedAt,
			}
			cur, seen := best[spec.Key]
			if !seen {
				order = append(order, spec.Key)
				best[spec.Key] = card
			} else if card.RecordedAt.After(cur.RecordedAt) {
				best[spec.Key] = card
			}
		}
	}

	cards := make([]MetricCard, 0, len(order))
	for _, key := range order {
		cards = append(cards, best[key])
	}
	return cards
}

// latestReadingFor expects readings sorted newest-first, as the store
// returns them.
func latestReadingFor(deviceID uuid.UUID, readings []types.Reading) (types.Reading, bool) {
	for _, r := range readings {
		if r.DeviceID == deviceID {
			return r, true
		}
	}
	return types.Reading{}, false
}
