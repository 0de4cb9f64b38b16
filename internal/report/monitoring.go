package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/khetsense/khetsense-api/internal/kpi"
	"github.com/khetsense/khetsense-api/pkg/types"
)

// FarmMonitor is one farm's block of live sensor cards.
type FarmMonitor struct {
	FarmID   uuid.UUID        `json:"farm_id"`
	FarmName string           `json:"farm_name"`
	Cards    []kpi.MetricCard `json:"cards"`
}

// Monitoring is the live view across every farm the user owns.
type Monitoring struct {
	DeviceCount int           `json:"device_count"`
	Farms       []FarmMonitor `json:"farms"`
}

// Monitoring builds the live sensor view. Per-farm device or reading
// failures degrade that farm to an empty card list.
func (b *Builder) Monitoring(ctx context.Context, userID uuid.UUID) (*Monitoring, error) {
	farms, err := b.store.GetFarmsByOwnerID(userID)
	if err != nil {
		return nil, fmt.Errorf("fetch farms: %w", err)
	}

	out := &Monitoring{Farms: make([]FarmMonitor, 0, len(farms))}

	for _, farm := range farms {
		monitor := FarmMonitor{FarmID: farm.ID, FarmName: farm.Name}

		devices, err := b.store.GetDevicesByFarmID(farm.ID)
		if err != nil {
			b.degrade("iot_devices", err)
			out.Farms = append(out.Farms, monitor)
			continue
		}
		out.DeviceCount += len(devices)

		var readings []types.Reading
		if len(devices) > 0 {
			deviceIDs := make([]uuid.UUID, 0, len(devices))
			for _, d := range devices {
				deviceIDs = append(deviceIDs, d.ID)
			}
			readings, err = b.store.GetReadingsByDeviceIDs(deviceIDs, readingsWindow)
			if err != nil {
				b.degrade("iot_readings", err)
				readings = nil
			}
		}

		monitor.Cards = kpi.BuildCards(devices, readings, b.opts.Thresholds)
		out.Farms = append(out.Farms, monitor)
	}

	return out, nil
}
