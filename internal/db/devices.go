package db

import (
	"context"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/khetsense/khetsense-api/internal/metrics"
	"github.com/khetsense/khetsense-api/pkg/types"
)

// GetDevice looks a device up by its natural key
// (farm_id, device_type, device_name). Nil when absent.
func (db *DB) GetDevice(farmID uuid.UUID, deviceType types.DeviceType, deviceName string) (*types.Device, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*500)
	defer cancel()

	var id gocql.UUID
	var isActive bool

	err := db.Meta.Query(`
SELECT id, is_active
FROM iot_devices
WHERE farm_id = ? AND device_type = ? AND device_name = ?
ALLOW FILTERING
`, gocql.UUID(farmID), string(deviceType), deviceName).WithContext(ctx).Scan(&id, &isActive)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}

	return &types.Device{
		ID:         uuid.UUID(id),
		FarmID:     farmID,
		DeviceName: deviceName,
		DeviceType: deviceType,
		IsActive:   isActive,
	}, nil
}

func (db *DB) GetDeviceByID(deviceID uuid.UUID) (*types.Device, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*500)
	defer cancel()

	var farmID gocql.UUID
	var deviceName, deviceType string
	var isActive bool

	err := db.Meta.Query(`
SELECT farm_id, device_name, device_type, is_active
FROM iot_devices
WHERE id = ?
ALLOW FILTERING
`, gocql.UUID(deviceID)).WithContext(ctx).Scan(&farmID, &deviceName, &deviceType, &isActive)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}

	return &types.Device{
		ID:         deviceID,
		FarmID:     uuid.UUID(farmID),
		DeviceName: deviceName,
		DeviceType: types.DeviceType(deviceType),
		IsActive:   isActive,
	}, nil
}

func (db *DB) GetDevicesByFarmID(farmID uuid.UUID) ([]types.Device, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*500)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DbReadLatencySeconds.WithLabelValues("devices_by_farm").Observe(time.Since(start).Seconds())
	}()

	query := db.Meta.Query(`
SELECT id, device_name, device_type, is_active
FROM iot_devices
WHERE farm_id = ?
`, gocql.UUID(farmID)).WithContext(ctx)

	var results []types.Device
	iter := query.Iter()

	var id gocql.UUID
	var deviceName, deviceType string
	var isActive bool

	for iter.Scan(&id, &deviceName, &deviceType, &isActive) {
		results = append(results, types.Device{
			ID:         uuid.UUID(id),
			FarmID:     farmID,
			DeviceName: deviceName,
			DeviceType: types.DeviceType(deviceType),
			IsActive:   isActive,
		})
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}

	return results, nil
}

func (db *DB) InsertDevice(d *types.Device) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*500)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DbWriteLatencySeconds.WithLabelValues("insert_device").Observe(time.Since(start).Seconds())
	}()

	d.ID = uuid.New()

	return db.Meta.Query(`
INSERT INTO iot_devices (farm_id, id, device_name, device_type, is_active)
VALUES (?, ?, ?, ?, ?)
`, gocql.UUID(d.FarmID), gocql.UUID(d.ID), d.DeviceName, string(d.DeviceType),
		d.IsActive).WithContext(ctx).Exec()
}
