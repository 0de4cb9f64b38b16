package db

import (
	"context"
	"sort"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/khetsense/khetsense-api/internal/metrics"
	"github.com/khetsense/khetsense-api/pkg/types"
)

const readingColumns = `id, recorded_at, soil_moisture, ph_level, npk_nitrogen, npk_phosphorus, npk_potassium, dissolved_oxygen, temperature, humidity, ammonia, nitrate, salinity`

func scanReading(iter *gocql.Iter, deviceID uuid.UUID) (types.Reading, bool) {
	var id gocql.UUID
	var recordedAt time.Time
	r := types.Reading{}

	if !iter.Scan(&id, &recordedAt,
		&r.SoilMoisture, &r.PHLevel,
		&r.NPKNitrogen, &r.NPKPhosphorus, &r.NPKPotassium,
		&r.DissolvedOxygen, &r.Temperature, &r.Humidity,
		&r.Ammonia, &r.Nitrate, &r.Salinity) {
		return types.Reading{}, false
	}
	r.ID = uuid.UUID(id)
	r.DeviceID = deviceID
	r.RecordedAt = recordedAt
	return r, true
}

// GetReadingsByDeviceID returns one device's readings newest-first, up
// to limit rows.
func (db *DB) GetReadingsByDeviceID(deviceID uuid.UUID, limit int) ([]types.Reading, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DbReadLatencySeconds.WithLabelValues("readings_by_device").Observe(time.Since(start).Seconds())
	}()

	query := db.Data.Query(`
SELECT `+readingColumns+`
FROM iot_readings
WHERE device_id = ?
ORDER BY recorded_at DESC
LIMIT ?
`, gocql.UUID(deviceID), limit).WithContext(ctx)

	var results []types.Reading
	iter := query.Iter()
	for {
		r, ok := scanReading(iter, deviceID)
		if !ok {
			break
		}
		results = append(results, r)
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}

	return results, nil
}

// GetReadingsByDeviceIDs merges several devices' readings, orders the
// union newest-first, then truncates to limit. Ordering before the cut
// keeps the window honest when one device dominates.
func (db *DB) GetReadingsByDeviceIDs(deviceIDs []uuid.UUID, limit int) ([]types.Reading, error) {
	var all []types.Reading
	for _, id := range deviceIDs {
		readings, err := db.GetReadingsByDeviceID(id, limit)
		if err != nil {
			return nil, err
		}
		all = append(all, readings...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].RecordedAt.After(all[j].RecordedAt)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// GetLatestReading returns the single most recent reading across every
// device in the system, or nil when none exist. The table is
// partitioned by device, so this scans a bounded window and picks the
// newest row in memory.
func (db *DB) GetLatestReading() (*types.Reading, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DbReadLatencySeconds.WithLabelValues("latest_reading").Observe(time.Since(start).Seconds())
	}()

	query := db.Data.Query(`
SELECT device_id, `+readingColumns+`
FROM iot_readings
LIMIT 500
`).WithContext(ctx)

	iter := query.Iter()

	var best *types.Reading
	for {
		var deviceID gocql.UUID
		var id gocql.UUID
		var recordedAt time.Time
		r := types.Reading{}
		if !iter.Scan(&deviceID, &id, &recordedAt,
			&r.SoilMoisture, &r.PHLevel,
			&r.NPKNitrogen, &r.NPKPhosphorus, &r.NPKPotassium,
			&r.DissolvedOxygen, &r.Temperature, &r.Humidity,
			&r.Ammonia, &r.Nitrate, &r.Salinity) {
			break
		}
		r.ID = uuid.UUID(id)
		r.DeviceID = uuid.UUID(deviceID)
		r.RecordedAt = recordedAt
		if best == nil || r.RecordedAt.After(best.RecordedAt) {
			copied := r
			best = &copied
		}
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}

	return best, nil
}

func (db *DB) InsertReading(r *types.Reading) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*500)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DbWriteLatencySeconds.WithLabelValues("insert_reading").Observe(time.Since(start).Seconds())
	}()

	r.ID = uuid.New()

	return db.Data.Query(`
INSERT INTO iot_readings (device_id, id, recorded_at, soil_moisture, ph_level, npk_nitrogen, npk_phosphorus, npk_potassium, dissolved_oxygen, temperature, humidity, ammonia, nitrate, salinity)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, gocql.UUID(r.DeviceID), gocql.UUID(r.ID), r.RecordedAt,
		r.SoilMoisture, r.PHLevel,
		r.NPKNitrogen, r.NPKPhosphorus, r.NPKPotassium,
		r.DissolvedOxygen, r.Temperature, r.Humidity,
		r.Ammonia, r.Nitrate, r.Salinity).WithContext(ctx).Exec()
}
