package db

import (
	"context"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/khetsense/khetsense-api/internal/metrics"
	"github.com/khetsense/khetsense-api/pkg/types"
)

func scanCycle(iter *gocql.Iter, farmID uuid.UUID) (types.CropCycle, bool) {
	var id gocql.UUID
	var cropName, cropType, status string
	var startDate, createdAt time.Time
	var endDate *time.Time

	if !iter.Scan(&id, &cropName, &cropType, &status, &startDate, &endDate, &createdAt) {
		return types.CropCycle{}, false
	}
	return types.CropCycle{
		ID:        uuid.UUID(id),
		FarmID:    farmID,
		CropName:  cropName,
		CropType:  types.CropType(cropType),
		Status:    types.CycleStatus(status),
		StartDate: startDate,
		EndDate:   endDate,
		CreatedAt: createdAt,
	}, true
}

func (db *DB) GetCyclesByFarmID(farmID uuid.UUID) ([]types.CropCycle, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*500)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DbReadLatencySeconds.WithLabelValues("cycles_by_farm").Observe(time.Since(start).Seconds())
	}()

	query := db.Meta.Query(`
SELECT id, crop_name, crop_type, status, start_date, end_date, created_at
FROM crop_cycles
WHERE farm_id = ?
ORDER BY created_at DESC
`, gocql.UUID(farmID)).WithContext(ctx)

	var results []types.CropCycle
	iter := query.Iter()
	for {
		cycle, ok := scanCycle(iter, farmID)
		if !ok {
			break
		}
		results = append(results, cycle)
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}

	return results, nil
}

// GetActiveCycle returns the farm's active crop cycle, limited to one
// match, or nil when the farm has none.
func (db *DB) GetActiveCycle(farmID uuid.UUID) (*types.CropCycle, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*500)
	defer cancel()

	query := db.Meta.Query(`
SELECT id, crop_name, crop_type, status, start_date, end_date, created_at
FROM crop_cycles
WHERE farm_id = ? AND status = ?
LIMIT 1
ALLOW FILTERING
`, gocql.UUID(farmID), string(types.CycleStatusActive)).WithContext(ctx)

	iter := query.Iter()
	cycle, ok := scanCycle(iter, farmID)
	if err := iter.Close(); err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &cycle, nil
}

// GetNewestCycle returns the most recently created cycle regardless of
// status, or nil when the farm has no cycles at all.
func (db *DB) GetNewestCycle(farmID uuid.UUID) (*types.CropCycle, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*500)
	defer cancel()

	query := db.Meta.Query(`
SELECT id, crop_name, crop_type, status, start_date, end_date, created_at
FROM crop_cycles
WHERE farm_id = ?
ORDER BY created_at DESC
LIMIT 1
`, gocql.UUID(farmID)).WithContext(ctx)

	iter := query.Iter()
	cycle, ok := scanCycle(iter, farmID)
	if err := iter.Close(); err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &cycle, nil
}

func (db *DB) InsertCycle(c *types.CropCycle) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*500)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DbWriteLatencySeconds.WithLabelValues("insert_cycle").Observe(time.Since(start).Seconds())
	}()

	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()

	return db.Meta.Query(`
INSERT INTO crop_cycles (farm_id, id, crop_name, crop_type, status, start_date, end_date, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, gocql.UUID(c.FarmID), gocql.UUID(c.ID), c.CropName, string(c.CropType),
		string(c.Status), c.StartDate, c.EndDate, c.CreatedAt).WithContext(ctx).Exec()
}
