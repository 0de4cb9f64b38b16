package db

import (
	"context"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/khetsense/khetsense-api/internal/metrics"
	"github.com/khetsense/khetsense-api/pkg/types"
)

func (db *DB) GetFarmsByOwnerID(ownerID uuid.UUID) ([]types.Farm, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*500)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DbReadLatencySeconds.WithLabelValues("farms_by_owner").Observe(time.Since(start).Seconds())
	}()

	query := db.Meta.Query(`
SELECT id, name, location, total_area, created_at
FROM farms
WHERE owner_id = ?
`, gocql.UUID(ownerID)).WithContext(ctx)

	var results []types.Farm
	iter := query.Iter()

	var id gocql.UUID
	var name, location string
	var totalArea float64
	var createdAt time.Time

	for iter.Scan(&id, &name, &location, &totalArea, &createdAt) {
		results = append(results, types.Farm{
			ID:        uuid.UUID(id),
			OwnerID:   ownerID,
			Name:      name,
			Location:  location,
			TotalArea: totalArea,
			CreatedAt: createdAt,
		})
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}

	return results, nil
}

func (db *DB) GetFarmByID(farmID uuid.UUID) (*types.Farm, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*500)
	defer cancel()

	var ownerID gocql.UUID
	var name, location string
	var totalArea float64
	var createdAt time.Time

	err := db.Meta.Query(`
SELECT owner_id, name, location, total_area, created_at
FROM farms
WHERE id = ?
ALLOW FILTERING
`, gocql.UUID(farmID)).WithContext(ctx).Scan(&ownerID, &name, &location, &totalArea, &createdAt)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}

	return &types.Farm{
		ID:        farmID,
		OwnerID:   uuid.UUID(ownerID),
		Name:      name,
		Location:  location,
		TotalArea: totalArea,
		CreatedAt: createdAt,
	}, nil
}

func (db *DB) InsertFarm(farm *types.Farm) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*500)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DbWriteLatencySeconds.WithLabelValues("insert_farm").Observe(time.Since(start).Seconds())
	}()

	farm.ID = uuid.New()
	farm.CreatedAt = time.Now().UTC()

	return db.Meta.Query(`
INSERT INTO farms (id, owner_id, name, location, total_area, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, gocql.UUID(farm.ID), gocql.UUID(farm.OwnerID), farm.Name, farm.Location,
		farm.TotalArea, farm.CreatedAt).WithContext(ctx).Exec()
}
