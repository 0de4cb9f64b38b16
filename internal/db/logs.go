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

// GetLogsByFarmID returns a farm's operational logs newest-first.
func (db *DB) GetLogsByFarmID(farmID uuid.UUID) ([]types.OperationalLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DbReadLatencySeconds.WithLabelValues("logs_by_farm").Observe(time.Since(start).Seconds())
	}()

	query := db.Data.Query(`
SELECT id, log_type, quantity, unit, log_date, notes, average_weight, total_count
FROM operational_logs
WHERE farm_id = ?
ORDER BY log_date DESC
`, gocql.UUID(farmID)).WithContext(ctx)

	var results []types.OperationalLog
	iter := query.Iter()

	var id gocql.UUID
	var logType, unit, notes string
	var quantity float64
	var logDate time.Time
	var avgWeight, totalCount *float64

	for iter.Scan(&id, &logType, &quantity, &unit, &logDate, &notes, &avgWeight, &totalCount) {
		results = append(results, types.OperationalLog{
			ID:            uuid.UUID(id),
			FarmID:        farmID,
			LogType:       types.LogType(logType),
			Quantity:      quantity,
			Unit:          unit,
			LogDate:       logDate,
			Notes:         notes,
			AverageWeight: avgWeight,
			TotalCount:    totalCount,
		})
		avgWeight, totalCount = nil, nil
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}

	return results, nil
}

// GetLogsByFarmIDs merges the logs of several farms, newest-first.
func (db *DB) GetLogsByFarmIDs(farmIDs []uuid.UUID) ([]types.OperationalLog, error) {
	var all []types.OperationalLog
	for _, id := range farmIDs {
		logs, err := db.GetLogsByFarmID(id)
		if err != nil {
			return nil, err
		}
		all = append(all, logs...)
	}
	sortLogsDesc(all)
	return all, nil
}

func (db *DB) InsertLog(l *types.OperationalLog) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*500)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DbWriteLatencySeconds.WithLabelValues("insert_log").Observe(time.Since(start).Seconds())
	}()

	l.ID = uuid.New()

	return db.Data.Query(`
INSERT INTO operational_logs (farm_id, id, log_type, quantity, unit, log_date, notes, average_weight, total_count)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, gocql.UUID(l.FarmID), gocql.UUID(l.ID), string(l.LogType), l.Quantity, l.Unit,
		l.LogDate, l.Notes, l.AverageWeight, l.TotalCount).WithContext(ctx).Exec()
}

func sortLogsDesc(logs []types.OperationalLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].LogDate.After(logs[j].LogDate)
	})
}
