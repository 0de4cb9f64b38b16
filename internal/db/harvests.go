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

// GetHarvestsByCycleID returns one cycle's harvests newest-first.
func (db *DB) GetHarvestsByCycleID(cycleID uuid.UUID) ([]types.Harvest, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*500)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DbReadLatencySeconds.WithLabelValues("harvests_by_cycle").Observe(time.Since(start).Seconds())
	}()

	query := db.Data.Query(`
SELECT id, harvest_date, quantity_kg, wastage_kg, quality_grade, market_price_per_kg, sale_price_per_kg, revenue_realized
FROM harvests
WHERE crop_cycle_id = ?
ORDER BY harvest_date DESC
`, gocql.UUID(cycleID)).WithContext(ctx)

	var results []types.Harvest
	iter := query.Iter()

	var id gocql.UUID
	var grade string
	var harvestDate time.Time
	var quantityKg, wastageKg, marketPrice, salePrice, revenue float64

	for iter.Scan(&id, &harvestDate, &quantityKg, &wastageKg, &grade, &marketPrice, &salePrice, &revenue) {
		results = append(results, types.Harvest{
			ID:               uuid.UUID(id),
			CropCycleID:      cycleID,
			HarvestDate:      harvestDate,
			QuantityKg:       quantityKg,
			WastageKg:        wastageKg,
			QualityGrade:     types.QualityGrade(grade),
			MarketPricePerKg: marketPrice,
			SalePricePerKg:   salePrice,
			RevenueRealized:  revenue,
		})
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}

	return results, nil
}

// GetHarvestsByCycleIDs merges the harvests of several cycles, which is
// how harvests are scoped to a farm: the link runs through crop_cycles,
// never through farm_id directly.
func (db *DB) GetHarvestsByCycleIDs(cycleIDs []uuid.UUID) ([]types.Harvest, error) {
	var all []types.Harvest
	for _, id := range cycleIDs {
		harvests, err := db.GetHarvestsByCycleID(id)
		if err != nil {
			return nil, err
		}
		all = append(all, harvests...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].HarvestDate.After(all[j].HarvestDate)
	})
	return all, nil
}

func (db *DB) InsertHarvest(h *types.Harvest) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*500)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DbWriteLatencySeconds.WithLabelValues("insert_harvest").Observe(time.Since(start).Seconds())
	}()

	h.ID = uuid.New()

	return db.Data.Query(`
INSERT INTO harvests (crop_cycle_id, id, harvest_date, quantity_kg, wastage_kg, quality_grade, market_price_per_kg, sale_price_per_kg, revenue_realized)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, gocql.UUID(h.CropCycleID), gocql.UUID(h.ID), h.HarvestDate, h.QuantityKg,
		h.WastageKg, string(h.QualityGrade), h.MarketPricePerKg, h.SalePricePerKg,
		h.RevenueRealized).WithContext(ctx).Exec()
}
