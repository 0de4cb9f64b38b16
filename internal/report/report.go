// Package report assembles the dashboard view models. It orchestrates
// record store reads for a scope (one farm, or all farms a user owns)
// and folds the fetched sets through the kpi reducers. Scope filtering
// happens in the store queries; reducers never re-filter.
package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/khetsense/khetsense-api/internal/cache"
	"github.com/khetsense/khetsense-api/internal/kpi"
	"github.com/khetsense/khetsense-api/internal/metrics"
	"github.com/khetsense/khetsense-api/pkg/types"
	"github.com/rs/zerolog"
)

// readingsWindow bounds how many recent readings a report considers.
const readingsWindow = 200

// Store is the slice of the record store the report builder reads.
type Store interface {
	GetFarmsByOwnerID(ownerID uuid.UUID) ([]types.Farm, error)
	GetFarmByID(farmID uuid.UUID) (*types.Farm, error)
	GetLogsByFarmID(farmID uuid.UUID) ([]types.OperationalLog, error)
	GetLogsByFarmIDs(farmIDs []uuid.UUID) ([]types.OperationalLog, error)
	GetExpensesByFarmID(farmID uuid.UUID) ([]types.Expense, error)
	GetExpensesByFarmIDs(farmIDs []uuid.UUID) ([]types.Expense, error)
	GetCyclesByFarmID(farmID uuid.UUID) ([]types.CropCycle, error)
	GetHarvestsByCycleIDs(cycleIDs []uuid.UUID) ([]types.Harvest, error)
	GetDevicesByFarmID(farmID uuid.UUID) ([]types.Device, error)
	GetReadingsByDeviceIDs(deviceIDs []uuid.UUID, limit int) ([]types.Reading, error)
	GetLatestReading() (*types.Reading, error)
}

type Options struct {
	InitialStock float64
	Thresholds   kpi.Thresholds
	CacheTTL     time.Duration
}

type Builder struct {
	store  Store
	cache  cache.Cache
	logger zerolog.Logger
	opts   Options
	now    func() time.Time
}

func New(store Store, c cache.Cache, logger zerolog.Logger, opts Options) *Builder {
	if opts.CacheTTL == 0 {
		opts.CacheTTL = time.Minute
	}
	return &Builder{
		store:  store,
		cache:  c,
		logger: logger,
		opts:   opts,
		now:    time.Now,
	}
}

// degrade records a failed secondary read. The report continues with an
// empty dataset; dashboards stay partially usable when one substream is
// down, so this is a diagnostic, never a user-facing error.
func (b *Builder) degrade(dataset string, err error) {
	b.logger.Warn().Err(err).Str("dataset", dataset).Msg("report degraded, continuing with empty dataset")
	metrics.ReportDegradedTotal.WithLabelValues(dataset).Inc()
}

// harvestsForFarms walks farm -> crop cycles -> harvests. Harvests are
// linked to farms only transitively through their cycle.
func (b *Builder) harvestsForFarms(farmIDs []uuid.UUID) []types.Harvest {
	var cycleIDs []uuid.UUID
	for _, farmID := range farmIDs {
		cycles, err := b.store.GetCyclesByFarmID(farmID)
		if err != nil {
			b.degrade("crop_cycles", err)
			continue
		}
		for _, c := range cycles {
			cycleIDs = append(cycleIDs, c.ID)
		}
	}

	harvests, err := b.store.GetHarvestsByCycleIDs(cycleIDs)
	if err != nil {
		b.degrade("harvests", err)
		return nil
	}
	return harvests
}
