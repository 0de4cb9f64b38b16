package routes

import (
	"github.com/google/uuid"
	"github.com/khetsense/khetsense-api/internal/cache"
	"github.com/khetsense/khetsense-api/internal/report"
	"github.com/khetsense/khetsense-api/internal/resolve"
	"github.com/khetsense/khetsense-api/pkg/types"
	"github.com/rs/zerolog"
)

// Store is everything the HTTP surface needs from the record store.
// *db.DB satisfies it; tests use an in-memory fake.
type Store interface {
	report.Store
	resolve.Store

	GetDeviceByID(deviceID uuid.UUID) (*types.Device, error)
	GetReadingsByDeviceID(deviceID uuid.UUID, limit int) ([]types.Reading, error)

	InsertFarm(f *types.Farm) error
	InsertLog(l *types.OperationalLog) error
	InsertExpense(e *types.Expense) error
	InsertHarvest(h *types.Harvest) error
	InsertReading(r *types.Reading) error
}

type App struct {
	Store    Store
	Cache    cache.Cache
	Resolver *resolve.Resolver
	Reports  *report.Builder
	Logger   zerolog.Logger
}

func New(store Store, c cache.Cache, resolver *resolve.Resolver, reports *report.Builder, logger zerolog.Logger) *App {
	return &App{
		Store:    store,
		Cache:    c,
		Resolver: resolver,
		Reports:  reports,
		Logger:   logger,
	}
}
