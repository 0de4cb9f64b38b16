package main

import (
	"context"
	"net/http"
	"os"

	"github.com/gocql/gocql"
	"github.com/khetsense/khetsense-api/internal/cache"
	"github.com/khetsense/khetsense-api/internal/config"
	"github.com/khetsense/khetsense-api/internal/db"
	"github.com/khetsense/khetsense-api/internal/kpi"
	"github.com/khetsense/khetsense-api/internal/report"
	"github.com/khetsense/khetsense-api/internal/resolve"
	"github.com/khetsense/khetsense-api/internal/routes"
	"github.com/khetsense/khetsense-api/internal/tracing"
	"github.com/rs/zerolog"
)

func newSession(nodes []string, keyspace string) (*gocql.Session, error) {
	cluster := gocql.NewCluster(nodes...)
	cluster.Keyspace = keyspace
	// Remove
	cluster.DisableInitialHostLookup = true
	cluster.DisableShardAwarePort = true
	return cluster.CreateSession()
}

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg := config.Load()

	metaSess, err := newSession(cfg.ScyllaNodes, "farms_meta")
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to connect to farms_meta")
	}

	dataSess, err := newSession(cfg.ScyllaNodes, "farms_data")
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to connect to farms_data")
	}

	store := db.New(metaSess, dataSess)
	defer store.Close()

	shutdownTracer := tracing.InitTracer(cfg.TempoEndpoint)
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error().Err(err).Msg("tracer shutdown failed")
		}
	}()

	var c cache.Cache
	switch {
	case len(cfg.ValkeyNodes) > 0:
		c = cache.NewValkey(cfg.ValkeyNodes)
	case len(cfg.MemcachedNodes) > 0:
		c = cache.NewMemcached(cfg.MemcachedNodes...)
	default:
		logger.Warn().Msg("no cache nodes configured, running without a cache")
		c = cache.NewNoop()
	}
	defer c.Close()

	resolver := resolve.New(store)

	reports := report.New(store, c, logger, report.Options{
		InitialStock: cfg.InitialStock,
		Thresholds: kpi.Thresholds{
			SoilMoistureWarn: cfg.SoilMoistureWarn,
			PHMin:            cfg.PHMin,
			PHMax:            cfg.PHMax,
			DOCritical:       cfg.DOCritical,
			DiseaseTemp:      cfg.DiseaseTempThreshold,
			DiseaseHumidity:  cfg.DiseaseHumidityThreshold,
		},
	})

	app := routes.New(store, c, resolver, reports, logger)
	mux := routes.NewMux(app)

	logger.Info().Str("port", cfg.Port).Msg("listening")
	if err := http.ListenAndServe(":"+cfg.Port, mux); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
