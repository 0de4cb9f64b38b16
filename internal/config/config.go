// Package config
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port           string
	ScyllaNodes    []string
	ValkeyNodes    []string
	MemcachedNodes []string
	TempoEndpoint  string

	// InitialStock is the assumed stocking count the survival-rate KPI
	// divides by. Placeholder until a dedicated stocking log type
	// exists; until then it is operator-supplied, never hard-coded.
	InitialStock float64

	// Metric status thresholds.
	SoilMoistureWarn float64 // below this (or missing) -> warning
	PHMin            float64
	PHMax            float64
	DOCritical       float64 // dissolved oxygen below this -> critical

	// Disease-risk heuristic bounds.
	DiseaseTempThreshold     float64
	DiseaseHumidityThreshold float64
}

func Load() AppConfig {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("[cfg] no .env file found: %v", err)
	}

	get := func(k, def string) string {
		if v := os.Getenv(k); v != "" {
			return v
		}
		return def
	}
	getFloat := func(k string, def float64) float64 {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.Printf("[cfg] invalid %s=%q, using %g", k, v, def)
			return def
		}
		return f
	}
	getNodes := func(k string) []string {
		if v := os.Getenv(k); v != "" {
			return strings.Split(v, ",")
		}
		return nil
	}

	return AppConfig{
		Port:           get("PORT", "8080"),
		ScyllaNodes:    getNodes("SCYLLA_NODES"),
		ValkeyNodes:    getNodes("VALKEY_NODES"),
		MemcachedNodes: getNodes("MEMCACHED_NODES"),
		TempoEndpoint:  get("TEMPO_ENDPOINT", ""),

		InitialStock: getFloat("INITIAL_STOCK", 1000),

		SoilMoistureWarn: getFloat("SOIL_MOISTURE_WARN", 30),
		PHMin:            getFloat("PH_MIN", 6),
		PHMax:            getFloat("PH_MAX", 8),
		DOCritical:       getFloat("DO_CRITICAL", 4),

		DiseaseTempThreshold:     getFloat("DISEASE_TEMP_THRESHOLD", 30),
		DiseaseHumidityThreshold: getFloat("DISEASE_HUMIDITY_THRESHOLD", 80),
	}
}
