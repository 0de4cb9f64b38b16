package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/khetsense/khetsense-api/internal/kpi"
	"github.com/khetsense/khetsense-api/pkg/types"
)

// Dashboard is the all-farms overview for one user.
type Dashboard struct {
	FarmCount int     `json:"farm_count"`
	TotalArea float64 `json:"total_area"`

	// Agronomy & environment
	SoilMoisture        *float64 `json:"soil_moisture"`
	SoilPH              *float64 `json:"soil_ph"`
	DissolvedOxygen     *float64 `json:"dissolved_oxygen"`
	WaterEfficiency     string   `json:"water_efficiency"`
	FeedConversionRatio string   `json:"feed_conversion_ratio"`
	DiseaseRisk         string   `json:"disease_risk"`

	// Production & growth
	SurvivalRate   string            `json:"survival_rate"`
	TotalMortality float64           `json:"total_mortality"`
	GrowthVelocity string            `json:"growth_velocity"`
	CurrentBiomass float64           `json:"current_biomass"`
	GrowthCurve    []kpi.GrowthPoint `json:"growth_curve"`

	// Financial & operational
	TotalRevenue     float64 `json:"total_revenue"`
	TotalExpenses    float64 `json:"total_expenses"`
	NetProfit        float64 `json:"net_profit"`
	ProfitPerBigha   string  `json:"profit_per_bigha"`
	CostPerKg        string  `json:"cost_per_kg"`
	TotalLaborHours  float64 `json:"total_labor_hours"`
	MonthlyRevenue   float64 `json:"monthly_revenue"`
	MonthlyExpenses  float64 `json:"monthly_expenses"`
	MonthlyNetProfit float64 `json:"monthly_net_profit"`
}

// Dashboard builds the overview for every farm the user owns. Only the
// farm list itself is a hard dependency; every other dataset degrades
// to empty on read failure.
func (b *Builder) Dashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	cacheKey := fmt.Sprintf("dashboard:%s", userID)
	if cached, err := b.cache.FetchAggregate(ctx, cacheKey); err == nil && cached != nil {
		var d Dashboard
		if err := json.Unmarshal(cached, &d); err == nil {
			return &d, nil
		}
	}

	farms, err := b.store.GetFarmsByOwnerID(userID)
	if err != nil {
		return nil, fmt.Errorf("fetch farms: %w", err)
	}

	farmIDs := make([]uuid.UUID, 0, len(farms))
	for _, f := range farms {
		farmIDs = append(farmIDs, f.ID)
	}

	logs, err := b.store.GetLogsByFarmIDs(farmIDs)
	if err != nil {
		b.degrade("operational_logs", err)
		logs = nil
	}

	expenses, err := b.store.GetExpensesByFarmIDs(farmIDs)
	if err != nil {
		b.degrade("expenses", err)
		expenses = nil
	}

	harvests := b.harvestsForFarms(farmIDs)

	latest, err := b.store.GetLatestReading()
	if err != nil {
		b.degrade("iot_readings", err)
		latest = nil
	}

	totalArea := 0.0
	for _, f := range farms {
		totalArea += f.TotalArea
	}

	netProfit := kpi.NetProfit(harvests, expenses)
	now := b.now()

	d := &Dashboard{
		FarmCount: len(farms),
		TotalArea: totalArea,

		WaterEfficiency:     kpi.WaterEfficiency(logs, harvests),
		FeedConversionRatio: kpi.FeedConversionRatio(logs),
		DiseaseRisk:         kpi.DiseaseRisk(latest, b.opts.Thresholds),

		SurvivalRate:   kpi.SurvivalRate(logs, b.opts.InitialStock),
		TotalMortality: kpi.SumQuantity(logs, types.LogTypeMortality),
		GrowthVelocity: kpi.GrowthVelocity(logs),
		CurrentBiomass: kpi.CurrentBiomass(logs),
		GrowthCurve:    kpi.GrowthCurve(logs),

		TotalRevenue:     kpi.TotalRevenue(harvests),
		TotalExpenses:    kpi.TotalExpenses(expenses),
		NetProfit:        netProfit,
		ProfitPerBigha:   kpi.ProfitPerBigha(netProfit, farms),
		CostPerKg:        kpi.CostPerKg(expenses, harvests),
		TotalLaborHours:  kpi.SumQuantity(logs, types.LogTypeLaborHours),
		MonthlyRevenue:   kpi.MonthlyRevenue(harvests, now),
		MonthlyExpenses:  kpi.MonthlyExpenses(expenses, now),
		MonthlyNetProfit: kpi.MonthlyRevenue(harvests, now) - kpi.MonthlyExpenses(expenses, now),
	}

	if latest != nil {
		d.SoilMoisture = latest.SoilMoisture
		d.SoilPH = latest.PHLevel
		d.DissolvedOxygen = latest.DissolvedOxygen
	}

	if err := b.cache.StoreAggregate(ctx, cacheKey, d, b.opts.CacheTTL); err != nil {
		b.logger.Debug().Err(err).Msg("dashboard cache store failed")
	}

	return d, nil
}
