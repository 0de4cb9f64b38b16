// Package kpi folds raw farm records into dashboard KPIs. Every
// function here is pure: no store access, no clock, no side effects.
// Empty inputs reduce to the documented neutral value, never an error.
package kpi

import (
	"sort"
	"strconv"
	"time"

	"github.com/khetsense/khetsense-api/pkg/types"
)

// Thresholds carries the operator-configurable bounds used by the
// disease-risk heuristic and the metric status rules.
type Thresholds struct {
	SoilMoistureWarn float64
	PHMin            float64
	PHMax            float64
	DOCritical       float64

	DiseaseTemp     float64
	DiseaseHumidity float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		SoilMoistureWarn: 30,
		PHMin:            6,
		PHMax:            8,
		DOCritical:       4,
		DiseaseTemp:      30,
		DiseaseHumidity:  80,
	}
}

func format2(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// TotalYield sums quantity_kg over the harvests in scope.
func TotalYield(harvests []types.Harvest) float64 {
	total := 0.0
	for _, h := range harvests {
		total += h.QuantityKg
	}
	return total
}

// TotalRevenue sums revenue_realized over the harvests in scope. The
// revenue was fixed at write time and is not recomputed from prices.
func TotalRevenue(harvests []types.Harvest) float64 {
	total := 0.0
	for _, h := range harvests {
		total += h.RevenueRealized
	}
	return total
}

func TotalExpenses(expenses []types.Expense) float64 {
	total := 0.0
	for _, e := range expenses {
		total += e.Amount
	}
	return total
}

func NetProfit(harvests []types.Harvest, expenses []types.Expense) float64 {
	return TotalRevenue(harvests) - TotalExpenses(expenses)
}

// ProfitPerBigha divides net profit by the summed farm area, rounded to
// a whole amount. A zero area sum is treated as 1 so an unconfigured
// farm list reports the raw profit instead of dividing by zero.
func ProfitPerBigha(netProfit float64, farms []types.Farm) string {
	area := 0.0
	for _, f := range farms {
		area += f.TotalArea
	}
	if area == 0 {
		area = 1
	}
	return strconv.FormatFloat(netProfit/area, 'f', 0, 64)
}

// CostPerKg is total expenses over total yield. "0.00" is the sentinel
// for "not yet producing", not a real unit cost.
func CostPerKg(expenses []types.Expense, harvests []types.Harvest) string {
	yield := TotalYield(harvests)
	if yield <= 0 {
		return "0.00"
	}
	return format2(TotalExpenses(expenses) / yield)
}

// WaterEfficiency is harvested kg per unit of logged water usage.
func WaterEfficiency(logs []types.OperationalLog, harvests []types.Harvest) string {
	water := SumQuantity(logs, types.LogTypeWaterUsage)
	if water <= 0 {
		return "0.00"
	}
	return format2(TotalYield(harvests) / water)
}

// FeedConversionRatio divides total feed input by the quantity of the
// FIRST biomass_check log in the input order, not the latest one.
// CurrentBiomass deliberately disagrees with this; the two must not be
// unified without changing reported KPI values.
func FeedConversionRatio(logs []types.OperationalLog) string {
	feed := SumQuantity(logs, types.LogTypeFeedInput)

	biomass := 1.0 // avoid div by zero
	for _, l := range logs {
		if l.LogType == types.LogTypeBiomassCheck {
			if l.Quantity != 0 {
				biomass = l.Quantity
			}
			break
		}
	}
	return format2(feed / biomass)
}

func biomassLogs(logs []types.OperationalLog) []types.OperationalLog {
	var out []types.OperationalLog
	for _, l := range logs {
		if l.LogType.IsBiomass() {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LogDate.Before(out[j].LogDate)
	})
	return out
}

// CurrentBiomass is the standing stock: the chronologically latest
// biomass or growth check, regardless of input order. 0 when none
// exist.
func CurrentBiomass(logs []types.OperationalLog) float64 {
	bl := biomassLogs(logs)
	if len(bl) == 0 {
		return 0
	}
	return bl[len(bl)-1].Quantity
}

// GrowthVelocity is the average daily biomass gain between the first
// and last biomass/growth checks, in kg/day. Fewer than two checks, or
// checks with no elapsed days between them, keep the "0.00" default
// rather than producing an undefined rate.
func GrowthVelocity(logs []types.OperationalLog) string {
	bl := biomassLogs(logs)
	velocity := "0.00"
	if len(bl) >= 2 {
		first, last := bl[0], bl[len(bl)-1]
		days := last.LogDate.Sub(first.LogDate).Hours() / 24
		if days > 0 {
			velocity = format2((last.Quantity - first.Quantity) / days)
		}
	}
	return velocity
}

// SurvivalRate is (initialStock - total mortality) / initialStock as a
// percentage. There is no stocking record type yet, so initialStock is
// the operator-supplied placeholder constant from configuration.
func SurvivalRate(logs []types.OperationalLog, initialStock float64) string {
	mortality := SumQuantity(logs, types.LogTypeMortality)
	return strconv.FormatFloat((initialStock-mortality)/initialStock*100, 'f', 1, 64)
}

// DiseaseRisk classifies from the single most recent reading across all
// devices. Missing fields count as zero, which always reads as low
// risk.
func DiseaseRisk(latest *types.Reading, th Thresholds) string {
	temp, humidity := 0.0, 0.0
	if latest != nil {
		if latest.Temperature != nil {
			temp = *latest.Temperature
		}
		if latest.Humidity != nil {
			humidity = *latest.Humidity
		}
	}
	if temp > th.DiseaseTemp && humidity > th.DiseaseHumidity {
		return "High"
	}
	return "Low"
}

// SumQuantity totals the quantity of logs with the given type.
func SumQuantity(logs []types.OperationalLog, t types.LogType) float64 {
	total := 0.0
	for _, l := range logs {
		if l.LogType == t {
			total += l.Quantity
		}
	}
	return total
}

// CountLogs counts logs of the given type (mortality events etc).
func CountLogs(logs []types.OperationalLog, t types.LogType) int {
	n := 0
	for _, l := range logs {
		if l.LogType == t {
			n++
		}
	}
	return n
}

// MonthlyRevenue sums revenue for harvests recorded in the same
// calendar month as now.
func MonthlyRevenue(harvests []types.Harvest, now time.Time) float64 {
	total := 0.0
	for _, h := range harvests {
		if h.HarvestDate.Month() == now.Month() {
			total += h.RevenueRealized
		}
	}
	return total
}

// MonthlyExpenses sums expenses recorded in the same calendar month as
// now.
func MonthlyExpenses(expenses []types.Expense, now time.Time) float64 {
	total := 0.0
	for _, e := range expenses {
		if e.ExpenseDate.Month() == now.Month() {
			total += e.Amount
		}
	}
	return total
}

// GrowthPoint is one point on the biomass growth curve.
type GrowthPoint struct {
	Day             string  `json:"day"`
	ActualGrowth    float64 `json:"actual_growth"`
	ProjectedGrowth float64 `json:"projected_growth"`
}

// GrowthCurve builds the date-sorted biomass series with a flat 1.1x
// projection overlay.
func GrowthCurve(logs []types.OperationalLog) []GrowthPoint {
	bl := biomassLogs(logs)
	points := make([]GrowthPoint, 0, len(bl))
	for _, l := range bl {
		points = append(points, GrowthPoint{
			Day:             l.LogDate.Format("Jan 2"),
			ActualGrowth:    l.Quantity,
			ProjectedGrowth: l.Quantity * 1.1,
		})
	}
	return points
}
