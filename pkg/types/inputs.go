package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldError reports a single malformed input field. Inputs are
// rejected before any store call is attempted.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func parseDate(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

type FarmInput struct {
	Name      string  `json:"name"`
	Location  string  `json:"location"`
	TotalArea float64 `json:"total_area"`
}

func (in FarmInput) Parse(ownerID uuid.UUID) (Farm, FieldErrors) {
	var errs FieldErrors
	if len(strings.TrimSpace(in.Name)) < 2 {
		errs = append(errs, FieldError{"name", "name must be at least 2 characters"})
	}
	if len(strings.TrimSpace(in.Location)) < 2 {
		errs = append(errs, FieldError{"location", "location is required"})
	}
	if in.TotalArea <= 0 {
		errs = append(errs, FieldError{"total_area", "area must be positive"})
	}
	if errs != nil {
		return Farm{}, errs
	}
	return Farm{
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(in.Name),
		Location:  strings.TrimSpace(in.Location),
		TotalArea: in.TotalArea,
	}, nil
}

type LogInput struct {
	FarmID        string   `json:"farm_id"`
	LogType       string   `json:"log_type"`
	Quantity      *float64 `json:"quantity"`
	Unit          string   `json:"unit"`
	LogDate       string   `json:"log_date"`
	Notes         string   `json:"notes"`
	AverageWeight *float64 `json:"average_weight"`
	TotalCount    *float64 `json:"total_count"`
}

// Parse validates the payload and builds the log entity. For biomass
// and growth checks the quantity is derived as average_weight *
// total_count when both are present; a quantity that contradicts the
// derivation is rejected.
func (in LogInput) Parse() (OperationalLog, FieldErrors) {
	var errs FieldErrors

	farmID, err := uuid.Parse(in.FarmID)
	if err != nil {
		errs = append(errs, FieldError{"farm_id", "invalid farm id"})
	}
	logType, err := ToLogType(in.LogType)
	if err != nil {
		errs = append(errs, FieldError{"log_type", "unknown log type"})
	}
	if in.Unit == "" {
		errs = append(errs, FieldError{"unit", "unit is required"})
	}
	logDate, ok := parseDate(in.LogDate)
	if !ok {
		errs = append(errs, FieldError{"log_date", "invalid date"})
	}

	quantity := 0.0
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	if quantity < 0 {
		errs = append(errs, FieldError{"quantity", "quantity must not be negative"})
	}

	if logType.IsBiomass() && in.AverageWeight != nil && in.TotalCount != nil {
		derived := *in.AverageWeight * *in.TotalCount
		if in.Quantity == nil {
			quantity = derived
		} else if quantity != derived {
			errs = append(errs, FieldError{"quantity", "quantity must equal average_weight * total_count"})
		}
	} else if in.Quantity == nil {
		errs = append(errs, FieldError{"quantity", "quantity is required"})
	}

	if errs != nil {
		return OperationalLog{}, errs
	}
	return OperationalLog{
		FarmID:        farmID,
		LogType:       logType,
		Quantity:      quantity,
		Unit:          in.Unit,
		LogDate:       logDate,
		Notes:         in.Notes,
		AverageWeight: in.AverageWeight,
		TotalCount:    in.TotalCount,
	}, nil
}

type ExpenseInput struct {
	FarmID      string  `json:"farm_id"`
	ExpenseDate string  `json:"expense_date"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

func (in ExpenseInput) Parse() (Expense, FieldErrors) {
	var errs FieldErrors

	farmID, err := uuid.Parse(in.FarmID)
	if err != nil {
		errs = append(errs, FieldError{"farm_id", "invalid farm id"})
	}
	category, err := ToExpenseCategory(in.Category)
	if err != nil {
		errs = append(errs, FieldError{"category", "unknown expense category"})
	}
	expenseDate, ok := parseDate(in.ExpenseDate)
	if !ok {
		errs = append(errs, FieldError{"expense_date", "invalid date"})
	}
	if in.Amount <= 0 {
		errs = append(errs, FieldError{"amount", "amount must be positive"})
	}

	if errs != nil {
		return Expense{}, errs
	}
	return Expense{
		FarmID:      farmID,
		ExpenseDate: expenseDate,
		Category:    category,
		Amount:      in.Amount,
		Description: in.Description,
	}, nil
}

type HarvestInput struct {
	FarmID           string   `json:"farm_id"`
	HarvestDate      string   `json:"harvest_date"`
	QuantityKg       float64  `json:"quantity_kg"`
	WastageKg        *float64 `json:"wastage_kg"`
	QualityGrade     string   `json:"quality_grade"`
	MarketPricePerKg *float64 `json:"market_price_per_kg"`
	SalePricePerKg   *float64 `json:"sale_price_per_kg"`
}

// Parse validates the payload and builds the harvest entity, minus the
// crop cycle link which is resolved separately. Revenue is realized
// here, at write time.
func (in HarvestInput) Parse() (uuid.UUID, Harvest, FieldErrors) {
	var errs FieldErrors

	farmID, err := uuid.Parse(in.FarmID)
	if err != nil {
		errs = append(errs, FieldError{"farm_id", "invalid farm id"})
	}
	harvestDate, ok := parseDate(in.HarvestDate)
	if !ok {
		errs = append(errs, FieldError{"harvest_date", "invalid date"})
	}
	if in.QuantityKg <= 0 {
		errs = append(errs, FieldError{"quantity_kg", "quantity must be positive"})
	}

	var grade QualityGrade
	if in.QualityGrade != "" {
		grade, err = ToQualityGrade(in.QualityGrade)
		if err != nil {
			errs = append(errs, FieldError{"quality_grade", "unknown quality grade"})
		}
	}

	wastage, market, sale := 0.0, 0.0, 0.0
	if in.WastageKg != nil {
		wastage = *in.WastageKg
	}
	if in.MarketPricePerKg != nil {
		market = *in.MarketPricePerKg
	}
	if in.SalePricePerKg != nil {
		sale = *in.SalePricePerKg
	}
	if wastage < 0 || market < 0 || sale < 0 {
		errs = append(errs, FieldError{"prices", "wastage and prices must not be negative"})
	}

	if errs != nil {
		return uuid.Nil, Harvest{}, errs
	}
	return farmID, Harvest{
		HarvestDate:      harvestDate,
		QuantityKg:       in.QuantityKg,
		WastageKg:        wastage,
		QualityGrade:     grade,
		MarketPricePerKg: market,
		SalePricePerKg:   sale,
		RevenueRealized:  in.QuantityKg * sale,
	}, nil
}

// ReadingInput is the manual sensor entry form: one flat payload that
// fans out to up to three devices (soil, water, climate).
type ReadingInput struct {
	FarmID     string `json:"farm_id"`
	RecordedAt string `json:"recorded_at"`

	SoilMoisture  *float64 `json:"soil_moisture"`
	PHLevel       *float64 `json:"ph_level"`
	NPKNitrogen   *float64 `json:"npk_nitrogen"`
	NPKPhosphorus *float64 `json:"npk_phosphorus"`
	NPKPotassium  *float64 `json:"npk_potassium"`

	WaterPHLevel    *float64 `json:"water_ph_level"`
	DissolvedOxygen *float64 `json:"dissolved_oxygen"`
	Ammonia         *float64 `json:"ammonia"`
	Nitrate         *float64 `json:"nitrate"`
	Salinity        *float64 `json:"salinity"`

	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
}

// ReadingGroup is one device's share of a manual submission.
type ReadingGroup struct {
	DeviceName string
	DeviceType DeviceType
	Values     Reading
}

// HasData reports whether any value in the group is set. Groups with no
// data are skipped entirely, creating no device and no reading.
func (g ReadingGroup) HasData() bool {
	for _, v := range []*float64{
		g.Values.SoilMoisture, g.Values.PHLevel,
		g.Values.NPKNitrogen, g.Values.NPKPhosphorus, g.Values.NPKPotassium,
		g.Values.DissolvedOxygen, g.Values.Temperature, g.Values.Humidity,
		g.Values.Ammonia, g.Values.Nitrate, g.Values.Salinity,
	} {
		if v != nil {
			return true
		}
	}
	return false
}

func (in ReadingInput) Parse() (uuid.UUID, time.Time, []ReadingGroup, FieldErrors) {
	var errs FieldErrors

	farmID, err := uuid.Parse(in.FarmID)
	if err != nil {
		errs = append(errs, FieldError{"farm_id", "invalid farm id"})
	}
	recordedAt, ok := parseDate(in.RecordedAt)
	if !ok {
		errs = append(errs, FieldError{"recorded_at", "invalid timestamp"})
	}

	bounded := func(field string, v *float64, min, max float64) {
		if v != nil && (*v < min || *v > max) {
			errs = append(errs, FieldError{field, fmt.Sprintf("must be between %g and %g", min, max)})
		}
	}
	bounded("soil_moisture", in.SoilMoisture, 0, 100)
	bounded("ph_level", in.PHLevel, 0, 14)
	bounded("water_ph_level", in.WaterPHLevel, 0, 14)
	bounded("humidity", in.Humidity, 0, 100)

	if errs != nil {
		return uuid.Nil, time.Time{}, nil, errs
	}

	groups := []ReadingGroup{
		{
			DeviceName: "Manual Soil Sensor",
			DeviceType: DeviceTypeSoilMoisture,
			Values: Reading{
				SoilMoisture:  in.SoilMoisture,
				PHLevel:       in.PHLevel,
				NPKNitrogen:   in.NPKNitrogen,
				NPKPhosphorus: in.NPKPhosphorus,
				NPKPotassium:  in.NPKPotassium,
			},
		},
		{
			DeviceName: "Manual Water Sensor",
			DeviceType: DeviceTypeWaterQuality,
			Values: Reading{
				PHLevel:         in.WaterPHLevel,
				DissolvedOxygen: in.DissolvedOxygen,
				Ammonia:         in.Ammonia,
				Nitrate:         in.Nitrate,
				Salinity:        in.Salinity,
			},
		},
		{
			DeviceName: "Manual Climate Station",
			DeviceType: DeviceTypeClimateStation,
			Values: Reading{
				Temperature: in.Temperature,
				Humidity:    in.Humidity,
			},
		},
	}

	return farmID, recordedAt, groups, nil
}
