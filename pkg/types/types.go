// Package types
package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry is one cached time-series point for a device metric.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

type Farm struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	TotalArea float64   `json:"total_area"` // Bighas
	CreatedAt time.Time `json:"created_at"`
}

type LogType string

const (
	LogTypeFeedInput             LogType = "feed_input"
	LogTypeMortality             LogType = "mortality"
	LogTypeLaborHours            LogType = "labor_hours"
	LogTypeElectricityUsage      LogType = "electricity_usage"
	LogTypeFertilizerApplication LogType = "fertilizer_application"
	LogTypePestIncidence         LogType = "pest_incidence"
	LogTypeWaterUsage            LogType = "water_usage"
	LogTypeBiomassCheck          LogType = "biomass_check"
	LogTypeGrowthCheck           LogType = "growth_check"
)

var ErrInvalidLogType = fmt.Errorf("invalid log type")

func ToLogType(s string) (LogType, error) {
	switch LogType(s) {
	case LogTypeFeedInput, LogTypeMortality, LogTypeLaborHours,
		LogTypeElectricityUsage, LogTypeFertilizerApplication,
		LogTypePestIncidence, LogTypeWaterUsage,
		LogTypeBiomassCheck, LogTypeGrowthCheck:
		return LogType(s), nil
	default:
		return "", ErrInvalidLogType
	}
}

// IsBiomass reports whether the log type carries a standing-stock
// measurement (biomass or growth checks).
func (t LogType) IsBiomass() bool {
	return t == LogTypeBiomassCheck || t == LogTypeGrowthCheck
}

type OperationalLog struct {
	ID            uuid.UUID `json:"id"`
	FarmID        uuid.UUID `json:"farm_id"`
	LogType       LogType   `json:"log_type"`
	Quantity      float64   `json:"quantity"`
	Unit          string    `json:"unit"`
	LogDate       time.Time `json:"log_date"`
	Notes         string    `json:"notes,omitempty"`
	AverageWeight *float64  `json:"average_weight,omitempty"`
	TotalCount    *float64  `json:"total_count,omitempty"`
}

type CropType string

const (
	CropTypeVegetable   CropType = "vegetable"
	CropTypeAquaculture CropType = "aquaculture"
)

var ErrInvalidCropType = fmt.Errorf("invalid crop type")

func ToCropType(s string) (CropType, error) {
	switch CropType(s) {
	case CropTypeVegetable, CropTypeAquaculture:
		return CropType(s), nil
	default:
		return "", ErrInvalidCropType
	}
}

type CycleStatus string

const (
	CycleStatusPlanned   CycleStatus = "planned"
	CycleStatusActive    CycleStatus = "active"
	CycleStatusHarvested CycleStatus = "harvested"
)

type CropCycle struct {
	ID        uuid.UUID   `json:"id"`
	FarmID    uuid.UUID   `json:"farm_id"`
	CropName  string      `json:"crop_name"`
	CropType  CropType    `json:"crop_type"`
	Status    CycleStatus `json:"status"`
	StartDate time.Time   `json:"start_date"`
	EndDate   *time.Time  `json:"end_date,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

type QualityGrade string

const (
	GradeA QualityGrade = "A"
	GradeB QualityGrade = "B"
	GradeC QualityGrade = "C"
)

var ErrInvalidQualityGrade = fmt.Errorf("invalid quality grade")

func ToQualityGrade(s string) (QualityGrade, error) {
	switch QualityGrade(s) {
	case GradeA, GradeB, GradeC:
		return QualityGrade(s), nil
	default:
		return "", ErrInvalidQualityGrade
	}
}

type Harvest struct {
	ID               uuid.UUID    `json:"id"`
	CropCycleID      uuid.UUID    `json:"crop_cycle_id"`
	HarvestDate      time.Time    `json:"harvest_date"`
	QuantityKg       float64      `json:"quantity_kg"`
	WastageKg        float64      `json:"wastage_kg"`
	QualityGrade     QualityGrade `json:"quality_grade,omitempty"`
	MarketPricePerKg float64      `json:"market_price_per_kg"`
	SalePricePerKg   float64      `json:"sale_price_per_kg"`
	// RevenueRealized is computed once at write time as
	// quantity_kg * sale_price_per_kg and never recomputed.
	RevenueRealized float64 `json:"revenue_realized"`
}

type ExpenseCategory string

const (
	ExpenseSeeds       ExpenseCategory = "seeds"
	ExpenseFeed        ExpenseCategory = "feed"
	ExpenseLabor       ExpenseCategory = "labor"
	ExpenseTransport   ExpenseCategory = "transport"
	ExpenseMaintenance ExpenseCategory = "maintenance"
	ExpenseIrrigation  ExpenseCategory = "irrigation"
	ExpensePestControl ExpenseCategory = "pest_control"
)

var ErrInvalidExpenseCategory = fmt.Errorf("invalid expense category")

func ToExpenseCategory(s string) (ExpenseCategory, error) {
	switch ExpenseCategory(s) {
	case ExpenseSeeds, ExpenseFeed, ExpenseLabor, ExpenseTransport,
		ExpenseMaintenance, ExpenseIrrigation, ExpensePestControl:
		return ExpenseCategory(s), nil
	default:
		return "", ErrInvalidExpenseCategory
	}
}

type Expense struct {
	ID          uuid.UUID       `json:"id"`
	FarmID      uuid.UUID       `json:"farm_id"`
	ExpenseDate time.Time       `json:"expense_date"`
	Category    ExpenseCategory `json:"category"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description,omitempty"`
}

type DeviceType string

const (
	DeviceTypeSoilMoisture   DeviceType = "soil_moisture"
	DeviceTypeWaterQuality   DeviceType = "water_quality"
	DeviceTypeClimateStation DeviceType = "climate_station"
)

var ErrInvalidDeviceType = fmt.Errorf("invalid device type")

func ToDeviceType(s string) (DeviceType, error) {
	switch DeviceType(s) {
	case DeviceTypeSoilMoisture, DeviceTypeWaterQuality, DeviceTypeClimateStation:
		return DeviceType(s), nil
	default:
		return "", ErrInvalidDeviceType
	}
}

// Device identity for resolution purposes is the triple
// (farm_id, device_type, device_name).
type Device struct {
	ID         uuid.UUID  `json:"id"`
	FarmID     uuid.UUID  `json:"farm_id"`
	DeviceName string     `json:"device_name"`
	DeviceType DeviceType `json:"device_type"`
	IsActive   bool       `json:"is_active"`
}

// Reading is a raw sensor reading row. All value fields are optional; a
// row may carry values irrelevant to its device's type, and consumers
// must read only the fields meaningful for that type. Nil means "no
// data", which is distinct from a recorded zero.
type Reading struct {
	ID              uuid.UUID `json:"id"`
	DeviceID        uuid.UUID `json:"device_id"`
	RecordedAt      time.Time `json:"recorded_at"`
	SoilMoisture    *float64  `json:"soil_moisture,omitempty"`
	PHLevel         *float64  `json:"ph_level,omitempty"`
	NPKNitrogen     *float64  `json:"npk_nitrogen,omitempty"`
	NPKPhosphorus   *float64  `json:"npk_phosphorus,omitempty"`
	NPKPotassium    *float64  `json:"npk_potassium,omitempty"`
	DissolvedOxygen *float64  `json:"dissolved_oxygen,omitempty"`
	Temperature     *float64  `json:"temperature,omitempty"`
	Humidity        *float64  `json:"humidity,omitempty"`
	Ammonia         *float64  `json:"ammonia,omitempty"`
	Nitrate         *float64  `json:"nitrate,omitempty"`
	Salinity        *float64  `json:"salinity,omitempty"`
}
