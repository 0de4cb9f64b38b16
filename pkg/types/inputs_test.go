package types

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func f(v float64) *float64 { return &v }

func TestFarmInputParse(t *testing.T) {
	ownerID := uuid.New()

	farm, errs := FarmInput{Name: "  Riverside  ", Location: "Khulna", TotalArea: 2.5}.Parse(ownerID)
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if farm.Name != "Riverside" {
		t.Errorf("Name = %q, want trimmed", farm.Name)
	}
	if farm.OwnerID != ownerID {
		t.Errorf("OwnerID = %s", farm.OwnerID)
	}
}

func TestFarmInputRejectsBadFields(t *testing.T) {
	_, errs := FarmInput{Name: "x", Location: "", TotalArea: -1}.Parse(uuid.New())
	if len(errs) != 3 {
		t.Fatalf("got %d errors, want 3: %v", len(errs), errs)
	}
	if !strings.Contains(errs.Error(), "validation failed") {
		t.Errorf("Error() = %q", errs.Error())
	}
}

func TestLogInputDerivesBiomassQuantity(t *testing.T) {
	in := LogInput{
		FarmID:        uuid.NewString(),
		LogType:       "biomass_check",
		Unit:          "kg",
		LogDate:       "2025-03-01",
		AverageWeight: f(0.5),
		TotalCount:    f(200),
	}
	logEntry, errs := in.Parse()
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if logEntry.Quantity != 100 {
		t.Errorf("Quantity = %v, want 100 derived from weight * count", logEntry.Quantity)
	}
	if logEntry.AverageWeight == nil || logEntry.TotalCount == nil {
		t.Error("derivation inputs should be preserved on the entity")
	}
}

func TestLogInputRejectsContradictoryQuantity(t *testing.T) {
	in := LogInput{
		FarmID:        uuid.NewString(),
		LogType:       "growth_check",
		Unit:          "kg",
		LogDate:       "2025-03-01",
		Quantity:      f(999),
		AverageWeight: f(0.5),
		TotalCount:    f(200),
	}
	_, errs := in.Parse()
	if errs == nil {
		t.Fatal("expected a quantity mismatch error")
	}
}

func TestLogInputRequiresQuantityForPlainTypes(t *testing.T) {
	in := LogInput{
		FarmID:  uuid.NewString(),
		LogType: "feed_input",
		Unit:    "kg",
		LogDate: "2025-03-01",
	}
	_, errs := in.Parse()
	if errs == nil {
		t.Fatal("expected a missing quantity error")
	}
}

func TestLogInputRejectsUnknownType(t *testing.T) {
	in := LogInput{
		FarmID:   uuid.NewString(),
		LogType:  "fertilizer_dance",
		Unit:     "kg",
		LogDate:  "2025-03-01",
		Quantity: f(5),
	}
	_, errs := in.Parse()
	if errs == nil {
		t.Fatal("expected an unknown log type error")
	}
}

func TestExpenseInputParse(t *testing.T) {
	in := ExpenseInput{
		FarmID:      uuid.NewString(),
		ExpenseDate: "2025-03-01",
		Category:    "feed",
		Amount:      150,
	}
	expense, errs := in.Parse()
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if expense.Category != ExpenseFeed || expense.Amount != 150 {
		t.Errorf("expense = %+v", expense)
	}

	in.Amount = 0
	if _, errs := in.Parse(); errs == nil {
		t.Error("expected a non-positive amount error")
	}
}

func TestHarvestInputRealizesRevenueAtWriteTime(t *testing.T) {
	in := HarvestInput{
		FarmID:           uuid.NewString(),
		HarvestDate:      "2025-03-10",
		QuantityKg:       200,
		SalePricePerKg:   f(12),
		MarketPricePerKg: f(15),
	}
	farmID, harvest, errs := in.Parse()
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if farmID == uuid.Nil {
		t.Error("farm id not parsed")
	}
	if harvest.RevenueRealized != 2400 {
		t.Errorf("RevenueRealized = %v, want 2400 (quantity * sale price)", harvest.RevenueRealized)
	}
	if harvest.CropCycleID != uuid.Nil {
		t.Error("cycle link should be unset until resolution")
	}
}

func TestHarvestInputZeroSalePrice(t *testing.T) {
	in := HarvestInput{
		FarmID:      uuid.NewString(),
		HarvestDate: "2025-03-10",
		QuantityKg:  200,
	}
	_, harvest, errs := in.Parse()
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if harvest.RevenueRealized != 0 {
		t.Errorf("RevenueRealized = %v, want 0 with no sale price", harvest.RevenueRealized)
	}
}

func TestReadingInputGroupsByDevice(t *testing.T) {
	in := ReadingInput{
		FarmID:       uuid.NewString(),
		RecordedAt:   "2025-03-01T10:00:00Z",
		SoilMoisture: f(42),
		WaterPHLevel: f(7.1),
	}
	_, _, groups, errs := in.Parse()
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}

	soil, water, climate := groups[0], groups[1], groups[2]
	if !soil.HasData() || !water.HasData() {
		t.Error("soil and water groups should have data")
	}
	if climate.HasData() {
		t.Error("climate group should be empty")
	}
	if soil.DeviceType != DeviceTypeSoilMoisture || water.DeviceType != DeviceTypeWaterQuality {
		t.Errorf("group device types = %q / %q", soil.DeviceType, water.DeviceType)
	}
	// Water pH travels in the shared ph_level column of the water row.
	if water.Values.PHLevel == nil || *water.Values.PHLevel != 7.1 {
		t.Errorf("water group PHLevel = %v, want 7.1", water.Values.PHLevel)
	}
	if soil.Values.PHLevel != nil {
		t.Errorf("soil group PHLevel = %v, want nil when only water pH was entered", soil.Values.PHLevel)
	}
}

func TestReadingInputBounds(t *testing.T) {
	in := ReadingInput{
		FarmID:       uuid.NewString(),
		RecordedAt:   "2025-03-01",
		SoilMoisture: f(130),
	}
	_, _, _, errs := in.Parse()
	if errs == nil {
		t.Fatal("expected an out-of-range soil moisture error")
	}

	in.SoilMoisture = f(0)
	_, _, groups, errs := in.Parse()
	if errs != nil {
		t.Fatalf("zero is a legal boundary value: %v", errs)
	}
	if !groups[0].HasData() {
		t.Error("a recorded zero still counts as data")
	}
}

func TestLogTypeBiomassClassification(t *testing.T) {
	if !LogTypeBiomassCheck.IsBiomass() || !LogTypeGrowthCheck.IsBiomass() {
		t.Error("biomass and growth checks must classify as biomass")
	}
	if LogTypeFeedInput.IsBiomass() {
		t.Error("feed input must not classify as biomass")
	}
}

func TestEnumParsers(t *testing.T) {
	if _, err := ToLogType("mortality"); err != nil {
		t.Errorf("ToLogType(mortality) = %v", err)
	}
	if _, err := ToLogType("bogus"); err == nil {
		t.Error("ToLogType(bogus) should fail")
	}
	if _, err := ToDeviceType("water_quality"); err != nil {
		t.Errorf("ToDeviceType(water_quality) = %v", err)
	}
	if _, err := ToExpenseCategory("bogus"); err == nil {
		t.Error("ToExpenseCategory(bogus) should fail")
	}
	if _, err := ToQualityGrade("A"); err != nil {
		t.Errorf("ToQualityGrade(A) = %v", err)
	}
}
