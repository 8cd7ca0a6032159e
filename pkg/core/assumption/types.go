// Package assumption defines the immutable input record consumed by the
// model engine, together with its validation and file loading.
// One Assumptions value describes a single frozen scenario; the engine never
// mutates it.
package assumption

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// DATE (day-precision calendar date)
// =============================================================================

// Date is a day-precision calendar date. It accepts ISO 8601 (2006-01-02) and
// dd/mm/yyyy on the boundary and normalizes to midnight UTC internally.
type Date struct {
	time.Time
}

const (
	isoLayout = "2006-01-02"
	frLayout  = "02/01/2006"
)

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func parseDate(s string) (Date, error) {
	for _, layout := range []string{isoLayout, frLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{t.UTC()}, nil
		}
	}
	return Date{}, fmt.Errorf("unrecognized date %q (want yyyy-mm-dd or dd/mm/yyyy)", s)
}

// UnmarshalYAML implements yaml.v2 decoding for both supported layouts.
func (d *Date) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		// yaml may already have resolved a timestamp
		var t time.Time
		if err2 := unmarshal(&t); err2 == nil {
			d.Time = t.UTC()
			return nil
		}
		return err
	}
	parsed, err := parseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalYAML emits the ISO layout.
func (d Date) MarshalYAML() (interface{}, error) {
	return d.Format(isoLayout), nil
}

// UnmarshalJSON implements decoding for the HJSON path.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := parseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON emits the ISO layout.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(isoLayout))
}

// =============================================================================
// ENUMS
// =============================================================================

// TechnologyKind selects the asset variant.
type TechnologyKind string

const (
	TechnologySolar TechnologyKind = "SOLAR"
	TechnologyWind  TechnologyKind = "WIND"
)

// InjectionMode drives the construction funding order.
type InjectionMode string

const (
	InjectionEquityFirst InjectionMode = "EQUITY_FIRST"
	InjectionProRata     InjectionMode = "PRO_RATA"
)

// DevFeeMode selects whether the development fee is solved against debt
// capacity or forced to zero.
type DevFeeMode string

const (
	DevFeeOptimize DevFeeMode = "OPTIMIZE"
	DevFeeZero     DevFeeMode = "ZERO"
)

// MerchantScenario selects the merchant price curve.
type MerchantScenario string

const (
	MerchantLow  MerchantScenario = "LOW"
	MerchantMed  MerchantScenario = "MED"
	MerchantHigh MerchantScenario = "HIGH"
)

// Percentile selects the production estimate.
type Percentile string

const (
	PercentileP90 Percentile = "P90"
	PercentileP75 Percentile = "P75"
	PercentileP50 Percentile = "P50"
)

// =============================================================================
// TECHNOLOGY VARIANTS
// =============================================================================

// Technology is the capability set the engine needs from either variant:
// installed capacity, a degradation rate for the capacity series, and the
// one-off local taxes due at construction start.
type Technology interface {
	Kind() TechnologyKind
	// InstalledCapacityKW is the nameplate capacity in kW.
	InstalledCapacityKW() float64
	// DegradationRate is the annual capacity degradation in percent.
	DegradationRate() float64
	// LocalTaxes returns development and archeological taxes in kEUR.
	LocalTaxes(taxes TaxParams) (devTax, archeoTax float64)
}

// SolarParams describes a photovoltaic plant.
type SolarParams struct {
	PanelsCapacityKWP float64 `yaml:"panels_capacity_kwp" json:"panels_capacity_kwp" validate:"gte=0"`
	AnnualDegradation float64 `yaml:"annual_degradation" json:"annual_degradation" validate:"gte=0"` // percent per year
	PanelsSurfaceM2   float64 `yaml:"panels_surface_m2" json:"panels_surface_m2" validate:"gte=0"`
	// DevTaxValuePerM2 is the statutory taxable value per m2 of panel, in EUR.
	DevTaxValuePerM2 float64 `yaml:"dev_tax_value_per_m2" json:"dev_tax_value_per_m2" validate:"gte=0"`
	// ArcheoTaxBase is the taxable base of the archeological tax, in EUR.
	ArcheoTaxBase float64 `yaml:"archeo_tax_base" json:"archeo_tax_base" validate:"gte=0"`
}

func (s *SolarParams) Kind() TechnologyKind         { return TechnologySolar }
func (s *SolarParams) InstalledCapacityKW() float64 { return s.PanelsCapacityKWP }
func (s *SolarParams) DegradationRate() float64     { return s.AnnualDegradation }

// LocalTaxes converts the EUR statutory bases into kEUR amounts.
func (s *SolarParams) LocalTaxes(taxes TaxParams) (float64, float64) {
	devBase := s.PanelsSurfaceM2 * s.DevTaxValuePerM2
	dev := devBase * (taxes.DevTaxCommuneRate + taxes.DevTaxDepartmentRate) / 100 / 1000
	archeo := s.ArcheoTaxBase * taxes.ArcheoTaxRate / 100 / 1000
	return dev, archeo
}

// WindParams describes an onshore wind farm. No degradation, no archeological
// tax; both zero-valued paths are kept explicit so audit identities line up.
type WindParams struct {
	Turbines           int     `yaml:"turbines" json:"turbines" validate:"gte=0"`
	CapacityPerTurbine float64 `yaml:"capacity_per_turbine_mw" json:"capacity_per_turbine_mw" validate:"gte=0"` // MW
	// DevTaxValuePerTurbine is the statutory taxable value per turbine, in EUR.
	DevTaxValuePerTurbine float64 `yaml:"dev_tax_value_per_turbine" json:"dev_tax_value_per_turbine" validate:"gte=0"`
}

func (w *WindParams) Kind() TechnologyKind { return TechnologyWind }

func (w *WindParams) InstalledCapacityKW() float64 {
	return float64(w.Turbines) * w.CapacityPerTurbine * 1000
}

func (w *WindParams) DegradationRate() float64 { return 0 }

func (w *WindParams) LocalTaxes(taxes TaxParams) (float64, float64) {
	devBase := float64(w.Turbines) * w.DevTaxValuePerTurbine
	dev := devBase * (taxes.DevTaxCommuneRate + taxes.DevTaxDepartmentRate) / 100 / 1000
	return dev, 0
}

// =============================================================================
// PARAMETER GROUPS
// =============================================================================

// ProductionParams holds the three production percentiles in kWh per kW of
// installed capacity per year, the percentile selector, and the monthly
// seasonality profile (12 factors summing to 1).
type ProductionParams struct {
	P90         float64    `yaml:"p90" json:"p90" validate:"gte=0"`
	P75         float64    `yaml:"p75" json:"p75" validate:"gte=0"`
	P50         float64    `yaml:"p50" json:"p50" validate:"gte=0"`
	Choice      Percentile `yaml:"choice" json:"choice" validate:"oneof=P90 P75 P50"`
	Seasonality []float64  `yaml:"seasonality" json:"seasonality" validate:"len=12"`
}

// Selected returns the percentile picked by Choice.
func (p ProductionParams) Selected() float64 {
	switch p.Choice {
	case PercentileP75:
		return p.P75
	case PercentileP50:
		return p.P50
	default:
		return p.P90
	}
}

// ContractParams describes the PPA window and its price.
type ContractParams struct {
	Start           Date    `yaml:"start" json:"start"`
	End             Date    `yaml:"end" json:"end"`
	PriceEURMWh     float64 `yaml:"price_eur_mwh" json:"price_eur_mwh" validate:"gte=0"`
	IndexationStart Date    `yaml:"indexation_start" json:"indexation_start"`
	IndexationRate  float64 `yaml:"indexation_rate" json:"indexation_rate"` // percent per year
}

// MerchantParams holds the per-scenario yearly price curves in EUR/MWh keyed
// by calendar year.
type MerchantParams struct {
	Scenario        MerchantScenario                     `yaml:"scenario" json:"scenario" validate:"oneof=LOW MED HIGH"`
	Prices          map[MerchantScenario]map[int]float64 `yaml:"prices" json:"prices"`
	IndexationStart Date                                 `yaml:"indexation_start" json:"indexation_start"`
	IndexationRate  float64                              `yaml:"indexation_rate" json:"indexation_rate"`
}

// SelectedPrices returns the active scenario's curve (nil-safe).
func (m MerchantParams) SelectedPrices() map[int]float64 {
	if m.Prices == nil {
		return nil
	}
	return m.Prices[m.Scenario]
}

// OpexParams groups operating costs, lease and payment delays.
type OpexParams struct {
	AnnualOpex           float64 `yaml:"annual_opex" json:"annual_opex" validate:"gte=0"` // kEUR per year
	OpexIndexationStart  Date    `yaml:"opex_indexation_start" json:"opex_indexation_start"`
	OpexIndexationRate   float64 `yaml:"opex_indexation_rate" json:"opex_indexation_rate"`
	AnnualLease          float64 `yaml:"annual_lease" json:"annual_lease" validate:"gte=0"` // kEUR per year
	LeaseIndexationStart Date    `yaml:"lease_indexation_start" json:"lease_indexation_start"`
	LeaseIndexationRate  float64 `yaml:"lease_indexation_rate" json:"lease_indexation_rate"`
	PaymentDelayRevenues float64 `yaml:"payment_delay_revenues" json:"payment_delay_revenues" validate:"gte=0"` // days
	PaymentDelayCosts    float64 `yaml:"payment_delay_costs" json:"payment_delay_costs" validate:"gte=0"`       // days
}

// TaxParams groups the flat corporate tax and the one-off local tax rates.
type TaxParams struct {
	CorporateIncomeTaxRate float64 `yaml:"corporate_income_tax_rate" json:"corporate_income_tax_rate" validate:"gte=0,lte=100"`
	DevTaxCommuneRate      float64 `yaml:"dev_tax_commune_rate" json:"dev_tax_commune_rate" validate:"gte=0"`
	DevTaxDepartmentRate   float64 `yaml:"dev_tax_department_rate" json:"dev_tax_department_rate" validate:"gte=0"`
	ArcheoTaxRate          float64 `yaml:"archeo_tax_rate" json:"archeo_tax_rate" validate:"gte=0"`
}

// DebtParams holds the senior facility terms.
type DebtParams struct {
	TargetDSCR    float64 `yaml:"target_dscr" json:"target_dscr" validate:"gt=0"`
	MaxGearing    float64 `yaml:"max_gearing" json:"max_gearing" validate:"gt=0,lte=100"` // percent
	TenorYears    int     `yaml:"tenor_years" json:"tenor_years" validate:"gt=0"`
	Margin        float64 `yaml:"margin" json:"margin" validate:"gte=0"`                 // percent per year
	UpfrontFee    float64 `yaml:"upfront_fee" json:"upfront_fee" validate:"gte=0"`       // percent of debt
	CommitmentFee float64 `yaml:"commitment_fee" json:"commitment_fee" validate:"gte=0"` // percent per year on undrawn
	DSRAMonths    int     `yaml:"dsra_months" json:"dsra_months" validate:"oneof=6 12"`
}

// EquityParams holds the equity-side terms.
type EquityParams struct {
	InjectionMode InjectionMode `yaml:"injection_mode" json:"injection_mode" validate:"oneof=EQUITY_FIRST PRO_RATA"`
	Subgearing    float64       `yaml:"subgearing" json:"subgearing" validate:"gte=0,lte=100"` // percent of equity via SHL
	SHLMargin     float64       `yaml:"shl_margin" json:"shl_margin" validate:"gte=0"`         // percent per year
	CashMin       float64       `yaml:"cash_min" json:"cash_min" validate:"gte=0"`             // kEUR held in operating account
}

// SensitivityParams are the deltas applied to the frozen base assumptions.
// Zero values mean "base case".
type SensitivityParams struct {
	Production float64 `yaml:"production" json:"production"` // percent, e.g. -10
	Opex       float64 `yaml:"opex" json:"opex"`             // percent
	Inflation  float64 `yaml:"inflation" json:"inflation"`   // percentage points on all indexation rates
}

// ValuationParams configure the NPV-based equity valuation.
type ValuationParams struct {
	DiscountRate float64 `yaml:"discount_rate" json:"discount_rate" validate:"gte=0"` // percent
	// Date is the "as of" date for discounting. Zero value falls back to the
	// construction start so that runs stay deterministic.
	Date Date `yaml:"date" json:"date"`
}

// DevFeeParams configure the development fee optimization.
type DevFeeParams struct {
	Mode DevFeeMode `yaml:"mode" json:"mode" validate:"oneof=OPTIMIZE ZERO"`
	// PaidFC and PaidCOD are fractions of the fee paid at financial close and
	// at COD; they must sum to 1 when the mode is OPTIMIZE.
	PaidFC  float64 `yaml:"paid_fc" json:"paid_fc" validate:"gte=0,lte=1"`
	PaidCOD float64 `yaml:"paid_cod" json:"paid_cod" validate:"gte=0,lte=1"`
}

// =============================================================================
// ASSUMPTIONS (the one immutable input record)
// =============================================================================

// Assumptions is the complete frozen input of one model run.
type Assumptions struct {
	// Timing
	ConstructionStart Date `yaml:"construction_start" json:"construction_start"`
	ConstructionEnd   Date `yaml:"construction_end" json:"construction_end"`
	OperatingLife     int  `yaml:"operating_life" json:"operating_life" validate:"gt=0,lte=40"`   // years
	LiquidationMonths int  `yaml:"liquidation_months" json:"liquidation_months" validate:"gte=0"` // months after end of operations
	PeriodicityMonths int  `yaml:"periodicity_months" json:"periodicity_months" validate:"oneof=3 6"`

	// Technology (exactly one variant populated, selected by TechnologyKind)
	TechnologyKind TechnologyKind `yaml:"technology" json:"technology" validate:"oneof=SOLAR WIND"`
	Solar          *SolarParams   `yaml:"solar,omitempty" json:"solar,omitempty"`
	Wind           *WindParams    `yaml:"wind,omitempty" json:"wind,omitempty"`

	Production ProductionParams `yaml:"production" json:"production"`

	// ConstructionCosts holds one kEUR value per construction month.
	ConstructionCosts []float64 `yaml:"construction_costs" json:"construction_costs"`

	Contract    ContractParams    `yaml:"contract" json:"contract"`
	Merchant    MerchantParams    `yaml:"merchant" json:"merchant"`
	Opex        OpexParams        `yaml:"opex" json:"opex"`
	Taxes       TaxParams         `yaml:"taxes" json:"taxes"`
	Debt        DebtParams        `yaml:"debt" json:"debt"`
	Equity      EquityParams      `yaml:"equity" json:"equity"`
	Sensitivity SensitivityParams `yaml:"sensitivity" json:"sensitivity"`
	Valuation   ValuationParams   `yaml:"valuation" json:"valuation"`
	DevFee      DevFeeParams      `yaml:"dev_fee" json:"dev_fee"`
}

// Technology returns the active variant.
func (a *Assumptions) Technology() Technology {
	if a.TechnologyKind == TechnologyWind {
		return a.Wind
	}
	return a.Solar
}

// COD is the commercial operation date, the first day after construction end.
func (a *Assumptions) COD() time.Time {
	return a.ConstructionEnd.AddDate(0, 0, 1)
}

// EndOfOperations is construction end plus the operating life.
func (a *Assumptions) EndOfOperations() time.Time {
	return a.ConstructionEnd.AddDate(a.OperatingLife, 0, 0)
}

// LiquidationDate is the end of operations plus the liquidation delay. The
// day clamps to the target month's last day, so a 31/12 end of operations
// plus 6 months lands on 30/06 rather than normalizing into July.
func (a *Assumptions) LiquidationDate() time.Time {
	return addMonthsClamped(a.EndOfOperations(), a.LiquidationMonths)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	anchor := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	day := t.Day()
	if last := anchor.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(anchor.Year(), anchor.Month(), day, 0, 0, 0, 0, time.UTC)
}

// DebtMaturity keeps the source convention: last day of the month of
// (construction start + tenor*12 - 1 months).
func (a *Assumptions) DebtMaturity() time.Time {
	anchor := a.ConstructionStart.AddDate(0, a.Debt.TenorYears*12-1, 0)
	firstOfNext := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}

// ConstructionMonths is the number of monthly construction periods.
func (a *Assumptions) ConstructionMonths() int {
	start := a.ConstructionStart.Time
	end := a.ConstructionEnd.Time
	return (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month()) + 1
}

// ValuationDate resolves the "as of" date, falling back to construction start.
func (a *Assumptions) ValuationDate() time.Time {
	if a.Valuation.Date.IsZero() {
		return a.ConstructionStart.Time
	}
	return a.Valuation.Date.Time
}

// Clone returns a deep copy, used by the sensitivity orchestrator to derive
// perturbed cases without touching the base record.
func (a *Assumptions) Clone() *Assumptions {
	dup := *a
	if a.Solar != nil {
		s := *a.Solar
		dup.Solar = &s
	}
	if a.Wind != nil {
		w := *a.Wind
		dup.Wind = &w
	}
	dup.Production.Seasonality = append([]float64(nil), a.Production.Seasonality...)
	dup.ConstructionCosts = append([]float64(nil), a.ConstructionCosts...)
	if a.Merchant.Prices != nil {
		dup.Merchant.Prices = make(map[MerchantScenario]map[int]float64, len(a.Merchant.Prices))
		for scen, curve := range a.Merchant.Prices {
			c := make(map[int]float64, len(curve))
			for y, p := range curve {
				c[y] = p
			}
			dup.Merchant.Prices[scen] = c
		}
	}
	return &dup
}

// String identifies the record in logs without dumping every field.
func (a *Assumptions) String() string {
	return fmt.Sprintf("%s %s -> %s, %dy life, %dm periods",
		a.TechnologyKind, a.ConstructionStart.Format(isoLayout),
		a.ConstructionEnd.Format(isoLayout), a.OperatingLife, a.PeriodicityMonths)
}
