// Package finance provides the compensation projection formulas: salary
// compounding, equity vesting and appreciation, private-company risk
// adjustment and equity tax estimation. Every function is pure; inputs are
// never modified.
package finance

// CompanyType distinguishes public companies from private ones whose equity
// is illiquid.
type CompanyType string

// EquityType selects the tax treatment of an equity grant.
type EquityType string

const (
	CompanyPublic  CompanyType = "public"
	CompanyPrivate CompanyType = "private"

	EquityRSU EquityType = "RSU"
	EquityISO EquityType = "ISO"
	EquityNSO EquityType = "NSO"
)

// Growth describes the raise applied when entering a year and the bonus
// target for that year, both as percentages.
type Growth struct {
	SalaryGrowth    float64 `json:"salaryGrowth" yaml:"salaryGrowth" mapstructure:"salaryGrowth" validate:"finite,gte=-100"`
	BonusPercentage float64 `json:"bonusPercentage" yaml:"bonusPercentage" mapstructure:"bonusPercentage" validate:"finite,gte=0"`
}

// RefreshGrant is an additional award issued at the start of a 1-based year.
type RefreshGrant struct {
	Year   int     `json:"year" yaml:"year" mapstructure:"year" validate:"gte=2"`
	Amount float64 `json:"amount" yaml:"amount" mapstructure:"amount" validate:"finite,gte=0"`
}

// Equity holds the grant terms of a package. Pointer fields are optional and
// a nil value means "not provided", which is distinct from zero.
type Equity struct {
	Type               EquityType     `json:"type" yaml:"type" mapstructure:"type" validate:"required,oneof=RSU ISO NSO"`
	InitialGrant       float64        `json:"initialGrant" yaml:"initialGrant" mapstructure:"initialGrant" validate:"finite,gte=0"`
	VestingSchedule    []float64      `json:"vestingSchedule" yaml:"vestingSchedule" mapstructure:"vestingSchedule" validate:"dive,finite,gte=0,lte=100"`
	RefreshGrants      []RefreshGrant `json:"refreshGrants" yaml:"refreshGrants" mapstructure:"refreshGrants" validate:"dive"`
	AnnualAppreciation *float64       `json:"annualAppreciation,omitempty" yaml:"annualAppreciation,omitempty" mapstructure:"annualAppreciation" validate:"omitempty,finite,gte=-100"`
	StrikePrice        *float64       `json:"strikePrice,omitempty" yaml:"strikePrice,omitempty" mapstructure:"strikePrice" validate:"omitempty,finite,gte=0"`
	Shares             *float64       `json:"shares,omitempty" yaml:"shares,omitempty" mapstructure:"shares" validate:"omitempty,finite,gte=0"`
	CurrentFMV         *float64       `json:"currentFMV,omitempty" yaml:"currentFMV,omitempty" mapstructure:"currentFMV" validate:"omitempty,finite,gte=0"`
	LiquidityDiscount  *float64       `json:"liquidityDiscount,omitempty" yaml:"liquidityDiscount,omitempty" mapstructure:"liquidityDiscount" validate:"omitempty,finite,gte=0,lte=100"`
	ExitMultiple       *float64       `json:"exitMultiple,omitempty" yaml:"exitMultiple,omitempty" mapstructure:"exitMultiple" validate:"omitempty,finite,gte=0"`
}

// Company describes the employer.
type Company struct {
	Type CompanyType `json:"type" yaml:"type" mapstructure:"type" validate:"required,oneof=public private"`
}

// Package is one compensation offer. Growth[i] applies when entering year i.
type Package struct {
	Name    string   `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Base    float64  `json:"base" yaml:"base" mapstructure:"base" validate:"finite,gt=0"`
	Growth  []Growth `json:"growth" yaml:"growth" mapstructure:"growth" validate:"min=1,dive"`
	Company Company  `json:"company" yaml:"company" mapstructure:"company"`
	Equity  Equity   `json:"equity" yaml:"equity" mapstructure:"equity"`
}

// CapitalGains holds short- and long-term capital gains rates.
type CapitalGains struct {
	ShortTerm float64 `json:"shortTerm" yaml:"shortTerm" mapstructure:"shortTerm" validate:"finite,gte=0,lte=100"`
	LongTerm  float64 `json:"longTerm" yaml:"longTerm" mapstructure:"longTerm" validate:"finite,gte=0,lte=100"`
}

// TaxRates is the user-configurable tax configuration shared by both
// packages in a comparison. All values are percentages.
type TaxRates struct {
	Federal      float64      `json:"federal" yaml:"federal" mapstructure:"federal" validate:"finite,gte=0,lte=100"`
	State        float64      `json:"state" yaml:"state" mapstructure:"state" validate:"finite,gte=0,lte=100"`
	AMT          float64      `json:"amt" yaml:"amt" mapstructure:"amt" validate:"finite,gte=0,lte=100"`
	CapitalGains CapitalGains `json:"capitalGains" yaml:"capitalGains" mapstructure:"capitalGains"`
}

// EquityValue is the equity realized in one year before and after the
// private-company risk adjustment.
type EquityValue struct {
	Raw          float64 `json:"raw"`
	RiskAdjusted float64 `json:"riskAdjusted"`
}

// YearlyBreakdown is the projection of one package for one year. Tax is the
// estimated liability on that year's equity; it is reported alongside Total
// and is not subtracted from it.
type YearlyBreakdown struct {
	Year   int         `json:"year"`
	Salary float64     `json:"salary"`
	Bonus  float64     `json:"bonus"`
	Equity EquityValue `json:"equity"`
	Tax    float64     `json:"tax"`
	Total  float64     `json:"total"`
}

// NetEquity returns the risk-adjusted equity less its estimated tax.
func (b YearlyBreakdown) NetEquity() float64 {
	return NetValue(b.Equity.RiskAdjusted, b.Tax)
}

// Float returns a pointer to v, for populating optional fields.
func Float(v float64) *float64 {
	return &v
}
