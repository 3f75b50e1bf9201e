// Package testutil provides common fixtures for testing.
package testutil

import (
	"github.com/iwvelando/comp-calculator/pkg/finance"
)

// FlatGrowth returns years identical growth entries.
func FlatGrowth(years int, salaryGrowth, bonusPercentage float64) []finance.Growth {
	growth := make([]finance.Growth, years)
	for i := range growth {
		growth[i] = finance.Growth{SalaryGrowth: salaryGrowth, BonusPercentage: bonusPercentage}
	}
	return growth
}

// PublicPackage returns a four-year public-company RSU package: $150,000
// base, 5% raises, 15% bonus and a $200,000 grant vesting evenly.
func PublicPackage(name string) finance.Package {
	return finance.Package{
		Name:    name,
		Base:    150000,
		Growth:  FlatGrowth(4, 5, 15),
		Company: finance.Company{Type: finance.CompanyPublic},
		Equity: finance.Equity{
			Type:            finance.EquityRSU,
			InitialGrant:    200000,
			VestingSchedule: []float64{25, 25, 25, 25},
		},
	}
}

// PrivatePackage returns a four-year private-company ISO package with a 30%
// liquidity discount and a 2x exit multiple.
func PrivatePackage(name string) finance.Package {
	return finance.Package{
		Name:    name,
		Base:    140000,
		Growth:  FlatGrowth(4, 3, 10),
		Company: finance.Company{Type: finance.CompanyPrivate},
		Equity: finance.Equity{
			Type:              finance.EquityISO,
			InitialGrant:      400000,
			VestingSchedule:   []float64{25, 25, 25, 25},
			RefreshGrants:     []finance.RefreshGrant{{Year: 3, Amount: 40000}},
			StrikePrice:       finance.Float(5),
			Shares:            finance.Float(30000),
			LiquidityDiscount: finance.Float(30),
			ExitMultiple:      finance.Float(2),
		},
	}
}

// TaxRates returns a typical tax configuration.
func TaxRates() finance.TaxRates {
	return finance.TaxRates{
		Federal:      24,
		State:        5,
		AMT:          28,
		CapitalGains: finance.CapitalGains{ShortTerm: 24, LongTerm: 15},
	}
}
