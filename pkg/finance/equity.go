package finance

import "github.com/iwvelando/comp-calculator/pkg/mathutil"

// ValueEquity returns the equity realized in 0-based year y.
//
// VestingSchedule[y] is the percent of the initial grant vesting in year y,
// not vested-to-date. A refresh grant with 1-based Year == y+1 contributes in
// year y only, appreciated from its issuance year.
func ValueEquity(pkg Package, y int) (EquityValue, error) {
	eq := pkg.Equity
	if err := checkIndex("vestingSchedule", y, len(eq.VestingSchedule)); err != nil {
		return EquityValue{}, err
	}

	appreciation := 0.0
	if eq.AnnualAppreciation != nil {
		appreciation = *eq.AnnualAppreciation
	}

	vested := eq.InitialGrant * mathutil.PercentToDecimal(eq.VestingSchedule[y]) * mathutil.GrowthFactor(appreciation, y)

	refresh := 0.0
	for _, grant := range eq.RefreshGrants {
		if grant.Year != y+1 {
			continue
		}
		elapsed := y - (grant.Year - 1)
		refresh += grant.Amount * mathutil.GrowthFactor(appreciation, elapsed)
	}

	raw := vested + refresh
	return EquityValue{Raw: raw, RiskAdjusted: RiskAdjust(raw, eq, pkg.Company)}, nil
}

// RiskAdjust applies the liquidity discount and exit multiple to raw equity
// of a private company. Public companies, and private ones missing either
// field, pass through unchanged.
func RiskAdjust(raw float64, eq Equity, company Company) float64 {
	if company.Type != CompanyPrivate || eq.LiquidityDiscount == nil || eq.ExitMultiple == nil {
		return raw
	}
	return raw * (1 - mathutil.PercentToDecimal(*eq.LiquidityDiscount)) * *eq.ExitMultiple
}
