package finance

// ProjectYear projects pkg for 0-based year y. Tax is estimated on the
// risk-adjusted equity of that year alone.
func ProjectYear(pkg Package, y int, rates TaxRates) (YearlyBreakdown, error) {
	salary, err := Salary(pkg, y)
	if err != nil {
		return YearlyBreakdown{}, err
	}
	bonus, err := Bonus(pkg, y)
	if err != nil {
		return YearlyBreakdown{}, err
	}
	equity, err := ValueEquity(pkg, y)
	if err != nil {
		return YearlyBreakdown{}, err
	}

	return YearlyBreakdown{
		Year:   y,
		Salary: salary,
		Bonus:  bonus,
		Equity: equity,
		Tax:    EstimateTax(equity.RiskAdjusted, pkg.Equity.Type, pkg.Equity.StrikePrice, pkg.Equity.Shares, rates),
		Total:  salary + bonus + equity.RiskAdjusted,
	}, nil
}
