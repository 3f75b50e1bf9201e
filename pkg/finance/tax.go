package finance

import (
	"math"

	"github.com/iwvelando/comp-calculator/pkg/mathutil"
)

// EstimateTax returns the estimated tax on grossValue of equity.
//
// RSUs are taxed as ordinary income. ISOs owe AMT on the spread over the
// exercise cost, floored at zero. NSOs owe ordinary income tax on the spread
// and are not floored: an underwater NSO yields a negative value (a credit),
// which callers receive as-is. Options missing strikePrice or shares are not
// taxed.
func EstimateTax(grossValue float64, equityType EquityType, strikePrice, shares *float64, rates TaxRates) float64 {
	ordinary := mathutil.PercentToDecimal(rates.Federal + rates.State)

	switch equityType {
	case EquityRSU:
		return grossValue * ordinary
	case EquityISO:
		if strikePrice == nil || shares == nil {
			return 0
		}
		exerciseCost := *shares * *strikePrice
		amtIncome := grossValue - exerciseCost
		return math.Max(0, amtIncome*mathutil.PercentToDecimal(rates.AMT))
	case EquityNSO:
		if strikePrice == nil || shares == nil {
			return 0
		}
		exerciseCost := *shares * *strikePrice
		spread := grossValue - exerciseCost
		return spread * ordinary
	}
	return 0
}

// NetValue returns grossValue after tax.
func NetValue(grossValue, tax float64) float64 {
	return grossValue - tax
}
