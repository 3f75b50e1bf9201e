// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/comp-calculator/pkg/finance"
	"github.com/iwvelando/comp-calculator/pkg/mathutil"
)

// PackageWarnings returns non-fatal problems with pkg over a projection of
// horizon years. Hard errors are left to finance.Validate.
func PackageWarnings(pkg finance.Package, horizon int) []string {
	var warnings []string
	name := pkg.Name
	if name == "" {
		name = "unnamed"
	}

	if len(pkg.Growth) < horizon {
		warnings = append(warnings, fmt.Sprintf("Package '%s' growth covers %d of %d years - later years will be unavailable",
			name, len(pkg.Growth), horizon))
	}

	schedule := pkg.Equity.VestingSchedule
	if len(schedule) < horizon {
		warnings = append(warnings, fmt.Sprintf("Package '%s' vesting schedule covers %d of %d years - later years will be unavailable",
			name, len(schedule), horizon))
	}

	total := 0.0
	for _, pct := range schedule {
		total += pct
	}
	if len(schedule) > 0 && !mathutil.WithinTolerance(total, 100, 0.001) {
		warnings = append(warnings, fmt.Sprintf("Package '%s' vesting schedule totals %.2f%%, not 100%%", name, total))
	}

	for _, grant := range pkg.Equity.RefreshGrants {
		if grant.Year > horizon {
			warnings = append(warnings, fmt.Sprintf("Package '%s' refresh grant in year %d falls outside the %d-year projection",
				name, grant.Year, horizon))
		}
	}

	if pkg.Equity.Type == finance.EquityISO || pkg.Equity.Type == finance.EquityNSO {
		if pkg.Equity.StrikePrice == nil || pkg.Equity.Shares == nil {
			warnings = append(warnings, fmt.Sprintf("Package '%s' %s grant is missing strike price or shares - tax will not be estimated",
				name, pkg.Equity.Type))
		}
	}

	if pkg.Company.Type == finance.CompanyPrivate {
		if pkg.Equity.LiquidityDiscount == nil || pkg.Equity.ExitMultiple == nil {
			warnings = append(warnings, fmt.Sprintf("Package '%s' is private but lacks liquidity discount or exit multiple - equity is not risk adjusted",
				name))
		}
	}

	return warnings
}
