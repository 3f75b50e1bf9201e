package finance

// CompanyDefaults supplies the risk-adjustment fields given to a package
// when it switches to a private company. A nil field supplies nothing, so
// the package keeps passing its equity through unadjusted.
type CompanyDefaults struct {
	LiquidityDiscount *float64 `json:"defaultLiquidityDiscount,omitempty" yaml:"defaultLiquidityDiscount,omitempty" mapstructure:"defaultLiquidityDiscount"`
	ExitMultiple      *float64 `json:"defaultExitMultiple,omitempty" yaml:"defaultExitMultiple,omitempty" mapstructure:"defaultExitMultiple"`
}

// Clone returns a deep copy of pkg.
func (pkg Package) Clone() Package {
	out := pkg
	out.Growth = append([]Growth(nil), pkg.Growth...)
	out.Equity = pkg.Equity.clone()
	return out
}

func (eq Equity) clone() Equity {
	out := eq
	out.VestingSchedule = append([]float64(nil), eq.VestingSchedule...)
	out.RefreshGrants = append([]RefreshGrant(nil), eq.RefreshGrants...)
	out.AnnualAppreciation = cloneFloat(eq.AnnualAppreciation)
	out.StrikePrice = cloneFloat(eq.StrikePrice)
	out.Shares = cloneFloat(eq.Shares)
	out.CurrentFMV = cloneFloat(eq.CurrentFMV)
	out.LiquidityDiscount = cloneFloat(eq.LiquidityDiscount)
	out.ExitMultiple = cloneFloat(eq.ExitMultiple)
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Float(*v)
}

// WithGrowth returns a copy of pkg with the growth entry for year replaced.
func (pkg Package) WithGrowth(year int, g Growth) (Package, error) {
	if err := checkIndex("growth", year, len(pkg.Growth)); err != nil {
		return pkg, err
	}
	out := pkg.Clone()
	out.Growth[year] = g
	return out, nil
}

// WithVesting returns a copy of pkg with the vesting percent for year replaced.
func (pkg Package) WithVesting(year int, percent float64) (Package, error) {
	if err := checkIndex("vestingSchedule", year, len(pkg.Equity.VestingSchedule)); err != nil {
		return pkg, err
	}
	out := pkg.Clone()
	out.Equity.VestingSchedule[year] = percent
	return out, nil
}

// WithRefreshGrant returns a copy of pkg with refresh grant i replaced.
func (pkg Package) WithRefreshGrant(i int, grant RefreshGrant) (Package, error) {
	if err := checkIndex("refreshGrants", i, len(pkg.Equity.RefreshGrants)); err != nil {
		return pkg, err
	}
	out := pkg.Clone()
	out.Equity.RefreshGrants[i] = grant
	return out, nil
}

// AddRefreshGrant returns a copy of pkg with grant appended.
func (pkg Package) AddRefreshGrant(grant RefreshGrant) Package {
	out := pkg.Clone()
	out.Equity.RefreshGrants = append(out.Equity.RefreshGrants, grant)
	return out
}

// WithCompanyType returns a copy of pkg at a company of type t. Moving to a
// private company fills the risk-adjustment fields that defaults provides;
// moving to a public company clears them.
func (pkg Package) WithCompanyType(t CompanyType, defaults CompanyDefaults) Package {
	out := pkg.Clone()
	out.Company.Type = t
	if t == CompanyPrivate {
		if defaults.LiquidityDiscount != nil {
			out.Equity.LiquidityDiscount = Float(*defaults.LiquidityDiscount)
		}
		if defaults.ExitMultiple != nil {
			out.Equity.ExitMultiple = Float(*defaults.ExitMultiple)
		}
	} else {
		out.Equity.LiquidityDiscount = nil
		out.Equity.ExitMultiple = nil
	}
	return out
}
