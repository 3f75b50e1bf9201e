// Package forecast compares compensation packages year by year over a
// projection horizon.
package forecast

import (
	"errors"
	"fmt"

	"github.com/iwvelando/comp-calculator/pkg/constants"
	"github.com/iwvelando/comp-calculator/pkg/finance"
	"go.uber.org/zap"
)

// ErrInvalidHorizon is returned for a negative projection horizon.
var ErrInvalidHorizon = errors.New("invalid horizon")

// YearComparison holds both packages' projections for one year.
type YearComparison struct {
	Year       int                     `json:"year"`
	Current    finance.YearlyBreakdown `json:"current"`
	New        finance.YearlyBreakdown `json:"new"`
	Difference float64                 `json:"difference"`
}

// Comparison is the result of comparing two packages. Years holds every year
// that could be projected; Blocked lists the year indices that could not be,
// which must be displayed as unavailable rather than zero.
type Comparison struct {
	CurrentName string              `json:"currentName"`
	NewName     string              `json:"newName"`
	Horizon     int                 `json:"horizon"`
	Years       []YearComparison    `json:"years"`
	Blocked     []int               `json:"blocked,omitempty"`
	NewCompany  finance.CompanyType `json:"newCompany"`
}

// Engine projects and compares packages. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a new engine. If logger is nil, a no-op logger is used.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// ProjectYear validates pkg and rates, then projects year y.
func (e *Engine) ProjectYear(pkg finance.Package, y int, rates finance.TaxRates) (finance.YearlyBreakdown, error) {
	if err := validateInputs(rates, pkg); err != nil {
		return finance.YearlyBreakdown{}, err
	}
	return finance.ProjectYear(pkg, y, rates)
}

// Project validates pkg and projects every year of the horizon. A horizon
// of zero selects the default.
func (e *Engine) Project(pkg finance.Package, horizon int, rates finance.TaxRates) ([]finance.YearlyBreakdown, error) {
	horizon, err := normalizeHorizon(horizon)
	if err != nil {
		return nil, err
	}
	if err := validateInputs(rates, pkg); err != nil {
		return nil, err
	}

	breakdowns := make([]finance.YearlyBreakdown, 0, horizon)
	for y := 0; y < horizon; y++ {
		b, err := finance.ProjectYear(pkg, y, rates)
		if err != nil {
			return breakdowns, fmt.Errorf("projecting %s year %d: %w", packageLabel(pkg, "package"), y+1, err)
		}
		breakdowns = append(breakdowns, b)
	}
	return breakdowns, nil
}

// Compare projects current and next side by side. Computation stops at the
// first year either package cannot be projected; the error is returned
// together with the years computed so far and the blocked remainder.
func (e *Engine) Compare(current, next finance.Package, rates finance.TaxRates, horizon int) (*Comparison, error) {
	horizon, err := normalizeHorizon(horizon)
	if err != nil {
		return nil, err
	}
	if err := validateInputs(rates, current, next); err != nil {
		return nil, err
	}

	result := &Comparison{
		CurrentName: nameOr(current, "current"),
		NewName:     nameOr(next, "new"),
		Horizon:     horizon,
		Years:       make([]YearComparison, 0, horizon),
		NewCompany:  next.Company.Type,
	}

	for y := 0; y < horizon; y++ {
		cur, err := finance.ProjectYear(current, y, rates)
		if err == nil {
			var nxt finance.YearlyBreakdown
			nxt, err = finance.ProjectYear(next, y, rates)
			if err == nil {
				result.Years = append(result.Years, YearComparison{
					Year:       y,
					Current:    cur,
					New:        nxt,
					Difference: nxt.Total - cur.Total,
				})
				continue
			}
			err = fmt.Errorf("projecting %s year %d: %w", packageLabel(next, "new"), y+1, err)
		} else {
			err = fmt.Errorf("projecting %s year %d: %w", packageLabel(current, "current"), y+1, err)
		}

		for blocked := y; blocked < horizon; blocked++ {
			result.Blocked = append(result.Blocked, blocked)
		}
		e.logger.Warn("comparison blocked",
			zap.String("op", "forecast.Compare"),
			zap.Int("year", y+1),
			zap.Error(err),
		)
		return result, err
	}

	e.logger.Debug("comparison computed",
		zap.String("op", "forecast.Compare"),
		zap.Int("horizon", horizon),
		zap.Float64("totalDifference", result.TotalDifference()),
	)
	return result, nil
}

// Complete reports whether every year of the horizon was projected.
func (c *Comparison) Complete() bool {
	return len(c.Blocked) == 0 && len(c.Years) == c.Horizon
}

// FirstYearDifference returns the year-one difference, or false if year one
// is blocked.
func (c *Comparison) FirstYearDifference() (float64, bool) {
	if len(c.Years) == 0 {
		return 0, false
	}
	return c.Years[0].Difference, true
}

// TotalDifference sums the yearly differences that were computed.
func (c *Comparison) TotalDifference() float64 {
	total := 0.0
	for _, year := range c.Years {
		total += year.Difference
	}
	return total
}

// RiskAdjustedDifference returns the final-year difference scaled by the
// flat private-company factor when the new package is private. It is a
// coarse view, separate from the per-grant risk adjustment applied to
// equity. It reports false when the final year is blocked.
func (c *Comparison) RiskAdjustedDifference() (float64, bool) {
	if !c.Complete() || len(c.Years) == 0 {
		return 0, false
	}
	diff := c.Years[len(c.Years)-1].Difference
	if c.NewCompany == finance.CompanyPrivate {
		diff *= constants.PrivateRiskFactor
	}
	return diff, true
}

func normalizeHorizon(horizon int) (int, error) {
	if horizon < 0 {
		return 0, fmt.Errorf("%w: must not be negative, got %d", ErrInvalidHorizon, horizon)
	}
	if horizon == 0 {
		return constants.ProjectionYears, nil
	}
	return horizon, nil
}

func validateInputs(rates finance.TaxRates, pkgs ...finance.Package) error {
	if err := finance.ValidateTaxRates(rates); err != nil {
		return err
	}
	for _, pkg := range pkgs {
		if err := finance.Validate(pkg); err != nil {
			return err
		}
	}
	return nil
}

func nameOr(pkg finance.Package, fallback string) string {
	if pkg.Name != "" {
		return pkg.Name
	}
	return fallback
}

func packageLabel(pkg finance.Package, fallback string) string {
	if pkg.Name != "" {
		return fmt.Sprintf("package %q", pkg.Name)
	}
	return fmt.Sprintf("%s package", fallback)
}
