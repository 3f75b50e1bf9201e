// Package output provides utilities for formatting and displaying comparison results.
package output

import (
	"fmt"
	"math"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/iwvelando/comp-calculator/internal/forecast"
	"github.com/iwvelando/comp-calculator/pkg/finance"
	"github.com/iwvelando/comp-calculator/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Unavailable is printed in place of figures for blocked years.
const Unavailable = "unavailable"

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(result *forecast.Comparison) {
	p := message.NewPrinter(language.English)

	fmt.Printf("--- Comparison of %s vs %s ---\n", result.CurrentName, result.NewName)
	fmt.Printf("Year   | %-14s | %-14s | Difference    | Tax (%s) | Tax (%s)\n", result.CurrentName, result.NewName, result.CurrentName, result.NewName)
	fmt.Printf("____   | ______________ | ______________ | _____________ | ________ | ________\n")
	for _, year := range result.Years {
		_, _ = p.Printf("Year %d | %s | %s | %s | %s | %s\n",
			year.Year+1,
			money(p, year.Current.Total),
			money(p, year.New.Total),
			signedMoney(p, year.Difference),
			money(p, year.Current.Tax),
			money(p, year.New.Tax),
		)
	}
	for _, blocked := range result.Blocked {
		fmt.Printf("Year %d | %s\n", blocked+1, Unavailable)
	}

	fmt.Printf("\n")
	for _, year := range result.Years {
		printBreakdown(p, result.CurrentName, year.Current)
		printBreakdown(p, result.NewName, year.New)
	}

	fmt.Printf("\n")
	if first, ok := result.FirstYearDifference(); ok {
		_, _ = p.Printf("Year 1 Difference: %s\n", signedMoney(p, first))
	} else {
		fmt.Printf("Year 1 Difference: %s\n", Unavailable)
	}
	if result.Complete() {
		_, _ = p.Printf("%d-Year Total Difference: %s\n", result.Horizon, signedMoney(p, result.TotalDifference()))
	} else {
		fmt.Printf("%d-Year Total Difference: %s\n", result.Horizon, Unavailable)
	}
	if risk, ok := result.RiskAdjustedDifference(); ok {
		_, _ = p.Printf("Risk Adjusted Difference: %s\n", signedMoney(p, risk))
	} else {
		fmt.Printf("Risk Adjusted Difference: %s\n", Unavailable)
	}
}

func printBreakdown(p *message.Printer, name string, b finance.YearlyBreakdown) {
	_, _ = p.Printf("Year %d %s: salary %s, bonus %s, equity %s (raw %s), tax %s\n",
		b.Year+1, name,
		money(p, b.Salary),
		money(p, b.Bonus),
		money(p, b.Equity.RiskAdjusted),
		money(p, b.Equity.Raw),
		money(p, b.Tax),
	)
}

func money(p *message.Printer, amount float64) string {
	if amount < 0 {
		return p.Sprintf("-$%.2f", math.Abs(amount))
	}
	return p.Sprintf("$%.2f", amount)
}

func signedMoney(p *message.Printer, amount float64) string {
	if amount >= 0 {
		return "+" + money(p, amount)
	}
	return money(p, amount)
}

// ProjectionFormat outputs the yearly breakdown of a single package. Years
// past the last projected one, up to horizon, print as unavailable.
func ProjectionFormat(name string, years []finance.YearlyBreakdown, horizon int) {
	p := message.NewPrinter(language.English)

	fmt.Printf("--- Projection of %s ---\n", name)
	for _, b := range years {
		printBreakdown(p, name, b)
	}
	for y := len(years); y < horizon; y++ {
		fmt.Printf("Year %d %s: %s\n", y+1, name, Unavailable)
	}
	if len(years) == horizon {
		total := 0.0
		for _, b := range years {
			total += b.Total
		}
		_, _ = p.Printf("%d-Year Total: %s\n", horizon, money(p, total))
	} else {
		fmt.Printf("%d-Year Total: %s\n", horizon, Unavailable)
	}
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(result *forecast.Comparison) {
	fmt.Print(CsvString(result))
}

// CsvString renders the comparison as CSV, one row per year. Blocked years
// carry the unavailable marker in every value column.
func CsvString(result *forecast.Comparison) string {
	var b strings.Builder
	b.WriteString(`"year"`)
	for _, name := range []string{result.CurrentName, result.NewName} {
		fmt.Fprintf(&b, `,"salary (%s)","bonus (%s)","equity raw (%s)","equity (%s)","tax (%s)","total (%s)"`,
			name, name, name, name, name, name)
	}
	b.WriteString(`,"difference"`)
	b.WriteString("\n")

	for _, year := range result.Years {
		fmt.Fprintf(&b, `"%d"`, year.Year+1)
		for _, bd := range []finance.YearlyBreakdown{year.Current, year.New} {
			fmt.Fprintf(&b, `,"%.2f","%.2f","%.2f","%.2f","%.2f","%.2f"`,
				bd.Salary, bd.Bonus, bd.Equity.Raw, bd.Equity.RiskAdjusted, bd.Tax, bd.Total)
		}
		fmt.Fprintf(&b, `,"%.2f"`, year.Difference)
		b.WriteString("\n")
	}
	for _, blocked := range result.Blocked {
		fmt.Fprintf(&b, `"%d"`, blocked+1)
		for i := 0; i < 13; i++ {
			fmt.Fprintf(&b, `,"%s"`, Unavailable)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Summary carries the headline metrics of a comparison. Nil fields are
// unavailable because a year was blocked.
type Summary struct {
	FirstYearDifference    *float64 `json:"firstYearDifference"`
	TotalDifference        *float64 `json:"totalDifference"`
	RiskAdjustedDifference *float64 `json:"riskAdjustedDifference"`
}

// Summarize extracts the headline metrics of result, rounded to cents.
func Summarize(result *forecast.Comparison) Summary {
	var s Summary
	if first, ok := result.FirstYearDifference(); ok {
		s.FirstYearDifference = cents(first)
	}
	if result.Complete() {
		s.TotalDifference = cents(result.TotalDifference())
	}
	if risk, ok := result.RiskAdjustedDifference(); ok {
		s.RiskAdjustedDifference = cents(risk)
	}
	return s
}

func cents(v float64) *float64 {
	rounded := mathutil.Round(v)
	return &rounded
}

// JSONFormat outputs the comparison and its summary as indented JSON.
func JSONFormat(result *forecast.Comparison) error {
	data, err := JSONBytes(result)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// JSONBytes renders the comparison and its summary as indented JSON.
func JSONBytes(result *forecast.Comparison) ([]byte, error) {
	payload := struct {
		*forecast.Comparison
		Summary Summary `json:"summary"`
	}{result, Summarize(result)}
	return json.MarshalIndent(payload, "", "  ")
}
