package main

import (
	"fmt"
	"strings"

	"github.com/iwvelando/comp-calculator/pkg/finance"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var taxCmd = &cobra.Command{
	Use:   "tax",
	Short: "Estimate the tax on one equity value",
	Long:  "Estimate the tax owed on a vested equity value using the configured tax rates.",
	RunE:  runTax,
}

var (
	taxGross       float64
	taxEquityType  string
	taxStrikePrice float64
	taxShares      float64
)

func init() {
	taxCmd.Flags().Float64Var(&taxGross, "gross", 0, "gross equity value")
	taxCmd.Flags().StringVar(&taxEquityType, "type", string(finance.EquityRSU), "equity type: RSU, ISO, NSO")
	taxCmd.Flags().Float64Var(&taxStrikePrice, "strike", 0, "option strike price")
	taxCmd.Flags().Float64Var(&taxShares, "shares", 0, "number of option shares")
	_ = taxCmd.MarkFlagRequired("gross")

	rootCmd.AddCommand(taxCmd)
}

func runTax(cmd *cobra.Command, _ []string) error {
	conf, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := finance.ValidateTaxRates(conf.TaxRates); err != nil {
		return err
	}

	equityType := finance.EquityType(strings.ToUpper(taxEquityType))
	switch equityType {
	case finance.EquityRSU, finance.EquityISO, finance.EquityNSO:
	default:
		return fmt.Errorf("invalid equity type %q, must be RSU, ISO or NSO", taxEquityType)
	}

	// Unset option flags stay nil so the estimator can tell them from zero.
	var strike, shares *float64
	if cmd.Flags().Changed("strike") {
		strike = finance.Float(taxStrikePrice)
	}
	if cmd.Flags().Changed("shares") {
		shares = finance.Float(taxShares)
	}

	tax := finance.EstimateTax(taxGross, equityType, strike, shares, conf.TaxRates)
	logger.Debug("tax estimated",
		zap.String("op", "main.tax"),
		zap.String("equityType", string(equityType)),
		zap.Float64("tax", tax),
	)

	p := message.NewPrinter(language.English)
	p.Printf("Gross: $%.2f\n", taxGross)
	p.Printf("Tax:   $%.2f\n", tax)
	p.Printf("Net:   $%.2f\n", finance.NetValue(taxGross, tax))
	return nil
}
