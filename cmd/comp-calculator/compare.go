package main

import (
	"errors"
	"fmt"

	"github.com/iwvelando/comp-calculator/internal/forecast"
	"github.com/iwvelando/comp-calculator/pkg/constants"
	"github.com/iwvelando/comp-calculator/pkg/finance"
	"github.com/iwvelando/comp-calculator/pkg/output"
	"github.com/iwvelando/comp-calculator/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the configured current and new packages",
	Long:  "Project both configured packages over the horizon and print the yearly breakdown and summary metrics.",
	RunE:  runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
}

func runCompare(_ *cobra.Command, _ []string) error {
	conf, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if outputFormatFlag != "" {
		outputFormat = outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main.compare"),
		)
	}

	engine := forecast.NewEngine(logger)
	result, compareErr := engine.Compare(conf.Packages.Current, conf.Packages.New, conf.TaxRates, conf.Projection.Years)
	if compareErr != nil && !errors.Is(compareErr, finance.ErrOutOfRange) {
		return fmt.Errorf("failed to compare packages: %w", compareErr)
	}

	// A blocked comparison is still rendered; the blocked years show as
	// unavailable and the command exits non-zero afterwards.
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(result)
	case constants.OutputFormatCSV:
		output.CsvFormat(result)
	case constants.OutputFormatJSON:
		if err := output.JSONFormat(result); err != nil {
			return fmt.Errorf("failed to render comparison: %w", err)
		}
	}

	if compareErr != nil {
		return fmt.Errorf("comparison incomplete: %w", compareErr)
	}
	return nil
}
