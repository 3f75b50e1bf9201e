package main

import (
	"errors"
	"fmt"

	"github.com/iwvelando/comp-calculator/internal/forecast"
	"github.com/iwvelando/comp-calculator/pkg/finance"
	"github.com/iwvelando/comp-calculator/pkg/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project one configured package year by year",
	Long:  "Project the salary, bonus, equity and tax of the current or new package over the horizon.",
	RunE:  runProject,
}

var projectPackage string

func init() {
	projectCmd.Flags().StringVar(&projectPackage, "package", "current", "package to project: current or new")
	rootCmd.AddCommand(projectCmd)
}

func runProject(_ *cobra.Command, _ []string) error {
	conf, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	var pkg finance.Package
	switch projectPackage {
	case "current":
		pkg = conf.Packages.Current
	case "new":
		pkg = conf.Packages.New
	default:
		return fmt.Errorf("invalid package %q, must be current or new", projectPackage)
	}

	years, projectErr := forecast.NewEngine(logger).Project(pkg, conf.Projection.Years, conf.TaxRates)
	if projectErr != nil && !errors.Is(projectErr, finance.ErrOutOfRange) {
		return fmt.Errorf("failed to project package: %w", projectErr)
	}

	logger.Debug("package projected",
		zap.String("op", "main.project"),
		zap.String("package", pkg.Name),
		zap.Int("years", len(years)),
	)
	output.ProjectionFormat(pkg.Name, years, conf.Projection.Years)

	if projectErr != nil {
		return fmt.Errorf("projection incomplete: %w", projectErr)
	}
	return nil
}
