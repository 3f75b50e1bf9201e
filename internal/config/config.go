// Package config defines the data structures related to configuration and
// includes functions for loading the config and filling in defaults.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/comp-calculator/pkg/constants"
	"github.com/iwvelando/comp-calculator/pkg/finance"
	"github.com/iwvelando/comp-calculator/pkg/validation"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. COMP_TAXRATES_FEDERAL.
const EnvPrefix = "COMP"

// Configuration holds all configuration for comp-calculator.
type Configuration struct {
	Logging    LoggingConfig           `yaml:"logging,omitempty" json:"logging,omitempty" mapstructure:"logging"`
	Output     OutputConfig            `yaml:"output,omitempty" json:"output,omitempty" mapstructure:"output"`
	Projection ProjectionConfig        `yaml:"projection,omitempty" json:"projection,omitempty" mapstructure:"projection"`
	TaxRates   finance.TaxRates        `yaml:"taxRates" json:"taxRates" mapstructure:"taxRates"`
	Equity     EquityDefaults          `yaml:"equity,omitempty" json:"equity,omitempty" mapstructure:"equity"`
	Company    finance.CompanyDefaults `yaml:"company,omitempty" json:"company,omitempty" mapstructure:"company"`
	Packages   Packages                `yaml:"packages" json:"packages" mapstructure:"packages"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" json:"level,omitempty" mapstructure:"level"`                // debug, info, warn, error
	Format     string `yaml:"format,omitempty" json:"format,omitempty" mapstructure:"format"`             // json, console
	OutputFile string `yaml:"outputFile,omitempty" json:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" json:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// ProjectionConfig controls the comparison window.
type ProjectionConfig struct {
	Years int `yaml:"years,omitempty" json:"years,omitempty" mapstructure:"years"`
}

// EquityDefaults seed the equity of packages that leave these fields out.
type EquityDefaults struct {
	DefaultVestingSchedule []float64              `yaml:"defaultVestingSchedule,omitempty" json:"defaultVestingSchedule,omitempty" mapstructure:"defaultVestingSchedule"`
	DefaultRefreshGrants   []finance.RefreshGrant `yaml:"defaultRefreshGrants,omitempty" json:"defaultRefreshGrants,omitempty" mapstructure:"defaultRefreshGrants"`
}

// Packages holds the two offers being compared.
type Packages struct {
	Current finance.Package `yaml:"current" json:"current" mapstructure:"current"`
	New     finance.Package `yaml:"new" json:"new" mapstructure:"new"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	configuration.ApplyDefaults()
	return &configuration, nil
}

// ApplyDefaults fills fields the configuration leaves out: the horizon,
// package names, vesting schedules, refresh grants and the risk-adjustment
// fields of private packages.
func (conf *Configuration) ApplyDefaults() {
	if conf.Projection.Years == 0 {
		conf.Projection.Years = constants.ProjectionYears
	}
	if conf.Packages.Current.Name == "" {
		conf.Packages.Current.Name = "current"
	}
	if conf.Packages.New.Name == "" {
		conf.Packages.New.Name = "new"
	}
	conf.Packages.Current = conf.withDefaults(conf.Packages.Current)
	conf.Packages.New = conf.withDefaults(conf.Packages.New)
}

func (conf *Configuration) withDefaults(pkg finance.Package) finance.Package {
	out := pkg.Clone()
	if len(out.Equity.VestingSchedule) == 0 && len(conf.Equity.DefaultVestingSchedule) > 0 {
		out.Equity.VestingSchedule = append([]float64(nil), conf.Equity.DefaultVestingSchedule...)
	}
	if out.Equity.RefreshGrants == nil && len(conf.Equity.DefaultRefreshGrants) > 0 {
		out.Equity.RefreshGrants = append([]finance.RefreshGrant(nil), conf.Equity.DefaultRefreshGrants...)
	}
	if out.Company.Type == finance.CompanyPrivate {
		// Absent company defaults leave the fields nil: no risk adjustment.
		if out.Equity.LiquidityDiscount == nil && conf.Company.LiquidityDiscount != nil {
			out.Equity.LiquidityDiscount = finance.Float(*conf.Company.LiquidityDiscount)
		}
		if out.Equity.ExitMultiple == nil && conf.Company.ExitMultiple != nil {
			out.Equity.ExitMultiple = finance.Float(*conf.Company.ExitMultiple)
		}
	}
	return out
}

// Validate rejects configurations the projection cannot run on.
func (conf *Configuration) Validate() error {
	if err := finance.ValidateTaxRates(conf.TaxRates); err != nil {
		return err
	}
	if err := finance.Validate(conf.Packages.Current); err != nil {
		return err
	}
	return finance.Validate(conf.Packages.New)
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (conf *Configuration) ValidateConfiguration() []string {
	var warnings []string
	warnings = append(warnings, validation.PackageWarnings(conf.Packages.Current, conf.Projection.Years)...)
	warnings = append(warnings, validation.PackageWarnings(conf.Packages.New, conf.Projection.Years)...)
	return warnings
}
