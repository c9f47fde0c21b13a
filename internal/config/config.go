// Package config defines the data structures related to configuration and
// includes functions for loading and interpreting the config.
package config

import (
	"fmt"
	"io"
	"time"

	"github.com/iwvelando/credit-calculator/internal/refrate"
	"github.com/iwvelando/credit-calculator/pkg/calendar"
	"github.com/iwvelando/credit-calculator/pkg/constants"
	"github.com/iwvelando/credit-calculator/pkg/duedates"
	"github.com/iwvelando/credit-calculator/pkg/loans"
	"github.com/iwvelando/credit-calculator/pkg/validation"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Configuration holds all configuration for credit-calculator.
type Configuration struct {
	Loan          validation.RawLoanInput `yaml:"loan" mapstructure:"loan"`
	Schedule      ScheduleConfig          `yaml:"schedule" mapstructure:"schedule"`
	ReferenceRate ReferenceRateConfig     `yaml:"referenceRate" mapstructure:"referenceRate"`
	Logging       LoggingConfig           `yaml:"logging,omitempty" mapstructure:"logging"`
	Output        OutputConfig            `yaml:"output,omitempty" mapstructure:"output"`
}

// ScheduleConfig selects the amortization method and due date rules.
type ScheduleConfig struct {
	Method            string `yaml:"method" mapstructure:"method"` // daycount, closedform
	DueDayOfMonth     int    `yaml:"dueDayOfMonth" mapstructure:"dueDayOfMonth"`
	MinDaysToFirstDue int    `yaml:"minDaysToFirstDue" mapstructure:"minDaysToFirstDue"`
	ShiftToWorkingDay bool   `yaml:"shiftToWorkingDay" mapstructure:"shiftToWorkingDay"`
	Holidays          string `yaml:"holidays" mapstructure:"holidays"` // pl, none
}

// ReferenceRateConfig controls how the reference rate is fetched and cached.
type ReferenceRateConfig struct {
	Source          string        `yaml:"source" mapstructure:"source"` // json, nbp
	URL             string        `yaml:"url,omitempty" mapstructure:"url"`
	Timeout         time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxAge          time.Duration `yaml:"maxAge" mapstructure:"maxAge"`
	CacheDir        string        `yaml:"cacheDir,omitempty" mapstructure:"cacheDir"`
	RedisAddress    string        `yaml:"redisAddress,omitempty" mapstructure:"redisAddress"`
	RefreshSchedule string        `yaml:"refreshSchedule,omitempty" mapstructure:"refreshSchedule"`
	EnforceLegalCap bool          `yaml:"enforceLegalCap" mapstructure:"enforceLegalCap"`
	Offline         bool          `yaml:"offline,omitempty" mapstructure:"offline"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.AutomaticEnv()

	v.SetDefault("schedule.method", constants.MethodDayCount)
	v.SetDefault("schedule.dueDayOfMonth", constants.DefaultDueDayOfMonth)
	v.SetDefault("schedule.minDaysToFirstDue", constants.DefaultMinDaysToFirstDue)
	v.SetDefault("schedule.shiftToWorkingDay", true)
	v.SetDefault("schedule.holidays", constants.HolidaysPL)
	v.SetDefault("referenceRate.source", constants.ReferenceRateSourceJSON)
	v.SetDefault("referenceRate.timeout", 10*time.Second)
	v.SetDefault("referenceRate.maxAge", 24*time.Hour)
	v.SetDefault("referenceRate.enforceLegalCap", true)
	v.SetDefault("output.format", constants.OutputFormatPretty)
	return v
}

// Default returns the configuration used when no file is given.
func Default() *Configuration {
	var configuration Configuration
	// Defaults alone always decode.
	_ = newViper().Unmarshal(&configuration)
	return &configuration
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

// LoadConfigurationFromReader loads YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// Validate returns an error for settings the calculator cannot run with.
func (c *Configuration) Validate() error {
	if err := validation.ValidateScheduleSettings(c.scheduleSettings()); err != nil {
		return err
	}
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return err
	}
	switch c.ReferenceRate.Source {
	case constants.ReferenceRateSourceJSON, constants.ReferenceRateSourceNBP:
	default:
		return fmt.Errorf("expected reference rate source of %s or %s, got %s",
			constants.ReferenceRateSourceJSON, constants.ReferenceRateSourceNBP, c.ReferenceRate.Source)
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings.
func (c *Configuration) ValidateConfiguration() []string {
	count := 0
	if input, errs := validation.ParseLoanInput(c.Loan); errs == nil {
		count = input.InstallmentCount
	}
	warnings := validation.ScheduleWarnings(c.scheduleSettings(), count)

	if c.ReferenceRate.Timeout <= 0 && !c.ReferenceRate.Offline {
		warnings = append(warnings, "Reference rate timeout is not positive; remote fetches will not time out")
	}
	if c.ReferenceRate.RefreshSchedule != "" && c.ReferenceRate.Offline {
		warnings = append(warnings, "Reference rate refresh schedule is ignored in offline mode")
	}
	if c.ReferenceRate.RedisAddress != "" && c.ReferenceRate.CacheDir != "" {
		warnings = append(warnings, "Both redisAddress and cacheDir are set; the Redis cache is used")
	}
	return warnings
}

func (c *Configuration) scheduleSettings() validation.ScheduleSettings {
	return validation.ScheduleSettings{
		Method:            c.Schedule.Method,
		DueDayOfMonth:     c.Schedule.DueDayOfMonth,
		MinDaysToFirstDue: c.Schedule.MinDaysToFirstDue,
		Holidays:          c.Schedule.Holidays,
	}
}

// ScheduleOptions maps the schedule section onto loans.Options.
func (c *Configuration) ScheduleOptions() (loans.Options, error) {
	isHoliday, ok := calendar.ByName(c.Schedule.Holidays)
	if !ok {
		return loans.Options{}, fmt.Errorf("unknown holiday calendar %q", c.Schedule.Holidays)
	}
	method := c.Schedule.Method
	if method == "" {
		method = constants.MethodDayCount
	}
	if err := validation.ValidateScheduleMethod(method); err != nil {
		return loans.Options{}, err
	}

	return loans.Options{
		Method: method,
		DueDates: duedates.Options{
			DueDayOfMonth:     c.Schedule.DueDayOfMonth,
			MinDaysToFirstDue: c.Schedule.MinDaysToFirstDue,
			IsHoliday:         isHoliday,
			ShiftToWorkingDay: c.Schedule.ShiftToWorkingDay,
		},
	}, nil
}

// NewProvider builds the reference rate provider described by the
// referenceRate section. Redis takes precedence over the file cache; with
// neither set the cache lives in memory.
func (c ReferenceRateConfig) NewProvider(logger *zap.Logger) (*refrate.Provider, error) {
	var fetcher refrate.Fetcher
	if !c.Offline {
		f, err := refrate.NewFetcher(c.Source, c.URL, c.Timeout)
		if err != nil {
			return nil, err
		}
		fetcher = f
	}

	var cache refrate.Cache
	switch {
	case c.RedisAddress != "":
		cache = refrate.NewRedisCache(c.RedisAddress)
	case c.CacheDir != "":
		cache = refrate.NewFileCache(c.CacheDir)
	default:
		cache = refrate.NewMemoryCache()
	}

	return refrate.NewProvider(fetcher, cache, refrate.SystemClock{}, c.MaxAge, logger), nil
}
