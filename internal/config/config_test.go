package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/credit-calculator/internal/refrate"
	"github.com/iwvelando/credit-calculator/pkg/constants"
	"github.com/iwvelando/credit-calculator/pkg/datetime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
loan:
  startDate: "2026-01-05"
  principal: 10000
  nominalRatePct: "8.5"
  commissionPct: 2
  installments: 12
schedule:
  method: closedform
  dueDayOfMonth: 15
  minDaysToFirstDue: 20
  shiftToWorkingDay: false
  holidays: none
referenceRate:
  source: nbp
  timeout: 3s
  maxAge: 6h
  cacheDir: /tmp/refrate
  refreshSchedule: "@every 6h"
  enforceLegalCap: false
logging:
  level: debug
  format: console
output:
  format: csv
`

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
		{
			name:       "Example config file",
			configPath: "../../config.yaml.example",
			wantError:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("LoadConfiguration() error = %v", err)
				return
			}
			if config == nil {
				t.Errorf("LoadConfiguration() returned nil config")
			}
		})
	}
}

func TestLoadConfigurationFromReader(t *testing.T) {
	conf, err := LoadConfigurationFromReader(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "2026-01-05", conf.Loan.StartDate)
	assert.Equal(t, "10000", conf.Loan.Principal)
	assert.Equal(t, "8.5", conf.Loan.NominalRatePct)
	assert.Equal(t, "12", conf.Loan.Installments)

	assert.Equal(t, constants.MethodClosedForm, conf.Schedule.Method)
	assert.Equal(t, 15, conf.Schedule.DueDayOfMonth)
	assert.Equal(t, 20, conf.Schedule.MinDaysToFirstDue)
	assert.False(t, conf.Schedule.ShiftToWorkingDay)
	assert.Equal(t, constants.HolidaysNone, conf.Schedule.Holidays)

	assert.Equal(t, constants.ReferenceRateSourceNBP, conf.ReferenceRate.Source)
	assert.Equal(t, 3*time.Second, conf.ReferenceRate.Timeout)
	assert.Equal(t, 6*time.Hour, conf.ReferenceRate.MaxAge)
	assert.Equal(t, "/tmp/refrate", conf.ReferenceRate.CacheDir)
	assert.False(t, conf.ReferenceRate.EnforceLegalCap)

	assert.Equal(t, "debug", conf.Logging.Level)
	assert.Equal(t, "console", conf.Logging.Format)
	assert.Equal(t, constants.OutputFormatCSV, conf.Output.Format)
	assert.NoError(t, conf.Validate())
}

func TestDefaults(t *testing.T) {
	conf, err := LoadConfigurationFromReader(strings.NewReader("loan:\n  principal: 5000\n"))
	require.NoError(t, err)

	assert.Equal(t, constants.MethodDayCount, conf.Schedule.Method)
	assert.Equal(t, constants.DefaultDueDayOfMonth, conf.Schedule.DueDayOfMonth)
	assert.Equal(t, constants.DefaultMinDaysToFirstDue, conf.Schedule.MinDaysToFirstDue)
	assert.True(t, conf.Schedule.ShiftToWorkingDay)
	assert.Equal(t, constants.HolidaysPL, conf.Schedule.Holidays)
	assert.Equal(t, constants.ReferenceRateSourceJSON, conf.ReferenceRate.Source)
	assert.Equal(t, 10*time.Second, conf.ReferenceRate.Timeout)
	assert.Equal(t, 24*time.Hour, conf.ReferenceRate.MaxAge)
	assert.True(t, conf.ReferenceRate.EnforceLegalCap)
	assert.Equal(t, constants.OutputFormatPretty, conf.Output.Format)

	assert.Equal(t, Default().Schedule, conf.Schedule)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Configuration)
	}{
		{"bad method", func(c *Configuration) { c.Schedule.Method = "act360" }},
		{"bad due day", func(c *Configuration) { c.Schedule.DueDayOfMonth = 40 }},
		{"bad holidays", func(c *Configuration) { c.Schedule.Holidays = "us" }},
		{"bad output", func(c *Configuration) { c.Output.Format = "xml" }},
		{"bad source", func(c *Configuration) { c.ReferenceRate.Source = "ecb" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := Default()
			require.NoError(t, conf.Validate())
			tt.mutate(conf)
			assert.Error(t, conf.Validate())
		})
	}
}

func TestValidateConfigurationWarnings(t *testing.T) {
	conf := Default()
	conf.Loan.Installments = "12"
	assert.Empty(t, conf.ValidateConfiguration())

	conf.Schedule.DueDayOfMonth = 31
	conf.Loan.Installments = "480"
	conf.ReferenceRate.RedisAddress = "localhost:6379"
	conf.ReferenceRate.CacheDir = "/tmp"
	conf.ReferenceRate.Offline = true
	conf.ReferenceRate.RefreshSchedule = "@hourly"

	warnings := conf.ValidateConfiguration()
	assert.Len(t, warnings, 4)
}

func TestScheduleOptions(t *testing.T) {
	conf := Default()
	opts, err := conf.ScheduleOptions()
	require.NoError(t, err)

	assert.Equal(t, constants.MethodDayCount, opts.Method)
	assert.Equal(t, 10, opts.DueDates.DueDayOfMonth)
	assert.True(t, opts.DueDates.ShiftToWorkingDay)
	require.NotNil(t, opts.DueDates.IsHoliday)
	assert.True(t, opts.DueDates.IsHoliday(datetime.New(2026, 11, 11)))

	conf.Schedule.Holidays = "xx"
	_, err = conf.ScheduleOptions()
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	rc := Default().ReferenceRate
	rc.Offline = true
	rc.CacheDir = t.TempDir()

	provider, err := rc.NewProvider(nil)
	require.NoError(t, err)

	res := provider.Get(context.Background(), true)
	assert.Equal(t, refrate.OriginDefault, res.Origin)

	rc.Offline = false
	rc.Source = "ecb"
	_, err = rc.NewProvider(nil)
	assert.Error(t, err)
}

func TestLoadConfigurationFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	conf, err := LoadConfiguration(path)
	require.NoError(t, err)
	assert.Equal(t, 15, conf.Schedule.DueDayOfMonth)
}
