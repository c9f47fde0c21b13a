package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/iwvelando/credit-calculator/internal/calculator"
	"github.com/iwvelando/credit-calculator/internal/config"
	"github.com/iwvelando/credit-calculator/internal/refrate"
	"github.com/iwvelando/credit-calculator/internal/server"
	"github.com/iwvelando/credit-calculator/pkg/apr"
	"github.com/iwvelando/credit-calculator/pkg/constants"
	"github.com/iwvelando/credit-calculator/pkg/datetime"
	"github.com/iwvelando/credit-calculator/pkg/output"
	"github.com/iwvelando/credit-calculator/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries state shared by all subcommands once the root command has
// loaded configuration.
type app struct {
	configPath   string
	logLevel     string
	outputFormat string
	offline      bool

	conf   *config.Configuration
	logger *zap.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "credit-calculator",
		Short:   "Consumer loan schedule and APR calculator",
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.StringVar(&a.outputFormat, "output-format", "", "type of output override: pretty, csv, json")
	flags.BoolVar(&a.offline, "offline", false, "do not fetch the reference rate from the network")

	rootCmd.AddCommand(
		a.newScheduleCommand(),
		a.newDatesCommand(),
		a.newIRRCommand(),
		a.newRefRateCommand(),
		a.newServeCommand(),
		newVersionCommand(),
	)

	return rootCmd
}

func (a *app) setup() error {
	conf, err := loadConfiguration(a.configPath)
	if err != nil {
		return err
	}
	if a.outputFormat != "" {
		conf.Output.Format = a.outputFormat
	}
	if a.offline {
		conf.ReferenceRate.Offline = true
	}
	if err := conf.Validate(); err != nil {
		return err
	}

	logger, err := initializeLogger(conf.Logging, a.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main.setup"),
		)
	}

	a.conf = conf
	a.logger = logger
	return nil
}

// loadConfiguration reads the config file. A missing file at the default
// location falls back to built-in defaults.
func loadConfiguration(path string) (*config.Configuration, error) {
	if path == constants.DefaultConfigFile {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
	}
	conf, err := config.LoadConfiguration(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration at %s: %w", path, err)
	}
	return conf, nil
}

func (a *app) newCalculator(withProvider bool) (*calculator.Calculator, *refrate.Provider, error) {
	opts, err := a.conf.ScheduleOptions()
	if err != nil {
		return nil, nil, err
	}

	var provider *refrate.Provider
	if withProvider {
		provider, err = a.conf.ReferenceRate.NewProvider(a.logger)
		if err != nil {
			return nil, nil, err
		}
		return calculator.New(a.logger, opts, provider, a.conf.ReferenceRate.EnforceLegalCap), provider, nil
	}
	return calculator.New(a.logger, opts, nil, false), nil, nil
}

func (a *app) newScheduleCommand() *cobra.Command {
	var loan validation.RawLoanInput
	var method string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Compute the repayment schedule, APR and ESP of a loan",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := a.conf.Loan
			overrideString(&raw.StartDate, loan.StartDate)
			overrideString(&raw.Principal, loan.Principal)
			overrideString(&raw.NominalRatePct, loan.NominalRatePct)
			overrideString(&raw.CommissionPct, loan.CommissionPct)
			overrideString(&raw.Installments, loan.Installments)
			overrideString(&a.conf.Schedule.Method, method)

			calc, _, err := a.newCalculator(true)
			if err != nil {
				return err
			}

			result, err := calc.Calculate(cmd.Context(), raw)
			if err != nil {
				var fieldErrs validation.FieldErrors
				if errors.As(err, &fieldErrs) {
					printFieldErrors(cmd, fieldErrs)
				}
				return err
			}

			a.logger.Debug("schedule computed",
				zap.String("op", "main.schedule"),
				zap.String("requestId", result.RequestID),
			)
			return output.Result(cmd.OutOrStdout(), a.conf.Output.Format, result)
		},
	}

	cmd.Flags().StringVar(&loan.StartDate, "start", "", "disbursement date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&loan.Principal, "principal", "", "loan principal")
	cmd.Flags().StringVar(&loan.NominalRatePct, "rate", "", "nominal annual interest rate in percent")
	cmd.Flags().StringVar(&loan.CommissionPct, "commission", "", "commission in percent of principal")
	cmd.Flags().StringVar(&loan.Installments, "installments", "", "number of monthly installments")
	cmd.Flags().StringVar(&method, "method", "", "amortization method override: daycount, closedform")

	return cmd
}

func (a *app) newDatesCommand() *cobra.Command {
	var start string
	var count int

	cmd := &cobra.Command{
		Use:   "dates",
		Short: "List installment due dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := datetime.Parse(start)
			if err != nil {
				return err
			}

			calc, _, err := a.newCalculator(false)
			if err != nil {
				return err
			}
			dates, err := calc.DueDates(startDate, count)
			if err != nil {
				return err
			}
			return output.DueDates(cmd.OutOrStdout(), a.conf.Output.Format, dates)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "disbursement date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&count, "count", 12, "number of due dates")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}

func (a *app) newIRRCommand() *cobra.Command {
	var rawFlows []string

	cmd := &cobra.Command{
		Use:   "irr",
		Short: "Solve the annual internal rate of return of dated cash flows",
		Long: "Solve the annual internal rate of return of cash flows given as OFFSET_DAYS:AMOUNT,\n" +
			"for example --flow 0:1000 --flow 365:-1100.",
		RunE: func(cmd *cobra.Command, args []string) error {
			flows, err := parseFlows(rawFlows)
			if err != nil {
				return err
			}
			rate, err := apr.SolveIRR(flows, apr.DefaultIRROptions())
			if err != nil {
				return err
			}
			return output.Rate(cmd.OutOrStdout(), a.conf.Output.Format, rate)
		},
	}

	cmd.Flags().StringArrayVar(&rawFlows, "flow", nil, "cash flow as OFFSET_DAYS:AMOUNT (repeatable)")
	_ = cmd.MarkFlagRequired("flow")

	return cmd
}

func parseFlows(values []string) ([]apr.CashFlow, error) {
	flows := make([]apr.CashFlow, 0, len(values))
	for _, value := range values {
		days, amount, ok := strings.Cut(value, ":")
		if !ok {
			return nil, fmt.Errorf("invalid cash flow %q: expected OFFSET_DAYS:AMOUNT", value)
		}
		offset, err := strconv.Atoi(strings.TrimSpace(days))
		if err != nil {
			return nil, fmt.Errorf("invalid cash flow offset %q: %w", days, err)
		}
		amt, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid cash flow amount %q: %w", amount, err)
		}
		flows = append(flows, apr.CashFlow{OffsetDays: offset, Amount: amt})
	}
	return flows, nil
}

func (a *app) newRefRateCommand() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "refrate",
		Short: "Show the reference rate and the resulting legal cap on the nominal rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := a.conf.ReferenceRate.NewProvider(a.logger)
			if err != nil {
				return err
			}
			res := provider.Get(cmd.Context(), !refresh)
			return output.ReferenceRate(cmd.OutOrStdout(), a.conf.Output.Format, res,
				validation.MaxNominalRatePct(res.Rate.RatePct))
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass a fresh cache entry and fetch the rate")

	return cmd
}

func (a *app) newServeCommand() *cobra.Command {
	var serverConfigPath string
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			serverConf, err := server.LoadConfig(serverConfigPath)
			if err != nil {
				return err
			}
			if address != "" {
				serverConf.Address = address
			}

			logger := a.logger
			if serverConf.Logging != (config.LoggingConfig{}) {
				if logger, err = initializeLogger(serverConf.Logging, a.logLevel); err != nil {
					return fmt.Errorf("failed to initialize logger: %w", err)
				}
				defer func() { _ = logger.Sync() }()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, serverConf, logger)
		},
	}

	cmd.Flags().StringVar(&serverConfigPath, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	cmd.Flags().StringVar(&address, "address", "", "listen address override")

	return cmd
}

func (a *app) serve(ctx context.Context, serverConf *server.Config, logger *zap.Logger) error {
	opts, err := a.conf.ScheduleOptions()
	if err != nil {
		return err
	}
	provider, err := a.conf.ReferenceRate.NewProvider(logger)
	if err != nil {
		return err
	}

	rc := a.conf.ReferenceRate
	if rc.RefreshSchedule != "" && !rc.Offline {
		refresher, err := refrate.NewRefresher(provider, rc.RefreshSchedule, rc.Timeout, logger)
		if err != nil {
			return err
		}
		refresher.Start()
		defer refresher.Stop()
	}

	handler := server.NewHandler(logger, server.Options{
		Calculator:    calculator.New(logger, opts, provider, rc.EnforceLegalCap),
		Provider:      provider,
		MaxUploadSize: serverConf.UploadSizeBytes(),
		Version:       version,
	})

	srv := &http.Server{
		Addr:         serverConf.Address,
		Handler:      handler,
		ReadTimeout:  serverConf.ReadTimeoutDuration(),
		WriteTimeout: serverConf.WriteTimeoutDuration(),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("op", "main.serve"),
			zap.String("address", serverConf.Address),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down",
		zap.String("op", "main.serve"),
	)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConf.ShutdownTimeoutDuration())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func printFieldErrors(cmd *cobra.Command, fieldErrs validation.FieldErrors) {
	fields := make([]string, 0, len(fieldErrs))
	for field := range fieldErrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", field, fieldErrs[field])
	}
}

func overrideString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
