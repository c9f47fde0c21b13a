// Package calculator ties input validation, the amortization schedule, the
// APR solver and the reference rate together into a single calculation.
package calculator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/iwvelando/credit-calculator/internal/refrate"
	"github.com/iwvelando/credit-calculator/pkg/apr"
	"github.com/iwvelando/credit-calculator/pkg/datetime"
	"github.com/iwvelando/credit-calculator/pkg/duedates"
	"github.com/iwvelando/credit-calculator/pkg/loans"
	"github.com/iwvelando/credit-calculator/pkg/validation"
	"go.uber.org/zap"
)

// RateProvider resolves the current reference rate.
type RateProvider interface {
	Get(ctx context.Context, preferCache bool) refrate.Result
}

// Result holds everything derived from one loan input.
type Result struct {
	RequestID         string              `json:"requestId"`
	Method            string              `json:"method"`
	Input             loans.Input         `json:"input"`
	Schedule          []loans.ScheduleRow `json:"schedule"`
	Summary           loans.Summary       `json:"summary"`
	AprRrso           apr.RateResult      `json:"aprRrso"`
	Esp               apr.RateResult      `json:"esp"`
	ReferenceRate     *refrate.Result     `json:"referenceRate,omitempty"`
	MaxNominalRatePct float64             `json:"maxNominalRatePct,omitempty"`
}

// Calculator computes schedules and rates for a fixed set of options. It is
// safe for concurrent use.
type Calculator struct {
	opts            loans.Options
	scheduler       *loans.Scheduler
	provider        RateProvider
	enforceLegalCap bool
	logger          *zap.Logger
}

// New creates a Calculator. The provider may be nil, in which case no
// reference rate is resolved and the legal cap is not checked.
func New(logger *zap.Logger, opts loans.Options, provider RateProvider, enforceLegalCap bool) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{
		opts:            opts,
		scheduler:       loans.NewScheduler(opts),
		provider:        provider,
		enforceLegalCap: enforceLegalCap,
		logger:          logger,
	}
}

// Calculate validates raw and computes the full result. Validation failures
// are returned as validation.FieldErrors.
func (c *Calculator) Calculate(ctx context.Context, raw validation.RawLoanInput) (*Result, error) {
	input, fieldErrs := validation.ParseLoanInput(raw)
	if fieldErrs != nil {
		c.logger.Debug("rejected loan input",
			zap.String("op", "calculator.Calculate"),
			zap.Error(fieldErrs),
		)
		return nil, fieldErrs
	}
	return c.Compute(ctx, input)
}

// Compute runs the calculation for an already validated input.
func (c *Calculator) Compute(ctx context.Context, input loans.Input) (*Result, error) {
	requestID := uuid.NewString()
	logger := c.logger.With(zap.String("requestId", requestID))

	result := &Result{
		RequestID: requestID,
		Method:    c.scheduler.Method(),
		Input:     input,
	}

	if c.provider != nil {
		ref := c.provider.Get(ctx, true)
		result.ReferenceRate = &ref
		result.MaxNominalRatePct = validation.MaxNominalRatePct(ref.Rate.RatePct)

		if c.enforceLegalCap {
			if capErrs := validation.CheckLegalCap(input, ref.Rate.RatePct); capErrs != nil {
				logger.Info("nominal rate above legal cap",
					zap.String("op", "calculator.Compute"),
					zap.Float64("nominalRatePct", input.NominalRatePct),
					zap.Float64("maxNominalRatePct", result.MaxNominalRatePct),
				)
				return nil, capErrs
			}
		}
	}

	schedule, err := c.scheduler.Compute(input)
	if err != nil {
		return nil, fmt.Errorf("failed to compute schedule: %w", err)
	}
	result.Schedule = schedule
	result.Summary = loans.Summarize(schedule)

	result.AprRrso, err = apr.ComputeAprRrso(input.StartDate, input.Principal, input.CommissionPct, schedule)
	if err != nil {
		return nil, fmt.Errorf("failed to compute APR: %w", err)
	}
	result.Esp, err = apr.ComputeEsp(input.StartDate, input.Principal, input.CommissionPct, schedule)
	if err != nil {
		return nil, fmt.Errorf("failed to compute ESP: %w", err)
	}

	logger.Debug("computed schedule",
		zap.String("op", "calculator.Compute"),
		zap.Int("installments", len(schedule)),
		zap.Float64("aprPct", result.AprRrso.RatePct),
	)
	return result, nil
}

// DueDates returns count due dates starting from start under the calculator's
// due date rules.
func (c *Calculator) DueDates(start datetime.Date, count int) ([]datetime.Date, error) {
	return duedates.Generate(start, count, c.opts.DueDates)
}

// ReferenceRate resolves the reference rate. It returns false when the
// calculator has no provider.
func (c *Calculator) ReferenceRate(ctx context.Context, preferCache bool) (refrate.Result, bool) {
	if c.provider == nil {
		return refrate.Result{}, false
	}
	return c.provider.Get(ctx, preferCache), true
}

// IsInputError reports whether err was caused by invalid loan input rather
// than a calculation failure.
func IsInputError(err error) bool {
	var fieldErrs validation.FieldErrors
	return errors.As(err, &fieldErrs) || errors.Is(err, loans.ErrInvalidInput) || errors.Is(err, duedates.ErrInvalidDueDay)
}
