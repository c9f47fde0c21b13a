// Package server exposes the calculator over a JSON HTTP API.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/iwvelando/credit-calculator/internal/calculator"
	"github.com/iwvelando/credit-calculator/internal/config"
	"github.com/iwvelando/credit-calculator/pkg/apr"
	"github.com/iwvelando/credit-calculator/pkg/constants"
	"github.com/iwvelando/credit-calculator/pkg/datetime"
	"github.com/iwvelando/credit-calculator/pkg/loans"
	"github.com/iwvelando/credit-calculator/pkg/validation"
	"go.uber.org/zap"
)

// maxDueDates bounds the count accepted by the due date endpoint.
const maxDueDates = 1200

type handler struct {
	logger        *zap.Logger
	calc          *calculator.Calculator
	provider      calculator.RateProvider
	maxUploadSize int64
	version       string
}

// Options configures NewHandler.
type Options struct {
	// Calculator serves requests that carry only loan terms.
	Calculator *calculator.Calculator
	// Provider is shared with calculators built from uploaded configurations.
	Provider      calculator.RateProvider
	MaxUploadSize int64
	Version       string
}

// NewHandler constructs the HTTP handler that serves the calculator API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	calc := opts.Calculator
	if calc == nil {
		calc = calculator.New(logger, loans.DefaultOptions(), opts.Provider, true)
	}

	h := &handler{
		logger:        logger,
		calc:          calc,
		provider:      opts.Provider,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
	}

	r := mux.NewRouter()
	r.Use(loggingMiddleware(logger))

	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.limitBody)
	api.HandleFunc("/schedule", h.handleSchedule).Methods(http.MethodPost)
	api.HandleFunc("/schedule/config", h.handleScheduleConfig).Methods(http.MethodPost)
	api.HandleFunc("/due-dates", h.handleDueDates).Methods(http.MethodPost)
	api.HandleFunc("/irr", h.handleIRR).Methods(http.MethodPost)
	api.HandleFunc("/reference-rate", h.handleReferenceRate).Methods(http.MethodGet)
	api.HandleFunc("/version", h.handleVersion).Methods(http.MethodGet)

	return r
}

type scheduleResponse struct {
	*calculator.Result
	Warnings []string `json:"warnings,omitempty"`
	Duration string   `json:"duration"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (h *handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSchedule"
	start := time.Now()

	payload, ok := h.decodeObject(w, r, op)
	if !ok {
		return
	}

	loanPayload := payload
	if rawLoan, ok := payload["loan"]; ok {
		loanMap, ok := rawLoan.(map[string]interface{})
		if !ok {
			h.respondErrorWithOp(w, http.StatusBadRequest, "invalid loan payload: expected object", op)
			return
		}
		loanPayload = loanMap
	}

	raw := validation.RawLoanInput{
		StartDate:      coerceString(loanPayload[validation.FieldStartDate]),
		Principal:      coerceString(loanPayload[validation.FieldPrincipal]),
		NominalRatePct: coerceString(loanPayload[validation.FieldNominalRatePct]),
		CommissionPct:  coerceString(loanPayload[validation.FieldCommissionPct]),
		Installments:   coerceString(loanPayload[validation.FieldInstallments]),
	}

	h.runSchedule(r.Context(), w, h.calc, raw, nil, start, op)
}

func (h *handler) handleScheduleConfig(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleScheduleConfig"
	start := time.Now()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r.Body); err != nil {
		h.respondReadError(w, err, op)
		return
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if err := cfg.Validate(); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	opts, err := cfg.ScheduleOptions()
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	calc := calculator.New(h.logger, opts, h.provider, cfg.ReferenceRate.EnforceLegalCap)
	h.runSchedule(r.Context(), w, calc, cfg.Loan, cfg.ValidateConfiguration(), start, op)
}

func (h *handler) runSchedule(ctx context.Context, w http.ResponseWriter, calc *calculator.Calculator, raw validation.RawLoanInput, warnings []string, start time.Time, op string) {
	result, err := calc.Calculate(ctx, raw)
	if err != nil {
		var fieldErrs validation.FieldErrors
		switch {
		case errors.As(err, &fieldErrs):
			h.respondFieldErrors(w, fieldErrs, op)
		case calculator.IsInputError(err):
			h.respondErrorWithOp(w, http.StatusUnprocessableEntity, err.Error(), op)
		default:
			h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		}
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("schedule computed",
		zap.String("op", op),
		zap.String("requestId", result.RequestID),
		zap.Int("installments", len(result.Schedule)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, scheduleResponse{
		Result:   result,
		Warnings: warnings,
		Duration: elapsed.String(),
	})
}

type dueDatesRequest struct {
	StartDate datetime.Date `json:"startDate"`
	Count     int           `json:"count"`
}

func (h *handler) handleDueDates(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDueDates"

	var req dueDatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondDecodeError(w, err, op)
		return
	}
	if req.StartDate.IsZero() {
		h.respondFieldErrors(w, validation.FieldErrors{validation.FieldStartDate: "Start date is required"}, op)
		return
	}
	if req.Count > maxDueDates {
		h.respondFieldErrors(w, validation.FieldErrors{"count": fmt.Sprintf("Count must be <= %d", maxDueDates)}, op)
		return
	}

	dates, err := h.calc.DueDates(req.StartDate, req.Count)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string][]datetime.Date{"dueDates": dates})
}

type irrRequest struct {
	Flows   []apr.CashFlow `json:"flows"`
	Options *struct {
		Low           *float64 `json:"low"`
		High          *float64 `json:"high"`
		Tolerance     *float64 `json:"tolerance"`
		MaxIterations *int     `json:"maxIterations"`
	} `json:"options"`
}

func (h *handler) handleIRR(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleIRR"

	var req irrRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondDecodeError(w, err, op)
		return
	}

	opts := apr.DefaultIRROptions()
	if o := req.Options; o != nil {
		if o.Low != nil {
			opts.Low = *o.Low
		}
		if o.High != nil {
			opts.High = *o.High
		}
		if o.Tolerance != nil {
			opts.Tolerance = *o.Tolerance
		}
		if o.MaxIterations != nil {
			opts.MaxIterations = *o.MaxIterations
		}
	}

	rate, err := apr.SolveIRR(req.Flows, opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, apr.ErrRateNotBracketed) {
			status = http.StatusUnprocessableEntity
		}
		h.respondErrorWithOp(w, status, err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, rate)
}

func (h *handler) handleReferenceRate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReferenceRate"

	if h.provider == nil {
		h.respondErrorWithOp(w, http.StatusNotFound, "reference rate is not configured", op)
		return
	}

	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	res := h.provider.Get(r.Context(), !refresh)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"rate":              res.Rate,
		"origin":            res.Origin,
		"maxNominalRatePct": validation.MaxNominalRatePct(res.Rate.RatePct),
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) decodeObject(w http.ResponseWriter, r *http.Request, op string) (map[string]interface{}, bool) {
	var payload map[string]interface{}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		h.respondDecodeError(w, err, op)
		return nil, false
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return payload, true
}

func (h *handler) respondDecodeError(w http.ResponseWriter, err error, op string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.respondReadError(w, err, op)
		return
	}
	h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
}

func (h *handler) respondReadError(w http.ResponseWriter, err error, op string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("request body exceeds limit of %d bytes", h.maxUploadSize), op)
		return
	}
	h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), op)
}

func (h *handler) respondFieldErrors(w http.ResponseWriter, fieldErrs validation.FieldErrors, op string) {
	h.logger.Info("request rejected",
		zap.String("op", op),
		zap.Int("status", http.StatusUnprocessableEntity),
		zap.Error(fieldErrs),
	)
	h.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
		Error:  "invalid loan input",
		Fields: fieldErrs,
	})
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func coerceString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
