package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iwvelando/credit-calculator/internal/refrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, maxUploadSize int64) http.Handler {
	t.Helper()
	provider := refrate.NewProvider(nil, nil, nil, 0, zap.NewNop())
	return NewHandler(zap.NewNop(), Options{
		Provider:      provider,
		MaxUploadSize: maxUploadSize,
		Version:       "1.2.3",
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

type scheduleBody struct {
	RequestID string `json:"requestId"`
	Method    string `json:"method"`
	Schedule  []struct {
		Index        int    `json:"index"`
		DueDate      string `json:"dueDate"`
		PaymentTotal int64  `json:"paymentTotal"`
	} `json:"schedule"`
	Summary struct {
		TotalPaid int64 `json:"totalPaid"`
	} `json:"summary"`
	AprRrso struct {
		RatePct float64 `json:"ratePct"`
	} `json:"aprRrso"`
	ReferenceRate struct {
		Origin string `json:"origin"`
	} `json:"referenceRate"`
	MaxNominalRatePct float64  `json:"maxNominalRatePct"`
	Warnings          []string `json:"warnings"`
	Duration          string   `json:"duration"`
}

func TestHandleScheduleSuccess(t *testing.T) {
	h := newTestHandler(t, 0)

	rr := do(t, h, http.MethodPost, "/api/schedule",
		`{"startDate":"2026-01-01","principal":1000,"nominalRatePct":"5","commissionPct":1,"installments":2}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp scheduleBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, "daycount", resp.Method)
	require.Len(t, resp.Schedule, 2)
	assert.Equal(t, "2026-02-10", resp.Schedule[0].DueDate)
	assert.Equal(t, int64(50870), resp.Schedule[0].PaymentTotal)
	assert.Equal(t, int64(101740), resp.Summary.TotalPaid)
	assert.Greater(t, resp.AprRrso.RatePct, 5.0)
	assert.Equal(t, "default", resp.ReferenceRate.Origin)
	assert.InDelta(t, 9.25, resp.MaxNominalRatePct, 1e-9)
	assert.NotEmpty(t, resp.Duration)
}

func TestHandleScheduleNestedLoan(t *testing.T) {
	h := newTestHandler(t, 0)

	rr := do(t, h, http.MethodPost, "/api/schedule",
		`{"loan":{"startDate":"2026-01-01","principal":"1000","nominalRatePct":"5","commissionPct":"1","installments":"2"}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(t, h, http.MethodPost, "/api/schedule", `{"loan":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleScheduleValidationErrors(t *testing.T) {
	h := newTestHandler(t, 0)

	rr := do(t, h, http.MethodPost, "/api/schedule",
		`{"startDate":"","principal":0,"nominalRatePct":5,"commissionPct":-1,"installments":2.5}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "invalid loan input", resp.Error)
	assert.Equal(t, map[string]string{
		"startDate":     "Start date is required",
		"principal":     "Principal must be > 0",
		"commissionPct": "Commission must be >= 0",
		"installments":  "Number of installments must be an integer",
	}, resp.Fields)
}

func TestHandleScheduleLegalCap(t *testing.T) {
	h := newTestHandler(t, 0)

	rr := do(t, h, http.MethodPost, "/api/schedule",
		`{"startDate":"2026-01-01","principal":1000,"nominalRatePct":20,"commissionPct":0,"installments":12}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Nominal rate exceeds legal cap (9.25%)", resp.Fields["nominalRatePct"])
}

func TestHandleScheduleBadJSON(t *testing.T) {
	rr := do(t, newTestHandler(t, 0), http.MethodPost, "/api/schedule", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleScheduleBodyTooLarge(t *testing.T) {
	h := newTestHandler(t, 64)
	body := `{"startDate":"2026-01-01","principal":"` + strings.Repeat("1", 200) + `"}`

	rr := do(t, h, http.MethodPost, "/api/schedule", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestHandleScheduleConfig(t *testing.T) {
	h := newTestHandler(t, 0)
	yamlBody := `
loan:
  startDate: "2026-01-01"
  principal: 1000
  nominalRatePct: 20
  commissionPct: 1
  installments: 2
schedule:
  method: closedform
  dueDayOfMonth: 31
referenceRate:
  enforceLegalCap: false
`
	req := httptest.NewRequest(http.MethodPost, "/api/schedule/config", bytes.NewBufferString(yamlBody))
	req.Header.Set("Content-Type", "application/yaml")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp scheduleBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "closedform", resp.Method)
	require.Len(t, resp.Schedule, 2)
	assert.Equal(t, "2026-02-02", resp.Schedule[0].DueDate)
	assert.Equal(t, "2026-03-03", resp.Schedule[1].DueDate)
	assert.NotEmpty(t, resp.Warnings)
}

func TestHandleScheduleConfigInvalid(t *testing.T) {
	h := newTestHandler(t, 0)

	rr := do(t, h, http.MethodPost, "/api/schedule/config", "schedule:\n  method: act360\n")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/api/schedule/config", "loan: [")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleDueDates(t *testing.T) {
	h := newTestHandler(t, 0)

	rr := do(t, h, http.MethodPost, "/api/due-dates", `{"startDate":"2026-01-15","count":2}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp map[string][]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []string{"2026-03-10", "2026-04-10"}, resp["dueDates"])

	rr = do(t, h, http.MethodPost, "/api/due-dates", `{"count":2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = do(t, h, http.MethodPost, "/api/due-dates", `{"startDate":"2026-13-01","count":2}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/api/due-dates", `{"startDate":"2026-01-15","count":5000}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestHandleIRR(t *testing.T) {
	h := newTestHandler(t, 0)

	rr := do(t, h, http.MethodPost, "/api/irr",
		`{"flows":[{"offsetDays":0,"amount":1000},{"offsetDays":365,"amount":-1100}]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Rate    float64 `json:"rate"`
		RatePct float64 `json:"ratePct"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.InDelta(t, 0.10, resp.Rate, 1e-6)
	assert.InDelta(t, 10.0, resp.RatePct, 1e-4)

	rr = do(t, h, http.MethodPost, "/api/irr",
		`{"flows":[{"offsetDays":0,"amount":1000},{"offsetDays":365,"amount":500}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestHandleReferenceRate(t *testing.T) {
	rr := do(t, newTestHandler(t, 0), http.MethodGet, "/api/reference-rate?refresh=true", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Rate struct {
			RatePct float64 `json:"ratePct"`
			Source  string  `json:"source"`
		} `json:"rate"`
		Origin            string  `json:"origin"`
		MaxNominalRatePct float64 `json:"maxNominalRatePct"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 5.75, resp.Rate.RatePct)
	assert.Equal(t, "bundled-default", resp.Rate.Source)
	assert.Equal(t, "default", resp.Origin)
	assert.InDelta(t, 9.25, resp.MaxNominalRatePct, 1e-9)

	noProvider := NewHandler(nil, Options{})
	rr = do(t, noProvider, http.MethodGet, "/api/reference-rate", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleVersion(t *testing.T) {
	rr := do(t, newTestHandler(t, 0), http.MethodGet, "/api/version", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"version":"1.2.3"}`, rr.Body.String())

	rr = do(t, NewHandler(nil, Options{Version: "  "}), http.MethodGet, "/api/version", "")
	assert.JSONEq(t, `{"version":"dev"}`, rr.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	rr := do(t, newTestHandler(t, 0), http.MethodGet, "/api/schedule", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
