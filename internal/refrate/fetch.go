package refrate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/iwvelando/credit-calculator/pkg/constants"
)

// maxResponseBytes bounds how much of a remote response is read.
const maxResponseBytes = 1 << 20

// Fetcher retrieves the current reference rate from a remote source.
type Fetcher interface {
	Fetch(ctx context.Context) (ReferenceRate, error)
}

// NewFetcher builds the fetcher for the named source.
func NewFetcher(source, url string, timeout time.Duration) (Fetcher, error) {
	switch source {
	case constants.ReferenceRateSourceJSON:
		return NewJSONFetcher(url, timeout), nil
	case constants.ReferenceRateSourceNBP:
		return NewNBPFetcher(url, timeout), nil
	default:
		return nil, fmt.Errorf("unknown reference rate source %q", source)
	}
}

// JSONFetcher reads a small JSON document of the form
// {"ratePct": 5.75, "asOf": "2026-02-07", "source": "..."}.
type JSONFetcher struct {
	url    string
	client *http.Client
}

// NewJSONFetcher returns a JSONFetcher for url. An empty url selects the
// default document location.
func NewJSONFetcher(url string, timeout time.Duration) *JSONFetcher {
	if url == "" {
		url = constants.DefaultReferenceRateURL
	}
	return &JSONFetcher{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type jsonPayload struct {
	RatePct *float64 `json:"ratePct"`
	AsOf    string   `json:"asOf"`
	Source  string   `json:"source"`
}

// Fetch downloads and decodes the rate document.
func (f *JSONFetcher) Fetch(ctx context.Context) (ReferenceRate, error) {
	body, err := get(ctx, f.client, f.url, "application/json")
	if err != nil {
		return ReferenceRate{}, err
	}

	var payload jsonPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return ReferenceRate{}, fmt.Errorf("failed to decode reference rate: %w", err)
	}
	if payload.RatePct == nil {
		return ReferenceRate{}, fmt.Errorf("%w: missing ratePct", ErrInvalidRate)
	}

	rate := ReferenceRate{
		RatePct: *payload.RatePct,
		AsOf:    payload.AsOf,
		Source:  payload.Source,
	}
	if rate.Source == "" {
		rate.Source = "remote-json"
	}
	if err := rate.Validate(); err != nil {
		return ReferenceRate{}, err
	}
	return rate, nil
}

// NBPFetcher reads the National Bank of Poland interest rate table and picks
// the reference rate entry.
type NBPFetcher struct {
	url    string
	client *http.Client
}

// NewNBPFetcher returns an NBPFetcher for url. An empty url selects the
// published NBP table.
func NewNBPFetcher(url string, timeout time.Duration) *NBPFetcher {
	if url == "" {
		url = constants.DefaultNBPRatesURL
	}
	return &NBPFetcher{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the XML table and extracts the reference rate.
func (f *NBPFetcher) Fetch(ctx context.Context) (ReferenceRate, error) {
	body, err := get(ctx, f.client, f.url, "application/xml")
	if err != nil {
		return ReferenceRate{}, err
	}
	return ParseNBPTable(body)
}

// ParseNBPTable extracts the reference rate from an NBP rate table document.
// Rates use a decimal comma.
func ParseNBPTable(data []byte) (ReferenceRate, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return ReferenceRate{}, fmt.Errorf("failed to parse XML: %w", err)
	}

	entry := doc.FindElement("//pozycja[@id='ref']")
	if entry == nil {
		return ReferenceRate{}, fmt.Errorf("%w: reference rate entry not found in XML", ErrInvalidRate)
	}

	rawRate := strings.TrimSpace(entry.SelectAttrValue("oprocentowanie", ""))
	ratePct, err := strconv.ParseFloat(strings.Replace(rawRate, ",", ".", 1), 64)
	if err != nil {
		return ReferenceRate{}, fmt.Errorf("%w: failed to parse rate %q", ErrInvalidRate, rawRate)
	}

	asOf := entry.SelectAttrValue("obowiazuje_od", "")
	if asOf == "" {
		if table := entry.Parent(); table != nil {
			asOf = table.SelectAttrValue("obowiazuje_od", "")
		}
	}

	rate := ReferenceRate{
		RatePct: ratePct,
		AsOf:    asOf,
		Source:  "nbp",
	}
	if err := rate.Validate(); err != nil {
		return ReferenceRate{}, err
	}
	return rate, nil
}

func get(ctx context.Context, client *http.Client, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("Cache-Control", "no-store")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reference rate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reference rate fetch failed: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
