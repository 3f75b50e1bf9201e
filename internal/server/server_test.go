package server

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/comp-calculator/internal/config"
	"github.com/iwvelando/comp-calculator/internal/session"
	"github.com/iwvelando/comp-calculator/pkg/constants"
	"github.com/iwvelando/comp-calculator/pkg/finance"
	"github.com/iwvelando/comp-calculator/pkg/testutil"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	defaults := &config.Configuration{TaxRates: testutil.TaxRates()}
	defaults.Packages.Current = testutil.PublicPackage("Current Co")
	defaults.Packages.New = testutil.PrivatePackage("Startup")
	defaults.ApplyDefaults()

	return NewHandler(zap.NewNop(), Options{
		MaxBodySize: constants.DefaultMaxUploadSizeBytes,
		Version:     "v1.2.3",
		Defaults:    defaults,
		Sessions:    session.NewMemoryStore(zap.NewNop(), time.Hour),
	})
}

func TestHandleCompareSuccess(t *testing.T) {
	handler := newTestHandler(t)

	rr := performJSON(t, handler, http.MethodPost, "/api/compare", map[string]interface{}{
		"current": testutil.PublicPackage("Current Co"),
		"new":     testutil.PublicPackage("Other Co"),
	}, "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Comparison struct {
			Horizon int `json:"horizon"`
			Years   []struct {
				Year       int                     `json:"year"`
				Current    finance.YearlyBreakdown `json:"current"`
				Difference float64                 `json:"difference"`
			} `json:"years"`
			Blocked []int `json:"blocked"`
		} `json:"comparison"`
		Summary struct {
			TotalDifference *float64 `json:"totalDifference"`
		} `json:"summary"`
		Duration string `json:"duration"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Comparison.Horizon != 4 {
		t.Errorf("expected horizon 4, got %d", resp.Comparison.Horizon)
	}
	if len(resp.Comparison.Years) != 4 {
		t.Fatalf("expected 4 years, got %d", len(resp.Comparison.Years))
	}
	if len(resp.Comparison.Blocked) != 0 {
		t.Errorf("expected no blocked years, got %v", resp.Comparison.Blocked)
	}

	first := resp.Comparison.Years[0].Current
	if math.Abs(first.Salary-157500) > 0.01 {
		t.Errorf("expected year 1 salary 157500, got %f", first.Salary)
	}
	if math.Abs(first.Tax-14500) > 0.01 {
		t.Errorf("expected year 1 tax 14500 from default rates, got %f", first.Tax)
	}
	if resp.Summary.TotalDifference == nil || *resp.Summary.TotalDifference != 0 {
		t.Errorf("expected total difference 0 for identical packages, got %v", resp.Summary.TotalDifference)
	}
	if resp.Duration == "" {
		t.Error("expected duration in response")
	}
}

func TestHandleCompareBlockedYears(t *testing.T) {
	handler := newTestHandler(t)

	short := testutil.PublicPackage("Short")
	short.Equity.VestingSchedule = []float64{50, 50}

	rr := performJSON(t, handler, http.MethodPost, "/api/compare", map[string]interface{}{
		"current": testutil.PublicPackage("Current Co"),
		"new":     short,
	}, "")

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Comparison struct {
			Years   []json.RawMessage `json:"years"`
			Blocked []int             `json:"blocked"`
		} `json:"comparison"`
		Summary struct {
			TotalDifference *float64 `json:"totalDifference"`
		} `json:"summary"`
		Warnings []string `json:"warnings"`
		Error    string   `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Comparison.Years) != 2 {
		t.Errorf("expected 2 computed years, got %d", len(resp.Comparison.Years))
	}
	if len(resp.Comparison.Blocked) != 2 || resp.Comparison.Blocked[0] != 2 || resp.Comparison.Blocked[1] != 3 {
		t.Errorf("expected blocked years [2 3], got %v", resp.Comparison.Blocked)
	}
	if resp.Summary.TotalDifference != nil {
		t.Errorf("expected no total difference for blocked comparison, got %f", *resp.Summary.TotalDifference)
	}
	if !strings.Contains(resp.Error, "out of range") {
		t.Errorf("expected range error message, got %q", resp.Error)
	}
	if len(resp.Warnings) == 0 {
		t.Error("expected warnings for short vesting schedule")
	}
}

func TestHandleCompareSchemaFailure(t *testing.T) {
	handler := newTestHandler(t)

	pkg := testutil.PublicPackage("Current Co")
	rr := performJSON(t, handler, http.MethodPost, "/api/compare", map[string]interface{}{
		"current": pkg,
	}, "")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Schema) == 0 {
		t.Fatal("expected schema field errors")
	}
}

func TestHandleCompareNegativeHorizon(t *testing.T) {
	handler := newTestHandler(t)

	rr := performRaw(t, handler, http.MethodPost, "/api/compare", []byte(`{"current": {}, "new": {}, "horizon": -1}`), "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleCompareInvalidTaxRates(t *testing.T) {
	handler := newTestHandler(t)

	rr := performJSON(t, handler, http.MethodPost, "/api/compare", map[string]interface{}{
		"current":  testutil.PublicPackage("Current Co"),
		"new":      testutil.PublicPackage("Other Co"),
		"taxRates": map[string]interface{}{"federal": 150, "state": 5, "amt": 28},
	}, "")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleCompareMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/compare", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rr.Code)
	}
}

func TestHandleCompareTooLarge(t *testing.T) {
	handler := NewHandler(zap.NewNop(), Options{MaxBodySize: 16})

	rr := performJSON(t, handler, http.MethodPost, "/api/compare", map[string]interface{}{
		"current": testutil.PublicPackage("Current Co"),
		"new":     testutil.PublicPackage("Other Co"),
	}, "")

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleProject(t *testing.T) {
	handler := newTestHandler(t)

	rr := performJSON(t, handler, http.MethodPost, "/api/project", map[string]interface{}{
		"package": testutil.PublicPackage("Current Co"),
		"year":    0,
	}, "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var breakdown finance.YearlyBreakdown
	if err := json.Unmarshal(rr.Body.Bytes(), &breakdown); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if math.Abs(breakdown.Total-231125) > 0.01 {
		t.Errorf("expected total 231125, got %f", breakdown.Total)
	}
}

func TestHandleProjectOutOfRange(t *testing.T) {
	handler := newTestHandler(t)

	rr := performJSON(t, handler, http.MethodPost, "/api/project", map[string]interface{}{
		"package": testutil.PublicPackage("Current Co"),
		"year":    7,
	}, "")

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleTax(t *testing.T) {
	handler := newTestHandler(t)

	tests := []struct {
		name     string
		payload  map[string]interface{}
		expected float64
	}{
		{
			name:     "RSU",
			payload:  map[string]interface{}{"grossValue": 100000, "equityType": "RSU"},
			expected: 29000,
		},
		{
			name: "ISO below strike floors at zero",
			payload: map[string]interface{}{
				"grossValue": 10000, "equityType": "ISO", "strikePrice": 5, "shares": 10000,
			},
			expected: 0,
		},
		{
			name: "NSO below strike stays negative",
			payload: map[string]interface{}{
				"grossValue": 10000, "equityType": "NSO", "strikePrice": 5, "shares": 10000,
			},
			expected: -11600,
		},
		{
			name:     "NSO without strike",
			payload:  map[string]interface{}{"grossValue": 10000, "equityType": "NSO"},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := performJSON(t, handler, http.MethodPost, "/api/tax", tt.payload, "")
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
			}
			var resp taxResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if math.Abs(resp.Tax-tt.expected) > 0.01 {
				t.Errorf("expected tax %f, got %f", tt.expected, resp.Tax)
			}
		})
	}
}

func TestTaxRatesSessionRoundTrip(t *testing.T) {
	handler := newTestHandler(t)

	override := finance.TaxRates{Federal: 30, State: 10, AMT: 26}
	rr := performJSON(t, handler, http.MethodPut, "/api/tax-rates", override, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	sessionID := rr.Header().Get(constants.SessionHeader)
	if !session.ValidID(sessionID) {
		t.Fatalf("expected minted session ID, got %q", sessionID)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tax-rates", nil)
	req.Header.Set(constants.SessionHeader, sessionID)
	getRR := httptest.NewRecorder()
	handler.ServeHTTP(getRR, req)

	var resp taxRatesResponse
	if err := json.Unmarshal(getRR.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Source != "session" || resp.TaxRates.Federal != 30 {
		t.Errorf("expected session rates, got %+v", resp)
	}

	// Compare requests without explicit rates pick up the override.
	taxRR := performJSON(t, handler, http.MethodPost, "/api/tax", map[string]interface{}{
		"grossValue": 100000, "equityType": "RSU",
	}, sessionID)
	var taxResp taxResponse
	if err := json.Unmarshal(taxRR.Body.Bytes(), &taxResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if math.Abs(taxResp.Tax-40000) > 0.01 {
		t.Errorf("expected session tax 40000, got %f", taxResp.Tax)
	}
}

func TestTaxRatesDefaultWithoutSession(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tax-rates", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp taxRatesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Source != "default" || resp.TaxRates.Federal != 24 {
		t.Errorf("expected default rates, got %+v", resp)
	}
}

func TestTaxRatesInvalidBody(t *testing.T) {
	handler := newTestHandler(t)

	rr := performRaw(t, handler, http.MethodPut, "/api/tax-rates", []byte(`{"federal": "lots"}`), "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleDefaults(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/defaults", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp struct {
		Packages config.Packages `json:"packages"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Packages.New.Name != "Startup" {
		t.Errorf("expected new package Startup, got %q", resp.Packages.New.Name)
	}
}

func TestHandleExport(t *testing.T) {
	handler := newTestHandler(t)

	rr := performJSON(t, handler, http.MethodPost, "/api/export", map[string]interface{}{
		"packages": map[string]interface{}{"current": map[string]interface{}{"base": 100000}},
		"taxRates": map[string]interface{}{"federal": 24},
		"zeta":     true,
		"logging":  map[string]interface{}{"level": "info"},
	}, "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	exported := resp["configYaml"]

	logging := strings.Index(exported, "logging:")
	taxRates := strings.Index(exported, "taxRates:")
	packages := strings.Index(exported, "packages:")
	zeta := strings.Index(exported, "zeta:")
	if logging < 0 || !(logging < taxRates && taxRates < packages && packages < zeta) {
		t.Errorf("unexpected key order:\n%s", exported)
	}

	var parsed map[string]interface{}
	if err := yaml.Unmarshal([]byte(exported), &parsed); err != nil {
		t.Fatalf("exported YAML does not parse: %v", err)
	}
}

func TestHandleVersion(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["version"] != "v1.2.3" {
		t.Errorf("expected version v1.2.3, got %q", resp["version"])
	}
}

func performJSON(t *testing.T, handler http.Handler, method, path string, payload interface{}, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return performRaw(t, handler, method, path, body, sessionID)
}

func performRaw(t *testing.T, handler http.Handler, method, path string, body []byte, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(constants.SessionHeader, sessionID)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}
