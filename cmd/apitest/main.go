// Command apitest runs a smoke test against a running Campus Calendar API.
//
//	go run ./cmd/apitest -url http://localhost:8080 -key $API_KEY
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// =============================================================================
// Response Types - Match the actual API response structure
// =============================================================================

type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type HolidayRecord struct {
	Date        string `json:"date"`
	Name        string `json:"name"`
	CountryCode string `json:"countryCode"`
}

type EasterResponse struct {
	Easter     string `json:"easter"`
	GoodFriday string `json:"good_friday"`
}

type EidResponse struct {
	EidAlFitr string `json:"eidAlFitr"`
	EidAlAdha string `json:"eidAlAdha"`
	Source    string `json:"source"`
}

type Occurrence struct {
	Index int       `json:"index"`
	Date  string    `json:"date"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type PreviewResponse struct {
	RRule       string       `json:"rrule"`
	Count       int          `json:"count"`
	Occurrences []Occurrence `json:"occurrences"`
}

type Series struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Occurrences int    `json:"occurrence_count"`
}

// =============================================================================
// Test Runner
// =============================================================================

type TestRunner struct {
	baseURL      string
	apiKey       string
	region       string
	client       *http.Client
	verbose      bool
	successCount int
	errorCount   int
	errors       []string
}

func NewTestRunner(baseURL, apiKey, region string, verbose bool) *TestRunner {
	return &TestRunner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		region:  region,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		verbose: verbose,
	}
}

func (tr *TestRunner) Run() {
	fmt.Println("==============================================")
	fmt.Println("Campus Calendar API Smoke Test")
	fmt.Println("==============================================")
	fmt.Printf("Base URL: %s\n", tr.baseURL)
	fmt.Println()

	tr.testHealth()
	tr.testHolidays()
	tr.testComputedFeasts()
	tr.testPreview()
	tr.testSeriesLifecycle()
	tr.testEdgeCases()

	tr.printSummary()
}

// =============================================================================
// Test Groups
// =============================================================================

func (tr *TestRunner) testHealth() {
	tr.printSection("Health Check")

	var health struct {
		Status string `json:"status"`
	}
	if err := tr.call(http.MethodGet, "/health", nil, http.StatusOK, &health); err != nil {
		tr.recordError("Health", err.Error())
		return
	}
	if health.Status == "healthy" {
		tr.recordSuccess("Health check passed")
	} else {
		tr.recordError("Health", fmt.Sprintf("Unexpected status: %s", health.Status))
	}
}

func (tr *TestRunner) testHolidays() {
	tr.printSection("Holidays")

	resp, err := tr.do(http.MethodGet, "/api/v1/holidays?year=2025&region="+tr.region, nil)
	if err != nil {
		tr.recordError("Holidays", err.Error())
		return
	}
	defer resp.Body.Close()

	var records []HolidayRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		tr.recordError("Holidays", "parse error: "+err.Error())
		return
	}

	if resp.Header.Get("X-Holiday-Upstream") == "unavailable" {
		fmt.Println("  ! upstream provider unavailable; computed and curated entries only")
	}

	easter := false
	for i, r := range records {
		if i > 0 && r.Date < records[i-1].Date {
			tr.recordError("Holidays", fmt.Sprintf("not sorted at %s", r.Date))
			return
		}
		if r.Date == "2025-04-20" && r.Name == "Easter Sunday" {
			easter = true
		}
		if tr.verbose {
			fmt.Printf("    %s  %s\n", r.Date, r.Name)
		}
	}
	if easter {
		tr.recordSuccess(fmt.Sprintf("%d holidays for %s 2025, Easter present", len(records), tr.region))
	} else {
		tr.recordError("Holidays", "Easter Sunday 2025-04-20 missing")
	}

	resp, err = tr.do(http.MethodGet, "/api/v1/holidays/calendar.ics?year=2025&region="+tr.region, nil)
	if err != nil {
		tr.recordError("Holidays ICS", err.Error())
		return
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/calendar") && bytes.Contains(body, []byte("BEGIN:VCALENDAR")) {
		tr.recordSuccess("Holiday calendar feed served")
	} else {
		tr.recordError("Holidays ICS", "unexpected calendar response")
	}
}

func (tr *TestRunner) testComputedFeasts() {
	tr.printSection("Computed Feasts")

	var easter EasterResponse
	if err := tr.call(http.MethodGet, "/api/v1/calendar/easter/2025", nil, http.StatusOK, &easter); err != nil {
		tr.recordError("Easter", err.Error())
	} else if easter.Easter != "2025-04-20" || easter.GoodFriday != "2025-04-18" {
		tr.recordError("Easter", fmt.Sprintf("got %+v", easter))
	} else {
		tr.recordSuccess("Easter 2025 = 2025-04-20")
	}

	var eid EidResponse
	if err := tr.call(http.MethodGet, "/api/v1/calendar/eid/2025", nil, http.StatusOK, &eid); err != nil {
		tr.recordError("Eid", err.Error())
		return
	}
	if eid.EidAlFitr == "" || eid.EidAlAdha == "" {
		tr.recordError("Eid", fmt.Sprintf("incomplete %+v", eid))
		return
	}
	tr.recordSuccess(fmt.Sprintf("Eid 2025: fitr %s, adha %s (%s)", eid.EidAlFitr, eid.EidAlAdha, eid.Source))
}

func weeklyBody() map[string]any {
	return map[string]any{
		"title":            "Smoke Test Seminar",
		"start":            "2025-09-01T10:30:00",
		"timezone":         "America/Chicago",
		"weekdays":         []int{1, 4},
		"interval_weeks":   1,
		"duration_minutes": 90,
		"max_count":        4,
	}
}

func (tr *TestRunner) testPreview() {
	tr.printSection("Recurrence Preview")

	var preview PreviewResponse
	if err := tr.call(http.MethodPost, "/api/v1/recurrences/preview", weeklyBody(), http.StatusOK, &preview); err != nil {
		tr.recordError("Preview", err.Error())
		return
	}
	if preview.Count != 4 || preview.Occurrences[0].Date != "2025-09-01" {
		tr.recordError("Preview", fmt.Sprintf("unexpected expansion %+v", preview))
		return
	}
	tr.recordSuccess(fmt.Sprintf("Preview expanded 4 occurrences (%s)", preview.RRule))
}

func (tr *TestRunner) testSeriesLifecycle() {
	tr.printSection("Series Lifecycle")

	var series Series
	if err := tr.call(http.MethodPost, "/api/v1/series", weeklyBody(), http.StatusCreated, &series); err != nil {
		tr.recordError("Create series", err.Error())
		return
	}
	tr.recordSuccess(fmt.Sprintf("Created series %s with %d occurrences", series.ID, series.Occurrences))

	var occ []Occurrence
	if err := tr.call(http.MethodGet, "/api/v1/series/"+series.ID+"/occurrences", nil, http.StatusOK, &occ); err != nil {
		tr.recordError("Occurrences", err.Error())
	} else if len(occ) != series.Occurrences {
		tr.recordError("Occurrences", fmt.Sprintf("got %d, want %d", len(occ), series.Occurrences))
	} else {
		tr.recordSuccess("Occurrences listed")
	}

	if err := tr.call(http.MethodDelete, "/api/v1/series/"+series.ID, nil, http.StatusOK, nil); err != nil {
		tr.recordError("Delete series", err.Error())
		return
	}
	if err := tr.call(http.MethodGet, "/api/v1/series/"+series.ID, nil, http.StatusNotFound, nil); err != nil {
		tr.recordError("Deleted series", err.Error())
		return
	}
	tr.recordSuccess("Series deleted")
}

func (tr *TestRunner) testEdgeCases() {
	tr.printSection("Edge Cases")

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"Invalid region", http.MethodGet, "/api/v1/holidays?year=2025&region=XYZ", nil, http.StatusBadRequest},
		{"Inverted year range", http.MethodGet, "/api/v1/holidays?year=2026-2025&region=US", nil, http.StatusBadRequest},
		{"Pre-Gregorian Easter", http.MethodGet, "/api/v1/calendar/easter/1500", nil, http.StatusBadRequest},
		{"Unknown series", http.MethodGet, "/api/v1/series/does-not-exist", nil, http.StatusNotFound},
		{"Preview without bound", http.MethodPost, "/api/v1/recurrences/preview", map[string]any{
			"start": "2025-09-01T10:30:00Z", "weekdays": []int{1}, "duration_minutes": 60,
		}, http.StatusBadRequest},
	}

	for _, c := range cases {
		if err := tr.call(c.method, c.path, c.body, c.status, nil); err != nil {
			tr.recordError(c.name, err.Error())
			continue
		}
		tr.recordSuccess(fmt.Sprintf("%s → %d", c.name, c.status))
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

func (tr *TestRunner) do(method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, tr.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tr.apiKey != "" {
		req.Header.Set("X-API-Key", tr.apiKey)
	}
	return tr.client.Do(req)
}

// call sends a request, checks the status and decodes the data field of
// a successful response into target when target is non-nil.
func (tr *TestRunner) call(method, path string, body any, wantStatus int, target any) error {
	resp, err := tr.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read error: %w", err)
	}
	if resp.StatusCode != wantStatus {
		return fmt.Errorf("status %d, want %d: %s", resp.StatusCode, wantStatus, strings.TrimSpace(string(raw)))
	}
	if target == nil {
		return nil
	}

	var apiResp APIResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	if !apiResp.Success {
		errMsg := "unknown error"
		if apiResp.Error != nil {
			errMsg = apiResp.Error.Message
		}
		return fmt.Errorf("API error: %s", errMsg)
	}
	return json.Unmarshal(apiResp.Data, target)
}

func (tr *TestRunner) printSection(name string) {
	fmt.Println()
	fmt.Printf("--- %s ---\n", name)
	fmt.Println()
}

func (tr *TestRunner) recordSuccess(msg string) {
	tr.successCount++
	fmt.Printf("  ✓ %s\n", msg)
}

func (tr *TestRunner) recordError(context, msg string) {
	tr.errorCount++
	errStr := fmt.Sprintf("%s: %s", context, msg)
	tr.errors = append(tr.errors, errStr)
	fmt.Printf("  ✗ %s\n", errStr)
}

func (tr *TestRunner) printSummary() {
	fmt.Println()
	fmt.Println("==============================================")
	fmt.Println("Summary")
	fmt.Println("==============================================")
	fmt.Printf("  Passed: %d\n", tr.successCount)
	fmt.Printf("  Failed: %d\n", tr.errorCount)
	fmt.Println()

	if tr.errorCount > 0 {
		fmt.Println("Failures:")
		for _, err := range tr.errors {
			fmt.Printf("  • %s\n", err)
		}
		fmt.Println()
		fmt.Printf("Smoke test completed with %d failure(s)\n", tr.errorCount)
		return
	}
	fmt.Println("All checks passed! ✓")
}

// =============================================================================
// Main
// =============================================================================

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	apiKey := flag.String("key", os.Getenv("API_KEY"), "API key for series mutations")
	region := flag.String("region", "US", "Region used for holiday checks")
	verbose := flag.Bool("v", false, "Verbose output (list holidays)")
	flag.Parse()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	resp.Body.Close()

	runner := NewTestRunner(*baseURL, *apiKey, *region, *verbose)
	runner.Run()

	if runner.errorCount > 0 {
		os.Exit(1)
	}
}
