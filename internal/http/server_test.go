package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"spendreport/internal/blob/memory"
	"spendreport/internal/core"
	"spendreport/internal/ledger"
	"spendreport/internal/services"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := memory.New()
	led := ledger.New(store)
	rules := services.NewRulesService(store, nil)
	settings := services.NewSettingsService(core.DefaultSettings(), store, nil)
	srv := NewServer("127.0.0.1:0", Services{
		Import:       services.NewImportService(led, rules, nil),
		Transactions: services.NewTransactionService(led, rules, nil),
		Rules:        rules,
		Settings:     settings,
		Reports:      services.NewReportService(led, rules, settings, 16, time.Minute),
		Recurring:    services.NewRecurringService(led, store, nil),
	}, func() bool { return true })

	ts := httptest.NewServer(srv.Server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func postJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

const sampleCSV = "Date,Description,Amount\n" +
	"2024-01-15,TRADER JOES #512,-45.30\n" +
	"2024-02-16,PAYROLL ACME CORP,2500.00\n"

func TestHealthAndReadiness(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("readyz status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

func TestImportFlow(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/import/preview", "text/csv", strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("POST preview: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("preview status = %d, body %s", resp.StatusCode, body)
	}
	var preview struct {
		ValidCount   int `json:"validCount"`
		InvalidCount int `json:"invalidCount"`
	}
	decodeBody(t, resp, &preview)
	if preview.ValidCount != 2 || preview.InvalidCount != 0 {
		t.Errorf("preview counts = %+v", preview)
	}

	resp, err = http.Post(ts.URL+"/api/import?source=test.csv", "text/csv", strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("POST import: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("import status = %d", resp.StatusCode)
	}
	var result struct {
		BatchID  string `json:"batchId"`
		Imported int    `json:"imported"`
	}
	decodeBody(t, resp, &result)
	if result.Imported != 2 || result.BatchID == "" {
		t.Errorf("import result = %+v", result)
	}

	// Re-posting the same grid leaves the duplicates out unless asked for.
	resp, err = http.Post(ts.URL+"/api/import?source=test.csv", "text/csv", strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("POST import: %v", err)
	}
	var again struct {
		Imported   int `json:"imported"`
		Duplicates int `json:"duplicates"`
	}
	decodeBody(t, resp, &again)
	if again.Imported != 0 || again.Duplicates != 2 {
		t.Errorf("re-import result = %+v, want 0 imported, 2 duplicates", again)
	}

	resp, err = http.Post(ts.URL+"/api/import?source=test.csv&rows=0", "text/csv", strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("POST import: %v", err)
	}
	var selected struct {
		Imported int `json:"imported"`
	}
	decodeBody(t, resp, &selected)
	if selected.Imported != 1 {
		t.Errorf("selected re-import imported %d, want 1", selected.Imported)
	}

	resp, err = http.Get(ts.URL + "/api/transactions")
	if err != nil {
		t.Fatalf("GET transactions: %v", err)
	}
	var txs []struct {
		Name string `json:"name"`
		Pair struct {
			Category string `json:"category"`
		} `json:"pair"`
	}
	decodeBody(t, resp, &txs)
	if len(txs) != 3 {
		t.Fatalf("transactions = %d, want 3", len(txs))
	}
	if txs[0].Pair.Category != core.CategoryOther {
		t.Errorf("unruled transaction category = %q", txs[0].Pair.Category)
	}
}

func TestRulesEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rule := core.CategoryRule{Category: "food", Subcategory: "groceries", MatchText: "trader"}
	resp := postJSON(t, ts.URL+"/api/rules", rule)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add rule status = %d", resp.StatusCode)
	}

	// Duplicates conflict.
	resp = postJSON(t, ts.URL+"/api/rules", rule)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate rule status = %d", resp.StatusCode)
	}

	second := core.CategoryRule{Category: "housing", Subcategory: "rent", MatchText: "landlord"}
	resp = postJSON(t, ts.URL+"/api/rules", second)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add second rule status = %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/api/rules/landlord/top", struct{}{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("move to top status = %d", resp.StatusCode)
	}
	var rules []core.CategoryRule
	decodeBody(t, resp, &rules)
	if len(rules) != 2 || rules[0].MatchText != "landlord" {
		t.Errorf("rules after move = %+v", rules)
	}

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/rules/trader", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE rule: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete rule status = %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/api/categories/rename", renameRequest{OldName: "housing", NewName: "home"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rename status = %d", resp.StatusCode)
	}
	var touched touchedResponse
	decodeBody(t, resp, &touched)
	if touched.Touched != 1 {
		t.Errorf("rename touched = %d, want 1", touched.Touched)
	}
}

func TestReportEndpointValidation(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/reports?period=weekly")
	if err != nil {
		t.Fatalf("GET reports: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid period status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/reports?period=year&granularity=subcategory")
	if err != nil {
		t.Fatalf("GET reports: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("valid report status = %d", resp.StatusCode)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	body, _ := json.Marshal(core.Settings{RecentMonthCount: 6, MaxGraphCategories: 4, RequiredDaysForLatestMonth: 20, ReportColorDeadZone: 3, ReportColorSevereZScore: 2.5})
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/settings", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT settings: %v", err)
	}
	var updated core.Settings
	decodeBody(t, resp, &updated)
	if updated.RecentMonthCount != 6 {
		t.Errorf("updated settings = %+v", updated)
	}

	resp, err = http.Get(ts.URL + "/api/settings")
	if err != nil {
		t.Fatalf("GET settings: %v", err)
	}
	var got core.Settings
	decodeBody(t, resp, &got)
	if got != updated {
		t.Errorf("settings = %+v, want %+v", got, updated)
	}
}

func TestGeneratorEndpoints(t *testing.T) {
	ts := newTestServer(t)

	gen := core.Generator{
		Name:        "rent",
		Amount:      -1200,
		Category:    "housing",
		Subcategory: "rent",
		StartMonth:  core.Month{Year: 2024, Mon: time.January},
		DayOfMonth:  1,
	}
	resp := postJSON(t, ts.URL+"/api/generators", gen)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add generator status = %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/api/generators", core.Generator{Name: "broken"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("invalid generator status = %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/api/generators/run", struct{}{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("run status = %d", resp.StatusCode)
	}
	var run runResponse
	decodeBody(t, resp, &run)
	if run.Added == 0 {
		t.Error("run added no transactions")
	}

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/generators/rent", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE generator: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete generator status = %d", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/generators/rent", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE generator: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("delete missing generator status = %d", resp.StatusCode)
	}
}
