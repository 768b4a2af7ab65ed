package internal_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"wealth_manager/internal/api"
	"wealth_manager/internal/domain"
	"wealth_manager/internal/processor"
	"wealth_manager/internal/repository"
	"wealth_manager/internal/repository/file"
	"wealth_manager/internal/store"
	"wealth_manager/pkg/crypto"
	"wealth_manager/pkg/metrics"
	"wealth_manager/pkg/validator"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type testEnv struct {
	path    string
	store   *store.FinancialStore
	metrics *metrics.MetricsCollector
	mux     *http.ServeMux
	logger  *slog.Logger
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	return setupAt(t, filepath.Join(t.TempDir(), "data.json"))
}

func setupAt(t *testing.T, path string) *testEnv {
	t.Helper()
	logger := slog.Default()

	codec := repository.NewSnapshotCodec(crypto.NewSigner("test-secret", logger))
	repo, err := file.NewSnapshotRepository(path, codec, logger)
	if err != nil {
		t.Fatalf("create file repository failed: %v", err)
	}

	metricsCollector := metrics.NewMetricsCollector(logger)
	engine := processor.NewRuleEngine(processor.DefaultThresholds(), metricsCollector, logger)
	s, err := store.New(context.Background(), repo, engine, logger, store.WithMetrics(metricsCollector))
	if err != nil {
		t.Fatalf("create store failed: %v", err)
	}

	handler := api.NewAPIHandler(s, validator.NewEntityValidator(), logger)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	return &testEnv{
		path:    path,
		store:   s,
		metrics: metricsCollector,
		mux:     mux,
		logger:  logger,
	}
}

func call(t *testing.T, env *testEnv, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request failed: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.mux.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return v
}

func snapshot(t *testing.T, env *testEnv) domain.FinancialData {
	t.Helper()
	w := call(t, env, "GET", "/api/v1/snapshot", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	return decode[domain.FinancialData](t, w)
}

func titleCount(data domain.FinancialData, title string) int {
	var n int
	for _, r := range data.Recommendations {
		if r.Title == title {
			n++
		}
	}
	return n
}

func TestIntegration_UtilizationRecommendation(t *testing.T) {
	env := setup(t)

	w := call(t, env, "POST", "/api/v1/income", domain.IncomeInput{Source: "Salary", Amount: 1000, Frequency: domain.FrequencyMonthly})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	income := decode[domain.Income](t, w)
	if income.ID == "" {
		t.Fatal("expected an id on the created income")
	}

	w = call(t, env, "POST", "/api/v1/credit-cards", domain.CreditCardInput{Name: "Visa", Balance: 900, CreditLimit: 1000})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	data := snapshot(t, env)
	if len(data.Recommendations) != 4 {
		t.Fatalf("expected 4 recommendations, got %d", len(data.Recommendations))
	}
	if titleCount(data, domain.TitleUtilization) != 1 {
		t.Errorf("expected one %q", domain.TitleUtilization)
	}

	series, err := testutil.GatherAndCount(env.metrics.Registry(), "recommendations_created_total")
	if err != nil {
		t.Fatalf("gather metrics failed: %v", err)
	}
	if series != 1 {
		t.Errorf("expected one created-recommendation series, got %d", series)
	}
}

func TestIntegration_SurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	env := setupAt(t, path)

	call(t, env, "POST", "/api/v1/assets", domain.AssetInput{Name: "Brokerage", Category: domain.AssetInvestment, Value: 25000})
	before := snapshot(t, env)

	restarted := setupAt(t, path)
	after := snapshot(t, restarted)

	if len(after.Assets) != 1 || after.Assets[0] != before.Assets[0] {
		t.Fatalf("expected asset to survive restart, got %+v", after.Assets)
	}
	if len(after.Recommendations) != len(before.Recommendations) {
		t.Errorf("expected %d recommendations after restart, got %d", len(before.Recommendations), len(after.Recommendations))
	}
}

func TestIntegration_UpdateAndDelete(t *testing.T) {
	env := setup(t)

	w := call(t, env, "POST", "/api/v1/liabilities", domain.LiabilityInput{Name: "Car loan", Category: domain.LiabilityAutoLoan, Balance: 8000, InterestRate: 0.05, MonthlyPayment: 250})
	lib := decode[domain.Liability](t, w)

	w = call(t, env, "PUT", "/api/v1/liabilities/"+lib.ID, domain.LiabilityInput{Name: "Car loan", Category: domain.LiabilityAutoLoan, Balance: 7000, InterestRate: 0.05, MonthlyPayment: 250})
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := snapshot(t, env).Liabilities[0].Balance; got != 7000 {
		t.Errorf("expected balance 7000, got %v", got)
	}

	w = call(t, env, "DELETE", "/api/v1/liabilities/"+lib.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := len(snapshot(t, env).Liabilities); got != 0 {
		t.Errorf("expected no liabilities, got %d", got)
	}

	w = call(t, env, "DELETE", "/api/v1/liabilities/"+lib.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("expected deleting twice to be tolerated, got %d", w.Code)
	}
}

func TestIntegration_InvalidRequestValidation(t *testing.T) {
	env := setup(t)

	tests := []struct {
		name string
		path string
		body any
	}{
		{"negative amount", "/api/v1/income", domain.IncomeInput{Source: "Job", Amount: -1, Frequency: domain.FrequencyMonthly}},
		{"unknown frequency", "/api/v1/income", domain.IncomeInput{Source: "Job", Amount: 1, Frequency: "hourly"}},
		{"unknown category", "/api/v1/assets", domain.AssetInput{Name: "Boat", Category: "yacht", Value: 1}},
		{"negative limit", "/api/v1/credit-cards", domain.CreditCardInput{Name: "Visa", Balance: 1, CreditLimit: -10}},
		{"malformed body", "/api/v1/liabilities", "not an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(t, env, "POST", tt.path, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if resp := decode[api.ErrorResponse](t, w); resp.Code == "" {
				t.Errorf("expected an error code in %+v", resp)
			}
		})
	}

	if got := snapshot(t, env); len(got.Income)+len(got.Assets)+len(got.Liabilities)+len(got.CreditCards) != 0 {
		t.Errorf("expected rejected requests to leave the snapshot untouched, got %+v", got)
	}
}

func TestIntegration_RecommendationStatus(t *testing.T) {
	env := setup(t)
	id := snapshot(t, env).Recommendations[0].ID

	w := call(t, env, "PATCH", "/api/v1/recommendations/"+id, api.UpdateStatusRequest{Status: domain.StatusCompleted})
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	w = call(t, env, "PATCH", "/api/v1/recommendations/"+id, api.UpdateStatusRequest{Status: domain.StatusPending})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for a backward transition, got %d", w.Code)
	}

	w = call(t, env, "PATCH", "/api/v1/recommendations/"+id, api.UpdateStatusRequest{Status: "archived"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an unknown status, got %d", w.Code)
	}

	w = call(t, env, "GET", "/api/v1/recommendations?status=completed", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	completed := decode[[]domain.Recommendation](t, w)
	if len(completed) != 1 || completed[0].ID != id {
		t.Errorf("expected only %s to be completed, got %+v", id, completed)
	}
}

func TestIntegration_Summary(t *testing.T) {
	env := setup(t)

	call(t, env, "POST", "/api/v1/income", domain.IncomeInput{Source: "Salary", Amount: 60000, Frequency: domain.FrequencyAnnually})
	call(t, env, "POST", "/api/v1/assets", domain.AssetInput{Name: "Savings", Category: domain.AssetSavings, Value: 12000})
	call(t, env, "POST", "/api/v1/credit-cards", domain.CreditCardInput{Name: "Visa", Balance: 2000, CreditLimit: 10000, MonthlyPayment: 100})

	w := call(t, env, "GET", "/api/v1/summary", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	summary := decode[api.SummaryResponse](t, w)

	if summary.MonthlyIncome != 5000 {
		t.Errorf("expected monthly income 5000, got %v", summary.MonthlyIncome)
	}
	if summary.NetWorth != 10000 {
		t.Errorf("expected net worth 10000, got %v", summary.NetWorth)
	}
	if summary.CreditUtilization != 0.2 {
		t.Errorf("expected utilization 0.2, got %v", summary.CreditUtilization)
	}
	if len(summary.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", summary.Warnings)
	}
}

func TestIntegration_ConcurrentRequests(t *testing.T) {
	env := setup(t)

	n := 10
	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			call(t, env, "POST", "/api/v1/income", domain.IncomeInput{
				Source:    fmt.Sprintf("Gig %d", i),
				Amount:    100,
				Frequency: domain.FrequencyWeekly,
			})
		}(i)
	}
	wg.Wait()

	if got := len(snapshot(t, env).Income); got != n {
		t.Fatalf("expected %d income entries, got %d", n, got)
	}
}

func TestIntegration_HealthCheck(t *testing.T) {
	env := setup(t)

	w := call(t, env, "GET", "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := decode[map[string]any](t, w); body["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", body["status"])
	}
}
