package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

const (
	testUserA = "11111111-1111-4111-8111-111111111111"
	testUserB = "22222222-2222-4222-8222-222222222222"
)

type testEnvelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Message    string          `json:"message"`
	Pagination *Pagination     `json:"pagination"`
}

func newTestHandler(t *testing.T, requestsPerMinute int) http.Handler {
	t.Helper()

	repo, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	analytics := services.NewAnalyticsService(repo, cache.NewLRUCache[any](64, time.Minute))
	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: requestsPerMinute,
		CleanupInterval:   time.Minute,
	})
	t.Cleanup(limiter.Stop)

	srv := NewServer(":0", Deps{
		Repo:         repo,
		Categories:   services.NewCategoryService(repo, analytics),
		Transactions: services.NewTransactionService(repo, analytics),
		Analytics:    analytics,
		Profiles:     services.NewProfileService(repo),
		Auth:         auth.NewHeaderProvider(),
		Limiter:      limiter,
	})
	return srv.Handler()
}

func doRequest(t *testing.T, h http.Handler, method, path, userID string, body any) (int, testEnvelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		r.Header.Set("X-User-ID", userID)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	var env testEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid JSON response %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, env
}

func decodeData(t *testing.T, env testEnvelope, out any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data %q: %v", string(env.Data), err)
	}
}

func createCategory(t *testing.T, h http.Handler, userID, name, typ string, extra map[string]any) string {
	t.Helper()

	body := map[string]any{"name": name, "type": typ}
	for k, v := range extra {
		body[k] = v
	}
	code, env := doRequest(t, h, "POST", "/categories", userID, body)
	if code != http.StatusCreated {
		t.Fatalf("create category %s: expected 201, got %d (%s)", name, code, env.Error)
	}
	var c struct {
		ID string `json:"id"`
	}
	decodeData(t, env, &c)
	return c.ID
}

func createTransaction(t *testing.T, h http.Handler, userID string, body map[string]any) string {
	t.Helper()

	code, env := doRequest(t, h, "POST", "/transactions", userID, body)
	if code != http.StatusCreated {
		t.Fatalf("create transaction: expected 201, got %d (%s)", code, env.Error)
	}
	var tx struct {
		ID string `json:"id"`
	}
	decodeData(t, env, &tx)
	return tx.ID
}

func TestRequestsWithoutUserAreRejected(t *testing.T) {
	h := newTestHandler(t, 1000)

	for _, path := range []string{"/categories", "/transactions", "/profile", "/budgets", "/goals"} {
		code, env := doRequest(t, h, "GET", path, "", nil)
		if code != http.StatusUnauthorized {
			t.Fatalf("GET %s: expected 401, got %d", path, code)
		}
		if env.Success || env.Error != "Please log in to access this resource" {
			t.Fatalf("GET %s: unexpected envelope %+v", path, env)
		}
	}

	// Malformed ids are indistinguishable from missing ones.
	code, _ := doRequest(t, h, "GET", "/categories", "not-a-uuid", nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("malformed user id: expected 401, got %d", code)
	}
}

func TestHealthProbesAreAnonymous(t *testing.T) {
	h := newTestHandler(t, 1000)

	for _, path := range []string{"/healthz", "/readyz"} {
		code, env := doRequest(t, h, "GET", path, "", nil)
		if code != http.StatusOK || !env.Success {
			t.Fatalf("GET %s: expected 200 success, got %d %+v", path, code, env)
		}
	}
}

func TestCategoryLifecycle(t *testing.T) {
	h := newTestHandler(t, 1000)

	id := createCategory(t, h, testUserA, "Food", "expense", map[string]any{
		"budget": 500,
		"color":  "#FF5733",
	})

	code, env := doRequest(t, h, "GET", "/categories/"+id, testUserA, nil)
	if code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", code)
	}
	var got struct {
		Name             string  `json:"name"`
		Type             string  `json:"type"`
		Color            string  `json:"color"`
		Budget           float64 `json:"budget"`
		TransactionCount int64   `json:"transactionCount"`
	}
	decodeData(t, env, &got)
	if got.Name != "Food" || got.Type != "expense" || got.Color != "#FF5733" {
		t.Fatalf("unexpected category: %+v", got)
	}
	if got.Budget != 500 || got.TransactionCount != 0 {
		t.Fatalf("unexpected stats: %+v", got)
	}

	code, env = doRequest(t, h, "PUT", "/categories/"+id, testUserA, map[string]any{"name": "Groceries"})
	if code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (%s)", code, env.Error)
	}
	decodeData(t, env, &got)
	if got.Name != "Groceries" {
		t.Fatalf("rename not applied: %+v", got)
	}

	code, env = doRequest(t, h, "DELETE", "/categories/"+id, testUserA, nil)
	if code != http.StatusOK || env.Message != "Category deleted successfully" {
		t.Fatalf("delete: got %d %+v", code, env)
	}

	code, _ = doRequest(t, h, "GET", "/categories/"+id, testUserA, nil)
	if code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", code)
	}
}

func TestDuplicateCategoryConflicts(t *testing.T) {
	h := newTestHandler(t, 1000)

	createCategory(t, h, testUserA, "Food", "expense", nil)

	code, env := doRequest(t, h, "POST", "/categories", testUserA, map[string]any{
		"name": "  food  ",
		"type": "expense",
	})
	if code != http.StatusConflict || env.Success {
		t.Fatalf("duplicate: expected 409, got %d %+v", code, env)
	}

	// Same name under the other type is a different bucket.
	code, _ = doRequest(t, h, "POST", "/categories", testUserA, map[string]any{
		"name": "Food",
		"type": "income",
	})
	if code != http.StatusCreated {
		t.Fatalf("other type: expected 201, got %d", code)
	}

	// And another user's namespace is independent.
	code, _ = doRequest(t, h, "POST", "/categories", testUserB, map[string]any{
		"name": "Food",
		"type": "expense",
	})
	if code != http.StatusCreated {
		t.Fatalf("other user: expected 201, got %d", code)
	}
}

func TestValidationFailureListsFields(t *testing.T) {
	h := newTestHandler(t, 1000)

	code, env := doRequest(t, h, "POST", "/categories", testUserA, map[string]any{
		"type":  "sideways",
		"color": "red",
	})
	if code != http.StatusBadRequest || env.Error != "Validation failed" {
		t.Fatalf("expected 400 validation failure, got %d %+v", code, env)
	}

	var fields []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}
	decodeData(t, env, &fields)

	want := map[string]bool{"name": false, "type": false, "color": false}
	for _, f := range fields {
		if _, ok := want[f.Field]; ok {
			want[f.Field] = true
		}
		if f.Message == "" {
			t.Fatalf("field %s has no message", f.Field)
		}
	}
	for field, seen := range want {
		if !seen {
			t.Fatalf("expected a violation for %s, got %+v", field, fields)
		}
	}
}

func TestInvalidPathIDIsValidationFailure(t *testing.T) {
	h := newTestHandler(t, 1000)

	code, env := doRequest(t, h, "GET", "/categories/not-a-uuid", testUserA, nil)
	if code != http.StatusBadRequest || env.Error != "Validation failed" {
		t.Fatalf("expected 400, got %d %+v", code, env)
	}
}

func TestForeignRowsLookAbsent(t *testing.T) {
	h := newTestHandler(t, 1000)

	id := createCategory(t, h, testUserB, "Secret", "expense", nil)

	code, env := doRequest(t, h, "GET", "/categories/"+id, testUserA, nil)
	if code != http.StatusNotFound || env.Error != "Resource not found" {
		t.Fatalf("foreign read: expected 404, got %d %+v", code, env)
	}

	code, _ = doRequest(t, h, "DELETE", "/categories/"+id, testUserA, nil)
	if code != http.StatusNotFound {
		t.Fatalf("foreign delete: expected 404, got %d", code)
	}
}

func TestPaginationEnvelope(t *testing.T) {
	h := newTestHandler(t, 1000)

	createCategory(t, h, testUserA, "Alpha", "expense", nil)
	createCategory(t, h, testUserA, "Beta", "expense", nil)

	code, env := doRequest(t, h, "GET", "/categories?page=2&limit=1&sortBy=name&sortOrder=asc", testUserA, nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	var items []struct {
		Name string `json:"name"`
	}
	decodeData(t, env, &items)
	if len(items) != 1 || items[0].Name != "Beta" {
		t.Fatalf("expected page 2 to hold Beta, got %+v", items)
	}

	p := env.Pagination
	if p == nil || p.Page != 2 || p.Limit != 1 || p.Total != 2 || p.TotalPages != 2 {
		t.Fatalf("unexpected pagination: %+v", p)
	}
}

func TestTransactionTypeMustMatchCategory(t *testing.T) {
	h := newTestHandler(t, 1000)

	catID := createCategory(t, h, testUserA, "Food", "expense", nil)

	code, env := doRequest(t, h, "POST", "/transactions", testUserA, map[string]any{
		"title":      "Paycheck",
		"amount":     "3000.00",
		"type":       "income",
		"date":       "2024-01-15",
		"categoryId": catID,
	})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %+v", code, env)
	}
	if env.Error != "transaction type must match category type" {
		t.Fatalf("unexpected error message: %q", env.Error)
	}
}

func TestTransactionAnalyticsScenario(t *testing.T) {
	h := newTestHandler(t, 1000)

	foodID := createCategory(t, h, testUserA, "Food", "expense", nil)
	salaryID := createCategory(t, h, testUserA, "Salary", "income", nil)

	today := time.Now().UTC().Format("2006-01-02")
	createTransaction(t, h, testUserA, map[string]any{
		"title":      "Lunch",
		"amount":     "10.50",
		"type":       "expense",
		"date":       today,
		"categoryId": foodID,
	})
	createTransaction(t, h, testUserA, map[string]any{
		"title":      "Paycheck",
		"amount":     "3000.00",
		"type":       "income",
		"date":       today,
		"categoryId": salaryID,
	})

	code, env := doRequest(t, h, "GET", "/transactions/analytics?period=month", testUserA, nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", code, env.Error)
	}
	var stats struct {
		TotalIncome      float64 `json:"totalIncome"`
		TotalExpenses    float64 `json:"totalExpenses"`
		NetAmount        float64 `json:"netAmount"`
		TransactionCount int64   `json:"transactionCount"`
		TopCategory      string  `json:"topCategory"`
	}
	decodeData(t, env, &stats)
	if stats.TotalExpenses != 10.50 || stats.TotalIncome != 3000 || stats.NetAmount != 2989.50 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if stats.TransactionCount != 2 || stats.TopCategory != "Food" {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	code, env = doRequest(t, h, "GET", "/transactions/analytics/categories", testUserA, nil)
	if code != http.StatusOK {
		t.Fatalf("spending: expected 200, got %d", code)
	}
	var spending []struct {
		CategoryName string  `json:"categoryName"`
		TotalAmount  float64 `json:"totalAmount"`
		Percentage   float64 `json:"percentage"`
	}
	decodeData(t, env, &spending)
	if len(spending) != 1 || spending[0].CategoryName != "Food" {
		t.Fatalf("unexpected spending: %+v", spending)
	}
	if spending[0].TotalAmount != 10.50 || spending[0].Percentage != 100 {
		t.Fatalf("unexpected spending figures: %+v", spending)
	}
}

func TestAnalyticsEmptyWindowIsAllZero(t *testing.T) {
	h := newTestHandler(t, 1000)

	code, env := doRequest(t, h, "GET", "/transactions/analytics", testUserA, nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var stats struct {
		TotalIncome      float64 `json:"totalIncome"`
		TotalExpenses    float64 `json:"totalExpenses"`
		TransactionCount int64   `json:"transactionCount"`
	}
	decodeData(t, env, &stats)
	if stats.TotalIncome != 0 || stats.TotalExpenses != 0 || stats.TransactionCount != 0 {
		t.Fatalf("expected all-zero stats, got %+v", stats)
	}
}

func TestDeleteCategoryWithHistoryArchives(t *testing.T) {
	h := newTestHandler(t, 1000)

	catID := createCategory(t, h, testUserA, "Food", "expense", nil)
	createTransaction(t, h, testUserA, map[string]any{
		"title":      "Lunch",
		"amount":     "10.50",
		"type":       "expense",
		"date":       "2024-01-15",
		"categoryId": catID,
	})

	code, env := doRequest(t, h, "DELETE", "/categories/"+catID, testUserA, nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if env.Message != "Category archived because transactions reference it" {
		t.Fatalf("unexpected message: %q", env.Message)
	}

	code, env = doRequest(t, h, "GET", "/categories/"+catID, testUserA, nil)
	if code != http.StatusOK {
		t.Fatalf("archived category must stay readable, got %d", code)
	}
	var got struct {
		Status string `json:"status"`
	}
	decodeData(t, env, &got)
	if got.Status != "archived" {
		t.Fatalf("expected archived status, got %q", got.Status)
	}
}

func TestProfileIsAutoProvisioned(t *testing.T) {
	h := newTestHandler(t, 1000)

	code, env := doRequest(t, h, "GET", "/profile", testUserA, nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var p struct {
		ID       string `json:"id"`
		Currency string `json:"currency"`
		Timezone string `json:"timezone"`
	}
	decodeData(t, env, &p)
	if p.ID != testUserA || p.Currency != "USD" || p.Timezone != "UTC" {
		t.Fatalf("unexpected profile: %+v", p)
	}

	code, env = doRequest(t, h, "PUT", "/profile", testUserA, map[string]any{
		"fullName": "Ada Lovelace",
		"currency": "eur",
	})
	if code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (%s)", code, env.Error)
	}
	var updated struct {
		FullName string `json:"fullName"`
		Currency string `json:"currency"`
	}
	decodeData(t, env, &updated)
	if updated.FullName != "Ada Lovelace" || updated.Currency != "EUR" {
		t.Fatalf("unexpected profile after update: %+v", updated)
	}
}

func TestBudgetAndGoalEndpoints(t *testing.T) {
	h := newTestHandler(t, 1000)

	code, env := doRequest(t, h, "POST", "/budgets", testUserA, map[string]any{
		"name":      "Monthly groceries",
		"amount":    "400.00",
		"period":    "monthly",
		"startDate": "2024-01-01",
	})
	if code != http.StatusCreated {
		t.Fatalf("create budget: expected 201, got %d (%s)", code, env.Error)
	}
	var b struct {
		ID             string  `json:"id"`
		AlertThreshold float64 `json:"alertThreshold"`
		IsActive       bool    `json:"isActive"`
	}
	decodeData(t, env, &b)
	if b.AlertThreshold != 80 || !b.IsActive {
		t.Fatalf("budget defaults not applied: %+v", b)
	}

	code, env = doRequest(t, h, "POST", "/goals", testUserA, map[string]any{
		"title":         "Emergency fund",
		"targetAmount":  "1000.00",
		"currentAmount": "1200.00",
	})
	if code != http.StatusCreated {
		t.Fatalf("create goal: expected 201, got %d (%s)", code, env.Error)
	}
	var g struct {
		ID          string `json:"id"`
		IsCompleted bool   `json:"isCompleted"`
	}
	decodeData(t, env, &g)
	if !g.IsCompleted {
		t.Fatalf("goal past its target must be completed: %+v", g)
	}

	for _, tc := range []struct{ path, id string }{
		{"/budgets/", b.ID},
		{"/goals/", g.ID},
	} {
		code, _ = doRequest(t, h, "DELETE", tc.path+tc.id, testUserA, nil)
		if code != http.StatusOK {
			t.Fatalf("DELETE %s: expected 200, got %d", tc.path, code)
		}
		code, _ = doRequest(t, h, "DELETE", tc.path+tc.id, testUserA, nil)
		if code != http.StatusNotFound {
			t.Fatalf("second DELETE %s: expected 404, got %d", tc.path, code)
		}
	}
}

func TestRateLimitReturns429(t *testing.T) {
	h := newTestHandler(t, 2)

	for i := 0; i < 2; i++ {
		code, _ := doRequest(t, h, "GET", "/profile", testUserA, nil)
		if code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, code)
		}
	}

	code, env := doRequest(t, h, "GET", "/profile", testUserA, nil)
	if code != http.StatusTooManyRequests || env.Success {
		t.Fatalf("expected 429, got %d %+v", code, env)
	}

	// A different user still has budget.
	code, _ = doRequest(t, h, "GET", "/profile", testUserB, nil)
	if code != http.StatusOK {
		t.Fatalf("other user: expected 200, got %d", code)
	}
}

func TestMonthlyAnalyticsByYear(t *testing.T) {
	h := newTestHandler(t, 1000)

	foodID := createCategory(t, h, testUserA, "Food", "expense", nil)
	for i, amount := range []string{"10.00", "20.00"} {
		createTransaction(t, h, testUserA, map[string]any{
			"title":      fmt.Sprintf("meal %d", i),
			"amount":     amount,
			"type":       "expense",
			"date":       fmt.Sprintf("2024-0%d-15", i+1),
			"categoryId": foodID,
		})
	}

	code, env := doRequest(t, h, "GET", "/transactions/analytics/monthly?year=2024", testUserA, nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var months []struct {
		Month    int     `json:"month"`
		Expenses float64 `json:"expenses"`
		Net      float64 `json:"net"`
	}
	decodeData(t, env, &months)
	if len(months) != 2 {
		t.Fatalf("expected 2 month buckets, got %+v", months)
	}
	if months[0].Month != 1 || months[0].Expenses != 10 || months[0].Net != -10 {
		t.Fatalf("unexpected January bucket: %+v", months[0])
	}

	code, env = doRequest(t, h, "GET", "/transactions/analytics/monthly?year=12345", testUserA, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("bad year: expected 400, got %d %+v", code, env)
	}
}
