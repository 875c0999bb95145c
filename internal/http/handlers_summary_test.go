package http

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestSummaryEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/users", map[string]string{"name": "Dana"})
	user := decodeBody[userJSON](t, resp)

	budget := "300.00"
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/categories", map[string]any{
		"name":           "Rent",
		"monthly_budget": budget,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create category status = %d, want 201", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/expenses", map[string]any{
		"user_id":  user.ID,
		"category": "Rent",
		"amount":   "120.00",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create expense status = %d, want 201", resp.StatusCode)
	}

	now := time.Now()
	url := fmt.Sprintf("%s/api/summary?year=%d&month=%d", ts.URL, now.Year(), int(now.Month()))

	resp = doJSON(t, http.MethodGet, url, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary status = %d, want 200", resp.StatusCode)
	}
	summary := decodeBody[summaryJSON](t, resp)

	if summary.Period != "month" {
		t.Errorf("period = %q, want month", summary.Period)
	}
	if summary.TotalSpent != "120.00" {
		t.Errorf("total_spent = %q, want 120.00", summary.TotalSpent)
	}
	if len(summary.Categories) != 1 {
		t.Fatalf("got %d categories, want 1", len(summary.Categories))
	}
	rent := summary.Categories[0]
	if rent.Budget == nil || *rent.Budget != "300.00" {
		t.Errorf("budget = %v, want 300.00", rent.Budget)
	}
	if rent.Remaining == nil || *rent.Remaining != "180.00" {
		t.Errorf("remaining = %v, want 180.00", rent.Remaining)
	}
	if rent.PercentageLeft == nil || *rent.PercentageLeft != "60.00" {
		t.Errorf("percentage_left = %v, want 60.00", rent.PercentageLeft)
	}

	// Same month in yearly terms: figures scale by twelve.
	resp = doJSON(t, http.MethodGet, url+"&period=year", nil)
	yearly := decodeBody[summaryJSON](t, resp)
	if yearly.TotalSpent != "1440.00" {
		t.Errorf("yearly total_spent = %q, want 1440.00", yearly.TotalSpent)
	}
	if yearly.Categories[0].Budget == nil || *yearly.Categories[0].Budget != "3600.00" {
		t.Errorf("yearly budget = %v, want 3600.00", yearly.Categories[0].Budget)
	}
	// Percentage left is period-independent.
	if yearly.Categories[0].PercentageLeft == nil || *yearly.Categories[0].PercentageLeft != "60.00" {
		t.Errorf("yearly percentage_left = %v, want 60.00", yearly.Categories[0].PercentageLeft)
	}
}

func TestSummaryRejectsBadParams(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name string
		url  string
	}{
		{"bad month", "/api/summary?month=13"},
		{"bad year", "/api/summary?year=abc"},
		{"bad period", "/api/summary?period=fortnight"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodGet, ts.URL+tc.url, nil)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestSummaryCacheInvalidatedOnWrite(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/users", map[string]string{"name": "Dana"})
	user := decodeBody[userJSON](t, resp)

	now := time.Now()
	url := fmt.Sprintf("%s/api/summary?year=%d&month=%d", ts.URL, now.Year(), int(now.Month()))

	resp = doJSON(t, http.MethodGet, url, nil)
	first := decodeBody[summaryJSON](t, resp)
	if first.TotalSpent != "0.00" {
		t.Fatalf("initial total_spent = %q, want 0.00", first.TotalSpent)
	}

	doJSON(t, http.MethodPost, ts.URL+"/api/expenses", map[string]any{
		"user_id":  user.ID,
		"category": "Food",
		"amount":   "15.00",
	})

	resp = doJSON(t, http.MethodGet, url, nil)
	second := decodeBody[summaryJSON](t, resp)
	if second.TotalSpent != "15.00" {
		t.Errorf("total_spent after write = %q, want 15.00 (stale cache?)", second.TotalSpent)
	}
}

func TestIncomeCreateRefreshesCachedSummaries(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/users", map[string]string{"name": "Dana"})
	user := decodeBody[userJSON](t, resp)

	now := time.Now()
	url := fmt.Sprintf("%s/api/summary?year=%d&month=%d", ts.URL, now.Year(), int(now.Month()))

	resp = doJSON(t, http.MethodGet, url, nil)
	first := decodeBody[summaryJSON](t, resp)
	if first.TotalIncome != "0.00" {
		t.Fatalf("initial total_income = %q, want 0.00", first.TotalIncome)
	}

	// Income recorded two months back reaches the current month through the
	// fallback, so the cached current-month summary must be refreshed too.
	earlier := now.AddDate(0, -2, 0)
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/income", map[string]any{
		"user_id":    user.ID,
		"amount":     "2500.00",
		"created_at": earlier.Format(time.RFC3339),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create income status = %d, want 201", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, url, nil)
	second := decodeBody[summaryJSON](t, resp)
	if second.TotalIncome != "2500.00" {
		t.Errorf("total_income after write = %q, want 2500.00 (stale cache?)", second.TotalIncome)
	}
}

func TestAveragesEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/users", map[string]string{"name": "Dana"})
	user := decodeBody[userJSON](t, resp)

	// Two expenses in distinct past months of last year.
	lastYear := time.Now().Year() - 1
	for month, amount := range map[int]string{1: "100.00", 3: "300.00"} {
		created := time.Date(lastYear, time.Month(month), 10, 12, 0, 0, 0, time.UTC)
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/expenses", map[string]any{
			"user_id":    user.ID,
			"category":   "Travel",
			"amount":     amount,
			"created_at": created.Format(time.RFC3339),
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create expense status = %d, want 201", resp.StatusCode)
		}
	}

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/averages?year=%d", ts.URL, lastYear), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("averages status = %d, want 200", resp.StatusCode)
	}
	averages := decodeBody[[]averageJSON](t, resp)

	var travel *averageJSON
	for i := range averages {
		if averages[i].Name == "Travel" {
			travel = &averages[i]
		}
	}
	if travel == nil {
		t.Fatalf("averages = %+v, want Travel entry", averages)
	}
	if travel.ActiveMonths != 2 {
		t.Errorf("active_months = %d, want 2", travel.ActiveMonths)
	}
	if travel.MonthlyAverage != "200.00" {
		t.Errorf("monthly_average = %q, want 200.00", travel.MonthlyAverage)
	}
}

func TestAnalyticsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/users", map[string]string{"name": "Dana"})
	user := decodeBody[userJSON](t, resp)

	lastYear := time.Now().Year() - 1
	created := time.Date(lastYear, time.April, 10, 0, 0, 0, 0, time.UTC)
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/expenses", map[string]any{
		"user_id":    user.ID,
		"category":   "Travel",
		"amount":     "400.00",
		"created_at": created.Format(time.RFC3339),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create expense status = %d, want 201", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/analytics?year=%d", ts.URL, lastYear), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("analytics status = %d, want 200", resp.StatusCode)
	}
	overview := decodeBody[yearOverviewJSON](t, resp)

	if overview.Year != lastYear || len(overview.Months) != 12 {
		t.Fatalf("year = %d months = %d, want %d and 12", overview.Year, len(overview.Months), lastYear)
	}
	april := overview.Months[3]
	if april.Expenses != "400.00" {
		t.Errorf("april expenses = %q, want 400.00", april.Expenses)
	}
	if len(april.PerUser) != 1 || april.PerUser[0].Name != "Dana" {
		t.Errorf("april per_user = %v, want Dana", april.PerUser)
	}
	if len(overview.TopCategories) != 1 || overview.TopCategories[0].Name != "Travel" {
		t.Fatalf("top_categories = %v, want Travel", overview.TopCategories)
	}
	if overview.TopCategories[0].Percentage != "100.00" {
		t.Errorf("top category percentage = %q, want 100.00", overview.TopCategories[0].Percentage)
	}
	// April is the only month with spending, so the yearly averages mirror it.
	if overview.AverageMonthlyExpenses != "400.00" {
		t.Errorf("average_monthly_expenses = %q, want 400.00", overview.AverageMonthlyExpenses)
	}
	if overview.AverageMonthlyNet != "-400.00" {
		t.Errorf("average_monthly_net = %q, want -400.00", overview.AverageMonthlyNet)
	}
	if overview.AverageMonthlyIncome != "0.00" {
		t.Errorf("average_monthly_income = %q, want 0.00", overview.AverageMonthlyIncome)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/analytics?year=abc", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad year status = %d, want 400", resp.StatusCode)
	}
}

func TestDeleteCategoryInUseReturnsConflict(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/users", map[string]string{"name": "Dana"})
	user := decodeBody[userJSON](t, resp)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/recurring-expenses", map[string]any{
		"user_id":      user.ID,
		"category":     "Rent",
		"amount":       "900.00",
		"day_of_month": 1,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create recurring status = %d, want 201", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/categories", nil)
	categories := decodeBody[[]categoryJSON](t, resp)
	if len(categories) != 1 {
		t.Fatalf("got %d categories, want 1", len(categories))
	}

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/categories/"+categories[0].ID.String(), nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("delete in-use category status = %d, want 409", resp.StatusCode)
	}
}
