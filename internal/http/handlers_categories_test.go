package http

import (
	"net/http"
	"testing"
)

func TestCategoryBudgetAcceptsPeriodFigure(t *testing.T) {
	ts, _ := newTestServer(t)

	// A weekly figure is stored as its monthly equivalent.
	budget := "350.00"
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/categories", map[string]any{
		"name":           "Groceries",
		"monthly_budget": budget,
		"budget_period":  "week",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create category status = %d, want 201", resp.StatusCode)
	}
	created := decodeBody[categoryJSON](t, resp)
	if created.MonthlyBudget == nil || *created.MonthlyBudget != "1400.00" {
		t.Errorf("monthly_budget = %v, want 1400.00", created.MonthlyBudget)
	}

	// Updating with a yearly figure converts back down.
	yearly := "2400.00"
	resp = doJSON(t, http.MethodPut, ts.URL+"/api/categories/"+created.ID.String(), map[string]any{
		"name":           "Groceries",
		"monthly_budget": yearly,
		"budget_period":  "year",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update category status = %d, want 200", resp.StatusCode)
	}
	updated := decodeBody[categoryJSON](t, resp)
	if updated.MonthlyBudget == nil || *updated.MonthlyBudget != "200.00" {
		t.Errorf("monthly_budget = %v, want 200.00", updated.MonthlyBudget)
	}

	// Without a period the figure is already monthly.
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/categories", map[string]any{
		"name":           "Rent",
		"monthly_budget": "900.00",
	})
	plain := decodeBody[categoryJSON](t, resp)
	if plain.MonthlyBudget == nil || *plain.MonthlyBudget != "900.00" {
		t.Errorf("monthly_budget = %v, want 900.00", plain.MonthlyBudget)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/categories", map[string]any{
		"name":           "Travel",
		"monthly_budget": "100.00",
		"budget_period":  "fortnight",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("unknown period status = %d, want 422", resp.StatusCode)
	}
}
