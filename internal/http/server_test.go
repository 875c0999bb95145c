package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bilancio/internal/services"
	"bilancio/internal/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, *storage.MemoryStore) {
	t.Helper()

	store := storage.NewMemoryStore()
	entries := services.NewEntryService(store, nil)
	srv := NewServer("127.0.0.1:0", store, entries)

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Shutdown(context.Background())
	})
	return ts, store
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Request-ID"); got == "" {
		t.Error("expected X-Request-ID header on response")
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}

	body := decodeBody[map[string]any](t, resp)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
}

func TestReadyEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatalf("get readyz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz status = %d, want 200", resp.StatusCode)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/users", map[string]string{"name": "Dana"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create user status = %d, want 201", resp.StatusCode)
	}
	user := decodeBody[userJSON](t, resp)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/expenses", map[string]any{
		"user_id":  user.ID,
		"category": "Groceries",
		"amount":   "42.50",
		"note":     "weekly shop",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create expense status = %d, want 201", resp.StatusCode)
	}
	created := decodeBody[expenseJSON](t, resp)
	if created.AmountCents != 4250 {
		t.Errorf("amount_cents = %d, want 4250", created.AmountCents)
	}

	// The unknown category was created on the fly.
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/categories", nil)
	categories := decodeBody[[]categoryJSON](t, resp)
	if len(categories) != 1 || categories[0].Name != "Groceries" {
		t.Fatalf("categories = %+v, want single Groceries", categories)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/expenses", nil)
	expenses := decodeBody[[]expenseJSON](t, resp)
	if len(expenses) != 1 {
		t.Fatalf("listed %d expenses, want 1", len(expenses))
	}

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/expenses/%s", ts.URL, created.ID), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete expense status = %d, want 204", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/expenses", nil)
	expenses = decodeBody[[]expenseJSON](t, resp)
	if len(expenses) != 0 {
		t.Fatalf("listed %d expenses after delete, want 0", len(expenses))
	}
}

func TestCreateExpenseRejectsBadInput(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/users", map[string]string{"name": "Dana"})
	user := decodeBody[userJSON](t, resp)

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{"malformed amount", map[string]any{"user_id": user.ID, "category": "Food", "amount": "abc"}, http.StatusUnprocessableEntity},
		{"zero amount", map[string]any{"user_id": user.ID, "category": "Food", "amount": "0"}, http.StatusUnprocessableEntity},
		{"unknown field", map[string]any{"user_id": user.ID, "category": "Food", "amount": "1.00", "bogus": true}, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, ts.URL+"/api/expenses", tc.body)
			if resp.StatusCode != tc.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
		})
	}
}

func TestDeleteMissingExpenseReturns404(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodDelete, ts.URL+"/api/expenses/6f1edc47-69b9-4d57-a7fc-0f2d4e1f9f30", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
