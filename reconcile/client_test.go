package reconcile_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/civista/benefits-engine/engine"
	"github.com/civista/benefits-engine/reconcile"
)

func TestClient_SubmitsHouseholdAndParsesResult(t *testing.T) {
	// GIVEN: A fake external service asserting the wire contract
	// WHEN: Calculating through the client
	// THEN: The request carries every household field and the parsed result
	//       round-trips the service's answer

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/calculate" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %q", r.Method)
		}

		var req struct {
			Jurisdiction string `json:"jurisdiction"`
			Program      string `json:"program"`
			AsOf         string `json:"as_of"`
			Household    struct {
				Size         int   `json:"size"`
				EarnedIncome int64 `json:"earned_income"`
				ShelterCost  int64 `json:"shelter_cost"`
			} `json:"household"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Jurisdiction != "US-FED" || req.Program != "food-assistance" {
			t.Errorf("unexpected target %s/%s", req.Jurisdiction, req.Program)
		}
		if req.AsOf != "2024-03-01" {
			t.Errorf("unexpected as_of %q", req.AsOf)
		}
		if req.Household.Size != 1 || req.Household.EarnedIncome != 150000 || req.Household.ShelterCost != 80000 {
			t.Errorf("household fields lost in transit: %+v", req.Household)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"program":      "food-assistance",
			"eligible":     true,
			"gross_income": 150000,
			"net_income":   70300,
			"benefit":      8010,
		})
	}))
	defer server.Close()

	client := reconcile.NewClient(server.URL)
	h := engine.Household{Size: 1, EarnedIncome: 150000, ShelterCost: 80000}
	result, err := client.Calculate(context.Background(), h, "US-FED", "food-assistance", engine.NewDate(2024, time.March, 1))
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if !result.Eligible {
		t.Error("expected eligible result")
	}
	if result.Benefit != engine.Cents(8010) {
		t.Errorf("benefit = %s, want 80.10", result.Benefit)
	}
	if result.NetIncome != engine.Cents(70300) {
		t.Errorf("net income = %s, want 703.00", result.NetIncome)
	}
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"program": "food-assistance", "eligible": true, "benefit": 8010})
	}))
	defer server.Close()

	client := reconcile.NewClient(server.URL).WithRetries(2, time.Millisecond)
	result, err := client.Calculate(context.Background(), engine.Household{Size: 1}, "US-FED", "food-assistance", engine.NewDate(2024, time.March, 1))
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if result.Benefit != engine.Cents(8010) {
		t.Errorf("benefit = %s, want 80.10", result.Benefit)
	}
}

func TestClient_ExhaustedRetriesReturnExternalServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := reconcile.NewClient(server.URL).WithRetries(1, time.Millisecond)
	_, err := client.Calculate(context.Background(), engine.Household{Size: 1}, "US-FED", "food-assistance", engine.NewDate(2024, time.March, 1))
	if !errors.Is(err, engine.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if !engine.IsRecoverable(err) {
		t.Error("external service errors must classify as recoverable")
	}
}

func TestClient_UnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	client := reconcile.NewClient(server.URL).WithRetries(0, time.Millisecond)
	_, err := client.Calculate(context.Background(), engine.Household{Size: 1}, "US-FED", "food-assistance", engine.NewDate(2024, time.March, 1))
	if !errors.Is(err, engine.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestClient_CancelledContextStopsRetrying(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := reconcile.NewClient(server.URL).WithRetries(5, time.Minute)
	start := time.Now()
	_, err := client.Calculate(ctx, engine.Household{Size: 1}, "US-FED", "food-assistance", engine.NewDate(2024, time.March, 1))
	if !errors.Is(err, engine.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cancellation took %s, should not wait out the backoff", elapsed)
	}
}
