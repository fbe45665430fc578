package shipping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func rateServer(t *testing.T, options []ServiceOption, wantWeight string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cost" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if wantWeight != "" && r.PostFormValue("weight") != wantWeight {
			t.Errorf("weight = %s, want %s", r.PostFormValue("weight"), wantWeight)
		}
		json.NewEncoder(w).Encode(rateResponse{Results: options})
	}))
}

func TestEstimatePrefersRegularTier(t *testing.T) {
	srv := rateServer(t, []ServiceOption{
		{Service: "OKE", Cost: 15000},
		{Service: "REG", Cost: 18000},
		{Service: "YES", Cost: 30000},
	}, "")
	defer srv.Close()

	c := NewClient(srv.URL, "api-key", "501", 20000)
	if got := c.EstimateCost(context.Background(), "114", 1500); got != 18000 {
		t.Fatalf("cost = %d, want 18000 (REG)", got)
	}
}

func TestEstimateFallsBackToCheapest(t *testing.T) {
	srv := rateServer(t, []ServiceOption{
		{Service: "OKE", Cost: 15000},
		{Service: "YES", Cost: 30000},
	}, "")
	defer srv.Close()

	c := NewClient(srv.URL, "api-key", "501", 20000)
	if got := c.EstimateCost(context.Background(), "114", 1500); got != 15000 {
		t.Fatalf("cost = %d, want cheapest 15000", got)
	}
}

func TestEstimateDefaultsWhenNoOptions(t *testing.T) {
	srv := rateServer(t, nil, "")
	defer srv.Close()

	c := NewClient(srv.URL, "api-key", "501", 20000)
	if got := c.EstimateCost(context.Background(), "114", 1500); got != 20000 {
		t.Fatalf("cost = %d, want default 20000", got)
	}
}

func TestEstimateDefaultsOnUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "api-key", "501", 20000)
	if got := c.EstimateCost(context.Background(), "114", 1500); got != 20000 {
		t.Fatalf("cost = %d, want default 20000", got)
	}

	unreachable := NewClient("", "api-key", "501", 20000)
	if got := unreachable.EstimateCost(context.Background(), "114", 1500); got != 20000 {
		t.Fatalf("cost = %d, want default 20000", got)
	}
}

func TestEstimateFloorsWeightTo1000g(t *testing.T) {
	srv := rateServer(t, []ServiceOption{{Service: "REG", Cost: 18000}}, "1000")
	defer srv.Close()

	c := NewClient(srv.URL, "api-key", "501", 20000)
	c.EstimateCost(context.Background(), "114", 250)
}
