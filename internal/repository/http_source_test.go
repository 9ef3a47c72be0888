package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPSourceLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"key": "ZULU", "weekmask": "1111100"},
			{"key": "ALPHA", "name": "Alpha Exchange", "holidays": [
				{"name": "New Year's Day", "rule": "annual", "month": 1, "day": 1}
			]}
		]`))
	}))
	defer srv.Close()

	defs, err := NewHTTPCalendarSource(srv.URL).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(defs) != 2 || defs[0].Key != "ALPHA" || defs[1].Key != "ZULU" {
		t.Fatalf("unexpected definitions %v", defs)
	}
	if len(defs[0].Holidays) != 1 {
		t.Fatalf("expected 1 holiday rule, got %d", len(defs[0].Holidays))
	}
}

func TestHTTPSourceUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewHTTPCalendarSource(srv.URL).Load(context.Background()); err == nil {
		t.Fatalf("expected error on upstream failure")
	}
}

func TestHTTPSourceBadDefinition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"name": "missing key"}]`))
	}))
	defer srv.Close()

	if _, err := NewHTTPCalendarSource(srv.URL).Load(context.Background()); err == nil {
		t.Fatalf("expected error for definition without key")
	}
}
