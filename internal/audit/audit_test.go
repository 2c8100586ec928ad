package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/medpilot/medpilot/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestLogAndQuery(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entries := []Entry{
		{Role: "doctor", Resource: ResourcePipeline, Success: true},
		{Role: "patient", Resource: ResourceStatistics, Success: false, Detail: "unauthorized"},
		{Role: "nurse", Resource: ResourceSimilarCases, Success: true},
	}
	for _, e := range entries {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	all, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d entries, want 3", len(all))
	}

	byRole, err := store.Query(ctx, QueryFilter{Role: "patient"})
	if err != nil {
		t.Fatalf("Query by role: %v", err)
	}
	if len(byRole) != 1 {
		t.Fatalf("got %d entries for patient, want 1", len(byRole))
	}
	if byRole[0].Resource != ResourceStatistics {
		t.Errorf("Resource = %q, want %q", byRole[0].Resource, ResourceStatistics)
	}
	if byRole[0].Success {
		t.Error("denied attempt recorded as success")
	}
	if byRole[0].Detail != "unauthorized" {
		t.Errorf("Detail = %q, want %q", byRole[0].Detail, "unauthorized")
	}

	denied := false
	failures, err := store.Query(ctx, QueryFilter{Success: &denied})
	if err != nil {
		t.Fatalf("Query by success: %v", err)
	}
	if len(failures) != 1 {
		t.Errorf("got %d failures, want 1", len(failures))
	}
}

func TestLogGeneratesID(t *testing.T) {
	store := setupStore(t)

	if err := store.Log(context.Background(), Entry{
		Role: "doctor", Resource: ResourcePipeline, Success: true,
	}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	entries, err := store.Query(context.Background(), QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 || entries[0].ID == "" {
		t.Error("ID should be auto-generated")
	}
}

func TestRoutesQuery(t *testing.T) {
	store := setupStore(t)
	if err := store.Log(context.Background(), Entry{
		Role: "researcher", Resource: ResourceComorbidities, Success: true,
	}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	r := chi.NewRouter()
	RegisterRoutes(r, store)

	req := httptest.NewRequest(http.MethodGet, "/api/audit?role=researcher", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var entries []Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(entries) != 1 || entries[0].Role != "researcher" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}
