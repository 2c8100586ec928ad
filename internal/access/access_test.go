package access

import (
	"context"
	"testing"

	"github.com/medpilot/medpilot/internal/audit"
	"github.com/medpilot/medpilot/internal/cases"
	"github.com/medpilot/medpilot/internal/db"
)

func setupPolicy(t *testing.T) (*Policy, *audit.Store) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	store := audit.NewStore(database)
	return NewPolicy(store), store
}

func TestAccessLevels(t *testing.T) {
	policy, _ := setupPolicy(t)

	tests := []struct {
		role cases.Role
		want Level
	}{
		{cases.RoleDoctor, LevelFull},
		{cases.RoleNurse, LevelPartial},
		{cases.RolePatient, LevelLimited},
		{cases.RoleResearcher, LevelAnonymized},
		{cases.RoleOther, LevelLimited},
		{cases.Role("intern"), LevelLimited},
	}
	for _, tt := range tests {
		if got := policy.AccessLevel(tt.role); got != tt.want {
			t.Errorf("AccessLevel(%q) = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestCanAccessDoctorAlways(t *testing.T) {
	policy, _ := setupPolicy(t)

	if !policy.CanAccess(cases.RoleDoctor, "patient has terminal cancer and HIV") {
		t.Error("doctor denied access to sensitive payload")
	}
}

func TestCanAccessContentDependent(t *testing.T) {
	policy, _ := setupPolicy(t)

	// Same role, two payloads: granted for the benign one, denied for
	// the sensitive one.
	for _, role := range []cases.Role{cases.RoleNurse, cases.RolePatient, cases.RoleResearcher, cases.RoleOther} {
		if !policy.CanAccess(role, "mild fever and cough") {
			t.Errorf("%s denied access to non-sensitive payload", role)
		}
		if policy.CanAccess(role, "history of substance abuse") {
			t.Errorf("%s granted access to sensitive payload", role)
		}
	}
}

func TestCanAccessStructuredPayload(t *testing.T) {
	policy, _ := setupPolicy(t)

	payload := map[string]any{"diagnosis": "stage 2 cancer"}
	if policy.CanAccess(cases.RolePatient, payload) {
		t.Error("sensitive term inside structured payload not detected")
	}
}

func TestLogAttemptRecords(t *testing.T) {
	policy, store := setupPolicy(t)
	ctx := context.Background()

	policy.LogAttempt(ctx, cases.RolePatient, audit.ResourceStatistics, false)
	policy.LogAttempt(ctx, cases.RoleDoctor, audit.ResourcePipeline, true)

	entries, err := store.Query(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
}

func TestLogAttemptNilStoreDoesNotPanic(t *testing.T) {
	policy := NewPolicy(nil)
	policy.LogAttempt(context.Background(), cases.RoleDoctor, audit.ResourcePipeline, true)
}
