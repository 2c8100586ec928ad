package cases

import (
	"context"
	"testing"

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

func TestSaveAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	rec := Record{
		Symptoms:         []string{"fever", "cough"},
		Diagnoses:        []Diagnosis{{Name: "common cold", Confidence: 0.85}, {Name: "flu", Confidence: 0.4}},
		Confidence:       0.85,
		RiskLevel:        RiskLow,
		UserRole:         RolePatient,
		SensitiveContent: false,
	}

	saved, err := store.Save(ctx, rec)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("Save did not assign an ID")
	}

	got, err := store.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Symptoms) != 2 {
		t.Errorf("Symptoms = %v, want 2 entries", got.Symptoms)
	}
	if len(got.Diagnoses) != 2 {
		t.Fatalf("Diagnoses = %v, want 2 entries", got.Diagnoses)
	}
	if got.Diagnoses[0].Name != "common cold" {
		t.Errorf("top diagnosis = %q, want %q", got.Diagnoses[0].Name, "common cold")
	}
	if got.RiskLevel != RiskLow {
		t.Errorf("RiskLevel = %q, want %q", got.RiskLevel, RiskLow)
	}
	if got.UserRole != RolePatient {
		t.Errorf("UserRole = %q, want %q", got.UserRole, RolePatient)
	}
}

func TestFindSimilarRanksByOverlap(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	mustSave := func(symptoms []string, diagnosis string) Record {
		t.Helper()
		rec, err := store.Save(ctx, Record{
			Symptoms:  symptoms,
			Diagnoses: []Diagnosis{{Name: diagnosis, Confidence: 0.7}},
			UserRole:  RoleDoctor,
			RiskLevel: RiskLow,
		})
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		return rec
	}

	twoMatch := mustSave([]string{"fever", "cough", "fatigue"}, "flu")
	oneMatch := mustSave([]string{"fever", "rash"}, "measles")
	mustSave([]string{"back pain"}, "strain")

	results, err := store.FindSimilar(ctx, []string{"fever", "cough"}, 5)
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID != twoMatch.ID || results[0].MatchingSymptoms != 2 {
		t.Errorf("first result = %s (%d matches), want %s (2)",
			results[0].ID, results[0].MatchingSymptoms, twoMatch.ID)
	}
	if results[1].ID != oneMatch.ID || results[1].MatchingSymptoms != 1 {
		t.Errorf("second result = %s (%d matches), want %s (1)",
			results[1].ID, results[1].MatchingSymptoms, oneMatch.ID)
	}
}

func TestFindSimilarEmptyQuery(t *testing.T) {
	store := setupStore(t)

	results, err := store.FindSimilar(context.Background(), nil, 5)
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results for empty query, want 0", len(results))
	}
}

func TestFindComorbidities(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	save := func(diagnoses ...string) {
		t.Helper()
		rec := Record{Symptoms: []string{"fever"}, UserRole: RoleDoctor, RiskLevel: RiskLow}
		for _, d := range diagnoses {
			rec.Diagnoses = append(rec.Diagnoses, Diagnosis{Name: d, Confidence: 0.5})
		}
		if _, err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	save("diabetes", "hypertension")
	save("diabetes", "hypertension")
	save("diabetes", "obesity")
	save("asthma")

	results, err := store.FindComorbidities(ctx, "diabetes")
	if err != nil {
		t.Fatalf("FindComorbidities: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d comorbidities, want 2", len(results))
	}
	if results[0].Name != "hypertension" || results[0].CoOccurrence != 2 {
		t.Errorf("top comorbidity = %+v, want hypertension x2", results[0])
	}
	if results[1].Name != "obesity" || results[1].CoOccurrence != 1 {
		t.Errorf("second comorbidity = %+v, want obesity x1", results[1])
	}
}

func TestStatistics(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, Record{
		Symptoms:  []string{"fever", "cough"},
		Diagnoses: []Diagnosis{{Name: "flu", Confidence: 0.8}},
		UserRole:  RolePatient,
		RiskLevel: RiskLow,
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.Save(ctx, Record{
		Symptoms: []string{"fever"},
		UserRole: RoleNurse,
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	stats, err := store.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.TotalCases != 2 {
		t.Errorf("TotalCases = %d, want 2", stats.TotalCases)
	}
	if stats.TotalSymptoms != 2 {
		t.Errorf("TotalSymptoms = %d, want 2", stats.TotalSymptoms)
	}
	if stats.TotalDiagnoses != 1 {
		t.Errorf("TotalDiagnoses = %d, want 1", stats.TotalDiagnoses)
	}
	if stats.CasesWithDiagnosis != 1 {
		t.Errorf("CasesWithDiagnosis = %d, want 1", stats.CasesWithDiagnosis)
	}
}

func TestMarkValidated(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	rec, err := store.Save(ctx, Record{Symptoms: []string{"fever"}, UserRole: RolePatient})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := store.MarkValidated(ctx, rec.ID, true); err != nil {
		t.Fatalf("MarkValidated: %v", err)
	}
	got, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Validated {
		t.Error("case not marked validated")
	}

	if err := store.MarkValidated(ctx, "missing", true); err == nil {
		t.Error("expected error for unknown case ID")
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"doctor", RoleDoctor},
		{"Doctor", RoleDoctor},
		{" nurse ", RoleNurse},
		{"patient", RolePatient},
		{"researcher", RoleResearcher},
		{"admin", RoleOther},
		{"", RoleOther},
	}
	for _, tt := range tests {
		if got := ParseRole(tt.in); got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
