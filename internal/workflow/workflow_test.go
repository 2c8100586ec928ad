package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/medpilot/medpilot/internal/access"
	"github.com/medpilot/medpilot/internal/agents"
	"github.com/medpilot/medpilot/internal/cases"
	"github.com/medpilot/medpilot/internal/db"
	"github.com/medpilot/medpilot/internal/factcheck"
)

// Deterministic stand-ins for the reasoning collaborators.

type stubExtractor struct {
	symptoms []string
	err      error
	calls    int
}

func (s *stubExtractor) Extract(_ context.Context, _ string) ([]string, error) {
	s.calls++
	return s.symptoms, s.err
}

type stubRetriever struct {
	summary agents.ContextSummary
	err     error
}

func (s *stubRetriever) Retrieve(_ context.Context, _ []string) (agents.ContextSummary, error) {
	return s.summary, s.err
}

type stubRisk struct {
	risk agents.RiskAssessment
	err  error
}

func (s *stubRisk) Evaluate(_ context.Context, _ []string, _ agents.ContextSummary) (agents.RiskAssessment, error) {
	return s.risk, s.err
}

type stubDiagnoser struct {
	conditions []agents.Condition
	err        error
}

func (s *stubDiagnoser) Generate(_ context.Context, _ []string, _ agents.ContextSummary, _ agents.RiskAssessment) ([]agents.Condition, error) {
	return s.conditions, s.err
}

type stubAlternatives struct {
	conditions []agents.Condition
	err        error
}

func (s *stubAlternatives) Generate(_ context.Context, _ []string, _ []agents.Condition) ([]agents.Condition, error) {
	return s.conditions, s.err
}

type stubJudge struct {
	judgment  agents.Judgment
	reviewErr error
}

func (s *stubJudge) Review(_ context.Context, _ []string, _, _ []agents.Condition) (agents.Judgment, error) {
	return s.judgment, s.reviewErr
}

func (s *stubJudge) ValidateRisk(_ context.Context, risk agents.RiskAssessment, _ []agents.Condition) (agents.RiskAssessment, error) {
	return risk, nil
}

type stubRecommender struct {
	text string
	err  error
}

func (s *stubRecommender) Recommend(_ context.Context, _ agents.Judgment, _ cases.RiskLevel, _ bool) (string, error) {
	return s.text, s.err
}

type passthroughSanitizer struct {
	calls int
}

func (s *passthroughSanitizer) SanitizeForRole(_ context.Context, text string, _ cases.Role) (string, error) {
	s.calls++
	return text, nil
}

type stubChecker struct {
	result factcheck.Result
	err    error
}

func (s *stubChecker) Check(_ context.Context, _ []string, _ []agents.Condition) (factcheck.Result, error) {
	return s.result, s.err
}

// recordingChecker captures the diagnoses handed to the fact check.
type recordingChecker struct {
	result factcheck.Result
	got    []agents.Condition
}

func (c *recordingChecker) Check(_ context.Context, _ []string, diagnoses []agents.Condition) (factcheck.Result, error) {
	c.got = diagnoses
	return c.result, nil
}

// countingStore wraps the real sqlite-backed store to count writes.
type countingStore struct {
	*cases.Store
	saves int
}

func (c *countingStore) Save(ctx context.Context, rec cases.Record) (cases.Record, error) {
	c.saves++
	return c.Store.Save(ctx, rec)
}

type fixture struct {
	deps      Deps
	extractor *stubExtractor
	sanitizer *passthroughSanitizer
	store     *countingStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := &countingStore{Store: cases.NewStore(database)}
	extractor := &stubExtractor{symptoms: []string{"fever", "cough"}}
	sanitizer := &passthroughSanitizer{}

	return &fixture{
		extractor: extractor,
		sanitizer: sanitizer,
		store:     store,
		deps: Deps{
			Extractor:    extractor,
			Retriever:    &stubRetriever{summary: agents.ContextSummary{Summary: "viral infections background"}},
			Risk:         &stubRisk{risk: agents.RiskAssessment{Level: cases.RiskMedium}},
			Diagnoser:    &stubDiagnoser{conditions: []agents.Condition{{Name: "influenza", Confidence: 0.7}}},
			Alternatives: &stubAlternatives{conditions: []agents.Condition{{Name: "covid-19", Confidence: 0.3}}},
			Judge: &stubJudge{judgment: agents.Judgment{
				Diagnoses:  []agents.Condition{{Name: "influenza", Confidence: 0.7}},
				Confidence: 0.9,
			}},
			Recommender: &stubRecommender{text: "Rest and see a doctor if symptoms persist."},
			Sanitizer:   sanitizer,
			FactChecker: &stubChecker{result: factcheck.Result{Checked: true, ConfidenceScore: 0.9, IsReliable: true}},
			Store:       store,
			Policy:      access.NewPolicy(nil),
		},
	}
}

func run(t *testing.T, f *fixture, cfg Config, req Request) *CaseState {
	t.Helper()
	state, err := New(f.deps, cfg).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return state
}

func TestManualModeRequiresValidation(t *testing.T) {
	f := newFixture(t)
	state := run(t, f, Config{AutonomousMode: false, ConfidenceThreshold: 0.8},
		Request{PatientInput: "I have a fever and cough", UserRole: cases.RolePatient})

	if !state.RequiresValidation {
		t.Error("manual mode should require validation for a patient")
	}
	if state.Persisted {
		t.Error("unvalidated case must not be persisted")
	}
	if f.store.saves != 0 {
		t.Errorf("store received %d writes, want 0", f.store.saves)
	}
	if state.FinalRecommendation == "" {
		t.Error("recommendation should still be produced")
	}
}

func TestDoctorNeverRequiresValidation(t *testing.T) {
	f := newFixture(t)
	// Worst case on every other rule: manual mode, unchecked
	// confidence, sensitive input.
	f.deps.FactChecker = &stubChecker{result: factcheck.Result{}}
	state := run(t, f, Config{AutonomousMode: false, ConfidenceThreshold: 0.8},
		Request{PatientInput: "patient mentions suicide and HIV", UserRole: cases.RoleDoctor})

	if state.RequiresValidation {
		t.Error("doctor must never require validation")
	}
	if !state.SensitiveContentDetected {
		t.Error("sensitive content should still be flagged")
	}
	if !state.Persisted {
		t.Error("doctor case should be persisted immediately")
	}
	if f.store.saves != 1 {
		t.Errorf("store received %d writes, want 1", f.store.saves)
	}
}

func TestPIIRedactedBeforeStages(t *testing.T) {
	f := newFixture(t)
	state := run(t, f, Config{ConfidenceThreshold: 0.8},
		Request{PatientInput: "contact me at test@example.com, I have a cough", UserRole: cases.RolePatient})

	if !state.PIIDetected {
		t.Error("PIIDetected should be true")
	}
	if strings.Contains(state.PatientInput, "test@example.com") {
		t.Errorf("redacted input still contains the email: %q", state.PatientInput)
	}
	if !strings.Contains(state.PatientInput, "[REDACTED EMAIL]") {
		t.Errorf("expected placeholder in %q", state.PatientInput)
	}
}

func TestLowConfidenceForcesValidationInAutonomousMode(t *testing.T) {
	f := newFixture(t)
	f.deps.FactChecker = &stubChecker{result: factcheck.Result{Checked: true, ConfidenceScore: 0.4}}
	state := run(t, f, Config{AutonomousMode: true, ConfidenceThreshold: 0.8},
		Request{PatientInput: "I have a fever and cough", UserRole: cases.RolePatient})

	if !state.RequiresValidation {
		t.Error("confidence 0.4 under threshold 0.8 must require validation")
	}
}

func TestAutonomousHighConfidencePersists(t *testing.T) {
	f := newFixture(t)
	state := run(t, f, Config{AutonomousMode: true, ConfidenceThreshold: 0.8},
		Request{PatientInput: "I have a fever and cough", UserRole: cases.RolePatient})

	if state.RequiresValidation {
		t.Error("high-confidence non-sensitive autonomous case should not require validation")
	}
	if !state.Persisted || state.CaseID == "" {
		t.Errorf("case should be persisted, got persisted=%t id=%q", state.Persisted, state.CaseID)
	}

	stored, err := f.store.Get(context.Background(), state.CaseID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.UserRole != cases.RolePatient {
		t.Errorf("stored role = %q", stored.UserRole)
	}
	if stored.Confidence != 0.9 {
		t.Errorf("stored confidence = %v", stored.Confidence)
	}
}

func TestFactCheckAndRecordUseDiagnosisStageOutput(t *testing.T) {
	f := newFixture(t)
	// Distinct diagnosis-stage and judge outputs so the data flow is
	// observable: the checker and the stored record must carry the
	// diagnosis stage's conditions, not the judge's merged list, and
	// the stored confidence must be the fact-check score.
	f.deps.Diagnoser = &stubDiagnoser{conditions: []agents.Condition{{Name: "bronchitis", Confidence: 0.6}}}
	f.deps.Judge = &stubJudge{judgment: agents.Judgment{
		Diagnoses:  []agents.Condition{{Name: "pneumonia", Confidence: 0.5}},
		Confidence: 0.5,
	}}
	checker := &recordingChecker{result: factcheck.Result{Checked: true, ConfidenceScore: 0.95, IsReliable: true}}
	f.deps.FactChecker = checker

	state := run(t, f, Config{AutonomousMode: true, ConfidenceThreshold: 0.8},
		Request{PatientInput: "I have a persistent cough", UserRole: cases.RolePatient})

	if len(checker.got) != 1 || checker.got[0].Name != "bronchitis" {
		t.Errorf("fact check received %v, want the diagnosis stage's conditions", checker.got)
	}

	if !state.Persisted {
		t.Fatal("case should be persisted")
	}
	stored, err := f.store.Get(context.Background(), state.CaseID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(stored.Diagnoses) != 1 || stored.Diagnoses[0].Name != "bronchitis" {
		t.Errorf("stored diagnoses = %v, want the diagnosis stage's conditions", stored.Diagnoses)
	}
	if stored.Confidence != 0.95 {
		t.Errorf("stored confidence = %v, want the fact-check score 0.95", stored.Confidence)
	}
}

func TestSensitiveContentForcesValidationInAutonomousMode(t *testing.T) {
	f := newFixture(t)
	state := run(t, f, Config{AutonomousMode: true, ConfidenceThreshold: 0.8},
		Request{PatientInput: "worried about my pregnancy, also feverish", UserRole: cases.RoleNurse})

	if !state.SensitiveContentDetected {
		t.Error("pregnancy term should be flagged sensitive")
	}
	if !state.RequiresValidation {
		t.Error("sensitive content must force validation even at high confidence")
	}
}

func TestFactCheckFailureFailsClosed(t *testing.T) {
	f := newFixture(t)
	f.deps.FactChecker = &stubChecker{err: errors.New("upstream unreachable")}
	state := run(t, f, Config{AutonomousMode: true, ConfidenceThreshold: 0.8},
		Request{PatientInput: "I have a fever and cough", UserRole: cases.RolePatient})

	if state.FactCheck.Checked {
		t.Error("failed check must yield an unchecked result")
	}
	if !state.RequiresValidation {
		t.Error("unevaluable confidence must default to requiring validation")
	}
}

func TestNilFactCheckerFailsClosed(t *testing.T) {
	f := newFixture(t)
	f.deps.FactChecker = nil
	state := run(t, f, Config{AutonomousMode: true, ConfidenceThreshold: 0.8},
		Request{PatientInput: "I have a fever and cough", UserRole: cases.RolePatient})

	if !state.RequiresValidation {
		t.Error("disabled fact checking must require validation for non-doctors")
	}
}

func TestSuppliedValidationStatusPersists(t *testing.T) {
	f := newFixture(t)
	approved := true
	state := run(t, f, Config{AutonomousMode: false, ConfidenceThreshold: 0.8},
		Request{PatientInput: "I have a fever and cough", UserRole: cases.RolePatient, ValidationStatus: &approved})

	if !state.RequiresValidation {
		t.Error("manual mode still marks validation as required")
	}
	if !state.Persisted {
		t.Error("signed-off case should be persisted despite requiring validation")
	}

	stored, err := f.store.Get(context.Background(), state.CaseID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !stored.Validated {
		t.Error("stored record should carry the validation flag")
	}
}

func TestEmptyInputYieldsEmptySymptoms(t *testing.T) {
	f := newFixture(t)
	state := run(t, f, Config{ConfidenceThreshold: 0.8},
		Request{PatientInput: "   ", UserRole: cases.RoleDoctor})

	if state.Symptoms == nil {
		t.Fatal("symptoms must be a sequence, never nil")
	}
	if len(state.Symptoms) != 0 {
		t.Errorf("symptoms = %v, want empty", state.Symptoms)
	}
	if f.extractor.calls != 0 {
		t.Errorf("extractor called %d times for empty input, want 0", f.extractor.calls)
	}
	if state.FinalRecommendation == "" {
		t.Error("pipeline should run to completion on empty input")
	}
}

func TestSymptomsNeverNil(t *testing.T) {
	f := newFixture(t)
	f.extractor.symptoms = nil
	state := run(t, f, Config{ConfidenceThreshold: 0.8},
		Request{PatientInput: "vague discomfort", UserRole: cases.RoleDoctor})

	if state.Symptoms == nil {
		t.Fatal("symptoms must be a sequence even when the extractor returns none")
	}
}

func TestReasoningErrorIsFatalAndNamesStage(t *testing.T) {
	f := newFixture(t)
	f.deps.Diagnoser = &stubDiagnoser{err: errors.New("model unavailable")}

	_, err := New(f.deps, Config{ConfidenceThreshold: 0.8}).Run(context.Background(),
		Request{PatientInput: "I have a fever", UserRole: cases.RoleDoctor})
	if err == nil {
		t.Fatal("expected pipeline error")
	}

	var perr *PipelineError
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T", err)
	}
	if perr.Stage != StageDiagnose {
		t.Errorf("failed stage = %q, want %q", perr.Stage, StageDiagnose)
	}
	if f.store.saves != 0 {
		t.Error("no writes after a failed run")
	}
}

func TestStorageErrorIsSideAnnotation(t *testing.T) {
	f := newFixture(t)

	// Closing the database makes every write fail.
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	store := cases.NewStore(database)
	database.Close()
	f.deps.Store = store

	state := run(t, f, Config{ConfidenceThreshold: 0.8},
		Request{PatientInput: "I have a fever", UserRole: cases.RoleDoctor})

	if state.Persisted {
		t.Error("failed write should not be reported as persisted")
	}
	if state.StoreError == "" {
		t.Error("store failure should be annotated on the state")
	}
	if state.FinalRecommendation == "" {
		t.Error("recommendation must survive a storage failure")
	}
}

func TestSanitizerInvokedOnContext(t *testing.T) {
	f := newFixture(t)
	run(t, f, Config{ConfidenceThreshold: 0.8},
		Request{PatientInput: "I have a fever", UserRole: cases.RolePatient})

	if f.sanitizer.calls != 1 {
		t.Errorf("sanitizer called %d times, want 1", f.sanitizer.calls)
	}
}

func TestUnknownRoleIsMostRestrictive(t *testing.T) {
	f := newFixture(t)
	state := run(t, f, Config{AutonomousMode: false, ConfidenceThreshold: 0.8},
		Request{PatientInput: "I have a fever", UserRole: "superadmin"})

	if state.UserRole != cases.RoleOther {
		t.Errorf("role = %q, want normalized to other", state.UserRole)
	}
	if !state.RequiresValidation {
		t.Error("unknown role must be treated like a non-doctor")
	}
}

func newQueryFixture(t *testing.T) (*Queries, *cases.Store) {
	t.Helper()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := cases.NewStore(database)
	return NewQueries(store, access.NewPolicy(nil)), store
}

func seedCase(t *testing.T, store *cases.Store, symptoms []string, diagnoses ...string) cases.Record {
	t.Helper()

	rec := cases.Record{Symptoms: symptoms, UserRole: cases.RoleDoctor, RiskLevel: cases.RiskLow}
	for _, d := range diagnoses {
		rec.Diagnoses = append(rec.Diagnoses, cases.Diagnosis{Name: d, Confidence: 0.8})
	}
	saved, err := store.Save(context.Background(), rec)
	if err != nil {
		t.Fatalf("seed case: %v", err)
	}
	return saved
}

func TestFindSimilarCasesDeniedIsEmpty(t *testing.T) {
	q, store := newQueryFixture(t)
	seedCase(t, store, []string{"fever", "cough"}, "influenza")

	// Sensitive query content denies every non-doctor role.
	got, err := q.FindSimilarCases(context.Background(), []string{"fever", "hiv"}, cases.RolePatient, 5)
	if err != nil {
		t.Fatalf("FindSimilarCases: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("denied query returned %d cases, want 0", len(got))
	}

	// The same query is allowed for a doctor.
	got, err = q.FindSimilarCases(context.Background(), []string{"fever", "hiv"}, cases.RoleDoctor, 5)
	if err != nil {
		t.Fatalf("FindSimilarCases: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("doctor query returned %d cases, want 1", len(got))
	}
}

func TestFindComorbidities(t *testing.T) {
	q, store := newQueryFixture(t)
	seedCase(t, store, []string{"fever"}, "influenza", "dehydration")
	seedCase(t, store, []string{"cough"}, "influenza", "dehydration")
	seedCase(t, store, []string{"fatigue"}, "influenza", "sinusitis")

	got, err := q.FindComorbidities(context.Background(), "influenza", cases.RoleNurse)
	if err != nil {
		t.Fatalf("FindComorbidities: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d comorbidities, want 2", len(got))
	}
	if got[0].Name != "dehydration" || got[0].CoOccurrence != 2 {
		t.Errorf("top comorbidity = %+v", got[0])
	}
}

func TestCaseStatisticsDoctorOnly(t *testing.T) {
	q, store := newQueryFixture(t)
	seedCase(t, store, []string{"fever"}, "influenza")

	for _, role := range []cases.Role{cases.RoleNurse, cases.RolePatient, cases.RoleResearcher, cases.RoleOther} {
		if _, err := q.CaseStatistics(context.Background(), role); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("role %s: err = %v, want ErrUnauthorized", role, err)
		}
	}

	stats, err := q.CaseStatistics(context.Background(), cases.RoleDoctor)
	if err != nil {
		t.Fatalf("CaseStatistics: %v", err)
	}
	if stats.TotalCases != 1 {
		t.Errorf("TotalCases = %d, want 1", stats.TotalCases)
	}
}

func TestValidateCase(t *testing.T) {
	q, store := newQueryFixture(t)
	rec := seedCase(t, store, []string{"fever"}, "influenza")

	if err := q.ValidateCase(context.Background(), rec.ID, cases.RolePatient, true); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("patient validation err = %v, want ErrUnauthorized", err)
	}

	if err := q.ValidateCase(context.Background(), rec.ID, cases.RoleDoctor, true); err != nil {
		t.Fatalf("ValidateCase: %v", err)
	}

	stored, err := store.Get(context.Background(), rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.Validated {
		t.Error("case should be marked validated")
	}
}
