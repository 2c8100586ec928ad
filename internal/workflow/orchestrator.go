package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/medpilot/medpilot/internal/access"
	"github.com/medpilot/medpilot/internal/agents"
	"github.com/medpilot/medpilot/internal/audit"
	"github.com/medpilot/medpilot/internal/cases"
	"github.com/medpilot/medpilot/internal/factcheck"
	"github.com/medpilot/medpilot/internal/safety"
)

// Collaborator contracts. internal/agents provides the production
// implementations; tests substitute deterministic stand-ins.
type (
	SymptomExtractor interface {
		Extract(ctx context.Context, input string) ([]string, error)
	}
	ContextRetriever interface {
		Retrieve(ctx context.Context, symptoms []string) (agents.ContextSummary, error)
	}
	RiskEvaluator interface {
		Evaluate(ctx context.Context, symptoms []string, background agents.ContextSummary) (agents.RiskAssessment, error)
	}
	DiagnosisGenerator interface {
		Generate(ctx context.Context, symptoms []string, background agents.ContextSummary, risk agents.RiskAssessment) ([]agents.Condition, error)
	}
	AlternativeGenerator interface {
		Generate(ctx context.Context, symptoms []string, primary []agents.Condition) ([]agents.Condition, error)
	}
	Judge interface {
		Review(ctx context.Context, symptoms []string, primary, alternatives []agents.Condition) (agents.Judgment, error)
		ValidateRisk(ctx context.Context, risk agents.RiskAssessment, diagnoses []agents.Condition) (agents.RiskAssessment, error)
	}
	Recommender interface {
		Recommend(ctx context.Context, judgment agents.Judgment, risk cases.RiskLevel, awaitingValidation bool) (string, error)
	}
	Sanitizer interface {
		SanitizeForRole(ctx context.Context, text string, role cases.Role) (string, error)
	}
)

// CaseStore is the persistence collaborator. internal/cases implements
// it over sqlite.
type CaseStore interface {
	Save(ctx context.Context, rec cases.Record) (cases.Record, error)
	Get(ctx context.Context, id string) (*cases.Record, error)
	MarkValidated(ctx context.Context, id string, valid bool) error
	FindSimilar(ctx context.Context, symptoms []string, limit int) ([]cases.SimilarCase, error)
	FindComorbidities(ctx context.Context, diagnosis string) ([]cases.Comorbidity, error)
	Statistics(ctx context.Context) (*cases.Statistics, error)
}

// Reporter observes stage progress during a run.
type Reporter interface {
	StageStarted(stage Stage, index, total int)
}

// Deps holds the orchestrator's collaborators. FactChecker, Store,
// Policy, and Reporter may be nil; the rest are required.
type Deps struct {
	Extractor    SymptomExtractor
	Retriever    ContextRetriever
	Risk         RiskEvaluator
	Diagnoser    DiagnosisGenerator
	Alternatives AlternativeGenerator
	Judge        Judge
	Recommender  Recommender
	Sanitizer    Sanitizer
	FactChecker  factcheck.Checker
	Store        CaseStore
	Policy       *access.Policy
	Reporter     Reporter
}

// Config is the orchestrator's decision surface, read once at
// construction, not per request.
type Config struct {
	// AutonomousMode skips the blanket human-validation requirement
	// for non-doctor roles; confidence and sensitivity rules still
	// apply.
	AutonomousMode bool
	// ConfidenceThreshold is the minimum fact-check confidence below
	// which validation is required.
	ConfidenceThreshold float64
}

// Orchestrator runs the diagnostic pipeline. Runs are independent;
// concurrent requests share only the store.
type Orchestrator struct {
	deps       Deps
	autonomous bool
	threshold  float64
}

func New(deps Deps, cfg Config) *Orchestrator {
	return &Orchestrator{
		deps:       deps,
		autonomous: cfg.AutonomousMode,
		threshold:  cfg.ConfidenceThreshold,
	}
}

// Run executes one pipeline run for the request. It returns the full
// accumulated state on success, or a *PipelineError naming the failed
// stage. Persistence failures do not fail the run; they are annotated
// on the state.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*CaseState, error) {
	state := &CaseState{
		PatientInput:     req.PatientInput,
		UserRole:         cases.ParseRole(string(req.UserRole)),
		Symptoms:         []string{},
		ValidationStatus: req.ValidationStatus,
	}

	stage := StageGating
	var runErr error
	for i := 0; stage != StageDone; i++ {
		if o.deps.Reporter != nil {
			o.deps.Reporter.StageStarted(stage, i, len(Stages))
		}

		next, err := o.step(ctx, stage, state)
		if err != nil {
			runErr = &PipelineError{Stage: stage, Err: err}
			break
		}
		stage = next
	}

	if o.deps.Policy != nil {
		o.deps.Policy.LogAttempt(ctx, state.UserRole, audit.ResourcePipeline, runErr == nil)
	}

	if runErr != nil {
		return nil, runErr
	}
	return state, nil
}

// step executes one stage and returns the next. Only the validation
// decision forks; every other transition comes from the table.
func (o *Orchestrator) step(ctx context.Context, stage Stage, state *CaseState) (Stage, error) {
	switch stage {
	case StageGating:
		o.gate(state)

	case StageExtract:
		if strings.TrimSpace(state.PatientInput) == "" {
			// Empty input is not an error; downstream stages see an
			// empty symptom list.
			break
		}
		symptoms, err := o.deps.Extractor.Extract(ctx, state.PatientInput)
		if err != nil {
			return "", err
		}
		if symptoms == nil {
			symptoms = []string{}
		}
		state.Symptoms = symptoms

	case StageContext:
		background, err := o.deps.Retriever.Retrieve(ctx, state.Symptoms)
		if err != nil {
			return "", err
		}
		sanitized, err := o.deps.Sanitizer.SanitizeForRole(ctx, background.Summary, state.UserRole)
		if err != nil {
			return "", err
		}
		background.Summary = sanitized
		state.MedicalContext = background

	case StageRisk:
		risk, err := o.deps.Risk.Evaluate(ctx, state.Symptoms, state.MedicalContext)
		if err != nil {
			return "", err
		}
		state.RiskAssessment = risk

	case StageDiagnose:
		diagnosis, err := o.deps.Diagnoser.Generate(ctx, state.Symptoms, state.MedicalContext, state.RiskAssessment)
		if err != nil {
			return "", err
		}
		state.Diagnosis = diagnosis

	case StageAlternatives:
		alternatives, err := o.deps.Alternatives.Generate(ctx, state.Symptoms, state.Diagnosis)
		if err != nil {
			return "", err
		}
		state.Alternatives = alternatives

	case StageJudge:
		judgment, err := o.deps.Judge.Review(ctx, state.Symptoms, state.Diagnosis, state.Alternatives)
		if err != nil {
			return "", err
		}
		state.JudgeEvaluation = judgment

	case StageFactCheck:
		state.FactCheck = o.factCheck(ctx, state)

	case StageValidationDecision:
		state.RequiresValidation = o.requiresValidation(state)
		if !state.RequiresValidation || isTrue(state.ValidationStatus) {
			return StagePersist, nil
		}
		return StageSkipPersist, nil

	case StagePersist:
		o.persist(ctx, state)

	case StageSkipPersist:
		// Nothing to do; the case awaits validation.

	case StageRecommend:
		awaiting := state.RequiresValidation && !isTrue(state.ValidationStatus)
		// The re-checked risk feeds the recommendation only; the risk
		// stage keeps ownership of the assessment on the state.
		risk, err := o.deps.Judge.ValidateRisk(ctx, state.RiskAssessment, state.JudgeEvaluation.Diagnoses)
		if err != nil {
			return "", err
		}
		recommendation, err := o.deps.Recommender.Recommend(ctx, state.JudgeEvaluation, risk.Level, awaiting)
		if err != nil {
			return "", err
		}
		state.FinalRecommendation = recommendation

	default:
		return "", fmt.Errorf("unknown stage %q", stage)
	}

	return transitions[stage], nil
}

// gate redacts PII and flags sensitive content. Detection never halts
// the pipeline; it only annotates state. The raw input is dropped here
// when PII is found.
func (o *Orchestrator) gate(state *CaseState) {
	if found, matches := safety.DetectPII(state.PatientInput); found {
		state.PIIDetected = true
		state.PatientInput = safety.Redact(state.PatientInput, matches)
	}

	found, _ := safety.DetectSensitive(state.PatientInput)
	state.SensitiveContentDetected = found
}

// factCheck never fails the run. An unconfigured or failing checker
// yields an unchecked zero-confidence result, which the validation
// decision treats as "confidence unknown, validation required".
func (o *Orchestrator) factCheck(ctx context.Context, state *CaseState) factcheck.Result {
	if o.deps.FactChecker == nil {
		return factcheck.Result{}
	}

	result, err := o.deps.FactChecker.Check(ctx, state.Symptoms, state.Diagnosis)
	if err != nil {
		log.Printf("fact check failed, requiring validation: %v", err)
		return factcheck.Result{}
	}
	return result
}

// requiresValidation applies the validation policy. The rules are
// ordered and short-circuit: a doctor is exempt even under manual
// mode, and a non-doctor under autonomous mode can still be forced
// into validation by low confidence or sensitive content.
func (o *Orchestrator) requiresValidation(state *CaseState) bool {
	if state.UserRole == cases.RoleDoctor {
		return false
	}
	if !o.autonomous {
		return true
	}
	if !state.FactCheck.Checked || state.FactCheck.ConfidenceScore < o.threshold {
		return true
	}
	if state.SensitiveContentDetected {
		return true
	}
	return false
}

// persist writes the derived record. A storage failure is reported as
// a side annotation; the recommendation is still produced.
func (o *Orchestrator) persist(ctx context.Context, state *CaseState) {
	if o.deps.Store == nil {
		state.StoreError = "no case store configured"
		return
	}

	saved, err := o.deps.Store.Save(ctx, state.record())
	if err != nil {
		log.Printf("case persistence failed: %v", err)
		state.StoreError = err.Error()
		return
	}
	state.Persisted = true
	state.CaseID = saved.ID
}

func isTrue(b *bool) bool {
	return b != nil && *b
}
