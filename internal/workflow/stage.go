package workflow

// Stage identifies one step of the pipeline state machine.
type Stage string

const (
	StageGating             Stage = "gating"
	StageExtract            Stage = "extract_symptoms"
	StageContext            Stage = "retrieve_context"
	StageRisk               Stage = "evaluate_risk"
	StageDiagnose           Stage = "generate_diagnosis"
	StageAlternatives       Stage = "generate_alternatives"
	StageJudge              Stage = "judge"
	StageFactCheck          Stage = "fact_check"
	StageValidationDecision Stage = "validation_decision"
	StagePersist            Stage = "persist"
	StageSkipPersist        Stage = "skip_persist"
	StageRecommend          Stage = "recommend"
	StageDone               Stage = "done"
)

// transitions is the linear part of the state machine. The one fork,
// ValidationDecision into Persist or SkipPersist, is resolved by the
// orchestrator; both branches rejoin at Recommend.
var transitions = map[Stage]Stage{
	StageGating:       StageExtract,
	StageExtract:      StageContext,
	StageContext:      StageRisk,
	StageRisk:         StageDiagnose,
	StageDiagnose:     StageAlternatives,
	StageAlternatives: StageJudge,
	StageJudge:        StageFactCheck,
	StageFactCheck:    StageValidationDecision,
	StagePersist:      StageRecommend,
	StageSkipPersist:  StageRecommend,
	StageRecommend:    StageDone,
}

// Stages lists the pipeline steps in execution order, for progress
// reporting. The persistence fork is shown as a single step.
var Stages = []Stage{
	StageGating,
	StageExtract,
	StageContext,
	StageRisk,
	StageDiagnose,
	StageAlternatives,
	StageJudge,
	StageFactCheck,
	StageValidationDecision,
	StagePersist,
	StageRecommend,
}
