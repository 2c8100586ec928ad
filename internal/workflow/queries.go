package workflow

import (
	"context"
	"strings"

	"github.com/medpilot/medpilot/internal/access"
	"github.com/medpilot/medpilot/internal/audit"
	"github.com/medpilot/medpilot/internal/cases"
)

// Queries answers case lookups outside the per-request pipeline. Every
// operation checks access first and logs the attempt; denial is encoded
// in the result, never raised for list operations.
type Queries struct {
	store  CaseStore
	policy *access.Policy
}

func NewQueries(store CaseStore, policy *access.Policy) *Queries {
	return &Queries{store: store, policy: policy}
}

// FindSimilarCases returns stored cases sharing symptoms with the
// query. A denied role gets an empty result, not an error.
func (q *Queries) FindSimilarCases(ctx context.Context, symptoms []string, role cases.Role, limit int) ([]cases.SimilarCase, error) {
	role = cases.ParseRole(string(role))

	if !q.policy.CanAccess(role, strings.Join(symptoms, " ")) {
		q.policy.LogAttempt(ctx, role, audit.ResourceSimilarCases, false)
		return []cases.SimilarCase{}, nil
	}

	similar, err := q.store.FindSimilar(ctx, symptoms, limit)
	q.policy.LogAttempt(ctx, role, audit.ResourceSimilarCases, err == nil)
	if err != nil {
		return nil, err
	}
	if similar == nil {
		similar = []cases.SimilarCase{}
	}
	return similar, nil
}

// FindComorbidities returns conditions co-occurring with the given
// diagnosis across stored cases. A denied role gets an empty result.
func (q *Queries) FindComorbidities(ctx context.Context, diagnosis string, role cases.Role) ([]cases.Comorbidity, error) {
	role = cases.ParseRole(string(role))

	if !q.policy.CanAccess(role, diagnosis) {
		q.policy.LogAttempt(ctx, role, audit.ResourceComorbidities, false)
		return []cases.Comorbidity{}, nil
	}

	comorbidities, err := q.store.FindComorbidities(ctx, diagnosis)
	q.policy.LogAttempt(ctx, role, audit.ResourceComorbidities, err == nil)
	if err != nil {
		return nil, err
	}
	if comorbidities == nil {
		comorbidities = []cases.Comorbidity{}
	}
	return comorbidities, nil
}

// CaseStatistics returns aggregate counts. Only doctors may read them;
// everyone else gets ErrUnauthorized so callers can distinguish denial
// from an empty store.
func (q *Queries) CaseStatistics(ctx context.Context, role cases.Role) (*cases.Statistics, error) {
	role = cases.ParseRole(string(role))

	if role != cases.RoleDoctor {
		q.policy.LogAttempt(ctx, role, audit.ResourceStatistics, false)
		return nil, ErrUnauthorized
	}

	stats, err := q.store.Statistics(ctx)
	q.policy.LogAttempt(ctx, role, audit.ResourceStatistics, err == nil)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ValidateCase records a clinician's sign-off on a stored case. Only
// doctors may validate.
func (q *Queries) ValidateCase(ctx context.Context, id string, role cases.Role, valid bool) error {
	role = cases.ParseRole(string(role))

	if role != cases.RoleDoctor {
		q.policy.LogAttempt(ctx, role, audit.ResourceValidation, false)
		return ErrUnauthorized
	}

	err := q.store.MarkValidated(ctx, id, valid)
	q.policy.LogAttempt(ctx, role, audit.ResourceValidation, err == nil)
	return err
}
