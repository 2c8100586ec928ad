package access

import (
	"context"
	"fmt"
	"log"

	"github.com/medpilot/medpilot/internal/audit"
	"github.com/medpilot/medpilot/internal/cases"
	"github.com/medpilot/medpilot/internal/safety"
)

// Level describes how much of a medical payload a role may see.
type Level string

const (
	LevelFull       Level = "full"
	LevelPartial    Level = "partial"
	LevelLimited    Level = "limited"
	LevelAnonymized Level = "anonymized"
)

// accessLevels is the fixed role-to-level mapping. Roles not listed here
// fall back to LevelLimited, the most restrictive useful tier.
var accessLevels = map[cases.Role]Level{
	cases.RoleDoctor:     LevelFull,
	cases.RoleNurse:      LevelPartial,
	cases.RolePatient:    LevelLimited,
	cases.RoleResearcher: LevelAnonymized,
}

// Policy decides whether a role may read or write a given payload.
// Authorization is content-dependent: the same role can be granted one
// payload and denied another, depending on whether the payload mentions
// a sensitive condition.
type Policy struct {
	audit *audit.Store
}

// NewPolicy creates a Policy. The audit store may be nil; attempts are
// then logged to the process log only.
func NewPolicy(auditStore *audit.Store) *Policy {
	return &Policy{audit: auditStore}
}

// AccessLevel returns the access level for a role.
func (p *Policy) AccessLevel(role cases.Role) Level {
	if level, ok := accessLevels[role]; ok {
		return level
	}
	return LevelLimited
}

// CanAccess reports whether the role may access the payload. Doctors are
// always allowed; every other role is denied when the payload's string
// form contains a sensitive term.
func (p *Policy) CanAccess(role cases.Role, payload any) bool {
	if role == cases.RoleDoctor {
		return true
	}
	found, _ := safety.DetectSensitive(Stringify(payload))
	return !found
}

// LogAttempt records an access attempt in the audit trail. Logging is
// best-effort: a failed write must never abort the calling operation.
func (p *Policy) LogAttempt(ctx context.Context, role cases.Role, resource string, success bool) {
	if p.audit == nil {
		log.Printf("access attempt: role=%s resource=%s success=%v", role, resource, success)
		return
	}
	err := p.audit.Log(ctx, audit.Entry{
		Role:     string(role),
		Resource: resource,
		Success:  success,
	})
	if err != nil {
		log.Printf("access: recording attempt (role=%s resource=%s): %v", role, resource, err)
	}
}

// Stringify renders a payload for sensitive-content inspection.
func Stringify(payload any) string {
	if s, ok := payload.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", payload)
}
