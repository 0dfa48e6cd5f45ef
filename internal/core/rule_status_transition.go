package core

import (
	"context"
	"fmt"

	"estatecore/pkg/domain"
)

// StatusTransitionRule blocks illegal status changes at the store boundary.
// The session already rejects them synchronously; this rule is the backend's
// own gate, so a drifted client cannot push a record through a transition
// the state machine forbids.
func StatusTransitionRule() domain.Rule {
	return statusTransitionRule{}
}

type statusTransitionRule struct{}

func (statusTransitionRule) Name() string { return "status_transition" }

func (statusTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Action != domain.ActionUpdate {
			continue
		}
		id, before, ok := recordState(change.Entity, change.Before)
		if !ok {
			continue
		}
		_, after, ok := recordState(change.Entity, change.After)
		if !ok || before == after {
			continue
		}
		if !domain.CanTransition(change.Entity, before, after) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "status_transition",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("cannot move %s %s from %s to %s", change.Entity, id, before, after),
				Entity:   change.Entity,
				EntityID: id,
			})
		}
	}
	return res, nil
}

func recordState(entity domain.EntityType, payload any) (id string, status domain.Status, ok bool) {
	switch entity {
	case domain.EntityProductOwner:
		owner, isOwner := payload.(domain.ProductOwner)
		if !isOwner {
			return "", "", false
		}
		return owner.ID, owner.Status, true
	case domain.EntityLegalDocument:
		doc, isDoc := payload.(domain.LegalDocument)
		if !isDoc {
			return "", "", false
		}
		return doc.ID, doc.Status, true
	default:
		return "", "", false
	}
}
