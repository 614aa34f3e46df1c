// Package authz holds the single authorization predicate evaluated before
// any adjudication or claim operation.
package authz

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
)

type Kind string

const (
	KindAdjudicate Kind = "adjudicate"
	KindFileClaim  Kind = "file_claim"
	KindViewClaim  Kind = "view_claim"
	KindListClaims Kind = "list_claims"
	KindViewCard   Kind = "view_card"
	KindTransition Kind = "transition_claim"
	KindQuote      Kind = "quote_coverage"
	KindReference  Kind = "view_reference"
)

// Action is what the actor is attempting. OwnerID is the user that owns the
// card or claim involved, Target the requested claim status.
type Action struct {
	Kind    Kind
	OwnerID uuid.UUID
	Target  model.ClaimStatus
}

func Adjudicate() Action               { return Action{Kind: KindAdjudicate} }
func Quote() Action                    { return Action{Kind: KindQuote} }
func ListClaims() Action               { return Action{Kind: KindListClaims} }
func ViewReference() Action            { return Action{Kind: KindReference} }
func FileClaim(owner uuid.UUID) Action { return Action{Kind: KindFileClaim, OwnerID: owner} }
func ViewClaim(owner uuid.UUID) Action { return Action{Kind: KindViewClaim, OwnerID: owner} }
func ViewCard(owner uuid.UUID) Action  { return Action{Kind: KindViewCard, OwnerID: owner} }
func Transition(to model.ClaimStatus) Action {
	return Action{Kind: KindTransition, Target: to}
}

// Authorize returns nil when actor may perform action and a forbidden
// AppError otherwise.
func Authorize(actor model.Actor, action Action) error {
	if !actor.Role.Valid() {
		return errors.Forbidden(fmt.Sprintf("unknown role %q", actor.Role))
	}
	if allowed(actor, action) {
		return nil
	}
	return errors.Forbidden(fmt.Sprintf("role %s may not %s", actor.Role, describe(action))).
		WithDetail("action", string(action.Kind))
}

func allowed(actor model.Actor, action Action) bool {
	role := actor.Role
	switch action.Kind {
	case KindAdjudicate, KindQuote, KindListClaims, KindReference:
		return true
	case KindFileClaim:
		return role != model.RoleUser || actor.ID == action.OwnerID
	case KindViewClaim:
		return actor.ID == action.OwnerID || role == model.RoleStaff || role == model.RoleDoctor || role == model.RoleAdmin
	case KindViewCard:
		return actor.ID == action.OwnerID || role == model.RoleStaff || role == model.RoleAdmin
	case KindTransition:
		switch action.Target {
		case model.ClaimStatusReviewing, model.ClaimStatusApproved, model.ClaimStatusRejected:
			return role == model.RoleStaff || role == model.RoleAdmin
		case model.ClaimStatusPaid:
			return role == model.RoleAdmin
		}
	}
	return false
}

func describe(action Action) string {
	if action.Kind == KindTransition {
		return fmt.Sprintf("move a claim to %s", action.Target)
	}
	return string(action.Kind)
}

// SeesAllClaims reports whether the actor may list claims of other users.
func SeesAllClaims(actor model.Actor) bool {
	return actor.Role == model.RoleStaff || actor.Role == model.RoleDoctor || actor.Role == model.RoleAdmin
}
