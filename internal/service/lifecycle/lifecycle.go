// Package lifecycle is the claim status state machine.
package lifecycle

import (
	"time"

	"github.com/google/uuid"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
)

var edges = map[model.ClaimStatus][]model.ClaimStatus{
	model.ClaimStatusSubmitted: {model.ClaimStatusReviewing},
	model.ClaimStatusReviewing: {model.ClaimStatusApproved, model.ClaimStatusRejected},
	model.ClaimStatusApproved:  {model.ClaimStatusPaid},
}

// Allowed lists the states reachable from from in one step.
func Allowed(from model.ClaimStatus) []model.ClaimStatus {
	next := edges[from]
	out := make([]model.ClaimStatus, len(next))
	copy(out, next)
	return out
}

func CanTransition(from, to model.ClaimStatus) bool {
	for _, s := range edges[from] {
		if s == to {
			return true
		}
	}
	return false
}

func IsTerminal(s model.ClaimStatus) bool {
	return s.Valid() && len(edges[s]) == 0
}

// Initial sets the claim to submitted and returns its first history entry.
func Initial(claim *model.Claim, actor model.Actor, now time.Time) *model.ClaimStatusHistory {
	claim.Status = model.ClaimStatusSubmitted
	claim.SubmittedAt = now
	return &model.ClaimStatusHistory{
		ID:        uuid.New(),
		ClaimID:   claim.ID,
		OldStatus: nil,
		NewStatus: model.ClaimStatusSubmitted,
		ChangedBy: actor.ID,
		ChangedAt: now,
	}
}

// Transition moves claim to the target state and returns the history entry
// to append. Monetary fields are never touched.
func Transition(claim *model.Claim, to model.ClaimStatus, actor model.Actor, reason *string, now time.Time) (*model.ClaimStatusHistory, error) {
	from := claim.Status
	if !CanTransition(from, to) {
		return nil, errors.InvalidTransition(string(from), string(to))
	}

	claim.Status = to
	switch to {
	case model.ClaimStatusReviewing, model.ClaimStatusApproved, model.ClaimStatusRejected:
		reviewer := actor.ID
		claim.ReviewedAt = &now
		claim.ReviewerID = &reviewer
		if reason != nil {
			notes := *reason
			claim.ReviewNotes = &notes
		}
	case model.ClaimStatusPaid:
		claim.PaymentDate = &now
	}

	old := from
	return &model.ClaimStatusHistory{
		ID:        uuid.New(),
		ClaimID:   claim.ID,
		OldStatus: &old,
		NewStatus: to,
		ChangedBy: actor.ID,
		Reason:    reason,
		ChangedAt: now,
	}, nil
}
