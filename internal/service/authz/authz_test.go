package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
)

func TestAuthorize(t *testing.T) {
	owner := uuid.New()
	user := model.Actor{ID: owner, Role: model.RoleUser}
	stranger := model.Actor{ID: uuid.New(), Role: model.RoleUser}
	staff := model.Actor{ID: uuid.New(), Role: model.RoleStaff}
	doctor := model.Actor{ID: uuid.New(), Role: model.RoleDoctor}
	admin := model.Actor{ID: uuid.New(), Role: model.RoleAdmin}

	cases := []struct {
		name    string
		actor   model.Actor
		action  Action
		allowed bool
	}{
		{"user adjudicates", user, Adjudicate(), true},
		{"user files own claim", user, FileClaim(owner), true},
		{"user files someone else's claim", stranger, FileClaim(owner), false},
		{"staff files for a patient", staff, FileClaim(owner), true},
		{"owner views claim", user, ViewClaim(owner), true},
		{"stranger views claim", stranger, ViewClaim(owner), false},
		{"doctor views claim", doctor, ViewClaim(owner), true},
		{"doctor views card", doctor, ViewCard(owner), false},
		{"staff views card", staff, ViewCard(owner), true},
		{"user starts review", user, Transition(model.ClaimStatusReviewing), false},
		{"doctor approves", doctor, Transition(model.ClaimStatusApproved), false},
		{"staff approves", staff, Transition(model.ClaimStatusApproved), true},
		{"staff rejects", staff, Transition(model.ClaimStatusRejected), true},
		{"staff pays", staff, Transition(model.ClaimStatusPaid), false},
		{"admin pays", admin, Transition(model.ClaimStatusPaid), true},
		{"admin resubmits", admin, Transition(model.ClaimStatusSubmitted), false},
		{"user browses reference data", user, ViewReference(), true},
		{"unknown role browses reference data", model.Actor{Role: "guest"}, ViewReference(), false},
		{"unknown role", model.Actor{ID: owner, Role: "guest"}, ViewClaim(owner), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.actor, tc.action)
			if tc.allowed {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.HasReason(err, errors.ReasonForbidden))
		})
	}
}

func TestSeesAllClaims(t *testing.T) {
	assert.False(t, SeesAllClaims(model.Actor{Role: model.RoleUser}))
	assert.True(t, SeesAllClaims(model.Actor{Role: model.RoleDoctor}))
}
