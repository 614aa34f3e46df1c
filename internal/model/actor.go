package model

import "github.com/google/uuid"

type Role string

const (
	RoleUser   Role = "user"
	RoleStaff  Role = "staff"
	RoleDoctor Role = "doctor"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleStaff, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller as resolved by the transport layer.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

// SystemActor is used by background jobs.
var SystemActor = Actor{ID: uuid.Nil, Role: RoleAdmin}
