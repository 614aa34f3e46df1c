package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusRetry     OutboxStatus = "retry"
	OutboxStatusProcessed OutboxStatus = "processed"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// Claim event types published through the outbox.
const (
	EventClaimSubmitted     = "claim.submitted"
	EventClaimStatusChanged = "claim.status_changed"
	EventCardExpired        = "card.expired"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	AggregateID  uuid.UUID       `db:"aggregate_id" json:"aggregate_id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}

// ClaimEvent is the payload of claim lifecycle events.
type ClaimEvent struct {
	ClaimID       uuid.UUID    `json:"claim_id"`
	ClaimNumber   string       `json:"claim_number"`
	UserID        uuid.UUID    `json:"user_id"`
	OldStatus     *ClaimStatus `json:"old_status,omitempty"`
	NewStatus     ClaimStatus  `json:"new_status"`
	ChangedBy     uuid.UUID    `json:"changed_by"`
	CoveredAmount string       `json:"covered_amount"`
	OccurredAt    time.Time    `json:"occurred_at"`
}

// CardEvent is the payload of card events.
type CardEvent struct {
	CardID     uuid.UUID `json:"card_id"`
	CardNumber string    `json:"card_number"`
	UserID     uuid.UUID `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
