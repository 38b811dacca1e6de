package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Key records the first successful execution of a mutating request. Rows are
// created exactly once and never mutated; replays with the same payload get
// the stored response verbatim, replays with a different payload conflict.
type Key struct {
	ID    snowflake.ID `gorm:"primaryKey"`
	OrgID snowflake.ID `gorm:"not null;uniqueIndex:ux_idempotency_keys,priority:1"`

	// Scope separates unrelated operations (bill.post, bill.void, ...) so a
	// client cannot accidentally collide keys across them.
	Scope  string       `gorm:"type:text;not null;uniqueIndex:ux_idempotency_keys,priority:2"`
	UserID snowflake.ID `gorm:"not null;uniqueIndex:ux_idempotency_keys,priority:3"`
	Key    string       `gorm:"type:text;not null;uniqueIndex:ux_idempotency_keys,priority:4"`

	RequestHash string `gorm:"type:text;not null"`

	Response   datatypes.JSON `gorm:"type:jsonb"`
	StatusCode int            `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Key) TableName() string { return "idempotency_keys" }

var (
	// ErrInvalidKey rejects keys that are not UUIDs.
	ErrInvalidKey = errors.New("idempotency key must be a valid UUID")

	// ErrPayloadMismatch means the key was reused with a different payload.
	ErrPayloadMismatch = errors.New("idempotency key reused with different payload")
)

// CommitRaceError reports that an identical concurrent request committed its
// record first. The loser's transaction must roll back, discarding its own
// writes, and the stored response is served in their place.
type CommitRaceError struct {
	Response   datatypes.JSON
	StatusCode int
}

func (e *CommitRaceError) Error() string { return "idempotency commit race lost" }

// BeginResult tells the caller whether to execute or replay.
type BeginResult struct {
	// Proceed is true when no record exists; the caller must execute the
	// operation and Commit on success.
	Proceed     bool
	RequestHash string

	// Replay payload, valid when Proceed is false.
	Response   datatypes.JSON
	StatusCode int
}
