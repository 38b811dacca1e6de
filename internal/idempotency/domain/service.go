package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Operation scopes for mutating document requests.
const (
	ScopeDocumentCreate  = "document.create"
	ScopeDocumentPost    = "document.post"
	ScopeDocumentVoid    = "document.void"
	ScopeDocumentApply   = "document.apply"
	ScopeDocumentUnapply = "document.unapply"
	ScopeDocumentReceive = "document.receive"
)

type Service interface {
	// Begin checks for a prior execution of (org, scope, user, key). The
	// payload is canonicalized and hashed; reuse with a different payload
	// fails with ErrPayloadMismatch.
	Begin(ctx context.Context, orgID, userID snowflake.ID, scope, key string, payload any) (*BeginResult, error)

	// Commit records the successful response inside the caller's
	// transaction. It is called exactly once per first success and never on
	// failure, so failed attempts remain retryable with the same key. Losing
	// a commit race to an identical concurrent request fails the transaction
	// with a CommitRaceError carrying the winner's stored response; the
	// caller rolls back its own writes and replays that response.
	Commit(ctx context.Context, tx *gorm.DB, orgID, userID snowflake.ID, scope, key, requestHash string, response any, statusCode int) error
}
