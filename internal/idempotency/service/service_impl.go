package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	idemdomain "github.com/smallbiznis/folio/internal/idempotency/domain"
	"github.com/smallbiznis/folio/pkg/db"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) idemdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("idempotency.service"),
		genID: p.GenID,
	}
}

func (s *Service) Begin(ctx context.Context, orgID, userID snowflake.ID, scope, key string, payload any) (*idemdomain.BeginResult, error) {
	key = strings.TrimSpace(key)
	if _, err := uuid.Parse(key); err != nil {
		return nil, idemdomain.ErrInvalidKey
	}

	requestHash, err := HashPayload(payload)
	if err != nil {
		return nil, err
	}

	var record idemdomain.Key
	err = s.db.WithContext(ctx).
		Where("org_id = ? AND scope = ? AND user_id = ? AND key = ?", orgID, scope, userID, key).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &idemdomain.BeginResult{Proceed: true, RequestHash: requestHash}, nil
		}
		return nil, err
	}

	if record.RequestHash != requestHash {
		return nil, idemdomain.ErrPayloadMismatch
	}

	s.log.Info("replaying idempotent request",
		zap.String("scope", scope),
		zap.String("key", key),
	)
	return &idemdomain.BeginResult{
		Proceed:     false,
		RequestHash: requestHash,
		Response:    record.Response,
		StatusCode:  record.StatusCode,
	}, nil
}

func (s *Service) Commit(ctx context.Context, tx *gorm.DB, orgID, userID snowflake.ID, scope, key, requestHash string, response any, statusCode int) error {
	body, err := json.Marshal(response)
	if err != nil {
		return err
	}

	record := idemdomain.Key{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		Scope:       scope,
		UserID:      userID,
		Key:         strings.TrimSpace(key),
		RequestHash: requestHash,
		Response:    datatypes.JSON(body),
		StatusCode:  statusCode,
		CreatedAt:   time.Now().UTC(),
	}

	if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return err
		}
		// A concurrent identical request won the insert race. Verify the
		// winner stored the same payload, then fail the transaction so the
		// loser's own writes roll back and the stored response stands alone.
		var existing idemdomain.Key
		lookupErr := tx.WithContext(ctx).
			Where("org_id = ? AND scope = ? AND user_id = ? AND key = ?", orgID, scope, userID, record.Key).
			First(&existing).Error
		if lookupErr != nil {
			return lookupErr
		}
		if existing.RequestHash != requestHash {
			return idemdomain.ErrPayloadMismatch
		}
		s.log.Info("lost idempotency commit race, replaying stored response",
			zap.String("scope", scope),
			zap.String("key", record.Key),
		)
		return &idemdomain.CommitRaceError{
			Response:   existing.Response,
			StatusCode: existing.StatusCode,
		}
	}

	return nil
}

// HashPayload canonicalizes the payload to a stable byte form and hashes it.
// The round trip through an untyped value lets encoding/json sort object
// keys, so logically identical payloads always hash the same.
func HashPayload(payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", err
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
