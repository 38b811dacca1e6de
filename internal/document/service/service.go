// Package service is the document lifecycle controller: it moves bills,
// debit notes, and journals through DRAFT → POSTED → VOID, walks purchase
// orders through their approval and receipt states, and applies debit-note
// allocations. Every mutation runs in one transaction; org and actor ride on
// the context.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	accountdomain "github.com/smallbiznis/folio/internal/account/domain"
	auditdomain "github.com/smallbiznis/folio/internal/audit/domain"
	documentdomain "github.com/smallbiznis/folio/internal/document/domain"
	idemdomain "github.com/smallbiznis/folio/internal/idempotency/domain"
	inventorydomain "github.com/smallbiznis/folio/internal/inventory/domain"
	itemdomain "github.com/smallbiznis/folio/internal/item/domain"
	ledgerdomain "github.com/smallbiznis/folio/internal/ledger/domain"
	"github.com/smallbiznis/folio/internal/observability/metrics"
	"github.com/smallbiznis/folio/internal/orgcontext"
	orgdomain "github.com/smallbiznis/folio/internal/organization/domain"
	seqdomain "github.com/smallbiznis/folio/internal/sequence/domain"
	taxdomain "github.com/smallbiznis/folio/internal/tax/domain"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      documentdomain.Repository
	Orgs      orgdomain.Repository
	Accounts  accountdomain.Resolver
	Taxes     taxdomain.Resolver
	Items     itemdomain.Resolver
	Ledger    ledgerdomain.Repository
	Idem      idemdomain.Service
	Seq       seqdomain.Allocator
	Inventory inventorydomain.Service
	Audit     auditdomain.Service
	Metrics   *metrics.PostingMetrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      documentdomain.Repository
	orgs      orgdomain.Repository
	accounts  accountdomain.Resolver
	taxes     taxdomain.Resolver
	items     itemdomain.Resolver
	ledger    ledgerdomain.Repository
	idem      idemdomain.Service
	seq       seqdomain.Allocator
	inventory inventorydomain.Service
	audit     auditdomain.Service
	metrics   *metrics.PostingMetrics
}

func NewService(p Params) documentdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("document.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		orgs:      p.Orgs,
		accounts:  p.Accounts,
		taxes:     p.Taxes,
		items:     p.Items,
		ledger:    p.Ledger,
		idem:      p.Idem,
		seq:       p.Seq,
		inventory: p.Inventory,
		audit:     p.Audit,
		metrics:   p.Metrics,
	}
}

// numberPrefixes are the defaults used when an org has no counter row yet.
var numberPrefixes = map[string]string{
	string(documentdomain.TypeBill):          "BILL",
	string(documentdomain.TypeDebitNote):     "DN",
	string(documentdomain.TypeJournal):       "JRN",
	string(documentdomain.TypePurchaseOrder): "PO",
	string(ledgerdomain.SourceTypeReversal):  "REV",
}

func (s *Service) Get(ctx context.Context, documentID snowflake.ID) (*documentdomain.View, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, orgdomain.ErrInvalidOrganization
	}

	doc, err := s.repo.Find(ctx, s.db, orgID, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, documentdomain.ErrNotFound
	}
	return s.view(ctx, s.db, doc)
}

// callerIdentity resolves the tenant and actor stamped on the context.
func (s *Service) callerIdentity(ctx context.Context) (orgID, actorID snowflake.ID, err error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, 0, orgdomain.ErrInvalidOrganization
	}
	actorID, _ = orgcontext.ActorIDFromContext(ctx)
	return orgID, actorID, nil
}

func (s *Service) loadOrg(ctx context.Context, orgID snowflake.ID) (*orgdomain.Organization, error) {
	org, err := s.orgs.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, orgdomain.ErrNotFound
	}
	return org, nil
}

// beginIdempotent runs the Begin half of the idempotency protocol. When the
// request replays, the stored response is unmarshaled into out and ok is
// false.
func (s *Service) beginIdempotent(ctx context.Context, orgID, actorID snowflake.ID, scope, key string, payload, out any) (proceed bool, requestHash string, err error) {
	begin, err := s.idem.Begin(ctx, orgID, actorID, scope, key, payload)
	if err != nil {
		return false, "", err
	}
	if begin.Proceed {
		return true, begin.RequestHash, nil
	}

	s.metrics.IncIdempotentReplay(scope)
	if out != nil && len(begin.Response) > 0 {
		if err := json.Unmarshal(begin.Response, out); err != nil {
			return false, "", err
		}
	}
	return false, "", nil
}

// replayLostCommit resolves losing the commit race to an identical
// concurrent request. The enclosing transaction has already rolled back,
// discarding this attempt's writes, so the winner's stored response is
// decoded into out and served in its place.
func (s *Service) replayLostCommit(err error, scope string, out any) (bool, error) {
	var race *idemdomain.CommitRaceError
	if !errors.As(err, &race) {
		return false, err
	}

	s.metrics.IncIdempotentReplay(scope)
	if out != nil && len(race.Response) > 0 {
		if err := json.Unmarshal(race.Response, out); err != nil {
			return false, err
		}
	}
	return true, nil
}

// guardLockDate rejects transaction dates inside the closed period and
// records the blocked attempt. The audit write deliberately bypasses the
// caller's transaction so the entry survives the rollback.
func (s *Service) guardLockDate(ctx context.Context, org *orgdomain.Organization, date time.Time, action string, documentID snowflake.ID) error {
	if !org.Locked(date) {
		return nil
	}

	s.metrics.IncLockDateBlock(action)
	// Create-time blocks have no document yet, so the entry carries no target.
	var target *string
	if documentID != 0 {
		id := documentID.String()
		target = &id
	}
	if err := s.audit.Record(ctx, auditBlockedAction(action), auditdomain.TargetTypeDocument, target, map[string]any{
		"action":           action,
		"transaction_date": date.Format("2006-01-02"),
		"lock_date":        org.LockDate.Format("2006-01-02"),
	}); err != nil {
		s.log.Warn("failed to record blocked-action audit entry", zap.Error(err))
	}
	return documentdomain.ErrLockDate
}

func auditBlockedAction(action string) string {
	if action == string(documentdomain.StatusVoid) || action == "document.void" {
		return auditdomain.ActionVoidBlocked
	}
	return auditdomain.ActionPostBlocked
}

// view assembles the read model for a document.
func (s *Service) view(ctx context.Context, dbh *gorm.DB, doc *documentdomain.Document) (*documentdomain.View, error) {
	lines, err := s.repo.FindLines(ctx, dbh, doc.ID)
	if err != nil {
		return nil, err
	}
	return &documentdomain.View{
		ID:                 doc.ID,
		Type:               doc.Type,
		Status:             doc.Status,
		Number:             doc.Number,
		CounterpartyID:     doc.CounterpartyID,
		Currency:           doc.Currency,
		DocumentDate:       doc.DocumentDate,
		Memo:               doc.Memo,
		SubTotal:           doc.SubTotal,
		TaxTotal:           doc.TaxTotal,
		Total:              doc.Total,
		GLHeaderID:         doc.GLHeaderID,
		ReversalGLHeaderID: doc.ReversalGLHeaderID,
		VoidReason:         doc.VoidReason,
		Lines:              lines,
	}, nil
}

// findDocument loads a document or fails with the not-found sentinel.
func (s *Service) findDocument(ctx context.Context, dbh *gorm.DB, orgID, id snowflake.ID) (*documentdomain.Document, error) {
	doc, err := s.repo.Find(ctx, dbh, orgID, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, documentdomain.ErrNotFound
	}
	return doc, nil
}
