package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/smallbiznis/folio/internal/audit/domain"
	documentdomain "github.com/smallbiznis/folio/internal/document/domain"
	idemdomain "github.com/smallbiznis/folio/internal/idempotency/domain"
	ledgerdomain "github.com/smallbiznis/folio/internal/ledger/domain"
)

// Void reverses a posted document: it creates a new GL header whose lines
// are the original lines with debit and credit swapped, links it to the
// original, and mirrors any inventory movements. The original header is
// never edited or deleted. Re-voiding an already-void document returns the
// existing reversal.
func (s *Service) Void(ctx context.Context, req documentdomain.VoidRequest) (*documentdomain.VoidResult, error) {
	orgID, actorID, err := s.callerIdentity(ctx)
	if err != nil {
		return nil, err
	}

	var replay documentdomain.VoidResult
	proceed, requestHash, err := s.beginIdempotent(ctx, orgID, actorID, idemdomain.ScopeDocumentVoid, req.IdempotencyKey, req, &replay)
	if err != nil {
		return nil, err
	}
	if !proceed {
		return &replay, nil
	}

	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}

	doc, err := s.findDocument(ctx, s.db, orgID, req.DocumentID)
	if err != nil {
		return nil, err
	}

	if doc.Status == documentdomain.StatusVoid {
		// Idempotent re-void. A void document without a reversal means a
		// past transaction half-applied, which the engine must never allow.
		if doc.ReversalGLHeaderID == nil {
			s.log.Error("void document has no reversal header",
				zap.String("document_id", doc.ID.String()),
			)
			return nil, ledgerdomain.ErrReversalMissing
		}
		view, err := s.view(ctx, s.db, doc)
		if err != nil {
			return nil, err
		}
		return &documentdomain.VoidResult{Document: *view, ReversalGLHeaderID: *doc.ReversalGLHeaderID}, nil
	}
	if doc.Status != documentdomain.StatusPosted {
		return nil, &documentdomain.TransitionError{From: doc.Status, To: documentdomain.StatusVoid}
	}
	if doc.GLHeaderID == nil {
		s.log.Error("posted document has no gl header",
			zap.String("document_id", doc.ID.String()),
		)
		return nil, ledgerdomain.ErrReversalMissing
	}

	if err := s.guardLockDate(ctx, org, doc.DocumentDate, "document.void", doc.ID); err != nil {
		return nil, err
	}

	// A debit note with open allocations against bills must be unapplied
	// before it can be voided.
	if doc.Type == documentdomain.TypeDebitNote {
		open, err := s.repo.CountAllocations(ctx, s.db, orgID, doc.ID)
		if err != nil {
			return nil, err
		}
		if open > 0 {
			return nil, documentdomain.ErrOpenAllocations
		}
	}

	var result documentdomain.VoidResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		original, err := s.ledger.FindByID(ctx, tx, orgID, *doc.GLHeaderID)
		if err != nil {
			return err
		}
		if original == nil {
			return ledgerdomain.ErrReversalMissing
		}

		originalLines, err := s.ledger.FindLines(ctx, tx, original.ID)
		if err != nil {
			return err
		}

		number, err := s.seq.Next(ctx, tx, orgID, string(ledgerdomain.SourceTypeReversal), numberPrefixes[string(ledgerdomain.SourceTypeReversal)])
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		reversal := &ledgerdomain.GLHeader{
			ID:              s.genID.Generate(),
			OrgID:           orgID,
			SourceType:      ledgerdomain.SourceTypeReversal,
			SourceID:        original.ID,
			Number:          number,
			Currency:        original.Currency,
			TransactionDate: now,
			Memo:            req.Reason,
			TotalDebit:      original.TotalCredit,
			TotalCredit:     original.TotalDebit,
			ReversalOfID:    &original.ID,
		}
		if err := s.ledger.CreateHeader(ctx, tx, reversal, ledgerdomain.Reversed(originalLines)); err != nil {
			return err
		}

		// At most one reversal per header; a concurrent void loses here.
		if err := s.ledger.MarkReversed(ctx, tx, original.ID, reversal.ID); err != nil {
			return err
		}

		if err := s.inventory.NegateForSource(ctx, tx, orgID, string(doc.Type), doc.ID, now); err != nil {
			return err
		}

		doc.Status = documentdomain.StatusVoid
		doc.ReversalGLHeaderID = &reversal.ID
		doc.VoidedAt = &now
		doc.UpdatedAt = now
		if req.Reason != "" {
			doc.VoidReason = &req.Reason
		}
		if err := s.repo.Update(ctx, tx, doc); err != nil {
			return err
		}

		docID := doc.ID.String()
		if err := s.audit.RecordTx(ctx, tx, auditdomain.ActionDocumentVoided, auditdomain.TargetTypeDocument, &docID, map[string]any{
			"type":                  string(doc.Type),
			"reversal_gl_header_id": reversal.ID.String(),
			"reason":                req.Reason,
		}); err != nil {
			return err
		}

		view, err := s.view(ctx, tx, doc)
		if err != nil {
			return err
		}
		result = documentdomain.VoidResult{Document: *view, ReversalGLHeaderID: reversal.ID}

		return s.idem.Commit(ctx, tx, orgID, actorID, idemdomain.ScopeDocumentVoid, req.IdempotencyKey, requestHash, &result, 200)
	})
	if err != nil {
		replayed, err := s.replayLostCommit(err, idemdomain.ScopeDocumentVoid, &replay)
		if !replayed {
			return nil, err
		}
		return &replay, nil
	}

	s.metrics.IncDocumentVoided(string(doc.Type))
	return &result, nil
}
