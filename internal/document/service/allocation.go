package service

import (
	"context"

	"gorm.io/gorm"

	auditdomain "github.com/smallbiznis/folio/internal/audit/domain"
	documentdomain "github.com/smallbiznis/folio/internal/document/domain"
	idemdomain "github.com/smallbiznis/folio/internal/idempotency/domain"
	"github.com/smallbiznis/folio/internal/money"
)

// Apply allocates a posted debit note against a posted bill. The allocation
// amount may never exceed the debit note's unallocated remainder, and a
// (debit note, bill) pair can only be allocated once.
func (s *Service) Apply(ctx context.Context, req documentdomain.ApplyRequest) (*documentdomain.ApplyResult, error) {
	orgID, actorID, err := s.callerIdentity(ctx)
	if err != nil {
		return nil, err
	}

	var replay documentdomain.ApplyResult
	proceed, requestHash, err := s.beginIdempotent(ctx, orgID, actorID, idemdomain.ScopeDocumentApply, req.IdempotencyKey, req, &replay)
	if err != nil {
		return nil, err
	}
	if !proceed {
		return &replay, nil
	}

	amount := money.Round2(req.Amount)
	if !amount.IsPositive() {
		return nil, documentdomain.ErrAllocationExceeds
	}

	debitNote, err := s.findDocument(ctx, s.db, orgID, req.DebitNoteID)
	if err != nil {
		return nil, err
	}
	if debitNote.Type != documentdomain.TypeDebitNote || debitNote.Status != documentdomain.StatusPosted {
		return nil, documentdomain.ErrNotPosted
	}

	bill, err := s.findDocument(ctx, s.db, orgID, req.BillID)
	if err != nil {
		return nil, err
	}
	if bill.Type != documentdomain.TypeBill || bill.Status != documentdomain.StatusPosted {
		return nil, documentdomain.ErrNotPosted
	}

	var result documentdomain.ApplyResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		allocated, err := s.repo.SumAllocations(ctx, tx, orgID, debitNote.ID)
		if err != nil {
			return err
		}
		unallocated := money.Round2(debitNote.Total.Sub(allocated))
		if amount.GreaterThan(unallocated) {
			return documentdomain.ErrAllocationExceeds
		}

		alloc := &documentdomain.Allocation{
			OrgID:       orgID,
			DebitNoteID: debitNote.ID,
			BillID:      bill.ID,
			Amount:      amount,
			CreatedBy:   actorID,
		}
		if err := s.repo.CreateAllocation(ctx, tx, alloc); err != nil {
			return err
		}

		target := debitNote.ID.String()
		if err := s.audit.RecordTx(ctx, tx, auditdomain.ActionAllocationApply, auditdomain.TargetTypeDocument, &target, map[string]any{
			"bill_id": bill.ID.String(),
			"amount":  amount.String(),
		}); err != nil {
			return err
		}

		result = documentdomain.ApplyResult{
			AllocationID: alloc.ID,
			DebitNoteID:  debitNote.ID,
			BillID:       bill.ID,
			Amount:       amount,
			Unallocated:  money.Round2(unallocated.Sub(amount)),
		}
		return s.idem.Commit(ctx, tx, orgID, actorID, idemdomain.ScopeDocumentApply, req.IdempotencyKey, requestHash, &result, 200)
	})
	if err != nil {
		replayed, err := s.replayLostCommit(err, idemdomain.ScopeDocumentApply, &replay)
		if !replayed {
			return nil, err
		}
		return &replay, nil
	}
	return &result, nil
}

// Unapply removes an allocation so the debit note can be re-allocated or
// voided.
func (s *Service) Unapply(ctx context.Context, req documentdomain.UnapplyRequest) error {
	orgID, actorID, err := s.callerIdentity(ctx)
	if err != nil {
		return err
	}

	proceed, requestHash, err := s.beginIdempotent(ctx, orgID, actorID, idemdomain.ScopeDocumentUnapply, req.IdempotencyKey, req, nil)
	if err != nil {
		return err
	}
	if !proceed {
		return nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.DeleteAllocation(ctx, tx, orgID, req.DebitNoteID, req.BillID); err != nil {
			return err
		}

		target := req.DebitNoteID.String()
		if err := s.audit.RecordTx(ctx, tx, auditdomain.ActionAllocationUnbind, auditdomain.TargetTypeDocument, &target, map[string]any{
			"bill_id": req.BillID.String(),
		}); err != nil {
			return err
		}

		return s.idem.Commit(ctx, tx, orgID, actorID, idemdomain.ScopeDocumentUnapply, req.IdempotencyKey, requestHash, map[string]any{
			"debit_note_id": req.DebitNoteID.String(),
			"bill_id":       req.BillID.String(),
		}, 200)
	})
	if err != nil {
		if replayed, err := s.replayLostCommit(err, idemdomain.ScopeDocumentUnapply, nil); !replayed {
			return err
		}
	}
	return nil
}
