package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	auditdomain "github.com/smallbiznis/folio/internal/audit/domain"
	documentdomain "github.com/smallbiznis/folio/internal/document/domain"
	idemdomain "github.com/smallbiznis/folio/internal/idempotency/domain"
	inventorydomain "github.com/smallbiznis/folio/internal/inventory/domain"
	"github.com/smallbiznis/folio/internal/money"
)

// Purchase orders never touch the general ledger; their lifecycle tracks
// approval and goods receipt only. Receipt is the step that creates
// inventory movements.
var purchaseOrderTransitions = map[documentdomain.Status]map[documentdomain.Status]bool{
	documentdomain.StatusDraft: {
		documentdomain.StatusPendingApproval: true,
		documentdomain.StatusCancelled:       true,
	},
	documentdomain.StatusPendingApproval: {
		documentdomain.StatusApproved:  true,
		documentdomain.StatusCancelled: true,
	},
	documentdomain.StatusApproved: {
		documentdomain.StatusSent:      true,
		documentdomain.StatusCancelled: true,
	},
	documentdomain.StatusSent: {
		documentdomain.StatusPartiallyReceived: true,
		documentdomain.StatusReceived:          true,
		documentdomain.StatusClosed:            true,
		documentdomain.StatusCancelled:         true,
	},
	documentdomain.StatusPartiallyReceived: {
		documentdomain.StatusPartiallyReceived: true,
		documentdomain.StatusReceived:          true,
		documentdomain.StatusClosed:            true,
	},
	documentdomain.StatusReceived: {
		documentdomain.StatusClosed: true,
	},
}

// Submit moves a draft purchase order to PENDING_APPROVAL and assigns its
// number; for purchase orders this is the numbering step, not posting.
func (s *Service) Submit(ctx context.Context, documentID snowflake.ID) (*documentdomain.View, error) {
	return s.transition(ctx, documentID, documentdomain.StatusPendingApproval, auditdomain.ActionOrderSubmitted, true)
}

func (s *Service) Approve(ctx context.Context, documentID snowflake.ID) (*documentdomain.View, error) {
	return s.transition(ctx, documentID, documentdomain.StatusApproved, auditdomain.ActionOrderApproved, false)
}

func (s *Service) Send(ctx context.Context, documentID snowflake.ID) (*documentdomain.View, error) {
	return s.transition(ctx, documentID, documentdomain.StatusSent, auditdomain.ActionOrderSent, false)
}

func (s *Service) Close(ctx context.Context, documentID snowflake.ID) (*documentdomain.View, error) {
	return s.transition(ctx, documentID, documentdomain.StatusClosed, auditdomain.ActionOrderClosed, false)
}

func (s *Service) Cancel(ctx context.Context, documentID snowflake.ID) (*documentdomain.View, error) {
	return s.transition(ctx, documentID, documentdomain.StatusCancelled, auditdomain.ActionOrderCancelled, false)
}

func (s *Service) transition(ctx context.Context, documentID snowflake.ID, to documentdomain.Status, action string, assignNumber bool) (*documentdomain.View, error) {
	orgID, _, err := s.callerIdentity(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := s.findDocument(ctx, s.db, orgID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Type != documentdomain.TypePurchaseOrder {
		return nil, documentdomain.ErrNotPurchaseOrder
	}
	if !purchaseOrderTransitions[doc.Status][to] {
		return nil, &documentdomain.TransitionError{From: doc.Status, To: to}
	}

	var view *documentdomain.View
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if assignNumber && doc.Number == nil {
			number, err := s.seq.Next(ctx, tx, orgID, string(doc.Type), numberPrefixes[string(doc.Type)])
			if err != nil {
				return err
			}
			doc.Number = &number
		}

		doc.Status = to
		doc.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, tx, doc); err != nil {
			return err
		}

		docID := doc.ID.String()
		if err := s.audit.RecordTx(ctx, tx, action, auditdomain.TargetTypeDocument, &docID, nil); err != nil {
			return err
		}

		v, err := s.view(ctx, tx, doc)
		if err != nil {
			return err
		}
		view = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Receive records goods receipt against a sent purchase order. Quantities
// are in base units and may arrive in several partial deliveries; the order
// moves to RECEIVED once every ordered quantity is in.
func (s *Service) Receive(ctx context.Context, req documentdomain.ReceiveRequest) (*documentdomain.ReceiveResult, error) {
	orgID, actorID, err := s.callerIdentity(ctx)
	if err != nil {
		return nil, err
	}

	var replay documentdomain.ReceiveResult
	proceed, requestHash, err := s.beginIdempotent(ctx, orgID, actorID, idemdomain.ScopeDocumentReceive, req.IdempotencyKey, req, &replay)
	if err != nil {
		return nil, err
	}
	if !proceed {
		return &replay, nil
	}

	doc, err := s.findDocument(ctx, s.db, orgID, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc.Type != documentdomain.TypePurchaseOrder {
		return nil, documentdomain.ErrNotPurchaseOrder
	}
	if doc.Status != documentdomain.StatusSent && doc.Status != documentdomain.StatusPartiallyReceived {
		return nil, &documentdomain.TransitionError{From: doc.Status, To: documentdomain.StatusPartiallyReceived}
	}
	if len(req.Lines) == 0 {
		return nil, documentdomain.ErrNoLines
	}

	lines, err := s.repo.FindLines(ctx, s.db, doc.ID)
	if err != nil {
		return nil, err
	}
	byLineNo := make(map[int]documentdomain.Line, len(lines))
	for _, line := range lines {
		byLineNo[line.LineNo] = line
	}

	tracked, err := s.trackedItems(ctx, orgID, lines)
	if err != nil {
		return nil, err
	}

	receivedAt := req.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	var result documentdomain.ReceiveResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		movements := make([]inventorydomain.Movement, 0, len(req.Lines))

		for _, rl := range req.Lines {
			line, ok := byLineNo[rl.LineNo]
			if !ok {
				return &documentdomain.LineError{LineNo: rl.LineNo, Err: documentdomain.ErrNotFound}
			}
			qty := money.Round4(rl.Quantity)
			if !qty.IsPositive() {
				return &documentdomain.LineError{LineNo: rl.LineNo, Err: documentdomain.ErrInvalidQuantity}
			}

			received := money.Round4(line.ReceivedQuantity.Add(qty))
			if received.GreaterThan(line.BaseQuantity) {
				return &documentdomain.LineError{LineNo: rl.LineNo, Err: documentdomain.ErrReceiveExceeds}
			}

			if err := s.repo.UpdateLineReceived(ctx, tx, line.ID, received); err != nil {
				return err
			}
			line.ReceivedQuantity = received
			byLineNo[rl.LineNo] = line

			if line.ItemID == nil {
				continue
			}
			if _, isTracked := tracked[*line.ItemID]; !isTracked {
				continue
			}
			movements = append(movements, inventorydomain.Movement{
				OrgID:        orgID,
				ItemID:       *line.ItemID,
				SourceType:   string(doc.Type),
				SourceID:     doc.ID,
				SourceLineNo: line.LineNo,
				Quantity:     qty,
				UnitCost:     money.DivCost(line.LineSubTotal, line.BaseQuantity),
				MovedAt:      receivedAt,
			})
		}

		if len(movements) > 0 {
			if err := s.inventory.Record(ctx, tx, movements); err != nil {
				return err
			}
		}

		doc.Status = documentdomain.StatusReceived
		for _, line := range byLineNo {
			if line.BaseQuantity.IsPositive() && line.ReceivedQuantity.LessThan(line.BaseQuantity) {
				doc.Status = documentdomain.StatusPartiallyReceived
				break
			}
		}
		doc.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, tx, doc); err != nil {
			return err
		}

		docID := doc.ID.String()
		if err := s.audit.RecordTx(ctx, tx, auditdomain.ActionOrderReceived, auditdomain.TargetTypeDocument, &docID, map[string]any{
			"status":      string(doc.Status),
			"received_at": receivedAt.Format(time.RFC3339),
		}); err != nil {
			return err
		}

		view, err := s.view(ctx, tx, doc)
		if err != nil {
			return err
		}
		result = documentdomain.ReceiveResult{Document: *view}

		return s.idem.Commit(ctx, tx, orgID, actorID, idemdomain.ScopeDocumentReceive, req.IdempotencyKey, requestHash, &result, 200)
	})
	if err != nil {
		replayed, err := s.replayLostCommit(err, idemdomain.ScopeDocumentReceive, &replay)
		if !replayed {
			return nil, err
		}
		return &replay, nil
	}
	return &result, nil
}
