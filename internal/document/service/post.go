package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	auditdomain "github.com/smallbiznis/folio/internal/audit/domain"
	documentdomain "github.com/smallbiznis/folio/internal/document/domain"
	idemdomain "github.com/smallbiznis/folio/internal/idempotency/domain"
	inventorydomain "github.com/smallbiznis/folio/internal/inventory/domain"
	itemdomain "github.com/smallbiznis/folio/internal/item/domain"
	ledgerdomain "github.com/smallbiznis/folio/internal/ledger/domain"
	"github.com/smallbiznis/folio/internal/ledger/posting"
	"github.com/smallbiznis/folio/internal/money"
	orgdomain "github.com/smallbiznis/folio/internal/organization/domain"
)

// Post moves a draft bill, debit note, or journal to POSTED: it assigns the
// document number, re-validates every referenced account, creates the
// balanced GL header, and records inventory movements for tracked items.
// Purchase orders never post; they follow the Submit/Approve/Send flow.
func (s *Service) Post(ctx context.Context, req documentdomain.PostRequest) (*documentdomain.PostResult, error) {
	orgID, actorID, err := s.callerIdentity(ctx)
	if err != nil {
		return nil, err
	}

	var replay documentdomain.PostResult
	proceed, requestHash, err := s.beginIdempotent(ctx, orgID, actorID, idemdomain.ScopeDocumentPost, req.IdempotencyKey, req, &replay)
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
	if doc.Type == documentdomain.TypePurchaseOrder {
		return nil, &documentdomain.TransitionError{From: doc.Status, To: documentdomain.StatusPosted}
	}
	if doc.Status != documentdomain.StatusDraft {
		return nil, &documentdomain.TransitionError{From: doc.Status, To: documentdomain.StatusPosted}
	}

	if err := s.guardLockDate(ctx, org, doc.DocumentDate, "document.post", doc.ID); err != nil {
		return nil, err
	}
	if doc.Currency != org.BaseCurrency {
		return nil, documentdomain.ErrCurrencyMismatch
	}

	lines, err := s.repo.FindLines(ctx, s.db, doc.ID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, documentdomain.ErrNoLines
	}

	var result documentdomain.PostResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		draft, err := s.draftPostingLines(ctx, org, doc, lines)
		if err != nil {
			return err
		}

		// Accounts can be deactivated between draft and post.
		if _, err := s.accounts.ResolveActive(ctx, orgID, draftAccountIDs(draft)); err != nil {
			return err
		}

		number, err := s.seq.Next(ctx, tx, orgID, string(doc.Type), numberPrefixes[string(doc.Type)])
		if err != nil {
			return err
		}

		header := &ledgerdomain.GLHeader{
			ID:              s.genID.Generate(),
			OrgID:           orgID,
			SourceType:      ledgerdomain.SourceType(doc.Type),
			SourceID:        doc.ID,
			Number:          number,
			Currency:        doc.Currency,
			TransactionDate: doc.DocumentDate,
			Memo:            doc.Memo,
			TotalDebit:      sumDebits(draft),
			TotalCredit:     sumCredits(draft),
		}
		if err := s.ledger.CreateHeader(ctx, tx, header, draft); err != nil {
			return err
		}

		warnings, err := s.moveInventory(ctx, tx, org, doc, lines, req)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		doc.Status = documentdomain.StatusPosted
		doc.Number = &number
		doc.GLHeaderID = &header.ID
		doc.PostedAt = &now
		doc.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, doc); err != nil {
			return err
		}

		docID := doc.ID.String()
		if err := s.audit.RecordTx(ctx, tx, auditdomain.ActionDocumentPosted, auditdomain.TargetTypeDocument, &docID, map[string]any{
			"type":         string(doc.Type),
			"number":       number,
			"gl_header_id": header.ID.String(),
			"total":        doc.Total.String(),
		}); err != nil {
			return err
		}

		view, err := s.view(ctx, tx, doc)
		if err != nil {
			return err
		}
		result = documentdomain.PostResult{Document: *view, Warnings: warnings}

		return s.idem.Commit(ctx, tx, orgID, actorID, idemdomain.ScopeDocumentPost, req.IdempotencyKey, requestHash, &result, 200)
	})
	if err != nil {
		replayed, err := s.replayLostCommit(err, idemdomain.ScopeDocumentPost, &replay)
		if !replayed {
			return nil, err
		}
		return &replay, nil
	}

	s.metrics.IncDocumentPosted(string(doc.Type))
	s.metrics.AddStockWarnings(string(org.NegativeStockPolicy), len(result.Warnings))
	return &result, nil
}

// draftPostingLines produces the balanced GL draft for the document type:
// journals carry user-entered sides verbatim, bills and debit notes go
// through the line builder against the AP control account.
func (s *Service) draftPostingLines(ctx context.Context, org *orgdomain.Organization, doc *documentdomain.Document, lines []documentdomain.Line) ([]ledgerdomain.DraftLine, error) {
	if doc.Type == documentdomain.TypeJournal {
		draft := make([]ledgerdomain.DraftLine, 0, len(lines))
		for _, line := range lines {
			draft = append(draft, ledgerdomain.DraftLine{
				AccountID: line.AccountID,
				Debit:     line.Debit,
				Credit:    line.Credit,
			})
		}
		return draft, nil
	}

	if org.APControlAccountID == nil {
		return nil, documentdomain.ErrControlAccountNotConfigured
	}

	built := make([]posting.Line, 0, len(lines))
	for _, line := range lines {
		built = append(built, posting.Line{
			ExpenseAccountID: line.AccountID,
			SubTotal:         line.LineSubTotal,
			Tax:              line.LineTax,
			TaxCodeID:        line.TaxCodeID,
		})
	}

	result, err := posting.Build(posting.Input{
		Lines:            built,
		Total:            doc.Total,
		ControlAccountID: *org.APControlAccountID,
		VATAccountID:     org.VATReceivableAccountID,
		CounterpartyID:   doc.CounterpartyID,
	})
	if err != nil {
		return nil, err
	}
	return result.Lines, nil
}

// moveInventory evaluates the negative-stock policy and records movements
// for tracked items. Bills receive stock in; debit notes consume it, which
// is the only direction the policy inspects.
func (s *Service) moveInventory(ctx context.Context, tx *gorm.DB, org *orgdomain.Organization, doc *documentdomain.Document, lines []documentdomain.Line, req documentdomain.PostRequest) ([]inventorydomain.Warning, error) {
	if doc.Type == documentdomain.TypeJournal {
		return nil, nil
	}

	tracked, err := s.trackedItems(ctx, doc.OrgID, lines)
	if err != nil {
		return nil, err
	}
	if len(tracked) == 0 {
		return nil, nil
	}

	sign := decimal.NewFromInt(1)
	if doc.Type == documentdomain.TypeDebitNote {
		sign = decimal.NewFromInt(-1)
	}

	deltas := make(map[snowflake.ID]decimal.Decimal)
	movements := make([]inventorydomain.Movement, 0, len(lines))
	for _, line := range lines {
		if line.ItemID == nil {
			continue
		}
		if _, ok := tracked[*line.ItemID]; !ok {
			continue
		}
		if line.BaseQuantity.IsZero() {
			continue
		}

		qty := money.Round4(line.BaseQuantity.Mul(sign))
		deltas[*line.ItemID] = money.Round4(deltas[*line.ItemID].Add(qty))
		movements = append(movements, inventorydomain.Movement{
			OrgID:        doc.OrgID,
			ItemID:       *line.ItemID,
			SourceType:   string(doc.Type),
			SourceID:     doc.ID,
			SourceLineNo: line.LineNo,
			Quantity:     qty,
			UnitCost:     money.DivCost(line.LineSubTotal, line.BaseQuantity),
			MovedAt:      doc.DocumentDate,
		})
	}
	if len(movements) == 0 {
		return nil, nil
	}

	var asOf *time.Time
	if org.DateEffectiveCosting {
		asOf = &doc.DocumentDate
	}

	warnings, err := s.inventory.Evaluate(ctx, tx, doc.OrgID, deltas, org.NegativeStockPolicy, inventorydomain.Override{
		Requested: req.OverrideRequested,
		Permitted: req.OverridePermitted,
		Reason:    req.OverrideReason,
	}, asOf)
	if err != nil {
		s.metrics.IncStockBlock()
		return nil, err
	}

	if err := s.inventory.Record(ctx, tx, movements); err != nil {
		return nil, err
	}

	for _, warning := range warnings {
		if warning.OverrideReason == "" {
			continue
		}
		itemID := warning.ItemID.String()
		if err := s.audit.RecordTx(ctx, tx, auditdomain.ActionStockOverride, auditdomain.TargetTypeItem, &itemID, map[string]any{
			"document_id": doc.ID.String(),
			"projected":   warning.Projected.String(),
			"reason":      warning.OverrideReason,
		}); err != nil {
			return nil, err
		}
	}
	return warnings, nil
}

// trackedItems resolves the items referenced by the lines and keeps only
// the inventory-tracked ones.
func (s *Service) trackedItems(ctx context.Context, orgID snowflake.ID, lines []documentdomain.Line) (map[snowflake.ID]itemdomain.Item, error) {
	ids := make([]snowflake.ID, 0, len(lines))
	for _, line := range lines {
		if line.ItemID != nil {
			ids = append(ids, *line.ItemID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	items, err := s.items.ResolveItems(ctx, orgID, ids)
	if err != nil {
		return nil, err
	}

	tracked := make(map[snowflake.ID]itemdomain.Item, len(items))
	for id, item := range items {
		if item.TrackInventory {
			tracked[id] = item
		}
	}
	return tracked, nil
}

func draftAccountIDs(draft []ledgerdomain.DraftLine) []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(draft))
	for _, line := range draft {
		ids = append(ids, line.AccountID)
	}
	return ids
}

func sumDebits(draft []ledgerdomain.DraftLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range draft {
		total = money.Round2(total.Add(line.Debit))
	}
	return total
}

func sumCredits(draft []ledgerdomain.DraftLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range draft {
		total = money.Round2(total.Add(line.Credit))
	}
	return total
}
