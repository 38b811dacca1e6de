package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	auditdomain "github.com/smallbiznis/folio/internal/audit/domain"
	"github.com/smallbiznis/folio/internal/document/calc"
	documentdomain "github.com/smallbiznis/folio/internal/document/domain"
	idemdomain "github.com/smallbiznis/folio/internal/idempotency/domain"
	ledgerdomain "github.com/smallbiznis/folio/internal/ledger/domain"
	"github.com/smallbiznis/folio/internal/money"
	orgdomain "github.com/smallbiznis/folio/internal/organization/domain"
)

func (s *Service) Create(ctx context.Context, req documentdomain.CreateRequest) (*documentdomain.View, error) {
	orgID, actorID, err := s.callerIdentity(ctx)
	if err != nil {
		return nil, err
	}

	switch req.Type {
	case documentdomain.TypeBill, documentdomain.TypeDebitNote,
		documentdomain.TypeJournal, documentdomain.TypePurchaseOrder:
	default:
		return nil, documentdomain.ErrInvalidType
	}

	var replay documentdomain.View
	proceed, requestHash, err := s.beginIdempotent(ctx, orgID, actorID, idemdomain.ScopeDocumentCreate, req.IdempotencyKey, req, &replay)
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

	currency := req.Currency
	if currency == "" {
		currency = org.BaseCurrency
	}
	if currency != org.BaseCurrency {
		return nil, documentdomain.ErrCurrencyMismatch
	}

	documentDate := req.DocumentDate
	if documentDate.IsZero() {
		documentDate = time.Now().UTC()
	}
	if err := s.guardLockDate(ctx, org, documentDate, "document.create", 0); err != nil {
		return nil, err
	}

	doc := &documentdomain.Document{
		OrgID:          orgID,
		Type:           req.Type,
		Status:         documentdomain.StatusDraft,
		CounterpartyID: req.CounterpartyID,
		Currency:       currency,
		DocumentDate:   documentDate,
		Memo:           req.Memo,
		CreatedBy:      actorID,
	}

	lines, err := s.buildLines(ctx, orgID, org, req.Type, req.Lines, doc)
	if err != nil {
		return nil, err
	}

	var view *documentdomain.View
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, doc, lines); err != nil {
			return err
		}

		docID := doc.ID.String()
		if err := s.audit.RecordTx(ctx, tx, auditdomain.ActionDocumentCreated, auditdomain.TargetTypeDocument, &docID, map[string]any{
			"type":  string(doc.Type),
			"total": doc.Total.String(),
		}); err != nil {
			return err
		}

		v, err := s.view(ctx, tx, doc)
		if err != nil {
			return err
		}
		view = v

		return s.idem.Commit(ctx, tx, orgID, actorID, idemdomain.ScopeDocumentCreate, req.IdempotencyKey, requestHash, view, 201)
	})
	if err != nil {
		replayed, err := s.replayLostCommit(err, idemdomain.ScopeDocumentCreate, &replay)
		if !replayed {
			return nil, err
		}
		return &replay, nil
	}
	return view, nil
}

func (s *Service) UpdateDraft(ctx context.Context, req documentdomain.UpdateDraftRequest) (*documentdomain.View, error) {
	orgID, _, err := s.callerIdentity(ctx)
	if err != nil {
		return nil, err
	}

	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}

	doc, err := s.findDocument(ctx, s.db, orgID, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != documentdomain.StatusDraft {
		return nil, documentdomain.ErrNotDraft
	}

	documentDate := req.DocumentDate
	if documentDate.IsZero() {
		documentDate = doc.DocumentDate
	}
	// Both the current and the requested date must be outside the closed
	// period: a locked draft cannot be moved out of the lock by editing it.
	if err := s.guardLockDate(ctx, org, doc.DocumentDate, "document.update", doc.ID); err != nil {
		return nil, err
	}
	if err := s.guardLockDate(ctx, org, documentDate, "document.update", doc.ID); err != nil {
		return nil, err
	}

	doc.DocumentDate = documentDate
	doc.Memo = req.Memo
	doc.UpdatedAt = time.Now().UTC()

	lines, err := s.buildLines(ctx, orgID, org, doc.Type, req.Lines, doc)
	if err != nil {
		return nil, err
	}

	var view *documentdomain.View
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.ReplaceLines(ctx, tx, doc.ID, lines); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, doc); err != nil {
			return err
		}

		docID := doc.ID.String()
		if err := s.audit.RecordTx(ctx, tx, auditdomain.ActionDocumentUpdated, auditdomain.TargetTypeDocument, &docID, map[string]any{
			"type":  string(doc.Type),
			"total": doc.Total.String(),
		}); err != nil {
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

// buildLines converts raw input rows to persisted lines and stamps the
// document totals. Journals bypass the calculator: their lines carry
// user-entered debit/credit pairs checked by the balance validator.
func (s *Service) buildLines(ctx context.Context, orgID snowflake.ID, org *orgdomain.Organization, docType documentdomain.Type, inputs []documentdomain.LineRequest, doc *documentdomain.Document) ([]documentdomain.Line, error) {
	if len(inputs) == 0 {
		return nil, documentdomain.ErrNoLines
	}

	if docType == documentdomain.TypeJournal {
		return s.buildJournalLines(inputs, doc)
	}

	lookups, err := s.resolveLookups(ctx, orgID, inputs)
	if err != nil {
		return nil, err
	}

	calcInputs := make([]calc.LineInput, 0, len(inputs))
	for _, in := range inputs {
		calcInputs = append(calcInputs, calc.LineInput{
			AccountID:   in.AccountID,
			ItemID:      in.ItemID,
			TaxCodeID:   in.TaxCodeID,
			UnitID:      in.UnitID,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Discount:    in.Discount,
		})
	}

	result, err := calc.Calculate(calcInputs, lookups, calc.Options{
		VATEnabled:  org.VATEnabled,
		VATBehavior: org.VATBehavior,
	})
	if err != nil {
		return nil, err
	}

	lines := make([]documentdomain.Line, 0, len(result.Lines))
	for _, cl := range result.Lines {
		lines = append(lines, documentdomain.Line{
			AccountID:    cl.AccountID,
			ItemID:       cl.Input.ItemID,
			TaxCodeID:    cl.TaxCodeID,
			UnitID:       cl.Input.UnitID,
			Description:  cl.Input.Description,
			Quantity:     cl.Input.Quantity,
			UnitPrice:    cl.Input.UnitPrice,
			Discount:     cl.Input.Discount,
			BaseQuantity: cl.BaseQuantity,
			LineSubTotal: cl.LineSubTotal,
			LineTax:      cl.LineTax,
			LineTotal:    cl.LineTotal,
		})
	}

	doc.SubTotal = result.SubTotal
	doc.TaxTotal = result.TaxTotal
	doc.Total = result.Total
	return lines, nil
}

// buildJournalLines validates user-entered sides and balance up front, so an
// unbalanced journal is a draft-time validation failure rather than a
// post-time balance fault.
func (s *Service) buildJournalLines(inputs []documentdomain.LineRequest, doc *documentdomain.Document) ([]documentdomain.Line, error) {
	draft := make([]ledgerdomain.DraftLine, 0, len(inputs))
	for _, in := range inputs {
		if in.AccountID == 0 {
			return nil, documentdomain.ErrMissingAccount
		}
		draft = append(draft, ledgerdomain.DraftLine{
			AccountID: in.AccountID,
			Debit:     in.Debit,
			Credit:    in.Credit,
		})
	}

	if err := ledgerdomain.ValidateBalanced(draft); err != nil {
		var balanceErr *ledgerdomain.BalanceError
		if errors.As(err, &balanceErr) {
			return nil, documentdomain.ErrJournalUnbalanced
		}
		return nil, err
	}

	total := decimal.Zero
	lines := make([]documentdomain.Line, 0, len(inputs))
	for _, in := range inputs {
		total = money.Round2(total.Add(in.Debit))
		lines = append(lines, documentdomain.Line{
			AccountID:   in.AccountID,
			Description: in.Description,
			Debit:       in.Debit,
			Credit:      in.Credit,
		})
	}

	doc.SubTotal = total
	doc.TaxTotal = decimal.Zero
	doc.Total = total
	return lines, nil
}

// resolveLookups loads every item, tax code, and unit a calculation pass can
// touch: the explicit line references plus each item's default tax code and
// native unit.
func (s *Service) resolveLookups(ctx context.Context, orgID snowflake.ID, inputs []documentdomain.LineRequest) (calc.Lookups, error) {
	itemIDs := make([]snowflake.ID, 0, len(inputs))
	taxIDs := make([]snowflake.ID, 0, len(inputs))
	unitIDs := make([]snowflake.ID, 0, len(inputs))

	for _, in := range inputs {
		if in.ItemID != nil {
			itemIDs = append(itemIDs, *in.ItemID)
		}
		if in.TaxCodeID != nil {
			taxIDs = append(taxIDs, *in.TaxCodeID)
		}
		if in.UnitID != nil {
			unitIDs = append(unitIDs, *in.UnitID)
		}
	}

	items, err := s.items.ResolveItems(ctx, orgID, itemIDs)
	if err != nil {
		return calc.Lookups{}, err
	}
	for _, item := range items {
		if item.DefaultTaxCodeID != nil {
			taxIDs = append(taxIDs, *item.DefaultTaxCodeID)
		}
		unitIDs = append(unitIDs, item.UnitID)
	}

	taxCodes, err := s.taxes.ResolveByIDs(ctx, orgID, taxIDs)
	if err != nil {
		return calc.Lookups{}, err
	}
	units, err := s.items.ResolveUnits(ctx, orgID, unitIDs)
	if err != nil {
		return calc.Lookups{}, err
	}

	return calc.Lookups{Items: items, TaxCodes: taxCodes, Units: units}, nil
}
