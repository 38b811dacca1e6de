// Package posting turns calculated document lines into balanced GL draft
// lines. Build is a pure function: it never touches persistence, so the
// grouping and ordering rules can be property-tested in isolation.
package posting

import (
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	ledgerdomain "github.com/smallbiznis/folio/internal/ledger/domain"
	"github.com/smallbiznis/folio/internal/money"
)

// Line is one calculated document line as the builder sees it.
type Line struct {
	ExpenseAccountID snowflake.ID
	SubTotal         decimal.Decimal
	Tax              decimal.Decimal
	TaxCodeID        *snowflake.ID
}

// Input carries everything Build needs. The system is single-currency, so no
// rate conversion happens here.
type Input struct {
	Lines []Line
	// Total is the document total; it becomes the single credit line against
	// the control account.
	Total decimal.Decimal
	// ControlAccountID is the AP (bills, debit notes) or AR control account.
	ControlAccountID snowflake.ID
	// VATAccountID must be set whenever any line carries tax.
	VATAccountID *snowflake.ID
	// CounterpartyID (vendor/customer) is stamped on the control line for
	// subledger reporting.
	CounterpartyID *snowflake.ID
}

// Result is the draft posting with its rounded totals.
type Result struct {
	Lines       []ledgerdomain.DraftLine
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

// Build groups subtotals by expense account and tax by tax code, emits one
// debit line per non-zero group in deterministic (ascending key) order, and
// closes the entry with a single credit for the document total. Group order
// matters: reproducing the same header byte-for-byte is what makes posting
// testable and reversals exact.
func Build(in Input) (*Result, error) {
	expense := make(map[snowflake.ID]decimal.Decimal)
	taxByCode := make(map[snowflake.ID]decimal.Decimal)

	for _, line := range in.Lines {
		sub := money.Round2(line.SubTotal)
		if !sub.IsZero() {
			expense[line.ExpenseAccountID] = money.Round2(expense[line.ExpenseAccountID].Add(sub))
		}

		tax := money.Round2(line.Tax)
		if tax.IsZero() {
			continue
		}
		// Lines without a tax code group under the zero sentinel key.
		var key snowflake.ID
		if line.TaxCodeID != nil {
			key = *line.TaxCodeID
		}
		taxByCode[key] = money.Round2(taxByCode[key].Add(tax))
	}

	taxTotal := decimal.Zero
	for _, amount := range taxByCode {
		taxTotal = money.Round2(taxTotal.Add(amount))
	}
	if taxTotal.IsPositive() && in.VATAccountID == nil {
		return nil, ledgerdomain.ErrVATAccountNotConfigured
	}

	drafts := make([]ledgerdomain.DraftLine, 0, len(expense)+len(taxByCode)+1)

	for _, accountID := range sortedKeys(expense) {
		amount := expense[accountID]
		if amount.IsZero() {
			continue
		}
		drafts = append(drafts, ledgerdomain.DraftLine{
			AccountID: accountID,
			Debit:     amount,
			Credit:    decimal.Zero,
		})
	}

	if in.VATAccountID != nil {
		for _, codeID := range sortedKeys(taxByCode) {
			amount := taxByCode[codeID]
			if amount.IsZero() {
				continue
			}
			var taxCodeID *snowflake.ID
			if codeID != 0 {
				id := codeID
				taxCodeID = &id
			}
			drafts = append(drafts, ledgerdomain.DraftLine{
				AccountID: *in.VATAccountID,
				Debit:     amount,
				Credit:    decimal.Zero,
				TaxCodeID: taxCodeID,
			})
		}
	}

	drafts = append(drafts, ledgerdomain.DraftLine{
		AccountID:      in.ControlAccountID,
		Debit:          decimal.Zero,
		Credit:         money.Round2(in.Total),
		CounterpartyID: in.CounterpartyID,
	})

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, draft := range drafts {
		totalDebit = money.Round2(totalDebit.Add(draft.Debit))
		totalCredit = money.Round2(totalCredit.Add(draft.Credit))
	}

	return &Result{
		Lines:       drafts,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
	}, nil
}

func sortedKeys(m map[snowflake.ID]decimal.Decimal) []snowflake.ID {
	keys := make([]snowflake.ID, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
