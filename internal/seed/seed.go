package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	accountdomain "github.com/smallbiznis/folio/internal/account/domain"
	itemdomain "github.com/smallbiznis/folio/internal/item/domain"
	orgdomain "github.com/smallbiznis/folio/internal/organization/domain"
	taxdomain "github.com/smallbiznis/folio/internal/tax/domain"
)

const (
	defaultOrgName  = "Main"
	defaultCurrency = "USD"
)

type seedAccount struct {
	code    string
	name    string
	accType accountdomain.AccountType
	subType string
}

var defaultAccounts = []seedAccount{
	{"1200", "Inventory", accountdomain.TypeAsset, accountdomain.SubTypeInventory},
	{"1400", "VAT Receivable", accountdomain.TypeAsset, accountdomain.SubTypeVATReceivable},
	{"2000", "Accounts Payable", accountdomain.TypeLiability, accountdomain.SubTypeAccountsPayable},
	{"2100", "VAT Payable", accountdomain.TypeLiability, accountdomain.SubTypeVATPayable},
	{"3000", "Retained Earnings", accountdomain.TypeEquity, ""},
	{"6000", "General Expenses", accountdomain.TypeExpense, ""},
}

// EnsureDefaultOrg seeds the default organization with a minimal chart of
// accounts, a base unit, and a zero-rate tax code. Safe to run on every
// startup: existing rows are left untouched.
func EnsureDefaultOrg(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		return errors.New("seed id generator is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org, err := ensureOrgTx(tx, node)
		if err != nil {
			return err
		}
		if err := ensureAccountsTx(tx, node, org); err != nil {
			return err
		}
		if err := ensureTaxCodeTx(tx, node, org.ID); err != nil {
			return err
		}
		return ensureUnitTx(tx, node, org.ID)
	})
}

func ensureOrgTx(tx *gorm.DB, node *snowflake.Node) (*orgdomain.Organization, error) {
	var existing orgdomain.Organization
	err := tx.Order("id ASC").First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	org := orgdomain.Organization{
		ID:                  node.Generate(),
		Name:                defaultOrgName,
		BaseCurrency:        defaultCurrency,
		VATEnabled:          false,
		VATBehavior:         orgdomain.VATBehaviorExclusive,
		NegativeStockPolicy: orgdomain.NegativeStockWarn,
		CreatedAt:           time.Now().UTC(),
		UpdatedAt:           time.Now().UTC(),
	}
	if err := tx.Create(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func ensureAccountsTx(tx *gorm.DB, node *snowflake.Node, org *orgdomain.Organization) error {
	for _, seeded := range defaultAccounts {
		var existing accountdomain.Account
		err := tx.Where("org_id = ? AND code = ?", org.ID, seeded.code).First(&existing).Error
		if err == nil {
			wireControlAccount(org, existing.SubType, existing.ID)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		account := accountdomain.Account{
			ID:       node.Generate(),
			OrgID:    org.ID,
			Code:     seeded.code,
			Name:     seeded.name,
			Type:     seeded.accType,
			SubType:  seeded.subType,
			IsActive: true,
		}
		if err := tx.Create(&account).Error; err != nil {
			return err
		}
		wireControlAccount(org, account.SubType, account.ID)
	}

	return tx.Model(&orgdomain.Organization{}).
		Where("id = ?", org.ID).
		Updates(map[string]any{
			"ap_control_account_id":     org.APControlAccountID,
			"vat_receivable_account_id": org.VATReceivableAccountID,
		}).Error
}

func wireControlAccount(org *orgdomain.Organization, subType string, id snowflake.ID) {
	switch subType {
	case accountdomain.SubTypeAccountsPayable:
		if org.APControlAccountID == nil {
			accountID := id
			org.APControlAccountID = &accountID
		}
	case accountdomain.SubTypeVATReceivable:
		if org.VATReceivableAccountID == nil {
			accountID := id
			org.VATReceivableAccountID = &accountID
		}
	}
}

func ensureTaxCodeTx(tx *gorm.DB, node *snowflake.Node, orgID snowflake.ID) error {
	var count int64
	if err := tx.Model(&taxdomain.TaxCode{}).Where("org_id = ?", orgID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return tx.Create(&taxdomain.TaxCode{
		ID:       node.Generate(),
		OrgID:    orgID,
		Code:     "ZERO",
		Name:     "Zero Rated",
		Type:     taxdomain.TaxTypeZero,
		Rate:     decimal.Zero,
		IsActive: true,
	}).Error
}

func ensureUnitTx(tx *gorm.DB, node *snowflake.Node, orgID snowflake.ID) error {
	var count int64
	if err := tx.Model(&itemdomain.Unit{}).Where("org_id = ?", orgID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	unitID := node.Generate()
	return tx.Create(&itemdomain.Unit{
		ID:             unitID,
		OrgID:          orgID,
		Code:           "ea",
		Name:           "Each",
		BaseUnitID:     unitID,
		ConversionRate: decimal.NewFromInt(1),
	}).Error
}
