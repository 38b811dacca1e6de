package service

import (
	"context"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	inventorydomain "github.com/smallbiznis/folio/internal/inventory/domain"
	"github.com/smallbiznis/folio/internal/money"
	orgdomain "github.com/smallbiznis/folio/internal/organization/domain"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) inventorydomain.Service {
	return &Service{
		log:   p.Log.Named("inventory.service"),
		genID: p.GenID,
	}
}

func (s *Service) OnHand(ctx context.Context, tx *gorm.DB, orgID, itemID snowflake.ID, asOf *time.Time) (decimal.Decimal, error) {
	stmt := tx.WithContext(ctx).
		Model(&inventorydomain.Movement{}).
		Where("org_id = ? AND item_id = ?", orgID, itemID)
	if asOf != nil {
		stmt = stmt.Where("moved_at <= ?", asOf.UTC())
	}

	var raw *string
	if err := stmt.Select("SUM(quantity)").Scan(&raw).Error; err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	onHand, err := decimal.NewFromString(*raw)
	if err != nil {
		return decimal.Zero, err
	}
	return money.Round4(onHand), nil
}

func (s *Service) Evaluate(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, deltas map[snowflake.ID]decimal.Decimal, policy orgdomain.NegativeStockPolicy, override inventorydomain.Override, asOf *time.Time) ([]inventorydomain.Warning, error) {
	if policy == orgdomain.NegativeStockAllow || len(deltas) == 0 {
		return nil, nil
	}

	itemIDs := make([]snowflake.ID, 0, len(deltas))
	for itemID := range deltas {
		itemIDs = append(itemIDs, itemID)
	}
	sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i] < itemIDs[j] })

	var warnings []inventorydomain.Warning
	for _, itemID := range itemIDs {
		delta := deltas[itemID]
		if !delta.IsNegative() {
			// Restoring quantity can never create negative stock.
			continue
		}

		onHand, err := s.OnHand(ctx, tx, orgID, itemID, asOf)
		if err != nil {
			return nil, err
		}

		projected := money.Round4(onHand.Add(delta))
		if !projected.IsNegative() {
			continue
		}

		if policy == orgdomain.NegativeStockBlock {
			if !(override.Requested && override.Permitted) {
				return nil, &inventorydomain.PolicyError{ItemID: itemID, Projected: projected}
			}
			s.log.Warn("negative stock override applied",
				zap.String("item_id", itemID.String()),
				zap.String("projected", projected.String()),
				zap.String("reason", override.Reason),
			)
			warnings = append(warnings, inventorydomain.Warning{
				ItemID:         itemID,
				Projected:      projected,
				OverrideReason: override.Reason,
			})
			continue
		}

		warnings = append(warnings, inventorydomain.Warning{
			ItemID:    itemID,
			Projected: projected,
		})
	}

	return warnings, nil
}

func (s *Service) Record(ctx context.Context, tx *gorm.DB, movements []inventorydomain.Movement) error {
	now := time.Now().UTC()
	for i := range movements {
		if movements[i].ID == 0 {
			movements[i].ID = s.genID.Generate()
		}
		movements[i].CreatedAt = now
		if err := tx.WithContext(ctx).Create(&movements[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) NegateForSource(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, sourceType string, sourceID snowflake.ID, movedAt time.Time) error {
	var originals []inventorydomain.Movement
	if err := tx.WithContext(ctx).
		Where("org_id = ? AND source_type = ? AND source_id = ?", orgID, sourceType, sourceID).
		Order("id ASC").
		Find(&originals).Error; err != nil {
		return err
	}

	mirrors := make([]inventorydomain.Movement, 0, len(originals))
	for _, original := range originals {
		mirrors = append(mirrors, inventorydomain.Movement{
			OrgID:        original.OrgID,
			ItemID:       original.ItemID,
			SourceType:   sourceType + ".reversal",
			SourceID:     sourceID,
			SourceLineNo: original.SourceLineNo,
			Quantity:     original.Quantity.Neg(),
			UnitCost:     original.UnitCost,
			MovedAt:      movedAt.UTC(),
		})
	}

	return s.Record(ctx, tx, mirrors)
}
