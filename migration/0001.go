package migration

import (
	"context"

	"github.com/rafflelab/backend/internal/entity"
	"github.com/rafflelab/backend/pkg/xcontext"
)

// migrate0001 backfills the settlement state of sales paid before the state
// was tracked, and the payout flag of raffles already resolved.
func migrate0001(ctx context.Context) error {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	err := xcontext.DB(ctx).
		Model(&entity.Sale{}).
		Where("payment_status=? AND (settlement_state IS NULL OR settlement_state='' OR settlement_state=?)",
			entity.PaymentStatusSuccess, entity.SettlementInitiated).
		Update("settlement_state", entity.SettlementEntriesIssued).Error
	if err != nil {
		return err
	}

	err = xcontext.DB(ctx).
		Model(&entity.Sale{}).
		Where("settlement_state IS NULL OR settlement_state=''").
		Update("settlement_state", entity.SettlementInitiated).Error
	if err != nil {
		return err
	}

	err = xcontext.DB(ctx).
		Model(&entity.Raffle{}).
		Where("winner_id IS NOT NULL").
		Update("payout_settled", true).Error
	if err != nil {
		return err
	}

	return xcontext.WithCommitDBTransaction(ctx)
}
