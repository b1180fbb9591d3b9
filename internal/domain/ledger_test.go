package domain

import (
	"testing"

	"github.com/rafflelab/backend/internal/entity"
	"github.com/rafflelab/backend/internal/repository"
	"github.com/rafflelab/backend/pkg/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func Test_settlementLedger(t *testing.T) {
	ctx := testutil.NewMockContext()
	ledger := NewSettlementLedger(repository.NewTransactionRepository())

	recorded, err := ledger.HasRecorded(ctx, "sale1", entity.StepFiatSettlement)
	require.NoError(t, err)
	require.False(t, recorded)

	id, err := ledger.Record(ctx, LedgerRecord{
		SaleID:   "sale1",
		RaffleID: "raffle1",
		Step:     entity.StepFiatSettlement,
		Type:     entity.TransactionCardBuy,
		From:     "1.2.100",
		To:       "1.2.1001",
		Amount:   decimal.NewFromInt(10),
		AssetID:  "1.3.0",
		BlockNum: 12,
		TxRef:    "tx-12",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	recorded, err = ledger.HasRecorded(ctx, "sale1", entity.StepFiatSettlement)
	require.NoError(t, err)
	require.True(t, recorded)

	// Steps of other sales and other steps of the same sale are distinct.
	recorded, err = ledger.HasRecorded(ctx, "sale1", entity.StepEscrowSettlement)
	require.NoError(t, err)
	require.False(t, recorded)

	recorded, err = ledger.HasRecorded(ctx, "sale2", entity.StepFiatSettlement)
	require.NoError(t, err)
	require.False(t, recorded)

	_, err = ledger.Record(ctx, LedgerRecord{
		SaleID: "sale1",
		Step:   entity.StepFiatSettlement,
		Type:   entity.TransactionCardBuy,
		Amount: decimal.NewFromInt(10),
	})
	require.ErrorIs(t, err, ErrLedgerDuplicated)

	rows, err := ledger.ListBySale(ctx, "sale1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "tx-12", rows[0].ChainTxRef)
	require.Equal(t, uint32(12), rows[0].ChainBlockNum)
	require.Equal(t, "raffle1", rows[0].RaffleID.String)
	require.True(t, rows[0].Amount.Equal(decimal.NewFromInt(10)))
}

func Test_settlementLedger_Raffle(t *testing.T) {
	ctx := testutil.NewMockContext()
	ledger := NewSettlementLedger(repository.NewTransactionRepository())

	_, err := ledger.Record(ctx, LedgerRecord{
		RaffleID: "raffle1",
		Step:     entity.StepWinnings,
		Type:     entity.TransactionWinnings,
		Amount:   decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	recorded, err := ledger.HasRecordedForRaffle(ctx, "raffle1", entity.StepWinnings)
	require.NoError(t, err)
	require.True(t, recorded)

	recorded, err = ledger.HasRecordedForRaffle(ctx, "raffle1", entity.StepDonations)
	require.NoError(t, err)
	require.False(t, recorded)

	_, err = ledger.Record(ctx, LedgerRecord{
		SaleID:   "sale1",
		RaffleID: "raffle1",
		Step:     entity.StepFiatSettlement,
		Type:     entity.TransactionCashBuy,
		Amount:   decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	rows, err := ledger.ListByRaffle(ctx, "raffle1")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, err = ledger.ListPayoutsByRaffle(ctx, "raffle1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.False(t, rows[0].SaleID.Valid)
	require.Equal(t, entity.TransactionWinnings, rows[0].TransactionType)
}
