package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/rafflelab/backend/internal/entity"
	"github.com/rafflelab/backend/internal/model"
	"github.com/rafflelab/backend/pkg/testutil"
	"github.com/rafflelab/backend/pkg/xcontext"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func (st *settlementTest) passDraw(t *testing.T, raffleID string) {
	t.Helper()
	err := xcontext.DB(st.ctx).
		Model(&entity.Raffle{}).
		Where("id=?", raffleID).
		Update("draw_datetime", time.Now().Add(-time.Minute)).Error
	require.NoError(t, err)
}

func (st *settlementTest) buy(t *testing.T, player *entity.User, bundle *entity.Bundle) []model.Entry {
	t.Helper()
	saleID := st.createSale(t, player, bundle, entity.PaymentTypeCash, "")
	result, err := st.purchase.ProcessPurchase(st.ctx, saleID)
	require.NoError(t, err)
	return result.Entries
}

func (st *settlementTest) resolve(t *testing.T) bool {
	t.Helper()
	resp, err := st.resolver.ResolvePendingRaffles(st.ctx, &model.ResolvePendingRafflesRequest{})
	require.NoError(t, err)
	return resp.Completed
}

func (st *settlementTest) raffle(t *testing.T, id string) *entity.Raffle {
	t.Helper()
	raffle, err := st.raffleRepo.GetByID(st.ctx, id)
	require.NoError(t, err)
	return raffle
}

func (st *settlementTest) raffleLedger(t *testing.T, raffleID string) map[entity.TransactionType]decimal.Decimal {
	t.Helper()
	rows, err := st.ledger.ListPayoutsByRaffle(st.ctx, raffleID)
	require.NoError(t, err)

	result := map[entity.TransactionType]decimal.Decimal{}
	for _, r := range rows {
		result[r.TransactionType] = result[r.TransactionType].Add(r.Amount)
	}
	return result
}

func (st *settlementTest) transfersTo(to string) []testutil.FakeTransfer {
	var result []testutil.FakeTransfer
	for _, tr := range st.gateway.Transfers {
		if tr.To == to {
			result = append(result, tr)
		}
	}
	return result
}

func entryIDs(entries []model.Entry) []string {
	var ids []string
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}

func Test_resolverDomain_ResolvePendingRaffles_ExplicitTicket(t *testing.T) {
	st := newSettlementTest(t)
	entries := st.buy(t, testutil.Player1, testutil.Bundle1)
	st.passDraw(t, testutil.NormalRaffle1.ID)

	st.gateway.AddWinner(testutil.NormalRaffle1.ChainLotteryRef, testutil.Player1.PeerplaysAccountID,
		entries[1].ChainTicketRef)
	st.resolver.randIntn = func(int) int {
		t.Fatal("random pick with an explicit winning ticket")
		return 0
	}

	transfersBefore := len(st.gateway.Transfers)
	require.True(t, st.resolve(t))

	raffle := st.raffle(t, testutil.NormalRaffle1.ID)
	require.Equal(t, testutil.Player1.ID, raffle.WinnerID.String)
	require.Equal(t, entries[1].ID, raffle.WinningEntryID.String)
	require.True(t, raffle.PayoutSettled)

	ledger := st.raffleLedger(t, raffle.ID)
	require.Len(t, ledger, 2)
	requireDecimal(t, "5", ledger[entity.TransactionWinnings])
	requireDecimal(t, "4", ledger[entity.TransactionDonations])

	// Winnings, sweep back to the house and donations.
	payouts := st.gateway.Transfers[transfersBefore:]
	require.Len(t, payouts, 3)
	for i, want := range []struct{ from, to, amount string }{
		{testutil.ReceiverAccount.ID, testutil.Player1.PeerplaysAccountID, "5"},
		{testutil.Player1.PeerplaysAccountID, testutil.PaymentAccount.ID, "5"},
		{testutil.ReceiverAccount.ID, testutil.PaymentAccount.ID, "4"},
	} {
		require.Equal(t, want.from, payouts[i].From)
		require.Equal(t, want.to, payouts[i].To)
		require.Equal(t, testutil.SendAssetID, payouts[i].AssetID)
		requireDecimal(t, want.amount, payouts[i].Amount)
	}

	st.notifier.AssertCalled(t, "NotifyWinner", mock.Anything, mock.MatchedBy(func(n model.WinnerNotification) bool {
		return n.RaffleID == raffle.ID && n.WinnerID == testutil.Player1.ID &&
			n.WinningEntryID == entries[1].ID && n.Jackpot.Equal(dec("5"))
	}))
}

func Test_resolverDomain_ResolvePendingRaffles_Fallback(t *testing.T) {
	tests := []struct {
		name      string
		ticketRef string
	}{
		{name: "no winning ticket", ticketRef: "0"},
		{name: "empty winning ticket", ticketRef: ""},
		{name: "ticket of someone else", ticketRef: "1.11.9999:0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newSettlementTest(t)
			entries := st.buy(t, testutil.Player1, testutil.Bundle1)
			st.passDraw(t, testutil.NormalRaffle1.ID)
			st.gateway.AddWinner(testutil.NormalRaffle1.ChainLotteryRef, testutil.Player1.PeerplaysAccountID, tt.ticketRef)

			picks := 0
			st.resolver.randIntn = func(n int) int {
				picks++
				require.Equal(t, len(entries), n)
				return n - 1
			}

			require.True(t, st.resolve(t))
			require.Equal(t, 1, picks)

			raffle := st.raffle(t, testutil.NormalRaffle1.ID)
			require.Equal(t, testutil.Player1.ID, raffle.WinnerID.String)
			require.Contains(t, entryIDs(entries), raffle.WinningEntryID.String)
		})
	}
}

func Test_resolverDomain_ResolvePendingRaffles_LatestWinner(t *testing.T) {
	st := newSettlementTest(t)
	st.buy(t, testutil.Player1, testutil.Bundle2)
	entries := st.buy(t, testutil.Player2, testutil.Bundle2)
	st.passDraw(t, testutil.NormalRaffle2.ID)

	st.gateway.AddWinner(testutil.NormalRaffle2.ChainLotteryRef, "1.2.9999", "0")
	st.gateway.AddWinner(testutil.NormalRaffle2.ChainLotteryRef, testutil.Player2.PeerplaysAccountID,
		entries[0].ChainTicketRef)

	require.True(t, st.resolve(t))

	raffle := st.raffle(t, testutil.NormalRaffle2.ID)
	require.Equal(t, testutil.Player2.ID, raffle.WinnerID.String)
	require.Equal(t, entries[0].ID, raffle.WinningEntryID.String)

	// Two sales of $10: half to the jackpot, the other half donated.
	ledger := st.raffleLedger(t, raffle.ID)
	requireDecimal(t, "10", ledger[entity.TransactionWinnings])
	requireDecimal(t, "10", ledger[entity.TransactionDonations])

	st.notifier.AssertNotCalled(t, "NotifyWinner", mock.Anything, mock.Anything)
}

func Test_resolverDomain_ResolvePendingRaffles_Progressive(t *testing.T) {
	st := newSettlementTest(t)
	entries := st.buy(t, testutil.Player1, testutil.Bundle1)
	st.passDraw(t, testutil.ProgressiveRaffle1.ID)

	st.gateway.AddWinner(testutil.ProgressiveRaffle1.ChainLotteryRef, testutil.Player1.PeerplaysAccountID,
		entries[2].ChainProgressiveTicketRef)

	require.True(t, st.resolve(t))

	raffle := st.raffle(t, testutil.ProgressiveRaffle1.ID)
	require.Equal(t, testutil.Player1.ID, raffle.WinnerID.String)
	require.Equal(t, entries[2].ID, raffle.WinningEntryID.String)
	require.True(t, raffle.PayoutSettled)

	ledger := st.raffleLedger(t, raffle.ID)
	require.Len(t, ledger, 1)
	requireDecimal(t, "1", ledger[entity.TransactionWinnings])

	// The normal raffle is still waiting for its draw.
	require.False(t, st.raffle(t, testutil.NormalRaffle1.ID).WinnerID.Valid)
}

func Test_resolverDomain_ResolvePendingRaffles_Unresolved(t *testing.T) {
	tests := []struct {
		name  string
		setup func(st *settlementTest, entries []model.Entry)
	}{
		{
			name:  "no winner on chain",
			setup: func(st *settlementTest, entries []model.Entry) {},
		},
		{
			name: "winner of another lottery",
			setup: func(st *settlementTest, entries []model.Entry) {
				st.gateway.AddWinner("1.3.999", testutil.Player1.PeerplaysAccountID, entries[0].ChainTicketRef)
			},
		},
		{
			name: "unknown winner account",
			setup: func(st *settlementTest, entries []model.Entry) {
				st.gateway.AddWinner(testutil.NormalRaffle1.ChainLotteryRef, "1.2.9999", "0")
			},
		},
		{
			name: "winner without entries",
			setup: func(st *settlementTest, entries []model.Entry) {
				st.gateway.AddWinner(testutil.NormalRaffle1.ChainLotteryRef, testutil.Player2.PeerplaysAccountID, "0")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newSettlementTest(t)
			entries := st.buy(t, testutil.Player1, testutil.Bundle1)
			st.passDraw(t, testutil.NormalRaffle1.ID)
			tt.setup(st, entries)

			transfersBefore := len(st.gateway.Transfers)
			require.True(t, st.resolve(t))

			raffle := st.raffle(t, testutil.NormalRaffle1.ID)
			require.False(t, raffle.WinnerID.Valid)
			require.False(t, raffle.WinningEntryID.Valid)
			require.Len(t, st.gateway.Transfers, transfersBefore)

			// The raffle is picked up again by the next run.
			require.True(t, st.resolve(t))
			require.Equal(t, 2, st.gateway.CallCount("GetGlobalLotteryWinners"))
		})
	}
}

func Test_resolverDomain_ResolvePendingRaffles_FutureDraw(t *testing.T) {
	st := newSettlementTest(t)
	entries := st.buy(t, testutil.Player1, testutil.Bundle1)
	st.gateway.AddWinner(testutil.NormalRaffle1.ChainLotteryRef, testutil.Player1.PeerplaysAccountID,
		entries[0].ChainTicketRef)

	require.True(t, st.resolve(t))
	require.Zero(t, st.gateway.CallCount("GetGlobalLotteryWinners"))
	require.False(t, st.raffle(t, testutil.NormalRaffle1.ID).WinnerID.Valid)
}

func Test_resolverDomain_ResolvePendingRaffles_NoRevisit(t *testing.T) {
	st := newSettlementTest(t)
	entries := st.buy(t, testutil.Player1, testutil.Bundle1)
	st.passDraw(t, testutil.NormalRaffle1.ID)
	st.gateway.AddWinner(testutil.NormalRaffle1.ChainLotteryRef, testutil.Player1.PeerplaysAccountID,
		entries[0].ChainTicketRef)

	require.True(t, st.resolve(t))
	transfers := len(st.gateway.Transfers)

	// A later winner on the same lottery does not change a resolved raffle.
	st.gateway.AddWinner(testutil.NormalRaffle1.ChainLotteryRef, testutil.Player1.PeerplaysAccountID,
		entries[1].ChainTicketRef)
	require.True(t, st.resolve(t))

	require.Equal(t, 1, st.gateway.CallCount("GetGlobalLotteryWinners"))
	require.Len(t, st.gateway.Transfers, transfers)
	require.Equal(t, entries[0].ID, st.raffle(t, testutil.NormalRaffle1.ID).WinningEntryID.String)
	st.notifier.AssertNumberOfCalls(t, "NotifyWinner", 1)
}

func Test_resolverDomain_ResolvePendingRaffles_WinnersFeedError(t *testing.T) {
	st := newSettlementTest(t)
	st.buy(t, testutil.Player1, testutil.Bundle1)
	st.passDraw(t, testutil.NormalRaffle1.ID)
	st.gateway.WinnersErr = errors.New("connection refused")

	_, err := st.resolver.ResolvePendingRaffles(st.ctx, &model.ResolvePendingRafflesRequest{})
	require.Error(t, err)
	require.False(t, st.raffle(t, testutil.NormalRaffle1.ID).WinnerID.Valid)
}

func Test_resolverDomain_SettlePendingPayouts_Retry(t *testing.T) {
	st := newSettlementTest(t)
	entries := st.buy(t, testutil.Player1, testutil.Bundle1)
	st.passDraw(t, testutil.NormalRaffle1.ID)
	st.gateway.AddWinner(testutil.NormalRaffle1.ChainLotteryRef, testutil.Player1.PeerplaysAccountID,
		entries[0].ChainTicketRef)

	toPlayer := len(st.transfersTo(testutil.Player1.PeerplaysAccountID))
	st.gateway.OnTransfer = func(from, to string, amount decimal.Decimal, assetID string) error {
		if from == testutil.ReceiverAccount.ID && to == testutil.PaymentAccount.ID {
			return errors.New("connection reset")
		}
		return nil
	}

	require.False(t, st.resolve(t))

	raffle := st.raffle(t, testutil.NormalRaffle1.ID)
	require.Equal(t, testutil.Player1.ID, raffle.WinnerID.String)
	require.False(t, raffle.PayoutSettled)

	ledger := st.raffleLedger(t, raffle.ID)
	require.Len(t, ledger, 1)
	requireDecimal(t, "5", ledger[entity.TransactionWinnings])

	st.gateway.OnTransfer = nil
	require.NoError(t, st.resolver.SettlePendingPayouts(st.ctx))

	raffle = st.raffle(t, testutil.NormalRaffle1.ID)
	require.True(t, raffle.PayoutSettled)

	ledger = st.raffleLedger(t, raffle.ID)
	requireDecimal(t, "5", ledger[entity.TransactionWinnings])
	requireDecimal(t, "4", ledger[entity.TransactionDonations])

	// The winnings were not paid twice.
	require.Len(t, st.transfersTo(testutil.Player1.PeerplaysAccountID), toPlayer+1)
	require.NoError(t, st.resolver.SettlePendingPayouts(st.ctx))
	require.Len(t, st.transfersTo(testutil.PaymentAccount.ID), 2)
}
