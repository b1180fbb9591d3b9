package client

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rafflelab/backend/pkg/peerplays"
	"github.com/rafflelab/backend/pkg/peerplays/peerplaystest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testChainID = "b8d1603965b3eb1acba27e62ff59f74efa3154d43a4188d381088ac7cdf35539"

func nodeResults() map[string]any {
	return map[string]any{
		"get_chain_id":          testChainID,
		"get_global_properties": map[string]any{"id": "2.0.0"},
		"get_dynamic_global_properties": map[string]any{
			"head_block_number": 100,
			"head_block_id":     "00000064aabbccdd0000000000000000000000ff",
			"time":              "2020-04-01T00:00:00",
		},
		"get_required_fees": []any{map[string]any{"amount": 20, "asset_id": "1.3.0"}},
		"broadcast_transaction_synchronous": map[string]any{
			"id": "abcdef", "block_num": 101, "trx_num": 0,
		},
		"get_assets": []any{map[string]any{"id": "1.3.1", "symbol": "TICKET", "precision": 3}},
	}
}

func newTestGateway(t *testing.T, results map[string]any) (*peerplaysGateway, *peerplaystest.Node) {
	node, endpoint := peerplaystest.NewNode(t, results)

	c, err := peerplays.Dial(context.Background(), peerplays.ClientConfigs{Endpoints: []string{endpoint}})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	gateway, err := NewPeerplaysGateway(context.Background(), c, "", "1.3.1", decimal.RequireFromString("1.5"))
	require.NoError(t, err)
	gateway.SetAssetPrecision("1.3.0", 5)

	return gateway, node
}

func testAccount(t *testing.T) ChainAccount {
	account, err := PlayerChainAccount("1.2.17", "alice", "secret")
	require.NoError(t, err)
	return account
}

// broadcastOperation decodes the i-th operation of the n-th broadcast
// transaction into op and returns its operation id.
func broadcastOperation(t *testing.T, node *peerplaystest.Node, n, i int, op any) uint64 {
	calls := node.Calls("broadcast_transaction_synchronous")
	require.Greater(t, len(calls), n)
	require.NotEmpty(t, calls[n].Args)

	var tx struct {
		Operations [][]json.RawMessage `json:"operations"`
		Signatures []string            `json:"signatures"`
	}
	require.NoError(t, json.Unmarshal(calls[n].Args[0], &tx))
	require.Greater(t, len(tx.Operations), i)
	require.Len(t, tx.Signatures, 1)

	var id uint64
	require.NoError(t, json.Unmarshal(tx.Operations[i][0], &id))
	require.NoError(t, json.Unmarshal(tx.Operations[i][1], op))
	return id
}

func Test_peerplaysGateway_NewLoadsChainID(t *testing.T) {
	gateway, node := newTestGateway(t, nodeResults())

	require.Equal(t, testChainID, gateway.chainID)
	require.GreaterOrEqual(t, node.Called("get_chain_id"), 2)
}

func Test_peerplaysGateway_Transfer(t *testing.T) {
	gateway, node := newTestGateway(t, nodeResults())

	result, err := gateway.Transfer(context.Background(), testAccount(t), "1.2.18",
		decimal.RequireFromString("1.234567"), "1.3.0")
	require.NoError(t, err)
	require.Equal(t, "abcdef", result.TxRef)
	require.Equal(t, uint32(101), result.BlockNum)
	require.True(t, decimal.RequireFromString("1.234567").Equal(result.Amount))

	var op peerplays.TransferOperation
	require.Equal(t, uint64(peerplays.TransferOperationID), broadcastOperation(t, node, 0, 0, &op))
	require.Equal(t, "1.2.17", op.From.String())
	require.Equal(t, "1.2.18", op.To.String())

	// Amounts are rounded down to the precision of the asset.
	require.Equal(t, int64(123456), op.Amount.Amount)
	require.Equal(t, int64(20), op.Fee.Amount)

	require.Zero(t, node.Called("get_assets"))
}

func Test_peerplaysGateway_Transfer_InvalidAccount(t *testing.T) {
	gateway, node := newTestGateway(t, nodeResults())

	_, err := gateway.Transfer(context.Background(), testAccount(t), "alice", decimal.NewFromInt(1), "1.3.0")
	require.Error(t, err)
	require.Zero(t, node.Called("broadcast_transaction_synchronous"))
}

func Test_peerplaysGateway_PurchaseTicket(t *testing.T) {
	gateway, node := newTestGateway(t, nodeResults())

	for i := 0; i < 2; i++ {
		result, err := gateway.PurchaseTicket(context.Background(), "1.3.25", 2, testAccount(t))
		require.NoError(t, err)
		require.Equal(t, "abcdef", result.TxRef)
	}

	var op peerplays.TicketPurchaseOperation
	require.Equal(t, uint64(peerplays.TicketPurchaseOperationID), broadcastOperation(t, node, 1, 0, &op))
	require.Equal(t, "1.3.25", op.Lottery.String())
	require.Equal(t, uint64(2), op.TicketsToBuy)
	require.Equal(t, "1.3.1", op.Amount.AssetID.String())
	require.Equal(t, int64(3000), op.Amount.Amount)

	// The precision of the ticket asset is read from the chain once.
	require.Equal(t, 1, node.Called("get_assets"))

	_, err := gateway.PurchaseTicket(context.Background(), "1.3.25", 0, testAccount(t))
	require.Error(t, err)
}

func Test_peerplaysGateway_InsufficientBalance(t *testing.T) {
	results := nodeResults()
	results["broadcast_transaction_synchronous"] = peerplaystest.Handler(func([]json.RawMessage) (any, error) {
		return nil, errors.New("Assert Exception: insufficient_balance: Insufficient Balance: alice's balance of 0 PPY")
	})
	gateway, _ := newTestGateway(t, results)

	_, err := gateway.Transfer(context.Background(), testAccount(t), "1.2.18", decimal.NewFromInt(1), "1.3.0")
	require.Error(t, err)
	require.True(t, IsInsufficientBalance(err))

	_, err = gateway.PurchaseTicket(context.Background(), "1.3.25", 1, testAccount(t))
	require.True(t, IsInsufficientBalance(err))

	require.False(t, IsInsufficientBalance(errors.New("missing required active authority")))
	require.False(t, IsInsufficientBalance(nil))
}

func Test_peerplaysGateway_GetAccountIDByName(t *testing.T) {
	results := nodeResults()
	results["get_account_by_name"] = peerplaystest.Handler(func(args []json.RawMessage) (any, error) {
		var name string
		if err := json.Unmarshal(args[0], &name); err != nil {
			return nil, err
		}

		if name != "alice" {
			return nil, nil
		}

		return map[string]any{"id": "1.2.17", "name": "alice"}, nil
	})
	gateway, _ := newTestGateway(t, results)

	id, err := gateway.GetAccountIDByName(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, "1.2.17", id)

	id, err = gateway.GetAccountIDByName(context.Background(), "bob")
	require.NoError(t, err)
	require.Empty(t, id)
}

func ticketPurchaseEntry(historyID, lottery, buyer string, tickets int) map[string]any {
	return map[string]any{
		"id":        historyID,
		"block_num": 10,
		"op": []any{peerplays.TicketPurchaseOperationID, map[string]any{
			"fee":            map[string]any{"amount": 0, "asset_id": "1.3.1"},
			"lottery":        lottery,
			"buyer":          buyer,
			"tickets_to_buy": tickets,
			"amount":         map[string]any{"amount": "1500", "asset_id": "1.3.1"},
			"extensions":     []any{},
		}},
	}
}

func lotteryHistoryResults() map[string]any {
	results := nodeResults()

	// Newest first, the way nodes return account history.
	results["get_account_history_operations"] = []any{
		ticketPurchaseEntry("1.11.21", "1.3.25", "1.2.17", 2),
		ticketPurchaseEntry("1.11.20", "1.3.25", "1.2.99", 1),
		map[string]any{
			"id":        "1.11.19",
			"block_num": 9,
			"op": []any{peerplays.TransferOperationID, map[string]any{
				"fee":        map[string]any{"amount": 20, "asset_id": "1.3.0"},
				"from":       "1.2.100",
				"to":         "1.2.17",
				"amount":     map[string]any{"amount": 100, "asset_id": "1.3.0"},
				"extensions": []any{},
			}},
		},
		ticketPurchaseEntry("1.11.7", "1.3.26", "1.2.17", 1),
	}

	results["get_global_lottery_winners"] = []any{
		map[string]any{
			"id": "2.21.3", "lottery": "1.3.25", "winner": "1.2.17",
			"ticket_purchase": "1.11.21", "ticket_unit": 1,
		},
		map[string]any{
			"id": "2.21.4", "lottery": "1.3.26", "winner": "1.2.17",
			"ticket_purchase": "1.11.0", "ticket_unit": 0,
		},
		map[string]any{"id": "2.21.5", "lottery": "1.3.27", "winner": "1.2.18"},
	}

	return results
}

func Test_peerplaysGateway_GetAccountLotteryHistory(t *testing.T) {
	gateway, node := newTestGateway(t, lotteryHistoryResults())

	tickets, err := gateway.GetAccountLotteryHistory(context.Background(), "1.2.17")
	require.NoError(t, err)

	require.Equal(t, []LotteryTicket{
		{LotteryID: "1.3.26", TicketRef: "1.11.7:0", Sequence: 7, Ordinal: 0},
		{LotteryID: "1.3.25", TicketRef: "1.11.21:0", Sequence: 21, Ordinal: 0},
		{LotteryID: "1.3.25", TicketRef: "1.11.21:1", Sequence: 21, Ordinal: 1},
	}, tickets)

	calls := node.Calls("get_account_history_operations")
	require.Len(t, calls, 1)
	require.Equal(t, "history", calls[0].Api)

	var account string
	require.NoError(t, json.Unmarshal(calls[0].Args[0], &account))
	require.Equal(t, "1.2.17", account)

	_, err = gateway.GetAccountLotteryHistory(context.Background(), "alice")
	require.Error(t, err)
}

func Test_peerplaysGateway_GetGlobalLotteryWinners(t *testing.T) {
	gateway, node := newTestGateway(t, lotteryHistoryResults())

	winners, err := gateway.GetGlobalLotteryWinners(context.Background(), 3)
	require.NoError(t, err)

	require.Equal(t, []LotteryWinner{
		{Sequence: 3, LotteryID: "1.3.25", WinnerAccountID: "1.2.17", WinningTicketRef: "1.11.21:1"},
		{Sequence: 4, LotteryID: "1.3.26", WinnerAccountID: "1.2.17"},
		{Sequence: 5, LotteryID: "1.3.27", WinnerAccountID: "1.2.18"},
	}, winners)

	var since uint64
	require.NoError(t, json.Unmarshal(node.Calls("get_global_lottery_winners")[0].Args[0], &since))
	require.Equal(t, uint64(3), since)

	// The winning ticket names one of the tickets of the winner's history.
	tickets, err := gateway.GetAccountLotteryHistory(context.Background(), "1.2.17")
	require.NoError(t, err)
	require.Equal(t, tickets[2].TicketRef, winners[0].WinningTicketRef)
	require.True(t, IsZeroTicketRef(winners[1].WinningTicketRef))
}

func Test_peerplaysGateway_GetRequiredTransferFee(t *testing.T) {
	gateway, node := newTestGateway(t, nodeResults())

	fee, err := gateway.GetRequiredTransferFee(context.Background(), "1.3.0")
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString("0.0002").Equal(fee), fee.String())

	fee, err = gateway.GetRequiredTransferFee(context.Background(), "1.3.1")
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString("0.02").Equal(fee), fee.String())
	require.Equal(t, 1, node.Called("get_assets"))
}

func Test_peerplaysGateway_CreateLottery(t *testing.T) {
	results := nodeResults()
	results["broadcast_transaction_synchronous"] = map[string]any{
		"id": "fedcba", "block_num": 102, "trx_num": 0,
		"trx": map[string]any{"operation_results": []any{[]any{1, "1.3.42"}}},
	}
	gateway, node := newTestGateway(t, results)
	gateway.SetMaxTicketSupply(5000)

	issuer := testAccount(t)
	endDate := time.Date(2020, 5, 1, 18, 0, 0, 0, time.UTC)

	result, err := gateway.CreateLottery(context.Background(), CreateLotteryRequest{
		Issuer:      issuer,
		Name:        "Spring raffle",
		Description: "Spring raffle of the club",
		EndDate:     endDate,
	})
	require.NoError(t, err)
	require.Equal(t, &LotteryResult{LotteryID: "1.3.42", BlockNum: 102, TxRef: "fedcba"}, result)

	var op peerplays.LotteryAssetCreateOperation
	require.Equal(t, uint64(peerplays.LotteryAssetCreateOperationID), broadcastOperation(t, node, 0, 0, &op))
	require.Equal(t, "1.2.17", op.Issuer.String())
	require.Regexp(t, "^[A-Z]{16}$", op.Symbol)
	require.Equal(t, int64(5000), op.CommonOptions.MaxSupply)
	require.Contains(t, op.CommonOptions.Description, `"lottoName":"Spring raffle"`)
	require.Equal(t, []peerplays.Benefactor{{ID: op.Issuer, Share: peerplays.HalfShare}}, op.Extensions.Benefactors)
	require.Equal(t, []uint16{peerplays.HalfShare}, op.Extensions.WinningTickets)
	require.Equal(t, "1.3.1", op.Extensions.TicketPrice.AssetID.String())
	require.Equal(t, int64(1500), op.Extensions.TicketPrice.Amount)
	require.True(t, endDate.Equal(time.Time(op.Extensions.EndDate)))
	require.True(t, op.Extensions.IsActive)
}

func Test_peerplaysGateway_CreateLottery_NoResult(t *testing.T) {
	gateway, _ := newTestGateway(t, nodeResults())

	_, err := gateway.CreateLottery(context.Background(), CreateLotteryRequest{
		Issuer:  testAccount(t),
		Name:    "Spring raffle",
		EndDate: time.Now().Add(time.Hour),
	})
	require.Error(t, err)
}
