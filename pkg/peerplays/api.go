package peerplays

import (
	"context"
	"fmt"
)

const (
	apiDatabase  = "database"
	apiHistory   = "history"
	apiBroadcast = "network_broadcast"

	methodGetChainID                 = "get_chain_id"
	methodGetGlobalProperties        = "get_global_properties"
	methodGetDynamicGlobalProperties = "get_dynamic_global_properties"
	methodGetAccountByName           = "get_account_by_name"
	methodGetAssets                  = "get_assets"
	methodGetRequiredFees            = "get_required_fees"
	methodGetLotteryWinners          = "get_global_lottery_winners"
	methodGetAccountHistoryOps       = "get_account_history_operations"
	methodBroadcastSynchronous       = "broadcast_transaction_synchronous"

	historyPageLimit = 100
)

func (c *Client) GetChainID(ctx context.Context) (string, error) {
	var id string
	if err := c.Call(ctx, &id, apiDatabase, methodGetChainID); err != nil {
		return "", err
	}

	return id, nil
}

func (c *Client) GetDynamicGlobalProperties(ctx context.Context) (*DynamicGlobalProperties, error) {
	var props DynamicGlobalProperties
	if err := c.Call(ctx, &props, apiDatabase, methodGetDynamicGlobalProperties); err != nil {
		return nil, err
	}

	return &props, nil
}

// GetAccountByName returns nil without error if the account does not exist.
func (c *Client) GetAccountByName(ctx context.Context, name string) (*Account, error) {
	var account *Account
	if err := c.Call(ctx, &account, apiDatabase, methodGetAccountByName, name); err != nil {
		return nil, err
	}

	return account, nil
}

func (c *Client) GetRequiredFees(ctx context.Context, feeAsset ObjectID, ops ...Operation) ([]AssetAmount, error) {
	envelopes := make([]operationEnvelope, 0, len(ops))
	for _, op := range ops {
		envelopes = append(envelopes, operationEnvelope{op: op})
	}

	var fees []AssetAmount
	if err := c.Call(ctx, &fees, apiDatabase, methodGetRequiredFees, envelopes, feeAsset); err != nil {
		return nil, err
	}

	if len(fees) != len(ops) {
		return nil, fmt.Errorf("expected %d fees, got %d", len(ops), len(fees))
	}

	return fees, nil
}

func (c *Client) GetLotteryWinners(ctx context.Context, since uint64) ([]LotteryWinner, error) {
	var winners []LotteryWinner
	if err := c.Call(ctx, &winners, apiDatabase, methodGetLotteryWinners, since); err != nil {
		return nil, err
	}

	return winners, nil
}

// GetAccountHistoryOperations returns every history entry of the given
// operation type, newest first.
func (c *Client) GetAccountHistoryOperations(
	ctx context.Context, account ObjectID, operationID uint64,
) ([]OperationHistory, error) {
	historyID := func(instance uint64) string { return fmt.Sprintf("1.11.%d", instance) }

	var all []OperationHistory
	start := uint64(0)
	for {
		var page []OperationHistory
		err := c.Call(ctx, &page, apiHistory, methodGetAccountHistoryOps,
			account.String(), operationID, historyID(start), historyID(0), historyPageLimit)
		if err != nil {
			return nil, err
		}

		all = append(all, page...)
		if len(page) < historyPageLimit {
			return all, nil
		}

		last := page[len(page)-1].ID.Instance
		if last <= 1 {
			return all, nil
		}

		start = last - 1
	}
}

// BroadcastSigned fills fees, references the head block, signs and broadcasts
// ops, waiting until the transaction is included in a block.
func (c *Client) BroadcastSigned(
	ctx context.Context, chainID string, feeAsset ObjectID, key *PrivateKey, ops ...Operation,
) (*BroadcastResult, error) {
	fees, err := c.GetRequiredFees(ctx, feeAsset, ops...)
	if err != nil {
		return nil, err
	}

	for i, op := range ops {
		op.SetFee(fees[i])
	}

	props, err := c.GetDynamicGlobalProperties(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := NewTransaction(props, ops...)
	if err != nil {
		return nil, err
	}

	if err := tx.Sign(chainID, key); err != nil {
		return nil, err
	}

	var result BroadcastResult
	if err := c.Call(ctx, &result, apiBroadcast, methodBroadcastSynchronous, tx); err != nil {
		return nil, err
	}

	return &result, nil
}

type assetObject struct {
	ID        ObjectID `json:"id"`
	Symbol    string   `json:"symbol"`
	Precision int32    `json:"precision"`
}

func (c *Client) GetAssetPrecision(ctx context.Context, assetID string) (int32, error) {
	var assets []*assetObject
	if err := c.Call(ctx, &assets, apiDatabase, methodGetAssets, []string{assetID}); err != nil {
		return 0, err
	}

	if len(assets) != 1 || assets[0] == nil {
		return 0, fmt.Errorf("not found asset %s", assetID)
	}

	return assets[0].Precision, nil
}
