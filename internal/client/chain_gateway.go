package client

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v2"
	"github.com/rafflelab/backend/pkg/peerplays"
	"github.com/shopspring/decimal"
)

// ChainAccount is a chain account together with the key signing its
// transfers.
type ChainAccount struct {
	ID  string
	Key *peerplays.PrivateKey
}

func NewChainAccount(id, wif string) (ChainAccount, error) {
	key, err := peerplays.FromWIF(wif)
	if err != nil {
		return ChainAccount{}, err
	}

	return ChainAccount{ID: id, Key: key}, nil
}

// PlayerChainAccount derives the active key of a player from its account name
// and master password.
func PlayerChainAccount(accountID, accountName, masterPassword string) (ChainAccount, error) {
	key, err := peerplays.FromPassword(accountName, "active", masterPassword)
	if err != nil {
		return ChainAccount{}, err
	}

	return ChainAccount{ID: accountID, Key: key}, nil
}

type TransferResult struct {
	BlockNum uint32
	TxRef    string
	From     string
	To       string
	Amount   decimal.Decimal
	AssetID  string
}

type BroadcastResult struct {
	BlockNum uint32
	TxRef    string
}

// LotteryTicket is one ticket of the account lottery history. Tickets bought
// by the same operation share Sequence and differ by Ordinal.
type LotteryTicket struct {
	LotteryID string
	TicketRef string
	Sequence  uint64
	Ordinal   int
}

// After reports whether t is newer than o in the history feed.
func (t LotteryTicket) After(o LotteryTicket) bool {
	if t.Sequence != o.Sequence {
		return t.Sequence > o.Sequence
	}

	return t.Ordinal > o.Ordinal
}

type LotteryWinner struct {
	Sequence        uint64
	LotteryID       string
	WinnerAccountID string

	// WinningTicketRef is empty when the chain reports no explicit winning
	// ticket.
	WinningTicketRef string
}

type CreateLotteryRequest struct {
	// Issuer pays for the lottery and receives the benefactor share.
	Issuer      ChainAccount
	Name        string
	Description string
	EndDate     time.Time
}

type LotteryResult struct {
	LotteryID string
	BlockNum  uint32
	TxRef     string
}

type ChainGateway interface {
	// GetAccountIDByName returns an empty id if the account does not exist.
	GetAccountIDByName(ctx context.Context, name string) (string, error)
	Transfer(ctx context.Context, from ChainAccount, to string, amount decimal.Decimal, assetID string) (*TransferResult, error)
	PurchaseTicket(ctx context.Context, lotteryID string, quantity int, buyer ChainAccount) (*BroadcastResult, error)
	GetAccountLotteryHistory(ctx context.Context, accountID string) ([]LotteryTicket, error)
	GetGlobalLotteryWinners(ctx context.Context, sinceSequence uint64) ([]LotteryWinner, error)
	GetRequiredTransferFee(ctx context.Context, assetID string) (decimal.Decimal, error)
	CreateLottery(ctx context.Context, req CreateLotteryRequest) (*LotteryResult, error)
}

const DefaultMaxTicketSupply = 1000000000

type peerplaysGateway struct {
	client        *peerplays.Client
	chainID       string
	ticketAssetID string
	ticketPrice   decimal.Decimal

	maxTicketSupply int64
	precisions      *xsync.MapOf[string, int32]
}

func NewPeerplaysGateway(
	ctx context.Context,
	client *peerplays.Client,
	chainID string,
	ticketAssetID string,
	ticketPrice decimal.Decimal,
) (*peerplaysGateway, error) {
	if chainID == "" {
		var err error
		chainID, err = client.GetChainID(ctx)
		if err != nil {
			return nil, err
		}
	}

	return &peerplaysGateway{
		client:          client,
		chainID:         chainID,
		ticketAssetID:   ticketAssetID,
		ticketPrice:     ticketPrice,
		maxTicketSupply: DefaultMaxTicketSupply,
		precisions:      xsync.NewMapOf[int32](),
	}, nil
}

func (g *peerplaysGateway) GetAccountIDByName(ctx context.Context, name string) (string, error) {
	account, err := g.client.GetAccountByName(ctx, name)
	if err != nil {
		return "", err
	}

	if account == nil {
		return "", nil
	}

	return account.ID.String(), nil
}

func (g *peerplaysGateway) Transfer(
	ctx context.Context, from ChainAccount, to string, amount decimal.Decimal, assetID string,
) (*TransferResult, error) {
	fromID, err := peerplays.ParseObjectID(from.ID)
	if err != nil {
		return nil, err
	}

	toID, err := peerplays.ParseObjectID(to)
	if err != nil {
		return nil, err
	}

	asset, err := g.assetAmount(ctx, amount, assetID)
	if err != nil {
		return nil, err
	}

	op := peerplays.NewTransferOperation(fromID, toID, asset)
	result, err := g.client.BroadcastSigned(ctx, g.chainID, asset.AssetID, from.Key, op)
	if err != nil {
		return nil, err
	}

	return &TransferResult{
		BlockNum: result.BlockNum,
		TxRef:    result.ID,
		From:     from.ID,
		To:       to,
		Amount:   amount,
		AssetID:  assetID,
	}, nil
}

func (g *peerplaysGateway) PurchaseTicket(
	ctx context.Context, lotteryID string, quantity int, buyer ChainAccount,
) (*BroadcastResult, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("invalid ticket quantity %d", quantity)
	}

	lottery, err := peerplays.ParseObjectID(lotteryID)
	if err != nil {
		return nil, err
	}

	buyerID, err := peerplays.ParseObjectID(buyer.ID)
	if err != nil {
		return nil, err
	}

	price, err := g.assetAmount(ctx, g.ticketPrice, g.ticketAssetID)
	if err != nil {
		return nil, err
	}

	op := peerplays.NewTicketPurchaseOperation(lottery, buyerID, uint64(quantity), price)
	result, err := g.client.BroadcastSigned(ctx, g.chainID, price.AssetID, buyer.Key, op)
	if err != nil {
		return nil, err
	}

	return &BroadcastResult{BlockNum: result.BlockNum, TxRef: result.ID}, nil
}

// GetAccountLotteryHistory expands every ticket purchase of the account into
// one ticket per bought unit, ordered oldest first.
func (g *peerplaysGateway) GetAccountLotteryHistory(ctx context.Context, accountID string) ([]LotteryTicket, error) {
	account, err := peerplays.ParseObjectID(accountID)
	if err != nil {
		return nil, err
	}

	history, err := g.client.GetAccountHistoryOperations(ctx, account, peerplays.TicketPurchaseOperationID)
	if err != nil {
		return nil, err
	}

	var tickets []LotteryTicket
	for _, h := range history {
		op, ok, err := peerplays.DecodeTicketPurchase(h.Op)
		if err != nil {
			return nil, fmt.Errorf("cannot decode history %s: %w", h.ID, err)
		}

		if !ok || op.Buyer != account {
			continue
		}

		for i := 0; i < int(op.TicketsToBuy); i++ {
			tickets = append(tickets, LotteryTicket{
				LotteryID: op.Lottery.String(),
				TicketRef: TicketRef(h.ID.String(), i),
				Sequence:  h.ID.Instance,
				Ordinal:   i,
			})
		}
	}

	sort.SliceStable(tickets, func(i, j int) bool { return tickets[j].After(tickets[i]) })
	return tickets, nil
}

func (g *peerplaysGateway) GetGlobalLotteryWinners(
	ctx context.Context, sinceSequence uint64,
) ([]LotteryWinner, error) {
	winners, err := g.client.GetLotteryWinners(ctx, sinceSequence)
	if err != nil {
		return nil, err
	}

	result := make([]LotteryWinner, 0, len(winners))
	for _, w := range winners {
		ticket := ""
		if !isZeroHistoryID(w.TicketPurchase) {
			ticket = TicketRef(w.TicketPurchase, w.TicketUnit)
		}

		result = append(result, LotteryWinner{
			Sequence:         w.ID.Instance,
			LotteryID:        w.Lottery.String(),
			WinnerAccountID:  w.Winner.String(),
			WinningTicketRef: ticket,
		})
	}

	return result, nil
}

func (g *peerplaysGateway) GetRequiredTransferFee(ctx context.Context, assetID string) (decimal.Decimal, error) {
	asset, err := peerplays.ParseObjectID(assetID)
	if err != nil {
		return decimal.Zero, err
	}

	op := peerplays.NewTransferOperation(
		peerplays.ObjectID{Space: 1, Type: 2},
		peerplays.ObjectID{Space: 1, Type: 2},
		peerplays.AssetAmount{AssetID: asset},
	)

	fees, err := g.client.GetRequiredFees(ctx, asset, op)
	if err != nil {
		return decimal.Zero, err
	}

	precision, err := g.precision(ctx, assetID)
	if err != nil {
		return decimal.Zero, err
	}

	return decimal.New(fees[0].Amount, -precision), nil
}

// CreateLottery creates a lottery selling tickets of the ticket asset until
// EndDate. LotteryID is the asset id of the new lottery.
func (g *peerplaysGateway) CreateLottery(ctx context.Context, req CreateLotteryRequest) (*LotteryResult, error) {
	issuer, err := peerplays.ParseObjectID(req.Issuer.ID)
	if err != nil {
		return nil, err
	}

	price, err := g.assetAmount(ctx, g.ticketPrice, g.ticketAssetID)
	if err != nil {
		return nil, err
	}

	symbol, err := peerplays.RandomLotterySymbol()
	if err != nil {
		return nil, err
	}

	op, err := peerplays.NewLotteryAssetCreateOperation(peerplays.LotteryParams{
		Issuer:      issuer,
		Symbol:      symbol,
		Name:        req.Name,
		Description: req.Description,
		MaxSupply:   g.maxTicketSupply,
		TicketPrice: price,
		EndDate:     req.EndDate,
	})
	if err != nil {
		return nil, err
	}

	result, err := g.client.BroadcastSigned(ctx, g.chainID, op.Fee.AssetID, req.Issuer.Key, op)
	if err != nil {
		return nil, err
	}

	lottery, err := result.CreatedObjectID(0)
	if err != nil {
		return nil, fmt.Errorf("cannot read lottery of transaction %s: %w", result.ID, err)
	}

	return &LotteryResult{LotteryID: lottery.String(), BlockNum: result.BlockNum, TxRef: result.ID}, nil
}

func (g *peerplaysGateway) SetMaxTicketSupply(supply int64) {
	if supply > 0 {
		g.maxTicketSupply = supply
	}
}

// assetAmount converts amount to the integer representation of the asset,
// rounding down.
func (g *peerplaysGateway) assetAmount(
	ctx context.Context, amount decimal.Decimal, assetID string,
) (peerplays.AssetAmount, error) {
	asset, err := peerplays.ParseObjectID(assetID)
	if err != nil {
		return peerplays.AssetAmount{}, err
	}

	precision, err := g.precision(ctx, assetID)
	if err != nil {
		return peerplays.AssetAmount{}, err
	}

	return peerplays.AssetAmount{
		Amount:  amount.Shift(precision).Floor().IntPart(),
		AssetID: asset,
	}, nil
}

// SetAssetPrecision seeds the precision of a known asset so it is never
// looked up on chain.
func (g *peerplaysGateway) SetAssetPrecision(assetID string, precision int32) {
	g.precisions.Store(assetID, precision)
}

func (g *peerplaysGateway) precision(ctx context.Context, assetID string) (int32, error) {
	if p, ok := g.precisions.Load(assetID); ok {
		return p, nil
	}

	p, err := g.client.GetAssetPrecision(ctx, assetID)
	if err != nil {
		return 0, err
	}

	g.precisions.Store(assetID, p)
	return p, nil
}

func TicketRef(historyID string, ordinal int) string {
	return fmt.Sprintf("%s:%d", historyID, ordinal)
}

func IsZeroTicketRef(ref string) bool {
	ref = strings.TrimSpace(ref)
	return ref == "" || ref == "0"
}

func isZeroHistoryID(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" || id == "0" {
		return true
	}

	parsed, err := peerplays.ParseObjectID(id)
	return err == nil && parsed.Instance == 0
}

// IsInsufficientBalance reports whether a chain error is caused by a lack of
// funds.
func IsInsufficientBalance(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "insufficient")
}
