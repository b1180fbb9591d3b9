package peerplays

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"
)

type Operation interface {
	OperationID() uint64
	SetFee(AssetAmount)
	Serialize(*Encoder)
}

type TransferOperation struct {
	Fee        AssetAmount       `json:"fee"`
	From       ObjectID          `json:"from"`
	To         ObjectID          `json:"to"`
	Amount     AssetAmount       `json:"amount"`
	Extensions []json.RawMessage `json:"extensions"`
}

func (op *TransferOperation) OperationID() uint64 { return TransferOperationID }

func (op *TransferOperation) SetFee(fee AssetAmount) { op.Fee = fee }

func (op *TransferOperation) Serialize(e *Encoder) {
	e.WriteAsset(op.Fee)
	e.WriteObjectID(op.From)
	e.WriteObjectID(op.To)
	e.WriteAsset(op.Amount)
	e.WriteBool(false) // memo
	e.WriteUvarint(0)  // extensions
}

type TicketPurchaseOperation struct {
	Fee          AssetAmount       `json:"fee"`
	Lottery      ObjectID          `json:"lottery"`
	Buyer        ObjectID          `json:"buyer"`
	TicketsToBuy uint64            `json:"tickets_to_buy"`
	Amount       AssetAmount       `json:"amount"`
	Extensions   []json.RawMessage `json:"extensions"`
}

func (op *TicketPurchaseOperation) OperationID() uint64 { return TicketPurchaseOperationID }

func (op *TicketPurchaseOperation) SetFee(fee AssetAmount) { op.Fee = fee }

func (op *TicketPurchaseOperation) Serialize(e *Encoder) {
	e.WriteAsset(op.Fee)
	e.WriteObjectID(op.Lottery)
	e.WriteObjectID(op.Buyer)
	e.WriteUint64(op.TicketsToBuy)
	e.WriteAsset(op.Amount)
	e.WriteUvarint(0)
}

// operationEnvelope is the [id, op] pair used by the JSON API.
type operationEnvelope struct {
	op Operation
}

func (o operationEnvelope) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{o.op.OperationID(), o.op})
}

// DecodeTicketPurchase decodes a history entry op. ok is false if op is not a
// ticket purchase.
func DecodeTicketPurchase(raw json.RawMessage) (op TicketPurchaseOperation, ok bool, err error) {
	var pair []json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil {
		return op, false, err
	}

	if len(pair) != 2 {
		return op, false, fmt.Errorf("invalid operation pair of length %d", len(pair))
	}

	var id uint64
	if err := json.Unmarshal(pair[0], &id); err != nil {
		return op, false, err
	}

	if id != TicketPurchaseOperationID {
		return op, false, nil
	}

	if err := json.Unmarshal(pair[1], &op); err != nil {
		return op, false, err
	}

	return op, true, nil
}

func NewTransferOperation(from, to ObjectID, amount AssetAmount) *TransferOperation {
	return &TransferOperation{
		Fee:        AssetAmount{AssetID: amount.AssetID},
		From:       from,
		To:         to,
		Amount:     amount,
		Extensions: []json.RawMessage{},
	}
}

func NewTicketPurchaseOperation(
	lottery, buyer ObjectID, tickets uint64, price AssetAmount,
) *TicketPurchaseOperation {
	return &TicketPurchaseOperation{
		Fee:          AssetAmount{AssetID: price.AssetID},
		Lottery:      lottery,
		Buyer:        buyer,
		TicketsToBuy: tickets,
		Amount:       AssetAmount{Amount: price.Amount * int64(tickets), AssetID: price.AssetID},
		Extensions:   []json.RawMessage{},
	}
}

type Price struct {
	Base  AssetAmount `json:"base"`
	Quote AssetAmount `json:"quote"`
}

type AssetOptions struct {
	MaxSupply            int64             `json:"max_supply"`
	MarketFeePercent     uint16            `json:"market_fee_percent"`
	MaxMarketFee         int64             `json:"max_market_fee"`
	IssuerPermissions    uint16            `json:"issuer_permissions"`
	Flags                uint16            `json:"flags"`
	CoreExchangeRate     Price             `json:"core_exchange_rate"`
	WhitelistAuthorities []ObjectID        `json:"whitelist_authorities"`
	BlacklistAuthorities []ObjectID        `json:"blacklist_authorities"`
	WhitelistMarkets     []ObjectID        `json:"whitelist_markets"`
	BlacklistMarkets     []ObjectID        `json:"blacklist_markets"`
	Description          string            `json:"description"`
	Extensions           []json.RawMessage `json:"extensions"`
}

func (o *AssetOptions) Serialize(e *Encoder) {
	e.WriteInt64(o.MaxSupply)
	e.WriteUint16(o.MarketFeePercent)
	e.WriteInt64(o.MaxMarketFee)
	e.WriteUint16(o.IssuerPermissions)
	e.WriteUint16(o.Flags)
	e.WriteAsset(o.CoreExchangeRate.Base)
	e.WriteAsset(o.CoreExchangeRate.Quote)
	for _, set := range [][]ObjectID{
		o.WhitelistAuthorities, o.BlacklistAuthorities, o.WhitelistMarkets, o.BlacklistMarkets,
	} {
		e.WriteUvarint(uint64(len(set)))
		for _, id := range set {
			e.WriteObjectID(id)
		}
	}
	e.WriteString(o.Description)
	e.WriteUvarint(0)
}

// Benefactor receives Share hundredths of a percent of the lottery jackpot.
type Benefactor struct {
	ID    ObjectID `json:"id"`
	Share uint16   `json:"share"`
}

type LotteryAssetOptions struct {
	Benefactors     []Benefactor `json:"benefactors"`
	Owner           ObjectID     `json:"owner"`
	WinningTickets  []uint16     `json:"winning_tickets"`
	TicketPrice     AssetAmount  `json:"ticket_price"`
	EndDate         Time         `json:"end_date"`
	EndingOnSoldout bool         `json:"ending_on_soldout"`
	IsActive        bool         `json:"is_active"`
}

func (o *LotteryAssetOptions) Serialize(e *Encoder) {
	e.WriteUvarint(uint64(len(o.Benefactors)))
	for _, b := range o.Benefactors {
		e.WriteObjectID(b.ID)
		e.WriteUint16(b.Share)
	}
	e.WriteObjectID(o.Owner)
	e.WriteUvarint(uint64(len(o.WinningTickets)))
	for _, w := range o.WinningTickets {
		e.WriteUint16(w)
	}
	e.WriteAsset(o.TicketPrice)
	e.WriteTime(o.EndDate)
	e.WriteBool(o.EndingOnSoldout)
	e.WriteBool(o.IsActive)
}

// LotteryAssetCreateOperation creates a lottery, which on chain is an asset
// whose lottery options travel in the extensions field.
type LotteryAssetCreateOperation struct {
	Fee                AssetAmount         `json:"fee"`
	Issuer             ObjectID            `json:"issuer"`
	Symbol             string              `json:"symbol"`
	Precision          uint8               `json:"precision"`
	CommonOptions      AssetOptions        `json:"common_options"`
	Extensions         LotteryAssetOptions `json:"extensions"`
	IsPredictionMarket bool                `json:"is_prediction_market"`
}

func (op *LotteryAssetCreateOperation) OperationID() uint64 { return LotteryAssetCreateOperationID }

func (op *LotteryAssetCreateOperation) SetFee(fee AssetAmount) { op.Fee = fee }

func (op *LotteryAssetCreateOperation) Serialize(e *Encoder) {
	e.WriteAsset(op.Fee)
	e.WriteObjectID(op.Issuer)
	e.WriteString(op.Symbol)
	e.WriteUint8(op.Precision)
	op.CommonOptions.Serialize(e)
	op.Extensions.Serialize(e)
	e.WriteBool(op.IsPredictionMarket)
}

const (
	lotterySymbolLength      = 16
	lotteryIssuerPermissions = 79
	lotteryMaxMarketFee      = 1000000000000000
	lotteryNameLimit         = 40
	lotteryDescriptionLimit  = 100

	// HalfShare is 50% in hundredths of a percent.
	HalfShare uint16 = 5000
)

type lotteryDescription struct {
	LottoName   string `json:"lottoName"`
	Description string `json:"description"`
	DrawType    int    `json:"drawType"`
}

// LotteryParams describes a lottery whose jackpot is shared half with the
// issuer and half with a single winning ticket.
type LotteryParams struct {
	Issuer      ObjectID
	Symbol      string
	Name        string
	Description string
	MaxSupply   int64
	TicketPrice AssetAmount
	EndDate     time.Time
}

func NewLotteryAssetCreateOperation(p LotteryParams) (*LotteryAssetCreateOperation, error) {
	description, err := json.Marshal(lotteryDescription{
		LottoName:   truncate(p.Name, lotteryNameLimit),
		Description: truncate(p.Description, lotteryDescriptionLimit),
		DrawType:    1,
	})
	if err != nil {
		return nil, err
	}

	core := ObjectID{Space: 1, Type: 3}
	return &LotteryAssetCreateOperation{
		Fee:       AssetAmount{AssetID: core},
		Issuer:    p.Issuer,
		Symbol:    p.Symbol,
		Precision: 0,
		CommonOptions: AssetOptions{
			MaxSupply:         p.MaxSupply,
			MaxMarketFee:      lotteryMaxMarketFee,
			IssuerPermissions: lotteryIssuerPermissions,
			CoreExchangeRate: Price{
				Base:  AssetAmount{Amount: 1, AssetID: core},
				Quote: AssetAmount{Amount: 1, AssetID: ObjectID{Space: 1, Type: 3, Instance: 1}},
			},
			WhitelistAuthorities: []ObjectID{},
			BlacklistAuthorities: []ObjectID{},
			WhitelistMarkets:     []ObjectID{},
			BlacklistMarkets:     []ObjectID{},
			Description:          string(description),
			Extensions:           []json.RawMessage{},
		},
		Extensions: LotteryAssetOptions{
			Benefactors:    []Benefactor{{ID: p.Issuer, Share: HalfShare}},
			Owner:          p.TicketPrice.AssetID,
			WinningTickets: []uint16{HalfShare},
			TicketPrice:    p.TicketPrice,
			EndDate:        Time(p.EndDate),
			IsActive:       true,
		},
	}, nil
}

// RandomLotterySymbol returns an asset symbol of upper case letters.
func RandomLotterySymbol() (string, error) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	b := make([]byte, lotterySymbolLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}

	return string(b), nil
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}

	return string(r[:limit])
}
