package peerplays

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	TransferOperationID           = 0
	LotteryAssetCreateOperationID = 75
	TicketPurchaseOperationID     = 76
)

const timeLayout = "2006-01-02T15:04:05"

// ObjectID is a graphene object id in the form space.type.instance, e.g.
// 1.2.345 for an account.
type ObjectID struct {
	Space    uint8
	Type     uint8
	Instance uint64
}

func ParseObjectID(s string) (ObjectID, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return ObjectID{}, fmt.Errorf("invalid object id %q", s)
	}

	space, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return ObjectID{}, fmt.Errorf("invalid object id %q: %w", s, err)
	}

	typ, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return ObjectID{}, fmt.Errorf("invalid object id %q: %w", s, err)
	}

	instance, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return ObjectID{}, fmt.Errorf("invalid object id %q: %w", s, err)
	}

	return ObjectID{Space: uint8(space), Type: uint8(typ), Instance: instance}, nil
}

func (id ObjectID) String() string {
	return fmt.Sprintf("%d.%d.%d", id.Space, id.Type, id.Instance)
}

func (id ObjectID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *ObjectID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	parsed, err := ParseObjectID(s)
	if err != nil {
		return err
	}

	*id = parsed
	return nil
}

type AssetAmount struct {
	Amount  int64    `json:"amount"`
	AssetID ObjectID `json:"asset_id"`
}

// UnmarshalJSON accepts amounts encoded as numbers or strings, nodes use both.
func (a *AssetAmount) UnmarshalJSON(b []byte) error {
	var raw struct {
		Amount  json.Number `json:"amount"`
		AssetID ObjectID    `json:"asset_id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	amount, err := strconv.ParseInt(strings.Trim(raw.Amount.String(), `"`), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid asset amount %q: %w", raw.Amount, err)
	}

	a.Amount = amount
	a.AssetID = raw.AssetID
	return nil
}

type Time time.Time

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(timeLayout))
}

func (t *Time) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	parsed, err := time.Parse(timeLayout, s)
	if err != nil {
		return err
	}

	*t = Time(parsed)
	return nil
}

type Account struct {
	ID   ObjectID `json:"id"`
	Name string   `json:"name"`
}

type DynamicGlobalProperties struct {
	HeadBlockNumber uint32 `json:"head_block_number"`
	HeadBlockID     string `json:"head_block_id"`
	Time            Time   `json:"time"`
}

type BroadcastResult struct {
	ID       string `json:"id"`
	BlockNum uint32 `json:"block_num"`
	TrxNum   uint32 `json:"trx_num"`
	Trx      struct {
		OperationResults []json.RawMessage `json:"operation_results"`
	} `json:"trx"`
}

// CreatedObjectID returns the object created by the i-th operation of the
// transaction. Each operation result is a [type, value] pair and creating
// operations carry the new object id as value.
func (r *BroadcastResult) CreatedObjectID(i int) (ObjectID, error) {
	if i < 0 || i >= len(r.Trx.OperationResults) {
		return ObjectID{}, fmt.Errorf("no result for operation %d", i)
	}

	var pair []json.RawMessage
	if err := json.Unmarshal(r.Trx.OperationResults[i], &pair); err != nil {
		return ObjectID{}, err
	}

	if len(pair) != 2 {
		return ObjectID{}, fmt.Errorf("invalid operation result of length %d", len(pair))
	}

	var id ObjectID
	if err := json.Unmarshal(pair[1], &id); err != nil {
		return ObjectID{}, fmt.Errorf("operation %d created no object: %w", i, err)
	}

	return id, nil
}

// OperationHistory is one entry of the account history feed. The sequence of
// the feed is the instance of ID.
type OperationHistory struct {
	ID       ObjectID        `json:"id"`
	BlockNum uint32          `json:"block_num"`
	Op       json.RawMessage `json:"op"`
}

// LotteryWinner is one entry of the global winners feed. The winning ticket is
// the TicketUnit-th unit bought by the ticket purchase whose account history
// entry is TicketPurchase. An empty or zero TicketPurchase means the chain drew
// no explicit ticket.
type LotteryWinner struct {
	ID             ObjectID `json:"id"`
	Lottery        ObjectID `json:"lottery"`
	Winner         ObjectID `json:"winner"`
	TicketPurchase string   `json:"ticket_purchase"`
	TicketUnit     int      `json:"ticket_unit"`
}
