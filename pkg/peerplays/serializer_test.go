package peerplays

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEncoder_Uvarint(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(300)
	require.Equal(t, []byte{0xac, 0x02}, e.Bytes())
}

func TestParseObjectID(t *testing.T) {
	id, err := ParseObjectID("1.2.345")
	require.NoError(t, err)
	require.Equal(t, ObjectID{Space: 1, Type: 2, Instance: 345}, id)
	require.Equal(t, "1.2.345", id.String())

	_, err = ParseObjectID("1.2")
	require.Error(t, err)

	_, err = ParseObjectID("1.x.3")
	require.Error(t, err)
}

func TestTransferOperation_Serialize(t *testing.T) {
	op := NewTransferOperation(
		ObjectID{1, 2, 17},
		ObjectID{1, 2, 300},
		AssetAmount{Amount: 1000, AssetID: ObjectID{1, 3, 0}},
	)
	op.SetFee(AssetAmount{Amount: 20, AssetID: ObjectID{1, 3, 0}})

	e := NewEncoder()
	op.Serialize(e)

	require.Equal(t,
		"1400000000000000"+"00"+ // fee
			"11"+ // from
			"ac02"+ // to
			"e803000000000000"+"00"+ // amount
			"00"+ // memo
			"00", // extensions
		hex.EncodeToString(e.Bytes()),
	)
}

func TestTicketPurchaseOperation(t *testing.T) {
	op := NewTicketPurchaseOperation(
		ObjectID{1, 3, 25},
		ObjectID{1, 2, 17},
		3,
		AssetAmount{Amount: 100, AssetID: ObjectID{1, 3, 1}},
	)
	require.Equal(t, int64(300), op.Amount.Amount)

	e := NewEncoder()
	op.Serialize(e)
	require.Equal(t,
		"0000000000000000"+"01"+ // fee
			"19"+ // lottery
			"11"+ // buyer
			"0300000000000000"+ // tickets
			"2c01000000000000"+"01"+ // amount
			"00",
		hex.EncodeToString(e.Bytes()),
	)
}

func TestDecodeTicketPurchase(t *testing.T) {
	raw := []byte(`[76,{"fee":{"amount":0,"asset_id":"1.3.1"},"lottery":"1.3.25","buyer":"1.2.17",` +
		`"tickets_to_buy":2,"amount":{"amount":"200","asset_id":"1.3.1"},"extensions":[]}]`)

	op, ok, err := DecodeTicketPurchase(raw)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1.3.25", op.Lottery.String())
	require.Equal(t, uint64(2), op.TicketsToBuy)
	require.Equal(t, int64(200), op.Amount.Amount)

	_, ok, err = DecodeTicketPurchase([]byte(`[0,{}]`))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLotteryAssetCreateOperation_Serialize(t *testing.T) {
	op, err := NewLotteryAssetCreateOperation(LotteryParams{
		Issuer:      ObjectID{1, 2, 17},
		Symbol:      "ABCDEFGHIJKLMNOP",
		Name:        "Spring raffle",
		Description: "Draw",
		MaxSupply:   1000,
		TicketPrice: AssetAmount{Amount: 100, AssetID: ObjectID{1, 3, 1}},
		EndDate:     time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	op.SetFee(AssetAmount{Amount: 20, AssetID: ObjectID{1, 3, 0}})

	description := `{"lottoName":"Spring raffle","description":"Draw","drawType":1}`
	require.Equal(t, description, op.CommonOptions.Description)

	e := NewEncoder()
	op.Serialize(e)
	require.Equal(t,
		"1400000000000000"+"00"+ // fee
			"11"+ // issuer
			"10"+hex.EncodeToString([]byte("ABCDEFGHIJKLMNOP"))+ // symbol
			"00"+ // precision
			"e803000000000000"+ // max supply
			"0000"+ // market fee percent
			"0080c6a47e8d0300"+ // max market fee
			"4f00"+ // issuer permissions
			"0000"+ // flags
			"0100000000000000"+"00"+"0100000000000000"+"01"+ // core exchange rate
			"00"+"00"+"00"+"00"+ // white and black lists
			"3f"+hex.EncodeToString([]byte(description))+
			"00"+ // common options extensions
			"01"+"11"+"8813"+ // benefactors
			"01"+ // owner
			"01"+"8813"+ // winning tickets
			"6400000000000000"+"01"+ // ticket price
			"80d9835e"+ // end date
			"00"+ // ending on soldout
			"01"+ // active
			"00", // prediction market
		hex.EncodeToString(e.Bytes()),
	)
}

func TestNewLotteryAssetCreateOperation_Truncates(t *testing.T) {
	op, err := NewLotteryAssetCreateOperation(LotteryParams{
		Name:        strings.Repeat("n", 50),
		Description: strings.Repeat("d", 150),
	})
	require.NoError(t, err)

	var description lotteryDescription
	require.NoError(t, json.Unmarshal([]byte(op.CommonOptions.Description), &description))
	require.Len(t, description.LottoName, lotteryNameLimit)
	require.Len(t, description.Description, lotteryDescriptionLimit)
}

func TestRandomLotterySymbol(t *testing.T) {
	symbol, err := RandomLotterySymbol()
	require.NoError(t, err)
	require.Regexp(t, "^[A-Z]{16}$", symbol)
}

func TestBroadcastResult_CreatedObjectID(t *testing.T) {
	var result BroadcastResult
	require.NoError(t, json.Unmarshal(
		[]byte(`{"id":"abc","block_num":7,"trx":{"operation_results":[[1,"1.3.42"],[0,{}]]}}`), &result))

	id, err := result.CreatedObjectID(0)
	require.NoError(t, err)
	require.Equal(t, "1.3.42", id.String())

	_, err = result.CreatedObjectID(1)
	require.Error(t, err)

	_, err = result.CreatedObjectID(2)
	require.Error(t, err)
}
