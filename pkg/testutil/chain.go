package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rafflelab/backend/internal/client"
	"github.com/shopspring/decimal"
)

var ErrInsufficientBalance = errors.New("Assert Exception: insufficient_balance: Insufficient Balance")

type FakeTransfer struct {
	From    string
	To      string
	Amount  decimal.Decimal
	AssetID string
}

type FakePurchase struct {
	LotteryID string
	Quantity  int
	Buyer     string
}

type FakeLottery struct {
	ID      string
	Issuer  string
	Name    string
	EndDate time.Time
}

// FakeChainGateway is an in-memory chain. Ticket purchases are appended to the
// buyer's lottery history and transfers move balances, failing with an
// insufficient balance error when StrictBalances is set.
type FakeChainGateway struct {
	mu sync.Mutex

	StrictBalances bool
	TransferFee    decimal.Decimal

	// Hooks run before the operation is applied. A non-nil error aborts it.
	OnTransfer func(from, to string, amount decimal.Decimal, assetID string) error
	OnPurchase func(lotteryID string, quantity int, buyer string) error
	OnLottery  func(req client.CreateLotteryRequest) error

	// HistoryLag hides the newest N history entries of every account from
	// GetAccountLotteryHistory.
	HistoryLag int

	WinnersErr error

	accounts  map[string]string
	balances  map[string]map[string]decimal.Decimal
	histories map[string][]client.LotteryTicket
	winners   []client.LotteryWinner

	Transfers []FakeTransfer
	Purchases []FakePurchase
	Lotteries []FakeLottery
	Calls     map[string]int

	sequence uint64
	block    uint32
}

func NewFakeChainGateway() *FakeChainGateway {
	return &FakeChainGateway{
		accounts:  map[string]string{},
		balances:  map[string]map[string]decimal.Decimal{},
		histories: map[string][]client.LotteryTicket{},
		Calls:     map[string]int{},
		sequence:  1000,
		block:     1,
	}
}

func (g *FakeChainGateway) AddAccount(name, id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.accounts[name] = id
}

func (g *FakeChainGateway) SetBalance(accountID, assetID string, amount decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.setBalance(accountID, assetID, amount)
}

func (g *FakeChainGateway) Balance(accountID, assetID string) decimal.Decimal {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.balances[accountID][assetID]
}

// AddTickets appends tickets bought outside of the system under test.
func (g *FakeChainGateway) AddTickets(accountID, lotteryID string, quantity int) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.appendTickets(accountID, lotteryID, quantity)
}

func (g *FakeChainGateway) AddWinner(lotteryID, winnerAccountID, ticketRef string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sequence++
	g.winners = append(g.winners, client.LotteryWinner{
		Sequence:         g.sequence,
		LotteryID:        lotteryID,
		WinnerAccountID:  winnerAccountID,
		WinningTicketRef: ticketRef,
	})
}

func (g *FakeChainGateway) CallCount(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.Calls[op]
}

// TotalCalls counts every operation which reads or writes the chain.
func (g *FakeChainGateway) TotalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	total := 0
	for _, n := range g.Calls {
		total += n
	}
	return total
}

func (g *FakeChainGateway) GetAccountIDByName(ctx context.Context, name string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Calls["GetAccountIDByName"]++
	return g.accounts[name], nil
}

func (g *FakeChainGateway) Transfer(
	ctx context.Context, from client.ChainAccount, to string, amount decimal.Decimal, assetID string,
) (*client.TransferResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Calls["Transfer"]++
	if g.OnTransfer != nil {
		if err := g.OnTransfer(from.ID, to, amount, assetID); err != nil {
			return nil, err
		}
	}

	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("Assert Exception: amount.amount > 0")
	}

	fromBalance := g.balances[from.ID][assetID]
	if g.StrictBalances && fromBalance.LessThan(amount.Add(g.TransferFee)) {
		return nil, ErrInsufficientBalance
	}

	g.setBalance(from.ID, assetID, fromBalance.Sub(amount).Sub(g.TransferFee))
	g.setBalance(to, assetID, g.balances[to][assetID].Add(amount))
	g.Transfers = append(g.Transfers, FakeTransfer{From: from.ID, To: to, Amount: amount, AssetID: assetID})

	g.block++
	return &client.TransferResult{
		BlockNum: g.block,
		TxRef:    fmt.Sprintf("tx-%d", g.block),
		From:     from.ID,
		To:       to,
		Amount:   amount,
		AssetID:  assetID,
	}, nil
}

func (g *FakeChainGateway) PurchaseTicket(
	ctx context.Context, lotteryID string, quantity int, buyer client.ChainAccount,
) (*client.BroadcastResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Calls["PurchaseTicket"]++
	if g.OnPurchase != nil {
		if err := g.OnPurchase(lotteryID, quantity, buyer.ID); err != nil {
			return nil, err
		}
	}

	g.appendTickets(buyer.ID, lotteryID, quantity)
	g.Purchases = append(g.Purchases, FakePurchase{LotteryID: lotteryID, Quantity: quantity, Buyer: buyer.ID})

	g.block++
	return &client.BroadcastResult{BlockNum: g.block, TxRef: fmt.Sprintf("tx-%d", g.block)}, nil
}

func (g *FakeChainGateway) GetAccountLotteryHistory(
	ctx context.Context, accountID string,
) ([]client.LotteryTicket, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Calls["GetAccountLotteryHistory"]++
	history := g.histories[accountID]

	visible := map[uint64]bool{}
	if g.HistoryLag > 0 {
		var sequences []uint64
		for _, t := range history {
			if len(sequences) == 0 || sequences[len(sequences)-1] != t.Sequence {
				sequences = append(sequences, t.Sequence)
			}
		}

		hidden := g.HistoryLag
		if hidden > len(sequences) {
			hidden = len(sequences)
		}

		for _, s := range sequences[:len(sequences)-hidden] {
			visible[s] = true
		}
	}

	result := make([]client.LotteryTicket, 0, len(history))
	for _, t := range history {
		if g.HistoryLag > 0 && !visible[t.Sequence] {
			continue
		}

		result = append(result, t)
	}

	return result, nil
}

func (g *FakeChainGateway) GetGlobalLotteryWinners(
	ctx context.Context, sinceSequence uint64,
) ([]client.LotteryWinner, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Calls["GetGlobalLotteryWinners"]++
	if g.WinnersErr != nil {
		return nil, g.WinnersErr
	}

	var result []client.LotteryWinner
	for _, w := range g.winners {
		if w.Sequence >= sinceSequence {
			result = append(result, w)
		}
	}

	return result, nil
}

func (g *FakeChainGateway) GetRequiredTransferFee(ctx context.Context, assetID string) (decimal.Decimal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Calls["GetRequiredTransferFee"]++
	return g.TransferFee, nil
}

func (g *FakeChainGateway) CreateLottery(
	ctx context.Context, req client.CreateLotteryRequest,
) (*client.LotteryResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Calls["CreateLottery"]++
	if g.OnLottery != nil {
		if err := g.OnLottery(req); err != nil {
			return nil, err
		}
	}

	g.block++
	lottery := FakeLottery{
		ID:      fmt.Sprintf("1.3.%d", 500+len(g.Lotteries)),
		Issuer:  req.Issuer.ID,
		Name:    req.Name,
		EndDate: req.EndDate,
	}
	g.Lotteries = append(g.Lotteries, lottery)

	return &client.LotteryResult{
		LotteryID: lottery.ID,
		BlockNum:  g.block,
		TxRef:     fmt.Sprintf("tx-%d", g.block),
	}, nil
}

func (g *FakeChainGateway) setBalance(accountID, assetID string, amount decimal.Decimal) {
	if g.balances[accountID] == nil {
		g.balances[accountID] = map[string]decimal.Decimal{}
	}

	g.balances[accountID][assetID] = amount
}

func (g *FakeChainGateway) appendTickets(accountID, lotteryID string, quantity int) []string {
	g.sequence++
	historyID := fmt.Sprintf("1.11.%d", g.sequence)

	refs := make([]string, 0, quantity)
	for i := 0; i < quantity; i++ {
		ref := client.TicketRef(historyID, i)
		g.histories[accountID] = append(g.histories[accountID], client.LotteryTicket{
			LotteryID: lotteryID,
			TicketRef: ref,
			Sequence:  g.sequence,
			Ordinal:   i,
		})
		refs = append(refs, ref)
	}

	return refs
}
