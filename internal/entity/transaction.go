package entity

import (
	"database/sql"
	"fmt"

	"github.com/rafflelab/backend/pkg/enum"
	"github.com/shopspring/decimal"
)

type TransactionType string

var (
	TransactionCashBuy        = enum.New(TransactionType("cashBuy"))
	TransactionCardBuy        = enum.New(TransactionType("cardBuy"))
	TransactionTicketFunding  = enum.New(TransactionType("ticketFunding"))
	TransactionTicketPurchase = enum.New(TransactionType("ticketPurchase"))
	TransactionWinnings       = enum.New(TransactionType("winnings"))
	TransactionDonations      = enum.New(TransactionType("donations"))
)

type LedgerStep string

var (
	StepFiatSettlement   = enum.New(LedgerStep("fiat_settlement"))
	StepTicketFunding    = enum.New(LedgerStep("ticket_funding"))
	StepEscrowSettlement = enum.New(LedgerStep("escrow_settlement"))
	StepWinnings         = enum.New(LedgerStep("winnings"))
	StepDonations        = enum.New(LedgerStep("donations"))
)

// Transaction is an append-only record of one on-chain money movement.
type Transaction struct {
	Base

	SaleID   sql.NullString `gorm:"index"`
	RaffleID sql.NullString `gorm:"index"`

	Step            LedgerStep
	TransactionType TransactionType

	TransferFrom string
	TransferTo   string
	Amount       decimal.Decimal `gorm:"type:decimal(20,8)"`
	AssetID      string

	ChainBlockNum uint32
	ChainTxRef    string

	IdempotencyKey string `gorm:"unique"`
}

func SaleIdempotencyKey(saleID string, step LedgerStep) string {
	return fmt.Sprintf("sale:%s:%s", saleID, step)
}

func RaffleIdempotencyKey(raffleID string, step LedgerStep) string {
	return fmt.Sprintf("raffle:%s:%s", raffleID, step)
}

type Migration struct {
	Version string `gorm:"primarykey"`
}
