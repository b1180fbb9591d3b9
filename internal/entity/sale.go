package entity

import (
	"database/sql"

	"github.com/rafflelab/backend/pkg/enum"
	"github.com/shopspring/decimal"
)

type PaymentType string

var (
	PaymentTypeCash = enum.New(PaymentType("cash"))
	PaymentTypeCard = enum.New(PaymentType("card"))
)

type PaymentStatus string

var (
	PaymentStatusWaiting = enum.New(PaymentStatus("waiting"))
	PaymentStatusSuccess = enum.New(PaymentStatus("success"))
	PaymentStatusCancel  = enum.New(PaymentStatus("cancel"))
)

// SettlementState is the last step of the purchase pipeline which durably
// completed for a sale.
type SettlementState string

var (
	SettlementInitiated             = enum.New(SettlementState("initiated"))
	SettlementFiatSettled           = enum.New(SettlementState("fiat_settled"))
	SettlementTicketsFunded         = enum.New(SettlementState("tickets_funded"))
	SettlementChainTicketsPurchased = enum.New(SettlementState("chain_tickets_purchased"))
	SettlementEscrowSettled         = enum.New(SettlementState("escrow_settled"))
	SettlementEntriesIssued         = enum.New(SettlementState("entries_issued"))
)

var settlementOrder = map[SettlementState]int{
	SettlementInitiated:             0,
	SettlementFiatSettled:           1,
	SettlementTicketsFunded:         2,
	SettlementChainTicketsPurchased: 3,
	SettlementEscrowSettled:         4,
	SettlementEntriesIssued:         5,
}

// Reached reports whether s is at or past target.
func (s SettlementState) Reached(target SettlementState) bool {
	return settlementOrder[s] >= settlementOrder[target]
}

type Sale struct {
	Base

	RaffleID string `gorm:"index"`
	Raffle   Raffle `gorm:"foreignKey:RaffleID"`

	PlayerID string `gorm:"index"`
	Player   User   `gorm:"foreignKey:PlayerID"`

	SellerID      sql.NullString
	BeneficiaryID sql.NullString

	TicketBundleID string
	TicketBundle   Bundle `gorm:"foreignKey:TicketBundleID"`

	TotalPrice decimal.Decimal `gorm:"type:decimal(20,2)"`

	PaymentType   PaymentType
	PaymentStatus PaymentStatus `gorm:"index"`

	// ExternalPaymentRef is the card processor payment id, only set for card
	// sales.
	ExternalPaymentRef sql.NullString `gorm:"unique"`

	SettlementState SettlementState `gorm:"default:initiated"`

	// First lottery history sequence not yet seen before the chain tickets of
	// this sale were bought. Tickets below the cursors belong to earlier
	// purchases.
	CursorsCaptured   bool
	LotteryCursor     uint64
	ProgressiveCursor uint64
}

type Entry struct {
	Base

	SaleID string `gorm:"index"`
	Sale   Sale   `gorm:"foreignKey:SaleID"`

	ChainTicketRef            string         `gorm:"unique"`
	ChainProgressiveTicketRef sql.NullString `gorm:"unique"`
}

type PaymentEvent struct {
	Base

	Provider string `gorm:"index:idx_payment_event_provider_event,unique"`
	EventID  string `gorm:"index:idx_payment_event_provider_event,unique"`

	ExternalPaymentRef string `gorm:"index"`
	Status             string
}
