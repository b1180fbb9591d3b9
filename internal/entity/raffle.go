package entity

import (
	"database/sql"
	"time"

	"github.com/rafflelab/backend/pkg/enum"
	"github.com/shopspring/decimal"
)

type DrawType string

var (
	DrawTypeNormal      = enum.New(DrawType("normal"))
	DrawTypeProgressive = enum.New(DrawType("progressive"))
)

type Raffle struct {
	Base

	OrganizationID string
	Organization   Organization `gorm:"foreignKey:OrganizationID"`

	Name        string
	Slug        string `gorm:"index"`
	Description string

	StartDatetime time.Time
	EndDatetime   time.Time
	DrawDatetime  time.Time `gorm:"index"`

	DrawType DrawType

	// ProgressiveDrawID links a normal raffle to its progressive jackpot.
	ProgressiveDrawID sql.NullString `gorm:"index"`

	AdminFeePercent        decimal.Decimal `gorm:"type:decimal(5,2)"`
	DonationPercent        decimal.Decimal `gorm:"type:decimal(5,2)"`
	RaffleDrawPercent      decimal.Decimal `gorm:"type:decimal(5,2)"`
	ProgressiveDrawPercent decimal.Decimal `gorm:"type:decimal(5,2)"`
	OrganizationPercent    decimal.Decimal `gorm:"type:decimal(5,2)"`
	BeneficiaryPercent     decimal.Decimal `gorm:"type:decimal(5,2)"`

	ChainLotteryRef string

	// WinnerID and WinningEntryID are set together and only once.
	WinnerID       sql.NullString
	WinningEntryID sql.NullString

	// PayoutSettled is set once every payout transfer of a resolved raffle
	// has been recorded in the ledger.
	PayoutSettled bool
}

func (r *Raffle) PercentSum() decimal.Decimal {
	return decimal.Sum(
		r.AdminFeePercent,
		r.DonationPercent,
		r.RaffleDrawPercent,
		r.ProgressiveDrawPercent,
		r.OrganizationPercent,
		r.BeneficiaryPercent,
	)
}

type Bundle struct {
	Base

	RaffleID string `gorm:"index"`
	Raffle   Raffle `gorm:"foreignKey:RaffleID"`

	Quantity int
	Price    decimal.Decimal `gorm:"type:decimal(20,2)"`
}
