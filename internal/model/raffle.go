package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type RegisterRaffleRequest struct {
	OrganizationID    string    `json:"organization_id"`
	Name              string    `json:"name"`
	Slug              string    `json:"slug"`
	Description       string    `json:"description"`
	StartDatetime     time.Time `json:"start_datetime"`
	EndDatetime       time.Time `json:"end_datetime"`
	DrawDatetime      time.Time `json:"draw_datetime"`
	DrawType          string    `json:"draw_type"`
	ProgressiveDrawID string    `json:"progressive_draw_id"`

	// ChainLotteryRef links an existing lottery. When empty a lottery is
	// created on chain.
	ChainLotteryRef string `json:"chain_lottery_ref"`

	AdminFeePercent        decimal.Decimal `json:"admin_fee_percent"`
	DonationPercent        decimal.Decimal `json:"donation_percent"`
	RaffleDrawPercent      decimal.Decimal `json:"raffle_draw_percent"`
	ProgressiveDrawPercent decimal.Decimal `json:"progressive_draw_percent"`
	OrganizationPercent    decimal.Decimal `json:"organization_percent"`
	BeneficiaryPercent     decimal.Decimal `json:"beneficiary_percent"`

	Bundles []RegisterBundle `json:"bundles"`
}

type RegisterBundle struct {
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type RegisterRaffleResponse struct {
	ID              string   `json:"id"`
	ChainLotteryRef string   `json:"chain_lottery_ref"`
	BundleIDs       []string `json:"bundle_ids"`
}

type ResolvePendingRafflesRequest struct{}

type ResolvePendingRafflesResponse struct {
	Completed bool `json:"completed"`
}

// Payout is the split of a raffle's proceeds, rounded to cents.
type Payout struct {
	TotalSales            decimal.Decimal `json:"total_sales"`
	Jackpot               decimal.Decimal `json:"jackpot"`
	EachBeneficiaryAmount decimal.Decimal `json:"each_beneficiary_amount"`
	BeneficiaryAmount     decimal.Decimal `json:"beneficiary_amount"`
	OrganizationAmount    decimal.Decimal `json:"organization_amount"`
	AdminFeeAmount        decimal.Decimal `json:"admin_fee_amount"`
	DonationAmount        decimal.Decimal `json:"donation_amount"`

	// Donations is the lump of beneficiary, organization, admin fee and
	// donation shares transferred back to the house account.
	Donations decimal.Decimal `json:"donations"`
}
