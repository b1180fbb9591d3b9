package model

import "github.com/shopspring/decimal"

type PurchaseNotification struct {
	SaleID     string          `json:"sale_id"`
	PlayerID   string          `json:"player_id"`
	Email      string          `json:"email"`
	Firstname  string          `json:"firstname"`
	RaffleID   string          `json:"raffle_id"`
	RaffleName string          `json:"raffle_name"`
	TotalPrice decimal.Decimal `json:"total_price"`
	TicketRefs []string        `json:"ticket_refs"`
}

type WinnerNotification struct {
	RaffleID       string          `json:"raffle_id"`
	RaffleName     string          `json:"raffle_name"`
	WinnerID       string          `json:"winner_id"`
	Email          string          `json:"email"`
	Firstname      string          `json:"firstname"`
	WinningEntryID string          `json:"winning_entry_id"`
	Jackpot        decimal.Decimal `json:"jackpot"`
}
