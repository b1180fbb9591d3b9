package model

import "github.com/shopspring/decimal"

type Sale struct {
	ID                 string          `json:"id"`
	RaffleID           string          `json:"raffle_id"`
	PlayerID           string          `json:"player_id"`
	SellerID           string          `json:"seller_id,omitempty"`
	BeneficiaryID      string          `json:"beneficiary_id,omitempty"`
	TicketBundleID     string          `json:"ticket_bundle_id"`
	TotalPrice         decimal.Decimal `json:"total_price"`
	PaymentType        string          `json:"payment_type"`
	PaymentStatus      string          `json:"payment_status"`
	ExternalPaymentRef string          `json:"external_payment_ref,omitempty"`
	SettlementState    string          `json:"settlement_state"`
	CreatedAt          string          `json:"created_at"`
}

type Entry struct {
	ID                        string `json:"id"`
	SaleID                    string `json:"sale_id"`
	ChainTicketRef            string `json:"chain_ticket_ref"`
	ChainProgressiveTicketRef string `json:"chain_progressive_ticket_ref,omitempty"`
}

type PurchaseResult struct {
	Sale    Sale    `json:"sale"`
	Entries []Entry `json:"entries"`
}

type CreateSaleRequest struct {
	RaffleID           string          `json:"raffle_id"`
	PlayerID           string          `json:"player_id"`
	SellerID           string          `json:"seller_id"`
	BeneficiaryID      string          `json:"beneficiary_id"`
	TicketBundleID     string          `json:"ticket_bundle_id"`
	TotalPrice         decimal.Decimal `json:"total_price"`
	PaymentType        string          `json:"payment_type"`
	ExternalPaymentRef string          `json:"external_payment_ref"`
}

type CreateSaleResponse struct {
	Sale Sale `json:"sale"`
}

type PurchaseCashSaleRequest struct {
	SaleID string `json:"sale_id"`
}

type PurchaseCashSaleResponse PurchaseResult

type GetSaleEntriesRequest struct {
	SaleID string `json:"sale_id" form:"sale_id"`
}

type GetSaleEntriesResponse PurchaseResult
