package domain

import (
	"time"

	"github.com/rafflelab/backend/internal/entity"
	"github.com/rafflelab/backend/internal/model"
)

const defaultTimeLayout string = time.RFC3339Nano

func convertSale(sale *entity.Sale) model.Sale {
	if sale == nil {
		return model.Sale{}
	}

	return model.Sale{
		ID:                 sale.ID,
		RaffleID:           sale.RaffleID,
		PlayerID:           sale.PlayerID,
		SellerID:           sale.SellerID.String,
		BeneficiaryID:      sale.BeneficiaryID.String,
		TicketBundleID:     sale.TicketBundleID,
		TotalPrice:         sale.TotalPrice,
		PaymentType:        string(sale.PaymentType),
		PaymentStatus:      string(sale.PaymentStatus),
		ExternalPaymentRef: sale.ExternalPaymentRef.String,
		SettlementState:    string(sale.SettlementState),
		CreatedAt:          sale.CreatedAt.Format(defaultTimeLayout),
	}
}

func convertEntry(entry *entity.Entry) model.Entry {
	if entry == nil {
		return model.Entry{}
	}

	return model.Entry{
		ID:                        entry.ID,
		SaleID:                    entry.SaleID,
		ChainTicketRef:            entry.ChainTicketRef,
		ChainProgressiveTicketRef: entry.ChainProgressiveTicketRef.String,
	}
}

func convertEntries(entries []entity.Entry) []model.Entry {
	result := []model.Entry{}
	for i := range entries {
		result = append(result, convertEntry(&entries[i]))
	}
	return result
}
