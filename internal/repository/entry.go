package repository

import (
	"context"

	"github.com/rafflelab/backend/internal/entity"
	"github.com/rafflelab/backend/pkg/xcontext"
)

type EntryRepository interface {
	CreateMany(context.Context, []entity.Entry) error
	GetBySaleID(context.Context, string) ([]entity.Entry, error)
	CountBySaleID(context.Context, string) (int64, error)

	// GetByPlayerAndRaffles returns the entries of successful sales of the
	// player in any of the given raffles.
	GetByPlayerAndRaffles(ctx context.Context, playerID string, raffleIDs []string) ([]entity.Entry, error)

	// FilterBoundTicketRefs returns which of refs are already bound to an
	// entry, either as the normal or the progressive ticket.
	FilterBoundTicketRefs(ctx context.Context, refs []string) ([]string, error)
}

type entryRepository struct{}

func NewEntryRepository() *entryRepository {
	return &entryRepository{}
}

func (r *entryRepository) CreateMany(ctx context.Context, data []entity.Entry) error {
	if len(data) == 0 {
		return nil
	}

	return xcontext.DB(ctx).Create(&data).Error
}

func (r *entryRepository) GetBySaleID(ctx context.Context, saleID string) ([]entity.Entry, error) {
	var result []entity.Entry
	err := xcontext.DB(ctx).
		Where("sale_id=?", saleID).
		Order("created_at ASC, id ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *entryRepository) CountBySaleID(ctx context.Context, saleID string) (int64, error) {
	var count int64
	if err := xcontext.DB(ctx).Model(&entity.Entry{}).Where("sale_id=?", saleID).Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *entryRepository) GetByPlayerAndRaffles(
	ctx context.Context, playerID string, raffleIDs []string,
) ([]entity.Entry, error) {
	var result []entity.Entry
	err := xcontext.DB(ctx).
		Joins("JOIN sales ON sales.id = entries.sale_id").
		Where("sales.player_id=? AND sales.raffle_id IN (?) AND sales.payment_status=?",
			playerID, raffleIDs, entity.PaymentStatusSuccess).
		Order("entries.created_at ASC, entries.id ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *entryRepository) FilterBoundTicketRefs(ctx context.Context, refs []string) ([]string, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	var entries []entity.Entry
	err := xcontext.DB(ctx).
		Where("chain_ticket_ref IN (?) OR chain_progressive_ticket_ref IN (?)", refs, refs).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	requested := map[string]bool{}
	for _, ref := range refs {
		requested[ref] = true
	}

	var bound []string
	for _, e := range entries {
		if requested[e.ChainTicketRef] {
			bound = append(bound, e.ChainTicketRef)
		}

		if e.ChainProgressiveTicketRef.Valid && requested[e.ChainProgressiveTicketRef.String] {
			bound = append(bound, e.ChainProgressiveTicketRef.String)
		}
	}

	return bound, nil
}
