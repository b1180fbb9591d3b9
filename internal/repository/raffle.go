package repository

import (
	"context"
	"time"

	"github.com/rafflelab/backend/internal/entity"
	"github.com/rafflelab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type RaffleRepository interface {
	Create(context.Context, *entity.Raffle) error
	GetByID(context.Context, string) (*entity.Raffle, error)
	GetPendingDraw(ctx context.Context, now time.Time) ([]entity.Raffle, error)
	GetUnsettledPayouts(context.Context) ([]entity.Raffle, error)
	GetByProgressiveDrawID(ctx context.Context, progressiveID string) ([]entity.Raffle, error)
	UpdateWinner(ctx context.Context, id, winnerID, winningEntryID string, now time.Time) error
	MarkPayoutSettled(ctx context.Context, id string) error
}

type raffleRepository struct{}

func NewRaffleRepository() *raffleRepository {
	return &raffleRepository{}
}

func (r *raffleRepository) Create(ctx context.Context, data *entity.Raffle) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *raffleRepository) GetByID(ctx context.Context, id string) (*entity.Raffle, error) {
	var result entity.Raffle
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *raffleRepository) GetPendingDraw(ctx context.Context, now time.Time) ([]entity.Raffle, error) {
	var result []entity.Raffle
	err := xcontext.DB(ctx).
		Where("draw_datetime <= ? AND winner_id IS NULL", now).
		Order("draw_datetime ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *raffleRepository) GetUnsettledPayouts(ctx context.Context) ([]entity.Raffle, error) {
	var result []entity.Raffle
	err := xcontext.DB(ctx).
		Where("winner_id IS NOT NULL AND payout_settled = ?", false).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *raffleRepository) GetByProgressiveDrawID(
	ctx context.Context, progressiveID string,
) ([]entity.Raffle, error) {
	var result []entity.Raffle
	err := xcontext.DB(ctx).
		Where("progressive_draw_id=? AND draw_type=?", progressiveID, entity.DrawTypeNormal).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateWinner sets the winner only if the raffle has none yet and its draw
// time has passed. It returns gorm.ErrRecordNotFound otherwise.
func (r *raffleRepository) UpdateWinner(
	ctx context.Context, id, winnerID, winningEntryID string, now time.Time,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Raffle{}).
		Where("id=? AND winner_id IS NULL AND draw_datetime <= ?", id, now).
		Updates(map[string]any{
			"winner_id":        winnerID,
			"winning_entry_id": winningEntryID,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *raffleRepository) MarkPayoutSettled(ctx context.Context, id string) error {
	return xcontext.DB(ctx).
		Model(&entity.Raffle{}).
		Where("id=?", id).
		Update("payout_settled", true).Error
}
