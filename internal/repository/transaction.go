package repository

import (
	"context"

	"github.com/rafflelab/backend/internal/entity"
	"github.com/rafflelab/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type TransactionRepository interface {
	// Create inserts the ledger row. It returns ErrDuplicated if a
	// row with the same idempotency key exists.
	Create(context.Context, *entity.Transaction) error
	ExistsByIdempotencyKey(context.Context, string) (bool, error)
	GetBySaleID(context.Context, string) ([]entity.Transaction, error)
	GetByRaffleID(context.Context, string) ([]entity.Transaction, error)
	// GetPayoutsByRaffleID skips the rows of the raffle's sales.
	GetPayoutsByRaffleID(context.Context, string) ([]entity.Transaction, error)
}

type transactionRepository struct{}

func NewTransactionRepository() *transactionRepository {
	return &transactionRepository{}
}

func (r *transactionRepository) Create(ctx context.Context, data *entity.Transaction) error {
	tx := xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idempotency_key"}},
			DoNothing: true,
		}).
		Create(data)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return ErrDuplicated
	}

	return nil
}

func (r *transactionRepository) ExistsByIdempotencyKey(ctx context.Context, key string) (bool, error) {
	var count int64
	err := xcontext.DB(ctx).
		Model(&entity.Transaction{}).
		Where("idempotency_key=?", key).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *transactionRepository) GetBySaleID(ctx context.Context, saleID string) ([]entity.Transaction, error) {
	var result []entity.Transaction
	err := xcontext.DB(ctx).
		Where("sale_id=?", saleID).
		Order("created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *transactionRepository) GetByRaffleID(ctx context.Context, raffleID string) ([]entity.Transaction, error) {
	var result []entity.Transaction
	err := xcontext.DB(ctx).
		Where("raffle_id=?", raffleID).
		Order("created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *transactionRepository) GetPayoutsByRaffleID(ctx context.Context, raffleID string) ([]entity.Transaction, error) {
	var result []entity.Transaction
	err := xcontext.DB(ctx).
		Where("raffle_id=? AND sale_id IS NULL", raffleID).
		Order("created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
