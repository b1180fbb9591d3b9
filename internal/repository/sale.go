package repository

import (
	"context"

	"github.com/rafflelab/backend/internal/entity"
	"github.com/rafflelab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type SaleRepository interface {
	Create(context.Context, *entity.Sale) error
	GetByID(context.Context, string) (*entity.Sale, error)
	GetByExternalPaymentRef(context.Context, string) (*entity.Sale, error)
	GetSuccessByRaffleID(ctx context.Context, raffleID string) ([]entity.Sale, error)
	UpdateSettlementState(ctx context.Context, id string, state entity.SettlementState) error
	UpdateCursors(ctx context.Context, id string, lotteryCursor, progressiveCursor uint64) error
	MarkSuccess(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
}

type saleRepository struct{}

func NewSaleRepository() *saleRepository {
	return &saleRepository{}
}

func (r *saleRepository) Create(ctx context.Context, data *entity.Sale) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *saleRepository) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	var result entity.Sale
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *saleRepository) GetByExternalPaymentRef(ctx context.Context, ref string) (*entity.Sale, error) {
	var result entity.Sale
	if err := xcontext.DB(ctx).Take(&result, "external_payment_ref=?", ref).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *saleRepository) GetSuccessByRaffleID(ctx context.Context, raffleID string) ([]entity.Sale, error) {
	var result []entity.Sale
	err := xcontext.DB(ctx).
		Where("raffle_id=? AND payment_status=?", raffleID, entity.PaymentStatusSuccess).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *saleRepository) UpdateSettlementState(
	ctx context.Context, id string, state entity.SettlementState,
) error {
	return xcontext.DB(ctx).
		Model(&entity.Sale{}).
		Where("id=?", id).
		Update("settlement_state", state).Error
}

func (r *saleRepository) UpdateCursors(
	ctx context.Context, id string, lotteryCursor, progressiveCursor uint64,
) error {
	return xcontext.DB(ctx).
		Model(&entity.Sale{}).
		Where("id=?", id).
		Updates(map[string]any{
			"cursors_captured":   true,
			"lottery_cursor":     lotteryCursor,
			"progressive_cursor": progressiveCursor,
		}).Error
}

func (r *saleRepository) MarkSuccess(ctx context.Context, id string) error {
	return xcontext.DB(ctx).
		Model(&entity.Sale{}).
		Where("id=?", id).
		Updates(map[string]any{
			"payment_status":   entity.PaymentStatusSuccess,
			"settlement_state": entity.SettlementEntriesIssued,
		}).Error
}

// Cancel moves a sale to cancel while no settlement step has run. It returns
// gorm.ErrRecordNotFound if the sale is success or its settlement started.
func (r *saleRepository) Cancel(ctx context.Context, id string) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Sale{}).
		Where("id=? AND payment_status<>? AND settlement_state=?",
			id, entity.PaymentStatusSuccess, entity.SettlementInitiated).
		Update("payment_status", entity.PaymentStatusCancel)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
