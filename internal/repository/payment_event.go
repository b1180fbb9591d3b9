package repository

import (
	"context"

	"github.com/rafflelab/backend/internal/entity"
	"github.com/rafflelab/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type PaymentEventRepository interface {
	// Create returns ErrDuplicated if the provider already delivered
	// this event.
	Create(context.Context, *entity.PaymentEvent) error
	ExistsByPaymentRef(ctx context.Context, externalPaymentRef, status string) (bool, error)
}

type paymentEventRepository struct{}

func NewPaymentEventRepository() *paymentEventRepository {
	return &paymentEventRepository{}
}

func (r *paymentEventRepository) Create(ctx context.Context, data *entity.PaymentEvent) error {
	tx := xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "event_id"}},
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

func (r *paymentEventRepository) ExistsByPaymentRef(
	ctx context.Context, externalPaymentRef, status string,
) (bool, error) {
	var count int64
	err := xcontext.DB(ctx).
		Model(&entity.PaymentEvent{}).
		Where("external_payment_ref=? AND status=?", externalPaymentRef, status).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
