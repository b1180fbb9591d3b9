package repository

import (
	"context"

	"github.com/rafflelab/backend/internal/entity"
	"github.com/rafflelab/backend/pkg/xcontext"
)

type BundleRepository interface {
	Create(context.Context, *entity.Bundle) error
	GetByID(context.Context, string) (*entity.Bundle, error)
}

type bundleRepository struct{}

func NewBundleRepository() *bundleRepository {
	return &bundleRepository{}
}

func (r *bundleRepository) Create(ctx context.Context, data *entity.Bundle) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *bundleRepository) GetByID(ctx context.Context, id string) (*entity.Bundle, error) {
	var result entity.Bundle
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}
