package repository

import (
	"context"

	"github.com/rafflelab/backend/internal/entity"
	"github.com/rafflelab/backend/pkg/xcontext"
)

type OrganizationRepository interface {
	Create(context.Context, *entity.Organization) error
	GetByID(context.Context, string) (*entity.Organization, error)
	CreateBeneficiary(context.Context, *entity.Beneficiary) error
	CountBeneficiaries(ctx context.Context, organizationID string) (int64, error)
}

type organizationRepository struct{}

func NewOrganizationRepository() *organizationRepository {
	return &organizationRepository{}
}

func (r *organizationRepository) Create(ctx context.Context, data *entity.Organization) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*entity.Organization, error) {
	var result entity.Organization
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *organizationRepository) CreateBeneficiary(ctx context.Context, data *entity.Beneficiary) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *organizationRepository) CountBeneficiaries(ctx context.Context, organizationID string) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).
		Model(&entity.Beneficiary{}).
		Where("organization_id=?", organizationID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}
