package repository

import (
	"context"

	"github.com/rafflelab/backend/internal/entity"
	"github.com/rafflelab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(context.Context, *entity.User) error
	GetByID(context.Context, string) (*entity.User, error)
	GetByPeerplaysAccountID(context.Context, string) (*entity.User, error)
	UpdatePeerplaysAccountID(ctx context.Context, id, accountID string) error
}

type userRepository struct{}

func NewUserRepository() *userRepository {
	return &userRepository{}
}

func (r *userRepository) Create(ctx context.Context, data *entity.User) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var result entity.User
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *userRepository) GetByPeerplaysAccountID(ctx context.Context, accountID string) (*entity.User, error) {
	if accountID == "" {
		return nil, gorm.ErrRecordNotFound
	}

	var result entity.User
	if err := xcontext.DB(ctx).Take(&result, "peerplays_account_id=?", accountID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *userRepository) UpdatePeerplaysAccountID(ctx context.Context, id, accountID string) error {
	return xcontext.DB(ctx).
		Model(&entity.User{}).
		Where("id=?", id).
		Update("peerplays_account_id", accountID).Error
}
