package implementation

import (
	"context"

	"subscription-cancel-be/internal/entity"
	"subscription-cancel-be/internal/mapper"
	"subscription-cancel-be/internal/model"
	"subscription-cancel-be/internal/repository/contract"
	"subscription-cancel-be/internal/repository/specification"

	"gorm.io/gorm"
)

type userRepository struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewUserRepository(db *gorm.DB) contract.UserRepository {
	return &userRepository{db: db, mapper: mapper.NewUserMapper()}
}

// Create stores the user and copies generated columns back.
func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	row := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	*user = *r.mapper.ToEntity(row)
	return nil
}

func (r *userRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	row, err := first[model.User](ctx, r.db, specs)
	if err != nil || row == nil {
		return nil, err
	}
	return r.mapper.ToEntity(row), nil
}

func (r *userRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	rows, err := find[model.User](ctx, r.db, specs)
	if err != nil {
		return nil, err
	}
	return mapRows(rows, r.mapper.ToEntity), nil
}
