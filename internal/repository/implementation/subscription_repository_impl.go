package implementation

import (
	"context"

	"subscription-cancel-be/internal/entity"
	"subscription-cancel-be/internal/mapper"
	"subscription-cancel-be/internal/model"
	"subscription-cancel-be/internal/repository/contract"
	"subscription-cancel-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type subscriptionRepository struct {
	db     *gorm.DB
	mapper *mapper.SubscriptionMapper
}

func NewSubscriptionRepository(db *gorm.DB) contract.SubscriptionRepository {
	return &subscriptionRepository{db: db, mapper: mapper.NewSubscriptionMapper()}
}

func (r *subscriptionRepository) CreateSubscription(ctx context.Context, subscription *entity.UserSubscription) error {
	row := r.mapper.UserSubscriptionToModel(subscription)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	*subscription = *r.mapper.UserSubscriptionToEntity(row)
	return nil
}

func (r *subscriptionRepository) FindOneSubscription(ctx context.Context, specs ...specification.Specification) (*entity.UserSubscription, error) {
	row, err := first[model.UserSubscription](ctx, r.db, specs)
	if err != nil || row == nil {
		return nil, err
	}
	return r.mapper.UserSubscriptionToEntity(row), nil
}

func (r *subscriptionRepository) FindAllSubscriptions(ctx context.Context, specs ...specification.Specification) ([]*entity.UserSubscription, error) {
	rows, err := find[model.UserSubscription](ctx, r.db, specs)
	if err != nil {
		return nil, err
	}
	return mapRows(rows, r.mapper.UserSubscriptionToEntity), nil
}

// UpdateStatus moves the row from one status to the next only if it is still
// in the expected status. It reports whether a row changed.
func (r *subscriptionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.SubscriptionStatus) (bool, error) {
	if !from.CanMoveTo(to) {
		return false, nil
	}
	res := r.db.WithContext(ctx).Model(&model.UserSubscription{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
