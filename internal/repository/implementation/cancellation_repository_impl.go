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

type cancellationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CancellationMapper
}

func NewCancellationRepository(db *gorm.DB) contract.CancellationRepository {
	return &cancellationRepositoryImpl{
		db:     db,
		mapper: mapper.NewCancellationMapper(),
	}
}

// Create inserts the record. ID and CreatedAt are assigned by the store when
// unset and copied back onto the entity.
func (r *cancellationRepositoryImpl) Create(ctx context.Context, cancellation *entity.Cancellation) error {
	m := r.mapper.ToModel(cancellation)
	if err := r.db.WithContext(ctx).Omit("User", "Subscription").Create(m).Error; err != nil {
		return err
	}
	cancellation.ID = m.ID
	cancellation.CreatedAt = m.CreatedAt
	return nil
}

func (r *cancellationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Cancellation, error) {
	rows, err := find[model.Cancellation](ctx, r.db, specs)
	if err != nil {
		return nil, err
	}
	return mapRows(rows, r.mapper.ToEntity), nil
}

func (r *cancellationRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return count[model.Cancellation](ctx, r.db, specs)
}
