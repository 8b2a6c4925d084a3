package contract

import (
	"context"

	"subscription-cancel-be/internal/entity"
	"subscription-cancel-be/internal/repository/specification"
)

// CancellationRepository is append-only: there is no update or delete.
type CancellationRepository interface {
	Create(ctx context.Context, cancellation *entity.Cancellation) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Cancellation, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
