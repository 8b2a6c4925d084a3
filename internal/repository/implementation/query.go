package implementation

import (
	"context"
	"errors"

	"subscription-cancel-be/internal/repository/specification"

	"gorm.io/gorm"
)

func scoped(ctx context.Context, db *gorm.DB, specs []specification.Specification) *gorm.DB {
	db = db.WithContext(ctx)
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// first loads one row of M. A missing row is (nil, nil).
func first[M any](ctx context.Context, db *gorm.DB, specs []specification.Specification) (*M, error) {
	var row M
	err := scoped(ctx, db, specs).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func find[M any](ctx context.Context, db *gorm.DB, specs []specification.Specification) ([]*M, error) {
	var rows []*M
	if err := scoped(ctx, db, specs).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func count[M any](ctx context.Context, db *gorm.DB, specs []specification.Specification) (int64, error) {
	var n int64
	err := scoped(ctx, db.Model(new(M)), specs).Count(&n).Error
	return n, err
}

func mapRows[M, E any](rows []*M, to func(*M) *E) []*E {
	out := make([]*E, len(rows))
	for i, row := range rows {
		out[i] = to(row)
	}
	return out
}
