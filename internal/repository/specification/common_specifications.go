package specification

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderBy sorts on a column. The name is quoted and must come from code,
// never from a request.
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: s.Field}, Desc: s.Desc})
}

// Latest keeps the newest row by created_at, id breaking ties so repeated
// reads pick the same row.
type Latest struct{}

func (Latest) Apply(db *gorm.DB) *gorm.DB {
	db = OrderBy{Field: "created_at", Desc: true}.Apply(db)
	return OrderBy{Field: "id", Desc: true}.Apply(db).Limit(1)
}
