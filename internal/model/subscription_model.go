package model

import (
	"time"

	"github.com/google/uuid"
)

type UserSubscription struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID `gorm:"type:uuid;not null;index"`
	MonthlyPrice int       `gorm:"not null"` // cents
	Status       string    `gorm:"type:subscription_status;not null;default:'active'"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`

	User User `gorm:"foreignKey:UserId"`
}

func (UserSubscription) TableName() string {
	return "subscriptions"
}
