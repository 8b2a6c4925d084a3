package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Cancellation is append-only. Rows are never updated or deleted.
type Cancellation struct {
	ID               uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID         `gorm:"type:uuid;not null;index"`
	SubscriptionID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	DownsellVariant  string            `gorm:"type:char(1);not null"`
	Reason           *string           `gorm:"type:text"`
	AcceptedDownsell bool              `gorm:"not null;default:false"`
	VisaType         *string           `gorm:"type:text"`
	VisaHelp         *bool
	FoundJobWithMM   *bool             `gorm:"column:found_job_with_mm"`
	ReviewFeedback   *string           `gorm:"type:text"`
	SurveyAnswers    datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt        time.Time         `gorm:"autoCreateTime"`

	Subscription UserSubscription `gorm:"foreignKey:SubscriptionID"`
	User         User             `gorm:"foreignKey:UserID"`
}

func (Cancellation) TableName() string {
	return "cancellations"
}
