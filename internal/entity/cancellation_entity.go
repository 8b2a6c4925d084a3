package entity

import (
	"time"

	"github.com/google/uuid"
)

type Cancellation struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	SubscriptionID   uuid.UUID
	DownsellVariant  string
	Reason           *string
	AcceptedDownsell bool
	VisaType         *string
	VisaHelp         *bool
	FoundJobWithMM   *bool
	ReviewFeedback   *string
	SurveyAnswers    map[string]string
	CreatedAt        time.Time
}
