package mapper

import (
	"fmt"

	"subscription-cancel-be/internal/entity"
	"subscription-cancel-be/internal/model"

	"gorm.io/datatypes"
)

type CancellationMapper struct{}

func NewCancellationMapper() *CancellationMapper {
	return &CancellationMapper{}
}

func (m *CancellationMapper) ToModel(c *entity.Cancellation) *model.Cancellation {
	if c == nil {
		return nil
	}
	var answers datatypes.JSONMap
	if len(c.SurveyAnswers) > 0 {
		answers = make(datatypes.JSONMap, len(c.SurveyAnswers))
		for k, v := range c.SurveyAnswers {
			answers[k] = v
		}
	}
	return &model.Cancellation{
		ID:               c.ID,
		UserID:           c.UserID,
		SubscriptionID:   c.SubscriptionID,
		DownsellVariant:  c.DownsellVariant,
		Reason:           c.Reason,
		AcceptedDownsell: c.AcceptedDownsell,
		VisaType:         c.VisaType,
		VisaHelp:         c.VisaHelp,
		FoundJobWithMM:   c.FoundJobWithMM,
		ReviewFeedback:   c.ReviewFeedback,
		SurveyAnswers:    answers,
		CreatedAt:        c.CreatedAt,
	}
}

func (m *CancellationMapper) ToEntity(c *model.Cancellation) *entity.Cancellation {
	if c == nil {
		return nil
	}
	var answers map[string]string
	if len(c.SurveyAnswers) > 0 {
		answers = make(map[string]string, len(c.SurveyAnswers))
		for k, v := range c.SurveyAnswers {
			if s, ok := v.(string); ok {
				answers[k] = s
			} else {
				answers[k] = fmt.Sprint(v)
			}
		}
	}
	return &entity.Cancellation{
		ID:               c.ID,
		UserID:           c.UserID,
		SubscriptionID:   c.SubscriptionID,
		DownsellVariant:  c.DownsellVariant,
		Reason:           c.Reason,
		AcceptedDownsell: c.AcceptedDownsell,
		VisaType:         c.VisaType,
		VisaHelp:         c.VisaHelp,
		FoundJobWithMM:   c.FoundJobWithMM,
		ReviewFeedback:   c.ReviewFeedback,
		SurveyAnswers:    answers,
		CreatedAt:        c.CreatedAt,
	}
}
