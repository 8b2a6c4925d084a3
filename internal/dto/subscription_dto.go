package dto

type SubscriptionCancelRequest struct {
	Email string `json:"email" validate:"required" errmsg:"email required"`
}

type SubscriptionCancelResponse struct {
	Status  string `json:"status"`
	Already bool   `json:"already,omitempty"`
}

type SubscriptionStatusQuery struct {
	Email string `query:"email" json:"email" validate:"required" errmsg:"email required"`
}

// SubscriptionStatusResponse omits the price when there is no subscription.
type SubscriptionStatusResponse struct {
	Status       string `json:"status"`
	MonthlyPrice *int   `json:"monthly_price,omitempty"`
}
