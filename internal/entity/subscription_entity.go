package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive              SubscriptionStatus = "active"
	SubscriptionStatusPendingCancellation SubscriptionStatus = "pending_cancellation"
	SubscriptionStatusCancelled           SubscriptionStatus = "cancelled"
)

// rank orders statuses along the only allowed direction of travel.
var statusRank = map[SubscriptionStatus]int{
	SubscriptionStatusActive:              0,
	SubscriptionStatusPendingCancellation: 1,
	SubscriptionStatusCancelled:           2,
}

func (s SubscriptionStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanMoveTo reports whether s -> to keeps the status moving forward.
func (s SubscriptionStatus) CanMoveTo(to SubscriptionStatus) bool {
	from, ok1 := statusRank[s]
	next, ok2 := statusRank[to]
	return ok1 && ok2 && next > from
}

type UserSubscription struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	MonthlyPrice int // cents
	Status       SubscriptionStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MonthlyPriceDollars formats the price for display, e.g. "$25.00".
func (s *UserSubscription) MonthlyPriceDollars() string {
	return FormatCents(s.MonthlyPrice)
}

func FormatCents(cents int) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
