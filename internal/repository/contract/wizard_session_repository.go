package contract

import (
	"context"

	"subscription-cancel-be/pkg/wizard"
)

// WizardSessionRepository keeps in-flight wizard sessions. Get returns
// (nil, nil) for unknown or expired ids.
type WizardSessionRepository interface {
	Save(ctx context.Context, session *wizard.Session) error
	Get(ctx context.Context, id string) (*wizard.Session, error)
	Delete(ctx context.Context, id string) error

	// ClaimFinalize reports true to exactly one caller per session id, across
	// every process sharing the store.
	ClaimFinalize(ctx context.Context, id string) (bool, error)
}
