package client

import (
	"context"

	"subscription-cancel-be/internal/dto"
	"subscription-cancel-be/pkg/wizard"
)

// Submitter finalizes a locally driven wizard session through
// POST /api/cancellations.
type Submitter struct {
	client *Client
}

func NewSubmitter(c *Client) *Submitter {
	return &Submitter{client: c}
}

func (s *Submitter) Submit(ctx context.Context, sub wizard.Submission) error {
	return s.client.RecordCancellation(ctx, dto.NewCancellationRequest(sub))
}

var _ wizard.Submitter = (*Submitter)(nil)
