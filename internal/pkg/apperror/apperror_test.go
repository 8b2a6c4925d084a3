package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		err    error
		kind   Kind
		status int
	}{
		{Validation("email required"), KindValidation, http.StatusBadRequest},
		{NotFound("user not found"), KindNotFound, http.StatusNotFound},
		{Gateway("insert cancellation", errors.New("duplicate key")), KindGateway, http.StatusInternalServerError},
		{ErrNotConfigured, KindConfiguration, http.StatusInternalServerError},
		{Conflict("invalid transition", nil), KindConflict, http.StatusConflict},
		{Forbidden("invalid csrf token"), KindForbidden, http.StatusForbidden},
		{errors.New("boom"), KindUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.status, KindOf(tt.err).HTTPStatus())
		})
	}
}

func TestGatewayKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("record: %w", Gateway("find user", cause))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindGateway, KindOf(err))
	assert.Equal(t, "connection refused", Message(err))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, ConfigurationMessage, Message(ErrNotConfigured))
	assert.Equal(t, "no subscription", Message(NotFound("no subscription")))
	assert.Equal(t, "plain", Message(errors.New("plain")))
}
