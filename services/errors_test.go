package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfAndPublicMessage(t *testing.T) {
	wrapped := fmt.Errorf("%w: %w", ErrInternal, errors.New("connection refused on 10.0.0.5"))

	tests := []struct {
		name    string
		err     error
		kind    Kind
		message string
	}{
		{"validation", ErrInvalidEmail, KindValidation, "invalid email address"},
		{"not found", ErrInvalidToken, KindNotFound, "invalid token"},
		{"conflict", ErrLimitExceeded, KindConflict, "maximum 5 subscriptions per email address"},
		{"wrapped collaborator failure", wrapped, KindInternal, "internal server error"},
		{"foreign error", errors.New("boom"), KindInternal, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.message, PublicMessage(tt.err))
		})
	}
	assert.ErrorIs(t, wrapped, ErrInternal)
}
