package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/circle/backend/internal/apperror"
	"github.com/anonto42/circle/backend/internal/models"
)

func TestValidator_Validate(t *testing.T) {
	v := NewValidator()

	tt := []struct {
		name    string
		payload interface{}
		msg     string
	}{
		{
			name:    "valid registration",
			payload: &models.RegisterRequest{Username: "good_name", Email: "a@b.co", Password: "secret1"},
		},
		{
			name:    "username with spaces",
			payload: &models.RegisterRequest{Username: "bad name", Email: "a@b.co", Password: "secret1"},
			msg:     "username may only contain letters, digits and underscores",
		},
		{
			name:    "missing email",
			payload: &models.LoginRequest{Password: "x"},
			msg:     "email is required",
		},
		{
			name:    "too many tags",
			payload: &models.NoteRequest{Title: "t", Content: "c", Tags: make([]string, 21)},
			msg:     "tags must have at most 20 items",
		},
		{
			name:    "empty profile update is structurally valid",
			payload: &models.UpdateUserRequest{},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.payload)
			if tc.msg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, apperror.ValidationFailed, apperror.KindOf(err))
			assert.Equal(t, tc.msg, apperror.PublicMessage(err))
		})
	}
}
