package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/circle/backend/internal/models"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	token, err := m.IssueToken("64b7f0c2a1b2c3d4e5f60718")
	require.NoError(t, err)

	userID, err := m.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", userID)
}

func TestJWTManager_VerifyToken_Rejects(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	otherKey, err := NewJWTManager("other", time.Hour).IssueToken("u1")
	require.NoError(t, err)

	expired, err := NewJWTManager("secret", -time.Minute).IssueToken("u1")
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, &models.JwtCustomClaims{UserID: "u1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tt := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong key", token: otherKey},
		{name: "expired", token: expired},
		{name: "none algorithm", token: noneAlg},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.VerifyToken(tc.token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)

	hash, err := h.Hash("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, h.Verify("hunter22", hash))
	assert.False(t, h.Verify("hunter23", hash))
}
