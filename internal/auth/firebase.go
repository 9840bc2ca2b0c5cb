package auth

import (
	"context"

	fbauth "firebase.google.com/go/v4/auth"

	"github.com/anonto42/circle/backend/internal/models"
)

// FirebaseVerifier verifies Firebase ID tokens.
type FirebaseVerifier struct {
	client *fbauth.Client
}

func NewFirebaseVerifier(client *fbauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

// VerifyIDToken verifies idToken and extracts the identity it asserts.
func (v *FirebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*models.ExternalIdentity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	identity := &models.ExternalIdentity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		identity.Name = name
	}
	return identity, nil
}
