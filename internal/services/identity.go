package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/anonto42/circle/backend/internal/apperror"
	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	minSearchQueryLength = 2
	maxSearchResults     = 10
	maxUsernameLength    = 30
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenIssuer issues session tokens for a user id.
type TokenIssuer interface {
	IssueToken(userID string) (string, error)
}

// IDTokenVerifier verifies ID tokens issued by an external identity provider.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*models.ExternalIdentity, error)
}

// IdentityService owns user accounts and credential checks.
type IdentityService struct {
	users    repositories.UserRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	external IDTokenVerifier
	now      func() time.Time
}

func NewIdentityService(users repositories.UserRepository, hasher PasswordHasher, tokens TokenIssuer) *IdentityService {
	return &IdentityService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		now:    time.Now,
	}
}

// WithExternalVerifier enables FirebaseLogin.
func (s *IdentityService) WithExternalVerifier(v IDTokenVerifier) *IdentityService {
	s.external = v
	return s
}

// Register creates an account. Username and email are matched exactly as
// given.
func (s *IdentityService) Register(ctx context.Context, username, email, password string) (*models.Session, error) {
	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.ErrDuplicateIdentity
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		Username:  username,
		Email:     email,
		Password:  hash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return s.session(user)
}

// Authenticate checks an email/password pair. Unknown emails and wrong
// passwords fail with the same error.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*models.Session, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, apperror.ErrUserNotFound) {
		return nil, apperror.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if user.Password == "" || !s.hasher.Verify(password, user.Password) {
		return nil, apperror.ErrInvalidCredentials
	}

	return s.session(user)
}

// FirebaseLogin exchanges a verified external ID token for a local session,
// linking or creating the account on first use.
func (s *IdentityService) FirebaseLogin(ctx context.Context, idToken string) (*models.Session, error) {
	if s.external == nil {
		return nil, apperror.New(apperror.ValidationFailed, "external login is not configured")
	}

	identity, err := s.external.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, apperror.ErrUnauthenticated.WithCause(err)
	}

	user, err := s.users.GetUserByFirebaseUID(ctx, identity.UID)
	if err == nil {
		return s.session(user)
	}
	if !errors.Is(err, apperror.ErrUserNotFound) {
		return nil, err
	}

	if identity.Email == "" {
		return nil, apperror.New(apperror.ValidationFailed, "identity provider did not supply an email")
	}

	user, err = s.users.GetUserByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		if err := s.users.SetFirebaseUID(ctx, user.ID, identity.UID); err != nil {
			return nil, err
		}
		user.FirebaseUID = identity.UID
		return s.session(user)
	case !errors.Is(err, apperror.ErrUserNotFound):
		return nil, err
	}

	username, err := s.availableUsername(ctx, identity)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user = &models.User{
		Username:    username,
		Email:       identity.Email,
		FirebaseUID: identity.UID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return s.session(user)
}

func (s *IdentityService) availableUsername(ctx context.Context, identity *models.ExternalIdentity) (string, error) {
	base := sanitizeUsername(identity.Name)
	if base == "" {
		base = sanitizeUsername(strings.SplitN(identity.Email, "@", 2)[0])
	}
	for len(base) < 3 {
		base += "user"
	}

	candidates := []string{truncate(base, maxUsernameLength)}
	if suffix := sanitizeUsername(identity.UID); suffix != "" {
		candidates = append(candidates, truncate(base, maxUsernameLength-7)+"_"+truncate(strings.ToLower(suffix), 6))
	}

	for _, candidate := range candidates {
		_, err := s.users.GetUserByUsername(ctx, candidate)
		if errors.Is(err, apperror.ErrUserNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", apperror.ErrUsernameTaken
}

// GetProfile returns a user without the credential hash.
func (s *IdentityService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

// UpdateProfile applies the non-empty fields of update.
func (s *IdentityService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	if update.IsEmpty() {
		return nil, apperror.ErrNoFieldsProvided
	}

	if update.Username != "" {
		other, err := s.users.GetUserByUsername(ctx, update.Username)
		switch {
		case err == nil && other.ID != userID:
			return nil, apperror.ErrUsernameTaken
		case err != nil && !errors.Is(err, apperror.ErrUserNotFound):
			return nil, err
		}
	}

	user, err := s.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

// Search finds users whose username contains query, ignoring case.
func (s *IdentityService) Search(ctx context.Context, query string, requesterID primitive.ObjectID) ([]models.User, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < minSearchQueryLength {
		return nil, apperror.ErrInvalidQuery
	}
	return s.users.FindByUsernameContains(ctx, q, requesterID, maxSearchResults)
}

// ListUsers returns every user except the requester.
func (s *IdentityService) ListUsers(ctx context.Context, requesterID primitive.ObjectID) ([]models.User, error) {
	return s.users.GetUsers(ctx, requesterID)
}

// ResolveRefs maps user ids to lightweight references. Unknown ids are
// absent from the result.
func (s *IdentityService) ResolveRefs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserRef, error) {
	unique := make([]primitive.ObjectID, 0, len(ids))
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}

	users, err := s.users.GetUsersByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}

	refs := make(map[primitive.ObjectID]models.UserRef, len(users))
	for i := range users {
		refs[users[i].ID] = users[i].ToRef()
	}
	return refs, nil
}

func (s *IdentityService) session(user *models.User) (*models.Session, error) {
	token, err := s.tokens.IssueToken(user.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	user.Password = ""
	return &models.Session{Token: token, User: user}, nil
}

func sanitizeUsername(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
