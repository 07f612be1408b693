package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// IdentityStore is the persistence boundary for identities and profiles.
type IdentityStore interface {
	CreateIdentity(ctx context.Context, email, passwordHash string) (string, error)
	GetCredentials(ctx context.Context, email string) (id, passwordHash string, err error)
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
	GetProfileByID(ctx context.Context, id string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id string, patch *models.ProfilePatch) error
	DeleteProfile(ctx context.Context, id string) error
}

// SessionStore issues, resolves, and revokes session tokens.
type SessionStore interface {
	CreateSession(ctx context.Context, token, userID string, ttl time.Duration) error
	GetSession(ctx context.Context, token string) (string, error)
	DeleteSession(ctx context.Context, token string) error
}

// Identity is the authenticated principal for the current session.
type Identity struct {
	ID    string
	Email string
}

// AuthService wraps the identity backend: sign-in, sign-up, sign-out,
// profile fetch/update, password change, and account deletion. Durable
// state lives in the stores; this holds only the session-local view.
type AuthService struct {
	identities IdentityStore
	sessions   SessionStore
	sessionTTL time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	user    *Identity
	profile *models.Profile
	token   string
	loading bool
	lastErr error
}

// NewAuthService creates a new auth service
func NewAuthService(identities IdentityStore, sessions SessionStore, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		identities: identities,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		logger:     util.GetLogger(),
	}
}

// CurrentUser returns the signed-in identity, or nil.
func (a *AuthService) CurrentUser() *Identity {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user
}

// Profile returns the current profile, or nil.
func (a *AuthService) Profile() *models.Profile {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.profile
}

// SessionToken returns the active session token, or "".
func (a *AuthService) SessionToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

// Loading reports whether an auth operation is in flight.
func (a *AuthService) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

// Err returns the last operation error, or nil.
func (a *AuthService) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

func (a *AuthService) begin() {
	a.mu.Lock()
	a.loading = true
	a.lastErr = nil
	a.mu.Unlock()
}

func (a *AuthService) finish(err error) {
	a.mu.Lock()
	a.loading = false
	a.lastErr = err
	a.mu.Unlock()
}

// SignIn authenticates with email and password. On success it populates the
// identity and profile and returns the new session token.
func (a *AuthService) SignIn(ctx context.Context, email, password string) (string, error) {
	a.begin()
	token, err := a.signIn(ctx, email, password)
	a.finish(err)
	return token, err
}

func (a *AuthService) signIn(ctx context.Context, email, password string) (string, error) {
	id, hash, err := a.identities.GetCredentials(ctx, email)
	if err != nil {
		util.SignInFailedTotal.Inc()
		return "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		util.SignInFailedTotal.Inc()
		return "", ErrInvalidCredentials
	}

	token := uuid.New().String()
	if err := a.sessions.CreateSession(ctx, token, id, a.sessionTTL); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	profile, err := a.identities.GetProfileByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to fetch profile: %w", err)
	}

	a.mu.Lock()
	a.user = &Identity{ID: id, Email: email}
	a.profile = profile
	a.token = token
	a.mu.Unlock()

	util.SignInTotal.Inc()
	a.logger.Info("User signed in", zap.String("user_id", id))
	return token, nil
}

// SignUp registers a new identity, applies the full name to the fresh
// profile, and signs the user in.
func (a *AuthService) SignUp(ctx context.Context, email, password, fullName string) (string, error) {
	a.begin()
	token, err := a.signUp(ctx, email, password, fullName)
	a.finish(err)
	return token, err
}

func (a *AuthService) signUp(ctx context.Context, email, password, fullName string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := a.identities.CreateIdentity(ctx, email, string(hash))
	if err != nil {
		return "", fmt.Errorf("failed to create identity: %w", err)
	}

	if err := a.identities.UpdateProfile(ctx, id, &models.ProfilePatch{FullName: &fullName}); err != nil {
		return "", fmt.Errorf("failed to set full name: %w", err)
	}

	token := uuid.New().String()
	if err := a.sessions.CreateSession(ctx, token, id, a.sessionTTL); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	a.mu.Lock()
	a.user = &Identity{ID: id, Email: email}
	a.profile = &models.Profile{ID: id, Email: email, FullName: &fullName}
	a.token = token
	a.mu.Unlock()

	util.SignUpTotal.Inc()
	a.logger.Info("User signed up", zap.String("user_id", id))
	return token, nil
}

// SignOut revokes the session and clears the local identity and profile.
func (a *AuthService) SignOut(ctx context.Context) error {
	a.begin()
	err := a.signOut(ctx)
	a.finish(err)
	return err
}

func (a *AuthService) signOut(ctx context.Context) error {
	a.mu.Lock()
	token := a.token
	a.mu.Unlock()

	if token != "" {
		if err := a.sessions.DeleteSession(ctx, token); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
	}

	a.mu.Lock()
	a.user = nil
	a.profile = nil
	a.token = ""
	a.mu.Unlock()
	return nil
}

// Resume restores the session-local view from an existing token, as after a
// client reload. An unknown or expired token yields ErrUnauthenticated.
func (a *AuthService) Resume(ctx context.Context, token string) error {
	userID, err := a.sessions.GetSession(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to resolve session: %w", err)
	}
	if userID == "" {
		return ErrUnauthenticated
	}

	profile, err := a.identities.GetProfileByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}

	a.mu.Lock()
	a.user = &Identity{ID: userID, Email: profile.Email}
	a.profile = profile
	a.token = token
	a.mu.Unlock()
	return nil
}

// FetchProfile re-reads the profile from the backend.
func (a *AuthService) FetchProfile(ctx context.Context) error {
	a.mu.Lock()
	user := a.user
	a.mu.Unlock()
	if user == nil {
		return ErrUnauthenticated
	}

	profile, err := a.identities.GetProfileByID(ctx, user.ID)
	if err != nil {
		a.logger.Error("Failed to fetch profile", zap.Error(err))
		return err
	}

	a.mu.Lock()
	a.profile = profile
	a.mu.Unlock()
	return nil
}

// UpdateProfile writes a partial patch, then re-fetches the full profile
// rather than trusting an optimistic local merge.
func (a *AuthService) UpdateProfile(ctx context.Context, patch *models.ProfilePatch) error {
	a.begin()
	err := a.updateProfile(ctx, patch)
	a.finish(err)
	return err
}

func (a *AuthService) updateProfile(ctx context.Context, patch *models.ProfilePatch) error {
	a.mu.Lock()
	user := a.user
	a.mu.Unlock()
	if user == nil {
		return ErrUnauthenticated
	}

	if err := a.identities.UpdateProfile(ctx, user.ID, patch); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return a.FetchProfile(ctx)
}

// UpdatePassword re-verifies the current password before applying the new
// one. A failed re-verification never touches the stored hash.
func (a *AuthService) UpdatePassword(ctx context.Context, currentPassword, newPassword string) error {
	a.begin()
	err := a.updatePassword(ctx, currentPassword, newPassword)
	a.finish(err)
	return err
}

func (a *AuthService) updatePassword(ctx context.Context, currentPassword, newPassword string) error {
	a.mu.Lock()
	user := a.user
	a.mu.Unlock()
	if user == nil {
		return ErrUnauthenticated
	}

	_, hash, err := a.identities.GetCredentials(ctx, user.Email)
	if err != nil {
		return ErrIncorrectPassword
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(currentPassword)) != nil {
		return ErrIncorrectPassword
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := a.identities.UpdatePasswordHash(ctx, user.ID, string(newHash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	a.logger.Info("Password updated", zap.String("user_id", user.ID))
	return nil
}

// DeleteAccount deletes the profile record, relying on the backend to
// cascade-delete the identity, then signs out locally.
func (a *AuthService) DeleteAccount(ctx context.Context) error {
	a.begin()
	err := a.deleteAccount(ctx)
	a.finish(err)
	return err
}

func (a *AuthService) deleteAccount(ctx context.Context) error {
	a.mu.Lock()
	user := a.user
	a.mu.Unlock()
	if user == nil {
		return ErrUnauthenticated
	}

	if err := a.identities.DeleteProfile(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	a.logger.Info("Account deleted", zap.String("user_id", user.ID))
	return a.signOut(ctx)
}
