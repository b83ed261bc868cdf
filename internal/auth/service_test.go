package auth

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgauth "github.com/verdeleaf/storefront-backend/pkg/auth"
	"github.com/verdeleaf/storefront-backend/pkg/auth/session"
	"github.com/verdeleaf/storefront-backend/pkg/config"
	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	pkgerrors "github.com/verdeleaf/storefront-backend/pkg/errors"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
	"github.com/verdeleaf/storefront-backend/pkg/security"
)

type stubAdminStore struct {
	admins     map[uuid.UUID]*models.AdminUser
	lastLogins map[uuid.UUID]time.Time
}

func newStubAdminStore() *stubAdminStore {
	return &stubAdminStore{
		admins:     map[uuid.UUID]*models.AdminUser{},
		lastLogins: map[uuid.UUID]time.Time{},
	}
}

func (s *stubAdminStore) FindByEmail(_ context.Context, email string) (*models.AdminUser, error) {
	for _, admin := range s.admins {
		if strings.EqualFold(admin.Email, email) {
			clone := *admin
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubAdminStore) FindByID(_ context.Context, id uuid.UUID) (*models.AdminUser, error) {
	admin, ok := s.admins[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *admin
	return &clone, nil
}

func (s *stubAdminStore) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	s.lastLogins[id] = at
	return nil
}

type stubSessionManager struct {
	sessions map[string]string
	revoked  []string
}

func newStubSessionManager() *stubSessionManager {
	return &stubSessionManager{sessions: map[string]string{}}
}

func (s *stubSessionManager) Generate(_ context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	s.sessions[accessID] = token
	return token, nil
}

func (s *stubSessionManager) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := s.sessions[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.sessions, oldAccessID)
	newAccessID := session.NewAccessID()
	newToken := "refresh-" + newAccessID
	s.sessions[newAccessID] = newToken
	return newAccessID, newToken, nil
}

func (s *stubSessionManager) Revoke(_ context.Context, accessID string) error {
	delete(s.sessions, accessID)
	s.revoked = append(s.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "verdeleaf-test",
		ExpirationMinutes: 60,
		SessionTTLMinutes: 43200,
	}
}

func seedAdmin(t *testing.T, store *stubAdminStore, email, password, role string) *models.AdminUser {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	require.NoError(t, err)
	admin := &models.AdminUser{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	store.admins[admin.ID] = admin
	return admin
}

func newAuthService(t *testing.T, store *stubAdminStore, sessions *stubSessionManager) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		AdminRepo:      store,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		Logger:         logger.New(logger.Options{ServiceName: "auth-test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc
}

func requireAuthCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, code, coded.Code())
}

func TestLoginIssuesValidTokenPair(t *testing.T) {
	store := newStubAdminStore()
	sessions := newStubSessionManager()
	admin := seedAdmin(t, store, "ops@verdeleaf.fr", "s3cret-passphrase", "admin")
	svc := newAuthService(t, store, sessions)

	pair, err := svc.Login(context.Background(), LoginRequest{Email: "OPS@verdeleaf.fr", Password: "s3cret-passphrase"})
	require.NoError(t, err)
	require.Equal(t, admin.ID, pair.Admin.ID)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, admin.ID, claims.AdminID)
	require.Equal(t, admin.Email, claims.Email)
	require.Contains(t, sessions.sessions, claims.ID)
	require.Contains(t, store.lastLogins, admin.ID)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	store := newStubAdminStore()
	seedAdmin(t, store, "ops@verdeleaf.fr", "s3cret-passphrase", "admin")
	svc := newAuthService(t, store, newStubSessionManager())
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "ops@verdeleaf.fr", "not-the-password"},
		{"unknown account", "ghost@verdeleaf.fr", "s3cret-passphrase"},
		{"empty email", "", "s3cret-passphrase"},
		{"empty password", "ops@verdeleaf.fr", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(ctx, LoginRequest{Email: tc.email, Password: tc.password})
			requireAuthCode(t, err, pkgerrors.CodeUnauthorized)
			coded := pkgerrors.As(err)
			require.Equal(t, invalidCredentialsMessage, coded.Message())
		})
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	store := newStubAdminStore()
	sessions := newStubSessionManager()
	seedAdmin(t, store, "ops@verdeleaf.fr", "s3cret-passphrase", "admin")
	svc := newAuthService(t, store, sessions)
	ctx := context.Background()

	pair, err := svc.Login(ctx, LoginRequest{Email: "ops@verdeleaf.fr", Password: "s3cret-passphrase"})
	require.NoError(t, err)
	oldClaims, err := pkgauth.ParseAccessToken(testJWTConfig(), pair.AccessToken)
	require.NoError(t, err)

	fresh, err := svc.Refresh(ctx, RefreshRequest{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, fresh.RefreshToken)

	newClaims, err := pkgauth.ParseAccessToken(testJWTConfig(), fresh.AccessToken)
	require.NoError(t, err)
	require.NotEqual(t, oldClaims.ID, newClaims.ID)
	require.NotContains(t, sessions.sessions, oldClaims.ID)
	require.Contains(t, sessions.sessions, newClaims.ID)

	// The consumed refresh token cannot be replayed.
	_, err = svc.Refresh(ctx, RefreshRequest{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
	requireAuthCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestRefreshRejectsForgedAccessToken(t *testing.T) {
	store := newStubAdminStore()
	seedAdmin(t, store, "ops@verdeleaf.fr", "s3cret-passphrase", "admin")
	svc := newAuthService(t, store, newStubSessionManager())

	_, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  "not.a.jwt",
		RefreshToken: "whatever",
	})
	requireAuthCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestRefreshDeletedAccountDropsNewSession(t *testing.T) {
	store := newStubAdminStore()
	sessions := newStubSessionManager()
	admin := seedAdmin(t, store, "ops@verdeleaf.fr", "s3cret-passphrase", "admin")
	svc := newAuthService(t, store, sessions)
	ctx := context.Background()

	pair, err := svc.Login(ctx, LoginRequest{Email: "ops@verdeleaf.fr", Password: "s3cret-passphrase"})
	require.NoError(t, err)

	delete(store.admins, admin.ID)

	_, err = svc.Refresh(ctx, RefreshRequest{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
	requireAuthCode(t, err, pkgerrors.CodeUnauthorized)
	require.Empty(t, sessions.sessions)
}

func TestLogoutRevokesSession(t *testing.T) {
	store := newStubAdminStore()
	sessions := newStubSessionManager()
	seedAdmin(t, store, "ops@verdeleaf.fr", "s3cret-passphrase", "admin")
	svc := newAuthService(t, store, sessions)
	ctx := context.Background()

	pair, err := svc.Login(ctx, LoginRequest{Email: "ops@verdeleaf.fr", Password: "s3cret-passphrase"})
	require.NoError(t, err)
	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims.ID))
	require.NotContains(t, sessions.sessions, claims.ID)

	err = svc.Logout(ctx, "  ")
	requireAuthCode(t, err, pkgerrors.CodeValidation)
}
