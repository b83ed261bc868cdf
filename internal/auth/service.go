package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/verdeleaf/storefront-backend/pkg/auth"
	"github.com/verdeleaf/storefront-backend/pkg/auth/session"
	"github.com/verdeleaf/storefront-backend/pkg/config"
	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	"github.com/verdeleaf/storefront-backend/pkg/enums"
	pkgerrors "github.com/verdeleaf/storefront-backend/pkg/errors"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
	"github.com/verdeleaf/storefront-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

type adminStore interface {
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service handles back-office login, token refresh and logout.
type Service struct {
	admins   adminStore
	sessions sessionManager
	jwtCfg   config.JWTConfig
	logg     *logger.Logger
}

// ServiceParams bundles the auth service dependencies.
type ServiceParams struct {
	AdminRepo      adminStore
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	Logger         *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.AdminRepo == nil {
		return nil, errors.New("admin repository is required")
	}
	if params.SessionManager == nil {
		return nil, errors.New("session manager is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		admins:   params.AdminRepo,
		sessions: params.SessionManager,
		jwtCfg:   params.JWTConfig,
		logg:     params.Logger,
	}, nil
}

// LoginRequest carries admin credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AdminSummary is the account payload returned alongside tokens.
type AdminSummary struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// TokenPair is an access/refresh token couple for an admin session.
type TokenPair struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	Admin        AdminSummary `json:"admin"`
}

// Login verifies credentials and opens a refresh session. Failures are
// reported uniformly so callers cannot probe which accounts exist.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	admin, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.admins.UpdateLastLogin(ctx, admin.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	admin.LastLoginAt = &now

	accessID := session.NewAccessID()
	accessToken, err := s.mintToken(admin, now, accessID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}

	s.logg.Info(s.logg.WithAdminID(ctx, admin.ID.String()), "admin logged in")

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Admin:        summarize(admin),
	}, nil
}

// RefreshRequest carries the expired-or-valid access token plus its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh rotates the session and issues a fresh token pair. The old
// refresh token is invalidated even when the access token has expired.
func (s *Service) Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefreshToken, err := s.sessions.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}

	admin, err := s.admins.FindByID(ctx, claims.AdminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The account vanished mid-session; drop the new session too.
			_ = s.sessions.Revoke(ctx, newAccessID)
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup admin")
	}

	accessToken, err := s.mintToken(admin, time.Now().UTC(), newAccessID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		Admin:        summarize(admin),
	}, nil
}

// Logout revokes the refresh session tied to the access token's JTI.
func (s *Service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id is required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}

func (s *Service) authenticate(ctx context.Context, email, password string) (*models.AdminUser, error) {
	input := strings.TrimSpace(email)
	if input == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	admin, err := s.admins.FindByEmail(ctx, strings.ToLower(input))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup admin")
	}

	valid, err := security.VerifyPassword(password, admin.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return admin, nil
}

func (s *Service) mintToken(admin *models.AdminUser, now time.Time, accessID string) (string, error) {
	role, err := enums.ParseAdminRole(admin.Role)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "invalid admin role")
	}
	token, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		AdminID: admin.ID,
		Email:   admin.Email,
		Role:    role,
		JTI:     accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}

func summarize(admin *models.AdminUser) AdminSummary {
	return AdminSummary{
		ID:          admin.ID,
		Email:       admin.Email,
		Role:        admin.Role,
		LastLoginAt: admin.LastLoginAt,
	}
}
