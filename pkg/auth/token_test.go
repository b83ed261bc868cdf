package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/verdeleaf/storefront-backend/pkg/config"
	"github.com/verdeleaf/storefront-backend/pkg/enums"
)

func testTokenConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "token-test-secret",
		Issuer:            "verdeleaf-test",
		ExpirationMinutes: 60,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testTokenConfig()
	adminID := uuid.New()

	signed, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		AdminID: adminID,
		Email:   "admin@verdeleaf.fr",
		Role:    enums.AdminRoleAdmin,
		JTI:     "jti-1",
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, signed)
	require.NoError(t, err)
	require.Equal(t, adminID, claims.AdminID)
	require.Equal(t, "admin@verdeleaf.fr", claims.Email)
	require.Equal(t, enums.AdminRoleAdmin, claims.Role)
	require.Equal(t, "jti-1", claims.ID)
	require.Equal(t, cfg.Issuer, claims.Issuer)
}

func TestMintAccessTokenValidation(t *testing.T) {
	cfg := testTokenConfig()
	valid := AccessTokenPayload{AdminID: uuid.New(), Role: enums.AdminRoleAdmin}

	tests := []struct {
		name    string
		cfg     config.JWTConfig
		payload AccessTokenPayload
	}{
		{name: "missing secret", cfg: config.JWTConfig{Issuer: "x", ExpirationMinutes: 1}, payload: valid},
		{name: "missing issuer", cfg: config.JWTConfig{Secret: "x", ExpirationMinutes: 1}, payload: valid},
		{name: "nil admin id", cfg: cfg, payload: AccessTokenPayload{Role: enums.AdminRoleAdmin}},
		{name: "bad role", cfg: cfg, payload: AccessTokenPayload{AdminID: uuid.New(), Role: "superuser"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := MintAccessToken(tc.cfg, time.Now(), tc.payload)
			require.Error(t, err)
		})
	}
}

func TestMintAccessTokenGeneratesJTI(t *testing.T) {
	cfg := testTokenConfig()
	signed, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		AdminID: uuid.New(),
		Role:    enums.AdminRoleEditor,
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, signed)
	require.NoError(t, err)
	require.NotEmpty(t, claims.ID)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	cfg := testTokenConfig()
	signed, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		AdminID: uuid.New(),
		Role:    enums.AdminRoleAdmin,
	})
	require.NoError(t, err)

	other := cfg
	other.Secret = "a-different-secret"
	_, err = ParseAccessToken(other, signed)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := testTokenConfig()
	signed, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{
		AdminID: uuid.New(),
		Role:    enums.AdminRoleAdmin,
		JTI:     "expired-jti",
	})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, signed)
	require.Error(t, err)

	// Refresh still needs to read the jti out of an expired token.
	claims, err := ParseAccessTokenAllowExpired(cfg, signed)
	require.NoError(t, err)
	require.Equal(t, "expired-jti", claims.ID)
}
