package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	})
}

func newTestPrincipal(accountType identity.AccountType) identity.Principal {
	return identity.Principal{ID: uuid.New(), AccountType: accountType, Email: "caller@example.com"}
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestJWTService()

	for _, accountType := range []identity.AccountType{identity.AccountTypeUser, identity.AccountTypeVendor, identity.AccountTypeAdmin} {
		t.Run(string(accountType), func(t *testing.T) {
			want := newTestPrincipal(accountType)
			token, expiresAt, err := svc.GenerateAccessToken(want)
			require.NoError(t, err)
			assert.True(t, expiresAt.After(time.Now()))

			got, err := svc.VerifyPrincipal(token)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestValidateAccessToken_Rejections(t *testing.T) {
	svc := newTestJWTService()
	p := newTestPrincipal(identity.AccountTypeVendor)

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("invalid-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-at-least-32-chars",
			AccessTokenExpiration: -time.Hour,
			Issuer:                "test-issuer",
		})
		token, _, err := expired.GenerateAccessToken(p)
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("different secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                "another-secret-key-at-least-32-ch",
			AccessTokenExpiration: time.Minute,
			Issuer:                "test-issuer",
		})
		token, _, err := other.GenerateAccessToken(p)
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("different issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-at-least-32-chars",
			AccessTokenExpiration: time.Minute,
			Issuer:                "someone-else",
		})
		token, _, err := other.GenerateAccessToken(p)
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   p.ID.String(),
				Issuer:    "test-issuer",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
			AccountType: identity.AccountTypeAdmin,
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaims_Principal(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name    string
		claims  Claims
		wantErr error
	}{
		{
			name:   "mixed case account type is normalized",
			claims: Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: id.String()}, AccountType: "Vendor"},
		},
		{
			name:    "unknown account type",
			claims:  Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: id.String()}, AccountType: "superuser"},
			wantErr: ErrInvalidRole,
		},
		{
			name:    "subject is not a uuid",
			claims:  Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "42"}, AccountType: identity.AccountTypeUser},
			wantErr: ErrMissingUserID,
		},
		{
			name:    "nil uuid subject",
			claims:  Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.Nil.String()}, AccountType: identity.AccountTypeUser},
			wantErr: ErrMissingUserID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.claims.Principal()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, p.ID)
			assert.Equal(t, identity.AccountTypeVendor, p.AccountType)
		})
	}
}

func TestClaims_GetRemainingTTL(t *testing.T) {
	c := &Claims{}
	assert.Zero(t, c.GetRemainingTTL())

	c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	assert.Zero(t, c.GetRemainingTTL())

	c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	assert.Greater(t, c.GetRemainingTTL(), 59*time.Minute)
}
