package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/infrastructure/auth"
	"github.com/safarhub/backend/internal/infrastructure/config"
	"github.com/safarhub/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService(ttl time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: ttl,
		Issuer:                "test-issuer",
	})
}

func issueToken(t *testing.T, svc *auth.JWTService, accountType identity.AccountType) (string, identity.Principal) {
	t.Helper()
	p := identity.Principal{ID: uuid.New(), AccountType: accountType, Email: "caller@example.com"}
	token, _, err := svc.GenerateAccessToken(p)
	require.NoError(t, err)
	return token, p
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	token, want := issueToken(t, svc, identity.AccountTypeVendor)

	router := gin.New()
	router.Use(JWTAuthMiddleware(svc, nil))
	router.GET("/test", func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		assert.True(t, ok)
		assert.Equal(t, want.ID, p.ID)
		assert.Equal(t, identity.AccountTypeVendor, p.AccountType)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	expired, _ := issueToken(t, newTestJWTService(-time.Minute), identity.AccountTypeUser)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", dto.ErrCodeUnauthorized},
		{"wrong scheme", "Basic dXNlcjpwYXNz", dto.ErrCodeUnauthorized},
		{"empty bearer", BearerPrefix, dto.ErrCodeUnauthorized},
		{"garbage token", BearerPrefix + "not.a.jwt", dto.ErrCodeTokenInvalid},
		{"expired token", BearerPrefix + expired, dto.ErrCodeTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(JWTAuthMiddleware(svc, nil))
			router.GET("/test", func(c *gin.Context) {
				t.Fatal("handler must not run")
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			info := decodeError(t, w)
			assert.Equal(t, tt.code, info.Code)
			assert.Equal(t, dto.ClassUnauthorized, info.Class)
		})
	}
}

func TestOptionalJWTAuthMiddleware(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	token, want := issueToken(t, svc, identity.AccountTypeUser)

	router := gin.New()
	router.Use(OptionalJWTAuthMiddleware(svc))
	router.GET("/test", func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if ok {
			c.String(http.StatusOK, p.ID.String())
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	cases := map[string]string{
		"":                      "anonymous",
		BearerPrefix + "broken": "anonymous",
		BearerPrefix + token:    want.ID.String(),
	}
	for header, body := range cases {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if header != "" {
			req.Header.Set(AuthHeaderKey, header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, body, w.Body.String())
	}
}

func TestRequireAccountType(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	adminToken, _ := issueToken(t, svc, identity.AccountTypeAdmin)
	vendorToken, _ := issueToken(t, svc, identity.AccountTypeVendor)

	router := gin.New()
	router.GET("/admin", JWTAuthMiddleware(svc, nil), RequireAccountType(identity.AccountTypeAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	router.GET("/no-auth", RequireAccountType(identity.AccountTypeAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	t.Run("admin allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+adminToken)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("vendor forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+vendorToken)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
		info := decodeError(t, w)
		assert.Equal(t, dto.ErrCodeForbidden, info.Code)
		assert.Equal(t, dto.ClassForbidden, info.Class)
	})

	t.Run("no principal", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/no-auth", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGetPrincipal_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := GetPrincipal(c)
	assert.False(t, ok)

	c.Set(PrincipalKey, "not a principal")
	_, ok = GetPrincipal(c)
	assert.False(t, ok)
}
