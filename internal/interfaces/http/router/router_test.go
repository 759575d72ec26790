package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/interfaces/http/handler"
	"github.com/safarhub/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	var order []string
	r.Use(func(c *gin.Context) {
		order = append(order, "api")
		c.Next()
	})
	g := NewDomainGroup("test", "/test").Use(func(c *gin.Context) {
		order = append(order, "group")
		c.Next()
	})
	g.GET("/ping", func(c *gin.Context) {
		order = append(order, "handler")
		c.String(http.StatusOK, "pong")
	})
	r.Register(g).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, []string{"api", "group", "handler"}, order)

	w = serve(engine, http.MethodGet, "/test/ping")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("ledger", "/ledger")
		assert.Equal(t, "ledger", g.Name())
		assert.Equal(t, "/ledger", g.Prefix())
	})

	t.Run("methods", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.GET("/items", func(c *gin.Context) { c.Status(http.StatusOK) }).
			POST("/items", func(c *gin.Context) { c.Status(http.StatusCreated) }).
			PATCH("/items/:id", func(c *gin.Context) { c.Status(http.StatusAccepted) }).
			DELETE("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		g.RegisterRoutes(engine.Group("/api/v1"))

		tests := []struct {
			method string
			path   string
			status int
		}{
			{http.MethodGet, "/api/v1/test/items", http.StatusOK},
			{http.MethodPost, "/api/v1/test/items", http.StatusCreated},
			{http.MethodPatch, "/api/v1/test/items/1", http.StatusAccepted},
			{http.MethodDelete, "/api/v1/test/items/1", http.StatusNoContent},
		}
		for _, tt := range tests {
			assert.Equal(t, tt.status, serve(engine, tt.method, tt.path).Code, "%s %s", tt.method, tt.path)
		}
	})

	t.Run("subgroups inherit middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("admin", "/admin").Use(func(c *gin.Context) {
			c.Header("X-Guard", "admin")
			c.Next()
		})
		g.Group("vendors", "/vendors").GET("", func(c *gin.Context) { c.String(http.StatusOK, "vendors") })
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/admin/vendors")
		assert.Equal(t, "vendors", w.Body.String())
		assert.Equal(t, "admin", w.Header().Get("X-Guard"))
	})
}

// newMarketplaceEngine mounts every route with handlers that have no
// services behind them; only requests stopped by a guard may be sent.
func newMarketplaceEngine(t *testing.T, submitGuards ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	engine := gin.New()
	r := NewRouter(engine)
	authenticate := func(c *gin.Context) {
		if account := c.GetHeader("X-Test-Account"); account != "" {
			c.Set(middleware.PrincipalKey, identity.Principal{ID: uuid.New(), AccountType: identity.AccountType(account)})
		}
		c.Next()
	}
	Register(r, Handlers{
		System:      handler.NewSystemHandler("safarhub", "test", nil),
		Vendor:      handler.NewVendorHandler(nil),
		Listing:     handler.NewListingHandler(nil),
		Fulfillment: handler.NewFulfillmentHandler(nil),
		Coupon:      handler.NewCouponHandler(nil),
		Settlement:  handler.NewSettlementHandler(nil),
		Transaction: handler.NewTransactionHandler(nil),
		Support:     handler.NewSupportHandler(nil),
	}, Guards{Authenticate: []gin.HandlerFunc{authenticate}, Submit: submitGuards})
	r.Setup()
	return engine
}

func TestRegister_RouteTable(t *testing.T) {
	engine := newMarketplaceEngine(t)

	routes := map[string]bool{}
	for _, info := range engine.Routes() {
		routes[info.Method+" "+info.Path] = true
	}
	for _, want := range []string{
		"GET /api/v1/system/info",
		"GET /api/v1/listings/:kind",
		"GET /api/v1/products",
		"GET /api/v1/products/:id",
		"POST /api/v1/support/messages",
		"POST /api/v1/coupons/validate",
		"POST /api/v1/coupons/redeem",
		"GET /api/v1/vendor/orders",
		"GET /api/v1/vendor/orders/summary",
		"PATCH /api/v1/vendor/orders/:orderId/items/:itemId/status",
		"POST /api/v1/vendor/orders/:orderId/items/:itemId/cancel",
		"GET /api/v1/settlements",
		"GET /api/v1/settlements/export",
		"GET /api/v1/settlements/:id",
		"PATCH /api/v1/settlements/:id",
		"GET /api/v1/transactions",
		"POST /api/v1/transactions",
		"GET /api/v1/transactions/:id",
		"PATCH /api/v1/transactions/:id",
		"GET /api/v1/admin/vendors",
		"GET /api/v1/admin/vendors/:id",
		"POST /api/v1/admin/vendors/:id/accept",
		"POST /api/v1/admin/vendors/:id/reject",
		"POST /api/v1/admin/vendors/:id/lock",
		"POST /api/v1/admin/vendors/:id/unlock",
		"DELETE /api/v1/admin/vendors/:id",
		"GET /api/v1/admin/coupons",
		"POST /api/v1/admin/coupons",
		"GET /api/v1/admin/coupons/:id",
		"PATCH /api/v1/admin/coupons/:id",
		"DELETE /api/v1/admin/coupons/:id",
		"GET /api/v1/admin/support/messages",
		"GET /api/v1/admin/support/messages/:id",
		"POST /api/v1/admin/support/messages/:id/reply",
		"POST /api/v1/admin/support/messages/:id/close",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}
}

func TestRegister_Guards(t *testing.T) {
	engine := newMarketplaceEngine(t)

	tests := []struct {
		name    string
		method  string
		path    string
		account string
		status  int
	}{
		{"anonymous admin call", http.MethodGet, "/api/v1/admin/vendors", "", http.StatusUnauthorized},
		{"vendor on admin routes", http.MethodPost, "/api/v1/admin/vendors/" + uuid.NewString() + "/lock", "vendor", http.StatusForbidden},
		{"buyer on admin coupons", http.MethodGet, "/api/v1/admin/coupons", "user", http.StatusForbidden},
		{"buyer on vendor orders", http.MethodGet, "/api/v1/vendor/orders", "user", http.StatusForbidden},
		{"buyer on settlements", http.MethodGet, "/api/v1/settlements", "user", http.StatusForbidden},
		{"anonymous transactions", http.MethodGet, "/api/v1/transactions", "", http.StatusUnauthorized},
		{"anonymous coupon redeem", http.MethodPost, "/api/v1/coupons/redeem", "", http.StatusUnauthorized},
		{"unknown role", http.MethodPost, "/api/v1/coupons/validate", "robot", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path, "X-Test-Account", tt.account)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRegister_SubmitGuards(t *testing.T) {
	engine := newMarketplaceEngine(t, func(c *gin.Context) {
		c.AbortWithStatus(http.StatusTooManyRequests)
	})

	w := serve(engine, http.MethodPost, "/api/v1/support/messages")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRegister_SystemInfo(t *testing.T) {
	engine := newMarketplaceEngine(t)

	w := serve(engine, http.MethodGet, "/api/v1/system/info")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"safarhub"`)
}
