package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/listing"
	"github.com/safarhub/backend/internal/interfaces/http/middleware"
	"github.com/safarhub/backend/internal/infrastructure/persistence"
	"github.com/safarhub/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	adminCaller = identity.Principal{ID: uuid.New(), AccountType: identity.AccountTypeAdmin, Email: "admin@example.com"}
	userCaller  = identity.Principal{ID: uuid.New(), AccountType: identity.AccountTypeUser, Email: "buyer@example.com"}
)

func vendorCaller(id uuid.UUID) identity.Principal {
	return identity.Principal{ID: id, AccountType: identity.AccountTypeVendor, Email: "vendor@example.com"}
}

// setupTestDB opens an in-memory SQLite database with every table migrated
func setupTestDB(t *testing.T) (*persistence.Connector, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	for _, kind := range listing.AllKinds {
		table, _ := models.ListingTable(kind)
		require.NoError(t, db.Table(table).AutoMigrate(&models.ListingModel{}))
	}
	return persistence.NewStaticConnector(db), db
}

// testServer routes requests as the given caller. A zero principal means
// an anonymous request.
type testServer struct {
	t      *testing.T
	engine *gin.Engine
	caller identity.Principal
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	middleware.SetupValidator()
	s := &testServer{t: t, engine: gin.New()}
	s.engine.Use(func(c *gin.Context) {
		if s.caller.ID != uuid.Nil {
			c.Set(middleware.PrincipalKey, s.caller)
		}
		c.Next()
	})
	return s
}

func (s *testServer) as(p identity.Principal) *testServer {
	s.caller = p
	return s
}

func (s *testServer) do(method, target string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		var buf bytes.Buffer
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(s.t, json.NewEncoder(&buf).Encode(b))
		}
		req = httptest.NewRequest(method, target, &buf)
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the data field of a success envelope
func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp APIResponse[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.True(t, resp.Success, w.Body.String())
	return resp.Data
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}

func createRow(t *testing.T, db *gorm.DB, value any) {
	t.Helper()
	require.NoError(t, db.WithContext(context.Background()).Create(value).Error)
}
