package persistence

import (
	"testing"

	"github.com/safarhub/backend/internal/domain/listing"
	"github.com/safarhub/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database with every table migrated
func setupTestDB(t *testing.T) *Connector {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// Each connection to :memory: is a separate database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	for _, kind := range listing.AllKinds {
		table, _ := models.ListingTable(kind)
		require.NoError(t, db.Table(table).AutoMigrate(&models.ListingModel{}))
	}

	return NewStaticConnector(db)
}

func boolPtr(b bool) *bool {
	return &b
}
