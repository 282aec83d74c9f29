package persistence

import (
	"testing"

	"github.com/costledger/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory SQLite database with all tables migrated
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.BillPeriodModel{},
		&models.BillModel{},
		&models.SplitRuleModel{},
		&models.MetaModel{},
	)
	require.NoError(t, err)

	return db
}
