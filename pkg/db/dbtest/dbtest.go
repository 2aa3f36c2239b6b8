// Package dbtest provides an in-memory sqlite database for repository tests.
package dbtest

import (
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kasuwahq/kasuwa-backend/pkg/db/models"
)

// Open returns a migrated sqlite database scoped to the test. The pool is
// capped at one connection because each :memory: connection is its own
// database.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	silent := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 silent,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, conn.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Address{},
		&models.Category{},
		&models.Brand{},
		&models.Product{},
		&models.ProductReview{},
		&models.ShoppingCart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Transaction{},
		&models.Invitation{},
	))
	return conn
}

// Tx runs fn inside a transaction the way the runtime client does, so
// repository WithTx paths get exercised in tests.
func Tx(t *testing.T, conn *gorm.DB, fn func(tx *gorm.DB) error) error {
	t.Helper()
	tx := conn.Begin()
	require.NoError(t, tx.Error)
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}
