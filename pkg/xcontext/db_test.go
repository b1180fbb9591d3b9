package xcontext_test

import (
	"context"
	"testing"

	"github.com/rafflelab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type counter struct {
	ID    string `gorm:"primarykey"`
	Value int
}

func newDB(t *testing.T) context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&counter{}))
	return xcontext.WithDB(context.Background(), db)
}

func TestDBTransaction_Commit(t *testing.T) {
	ctx := newDB(t)

	txCtx := xcontext.WithDBTransaction(ctx)
	require.NoError(t, xcontext.DB(txCtx).Create(&counter{ID: "a", Value: 1}).Error)
	require.NoError(t, xcontext.WithCommitDBTransaction(txCtx))
	xcontext.WithRollbackDBTransaction(txCtx)

	var got counter
	require.NoError(t, xcontext.DB(ctx).Take(&got, "id=?", "a").Error)
	require.Equal(t, 1, got.Value)
}

func TestDBTransaction_Rollback(t *testing.T) {
	ctx := newDB(t)

	func() {
		txCtx := xcontext.WithDBTransaction(ctx)
		defer xcontext.WithRollbackDBTransaction(txCtx)

		require.NoError(t, xcontext.DB(txCtx).Create(&counter{ID: "a", Value: 1}).Error)
	}()

	var count int64
	require.NoError(t, xcontext.DB(ctx).Model(&counter{}).Count(&count).Error)
	require.Equal(t, int64(0), count)
}

func TestDBTransaction_Nested(t *testing.T) {
	ctx := newDB(t)

	outer := xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(outer)

	inner := xcontext.WithDBTransaction(outer)
	require.NoError(t, xcontext.DB(inner).Create(&counter{ID: "a", Value: 1}).Error)

	// Committing the inner context is a no-op, the outer one still owns it.
	require.NoError(t, xcontext.WithCommitDBTransaction(inner))
	require.NoError(t, xcontext.WithCommitDBTransaction(outer))

	var count int64
	require.NoError(t, xcontext.DB(ctx).Model(&counter{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}
