package xcontext

import (
	"context"

	"gorm.io/gorm"
)

type dbTransaction struct {
	tx    *gorm.DB
	owner bool
	done  bool
}

func WithDB(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, dbKey{}, db)
}

// DB returns the running transaction if ctx is inside one, otherwise the
// database carried by ctx.
func DB(ctx context.Context) *gorm.DB {
	if t, ok := ctx.Value(dbTransactionKey{}).(*dbTransaction); ok && !t.done {
		return t.tx
	}

	db, _ := ctx.Value(dbKey{}).(*gorm.DB)
	if db == nil {
		return nil
	}

	return db.WithContext(ctx)
}

// WithDBTransaction begins a transaction and returns a context whose DB is the
// transaction. Calling it on a context which is already inside a transaction
// joins that transaction; only the outermost call commits or rolls back.
func WithDBTransaction(ctx context.Context) context.Context {
	if t, ok := ctx.Value(dbTransactionKey{}).(*dbTransaction); ok && !t.done {
		return context.WithValue(ctx, dbTransactionKey{}, &dbTransaction{tx: t.tx})
	}

	tx := DB(ctx).Begin()
	return context.WithValue(ctx, dbTransactionKey{}, &dbTransaction{tx: tx, owner: true})
}

func WithCommitDBTransaction(ctx context.Context) error {
	t, ok := ctx.Value(dbTransactionKey{}).(*dbTransaction)
	if !ok || !t.owner || t.done {
		return nil
	}

	t.done = true
	return t.tx.Commit().Error
}

// WithRollbackDBTransaction rolls back the transaction if it has not been
// committed yet. It is intended to be deferred right after
// WithDBTransaction.
func WithRollbackDBTransaction(ctx context.Context) {
	t, ok := ctx.Value(dbTransactionKey{}).(*dbTransaction)
	if !ok || !t.owner || t.done {
		return
	}

	t.done = true
	t.tx.Rollback()
}
