package ledger

import (
	"context"

	"github.com/hhuzhang0517/genrtl-saas/core/db"
	"github.com/hhuzhang0517/genrtl-saas/core/db/sqlc"
	"github.com/hhuzhang0517/genrtl-saas/internal/store"
)

// StoreProvider exposes the stores a usage write touches.
type StoreProvider interface {
	Jobs() store.JobStore
	UsageLogs() store.UsageLogStore
}

// TxRunner runs functions within a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type dbTxRunner struct {
	db *db.DB
}

// NewTxRunner creates a TxRunner backed by the given database.
func NewTxRunner(db *db.DB) TxRunner {
	return &dbTxRunner{db: db}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(q *sqlc.Queries) error {
		return fn(store.NewStores(q))
	})
}
