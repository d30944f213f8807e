package bunrepo

import (
	"context"

	"github.com/uptrace/bun"
)

type txKey struct{}

// WithTx returns a context carrying tx. Repository calls made with that
// context run inside the transaction.
func WithTx(ctx context.Context, tx bun.IDB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func idbFrom(ctx context.Context, db *bun.DB) bun.IDB {
	if tx, ok := ctx.Value(txKey{}).(bun.IDB); ok && tx != nil {
		return tx
	}
	return db
}
