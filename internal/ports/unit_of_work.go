package ports

import "context"

// Tx is the adapter's transaction handle; the gorm adapter stores *gorm.DB.
type Tx any

// UnitOfWork runs fn in one transaction. A non-nil return rolls back every
// write fn made through ctx, including notifications and activity rows.
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

func WithTxContext(ctx context.Context, tx Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns nil outside a transaction.
func TxFromContext(ctx context.Context) Tx {
	if ctx == nil {
		return nil
	}
	return ctx.Value(txKey{})
}
