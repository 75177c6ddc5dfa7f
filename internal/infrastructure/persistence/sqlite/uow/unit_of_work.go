package uow

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"roadportal/internal/errs"
	"roadportal/internal/ports"
)

// UnitOfWork implements ports.UnitOfWork with gorm.
type UnitOfWork struct {
	db *gorm.DB
}

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// WithTx joins the transaction already in ctx, if any, so usecases can
// compose without nesting savepoints.
func (u *UnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if fn == nil {
		return errors.New("transaction callback is required")
	}
	if tx, ok := ports.TxFromContext(ctx).(*gorm.DB); ok && tx != nil {
		return fn(ctx)
	}

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ports.WithTxContext(ctx, tx))
	})
	// Classified failures are expected outcomes; only infrastructure errors
	// carry a stack into the logs.
	if err != nil && errs.KindOf(err) == errs.KindInternal {
		return errs.WithStack(err)
	}
	return err
}
