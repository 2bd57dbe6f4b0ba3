package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// Of is shorthand for a Context without a transaction.
func Of(ctx context.Context) Context { return Context{Ctx: ctx} }

// DB picks the transaction when present, otherwise fallback, bound to Ctx.
func (c Context) DB(fallback *gorm.DB) *gorm.DB {
	t := c.Tx
	if t == nil {
		t = fallback
	}
	if c.Ctx == nil {
		return t.WithContext(context.Background())
	}
	return t.WithContext(c.Ctx)
}
