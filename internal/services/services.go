// Package services persists the collaboration entities. Each service owns
// one aggregate and runs multi-row changes in a single transaction.
package services

import (
	"context"
	"fmt"

	"github.com/laminotes/laminotes/internal/database"
)

type txRunner struct {
	name string
	ctx  *database.Context
}

func (r txRunner) repos() (*database.Repositories, error) {
	if r.ctx == nil || r.ctx.DB == nil {
		return nil, fmt.Errorf("%s: missing database context", r.name)
	}
	return database.NewRepositories(r.ctx), nil
}

func (r txRunner) withTx(ctx context.Context, fn func(*database.Repositories) error) error {
	if r.ctx == nil || r.ctx.DB == nil {
		return fmt.Errorf("%s: missing database context", r.name)
	}
	return r.ctx.WithTx(ctx, func(txCtx *database.Context) error {
		return fn(database.NewRepositories(txCtx))
	})
}
