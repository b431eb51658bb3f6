package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ledgerTxOptions is used for every unit of work. Row locks taken with
// FOR UPDATE provide the serialization, so READ COMMITTED is enough.
var ledgerTxOptions = pgx.TxOptions{
	IsoLevel:   pgx.ReadCommitted,
	AccessMode: pgx.ReadWrite,
}

// Transactor implements ports.DBTransactor using the connection pool.
// Each Begin opens one unit of work; callers defer Rollback and Commit on success.
type Transactor struct {
	pool Pool
	opts pgx.TxOptions
}

// NewTransactor creates a new Transactor wrapping the connection pool.
func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool, opts: ledgerTxOptions}
}

// Begin starts a new database transaction.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := t.pool.BeginTx(ctx, t.opts)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return tx, nil
}
