package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Queryable is the statement surface shared by the pool, a pooled
// connection and a transaction.
type Queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// TxBeginner starts a transaction on a dedicated connection.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Conn can both run statements and begin transactions. *pgxpool.Pool
// satisfies it.
type Conn interface {
	Queryable
	TxBeginner
}

// WithTx runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back when fn returns an error or panics. Either way
// the underlying connection is released exactly once.
func WithTx(ctx context.Context, db TxBeginner, fn func(tx pgx.Tx) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return Classify(fmt.Errorf("begin transaction: %w", err), "transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if cerr := tx.Commit(ctx); cerr != nil {
			err = Classify(fmt.Errorf("commit transaction: %w", cerr), "transaction")
		}
	}()

	return fn(tx)
}
