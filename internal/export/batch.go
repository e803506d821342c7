package export

import (
	"context"
	"database/sql"
	"fmt"
)

// batcher inserts rows through one prepared statement, committing every
// size rows.
type batcher struct {
	ctx   context.Context
	db    *sql.DB
	query string
	size  int

	tx      *sql.Tx
	stmt    *sql.Stmt
	pending int
}

func newBatcher(ctx context.Context, db *sql.DB, query string, size int) *batcher {
	return &batcher{ctx: ctx, db: db, query: query, size: size}
}

func (b *batcher) add(args []interface{}) error {
	if b.tx == nil {
		tx, err := b.db.BeginTx(b.ctx, nil)
		if err != nil {
			return fmt.Errorf("starting transaction: %w", err)
		}
		stmt, err := tx.PrepareContext(b.ctx, b.query)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("preparing statement: %w", err)
		}
		b.tx, b.stmt = tx, stmt
	}
	if _, err := b.stmt.ExecContext(b.ctx, args...); err != nil {
		return err
	}
	b.pending++
	if b.pending >= b.size {
		return b.flush()
	}
	return nil
}

func (b *batcher) flush() error {
	if b.tx == nil {
		return nil
	}
	b.stmt.Close()
	err := b.tx.Commit()
	b.tx, b.stmt, b.pending = nil, nil, 0
	if err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (b *batcher) abort() {
	if b.tx == nil {
		return
	}
	b.stmt.Close()
	b.tx.Rollback()
	b.tx, b.stmt, b.pending = nil, nil, 0
}
