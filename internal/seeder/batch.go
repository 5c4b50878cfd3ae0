package seeder

import (
	"context"
	"fmt"
)

// batcher tracks rows written one at a time and commits every size rows.
// Finish commits the remainder, if any.
type batcher struct {
	size    int
	pending int
	flushes int
	commit  func(context.Context) error
}

func newBatcher(size int, commit func(context.Context) error) *batcher {
	if size <= 0 {
		size = BatchSize
	}
	return &batcher{size: size, commit: commit}
}

func (b *batcher) Add(ctx context.Context) error {
	b.pending++
	if b.pending >= b.size {
		return b.flush(ctx)
	}
	return nil
}

func (b *batcher) Finish(ctx context.Context) error {
	if b.pending == 0 {
		return nil
	}
	return b.flush(ctx)
}

// committed returns how many of total rows are durable, excluding the rows
// still waiting for a commit.
func (b *batcher) committed(total int) int {
	return total - b.pending
}

func (b *batcher) flush(ctx context.Context) error {
	if err := b.commit(ctx); err != nil {
		return err
	}
	b.pending = 0
	b.flushes++
	return nil
}

// rowBuffer stages rows for the multi-row insert path: every full buffer is
// written with one statement and committed.
type rowBuffer struct {
	store   Store
	table   table
	size    int
	rows    [][]any
	written int
	flushes int
}

func newRowBuffer(store Store, t table, size int) *rowBuffer {
	if size <= 0 {
		size = BatchSize
	}
	return &rowBuffer{
		store: store,
		table: t,
		size:  size,
		rows:  make([][]any, 0, size),
	}
}

func (b *rowBuffer) Add(ctx context.Context, row []any) error {
	b.rows = append(b.rows, row)
	if len(b.rows) >= b.size {
		return b.Flush(ctx)
	}
	return nil
}

func (b *rowBuffer) Flush(ctx context.Context) error {
	if len(b.rows) == 0 {
		return nil
	}
	if err := b.store.InsertMany(ctx, b.table.name, b.table.columns, b.rows); err != nil {
		return fmt.Errorf("failed to insert batch into %s: %w", b.table.name, err)
	}
	if err := b.store.Commit(ctx); err != nil {
		return err
	}
	b.written += len(b.rows)
	b.flushes++
	b.rows = make([][]any, 0, b.size)
	return nil
}
