package layout

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/leapstack-labs/leaprdf/pkg/backend"
	"github.com/leapstack-labs/leaprdf/pkg/core"
)

// maxParams keeps a single INSERT under every backend's bind parameter limit.
const maxParams = 30000

// Writer buffers statements and writes them in batches inside one transaction.
type Writer struct {
	tx        *sql.Tx
	dialect   *backend.Dialect
	kind      core.LayoutKind
	batchSize int

	pending []Statement
	written int64
	done    bool
}

// NewWriter begins the load transaction.
func NewWriter(ctx context.Context, db *sql.DB, d *backend.Dialect, kind core.LayoutKind, batchSize int) (*Writer, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown layout %q", kind)
	}
	if batchSize <= 0 {
		batchSize = core.DefaultBatchSize
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin load transaction: %w", err)
	}
	return &Writer{
		tx:        tx,
		dialect:   d,
		kind:      kind,
		batchSize: batchSize,
		pending:   make([]Statement, 0, batchSize),
	}, nil
}

// Write buffers a statement, flushing when the batch is full.
func (w *Writer) Write(ctx context.Context, st Statement) error {
	w.pending = append(w.pending, st)
	if len(w.pending) >= w.batchSize {
		return w.flush(ctx)
	}
	return nil
}

// Written returns the number of statements flushed so far.
func (w *Writer) Written() int64 {
	return w.written
}

// Commit flushes the remaining statements and commits.
func (w *Writer) Commit(ctx context.Context) error {
	if err := w.flush(ctx); err != nil {
		return err
	}
	w.done = true
	if err := w.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit load: %w", err)
	}
	return nil
}

// Abort rolls the transaction back. It is a no-op after Commit.
func (w *Writer) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	return w.tx.Rollback()
}

func (w *Writer) flush(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}
	var err error
	if w.kind == core.LayoutHash {
		err = w.flushHash(ctx)
	} else {
		err = w.flushSimple(ctx)
	}
	if err != nil {
		return err
	}
	w.written += int64(len(w.pending))
	w.pending = w.pending[:0]
	return nil
}

func (w *Writer) flushHash(ctx context.Context) error {
	nodes := make(map[int64]Node)
	var nodeOrder []int64
	addNode := func(n Node) int64 {
		h := n.Hash()
		if _, ok := nodes[h]; !ok {
			nodes[h] = n
			nodeOrder = append(nodeOrder, h)
		}
		return h
	}

	seenTriples := make(map[[3]int64]bool)
	seenQuads := make(map[[4]int64]bool)
	var triples, quads [][]any

	for _, st := range w.pending {
		s, p, o := addNode(st.Subject), addNode(st.Predicate), addNode(st.Object)
		if st.Graph == nil {
			key := [3]int64{s, p, o}
			if !seenTriples[key] {
				seenTriples[key] = true
				triples = append(triples, []any{s, p, o})
			}
			continue
		}
		g := addNode(*st.Graph)
		key := [4]int64{g, s, p, o}
		if !seenQuads[key] {
			seenQuads[key] = true
			quads = append(quads, []any{g, s, p, o})
		}
	}

	nodeRows := make([][]any, 0, len(nodeOrder))
	for _, h := range nodeOrder {
		n := nodes[h]
		nodeRows = append(nodeRows, []any{h, n.Lex, n.Lang, n.Datatype, int(n.Kind)})
	}

	if err := w.insert(ctx, "nodes", []string{"hash", "lex", "lang", "datatype", "kind"}, nodeRows, true); err != nil {
		return err
	}
	if err := w.insert(ctx, "triples", []string{"s", "p", "o"}, triples, true); err != nil {
		return err
	}
	return w.insert(ctx, "quads", []string{"g", "s", "p", "o"}, quads, true)
}

func (w *Writer) flushSimple(ctx context.Context) error {
	var triples, quads [][]any
	for _, st := range w.pending {
		if st.Graph == nil {
			triples = append(triples, []any{st.Subject.Term, st.Predicate.Term, st.Object.Term})
			continue
		}
		quads = append(quads, []any{st.Graph.Term, st.Subject.Term, st.Predicate.Term, st.Object.Term})
	}

	if err := w.insert(ctx, "triples", []string{"s", "p", "o"}, triples, false); err != nil {
		return err
	}
	return w.insert(ctx, "quads", []string{"g", "s", "p", "o"}, quads, false)
}

// insert writes rows in chunks that respect maxParams.
func (w *Writer) insert(ctx context.Context, table string, cols []string, rows [][]any, ignoreDuplicates bool) error {
	perStmt := maxParams / len(cols)
	for start := 0; start < len(rows); start += perStmt {
		end := min(start+perStmt, len(rows))
		chunk := rows[start:end]

		args := make([]any, 0, len(chunk)*len(cols))
		for _, r := range chunk {
			args = append(args, r...)
		}

		query := w.dialect.InsertRows(table, cols, len(chunk), ignoreDuplicates)
		if _, err := w.tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return nil
}
