// Package loader streams N-Triples and N-Quads sources into a store layout.
package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"
	"github.com/leapstack-labs/leaprdf/pkg/backend"
	"github.com/leapstack-labs/leaprdf/pkg/core"
	"github.com/leapstack-labs/leaprdf/pkg/layout"
)

// Loader writes parsed statements through a layout.Writer.
type Loader struct {
	BatchSize int
	Logger    *slog.Logger
}

// New creates a loader. If logger is nil, a discard logger is used.
func New(batchSize int, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{BatchSize: batchSize, Logger: logger}
}

// Load parses source and writes every statement into db in one transaction.
// It returns the number of statements read. Nothing is committed on error.
func (l *Loader) Load(ctx context.Context, db *sql.DB, d *backend.Dialect, kind core.LayoutKind, source string, format core.Format) (int64, error) {
	if format == "" {
		format = core.FormatForSource(source)
	}
	if format != core.FormatNTriples && format != core.FormatNQuads {
		return 0, &SourceError{Source: source, Err: fmt.Errorf("unsupported format %q", format)}
	}

	rc, err := Open(ctx, source)
	if err != nil {
		return 0, &SourceError{Source: source, Err: err}
	}
	defer func() { _ = rc.Close() }()

	w, err := layout.NewWriter(ctx, db, d, kind, l.BatchSize)
	if err != nil {
		return 0, &WriteError{Err: err}
	}
	defer func() { _ = w.Abort() }()

	l.Logger.Debug("reading source",
		slog.String("source", source),
		slog.String("format", string(format)))

	r := nquads.NewReader(rc, false)
	var n int64
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		q, err := r.ReadQuad()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, &SourceError{Source: source, Record: int(n) + 1, Err: err}
		}

		st, err := Convert(q)
		if err == nil && st.Graph != nil && format == core.FormatNTriples {
			err = fmt.Errorf("graph label %s not allowed in N-Triples", q.Label)
		}
		if err != nil {
			return n, &SourceError{Source: source, Record: int(n) + 1, Err: err}
		}

		if err := w.Write(ctx, st); err != nil {
			return n, &WriteError{Err: err}
		}
		n++
	}

	if err := w.Commit(ctx); err != nil {
		return n, &WriteError{Err: err}
	}

	l.Logger.Debug("source loaded",
		slog.String("source", source),
		slog.Int64("statements", n))
	return n, nil
}

// Convert maps a parsed quad to a layout statement.
func Convert(q quad.Quad) (layout.Statement, error) {
	var st layout.Statement
	var err error
	if st.Subject, err = node(q.Subject); err != nil {
		return st, fmt.Errorf("subject: %w", err)
	}
	if st.Predicate, err = node(q.Predicate); err != nil {
		return st, fmt.Errorf("predicate: %w", err)
	}
	if st.Object, err = node(q.Object); err != nil {
		return st, fmt.Errorf("object: %w", err)
	}
	if q.Label != nil {
		g, err := node(q.Label)
		if err != nil {
			return st, fmt.Errorf("graph: %w", err)
		}
		st.Graph = &g
	}
	return st, nil
}

func node(v quad.Value) (layout.Node, error) {
	if v == nil {
		return layout.Node{}, fmt.Errorf("missing term")
	}
	n := layout.Node{Term: v.String()}
	switch v := v.(type) {
	case quad.IRI:
		n.Kind, n.Lex = layout.KindIRI, string(v)
	case quad.BNode:
		n.Kind, n.Lex = layout.KindBlank, string(v)
	case quad.String:
		n.Kind, n.Lex = layout.KindLiteral, string(v)
	case quad.LangString:
		n.Kind, n.Lex, n.Lang = layout.KindLiteral, string(v.Value), v.Lang
	case quad.TypedString:
		n.Kind, n.Lex, n.Datatype = layout.KindLiteral, string(v.Value), string(v.Type)
	case quad.TypedStringer:
		ts := v.TypedString()
		n.Kind, n.Lex, n.Datatype = layout.KindLiteral, string(ts.Value), string(ts.Type)
	default:
		return layout.Node{}, fmt.Errorf("unsupported term %T", v)
	}
	return n, nil
}
