package backend

import (
	"fmt"
	"strings"
)

// PlaceholderStyle is how a dialect spells bind parameters.
type PlaceholderStyle int

// Placeholder styles.
const (
	PlaceholderQuestion PlaceholderStyle = iota // ?
	PlaceholderDollar                           // $1
)

// IgnoreStyle is how a dialect skips rows that violate a unique key.
type IgnoreStyle int

// Ignore styles.
const (
	IgnoreInsertIgnore   IgnoreStyle = iota // INSERT IGNORE INTO (MySQL)
	IgnoreInsertOr                          // INSERT OR IGNORE INTO (SQLite, DuckDB)
	IgnoreOnConflict                        // ... ON CONFLICT DO NOTHING (PostgreSQL)
)

// Dialect describes the SQL spoken inside a store.
type Dialect struct {
	Name        string
	Placeholder PlaceholderStyle
	Ignore      IgnoreStyle
	Quote       byte

	// MaxIdentifierLength bounds store names.
	MaxIdentifierLength int
}

// FormatPlaceholder returns the bind parameter for 1-based position n.
func (d *Dialect) FormatPlaceholder(n int) string {
	if d.Placeholder == PlaceholderDollar {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// QuoteIdent quotes an identifier, doubling embedded quote characters.
func (d *Dialect) QuoteIdent(name string) string {
	q := string(d.Quote)
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// InsertRows builds a multi-row INSERT for rows of len(cols) values.
// When ignoreDuplicates is set, rows conflicting with a unique key are skipped.
func (d *Dialect) InsertRows(table string, cols []string, rows int, ignoreDuplicates bool) string {
	var sb strings.Builder
	switch {
	case ignoreDuplicates && d.Ignore == IgnoreInsertIgnore:
		sb.WriteString("INSERT IGNORE INTO ")
	case ignoreDuplicates && d.Ignore == IgnoreInsertOr:
		sb.WriteString("INSERT OR IGNORE INTO ")
	default:
		sb.WriteString("INSERT INTO ")
	}
	sb.WriteString(table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(") VALUES ")

	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := range cols {
			if c > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.FormatPlaceholder(n))
			n++
		}
		sb.WriteByte(')')
	}

	if ignoreDuplicates && d.Ignore == IgnoreOnConflict {
		sb.WriteString(" ON CONFLICT DO NOTHING")
	}
	return sb.String()
}
