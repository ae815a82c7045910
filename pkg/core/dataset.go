package core

import (
	"path"
	"strings"
)

// LayoutKind selects the physical table layout of a store.
type LayoutKind string

// Supported layouts.
const (
	// LayoutHash stores nodes once, keyed by a 64-bit hash, and statements as hash tuples.
	LayoutHash LayoutKind = "hash"
	// LayoutSimple stores statements as lexical tuples.
	LayoutSimple LayoutKind = "simple"
)

// Layouts returns all supported layouts.
func Layouts() []LayoutKind {
	return []LayoutKind{LayoutHash, LayoutSimple}
}

// Valid reports whether k names a supported layout.
func (k LayoutKind) Valid() bool {
	return k == LayoutHash || k == LayoutSimple
}

// Format is the serialization of a dataset source.
type Format string

// Supported source formats.
const (
	FormatNTriples Format = "ntriples"
	FormatNQuads   Format = "nquads"
)

// FormatForSource infers the format from the source extension.
// Compression suffixes are ignored; anything unrecognized is N-Triples.
func FormatForSource(source string) Format {
	name := strings.ToLower(path.Base(source))
	name = strings.TrimSuffix(name, ".gz")
	switch path.Ext(name) {
	case ".nq", ".nquads":
		return FormatNQuads
	default:
		return FormatNTriples
	}
}

// DatasetRequest asks for one dataset to be made queryable.
type DatasetRequest struct {
	Name   string
	Source string
	Format Format // empty means infer from Source
}

// EffectiveFormat returns the explicit format or the inferred one.
func (r DatasetRequest) EffectiveFormat() Format {
	if r.Format != "" {
		return r.Format
	}
	return FormatForSource(r.Source)
}

// Handle describes a provisioned store. It holds no live connection.
type Handle struct {
	Dataset string     `json:"dataset" yaml:"dataset"`
	Backend string     `json:"backend" yaml:"backend"`
	Address string     `json:"address" yaml:"address"`
	Name    string     `json:"store" yaml:"store"`
	Layout  LayoutKind `json:"layout" yaml:"layout"`
	Records int64      `json:"records" yaml:"records"`
	Created bool       `json:"created" yaml:"created"`
}
