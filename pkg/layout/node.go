package layout

import "github.com/zeebo/xxh3"

// NodeKind classifies RDF terms.
type NodeKind int

// Node kinds as stored in nodes.kind.
const (
	KindIRI     NodeKind = 1
	KindBlank   NodeKind = 2
	KindLiteral NodeKind = 3
)

// Node is one RDF term.
type Node struct {
	// Term is the canonical N-Quads serialization; it identifies the node.
	Term string

	Kind     NodeKind
	Lex      string
	Lang     string
	Datatype string
}

// Hash is the node id in the hash layout.
func (n Node) Hash() int64 {
	return int64(xxh3.HashString(n.Term))
}

// Statement is a triple, or a quad when Graph is set.
type Statement struct {
	Graph     *Node
	Subject   Node
	Predicate Node
	Object    Node
}
