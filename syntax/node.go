// Package syntax provides a uniform, language-agnostic view over a
// tree-sitter parse tree: typed node kinds, named children, byte spans, and
// source-text extraction.
package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Node wraps a tree-sitter node with the field/child accessors the visitor
// framework and language visitors need.
type Node struct {
	raw *sitter.Node
	src []byte
}

// Wrap adapts a raw tree-sitter node. Returns the zero Node (IsValid()==false)
// if raw is nil, so callers can chain lookups without nil checks.
func Wrap(raw *sitter.Node, src []byte) Node {
	return Node{raw: raw, src: src}
}

// IsValid reports whether the node wraps a real tree-sitter node.
func (n Node) IsValid() bool { return n.raw != nil }

// Kind returns the tree-sitter node type string, e.g. "if_statement".
func (n Node) Kind() string {
	if n.raw == nil {
		return ""
	}
	return n.raw.Type()
}

// Text returns the verbatim source slice this node spans.
func (n Node) Text() string {
	if n.raw == nil {
		return ""
	}
	return n.raw.Content(n.src)
}

// Span returns the byte offsets [start, end) into the original source.
func (n Node) Span() (int, int) {
	if n.raw == nil {
		return 0, 0
	}
	return int(n.raw.StartByte()), int(n.raw.EndByte())
}

// ChildByField looks up a named field, e.g. "condition", "body", "name".
func (n Node) ChildByField(name string) Node {
	if n.raw == nil {
		return Node{}
	}
	return Wrap(n.raw.ChildByFieldName(name), n.src)
}

// NamedChildCount returns the number of named (non-anonymous-token) children.
func (n Node) NamedChildCount() int {
	if n.raw == nil {
		return 0
	}
	return int(n.raw.NamedChildCount())
}

// NamedChild returns the i-th named child.
func (n Node) NamedChild(i int) Node {
	if n.raw == nil {
		return Node{}
	}
	return Wrap(n.raw.NamedChild(i), n.src)
}

// ChildCount returns the number of all children, named and anonymous.
func (n Node) ChildCount() int {
	if n.raw == nil {
		return 0
	}
	return int(n.raw.ChildCount())
}

// Child returns the i-th child (named or anonymous).
func (n Node) Child(i int) Node {
	if n.raw == nil {
		return Node{}
	}
	return Wrap(n.raw.Child(i), n.src)
}

// NamedChildren returns all named children, skipping comment nodes per the
// supplied predicate, so comments never reach the visitor framework.
func (n Node) NamedChildren(isComment func(kind string) bool) []Node {
	count := n.NamedChildCount()
	out := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		if !c.IsValid() {
			continue
		}
		if isComment != nil && isComment(c.Kind()) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Parent returns the syntactic parent, if any.
func (n Node) Parent() Node {
	if n.raw == nil {
		return Node{}
	}
	return Wrap(n.raw.Parent(), n.src)
}
