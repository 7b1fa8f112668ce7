package visitor

import (
	"strings"

	"github.com/viant/cflow/cfg"
	"github.com/viant/cflow/syntax"
)

// identifierKinds lists the identifier-like tree-sitter node kinds shared by
// the C and Java grammars: variable names, but also field and type names,
// which the scan records as uses all the same.
var identifierKinds = map[string]bool{
	"identifier":       true,
	"field_identifier": true,
	"type_identifier":  true,
}

// DefaultIdentifierScan walks n's subtree and records every bare identifier
// as a use. It is the language-independent fallback the dispatcher applies
// to AST kinds no registered handler recognizes: better a conservative
// use-only record than silently dropping the node's data-flow footprint.
func DefaultIdentifierScan(n syntax.Node) cfg.Metadata {
	var md cfg.Metadata
	scanIdentifiers(n, &md)
	return md
}

func scanIdentifiers(n syntax.Node, md *cfg.Metadata) {
	if !n.IsValid() {
		return
	}
	if identifierKinds[n.Kind()] {
		name := strings.TrimSpace(n.Text())
		if name != "" {
			md.AddUse(name)
		}
		return
	}
	count := n.NamedChildCount()
	for i := 0; i < count; i++ {
		scanIdentifiers(n.NamedChild(i), md)
	}
}
