package syntax

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parse runs the given tree-sitter grammar over src and returns the root
// node wrapped for adapter use.
func Parse(ctx context.Context, src []byte, language *sitter.Language) (Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(language)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return Node{}, fmt.Errorf("syntax: failed to parse source: %w", err)
	}
	root := tree.RootNode()
	if root == nil {
		return Node{}, fmt.Errorf("syntax: parser produced no root node")
	}
	return Wrap(root, src), nil
}

// HasRootError reports whether parsing failed outright, i.e. the tree's
// root is an error node. Localized ERROR nodes deeper in the tree do not
// reject the request; the affected constructs fall back to generic
// statements.
func HasRootError(root Node) bool {
	return root.raw == nil || root.raw.Type() == "ERROR"
}
