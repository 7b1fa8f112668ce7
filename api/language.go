package api

import (
	sitter "github.com/smacker/go-tree-sitter"

	langc "github.com/viant/cflow/lang/c"
	langjava "github.com/viant/cflow/lang/java"
	"github.com/viant/cflow/visitor"
)

// Language selects a registered language visitor.
type Language string

const (
	LanguageC    Language = "c"
	LanguageJava Language = "java"
)

type languageSupport struct {
	grammar *sitter.Language
	visitor visitor.LanguageVisitor
}

// The registry couples each language's grammar with its visitor; adding an
// imperative language means adding one entry here plus its lang/ package.
var languages = map[Language]languageSupport{
	LanguageC:    {grammar: langc.Language(), visitor: langc.New()},
	LanguageJava: {grammar: langjava.Language(), visitor: langjava.New()},
}
