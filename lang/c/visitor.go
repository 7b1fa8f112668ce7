// Package c is the C language visitor: a LanguageVisitor handler table
// translating a C tree-sitter parse tree into CFG fragments, with the
// def/use classification rules shared through lang/common.
package c

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"github.com/viant/cflow/cfg"
	"github.com/viant/cflow/lang/common"
	"github.com/viant/cflow/syntax"
	"github.com/viant/cflow/visitor"
)

// Language returns the tree-sitter grammar for C, for syntax.Parse.
func Language() *sitter.Language { return c.GetLanguage() }

// Visitor is the C LanguageVisitor.
type Visitor struct {
	handlers map[string]visitor.HandlerFunc
}

// New builds the C handler table once; safe to share across parses.
func New() *Visitor {
	v := &Visitor{}
	v.handlers = map[string]visitor.HandlerFunc{
		"compound_statement":   handleCompound,
		"expression_statement": handleExpressionStatement,
		"declaration":          handleDeclaration,
		"if_statement":         handleIf,
		"while_statement":      handleWhile,
		"for_statement":        handleFor,
		"do_statement":         handleDo,
		"switch_statement":     handleSwitch,
		"case_statement":       handleCase,
		"break_statement":      handleBreak,
		"continue_statement":   handleContinue,
		"return_statement":     handleReturn,
		"goto_statement":       handleGoto,
		"labeled_statement":    handleLabeled,
	}
	return v
}

func (v *Visitor) Name() string { return "c" }

func (v *Visitor) IsComment(kind string) bool { return kind == "comment" }

func (v *Visitor) Handlers() map[string]visitor.HandlerFunc { return v.handlers }

// Routines finds every function_definition in the file, including those
// nested under preprocessor conditionals.
func (v *Visitor) Routines(root syntax.Node) []visitor.RoutineDecl {
	var out []visitor.RoutineDecl
	collectFunctions(root, &out)
	return out
}

func collectFunctions(n syntax.Node, out *[]visitor.RoutineDecl) {
	if !n.IsValid() {
		return
	}
	if n.Kind() == "function_definition" {
		name, params := signature(n)
		*out = append(*out, visitor.RoutineDecl{
			Name:       name,
			Parameters: params,
			Body:       n.ChildByField("body"),
		})
		return
	}
	count := n.NamedChildCount()
	for i := 0; i < count; i++ {
		collectFunctions(n.NamedChild(i), out)
	}
}

// signature digs through the declarator chain (`int *f(int a, char *b)`)
// for the function name and the declared parameter identifiers.
func signature(fn syntax.Node) (string, []string) {
	fd := functionDeclarator(fn.ChildByField("declarator"))
	if !fd.IsValid() {
		return "", nil
	}
	name := common.DeclaredName(fd.ChildByField("declarator"))
	var params []string
	list := fd.ChildByField("parameters")
	count := list.NamedChildCount()
	for i := 0; i < count; i++ {
		p := list.NamedChild(i)
		if p.Kind() != "parameter_declaration" {
			continue
		}
		if pname := common.DeclaredName(p.ChildByField("declarator")); pname != "" {
			params = append(params, pname)
		}
	}
	return name, params
}

func functionDeclarator(n syntax.Node) syntax.Node {
	for n.IsValid() {
		if n.Kind() == "function_declarator" {
			return n
		}
		n = n.ChildByField("declarator")
	}
	return syntax.Node{}
}

func handleCompound(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
	return vi.VisitSequence(n)
}

func handleExpressionStatement(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
	id := vi.NewNode(cfg.Statement, n)
	var md cfg.Metadata
	var calls []visitor.CallRef
	if n.NamedChildCount() > 0 {
		inner := n.NamedChild(0)
		common.DescribeExpressionStatement(inner, &md)
		calls = common.CallRefs(inner)
	}
	vi.SetMetadata(id, md)
	return vi.LeafFragment(id, md, calls)
}

func handleDeclaration(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
	id := vi.NewNode(cfg.Statement, n)
	var md cfg.Metadata
	common.DescribeDeclaration(n, &md)
	vi.SetMetadata(id, md)
	return vi.LeafFragment(id, md, common.CallRefs(n))
}

func handleIf(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
	alt := n.ChildByField("alternative")
	// Newer C grammars wrap the else branch in an else_clause node.
	if alt.IsValid() && alt.Kind() == "else_clause" && alt.NamedChildCount() > 0 {
		alt = alt.NamedChild(0)
	}
	return common.BuildIf(vi, n.ChildByField("condition"), n.ChildByField("consequence"), alt)
}

func handleWhile(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
	return common.BuildWhile(vi, n.ChildByField("condition"), n.ChildByField("body"))
}

func handleDo(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
	return common.BuildDoWhile(vi, n.ChildByField("body"), n.ChildByField("condition"))
}

func handleFor(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
	body := n.ChildByField("body")
	if !body.IsValid() && n.NamedChildCount() > 0 {
		// Older grammars leave the loop body fieldless as the last child.
		body = n.NamedChild(n.NamedChildCount() - 1)
	}
	return common.BuildFor(vi,
		n.ChildByField("initializer"),
		n.ChildByField("condition"),
		n.ChildByField("update"),
		body)
}

func handleSwitch(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
	discriminant := common.Unparen(n.ChildByField("condition"))
	headID := vi.NewNode(cfg.SwitchHead, discriminant)
	var md cfg.Metadata
	common.DescribeDiscriminant(discriminant, &md)
	vi.SetMetadata(headID, md)

	exitID := vi.NewSyntheticNode(cfg.Placeholder, "")
	vi.PushSwitch(exitID, headID)
	body := n.ChildByField("body")
	children := body.NamedChildren(func(k string) bool { return k == "comment" })

	var prevOpenExits []int
	sawDefault := false
	for _, child := range children {
		frag, err := vi.Visit(child)
		if err != nil {
			vi.PopSwitch()
			return visitor.Fragment{}, err
		}
		if frag.IsZero() {
			continue
		}
		if child.Kind() == "case_statement" {
			label := cfg.LabelDefault
			if value := child.ChildByField("value"); value.IsValid() {
				label = value.Text()
			} else {
				sawDefault = true
			}
			if err := vi.Routine().AddEdge(headID, frag.EntryID, label); err != nil {
				vi.PopSwitch()
				return visitor.Fragment{}, err
			}
		}
		// Fall-through: the previous case's open exits chain into this one.
		for _, open := range prevOpenExits {
			if err := vi.Routine().AddEdge(open, frag.EntryID, ""); err != nil {
				vi.PopSwitch()
				return visitor.Fragment{}, err
			}
		}
		prevOpenExits = frag.ExitIDs
	}
	vi.PopSwitch()

	for _, open := range prevOpenExits {
		if err := vi.Routine().AddEdge(open, exitID, ""); err != nil {
			return visitor.Fragment{}, err
		}
	}
	if !sawDefault {
		// No default case: the no-match path falls past the switch.
		if err := vi.Routine().AddEdge(headID, exitID, cfg.LabelDefault); err != nil {
			return visitor.Fragment{}, err
		}
	}
	return visitor.Fragment{EntryID: headID, ExitIDs: []int{exitID}}, nil
}

func handleCase(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
	value := n.ChildByField("value")
	kind := cfg.Case
	if !value.IsValid() {
		kind = cfg.Default
	}
	id := vi.NewSyntheticNode(kind, n.Text())
	// Statements attached to this case label are the named children besides
	// the value expression.
	var stmtFrags []visitor.Fragment
	count := n.NamedChildCount()
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if value.IsValid() && sameSpan(child, value) {
			continue
		}
		if child.Kind() == "comment" {
			continue
		}
		f, err := vi.Visit(child)
		if err != nil {
			return visitor.Fragment{}, err
		}
		stmtFrags = append(stmtFrags, f)
	}
	caseFrag := visitor.Fragment{EntryID: id, ExitIDs: []int{id}}
	if len(stmtFrags) == 0 {
		return caseFrag, nil
	}
	return vi.ChainAll(append([]visitor.Fragment{caseFrag}, stmtFrags...)...)
}

func handleBreak(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
	id := vi.NewNode(cfg.Break, n)
	target, ok := vi.InnermostBreakTarget()
	if !ok {
		vi.Warn("break statement outside any loop or switch")
		return visitor.Fragment{EntryID: id, ExitIDs: []int{id}}, nil
	}
	return vi.TerminalFragment(id, target, nil)
}

func handleContinue(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
	id := vi.NewNode(cfg.Continue, n)
	target, ok := vi.InnermostContinueTarget()
	if !ok {
		vi.Warn("continue statement outside any loop")
		return visitor.Fragment{EntryID: id, ExitIDs: []int{id}}, nil
	}
	return vi.TerminalFragment(id, target, nil)
}

func handleReturn(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
	id := vi.NewNode(cfg.Return, n)
	var md cfg.Metadata
	var calls []visitor.CallRef
	if n.NamedChildCount() > 0 {
		common.DescribeReturn(n.NamedChild(0), &md)
		calls = common.CallRefs(n.NamedChild(0))
	}
	vi.SetMetadata(id, md)
	exitID := vi.Routine().ExitIDs[0]
	return vi.TerminalFragment(id, exitID, calls)
}

func handleGoto(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
	label := n.ChildByField("label")
	id := vi.NewNode(cfg.Goto, n)
	if label.IsValid() {
		vi.AddPendingGoto(id, label.Text())
	} else {
		vi.Warn("goto statement missing its label")
	}
	return visitor.Fragment{EntryID: id, ExitIDs: nil}, nil
}

func handleLabeled(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
	nameNode := n.ChildByField("label")
	id := vi.NewNode(cfg.Label, nameNode)
	if nameNode.IsValid() {
		vi.RegisterLabel(nameNode.Text(), id)
	}
	labelFrag := visitor.Fragment{EntryID: id, ExitIDs: []int{id}}
	// The labeled statement itself is the last named child after the label
	// identifier; the grammar gives it no field name.
	var stmt syntax.Node
	count := n.NamedChildCount()
	for i := count - 1; i >= 0; i-- {
		child := n.NamedChild(i)
		if nameNode.IsValid() && sameSpan(child, nameNode) {
			continue
		}
		if child.Kind() == "comment" {
			continue
		}
		stmt = child
		break
	}
	if !stmt.IsValid() {
		return labelFrag, nil
	}
	inner, err := vi.Visit(stmt)
	if err != nil {
		return visitor.Fragment{}, err
	}
	return vi.Chain(labelFrag, inner)
}

func sameSpan(a, b syntax.Node) bool {
	as, ae := a.Span()
	bs, be := b.Span()
	return as == bs && ae == be
}
