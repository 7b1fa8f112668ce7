// Package java is the Java language visitor: a LanguageVisitor handler
// table translating a Java tree-sitter parse tree into CFG fragments.
// Method and constructor declarations are discovered by walking class
// bodies at any nesting depth; structural patterns come from lang/common
// where C and Java agree, with Java-only shapes (enhanced for, switch
// rules) handled here.
package java

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/viant/cflow/cfg"
	"github.com/viant/cflow/lang/common"
	"github.com/viant/cflow/syntax"
	"github.com/viant/cflow/visitor"
)

// Language returns the tree-sitter grammar for Java, for syntax.Parse.
func Language() *sitter.Language { return java.GetLanguage() }

// Visitor is the Java LanguageVisitor.
type Visitor struct {
	handlers map[string]visitor.HandlerFunc
}

// New builds the Java handler table once; safe to share across parses.
func New() *Visitor {
	v := &Visitor{}
	v.handlers = map[string]visitor.HandlerFunc{
		"block":                      handleBlock,
		"constructor_body":           handleBlock,
		"expression_statement":       handleExpressionStatement,
		"local_variable_declaration": handleDeclaration,
		"if_statement":               handleIf,
		"while_statement":            handleWhile,
		"for_statement":              handleFor,
		"enhanced_for_statement":     handleEnhancedFor,
		"do_statement":               handleDo,
		"switch_expression":          handleSwitch,
		"switch_statement":           handleSwitch,
		"break_statement":            handleBreak,
		"continue_statement":         handleContinue,
		"return_statement":           handleReturn,
		"labeled_statement":          handleLabeled,
	}
	return v
}

func (v *Visitor) Name() string { return "java" }

func (v *Visitor) IsComment(kind string) bool {
	return kind == "line_comment" || kind == "block_comment" || kind == "comment"
}

func (v *Visitor) Handlers() map[string]visitor.HandlerFunc { return v.handlers }

// Routines finds every method and constructor declaration, at any class
// nesting depth, in textual order.
func (v *Visitor) Routines(root syntax.Node) []visitor.RoutineDecl {
	var out []visitor.RoutineDecl
	collectMethods(root, &out)
	return out
}

func collectMethods(n syntax.Node, out *[]visitor.RoutineDecl) {
	if !n.IsValid() {
		return
	}
	switch n.Kind() {
	case "method_declaration", "constructor_declaration":
		name := n.ChildByField("name").Text()
		*out = append(*out, visitor.RoutineDecl{
			Name:       name,
			Parameters: parameterNames(n.ChildByField("parameters")),
			Body:       n.ChildByField("body"),
		})
		return
	}
	count := n.NamedChildCount()
	for i := 0; i < count; i++ {
		collectMethods(n.NamedChild(i), out)
	}
}

func parameterNames(list syntax.Node) []string {
	var params []string
	count := list.NamedChildCount()
	for i := 0; i < count; i++ {
		p := list.NamedChild(i)
		switch p.Kind() {
		case "formal_parameter":
			if name := p.ChildByField("name"); name.IsValid() {
				params = append(params, name.Text())
			}
		case "spread_parameter":
			// `String... args`: the declared identifier is the last one.
			if name := common.DeclaredName(p); name != "" {
				params = append(params, name)
			}
		}
	}
	return params
}

func handleBlock(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
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
	return common.BuildIf(vi, n.ChildByField("condition"), n.ChildByField("consequence"), n.ChildByField("alternative"))
}

func handleWhile(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
	return common.BuildWhile(vi, n.ChildByField("condition"), n.ChildByField("body"))
}

func handleDo(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
	return common.BuildDoWhile(vi, n.ChildByField("body"), n.ChildByField("condition"))
}

func handleFor(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
	return common.BuildFor(vi,
		n.ChildByField("init"),
		n.ChildByField("condition"),
		n.ChildByField("update"),
		n.ChildByField("body"))
}

// handleEnhancedFor models `for (T x : xs)` as a LOOP_HEADER whose source is
// the iterable expression; the loop variable is a def on the header itself.
func handleEnhancedFor(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
	value := n.ChildByField("value")
	if !value.IsValid() {
		vi.Warn("enhanced for statement missing its iterable")
		return vi.EnsureFragment(visitor.Fragment{}), nil
	}
	headerID := vi.NewNode(cfg.LoopHeader, value)
	var md cfg.Metadata
	if name := n.ChildByField("name"); name.IsValid() {
		md.AddDef(name.Text())
	}
	common.DescribeCondition(value, &md)
	vi.SetMetadata(headerID, md)

	exitID := vi.NewSyntheticNode(cfg.Placeholder, "")
	vi.PushLoop(headerID, exitID)
	bodyFrag, err := vi.Visit(n.ChildByField("body"))
	vi.PopLoop()
	if err != nil {
		return visitor.Fragment{}, err
	}
	return vi.Loop(headerID, vi.EnsureFragment(bodyFrag), exitID)
}

// handleSwitch covers both the classic fall-through form
// (switch_block_statement_group) and the arrow form (switch_rule), which
// never falls through.
func handleSwitch(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
	discriminant := common.Unparen(n.ChildByField("condition"))
	headID := vi.NewNode(cfg.SwitchHead, discriminant)
	var md cfg.Metadata
	common.DescribeDiscriminant(discriminant, &md)
	vi.SetMetadata(headID, md)

	exitID := vi.NewSyntheticNode(cfg.Placeholder, "")
	vi.PushSwitch(exitID, headID)
	defer vi.PopSwitch()

	body := n.ChildByField("body")
	sawDefault := false
	var prevOpenExits []int
	for _, group := range body.NamedChildren(isCommentKind) {
		switch group.Kind() {
		case "switch_block_statement_group":
			frag, isDefault, err := buildStatementGroup(vi, headID, group)
			if err != nil {
				return visitor.Fragment{}, err
			}
			sawDefault = sawDefault || isDefault
			if frag.IsZero() {
				continue
			}
			for _, open := range prevOpenExits {
				if err := vi.Routine().AddEdge(open, frag.EntryID, ""); err != nil {
					return visitor.Fragment{}, err
				}
			}
			prevOpenExits = frag.ExitIDs
		case "switch_rule":
			isDefault, err := buildSwitchRule(vi, headID, exitID, group)
			if err != nil {
				return visitor.Fragment{}, err
			}
			sawDefault = sawDefault || isDefault
		}
	}

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

// buildStatementGroup chains a classic `case a: case b: stmts...` group:
// one CASE/DEFAULT node per label, each with its own labeled edge from the
// switch head, followed by the group's statements.
func buildStatementGroup(vi *visitor.Visitor, headID int, group syntax.Node) (visitor.Fragment, bool, error) {
	var frags []visitor.Fragment
	sawDefault := false
	for _, child := range group.NamedChildren(isCommentKind) {
		if child.Kind() == "switch_label" {
			id, label := newCaseNode(vi, child)
			if label == cfg.LabelDefault {
				sawDefault = true
			}
			if err := vi.Routine().AddEdge(headID, id, label); err != nil {
				return visitor.Fragment{}, false, err
			}
			frags = append(frags, visitor.Fragment{EntryID: id, ExitIDs: []int{id}})
			continue
		}
		f, err := vi.Visit(child)
		if err != nil {
			return visitor.Fragment{}, false, err
		}
		frags = append(frags, f)
	}
	frag, err := vi.ChainAll(frags...)
	return frag, sawDefault, err
}

// buildSwitchRule wires one arrow case `case N -> body`: a labeled edge
// from the head through the CASE node into the body, whose exits go
// straight to the switch exit; the arrow form has no fall-through.
func buildSwitchRule(vi *visitor.Visitor, headID, exitID int, rule syntax.Node) (bool, error) {
	children := rule.NamedChildren(isCommentKind)
	if len(children) == 0 {
		return false, nil
	}
	labelNode := children[0]
	id, label := newCaseNode(vi, labelNode)
	if err := vi.Routine().AddEdge(headID, id, label); err != nil {
		return false, err
	}
	caseFrag := visitor.Fragment{EntryID: id, ExitIDs: []int{id}}
	if len(children) > 1 {
		bodyFrag, err := vi.Visit(children[len(children)-1])
		if err != nil {
			return false, err
		}
		caseFrag, err = vi.Chain(caseFrag, bodyFrag)
		if err != nil {
			return false, err
		}
	}
	for _, open := range caseFrag.ExitIDs {
		if err := vi.Routine().AddEdge(open, exitID, ""); err != nil {
			return false, err
		}
	}
	return label == cfg.LabelDefault, nil
}

// newCaseNode creates the CASE or DEFAULT passthrough node for a
// switch_label and returns its edge label: the case-value text, or
// "default" for a valueless label.
func newCaseNode(vi *visitor.Visitor, label syntax.Node) (int, string) {
	if label.NamedChildCount() == 0 {
		return vi.NewNode(cfg.Default, label), cfg.LabelDefault
	}
	value := label.NamedChild(0)
	id := vi.NewNode(cfg.Case, label)
	return id, strings.TrimSpace(value.Text())
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

// handleLabeled registers `name:` in the label table and emits a LABEL node
// chained before the labeled statement. Java has no goto, so nothing
// resolves against that table: a labeled break/continue ignores its label
// and targets the innermost loop or switch, like an unlabeled one.
func handleLabeled(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
	children := n.NamedChildren(isCommentKind)
	if len(children) == 0 {
		return vi.EnsureFragment(visitor.Fragment{}), nil
	}
	nameNode := children[0]
	id := vi.NewNode(cfg.Label, nameNode)
	vi.RegisterLabel(nameNode.Text(), id)
	labelFrag := visitor.Fragment{EntryID: id, ExitIDs: []int{id}}
	if len(children) == 1 {
		return labelFrag, nil
	}
	inner, err := vi.Visit(children[len(children)-1])
	if err != nil {
		return visitor.Fragment{}, err
	}
	return vi.Chain(labelFrag, inner)
}

func isCommentKind(kind string) bool {
	return kind == "line_comment" || kind == "block_comment" || kind == "comment"
}
