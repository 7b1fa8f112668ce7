// Package common holds the helpers shared by lang/c and lang/java:
// splitting a statement's identifiers into defs, uses, and call targets,
// plus the structural builders for the control-flow shapes both grammars
// express identically. One set of rules serves both languages because the
// two grammars share most expression node names.
package common

import (
	"github.com/viant/cflow/cfg"
	"github.com/viant/cflow/syntax"
	"github.com/viant/cflow/visitor"
)

// callExpressionKinds are the call-site node kinds across the C and Java
// grammars.
var callExpressionKinds = map[string]bool{
	"call_expression":            true, // C
	"method_invocation":          true, // Java
	"object_creation_expression": true, // Java `new Foo(...)`
}

// assignmentLikeKinds mark expression-statement nodes whose top-level shape
// is itself an assignment (as opposed to a declaration, handled by
// DescribeDeclaration).
var assignmentLikeKinds = map[string]bool{
	"assignment_expression": true, // both grammars
}

// updateExpressionKinds are pre/post increment-or-decrement.
var updateExpressionKinds = map[string]bool{
	"update_expression": true, // both grammars
}

// DescribeExpressionStatement classifies an expression_statement's sole
// child and fills md's Defs/Uses/Calls: assignment targets are defs,
// update-expression operands are both, everything else reads.
func DescribeExpressionStatement(inner syntax.Node, md *cfg.Metadata) {
	switch {
	case assignmentLikeKinds[inner.Kind()]:
		describeAssignment(inner, md)
	case updateExpressionKinds[inner.Kind()]:
		// x++ / --x: x is both used and defined.
		target := inner.ChildByField("argument")
		if !target.IsValid() && inner.NamedChildCount() > 0 {
			target = inner.NamedChild(0)
		}
		scanUses(target, md)
		scanDefs(target, md)
	default:
		scanUses(inner, md)
	}
	scanCalls(inner, md)
}

// DescribeDeclaration classifies a declaration/local_variable_declaration
// node: each declared name is a def, each initializer expression's
// identifiers are uses.
func DescribeDeclaration(n syntax.Node, md *cfg.Metadata) {
	walkDeclarators(n, md)
	scanCalls(n, md)
}

// DescribeReturn, DescribeCondition and DescribeDiscriminant all treat
// their subtree as pure uses: a return/condition/switch discriminant
// expression never defines anything itself.
func DescribeReturn(n syntax.Node, md *cfg.Metadata) { scanUses(n, md); scanCalls(n, md) }

func DescribeCondition(n syntax.Node, md *cfg.Metadata) { scanUses(n, md); scanCalls(n, md) }

func DescribeDiscriminant(n syntax.Node, md *cfg.Metadata) { scanUses(n, md); scanCalls(n, md) }

func describeAssignment(n syntax.Node, md *cfg.Metadata) {
	lhs := n.ChildByField("left")
	rhs := n.ChildByField("right")
	if !lhs.IsValid() && n.NamedChildCount() >= 2 {
		lhs = n.NamedChild(0)
	}
	if !rhs.IsValid() && n.NamedChildCount() >= 2 {
		rhs = n.NamedChild(n.NamedChildCount() - 1)
	}
	describeLHS(lhs, md)
	scanUses(rhs, md)
}

// describeLHS records only a bare identifier target as a genuine def:
// `a.b = x` does not redefine `a` (it reads the struct it already was), and
// `a[i] = x` uses both `a` and `i`.
func describeLHS(lhs syntax.Node, md *cfg.Metadata) {
	if !lhs.IsValid() {
		return
	}
	switch lhs.Kind() {
	case "identifier":
		md.AddDef(lhs.Text())
	case "field_expression", "field_access": // C / Java member access
		scanUses(lhs, md)
	case "subscript_expression", "array_access":
		scanUses(lhs, md)
	default:
		scanUses(lhs, md)
	}
}

func walkDeclarators(n syntax.Node, md *cfg.Metadata) {
	switch n.Kind() {
	case "declaration": // C: declarators may appear without an initializer
		count := n.NamedChildCount()
		for i := 0; i < count; i++ {
			child := n.NamedChild(i)
			switch child.Kind() {
			case "identifier", "pointer_declarator", "array_declarator", "parenthesized_declarator":
				// `int x;`, `int *p;`, `int a[10];`
				recordDeclaredName(child, md)
			default:
				walkDeclarators(child, md)
			}
		}
		return
	case "init_declarator": // C: `int x = expr`
		nameNode := n.ChildByField("declarator")
		if nameNode.IsValid() {
			recordDeclaredName(nameNode, md)
		}
		value := n.ChildByField("value")
		scanUses(value, md)
		return
	case "variable_declarator": // Java: `x = expr`
		nameNode := n.ChildByField("name")
		if nameNode.IsValid() {
			md.AddDef(nameNode.Text())
		}
		value := n.ChildByField("value")
		scanUses(value, md)
		return
	}
	count := n.NamedChildCount()
	for i := 0; i < count; i++ {
		walkDeclarators(n.NamedChild(i), md)
	}
}

// recordDeclaredName unwraps C pointer/array declarators (`*p`, `a[10]`)
// down to the bare identifier being declared.
func recordDeclaredName(n syntax.Node, md *cfg.Metadata) {
	if !n.IsValid() {
		return
	}
	if n.Kind() == "identifier" {
		md.AddDef(n.Text())
		return
	}
	inner := n.ChildByField("declarator")
	if inner.IsValid() {
		recordDeclaredName(inner, md)
		return
	}
	count := n.NamedChildCount()
	for i := 0; i < count; i++ {
		recordDeclaredName(n.NamedChild(i), md)
	}
}

// DeclaredName unwraps pointer/array/paren declarators (`*p`, `a[10]`) down
// to the bare identifier being declared, returning "" when there is none.
func DeclaredName(n syntax.Node) string {
	if !n.IsValid() {
		return ""
	}
	if n.Kind() == "identifier" {
		return n.Text()
	}
	if inner := n.ChildByField("declarator"); inner.IsValid() {
		return DeclaredName(inner)
	}
	count := n.NamedChildCount()
	for i := 0; i < count; i++ {
		if name := DeclaredName(n.NamedChild(i)); name != "" {
			return name
		}
	}
	return ""
}

// Unparen strips a parenthesized_expression wrapper, so CONDITION and
// LOOP_HEADER nodes carry the bare expression text (`n>0`, not `(n>0)`).
func Unparen(n syntax.Node) syntax.Node {
	for n.IsValid() && n.Kind() == "parenthesized_expression" && n.NamedChildCount() > 0 {
		n = n.NamedChild(0)
	}
	return n
}

func scanUses(n syntax.Node, md *cfg.Metadata) {
	scanIdentifiers(n, md, false)
}

func scanDefs(n syntax.Node, md *cfg.Metadata) {
	scanIdentifiers(n, md, true)
}

func scanIdentifiers(n syntax.Node, md *cfg.Metadata, asDef bool) {
	if !n.IsValid() {
		return
	}
	switch n.Kind() {
	case "identifier":
		name := n.Text()
		if name == "" {
			return
		}
		if asDef {
			md.AddDef(name)
		} else {
			md.AddUse(name)
		}
		return
	case "call_expression":
		// The callee name lands in Calls, never in Uses; only the
		// arguments carry variable references.
		scanIdentifiers(n.ChildByField("arguments"), md, asDef)
		return
	case "method_invocation":
		scanIdentifiers(n.ChildByField("object"), md, asDef)
		scanIdentifiers(n.ChildByField("arguments"), md, asDef)
		return
	case "object_creation_expression":
		scanIdentifiers(n.ChildByField("arguments"), md, asDef)
		return
	case "field_expression":
		// a.b / a->b: only the base identifier is a variable reference.
		scanIdentifiers(n.ChildByField("argument"), md, asDef)
		return
	case "field_access":
		scanIdentifiers(n.ChildByField("object"), md, asDef)
		return
	}
	count := n.NamedChildCount()
	for i := 0; i < count; i++ {
		scanIdentifiers(n.NamedChild(i), md, asDef)
	}
}

// scanCalls records every call target name found anywhere in n's subtree;
// the callee name is recorded even though only the enclosing statement
// becomes the call node.
func scanCalls(n syntax.Node, md *cfg.Metadata) {
	if !n.IsValid() {
		return
	}
	if callExpressionKinds[n.Kind()] {
		if name := calleeName(n); name != "" {
			md.AddCall(name)
		}
	}
	count := n.NamedChildCount()
	for i := 0; i < count; i++ {
		scanCalls(n.NamedChild(i), md)
	}
}

// CallRefs collects every call in n's subtree together with its positional
// argument identifiers, in textual order. A non-identifier argument yields
// an empty string so indices stay aligned with the callee's parameters;
// such arguments contribute no aliases downstream.
func CallRefs(n syntax.Node) []visitor.CallRef {
	var refs []visitor.CallRef
	collectCallRefs(n, &refs)
	return refs
}

func collectCallRefs(n syntax.Node, refs *[]visitor.CallRef) {
	if !n.IsValid() {
		return
	}
	if callExpressionKinds[n.Kind()] {
		if name := calleeName(n); name != "" {
			*refs = append(*refs, visitor.CallRef{Name: name, Args: argumentNames(n)})
		}
	}
	count := n.NamedChildCount()
	for i := 0; i < count; i++ {
		collectCallRefs(n.NamedChild(i), refs)
	}
}

func argumentNames(call syntax.Node) []string {
	args := call.ChildByField("arguments")
	if !args.IsValid() {
		return nil
	}
	count := args.NamedChildCount()
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		a := args.NamedChild(i)
		if a.Kind() == "identifier" {
			out = append(out, a.Text())
		} else {
			out = append(out, "")
		}
	}
	return out
}

func calleeName(n syntax.Node) string {
	switch n.Kind() {
	case "call_expression":
		fn := n.ChildByField("function")
		return simpleName(fn)
	case "method_invocation":
		name := n.ChildByField("name")
		return simpleName(name)
	case "object_creation_expression":
		t := n.ChildByField("type")
		return simpleName(t)
	}
	return ""
}

// simpleName reduces a (possibly qualified) callee expression to its
// rightmost identifier, e.g. `pkg.Foo` or `obj.method` -> the called name.
func simpleName(n syntax.Node) string {
	if !n.IsValid() {
		return ""
	}
	switch n.Kind() {
	case "identifier", "field_identifier", "type_identifier":
		return n.Text()
	case "field_expression", "field_access":
		field := n.ChildByField("field")
		if !field.IsValid() {
			field = n.ChildByField("name")
		}
		return simpleName(field)
	}
	if n.NamedChildCount() > 0 {
		return simpleName(n.NamedChild(n.NamedChildCount() - 1))
	}
	return ""
}
