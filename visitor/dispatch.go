package visitor

import (
	"context"
	"fmt"

	"github.com/viant/cflow/cfg"
	"github.com/viant/cflow/syntax"
)

// HandlerFunc emits the CFG fragment (and metadata) for one AST node kind.
// Handlers MUST return a fragment; they MAY push/pop scoping frames but
// MUST restore the stacks on every exit path.
type HandlerFunc func(v *Visitor, n syntax.Node) (Fragment, error)

// RoutineDecl is one routine definition found in a parsed file: its name,
// its parameter identifiers in declaration order, and its body subtree (the
// zero Node for a body-less declaration, which still yields ENTRY->EXIT).
type RoutineDecl struct {
	Name       string
	Parameters []string
	Body       syntax.Node
}

// CallRef is one call found inside a statement: the callee name plus the
// textual argument identifiers, positionally. An argument that is not a
// bare identifier contributes an empty string, so indices stay aligned with
// the callee's parameter list.
type CallRef struct {
	Name string
	Args []string
}

// LanguageVisitor is the pluggable per-language handler set. New imperative
// languages register one of these without touching the framework, the
// syntax adapter, or the CFG model.
type LanguageVisitor interface {
	// Name identifies the language, e.g. "c" or "java".
	Name() string
	// IsComment reports whether a node kind is a comment, so it never
	// reaches the dispatch loop.
	IsComment(kind string) bool
	// Handlers returns the kind -> HandlerFunc table.
	Handlers() map[string]HandlerFunc
	// Routines lists the routine definitions of a parsed file, in textual
	// order.
	Routines(root syntax.Node) []RoutineDecl
}

// Visitor owns one routine traversal: id allocation, the CFG being built,
// the scoping stacks, and the language visitor doing the dispatching. One
// Visitor serves exactly one routine, so no mutable state is shared across
// requests or routines.
type Visitor struct {
	ctx     context.Context
	lang    LanguageVisitor
	routine *cfg.Routine

	loopStack    []LoopFrame
	switchStack  []SwitchFrame
	labelTable   map[string]int
	pendingGotos []PendingGoto

	warnings *[]string
}

// New creates a Visitor for one routine traversal.
func New(ctx context.Context, lang LanguageVisitor, routine *cfg.Routine, warnings *[]string) *Visitor {
	return &Visitor{
		ctx:        ctx,
		lang:       lang,
		routine:    routine,
		labelTable: map[string]int{},
		warnings:   warnings,
	}
}

// Routine exposes the CFG under construction to handlers.
func (v *Visitor) Routine() *cfg.Routine { return v.routine }

// Warn records a structural warning: local, never fatal, traversal
// continues.
func (v *Visitor) Warn(format string, args ...interface{}) {
	if v.warnings == nil {
		return
	}
	*v.warnings = append(*v.warnings, fmt.Sprintf(format, args...))
}

// NewNode allocates a CFG node for the given syntax node, recording its
// byte span.
func (v *Visitor) NewNode(kind cfg.NodeKind, n syntax.Node) int {
	text := n.Text()
	var start, end *int
	if n.IsValid() {
		s, e := n.Span()
		start, end = &s, &e
	}
	return v.routine.NewNode(kind, text, start, end)
}

// NewSyntheticNode allocates a CFG node with explicit text and no source
// span (ENTRY/EXIT and other synthetic nodes).
func (v *Visitor) NewSyntheticNode(kind cfg.NodeKind, text string) int {
	return v.routine.NewNode(kind, text, nil, nil)
}

// SetMetadata overwrites a node's def/use/call metadata.
func (v *Visitor) SetMetadata(nodeID int, md cfg.Metadata) {
	if n, ok := v.routine.Node(nodeID); ok {
		n.Metadata = md
	}
}

// Visit dispatches to the registered handler for n's kind, or to the
// default fragment (one STATEMENT node, language-independent identifier
// scan) if none is registered. The context check makes long traversals
// cooperatively cancellable.
func (v *Visitor) Visit(n syntax.Node) (Fragment, error) {
	if v.ctx != nil {
		select {
		case <-v.ctx.Done():
			return Fragment{}, v.ctx.Err()
		default:
		}
	}
	if !n.IsValid() {
		return Fragment{}, nil
	}
	if handler, ok := v.lang.Handlers()[n.Kind()]; ok {
		return handler(v, n)
	}
	return v.defaultFragment(n)
}

// VisitSequence visits each named child (skipping comments) and chains the
// resulting fragments: the sequential composition every compound/block node
// reduces to.
func (v *Visitor) VisitSequence(n syntax.Node) (Fragment, error) {
	children := n.NamedChildren(v.lang.IsComment)
	frags := make([]Fragment, 0, len(children))
	for _, c := range children {
		f, err := v.Visit(c)
		if err != nil {
			return Fragment{}, err
		}
		frags = append(frags, f)
	}
	return v.ChainAll(frags...)
}

func (v *Visitor) defaultFragment(n syntax.Node) (Fragment, error) {
	id := v.NewNode(cfg.Statement, n)
	v.Warn("unrecognized AST kind %q handled as a generic statement", n.Kind())
	md := DefaultIdentifierScan(n)
	v.SetMetadata(id, md)
	return v.LeafFragment(id, md, nil)
}

// LeafFragment turns a plain statement-like node into a Fragment, inserting
// a synthetic call-return touch point when the node carries calls: the node
// itself is the call node, and a
// PLACEHOLDER return point becomes the fragment's new exit, so ordinary
// chaining wires the rest of the routine after the return point.
func (v *Visitor) LeafFragment(nodeID int, md cfg.Metadata, calls []CallRef) (Fragment, error) {
	if len(calls) == 0 {
		return Fragment{EntryID: nodeID, ExitIDs: []int{nodeID}}, nil
	}
	rp := v.NewSyntheticNode(cfg.Placeholder, "")
	if err := v.routine.AddEdge(nodeID, rp, ""); err != nil {
		return Fragment{}, err
	}
	v.recordCalls(nodeID, rp, calls)
	return Fragment{EntryID: nodeID, ExitIDs: []int{rp}}, nil
}

// TerminalFragment wires a terminal node (RETURN/BREAK/CONTINUE) to its
// fixed target, inserting the same call-return placeholder when the node
// carries calls. The returned fragment always has empty ExitIDs: nothing
// composes after a terminal node.
func (v *Visitor) TerminalFragment(nodeID, target int, calls []CallRef) (Fragment, error) {
	if len(calls) == 0 {
		if err := v.routine.AddEdge(nodeID, target, ""); err != nil {
			return Fragment{}, err
		}
		return Fragment{EntryID: nodeID, ExitIDs: nil}, nil
	}
	rp := v.NewSyntheticNode(cfg.Placeholder, "")
	if err := v.routine.AddEdge(nodeID, rp, ""); err != nil {
		return Fragment{}, err
	}
	if err := v.routine.AddEdge(rp, target, ""); err != nil {
		return Fragment{}, err
	}
	v.recordCalls(nodeID, rp, calls)
	return Fragment{EntryID: nodeID, ExitIDs: nil}, nil
}

func (v *Visitor) recordCalls(nodeID, returnID int, calls []CallRef) {
	for _, ref := range calls {
		v.routine.Calls = append(v.routine.Calls, cfg.Call{
			NodeID:   nodeID,
			ReturnID: returnID,
			Callee:   ref.Name,
			Args:     ref.Args,
		})
	}
}
