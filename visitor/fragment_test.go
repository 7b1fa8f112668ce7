package visitor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/cflow/cfg"
	"github.com/viant/cflow/syntax"
)

type fakeLang struct{}

func (fakeLang) Name() string                       { return "fake" }
func (fakeLang) IsComment(string) bool              { return false }
func (fakeLang) Handlers() map[string]HandlerFunc   { return nil }
func (fakeLang) Routines(syntax.Node) []RoutineDecl { return nil }

func newTestVisitor(warnings *[]string) (*Visitor, *cfg.Routine) {
	r := cfg.NewRoutine("f")
	return New(context.Background(), fakeLang{}, r, warnings), r
}

func TestChainConnectsExits(t *testing.T) {
	v, r := newTestVisitor(nil)
	a := v.NewSyntheticNode(cfg.Statement, "a")
	b := v.NewSyntheticNode(cfg.Statement, "b")
	out, err := v.Chain(Fragment{EntryID: a, ExitIDs: []int{a}}, Fragment{EntryID: b, ExitIDs: []int{b}})
	require.NoError(t, err)
	assert.Equal(t, a, out.EntryID)
	assert.Equal(t, []int{b}, out.ExitIDs)
	an, _ := r.Node(a)
	assert.Equal(t, []int{b}, an.Successors)
}

func TestChainAfterTerminalLeavesDisconnected(t *testing.T) {
	v, r := newTestVisitor(nil)
	// Id 0 is the routine's ENTRY, as BuildRoutine allocates it; a fragment
	// entered at id 0 with no exits would read as the zero Fragment.
	v.NewSyntheticNode(cfg.Entry, "f")
	ret := v.NewSyntheticNode(cfg.Return, "return;")
	dead := v.NewSyntheticNode(cfg.Statement, "dead")
	out, err := v.Chain(Fragment{EntryID: ret, ExitIDs: nil}, Fragment{EntryID: dead, ExitIDs: []int{dead}})
	require.NoError(t, err)
	assert.Equal(t, ret, out.EntryID)
	dn, _ := r.Node(dead)
	assert.Empty(t, dn.Predecessors, "code after an unconditional jump stays unwired")
}

func TestBranchLabelsBothEdges(t *testing.T) {
	v, r := newTestVisitor(nil)
	cond := v.NewSyntheticNode(cfg.Condition, "c")
	thenID := v.NewSyntheticNode(cfg.Statement, "t")
	elseID := v.NewSyntheticNode(cfg.Statement, "e")
	out, err := v.Branch(cond,
		Fragment{EntryID: thenID, ExitIDs: []int{thenID}},
		Fragment{EntryID: elseID, ExitIDs: []int{elseID}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{thenID, elseID}, out.ExitIDs)
	cn, _ := r.Node(cond)
	assert.Equal(t, cfg.LabelTrue, cn.EdgeLabels[thenID])
	assert.Equal(t, cfg.LabelFalse, cn.EdgeLabels[elseID])
}

func TestLoopWiresBackEdgeAndExit(t *testing.T) {
	v, r := newTestVisitor(nil)
	header := v.NewSyntheticNode(cfg.LoopHeader, "c")
	body := v.NewSyntheticNode(cfg.Statement, "b")
	exitID := v.NewSyntheticNode(cfg.Placeholder, "")
	out, err := v.Loop(header, Fragment{EntryID: body, ExitIDs: []int{body}}, exitID)
	require.NoError(t, err)
	assert.Equal(t, []int{exitID}, out.ExitIDs)
	hn, _ := r.Node(header)
	assert.Equal(t, cfg.LabelTrue, hn.EdgeLabels[body])
	assert.Equal(t, cfg.LabelFalse, hn.EdgeLabels[exitID])
	bn, _ := r.Node(body)
	assert.Equal(t, []int{header}, bn.Successors)
}

func TestInnermostTargets(t *testing.T) {
	v, _ := newTestVisitor(nil)
	v.PushLoop(10, 11)
	v.PushSwitch(20, 21)

	// Break prefers the innermost switch; continue ignores switches.
	target, ok := v.InnermostBreakTarget()
	require.True(t, ok)
	assert.Equal(t, 20, target)
	target, ok = v.InnermostContinueTarget()
	require.True(t, ok)
	assert.Equal(t, 10, target)

	v.PopSwitch()
	target, _ = v.InnermostBreakTarget()
	assert.Equal(t, 11, target)
	v.PopLoop()
	_, ok = v.InnermostBreakTarget()
	assert.False(t, ok)
}

func TestBuildRoutineResolvesGotos(t *testing.T) {
	var warnings []string
	v, r := newTestVisitor(&warnings)
	err := BuildRoutine(v, func(v *Visitor) (Fragment, error) {
		g := v.NewSyntheticNode(cfg.Goto, "goto l;")
		v.AddPendingGoto(g, "l")
		label := v.NewSyntheticNode(cfg.Label, "l")
		v.RegisterLabel("l", label)
		first := Fragment{EntryID: g, ExitIDs: nil}
		return v.Chain(first, Fragment{EntryID: label, ExitIDs: []int{label}})
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	var gotoNode, labelNode *cfg.Node
	for _, n := range r.Nodes() {
		switch n.Kind {
		case cfg.Goto:
			gotoNode = n
		case cfg.Label:
			labelNode = n
		}
	}
	require.NotNil(t, gotoNode)
	require.NotNil(t, labelNode)
	assert.Equal(t, []int{labelNode.ID}, gotoNode.Successors)
}

func TestBuildRoutineUnresolvedGotoWarns(t *testing.T) {
	var warnings []string
	v, _ := newTestVisitor(&warnings)
	err := BuildRoutine(v, func(v *Visitor) (Fragment, error) {
		g := v.NewSyntheticNode(cfg.Goto, "goto missing;")
		v.AddPendingGoto(g, "missing")
		return Fragment{EntryID: g, ExitIDs: nil}, nil
	})
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
}

func TestBuildRoutineRecordsParameterDefs(t *testing.T) {
	var warnings []string
	r := cfg.NewRoutine("g")
	r.Parameters = []string{"a", "b"}
	v := New(context.Background(), fakeLang{}, r, &warnings)
	require.NoError(t, BuildRoutine(v, func(v *Visitor) (Fragment, error) {
		return Fragment{}, nil
	}))
	entry, _ := r.Node(r.EntryIDs[0])
	assert.Equal(t, "g", entry.SourceText)
	assert.Equal(t, []string{"a", "b"}, entry.Metadata.Defs)
	exit, _ := r.Node(r.ExitIDs[0])
	assert.Equal(t, []int{exit.ID}, entry.Successors, "empty body wires ENTRY straight to EXIT")
}
