package postprocess

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/cflow/cfg"
)

func TestCompactsCaseNodesKeepingLabels(t *testing.T) {
	u := cfg.NewUnit()
	r := u.NewRoutine("s")
	entry := r.NewNode(cfg.Entry, "s", nil, nil)
	head := r.NewNode(cfg.SwitchHead, "x", nil, nil)
	case1 := r.NewNode(cfg.Case, "case 1:", nil, nil)
	ret1 := r.NewNode(cfg.Return, "return 1;", nil, nil)
	def := r.NewNode(cfg.Default, "default:", nil, nil)
	ret0 := r.NewNode(cfg.Return, "return 0;", nil, nil)
	exit := r.NewNode(cfg.Exit, "s", nil, nil)
	r.EntryIDs, r.ExitIDs = []int{entry}, []int{exit}
	require.NoError(t, r.AddEdge(entry, head, ""))
	require.NoError(t, r.AddEdge(head, case1, "1"))
	require.NoError(t, r.AddEdge(case1, ret1, ""))
	require.NoError(t, r.AddEdge(head, def, cfg.LabelDefault))
	require.NoError(t, r.AddEdge(def, ret0, ""))
	require.NoError(t, r.AddEdge(ret1, exit, ""))
	require.NoError(t, r.AddEdge(ret0, exit, ""))

	require.NoError(t, Run(context.Background(), u))

	for _, n := range r.Nodes() {
		assert.NotEqual(t, cfg.Case, n.Kind)
		assert.NotEqual(t, cfg.Default, n.Kind)
	}
	hn, _ := r.Node(head)
	assert.Equal(t, []int{ret1, ret0}, hn.Successors)
	assert.Equal(t, "1", hn.EdgeLabels[ret1], "case value survives compaction")
	assert.Equal(t, cfg.LabelDefault, hn.EdgeLabels[ret0])
}

func TestWiresCallAndReturnEdges(t *testing.T) {
	u := cfg.NewUnit()

	g := u.NewRoutine("g")
	gEntry := g.NewNode(cfg.Entry, "g", nil, nil)
	gExit := g.NewNode(cfg.Exit, "g", nil, nil)
	g.EntryIDs, g.ExitIDs = []int{gEntry}, []int{gExit}
	require.NoError(t, g.AddEdge(gEntry, gExit, ""))

	m := u.NewRoutine("m")
	mEntry := m.NewNode(cfg.Entry, "m", nil, nil)
	call := m.NewNode(cfg.Statement, "g(x);", nil, nil)
	rp := m.NewNode(cfg.Placeholder, "", nil, nil)
	mExit := m.NewNode(cfg.Exit, "m", nil, nil)
	m.EntryIDs, m.ExitIDs = []int{mEntry}, []int{mExit}
	require.NoError(t, m.AddEdge(mEntry, call, ""))
	require.NoError(t, m.AddEdge(call, rp, ""))
	require.NoError(t, m.AddEdge(rp, mExit, ""))
	m.Calls = []cfg.Call{{NodeID: call, ReturnID: rp, Callee: "g", Args: []string{"x"}}}

	require.NoError(t, Run(context.Background(), u))

	cn, _ := m.Node(call)
	assert.Equal(t, cfg.LabelFunctionCall, cn.EdgeLabels[gEntry])
	// The return point placeholder is compacted away; the return edge
	// re-threads onto its successor.
	gx, _ := g.Node(gExit)
	assert.Equal(t, cfg.LabelFunctionReturn, gx.EdgeLabels[mExit])
	_, ok := m.Node(rp)
	assert.False(t, ok)
}

func TestCalleeOutsideUnitIsSkipped(t *testing.T) {
	u := cfg.NewUnit()
	m := u.NewRoutine("m")
	mEntry := m.NewNode(cfg.Entry, "m", nil, nil)
	call := m.NewNode(cfg.Statement, "printf(x);", nil, nil)
	mExit := m.NewNode(cfg.Exit, "m", nil, nil)
	m.EntryIDs, m.ExitIDs = []int{mEntry}, []int{mExit}
	require.NoError(t, m.AddEdge(mEntry, call, ""))
	require.NoError(t, m.AddEdge(call, mExit, ""))
	m.Calls = []cfg.Call{{NodeID: call, ReturnID: call, Callee: "printf", Args: []string{"x"}}}

	require.NoError(t, Run(context.Background(), u))
	cn, _ := m.Node(call)
	assert.Equal(t, []int{mExit}, cn.Successors, "no call edge for an external callee")
}

func TestSweepsUnreachableCode(t *testing.T) {
	u := cfg.NewUnit()
	r := u.NewRoutine("f")
	entry := r.NewNode(cfg.Entry, "f", nil, nil)
	ret := r.NewNode(cfg.Return, "return;", nil, nil)
	dead := r.NewNode(cfg.Statement, "x = 1;", nil, nil)
	exit := r.NewNode(cfg.Exit, "f", nil, nil)
	r.EntryIDs, r.ExitIDs = []int{entry}, []int{exit}
	require.NoError(t, r.AddEdge(entry, ret, ""))
	require.NoError(t, r.AddEdge(ret, exit, ""))
	// Statement after the return: emitted but never connected upstream.
	require.NoError(t, r.AddEdge(dead, exit, ""))

	require.NoError(t, Run(context.Background(), u))

	_, ok := r.Node(dead)
	assert.False(t, ok)
	xn, _ := r.Node(exit)
	assert.False(t, xn.Predecessors[dead])
	assert.NoError(t, cfg.CheckInvariants(r))
}
