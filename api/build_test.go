package api

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/viant/cflow/cfg"
)

func buildOne(t *testing.T, source string, language Language) *BuildResult {
	t.Helper()
	res, err := BuildCFGs(context.Background(), []byte(source), language)
	require.NoError(t, err)
	return res
}

func routineByName(t *testing.T, res *BuildResult, name string) *cfg.Routine {
	t.Helper()
	for _, r := range res.Routines {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("routine %q not found", name)
	return nil
}

func findNode(t *testing.T, r *cfg.Routine, kind cfg.NodeKind, substr string) *cfg.Node {
	t.Helper()
	for _, n := range r.Nodes() {
		if n.Kind == kind && strings.Contains(n.SourceText, substr) {
			return n
		}
	}
	t.Fatalf("routine %q has no %v node containing %q", r.Name, kind, substr)
	return nil
}

func hasEdge(r *cfg.Routine, from, to int) bool {
	n, ok := r.Node(from)
	if !ok {
		return false
	}
	for _, s := range n.Successors {
		if s == to {
			return true
		}
	}
	return false
}

func TestBuildCFGsInputErrors(t *testing.T) {
	_, err := BuildCFGs(context.Background(), []byte("int f(){}"), "cobol")
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)

	_, err = BuildCFGs(context.Background(), []byte("   \n"), LanguageC)
	require.ErrorAs(t, err, &inputErr)
}

func TestStraightLineFunction(t *testing.T) {
	res := buildOne(t, "int f(){int a=1; return a;}", LanguageC)
	assert.Empty(t, res.Warnings)
	require.Len(t, res.Routines, 1)
	r := res.Routines[0]
	assert.Equal(t, "f", r.Name)
	assert.Empty(t, r.Parameters)
	assert.Equal(t, 4, r.Len())

	entry, _ := r.Node(r.EntryIDs[0])
	exit, _ := r.Node(r.ExitIDs[0])
	stmt := findNode(t, r, cfg.Statement, "int a=1;")
	ret := findNode(t, r, cfg.Return, "return a;")

	assert.Equal(t, []string{"a"}, stmt.Metadata.Defs)
	assert.Equal(t, []string{"a"}, ret.Metadata.Uses)
	assert.True(t, hasEdge(r, entry.ID, stmt.ID))
	assert.True(t, hasEdge(r, stmt.ID, ret.ID))
	assert.True(t, hasEdge(r, ret.ID, exit.ID))

	chains, err := AnalyzeDefUse(context.Background(), res.Routines)
	require.NoError(t, err)

	expectYaml := `
- variable: a
  def: ` + itoa(stmt.ID) + `
  uses:
    - ` + itoa(ret.ID) + `
`
	type chainExpect struct {
		Variable string `yaml:"variable"`
		Def      int    `yaml:"def"`
		Uses     []int  `yaml:"uses"`
	}
	var expect []chainExpect
	require.NoError(t, yaml.Unmarshal([]byte(expectYaml), &expect))
	var actual []chainExpect
	for _, c := range chains.Chains {
		actual = append(actual, chainExpect{Variable: c.Variable, Def: c.DefNodeID, Uses: c.UseNodeIDs})
	}
	assert.EqualValues(t, expect, actual)
}

func TestParameterDefsOnEntry(t *testing.T) {
	res := buildOne(t, "int g(int a){int b=a+1; return b;}", LanguageC)
	r := routineByName(t, res, "g")
	assert.Equal(t, []string{"a"}, r.Parameters)
	entry, _ := r.Node(r.EntryIDs[0])
	assert.Equal(t, []string{"a"}, entry.Metadata.Defs)

	stmt := findNode(t, r, cfg.Statement, "int b=a+1;")
	assert.Equal(t, []string{"b"}, stmt.Metadata.Defs)
	assert.Equal(t, []string{"a"}, stmt.Metadata.Uses)

	chains, err := AnalyzeDefUse(context.Background(), res.Routines)
	require.NoError(t, err)
	ret := findNode(t, r, cfg.Return, "return b;")
	assert.Contains(t, chains.UseDef, &UseDefChain{Variable: "a", UseNodeID: stmt.ID, DefNodeIDs: []int{entry.ID}})
	assert.Contains(t, chains.UseDef, &UseDefChain{Variable: "b", UseNodeID: ret.ID, DefNodeIDs: []int{stmt.ID}})
}

func TestInterProceduralCallEdgesAndAliases(t *testing.T) {
	source := `
int g(int a){int b=a+1; return b;}
int m(){int x=5; return g(x);}
`
	res := buildOne(t, source, LanguageC)
	g := routineByName(t, res, "g")
	m := routineByName(t, res, "m")

	call := findNode(t, m, cfg.Return, "return g(x);")
	assert.Equal(t, []string{"g"}, call.Metadata.Calls)
	assert.Equal(t, []string{"x"}, call.Metadata.Uses)

	// Call edge into the callee, return edge back to the call site's
	// continuation.
	assert.Equal(t, cfg.LabelFunctionCall, call.EdgeLabels[g.EntryIDs[0]])
	gExit, _ := g.Node(g.ExitIDs[0])
	returnTargets := 0
	for _, s := range gExit.Successors {
		if gExit.EdgeLabels[s] == cfg.LabelFunctionReturn {
			returnTargets++
		}
	}
	assert.Equal(t, 1, returnTargets)

	chains, err := AnalyzeDefUse(context.Background(), res.Routines)
	require.NoError(t, err)
	xDef := findNode(t, m, cfg.Statement, "int x=5;")
	aUse := findNode(t, g, cfg.Statement, "int b=a+1;")
	gEntry, _ := g.Node(g.EntryIDs[0])

	var aliased []int
	for _, c := range chains.UseDef {
		if c.Variable == "a" && c.UseNodeID == aUse.ID {
			aliased = c.DefNodeIDs
		}
	}
	assert.ElementsMatch(t, []int{gEntry.ID, xDef.ID}, aliased,
		"use of parameter a resolves to ENTRY(g) and the x=5 site")
}

func TestWhileLoopConfluence(t *testing.T) {
	res := buildOne(t, "int w(int n){int s=0; while(n>0){s=s+n; n=n-1;} return s;}", LanguageC)
	r := routineByName(t, res, "w")

	header := findNode(t, r, cfg.LoopHeader, "n>0")
	body := findNode(t, r, cfg.Statement, "s=s+n;")
	update := findNode(t, r, cfg.Statement, "n=n-1;")
	ret := findNode(t, r, cfg.Return, "return s;")

	assert.Equal(t, cfg.LabelTrue, header.EdgeLabels[body.ID])
	assert.Equal(t, cfg.LabelFalse, header.EdgeLabels[ret.ID])
	assert.True(t, hasEdge(r, update.ID, header.ID), "body wires back to the loop header")

	chains, err := AnalyzeDefUse(context.Background(), res.Routines)
	require.NoError(t, err)
	entry, _ := r.Node(r.EntryIDs[0])
	var nDefs []int
	for _, c := range chains.UseDef {
		if c.Variable == "n" && c.UseNodeID == header.ID {
			nDefs = c.DefNodeIDs
		}
	}
	assert.ElementsMatch(t, []int{entry.ID, update.ID}, nDefs,
		"loop confluence: both the parameter and the in-loop update reach the header")
}

func TestSwitchCompaction(t *testing.T) {
	res := buildOne(t, "int s(int x){switch(x){case 1: return 1; case 2: return 2; default: return 0;}}", LanguageC)
	r := routineByName(t, res, "s")

	head := findNode(t, r, cfg.SwitchHead, "x")
	ret1 := findNode(t, r, cfg.Return, "return 1;")
	ret2 := findNode(t, r, cfg.Return, "return 2;")
	ret0 := findNode(t, r, cfg.Return, "return 0;")

	assert.Equal(t, "1", head.EdgeLabels[ret1.ID])
	assert.Equal(t, "2", head.EdgeLabels[ret2.ID])
	assert.Equal(t, cfg.LabelDefault, head.EdgeLabels[ret0.ID])
	for _, n := range r.Nodes() {
		assert.NotEqual(t, cfg.Case, n.Kind)
		assert.NotEqual(t, cfg.Default, n.Kind)
	}
}

func TestSwitchFallThrough(t *testing.T) {
	res := buildOne(t, "int s(int x){int r=0; switch(x){case 1: r=1; case 2: r=2; break; default: r=9;} return r;}", LanguageC)
	r := routineByName(t, res, "s")

	head := findNode(t, r, cfg.SwitchHead, "x")
	a1 := findNode(t, r, cfg.Statement, "r=1;")
	a2 := findNode(t, r, cfg.Statement, "r=2;")
	brk := findNode(t, r, cfg.Break, "break;")
	ret := findNode(t, r, cfg.Return, "return r;")

	assert.Equal(t, "1", head.EdgeLabels[a1.ID])
	assert.Equal(t, "2", head.EdgeLabels[a2.ID])
	assert.True(t, hasEdge(r, a1.ID, a2.ID), "case 1 falls through into case 2")
	assert.True(t, hasEdge(r, a2.ID, brk.ID))
	assert.True(t, hasEdge(r, brk.ID, ret.ID), "break jumps past the switch")
}

func TestUpdateExpressionSelfChain(t *testing.T) {
	res := buildOne(t, "int u(){int a=0; a++; return a;}", LanguageC)
	r := routineByName(t, res, "u")
	decl := findNode(t, r, cfg.Statement, "int a=0;")
	inc := findNode(t, r, cfg.Statement, "a++;")
	assert.Equal(t, []string{"a"}, inc.Metadata.Defs)
	assert.Equal(t, []string{"a"}, inc.Metadata.Uses)

	chains, err := AnalyzeDefUse(context.Background(), res.Routines)
	require.NoError(t, err)
	var incDefs []int
	for _, c := range chains.UseDef {
		if c.Variable == "a" && c.UseNodeID == inc.ID {
			incDefs = c.DefNodeIDs
		}
	}
	assert.ElementsMatch(t, []int{decl.ID, inc.ID}, incDefs,
		"a++ chains to the prior def and to itself")
}

func TestUnreachableAfterReturnIsDropped(t *testing.T) {
	res := buildOne(t, "int f(){return 1; int dead=2;}", LanguageC)
	r := routineByName(t, res, "f")
	for _, n := range r.Nodes() {
		assert.NotContains(t, n.SourceText, "dead")
	}
	assert.NoError(t, cfg.CheckInvariants(r))
}

func TestGotoResolution(t *testing.T) {
	res := buildOne(t, "int f(int n){ if(n>0) goto done; n=1; done: return n;}", LanguageC)
	r := routineByName(t, res, "f")
	g := findNode(t, r, cfg.Goto, "goto done;")
	label := findNode(t, r, cfg.Label, "done")
	assert.True(t, hasEdge(r, g.ID, label.ID), "goto resolves to its label")
}

func TestNestedLoopBreak(t *testing.T) {
	source := `
int f(int n){
  int c=0;
  while(n>0){
    while(c<n){
      if(c>3) break;
      c=c+1;
    }
    n=n-1;
  }
  return c;
}
`
	res := buildOne(t, source, LanguageC)
	r := routineByName(t, res, "f")
	brk := findNode(t, r, cfg.Break, "break;")
	outerUpdate := findNode(t, r, cfg.Statement, "n=n-1;")
	require.Len(t, brk.Successors, 1)
	assert.Equal(t, outerUpdate.ID, brk.Successors[0],
		"break exits the inner loop only, landing where the inner loop exits")
}

func TestForLoop(t *testing.T) {
	res := buildOne(t, "int f(){int t=0; for(int i=0;i<3;i=i+1){if(i==1) continue; t=t+i;} return t;}", LanguageC)
	r := routineByName(t, res, "f")

	header := findNode(t, r, cfg.LoopHeader, "i<3")
	init := findNode(t, r, cfg.Statement, "int i=0")
	update := findNode(t, r, cfg.Statement, "i=i+1")
	body := findNode(t, r, cfg.Statement, "t=t+i;")
	cont := findNode(t, r, cfg.Continue, "continue;")

	assert.Equal(t, []string{"i"}, init.Metadata.Defs)
	assert.True(t, hasEdge(r, init.ID, header.ID), "init runs once, before the header")
	assert.True(t, hasEdge(r, body.ID, update.ID), "body flows into the update")
	assert.True(t, hasEdge(r, update.ID, header.ID), "update wires back to the header")
	require.Len(t, cont.Successors, 1)
	assert.Equal(t, update.ID, cont.Successors[0], "continue in a for loop targets the update")
}

func TestEmptyBodyRoutine(t *testing.T) {
	res := buildOne(t, "void f(){}", LanguageC)
	r := routineByName(t, res, "f")
	assert.Equal(t, 2, r.Len())
	assert.True(t, hasEdge(r, r.EntryIDs[0], r.ExitIDs[0]))
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
