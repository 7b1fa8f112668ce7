// Package defuse layers def-use and use-def chain extraction on top of the
// dataflow solver: a Reaching Definitions instantiation, the
// update-expression self-chain rule, and direct inter-procedural
// argument-to-parameter aliasing across call sites of the same translation
// unit.
package defuse

import (
	"context"
	"sort"

	"github.com/viant/cflow/cfg"
	"github.com/viant/cflow/dataflow"
)

// Fact is one reaching definition: variable v as defined at node DefNode.
type Fact struct {
	Variable string
	DefNode  int
}

// DefUseChain states that the definition of Variable at DefNode reaches the
// uses at UseNodes.
type DefUseChain struct {
	Variable string
	DefNode  int
	UseNodes []int
}

// UseDefChain is the inverse relation: the use of Variable at UseNode may
// observe any of the definitions at DefNodes.
type UseDefChain struct {
	Variable string
	UseNode  int
	DefNodes []int
}

// Result holds both chain directions for a set of routines.
type Result struct {
	DefUse []DefUseChain
	UseDef []UseDefChain
}

// reaching instantiates the solver for Reaching Definitions: gen produces
// (v, n) for each def at n, kill removes every other definition of the same
// variables. Parameters already appear as defs on the ENTRY node, so no
// special entry handling is needed here.
type reaching struct{}

func (reaching) Top() dataflow.Set[Fact] { return dataflow.Set[Fact]{} }

func (reaching) Gen(n *cfg.Node) dataflow.Set[Fact] {
	gen := dataflow.Set[Fact]{}
	for _, v := range n.Metadata.Defs {
		gen.Add(Fact{Variable: v, DefNode: n.ID})
	}
	return gen
}

func (reaching) Kill(n *cfg.Node, in dataflow.Set[Fact]) dataflow.Set[Fact] {
	if len(n.Metadata.Defs) == 0 {
		return nil
	}
	defs := map[string]bool{}
	for _, v := range n.Metadata.Defs {
		defs[v] = true
	}
	kill := dataflow.Set[Fact]{}
	for f := range in {
		if defs[f.Variable] && f.DefNode != n.ID {
			kill.Add(f)
		}
	}
	return kill
}

// Analyze computes def-use and use-def chains for every routine. Routines
// from the same translation unit should be passed together so parameter
// aliases resolve across their call sites; a call to a routine not in the
// slice simply contributes no aliases.
func Analyze(ctx context.Context, routines []*cfg.Routine) (*Result, error) {
	solved := make(map[*cfg.Routine]*dataflow.Result[Fact], len(routines))
	for _, r := range routines {
		res, err := dataflow.SolveForward[Fact](ctx, r, reaching{})
		if err != nil {
			return nil, err
		}
		solved[r] = res
	}

	byName := map[string]*cfg.Routine{}
	for _, r := range routines {
		if r.Name != "" {
			byName[r.Name] = r
		}
	}

	c := &collector{
		defUse: map[Fact][]int{},
	}
	for _, r := range routines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.collectRoutine(r, solved, byName, routines)
	}
	return c.result(), nil
}

type collector struct {
	defUse   map[Fact][]int
	defOrder []Fact
	useDef   []UseDefChain
}

func (c *collector) collectRoutine(r *cfg.Routine, solved map[*cfg.Routine]*dataflow.Result[Fact], byName map[string]*cfg.Routine, routines []*cfg.Routine) {
	in := solved[r].In
	paramIndex := map[string]int{}
	for i, p := range r.Parameters {
		paramIndex[p] = i
	}

	for _, n := range r.Nodes() {
		for _, v := range n.Metadata.Uses {
			defs := map[int]bool{}
			// Uses are evaluated against in[n], before gen(n) applies, so
			// `x++` sees every prior definition of x ...
			for f := range in[n.ID] {
				if f.Variable == v {
					defs[f.DefNode] = true
				}
			}
			// ... and, being a def itself, also chains to itself.
			for _, d := range n.Metadata.Defs {
				if d == v {
					defs[n.ID] = true
					break
				}
			}
			// Parameter alias: a use of parameter k also observes whatever
			// reaches the k-th argument at every call site targeting this
			// routine.
			if k, isParam := paramIndex[v]; isParam {
				c.addParameterAliases(r, k, defs, solved, byName, routines)
			}
			c.record(v, n.ID, defs)
		}
	}
}

func (c *collector) addParameterAliases(callee *cfg.Routine, k int, defs map[int]bool, solved map[*cfg.Routine]*dataflow.Result[Fact], byName map[string]*cfg.Routine, routines []*cfg.Routine) {
	for _, caller := range routines {
		for _, call := range caller.Calls {
			if byName[call.Callee] != callee {
				continue
			}
			// Arity mismatches are tolerated: a missing argument simply
			// contributes no aliases.
			if k >= len(call.Args) || call.Args[k] == "" {
				continue
			}
			callerIn := solved[caller].In
			for f := range callerIn[call.NodeID] {
				if f.Variable == call.Args[k] {
					defs[f.DefNode] = true
				}
			}
		}
	}
}

func (c *collector) record(variable string, useNode int, defs map[int]bool) {
	if len(defs) == 0 {
		return
	}
	defIDs := make([]int, 0, len(defs))
	for d := range defs {
		defIDs = append(defIDs, d)
	}
	sort.Ints(defIDs)
	c.useDef = append(c.useDef, UseDefChain{Variable: variable, UseNode: useNode, DefNodes: defIDs})
	for _, d := range defIDs {
		key := Fact{Variable: variable, DefNode: d}
		if _, seen := c.defUse[key]; !seen {
			c.defOrder = append(c.defOrder, key)
		}
		c.defUse[key] = append(c.defUse[key], useNode)
	}
}

func (c *collector) result() *Result {
	res := &Result{}
	keys := append([]Fact(nil), c.defOrder...)
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].DefNode != keys[j].DefNode {
			return keys[i].DefNode < keys[j].DefNode
		}
		return keys[i].Variable < keys[j].Variable
	})
	for _, key := range keys {
		uses := c.defUse[key]
		sort.Ints(uses)
		uses = dedupInts(uses)
		res.DefUse = append(res.DefUse, DefUseChain{
			Variable: key.Variable,
			DefNode:  key.DefNode,
			UseNodes: uses,
		})
	}
	res.UseDef = c.useDef
	return res
}

func dedupInts(xs []int) []int {
	out := xs[:0]
	for i, x := range xs {
		if i == 0 || xs[i-1] != x {
			out = append(out, x)
		}
	}
	return out
}
