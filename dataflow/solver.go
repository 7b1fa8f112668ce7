// Package dataflow implements a generic monotone forward dataflow solver:
// GEN/KILL transfer functions over a routine CFG, solved to a fixpoint with
// a FIFO worklist. The meet operator is set union, making every
// instantiation a may-analysis.
package dataflow

import (
	"context"

	"github.com/viant/cflow/cfg"
)

// Set is a fact set. Facts are opaque comparable values.
type Set[F comparable] map[F]struct{}

// NewSet builds a set from the given facts.
func NewSet[F comparable](facts ...F) Set[F] {
	s := make(Set[F], len(facts))
	for _, f := range facts {
		s[f] = struct{}{}
	}
	return s
}

// Add inserts a fact.
func (s Set[F]) Add(f F) { s[f] = struct{}{} }

// Has reports membership.
func (s Set[F]) Has(f F) bool {
	_, ok := s[f]
	return ok
}

// Equal reports whether two sets hold the same facts.
func (s Set[F]) Equal(other Set[F]) bool {
	if len(s) != len(other) {
		return false
	}
	for f := range s {
		if _, ok := other[f]; !ok {
			return false
		}
	}
	return true
}

// Problem parameterizes the solver: the initial fact set at
// ENTRY, the facts a node generates, and the facts it invalidates. Kill
// receives the node's in-set so instantiations can kill against the live
// fact universe instead of enumerating every fact that could ever exist.
type Problem[F comparable] interface {
	Top() Set[F]
	Gen(n *cfg.Node) Set[F]
	Kill(n *cfg.Node, in Set[F]) Set[F]
}

// Result carries the per-node in/out fact sets at the fixpoint.
type Result[F comparable] struct {
	In  map[int]Set[F]
	Out map[int]Set[F]
}

// SolveForward runs the worklist to a fixpoint over one routine:
//
//	in[n]  = union of out[p] over predecessors p
//	out[n] = gen(n) ∪ (in[n] ∖ kill(n, in[n]))
//
// Termination follows from the finite fact lattice and monotone transfer.
// Predecessors outside the routine (call/return edges) do not contribute:
// the fact universe stays intra-procedural.
func SolveForward[F comparable](ctx context.Context, r *cfg.Routine, p Problem[F]) (*Result[F], error) {
	res := &Result[F]{
		In:  map[int]Set[F]{},
		Out: map[int]Set[F]{},
	}
	nodes := r.Nodes()
	for _, n := range nodes {
		res.In[n.ID] = Set[F]{}
		res.Out[n.ID] = Set[F]{}
	}
	for _, id := range r.EntryIDs {
		res.Out[id] = p.Top()
	}

	queue := make([]int, 0, len(nodes))
	queued := make(map[int]bool, len(nodes))
	for _, n := range nodes {
		queue = append(queue, n.ID)
		queued[n.ID] = true
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := queue[0]
		queue = queue[1:]
		queued[id] = false
		n, ok := r.Node(id)
		if !ok {
			continue
		}

		in := Set[F]{}
		for pred := range n.Predecessors {
			for f := range res.Out[pred] {
				in.Add(f)
			}
		}
		res.In[id] = in

		out := Set[F]{}
		kill := p.Kill(n, in)
		for f := range in {
			if !kill.Has(f) {
				out.Add(f)
			}
		}
		for f := range p.Gen(n) {
			out.Add(f)
		}

		if out.Equal(res.Out[id]) {
			continue
		}
		res.Out[id] = out
		for _, s := range n.Successors {
			if !r.Owns(s) {
				continue
			}
			if !queued[s] {
				queued[s] = true
				queue = append(queue, s)
			}
		}
	}
	return res, nil
}
