// Package visitor implements the dispatch-by-node-kind traversal framework:
// monotone id allocation, scoped break/continue/switch/label contexts, and
// the fragment combinators language visitors compose CFGs from. Dispatch is
// an open per-language handler table, so new node kinds register without
// touching the framework.
package visitor

import "github.com/viant/cflow/cfg"

// Fragment is a partial CFG with one entry point and a set of still-open
// exit points. An empty ExitIDs models code that falls off the end
// unreachably (after return/break/continue).
type Fragment struct {
	EntryID int
	ExitIDs []int
}

// IsZero reports whether f is the zero Fragment, produced by visiting an
// empty statement list or an invalid node. Node id 0 is always a routine's
// first ENTRY, which no handler ever returns as a fragment entry.
func (f Fragment) IsZero() bool {
	return f.EntryID == 0 && len(f.ExitIDs) == 0
}

// EnsureFragment returns f unchanged, or a placeholder-backed fragment when
// f is the zero Fragment, so combinators that wire edges into a fragment's
// entry (Branch, Loop, switch chaining) always have a real node to target.
// The placeholder compacts away in post-processing.
func (v *Visitor) EnsureFragment(f Fragment) Fragment {
	if !f.IsZero() {
		return f
	}
	id := v.NewSyntheticNode(cfg.Placeholder, "")
	return Fragment{EntryID: id, ExitIDs: []int{id}}
}

// Chain connects every exit of a into the entry of b. If a.ExitIDs is empty,
// b is still emitted (its nodes exist in the graph) but left disconnected
// from a; this models code textually following an unconditional jump,
// which the post-processing reachability sweep later drops.
func (v *Visitor) Chain(a, b Fragment) (Fragment, error) {
	if a.IsZero() {
		// e.g. an empty statement list, so b stands alone.
		return b, nil
	}
	if b.IsZero() {
		return a, nil
	}
	for _, exit := range a.ExitIDs {
		if err := v.routine.AddEdge(exit, b.EntryID, ""); err != nil {
			return Fragment{}, err
		}
	}
	return Fragment{EntryID: a.EntryID, ExitIDs: b.ExitIDs}, nil
}

// ChainAll folds Chain over a sequence of fragments, the combinator behind
// sequential composition (compound/block statements).
func (v *Visitor) ChainAll(frags ...Fragment) (Fragment, error) {
	if len(frags) == 0 {
		return Fragment{}, nil
	}
	acc := frags[0]
	var err error
	for _, f := range frags[1:] {
		acc, err = v.Chain(acc, f)
		if err != nil {
			return Fragment{}, err
		}
	}
	return acc, nil
}

// Branch wires a CONDITION node to a then/else pair: true-labeled edge to
// thenFrag's entry, false-labeled edge to elseFrag's entry. An if without an
// else passes a placeholder as elseFrag, so the false edge reaches the join
// once the placeholder compacts away. The combined fragment's exits are the
// union of both branches' exits.
func (v *Visitor) Branch(condID int, thenFrag, elseFrag Fragment) (Fragment, error) {
	if err := v.routine.AddEdge(condID, thenFrag.EntryID, cfg.LabelTrue); err != nil {
		return Fragment{}, err
	}
	if err := v.routine.AddEdge(condID, elseFrag.EntryID, cfg.LabelFalse); err != nil {
		return Fragment{}, err
	}
	exits := append([]int{}, thenFrag.ExitIDs...)
	exits = append(exits, elseFrag.ExitIDs...)
	return Fragment{EntryID: condID, ExitIDs: exits}, nil
}

// Loop wires a LOOP_HEADER node to a body fragment and back, modeling
// while/for/do-while uniformly: a true-labeled edge from
// the header into the body, the body's open exits routed back to the
// header (the implicit continue target), and a false-labeled edge from the
// header to exitID, which becomes the combined fragment's sole open exit,
// exactly like Branch, so callers Chain whatever follows the loop onto it
// the same way they would any other fragment.
//
// exitID must be allocated by the caller BEFORE visiting the loop body and
// pushed as the loop's break target (PushLoop), since a break_statement
// inside the body needs to resolve InnermostBreakTarget() while the body is
// still being visited. The header-to-exit edge itself is only wired here,
// once the body fragment exists.
func (v *Visitor) Loop(headerID int, bodyFrag Fragment, exitID int) (Fragment, error) {
	if err := v.routine.AddEdge(headerID, bodyFrag.EntryID, cfg.LabelTrue); err != nil {
		return Fragment{}, err
	}
	for _, exit := range bodyFrag.ExitIDs {
		if err := v.routine.AddEdge(exit, headerID, ""); err != nil {
			return Fragment{}, err
		}
	}
	if err := v.routine.AddEdge(headerID, exitID, cfg.LabelFalse); err != nil {
		return Fragment{}, err
	}
	return Fragment{EntryID: headerID, ExitIDs: []int{exitID}}, nil
}
