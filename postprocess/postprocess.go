// Package postprocess normalizes freshly visited CFGs: it wires
// function-call/return edges across routines of one translation unit,
// compacts passthrough nodes (CASE, DEFAULT, PLACEHOLDER) while preserving
// the incoming edge labels, sweeps nodes unreachable from ENTRY, and checks
// the structural invariants. Goto resolution has already happened at
// routine finalization, inside visitor.BuildRoutine.
package postprocess

import (
	"context"

	"github.com/viant/cflow/cfg"
)

// Run post-processes every routine of a unit, in creation order. An
// invariant violation aborts with a cfg.InternalAssertionError: it signals
// a visitor bug, never a property of the input.
func Run(ctx context.Context, unit *cfg.Unit) error {
	wireCallEdges(unit)
	for _, r := range unit.Routines() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := compactPassthrough(r); err != nil {
			return err
		}
		sweepUnreachable(unit, r)
	}
	// Invariants are checked only after every routine is swept, because a
	// caller's sweep may remove call edges into a callee checked earlier.
	for _, r := range unit.Routines() {
		if err := cfg.CheckInvariants(r); err != nil {
			return err
		}
	}
	return nil
}

// wireCallEdges pairs each recorded call site with its callee's ENTRY/EXIT:
// call_site -> callee ENTRY labeled "function_call", callee EXIT -> the call
// site's return point labeled "function_return". A callee not defined in
// this translation unit is skipped silently; that is normal, not a warning.
func wireCallEdges(unit *cfg.Unit) {
	for _, r := range unit.Routines() {
		for _, call := range r.Calls {
			callee, ok := unit.RoutineByName(call.Callee)
			if !ok || len(callee.EntryIDs) == 0 || len(callee.ExitIDs) == 0 {
				continue
			}
			if !r.Owns(call.NodeID) || !r.Owns(call.ReturnID) {
				continue
			}
			// Errors cannot occur here: both endpoints were just resolved.
			_ = unit.AddEdge(call.NodeID, callee.EntryIDs[0], cfg.LabelFunctionCall)
			_ = unit.AddEdge(callee.ExitIDs[0], call.ReturnID, cfg.LabelFunctionReturn)
		}
	}
}

// compactPassthrough removes CASE, DEFAULT and PLACEHOLDER nodes, rewiring
// each predecessor to each successor (Cartesian product) with the
// predecessor's edge label carried over: a CASE node's in-edge holds the
// case value, which must survive onto the re-threaded edge.
func compactPassthrough(r *cfg.Routine) error {
	var passthrough []int
	for _, n := range r.Nodes() {
		switch n.Kind {
		case cfg.Case, cfg.Default, cfg.Placeholder:
			passthrough = append(passthrough, n.ID)
		}
	}
	for _, id := range passthrough {
		if err := r.RemoveNode(id); err != nil {
			return err
		}
	}
	return nil
}

// sweepUnreachable deletes every node not forward-reachable from ENTRY,
// with bidirectional (and cross-routine) edge cleanup. Code textually after
// an unconditional jump disappears here. LABEL nodes referenced by a
// resolved goto need no special case: the goto edge already exists, so any
// label a reachable goto points at is itself reachable.
func sweepUnreachable(unit *cfg.Unit, r *cfg.Routine) {
	reachable := map[int]bool{}
	queue := append([]int(nil), r.EntryIDs...)
	for _, id := range queue {
		reachable[id] = true
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		n, ok := r.Node(cur)
		if !ok {
			continue
		}
		for _, s := range n.Successors {
			if !r.Owns(s) {
				continue // call/return edges never make a sibling's nodes "ours"
			}
			if !reachable[s] {
				reachable[s] = true
				queue = append(queue, s)
			}
		}
	}
	var dead []int
	for _, n := range r.Nodes() {
		if !reachable[n.ID] {
			dead = append(dead, n.ID)
		}
	}
	for _, id := range dead {
		unit.DeleteNode(id)
	}
	if len(dead) > 0 {
		pruneCalls(r)
	}
}

// pruneCalls drops call records whose site was swept away, so the def-use
// builder never aliases through unreachable code.
func pruneCalls(r *cfg.Routine) {
	live := r.Calls[:0]
	for _, c := range r.Calls {
		if r.Owns(c.NodeID) {
			live = append(live, c)
		}
	}
	r.Calls = live
}
