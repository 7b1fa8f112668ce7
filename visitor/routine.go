package visitor

import (
	"fmt"

	"github.com/viant/cflow/cfg"
)

// BuildRoutine drives one routine's traversal end to end: it allocates the
// ENTRY/EXIT nodes, hands the routine's body off to bodyFn for traversal,
// chains the body onto ENTRY and EXIT, and resolves every pending goto
// against the label table. bodyFn receives the Visitor so it can use
// Visit/VisitSequence/the combinators.
func BuildRoutine(v *Visitor, bodyFn func(v *Visitor) (Fragment, error)) error {
	r := v.routine
	entry := v.NewSyntheticNode(cfg.Entry, r.Name)
	exit := v.NewSyntheticNode(cfg.Exit, r.Name)
	r.EntryIDs = []int{entry}
	r.ExitIDs = []int{exit}
	// Parameters are definitions live at routine entry.
	if en, ok := r.Node(entry); ok {
		for _, p := range r.Parameters {
			en.Metadata.AddDef(p)
		}
	}

	body, err := bodyFn(v)
	if err != nil {
		return err
	}

	entryFrag := Fragment{EntryID: entry, ExitIDs: []int{entry}}
	chained, err := v.Chain(entryFrag, body)
	if err != nil {
		return err
	}
	for _, openExit := range chained.ExitIDs {
		if err := v.routine.AddEdge(openExit, exit, ""); err != nil {
			return err
		}
	}

	return v.resolvePendingGotos(exit)
}

// resolvePendingGotos rewires every GOTO node recorded during traversal to
// its label's node, using ReplaceTarget so any label already wired to a
// placeholder fall-through keeps that edge's position and label. A goto
// whose label was never registered is a structural warning, not a fatal
// error: the routine still produces a usable, if incomplete, graph, and the
// goto is left pointing at EXIT so no dangling edge exists.
func (v *Visitor) resolvePendingGotos(fallbackExit int) error {
	for _, pg := range v.pendingGotos {
		target, ok := v.labelTable[pg.Label]
		if !ok {
			v.Warn("goto references undefined label %q", pg.Label)
			target = fallbackExit
		}
		n, found := v.routine.Node(pg.GotoNodeID)
		if !found {
			return fmt.Errorf("visitor: goto node %d not found", pg.GotoNodeID)
		}
		if len(n.Successors) == 0 {
			if err := v.routine.AddEdge(pg.GotoNodeID, target, ""); err != nil {
				return err
			}
			continue
		}
		if err := v.routine.ReplaceTarget(pg.GotoNodeID, n.Successors[0], target); err != nil {
			return err
		}
	}
	return nil
}
