package cfg

import "fmt"

// InternalAssertionError signals a post-processor invariant violation: a
// bug in a visitor, never expected on well-formed input.
type InternalAssertionError struct {
	Routine   string
	Invariant string
}

func (e *InternalAssertionError) Error() string {
	return fmt.Sprintf("cfg: internal assertion failed for routine %q: %s", e.Routine, e.Invariant)
}

// CheckInvariants validates the structural invariants required of a fully
// post-processed routine CFG. Edges labeled function_call/function_return
// cross routine boundaries (or re-enter a routine's own ENTRY for recursive
// calls) and are exempt from the ENTRY/EXIT degree rules.
func CheckInvariants(r *Routine) error {
	if len(r.EntryIDs) != 1 {
		return &InternalAssertionError{r.Name, fmt.Sprintf("expected exactly one ENTRY, got %d", len(r.EntryIDs))}
	}
	if len(r.ExitIDs) != 1 {
		return &InternalAssertionError{r.Name, fmt.Sprintf("expected exactly one EXIT, got %d", len(r.ExitIDs))}
	}
	entry, _ := r.Node(r.EntryIDs[0])
	if entry == nil {
		return &InternalAssertionError{r.Name, "ENTRY node missing"}
	}
	for p := range entry.Predecessors {
		pn, ok := r.Node(p)
		if !ok {
			continue // call edge from a sibling routine
		}
		if pn.EdgeLabels[entry.ID] != LabelFunctionCall {
			return &InternalAssertionError{r.Name, fmt.Sprintf("ENTRY has non-call predecessor %d", p)}
		}
	}
	exit, _ := r.Node(r.ExitIDs[0])
	if exit == nil {
		return &InternalAssertionError{r.Name, "EXIT node missing"}
	}
	for _, s := range exit.Successors {
		if !r.Owns(s) {
			continue // return edge into a caller routine
		}
		if exit.EdgeLabels[s] != LabelFunctionReturn {
			return &InternalAssertionError{r.Name, fmt.Sprintf("EXIT has non-return successor %d", s)}
		}
	}

	for _, n := range r.Nodes() {
		for _, s := range n.Successors {
			sn, ok := r.Node(s)
			if !ok {
				continue // cross-routine call/return edge
			}
			if !sn.Predecessors[n.ID] {
				return &InternalAssertionError{r.Name, fmt.Sprintf("edge %d->%d not mirrored in predecessors", n.ID, s)}
			}
		}
		for p := range n.Predecessors {
			pn, ok := r.Node(p)
			if !ok {
				continue
			}
			if !pn.hasSuccessor(n.ID) {
				return &InternalAssertionError{r.Name, fmt.Sprintf("predecessor %d of %d not mirrored in successors", p, n.ID)}
			}
		}
		switch n.Kind {
		case Case, Default, Placeholder:
			return &InternalAssertionError{r.Name, fmt.Sprintf("node %d of kind %s survived post-processing", n.ID, n.Kind)}
		}
		if err := checkEdgeLabels(r, n); err != nil {
			return err
		}
	}

	return checkReachability(r)
}

// checkEdgeLabels enforces that labels appear only where the data model
// defines them: true/false out of CONDITION/LOOP_HEADER, non-empty case
// labels out of SWITCH_HEAD (at most one "default"), and the call/return
// labels anywhere a call site demands them.
func checkEdgeLabels(r *Routine, n *Node) error {
	defaults := 0
	for succ, label := range n.EdgeLabels {
		if label == "" {
			continue
		}
		if label == LabelFunctionCall || label == LabelFunctionReturn {
			continue
		}
		switch n.Kind {
		case Condition, LoopHeader:
			if label != LabelTrue && label != LabelFalse {
				return &InternalAssertionError{r.Name, fmt.Sprintf("edge %d->%d of %s carries label %q", n.ID, succ, n.Kind, label)}
			}
		case SwitchHead:
			if label == LabelDefault {
				defaults++
			}
		default:
			return &InternalAssertionError{r.Name, fmt.Sprintf("edge %d->%d of %s carries unexpected label %q", n.ID, succ, n.Kind, label)}
		}
	}
	if defaults > 1 {
		return &InternalAssertionError{r.Name, fmt.Sprintf("SWITCH_HEAD %d has %d default edges", n.ID, defaults)}
	}
	return nil
}

func checkReachability(r *Routine) error {
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
				continue // never walk into a sibling routine
			}
			if !reachable[s] {
				reachable[s] = true
				queue = append(queue, s)
			}
		}
	}
	for _, n := range r.Nodes() {
		if !reachable[n.ID] {
			return &InternalAssertionError{r.Name, fmt.Sprintf("node %d unreachable from ENTRY after sweep", n.ID)}
		}
	}
	return nil
}
