package cfg

import "fmt"

// Call is one call touch-point recorded during visitation: the statement
// node holding the call, the synthetic return point that immediately follows
// it, the textual callee name, and the textual argument identifiers (empty
// string for an argument that is not a bare identifier). The post-processor
// turns these into function_call/function_return edges; the def-use builder
// turns Args into parameter aliases.
type Call struct {
	NodeID   int
	ReturnID int
	Callee   string
	Args     []string
}

// Routine is the per-function/method control-flow graph, plus the
// identifier-level metadata the def-use builder needs.
type Routine struct {
	Name       string
	Parameters []string
	EntryIDs   []int
	ExitIDs    []int
	// Calls accumulates the routine's call sites in visitation order.
	Calls []Call

	unit   *Unit
	nodes  map[int]*Node
	order  []int // insertion order, for deterministic iteration/marshaling
	nextID int
}

// NewRoutine creates a standalone routine CFG with its own id allocator.
// Routines that take part in call-edge wiring are created through
// Unit.NewRoutine instead, so they share the unit's allocator.
func NewRoutine(name string) *Routine {
	return &Routine{
		Name:  name,
		nodes: map[int]*Node{},
	}
}

// Nodes returns the routine's nodes in insertion order.
func (r *Routine) Nodes() []*Node {
	out := make([]*Node, 0, len(r.order))
	for _, id := range r.order {
		if n, ok := r.nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Node looks up a node by id within this routine.
func (r *Routine) Node(id int) (*Node, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

// Owns reports whether id belongs to this routine (as opposed to a sibling
// routine of the same unit, reachable only via call/return edges).
func (r *Routine) Owns(id int) bool {
	_, ok := r.nodes[id]
	return ok
}

// Len returns the number of live nodes.
func (r *Routine) Len() int { return len(r.order) }

// NewNode allocates a fresh node id (monotone, unit-wide when the routine
// belongs to a Unit) and registers the node.
func (r *Routine) NewNode(kind NodeKind, text string, start, end *int) int {
	var id int
	if r.unit != nil {
		id = r.unit.allocateID(r)
	} else {
		id = r.nextID
		r.nextID++
	}
	n := newNode(id, kind, text, start, end)
	r.nodes[id] = n
	r.order = append(r.order, id)
	return id
}

// lookup resolves a node id against this routine first, then against the
// owning unit, so edge mutations work across routine boundaries (call and
// return edges) without a separate code path.
func (r *Routine) lookup(id int) (*Node, bool) {
	if n, ok := r.nodes[id]; ok {
		return n, true
	}
	if r.unit != nil {
		n, _, ok := r.unit.Node(id)
		return n, ok
	}
	return nil, false
}

// AddEdge connects from->to with an optional label. Maintains bidirectional
// predecessor/successor consistency. No-op if the edge already exists.
func (r *Routine) AddEdge(from, to int, label string) error {
	fn, ok := r.lookup(from)
	if !ok {
		return errUnknownNode("add edge from", from)
	}
	tn, ok := r.lookup(to)
	if !ok {
		return errUnknownNode("add edge to", to)
	}
	if fn.hasSuccessor(to) {
		if label != "" {
			fn.EdgeLabels[to] = label
		}
		return nil
	}
	fn.Successors = append(fn.Successors, to)
	if label != "" {
		fn.EdgeLabels[to] = label
	}
	tn.Predecessors[from] = true
	return nil
}

// ReplaceTarget rewires the edge from->oldTo to from->newTo, preserving the
// edge's label and its position in Successors.
func (r *Routine) ReplaceTarget(from, oldTo, newTo int) error {
	fn, ok := r.lookup(from)
	if !ok {
		return errUnknownNode("replace target on", from)
	}
	if _, ok := r.lookup(newTo); !ok {
		return errUnknownNode("replace target to", newTo)
	}
	label := fn.EdgeLabels[oldTo]
	found := false
	for i, s := range fn.Successors {
		if s == oldTo {
			fn.Successors[i] = newTo
			found = true
			break
		}
	}
	if !found {
		return nil
	}
	delete(fn.EdgeLabels, oldTo)
	if label != "" {
		fn.EdgeLabels[newTo] = label
	}
	if old, ok := r.lookup(oldTo); ok {
		delete(old.Predecessors, from)
	}
	if repl, ok := r.lookup(newTo); ok {
		repl.Predecessors[from] = true
	}
	return nil
}

// RemoveNode deletes a node, re-threading each predecessor to each successor
// (Cartesian product), preserving successor order. The re-threaded edge
// carries the predecessor's own edge label, never the removed node's: a CASE
// node's in-edge holds the case value, and that value must survive the CASE
// node's compaction.
func (r *Routine) RemoveNode(id int) error {
	n, ok := r.nodes[id]
	if !ok {
		return errUnknownNode("remove", id)
	}
	preds := make([]int, 0, len(n.Predecessors))
	for p := range n.Predecessors {
		preds = append(preds, p)
	}
	succs := append([]int(nil), n.Successors...)

	for _, p := range preds {
		pn, ok := r.lookup(p)
		if !ok {
			continue
		}
		predLabel := pn.EdgeLabels[id]
		pn.removeSuccessor(id)
		for _, s := range succs {
			if s == id {
				continue
			}
			if pn.hasSuccessor(s) {
				continue
			}
			pn.Successors = append(pn.Successors, s)
			if predLabel != "" {
				pn.EdgeLabels[s] = predLabel
			}
			if sn, ok := r.lookup(s); ok {
				sn.Predecessors[p] = true
			}
		}
	}
	for _, s := range succs {
		if sn, ok := r.lookup(s); ok {
			delete(sn.Predecessors, id)
		}
	}
	r.dropNode(id)
	return nil
}

// dropNode removes the node from the routine's bookkeeping without touching
// edges; callers must have unlinked it first.
func (r *Routine) dropNode(id int) {
	delete(r.nodes, id)
	if r.unit != nil {
		delete(r.unit.owner, id)
	}
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	removeID(&r.EntryIDs, id)
	removeID(&r.ExitIDs, id)
}

func removeID(ids *[]int, remove int) {
	out := (*ids)[:0]
	for _, v := range *ids {
		if v != remove {
			out = append(out, v)
		}
	}
	*ids = out
}

func errUnknownNode(op string, id int) error {
	return fmt.Errorf("cfg: %s unknown node %d", op, id)
}
