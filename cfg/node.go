package cfg

// Metadata holds the identifier sets a node contributes to dataflow: the
// variables it defines, the variables it uses, and the call targets it
// textually invokes.
type Metadata struct {
	Defs  []string
	Uses  []string
	Calls []string
}

// AddDef records a defined identifier, deduplicating.
func (m *Metadata) AddDef(name string) {
	if name == "" || containsString(m.Defs, name) {
		return
	}
	m.Defs = append(m.Defs, name)
}

// AddUse records a used identifier, deduplicating.
func (m *Metadata) AddUse(name string) {
	if name == "" || containsString(m.Uses, name) {
		return
	}
	m.Uses = append(m.Uses, name)
}

// AddCall records a call-target name, deduplicating.
func (m *Metadata) AddCall(name string) {
	if name == "" || containsString(m.Calls, name) {
		return
	}
	m.Calls = append(m.Calls, name)
}

func containsString(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// Node is one program point in a routine's CFG. Identifiers are unique
// within the owning Routine; routines created through a Unit share its
// allocator, so their identifiers are unique across the whole unit.
type Node struct {
	ID         int
	Kind       NodeKind
	SourceText string
	// StartByte/EndByte are nil for synthetic nodes (ENTRY/EXIT placeholders
	// created without a backing AST node).
	StartByte *int
	EndByte   *int

	Successors   []int          // ordered, insertion order preserved
	Predecessors map[int]bool   // set semantics; order does not matter
	EdgeLabels   map[int]string // successor id -> label

	Metadata Metadata
}

func newNode(id int, kind NodeKind, text string, start, end *int) *Node {
	return &Node{
		ID:           id,
		Kind:         kind,
		SourceText:   text,
		StartByte:    start,
		EndByte:      end,
		Predecessors: map[int]bool{},
		EdgeLabels:   map[int]string{},
	}
}

func (n *Node) hasSuccessor(to int) bool {
	for _, s := range n.Successors {
		if s == to {
			return true
		}
	}
	return false
}

func (n *Node) removeSuccessor(to int) {
	out := n.Successors[:0]
	for _, s := range n.Successors {
		if s != to {
			out = append(out, s)
		}
	}
	n.Successors = out
	delete(n.EdgeLabels, to)
}
