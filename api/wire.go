package api

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/viant/cflow/cfg"
)

// The wire shape below is fixed by the downstream graph frontend; field
// names and label strings are bit-exact.

// RoutineGraph is the serialized form of one routine CFG.
type RoutineGraph struct {
	FunctionName *string               `json:"function_name"`
	EntryNodeIDs []int                 `json:"entry_node_ids"`
	ExitNodeIDs  []int                 `json:"exit_node_ids"`
	Nodes        map[string]*GraphNode `json:"nodes"`
}

// GraphNode is the serialized form of one CFG node.
type GraphNode struct {
	ID           int               `json:"id"`
	NodeType     string            `json:"node_type"`
	SourceText   string            `json:"source_text"`
	StartIndex   *int              `json:"start_index"`
	EndIndex     *int              `json:"end_index"`
	Successors   []int             `json:"successors"`
	Predecessors []int             `json:"predecessors"`
	EdgeLabels   map[string]string `json:"edge_labels"`
	Metadata     NodeMetadata      `json:"metadata"`
}

// NodeMetadata is the serialized identifier metadata of one node.
type NodeMetadata struct {
	FunctionCalls       []string `json:"function_calls"`
	VariableDefinitions []string `json:"variable_definitions"`
	VariableUses        []string `json:"variable_uses"`
}

// DefUseChain is the serialized "definition reaches uses" relation.
type DefUseChain struct {
	Variable   string `json:"variable"`
	DefNodeID  int    `json:"def_node_id"`
	UseNodeIDs []int  `json:"use_node_ids"`
}

// UseDefChain is the serialized inverse relation.
type UseDefChain struct {
	Variable   string `json:"variable"`
	UseNodeID  int    `json:"use_node_id"`
	DefNodeIDs []int  `json:"def_node_ids"`
}

// BuildPayload is the process-boundary response of BuildCFGs.
type BuildPayload struct {
	Routines []*RoutineGraph `json:"routines"`
	Warnings []string        `json:"warnings"`
}

// DefUsePayload is the process-boundary response of AnalyzeDefUse.
type DefUsePayload struct {
	Chains []*DefUseChain `json:"chains"`
	UseDef []*UseDefChain `json:"use_def"`
}

// Payload flattens a BuildResult into its wire shape.
func (b *BuildResult) Payload() *BuildPayload {
	p := &BuildPayload{Warnings: b.Warnings}
	if p.Warnings == nil {
		p.Warnings = []string{}
	}
	for _, r := range b.Routines {
		p.Routines = append(p.Routines, ExportRoutine(r))
	}
	return p
}

// Payload flattens a DefUseResult into its wire shape.
func (d *DefUseResult) Payload() *DefUsePayload {
	p := &DefUsePayload{Chains: d.Chains, UseDef: d.UseDef}
	if p.Chains == nil {
		p.Chains = []*DefUseChain{}
	}
	if p.UseDef == nil {
		p.UseDef = []*UseDefChain{}
	}
	return p
}

// ExportRoutine flattens one routine CFG into its wire shape.
func ExportRoutine(r *cfg.Routine) *RoutineGraph {
	g := &RoutineGraph{
		EntryNodeIDs: append([]int{}, r.EntryIDs...),
		ExitNodeIDs:  append([]int{}, r.ExitIDs...),
		Nodes:        map[string]*GraphNode{},
	}
	if r.Name != "" {
		name := r.Name
		g.FunctionName = &name
	}
	for _, n := range r.Nodes() {
		preds := make([]int, 0, len(n.Predecessors))
		for p := range n.Predecessors {
			preds = append(preds, p)
		}
		sort.Ints(preds)
		labels := map[string]string{}
		for succ, label := range n.EdgeLabels {
			labels[strconv.Itoa(succ)] = label
		}
		g.Nodes[strconv.Itoa(n.ID)] = &GraphNode{
			ID:           n.ID,
			NodeType:     n.Kind.String(),
			SourceText:   n.SourceText,
			StartIndex:   n.StartByte,
			EndIndex:     n.EndByte,
			Successors:   append([]int{}, n.Successors...),
			Predecessors: preds,
			EdgeLabels:   labels,
			Metadata: NodeMetadata{
				FunctionCalls:       emptyIfNil(n.Metadata.Calls),
				VariableDefinitions: emptyIfNil(n.Metadata.Defs),
				VariableUses:        emptyIfNil(n.Metadata.Uses),
			},
		}
	}
	return g
}

// ImportRoutine rebuilds a routine CFG from its wire shape. Node ids are
// renumbered in ascending original order; the resulting graph is
// isomorphic to the exported one. Edges whose target lies outside the
// routine (cross-routine call/return edges) are dropped; they belong to
// the unit, not to a single routine's serialization.
func ImportRoutine(g *RoutineGraph) (*cfg.Routine, error) {
	name := ""
	if g.FunctionName != nil {
		name = *g.FunctionName
	}
	r := cfg.NewRoutine(name)

	oldIDs := make([]int, 0, len(g.Nodes))
	for key := range g.Nodes {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("api: node key %q is not an integer: %w", key, err)
		}
		oldIDs = append(oldIDs, id)
	}
	sort.Ints(oldIDs)

	remap := make(map[int]int, len(oldIDs))
	for _, old := range oldIDs {
		gn := g.Nodes[strconv.Itoa(old)]
		kind, ok := cfg.KindFromString(gn.NodeType)
		if !ok {
			return nil, fmt.Errorf("api: unknown node type %q", gn.NodeType)
		}
		id := r.NewNode(kind, gn.SourceText, gn.StartIndex, gn.EndIndex)
		if n, found := r.Node(id); found {
			n.Metadata = cfg.Metadata{
				Calls: append([]string(nil), gn.Metadata.FunctionCalls...),
				Defs:  append([]string(nil), gn.Metadata.VariableDefinitions...),
				Uses:  append([]string(nil), gn.Metadata.VariableUses...),
			}
		}
		remap[old] = id
	}
	for _, old := range oldIDs {
		gn := g.Nodes[strconv.Itoa(old)]
		for _, succ := range gn.Successors {
			to, inRoutine := remap[succ]
			if !inRoutine {
				continue
			}
			if err := r.AddEdge(remap[old], to, gn.EdgeLabels[strconv.Itoa(succ)]); err != nil {
				return nil, err
			}
		}
	}
	for _, id := range g.EntryNodeIDs {
		if mapped, ok := remap[id]; ok {
			r.EntryIDs = append(r.EntryIDs, mapped)
		}
	}
	for _, id := range g.ExitNodeIDs {
		if mapped, ok := remap[id]; ok {
			r.ExitIDs = append(r.ExitIDs, mapped)
		}
	}
	return r, nil
}

func emptyIfNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
