package common

import (
	"github.com/viant/cflow/cfg"
	"github.com/viant/cflow/syntax"
	"github.com/viant/cflow/visitor"
)

// The structural patterns C and Java share verbatim: conditional, while,
// do-while and for. The switch forms differ enough per grammar that each
// language visitor keeps its own.

// StatementFragment wraps a bare expression node (a for-init, a for-update,
// an arrow-case expression) as a single STATEMENT fragment with full
// def/use/call classification.
func StatementFragment(vi *visitor.Visitor, n syntax.Node) (visitor.Fragment, error) {
	id := vi.NewNode(cfg.Statement, n)
	var md cfg.Metadata
	DescribeExpressionStatement(n, &md)
	vi.SetMetadata(id, md)
	return vi.LeafFragment(id, md, CallRefs(n))
}

// BuildIf emits the conditional pattern: a CONDITION node with a
// true-labeled edge to the then-branch and a false-labeled edge to the
// else-branch, or to a join placeholder when there is no else.
func BuildIf(vi *visitor.Visitor, cond, conseq, alt syntax.Node) (visitor.Fragment, error) {
	if !cond.IsValid() {
		vi.Warn("if statement missing its condition")
		return vi.EnsureFragment(visitor.Fragment{}), nil
	}
	cond = Unparen(cond)
	condID := vi.NewNode(cfg.Condition, cond)
	var md cfg.Metadata
	DescribeCondition(cond, &md)
	vi.SetMetadata(condID, md)

	thenFrag, err := vi.Visit(conseq)
	if err != nil {
		return visitor.Fragment{}, err
	}
	thenFrag = vi.EnsureFragment(thenFrag)

	var elseFrag visitor.Fragment
	if alt.IsValid() {
		elseFrag, err = vi.Visit(alt)
		if err != nil {
			return visitor.Fragment{}, err
		}
		elseFrag = vi.EnsureFragment(elseFrag)
	} else {
		// No else branch: the false edge leads to the join, modeled as a
		// placeholder the post-processor compacts away.
		joinID := vi.NewSyntheticNode(cfg.Placeholder, "")
		elseFrag = visitor.Fragment{EntryID: joinID, ExitIDs: []int{joinID}}
	}
	return vi.Branch(condID, thenFrag, elseFrag)
}

// BuildWhile emits the while pattern: LOOP_HEADER over the condition, body
// exits routed back to the header, false edge to the loop exit.
func BuildWhile(vi *visitor.Visitor, cond, body syntax.Node) (visitor.Fragment, error) {
	if !cond.IsValid() {
		vi.Warn("while statement missing its condition")
		return vi.EnsureFragment(visitor.Fragment{}), nil
	}
	cond = Unparen(cond)
	headerID := vi.NewNode(cfg.LoopHeader, cond)
	var md cfg.Metadata
	DescribeCondition(cond, &md)
	vi.SetMetadata(headerID, md)

	exitID := vi.NewSyntheticNode(cfg.Placeholder, "")
	vi.PushLoop(headerID, exitID)
	bodyFrag, err := vi.Visit(body)
	vi.PopLoop()
	if err != nil {
		return visitor.Fragment{}, err
	}
	return vi.Loop(headerID, vi.EnsureFragment(bodyFrag), exitID)
}

// BuildDoWhile emits the do-while pattern: body first, LOOP_HEADER after it
// with a true edge back to the body entry and a false edge out. Continue
// targets the header, break targets the exit.
func BuildDoWhile(vi *visitor.Visitor, body, cond syntax.Node) (visitor.Fragment, error) {
	if !cond.IsValid() {
		vi.Warn("do statement missing its condition")
		return vi.EnsureFragment(visitor.Fragment{}), nil
	}
	cond = Unparen(cond)
	headerID := vi.NewNode(cfg.LoopHeader, cond)
	var md cfg.Metadata
	DescribeCondition(cond, &md)
	vi.SetMetadata(headerID, md)

	exitID := vi.NewSyntheticNode(cfg.Placeholder, "")
	vi.PushLoop(headerID, exitID)
	bodyFrag, err := vi.Visit(body)
	vi.PopLoop()
	if err != nil {
		return visitor.Fragment{}, err
	}
	bodyFrag = vi.EnsureFragment(bodyFrag)

	r := vi.Routine()
	for _, exit := range bodyFrag.ExitIDs {
		if err := r.AddEdge(exit, headerID, ""); err != nil {
			return visitor.Fragment{}, err
		}
	}
	if err := r.AddEdge(headerID, bodyFrag.EntryID, cfg.LabelTrue); err != nil {
		return visitor.Fragment{}, err
	}
	if err := r.AddEdge(headerID, exitID, cfg.LabelFalse); err != nil {
		return visitor.Fragment{}, err
	}
	return visitor.Fragment{EntryID: bodyFrag.EntryID, ExitIDs: []int{exitID}}, nil
}

// BuildFor emits the for pattern: init fragment, LOOP_HEADER over the
// condition, body, per-iteration update, back-edge from the update to the
// header. Continue inside the body targets the update (when present), break
// targets the loop exit. A missing condition (`for(;;)`) still yields a
// LOOP_HEADER so the loop keeps its uniform two-way shape.
func BuildFor(vi *visitor.Visitor, init, cond, update, body syntax.Node) (visitor.Fragment, error) {
	cond = Unparen(cond)
	headerID := vi.NewNode(cfg.LoopHeader, cond)
	var md cfg.Metadata
	DescribeCondition(cond, &md)
	vi.SetMetadata(headerID, md)

	exitID := vi.NewSyntheticNode(cfg.Placeholder, "")

	var updFrag visitor.Fragment
	continueTarget := headerID
	if update.IsValid() {
		f, err := StatementFragment(vi, update)
		if err != nil {
			return visitor.Fragment{}, err
		}
		updFrag = f
		continueTarget = f.EntryID
	}

	vi.PushLoop(continueTarget, exitID)
	bodyFrag, err := vi.Visit(body)
	vi.PopLoop()
	if err != nil {
		return visitor.Fragment{}, err
	}
	bodyFrag = vi.EnsureFragment(bodyFrag)

	if update.IsValid() {
		bodyFrag, err = vi.Chain(bodyFrag, updFrag)
		if err != nil {
			return visitor.Fragment{}, err
		}
	}
	loopFrag, err := vi.Loop(headerID, bodyFrag, exitID)
	if err != nil {
		return visitor.Fragment{}, err
	}

	if !init.IsValid() {
		return loopFrag, nil
	}
	var initFrag visitor.Fragment
	switch init.Kind() {
	case "declaration", "local_variable_declaration":
		initFrag, err = vi.Visit(init)
	default:
		initFrag, err = StatementFragment(vi, init)
	}
	if err != nil {
		return visitor.Fragment{}, err
	}
	return vi.Chain(initFrag, loopFrag)
}
