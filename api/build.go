// Package api is the core's external surface: BuildCFGs turns source bytes
// into post-processed per-routine CFGs, AnalyzeDefUse turns those into
// def-use/use-def chains, and the wire types fix the JSON shape the
// downstream graph frontend depends on.
package api

import (
	"bytes"
	"context"

	"github.com/viant/cflow/cfg"
	"github.com/viant/cflow/defuse"
	"github.com/viant/cflow/hashutil"
	"github.com/viant/cflow/postprocess"
	"github.com/viant/cflow/syntax"
	"github.com/viant/cflow/visitor"
)

// BuildResult is the outcome of one analysis request over one translation
// unit. SourceHash is a content hash callers may use as a cache key; the
// core itself never reads it.
type BuildResult struct {
	Unit       *cfg.Unit
	Routines   []*cfg.Routine
	Warnings   []string
	SourceHash uint64
}

// BuildCFGs parses source in the given language and builds one normalized
// CFG per routine, with structural warnings accumulated rather than raised.
// The context cancels cooperatively during parsing, at node visits, and
// between routines during post-processing.
func BuildCFGs(ctx context.Context, source []byte, language Language) (*BuildResult, error) {
	if len(bytes.TrimSpace(source)) == 0 {
		return nil, &InputError{Reason: "empty source"}
	}
	sup, ok := languages[language]
	if !ok {
		return nil, ErrUnsupportedLanguage(language)
	}
	root, err := syntax.Parse(ctx, source, sup.grammar)
	if err != nil {
		return nil, &InputError{Reason: err.Error()}
	}
	if syntax.HasRootError(root) {
		return nil, &InputError{Reason: "source failed to parse"}
	}

	result := &BuildResult{Unit: cfg.NewUnit()}
	for _, decl := range sup.visitor.Routines(root) {
		routine := result.Unit.NewRoutine(decl.Name)
		routine.Parameters = decl.Parameters
		v := visitor.New(ctx, sup.visitor, routine, &result.Warnings)
		body := decl.Body
		err := visitor.BuildRoutine(v, func(v *visitor.Visitor) (visitor.Fragment, error) {
			if !body.IsValid() {
				// A body-less routine still yields ENTRY -> EXIT.
				return visitor.Fragment{}, nil
			}
			return v.Visit(body)
		})
		if err != nil {
			return nil, err
		}
		result.Routines = append(result.Routines, routine)
	}

	if err := postprocess.Run(ctx, result.Unit); err != nil {
		return nil, err
	}
	if hash, err := hashutil.Hash(source); err == nil {
		result.SourceHash = hash
	}
	return result, nil
}

// DefUseResult carries both chain directions over a set of routines.
type DefUseResult struct {
	Chains []*DefUseChain
	UseDef []*UseDefChain
}

// AnalyzeDefUse computes def-use and use-def chains over routines produced
// by BuildCFGs. Passing all routines of one translation unit enables the
// inter-procedural parameter aliases; any subset still yields the
// intra-procedural chains.
func AnalyzeDefUse(ctx context.Context, routines []*cfg.Routine) (*DefUseResult, error) {
	res, err := defuse.Analyze(ctx, routines)
	if err != nil {
		return nil, err
	}
	out := &DefUseResult{}
	for _, c := range res.DefUse {
		out.Chains = append(out.Chains, &DefUseChain{
			Variable:   c.Variable,
			DefNodeID:  c.DefNode,
			UseNodeIDs: c.UseNodes,
		})
	}
	for _, c := range res.UseDef {
		out.UseDef = append(out.UseDef, &UseDefChain{
			Variable:   c.Variable,
			UseNodeID:  c.UseNode,
			DefNodeIDs: c.DefNodes,
		})
	}
	return out, nil
}
