// Package heuristic implements the three-phase repair pipeline that turns
// slightly malformed LLM-emitted XML into a well-typed object without
// destroying inputs that were already valid: an ordered preParse phase, a
// re-entrant fallbackReparse loop bounded by a maximum reparse count, and a
// postParse phase that runs after a successful underlying parse.
package heuristic

// Phase identifies which stage of the pipeline a Heuristic belongs to.
type Phase int

const (
	PreParse Phase = iota
	FallbackReparse
	PostParse
)

// Meta preserves context threaded through a single call's pipeline run.
type Meta struct {
	// OriginalContent is the initial raw text, preserved for safety checks
	// in fallback heuristics even after RawSegment has been rewritten.
	OriginalContent string
}

// Ctx is the mutable pipeline state for one tool-call segment, corresponding
// to spec's "Intermediate call".
type Ctx struct {
	ToolName   string
	Schema     map[string]interface{}
	RawSegment string
	Parsed     interface{}
	Errors     []error
	Meta       Meta

	// ParseCount is the number of times the underlying parse function has
	// been invoked for this Ctx. Exposed so callers can assert the reparse
	// budget invariant in tests.
	ParseCount int
}

// Result is what a Heuristic's Run returns: any subset of a rewritten raw
// segment, a parsed value, and a request to reparse.
type Result struct {
	RawSegment *string
	Parsed     interface{}
	ParsedSet  bool
	Reparse    bool
}

// Heuristic is a named, phase-scoped transformation. Applies must be pure
// and cheap; Run may rewrite ctx.RawSegment and/or ctx.Parsed via the
// returned Result (the engine applies the result, not Run itself).
type Heuristic struct {
	ID      string
	Phase   Phase
	Applies func(ctx *Ctx) bool
	Run     func(ctx *Ctx) Result
}

// Pipeline is the three ordered heuristic lists, keyed by phase.
type Pipeline struct {
	PreParse        []Heuristic
	FallbackReparse []Heuristic
	PostParse       []Heuristic
}

// Merge appends extra's lists onto a copy of p's lists, by phase, as user
// heuristics merge into the default pipeline.
func (p Pipeline) Merge(extra Pipeline) Pipeline {
	return Pipeline{
		PreParse:        append(append([]Heuristic{}, p.PreParse...), extra.PreParse...),
		FallbackReparse: append(append([]Heuristic{}, p.FallbackReparse...), extra.FallbackReparse...),
		PostParse:       append(append([]Heuristic{}, p.PostParse...), extra.PostParse...),
	}
}

// ParseFunc runs the single underlying (non-heuristic, strict-ish) parse of
// a raw segment against a schema, producing a parsed value or an error.
type ParseFunc func(rawSegment string, schemaDesc map[string]interface{}) (interface{}, error)

// DefaultMaxReparses is the default reparse budget when a caller does not
// configure one explicitly.
const DefaultMaxReparses = 2

// Run executes the full pipeline algorithm against ctx, mutating it in
// place. maxReparses bounds the number of times the reparse loop may
// re-invoke parse; parse performs the underlying (non-heuristic) attempt.
func Run(ctx *Ctx, pipeline Pipeline, maxReparses int, parse ParseFunc) {
	for _, h := range pipeline.PreParse {
		applyIfApplicable(ctx, h)
	}

	attemptParse(ctx, parse)

	if ctx.Parsed == nil {
		for i := 0; i < maxReparses; i++ {
			progressed := false
			for _, h := range pipeline.FallbackReparse {
				if !h.Applies(ctx) {
					continue
				}
				res := h.Run(ctx)
				applyResult(ctx, res)
				if res.Reparse {
					progressed = true
				}
			}
			if !progressed {
				break
			}
			attemptParse(ctx, parse)
			if ctx.Parsed != nil {
				break
			}
		}
	}

	if ctx.Parsed != nil {
		for _, h := range pipeline.PostParse {
			applyIfApplicable(ctx, h)
		}
	}
}

func applyIfApplicable(ctx *Ctx, h Heuristic) {
	if !h.Applies(ctx) {
		return
	}
	applyResult(ctx, h.Run(ctx))
}

func applyResult(ctx *Ctx, res Result) {
	if res.RawSegment != nil {
		ctx.RawSegment = *res.RawSegment
	}
	if res.ParsedSet {
		ctx.Parsed = res.Parsed
	}
}

func attemptParse(ctx *Ctx, parse ParseFunc) {
	ctx.ParseCount++
	value, err := parse(ctx.RawSegment, ctx.Schema)
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		ctx.Parsed = nil
		return
	}
	ctx.Parsed = value
}
