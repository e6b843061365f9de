package heuristic

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/digitallysavvy/toolprotocol/pkg/schema"
	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol/coerce"
	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol/xmlrepair"
)

// NormalizeCloseTagsHeuristic rewrites "</  name  >" into "</name>". Always
// applies; idempotent.
func NormalizeCloseTagsHeuristic() Heuristic {
	return Heuristic{
		ID:      "normalize-close-tags",
		Phase:   PreParse,
		Applies: func(ctx *Ctx) bool { return true },
		Run: func(ctx *Ctx) Result {
			normalized := xmlrepair.NormalizeCloseTags(ctx.RawSegment)
			return Result{RawSegment: &normalized}
		},
	}
}

// EscapeInvalidLTHeuristic escapes any '<' not starting a recognizable tag
// construct. Always applies; idempotent.
func EscapeInvalidLTHeuristic() Heuristic {
	return Heuristic{
		ID:      "escape-invalid-lt",
		Phase:   PreParse,
		Applies: func(ctx *Ctx) bool { return true },
		Run: func(ctx *Ctx) Result {
			escaped := xmlrepair.EscapeInvalidLT(ctx.RawSegment)
			return Result{RawSegment: &escaped}
		},
	}
}

// BalanceTagsHeuristic walks the segment with an explicit tag stack,
// synthesizing missing close tags (including the domain rule for a <step>
// that directly follows </status>) and closing anything left open at EOF.
func BalanceTagsHeuristic() Heuristic {
	return Heuristic{
		ID:    "balance-tags",
		Phase: FallbackReparse,
		Applies: func(ctx *Ctx) bool {
			return balanceTags(ctx.RawSegment) != ctx.RawSegment
		},
		Run: func(ctx *Ctx) Result {
			balanced := balanceTags(ctx.RawSegment)
			return Result{RawSegment: &balanced, Reparse: true}
		},
	}
}

// DedupeShellStringTagsHeuristic applies when the schema looks like a
// shell-like tool (a top-level "command" property of type array). For every
// string-typed top-level property, if the raw segment contains more than
// one sibling occurrence, only the last is kept.
func DedupeShellStringTagsHeuristic() Heuristic {
	return Heuristic{
		ID:    "dedupe-shell-string-tags",
		Phase: FallbackReparse,
		Applies: func(ctx *Ctx) bool {
			if !schema.HasArrayCommandProperty(ctx.Schema) {
				return false
			}
			for _, name := range schema.StringProperties(ctx.Schema) {
				if countSiblingTags(ctx.RawSegment, name) > 1 {
					return true
				}
			}
			return false
		},
		Run: func(ctx *Ctx) Result {
			segment := ctx.RawSegment
			for _, name := range schema.StringProperties(ctx.Schema) {
				segment = keepLastSiblingTag(segment, name)
			}
			return Result{RawSegment: &segment, Reparse: true}
		},
	}
}

// RepairAgainstSchemaHeuristic runs the schema-directed coercer on the
// parsed value and replaces it if the result differs.
func RepairAgainstSchemaHeuristic(coercer *coerce.Coercer) Heuristic {
	return Heuristic{
		ID:      "repair-against-schema",
		Phase:   PostParse,
		Applies: func(ctx *Ctx) bool { return true },
		Run: func(ctx *Ctx) Result {
			repaired := coercer.Coerce(ctx.Parsed, ctx.Schema)
			if reflect.DeepEqual(repaired, ctx.Parsed) {
				return Result{}
			}
			return Result{Parsed: repaired, ParsedSet: true}
		},
	}
}

// DefaultPipeline returns the default three-phase pipeline from spec: normalize-close-tags
// and escape-invalid-lt as preParse, balance-tags and dedupe-shell-string-tags as
// fallbackReparse, repair-against-schema as postParse.
func DefaultPipeline(coercer *coerce.Coercer) Pipeline {
	return Pipeline{
		PreParse:        []Heuristic{NormalizeCloseTagsHeuristic(), EscapeInvalidLTHeuristic()},
		FallbackReparse: []Heuristic{BalanceTagsHeuristic(), DedupeShellStringTagsHeuristic()},
		PostParse:       []Heuristic{RepairAgainstSchemaHeuristic(coercer)},
	}
}

// ---------------------------------------------------------- tag balancing ---

var tagToken = regexp.MustCompile(`<(/)?([A-Za-z_][\w:.-]*)([^>]*?)(/)?>|(<[!?][^>]*>)`)

// balanceTags performs a naive, single-pass rebalancing of tags in text: it
// maintains an explicit stack of open tag names, applies the <step>-after-
// </status> domain rule, and emits synthetic closes for anything left open
// at EOF. Directive segments (<!…>, <?…?>) are passed through untouched.
func balanceTags(text string) string {
	matches := tagToken.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return text
	}

	var sb strings.Builder
	var stack []string
	last := 0
	prevCloseName := ""

	for _, m := range matches {
		start, end := m[0], m[1]
		sb.WriteString(text[last:start])
		last = end
		full := text[start:end]

		if m[10] != -1 { // directive: <!…> or <?…?>
			sb.WriteString(full)
			prevCloseName = ""
			continue
		}

		isClose := m[2] != -1
		var name string
		if m[4] != -1 {
			name = text[m[4]:m[5]]
		}
		isSelfClose := m[8] != -1

		if isClose {
			popToMatching(&stack, name)
			sb.WriteString(full)
			prevCloseName = name
			continue
		}

		if name == "step" && prevCloseName == "status" {
			popSynthesizingClose(&stack, "step", &sb)
		}

		sb.WriteString(full)
		if !isSelfClose {
			stack = append(stack, name)
		}
		prevCloseName = ""
	}

	sb.WriteString(text[last:])

	for i := len(stack) - 1; i >= 0; i-- {
		sb.WriteString("</" + stack[i] + ">")
	}

	return sb.String()
}

// popToMatching pops the stack down to and including the first (from the
// top) entry equal to name, if any; a close tag with no matching open entry
// is tolerated and leaves the stack untouched.
func popToMatching(stack *[]string, name string) {
	s := *stack
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == name {
			*stack = s[:i]
			return
		}
	}
}

// popSynthesizingClose writes a synthetic "</name>" to sb and pops the
// first matching stack entry, if present. Returns whether it did so.
func popSynthesizingClose(stack *[]string, name string, sb *strings.Builder) bool {
	s := *stack
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == name {
			sb.WriteString("</" + name + ">")
			*stack = append(s[:i], s[i+1:]...)
			return true
		}
	}
	return false
}

// ---------------------------------------------------- sibling tag helpers ---

func siblingPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)<` + regexp.QuoteMeta(name) + `>.*?</` + regexp.QuoteMeta(name) + `>`)
}

func countSiblingTags(text, name string) int {
	return len(siblingPattern(name).FindAllStringIndex(text, -1))
}

// keepLastSiblingTag removes every occurrence of <name>…</name> except the
// last, collapsing any text between the removed occurrences and the kept
// one to empty.
func keepLastSiblingTag(text, name string) string {
	matches := siblingPattern(name).FindAllStringIndex(text, -1)
	if len(matches) <= 1 {
		return text
	}
	first := matches[0]
	lastMatch := matches[len(matches)-1]
	return text[:first[0]] + text[lastMatch[0]:lastMatch[1]] + text[lastMatch[1]:]
}
