package xmltag

import (
	"context"
	"regexp"
	"strings"

	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol"
)

// candidate is a single detected tool-call region in the full outer text.
type candidate struct {
	toolName  string
	start, end int // [start,end) over the full text, outer tags included
	rawInner  string
	selfClose bool
}

// ParseGeneratedText implements the batch contract of spec §4.1: locate every
// balanced "<N>…</N>" (or self-closing "<N/>") region for a declared tool
// name N, run the heuristic pipeline over each, and interleave the results
// with the surrounding prose as Text parts.
func (p *Protocol) ParseGeneratedText(ctx context.Context, text string, tools []toolprotocol.Tool, onErr toolprotocol.OnErrorFunc) ([]toolprotocol.ContentPart, error) {
	onErr = orNoop(onErr)
	names := toolNames(tools)
	schemas := toolSchemaIndex(tools)

	if len(names) == 0 {
		return []toolprotocol.ContentPart{toolprotocol.TextPart(text)}, nil
	}

	var parts []toolprotocol.ContentPart
	pos := 0
	for pos <= len(text) {
		c, ok := findNextCandidate(text, pos, names)
		if !ok {
			break
		}
		if c.start > pos {
			parts = append(parts, toolprotocol.TextPart(text[pos:c.start]))
		}

		if c.selfClose {
			parts = append(parts, toolprotocol.ToolCallPart(p.idGen(), c.toolName, "{}"))
			pos = c.end
			continue
		}

		input, ok := p.processCall(c.toolName, c.rawInner, schemas[c.toolName], onErr)
		if ok {
			parts = append(parts, toolprotocol.ToolCallPart(p.idGen(), c.toolName, input))
		} else {
			parts = append(parts, toolprotocol.TextPart(text[c.start:c.end]))
		}
		pos = c.end
	}

	if pos < len(text) {
		parts = append(parts, toolprotocol.TextPart(text[pos:]))
	}

	if len(parts) == 0 {
		parts = append(parts, toolprotocol.TextPart(text))
	}

	toolprotocol.Logf(toolprotocol.DebugParse, "xmltag: batch parse produced %d parts", len(parts))
	return parts, nil
}

// findNextCandidate finds the earliest tool-call region starting at or after
// from, across all declared names, with a lowest-start-index tie resolved by
// names' declaration order.
func findNextCandidate(text string, from int, names []string) (candidate, bool) {
	var best candidate
	found := false
	for _, name := range names {
		c, ok := findTagCall(text, from, name)
		if !ok {
			continue
		}
		if !found || c.start < best.start {
			best = c
			found = true
		}
	}
	return best, found
}

// findTagCall implements the tag-scanning algorithm of spec §4.1 for a
// single declared name: find the next "<name>" or self-closing "<name/>",
// then walk forward tracking a depth counter over same-named open/close
// tags until depth returns to zero.
func findTagCall(text string, from int, name string) (candidate, bool) {
	openR := nameOpenRegex(name)
	closeR := nameCloseRegex(name)

	idx := openR.FindStringIndex(text[from:])
	if idx == nil {
		return candidate{}, false
	}
	start := from + idx[0]
	openEnd := from + idx[1]
	if isSelfClosingTag(text[start:openEnd]) {
		return candidate{toolName: name, start: start, end: openEnd, selfClose: true}, true
	}

	depth := 1
	pos := openEnd
	var closeStart, closeEnd int
	for depth > 0 {
		oi := openR.FindStringIndex(text[pos:])
		ci := closeR.FindStringIndex(text[pos:])
		if ci == nil {
			return candidate{}, false // unterminated: no call detected in batch mode
		}
		if oi != nil && oi[0] < ci[0] {
			nested := text[pos+oi[0] : pos+oi[1]]
			pos += oi[1]
			if !isSelfClosingTag(nested) {
				depth++
			}
			continue
		}
		closeStart = pos + ci[0]
		closeEnd = pos + ci[1]
		pos = closeEnd
		depth--
	}

	return candidate{
		toolName: name,
		start:    start,
		end:      closeEnd,
		rawInner: text[openEnd:closeStart],
	}, true
}

// nameOpenRegex matches "<name …>" or self-closing "<name …/>", requiring
// name to be immediately followed by whitespace, '/', or '>' so that e.g.
// "step" never matches inside "stepper".
func nameOpenRegex(name string) *regexp.Regexp {
	return regexp.MustCompile(`<` + regexp.QuoteMeta(name) + `(?:\s[^>]*)?(/)?>`)
}

// nameCloseRegex matches "</name>" tolerating whitespace before and after
// the name and before '>'.
func nameCloseRegex(name string) *regexp.Regexp {
	return regexp.MustCompile(`</\s*` + regexp.QuoteMeta(name) + `\s*>`)
}

func isSelfClosingTag(tagText string) bool {
	trimmed := strings.TrimSuffix(strings.TrimSpace(tagText), ">")
	return strings.HasSuffix(trimmed, "/")
}
