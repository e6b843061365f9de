package jsonmarker

import (
	"context"
	"strings"

	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol"
)

// ParseGeneratedText implements the batch contract of spec §4.2: locate
// every start…end pair, read the payload as relaxed JSON, and require shape
// {name, arguments}. On success it emits ToolCall{name, input}; on failure
// it emits the full span as text and invokes onErr.
func (p *Protocol) ParseGeneratedText(ctx context.Context, text string, tools []toolprotocol.Tool, onErr toolprotocol.OnErrorFunc) ([]toolprotocol.ContentPart, error) {
	onErr = orNoop(onErr)
	names := toolNameSet(tools)

	var parts []toolprotocol.ContentPart
	pos := 0
	for pos < len(text) {
		startRel := strings.Index(text[pos:], p.toolCallStart)
		if startRel == -1 {
			break
		}
		start := pos + startRel
		payloadStart := start + len(p.toolCallStart)

		endRel, marker, found := earliestFullMatch(text[payloadStart:], p.toolCallEnd)
		if !found {
			// Unterminated: no call detected in batch mode, same convention
			// as the XML protocol's findTagCall.
			break
		}
		payload := text[payloadStart : payloadStart+endRel]
		regionEnd := payloadStart + endRel + len(marker)

		if start > pos {
			parts = append(parts, toolprotocol.TextPart(text[pos:start]))
		}

		name, input, err := p.parsePayload(ctx, payload, names)
		if err == nil {
			parts = append(parts, toolprotocol.ToolCallPart(p.idGen(), name, input))
			toolprotocol.Logf(toolprotocol.DebugParse, "jsonmarker: parsed tool=%q input=%s", name, input)
		} else {
			toolprotocol.Logf(toolprotocol.DebugStream, "jsonmarker: parse failed payload=%q err=%v", payload, err)
			onErr(err.Error(), toolprotocol.ErrorMeta{ToolName: errorName(err), RawSegment: payload, Cause: err})
			parts = append(parts, toolprotocol.TextPart(text[start:regionEnd]))
		}

		pos = regionEnd
	}

	if pos < len(text) {
		parts = append(parts, toolprotocol.TextPart(text[pos:]))
	}
	if len(parts) == 0 {
		parts = append(parts, toolprotocol.TextPart(text))
	}

	toolprotocol.Logf(toolprotocol.DebugParse, "jsonmarker: batch parse produced %d parts", len(parts))
	return parts, nil
}

// earliestFullMatch finds the earliest complete occurrence, among markers,
// in s. Ties at the same index resolve to the first-listed marker, since
// later candidates only replace the best when strictly earlier.
func earliestFullMatch(s string, markers []string) (idx int, marker string, found bool) {
	idx = -1
	for _, m := range markers {
		if i := strings.Index(s, m); i != -1 && (!found || i < idx) {
			idx, marker, found = i, m, true
		}
	}
	return
}
