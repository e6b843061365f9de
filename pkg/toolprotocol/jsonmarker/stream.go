package jsonmarker

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/digitallysavvy/toolprotocol/pkg/jsonparser"
	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol"
)

type streamState int

const (
	stateOutside streamState = iota
	stateInsideCall
)

// streamParser is the marker protocol's incremental state machine, grounded
// on the same getPotentialStartIndex-style buffering pattern as the XML
// protocol's streamParser (pkg/toolprotocol/xmltag/stream.go), parameterized
// over a single start marker and a set of end markers instead of N tool
// names.
type streamParser struct {
	p     *Protocol
	names map[string]bool
	onErr toolprotocol.OnErrorFunc

	buffer string
	state  streamState

	textOpen  bool
	textID    string
	partialID string
}

func (p *Protocol) CreateStreamParser(tools []toolprotocol.Tool, onErr toolprotocol.OnErrorFunc) toolprotocol.StreamParser {
	return &streamParser{
		p:     p,
		names: toolNameSet(tools),
		onErr: orNoop(onErr),
		state: stateOutside,
	}
}

// Push implements toolprotocol.StreamParser.
func (sp *streamParser) Push(event toolprotocol.StreamEvent) []toolprotocol.StreamEvent {
	var emit []toolprotocol.StreamEvent

	if event.Kind != toolprotocol.EventTextDelta {
		sp.flushAllAsText(&emit)
		sp.closeTextRegion(&emit)
		emit = append(emit, event)
		return emit
	}

	toolprotocol.Logf(toolprotocol.DebugStream, "jsonmarker: stream chunk=%q", event.Delta)
	sp.buffer += event.Delta
	sp.drain(&emit)
	if sp.state == stateInsideCall {
		sp.emitPartialPreview(&emit)
	}
	return emit
}

// Finish implements toolprotocol.StreamParser.
func (sp *streamParser) Finish() []toolprotocol.StreamEvent {
	var emit []toolprotocol.StreamEvent

	switch sp.state {
	case stateOutside:
		sp.emitText(&emit, sp.buffer)
		sp.buffer = ""
	case stateInsideCall:
		// An unterminated call is not a tool call: emit start + buffered
		// payload as text, per spec's Finish row.
		sp.onErr("unterminated tool call at end of stream; emitted as text", toolprotocol.ErrorMeta{RawSegment: sp.buffer})
		sp.emitText(&emit, sp.p.toolCallStart+sp.buffer)
		sp.buffer = ""
		sp.state = stateOutside
		sp.partialID = ""
	}
	sp.closeTextRegion(&emit)

	return emit
}

func (sp *streamParser) flushAllAsText(emit *[]toolprotocol.StreamEvent) {
	if sp.state == stateInsideCall {
		// The incomplete call remains buffered, never flushed as text here.
		return
	}
	if sp.buffer != "" {
		sp.emitText(emit, sp.buffer)
		sp.buffer = ""
	}
}

func (sp *streamParser) drain(emit *[]toolprotocol.StreamEvent) {
	for {
		switch sp.state {
		case stateOutside:
			if !sp.driveOutside(emit) {
				return
			}
		case stateInsideCall:
			if !sp.driveInside(emit) {
				return
			}
		}
	}
}

// driveOutside searches for the start marker. If a proper prefix of it
// trails the buffer with no earlier complete occurrence, those bytes are
// held back rather than flushed as text.
func (sp *streamParser) driveOutside(emit *[]toolprotocol.StreamEvent) bool {
	idx := potentialStartIndex(sp.buffer, sp.p.toolCallStart)

	if idx > 0 {
		sp.emitText(emit, sp.buffer[:idx])
		sp.buffer = sp.buffer[idx:]
		return true
	}

	if strings.HasPrefix(sp.buffer, sp.p.toolCallStart) {
		sp.buffer = sp.buffer[len(sp.p.toolCallStart):]
		sp.closeTextRegion(emit)
		sp.state = stateInsideCall
		sp.partialID = sp.p.idGen()
		return true
	}

	return false
}

// driveInside searches for the earliest complete end marker. No text is
// ever flushed while inside a call; on no match the payload is retained
// whole and the parser waits for more input.
func (sp *streamParser) driveInside(emit *[]toolprotocol.StreamEvent) bool {
	idx, marker, found := earliestFullMatch(sp.buffer, sp.p.toolCallEnd)
	if !found {
		return false
	}

	payload := sp.buffer[:idx]
	sp.buffer = sp.buffer[idx+len(marker):]
	sp.state = stateOutside
	sp.partialID = ""

	name, input, err := sp.p.parsePayload(context.Background(), payload, sp.names)
	if err == nil {
		*emit = append(*emit, toolprotocol.ToolCallEvent(sp.p.idGen(), name, input))
		toolprotocol.Logf(toolprotocol.DebugParse, "jsonmarker: parsed tool=%q input=%s", name, input)
	} else {
		toolprotocol.Logf(toolprotocol.DebugStream, "jsonmarker: parse failed payload=%q err=%v", payload, err)
		sp.onErr(err.Error(), toolprotocol.ErrorMeta{ToolName: errorName(err), RawSegment: payload, Cause: err})
		sp.emitText(emit, sp.p.toolCallStart+payload+marker)
		sp.closeTextRegion(emit)
	}
	return true
}

// emitPartialPreview offers a best-effort preview of the tool call currently
// being streamed, before its end marker has arrived. It reads the buffered
// payload with jsonparser.ParsePartialJSON, which tolerates the truncated
// object/array/string a mid-stream JSON payload always is; a preview is only
// emitted once that repair succeeds. This never affects the eventual
// ToolCallEvent, which re-parses the complete payload on its own terms.
func (sp *streamParser) emitPartialPreview(emit *[]toolprotocol.StreamEvent) {
	result := jsonparser.ParsePartialJSON(sp.buffer)
	if result.State == jsonparser.ParseStateFailed || result.State == jsonparser.ParseStateUndefinedInput {
		return
	}

	obj, ok := result.Value.(map[string]interface{})
	if !ok {
		return
	}

	name, _ := obj["name"].(string)
	args, hasArgs := obj["arguments"]
	if !hasArgs || args == nil {
		args = map[string]interface{}{}
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return
	}

	*emit = append(*emit, toolprotocol.ToolCallPartialEvent(sp.partialID, name, string(encoded)))
}

// potentialStartIndex returns the index in buffer at which marker either
// fully occurs, or at which a proper suffix of buffer matches a prefix of
// marker (so those trailing bytes must not be flushed yet). If neither
// holds, it returns len(buffer) (everything may be flushed).
//
// Grounded on the teacher's getPotentialStartIndex (pkg/middleware/extract_reasoning.go).
func potentialStartIndex(buffer, marker string) int {
	if idx := strings.Index(buffer, marker); idx != -1 {
		return idx
	}

	maxLen := len(marker) - 1
	if maxLen > len(buffer) {
		maxLen = len(buffer)
	}
	for l := maxLen; l > 0; l-- {
		if strings.HasSuffix(buffer, marker[:l]) {
			return len(buffer) - l
		}
	}
	return len(buffer)
}
