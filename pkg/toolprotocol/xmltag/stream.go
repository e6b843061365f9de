package xmltag

import (
	"strings"

	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol"
)

type streamState int

const (
	stateOutside streamState = iota
	stateInside
)

// streamParser is the XML protocol's incremental state machine, grounded on
// the teacher's extractReasoningStream buffering pattern
// (pkg/middleware/extract_reasoning.go): a single string buffer and a
// getPotentialStartIndex-style scan, generalized here to N candidate tool
// names and an inner heuristic-pipeline call before emission.
type streamParser struct {
	p       *Protocol
	names   []string
	schemas map[string]map[string]interface{}
	onErr   toolprotocol.OnErrorFunc

	buffer      string
	state       streamState
	currentTool string

	textOpen bool
	textID   string

	lookahead int // L = max open-tag length across names
}

func (p *Protocol) CreateStreamParser(tools []toolprotocol.Tool, onErr toolprotocol.OnErrorFunc) toolprotocol.StreamParser {
	names := toolNames(tools)
	lookahead := 1
	for _, n := range names {
		if l := len("<" + n + ">"); l > lookahead {
			lookahead = l
		}
	}
	return &streamParser{
		p:         p,
		names:     names,
		schemas:   toolSchemaIndex(tools),
		onErr:     orNoop(onErr),
		state:     stateOutside,
		lookahead: lookahead,
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

	toolprotocol.Logf(toolprotocol.DebugStream, "xmltag: stream chunk=%q", event.Delta)
	sp.buffer += event.Delta
	sp.drain(&emit)
	return emit
}

// Finish implements toolprotocol.StreamParser.
func (sp *streamParser) Finish() []toolprotocol.StreamEvent {
	var emit []toolprotocol.StreamEvent

	switch sp.state {
	case stateOutside:
		sp.emitText(&emit, sp.buffer)
		sp.buffer = ""
		sp.closeTextRegion(&emit)
	case stateInside:
		unterminated := "<" + sp.currentTool + ">" + sp.buffer
		sp.onErr("unterminated tool call at end of stream; emitted as text", toolprotocol.ErrorMeta{ToolName: sp.currentTool, RawSegment: sp.buffer})
		sp.emitText(&emit, unterminated)
		sp.buffer = ""
		sp.closeTextRegion(&emit)
		sp.state = stateOutside
	}

	return emit
}

func (sp *streamParser) flushAllAsText(emit *[]toolprotocol.StreamEvent) {
	if sp.state == stateInside {
		// The incomplete call remains buffered per spec's "On non-text" row;
		// it is not flushed here.
		return
	}
	if sp.buffer != "" {
		sp.emitText(emit, sp.buffer)
		sp.buffer = ""
	}
}

// drain runs the state machine until no further progress is possible within
// this Push call.
func (sp *streamParser) drain(emit *[]toolprotocol.StreamEvent) {
	for {
		switch sp.state {
		case stateOutside:
			if !sp.driveOutside(emit) {
				return
			}
		case stateInside:
			if !sp.driveInside(emit) {
				return
			}
		}
	}
}

// driveOutside attempts one step of progress while Outside; returns false
// when it made no progress (caller should wait for more input).
func (sp *streamParser) driveOutside(emit *[]toolprotocol.StreamEvent) bool {
	idx, name, selfClose, found := scanOutsideMatch(sp.buffer, sp.names)
	if !found {
		if len(sp.buffer) > sp.lookahead-1 {
			flushLen := len(sp.buffer) - (sp.lookahead - 1)
			sp.emitText(emit, sp.buffer[:flushLen])
			sp.buffer = sp.buffer[flushLen:]
			return true
		}
		return false
	}

	if idx > 0 {
		sp.emitText(emit, sp.buffer[:idx])
	}

	if selfClose {
		tag := "<" + name + "/>"
		sp.buffer = sp.buffer[idx+len(tag):]
		sp.closeTextRegion(emit)
		*emit = append(*emit, toolprotocol.ToolCallEvent(sp.p.idGen(), name, "{}"))
		return true
	}

	tag := "<" + name + ">"
	sp.buffer = sp.buffer[idx+len(tag):]
	sp.closeTextRegion(emit)
	sp.state = stateInside
	sp.currentTool = name
	return true
}

// driveInside attempts one step of progress while Inside(N).
func (sp *streamParser) driveInside(emit *[]toolprotocol.StreamEvent) bool {
	closeR := nameCloseRegex(sp.currentTool)
	loc := closeR.FindStringIndex(sp.buffer)
	if loc == nil {
		return false
	}

	raw := sp.buffer[:loc[0]]
	closeTagText := sp.buffer[loc[0]:loc[1]]
	name := sp.currentTool
	sp.buffer = sp.buffer[loc[1]:]
	sp.state = stateOutside
	sp.currentTool = ""

	input, ok := sp.p.processCall(name, raw, sp.schemas[name], sp.onErr)
	if ok {
		*emit = append(*emit, toolprotocol.ToolCallEvent(sp.p.idGen(), name, input))
	} else {
		sp.emitText(emit, "<"+name+">"+raw+closeTagText)
		sp.closeTextRegion(emit)
	}
	return true
}

// scanOutsideMatch finds the earliest full match, among "<name>" and
// "<name/>" for every declared name, in buffer. Ties resolve by names'
// declaration order.
func scanOutsideMatch(buffer string, names []string) (idx int, name string, selfClose bool, found bool) {
	idx = -1
	for _, n := range names {
		open := "<" + n + ">"
		if i := strings.Index(buffer, open); i != -1 && (!found || i < idx) {
			idx, name, selfClose, found = i, n, false, true
		}
		sc := "<" + n + "/>"
		if i := strings.Index(buffer, sc); i != -1 && (!found || i < idx) {
			idx, name, selfClose, found = i, n, true, true
		}
	}
	return
}

func (sp *streamParser) emitText(emit *[]toolprotocol.StreamEvent, text string) {
	if text == "" {
		return
	}
	if !sp.textOpen {
		sp.textID = sp.p.idGen()
		*emit = append(*emit, toolprotocol.TextStartEvent(sp.textID))
		sp.textOpen = true
	}
	*emit = append(*emit, toolprotocol.TextDeltaEvent(sp.textID, text))
}

func (sp *streamParser) closeTextRegion(emit *[]toolprotocol.StreamEvent) {
	if sp.textOpen {
		*emit = append(*emit, toolprotocol.TextEndEvent(sp.textID))
		sp.textOpen = false
	}
}
