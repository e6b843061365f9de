// Package toolprotocol converts free-form LLM text into a structured
// sequence of content parts — interleaved plain text and tool calls — using
// one of several wire formats, in both batch and incremental-stream modes.
// It also formats outbound tool calls and tool responses back into the same
// wire format for the next model turn.
package toolprotocol

import "context"

// Tool describes a callable function the model may invoke: its name, an
// optional human-readable description, and a JSON-Schema-like descriptor for
// its arguments. Tools are immutable after construction.
type Tool struct {
	Name          string
	Description   string
	InputSchema   map[string]interface{}
	InputExamples []map[string]interface{}
}

// ContentPart is the tagged result of a batch parse: either plain text or a
// resolved tool call. Exactly one of the two constructors below should be
// used; Kind discriminates which fields are meaningful.
type ContentPart struct {
	Kind ContentKind
	Text string // meaningful when Kind == ContentText

	ID    string // meaningful when Kind == ContentToolCall
	Name  string
	Input string // canonical JSON string of the coerced arguments
}

// ContentKind discriminates the variant of a ContentPart.
type ContentKind int

const (
	ContentText ContentKind = iota
	ContentToolCall
)

// TextPart constructs a Text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Kind: ContentText, Text: text}
}

// ToolCallPart constructs a ToolCall content part.
func ToolCallPart(id, name, input string) ContentPart {
	return ContentPart{Kind: ContentToolCall, ID: id, Name: name, Input: input}
}

// StreamEventKind discriminates the variant of a StreamEvent.
type StreamEventKind int

const (
	EventTextStart StreamEventKind = iota
	EventTextDelta
	EventTextEnd
	EventToolCall
	EventToolCallPartial
	EventFinish
	EventError
	EventPassthrough
)

// StreamEvent is the tagged union of events produced (and partially
// consumed) by a stream parser. Only the fields relevant to Kind are
// meaningful; Raw carries an opaque passthrough event verbatim.
type StreamEvent struct {
	Kind StreamEventKind

	ID    string // TextStart / TextDelta / TextEnd
	Delta string // TextDelta

	Name  string // ToolCall, ToolCallPartial
	Input string // ToolCall, ToolCallPartial (best-effort, may be incomplete)

	FinishReason string      // Finish
	Usage        interface{} // Finish, optional

	Err error // Error

	Raw interface{} // Passthrough
}

func TextStartEvent(id string) StreamEvent  { return StreamEvent{Kind: EventTextStart, ID: id} }
func TextDeltaEvent(id, delta string) StreamEvent {
	return StreamEvent{Kind: EventTextDelta, ID: id, Delta: delta}
}
func TextEndEvent(id string) StreamEvent { return StreamEvent{Kind: EventTextEnd, ID: id} }
func ToolCallEvent(id, name, input string) StreamEvent {
	return StreamEvent{Kind: EventToolCall, ID: id, Name: name, Input: input}
}

// ToolCallPartialEvent carries a best-effort preview of a tool call's
// arguments while it is still being streamed, before the closing marker has
// arrived. Name may be empty if the payload hasn't named the tool yet.
func ToolCallPartialEvent(id, name, input string) StreamEvent {
	return StreamEvent{Kind: EventToolCallPartial, ID: id, Name: name, Input: input}
}
func FinishEvent(reason string, usage interface{}) StreamEvent {
	return StreamEvent{Kind: EventFinish, FinishReason: reason, Usage: usage}
}
func ErrorEvent(err error) StreamEvent { return StreamEvent{Kind: EventError, Err: err} }
func PassthroughEvent(raw interface{}) StreamEvent {
	return StreamEvent{Kind: EventPassthrough, Raw: raw}
}

// ErrorMeta carries diagnostic context passed to OnError alongside a
// human-readable message.
type ErrorMeta struct {
	ToolName   string
	RawSegment string
	Cause      error
}

// OnErrorFunc is invoked on any recoverable failure: a malformed segment, an
// unresolved duplicate string tag, or an incomplete streaming call. It never
// affects emitted event content.
type OnErrorFunc func(message string, meta ErrorMeta)

// Protocol is the capability set a concrete wire format must implement:
// formatting outbound calls/responses, batch parsing, and incremental
// streaming.
type Protocol interface {
	// FormatTools returns a JSON-encoded description of each tool's
	// {name, description, parameters}, for use by a system-prompt template.
	FormatTools(ctx context.Context, tools []Tool) (string, error)

	// FormatToolCall serializes a tool call back into wire format.
	FormatToolCall(ctx context.Context, name string, input interface{}) (string, error)

	// FormatToolResponse serializes a tool's output back into wire format.
	FormatToolResponse(ctx context.Context, toolName string, output interface{}) (string, error)

	// ParseGeneratedText is the batch parser over a complete string.
	ParseGeneratedText(ctx context.Context, text string, tools []Tool, onErr OnErrorFunc) ([]ContentPart, error)

	// CreateStreamParser returns a fresh incremental stream parser instance.
	CreateStreamParser(tools []Tool, onErr OnErrorFunc) StreamParser
}

// StreamParser is a single-threaded, cooperative transform between an input
// event stream and an output event stream. Push and Finish are the only
// entry points; all state is confined to the instance.
type StreamParser interface {
	// Push processes one incoming event and returns zero or more outgoing
	// events, synchronously.
	Push(event StreamEvent) []StreamEvent

	// Finish is called exactly once when the input closes. Any buffered,
	// unterminated content is flushed as text (never as a tool call).
	Finish() []StreamEvent
}
