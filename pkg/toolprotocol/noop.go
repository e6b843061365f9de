package toolprotocol

import (
	"context"
	"encoding/json"
)

// NoopProtocol is the pass-through protocol named in spec §9's dynamic
// dispatch note: it never recognizes any wire format. Batch parsing always
// returns the whole input as a single Text part; streaming forwards every
// event unchanged. It exists so callers exercising the surrounding pipeline
// (middleware wiring, stream plumbing) can do so without a real protocol's
// tag/marker scanning in the way.
type NoopProtocol struct{}

var _ Protocol = NoopProtocol{}

// FormatTools returns the same {name, description, parameters} JSON
// descriptor the real protocols return; there is no format-specific wrapper
// to omit here.
func (NoopProtocol) FormatTools(ctx context.Context, tools []Tool) (string, error) {
	type descriptor struct {
		Name        string                 `json:"name"`
		Description string                 `json:"description,omitempty"`
		Parameters  map[string]interface{} `json:"parameters"`
	}
	descriptors := make([]descriptor, 0, len(tools))
	for _, t := range tools {
		if t.Name == "" {
			continue
		}
		descriptors = append(descriptors, descriptor{Name: t.Name, Description: t.Description, Parameters: t.InputSchema})
	}
	encoded, err := json.Marshal(descriptors)
	return string(encoded), err
}

// FormatToolCall returns input unchanged when it is a string and its JSON
// encoding otherwise, with no surrounding tag or marker.
func (NoopProtocol) FormatToolCall(ctx context.Context, name string, input interface{}) (string, error) {
	if s, ok := input.(string); ok {
		return s, nil
	}
	encoded, err := json.Marshal(input)
	return string(encoded), err
}

// FormatToolResponse returns output unchanged when it is a string and its
// JSON encoding otherwise.
func (NoopProtocol) FormatToolResponse(ctx context.Context, toolName string, output interface{}) (string, error) {
	if s, ok := output.(string); ok {
		return s, nil
	}
	encoded, err := json.Marshal(output)
	return string(encoded), err
}

// ParseGeneratedText never detects a tool call: the entire input is one
// Text part.
func (NoopProtocol) ParseGeneratedText(ctx context.Context, text string, tools []Tool, onErr OnErrorFunc) ([]ContentPart, error) {
	return []ContentPart{TextPart(text)}, nil
}

// CreateStreamParser returns a parser that forwards every event unchanged.
func (NoopProtocol) CreateStreamParser(tools []Tool, onErr OnErrorFunc) StreamParser {
	return noopStreamParser{}
}

type noopStreamParser struct{}

func (noopStreamParser) Push(event StreamEvent) []StreamEvent { return []StreamEvent{event} }
func (noopStreamParser) Finish() []StreamEvent                { return nil }
