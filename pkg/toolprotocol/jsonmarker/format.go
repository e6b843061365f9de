package jsonmarker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol"
)

// FormatTools implements toolprotocol.Protocol identically to the XML
// protocol: a JSON-encoded {name, description, parameters} descriptor per
// tool, for the caller's system-prompt template.
func (p *Protocol) FormatTools(ctx context.Context, tools []toolprotocol.Tool) (string, error) {
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
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// FormatToolCall implements toolprotocol.Protocol:
// "<start>{"name":…,"arguments":…}<end>" where end is the first configured
// end marker, per spec §6.
func (p *Protocol) FormatToolCall(ctx context.Context, name string, input interface{}) (string, error) {
	value, err := asValue(input)
	if err != nil {
		return "", err
	}
	if value == nil {
		value = map[string]interface{}{}
	}

	encoded, err := json.Marshal(map[string]interface{}{"name": name, "arguments": value})
	if err != nil {
		return "", err
	}
	return p.toolCallStart + string(encoded) + p.toolCallEnd[0], nil
}

// FormatToolResponse implements toolprotocol.Protocol:
// "<respStart>{"toolName":…,"result":…}<respEnd>", collapsing nested
// {type:"json", value} wrappers and typed outcomes per spec §6/§9.
func (p *Protocol) FormatToolResponse(ctx context.Context, toolName string, output interface{}) (string, error) {
	encoded, err := json.Marshal(map[string]interface{}{"toolName": toolName, "result": collapseResult(output)})
	if err != nil {
		return "", err
	}
	return p.toolResponseStart + string(encoded) + p.toolResponseEnd, nil
}

// asValue normalizes input into a generic value: if it is a JSON-encoded
// string, it is parsed; otherwise it is used as-is.
func asValue(input interface{}) (interface{}, error) {
	s, ok := input.(string)
	if !ok {
		return input, nil
	}
	var value interface{}
	if err := json.Unmarshal([]byte(s), &value); err != nil {
		return nil, fmt.Errorf("jsonmarker: FormatToolCall input is a string but not valid JSON: %w", err)
	}
	return value, nil
}

// collapseResult unwraps nested {type:"json", value} result envelopes and
// collapses the remaining typed outcomes (execution-denied, error-text,
// error-json, content parts) to the display value spec §9's glossary
// describes. Values that match none of these shapes pass through unchanged.
func collapseResult(output interface{}) interface{} {
	m, ok := output.(map[string]interface{})
	if !ok {
		return output
	}

	for {
		kind, _ := m["type"].(string)
		if kind != "json" {
			break
		}
		value, has := m["value"]
		if !has {
			return nil
		}
		nested, ok := value.(map[string]interface{})
		if !ok {
			return value
		}
		m = nested
	}

	switch kind, _ := m["type"].(string); kind {
	case "execution-denied":
		if reason, _ := m["reason"].(string); reason != "" {
			return "Execution denied: " + reason
		}
		return "Execution denied"
	case "error-text":
		text, _ := m["value"].(string)
		return text
	case "error-json":
		encoded, err := json.Marshal(m["value"])
		if err != nil {
			return fmt.Sprintf("%v", m["value"])
		}
		return string(encoded)
	case "content":
		return collapseContentParts(m["value"])
	default:
		return m
	}
}

func collapseContentParts(value interface{}) string {
	parts, ok := value.([]interface{})
	if !ok {
		return ""
	}
	var sb strings.Builder
	for _, part := range parts {
		pm, ok := part.(map[string]interface{})
		if !ok {
			continue
		}
		switch kind, _ := pm["type"].(string); kind {
		case "text":
			if text, ok := pm["text"].(string); ok {
				sb.WriteString(text)
			}
		case "image":
			sb.WriteString("[image]")
		case "file":
			sb.WriteString("[file]")
		}
	}
	return sb.String()
}
