package xmltag

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol"
)

// FormatTools implements toolprotocol.Protocol. Per spec §6 the core hands
// the caller a JSON-encoded {name, description, parameters} descriptor per
// tool; the surrounding prompt text is the template package's concern.
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

// FormatToolCall implements toolprotocol.Protocol: "<name>{child*}</name>"
// per spec §4.1/§6, with one child element per top-level argument property,
// nested objects recursing and arrays wrapped in repeated "<item>" elements.
func (p *Protocol) FormatToolCall(ctx context.Context, name string, input interface{}) (string, error) {
	value, err := asValue(input)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(name)
	sb.WriteString(">")
	writeValueChildren(&sb, value)
	sb.WriteString("</")
	sb.WriteString(name)
	sb.WriteString(">")
	return sb.String(), nil
}

// FormatToolResponse implements toolprotocol.Protocol:
// "<tool_response><tool_name>ESC(name)</tool_name><result>ESC(result)</result></tool_response>".
func (p *Protocol) FormatToolResponse(ctx context.Context, toolName string, output interface{}) (string, error) {
	var resultText string
	switch v := output.(type) {
	case string:
		resultText = v
	default:
		encoded, err := json.Marshal(output)
		if err != nil {
			return "", err
		}
		resultText = string(encoded)
	}

	var sb strings.Builder
	sb.WriteString("<tool_response><tool_name>")
	sb.WriteString(escapeXMLEntities(toolName))
	sb.WriteString("</tool_name><result>")
	sb.WriteString(escapeXMLEntities(resultText))
	sb.WriteString("</result></tool_response>")
	return sb.String(), nil
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
		return nil, fmt.Errorf("xmltag: FormatToolCall input is a string but not valid JSON: %w", err)
	}
	return value, nil
}

func writeValueChildren(sb *strings.Builder, value interface{}) {
	obj, ok := value.(map[string]interface{})
	if !ok {
		sb.WriteString(scalarText(value))
		return
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		writeChildElement(sb, key, obj[key])
	}
}

func writeChildElement(sb *strings.Builder, name string, value interface{}) {
	sb.WriteString("<")
	sb.WriteString(name)
	sb.WriteString(">")
	switch v := value.(type) {
	case map[string]interface{}:
		writeValueChildren(sb, v)
	case []interface{}:
		for _, item := range v {
			writeChildElement(sb, "item", item)
		}
	default:
		sb.WriteString(scalarText(v))
	}
	sb.WriteString("</")
	sb.WriteString(name)
	sb.WriteString(">")
}

func scalarText(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

var xmlEntityReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXMLEntities(s string) string {
	return xmlEntityReplacer.Replace(s)
}
