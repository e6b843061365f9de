// Package template provides pure-text system-prompt producers for the three
// tool-calling conventions the core's wire protocols embed calls in. These
// are collaborators, not part of the core: the core only ever hands a caller
// a JSON-encoded {name, description, parameters} descriptor per tool; this
// package supplies the surrounding prompt text a caller may choose to use.
package template

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol"
)

type descriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters"`
}

func toolsJSON(tools []toolprotocol.Tool) (string, error) {
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

// XMLPrompt renders a system-prompt fragment for the XML-style protocol
// (pkg/toolprotocol/xmltag): each tool is invoked as "<name>{child
// elements}</name>".
func XMLPrompt(tools []toolprotocol.Tool) (string, error) {
	toolsDesc, err := toolsJSON(tools)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("You have access to the following tools:\n\n")
	sb.WriteString(toolsDesc)
	sb.WriteString("\n\nTo call a tool, emit it as an XML element named after the tool, ")
	sb.WriteString("with one child element per argument:\n")
	sb.WriteString("<tool_name><arg_name>value</arg_name></tool_name>\n")
	return sb.String(), nil
}

// HermesPrompt renders a system-prompt fragment in the Nous-Hermes
// function-calling convention: tools are declared inside a <tools> block and
// invoked with a single <tool_call>{"name":…,"arguments":…}</tool_call>
// marker pair. pkg/toolprotocol/jsonmarker has no default markers; a
// jsonmarker.Protocol parses this format when configured with this pair.
func HermesPrompt(tools []toolprotocol.Tool) (string, error) {
	toolsDesc, err := toolsJSON(tools)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("You are a function-calling AI. Within <tools></tools> XML tags,\n")
	sb.WriteString("you are provided with function signatures:\n<tools>\n")
	sb.WriteString(toolsDesc)
	sb.WriteString("\n</tools>\n\n")
	sb.WriteString("For each function call, emit a JSON object with \"name\" and \"arguments\" ")
	sb.WriteString("keys inside <tool_call></tool_call> tags:\n")
	sb.WriteString(`<tool_call>{"name": <function-name>, "arguments": <args-dict>}</tool_call>` + "\n")
	return sb.String(), nil
}

// GemmaPrompt renders a system-prompt fragment in Gemma's function-calling
// convention: calls are emitted as a fenced ```tool_call code block
// containing the same {name, arguments} JSON shape.
func GemmaPrompt(tools []toolprotocol.Tool) (string, error) {
	toolsDesc, err := toolsJSON(tools)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("You have access to functions. If you decide to invoke one, ")
	sb.WriteString("wrap the call in a ```tool_call fenced code block:\n")
	sb.WriteString(fmt.Sprintf("%s\n\n", toolsDesc))
	sb.WriteString("```tool_call\n")
	sb.WriteString(`{"name": <function-name>, "arguments": <args-dict>}` + "\n")
	sb.WriteString("```\n")
	return sb.String(), nil
}
