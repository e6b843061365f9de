package xmltag

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol"
)

func weatherTool() toolprotocol.Tool {
	return toolprotocol.Tool{
		Name: "get_weather",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"location": map[string]interface{}{"type": "string"},
			},
		},
	}
}

func mustDecode(t *testing.T, s string) map[string]interface{} {
	t.Helper()
	var v map[string]interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("invalid JSON %q: %v", s, err)
	}
	return v
}

func TestParseGeneratedText_BasicCall(t *testing.T) {
	p := New(Options{})
	text := "<get_weather><location>Seoul</location></get_weather>"
	parts, err := p.ParseGeneratedText(context.Background(), text, []toolprotocol.Tool{weatherTool()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 1 || parts[0].Kind != toolprotocol.ContentToolCall {
		t.Fatalf("expected a single ToolCall part, got %+v", parts)
	}
	got := mustDecode(t, parts[0].Input)
	if got["location"] != "Seoul" {
		t.Errorf("got %v", got)
	}
}

func TestParseGeneratedText_CloseTagWhitespaceNormalization(t *testing.T) {
	p := New(Options{})
	text := "<get_weather><location>Seoul</ location></get_weather>"
	parts, err := p.ParseGeneratedText(context.Background(), text, []toolprotocol.Tool{weatherTool()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 1 || parts[0].Kind != toolprotocol.ContentToolCall {
		t.Fatalf("expected a single ToolCall part, got %+v", parts)
	}
	got := mustDecode(t, parts[0].Input)
	if got["location"] != "Seoul" {
		t.Errorf("got %v", got)
	}
}

func TestParseGeneratedText_DuplicateShellStringSiblingLastWins(t *testing.T) {
	p := New(Options{})
	shellTool := toolprotocol.Tool{
		Name: "shell",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"description": map[string]interface{}{"type": "string"},
				"command":     map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			},
		},
	}
	text := `<shell><command><item>echo "hello"</item></command><description>First</description><description>Second</description></shell>`
	parts, err := p.ParseGeneratedText(context.Background(), text, []toolprotocol.Tool{shellTool}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 1 || parts[0].Kind != toolprotocol.ContentToolCall {
		t.Fatalf("expected a single ToolCall part, got %+v", parts)
	}
	got := mustDecode(t, parts[0].Input)
	if got["description"] != "Second" {
		t.Errorf("expected last-wins description, got %v", got["description"])
	}
	cmd, ok := got["command"].([]interface{})
	if !ok || len(cmd) != 1 || cmd[0] != `echo "hello"` {
		t.Errorf("expected command=[echo \"hello\"], got %v", got["command"])
	}
}

func TestParseGeneratedText_RawHTMLInsideStringTypedTagPreservedVerbatim(t *testing.T) {
	p := New(Options{})
	writeFileTool := toolprotocol.Tool{
		Name: "write_file",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"file_path": map[string]interface{}{"type": "string"},
				"content":   map[string]interface{}{"type": "string"},
				"encoding":  map[string]interface{}{"type": "string"},
			},
		},
	}
	html := "<!DOCTYPE html><html><body>hi</body></html>"
	text := "<write_file><file_path>/x.html</file_path><content>" + html + "</content><encoding>utf-8</encoding></write_file>"
	parts, err := p.ParseGeneratedText(context.Background(), text, []toolprotocol.Tool{writeFileTool}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 1 || parts[0].Kind != toolprotocol.ContentToolCall {
		t.Fatalf("expected a single ToolCall part, got %+v", parts)
	}
	got := mustDecode(t, parts[0].Input)
	if got["content"] != html {
		t.Errorf("expected verbatim HTML, got %q", got["content"])
	}
}

func TestParseGeneratedText_DuplicateStringTagsNonShellFallsBackToText(t *testing.T) {
	p := New(Options{})
	writeFileTool := toolprotocol.Tool{
		Name: "write_file",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"file_path": map[string]interface{}{"type": "string"},
				"content":   map[string]interface{}{"type": "string"},
			},
		},
	}
	text := "<write_file><file_path>/x</file_path><content>A</content><content>B</content></write_file>"
	var errCalls []string
	onErr := func(msg string, meta toolprotocol.ErrorMeta) { errCalls = append(errCalls, msg) }
	parts, err := p.ParseGeneratedText(context.Background(), text, []toolprotocol.Tool{writeFileTool}, onErr)
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 1 || parts[0].Kind != toolprotocol.ContentText || parts[0].Text != text {
		t.Fatalf("expected the entire region as text, got %+v", parts)
	}
	if len(errCalls) != 1 {
		t.Fatalf("expected onError to be invoked once, got %d", len(errCalls))
	}
}

func TestParseGeneratedText_Coercion(t *testing.T) {
	p := New(Options{})
	calcTool := toolprotocol.Tool{
		Name: "calc",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"a": map[string]interface{}{"type": "number"},
				"b": map[string]interface{}{"type": "integer"},
				"c": map[string]interface{}{"type": "boolean"},
			},
		},
	}
	text := "<calc><a>10</a><b>5</b><c>true</c></calc>"
	parts, err := p.ParseGeneratedText(context.Background(), text, []toolprotocol.Tool{calcTool}, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := mustDecode(t, parts[0].Input)
	if got["a"] != 10.0 || got["b"] != 5.0 || got["c"] != true {
		t.Errorf("got %v", got)
	}
}

func TestParseGeneratedText_ArrayRescue(t *testing.T) {
	p := New(Options{})
	numsTool := toolprotocol.Tool{
		Name: "nums",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"data": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "number"}},
			},
		},
	}
	text := "<nums><data><item>1</item><item>2.5</item><item>1.23e3</item></data></nums>"
	parts, err := p.ParseGeneratedText(context.Background(), text, []toolprotocol.Tool{numsTool}, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := mustDecode(t, parts[0].Input)
	data, ok := got["data"].([]interface{})
	if !ok || len(data) != 3 || data[0] != 1.0 || data[1] != 2.5 || data[2] != 1230.0 {
		t.Errorf("got %v", got["data"])
	}
}

func TestParseGeneratedText_SelfClosingTag(t *testing.T) {
	p := New(Options{})
	text := "<get_weather/>"
	parts, err := p.ParseGeneratedText(context.Background(), text, []toolprotocol.Tool{weatherTool()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 1 || parts[0].Kind != toolprotocol.ContentToolCall || parts[0].Input != "{}" {
		t.Fatalf("expected empty-input ToolCall, got %+v", parts)
	}
}

func TestParseGeneratedText_EmptyToolsYieldsSingleTextPart(t *testing.T) {
	p := New(Options{})
	text := "<get_weather><location>Seoul</location></get_weather>"
	parts, err := p.ParseGeneratedText(context.Background(), text, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 1 || parts[0].Kind != toolprotocol.ContentText || parts[0].Text != text {
		t.Fatalf("expected the whole input as a single Text part, got %+v", parts)
	}
}

func TestParseGeneratedText_ProseAroundToolCall(t *testing.T) {
	p := New(Options{})
	text := "Before <get_weather><location>Seoul</location></get_weather> after"
	parts, err := p.ParseGeneratedText(context.Background(), text, []toolprotocol.Tool{weatherTool()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 3 {
		t.Fatalf("expected [Text, ToolCall, Text], got %+v", parts)
	}
	if parts[0].Text != "Before " || parts[2].Text != " after" {
		t.Errorf("got %+v", parts)
	}
}

func TestFormatToolCall_RoundTripsArgumentsAsChildElements(t *testing.T) {
	p := New(Options{})
	out, err := p.FormatToolCall(context.Background(), "get_weather", `{"location":"Seoul"}`)
	if err != nil {
		t.Fatal(err)
	}
	want := "<get_weather><location>Seoul</location></get_weather>"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestFormatToolResponse_EscapesEntitiesAndJSONStringifiesStructuredResult(t *testing.T) {
	p := New(Options{})
	out, err := p.FormatToolResponse(context.Background(), "a&b", map[string]interface{}{"ok": true})
	if err != nil {
		t.Fatal(err)
	}
	want := `<tool_response><tool_name>a&amp;b</tool_name><result>{&quot;ok&quot;:true}</result></tool_response>`
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}
