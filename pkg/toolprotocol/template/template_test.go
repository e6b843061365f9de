package template

import (
	"os"
	"strings"
	"testing"
)

func TestLoadCatalog_ParsesYAMLFixture(t *testing.T) {
	data, err := os.ReadFile("testdata/tools.yaml")
	if err != nil {
		t.Fatal(err)
	}
	tools, err := LoadCatalog(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools))
	}
	if tools[0].Name != "get_weather" || tools[1].Name != "send_email" {
		t.Errorf("got %+v", tools)
	}
	if tools[0].InputSchema["type"] != "object" {
		t.Errorf("expected parsed parameters, got %v", tools[0].InputSchema)
	}
}

func TestPrompts_EmbedToolsJSONAndMarkerConventions(t *testing.T) {
	data, err := os.ReadFile("testdata/tools.yaml")
	if err != nil {
		t.Fatal(err)
	}
	tools, err := LoadCatalog(data)
	if err != nil {
		t.Fatal(err)
	}

	xmlOut, err := XMLPrompt(tools)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(xmlOut, "get_weather") || !strings.Contains(xmlOut, "<tool_name>") {
		t.Errorf("XMLPrompt missing expected content: %s", xmlOut)
	}

	hermesOut, err := HermesPrompt(tools)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(hermesOut, "<tools>") || !strings.Contains(hermesOut, "<tool_call>") {
		t.Errorf("HermesPrompt missing expected content: %s", hermesOut)
	}

	gemmaOut, err := GemmaPrompt(tools)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(gemmaOut, "```tool_call") {
		t.Errorf("GemmaPrompt missing expected content: %s", gemmaOut)
	}
}
