package heuristic

import (
	"testing"

	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol/coerce"
	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol/xmltokenizer"
)

func TestNormalizeCloseTagsHeuristic(t *testing.T) {
	h := NormalizeCloseTagsHeuristic()
	ctx := &Ctx{RawSegment: "<location>Seoul</ location>"}
	if !h.Applies(ctx) {
		t.Fatal("expected normalize-close-tags to always apply")
	}
	res := h.Run(ctx)
	if *res.RawSegment != "<location>Seoul</location>" {
		t.Errorf("got %q", *res.RawSegment)
	}
}

func TestEscapeInvalidLTHeuristic(t *testing.T) {
	h := EscapeInvalidLTHeuristic()
	ctx := &Ctx{RawSegment: "1 < 2 and <ok></ok>"}
	res := h.Run(ctx)
	if *res.RawSegment != "1 &lt; 2 and <ok></ok>" {
		t.Errorf("got %q", *res.RawSegment)
	}
}

func TestBalanceTagsHeuristic_ClosesUnclosedTagsAtEOF(t *testing.T) {
	h := BalanceTagsHeuristic()
	ctx := &Ctx{RawSegment: "<a><b>text"}
	if !h.Applies(ctx) {
		t.Fatal("expected balance-tags to apply to an unbalanced segment")
	}
	res := h.Run(ctx)
	if *res.RawSegment != "<a><b>text</b></a>" {
		t.Errorf("got %q", *res.RawSegment)
	}
	if !res.Reparse {
		t.Error("expected Reparse=true")
	}
}

func TestBalanceTagsHeuristic_DoesNotApplyToBalancedInput(t *testing.T) {
	h := BalanceTagsHeuristic()
	ctx := &Ctx{RawSegment: "<a><b>text</b></a>"}
	if h.Applies(ctx) {
		t.Fatal("expected balance-tags to not apply to already-balanced input")
	}
}

func TestBalanceTagsHeuristic_StepAfterStatusRule(t *testing.T) {
	h := BalanceTagsHeuristic()
	ctx := &Ctx{RawSegment: "<step>1<status>running</status><step>2<status>done</status>"}
	res := h.Run(ctx)
	want := "<step>1<status>running</status></step><step>2<status>done</status></step>"
	if *res.RawSegment != want {
		t.Errorf("got %q, want %q", *res.RawSegment, want)
	}
}

func TestDedupeShellStringTagsHeuristic(t *testing.T) {
	h := DedupeShellStringTagsHeuristic()
	schemaDesc := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"command":     map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			"description": map[string]interface{}{"type": "string"},
		},
	}
	ctx := &Ctx{
		RawSegment: `<command><item>echo "hello"</item></command><description>First</description><description>Second</description>`,
		Schema:     schemaDesc,
	}
	if !h.Applies(ctx) {
		t.Fatal("expected dedupe-shell-string-tags to apply")
	}
	res := h.Run(ctx)
	want := `<command><item>echo "hello"</item></command><description>Second</description>`
	if *res.RawSegment != want {
		t.Errorf("got %q, want %q", *res.RawSegment, want)
	}
}

func TestDedupeShellStringTagsHeuristic_DoesNotApplyWithoutCommandArray(t *testing.T) {
	h := DedupeShellStringTagsHeuristic()
	schemaDesc := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"file_path": map[string]interface{}{"type": "string"},
			"content":   map[string]interface{}{"type": "string"},
		},
	}
	ctx := &Ctx{
		RawSegment: "<file_path>/x</file_path><content>A</content><content>B</content>",
		Schema:     schemaDesc,
	}
	if h.Applies(ctx) {
		t.Fatal("expected dedupe-shell-string-tags to not apply without a command array property")
	}
}

func TestRepairAgainstSchemaHeuristic(t *testing.T) {
	coercer := coerce.New(xmltokenizer.New())
	h := RepairAgainstSchemaHeuristic(coercer)
	schemaDesc := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"a": map[string]interface{}{"type": "number"},
		},
	}
	ctx := &Ctx{Schema: schemaDesc, Parsed: map[string]interface{}{"a": "10"}}
	res := h.Run(ctx)
	if !res.ParsedSet {
		t.Fatal("expected repair-against-schema to replace the parsed value")
	}
	got := res.Parsed.(map[string]interface{})
	if got["a"] != 10.0 {
		t.Errorf("expected coerced number 10.0, got %v", got["a"])
	}
}

func TestRepairAgainstSchemaHeuristic_NoChangeWhenAlreadyConforming(t *testing.T) {
	coercer := coerce.New(xmltokenizer.New())
	h := RepairAgainstSchemaHeuristic(coercer)
	schemaDesc := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"a": map[string]interface{}{"type": "number"},
		},
	}
	ctx := &Ctx{Schema: schemaDesc, Parsed: map[string]interface{}{"a": 10.0}}
	res := h.Run(ctx)
	if res.ParsedSet {
		t.Fatal("expected no-op result when the parsed value already conforms")
	}
}
