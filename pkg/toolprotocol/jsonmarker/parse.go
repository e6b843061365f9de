package jsonmarker

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/digitallysavvy/toolprotocol/pkg/jsonparser"
	"github.com/digitallysavvy/toolprotocol/pkg/telemetry"
	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol"
)

// parsePayload reads payload as relaxed JSON and requires it to have shape
// {name: string, arguments: any}. names, when non-empty, restricts accepted
// tool names to the declared set; an empty/nil names trusts any name, since
// unlike the XML protocol a marker carries no declared tool identity of its
// own. On success it returns the tool name and the canonical JSON encoding
// of arguments (defaulting to "{}" when absent or null).
func (p *Protocol) parsePayload(ctx context.Context, payload string, names map[string]bool) (string, string, error) {
	value, err := telemetry.RecordSpan(ctx, p.tracer, telemetry.SpanOptions{
		Name:        "toolprotocol.jsonmarker.parse",
		Attributes:  p.settings.Apply(telemetry.ParseAttributes("", 1), payload, ""),
		EndWhenDone: true,
	}, func(_ context.Context, span trace.Span) (interface{}, error) {
		v, _, err := jsonparser.ParseRelaxed(payload, jsonparser.ReadOptions{
			Mode:          jsonparser.ModeRelaxed,
			DuplicateKeys: jsonparser.DuplicateKeyLastWins,
		})
		if err == nil && p.settings.IsEnabled && p.settings.RecordOutputs {
			if encoded, mErr := json.Marshal(v); mErr == nil {
				span.SetAttributes(attribute.String("toolprotocol.raw_output", string(encoded)))
			}
		}
		return v, err
	})
	if err != nil {
		return "", "", err
	}

	obj, ok := value.(map[string]interface{})
	if !ok {
		return "", "", fmt.Errorf("jsonmarker: payload is not a JSON object")
	}

	name, ok := obj["name"].(string)
	if !ok || name == "" {
		return "", "", fmt.Errorf(`jsonmarker: payload missing string "name"`)
	}

	if len(names) > 0 && !names[name] {
		return "", "", &toolprotocol.ErrUnknownTool{ToolName: name}
	}

	args, hasArgs := obj["arguments"]
	if !hasArgs || args == nil {
		args = map[string]interface{}{}
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return "", "", err
	}

	return name, string(encoded), nil
}

// errorName recovers the tool name from a parsePayload error when available,
// for ErrorMeta; most failure modes never got far enough to see one.
func errorName(err error) string {
	if unknown, ok := err.(*toolprotocol.ErrUnknownTool); ok {
		return unknown.ToolName
	}
	return ""
}
