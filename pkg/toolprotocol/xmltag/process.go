package xmltag

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/digitallysavvy/toolprotocol/pkg/telemetry"
	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol"
	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol/heuristic"
)

// processCall runs the full heuristic pipeline over rawSegment for toolName
// against schemaDesc. On success it returns the canonical JSON encoding of
// the coerced arguments and true. On failure it invokes onErr with the
// appropriate taxonomy message (§7) and returns false.
func (p *Protocol) processCall(toolName, rawSegment string, schemaDesc map[string]interface{}, onErr toolprotocol.OnErrorFunc) (string, bool) {
	hctx := &heuristic.Ctx{
		ToolName:   toolName,
		Schema:     schemaDesc,
		RawSegment: rawSegment,
		Meta:       heuristic.Meta{OriginalContent: rawSegment},
	}

	parse := func(raw string, schema map[string]interface{}) (interface{}, error) {
		result, err := telemetry.RecordSpan(context.Background(), p.tracer, telemetry.SpanOptions{
			Name:        "toolprotocol.heuristic.parse",
			Attributes:  p.settings.Apply(telemetry.ParseAttributes(toolName, hctx.ParseCount+1), raw, ""),
			EndWhenDone: true,
		}, func(_ context.Context, span trace.Span) (interface{}, error) {
			parsed, err := parseSegment(p.tokenizer, toolName, raw, schema)
			if err == nil && p.settings.IsEnabled && p.settings.RecordOutputs {
				if encoded, mErr := json.Marshal(parsed); mErr == nil {
					span.SetAttributes(attribute.String("toolprotocol.raw_output", string(encoded)))
				}
			}
			return parsed, err
		})
		return result, err
	}

	heuristic.Run(hctx, p.pipeline, p.maxReparses, parse)

	toolprotocol.Logf(toolprotocol.DebugStream, "xmltag: parse tool=%q raw=%q parsed=%v errors=%v", toolName, rawSegment, hctx.Parsed, hctx.Errors)

	if hctx.Parsed == nil {
		var cause error
		if len(hctx.Errors) > 0 {
			cause = hctx.Errors[len(hctx.Errors)-1]
		}

		var msg string
		if dup, ok := cause.(*toolprotocol.ErrDuplicateStringTag); ok {
			msg = dup.Error()
		} else {
			msg = (&toolprotocol.ErrMalformedSegment{ToolName: toolName, RawSegment: rawSegment, Cause: cause}).Error()
		}

		orNoop(onErr)(msg, toolprotocol.ErrorMeta{ToolName: toolName, RawSegment: rawSegment, Cause: cause})
		return "", false
	}

	encoded, err := json.Marshal(hctx.Parsed)
	if err != nil {
		orNoop(onErr)(err.Error(), toolprotocol.ErrorMeta{ToolName: toolName, RawSegment: rawSegment, Cause: err})
		return "", false
	}

	toolprotocol.Logf(toolprotocol.DebugParse, "xmltag: parsed tool=%q input=%s", toolName, encoded)
	return string(encoded), true
}
