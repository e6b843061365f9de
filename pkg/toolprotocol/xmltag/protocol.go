// Package xmltag implements the XML-like tool-call wire protocol: tool calls
// are embedded as "<name>{child elements}</name>" regions inside otherwise
// free-form model text.
package xmltag

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/digitallysavvy/toolprotocol/pkg/telemetry"
	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol"
	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol/coerce"
	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol/heuristic"
	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol/xmltokenizer"
)

// Options configures a Protocol instance. The zero value is valid and uses
// the default pipeline with the default reparse budget.
type Options struct {
	// Heuristics, when set, merges into the default pipeline by phase.
	Heuristics heuristic.Pipeline

	// Pipeline, when non-nil, replaces the default pipeline outright.
	Pipeline *heuristic.Pipeline

	// MaxReparses bounds the heuristic engine's reparse loop. Defaults to
	// heuristic.DefaultMaxReparses when zero.
	MaxReparses int

	// IDGenerator overrides the default opaque id generator.
	IDGenerator toolprotocol.IDGenerator

	// Tracer overrides the tracer Settings would otherwise select, and
	// forces telemetry on regardless of Settings.IsEnabled.
	Tracer trace.Tracer

	// Settings configures span recording: whether telemetry is on at all,
	// whether raw input/output are attached, and FunctionID/Metadata.
	// Defaults to telemetry.DefaultSettings() (disabled) when nil.
	Settings *telemetry.Settings
}

// Protocol is the XML tool-call protocol. It implements toolprotocol.Protocol.
type Protocol struct {
	tokenizer   xmltokenizer.Tokenizer
	coercer     *coerce.Coercer
	pipeline    heuristic.Pipeline
	maxReparses int
	idGen       toolprotocol.IDGenerator
	tracer      trace.Tracer
	settings    *telemetry.Settings
}

// New constructs a Protocol from opts.
func New(opts Options) *Protocol {
	tok := xmltokenizer.New()
	coercer := coerce.New(tok)

	pipeline := heuristic.DefaultPipeline(coercer)
	if opts.Pipeline != nil {
		pipeline = *opts.Pipeline
	}
	pipeline = pipeline.Merge(opts.Heuristics)

	maxReparses := opts.MaxReparses
	if maxReparses == 0 {
		maxReparses = heuristic.DefaultMaxReparses
	}

	idGen := opts.IDGenerator
	if idGen == nil {
		idGen = toolprotocol.DefaultIDGenerator
	}

	settings := opts.Settings
	if settings == nil {
		settings = telemetry.DefaultSettings()
	}
	if opts.Tracer != nil {
		settings = settings.WithTracer(opts.Tracer).WithEnabled(true)
	}
	tracer := telemetry.GetTracer(settings)

	return &Protocol{
		tokenizer:   tok,
		coercer:     coercer,
		pipeline:    pipeline,
		maxReparses: maxReparses,
		idGen:       idGen,
		tracer:      tracer,
		settings:    settings,
	}
}

func noopOnError(string, toolprotocol.ErrorMeta) {}

func orNoop(onErr toolprotocol.OnErrorFunc) toolprotocol.OnErrorFunc {
	if onErr == nil {
		return noopOnError
	}
	return onErr
}

func toolSchemaIndex(tools []toolprotocol.Tool) map[string]map[string]interface{} {
	index := make(map[string]map[string]interface{}, len(tools))
	for _, t := range tools {
		if t.Name == "" {
			continue
		}
		index[t.Name] = t.InputSchema
	}
	return index
}

func toolNames(tools []toolprotocol.Tool) []string {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		if t.Name == "" {
			continue
		}
		names = append(names, t.Name)
	}
	return names
}
