// Package jsonmarker implements the JSON-in-marker tool-call wire protocol:
// a tool call is a JSON object `{"name":…,"arguments":…}` wrapped between a
// configured start marker and one of one-or-more configured end markers.
package jsonmarker

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/digitallysavvy/toolprotocol/pkg/telemetry"
	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol"
)

// Options configures a Protocol instance. Unlike the XML protocol, every
// marker is required: there is no sensible zero value, so New validates them
// and returns *toolprotocol.ErrInvalidOptions when one is missing.
type Options struct {
	// ToolCallStart delimits the beginning of an inbound/outbound tool call.
	ToolCallStart string

	// ToolCallEnd is one or more markers that close a tool call. When more
	// than one is configured, the earliest complete match in the stream
	// wins; ties at the same index resolve to the first-listed marker. The
	// first entry is also the marker used when formatting outbound calls.
	ToolCallEnd []string

	// ToolResponseStart/ToolResponseEnd delimit an outbound tool response.
	// Unlike ToolCallEnd these are single markers — the spec names no
	// alternate-marker variant for responses.
	ToolResponseStart string
	ToolResponseEnd   string

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

// Protocol is the JSON-in-marker tool-call protocol. It implements
// toolprotocol.Protocol.
type Protocol struct {
	toolCallStart     string
	toolCallEnd       []string
	toolResponseStart string
	toolResponseEnd   string

	idGen    toolprotocol.IDGenerator
	tracer   trace.Tracer
	settings *telemetry.Settings
}

// New constructs a Protocol from opts, validating that every marker is
// present.
func New(opts Options) (*Protocol, error) {
	if opts.ToolCallStart == "" {
		return nil, &toolprotocol.ErrInvalidOptions{Reason: "toolCallStart must not be empty"}
	}
	if len(opts.ToolCallEnd) == 0 {
		return nil, &toolprotocol.ErrInvalidOptions{Reason: "toolCallEnd must configure at least one marker"}
	}
	for _, m := range opts.ToolCallEnd {
		if m == "" {
			return nil, &toolprotocol.ErrInvalidOptions{Reason: "toolCallEnd markers must not be empty"}
		}
	}
	if opts.ToolResponseStart == "" {
		return nil, &toolprotocol.ErrInvalidOptions{Reason: "toolResponseStart must not be empty"}
	}
	if opts.ToolResponseEnd == "" {
		return nil, &toolprotocol.ErrInvalidOptions{Reason: "toolResponseEnd must not be empty"}
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

	ends := make([]string, len(opts.ToolCallEnd))
	copy(ends, opts.ToolCallEnd)

	return &Protocol{
		toolCallStart:     opts.ToolCallStart,
		toolCallEnd:       ends,
		toolResponseStart: opts.ToolResponseStart,
		toolResponseEnd:   opts.ToolResponseEnd,
		idGen:             idGen,
		tracer:            tracer,
		settings:          settings,
	}, nil
}

func noopOnError(string, toolprotocol.ErrorMeta) {}

func orNoop(onErr toolprotocol.OnErrorFunc) toolprotocol.OnErrorFunc {
	if onErr == nil {
		return noopOnError
	}
	return onErr
}

func toolNameSet(tools []toolprotocol.Tool) map[string]bool {
	if len(tools) == 0 {
		return nil
	}
	names := make(map[string]bool, len(tools))
	for _, t := range tools {
		if t.Name == "" {
			continue
		}
		names[t.Name] = true
	}
	return names
}
