package ai

import (
	"context"
	"time"
)

// Part is one element of a multimodal request. Exactly one of Text or
// Data is set; Data carries raw bytes with an explicit MIME type.
type Part struct {
	Text string
	Data []byte
	MIME string
}

// TextPart builds a plain-text part.
func TextPart(text string) Part { return Part{Text: text} }

// InlinePart builds an inline binary part.
func InlinePart(data []byte, mime string) Part { return Part{Data: data, MIME: mime} }

// FieldType enumerates the property kinds a response schema can hint.
type FieldType string

const (
	FieldString      FieldType = "string"
	FieldStringArray FieldType = "string_array"
)

// Field is one property of a hinted response object.
type Field struct {
	Name        string
	Type        FieldType
	Description string
	Enum        []string
}

// Schema is an advisory description of the JSON object the caller wants
// back. Fields are ordered; Required names a subset of them.
type Schema struct {
	Fields   []Field
	Required []string
}

// Request is a single model invocation. Parts are sent in order.
type Request struct {
	Model             string
	SystemInstruction string
	Parts             []Part
	Schema            *Schema
	WebSearch         bool

	// Timeout bounds the call; on expiry the invocation fails with
	// ErrTimeout wrapped in DeadlineMessage. The upstream call is only
	// abandoned client-side, not cancelled on the provider.
	Timeout         time.Duration
	DeadlineMessage string
}

// WebSource is a web citation the model attached to its answer.
type WebSource struct {
	Title string
	URI   string
}

// GroundingChunk is one citation; only web-backed chunks carry a Web source.
type GroundingChunk struct {
	Web *WebSource
}

// Response carries the raw model text plus any grounding citations.
// The text is advisory: it may be fenced, wrapped, or partial, and
// parsing it is the caller's job.
type Response struct {
	Text      string
	Grounding []GroundingChunk
}

// Gateway invokes the generative model.
type Gateway interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
}
