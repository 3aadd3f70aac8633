package most

import (
	"context"
	"reflect"
)

// Kind distinguishes queries from mutations. It is informational only: the
// HTTP method a procedure answers to comes from its Route annotation.
type Kind string

const (
	KindQuery    Kind = "query"
	KindMutation Kind = "mutation"
)

// Route annotates a procedure with its REST surface.
type Route struct {
	// Method is the HTTP method: GET, POST, PUT, PATCH, or DELETE.
	Method string

	// Path is the URL template, beginning with "/". Placeholder segments
	// use "{name}" and must name top-level input fields.
	Path string

	// ContentTypes lists the accepted request content types for body
	// methods. Defaults to ["application/json"]. Only application/json
	// bodies are ever decoded; declaring anything else effectively
	// disables the body for that procedure.
	ContentTypes []string
}

// Procedure is one registered operation: its identity, annotation, schema
// types, and the transport-free handler.
type Procedure struct {
	// Name is the dotted procedure name relative to its router.
	Name string

	Kind  Kind
	Route Route

	inputType  reflect.Type
	outputType reflect.Type

	invoke func(ctx context.Context, input any) (any, error)
}

// InputType returns the declared input struct type (Void for procedures
// without input).
func (p *Procedure) InputType() reflect.Type { return p.inputType }

// OutputType returns the declared output struct type.
func (p *Procedure) OutputType() reflect.Type { return p.outputType }
