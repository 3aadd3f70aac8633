package most

import (
	"context"
	"net/http"
	"strings"

	"github.com/talav/negotiation"
)

// CreateContextFunc builds the opaque per-request context value. It runs
// after routing, content-type, size, and JSON-parse checks have passed, so
// requests rejected by those stages never create a context.
type CreateContextFunc func(w http.ResponseWriter, r *http.Request) (any, error)

// MetaParams describes a finished request to the response-meta hook.
type MetaParams struct {
	// Path is the dotted procedure name; empty when routing failed.
	Path string

	// Type is the procedure kind; empty when routing failed.
	Type Kind

	// Ctx is the value produced by the context factory, if it ran.
	Ctx any

	// Data is the procedure output on success.
	Data any

	// Errors holds the failure, if any.
	Errors []error
}

// Meta overrides parts of the response. Zero values leave the defaults in
// place; headers are added to whatever the adapter already set.
type Meta struct {
	Status  int
	Headers http.Header
}

// ResponseMetaFunc runs for every procedure response that writes to the
// client, on success and error paths alike, but never for the HEAD warmup.
// Responses from the document endpoints do not run it.
type ResponseMetaFunc func(p MetaParams) Meta

// ErrorParams describes a failed request to the error hook.
type ErrorParams struct {
	Error *Error

	// Type and Path identify the procedure; both are empty when the
	// failure happened before routing resolved.
	Type Kind
	Path string

	// Input is the typed input if validation succeeded, otherwise nil.
	Input any

	// Ctx is the value produced by the context factory, if it ran.
	Ctx any

	Req *http.Request
}

// OnErrorFunc observes failures. It fires exactly once per failed request
// and never on success paths or HEAD warmups.
type OnErrorFunc func(p ErrorParams)

// Handler adapts a procedure Router to a REST surface. It routes each
// request to exactly one annotated procedure, decodes and validates the
// merged input, invokes the procedure, and serializes the outcome.
//
// The handler holds no mutable per-request state: the route table is built
// once in NewHandler and shared read-only across requests.
type Handler struct {
	router        *Router
	routes        *routeTable
	createContext CreateContextFunc
	responseMeta  ResponseMetaFunc
	onError       OnErrorFunc
	maxBodySize   int64
	config        *Config
	document      any
	encoders      map[string]marshalFunc
	negotiator    *negotiation.Negotiator
	docState      *docState
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithCreateContext sets the per-request context factory.
func WithCreateContext(fn CreateContextFunc) HandlerOption {
	return func(h *Handler) {
		h.createContext = fn
	}
}

// WithResponseMeta sets the response metadata hook.
func WithResponseMeta(fn ResponseMetaFunc) HandlerOption {
	return func(h *Handler) {
		h.responseMeta = fn
	}
}

// WithOnError sets the error observation hook.
func WithOnError(fn OnErrorFunc) HandlerOption {
	return func(h *Handler) {
		h.onError = fn
	}
}

// WithMaxBodySize caps request bodies at n bytes. Zero means unlimited.
func WithMaxBodySize(n int64) HandlerOption {
	return func(h *Handler) {
		h.maxBodySize = n
	}
}

// WithConfig sets the endpoint configuration for document serving.
func WithConfig(config *Config) HandlerOption {
	return func(h *Handler) {
		h.config = config
	}
}

// WithDocument sets the OpenAPI document served at the configured path.
// The handler consumes the document as-is; generating one from the router
// is the caller's concern.
func WithDocument(doc any) HandlerOption {
	return func(h *Handler) {
		h.document = doc
	}
}

// NewHandler builds the REST adapter for a router. Construction walks the
// router once and fails with a diagnostic naming the offending procedure if
// any binding is mis-declared.
func NewHandler(router *Router, opts ...HandlerOption) (*Handler, error) {
	routes, err := buildRouteTable(router)
	if err != nil {
		return nil, err
	}

	h := &Handler{
		router:     router,
		routes:     routes,
		encoders:   defaultEncoders(),
		negotiator: negotiation.NewMediaNegotiator(),
		docState:   &docState{},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.config == nil {
		h.config = DefaultConfig()
	}

	return h, nil
}

// requestState accumulates what the pipeline has produced so far, for the
// hooks that run at the end.
type requestState struct {
	binding *binding
	ctx     any
	input   any
}

func (s *requestState) path() string {
	if s.binding == nil {
		return ""
	}

	return s.binding.proc.Name
}

func (s *requestState) kind() Kind {
	if s.binding == nil {
		return ""
	}

	return s.binding.proc.Kind
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// HEAD warmup: reply before any routing, decoding, or hook runs.
	if strings.ToUpper(r.Method) == http.MethodHead {
		w.WriteHeader(http.StatusNoContent)

		return
	}

	if h.serveDocs(w, r) {
		return
	}

	state := &requestState{}

	b, params := h.routes.lookup(r.Method, r.URL.EscapedPath())
	if b == nil {
		h.fail(w, r, state, NewError(CodeNotFound, "Not found"))

		return
	}
	state.binding = b

	if err := checkContentType(b, r); err != nil {
		h.fail(w, r, state, err)

		return
	}

	data, err := readBody(w, r, h.maxBodySize)
	if err != nil {
		h.fail(w, r, state, err)

		return
	}

	body, err := parseBody(data)
	if err != nil {
		h.fail(w, r, state, err)

		return
	}

	callCtx := r.Context()
	if h.createContext != nil {
		ctx, ctxErr := h.createContext(w, r)
		if ctxErr != nil {
			h.fail(w, r, state, wrapError(CodeInternalServerError, ctxErr.Error(), ctxErr))

			return
		}
		state.ctx = ctx
		callCtx = withContextValue(callCtx, ctx)
	}

	var candidate any
	var sources map[string]Source
	if !b.input.IsVoid() {
		candidate, sources = buildCandidate(r.URL.Query(), params, body)
	}

	input, issues := b.input.Parse(candidate, sources)
	if len(issues) > 0 {
		h.fail(w, r, state, &Error{
			Code:    CodeBadRequest,
			Message: "Input validation failed",
			Issues:  issues,
		})

		return
	}
	state.input = input

	output, invokeErr := b.proc.invoke(callCtx, input)
	if invokeErr != nil {
		h.fail(w, r, state, AsError(invokeErr))

		return
	}

	if issues := b.output.Validate(output); len(issues) > 0 {
		h.fail(w, r, state, NewError(CodeInternalServerError, "Output validation failed"))

		return
	}

	h.writeResult(w, state, output)
}

// fail completes a request on the error path: the hook fires exactly once,
// response metadata still runs, and the response always reaches the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, state *requestState, err *Error) {
	if h.onError != nil {
		h.onError(ErrorParams{
			Error: err,
			Type:  state.kind(),
			Path:  state.path(),
			Input: state.input,
			Ctx:   state.ctx,
			Req:   r,
		})
	}

	h.writeError(w, r, state, err)
}

type contextKey string

const contextValueKey contextKey = "most.context"

func withContextValue(ctx context.Context, v any) context.Context {
	return context.WithValue(ctx, contextValueKey, v)
}

// ContextValue retrieves the value produced by the handler's context
// factory from a procedure's context. Returns nil when no factory is
// configured.
func ContextValue(ctx context.Context) any {
	return ctx.Value(contextValueKey)
}
