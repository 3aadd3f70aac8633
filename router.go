package most

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// Transformer reshapes a procedure output on the router's native call path.
// Transformers run in the order they were added. The HTTP adapter never
// applies them: the REST surface carries plain JSON, and transformed
// payloads only exist for callers reaching the router directly.
type Transformer func(ctx context.Context, v any) (any, error)

// Router is a registry of procedures, optionally nested into namespaces.
// It is the adapter's view of the application: procedures carry their Route
// annotation, and the handler walks the registry once at construction.
type Router struct {
	entries        []routerEntry
	byName         map[string]int
	errorFormatter ErrorFormatter
	transformers   []Transformer
}

type routerEntry struct {
	name string
	proc *Procedure
	sub  *Router
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithErrorFormatter sets the formatter applied to error bodies written by
// the HTTP adapter. See ErrorFormatter for what it may and may not change.
func WithErrorFormatter(fn ErrorFormatter) RouterOption {
	return func(r *Router) {
		r.errorFormatter = fn
	}
}

// WithTransformer adds output transformers for the native call path.
func WithTransformer(transformers ...Transformer) RouterOption {
	return func(r *Router) {
		r.transformers = append(r.transformers, transformers...)
	}
}

// NewRouter creates an empty procedure router.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{byName: map[string]int{}}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Query registers a query procedure. The input type must be a struct or
// Void; registration panics otherwise, since it runs during startup and a
// bad type is a programming mistake.
func Query[I, O any](r *Router, name string, route Route, handler func(context.Context, *I) (*O, error)) {
	register(r, name, KindQuery, route, handler)
}

// Mutation registers a mutation procedure. Kind does not restrict the HTTP
// method; the Route annotation alone decides how the procedure is reached.
func Mutation[I, O any](r *Router, name string, route Route, handler func(context.Context, *I) (*O, error)) {
	register(r, name, KindMutation, route, handler)
}

func register[I, O any](r *Router, name string, kind Kind, route Route, handler func(context.Context, *I) (*O, error)) {
	inputType := reflect.TypeFor[I]()
	if inputType.Kind() != reflect.Struct {
		panic(fmt.Errorf("procedure %s: input type %s must be a struct", name, inputType))
	}

	proc := &Procedure{
		Name:       name,
		Kind:       kind,
		Route:      route,
		inputType:  inputType,
		outputType: reflect.TypeFor[O](),
		invoke: func(ctx context.Context, input any) (any, error) {
			typed, ok := input.(*I)
			switch {
			case ok:
			case input == nil:
				// Void input arrives as nil; the handler still gets a
				// well-formed (empty) value.
				typed = new(I)
			default:
				return nil, Errorf(CodeBadRequest, "procedure %s: input must be %T, got %T", name, new(I), input)
			}

			return handler(ctx, typed)
		},
	}
	r.add(routerEntry{name: name, proc: proc})
}

// Mount nests a sub-router under a namespace. Procedure names are
// dot-joined during walks: Mount("greeting", sub) exposes sub's "sayHello"
// as "greeting.sayHello".
func (r *Router) Mount(name string, sub *Router) {
	r.add(routerEntry{name: name, sub: sub})
}

func (r *Router) add(entry routerEntry) {
	if _, exists := r.byName[entry.name]; exists {
		panic(fmt.Errorf("duplicate procedure or namespace %q", entry.name))
	}
	r.byName[entry.name] = len(r.entries)
	r.entries = append(r.entries, entry)
}

// Walk visits every procedure in registration order, recursing into mounted
// namespaces. Names are dot-joined. Returning an error stops the walk.
func (r *Router) Walk(fn func(name string, p *Procedure) error) error {
	return r.walk("", fn)
}

func (r *Router) walk(prefix string, fn func(name string, p *Procedure) error) error {
	for _, entry := range r.entries {
		name := entry.name
		if prefix != "" {
			name = prefix + "." + name
		}
		if entry.sub != nil {
			if err := entry.sub.walk(name, fn); err != nil {
				return err
			}

			continue
		}
		if err := fn(name, entry.proc); err != nil {
			return err
		}
	}

	return nil
}

// Procedure resolves a dotted name to a registered procedure.
func (r *Router) Procedure(name string) (*Procedure, bool) {
	head, rest, nested := strings.Cut(name, ".")
	idx, ok := r.byName[head]
	if !ok {
		return nil, false
	}
	entry := r.entries[idx]
	if nested {
		if entry.sub == nil {
			return nil, false
		}

		return entry.sub.Procedure(rest)
	}
	if entry.proc == nil {
		return nil, false
	}

	return entry.proc, true
}

// Call invokes a procedure by dotted name on the native path, applying the
// router's transformers to the output. This is the parallel transport the
// HTTP adapter does not manage.
func (r *Router) Call(ctx context.Context, name string, input any) (any, error) {
	proc, ok := r.Procedure(name)
	if !ok {
		return nil, Errorf(CodeNotFound, "no procedure named %q", name)
	}

	out, err := proc.invoke(ctx, input)
	if err != nil {
		return nil, err
	}

	return r.Transform(ctx, out)
}

// Transform runs all transformers on a value in the order they were added.
func (r *Router) Transform(ctx context.Context, v any) (any, error) {
	for _, t := range r.transformers {
		var err error
		v, err = t(ctx, v)
		if err != nil {
			return nil, err
		}
	}

	return v, nil
}
