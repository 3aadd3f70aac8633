package most

import (
	"fmt"
	"net/http"
	"reflect"
	"slices"
	"strings"
)

// allowedMethods are the HTTP methods a Route annotation may declare.
var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// binding associates one annotated procedure with its compiled matcher and
// schemas. Bindings are built once at handler construction and immutable
// afterwards, so the table is shared across requests without locking.
type binding struct {
	proc         *Procedure
	method       string
	matcher      *pathMatcher
	contentTypes map[string]bool
	input        InputSchema
	output       OutputSchema
}

// routeTable is a flat list of bindings. The set of routes is small and
// shallow, so a linear scan over compiled matchers beats a trie and keeps
// resolution deterministic for the declared set.
type routeTable struct {
	bindings []*binding
}

// buildRouteTable walks the router and compiles a binding for every
// procedure. Mis-declared procedures fail construction with a diagnostic
// naming the offender, so they cannot silently ship.
func buildRouteTable(router *Router) (*routeTable, error) {
	table := &routeTable{}
	structures := map[string]string{}

	err := router.Walk(func(name string, proc *Procedure) error {
		method := strings.ToUpper(proc.Route.Method)
		if !allowedMethods[method] {
			return fmt.Errorf("procedure %s: unsupported method %q", name, proc.Route.Method)
		}

		matcher, err := compilePath(proc.Route.Path)
		if err != nil {
			return fmt.Errorf("procedure %s: %w", name, err)
		}

		if proc.outputType.Kind() != reflect.Struct {
			return fmt.Errorf("procedure %s: output schema must be an object, got %s", name, proc.outputType)
		}

		input, err := inputSchemaFor(name, proc, matcher.params)
		if err != nil {
			return err
		}

		key := method + " " + matcher.structure()
		if other, dup := structures[key]; dup {
			return fmt.Errorf("procedure %s: route %s %s is already declared by procedure %s",
				name, method, proc.Route.Path, other)
		}
		structures[key] = name

		table.bindings = append(table.bindings, &binding{
			proc:         proc,
			method:       method,
			matcher:      matcher,
			contentTypes: contentTypeSet(proc.Route.ContentTypes),
			input:        input,
			output:       outputSchemaFor(proc),
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return table, nil
}

func inputSchemaFor(name string, proc *Procedure, params []string) (InputSchema, error) {
	if proc.inputType == voidType {
		if len(params) > 0 {
			return nil, fmt.Errorf("procedure %s: path parameter %q has no matching input field", name, params[0])
		}

		return voidSchema{}, nil
	}

	schema := newStructSchema(proc.inputType)
	for _, param := range params {
		if !slices.Contains(schema.Keys(), param) {
			return nil, fmt.Errorf("procedure %s: path parameter %q has no matching input field", name, param)
		}
	}

	return schema, nil
}

func outputSchemaFor(proc *Procedure) OutputSchema {
	if proc.outputType == voidType {
		return voidSchema{}
	}

	return newStructOutputSchema(proc.outputType)
}

// contentTypeSet normalizes the declared content types; an empty
// declaration defaults to application/json.
func contentTypeSet(declared []string) map[string]bool {
	set := make(map[string]bool, len(declared))
	for _, ct := range declared {
		set[strings.ToLower(strings.TrimSpace(ct))] = true
	}
	if len(set) == 0 {
		set[contentTypeJSON] = true
	}

	return set
}

// lookup returns the first binding whose matcher accepts the path, with the
// decoded path parameters. Method comparison is case-insensitive.
func (t *routeTable) lookup(method, path string) (*binding, map[string]string) {
	method = strings.ToUpper(method)
	for _, b := range t.bindings {
		if b.method != method {
			continue
		}
		if params, ok := b.matcher.match(path); ok {
			return b, params
		}
	}

	return nil, nil
}
