package most

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

// Void is the input or output type of a procedure that accepts or produces
// nothing. A void input schema accepts only the absence of a value; a void
// output yields an empty response body.
type Void struct{}

var (
	voidType = reflect.TypeOf(Void{})
	timeType = reflect.TypeOf(time.Time{})
)

// Issue describes a single schema violation. The shape follows the common
// validator convention: a machine code, the JSON path to the offending
// value, and a human message, plus expected/received type names for type
// mismatches.
type Issue struct {
	Code     string `json:"code"`
	Expected string `json:"expected,omitempty"`
	Received string `json:"received,omitempty"`
	Path     []any  `json:"path"`
	Message  string `json:"message"`
}

// Source records which input plane produced a candidate key. Only string
// values from the URL planes are eligible for primitive coercion; body
// values are already typed by JSON.
type Source int

const (
	SourceQuery Source = iota
	SourcePath
	SourceBody
)

// InputSchema validates a candidate input and produces the typed value
// passed to the procedure.
type InputSchema interface {
	// Parse checks the candidate and returns the typed input. A non-empty
	// issue list means the candidate was rejected.
	Parse(candidate any, sources map[string]Source) (any, []Issue)

	// Keys returns the top-level keys the schema declares.
	Keys() []string

	// IsVoid reports whether the schema accepts only absence of input.
	IsVoid() bool
}

// OutputSchema validates a procedure's output before serialization.
type OutputSchema interface {
	Validate(v any) []Issue

	// IsVoid reports whether the schema produces no response body.
	IsVoid() bool
}

// nativeStringCoercion reports whether the configured decoder already turns
// string-shaped leaves into their declared primitive types. Detected once at
// load time; when absent, the struct schema turns on the decoder's weak
// typing, which converts URL-plane string leaves while decoding.
var nativeStringCoercion = detectNativeCoercion()

func detectNativeCoercion() bool {
	var probe struct {
		N int `json:"n"`
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &probe,
	})
	if err != nil {
		return false
	}

	return dec.Decode(map[string]any{"n": "9"}) == nil && probe.N == 9
}

// structValidator runs `validate` struct tags after structural decoding.
// Field names in reported issues follow the json tag, matching the paths
// used by type issues.
var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}

		return name
	})

	return v
}

// schemaField is one top-level or nested struct field as seen by the
// candidate walk.
type schemaField struct {
	name     string
	typ      reflect.Type
	required bool
}

// structSchema validates merged candidates against a reflected struct type.
type structSchema struct {
	typ      reflect.Type
	fields   []schemaField
	keys     []string
	validate *validator.Validate
}

func newStructSchema(typ reflect.Type) *structSchema {
	fields := collectFields(typ)
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.name)
	}

	return &structSchema{
		typ:      typ,
		fields:   fields,
		keys:     keys,
		validate: structValidator,
	}
}

func collectFields(typ reflect.Type) []schemaField {
	fields := make([]schemaField, 0, typ.NumField())
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}
		fields = append(fields, schemaField{
			name: name,
			typ:  field.Type,
			// Pointer fields are optional; everything else is required.
			required: field.Type.Kind() != reflect.Pointer,
		})
	}

	return fields
}

func (s *structSchema) Keys() []string { return s.keys }

func (s *structSchema) IsVoid() bool { return false }

// Parse walks the candidate against the declared fields, then decodes it
// into a fresh struct value and runs tag validation on the result.
func (s *structSchema) Parse(candidate any, sources map[string]Source) (any, []Issue) {
	if candidate == nil {
		candidate = map[string]any{}
	}
	m, ok := candidate.(map[string]any)
	if !ok {
		return nil, []Issue{typeIssue("object", receivedName(candidate), nil)}
	}

	issues := s.checkFields(s.fields, m, sources, true, nil)
	if len(issues) > 0 {
		return nil, issues
	}

	out := reflect.New(s.typ)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out.Interface(),
		WeaklyTypedInput: !nativeStringCoercion,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
	})
	if err != nil {
		return nil, []Issue{{Code: "custom", Path: []any{}, Message: err.Error()}}
	}
	if err := dec.Decode(m); err != nil {
		return nil, []Issue{{Code: "custom", Path: []any{}, Message: err.Error()}}
	}

	if issues := validateTags(s.validate, out.Interface()); len(issues) > 0 {
		return nil, issues
	}

	return out.Interface(), nil
}

// checkFields verifies presence and type of every declared field. The
// sources map applies at the top level, where candidate keys still remember
// which plane they came from; nested values inherit their parent's
// coercion eligibility through defaultCoerce.
func (s *structSchema) checkFields(fields []schemaField, m map[string]any, sources map[string]Source, defaultCoerce bool, path []any) []Issue {
	var issues []Issue
	for _, field := range fields {
		fieldPath := childPath(path, field.name)
		value, present := m[field.name]
		if !present {
			if field.required {
				issues = append(issues, Issue{
					Code:     "invalid_type",
					Expected: expectedName(field.typ),
					Received: "undefined",
					Path:     fieldPath,
					Message:  "Required",
				})
			}

			continue
		}
		coerce := defaultCoerce
		if sources != nil {
			coerce = sources[field.name] != SourceBody
		}
		issues = append(issues, s.checkValue(value, field.typ, coerce, fieldPath)...)
	}

	return issues
}

// checkValue type-checks one candidate value against a declared leaf or
// container type. Coercion of string-shaped values applies only when the
// value came from the URL planes.
func (s *structSchema) checkValue(v any, typ reflect.Type, coerce bool, path []any) []Issue {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	if typ == timeType {
		return checkDate(v, coerce, path)
	}

	switch typ.Kind() {
	case reflect.Interface:
		return nil

	case reflect.String:
		if _, ok := v.(string); ok {
			return nil
		}

		return []Issue{typeIssue("string", receivedName(v), path)}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return checkNumber(v, coerce, path)

	case reflect.Bool:
		return checkBool(v, coerce, path)

	case reflect.Slice, reflect.Array:
		return s.checkSlice(v, typ.Elem(), coerce, path)

	case reflect.Map:
		return s.checkMap(v, typ.Elem(), coerce, path)

	case reflect.Struct:
		m, ok := v.(map[string]any)
		if !ok {
			return []Issue{typeIssue("object", receivedName(v), path)}
		}

		return s.checkFields(collectFields(typ), m, nil, coerce, path)

	default:
		return nil
	}
}

func (s *structSchema) checkSlice(v any, elem reflect.Type, coerce bool, path []any) []Issue {
	var issues []Issue
	switch val := v.(type) {
	case []string:
		for i, item := range val {
			issues = append(issues, s.checkValue(item, elem, coerce, childPath(path, i))...)
		}
	case []any:
		for i, item := range val {
			issues = append(issues, s.checkValue(item, elem, coerce, childPath(path, i))...)
		}
	default:
		// A single URL-plane occurrence may stand in for a one-element
		// array; the weak decoder wraps it the same way.
		if coerce {
			return s.checkValue(v, elem, coerce, path)
		}

		return []Issue{typeIssue("array", receivedName(v), path)}
	}

	return issues
}

func (s *structSchema) checkMap(v any, elem reflect.Type, coerce bool, path []any) []Issue {
	m, ok := v.(map[string]any)
	if !ok {
		return []Issue{typeIssue("object", receivedName(v), path)}
	}
	var issues []Issue
	for key, value := range m {
		issues = append(issues, s.checkValue(value, elem, coerce, childPath(path, key))...)
	}

	return issues
}

func checkNumber(v any, coerce bool, path []any) []Issue {
	switch val := v.(type) {
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return nil
	case string:
		if coerce {
			if _, err := strconv.ParseFloat(val, 64); err == nil {
				return nil
			}
		}

		return []Issue{typeIssue("number", "string", path)}
	default:
		return []Issue{typeIssue("number", receivedName(v), path)}
	}
}

func checkBool(v any, coerce bool, path []any) []Issue {
	switch val := v.(type) {
	case bool:
		return nil
	case string:
		if coerce {
			if _, err := strconv.ParseBool(val); err == nil {
				return nil
			}
		}

		return []Issue{typeIssue("boolean", "string", path)}
	default:
		return []Issue{typeIssue("boolean", receivedName(v), path)}
	}
}

func checkDate(v any, coerce bool, path []any) []Issue {
	val, ok := v.(string)
	if !ok {
		return []Issue{typeIssue("date", receivedName(v), path)}
	}
	if _, err := time.Parse(time.RFC3339, val); err != nil {
		return []Issue{{Code: "invalid_date", Path: path, Message: "Invalid date"}}
	}

	return nil
}

// validateTags runs `validate` struct tags and reports failures as issues
// whose code is the failing tag.
func validateTags(v *validator.Validate, value any) []Issue {
	err := v.Struct(value)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []Issue{{Code: "custom", Path: []any{}, Message: err.Error()}}
	}

	issues := make([]Issue, len(validationErrors))
	for i, e := range validationErrors {
		issues[i] = Issue{
			Code:    e.Tag(),
			Path:    []any{e.Field()},
			Message: e.Error(),
		}
	}

	return issues
}

// voidSchema accepts only the absence of a value.
type voidSchema struct{}

func (voidSchema) Keys() []string { return nil }

func (voidSchema) IsVoid() bool { return true }

func (voidSchema) Parse(candidate any, _ map[string]Source) (any, []Issue) {
	if candidate != nil {
		return nil, []Issue{typeIssue("void", receivedName(candidate), nil)}
	}

	return nil, nil
}

func (voidSchema) Validate(v any) []Issue { return nil }

// structOutputSchema validates typed procedure outputs. The structural
// shape is guaranteed by the handler signature, so validation covers
// presence and `validate` tags only.
type structOutputSchema struct {
	typ      reflect.Type
	validate *validator.Validate
}

func newStructOutputSchema(typ reflect.Type) *structOutputSchema {
	return &structOutputSchema{typ: typ, validate: structValidator}
}

func (s *structOutputSchema) IsVoid() bool { return false }

func (s *structOutputSchema) Validate(v any) []Issue {
	if v == nil {
		return []Issue{typeIssue("object", "undefined", nil)}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return []Issue{typeIssue("object", "null", nil)}
	}

	return validateTags(s.validate, v)
}

func typeIssue(expected, received string, path []any) Issue {
	if path == nil {
		path = []any{}
	}

	return Issue{
		Code:     "invalid_type",
		Expected: expected,
		Received: received,
		Path:     path,
		Message:  "Expected " + expected + ", received " + received,
	}
}

// receivedName names a candidate value the way validator issues do.
func receivedName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return "number"
	case []any, []string:
		return "array"
	case map[string]any:
		return "object"
	default:
		return reflect.TypeOf(v).Kind().String()
	}
}

// expectedName names a declared Go type in validator vocabulary.
func expectedName(typ reflect.Type) string {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == timeType {
		return "date"
	}

	switch typ.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return typ.String()
	}
}

// childPath extends an issue path without sharing the parent's backing
// array across siblings.
func childPath(path []any, segment any) []any {
	next := make([]any, 0, len(path)+1)
	next = append(next, path...)

	return append(next, segment)
}
