package most

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileInput struct {
	Name   string     `json:"name"`
	Age    int        `json:"age"`
	Active bool       `json:"active"`
	Note   *string    `json:"note"`
	Since  *time.Time `json:"since"`
	Tags   []string   `json:"tags"`
}

func profileSchema() *structSchema {
	return newStructSchema(reflect.TypeOf(profileInput{}))
}

func urlSources(keys ...string) map[string]Source {
	sources := make(map[string]Source, len(keys))
	for _, k := range keys {
		sources[k] = SourceQuery
	}

	return sources
}

func TestStructSchema_Keys(t *testing.T) {
	assert.Equal(t, []string{"name", "age", "active", "note", "since", "tags"}, profileSchema().Keys())
}

func TestStructSchema_CoercesURLPlaneStrings(t *testing.T) {
	candidate := map[string]any{
		"name":   "Lily",
		"age":    "30",
		"active": "true",
		"since":  "2024-05-01T10:00:00Z",
		"tags":   []string{"a", "b"},
	}

	parsed, issues := profileSchema().Parse(candidate, urlSources("name", "age", "active", "since", "tags"))
	require.Empty(t, issues)

	input := parsed.(*profileInput)
	assert.Equal(t, "Lily", input.Name)
	assert.Equal(t, 30, input.Age)
	assert.True(t, input.Active)
	require.NotNil(t, input.Since)
	assert.Equal(t, 2024, input.Since.Year())
	assert.Equal(t, []string{"a", "b"}, input.Tags)
	assert.Nil(t, input.Note)
}

func TestStructSchema_SingleValueWrapsIntoSlice(t *testing.T) {
	candidate := map[string]any{
		"name":   "x",
		"age":    "1",
		"active": "false",
		"tags":   "solo",
	}

	parsed, issues := profileSchema().Parse(candidate, urlSources("name", "age", "active", "tags"))
	require.Empty(t, issues)
	assert.Equal(t, []string{"solo"}, parsed.(*profileInput).Tags)
}

func TestStructSchema_BodyValuesAreNotCoerced(t *testing.T) {
	candidate := map[string]any{
		"name":   "x",
		"age":    "30",
		"active": true,
		"tags":   []any{"a"},
	}
	sources := map[string]Source{
		"name": SourceBody, "age": SourceBody, "active": SourceBody, "tags": SourceBody,
	}

	_, issues := profileSchema().Parse(candidate, sources)
	require.Len(t, issues, 1)
	assert.Equal(t, Issue{
		Code:     "invalid_type",
		Expected: "number",
		Received: "string",
		Path:     []any{"age"},
		Message:  "Expected number, received string",
	}, issues[0])
}

func TestStructSchema_MissingRequired(t *testing.T) {
	_, issues := profileSchema().Parse(map[string]any{}, nil)

	// Pointer fields are optional; the four value fields are required.
	require.Len(t, issues, 4)
	assert.Equal(t, "Required", issues[0].Message)
	assert.Equal(t, "undefined", issues[0].Received)
}

func TestStructSchema_UncoercibleString(t *testing.T) {
	candidate := map[string]any{
		"name":   "x",
		"age":    "not-a-number",
		"active": "true",
		"tags":   []string{},
	}

	_, issues := profileSchema().Parse(candidate, urlSources("name", "age", "active", "tags"))
	require.Len(t, issues, 1)
	assert.Equal(t, "invalid_type", issues[0].Code)
	assert.Equal(t, []any{"age"}, issues[0].Path)
}

func TestStructSchema_InvalidDate(t *testing.T) {
	candidate := map[string]any{
		"name":   "x",
		"age":    "1",
		"active": "true",
		"since":  "yesterday",
		"tags":   []string{},
	}

	_, issues := profileSchema().Parse(candidate, urlSources("name", "age", "active", "since", "tags"))
	require.Len(t, issues, 1)
	assert.Equal(t, "invalid_date", issues[0].Code)
	assert.Equal(t, []any{"since"}, issues[0].Path)
}

func TestStructSchema_NestedObjects(t *testing.T) {
	type inner struct {
		City string `json:"city"`
	}
	type outer struct {
		Name    string `json:"name"`
		Address inner  `json:"address"`
	}

	schema := newStructSchema(reflect.TypeOf(outer{}))

	candidate := map[string]any{
		"name":    "x",
		"address": map[string]any{"city": 7},
	}
	_, issues := schema.Parse(candidate, map[string]Source{"name": SourceBody, "address": SourceBody})
	require.Len(t, issues, 1)
	assert.Equal(t, []any{"address", "city"}, issues[0].Path)
	assert.Equal(t, "Expected string, received number", issues[0].Message)

	candidate["address"] = map[string]any{"city": "Riga"}
	parsed, issues := schema.Parse(candidate, map[string]Source{"name": SourceBody, "address": SourceBody})
	require.Empty(t, issues)
	assert.Equal(t, "Riga", parsed.(*outer).Address.City)
}

func TestStructSchema_ArrayElementPath(t *testing.T) {
	type listInput struct {
		Nums []int `json:"nums"`
	}
	schema := newStructSchema(reflect.TypeOf(listInput{}))

	_, issues := schema.Parse(
		map[string]any{"nums": []any{1.0, "x", 3.0}},
		map[string]Source{"nums": SourceBody},
	)
	require.Len(t, issues, 1)
	assert.Equal(t, []any{"nums", 1}, issues[0].Path)
}

func TestVoidSchema(t *testing.T) {
	var schema voidSchema

	parsed, issues := schema.Parse(nil, nil)
	assert.Nil(t, parsed)
	assert.Empty(t, issues)

	_, issues = schema.Parse(map[string]any{"x": 1}, nil)
	require.Len(t, issues, 1)
	assert.Equal(t, "void", issues[0].Expected)
}

func TestOutputSchema_NilOutput(t *testing.T) {
	schema := newStructOutputSchema(reflect.TypeOf(helloOutput{}))

	issues := schema.Validate((*helloOutput)(nil))
	require.Len(t, issues, 1)
	assert.Equal(t, "null", issues[0].Received)

	assert.Empty(t, schema.Validate(&helloOutput{Greeting: "hi"}))
}

func TestDetectNativeCoercion_MatchesDecoder(t *testing.T) {
	// The probe must agree with how the schema actually decodes; a
	// mismatch would double- or never-coerce.
	assert.False(t, nativeStringCoercion)
}
