package most

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePath_Params(t *testing.T) {
	m, err := compilePath("/say-hello/{first}/{last}")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "last"}, m.params)

	params, ok := m.match("/say-hello/Lily/Rose")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"first": "Lily", "last": "Rose"}, params)
}

func TestCompilePath_LiteralsAreCaseInsensitive(t *testing.T) {
	m, err := compilePath("/Say-Hello/{name}")
	require.NoError(t, err)

	for _, path := range []string{"/say-hello/x", "/SAY-HELLO/x", "/sAy-HeLLo/x"} {
		_, ok := m.match(path)
		assert.True(t, ok, "path %s", path)
	}
}

func TestCompilePath_PlaceholderValuesKeepCase(t *testing.T) {
	m, err := compilePath("/users/{id}")
	require.NoError(t, err)

	params, ok := m.match("/USERS/AbC")
	require.True(t, ok)
	assert.Equal(t, "AbC", params["id"])
}

func TestCompilePath_SegmentStructure(t *testing.T) {
	m, err := compilePath("/a/{b}")
	require.NoError(t, err)

	for _, path := range []string{"/a", "/a/b/c", "/a/"} {
		_, ok := m.match(path)
		assert.False(t, ok, "path %s", path)
	}
}

func TestCompilePath_PercentDecoding(t *testing.T) {
	m, err := compilePath("/files/{name}")
	require.NoError(t, err)

	params, ok := m.match("/files/a%20b")
	require.True(t, ok)
	assert.Equal(t, "a b", params["name"])

	// A segment that fails to decode is a miss, not an error.
	_, ok = m.match("/files/%zz")
	assert.False(t, ok)
}

func TestCompilePath_RegexMetacharactersAreLiteral(t *testing.T) {
	m, err := compilePath("/v1.0/items")
	require.NoError(t, err)

	_, ok := m.match("/v1.0/items")
	assert.True(t, ok)
	_, ok = m.match("/v1x0/items")
	assert.False(t, ok)
}

func TestCompilePath_Errors(t *testing.T) {
	_, err := compilePath("no-leading-slash")
	assert.Error(t, err)

	_, err = compilePath("/a/{dup}/{dup}")
	assert.Error(t, err)

	_, err = compilePath("/a/{unclosed")
	assert.Error(t, err)
}

func TestPathStructure(t *testing.T) {
	a, err := compilePath("/Say-Hello/{first}")
	require.NoError(t, err)
	b, err := compilePath("/say-hello/{other}")
	require.NoError(t, err)

	// Same method + same structure would shadow each other regardless of
	// parameter names or literal casing.
	assert.Equal(t, a.structure(), b.structure())
}
