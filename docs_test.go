package most

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDocHandler(t *testing.T) *Handler {
	t.Helper()
	doc := map[string]any{
		"openapi": "3.0.3",
		"info":    map[string]any{"title": "Greeting API", "version": "1.0.0"},
	}
	h, err := NewHandler(newTestRouter(), WithDocument(doc))
	require.NoError(t, err)

	return h
}

func TestDocs_ServesDocumentAsJSON(t *testing.T) {
	h := newDocHandler(t)

	rec := doRequest(h, http.MethodGet, "/openapi.json", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.oai.openapi+json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"openapi":"3.0.3","info":{"title":"Greeting API","version":"1.0.0"}}`, rec.Body.String())
}

func TestDocs_NegotiatesCBOR(t *testing.T) {
	h := newDocHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	req.Header.Set("Accept", "application/cbor")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/cbor", rec.Header().Get("Content-Type"))

	var doc map[string]any
	require.NoError(t, cbor.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])
}

func TestDocs_ServesDocsPage(t *testing.T) {
	h := newDocHandler(t)

	rec := doRequest(h, http.MethodGet, "/docs", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "/openapi.json")
}

func TestDocs_DisabledWithoutDocument(t *testing.T) {
	h, err := NewHandler(newTestRouter())
	require.NoError(t, err)

	rec := doRequest(h, http.MethodGet, "/openapi.json", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocs_CustomPaths(t *testing.T) {
	doc := map[string]any{"openapi": "3.0.3"}
	h, err := NewHandler(newTestRouter(),
		WithDocument(doc),
		WithConfig(&Config{OpenAPIPath: "/spec", DocsPath: ""}),
	)
	require.NoError(t, err)

	rec := doRequest(h, http.MethodGet, "/spec", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(h, http.MethodGet, "/docs", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
