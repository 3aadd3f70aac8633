package most

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"sync"

	"github.com/talav/negotiation"
)

// Config holds the document-serving endpoints. The handler never generates
// an OpenAPI document; it serves whatever WithDocument supplied.
type Config struct {
	// OpenAPIPath is the exact path the supplied OpenAPI document is
	// served at. The document is negotiated between JSON and CBOR.
	OpenAPIPath string

	// DocsPath serves a browser documentation page pointing at
	// OpenAPIPath. Leave blank to attach your own renderer.
	DocsPath string
}

// DefaultConfig returns the default endpoint configuration.
func DefaultConfig() *Config {
	return &Config{
		OpenAPIPath: "/openapi.json",
		DocsPath:    "/docs",
	}
}

// documentContentTypes are the negotiable representations of the document.
var documentContentTypes = []string{"application/json", "application/cbor"}

// docState caches the JSON encoding of the document across requests.
type docState struct {
	once sync.Once
	data []byte
	err  error
}

// serveDocs answers the document endpoints when configured. Returns true
// when it handled the request.
func (h *Handler) serveDocs(w http.ResponseWriter, r *http.Request) bool {
	if h.document == nil || r.Method != http.MethodGet {
		return false
	}

	switch r.URL.Path {
	case h.config.OpenAPIPath:
		if h.config.OpenAPIPath == "" {
			return false
		}
		h.serveDocument(w, r)

		return true
	case h.config.DocsPath:
		if h.config.DocsPath == "" {
			return false
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(docsHTML(h.config.OpenAPIPath, "API Documentation")))

		return true
	}

	return false
}

// serveDocument writes the supplied OpenAPI document in the best
// representation for the Accept header, defaulting to JSON.
func (h *Handler) serveDocument(w http.ResponseWriter, r *http.Request) {
	ct := "application/json"
	if accept := r.Header.Get("Accept"); accept != "" {
		header, err := h.negotiator.Negotiate(accept, documentContentTypes, false)
		if err != nil && !errors.Is(err, negotiation.ErrNoMatch) {
			http.Error(w, "failed to negotiate content type", http.StatusInternalServerError)

			return
		}
		if err == nil {
			ct = header.Type
		}
	}

	if ct == "application/json" {
		h.docState.once.Do(func() {
			h.docState.data, h.docState.err = json.Marshal(h.document)
		})
		if h.docState.err != nil {
			http.Error(w, "failed to marshal OpenAPI document", http.StatusInternalServerError)

			return
		}
		w.Header().Set("Content-Type", "application/vnd.oai.openapi+json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(h.docState.data)

		return
	}

	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	h.marshal(w, ct, h.document)
}

// docsHTML generates an HTML page with embedded Stoplight Elements.
func docsHTML(openAPIPath, title string) string {
	escapedTitle := html.EscapeString(title)
	escapedPath := html.EscapeString(openAPIPath)

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>%s</title>
	<link rel="stylesheet" href="https://unpkg.com/@stoplight/elements/styles.min.css">
</head>
<body>
	<elements-api
		apiDescriptionUrl="%s"
		router="hash"
		layout="sidebar"
	/>
	<script src="https://unpkg.com/@stoplight/elements/web-components.min.js"></script>
</body>
</html>`, escapedTitle, escapedPath)
}
