package most

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const contentTypeJSON = "application/json"

// bodyMethods are the methods whose request body is read. Bodies on GET and
// DELETE requests are ignored.
var bodyMethods = map[string]bool{
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

// checkContentType enforces the binding's content-type policy for body
// methods. The header value before the first ";" is trimmed and lowercased
// before membership is checked. Only application/json bodies are ever
// decoded, so a binding that declares some other type rejects every body.
func checkContentType(b *binding, r *http.Request) *Error {
	if !bodyMethods[strings.ToUpper(r.Method)] {
		return nil
	}

	raw := r.Header.Get("Content-Type")
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(raw, ";", 2)[0]))
	if ct == contentTypeJSON && b.contentTypes[ct] {
		return nil
	}

	return Errorf(CodeUnsupportedMediaType, "Unsupported content-type %q", raw)
}

// readBody ingests the request body with an optional byte cap. Crossing the
// cap aborts ingestion immediately and the rest of the body is not
// consumed; any other read failure is an internal error.
func readBody(w http.ResponseWriter, r *http.Request, maxBodySize int64) ([]byte, *Error) {
	if !bodyMethods[strings.ToUpper(r.Method)] || r.Body == nil {
		return nil, nil
	}

	reader := io.Reader(r.Body)
	if maxBodySize > 0 {
		reader = http.MaxBytesReader(w, r.Body, maxBodySize)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, wrapError(CodePayloadTooLarge, string(CodePayloadTooLarge), err)
		}

		return nil, wrapError(CodeInternalServerError, "failed to read request body", err)
	}

	return data, nil
}

// parseBody decodes a JSON document. An empty body is absence, not an
// error. A body that fails to parse is an internal error: it is rejected
// before any per-request context exists.
func parseBody(data []byte) (any, *Error) {
	if len(data) == 0 {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, wrapError(CodeInternalServerError, fmt.Sprintf("failed to parse request body: %s", err), err)
	}

	return v, nil
}

// buildCandidate merges the three input planes into one candidate value.
// Later planes override earlier ones: query, then path, then body. Query
// keys with one occurrence yield a string, repeated keys an ordered string
// slice. A scalar body replaces the candidate wholesale.
func buildCandidate(query url.Values, params map[string]string, body any) (any, map[string]Source) {
	merged := make(map[string]any, len(query)+len(params))
	sources := make(map[string]Source, len(query)+len(params))

	for key, values := range query {
		if len(values) == 1 {
			merged[key] = values[0]
		} else {
			merged[key] = append([]string(nil), values...)
		}
		sources[key] = SourceQuery
	}

	for key, value := range params {
		merged[key] = value
		sources[key] = SourcePath
	}

	switch b := body.(type) {
	case nil:
	case map[string]any:
		for key, value := range b {
			merged[key] = value
			sources[key] = SourceBody
		}
	default:
		return b, nil
	}

	return merged, sources
}
