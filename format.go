package most

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// marshalFunc writes a value in one response representation.
type marshalFunc func(w io.Writer, v any) error

func jsonMarshal(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	return enc.Encode(v)
}

var cborEncMode, _ = cbor.EncOptions{
	Time: cbor.TimeRFC3339,
}.EncMode()

func cborMarshal(w io.Writer, v any) error {
	return cborEncMode.NewEncoder(w).Encode(v)
}

// defaultEncoders maps content types, and bare plus-segment suffixes, to
// their marshal functions. Procedure responses only ever use JSON; CBOR is
// reachable on the document endpoint.
func defaultEncoders() map[string]marshalFunc {
	return map[string]marshalFunc{
		"application/json": jsonMarshal,
		"json":             jsonMarshal,
		"application/cbor": cborMarshal,
		"cbor":             cborMarshal,
	}
}

// marshal writes the value using the encoder registered for the content
// type, matching plus-segment suffixes like application/problem+json. An
// unknown type or encoder failure falls back to plain text so the response
// still completes.
func (h *Handler) marshal(w io.Writer, ct string, v any) {
	enc, ok := h.encoders[ct]
	if !ok {
		if idx := strings.LastIndex(ct, "+"); idx != -1 {
			enc, ok = h.encoders[ct[idx+1:]]
		}
	}
	if !ok || enc(w, v) != nil {
		_, _ = fmt.Fprintf(w, "%v", v)
	}
}
