package most

import (
	"net/http"
)

// writeResult serializes a successful invocation. The status defaults to
// 200 and the body is the JSON-encoded output; a void output writes no
// body and therefore no Content-Type.
func (h *Handler) writeResult(w http.ResponseWriter, state *requestState, output any) {
	status := http.StatusOK
	if h.responseMeta != nil {
		meta := h.responseMeta(MetaParams{
			Path: state.path(),
			Type: state.kind(),
			Ctx:  state.ctx,
			Data: output,
		})
		status = applyMeta(w, meta, status)
	}

	if state.binding.output.IsVoid() {
		w.WriteHeader(status)

		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	h.marshal(w, contentTypeJSON, output)
}

// writeError serializes a failure. The status comes from the error code;
// the body is `{message, code, issues?}`, optionally reshaped by the
// router's error formatter — which can enrich the shape but never change
// the code or the status.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, state *requestState, err *Error) {
	status := err.Status()
	if h.responseMeta != nil {
		meta := h.responseMeta(MetaParams{
			Path:   state.path(),
			Type:   state.kind(),
			Ctx:    state.ctx,
			Errors: []error{err},
		})
		status = applyMeta(w, meta, status)
	}

	body := map[string]any{
		"message": err.Message,
		"code":    string(err.Code),
	}
	if len(err.Issues) > 0 {
		body["issues"] = err.Issues
	}

	if h.router.errorFormatter != nil {
		for key, value := range h.router.errorFormatter(r, err) {
			body[key] = value
		}
		body["code"] = string(err.Code)
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	h.marshal(w, contentTypeJSON, body)
}

// applyMeta merges hook-provided status and headers over the defaults.
func applyMeta(w http.ResponseWriter, meta Meta, status int) int {
	for key, values := range meta.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	if meta.Status != 0 {
		status = meta.Status
	}

	return status
}
