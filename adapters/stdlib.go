package adapters

import (
	"net/http"
)

// Mux is the subset of http.ServeMux the stdlib adapter needs.
type Mux interface {
	Handle(pattern string, handler http.Handler)
	ServeHTTP(http.ResponseWriter, *http.Request)
}

// StdlibAdapter mounts a self-routing handler on a plain ServeMux.
type StdlibAdapter struct {
	mux Mux
}

// NewStdlib mounts the handler at the root of the mux.
//
//	mux := http.NewServeMux()
//	adapter := adapters.NewStdlib(mux, handler)
func NewStdlib(mux Mux, handler http.Handler) *StdlibAdapter {
	mux.Handle("/", handler)

	return &StdlibAdapter{mux: mux}
}

// NewStdlibWithPrefix mounts the handler under a path prefix, stripping it
// before the handler resolves its own route table.
func NewStdlibWithPrefix(mux Mux, prefix string, handler http.Handler) *StdlibAdapter {
	prefix = normalizePrefix(prefix)
	mux.Handle(prefix+"/", http.StripPrefix(prefix, handler))

	return &StdlibAdapter{mux: mux}
}

func (a *StdlibAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}
