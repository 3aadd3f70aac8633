package adapters

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ChiAdapter mounts a self-routing handler inside a chi route tree, so the
// procedure surface can live next to conventional chi routes.
type ChiAdapter struct {
	router chi.Router
}

// NewChi mounts the handler at the root of a chi router.
func NewChi(router chi.Router, handler http.Handler) *ChiAdapter {
	router.Mount("/", handler)

	return &ChiAdapter{router: router}
}

// NewChiWithPrefix mounts the handler under a path prefix. The prefix is
// stripped before the handler resolves its own route table.
func NewChiWithPrefix(router chi.Router, prefix string, handler http.Handler) *ChiAdapter {
	prefix = normalizePrefix(prefix)
	router.Mount(prefix, http.StripPrefix(prefix, handler))

	return &ChiAdapter{router: router}
}

func (a *ChiAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func normalizePrefix(prefix string) string {
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}

	return strings.TrimSuffix(prefix, "/")
}
