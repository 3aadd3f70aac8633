package adapters

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// FiberAdapter bridges a fiber app to a self-routing net/http handler.
type FiberAdapter struct {
	app *fiber.App
}

// NewFiber registers the handler as a catch-all on the fiber app.
func NewFiber(app *fiber.App, handler http.Handler) *FiberAdapter {
	app.Use(func(c *fiber.Ctx) error {
		freq := c.Request()

		req, err := http.NewRequestWithContext(
			c.UserContext(),
			string(freq.Header.Method()),
			c.OriginalURL(),
			bytes.NewReader(c.BodyRaw()),
		)
		if err != nil {
			return err
		}
		freq.Header.VisitAll(func(key, value []byte) {
			req.Header.Set(string(key), string(value))
		})

		handler.ServeHTTP(&fiberResponseWriter{ctx: c}, req)

		return nil
	})

	return &FiberAdapter{app: app}
}

func (a *FiberAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Use Fiber's Test method to handle http.Request
	resp, err := a.app.Test(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}
	defer func() { _ = resp.Body.Close() }()

	for k, v := range resp.Header {
		for _, val := range v {
			w.Header().Add(k, val)
		}
	}

	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

// fiberResponseWriter buffers headers until the status is written, then
// flushes them onto the fiber response in one pass.
type fiberResponseWriter struct {
	ctx         *fiber.Ctx
	header      http.Header
	wroteHeader bool
}

func (w *fiberResponseWriter) Header() http.Header {
	if w.header == nil {
		w.header = make(http.Header)
	}

	return w.header
}

func (w *fiberResponseWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	for key, values := range w.header {
		for _, value := range values {
			w.ctx.Response().Header.Add(key, value)
		}
	}
	w.ctx.Status(statusCode)
}

func (w *fiberResponseWriter) Write(data []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}

	return w.ctx.Write(data)
}
