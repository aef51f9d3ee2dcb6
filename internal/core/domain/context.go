package domain

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Next advances the middleware chain. A middleware that returns without
// calling its Next halts the chain; no later stage runs and the halt is
// not an error.
type Next func() error

// Handler handles a matched route. A non-nil error is an uncaught
// dispatch failure and is reported through the request:failed event.
type Handler func(*Context) error

// Context carries one inbound request through the pipeline. It is
// created by the transport, owned exclusively by the pipeline execution
// that received it, and never shared across requests.
type Context struct {
	Request   *http.Request
	Method    string
	Path      string
	RequestID string

	writer      *recordingWriter
	state       map[string]any
	dispatchErr error
}

// NewContext wraps an inbound request/response pair. The path is the
// raw URL path; the pipeline matches it against normalized routes.
func NewContext(w http.ResponseWriter, r *http.Request) *Context {
	return &Context{
		Request: r,
		Method:  r.Method,
		Path:    r.URL.Path,
		writer:  &recordingWriter{ResponseWriter: w},
	}
}

// Set stores a request-scoped value in the state bag.
func (c *Context) Set(key string, value any) {
	if c.state == nil {
		c.state = make(map[string]any)
	}
	c.state[key] = value
}

// Get returns a request-scoped value and whether it was present.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.state[key]
	return v, ok
}

// Writer exposes the response writer for handlers that need direct
// access, such as streaming or proxying. Writes through it are still
// observed by Written and StatusCode.
func (c *Context) Writer() http.ResponseWriter {
	return c.writer
}

// Header returns the response header map.
func (c *Context) Header() http.Header {
	return c.writer.Header()
}

// Status writes the response status line.
func (c *Context) Status(code int) {
	c.writer.WriteHeader(code)
}

// Text writes a plain-text response.
func (c *Context) Text(code int, body string) error {
	c.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.Status(code)
	_, err := fmt.Fprint(c.writer, body)
	return err
}

// JSON writes a JSON response.
func (c *Context) JSON(code int, v any) error {
	c.Header().Set("Content-Type", "application/json")
	c.Status(code)
	return json.NewEncoder(c.writer).Encode(v)
}

// Written reports whether a status or body has been written.
func (c *Context) Written() bool {
	return c.writer.wrote
}

// StatusCode returns the status written so far, or zero.
func (c *Context) StatusCode() int {
	return c.writer.status
}

// Fail records a dispatch failure that no listener observed, so the
// transport can produce a fallback response.
func (c *Context) Fail(err error) {
	c.dispatchErr = err
}

// DispatchError returns the unobserved dispatch failure, if any.
func (c *Context) DispatchError() error {
	return c.dispatchErr
}

// recordingWriter wraps http.ResponseWriter to capture the status code
// and whether anything was written.
type recordingWriter struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (rw *recordingWriter) WriteHeader(code int) {
	if !rw.wrote {
		rw.status = code
		rw.wrote = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recordingWriter) Write(b []byte) (int, error) {
	if !rw.wrote {
		rw.status = http.StatusOK
		rw.wrote = true
	}
	return rw.ResponseWriter.Write(b)
}

// Flush forwards Flush to the underlying ResponseWriter if it supports
// http.Flusher, preserving streaming support.
func (rw *recordingWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
