package http

import (
	"encoding/json"
	"sync"
)

// Context is the per-request scratchpad bridging the parsed Request,
// the in-progress Response, route params, and opaque handler state. It
// holds non-owning references to Request and Response; the connection
// driver owns their lifetime and serializes the Response after the
// handler returns. A Context is created immediately before routing and
// destroyed immediately after the handler returns, success or not.
type Context struct {
	Request  *Request
	Response *Response

	params  map[string]string
	state   map[string]string
	aborted bool
}

var contextPool = sync.Pool{
	New: func() any {
		return &Context{
			params: make(map[string]string, 4),
			state:  make(map[string]string, 4),
		}
	},
}

// AcquireContext returns a Context wired to req/resp, drawn from a pool.
func AcquireContext(req *Request, resp *Response) *Context {
	ctx := contextPool.Get().(*Context)
	ctx.Request = req
	ctx.Response = resp
	return ctx
}

// ReleaseContext clears ctx and returns it to the pool. All memory it
// owns (the params/state maps) is cleared, not freed.
func ReleaseContext(ctx *Context) {
	ctx.Request = nil
	ctx.Response = nil
	ctx.aborted = false
	for k := range ctx.params {
		delete(ctx.params, k)
	}
	for k := range ctx.state {
		delete(ctx.state, k)
	}
	contextPool.Put(ctx)
}

// Abort marks the pipeline as short-circuited: the caller (Pipeline)
// checks IsAborted between steps and skips the remainder, including the
// route handler, once set.
func (c *Context) Abort() {
	c.aborted = true
}

// IsAborted reports whether Abort has been called on this Context.
func (c *Context) IsAborted() bool {
	return c.aborted
}

// SetHeader is a convenience forward to Response.SetHeader, used by
// middleware that only needs to touch response headers.
func (c *Context) SetHeader(name, value string) {
	c.Response.SetHeader(name, value)
}

// Status is a convenience forward to Response.SetStatus.
func (c *Context) Status(code int) {
	c.Response.SetStatus(code)
}

// SetParam records a route parameter, already URL-decoded by the router.
func (c *Context) SetParam(name, value string) {
	c.params[name] = value
}

// Param returns a route parameter, or "" if unset.
func (c *Context) Param(name string) string {
	return c.params[name]
}

// SetState stores an opaque key/value pair for middleware/handler
// communication within this request's lifetime.
func (c *Context) SetState(key, value string) {
	c.state[key] = value
}

// State retrieves a value set via SetState.
func (c *Context) State(key string) string {
	return c.state[key]
}

// Method returns the request method.
func (c *Context) Method() string {
	return c.Request.Method
}

// Path returns the raw (not decoded) request path.
func (c *Context) Path() string {
	return c.Request.Path
}

// Query returns a single query parameter's value by scanning the raw
// query string; the raw query is intentionally left undecoded by the
// parser, so values are percent-decoded here on demand.
func (c *Context) Query(name string) string {
	q := c.Request.Query
	for len(q) > 0 {
		var pair string
		if idx := indexByte(q, '&'); idx >= 0 {
			pair, q = q[:idx], q[idx+1:]
		} else {
			pair, q = q, ""
		}
		if eq := indexByte(pair, '='); eq >= 0 {
			if pair[:eq] == name {
				return decode(pair[eq+1:])
			}
		} else if pair == name {
			return ""
		}
	}
	return ""
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

// Header returns a request header, matched case-insensitively.
func (c *Context) Header(name string) string {
	v, _ := c.Request.Header(name)
	return v
}

// Body returns the request body.
func (c *Context) Body() []byte {
	return c.Request.Body
}

// Bind JSON-decodes the request body into v.
func (c *Context) Bind(v any) error {
	return json.Unmarshal(c.Request.Body, v)
}

// String sets a text/plain response.
func (c *Context) String(code int, s string) {
	c.Response.SetStatus(code)
	c.Response.SetTextBody([]byte(s))
}

// JSON marshals v and sets an application/json response; marshal
// failure degrades to a 500 rather than panicking.
func (c *Context) JSON(code int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.Response.SetStatus(StatusInternalServerError)
		c.Response.SetJSONBody([]byte(`{"error":"marshal failure"}`))
		return
	}
	c.Response.SetStatus(code)
	c.Response.SetJSONBody(data)
}

// Bytes sets an application/octet-stream response.
func (c *Context) Bytes(code int, data []byte) {
	c.Response.SetStatus(code)
	c.Response.SetHeader(HeaderContentType, "application/octet-stream")
	c.Response.SetBody(data)
}

// Data sets a response with an explicit content type.
func (c *Context) Data(code int, contentType string, data []byte) {
	c.Response.SetStatus(code)
	c.Response.SetHeader(HeaderContentType, contentType)
	c.Response.SetBody(data)
}

// Error sets the canned JSON error body the driver uses when mapping
// an internal failure to a status code.
func (c *Context) Error(code int, message string) {
	c.JSON(code, map[string]any{
		"error": ReasonPhrase(code),
		"message": message,
	})
}

// Success sets a canned success envelope.
func (c *Context) Success(data any) {
	c.JSON(StatusOK, map[string]any{
		"code":    0,
		"message": "success",
		"data":    data,
	})
}
