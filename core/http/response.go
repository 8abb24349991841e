package http

import (
	"strconv"
	"strings"
	"time"
)

// Cookie mirrors the fixed attribute set the builder is allowed to emit,
// in the fixed serialization order the wire contract requires.
type Cookie struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	Expires  time.Time
	MaxAge   int // 0 means unset
	Secure   bool
	HTTPOnly bool
	SameSite string // "Strict", "Lax", "None", or "" for unset
}

// Response is a mutable builder consumed exactly once by Build. Reuse
// after Build is not supported — callers that want a fresh response
// allocate a new Response (or Reset one drawn from a pool).
type Response struct {
	status int

	headerNames  []string
	headerValues []string
	headerIndex  map[string]int

	cookies []Cookie
	body    []byte
	built   bool
}

// NewResponse returns a Response defaulted to 200 OK with no body.
func NewResponse() *Response {
	return &Response{
		status:      StatusOK,
		headerIndex: make(map[string]int, 8),
	}
}

// Reset clears r for reuse from a pool.
func (r *Response) Reset() {
	r.status = StatusOK
	r.headerNames = r.headerNames[:0]
	r.headerValues = r.headerValues[:0]
	for k := range r.headerIndex {
		delete(r.headerIndex, k)
	}
	r.cookies = r.cookies[:0]
	r.body = r.body[:0]
	r.built = false
}

// SetStatus overwrites the response status code.
func (r *Response) SetStatus(code int) {
	r.status = code
}

// Status returns the currently set status code.
func (r *Response) Status() int {
	return r.status
}

// SetHeader replaces any existing value for the exact header name
// (case-sensitive, per the wire contract — unlike Request lookup).
func (r *Response) SetHeader(name, value string) {
	if idx, ok := r.headerIndex[name]; ok {
		r.headerValues[idx] = value
		return
	}
	r.headerIndex[name] = len(r.headerNames)
	r.headerNames = append(r.headerNames, name)
	r.headerValues = append(r.headerValues, value)
}

// HasHeader reports whether name is already set (exact case match).
func (r *Response) HasHeader(name string) bool {
	_, ok := r.headerIndex[name]
	return ok
}

// SetBody replaces the body outright; later calls replace prior content.
func (r *Response) SetBody(body []byte) {
	r.body = body
}

// SetJSONBody sets Content-Type: application/json and the body.
func (r *Response) SetJSONBody(body []byte) {
	r.SetHeader(HeaderContentType, "application/json")
	r.body = body
}

// SetHTMLBody sets Content-Type: text/html and the body.
func (r *Response) SetHTMLBody(body []byte) {
	r.SetHeader(HeaderContentType, "text/html")
	r.body = body
}

// SetTextBody sets Content-Type: text/plain and the body.
func (r *Response) SetTextBody(body []byte) {
	r.SetHeader(HeaderContentType, "text/plain")
	r.body = body
}

// SetCookie appends a cookie; output order matches append order.
func (r *Response) SetCookie(c Cookie) {
	r.cookies = append(r.cookies, c)
}

// Build serializes the response into a single owned byte sequence:
// status line, default headers (only if unset), explicit headers,
// Set-Cookie lines, Content-Length, blank line, body. The builder is
// consumed after Build; calling it twice is a programming error.
func (r *Response) Build() []byte {
	var buf strings.Builder
	buf.Grow(256 + len(r.body))

	buf.WriteString("HTTP/1.1 ")
	buf.WriteString(strconv.Itoa(r.status))
	buf.WriteByte(' ')
	buf.WriteString(ReasonPhrase(r.status))
	buf.WriteString("\r\n")

	if !r.HasHeader(HeaderServer) {
		buf.WriteString(HeaderServer)
		buf.WriteString(": ")
		buf.WriteString(ServerName)
		buf.WriteString("\r\n")
	}
	if !r.HasHeader(HeaderDate) {
		buf.WriteString(HeaderDate)
		buf.WriteString(": ")
		buf.WriteString(strconv.FormatInt(time.Now().Unix(), 10))
		buf.WriteString("\r\n")
	}
	if !r.HasHeader(HeaderConnection) {
		buf.WriteString(HeaderConnection)
		buf.WriteString(": close\r\n")
	}

	for i, name := range r.headerNames {
		buf.WriteString(name)
		buf.WriteString(": ")
		buf.WriteString(r.headerValues[i])
		buf.WriteString("\r\n")
	}

	for _, c := range r.cookies {
		writeCookie(&buf, c)
	}

	if !r.HasHeader(HeaderContentLength) {
		buf.WriteString(HeaderContentLength)
		buf.WriteString(": ")
		buf.WriteString(strconv.Itoa(len(r.body)))
		buf.WriteString("\r\n")
	}

	buf.WriteString("\r\n")
	out := make([]byte, 0, buf.Len()+len(r.body))
	out = append(out, buf.String()...)
	out = append(out, r.body...)
	r.built = true
	return out
}

// writeCookie appends a Set-Cookie line with attributes in the fixed
// order the wire contract requires: Path, Domain, Expires, Max-Age,
// Secure, HttpOnly, SameSite.
func writeCookie(buf *strings.Builder, c Cookie) {
	buf.WriteString(HeaderSetCookie)
	buf.WriteString(": ")
	buf.WriteString(c.Name)
	buf.WriteByte('=')
	buf.WriteString(c.Value)
	if c.Path != "" {
		buf.WriteString("; Path=")
		buf.WriteString(c.Path)
	}
	if c.Domain != "" {
		buf.WriteString("; Domain=")
		buf.WriteString(c.Domain)
	}
	if !c.Expires.IsZero() {
		buf.WriteString("; Expires=")
		buf.WriteString(c.Expires.UTC().Format(time.RFC1123))
	}
	if c.MaxAge != 0 {
		buf.WriteString("; Max-Age=")
		buf.WriteString(strconv.Itoa(c.MaxAge))
	}
	if c.Secure {
		buf.WriteString("; Secure")
	}
	if c.HTTPOnly {
		buf.WriteString("; HttpOnly")
	}
	if c.SameSite != "" {
		buf.WriteString("; SameSite=")
		buf.WriteString(c.SameSite)
	}
	buf.WriteString("\r\n")
}
