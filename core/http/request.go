package http

import (
	"strings"
	"sync"
)

// Request is immutable once returned by ParseRequest; the pool below
// exists purely to amortize allocation across the connection lifecycle,
// never to let a request be mutated after handoff to a handler.
//
// Header lookup is case-insensitive; the original casing is retained
// alongside for anything that re-serializes headers (proxying, logging).
type Request struct {
	Method  string
	Path    string
	Query   string
	Version string
	Body    []byte

	headerNames  []string // original casing, insertion order
	headerValues []string
	headerIndex  map[string]int // lowercase name -> index
}

var requestPool = sync.Pool{
	New: func() any {
		return &Request{
			headerNames:  make([]string, 0, 16),
			headerValues: make([]string, 0, 16),
			headerIndex:  make(map[string]int, 16),
			Body:         make([]byte, 0, 1024),
		}
	},
}

// AcquireRequest returns a reset Request from the pool.
func AcquireRequest() *Request {
	return requestPool.Get().(*Request)
}

// ReleaseRequest resets req and returns it to the pool.
func ReleaseRequest(r *Request) {
	r.reset()
	requestPool.Put(r)
}

func (r *Request) reset() {
	r.Method = ""
	r.Path = ""
	r.Query = ""
	r.Version = ""
	r.Body = r.Body[:0]
	r.headerNames = r.headerNames[:0]
	r.headerValues = r.headerValues[:0]
	for k := range r.headerIndex {
		delete(r.headerIndex, k)
	}
}

// setHeader stores name/value, overwriting any prior value for the same
// case-insensitive name — last wins, no comma-coalescing (§9).
func (r *Request) setHeader(name, value string) {
	key := strings.ToLower(name)
	if idx, ok := r.headerIndex[key]; ok {
		r.headerNames[idx] = name
		r.headerValues[idx] = value
		return
	}
	r.headerIndex[key] = len(r.headerNames)
	r.headerNames = append(r.headerNames, name)
	r.headerValues = append(r.headerValues, value)
}

// Header returns the value for name, matched case-insensitively, and
// whether it was present.
func (r *Request) Header(name string) (string, bool) {
	idx, ok := r.headerIndex[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return r.headerValues[idx], true
}

// HeaderCount reports the number of distinct header names stored.
func (r *Request) HeaderCount() int {
	return len(r.headerNames)
}

// EachHeader calls fn for every stored header in insertion order, using
// the original casing as received on the wire.
func (r *Request) EachHeader(fn func(name, value string)) {
	for i, name := range r.headerNames {
		fn(name, r.headerValues[i])
	}
}

// ContentLength returns the parsed Content-Length header, or -1 if
// absent or malformed.
func (r *Request) ContentLength() int64 {
	v, ok := r.Header(HeaderContentLength)
	if !ok {
		return -1
	}
	n, ok := parseDecimalNonNegative(strings.TrimSpace(v))
	if !ok {
		return -1
	}
	return n
}

// parseDecimalNonNegative parses s as a non-negative base-10 integer,
// rejecting empty strings, non-digit bytes, and leading signs.
func parseDecimalNonNegative(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	var n int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int64(c-'0')
	}
	return n, true
}
