// Package router implements path-pattern registration and matching:
// exact-match-plus-first-match-wins ordering, with `:name` and `*`
// segment wildcards over percent-decoded path segments. It deliberately
// does not reorder routes by specificity — a literal route registered
// after a conflicting `:param` route will never match, and callers are
// responsible for registration order.
package router

import (
	"strings"

	httpcore "github.com/oneopane/libxev-http/core/http"
	"github.com/oneopane/libxev-http/core/optimize"
)

// HandlerFunc is a registered route's callable.
type HandlerFunc func(ctx *httpcore.Context) error

// Route is a registered pattern: method, the original registration
// string, and its handler. The pattern is never rewritten after
// registration.
type Route struct {
	Method  string
	Pattern string
	Handler HandlerFunc

	segments []string
	hasParam bool
}

// ErrNotFound indicates no route matched both the request method and
// the path. ErrMethodNotAllowed indicates the request method is not one
// of the recognized set.
var (
	ErrNotFound       = routeError("route not found")
	ErrMethodNotAllowed = routeError("method not allowed")
)

type routeError string

func (e routeError) Error() string { return string(e) }

// Router holds routes in insertion order; routes are written only
// during setup and are read-only once serving begins.
type Router struct {
	routes []Route
}

// New returns an empty Router.
func New() *Router {
	return &Router{routes: make([]Route, 0, 32)}
}

// Handle registers pattern for method. Patterns containing neither `:`
// nor `*` are treated as plain strings and matched only by Find's
// fast-path verbatim comparison, with no decoding.
func (r *Router) Handle(method, pattern string, handler HandlerFunc) {
	rt := Route{Method: method, Pattern: pattern, Handler: handler}
	if strings.ContainsAny(pattern, ":*") {
		rt.segments = splitPattern(pattern)
		rt.hasParam = true
	}
	r.routes = append(r.routes, rt)
}

func splitPattern(pattern string) []string {
	parts := strings.Split(pattern, "/")
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		segs = append(segs, p)
	}
	return segs
}

// Find returns the first registered route (in insertion order) whose
// method matches and whose pattern matches path, per the matching
// algorithm in the router's contract: a verbatim fast path first, then
// segment-decoded literal/:name/* matching for patterns containing
// wildcards.
func (r *Router) Find(method, path string) (*Route, map[string]string, bool) {
	for i := range r.routes {
		rt := &r.routes[i]
		if rt.Method != method {
			continue
		}
		if optimize.ComparePathSIMD(rt.Pattern, path) {
			return rt, nil, true
		}
		if !rt.hasParam {
			continue
		}
		if params, ok := matchSegments(rt.segments, path); ok {
			return rt, params, true
		}
	}
	return nil, nil, false
}

// matchSegments decodes path into segments and compares it against
// pattern's segments pairwise: literal segments require equality,
// `:name` accepts any nonempty segment and captures it, `*` accepts the
// current and all remaining segments and stops. A length mismatch fails
// unless the final pattern segment is `*`.
func matchSegments(pattern []string, path string) (map[string]string, bool) {
	pathSegs := httpcore.SplitAndDecodePath(path)

	var params map[string]string
	i := 0
	for ; i < len(pattern); i++ {
		seg := pattern[i]
		switch {
		case seg == "*":
			return params, true
		case strings.HasPrefix(seg, ":"):
			if i >= len(pathSegs) || pathSegs[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string, 2)
			}
			params[seg[1:]] = pathSegs[i]
		default:
			if i >= len(pathSegs) || !optimize.ComparePathSIMD(pathSegs[i], seg) {
				return nil, false
			}
		}
	}
	if i != len(pathSegs) {
		return nil, false
	}
	return params, true
}

// HandleRequest resolves a route for ctx.Request and invokes its
// handler, decoding and injecting path params first. Method or path
// resolution failure is surfaced via the returned error rather than
// written directly to ctx, so the connection driver controls the
// canned error body per its own status-code mapping. A path that
// matches only under a different method falls through to ErrNotFound,
// not ErrMethodNotAllowed: find_route requires both the method and the
// pattern to match, and ErrMethodNotAllowed is reserved for an
// unrecognized method literal.
func (r *Router) HandleRequest(ctx *httpcore.Context) error {
	if !httpcore.IsRecognizedMethod(ctx.Request.Method) {
		return ErrMethodNotAllowed
	}
	rt, params, ok := r.Find(ctx.Request.Method, ctx.Request.Path)
	if !ok {
		return ErrNotFound
	}
	for name, value := range params {
		ctx.SetParam(name, value)
	}
	return rt.Handler(ctx)
}
