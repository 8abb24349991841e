package http

import "testing"

func newRequest(n int) *Request {
	return AcquireRequest()
}

func newTestContext(method, path string) *Context {
	req := newRequest(4)
	req.Method = method
	req.Path = path
	return AcquireContext(req, NewResponse())
}

func TestContextBasic(t *testing.T) {
	ctx := newTestContext("GET", "/test")
	if ctx.Method() != "GET" {
		t.Errorf("Method() = %q, want GET", ctx.Method())
	}
	if ctx.Path() != "/test" {
		t.Errorf("Path() = %q, want /test", ctx.Path())
	}
}

func TestContextParams(t *testing.T) {
	ctx := newTestContext("GET", "/users/123")
	ctx.SetParam("id", "123")
	ctx.SetParam("name", "alice")

	if ctx.Param("id") != "123" {
		t.Errorf("Param(id) = %q, want 123", ctx.Param("id"))
	}
	if ctx.Param("name") != "alice" {
		t.Errorf("Param(name) = %q, want alice", ctx.Param("name"))
	}
	if ctx.Param("notexist") != "" {
		t.Error("expected empty string for non-existent param")
	}
}

func TestContextHeaders(t *testing.T) {
	req := newRequest(4)
	req.Method = "POST"
	req.Path = "/api"
	req.setHeader("Content-Type", "application/json")
	req.setHeader("User-Agent", "TestAgent/1.0")
	ctx := AcquireContext(req, NewResponse())

	if ctx.Header("content-type") != "application/json" {
		t.Errorf("Header(content-type) = %q", ctx.Header("content-type"))
	}
	if ctx.Header("User-Agent") != "TestAgent/1.0" {
		t.Errorf("Header(User-Agent) = %q", ctx.Header("User-Agent"))
	}
}

func TestContextQuery(t *testing.T) {
	req := newRequest(0)
	req.Method = "GET"
	req.Path = "/search"
	req.Query = "q=zig&limit=10"
	ctx := AcquireContext(req, NewResponse())

	if ctx.Query("q") != "zig" {
		t.Errorf("Query(q) = %q, want zig", ctx.Query("q"))
	}
	if ctx.Query("limit") != "10" {
		t.Errorf("Query(limit) = %q, want 10", ctx.Query("limit"))
	}
	if ctx.Query("missing") != "" {
		t.Error("expected empty string for missing query key")
	}
}

func TestContextJSONSetsResponse(t *testing.T) {
	ctx := newTestContext("GET", "/")
	ctx.JSON(StatusOK, map[string]any{"ok": true})
	if ctx.Response.Status() != StatusOK {
		t.Errorf("status = %d, want 200", ctx.Response.Status())
	}
	if v, ok := ctx.Response.headerIndex[HeaderContentType]; !ok || ctx.Response.headerValues[v] != "application/json" {
		t.Error("expected Content-Type application/json")
	}
}

func TestContextReleaseClearsState(t *testing.T) {
	ctx := newTestContext("GET", "/first")
	ctx.SetParam("id", "123")
	ReleaseContext(ctx)

	if ctx.Param("id") != "" {
		t.Error("params should be cleared after release")
	}
}
