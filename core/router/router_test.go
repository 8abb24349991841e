package router

import (
	"testing"

	httpcore "github.com/oneopane/libxev-http/core/http"
)

func newCtx(method, path, query string) *httpcore.Context {
	req := httpcore.AcquireRequest()
	req.Method = method
	req.Path = path
	req.Query = query
	return httpcore.AcquireContext(req, httpcore.NewResponse())
}

func TestFindLiteralFastPath(t *testing.T) {
	r := New()
	called := false
	r.Handle("GET", "/hello", func(ctx *httpcore.Context) error {
		called = true
		return nil
	})

	rt, params, ok := r.Find("GET", "/hello")
	if !ok || rt == nil || params != nil {
		t.Fatalf("Find = %v, %v, %v", rt, params, ok)
	}
	if err := rt.Handler(nil); err != nil || !called {
		t.Errorf("handler not invoked correctly")
	}
}

func TestFindParamSegment(t *testing.T) {
	r := New()
	r.Handle("GET", "/files/:filename", func(ctx *httpcore.Context) error { return nil })

	rt, params, ok := r.Find("GET", "/files/foo%2Fbar.txt")
	if !ok {
		t.Fatal("expected match")
	}
	if params["filename"] != "foo/bar.txt" {
		t.Errorf("filename param = %q, want foo/bar.txt", params["filename"])
	}
	_ = rt
}

func TestFindWildcard(t *testing.T) {
	r := New()
	r.Handle("GET", "/static/*", func(ctx *httpcore.Context) error { return nil })

	_, _, ok := r.Find("GET", "/static/css/app.css")
	if !ok {
		t.Error("expected wildcard to match nested path")
	}
}

func TestFirstMatchWinsOverLaterLiteral(t *testing.T) {
	r := New()
	var hitParam, hitLiteral bool
	r.Handle("GET", "/users/:id", func(ctx *httpcore.Context) error { hitParam = true; return nil })
	r.Handle("GET", "/users/me", func(ctx *httpcore.Context) error { hitLiteral = true; return nil })

	rt, params, ok := r.Find("GET", "/users/me")
	if !ok {
		t.Fatal("expected a match")
	}
	rt.Handler(nil)
	if !hitParam || hitLiteral {
		t.Error("expected the earlier-registered :id route to win, per first-match-wins ordering")
	}
	if params["id"] != "me" {
		t.Errorf("id param = %q, want me", params["id"])
	}
}

func TestFindNoMatch(t *testing.T) {
	r := New()
	r.Handle("GET", "/a", func(ctx *httpcore.Context) error { return nil })

	_, _, ok := r.Find("GET", "/b")
	if ok {
		t.Error("expected no match")
	}
}

func TestHandleRequestPathMatchesOnlyUnderOtherMethodIsNotFound(t *testing.T) {
	r := New()
	r.Handle("GET", "/only-get", func(ctx *httpcore.Context) error { return nil })

	ctx := newCtx("POST", "/only-get", "")
	err := r.HandleRequest(ctx)
	if err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHandleRequestUnrecognizedMethodIsMethodNotAllowed(t *testing.T) {
	r := New()
	r.Handle("GET", "/only-get", func(ctx *httpcore.Context) error { return nil })

	ctx := newCtx("FOOBAR", "/only-get", "")
	err := r.HandleRequest(ctx)
	if err != ErrMethodNotAllowed {
		t.Errorf("err = %v, want ErrMethodNotAllowed", err)
	}
}

func TestHandleRequestNotFound(t *testing.T) {
	r := New()
	r.Handle("GET", "/only-get", func(ctx *httpcore.Context) error { return nil })

	ctx := newCtx("GET", "/missing", "")
	err := r.HandleRequest(ctx)
	if err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHandleRequestInjectsParams(t *testing.T) {
	r := New()
	var seen string
	r.Handle("GET", "/files/:name", func(ctx *httpcore.Context) error {
		seen = ctx.Param("name")
		return nil
	})

	ctx := newCtx("GET", "/files/foo%2Fbar.txt", "")
	if err := r.HandleRequest(ctx); err != nil {
		t.Fatalf("HandleRequest: %v", err)
	}
	if seen != "foo/bar.txt" {
		t.Errorf("param = %q, want foo/bar.txt", seen)
	}
}
