package middleware

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/oneopane/libxev-http/core/http"
)

func newTestContext() *http.Context {
	req := http.AcquireRequest()
	req.Method = "GET"
	req.Path = "/"
	return http.AcquireContext(req, http.NewResponse())
}

func TestPipelineBasic(t *testing.T) {
	pipeline := NewPipeline()

	executed := false
	pipeline.Use(func(ctx *http.Context) {
		executed = true
	})

	ctx := newTestContext()
	pipeline.Execute(ctx, func(ctx *http.Context) {})

	if !executed {
		t.Error("middleware was not executed")
	}
}

func TestPipelineAbort(t *testing.T) {
	pipeline := NewPipeline()

	var step1, step2, finalRan bool

	pipeline.Use(func(ctx *http.Context) {
		step1 = true
		ctx.Abort()
	})
	pipeline.Use(func(ctx *http.Context) {
		step2 = true
	})

	ctx := newTestContext()
	pipeline.Execute(ctx, func(ctx *http.Context) {
		finalRan = true
	})

	if !step1 {
		t.Error("step1 should run")
	}
	if step2 {
		t.Error("step2 should not run after abort")
	}
	if finalRan {
		t.Error("handler should not run after abort")
	}
}

func TestPipelineOrder(t *testing.T) {
	pipeline := NewPipeline()
	var order []int

	pipeline.Use(func(ctx *http.Context) { order = append(order, 1) })
	pipeline.Use(func(ctx *http.Context) { order = append(order, 2) })
	pipeline.Use(func(ctx *http.Context) { order = append(order, 3) })

	ctx := newTestContext()
	pipeline.Execute(ctx, func(ctx *http.Context) { order = append(order, 4) })

	want := []int{1, 2, 3, 4}
	if len(order) != len(want) {
		t.Fatalf("got %d steps, want %d", len(order), len(want))
	}
	for i, v := range want {
		if order[i] != v {
			t.Errorf("order[%d] = %d, want %d", i, order[i], v)
		}
	}
}

func TestRecoveryMiddlewareConvertsPanicTo500(t *testing.T) {
	pipeline := NewPipeline()
	pipeline.Use(Recovery(zerolog.Nop()))

	ctx := newTestContext()
	pipeline.Execute(ctx, func(ctx *http.Context) {
		panic("boom")
	})

	if ctx.Response.Status() != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", ctx.Response.Status())
	}
	if !ctx.IsAborted() {
		t.Error("context should be aborted after recovery")
	}
}

func TestRequestIDMiddlewareSetsHeader(t *testing.T) {
	middleware := RequestID()
	ctx := newTestContext()
	middleware(ctx)
	if !ctx.Response.HasHeader("X-Request-ID") {
		t.Error("expected X-Request-ID header to be set")
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := RateLimiter(2)

	ctx1, ctx2, ctx3 := newTestContext(), newTestContext(), newTestContext()

	limiter(ctx1)
	if ctx1.IsAborted() {
		t.Error("first request should not be rate limited")
	}
	limiter(ctx2)
	if ctx2.IsAborted() {
		t.Error("second request should not be rate limited")
	}
	limiter(ctx3)
	if !ctx3.IsAborted() {
		t.Error("third request should be rate limited")
	}

	time.Sleep(1100 * time.Millisecond)

	ctx4 := newTestContext()
	limiter(ctx4)
	if ctx4.IsAborted() {
		t.Error("request after refill should not be rate limited")
	}
}

func TestAsyncPipeline(t *testing.T) {
	asyncPipeline := NewAsyncPipeline(2)

	syncExecuted := false
	asyncDone := make(chan struct{}, 1)

	asyncPipeline.UseSync(func(ctx *http.Context) {
		syncExecuted = true
	})
	asyncPipeline.UseAsync(func(ctx *http.Context) {
		asyncDone <- struct{}{}
	})

	ctx := newTestContext()
	asyncPipeline.Execute(ctx, func(ctx *http.Context) {})

	if !syncExecuted {
		t.Error("sync middleware was not executed")
	}

	select {
	case <-asyncDone:
	case <-time.After(time.Second):
		t.Error("async middleware did not run")
	}
}

func BenchmarkPipeline(b *testing.B) {
	pipeline := NewPipeline()
	pipeline.Use(func(ctx *http.Context) {})
	pipeline.Use(func(ctx *http.Context) {})
	pipeline.Use(func(ctx *http.Context) {})
	pipeline.Compile()

	ctx := newTestContext()
	final := func(ctx *http.Context) {}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pipeline.Execute(ctx, final)
	}
}
