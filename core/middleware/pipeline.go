package middleware

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/oneopane/libxev-http/core/http"
	"github.com/oneopane/libxev-http/core/pools"
)

// HandlerFunc is the signature for a pipeline step, operating on the
// spec's abstract Context rather than any one connection-transport
// concrete type.
type HandlerFunc func(*http.Context)

// Pipeline is an ordered list of steps run strictly in registration
// order before the route handler. A step that calls ctx.Abort()
// short-circuits the remainder, including the handler.
type Pipeline struct {
	handlers []HandlerFunc
	length   int
}

// NewPipeline creates an empty middleware pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		handlers: make([]HandlerFunc, 0, 16),
	}
}

// Use appends a middleware step.
func (p *Pipeline) Use(handler HandlerFunc) *Pipeline {
	p.handlers = append(p.handlers, handler)
	p.length = len(p.handlers)
	return p
}

// Execute runs the pipeline, then the handler unless a step aborted.
func (p *Pipeline) Execute(ctx *http.Context, finalHandler HandlerFunc) {
	if p.length == 0 {
		finalHandler(ctx)
		return
	}

	for i := 0; i < p.length; i++ {
		p.handlers[i](ctx)
		if ctx.IsAborted() {
			return
		}
	}

	if !ctx.IsAborted() {
		finalHandler(ctx)
	}
}

// Compile freezes the handler slice at its exact length, avoiding
// spare append capacity once registration is done.
func (p *Pipeline) Compile() *Pipeline {
	if p.length <= 1 {
		return p
	}
	compiled := make([]HandlerFunc, p.length)
	copy(compiled, p.handlers)
	p.handlers = compiled
	return p
}

// AsyncPipeline composes a synchronous Pipeline with a set of
// fire-and-forget steps dispatched to a work-stealing worker pool —
// logging, metrics, anything that must not hold up the response.
type AsyncPipeline struct {
	sync    *Pipeline
	async   []AsyncHandlerFunc
	workers *pools.WorkerPool
}

// AsyncHandlerFunc is a step that runs off the request's critical path.
type AsyncHandlerFunc func(*http.Context)

// NewAsyncPipeline creates an AsyncPipeline backed by a WorkerPool sized
// to workers goroutines (runtime.NumCPU() if workers <= 0).
func NewAsyncPipeline(workers int) *AsyncPipeline {
	return &AsyncPipeline{
		sync:    NewPipeline(),
		async:   make([]AsyncHandlerFunc, 0, 8),
		workers: pools.NewWorkerPool(workers),
	}
}

// UseSync adds a synchronous step.
func (p *AsyncPipeline) UseSync(handler HandlerFunc) *AsyncPipeline {
	p.sync.Use(handler)
	return p
}

// UseAsync adds an asynchronous step.
func (p *AsyncPipeline) UseAsync(handler AsyncHandlerFunc) *AsyncPipeline {
	p.async = append(p.async, handler)
	return p
}

// Execute runs the synchronous chain, then fans the async steps out to
// the worker pool. The pool falls back to running a step inline if the
// round-robin target queue and the one after it are both full, rather
// than dropping it.
func (p *AsyncPipeline) Execute(ctx *http.Context, finalHandler HandlerFunc) {
	p.sync.Execute(ctx, finalHandler)

	if !ctx.IsAborted() {
		for _, handler := range p.async {
			h := handler
			p.workers.Submit(func() { h(ctx) })
		}
	}
}

// Stats reports the backing worker pool's submission/completion/steal
// counters.
func (p *AsyncPipeline) Stats() pools.WorkerPoolStats {
	return p.workers.Stats()
}

// Close shuts down the backing worker pool.
func (p *AsyncPipeline) Close() {
	p.workers.Close()
}

// Common middleware implementations, grounded on the teacher's set.

// Recovery recovers from panics in later steps/the handler and converts
// them into a 500 response instead of crashing the connection's goroutine.
func Recovery(logger zerolog.Logger) HandlerFunc {
	return func(ctx *http.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error().Interface("panic", err).Str("path", ctx.Path()).Msg("recovered from panic")
				ctx.Abort()
				ctx.JSON(http.StatusInternalServerError, map[string]any{
					"error": ReasonPhraseInternalError,
				})
			}
		}()
	}
}

const ReasonPhraseInternalError = "Internal Server Error"

// Logger logs one line per request, off the critical path.
func Logger(logger zerolog.Logger) AsyncHandlerFunc {
	return func(ctx *http.Context) {
		logger.Info().Str("method", ctx.Method()).Str("path", ctx.Path()).Msg("request")
	}
}

// CORS adds permissive CORS headers and short-circuits OPTIONS preflight.
func CORS() HandlerFunc {
	return func(ctx *http.Context) {
		ctx.SetHeader("Access-Control-Allow-Origin", "*")
		ctx.SetHeader("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		ctx.SetHeader("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if ctx.Method() == "OPTIONS" {
			ctx.Abort()
			ctx.Status(http.StatusNoContent)
		}
	}
}

// RateLimiter implements a simple per-process token-bucket limiter.
func RateLimiter(requestsPerSecond int) HandlerFunc {
	var (
		tokens     int
		lastRefill time.Time
		mu         sync.Mutex
	)

	tokens = requestsPerSecond
	lastRefill = time.Now()

	return func(ctx *http.Context) {
		mu.Lock()

		now := time.Now()
		if now.Sub(lastRefill) > time.Second {
			tokens = requestsPerSecond
			lastRefill = now
		}

		if tokens > 0 {
			tokens--
			mu.Unlock()
			return
		}

		mu.Unlock()

		ctx.Abort()
		ctx.JSON(429, map[string]any{
			"error": "Too Many Requests",
		})
	}
}

// RequestID stamps a monotonically increasing request identifier.
func RequestID() HandlerFunc {
	var counter uint64

	return func(ctx *http.Context) {
		id := atomic.AddUint64(&counter, 1)
		ctx.SetHeader("X-Request-ID", fmt.Sprintf("%d", id))
	}
}

// Metrics records request counters off the critical path.
func Metrics(record func(method, path string)) AsyncHandlerFunc {
	return func(ctx *http.Context) {
		record(ctx.Method(), ctx.Path())
	}
}
