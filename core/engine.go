// Package core wires the leaf components — parser, router, timeout
// engine, admission control, buffer pool — into the connection driver:
// a gnet.EventHandler realizing the one-shot Reading -> HeadersComplete
// -> Dispatching -> Writing -> Closing state machine.
package core

import (
	"bytes"
	"fmt"
	"time"

	"github.com/panjf2000/gnet/v2"
	"github.com/rs/zerolog"

	"github.com/oneopane/libxev-http/config"
	"github.com/oneopane/libxev-http/core/http"
	"github.com/oneopane/libxev-http/core/middleware"
	"github.com/oneopane/libxev-http/core/observability"
	"github.com/oneopane/libxev-http/core/pools"
	"github.com/oneopane/libxev-http/core/router"
)

type connState int

const (
	stateReading connState = iota
	stateHeadersComplete
	stateDispatching
	stateWriting
	stateClosing
	stateClosed
)

var headerTerminator = []byte("\r\n\r\n")

// conn is the per-connection record gnet.Conn.SetContext carries. It is
// owned exclusively by the event loop goroutine driving this
// connection's callbacks — no locking, per the single-owner discipline
// the timing engine assumes. It implements pools.Recyclable so its
// struct allocation is reused across connections instead of discarded
// at every close.
type conn struct {
	fd        int
	state     connState
	timing    ConnectionTiming
	buf       *pools.PooledBuffer
	headerEnd int // index of the header terminator's first byte, once known
}

// Reset clears cs for reuse by a new connection. The buffer is released
// and cleared separately in release, since BufferPool.Put needs the
// size tier at the time of release.
func (cs *conn) Reset() {
	cs.state = stateReading
	cs.timing = ConnectionTiming{}
	cs.buf = nil
	cs.headerEnd = 0
}

// SetFD records the connection's file descriptor on pickup from the pool.
func (cs *conn) SetFD(fd int) {
	cs.fd = fd
}

// Engine implements gnet.EventHandler. Connections are one-shot: parse,
// dispatch, respond, close — no keep-alive request reuse.
type Engine struct {
	gnet.BuiltinEventEngine

	cfg      *config.Config
	router   *router.Router
	pipeline *middleware.Pipeline

	admission *pools.Admission
	buffers   *pools.BufferPool
	responses *pools.SmartPool
	states    *pools.StateRecycler
	metrics   *observability.ServerMetrics
	perf      *observability.PerformanceMonitor

	logger zerolog.Logger
	eng    gnet.Engine
}

// NewEngine wires cfg's limits into a fresh admission controller and
// buffer pool around rt and pipeline. It also applies the GC tuning the
// teacher's engine always ran with high-throughput serving in mind.
func NewEngine(cfg *config.Config, rt *router.Router, pipeline *middleware.Pipeline, logger zerolog.Logger) *Engine {
	if pipeline == nil {
		pipeline = middleware.NewPipeline()
	}
	pools.OptimizeForHighThroughput()

	responses := pools.NewSmartPool(pools.SmartPoolConfig{
		New: func() any { return http.NewResponse() },
		Reset: func(obj any) {
			obj.(*http.Response).Reset()
		},
		WarmupSize:    cfg.MaxConnections / 4,
		TargetHitRate: 0.95,
	})

	return &Engine{
		cfg:       cfg,
		router:    rt,
		pipeline:  pipeline,
		admission: pools.NewAdmission(cfg.MaxConnections),
		buffers:   pools.NewBufferPool(),
		responses: responses,
		states:    pools.NewStateRecycler(cfg.MaxConnections, func() any { return &conn{} }),
		metrics:   observability.NewServerMetrics(),
		perf:      observability.NewPerformanceMonitor(),
		logger:    logger,
	}
}

// Metrics exposes the engine's counters for a status endpoint or a
// periodic log line.
func (e *Engine) Metrics() *observability.ServerMetrics {
	return e.metrics
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}

// OnBoot records the running gnet.Engine handle for later use (e.g. a
// future Stop call from graceful shutdown).
func (e *Engine) OnBoot(eng gnet.Engine) gnet.Action {
	e.eng = eng
	e.logger.Info().
		Str("address", e.cfg.Address).
		Int("port", e.cfg.Port).
		Int("max_connections", e.cfg.MaxConnections).
		Msg("listening")
	return gnet.None
}

// OnOpen enforces admission control before creating any per-connection
// state: active_connections stays within max_connections at every
// observation point, and a rejected connection never gets a conn
// record or a buffer.
func (e *Engine) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	if !e.admission.TryAcquire() {
		e.metrics.AdmissionsRejected.Add(1)
		return nil, gnet.Close
	}

	now := nowMs()
	cs := e.states.Get().(*conn)
	cs.SetFD(c.Fd())
	cs.state = stateReading
	cs.timing = ConnectionTiming{
		StartTimeMs:        now,
		LastReadTimeMs:     now,
		ExpectedBodyLength: -1,
	}
	cs.buf = e.buffers.Get(e.cfg.BufferSize)
	c.SetContext(cs)
	e.metrics.ActiveConnections.Add(1)
	return nil, gnet.None
}

// OnClose releases the admission slot exactly once, even if the peer
// reset the connection before OnTraffic ever ran a request to
// completion. It is also the only place the conn record goes back to
// the recycler, so a record already released by OnTraffic still carries
// its closed state here.
func (e *Engine) OnClose(c gnet.Conn, err error) gnet.Action {
	if cs, ok := c.Context().(*conn); ok && cs != nil {
		e.release(cs)
		c.SetContext(nil)
		e.states.Put(cs)
	}
	return gnet.None
}

func (e *Engine) release(cs *conn) {
	if cs.state == stateClosed {
		return
	}
	cs.state = stateClosed
	e.admission.Release()
	e.metrics.ActiveConnections.Add(-1)
	if cs.buf != nil {
		e.buffers.Put(cs.buf)
		cs.buf = nil
	}
}

// OnTraffic drives the accumulating-buffer state machine: append new
// bytes, refresh timing, apply the timeout/validation verdict, then
// advance through HeadersComplete and Dispatching synchronously within
// this callback once the body is fully received.
func (e *Engine) OnTraffic(c gnet.Conn) gnet.Action {
	cs, ok := c.Context().(*conn)
	if !ok || cs == nil {
		return gnet.Close
	}

	data, err := c.Next(-1)
	if err != nil {
		e.release(cs)
		return gnet.Close
	}

	cs.buf.Write(data)
	cs.timing.LastReadTimeMs = nowMs()

	if verdict := Evaluate(cs.timing, e.cfg, nowMs()); verdict != Allowed {
		e.logger.Warn().Str("verdict", verdict.String()).Msg("connection timing verdict")
		e.release(cs)
		return gnet.Close
	}

	if !ValidateRequestSize(int64(len(cs.buf.Bytes())), e.cfg) {
		e.writeCanned(c, http.StatusPayloadTooLarge, http.ReasonPhrase(http.StatusPayloadTooLarge))
		e.release(cs)
		return gnet.Close
	}

	buf := cs.buf.Bytes()

	if !cs.timing.HeadersComplete {
		idx := bytes.Index(buf, headerTerminator)
		if idx < 0 {
			return gnet.None
		}
		cs.state = stateHeadersComplete
		cs.timing.HeadersComplete = true
		cs.headerEnd = idx
		if n, ok := http.ParseContentLength(buf); ok {
			cs.timing.ExpectedBodyLength = n
		} else {
			cs.timing.ExpectedBodyLength = 0
		}
	}

	cs.timing.ReceivedBodyLength = int64(len(buf) - cs.headerEnd - len(headerTerminator))
	if cs.timing.ReceivedBodyLength < 0 {
		cs.timing.ReceivedBodyLength = 0
	}

	if cs.timing.ReceivedBodyLength < cs.timing.ExpectedBodyLength {
		return gnet.None
	}

	return e.dispatch(c, cs)
}

// dispatch parses the accumulated buffer into a Request, runs the
// pipeline and router against it, serializes the Response, and writes
// it out. Every exit path — parse failure, routing failure, handler
// success — ends in exactly one write and one Closing transition.
func (e *Engine) dispatch(c gnet.Conn, cs *conn) gnet.Action {
	cs.state = stateDispatching

	req, err := http.ParseRequest(cs.buf.Bytes(), http.Limits{
		MaxURILength:  e.cfg.MaxURILength,
		MaxHeaderSize: e.cfg.MaxHeaderSize,
		MaxBodySize:   e.cfg.MaxBodySize,
	})
	if err != nil {
		code := statusForParseError(err)
		e.writeCanned(c, code, http.ReasonPhrase(code))
		e.release(cs)
		return gnet.Close
	}

	resp := e.responses.Get().(*http.Response)
	ctx := http.AcquireContext(req, resp)

	traceKey := req.Method + " " + req.Path
	traceStart := e.perf.StartTrace()

	e.pipeline.Execute(ctx, func(ctx *http.Context) {
		if ctx.IsAborted() {
			return
		}
		if err := e.router.HandleRequest(ctx); err != nil {
			switch err {
			case router.ErrNotFound:
				ctx.Error(http.StatusNotFound, "route not found")
			case router.ErrMethodNotAllowed:
				ctx.Error(http.StatusMethodNotAllowed, "method not allowed")
			default:
				e.logger.Error().Err(err).Str("path", ctx.Path()).Msg("handler error")
				ctx.Error(http.StatusInternalServerError, "handler error")
			}
		}
	})

	e.metrics.RecordStatus(resp.Status())
	e.perf.EndTrace(traceKey, traceStart, resp.Status() >= 500)
	out := resp.Build()

	http.ReleaseRequest(req)
	http.ReleaseContext(ctx)
	e.responses.Put(resp)

	cs.state = stateWriting
	// Partial writes are looped-until-complete inside gnet's buffered
	// Write, so a short write here means a genuine I/O error, not a
	// truncated send we need to retry ourselves.
	if _, err := c.Write(out); err != nil {
		e.logger.Warn().Err(err).Msg("write error")
	}

	cs.state = stateClosing
	e.release(cs)
	return gnet.Close
}

// statusForParseError maps a parser error kind to the canned status
// code the wire contract assigns it: client protocol errors get 400,
// limit errors get 413.
func statusForParseError(err error) int {
	switch err {
	case http.ErrBodyTooLarge, http.ErrHeadersTooLarge, http.ErrRequestTooLarge:
		return http.StatusPayloadTooLarge
	default:
		return http.StatusBadRequest
	}
}

// writeCanned writes the fixed-shape JSON error body the wire contract
// uses for protocol- and limit-level failures, bypassing Context
// entirely since no Request could be parsed.
func (e *Engine) writeCanned(c gnet.Conn, code int, reason string) {
	resp := e.responses.Get().(*http.Response)
	resp.SetStatus(code)
	resp.SetJSONBody([]byte(fmt.Sprintf(`{"error":%q,"code":%d}`, reason, code)))
	e.metrics.RecordStatus(code)
	out := resp.Build()
	e.responses.Put(resp)
	if _, err := c.Write(out); err != nil {
		e.logger.Warn().Err(err).Msg("write error")
	}
}

// OnTick logs a periodic metrics snapshot. It is not a substitute for
// the per-connection idle/processing timeout sweep — gnet's v2
// EventHandler gives a callback no way to enumerate live connections,
// so that sweep runs exclusively at the read-completion boundary inside
// OnTraffic, per the wire contract's "polled, not preemptive" timeout
// model.
func (e *Engine) OnTick() (time.Duration, gnet.Action) {
	snap := e.metrics.Snapshot()
	e.logger.Debug().
		Int64("active_connections", snap.ActiveConnections).
		Uint64("admissions_rejected", snap.AdmissionsRejected).
		Uint64("status_2xx", snap.Status2xx).
		Uint64("status_4xx", snap.Status4xx).
		Uint64("status_5xx", snap.Status5xx).
		Msg("metrics")

	for _, b := range e.perf.GetBottlenecks() {
		e.logger.Warn().Str("type", b.Type).Str("handler", b.Location).Str("details", b.Details).Msg("bottleneck")
	}

	return 10 * time.Second, gnet.None
}
