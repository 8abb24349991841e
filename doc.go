/*
Package libxevhttp provides an async HTTP/1.1 server framework core: a
bounded, incremental request parser, a response builder, a
per-connection timeout/validation engine, an admission-controlled
connection pool, and a path router with param extraction — all driven
by a gnet-based event loop.

Connections are one-shot: accept, admit, read until headers and body
are complete, parse, route, respond, close. There is no keep-alive
request reuse, no chunked transfer-encoding, and no TLS — those are
left to a layer above this one.

Quick Start

	package main

	import (
	    "github.com/oneopane/libxev-http/app"
	    "github.com/oneopane/libxev-http/config"
	    "github.com/oneopane/libxev-http/core/http"
	)

	func main() {
	    cfg := config.Default()
	    a := app.New(cfg)

	    a.GET("/hello", func(ctx *http.Context) error {
	        ctx.String(http.StatusOK, "Hello, World!")
	        return nil
	    })

	    a.GET("/files/:filename", func(ctx *http.Context) error {
	        ctx.JSON(http.StatusOK, map[string]string{"filename": ctx.Param("filename")})
	        return nil
	    })

	    a.Run()
	}

Modules

  - app: application lifecycle — route/middleware registration, gnet.Run, signal-driven shutdown
  - config: typed, validated, immutable configuration with basic/secure/dev presets
  - core: the connection driver (gnet.EventHandler) and the timeout/validation engine
  - core/http: request parsing, response building, URL codec, per-request context
  - core/router: path-pattern registration and first-match-wins matching
  - core/middleware: an ordered pipeline of pre-handler steps
  - core/pools: admission control, buffer pooling, object recycling, worker pool
  - core/optimize: path comparison with AVX2/NEON capability dispatch (every variant uses plain string equality)
  - core/observability: request/connection metrics and handler-latency monitoring
*/
package libxevhttp
