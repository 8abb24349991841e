package core

import (
	"github.com/oneopane/libxev-http/config"
	"github.com/oneopane/libxev-http/core/http"
)

// Verdict is the outcome of evaluating a connection's timing facts
// against its configuration at a given instant.
type Verdict int

const (
	Allowed Verdict = iota
	VerdictRequestTooLarge
	VerdictHeadersTooMany
	VerdictHeaderTooLarge
	VerdictURITooLong
	VerdictBodyTooLarge
	VerdictProcessingTimeout
	VerdictConnectionTimeout
	VerdictIdleTimeout
)

func (v Verdict) String() string {
	switch v {
	case Allowed:
		return "allowed"
	case VerdictRequestTooLarge:
		return "request_too_large"
	case VerdictHeadersTooMany:
		return "headers_too_many"
	case VerdictHeaderTooLarge:
		return "header_too_large"
	case VerdictURITooLong:
		return "uri_too_long"
	case VerdictBodyTooLarge:
		return "body_too_large"
	case VerdictProcessingTimeout:
		return "processing_timeout"
	case VerdictConnectionTimeout:
		return "connection_timeout"
	case VerdictIdleTimeout:
		return "idle_timeout"
	default:
		return "unknown"
	}
}

// ConnectionTiming holds per-connection facts, mutated only by the read
// path of its owning connection — single-owner discipline, no locking.
type ConnectionTiming struct {
	StartTimeMs        int64
	LastReadTimeMs     int64
	HeadersComplete    bool
	ExpectedBodyLength int64 // -1 means unknown
	ReceivedBodyLength int64
}

// Evaluate is a pure function of (timing, cfg, now) -> verdict. Rules
// are evaluated in order; the first non-allowed verdict wins. Disabled
// globally when EnableTimeoutProtection is false.
func Evaluate(t ConnectionTiming, cfg *config.Config, nowMs int64) Verdict {
	if !cfg.EnableTimeoutProtection {
		return Allowed
	}

	if nowMs-t.StartTimeMs > int64(cfg.ConnectionTimeoutMs) {
		return VerdictConnectionTimeout
	}
	if nowMs-t.LastReadTimeMs > int64(cfg.IdleTimeoutMs) {
		return VerdictIdleTimeout
	}
	if !t.HeadersComplete && nowMs-t.StartTimeMs > int64(cfg.HeaderTimeoutMs) {
		return VerdictProcessingTimeout
	}
	if t.HeadersComplete && t.ExpectedBodyLength >= 0 && nowMs-t.StartTimeMs > int64(cfg.BodyTimeoutMs) {
		threshold := t.ExpectedBodyLength * int64(cfg.BodyReadThresholdPercent) / 100
		if t.ReceivedBodyLength < threshold {
			return VerdictProcessingTimeout
		}
	}
	return Allowed
}

// ValidateRequestSize checks total bytes read against max_body_size
// plus the fixed over-read slack the driver tolerates before it can
// even see Content-Length: a legitimate request is allowed to
// accumulate up to max_body_size, and OverreadSlack beyond that, before
// this guard fires a 413 mid-read.
func ValidateRequestSize(totalRead int64, cfg *config.Config) bool {
	if !cfg.EnableRequestValidation {
		return true
	}
	return totalRead <= cfg.MaxBodySize+http.OverreadSlack
}

// ValidateHeaderCount checks a header count against the configured
// ceiling.
func ValidateHeaderCount(count int, cfg *config.Config) bool {
	if !cfg.EnableRequestValidation {
		return true
	}
	return count <= cfg.MaxHeaderCount
}

// ValidateHeaderSize checks the raw header-section length.
func ValidateHeaderSize(size int, cfg *config.Config) bool {
	if !cfg.EnableRequestValidation {
		return true
	}
	return size <= cfg.MaxHeaderSize
}

// ValidateURILength checks a request-target length.
func ValidateURILength(length int, cfg *config.Config) bool {
	if !cfg.EnableRequestValidation {
		return true
	}
	return length <= cfg.MaxURILength
}

// ValidateBodySize checks a declared or accumulated body length.
func ValidateBodySize(size int64, cfg *config.Config) bool {
	if !cfg.EnableRequestValidation {
		return true
	}
	return size <= cfg.MaxBodySize
}
