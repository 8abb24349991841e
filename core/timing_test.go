package core

import (
	"testing"

	"github.com/oneopane/libxev-http/config"
	"github.com/oneopane/libxev-http/core/http"
)

func TestEvaluateAllowed(t *testing.T) {
	cfg := config.Default()
	timing := ConnectionTiming{StartTimeMs: 1000, LastReadTimeMs: 1000, ExpectedBodyLength: -1}
	if v := Evaluate(timing, cfg, 1100); v != Allowed {
		t.Errorf("Evaluate = %v, want allowed", v)
	}
}

func TestEvaluateConnectionTimeout(t *testing.T) {
	cfg := config.Default()
	timing := ConnectionTiming{StartTimeMs: 0, LastReadTimeMs: 0, ExpectedBodyLength: -1}
	v := Evaluate(timing, cfg, int64(cfg.ConnectionTimeoutMs)+1000)
	if v != VerdictConnectionTimeout {
		t.Errorf("Evaluate = %v, want connection_timeout", v)
	}
}

func TestEvaluateIdleTimeoutTakesPrecedenceOverHeader(t *testing.T) {
	cfg := config.Default()
	timing := ConnectionTiming{StartTimeMs: 0, LastReadTimeMs: 0, ExpectedBodyLength: -1}
	// Past both idle_timeout_ms and header_timeout_ms, but within
	// connection_timeout_ms, so both the idle and header rules apply.
	now := int64(cfg.HeaderTimeoutMs) + 100
	if v := Evaluate(timing, cfg, now); v != VerdictIdleTimeout {
		t.Errorf("Evaluate = %v, want idle_timeout", v)
	}
}

func TestEvaluateProcessingTimeoutBeforeHeaders(t *testing.T) {
	cfg := config.Default()
	timing := ConnectionTiming{StartTimeMs: 0, LastReadTimeMs: 0, ExpectedBodyLength: -1}
	// idle_timeout_ms (5000) < header_timeout_ms (10000) by default, so
	// bump last_read_time to keep the idle rule from firing first.
	timing.LastReadTimeMs = int64(cfg.HeaderTimeoutMs)
	now := int64(cfg.HeaderTimeoutMs) + 1
	if v := Evaluate(timing, cfg, now); v != VerdictProcessingTimeout {
		t.Errorf("Evaluate = %v, want processing_timeout", v)
	}
}

func TestEvaluateBodyProgressThreshold(t *testing.T) {
	cfg := config.Default()
	// connection_timeout_ms (30000) < body_timeout_ms (60000) by default,
	// so raise it to keep the connection rule from firing first.
	cfg.ConnectionTimeoutMs = 2 * cfg.BodyTimeoutMs
	timing := ConnectionTiming{
		StartTimeMs:        0,
		LastReadTimeMs:     int64(cfg.BodyTimeoutMs),
		HeadersComplete:    true,
		ExpectedBodyLength: 1000,
		ReceivedBodyLength: 5, // well under 10% threshold
	}
	now := int64(cfg.BodyTimeoutMs) + 1
	if v := Evaluate(timing, cfg, now); v != VerdictProcessingTimeout {
		t.Errorf("Evaluate = %v, want processing_timeout (slowloris)", v)
	}

	timing.ReceivedBodyLength = 200 // well over 10% threshold
	if v := Evaluate(timing, cfg, now); v != Allowed {
		t.Errorf("Evaluate = %v, want allowed once progress clears threshold", v)
	}
}

func TestEvaluateDisabledAlwaysAllowed(t *testing.T) {
	cfg := config.Default()
	cfg.EnableTimeoutProtection = false
	timing := ConnectionTiming{StartTimeMs: 0, LastReadTimeMs: 0, ExpectedBodyLength: -1}
	if v := Evaluate(timing, cfg, 10_000_000); v != Allowed {
		t.Errorf("Evaluate = %v, want allowed when protection disabled", v)
	}
}

func TestValidateRequestSize(t *testing.T) {
	cfg := config.Default()
	if !ValidateRequestSize(cfg.MaxBodySize, cfg) {
		t.Error("exactly at max_body_size should pass")
	}
	if !ValidateRequestSize(cfg.MaxBodySize+http.OverreadSlack, cfg) {
		t.Error("within max_body_size+overread_slack should still pass")
	}
	if ValidateRequestSize(cfg.MaxBodySize+http.OverreadSlack+1, cfg) {
		t.Error("beyond max_body_size+overread_slack should fail")
	}
}
