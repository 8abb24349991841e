package core

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/oneopane/libxev-http/config"
	"github.com/oneopane/libxev-http/core/http"
	"github.com/oneopane/libxev-http/core/middleware"
	"github.com/oneopane/libxev-http/core/router"
)

func TestStatusForParseError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{http.ErrBodyTooLarge, http.StatusPayloadTooLarge},
		{http.ErrHeadersTooLarge, http.StatusPayloadTooLarge},
		{http.ErrRequestTooLarge, http.StatusPayloadTooLarge},
		{http.ErrInvalidRequestLine, http.StatusBadRequest},
		{http.ErrTooManyHeaders, http.StatusBadRequest},
	}
	for _, c := range cases {
		if got := statusForParseError(c.err); got != c.want {
			t.Errorf("statusForParseError(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestConnRecyclable(t *testing.T) {
	cs := &conn{}
	cs.state = stateWriting
	cs.timing.HeadersComplete = true
	cs.headerEnd = 42

	cs.SetFD(7)
	if cs.fd != 7 {
		t.Fatalf("SetFD did not record fd: got %d", cs.fd)
	}

	cs.Reset()
	if cs.state != stateReading || cs.timing.HeadersComplete || cs.headerEnd != 0 || cs.buf != nil {
		t.Errorf("Reset left stale state: %+v", cs)
	}
}

func TestNewEngineWiresLeafComponents(t *testing.T) {
	cfg := config.Default()
	rt := router.New()
	rt.Handle("GET", "/ok", func(ctx *http.Context) error {
		ctx.String(http.StatusOK, "ok")
		return nil
	})
	pipeline := middleware.NewPipeline()
	logger := zerolog.Nop()

	e := NewEngine(cfg, rt, pipeline, logger)
	if e.Metrics() == nil {
		t.Fatal("Metrics() returned nil")
	}
	if e.admission.Max() != int64(cfg.MaxConnections) {
		t.Errorf("admission ceiling = %d, want %d", e.admission.Max(), cfg.MaxConnections)
	}
}
