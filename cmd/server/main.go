package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/oneopane/libxev-http/app"
	"github.com/oneopane/libxev-http/config"
	"github.com/oneopane/libxev-http/core/http"
)

func main() {
	mode := flag.String("mode", "basic", "basic|secure|dev")
	port := flag.Int("port", 0, "override the preset's port (0 keeps the preset default)")
	flag.Parse()

	cfg, err := config.Preset(*mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := config.LoadFromEnv(cfg, "LIBXEV"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	a := app.New(cfg)

	a.GET("/hello", func(ctx *http.Context) error {
		ctx.String(http.StatusOK, "Hello, World!")
		return nil
	})

	a.GET("/json", func(ctx *http.Context) error {
		ctx.JSON(http.StatusOK, map[string]string{"ok": "true"})
		return nil
	})

	a.GET("/files/:filename", func(ctx *http.Context) error {
		ctx.JSON(http.StatusOK, map[string]string{"filename": ctx.Param("filename")})
		return nil
	})

	if err := a.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
