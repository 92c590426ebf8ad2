// Command csgq evaluates a CSG model and resolves points against it.
//
// Usage:
//
//	csgq [-model file.csg] [-json] x,y,z ...
//
// Settings come from CSGQ_* environment variables and an optional .env file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chazu/csgeom/internal/config"
	"github.com/chazu/csgeom/internal/logger"
	"github.com/chazu/csgeom/internal/otel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	var asJSON bool
	flag.StringVar(&cfg.Model, "model", cfg.Model, "model source file (default $CSGQ_MODEL)")
	flag.BoolVar(&asJSON, "json", false, "print the report as JSON")
	flag.Parse()

	log := logger.Init(os.Stderr, logger.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})

	if cfg.Model == "" {
		fmt.Fprintln(os.Stderr, "Error: no model given; set CSGQ_MODEL or pass -model")
		return 2
	}
	points := make([]v3.Vec, 0, flag.NArg())
	for _, arg := range flag.Args() {
		p, err := parsePoint(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 2
		}
		points = append(points, p)
	}

	source, err := os.ReadFile(cfg.Model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdown, err := otel.Setup(ctx, "csgq", cfg.OTelEndpoint)
	if err != nil {
		log.Warn("tracing disabled", "error", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warn("trace shutdown", "error", err)
		}
	}()

	report := NewApp(cfg, log).Run(ctx, string(source), points)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	} else {
		report.WriteText(os.Stdout)
	}

	if len(report.Errors) > 0 {
		return 1
	}
	return 0
}
