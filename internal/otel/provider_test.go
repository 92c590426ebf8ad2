package otel_test

import (
	"context"
	"testing"

	"github.com/chazu/csgeom/internal/otel"
)

func TestSetupNoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := otel.Setup(context.Background(), "test-service", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown should not error: %v", err)
	}
}

func TestSetupCreatesProvider(t *testing.T) {
	// A non-routable address, so nothing is exported.
	shutdown, err := otel.Setup(context.Background(), "test-service", "http://192.0.2.1:4318")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The span is never ended, so nothing is queued for export.
	_, span := otel.Tracer("csgq-test").Start(context.Background(), "phase")
	if !span.SpanContext().IsValid() {
		t.Error("expected a recording span from the installed provider")
	}

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}
