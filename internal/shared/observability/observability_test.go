package observability

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteMetricsFile(t *testing.T) {
	FilesDiscoveredTotal.Add(3)
	FixWritesTotal.WithLabelValues("applied").Inc()

	path := filepath.Join(t.TempDir(), "importfix.prom")
	if err := WriteMetricsFile(path); err != nil {
		t.Fatalf("WriteMetricsFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"importfix_files_discovered_total", `importfix_fix_writes_total{status="applied"}`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected %s in metrics output", want)
		}
	}
}

func TestSetupTracing_Disabled(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), TracingOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}

	_, span := Tracer.Start(context.Background(), "noop")
	span.End()
}
