package telemetry

import (
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// Report is a single call made against a TestAPI.
type Report struct {
	Kind   string
	Id     string
	Params []any
}

// TestAPI records every report so tests can assert on what was (or wasn't) reported.
type TestAPI struct {
	mutex   sync.Mutex
	reports []Report
}

func (t *TestAPI) record(kind, id string, params []any) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.reports = append(t.reports, Report{Kind: kind, Id: id, Params: params})
}

func (t *TestAPI) ReportBroken(id string, params ...any) {
	t.record("broken", id, params)
}

func (t *TestAPI) ReportWarning(id string, params ...any) {
	t.record("warning", id, params)
}

func (t *TestAPI) ReportDebug(msg string, params ...any) {
	t.record("debug", msg, params)
}

func (t *TestAPI) ReportCount(id string, count int64) {
	t.record("count", id, []any{count})
}

// Reports returns a copy of every report of the given kind whose id contains substr.
func (t *TestAPI) Reports(kind, substr string) []Report {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	var out []Report
	for _, r := range t.reports {
		if r.Kind == kind && strings.Contains(r.Id, substr) {
			out = append(out, r)
		}
	}
	return out
}

func (t *TestAPI) String() string {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	var sb strings.Builder
	for _, r := range t.reports {
		sb.WriteString(fmt.Sprintf("%s %s %v\n", r.Kind, r.Id, r.Params))
	}
	return sb.String()
}

var (
	spanRecorderOnce sync.Once
	spanRecorder     *tracetest.InMemoryExporter
)

// RecordSpans installs a global tracer provider that keeps every ended span in
// memory and returns its exporter. Tracers created before the first call are
// bound to it as well, so it is installed once per test binary; call Reset on
// the exporter to start from a clean slate.
func RecordSpans() *tracetest.InMemoryExporter {
	spanRecorderOnce.Do(func() {
		spanRecorder = tracetest.NewInMemoryExporter()
		otel.SetTracerProvider(sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(spanRecorder),
		))
	})
	return spanRecorder
}
