package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewJSONLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentIngest, Format: "json", Output: &buf})
	l.Info("row loaded", NewFields().WithRow(3, "30111222").ToSlice()...)

	out := buf.String()
	for _, want := range []string{`"component":"ingest"`, `"row":3`, `"dni":"30111222"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentApp, Output: &buf})
	l.With(FieldRunID, "r1").WithComponent(ComponentPipeline).WithComponent(ComponentIngest).Info("step")

	out := buf.String()
	if n := strings.Count(out, "component="); n != 1 {
		t.Fatalf("expected one component attribute, got %d in %s", n, out)
	}
	if !strings.Contains(out, "component=ingest") || !strings.Contains(out, "run_id=r1") {
		t.Fatalf("unexpected record %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo, "nope": slog.LevelInfo}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("%q expected %v, got %v", in, want, got)
		}
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().WithRunID("r1").WithError(errors.New("boom")).WithError(nil).WithSheet("Marzo 25")
	got := f.ToSlice()
	want := []any{FieldError, "boom", FieldRunID, "r1", FieldSheet, "Marzo 25"}
	if len(got) != len(want) {
		t.Fatalf("unexpected fields %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected fields %v", got)
		}
	}
}

func TestMiddlewareStoresLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentHTTP, Output: &buf})

	var seen *Logger
	h := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	if seen == nil || seen.Component() != ComponentHTTP {
		t.Fatalf("expected request logger in context, got %+v", seen)
	}
	if !strings.Contains(buf.String(), "status_code=418") {
		t.Fatalf("expected status in log line: %s", buf.String())
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatal("expected fallback logger")
	}
}
