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

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf, Component: ComponentStore})
	l.Info("hello", FieldUserID, "u1")
	out := buf.String()
	if !strings.Contains(out, "component=store") || !strings.Contains(out, "user_id=u1") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestMiddlewareCarriesLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf, Component: ComponentHTTP})
	h := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).With(FieldRequestID, "rid-1").Info("inside")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(buf.String(), "request_id=rid-1") {
		t.Fatalf("request id missing: %s", buf.String())
	}
}

func TestStructuredLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf, Component: ComponentExpense}))
	sl.LogError(context.Background(), "failed", errors.New("boom"), OpCreate, NewFields().WithUser("u9"))
	out := buf.String()
	for _, want := range []string{"level=ERROR", "error=boom", "operation=create", "user_id=u9"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %s", want, out)
		}
	}
}

func TestFieldsSortedAndSparse(t *testing.T) {
	got := NewFields().
		WithUser("").
		WithSession("s1", "resolving").
		WithOperation(OpSignIn).
		ToSlice()
	want := []any{FieldOperation, OpSignIn, FieldSessionID, "s1", FieldSessionState, "resolving"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
