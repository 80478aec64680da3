package errors

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	err := New("tls: something went wrong: ", 42)
	got := err.Error()
	want := "errors.TestErrorMessage: tls: something went wrong: 42"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorBaseAndCause(t *testing.T) {
	sentinel := stderrors.New("sentinel")
	err := New("outer").Base(New("middle").Base(sentinel))

	if !stderrors.Is(err, sentinel) {
		t.Error("errors.Is does not see through the chain")
	}
	if got := Cause(err); got != sentinel {
		t.Errorf("Cause = %v, want %v", got, sentinel)
	}
	if msg := err.Error(); !strings.Contains(msg, " > ") || !strings.Contains(msg, "sentinel") {
		t.Errorf("chained message %q does not include the inner error", msg)
	}
}

func TestSeverity(t *testing.T) {
	if got := New("x").AtError().Severity(); got != SeverityError {
		t.Errorf("AtError severity = %v, want %v", got, SeverityError)
	}
	// A more severe inner error dominates the outer severity.
	err := New("outer").AtWarning().Base(New("inner").AtError())
	if got := err.Severity(); got != SeverityError {
		t.Errorf("chained severity = %v, want %v", got, SeverityError)
	}
	if got := GetSeverity(stderrors.New("plain")); got != SeverityInfo {
		t.Errorf("GetSeverity(plain error) = %v, want %v", got, SeverityInfo)
	}
	if got := SeverityUnknown.String(); got != "Unknown" {
		t.Errorf("SeverityUnknown.String() = %q, want %q", got, "Unknown")
	}
}

func TestCombine(t *testing.T) {
	if err := Combine(nil, nil, nil); err != nil {
		t.Errorf("Combine(nils) = %v, want nil", err)
	}

	sentinel := stderrors.New("sentinel")
	a := New("a").Base(sentinel)
	b := New("b").Base(sentinel)
	combined := Combine(a, nil, b)
	if combined == nil {
		t.Fatal("Combine dropped non-nil errors")
	}
	if !stderrors.Is(combined, sentinel) {
		t.Error("errors.Is does not see into a combined error")
	}
	if !AllEqual(sentinel, combined) {
		t.Error("AllEqual = false for a bundle that only wraps the sentinel")
	}

	other := stderrors.New("other")
	if AllEqual(sentinel, Combine(a, New("c").Base(other))) {
		t.Error("AllEqual = true for a bundle with a foreign error")
	}
	if !AllEqual(sentinel, a) {
		t.Error("AllEqual = false for a single matching error")
	}
}

func TestWithStack(t *testing.T) {
	err := New("boom").WithStack()
	if len(err.Stack()) == 0 {
		t.Fatal("WithStack captured no frames")
	}
	if msg := err.Error(); !strings.Contains(msg, "Stack trace:") {
		t.Errorf("message %q does not include the stack trace", msg)
	}
}

func TestLogWriterAndLevel(t *testing.T) {
	var buf bytes.Buffer
	SetLogWriter(&buf)
	defer SetLogWriter(nil)
	SetLogLevel(SeverityWarning)
	defer SetLogLevel(SeverityWarning)

	LogInfo(context.Background(), "filtered out")
	if buf.Len() != 0 {
		t.Errorf("info line logged at warning level: %q", buf.String())
	}

	ctx := ContextWithID(context.Background(), 7)
	LogWarning(ctx, "disk on fire")
	got := buf.String()
	if !strings.Contains(got, "[Warning]") || !strings.Contains(got, "disk on fire") {
		t.Errorf("warning line = %q", got)
	}
	if !strings.Contains(got, "[7]") {
		t.Errorf("warning line %q missing session ID prefix", got)
	}

	SetLogLevel(SeverityDebug)
	if !ShouldLog(SeverityDebug) {
		t.Error("ShouldLog(Debug) = false at debug level")
	}
	SetLogLevel(SeverityError)
	if ShouldLog(SeverityWarning) {
		t.Error("ShouldLog(Warning) = true at error level")
	}
}

func TestLogCallback(t *testing.T) {
	var buf bytes.Buffer
	SetLogWriter(&buf)
	defer SetLogWriter(nil)

	var gotSeverity Severity
	var gotMessage string
	SetLogCallback(func(s Severity, msg string) {
		gotSeverity = s
		gotMessage = msg
	})
	defer SetLogCallback(nil)

	LogError(context.Background(), "routed to callback")
	if gotSeverity != SeverityError || !strings.Contains(gotMessage, "routed to callback") {
		t.Errorf("callback got (%v, %q)", gotSeverity, gotMessage)
	}
	if buf.Len() != 0 {
		t.Errorf("callback did not suppress the writer: %q", buf.String())
	}
}

func TestContextID(t *testing.T) {
	if got := IDFromContext(nil); got != 0 {
		t.Errorf("IDFromContext(nil) = %d, want 0", got)
	}
	if got := IDFromContext(context.Background()); got != 0 {
		t.Errorf("IDFromContext(Background) = %d, want 0", got)
	}
	ctx := ContextWithID(context.Background(), 42)
	if got := IDFromContext(ctx); got != 42 {
		t.Errorf("IDFromContext = %d, want 42", got)
	}
}
