package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

type testLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *testLogger) Logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

type memFS struct {
	files map[string]string
}

func (f *memFS) ReadFile(name string) (string, error) {
	data, ok := f.files[name]
	if !ok {
		return "", fmt.Errorf("no such file: %s", name)
	}
	return data, nil
}

func (f *memFS) WriteFile(name, data string) error {
	f.files[name] = data
	return nil
}

func echoCaller() ToolCaller {
	return ToolCallerFunc(func(_ context.Context, name string, args map[string]any) (any, error) {
		return map[string]any{"tool": name, "args": args}, nil
	})
}

func TestSandbox_RunReturnsValue(t *testing.T) {
	s, err := New(Options{}, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := s.Run(context.Background(), "1 + 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ToHost(v); got != 3 {
		t.Errorf("got %#v, want 3", got)
	}
}

func TestSandbox_GuestExceptionClassified(t *testing.T) {
	s, _ := New(Options{}, nil, "")
	_, err := s.Run(context.Background(), `throw new Error("kaput")`)
	if !errors.Is(err, ErrGuestRuntime) {
		t.Fatalf("expected ErrGuestRuntime, got %v", err)
	}
	var ge *GuestError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GuestError, got %T", err)
	}
	if !strings.Contains(ge.Message, "kaput") {
		t.Errorf("message %q does not name the exception", ge.Message)
	}
	if ge.Stack == "" {
		t.Error("expected a formatted stack trace")
	}
}

func TestSandbox_TimeoutInterruptsRun(t *testing.T) {
	s, _ := New(Options{Timeout: 50 * time.Millisecond}, nil, "")

	start := time.Now()
	_, err := s.Run(context.Background(), "for(;;){}")
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !errors.Is(err, ErrGuestRuntime) {
		t.Error("timeout must also match ErrGuestRuntime")
	}
	if elapsed > 5*time.Second {
		t.Errorf("interrupt took too long: %v", elapsed)
	}
}

func TestSandbox_CancellationIsNotTimeout(t *testing.T) {
	s, _ := New(Options{}, nil, "")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := s.Run(ctx, "for(;;){}")
	if !errors.Is(err, ErrGuestRuntime) {
		t.Fatalf("expected ErrGuestRuntime, got %v", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("parent cancellation must not classify as a timeout")
	}
	var ge *GuestError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GuestError, got %T", err)
	}
	if !strings.Contains(ge.Message, "canceled") {
		t.Errorf("message %q does not name the cancellation", ge.Message)
	}
}

func TestSandbox_NoStaleInterruptAfterRun(t *testing.T) {
	// A deadline firing right as the script finishes must not leave an
	// interrupt behind that trips the post-Run conversion.
	for i := 0; i < 50; i++ {
		s, _ := New(Options{}, nil, "")
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		v, err := s.Run(ctx, `({ get n() { return 41 + 1 } })`)
		cancel()
		if err != nil {
			continue // interrupted mid-run, nothing to convert
		}
		got := ToHost(v)
		m, ok := got.(map[string]any)
		if !ok || m["n"] != 42 {
			t.Fatalf("iteration %d: conversion after Run damaged: %#v", i, got)
		}
	}
}

func TestSandbox_ConsoleCapturedNotReturned(t *testing.T) {
	logger := &testLogger{}
	s, _ := New(Options{Logger: logger}, nil, "")

	v, err := s.Run(context.Background(), `console.log("noise"); console.error("bad"); 7`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ToHost(v); got != 7 {
		t.Errorf("captured output leaked into the value: %#v", got)
	}
	if !strings.Contains(s.Stdout(), "noise") {
		t.Errorf("stdout = %q", s.Stdout())
	}
	if !strings.Contains(s.Stderr(), "bad") {
		t.Errorf("stderr = %q", s.Stderr())
	}
	if len(logger.lines) != 2 {
		t.Errorf("expected 2 logged lines, got %d", len(logger.lines))
	}
}

func TestSandbox_StateRequiresHostAccess(t *testing.T) {
	s, _ := New(Options{AllowHostAccess: false}, nil, "")
	_, err := s.Run(context.Background(), `state.set("k", 1)`)
	if err == nil {
		t.Error("state handle must not exist without host access")
	}
}

func TestSandbox_StateSharedWithHost(t *testing.T) {
	store := NewMemoryStore()
	store.Set("greeting", "hello")

	s, _ := New(Options{AllowHostAccess: true, State: store}, nil, "")
	v, err := s.Run(context.Background(), `state.set("count", 2); state.get("greeting")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ToHost(v); got != "hello" {
		t.Errorf("state.get = %#v", got)
	}
	count, _ := store.Get("count")
	if count != 2 {
		t.Errorf("state.set did not reach the host store: %#v", count)
	}
}

func TestSandbox_FSRequiresIOCapability(t *testing.T) {
	fs := &memFS{files: map[string]string{"a.txt": "data"}}

	s, _ := New(Options{AllowIO: false, FS: fs}, nil, "")
	if _, err := s.Run(context.Background(), `fs.readFile("a.txt")`); err == nil {
		t.Error("fs handle must not exist without the IO capability")
	}

	s, _ = New(Options{AllowIO: true, FS: fs}, nil, "")
	v, err := s.Run(context.Background(), `fs.readFile("a.txt")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ToHost(v); got != "data" {
		t.Errorf("readFile = %#v", got)
	}
}

func TestSandbox_NativeRequiresCapability(t *testing.T) {
	natives := map[string]any{"hostAdd": func(a, b int) int { return a + b }}

	s, _ := New(Options{AllowNative: false, Natives: natives}, nil, "")
	if _, err := s.Run(context.Background(), `hostAdd(1, 2)`); err == nil {
		t.Error("native function must not exist without the capability")
	}

	s, _ = New(Options{AllowNative: true, Natives: natives}, nil, "")
	v, err := s.Run(context.Background(), `hostAdd(1, 2)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ToHost(v); got != 3 {
		t.Errorf("hostAdd = %#v", got)
	}
}

func TestSandbox_BindingSourceEvaluatedBeforeUserCode(t *testing.T) {
	binding := "function greet() { return \"hi\"; }\n"
	s, err := New(Options{}, echoCaller(), binding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := s.Run(context.Background(), `greet()`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ToHost(v); got != "hi" {
		t.Errorf("got %#v", got)
	}
}

func TestBridge_CallToolRoundTrip(t *testing.T) {
	s, _ := New(Options{}, echoCaller(), "")
	v, err := s.Run(context.Background(),
		`JSON.parse(__codeact.callTool("fetch", JSON.stringify({url: "x"})))`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, ok := ToHost(v).(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", ToHost(v))
	}
	if m["tool"] != "fetch" {
		t.Errorf("tool = %#v", m["tool"])
	}

	calls := s.ToolCalls()
	if len(calls) != 1 || calls[0].Tool != "fetch" {
		t.Errorf("unexpected call records: %+v", calls)
	}
}

func TestBridge_FailureReturnsStructuredPayloadNotThrow(t *testing.T) {
	caller := ToolCallerFunc(func(context.Context, string, map[string]any) (any, error) {
		return nil, fmt.Errorf("backend offline")
	})
	s, _ := New(Options{}, caller, "")

	v, err := s.Run(context.Background(),
		`JSON.parse(__codeact.callTool("fetch", "{}"))`)
	if err != nil {
		t.Fatalf("bridge failure must not abort the program: %v", err)
	}
	m := ToHost(v).(map[string]any)
	errObj, ok := m["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error payload, got %#v", m)
	}
	if errObj["tool"] != "fetch" || !strings.Contains(errObj["message"].(string), "backend offline") {
		t.Errorf("payload = %#v", errObj)
	}
}

func TestBridge_ObserverSeesResults(t *testing.T) {
	type observation struct {
		tool    string
		success bool
	}
	var seen []observation

	s, _ := New(Options{}, echoCaller(), "")
	s.SetObserver(func(tool string, value any, success bool) {
		seen = append(seen, observation{tool, success})
	})

	_, err := s.Run(context.Background(), `__codeact.callTool("a", "{}"); __codeact.callTool("b", "{}")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 2 || seen[0].tool != "a" || !seen[1].success {
		t.Errorf("observations = %+v", seen)
	}
}

func TestSandbox_FreshGlobalsPerSandbox(t *testing.T) {
	s1, _ := New(Options{}, nil, "")
	if _, err := s1.Run(context.Background(), `globalThis.leak = 42`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s2, _ := New(Options{}, nil, "")
	v, err := s2.Run(context.Background(), `typeof leak`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ToHost(v); got != "undefined" {
		t.Errorf("guest state leaked across sandboxes: %#v", got)
	}
}
