package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/jonwraymond/codeact/bind"
)

// ToolCaller dispatches a bridge tool call to the host.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use across
//   sandboxes; one sandbox calls it from a single goroutine.
// - Context: must honor cancellation/deadlines.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (any, error)
}

// ToolCallerFunc adapts a function to the ToolCaller interface.
type ToolCallerFunc func(ctx context.Context, name string, args map[string]any) (any, error)

// CallTool implements ToolCaller.
func (f ToolCallerFunc) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	return f(ctx, name, args)
}

// ToolCall records one bridge invocation for observability.
type ToolCall struct {
	// Tool is the requested tool name.
	Tool string `json:"tool"`

	// Args are the deserialized arguments.
	Args map[string]any `json:"args,omitempty"`

	// Error is the failure message, empty on success.
	Error string `json:"error,omitempty"`

	// DurationMs is the host-side execution time in milliseconds.
	DurationMs int64 `json:"durationMs"`
}

// Observer receives every tool-call result flowing through the bridge,
// keyed by tool name with a success flag. shape.Registry satisfies this
// with a bound source label.
type Observer func(tool string, value any, success bool)

// bridge exposes callTool(name, argsJson) -> resultJson to guest code.
//
// Failures are caught here and returned to the guest as a structured
// {"error": {...}} payload rather than thrown, so one failing tool call
// need not abort the whole program.
type bridge struct {
	sandbox  *Sandbox
	caller   ToolCaller
	observer Observer
	records  []ToolCall
}

func newBridge(s *Sandbox, caller ToolCaller) *bridge {
	return &bridge{sandbox: s, caller: caller}
}

func (b *bridge) install(vm *goja.Runtime) error {
	obj := vm.NewObject()
	if err := obj.Set("callTool", b.callTool); err != nil {
		return err
	}
	return vm.Set(bind.BridgeGlobal, obj)
}

func (b *bridge) callTool(call goja.FunctionCall) goja.Value {
	vm := b.sandbox.vm
	name := call.Argument(0).String()

	raw, err := b.dispatch(name, call.Argument(1))
	if err != nil {
		raw = errorPayload(name, err)
	}
	return vm.ToValue(string(raw))
}

func (b *bridge) dispatch(name string, argsValue goja.Value) ([]byte, error) {
	var args map[string]any
	if !goja.IsUndefined(argsValue) && !goja.IsNull(argsValue) {
		if err := json.Unmarshal([]byte(argsValue.String()), &args); err != nil {
			return nil, fmt.Errorf("malformed tool arguments: %w", err)
		}
	}

	if b.caller == nil {
		return nil, fmt.Errorf("no tool caller configured")
	}

	start := time.Now()
	result, err := b.caller.CallTool(b.sandbox.runCtx, name, args)
	record := ToolCall{
		Tool:       name,
		Args:       args,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		record.Error = err.Error()
	}
	b.records = append(b.records, record)

	if b.observer != nil {
		if err != nil {
			b.observer(name, map[string]any{"message": err.Error()}, false)
		} else {
			b.observer(name, result, true)
		}
	}
	if b.sandbox.opts.Logger != nil {
		b.sandbox.opts.Logger.Logf("tool %s: %dms err=%v", name, record.DurationMs, err)
	}
	if err != nil {
		return nil, err
	}

	raw, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		// Lossy fallback keeps the bridge total.
		raw, _ = json.Marshal(fmt.Sprint(result))
	}
	return raw, nil
}

func (b *bridge) calls() []ToolCall {
	return append([]ToolCall(nil), b.records...)
}

// SetObserver wires schema observation into the bridge. Must be called
// before Run.
func (s *Sandbox) SetObserver(obs Observer) {
	s.bridge.observer = obs
}

func errorPayload(tool string, err error) []byte {
	raw, marshalErr := json.Marshal(map[string]any{
		"error": map[string]any{
			"tool":    tool,
			"message": err.Error(),
		},
	})
	if marshalErr != nil {
		return []byte(`{"error":{"message":"tool call failed"}}`)
	}
	return raw
}
