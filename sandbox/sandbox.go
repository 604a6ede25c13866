package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// Logger is an optional interface for observability during execution.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort; Logf should not panic.
type Logger interface {
	// Logf logs a formatted message.
	Logf(format string, args ...any)
}

// Store is the shared session key-value state guest code reads and writes
// through the injected state handle.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// FS is the host filesystem surface exposed to guest code when the
// filesystem capability is enabled.
type FS interface {
	ReadFile(name string) (string, error)
	WriteFile(name string, data string) error
}

// Options configures one sandbox. The three capability toggles are
// independent; each gates whether its handle is injected at all.
type Options struct {
	// AllowHostAccess injects the session-state accessor.
	AllowHostAccess bool

	// AllowIO injects the filesystem handle. Ignored when FS is nil.
	AllowIO bool

	// AllowNative injects the host-provided native functions. Ignored
	// when Natives is empty.
	AllowNative bool

	// Timeout is the wall-clock execution budget. Zero means unbounded.
	Timeout time.Duration

	// State backs the guest state accessor. Defaults to an in-memory store.
	State Store

	// FS backs the guest filesystem handle.
	FS FS

	// Natives maps global names to Go values injected when AllowNative
	// is set.
	Natives map[string]any

	// Logger receives captured guest output and bridge events.
	Logger Logger
}

// Sandbox is one isolated guest context. Create a fresh one per execution;
// a Sandbox must not be reused or shared across goroutines.
type Sandbox struct {
	vm     *goja.Runtime
	opts   Options
	bridge *bridge
	stdout bytes.Buffer
	stderr bytes.Buffer

	// runCtx is the context of the in-flight Run call, read by the bridge.
	runCtx context.Context
}

// New creates a sandbox, installs the capability handles permitted by opts,
// and evaluates bindingSrc (the synthesized tool proxies) when non-empty.
// caller dispatches bridge tool calls; it may be nil when no tools are
// registered.
func New(opts Options, caller ToolCaller, bindingSrc string) (*Sandbox, error) {
	if opts.State == nil {
		opts.State = NewMemoryStore()
	}

	s := &Sandbox{
		vm:     goja.New(),
		opts:   opts,
		runCtx: context.Background(),
	}

	s.bridge = newBridge(s, caller)
	if err := s.install(); err != nil {
		return nil, err
	}

	if bindingSrc != "" {
		if _, err := s.vm.RunString(bindingSrc); err != nil {
			return nil, fmt.Errorf("evaluating tool bindings: %w", err)
		}
	}
	return s, nil
}

func (s *Sandbox) install() error {
	if err := s.bridge.install(s.vm); err != nil {
		return err
	}
	if err := s.installConsole(); err != nil {
		return err
	}
	if s.opts.AllowHostAccess {
		if err := s.installState(); err != nil {
			return err
		}
	}
	if s.opts.AllowIO && s.opts.FS != nil {
		if err := s.installFS(); err != nil {
			return err
		}
	}
	if s.opts.AllowNative {
		for name, fn := range s.opts.Natives {
			if err := s.vm.Set(name, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run executes src inside the context. The execution budget spans this call
// only; exceeding it interrupts the interpreter and returns ErrTimeout.
func (s *Sandbox) Run(ctx context.Context, src string) (goja.Value, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	s.runCtx = ctx

	done := make(chan struct{})
	watcher := make(chan struct{})
	go func() {
		defer close(watcher)
		select {
		case <-ctx.Done():
			s.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()
	// The watcher must be fully stopped before the interrupt is cleared;
	// a stale interrupt would trip the next interpreter entry.
	defer func() {
		close(done)
		<-watcher
		s.vm.ClearInterrupt()
	}()

	value, err := s.vm.RunString(src)
	if err != nil {
		return nil, s.classify(err)
	}
	return value, nil
}

// classify maps goja errors onto the sandbox error kinds.
func (s *Sandbox) classify(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		ge := &GuestError{Message: fmt.Sprintf("interrupted: %v", interrupted.Value())}
		if cause, ok := interrupted.Value().(error); ok {
			ge.Message = cause.Error()
			// Only budget expiry is a timeout; plain cancellation is an
			// ordinary interruption.
			if errors.Is(cause, context.DeadlineExceeded) {
				ge.Timeout = true
				if s.opts.Timeout > 0 {
					ge.Message = fmt.Sprintf("interrupted after %v", s.opts.Timeout)
				}
			}
		}
		return ge
	}

	var exception *goja.Exception
	if errors.As(err, &exception) {
		return &GuestError{
			Message: exception.Error(),
			Stack:   exception.String(),
		}
	}

	return &GuestError{Message: err.Error()}
}

// Stdout returns output captured from the guest logging sink.
func (s *Sandbox) Stdout() string { return s.stdout.String() }

// Stderr returns error output captured from the guest logging sink.
func (s *Sandbox) Stderr() string { return s.stderr.String() }

// ToolCalls returns the tool invocations recorded by the bridge.
func (s *Sandbox) ToolCalls() []ToolCall { return s.bridge.calls() }

func (s *Sandbox) installConsole() error {
	console := s.vm.NewObject()
	sink := func(buf *bytes.Buffer, level string) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			line := strings.Join(parts, " ")
			buf.WriteString(line)
			buf.WriteByte('\n')
			if s.opts.Logger != nil {
				s.opts.Logger.Logf("guest %s: %s", level, line)
			}
			return goja.Undefined()
		}
	}

	if err := console.Set("log", sink(&s.stdout, "stdout")); err != nil {
		return err
	}
	if err := console.Set("info", sink(&s.stdout, "stdout")); err != nil {
		return err
	}
	if err := console.Set("warn", sink(&s.stderr, "stderr")); err != nil {
		return err
	}
	if err := console.Set("error", sink(&s.stderr, "stderr")); err != nil {
		return err
	}
	return s.vm.Set("console", console)
}

func (s *Sandbox) installState() error {
	state := s.vm.NewObject()
	err := state.Set("get", func(call goja.FunctionCall) goja.Value {
		key := call.Argument(0).String()
		value, ok := s.opts.State.Get(key)
		if !ok {
			return goja.Undefined()
		}
		return s.vm.ToValue(value)
	})
	if err != nil {
		return err
	}
	err = state.Set("set", func(call goja.FunctionCall) goja.Value {
		key := call.Argument(0).String()
		s.opts.State.Set(key, ToHost(call.Argument(1)))
		return goja.Undefined()
	})
	if err != nil {
		return err
	}
	return s.vm.Set("state", state)
}

func (s *Sandbox) installFS() error {
	fs := s.vm.NewObject()
	err := fs.Set("readFile", func(call goja.FunctionCall) goja.Value {
		data, err := s.opts.FS.ReadFile(call.Argument(0).String())
		if err != nil {
			panic(s.vm.NewGoError(err))
		}
		return s.vm.ToValue(data)
	})
	if err != nil {
		return err
	}
	err = fs.Set("writeFile", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		if err := s.opts.FS.WriteFile(name, call.Argument(1).String()); err != nil {
			panic(s.vm.NewGoError(err))
		}
		return goja.Undefined()
	})
	if err != nil {
		return err
	}
	return s.vm.Set("fs", fs)
}
