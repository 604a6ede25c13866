package code

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/google/uuid"

	"github.com/jonwraymond/codeact/bind"
	"github.com/jonwraymond/codeact/sandbox"
)

// Executor runs registered guest functions and ad-hoc snippets against one
// session's CodeContext.
//
// Contract:
// - Concurrency: safe for concurrent use; every call runs in a fresh
//   sandbox, so guest global state never leaks between executions.
// - Context: honors cancellation/deadlines; interruption reduces to a
//   failed record, never a hung caller.
// - Errors: Execute and ExecuteDirect never return an error; every outcome
//   is an ExecutionRecord.
type Executor struct {
	cfg     Config
	session *CodeContext
}

// NewExecutor creates an executor over the given session context.
// Returns ErrConfiguration if a required field is missing.
func NewExecutor(cfg Config, session *CodeContext) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if session == nil {
		session = NewCodeContext()
	}
	return &Executor{cfg: cfg, session: session}, nil
}

// Session returns the executor's code context.
func (e *Executor) Session() *CodeContext {
	return e.session
}

// Execute runs the registered function functionName with args and returns
// its execution record.
func (e *Executor) Execute(ctx context.Context, functionName string, args map[string]any) ExecutionRecord {
	start := time.Now()
	rec := ExecutionRecord{
		ID:       uuid.NewString(),
		Function: functionName,
		Language: e.cfg.Language,
	}

	gc, ok := e.session.Get(functionName)
	if !ok {
		e.fail(&rec, start, fmt.Errorf("%w: %q", ErrFunctionNotFound, functionName))
		return rec
	}

	target, err := inspectSource(gc.Source, functionName)
	if err != nil {
		e.fail(&rec, start, err)
		return rec
	}

	call, warning := e.emitCall(gc, target, args)
	if warning != "" {
		rec.Warnings = append(rec.Warnings, warning)
		if e.cfg.Logger != nil {
			e.cfg.Logger.Logf("%s: %s", functionName, warning)
		}
	}

	program := e.assemble(call)
	e.run(ctx, &rec, start, program)
	return rec
}

// ExecuteDirect runs a supplied snippet with just the binding preamble,
// skipping lookup and assembly.
func (e *Executor) ExecuteDirect(ctx context.Context, src string) ExecutionRecord {
	start := time.Now()
	rec := ExecutionRecord{
		ID:       uuid.NewString(),
		Function: "",
		Language: e.cfg.Language,
	}
	e.run(ctx, &rec, start, src)
	return rec
}

// assemble concatenates every session function in registration order and
// appends the trailing call, exposing its value through __out.
func (e *Executor) assemble(call string) string {
	var b strings.Builder
	for _, gc := range e.session.All() {
		b.WriteString(gc.Source)
		b.WriteString("\n\n")
	}
	b.WriteString("var __out = ")
	b.WriteString(call)
	b.WriteString(";\n__out;\n")
	return b.String()
}

// emitCall renders the trailing call statement. A target whose source
// declares zero parameters is called with none; supplied arguments are
// ignored with a warning. Otherwise arguments are emitted positionally in
// declared parameter order, JSON-encoded as guest literals.
func (e *Executor) emitCall(gc GeneratedCode, target targetFunc, args map[string]any) (string, string) {
	if len(target.Params) == 0 {
		warning := ""
		if len(args) > 0 {
			warning = fmt.Sprintf("%d argument(s) ignored: %s declares no parameters", len(args), target.Name)
		}
		return target.Name + "()", warning
	}

	order := gc.Params
	if len(order) == 0 {
		order = target.Params
	}

	literals := make([]string, len(order))
	for i, name := range order {
		value, supplied := args[name]
		if !supplied {
			literals[i] = "undefined"
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			// Lossy fallback keeps assembly total.
			raw, _ = json.Marshal(fmt.Sprint(value))
		}
		literals[i] = string(raw)
	}
	return target.Name + "(" + strings.Join(literals, ", ") + ")", ""
}

// run executes program in a fresh sandbox and fills rec.
func (e *Executor) run(ctx context.Context, rec *ExecutionRecord, start time.Time, program string) {
	preamble := ""
	if e.cfg.Registry.Len() > 0 {
		src, err := bind.Generate(e.cfg.Registry.Snapshot(e.cfg.Language), e.cfg.Language)
		if err != nil {
			e.fail(rec, start, err)
			return
		}
		preamble = src
	}

	box, err := sandbox.New(sandbox.Options{
		AllowHostAccess: e.cfg.AllowHostAccess,
		AllowIO:         e.cfg.AllowIO,
		AllowNative:     e.cfg.AllowNative,
		Timeout:         e.cfg.Timeout,
		State:           e.cfg.State,
		FS:              e.cfg.FS,
		Natives:         e.cfg.Natives,
		Logger:          e.cfg.Logger,
	}, e.cfg.Caller, preamble)
	if err != nil {
		e.fail(rec, start, err)
		return
	}

	if e.cfg.Schemas != nil {
		schemas := e.cfg.Schemas
		box.SetObserver(func(toolName string, value any, success bool) {
			schemas.Observe(toolName, value, success, "execution")
		})
	}

	value, err := box.Run(ctx, program)
	rec.ToolCalls = box.ToolCalls()
	rec.Duration = time.Since(start)

	if stdout := box.Stdout(); stdout != "" && e.cfg.Logger != nil {
		e.cfg.Logger.Logf("guest stdout:\n%s", stdout)
	}

	if err != nil {
		rec.Success = false
		rec.Error = err.Error()
		var ge *sandbox.GuestError
		if errors.As(err, &ge) {
			rec.StackTrace = ge.Stack
		}
		return
	}

	rec.Success = true
	// undefined means the program produced no value; null is a value.
	if value == nil || goja.IsUndefined(value) {
		return
	}
	rec.Value = sandbox.ToHost(value)
	rec.HasResult = true
	rec.Result = stringify(rec.Value)
}

func (e *Executor) fail(rec *ExecutionRecord, start time.Time, err error) {
	rec.Success = false
	rec.Error = err.Error()
	rec.Duration = time.Since(start)
	if e.cfg.Logger != nil {
		e.cfg.Logger.Logf("execution %s failed: %v", rec.ID, err)
	}
}

// stringify renders a host value for the record. JSON where possible,
// fmt otherwise.
func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
