package code

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/codeact/sandbox"
)

// GeneratedCode is one named guest function registered by the agent.
type GeneratedCode struct {
	// Name is the registration name, unique within a CodeContext.
	Name string `json:"name"`

	// Language is the guest language of Source.
	Language string `json:"language"`

	// Source is the guest source text.
	Source string `json:"source"`

	// Request is the natural-language requirement this code was written
	// for, kept for prompt rendering.
	Request string `json:"request,omitempty"`

	// Params are the ordered parameter names used to emit call arguments.
	// Set once via CodeContext.SetParams.
	Params []string `json:"params,omitempty"`

	paramsSet bool
}

// CodeContext is the ordered, name-keyed collection of generated functions
// for one agent session.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Invariant: names are unique; re-registration overwrites in place,
//   preserving the original position in the ordering.
// - Lifecycle: one CodeContext per agent session.
type CodeContext struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]*GeneratedCode
}

// NewCodeContext creates an empty code context.
func NewCodeContext() *CodeContext {
	return &CodeContext{byName: make(map[string]*GeneratedCode)}
}

// Register adds gc, overwriting any entry with the same name.
func (c *CodeContext) Register(gc GeneratedCode) error {
	if gc.Name == "" {
		return fmt.Errorf("%w: generated code needs a name", ErrConfiguration)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byName[gc.Name]; !exists {
		c.order = append(c.order, gc.Name)
	}
	entry := gc
	c.byName[gc.Name] = &entry
	return nil
}

// SetParams sets the ordered parameter names for name. Parameters may be
// set once; later calls fail.
func (c *CodeContext) SetParams(name string, params []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrFunctionNotFound, name)
	}
	if entry.paramsSet {
		return fmt.Errorf("parameters for %q already set", name)
	}
	entry.Params = append([]string(nil), params...)
	entry.paramsSet = true
	return nil
}

// Get returns the entry registered under name.
func (c *CodeContext) Get(name string) (GeneratedCode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.byName[name]
	if !ok {
		return GeneratedCode{}, false
	}
	return *entry, true
}

// All returns every entry in registration order.
func (c *CodeContext) All() []GeneratedCode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]GeneratedCode, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, *c.byName[name])
	}
	return out
}

// Len returns the number of registered functions.
func (c *CodeContext) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// ExecutionRecord is the immutable outcome of one execution. The engine
// creates it; appending it to session history is the caller's concern.
type ExecutionRecord struct {
	// ID uniquely identifies this execution.
	ID string `json:"id"`

	// Function is the requested target function name.
	Function string `json:"function"`

	// Language is the guest language executed.
	Language string `json:"language"`

	// Success reports whether the program completed without error.
	Success bool `json:"success"`

	// Result is the stringified program value. Empty with HasResult=false
	// when the program produced no value.
	Result string `json:"result,omitempty"`

	// HasResult distinguishes "no value" from an empty result string.
	HasResult bool `json:"hasResult"`

	// Value is the marshaled host-native program value, for programmatic
	// callers.
	Value any `json:"-"`

	// Error is the failure message, empty on success.
	Error string `json:"error,omitempty"`

	// StackTrace is the formatted guest stack trace, when one exists.
	StackTrace string `json:"stackTrace,omitempty"`

	// Warnings lists non-fatal conditions, such as ignored arguments.
	Warnings []string `json:"warnings,omitempty"`

	// ToolCalls records the bridge invocations made by the program.
	ToolCalls []sandbox.ToolCall `json:"toolCalls,omitempty"`

	// Duration spans the whole assemble-and-execute step, recorded even
	// on failure.
	Duration time.Duration `json:"duration"`
}
