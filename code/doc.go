// Package code is the execution host for agent-written guest functions.
//
// The host owns the per-session [CodeContext] of registered [GeneratedCode],
// assembles complete guest programs, runs them in a fresh sandbox, and
// reduces every outcome to an immutable [ExecutionRecord].
//
// # Execution
//
// [Executor.Execute] looks up a registered function by name, re-derives the
// identifier actually defined in its source by static inspection (the name
// the agent registered and the name it defined may diverge), and assembles
// a program from three parts:
//
//   - the binding preamble synthesized from the tool registry, evaluated
//     before user code so proxy classes and functions exist
//   - the concatenation of every function in the CodeContext, in
//     registration order, so later functions may call earlier ones
//   - a trailing statement invoking the target and exposing its value
//     through the __out convention
//
// A function whose source declares zero parameters is called with none;
// any supplied arguments are ignored and a warning is recorded.
//
// [Executor.ExecuteDirect] skips lookup and assembly and runs an ad-hoc
// snippet with just the binding preamble.
//
// # Error Handling
//
// Execute never returns an error: lookup failures ([ErrFunctionNotFound]),
// underivable targets ([ErrMalformedSource]), guest exceptions, and budget
// timeouts all reduce to a record with Success=false, an error message,
// and a formatted stack trace when one exists. Wall-clock duration spans
// the whole assemble-and-execute step and is recorded even on failure.
package code
