// Package sandbox hosts one isolated goja JavaScript context per execution.
//
// A [Sandbox] is created fresh for every call and never reused, so guest
// global state cannot leak between executions. Before user code runs, the
// context receives three injected handles: the tool-call bridge (name + JSON
// args in, JSON result out), a session-state accessor, and a console logging
// sink. When the tool registry is non-empty, the binding source synthesized
// by the bind package is evaluated first so proxy classes and functions
// exist before user code references them.
//
// Three capability toggles are configured independently by the caller:
// host-object access (session state), filesystem access, and native Go
// function calls. Standard output and error are captured to in-memory
// buffers and logged; they are never interleaved into the returned value.
//
// Execution is bounded by a wall-clock budget enforced with vm.Interrupt:
// an over-budget run terminates with [ErrTimeout] instead of hanging the
// caller. One attempt per call; there is no retry.
package sandbox
