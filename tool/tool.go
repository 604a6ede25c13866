// Package tool defines the tool registry queried during code generation and
// execution. Registry entries are append-or-replace; tools are never deleted
// during normal operation.
package tool

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Handler is the function signature for host-side tool handlers.
// It matches the local handler shape used by MCP-style backends.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Definition describes one host tool exposed to guest code.
type Definition struct {
	// Name is the unique registry name. Required.
	Name string

	// Aliases are alternate names resolving to this tool.
	Aliases []string

	// Description is shown to the agent when rendering signatures.
	Description string

	// Languages lists the guest languages this tool supports bindings for.
	// Empty means all languages.
	Languages []string

	// Namespace groups the tool under a class-like construct in generated
	// bindings. Empty leaves the tool as a free function.
	Namespace string

	// Parameters is the structured parameter tree. Properties are the
	// declared parameters; Required lists the non-optional ones.
	Parameters *jsonschema.Schema

	// Invocation is a free-text template such as "fetch(url, timeout=30)",
	// used to derive parameters when no structured tree is declared.
	Invocation string

	// Returns is the declared return schema, if the importer supplied one.
	Returns *jsonschema.Schema

	// Annotations carries MCP tool annotations from imported tools.
	Annotations *mcp.ToolAnnotations

	// Handler executes the tool on the host. Optional; tools without a
	// handler are dispatched through the application's own bridge.
	Handler Handler
}

// SupportsLanguage reports whether bindings for lang should be generated.
func (d Definition) SupportsLanguage(lang string) bool {
	if len(d.Languages) == 0 {
		return true
	}
	for _, l := range d.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// FromMCP converts an MCP tool declaration into a registry definition.
// The input schema becomes the parameter tree and the output schema the
// declared return schema.
func FromMCP(t *mcp.Tool, namespace string, languages ...string) Definition {
	if t == nil {
		return Definition{}
	}
	return Definition{
		Name:        t.Name,
		Description: t.Description,
		Namespace:   namespace,
		Languages:   languages,
		Parameters:  schemaFromAny(t.InputSchema),
		Returns:     schemaFromAny(t.OutputSchema),
		Annotations: t.Annotations,
	}
}

// schemaFromAny coerces an MCP schema field. Server-declared tools carry
// *jsonschema.Schema; tools received over the wire carry the default JSON
// form and are re-parsed. Anything unparseable reduces to no schema.
func schemaFromAny(v any) *jsonschema.Schema {
	switch s := v.(type) {
	case nil:
		return nil
	case *jsonschema.Schema:
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}
