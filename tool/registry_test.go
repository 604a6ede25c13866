package tool

import (
	"errors"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestRegistry_RegisterAndResolve(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(Definition{Name: "fetch", Aliases: []string{"get"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d, err := reg.Resolve("fetch")
	if err != nil || d.Name != "fetch" {
		t.Errorf("Resolve by name failed: %v, %v", d, err)
	}

	d, err = reg.Resolve("get")
	if err != nil || d.Name != "fetch" {
		t.Errorf("Resolve by alias failed: %v, %v", d, err)
	}
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Resolve("missing")
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", err)
	}
}

func TestRegistry_ReplaceDropsStaleAliases(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(Definition{Name: "fetch", Aliases: []string{"get"}})
	_ = reg.Register(Definition{Name: "fetch", Aliases: []string{"download"}})

	if _, err := reg.Resolve("get"); !errors.Is(err, ErrToolNotFound) {
		t.Error("stale alias must not resolve after replacement")
	}
	if d, err := reg.Resolve("download"); err != nil || d.Name != "fetch" {
		t.Errorf("new alias must resolve, got %v, %v", d, err)
	}
}

func TestRegistry_AliasConflict(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(Definition{Name: "fetch"})

	err := reg.Register(Definition{Name: "other", Aliases: []string{"fetch"}})
	if !errors.Is(err, ErrAliasConflict) {
		t.Errorf("expected ErrAliasConflict, got %v", err)
	}

	_ = reg.Register(Definition{Name: "a", Aliases: []string{"shared"}})
	err = reg.Register(Definition{Name: "b", Aliases: []string{"shared"}})
	if !errors.Is(err, ErrAliasConflict) {
		t.Errorf("expected ErrAliasConflict for claimed alias, got %v", err)
	}
}

func TestRegistry_SnapshotFiltersByLanguage(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(Definition{Name: "js_only", Languages: []string{"javascript"}})
	_ = reg.Register(Definition{Name: "py_only", Languages: []string{"python"}})
	_ = reg.Register(Definition{Name: "any"})

	snap := reg.Snapshot("javascript")
	if len(snap) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(snap))
	}
	// List is sorted by name
	if snap[0].Name != "any" || snap[1].Name != "js_only" {
		t.Errorf("unexpected snapshot order: %v, %v", snap[0].Name, snap[1].Name)
	}
}

func TestFromMCP(t *testing.T) {
	schema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"url": {Type: "string"},
		},
		Required: []string{"url"},
	}
	mcpTool := &mcp.Tool{
		Name:        "fetch",
		Description: "Fetches a URL",
		InputSchema: schema,
	}

	d := FromMCP(mcpTool, "web", "javascript")
	if d.Name != "fetch" || d.Namespace != "web" {
		t.Errorf("unexpected definition: %+v", d)
	}
	if d.Parameters != schema {
		t.Error("parameter tree must come from the MCP input schema")
	}
	if !d.SupportsLanguage("javascript") || d.SupportsLanguage("python") {
		t.Error("language support must follow the provided list")
	}
}

func TestFromMCP_WireFormSchema(t *testing.T) {
	// Tools received from a server carry schemas in the default JSON form.
	mcpTool := &mcp.Tool{
		Name: "lookup",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{"type": "integer"},
			},
			"required": []any{"id"},
		},
		OutputSchema: map[string]any{"type": "string"},
	}

	d := FromMCP(mcpTool, "", "javascript")
	if d.Parameters == nil || d.Parameters.Type != "object" {
		t.Fatalf("wire-form input schema not parsed: %+v", d.Parameters)
	}
	if p, ok := d.Parameters.Properties["id"]; !ok || p.Type != "integer" {
		t.Errorf("property tree not preserved: %+v", d.Parameters.Properties)
	}
	if len(d.Parameters.Required) != 1 || d.Parameters.Required[0] != "id" {
		t.Errorf("required list not preserved: %v", d.Parameters.Required)
	}
	if d.Returns == nil || d.Returns.Type != "string" {
		t.Errorf("wire-form output schema not parsed: %+v", d.Returns)
	}
}

func TestFromMCP_NilSchemas(t *testing.T) {
	d := FromMCP(&mcp.Tool{Name: "bare"}, "")
	if d.Parameters != nil || d.Returns != nil {
		t.Errorf("absent schemas must stay nil: %+v, %+v", d.Parameters, d.Returns)
	}
}
