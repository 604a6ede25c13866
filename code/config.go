package code

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/codeact/bind"
	"github.com/jonwraymond/codeact/sandbox"
	"github.com/jonwraymond/codeact/shape"
	"github.com/jonwraymond/codeact/tool"
)

// Config holds the configuration for an executor.
type Config struct {
	// Registry is the tool registry queried during binding generation and
	// bridge dispatch. Required; may be empty.
	Registry *tool.Registry

	// Schemas receives observed tool-call results. Optional.
	Schemas *shape.Registry

	// Caller dispatches bridge tool calls. Defaults to dispatching through
	// the handlers on the registry's definitions.
	Caller sandbox.ToolCaller

	// Language is the guest language. Defaults to "javascript".
	Language string

	// Timeout is the per-execution wall-clock budget. Zero means unbounded.
	Timeout time.Duration

	// AllowHostAccess, AllowIO, and AllowNative are the sandbox capability
	// toggles, passed through unchanged.
	AllowHostAccess bool
	AllowIO         bool
	AllowNative     bool

	// State is the shared session key-value state. Defaults to a fresh
	// in-memory store.
	State sandbox.Store

	// FS backs the guest filesystem handle when AllowIO is set.
	FS sandbox.FS

	// Natives are host Go values injected when AllowNative is set.
	Natives map[string]any

	// Logger is an optional logger for observability.
	Logger Logger
}

// Validate checks that all required fields are set.
// Returns ErrConfiguration if any required field is missing.
func (c *Config) Validate() error {
	var missing []string
	if c.Registry == nil {
		missing = append(missing, "Registry")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s",
			ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// applyDefaults sets default values for optional fields.
func (c *Config) applyDefaults() {
	if c.Language == "" {
		c.Language = bind.LanguageJavaScript
	}
	if c.State == nil {
		c.State = sandbox.NewMemoryStore()
	}
	if c.Caller == nil {
		c.Caller = registryCaller{registry: c.Registry}
	}
}

// registryCaller dispatches bridge calls to the Handler on each registered
// definition, resolving aliases through the registry.
type registryCaller struct {
	registry *tool.Registry
}

func (rc registryCaller) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	d, err := rc.registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	if d.Handler == nil {
		return nil, fmt.Errorf("tool %q has no host handler", d.Name)
	}
	return d.Handler(ctx, args)
}

// fileConfig is the YAML/JSON surface for capability configuration.
type fileConfig struct {
	Language        string `yaml:"language"`
	Timeout         string `yaml:"timeout"`
	AllowHostAccess bool   `yaml:"allowHostAccess"`
	AllowIO         bool   `yaml:"allowIO"`
	AllowNative     bool   `yaml:"allowNative"`
}

// ParseConfig parses capability flags and the execution budget from raw
// YAML (or JSON, which YAML subsumes). Structural fields such as the
// registry are wired in Go, not from files.
func ParseConfig(raw []byte) (Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	cfg := Config{
		Language:        fc.Language,
		AllowHostAccess: fc.AllowHostAccess,
		AllowIO:         fc.AllowIO,
		AllowNative:     fc.AllowNative,
	}
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("%w: invalid timeout %q: %v", ErrConfiguration, fc.Timeout, err)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}
