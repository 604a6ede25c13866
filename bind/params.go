package bind

import (
	"sort"
	"strings"

	"github.com/jonwraymond/codeact/tool"
)

// Params is the derived parameter list for one generated callable.
type Params struct {
	// Required parameters, in emission order.
	Required []string

	// Optional parameters, emitted after the required ones and guarded
	// against undefined.
	Optional []string

	// Variadic marks the fallback of last resort: a single pass-through
	// argument object.
	Variadic bool
}

// DeriveParams resolves the parameter list for a tool. The structured
// parameter tree wins when declared; otherwise the free-text invocation
// template is parsed; if neither yields an explicit list, the callable
// takes a single pass-through argument object.
//
// Parameter ordering within each group is alphabetical, which keeps
// generation deterministic for the unordered property map.
func DeriveParams(d tool.Definition) Params {
	if d.Parameters != nil && len(d.Parameters.Properties) > 0 {
		return fromSchema(d)
	}
	if p, ok := fromInvocation(d.Invocation); ok {
		return p
	}
	return Params{Variadic: true}
}

func fromSchema(d tool.Definition) Params {
	required := make(map[string]bool, len(d.Parameters.Required))
	for _, name := range d.Parameters.Required {
		required[name] = true
	}

	var p Params
	for name := range d.Parameters.Properties {
		if required[name] {
			p.Required = append(p.Required, name)
		} else {
			p.Optional = append(p.Optional, name)
		}
	}
	sort.Strings(p.Required)
	sort.Strings(p.Optional)
	return p
}

// fromInvocation parses templates like "fetch(url, timeout=30)". A name
// carrying a default becomes optional. Returns false when no parenthesized
// list can be found.
func fromInvocation(template string) (Params, bool) {
	open := strings.IndexByte(template, '(')
	end := strings.LastIndexByte(template, ')')
	if open < 0 || end <= open {
		return Params{}, false
	}

	inner := strings.TrimSpace(template[open+1 : end])
	if inner == "" {
		return Params{}, true
	}

	var p Params
	for _, part := range strings.Split(inner, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if name, _, hasDefault := strings.Cut(part, "="); hasDefault {
			p.Optional = append(p.Optional, strings.TrimSpace(name))
		} else {
			p.Required = append(p.Required, part)
		}
	}
	if len(p.Required) == 0 && len(p.Optional) == 0 {
		return Params{}, false
	}
	return p, true
}
