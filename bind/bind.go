package bind

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jonwraymond/codeact/tool"
)

// LanguageJavaScript is the guest language with a built-in generator.
const LanguageJavaScript = "javascript"

// BridgeGlobal is the name of the injected bridge object the generated
// proxies call through. The sandbox installs it before any code runs.
const BridgeGlobal = "__codeact"

// ErrUnsupportedLanguage is returned when no generator exists for the
// requested guest language.
var ErrUnsupportedLanguage = errors.New("unsupported guest language")

var titleCaser = cases.Title(language.Und, cases.NoLower)

// Generate emits guest-language source declaring proxy callables for every
// tool in the snapshot. The snapshot is expected to be pre-filtered for the
// target language and sorted by name (see tool.Registry.Snapshot).
func Generate(snapshot []tool.Definition, lang string) (string, error) {
	switch lang {
	case LanguageJavaScript, "js":
		return generateJS(snapshot), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
}

func generateJS(snapshot []tool.Definition) string {
	grouped, ungrouped := groupByNamespace(snapshot)

	var b strings.Builder
	b.WriteString("// Generated tool bindings. Do not edit.\n")
	b.WriteString("function __codeact_call(name, args) {\n")
	b.WriteString("    return JSON.parse(" + BridgeGlobal + ".callTool(name, JSON.stringify(args)));\n")
	b.WriteString("}\n")

	namespaces := make([]string, 0, len(grouped))
	for ns := range grouped {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	for _, ns := range namespaces {
		writeNamespaceClass(&b, ns, grouped[ns])
	}
	for _, d := range ungrouped {
		writeFreeFunction(&b, d)
	}
	return b.String()
}

func groupByNamespace(snapshot []tool.Definition) (map[string][]tool.Definition, []tool.Definition) {
	grouped := make(map[string][]tool.Definition)
	var ungrouped []tool.Definition
	for _, d := range snapshot {
		if d.Namespace == "" {
			ungrouped = append(ungrouped, d)
			continue
		}
		grouped[d.Namespace] = append(grouped[d.Namespace], d)
	}
	return grouped, ungrouped
}

func writeNamespaceClass(b *strings.Builder, ns string, tools []tool.Definition) {
	className := titleCaser.String(jsIdent(ns))
	instance := jsIdent(ns)

	fmt.Fprintf(b, "\nclass %s {\n", className)
	for _, d := range tools {
		writeCallable(b, d, "    ", "    "+jsIdent(d.Name))
	}
	b.WriteString("}\n")
	fmt.Fprintf(b, "const %s = new %s();\n", instance, className)
}

func writeFreeFunction(b *strings.Builder, d tool.Definition) {
	writeCallable(b, d, "", "\nfunction "+jsIdent(d.Name))
}

// writeCallable emits the body shared by methods and free functions:
// required parameters are always included in the argument object, optional
// parameters only when defined, so an omitted optional never serializes as
// a spurious null.
func writeCallable(b *strings.Builder, d tool.Definition, indent, header string) {
	params := DeriveParams(d)

	if params.Variadic {
		fmt.Fprintf(b, "%s(args) {\n", header)
		fmt.Fprintf(b, "%s    return __codeact_call(%q, args || {});\n", indent, d.Name)
		fmt.Fprintf(b, "%s}\n", indent)
		return
	}

	names := make([]string, 0, len(params.Required)+len(params.Optional))
	for _, p := range params.Required {
		names = append(names, jsIdent(p))
	}
	for _, p := range params.Optional {
		names = append(names, jsIdent(p))
	}

	fmt.Fprintf(b, "%s(%s) {\n", header, strings.Join(names, ", "))
	fmt.Fprintf(b, "%s    const args = {};\n", indent)
	for _, p := range params.Required {
		fmt.Fprintf(b, "%s    args[%q] = %s;\n", indent, p, jsIdent(p))
	}
	for _, p := range params.Optional {
		fmt.Fprintf(b, "%s    if (%s !== undefined) { args[%q] = %s; }\n",
			indent, jsIdent(p), p, jsIdent(p))
	}
	fmt.Fprintf(b, "%s    return __codeact_call(%q, args);\n", indent, d.Name)
	fmt.Fprintf(b, "%s}\n", indent)
}

// jsIdent rewrites a name into a valid JavaScript identifier.
func jsIdent(name string) string {
	if name == "" {
		return "_"
	}
	var b strings.Builder
	for i, r := range name {
		valid := r == '_' || r == '$' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9' && i > 0)
		if valid {
			b.WriteRune(r)
		} else if i == 0 && r >= '0' && r <= '9' {
			b.WriteByte('_')
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
