package shape

import (
	"fmt"
	"strings"
)

// Render formats a schema as a type-annotated signature fragment suitable
// for inclusion in a prompt, e.g.
//
//	lookup_user(...) -> {id: integer, name?: string}  // 3 samples
//
// The error shape is appended on its own line when observed.
func Render(schema *ReturnSchema) string {
	if schema == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s(...) -> %s", schema.Tool, schema.Success.String())
	if schema.SampleCount > 0 {
		noun := "samples"
		if schema.SampleCount == 1 {
			noun = "sample"
		}
		fmt.Fprintf(&b, "  // %d %s", schema.SampleCount, noun)
	}
	if _, unknown := schema.Error.(Unknown); !unknown {
		fmt.Fprintf(&b, "\n%s on error -> %s", schema.Tool, schema.Error.String())
	}
	return b.String()
}
