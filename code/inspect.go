package code

import (
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// targetFunc is a callable located by static inspection of guest source.
type targetFunc struct {
	// Name is the identifier actually defined in the source.
	Name string

	// Params are the declared parameter names, in declaration order.
	// Destructuring or rest targets contribute an empty name.
	Params []string
}

// inspectSource statically locates the function defined in src. The name
// the agent registered and the name the source defines may diverge: an
// exact match wins, otherwise the last function-like declaration is taken.
// Function declarations and const/let/var bindings initialized with
// function or arrow literals all count.
func inspectSource(src, registered string) (targetFunc, error) {
	prog, err := parser.ParseFile(nil, "", src, 0)
	if err != nil {
		return targetFunc{}, &InspectError{
			Function: registered,
			Message:  "source does not parse",
			Err:      err,
		}
	}

	var candidates []targetFunc
	for _, stmt := range prog.Body {
		switch st := stmt.(type) {
		case *ast.FunctionDeclaration:
			if st.Function.Name == nil {
				continue
			}
			candidates = append(candidates, targetFunc{
				Name:   st.Function.Name.Name.String(),
				Params: paramNames(st.Function.ParameterList),
			})
		case *ast.VariableStatement:
			candidates = append(candidates, bindingFuncs(st.List)...)
		case *ast.LexicalDeclaration:
			candidates = append(candidates, bindingFuncs(st.List)...)
		}
	}

	if len(candidates) == 0 {
		return targetFunc{}, &InspectError{
			Function: registered,
			Message:  "no function definition found in registered source",
		}
	}
	for _, c := range candidates {
		if c.Name == registered {
			return c, nil
		}
	}
	return candidates[len(candidates)-1], nil
}

func bindingFuncs(bindings []*ast.Binding) []targetFunc {
	var out []targetFunc
	for _, b := range bindings {
		id, ok := b.Target.(*ast.Identifier)
		if !ok {
			continue
		}
		switch init := b.Initializer.(type) {
		case *ast.FunctionLiteral:
			out = append(out, targetFunc{
				Name:   id.Name.String(),
				Params: paramNames(init.ParameterList),
			})
		case *ast.ArrowFunctionLiteral:
			out = append(out, targetFunc{
				Name:   id.Name.String(),
				Params: paramNames(init.ParameterList),
			})
		}
	}
	return out
}

func paramNames(pl *ast.ParameterList) []string {
	if pl == nil {
		return nil
	}
	names := make([]string, 0, len(pl.List))
	for _, b := range pl.List {
		if id, ok := b.Target.(*ast.Identifier); ok {
			names = append(names, id.Name.String())
		} else {
			names = append(names, "")
		}
	}
	return names
}
