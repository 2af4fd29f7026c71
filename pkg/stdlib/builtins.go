package stdlib

import (
	"fmt"
	"io"
	"strings"

	"github.com/micalang/mica/pkg/diagnostics"
	"github.com/micalang/mica/pkg/evaluator"
)

// RegisterDefaults registers the default builtins. print writes display
// forms to stdout, one line per call.
func RegisterDefaults(r *Registry, stdout io.Writer) {
	r.Register(evaluator.BuiltinDef{
		Name:     "print",
		Variadic: true,
		Execute: func(args []evaluator.Value) (evaluator.Value, error) {
			parts := make([]string, len(args))
			for i, arg := range args {
				parts[i] = evaluator.FormatValue(arg)
			}
			if _, err := fmt.Fprintln(stdout, strings.Join(parts, " ")); err != nil {
				return nil, &evaluator.RuntimeError{
					Code:    diagnostics.EIO,
					Message: fmt.Sprintf("print: %s", err),
				}
			}
			return evaluator.NewUnit(), nil
		},
	})

	r.Register(evaluator.BuiltinDef{
		Name:  "len",
		Arity: 1,
		Execute: func(args []evaluator.Value) (evaluator.Value, error) {
			switch v := args[0].(type) {
			case *evaluator.ArrayValue:
				return evaluator.NewInt(int64(len(v.Elems))), nil
			case evaluator.StrValue:
				return evaluator.NewInt(int64(len(v.Value))), nil
			}
			return nil, &evaluator.RuntimeError{
				Code:    diagnostics.EType,
				Message: fmt.Sprintf("len requires an array or string, got %s", evaluator.TypeName(args[0])),
			}
		},
	})

	r.Register(evaluator.BuiltinDef{
		Name:  "push",
		Arity: 2,
		Execute: func(args []evaluator.Value) (evaluator.Value, error) {
			arr, ok := args[0].(*evaluator.ArrayValue)
			if !ok {
				return nil, &evaluator.RuntimeError{
					Code:    diagnostics.EType,
					Message: fmt.Sprintf("push requires an array, got %s", evaluator.TypeName(args[0])),
				}
			}
			// In-place append: visible through every alias of the array.
			arr.Elems = append(arr.Elems, args[1])
			return arr, nil
		},
	})

	r.Register(evaluator.BuiltinDef{
		Name:  "typeof",
		Arity: 1,
		Execute: func(args []evaluator.Value) (evaluator.Value, error) {
			return evaluator.NewStr(evaluator.TypeName(args[0])), nil
		},
	})

	r.Register(evaluator.BuiltinDef{
		Name:  "str",
		Arity: 1,
		Execute: func(args []evaluator.Value) (evaluator.Value, error) {
			return evaluator.NewStr(evaluator.FormatValue(args[0])), nil
		},
	})
}
