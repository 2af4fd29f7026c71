// Package evaluator implements the Mica runtime evaluator.
package evaluator

import (
	"math"
	"strconv"
	"strings"

	"github.com/micalang/mica/pkg/ast"
)

// Value is the interface for all Mica runtime values.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	micaValue() // sealed marker
}

// UnitValue is the result of statements and calls that produce no value.
type UnitValue struct{}

func (UnitValue) micaValue() {}

// IntValue represents a 64-bit integer value.
type IntValue struct {
	Value int64
}

func (IntValue) micaValue() {}

// FloatValue represents a double-precision float value.
type FloatValue struct {
	Value float64
}

func (FloatValue) micaValue() {}

// BoolValue represents a boolean value.
type BoolValue struct {
	Value bool
}

func (BoolValue) micaValue() {}

// StrValue represents an immutable string value.
type StrValue struct {
	Value string
}

func (StrValue) micaValue() {}

// ArrayValue represents an ordered mutable sequence of values.
// It is always held by pointer so assignment aliases the same
// underlying sequence.
type ArrayValue struct {
	Elems []Value
}

func (*ArrayValue) micaValue() {}

// FnValue is a user function closure: the declaration's body plus the
// environment captured at its definition site.
type FnValue struct {
	Decl    *ast.FunDecl
	Closure *Env
}

func (*FnValue) micaValue() {}

// BuiltinDef defines a native function available to Mica programs.
// Arity is ignored when Variadic is true.
type BuiltinDef struct {
	Name     string
	Arity    int
	Variadic bool
	Execute  func(args []Value) (Value, error)
}

// BuiltinValue is a builtin bound as a first-class value in the root frame.
type BuiltinValue struct {
	Def *BuiltinDef
}

func (*BuiltinValue) micaValue() {}

// NewUnit creates a unit value.
func NewUnit() Value {
	return UnitValue{}
}

// NewInt creates an integer value.
func NewInt(v int64) Value {
	return IntValue{Value: v}
}

// NewFloat creates a float value.
func NewFloat(v float64) Value {
	return FloatValue{Value: v}
}

// NewBool creates a boolean value.
func NewBool(v bool) Value {
	return BoolValue{Value: v}
}

// NewStr creates a string value.
func NewStr(v string) Value {
	return StrValue{Value: v}
}

// NewArray creates an array value.
func NewArray(elems []Value) *ArrayValue {
	return &ArrayValue{Elems: elems}
}

// TypeName returns the Mica type name for error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case UnitValue:
		return "unit"
	case IntValue:
		return "int"
	case FloatValue:
		return "float"
	case BoolValue:
		return "bool"
	case StrValue:
		return "string"
	case *ArrayValue:
		return "array"
	case *FnValue:
		return "function"
	case *BuiltinValue:
		return "builtin"
	default:
		return "unknown"
	}
}

// DeepEqual compares two Mica values.
// Values of different kinds are never equal (Int and Float are distinct
// kinds here; numeric cross-kind comparison belongs to the ordering
// operators, not equality). Arrays compare element-wise; functions and
// builtins compare by reference identity. Arrays can be cyclic (push can
// append an array to itself); a pair of arrays already under comparison is
// treated as equal rather than recursed into again.
func DeepEqual(a, b Value) bool {
	return deepEqual(a, b, nil)
}

func deepEqual(a, b Value, seen map[[2]*ArrayValue]bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch av := a.(type) {
	case UnitValue:
		_, ok := b.(UnitValue)
		return ok

	case IntValue:
		bv, ok := b.(IntValue)
		return ok && av.Value == bv.Value

	case FloatValue:
		bv, ok := b.(FloatValue)
		return ok && av.Value == bv.Value

	case BoolValue:
		bv, ok := b.(BoolValue)
		return ok && av.Value == bv.Value

	case StrValue:
		bv, ok := b.(StrValue)
		return ok && av.Value == bv.Value

	case *ArrayValue:
		bv, ok := b.(*ArrayValue)
		if !ok {
			return false
		}
		if av == bv {
			return true
		}
		if len(av.Elems) != len(bv.Elems) {
			return false
		}
		pair := [2]*ArrayValue{av, bv}
		if seen[pair] {
			return true
		}
		if seen == nil {
			seen = make(map[[2]*ArrayValue]bool)
		}
		seen[pair] = true
		for i := range av.Elems {
			if !deepEqual(av.Elems[i], bv.Elems[i], seen) {
				return false
			}
		}
		return true

	case *FnValue:
		bv, ok := b.(*FnValue)
		return ok && av == bv

	case *BuiltinValue:
		bv, ok := b.(*BuiltinValue)
		return ok && av == bv
	}

	return false
}

// FormatValue renders a value in its display form, used by print:
// whole floats keep a trailing ".0" so they stay distinguishable from
// ints, strings are unquoted, arrays render as a bracketed
// comma-separated list of recursively formatted elements. An array
// reached again on the same path renders as "[...]" so cyclic arrays
// format in finite time.
func FormatValue(v Value) string {
	return formatValue(v, nil)
}

func formatValue(v Value, seen map[*ArrayValue]bool) string {
	switch val := v.(type) {
	case UnitValue:
		return "unit"
	case IntValue:
		return strconv.FormatInt(val.Value, 10)
	case FloatValue:
		s := strconv.FormatFloat(val.Value, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") && !math.IsInf(val.Value, 0) && !math.IsNaN(val.Value) {
			s += ".0"
		}
		return s
	case BoolValue:
		return strconv.FormatBool(val.Value)
	case StrValue:
		return val.Value
	case *ArrayValue:
		if seen[val] {
			return "[...]"
		}
		if seen == nil {
			seen = make(map[*ArrayValue]bool)
		}
		seen[val] = true
		var b strings.Builder
		b.WriteByte('[')
		for i, elem := range val.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(formatValue(elem, seen))
		}
		b.WriteByte(']')
		delete(seen, val)
		return b.String()
	case *FnValue:
		return "<fun " + val.Decl.Name + ">"
	case *BuiltinValue:
		return "<builtin " + val.Def.Name + ">"
	default:
		return "<unknown>"
	}
}
