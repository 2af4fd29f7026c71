package evaluator

import (
	"encoding/json"
)

// ValueToJSON marshals a Value to JSON bytes for machine-readable CLI
// output. Ints stay integers, unit is null, and function values are
// serialized as their display form string.
func ValueToJSON(v Value) ([]byte, error) {
	return json.Marshal(valueToRaw(v, nil))
}

func valueToRaw(v Value, seen map[*ArrayValue]bool) any {
	if v == nil {
		return nil
	}

	switch val := v.(type) {
	case UnitValue:
		return nil

	case BoolValue:
		return val.Value

	case IntValue:
		return val.Value

	case FloatValue:
		return val.Value

	case StrValue:
		return val.Value

	case *ArrayValue:
		// Cyclic arrays serialize the back-reference as the marker
		// string "[...]", matching the display form.
		if seen[val] {
			return "[...]"
		}
		if seen == nil {
			seen = make(map[*ArrayValue]bool)
		}
		seen[val] = true
		elems := make([]any, len(val.Elems))
		for i, elem := range val.Elems {
			elems[i] = valueToRaw(elem, seen)
		}
		delete(seen, val)
		return elems

	case *FnValue, *BuiltinValue:
		return FormatValue(val)
	}

	return nil
}

// ValueToJSONString is a convenience that returns a string.
func ValueToJSONString(v Value) string {
	b, err := ValueToJSON(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
