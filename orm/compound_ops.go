package orm

import (
	"encoding/json"

	"github.com/relaydb/ormengine/types"
)

// compoundOp is an atomic update operator bound to a single value, e.g.
// {"age": {"increment": 5}}.
type compoundOp struct {
	kind  string
	value any
}

// splitCompoundOperators separates a plain field: value update payload from
// the compound operator shape {field: {set|increment|decrement|multiply|divide|push: value}}.
// Fields using the plain shape land in setData unchanged; atomic arithmetic
// operators land in atomics (applied via the UpdateQuery builder so the
// database computes the new value); push operators land in pushes, since
// appending to a JSON-encoded array column has to happen client-side.
func splitCompoundOperators(data map[string]any) (setData map[string]any, atomics map[string]compoundOp, pushes map[string]any) {
	setData = make(map[string]any)
	atomics = make(map[string]compoundOp)
	pushes = make(map[string]any)

	for field, value := range data {
		opMap, ok := value.(map[string]any)
		if !ok || len(opMap) != 1 {
			setData[field] = value
			continue
		}

		matched := false
		for opName, opValue := range opMap {
			switch opName {
			case "set":
				setData[field] = opValue
				matched = true
			case "increment", "decrement", "multiply", "divide":
				atomics[field] = compoundOp{kind: opName, value: opValue}
				matched = true
			case "push":
				pushes[field] = opValue
				matched = true
			}
		}
		if !matched {
			setData[field] = value
		}
	}

	return setData, atomics, pushes
}

// applyAtomicOps chains the detected compound operators onto an UpdateQuery.
func applyAtomicOps(query types.UpdateQuery, atomics map[string]compoundOp) types.UpdateQuery {
	for field, op := range atomics {
		switch op.kind {
		case "increment":
			query = query.Increment(field, toInt64(op.value))
		case "decrement":
			query = query.Decrement(field, toInt64(op.value))
		case "multiply":
			query = query.Multiply(field, toFloat(op.value))
		case "divide":
			query = query.Divide(field, toFloat(op.value))
		}
	}
	return query
}

// resolvePushes merges each push operator against the row's current value
// (read before the update) and writes the JSON-encoded result into setData.
func resolvePushes(existing map[string]any, pushes map[string]any, setData map[string]any) {
	for field, pushValue := range pushes {
		arr := toAnySlice(existing[field])
		if pushSlice, ok := pushValue.([]any); ok {
			arr = append(arr, pushSlice...)
		} else {
			arr = append(arr, pushValue)
		}

		encoded, err := json.Marshal(arr)
		if err != nil {
			continue
		}
		setData[field] = string(encoded)
	}
}

func toAnySlice(v any) []any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		copy(out, val)
		return out
	case string:
		if val == "" {
			return nil
		}
		var parsed []any
		if err := json.Unmarshal([]byte(val), &parsed); err == nil {
			return parsed
		}
		return nil
	default:
		return nil
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}
