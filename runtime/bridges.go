package runtime

import (
	"strconv"
	"strings"
)

// Int64Bridge, Float64Bridge, StringBridge, BoolBridge, RuneBridge are the
// singleton type-bridge tables: each is callable as a converter and usable
// as the `cls` argument to __cangjie_is_instance for primitive type tests.
var (
	Int64Bridge   *Table
	Float64Bridge *Table
	StringBridge  *Table
	BoolBridge    *Table
	RuneBridge    *Table
)

func init() {
	Int64Bridge = newBridge(convertToInt64)
	Float64Bridge = newBridge(convertToFloat64)
	StringBridge = newBridge(convertToStringBridge)
	BoolBridge = newBridge(convertToBool)
	RuneBridge = newBridge(convertToRune)
}

func newBridge(conv func(Value) Value) *Table {
	t := NewTable()
	meta := NewTable()
	meta.RawSet("__call", GoFunc(func(args []Value) []Value {
		if len(args) < 2 {
			panic("type conversion expects one argument")
		}
		return []Value{conv(args[1])}
	}))
	t.SetMeta(meta)
	return t
}

func convertToInt64(v Value) Value {
	switch x := v.(type) {
	case int64:
		return x
	case float64:
		return int64(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			panic("cannot convert string to Int64: " + x)
		}
		return int64(f)
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	}
	panic("cannot convert " + TypeName(v) + " to Int64")
}

func convertToFloat64(v Value) Value {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case float64:
		return x
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			panic("cannot convert string to Float64: " + x)
		}
		return f
	}
	panic("cannot convert " + TypeName(v) + " to Float64")
}

func convertToStringBridge(v Value) Value {
	switch v.(type) {
	case int64, float64, string, bool:
		return ToString(v)
	}
	return ToString(v)
}

func convertToBool(v Value) Value {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		switch x {
		case "true":
			return true
		case "false":
			return false
		}
		panic("cannot convert string to Bool: " + x)
	}
	panic("cannot convert " + TypeName(v) + " to Bool")
}

func convertToRune(v Value) Value {
	switch x := v.(type) {
	case int64:
		return string(rune(x))
	case float64:
		return string(rune(int64(x)))
	case string:
		runes := []rune(x)
		if len(runes) != 1 {
			panic("cannot convert multi-character string to Rune: " + x)
		}
		return int64(runes[0])
	}
	panic("cannot convert " + TypeName(v) + " to Rune")
}
