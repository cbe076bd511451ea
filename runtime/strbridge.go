package runtime

import (
	"strings"
	"unicode/utf8"
)

// stringMethods is the fixed Cangjie method dispatch table consulted before
// falling through to plain field/library lookups. Since a Go string carries no metatable of its own, package vm
// routes string field/index access through StringIndex instead of Table.Get.
var stringMethods map[string]func(s string, args []Value) []Value

func init() {
	stringMethods = map[string]func(string, []Value) []Value{
		"isEmpty":      func(s string, _ []Value) []Value { return []Value{len(s) == 0} },
		"contains":     func(s string, a []Value) []Value { return []Value{strings.Contains(s, argStr(a, 0))} },
		"startsWith":   func(s string, a []Value) []Value { return []Value{strings.HasPrefix(s, argStr(a, 0))} },
		"endsWith":     func(s string, a []Value) []Value { return []Value{strings.HasSuffix(s, argStr(a, 0))} },
		"replace":      func(s string, a []Value) []Value { return []Value{strings.ReplaceAll(s, argStr(a, 0), argStr(a, 1))} },
		"trim":         func(s string, _ []Value) []Value { return []Value{strings.TrimSpace(s)} },
		"trimStart":    func(s string, _ []Value) []Value { return []Value{strings.TrimLeft(s, " \t\n\r")} },
		"trimEnd":      func(s string, _ []Value) []Value { return []Value{strings.TrimRight(s, " \t\n\r")} },
		"toAsciiUpper": func(s string, _ []Value) []Value { return []Value{strings.ToUpper(s)} },
		"toAsciiLower": func(s string, _ []Value) []Value { return []Value{strings.ToLower(s)} },
		"indexOf": func(s string, a []Value) []Value {
			idx := strings.Index(s, argStr(a, 0))
			if idx < 0 {
				return []Value{int64(-1)}
			}
			return []Value{int64(len([]rune(s[:idx])))}
		},
		"lastIndexOf": func(s string, a []Value) []Value {
			idx := strings.LastIndex(s, argStr(a, 0))
			if idx < 0 {
				return []Value{int64(-1)}
			}
			return []Value{int64(len([]rune(s[:idx])))}
		},
		"count": func(s string, a []Value) []Value {
			return []Value{int64(strings.Count(s, argStr(a, 0)))}
		},
		"split": func(s string, a []Value) []Value {
			parts := strings.Split(s, argStr(a, 0))
			elems := make([]Value, len(parts))
			for i, p := range parts {
				elems[i] = p
			}
			return []Value{NewArray(elems)}
		},
		"toArray": func(s string, _ []Value) []Value {
			elems := make([]Value, 0, len(s))
			for i := 0; i < len(s); i++ {
				elems = append(elems, int64(s[i]))
			}
			return []Value{NewArray(elems)}
		},
		"toRuneArray": func(s string, _ []Value) []Value {
			runes := []rune(s)
			elems := make([]Value, len(runes))
			for i, r := range runes {
				elems[i] = string(r)
			}
			return []Value{NewArray(elems)}
		},
	}
}

func argStr(args []Value, i int) string {
	if i >= len(args) {
		return ""
	}
	s, _ := args[i].(string)
	return s
}

// StringLen returns the UTF-8 character count of s.
func StringLen(s string) int64 {
	return int64(utf8.RuneCountInString(s))
}

// StringIndex implements field/method/integer access on a string value
//: a fixed method dispatch table, 0-based
// UTF-8 character indexing, and a `.size` pseudo-field, all bound to the
// receiver the way Table.Get binds methods via BoundMethod.
func StringIndex(s string, key Value) Value {
	switch k := key.(type) {
	case string:
		if k == "size" {
			return StringLen(s)
		}
		if m, ok := stringMethods[k]; ok {
			fn := m
			return &BoundMethod{Receiver: s, Fn: GoFunc(func(args []Value) []Value {
				recv, _ := args[0].(string)
				return fn(recv, args[1:])
			})}
		}
		return nil
	case int64:
		ch, ok := charIndex(s, k)
		if !ok {
			return nil
		}
		return ch
	case float64:
		ch, ok := charIndex(s, int64(k))
		if !ok {
			return nil
		}
		return ch
	}
	return nil
}
