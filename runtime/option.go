package runtime

// The Option bridge: `Some(v)`/`None` tagged tables sharing one metatable
// that exposes `getOrThrow`, `isSome`, `isNone`, `getOrDefault` as
// self-dispatching methods.
var optionMeta *Table

func init() {
	optionMeta = NewTable()
	optionMeta.RawSet("__index", GoFunc(optionIndex))
	optionMeta.RawSet("__tostring", GoFunc(optionToString))
}

func makeNone() *Table {
	t := NewTable()
	t.RawSet("__tag", "None")
	t.SetMeta(optionMeta)
	return t
}

func makeSome(v Value) *Table {
	t := NewTable()
	t.RawSet("__tag", "Some")
	t.RawSet(int64(1), v)
	t.SetMeta(optionMeta)
	return t
}

// optionSomeGo is the `Some` global constructor's underlying builtin.
func optionSomeGo(args []Value) []Value {
	if len(args) == 0 {
		panic("Some expects one argument")
	}
	return []Value{makeSome(args[0])}
}

// optionIndex backs Option's __index: method lookup for instances, falling
// through to nil for anything else (so `opt.getOrThrow` resolves to a
// function taking the option as its first argument, as a method call
// passes it, while `opt.foo` elsewhere is nil rather than an error). The
// result is not bound to the option.
func optionIndex(args []Value) []Value {
	t := args[0].(*Table)
	key, _ := args[1].(string)
	switch key {
	case "getOrThrow":
		return []Value{GoFunc(func(cargs []Value) []Value { return optionGetOrThrow(cargs[0].(*Table)) })}
	case "isSome":
		return []Value{GoFunc(func(cargs []Value) []Value { return optionIsSome(cargs[0].(*Table)) })}
	case "isNone":
		return []Value{GoFunc(func(cargs []Value) []Value { return optionIsNone(cargs[0].(*Table)) })}
	case "getOrDefault":
		return []Value{GoFunc(func(cargs []Value) []Value { return optionGetOrDefault(cargs[0].(*Table), cargs[1:]) })}
	}
	_ = t
	return []Value{nil}
}

func optionGetOrThrow(t *Table) []Value {
	if t.RawGet("__tag") == "Some" {
		return []Value{t.RawGet(int64(1))}
	}
	panic("getOrThrow called on None")
}

func optionIsSome(t *Table) []Value {
	return []Value{t.RawGet("__tag") == "Some"}
}

func optionIsNone(t *Table) []Value {
	return []Value{t.RawGet("__tag") == "None"}
}

// optionGetOrDefault takes either a plain value or a zero-argument
// function/closure as the fallback.
func optionGetOrDefault(t *Table, rest []Value) []Value {
	if t.RawGet("__tag") == "Some" {
		return []Value{t.RawGet(int64(1))}
	}
	if len(rest) == 0 {
		return []Value{nil}
	}
	fallback := rest[0]
	switch fallback.(type) {
	case *Closure, GoFunc, *BoundMethod:
		res := CallGo(fallback, nil)
		if len(res) > 0 {
			return []Value{res[0]}
		}
		return []Value{nil}
	}
	return []Value{fallback}
}

func optionToString(args []Value) []Value {
	t := args[0].(*Table)
	if t.RawGet("__tag") == "Some" {
		return []Value{"Some(" + ToString(t.RawGet(int64(1))) + ")"}
	}
	return []Value{"None"}
}
