package runtime

import (
	"fmt"
	"strings"
)

// extendMethods holds the merged method tables installed by
// `extend Int64 { ... }`/`extend Float64 { ... }`/etc. blocks, keyed by
// builtin type name. Index consults these after the fixed string dispatch
// table and before giving up, so repeated `extend` blocks for the same
// builtin type accumulate rather than clobber.
var extendMethods = map[string]*Table{}

// cangjieExtendType implements __cangjie_extend_type(name, methods): finds
// or creates the canonical extension table for a builtin type name and
// merges `methods` into it, rather than replacing it wholesale.
func cangjieExtendType(args []Value) []Value {
	name, _ := args[0].(string)
	methods, ok := args[1].(*Table)
	if !ok {
		panic("__cangjie_extend_type expects a table of methods")
	}
	existing, found := extendMethods[name]
	if !found {
		extendMethods[name] = methods
		return []Value{methods}
	}
	for _, k := range methods.Keys() {
		existing.RawSet(k, methods.RawGet(k))
	}
	return []Value{existing}
}

// Index implements field/key access uniform across every value kind, the
// way package vm's OpGetField/OpGetTable/OpSelf need it: tables consult
// their own __index chain, strings consult the fixed string methods and
// then any `extend` additions, and numbers and bools consult only their
// `extend` additions.
func Index(v Value, key Value) Value {
	switch x := v.(type) {
	case *Table:
		return x.Get(key)
	case string:
		if val := StringIndex(x, key); val != nil {
			return val
		}
		return extendMethodLookup("String", x, key)
	case int64:
		return extendMethodLookup("Int64", x, key)
	case float64:
		return extendMethodLookup("Float64", x, key)
	case bool:
		return extendMethodLookup("Bool", x, key)
	}
	return nil
}

func extendMethodLookup(typeName string, receiver Value, key Value) Value {
	methods, ok := extendMethods[typeName]
	if !ok {
		return nil
	}
	v := methods.RawGet(key)
	if v == nil {
		return nil
	}
	switch v.(type) {
	case *Closure, GoFunc:
		return &BoundMethod{Receiver: receiver, Fn: v}
	}
	return v
}

func register(env *Table, name string, fn GoFunc) {
	env.RawSet(name, fn)
}

// ExtraBuiltins lets a native extension package (file I/O, etc.) register
// itself into every chunk's global environment without runtime importing
// it directly: the extension package appends to this slice from its own
// init(), reached via a blank import, rather than a hand-maintained list
// here.
type ExtraBuiltin struct {
	Name string
	Fn   GoFunc
}

var ExtraBuiltins []ExtraBuiltin

// NewGlobalEnv builds the `_ENV` table every compiled chunk's upvalue[0]
// binds to, with every `__cangjie_*` primitive, type bridge, and ambient
// global installed.
func NewGlobalEnv() *Table {
	env := NewTable()

	register(env, "__cangjie_setup_class", cangjieSetupClass)
	register(env, "__cangjie_set_parent", cangjieSetParent)
	register(env, "__cangjie_apply_interface", cangjieApplyInterface)
	register(env, "__cangjie_super_init", cangjieSuperInit)
	register(env, "__cangjie_is_instance", cangjieIsInstance)
	register(env, "__cangjie_setup_enum", cangjieSetupEnum)
	register(env, "__cangjie_enum_attach", cangjieEnumAttach)
	register(env, "__cangjie_match_tag", cangjieMatchTag)
	register(env, "__cangjie_match_tuple", cangjieMatchTuple)
	register(env, "__cangjie_tuple", cangjieTuple)
	register(env, "__cangjie_range", cangjieRange)
	register(env, "__cangjie_coalesce", cangjieCoalesce)
	register(env, "__cangjie_option_wrap", cangjieOptionWrap)
	register(env, "__cangjie_overload", cangjieOverload)
	register(env, "__cangjie_named_call", cangjieNamedCall)
	register(env, "__cangjie_iter", cangjieIter)
	register(env, "__cangjie_array_slice", cangjieArraySlice)
	register(env, "__cangjie_array_slice_set", cangjieArraySliceSet)
	register(env, "__cangjie_extend_type", cangjieExtendType)
	register(env, "__cangjie_tostring", GoFunc(func(args []Value) []Value {
		return []Value{ToString(args[0])}
	}))

	env.RawSet("Int64", Int64Bridge)
	env.RawSet("Float64", Float64Bridge)
	env.RawSet("String", StringBridge)
	env.RawSet("Bool", BoolBridge)
	env.RawSet("Rune", RuneBridge)

	env.RawSet("Some", GoFunc(optionSomeGo))
	env.RawSet("None", makeNone())

	env.RawSet("Range", newRangeClass())
	env.RawSet("ArrayList", newArrayListClass())
	env.RawSet("ArrayStack", newArrayStackClass())
	env.RawSet("HashMap", newHashMapClass())
	env.RawSet("HashSet", newHashSetClass())

	env.RawSet("print", GoFunc(cangjiePrint))
	env.RawSet("println", GoFunc(cangjiePrint))

	for _, b := range ExtraBuiltins {
		register(env, b.Name, b.Fn)
	}

	return env
}

func cangjiePrint(args []Value) []Value {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = ToString(a)
	}
	fmt.Println(strings.Join(parts, "\t"))
	return nil
}
