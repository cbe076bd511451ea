package runtime

import "strconv"

// operatorMetamethods lists the operator names copied from a class table
// into each instance's metatable. __index is handled separately by
// instantiate, since it doubles as member dispatch.
var operatorMetamethods = []string{
	"__add", "__sub", "__mul", "__div", "__mod", "__pow", "__idiv",
	"__band", "__bor", "__bxor", "__bnot", "__shl", "__shr",
	"__eq", "__lt", "__le", "__len", "__concat", "__tostring", "__unm",
}

// classLookup walks c, then c.__parent, etc., looking for key. A
// "__static_<name>" flag on the table owning key hides it from instance
// lookup.
func classLookup(c *Table, key Value) (Value, bool) {
	name, isStr := key.(string)
	cur := c
	for cur != nil {
		if isStr {
			if flag := cur.RawGet("__static_" + name); flag != nil && Truthy(flag) {
				return nil, true
			}
		}
		if v := cur.RawGet(key); v != nil {
			return v, false
		}
		parent, ok := cur.RawGet("__parent").(*Table)
		if !ok {
			break
		}
		cur = parent
	}
	return nil, false
}

// cangjieSetupClass implements __cangjie_setup_class(C).
func cangjieSetupClass(args []Value) []Value {
	c, ok := args[0].(*Table)
	if !ok {
		panic("__cangjie_setup_class expects a table")
	}
	meta := NewTable()
	meta.RawSet("__call", GoFunc(func(callArgs []Value) []Value {
		return instantiateClass(c, callArgs[1:])
	}))
	c.SetMeta(meta)
	return nil
}

func instantiateClass(c *Table, ctorArgs []Value) []Value {
	obj := NewTable()
	obj.RawSet("__class", c)

	instMeta := NewTable()
	instMeta.RawSet("__index", GoFunc(func(iargs []Value) []Value {
		key := iargs[1]
		if v, static := classLookup(c, key); v != nil && !static {
			switch v.(type) {
			case *Closure, GoFunc:
				return []Value{&BoundMethod{Receiver: obj, Fn: v}}
			}
			return []Value{v}
		}
		if custom, static := classLookup(c, "__index"); custom != nil && !static {
			return CallGo(custom, []Value{obj, key})
		}
		return []Value{nil}
	}))
	for _, mm := range operatorMetamethods {
		if v, static := classLookup(c, mm); v != nil && !static {
			instMeta.RawSet(mm, v)
		}
	}
	obj.SetMeta(instMeta)

	if initFn, static := classLookup(c, "init"); initFn != nil && !static {
		CallGo(initFn, append([]Value{obj}, ctorArgs...))
	} else {
		nfields, _ := ToInt(c.RawGet("__nfields"))
		for i := int64(1); i <= nfields && int(i) <= len(ctorArgs); i++ {
			if fname := c.RawGet("__field_" + strconv.FormatInt(i, 10)); fname != nil {
				obj.Set(fname, ctorArgs[i-1])
			}
		}
	}
	return []Value{obj}
}

// cangjieSetParent implements __cangjie_set_parent(child, parent).
func cangjieSetParent(args []Value) []Value {
	child, ok1 := args[0].(*Table)
	parent, ok2 := args[1].(*Table)
	if !ok1 || !ok2 {
		panic("__cangjie_set_parent expects two tables")
	}
	child.RawSet("__parent", parent)
	for _, k := range parent.Keys() {
		if s, ok := k.(string); ok {
			if s == "init" || (len(s) > 0 && s[0] == '_' && len(s) > 1 && s[1] == '_') {
				continue
			}
		}
		if child.RawGet(k) == nil {
			child.RawSet(k, parent.RawGet(k))
		}
	}
	return nil
}

// cangjieApplyInterface implements __cangjie_apply_interface(target, iface).
func cangjieApplyInterface(args []Value) []Value {
	target, ok1 := args[0].(*Table)
	iface, ok2 := args[1].(*Table)
	if !ok1 || !ok2 {
		panic("__cangjie_apply_interface expects two tables")
	}
	for _, k := range iface.Keys() {
		v := iface.RawGet(k)
		switch v.(type) {
		case *Closure, GoFunc:
			if target.RawGet(k) == nil {
				target.RawSet(k, v)
			}
		}
	}
	return nil
}

// cangjieSuperInit implements __cangjie_super_init(self, currentClass, args…).
func cangjieSuperInit(args []Value) []Value {
	self, cur := args[0], args[1]
	rest := args[2:]
	curTable, ok := cur.(*Table)
	if !ok {
		return nil
	}
	parent, ok := curTable.RawGet("__parent").(*Table)
	if !ok {
		return nil
	}
	initFn, static := classLookup(parent, "init")
	if initFn == nil || static {
		return nil
	}
	CallGo(initFn, append([]Value{self}, rest...))
	return nil
}

// cangjieIsInstance implements __cangjie_is_instance(obj, cls).
func cangjieIsInstance(args []Value) []Value {
	obj, cls := args[0], args[1]
	clsTable, ok := cls.(*Table)
	if !ok {
		return []Value{false}
	}
	switch o := obj.(type) {
	case *Table:
		cur, _ := o.RawGet("__class").(*Table)
		for cur != nil {
			if cur == clsTable {
				return []Value{true}
			}
			cur, _ = cur.RawGet("__parent").(*Table)
		}
		return []Value{false}
	case int64, float64:
		return []Value{clsTable == Int64Bridge || clsTable == Float64Bridge}
	case string:
		return []Value{clsTable == StringBridge}
	case bool:
		return []Value{clsTable == BoolBridge}
	}
	return []Value{false}
}

// enumInstanceMeta builds (or returns the cached) metatable shared by
// every value of enum e: __index dispatches unresolved keys to e's own
// func/operator-func members, binding the variant itself as the method's
// receiver, and __newindex rejects writes since an enum value is fixed
// once constructed. Cached on e under "__variant_meta" so repeat callers
// (cangjieSetupEnum for nullary variants, cangjieEnumAttach for payload
// variants built afterward) share one instance.
func enumInstanceMeta(e *Table) *Table {
	if cached, ok := e.RawGet("__variant_meta").(*Table); ok {
		return cached
	}
	meta := NewTable()
	meta.RawSet("__index", GoFunc(func(iargs []Value) []Value {
		self, key := iargs[0], iargs[1]
		if v := e.RawGet(key); v != nil {
			switch v.(type) {
			case *Closure, GoFunc:
				return []Value{&BoundMethod{Receiver: self, Fn: v}}
			}
			return []Value{v}
		}
		return []Value{nil}
	}))
	meta.RawSet("__newindex", GoFunc(func([]Value) []Value {
		panic("attempt to modify a frozen enum variant")
	}))
	for _, mm := range operatorMetamethods {
		if v := e.RawGet(mm); v != nil {
			meta.RawSet(mm, v)
		}
	}
	e.RawSet("__variant_meta", meta)
	return meta
}

// cangjieSetupEnum implements __cangjie_setup_enum(E): attaches the
// shared dispatch/freeze metatable to every nullary variant already built
// into E. Payload (factory-constructed) variants get the same metatable
// later, per call, via cangjieEnumAttach — there's no value to attach to
// yet at declaration time.
func cangjieSetupEnum(args []Value) []Value {
	e, ok := args[0].(*Table)
	if !ok {
		panic("__cangjie_setup_enum expects a table")
	}
	meta := enumInstanceMeta(e)
	for _, k := range e.Keys() {
		if v, isTable := e.RawGet(k).(*Table); isTable {
			if tag := v.RawGet("__tag"); tag != nil {
				v.SetMeta(meta)
			}
		}
	}
	return nil
}

// cangjieEnumAttach implements __cangjie_enum_attach(value, E): attaches
// E's shared dispatch metatable to a freshly built payload variant. Each
// compiled factory function calls this on the table it just built, right
// before returning it, since a new payload variant is a new table every
// call and cangjieSetupEnum only ever sees the variants that already
// existed at enum-declaration time.
func cangjieEnumAttach(args []Value) []Value {
	v, ok := args[0].(*Table)
	if !ok {
		return nil
	}
	e, ok := args[1].(*Table)
	if !ok {
		return nil
	}
	v.SetMeta(enumInstanceMeta(e))
	return nil
}
