package runtime

// cangjieOverload implements __cangjie_overload(old, new_fn, nparams): builds
// or extends a dispatch table keyed by parameter count. Every top-level `func` declaration is compiled
// through this helper (see compiler's funcStmt), so `old` is either nil
// (first declaration of that name) or an existing dispatcher table.
func cangjieOverload(args []Value) []Value {
	old, newFn, nparamsV := args[0], args[1], args[2]
	nparams, _ := ToInt(nparamsV)

	var dispatcher *Table
	if t, ok := old.(*Table); ok && Truthy(t.RawGet("__overload")) {
		dispatcher = t
	} else {
		dispatcher = NewTable()
		dispatcher.RawSet("__overload", true)
		meta := NewTable()
		meta.RawSet("__call", GoFunc(overloadCall))
		dispatcher.SetMeta(meta)
	}
	dispatcher.RawSet(nparams, newFn)
	return []Value{dispatcher}
}

func overloadCall(callArgs []Value) []Value {
	dispatcher := callArgs[0].(*Table)
	args := callArgs[1:]
	fn := selectOverload(dispatcher, int64(len(args)))
	if fn == nil {
		panic("no matching overload")
	}
	return CallGo(fn, args)
}

// selectOverload picks the overload whose arity equals n; failing that the
// nearest overload with more parameters (defaults fill the gap), then the
// nearest with fewer.
func selectOverload(t *Table, n int64) Value {
	if fn := t.RawGet(n); fn != nil {
		return fn
	}
	arity, ok := nearestOverloadArity(t, n)
	if !ok {
		return nil
	}
	return t.RawGet(arity)
}

func nearestOverloadArity(t *Table, n int64) (int64, bool) {
	above, haveAbove := int64(0), false
	below, haveBelow := int64(0), false
	for _, k := range t.keys {
		arity, ok := k.(int64)
		if !ok {
			continue
		}
		if arity > n && (!haveAbove || arity < above) {
			above, haveAbove = arity, true
		} else if arity < n && (!haveBelow || arity > below) {
			below, haveBelow = arity, true
		}
	}
	if haveAbove {
		return above, true
	}
	if haveBelow {
		return below, true
	}
	return 0, false
}

func isOverloadDispatcher(v Value) (*Table, bool) {
	t, ok := v.(*Table)
	if ok && Truthy(t.RawGet("__overload")) {
		return t, true
	}
	return nil, false
}

// cangjieNamedCall implements __cangjie_named_call(fn, pos1, …, posN, npos,
// named). Positional args fill 1…npos;
// remaining formal parameters are looked up by name in `named`, using the
// callee's recorded parameter names, falling back to positional-only
// filling when no name table is available.
func cangjieNamedCall(args []Value) []Value {
	fn := args[0]
	rest := args[1 : len(args)-2]
	npos, _ := ToInt(args[len(args)-2])
	named, _ := args[len(args)-1].(*Table)

	var target Value
	var nparams int64
	if dispatcher, ok := isOverloadDispatcher(fn); ok {
		arity, found := nearestOverloadArityAtLeast(dispatcher, npos)
		if !found {
			arity, found = nearestOverloadArity(dispatcher, npos)
		}
		if !found {
			panic("no matching overload")
		}
		nparams = arity
		target = dispatcher.RawGet(arity)
	} else {
		target = fn
		nparams = npos
	}

	names := paramNamesOf(target)
	callArgs := make([]Value, nparams)
	for i := int64(0); i < nparams; i++ {
		if i < npos && int(i) < len(rest) {
			callArgs[i] = rest[i]
			continue
		}
		if int(i) < len(names) && names[i] != "" && named != nil {
			callArgs[i] = named.RawGet(names[i])
		}
	}
	return CallGo(target, callArgs)
}

// nearestOverloadArityAtLeast finds the smallest recorded arity >= npos.
func nearestOverloadArityAtLeast(t *Table, npos int64) (int64, bool) {
	best, have := int64(0), false
	for _, k := range t.keys {
		arity, ok := k.(int64)
		if !ok {
			continue
		}
		if arity >= npos && (!have || arity < best) {
			best, have = arity, true
		}
	}
	return best, have
}

func paramNamesOf(target Value) []string {
	cl, ok := target.(*Closure)
	if !ok {
		return nil
	}
	names := make([]string, len(cl.Proto.Params))
	for i, p := range cl.Proto.Params {
		names[i] = p.Name
	}
	return names
}
