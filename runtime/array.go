package runtime

// NewArray builds a 0-based table from elems with an `__n` field, matching
// the compiler's own array-literal emission.
func NewArray(elems []Value) *Table {
	t := NewTable()
	for i, e := range elems {
		t.RawSet(int64(i), e)
	}
	t.RawSet("__n", int64(len(elems)))
	return t
}

// cangjieTuple implements __cangjie_tuple(a, ...): a 0-based table with
// __tuple=true, __n, and size.
func cangjieTuple(args []Value) []Value {
	t := NewTable()
	for i, e := range args {
		t.RawSet(int64(i), e)
	}
	t.RawSet("__tuple", true)
	t.RawSet("__n", int64(len(args)))
	t.RawSet("size", int64(len(args)))
	return []Value{t}
}

// cangjieMatchTuple implements __cangjie_match_tuple(v, n).
func cangjieMatchTuple(args []Value) []Value {
	v, n := args[0], args[1]
	t, ok := v.(*Table)
	if !ok {
		return []Value{false}
	}
	if tag := t.RawGet("__tuple"); tag == nil || !Truthy(tag) {
		return []Value{false}
	}
	nv, _ := ToInt(n)
	tn, _ := ToInt(t.RawGet("__n"))
	return []Value{tn == nv}
}

// cangjieMatchTag implements __cangjie_match_tag(v, "Tag").
func cangjieMatchTag(args []Value) []Value {
	v, tag := args[0], args[1]
	t, ok := v.(*Table)
	if !ok {
		return []Value{false}
	}
	return []Value{t.RawGet("__tag") == tag}
}

// charIndex returns the UTF-8 rune at 0-based position i in s.
func charIndex(s string, i int64) (string, bool) {
	runes := []rune(s)
	if i < 0 || i >= int64(len(runes)) {
		return "", false
	}
	return string(runes[i]), true
}

// cangjieArraySlice implements __cangjie_array_slice(v, start, end,
// inclusive): a new 0-based subtable for arrays, a substring for strings.
func cangjieArraySlice(args []Value) []Value {
	v, startV, endV, inclV := args[0], args[1], args[2], args[3]
	start, _ := ToInt(startV)
	end, _ := ToInt(endV)
	incl := Truthy(inclV)

	switch x := v.(type) {
	case string:
		runes := []rune(x)
		hi := end
		if incl {
			hi++
		}
		if start < 0 {
			start = 0
		}
		if hi > int64(len(runes)) {
			hi = int64(len(runes))
		}
		if start >= hi {
			return []Value{""}
		}
		return []Value{string(runes[start:hi])}
	case *Table:
		hi := end
		if incl {
			hi++
		}
		n := x.Len()
		if hi > n {
			hi = n
		}
		var elems []Value
		for i := start; i < hi; i++ {
			elems = append(elems, x.RawGet(i))
		}
		return []Value{NewArray(elems)}
	}
	panic("attempt to slice a " + TypeName(v) + " value")
}

// cangjieArraySliceSet implements __cangjie_array_slice_set(arr, start,
// end, inclusive, values): copies values[0..count-1] into
// arr[start..start+count-1] in place.
func cangjieArraySliceSet(args []Value) []Value {
	arr, startV, _, _, values := args[0], args[1], args[2], args[3], args[4]
	start, _ := ToInt(startV)
	t, ok := arr.(*Table)
	if !ok {
		panic("attempt to index a " + TypeName(arr) + " value")
	}
	vt, ok := values.(*Table)
	if !ok {
		panic("attempt to assign from a " + TypeName(values) + " value")
	}
	n := vt.Len()
	for i := int64(0); i < n; i++ {
		t.Set(start+i, vt.RawGet(i))
	}
	return nil
}

// cangjieIter implements __cangjie_iter(v): if v is a table, returns a
// closure-based iterator over indices 0..v.__n-1; if v is already callable,
// returns it unchanged with nil state/control.
func cangjieIter(args []Value) []Value {
	v := args[0]
	if obj, ok := isRangeInstance(v); ok {
		return rangeIterator(obj)
	}
	switch x := v.(type) {
	case *Table:
		n := x.Len()
		i := int64(-1)
		iterFn := GoFunc(func([]Value) []Value {
			i++
			if i >= n {
				return []Value{nil}
			}
			return []Value{x.RawGet(i)}
		})
		return []Value{iterFn, nil, nil}
	case *Closure, GoFunc:
		return []Value{x, nil, nil}
	}
	panic("attempt to iterate a " + TypeName(v) + " value")
}

// cangjieCoalesce implements __cangjie_coalesce(a, b).
func cangjieCoalesce(args []Value) []Value {
	a, b := args[0], args[1]
	if a == nil {
		return []Value{b}
	}
	if t, ok := a.(*Table); ok {
		if tag := t.RawGet("__tag"); tag == "None" {
			return []Value{b}
		}
		if tag := t.RawGet("__tag"); tag == "Some" {
			return []Value{t.RawGet(int64(1))}
		}
	}
	return []Value{a}
}

// cangjieOptionWrap implements __cangjie_option_wrap(v).
func cangjieOptionWrap(args []Value) []Value {
	v := args[0]
	if v == nil {
		return []Value{makeNone()}
	}
	if t, ok := v.(*Table); ok {
		if tag := t.RawGet("__tag"); tag == "Some" || tag == "None" {
			return []Value{v}
		}
	}
	return []Value{makeSome(v)}
}
