package runtime

// rangeClassSingleton is the shared `Range` class table: the factory that
// wires init, iterator, and toString.
var rangeClassSingleton *Table

func newRangeClass() *Table {
	if rangeClassSingleton != nil {
		return rangeClassSingleton
	}
	c := NewTable()
	c.RawSet("init", GoFunc(rangeInit))
	c.RawSet("toString", GoFunc(rangeToString))
	c.RawSet("__tostring", GoFunc(rangeToString))
	cangjieSetupClass([]Value{c})
	rangeClassSingleton = c
	return c
}

func rangeInit(args []Value) []Value {
	self := args[0].(*Table)
	start, end, step, isClosed, hasEnd := args[1], args[2], args[3], args[4], args[5]
	self.Set("start", start)
	self.Set("end", end)
	self.Set("step", step)
	self.Set("isClosed", isClosed)
	self.Set("hasEnd", hasEnd)
	return []Value{self}
}

// rangeToString renders "start..end" (exclusive) / "start..=end" (inclusive).
func rangeToString(args []Value) []Value {
	self := args[0].(*Table)
	start := ToString(self.RawGet("start"))
	if !Truthy(self.RawGet("hasEnd")) {
		if Truthy(self.RawGet("isClosed")) {
			return []Value{start + "..="}
		}
		return []Value{start + ".."}
	}
	end := ToString(self.RawGet("end"))
	if Truthy(self.RawGet("isClosed")) {
		return []Value{start + "..=" + end}
	}
	return []Value{start + ".." + end}
}

// cangjieRange implements __cangjie_range(start, end, step, inclusive): a
// closed-range literal always has a known end.
func cangjieRange(args []Value) []Value {
	start, end, step, inclusive := args[0], args[1], args[2], args[3]
	class := newRangeClass()
	return CallGo(class, []Value{start, end, step, inclusive, true})
}

// rangeIterator builds a 3-value Lua-protocol iterator triple over a Range
// instance's start/end/step/isClosed fields, used by cangjieIter.
func rangeIterator(obj *Table) []Value {
	start, _ := ToInt(obj.RawGet("start"))
	step, ok := ToInt(obj.RawGet("step"))
	if !ok || step == 0 {
		step = 1
	}
	hasEnd := Truthy(obj.RawGet("hasEnd"))
	end, _ := ToInt(obj.RawGet("end"))
	closed := Truthy(obj.RawGet("isClosed"))

	cur := start - step
	iterFn := GoFunc(func([]Value) []Value {
		cur += step
		if hasEnd {
			if step > 0 {
				if (closed && cur > end) || (!closed && cur >= end) {
					return []Value{nil}
				}
			} else {
				if (closed && cur < end) || (!closed && cur <= end) {
					return []Value{nil}
				}
			}
		}
		return []Value{cur}
	})
	return []Value{iterFn, nil, nil}
}

func isRangeInstance(v Value) (*Table, bool) {
	t, ok := v.(*Table)
	if !ok {
		return nil, false
	}
	cls, ok := t.RawGet("__class").(*Table)
	if !ok || cls != rangeClassSingleton {
		return nil, false
	}
	return t, true
}
