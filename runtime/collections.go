package runtime

// Collections: ArrayList, ArrayStack, HashMap, HashSet, each built from the
// same class machinery as user-defined classes, providing size tracking,
// iteration (yielding Some(value)/None on termination), capacity
// reservation, bulk insert/remove, range slicing against Range values, and
// __tostring.

func newArrayListClass() *Table {
	c := NewTable()
	c.RawSet("init", GoFunc(listInit))
	c.RawSet("size", GoFunc(listSize))
	c.RawSet("get", GoFunc(listGet))
	c.RawSet("set", GoFunc(listSet))
	c.RawSet("add", GoFunc(listAdd))
	c.RawSet("addAll", GoFunc(listAddAll))
	c.RawSet("removeAt", GoFunc(listRemoveAt))
	c.RawSet("insertAt", GoFunc(listInsertAt))
	c.RawSet("reserve", GoFunc(collectionNoopReserve))
	c.RawSet("clear", GoFunc(listClear))
	c.RawSet("slice", GoFunc(listSlice))
	c.RawSet("iterator", GoFunc(listIterator))
	c.RawSet("toString", GoFunc(listToString))
	c.RawSet("__tostring", GoFunc(listToString))
	cangjieSetupClass([]Value{c})
	return c
}

func newArrayStackClass() *Table {
	c := NewTable()
	c.RawSet("init", GoFunc(listInit))
	c.RawSet("size", GoFunc(listSize))
	c.RawSet("push", GoFunc(listAdd))
	c.RawSet("pop", GoFunc(stackPop))
	c.RawSet("peek", GoFunc(stackPeek))
	c.RawSet("reserve", GoFunc(collectionNoopReserve))
	c.RawSet("clear", GoFunc(listClear))
	c.RawSet("iterator", GoFunc(listIterator))
	c.RawSet("toString", GoFunc(listToString))
	c.RawSet("__tostring", GoFunc(listToString))
	cangjieSetupClass([]Value{c})
	return c
}

func listInit(args []Value) []Value {
	self := args[0].(*Table)
	data := NewTable()
	self.RawSet("__data", data)
	if len(args) > 1 {
		if seed, ok := args[1].(*Table); ok {
			n := seed.Len()
			for i := int64(0); i < n; i++ {
				data.RawSet(i, seed.RawGet(i))
			}
			data.RawSet("__n", n)
			return nil
		}
	}
	data.RawSet("__n", int64(0))
	return nil
}

func listData(self Value) *Table {
	return self.(*Table).RawGet("__data").(*Table)
}

func listSize(args []Value) []Value {
	return []Value{listData(args[0]).Len()}
}

func listGet(args []Value) []Value {
	i, _ := ToInt(args[1])
	return []Value{listData(args[0]).RawGet(i)}
}

func listSet(args []Value) []Value {
	i, _ := ToInt(args[1])
	listData(args[0]).RawSet(i, args[2])
	return nil
}

func listAdd(args []Value) []Value {
	d := listData(args[0])
	n := d.Len()
	d.RawSet(n, args[1])
	d.RawSet("__n", n+1)
	return nil
}

func listAddAll(args []Value) []Value {
	d := listData(args[0])
	other, ok := args[1].(*Table)
	if !ok {
		return nil
	}
	on := other.Len()
	for i := int64(0); i < on; i++ {
		n := d.Len()
		d.RawSet(n, other.RawGet(i))
		d.RawSet("__n", n+1)
	}
	return nil
}

func listRemoveAt(args []Value) []Value {
	d := listData(args[0])
	i, _ := ToInt(args[1])
	n := d.Len()
	removed := d.RawGet(i)
	for j := i; j < n-1; j++ {
		d.RawSet(j, d.RawGet(j+1))
	}
	d.RawSet(n-1, nil)
	d.RawSet("__n", n-1)
	return []Value{removed}
}

func listInsertAt(args []Value) []Value {
	d := listData(args[0])
	i, _ := ToInt(args[1])
	v := args[2]
	n := d.Len()
	for j := n; j > i; j-- {
		d.RawSet(j, d.RawGet(j-1))
	}
	d.RawSet(i, v)
	d.RawSet("__n", n+1)
	return nil
}

func listClear(args []Value) []Value {
	self := args[0].(*Table)
	data := NewTable()
	data.RawSet("__n", int64(0))
	self.RawSet("__data", data)
	return nil
}

func listSlice(args []Value) []Value {
	d := listData(args[0])
	if r, ok := isRangeInstance(args[1]); ok {
		start, _ := ToInt(r.RawGet("start"))
		end, _ := ToInt(r.RawGet("end"))
		incl := Truthy(r.RawGet("isClosed"))
		res := cangjieArraySlice([]Value{d, start, end, incl})
		return res
	}
	return []Value{NewArray(nil)}
}

func stackPop(args []Value) []Value {
	d := listData(args[0])
	n := d.Len()
	if n == 0 {
		return []Value{makeNone()}
	}
	v := d.RawGet(n - 1)
	d.RawSet(n-1, nil)
	d.RawSet("__n", n-1)
	return []Value{makeSome(v)}
}

func stackPeek(args []Value) []Value {
	d := listData(args[0])
	n := d.Len()
	if n == 0 {
		return []Value{makeNone()}
	}
	return []Value{makeSome(d.RawGet(n - 1))}
}

func collectionNoopReserve([]Value) []Value { return nil }

func listIterator(args []Value) []Value {
	d := listData(args[0])
	n := d.Len()
	i := int64(-1)
	fn := GoFunc(func([]Value) []Value {
		i++
		if i >= n {
			return []Value{makeNone()}
		}
		return []Value{makeSome(d.RawGet(i))}
	})
	return []Value{fn}
}

func listToString(args []Value) []Value {
	d := listData(args[0])
	n := d.Len()
	out := "["
	for i := int64(0); i < n; i++ {
		if i > 0 {
			out += ", "
		}
		out += ToString(d.RawGet(i))
	}
	return []Value{out + "]"}
}

func newHashMapClass() *Table {
	c := NewTable()
	c.RawSet("init", GoFunc(mapInit))
	c.RawSet("size", GoFunc(mapSize))
	c.RawSet("get", GoFunc(mapGet))
	c.RawSet("set", GoFunc(mapSet))
	c.RawSet("contains", GoFunc(mapContains))
	c.RawSet("remove", GoFunc(mapRemove))
	c.RawSet("clear", GoFunc(mapClear))
	c.RawSet("iterator", GoFunc(mapIterator))
	c.RawSet("toString", GoFunc(mapToString))
	c.RawSet("__tostring", GoFunc(mapToString))
	cangjieSetupClass([]Value{c})
	return c
}

func mapInit(args []Value) []Value {
	args[0].(*Table).RawSet("__store", NewTable())
	return nil
}

func mapStore(self Value) *Table {
	return self.(*Table).RawGet("__store").(*Table)
}

func mapSize(args []Value) []Value {
	return []Value{int64(len(mapStore(args[0]).Keys()))}
}

func mapGet(args []Value) []Value {
	v := mapStore(args[0]).RawGet(args[1])
	if v == nil {
		return []Value{makeNone()}
	}
	return []Value{makeSome(v)}
}

func mapSet(args []Value) []Value {
	mapStore(args[0]).RawSet(args[1], args[2])
	return nil
}

func mapContains(args []Value) []Value {
	return []Value{mapStore(args[0]).RawGet(args[1]) != nil}
}

func mapRemove(args []Value) []Value {
	s := mapStore(args[0])
	v := s.RawGet(args[1])
	s.RawSet(args[1], nil)
	if v == nil {
		return []Value{makeNone()}
	}
	return []Value{makeSome(v)}
}

func mapClear(args []Value) []Value {
	args[0].(*Table).RawSet("__store", NewTable())
	return nil
}

func mapIterator(args []Value) []Value {
	s := mapStore(args[0])
	keys := s.Keys()
	i := -1
	fn := GoFunc(func([]Value) []Value {
		i++
		if i >= len(keys) {
			return []Value{makeNone()}
		}
		pair := NewTable()
		pair.RawSet(int64(0), keys[i])
		pair.RawSet(int64(1), s.RawGet(keys[i]))
		pair.RawSet("__n", int64(2))
		return []Value{makeSome(pair)}
	})
	return []Value{fn}
}

func mapToString(args []Value) []Value {
	s := mapStore(args[0])
	out := "{"
	for i, k := range s.Keys() {
		if i > 0 {
			out += ", "
		}
		out += ToString(k) + ": " + ToString(s.RawGet(k))
	}
	return []Value{out + "}"}
}

func newHashSetClass() *Table {
	c := NewTable()
	c.RawSet("init", GoFunc(setInit))
	c.RawSet("size", GoFunc(mapSize))
	c.RawSet("add", GoFunc(setAdd))
	c.RawSet("contains", GoFunc(mapContains))
	c.RawSet("remove", GoFunc(setRemove))
	c.RawSet("clear", GoFunc(mapClear))
	c.RawSet("iterator", GoFunc(setIterator))
	c.RawSet("toString", GoFunc(setToString))
	c.RawSet("__tostring", GoFunc(setToString))
	cangjieSetupClass([]Value{c})
	return c
}

func setInit(args []Value) []Value {
	args[0].(*Table).RawSet("__store", NewTable())
	return nil
}

func setAdd(args []Value) []Value {
	mapStore(args[0]).RawSet(args[1], true)
	return nil
}

func setRemove(args []Value) []Value {
	s := mapStore(args[0])
	had := s.RawGet(args[1]) != nil
	s.RawSet(args[1], nil)
	return []Value{had}
}

func setIterator(args []Value) []Value {
	s := mapStore(args[0])
	keys := s.Keys()
	i := -1
	fn := GoFunc(func([]Value) []Value {
		i++
		if i >= len(keys) {
			return []Value{makeNone()}
		}
		return []Value{makeSome(keys[i])}
	})
	return []Value{fn}
}

func setToString(args []Value) []Value {
	s := mapStore(args[0])
	out := "{"
	for i, k := range s.Keys() {
		if i > 0 {
			out += ", "
		}
		out += ToString(k)
	}
	return []Value{out + "}"}
}
