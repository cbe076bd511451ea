package runtime

import "testing"

func TestTableRawGetSetAndLen(t *testing.T) {
	tab := NewTable()
	tab.RawSet("a", int64(1))
	tab.RawSet("b", int64(2))
	if got := tab.RawGet("a"); got != int64(1) {
		t.Fatalf("RawGet(a) = %v, want 1", got)
	}
	if got := tab.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2 (no __n set, falls back to key count)", got)
	}
	tab.RawSet("__n", int64(9))
	if got := tab.Len(); got != 9 {
		t.Fatalf("Len() = %d, want 9 (__n overrides key count)", got)
	}
}

func TestTableRawSetNilDeletes(t *testing.T) {
	tab := NewTable()
	tab.RawSet("a", int64(1))
	tab.RawSet("a", nil)
	if got := tab.RawGet("a"); got != nil {
		t.Fatalf("RawGet(a) = %v, want nil after delete", got)
	}
	if n := len(tab.Keys()); n != 0 {
		t.Fatalf("Keys() length = %d, want 0 after delete", n)
	}
}

func TestTableGetFollowsIndexMetamethod(t *testing.T) {
	tab := NewTable()
	meta := NewTable()
	meta.RawSet("__index", GoFunc(func(args []Value) []Value {
		return []Value{"fallback:" + args[1].(string)}
	}))
	tab.SetMeta(meta)
	if got := tab.Get("missing"); got != "fallback:missing" {
		t.Fatalf("Get(missing) = %v, want fallback:missing", got)
	}
	tab.RawSet("present", int64(7))
	if got := tab.Get("present"); got != int64(7) {
		t.Fatalf("Get(present) = %v, want 7 (raw slot wins over __index)", got)
	}
}

func TestTableKeysPreservesInsertionOrder(t *testing.T) {
	tab := NewTable()
	tab.RawSet("z", 1)
	tab.RawSet("a", 2)
	tab.RawSet("m", 3)
	keys := tab.Keys()
	want := []string{"z", "a", "m"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i, w := range want {
		if keys[i] != w {
			t.Fatalf("Keys()[%d] = %v, want %v", i, keys[i], w)
		}
	}
}

func TestClassInstantiationAndFieldInit(t *testing.T) {
	class := NewTable()
	class.RawSet("init", GoFunc(func(args []Value) []Value {
		self := args[0].(*Table)
		self.Set("x", args[1])
		self.Set("y", args[2])
		return nil
	}))
	cangjieSetupClass([]Value{class})

	res := CallGo(class, []Value{int64(3), int64(4)})
	obj, ok := res[0].(*Table)
	if !ok {
		t.Fatalf("class call returned %T, want *Table", res[0])
	}
	if got := obj.Get("x"); got != int64(3) {
		t.Fatalf("obj.x = %v, want 3", got)
	}
	if got := obj.Get("y"); got != int64(4) {
		t.Fatalf("obj.y = %v, want 4", got)
	}
	if got := obj.RawGet("__class"); got != class {
		t.Fatalf("obj.__class = %v, want class table", got)
	}
}

func TestClassMethodDispatchAndBoundMethod(t *testing.T) {
	class := NewTable()
	class.RawSet("init", GoFunc(func(args []Value) []Value {
		args[0].(*Table).Set("n", args[1])
		return nil
	}))
	class.RawSet("double", GoFunc(func(args []Value) []Value {
		self := args[0].(*Table)
		n, _ := ToInt(self.Get("n"))
		return []Value{n * 2}
	}))
	cangjieSetupClass([]Value{class})

	res := CallGo(class, []Value{int64(21)})
	obj := res[0].(*Table)

	method := obj.Get("double")
	bm, ok := method.(*BoundMethod)
	if !ok {
		t.Fatalf("obj.double = %T, want *BoundMethod", method)
	}
	out := CallGo(bm, nil)
	if out[0] != int64(42) {
		t.Fatalf("obj.double() = %v, want 42", out[0])
	}
}

func TestClassInheritanceOverridesMethodAndField(t *testing.T) {
	animal := NewTable()
	animal.RawSet("init", GoFunc(func(args []Value) []Value { return nil }))
	animal.RawSet("speak", GoFunc(func(args []Value) []Value {
		return []Value{"..."}
	}))
	cangjieSetupClass([]Value{animal})

	dog := NewTable()
	cangjieSetParent([]Value{dog, animal})
	dog.RawSet("speak", GoFunc(func(args []Value) []Value {
		return []Value{"woof"}
	}))
	cangjieSetupClass([]Value{dog})

	res := CallGo(dog, nil)
	obj := res[0].(*Table)

	if got := cangjieIsInstance([]Value{obj, animal}); got[0] != true {
		t.Fatalf("dog instance is not an Animal instance")
	}
	if got := cangjieIsInstance([]Value{obj, dog}); got[0] != true {
		t.Fatalf("dog instance is not a Dog instance")
	}

	speak := CallGo(obj.Get("speak"), nil)
	if speak[0] != "woof" {
		t.Fatalf("obj.speak() = %v, want woof (override should win over parent)", speak[0])
	}
}

func TestClassOperatorMetamethodCopiedOntoInstance(t *testing.T) {
	class := NewTable()
	class.RawSet("init", GoFunc(func(args []Value) []Value {
		args[0].(*Table).Set("n", args[1])
		return nil
	}))
	class.RawSet("__add", GoFunc(func(args []Value) []Value {
		a := args[0].(*Table)
		b := args[1].(*Table)
		an, _ := ToInt(a.Get("n"))
		bn, _ := ToInt(b.Get("n"))
		return []Value{an + bn}
	}))
	cangjieSetupClass([]Value{class})

	r1 := CallGo(class, []Value{int64(2)})
	r2 := CallGo(class, []Value{int64(5)})
	obj1 := r1[0].(*Table)
	obj2 := r2[0].(*Table)

	meta := obj1.Meta()
	if meta == nil {
		t.Fatalf("instance has no metatable")
	}
	addFn := meta.RawGet("__add")
	if addFn == nil {
		t.Fatalf("instance metatable missing __add")
	}
	out := CallGo(addFn, []Value{obj1, obj2})
	if out[0] != int64(7) {
		t.Fatalf("obj1 + obj2 = %v, want 7", out[0])
	}
}

func TestCangjieIsInstancePrimitiveBridges(t *testing.T) {
	if got := cangjieIsInstance([]Value{int64(1), Int64Bridge}); got[0] != true {
		t.Fatalf("int64 should be an Int64Bridge instance")
	}
	if got := cangjieIsInstance([]Value{"hi", StringBridge}); got[0] != true {
		t.Fatalf("string should be a StringBridge instance")
	}
	if got := cangjieIsInstance([]Value{"hi", Int64Bridge}); got[0] != false {
		t.Fatalf("string should not be an Int64Bridge instance")
	}
}

func TestCangjieSetupEnumFreezesNullaryVariants(t *testing.T) {
	enum := NewTable()
	unit := NewTable()
	unit.RawSet("__tag", "Unit")
	unit.RawSet("__nargs", int64(0))
	enum.RawSet("Unit", unit)

	cangjieSetupEnum([]Value{enum})

	if unit.Meta() == nil {
		t.Fatalf("nullary variant Unit was not given a dispatch/freeze metatable")
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic writing to a frozen enum variant")
			}
		}()
		unit.Set("x", int64(1))
	}()
}

func TestCangjieSetupEnumMethodDispatchOnNullaryVariant(t *testing.T) {
	enum := NewTable()
	unit := NewTable()
	unit.RawSet("__tag", "Red")
	unit.RawSet("__nargs", int64(0))
	enum.RawSet("Red", unit)
	enum.RawSet("name", GoFunc(func(args []Value) []Value {
		self := args[0].(*Table)
		tag, _ := self.RawGet("__tag").(string)
		return []Value{"color:" + tag}
	}))

	cangjieSetupEnum([]Value{enum})

	method := unit.Get("name")
	bm, ok := method.(*BoundMethod)
	if !ok {
		t.Fatalf("Red.name = %T, want *BoundMethod", method)
	}
	out := CallGo(bm, nil)
	if out[0] != "color:Red" {
		t.Fatalf("Red.name() = %v, want color:Red", out[0])
	}
}

func TestCangjieEnumAttachWiresPayloadVariant(t *testing.T) {
	enum := NewTable()
	enum.RawSet("area", GoFunc(func(args []Value) []Value {
		self := args[0].(*Table)
		r, _ := ToInt(self.RawGet(int64(1)))
		return []Value{r * r}
	}))
	enum.RawSet("__add", GoFunc(func(args []Value) []Value {
		a := args[0].(*Table)
		b := args[1].(*Table)
		ar, _ := ToInt(a.RawGet(int64(1)))
		br, _ := ToInt(b.RawGet(int64(1)))
		return []Value{ar + br}
	}))
	cangjieSetupEnum([]Value{enum})

	circle := NewTable()
	circle.RawSet("__tag", "Circle")
	circle.RawSet("__nargs", int64(1))
	circle.RawSet(int64(1), int64(5))
	cangjieEnumAttach([]Value{circle, enum})

	area := CallGo(circle.Get("area"), nil)
	if area[0] != int64(25) {
		t.Fatalf("Circle(5).area() = %v, want 25", area[0])
	}

	other := NewTable()
	other.RawSet("__tag", "Circle")
	other.RawSet(int64(1), int64(3))
	cangjieEnumAttach([]Value{other, enum})

	sum := CallGo(circle.Meta().RawGet("__add"), []Value{circle, other})
	if sum[0] != int64(8) {
		t.Fatalf("Circle(5) + Circle(3) = %v, want 8", sum[0])
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic writing to a frozen payload variant")
			}
		}()
		circle.Set("radius", int64(9))
	}()
}

func TestCangjieMatchTagAndTuple(t *testing.T) {
	tagged := NewTable()
	tagged.RawSet("__tag", "Circle")
	if got := cangjieMatchTag([]Value{tagged, "Circle"}); got[0] != true {
		t.Fatalf("expected match_tag(Circle, Circle) = true")
	}
	if got := cangjieMatchTag([]Value{tagged, "Square"}); got[0] != false {
		t.Fatalf("expected match_tag(Circle, Square) = false")
	}

	tup := cangjieTuple([]Value{int64(1), int64(2)})[0]
	if got := cangjieMatchTuple([]Value{tup, int64(2)}); got[0] != true {
		t.Fatalf("expected match_tuple(pair, 2) = true")
	}
	if got := cangjieMatchTuple([]Value{tup, int64(3)}); got[0] != false {
		t.Fatalf("expected match_tuple(pair, 3) = false")
	}
}

func TestArrayListBasicOperations(t *testing.T) {
	class := newArrayListClass()
	inst := CallGo(class, nil)[0]

	CallGo(inst.(*Table).Get("add"), []Value{int64(10)})
	CallGo(inst.(*Table).Get("add"), []Value{int64(20)})
	CallGo(inst.(*Table).Get("add"), []Value{int64(30)})

	size := CallGo(inst.(*Table).Get("size"), nil)
	if size[0] != int64(3) {
		t.Fatalf("size() = %v, want 3", size[0])
	}

	got := CallGo(inst.(*Table).Get("get"), []Value{int64(1)})
	if got[0] != int64(20) {
		t.Fatalf("get(1) = %v, want 20", got[0])
	}

	CallGo(inst.(*Table).Get("removeAt"), []Value{int64(0)})
	size = CallGo(inst.(*Table).Get("size"), nil)
	if size[0] != int64(2) {
		t.Fatalf("size() after removeAt = %v, want 2", size[0])
	}
	got = CallGo(inst.(*Table).Get("get"), []Value{int64(0)})
	if got[0] != int64(20) {
		t.Fatalf("get(0) after removeAt(0) = %v, want 20 (elements shift down)", got[0])
	}
}

func TestArrayStackPushPopOption(t *testing.T) {
	class := newArrayStackClass()
	inst := CallGo(class, nil)[0].(*Table)

	CallGo(inst.Get("push"), []Value{int64(1)})
	CallGo(inst.Get("push"), []Value{int64(2)})

	top := CallGo(inst.Get("pop"), nil)[0].(*Table)
	if optionIsSome(top)[0] != true {
		t.Fatalf("pop() on non-empty stack should be Some")
	}
	if optionGetOrThrow(top)[0] != int64(2) {
		t.Fatalf("pop() = %v, want Some(2)", optionGetOrThrow(top)[0])
	}

	CallGo(inst.Get("pop"), nil)
	empty := CallGo(inst.Get("pop"), nil)[0].(*Table)
	if optionIsNone(empty)[0] != true {
		t.Fatalf("pop() on empty stack should be None")
	}
}

func TestHashMapBasicOperations(t *testing.T) {
	class := newHashMapClass()
	inst := CallGo(class, nil)[0].(*Table)

	CallGo(inst.Get("set"), []Value{"a", int64(1)})
	CallGo(inst.Get("set"), []Value{"b", int64(2)})

	if size := CallGo(inst.Get("size"), nil); size[0] != int64(2) {
		t.Fatalf("size() = %v, want 2", size[0])
	}
	if contains := CallGo(inst.Get("contains"), []Value{"a"}); contains[0] != true {
		t.Fatalf("contains(a) = %v, want true", contains[0])
	}

	got := CallGo(inst.Get("get"), []Value{"a"})[0].(*Table)
	if optionGetOrThrow(got)[0] != int64(1) {
		t.Fatalf("get(a) = %v, want Some(1)", optionGetOrThrow(got)[0])
	}

	CallGo(inst.Get("remove"), []Value{"a"})
	if contains := CallGo(inst.Get("contains"), []Value{"a"}); contains[0] != false {
		t.Fatalf("contains(a) after remove = %v, want false", contains[0])
	}
}

func TestHashSetBasicOperations(t *testing.T) {
	class := newHashSetClass()
	inst := CallGo(class, nil)[0].(*Table)

	CallGo(inst.Get("add"), []Value{"x"})
	CallGo(inst.Get("add"), []Value{"y"})
	CallGo(inst.Get("add"), []Value{"x"})

	if size := CallGo(inst.Get("size"), nil); size[0] != int64(2) {
		t.Fatalf("size() = %v, want 2 (duplicate add should not grow the set)", size[0])
	}
	if contains := CallGo(inst.Get("contains"), []Value{"x"}); contains[0] != true {
		t.Fatalf("contains(x) = %v, want true", contains[0])
	}

	removed := CallGo(inst.Get("remove"), []Value{"x"})
	if removed[0] != true {
		t.Fatalf("remove(x) = %v, want true", removed[0])
	}
	if contains := CallGo(inst.Get("contains"), []Value{"x"}); contains[0] != false {
		t.Fatalf("contains(x) after remove = %v, want false", contains[0])
	}
}

func TestOptionSomeNoneBasics(t *testing.T) {
	some := makeSome(int64(5))
	if optionIsSome(some)[0] != true {
		t.Fatalf("Some(5).isSome() should be true")
	}
	if optionIsNone(some)[0] != false {
		t.Fatalf("Some(5).isNone() should be false")
	}
	if got := optionGetOrThrow(some); got[0] != int64(5) {
		t.Fatalf("Some(5).getOrThrow() = %v, want 5", got[0])
	}

	none := makeNone()
	if optionIsNone(none)[0] != true {
		t.Fatalf("None.isNone() should be true")
	}
	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic from None.getOrThrow()")
			}
		}()
		optionGetOrThrow(none)
	}()
}

func TestOptionGetOrDefaultValueAndThunk(t *testing.T) {
	none := makeNone()
	if got := optionGetOrDefault(none, []Value{int64(9)}); got[0] != int64(9) {
		t.Fatalf("None.getOrDefault(9) = %v, want 9", got[0])
	}

	thunk := GoFunc(func([]Value) []Value { return []Value{int64(99)} })
	if got := optionGetOrDefault(none, []Value{thunk}); got[0] != int64(99) {
		t.Fatalf("None.getOrDefault(thunk) = %v, want 99 (thunk should be invoked)", got[0])
	}

	some := makeSome(int64(1))
	if got := optionGetOrDefault(some, []Value{int64(9)}); got[0] != int64(1) {
		t.Fatalf("Some(1).getOrDefault(9) = %v, want 1 (fallback ignored when present)", got[0])
	}
}

func TestOptionToString(t *testing.T) {
	if got := optionToString([]Value{makeSome(int64(3))}); got[0] != "Some(3)" {
		t.Fatalf("ToString(Some(3)) = %v, want Some(3)", got[0])
	}
	if got := optionToString([]Value{makeNone()}); got[0] != "None" {
		t.Fatalf("ToString(None) = %v, want None", got[0])
	}
}

func TestCangjieCoalesceOnOption(t *testing.T) {
	if got := cangjieCoalesce([]Value{makeNone(), int64(7)}); got[0] != int64(7) {
		t.Fatalf("coalesce(None, 7) = %v, want 7", got[0])
	}
	if got := cangjieCoalesce([]Value{makeSome(int64(2)), int64(7)}); got[0] != int64(2) {
		t.Fatalf("coalesce(Some(2), 7) = %v, want 2", got[0])
	}
	if got := cangjieCoalesce([]Value{nil, int64(7)}); got[0] != int64(7) {
		t.Fatalf("coalesce(nil, 7) = %v, want 7", got[0])
	}
}

func TestRangeInstantiationAndToString(t *testing.T) {
	exclusive := cangjieRange([]Value{int64(0), int64(5), int64(1), false})[0].(*Table)
	if got := rangeToString([]Value{exclusive})[0]; got != "0..5" {
		t.Fatalf("ToString(0..5) = %v, want 0..5", got)
	}

	inclusive := cangjieRange([]Value{int64(0), int64(5), int64(1), true})[0].(*Table)
	if got := rangeToString([]Value{inclusive})[0]; got != "0..=5" {
		t.Fatalf("ToString(0..=5) = %v, want 0..=5", got)
	}

	if _, ok := isRangeInstance(exclusive); !ok {
		t.Fatalf("expected exclusive range to be recognized as a Range instance")
	}
	if _, ok := isRangeInstance(NewTable()); ok {
		t.Fatalf("a plain table should not be recognized as a Range instance")
	}
}

func TestRangeIteratorExclusiveAndInclusive(t *testing.T) {
	exclusive := cangjieRange([]Value{int64(0), int64(3), int64(1), false})[0].(*Table)
	triple := rangeIterator(exclusive)
	iterFn := triple[0].(GoFunc)
	var got []int64
	for {
		v := iterFn(nil)[0]
		if v == nil {
			break
		}
		n, _ := ToInt(v)
		got = append(got, n)
	}
	want := []int64{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("exclusive range values = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("exclusive range values = %v, want %v", got, want)
		}
	}

	inclusive := cangjieRange([]Value{int64(0), int64(2), int64(1), true})[0].(*Table)
	triple = rangeIterator(inclusive)
	iterFn = triple[0].(GoFunc)
	got = nil
	for {
		v := iterFn(nil)[0]
		if v == nil {
			break
		}
		n, _ := ToInt(v)
		got = append(got, n)
	}
	want = []int64{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("inclusive range values = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("inclusive range values = %v, want %v", got, want)
		}
	}
}

func TestNewArrayAndTupleHelpers(t *testing.T) {
	arr := NewArray([]Value{int64(1), int64(2), int64(3)})
	if got := arr.Len(); got != 3 {
		t.Fatalf("array Len() = %d, want 3", got)
	}
	if got := arr.RawGet(int64(0)); got != int64(1) {
		t.Fatalf("array[0] = %v, want 1", got)
	}

	tup := cangjieTuple([]Value{int64(1), "two"})[0].(*Table)
	if got := tup.RawGet("__tuple"); got != true {
		t.Fatalf("tuple __tuple flag = %v, want true", got)
	}
	if got := tup.RawGet("size"); got != int64(2) {
		t.Fatalf("tuple size = %v, want 2", got)
	}
}

func TestCangjieArraySliceStringsAndArrays(t *testing.T) {
	out := cangjieArraySlice([]Value{"hello", int64(1), int64(3), false})
	if out[0] != "el" {
		t.Fatalf("slice(hello, 1, 3, excl) = %v, want el", out[0])
	}

	arr := NewArray([]Value{int64(10), int64(20), int64(30), int64(40)})
	sliced := cangjieArraySlice([]Value{arr, int64(1), int64(2), true})[0].(*Table)
	if got := sliced.Len(); got != 2 {
		t.Fatalf("sliced array len = %d, want 2", got)
	}
	if got := sliced.RawGet(int64(0)); got != int64(20) {
		t.Fatalf("sliced array[0] = %v, want 20", got)
	}
	if got := sliced.RawGet(int64(1)); got != int64(30) {
		t.Fatalf("sliced array[1] = %v, want 30", got)
	}
}

func TestToStringToNumberToIntEquals(t *testing.T) {
	if got := ToString(int64(42)); got != "42" {
		t.Fatalf("ToString(42) = %v, want 42", got)
	}
	if got := ToString(true); got != "true" {
		t.Fatalf("ToString(true) = %v, want true", got)
	}
	if got := ToString(nil); got != "nil" {
		t.Fatalf("ToString(nil) = %v, want nil", got)
	}

	if f, ok := ToNumber("3.5"); !ok || f != 3.5 {
		t.Fatalf("ToNumber(\"3.5\") = (%v, %v), want (3.5, true)", f, ok)
	}
	if _, ok := ToNumber("not a number"); ok {
		t.Fatalf("ToNumber(\"not a number\") should fail")
	}

	if i, ok := ToInt(int64(7)); !ok || i != 7 {
		t.Fatalf("ToInt(7) = (%v, %v), want (7, true)", i, ok)
	}
	if i, ok := ToInt(float64(7.9)); !ok || i != 7 {
		t.Fatalf("ToInt(7.9) = (%v, %v), want (7, true) (truncates)", i, ok)
	}

	if !Equals(int64(1), float64(1.0)) {
		t.Fatalf("Equals(1, 1.0) should be true across int/float")
	}
	if Equals(NewTable(), NewTable()) {
		t.Fatalf("Equals on two distinct tables without __eq should be false")
	}
}

func TestTypeName(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{nil, "nil"},
		{true, "boolean"},
		{int64(1), "number"},
		{float64(1), "number"},
		{"s", "string"},
		{NewTable(), "table"},
		{GoFunc(func([]Value) []Value { return nil }), "function"},
	}
	for _, c := range cases {
		if got := TypeName(c.v); got != c.want {
			t.Fatalf("TypeName(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestBinMetaDispatchesToTableOperandMetamethod(t *testing.T) {
	meta := NewTable()
	meta.RawSet("__add", GoFunc(func(args []Value) []Value {
		a := args[0].(*Table)
		b := args[1].(*Table)
		av, _ := ToInt(a.RawGet("v"))
		bv, _ := ToInt(b.RawGet("v"))
		return []Value{av + bv}
	}))
	x := NewTable()
	x.RawSet("v", int64(3))
	x.SetMeta(meta)
	y := NewTable()
	y.RawSet("v", int64(4))

	sum, ok := BinMeta("__add", x, y)
	if !ok || sum != int64(7) {
		t.Fatalf("BinMeta(__add, x, y) = (%v, %v), want (7, true)", sum, ok)
	}

	if _, ok := BinMeta("__sub", x, y); ok {
		t.Fatalf("BinMeta(__sub, ...) should miss when no __sub is declared")
	}
}

func TestUnMetaDispatchesToTableMetamethod(t *testing.T) {
	meta := NewTable()
	meta.RawSet("__unm", GoFunc(func(args []Value) []Value {
		self := args[0].(*Table)
		v, _ := ToInt(self.RawGet("v"))
		return []Value{-v}
	}))
	x := NewTable()
	x.RawSet("v", int64(5))
	x.SetMeta(meta)

	neg, ok := UnMeta("__unm", x)
	if !ok || neg != int64(-5) {
		t.Fatalf("UnMeta(__unm, x) = (%v, %v), want (-5, true)", neg, ok)
	}

	if _, ok := UnMeta("__unm", int64(5)); ok {
		t.Fatalf("UnMeta on a non-table value should miss")
	}
}
