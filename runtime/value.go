// Package runtime implements the value model and the `__cangjie_*` helper
// catalog the compiler emits calls against: tables,
// closures, the class/enum machinery, type bridges, and collections. It
// stands in for the production Lua runtime's value representation the way
// package vm stands in for its register machine.
package runtime

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cjscript/cjc/bytecode"
)

// Value is any Cangjie-on-Lua runtime value: nil, bool, int64, float64,
// string, *Table, *Closure, or GoFunc.
type Value interface{}

// GoFunc is a native helper's calling convention: a fixed argument slice in,
// a fixed result slice out.
type GoFunc func(args []Value) []Value

// Closure pairs a compiled Prototype with its captured upvalue cells.
type Closure struct {
	Proto  *bytecode.Prototype
	Upvals []*Value
}

// CallClosure executes a closure's bytecode. Set by package vm's init to
// break the import cycle (runtime helpers like __cangjie_overload need to
// invoke user closures, but only vm can execute bytecode.Prototype code).
var CallClosure func(cl *Closure, args []Value) ([]Value, error)

// BoundMethod captures a receiver alongside a closure or native function,
// implementing method-call-as-value.
type BoundMethod struct {
	Receiver Value
	Fn       Value // *Closure or GoFunc
}

// UnwrapBoundMethod extracts the underlying callable from a BoundMethod.
// Package vm's OpSelf handler needs this: OpSelf's own A+1 slot already
// preps the receiver positionally, so calling through the Index/Get path's
// BoundMethod wrapper on top of that would pass the receiver twice. A
// detached method reference (`let f = obj.method`, no immediate call)
// keeps the BoundMethod as-is, so a later plain OpCall on f still carries
// its receiver via CallGo.
func UnwrapBoundMethod(v Value) Value {
	if bm, ok := v.(*BoundMethod); ok {
		return bm.Fn
	}
	return v
}

// Table is the one composite value kind: a hash-addressed map plus an
// optional metatable, used uniformly for arrays, tuples, objects, classes,
// and enums.
type Table struct {
	hash map[Value]Value
	meta *Table
	keys []Value // insertion order, for deterministic iteration
}

func NewTable() *Table {
	return &Table{hash: make(map[Value]Value)}
}

func (t *Table) Meta() *Table     { return t.meta }
func (t *Table) SetMeta(m *Table) { t.meta = m }

// normKey canonicalizes numeric keys the way Lua does: a float with no
// fractional part addresses the same slot as the equal integer.
func normKey(k Value) Value {
	if f, ok := k.(float64); ok {
		if i := int64(f); float64(i) == f {
			return i
		}
	}
	return k
}

// RawGet/RawSet bypass metamethods, for the runtime's own bookkeeping
// (class tables, enum tags) where __index/__newindex must not interfere.
func (t *Table) RawGet(k Value) Value {
	return t.hash[normKey(k)]
}

func (t *Table) RawSet(k, v Value) {
	k = normKey(k)
	if _, exists := t.hash[k]; !exists {
		if v == nil {
			return
		}
		t.keys = append(t.keys, k)
	}
	if v == nil {
		delete(t.hash, k)
		t.removeKey(k)
		return
	}
	t.hash[k] = v
}

func (t *Table) removeKey(k Value) {
	for i, existing := range t.keys {
		if existing == k {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			return
		}
	}
}

// Get reads t[k], following __index when the raw slot is empty.
func (t *Table) Get(k Value) Value {
	if v := t.RawGet(k); v != nil {
		return v
	}
	if t.meta == nil {
		return nil
	}
	idx := t.meta.RawGet("__index")
	switch h := idx.(type) {
	case nil:
		return nil
	case *Table:
		return h.Get(k)
	case *Closure, GoFunc:
		res := CallGo(h, []Value{t, k})
		if len(res) > 0 {
			return res[0]
		}
		return nil
	}
	return nil
}

// Set writes t[k]=v, honoring __newindex only when the raw slot is absent.
func (t *Table) Set(k, v Value) {
	if t.RawGet(k) == nil && t.meta != nil {
		if ni := t.meta.RawGet("__newindex"); ni != nil {
			switch h := ni.(type) {
			case *Table:
				h.Set(k, v)
				return
			case *Closure, GoFunc:
				CallGo(h, []Value{t, k, v})
				return
			}
		}
	}
	t.RawSet(k, v)
}

// Len returns the table's array-style length via __n when present,
// otherwise the number of keys.
func (t *Table) Len() int64 {
	if n := t.RawGet("__n"); n != nil {
		if i, ok := n.(int64); ok {
			return i
		}
	}
	return int64(len(t.keys))
}

// Keys returns keys in insertion order, for deterministic iteration.
func (t *Table) Keys() []Value {
	out := make([]Value, len(t.keys))
	copy(out, t.keys)
	return out
}

// CallGo invokes a *Closure or GoFunc uniformly, panicking with a runtime
// error on anything else.
func CallGo(fn Value, args []Value) []Value {
	switch f := fn.(type) {
	case GoFunc:
		return f(args)
	case *Closure:
		if CallClosure == nil {
			panic("runtime: no VM registered to execute closures")
		}
		res, err := CallClosure(f, args)
		if err != nil {
			panic(err.Error())
		}
		return res
	case *BoundMethod:
		return CallGo(f.Fn, append([]Value{f.Receiver}, args...))
	case *Table:
		if f.meta != nil {
			if call := f.meta.RawGet("__call"); call != nil {
				return CallGo(call, append([]Value{f}, args...))
			}
		}
		panic(fmt.Sprintf("attempt to call a %s value", TypeName(fn)))
	default:
		panic(fmt.Sprintf("attempt to call a %s value", TypeName(fn)))
	}
}

// Truthy implements Lua's truthiness rule: everything but nil and false is
// truthy.
func Truthy(v Value) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

func TypeName(v Value) string {
	switch v.(type) {
	case nil:
		return "nil"
	case bool:
		return "boolean"
	case int64:
		return "number"
	case float64:
		return "number"
	case string:
		return "string"
	case *Table:
		return "table"
	case *Closure, GoFunc, *BoundMethod:
		return "function"
	}
	return "userdata"
}

// ToString renders v for string concatenation and toString() calls,
// consulting __tostring when present.
func ToString(v Value) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if math.IsInf(x, 1) {
			return "inf"
		}
		if math.IsInf(x, -1) {
			return "-inf"
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	case *Table:
		if x.meta != nil {
			if ts := x.meta.RawGet("__tostring"); ts != nil {
				res := CallGo(ts, []Value{x})
				if len(res) > 0 {
					if s, ok := res[0].(string); ok {
						return s
					}
				}
			}
		}
		if ik := sortedIntKeys(x); len(ik) > 0 && int64(len(ik)) == x.Len() {
			var b strings.Builder
			b.WriteByte('[')
			for i, k := range ik {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(ToString(x.RawGet(k)))
			}
			b.WriteByte(']')
			return b.String()
		}
		return fmt.Sprintf("table: %p", x)
	case *Closure:
		return fmt.Sprintf("function: %p", x)
	case GoFunc:
		return "function: builtin"
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", v)
}

// ToNumber coerces a value to a float64 for arithmetic, the way the Lua
// string-to-number coercion rule does for operator dispatch.
func ToNumber(v Value) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func ToInt(v Value) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case float64:
		return int64(x), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// Equals implements Lua-style equality: numbers compare across int/float,
// tables compare by identity unless __eq is present.
func Equals(a, b Value) bool {
	if a == nil && b == nil {
		return true
	}
	af, aok := numeric(a)
	bf, bok := numeric(b)
	if aok && bok {
		return af == bf
	}
	if at, ok := a.(*Table); ok {
		if bt, ok := b.(*Table); ok {
			if at == bt {
				return true
			}
			if at.meta != nil {
				if eq := at.meta.RawGet("__eq"); eq != nil {
					res := CallGo(eq, []Value{at, bt})
					return len(res) > 0 && Truthy(res[0])
				}
			}
			return false
		}
		return false
	}
	return a == b
}

// BinMeta looks up metamethod name on a's metatable, then b's, calling it
// with (a, b) when found — the shared fallback every binary operator
// (arithmetic, bitwise, comparison, concat) reaches for once its fast
// built-in-type path misses, the same way Equals already does for __eq.
func BinMeta(name string, a, b Value) (Value, bool) {
	if at, ok := a.(*Table); ok && at.meta != nil {
		if h := at.meta.RawGet(name); h != nil {
			res := CallGo(h, []Value{a, b})
			if len(res) > 0 {
				return res[0], true
			}
			return nil, true
		}
	}
	if bt, ok := b.(*Table); ok && bt.meta != nil {
		if h := bt.meta.RawGet(name); h != nil {
			res := CallGo(h, []Value{a, b})
			if len(res) > 0 {
				return res[0], true
			}
			return nil, true
		}
	}
	return nil, false
}

// UnMeta is BinMeta's unary counterpart, for __unm/__len.
func UnMeta(name string, v Value) (Value, bool) {
	t, ok := v.(*Table)
	if !ok || t.meta == nil {
		return nil, false
	}
	h := t.meta.RawGet(name)
	if h == nil {
		return nil, false
	}
	res := CallGo(h, []Value{v})
	if len(res) > 0 {
		return res[0], true
	}
	return nil, true
}

func numeric(v Value) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// sortedIntKeys is a small helper collections use to iterate array-shaped
// tables in index order rather than insertion order.
func sortedIntKeys(t *Table) []int64 {
	var out []int64
	for _, k := range t.keys {
		if i, ok := k.(int64); ok {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
