package vm

import (
	"fmt"
	"math"

	"github.com/cjscript/cjc/runtime"
)

// bothInt reports whether a and b are both int64, returning them, for the
// "stay int64 if both operands are int64, else widen to float64" rule
// arithmetic ops use.
func bothInt(a, b runtime.Value) (int64, int64, bool) {
	ai, aok := a.(int64)
	bi, bok := b.(int64)
	return ai, bi, aok && bok
}

func asFloat(v runtime.Value) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func arithError(op string, a, b runtime.Value) {
	panic(fmt.Sprintf("attempt to perform arithmetic (%s) on a %s value", op, runtime.TypeName(pickNonNumber(a, b))))
}

// arithMetaName maps an arith() opcode byte to the metamethod name
// `operator func` declarations store on a class/enum table, mirroring
// compiler/declarations.go's operatorTokenMeta.
func arithMetaName(op byte) string {
	switch op {
	case '+':
		return "__add"
	case '-':
		return "__sub"
	case '*':
		return "__mul"
	case '/':
		return "__div"
	case '\\':
		return "__idiv"
	case '%':
		return "__mod"
	case '^':
		return "__pow"
	}
	return ""
}

func pickNonNumber(a, b runtime.Value) runtime.Value {
	if _, ok := asFloat(a); !ok {
		return a
	}
	return b
}

func arith(op byte, a, b runtime.Value) runtime.Value {
	if ai, bi, ok := bothInt(a, b); ok && op != '/' && op != '^' {
		switch op {
		case '+':
			return ai + bi
		case '-':
			return ai - bi
		case '*':
			return ai * bi
		case '\\': // idiv
			if bi == 0 {
				panic("attempt to perform 'n // 0'")
			}
			return floorDivInt(ai, bi)
		case '%':
			if bi == 0 {
				panic("attempt to perform 'n %% 0'")
			}
			return ai - floorDivInt(ai, bi)*bi
		}
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		if v, ok := runtime.BinMeta(arithMetaName(op), a, b); ok {
			return v
		}
		arithError(string(op), a, b)
	}
	switch op {
	case '+':
		return af + bf
	case '-':
		return af - bf
	case '*':
		return af * bf
	case '/':
		return af / bf
	case '\\':
		return math.Floor(af / bf)
	case '%':
		return af - math.Floor(af/bf)*bf
	case '^':
		return math.Pow(af, bf)
	}
	panic("unreachable arithmetic operator")
}

func floorDivInt(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// bitBin implements a binary bitwise opcode: both operands coerce to
// int64 directly when possible, otherwise meta names the __band/__bor/...
// operator method a class/enum table may declare.
func bitBin(meta, what string, a, b runtime.Value, apply func(ai, bi int64) int64) int64 {
	ai, aok := runtime.ToInt(a)
	bi, bok := runtime.ToInt(b)
	if aok && bok {
		return apply(ai, bi)
	}
	if v, ok := runtime.BinMeta(meta, a, b); ok {
		if i, ok := runtime.ToInt(v); ok {
			return i
		}
	}
	bad := a
	if aok {
		bad = b
	}
	panic(fmt.Sprintf("attempt to perform bitwise operation (%s) on a %s value", what, runtime.TypeName(bad)))
}

func bnot(v runtime.Value) int64 {
	if i, ok := runtime.ToInt(v); ok {
		return ^i
	}
	if r, ok := runtime.UnMeta("__bnot", v); ok {
		if i, ok := runtime.ToInt(r); ok {
			return i
		}
	}
	panic("attempt to perform bitwise operation (bnot) on a " + runtime.TypeName(v) + " value")
}

// concat implements OpConcat: a __concat operator method takes priority
// over the default stringify-and-join when either operand declares one.
func concat(a, b runtime.Value) runtime.Value {
	if r, ok := runtime.BinMeta("__concat", a, b); ok {
		return r
	}
	return runtime.ToString(a) + runtime.ToString(b)
}

func unm(v runtime.Value) runtime.Value {
	switch x := v.(type) {
	case int64:
		return -x
	case float64:
		return -x
	}
	if r, ok := runtime.UnMeta("__unm", v); ok {
		return r
	}
	panic("attempt to perform arithmetic (unm) on a " + runtime.TypeName(v) + " value")
}

// length implements OpLen: a class/enum value's own __len member, set via
// `operator func #()`, takes priority over a table's built-in element
// count so a user-defined notion of size wins when declared.
func length(v runtime.Value) runtime.Value {
	if t, ok := v.(*runtime.Table); ok {
		if r, ok := runtime.UnMeta("__len", t); ok {
			return r
		}
		return t.Len()
	}
	if s, ok := v.(string); ok {
		return runtime.StringLen(s)
	}
	panic("attempt to get length of a " + runtime.TypeName(v) + " value")
}

// less implements OpLt/OpLe's comparison: numbers compare numerically,
// strings lexically, a class/enum with __lt/__le falls to its operator
// method; anything else raises.
func less(a, b runtime.Value, orEqual bool) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			if orEqual {
				return af <= bf
			}
			return af < bf
		}
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			if orEqual {
				return as <= bs
			}
			return as < bs
		}
	}
	name := "__lt"
	if orEqual {
		name = "__le"
	}
	if r, ok := runtime.BinMeta(name, a, b); ok {
		return runtime.Truthy(r)
	}
	panic(fmt.Sprintf("attempt to compare %s with %s", runtime.TypeName(a), runtime.TypeName(b)))
}
