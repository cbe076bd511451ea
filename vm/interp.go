package vm

import (
	"fmt"

	"github.com/cjscript/cjc/bytecode"
	"github.com/cjscript/cjc/runtime"
)

// execute runs f's instruction stream to its OpReturn, implementing every
// opcode bytecode.Op enumerates.
// pc is always advanced past the current instruction before the opcode's
// own effect runs, matching how compiler/control.go's PatchJump computes
// offsets (target - pc - 1, assuming the jump's own pc already points past
// itself when the offset is applied).
func execute(f *frame) ([]runtime.Value, error) {
	code := f.proto.Code
	regs := f.regs

	for {
		in := code[f.pc]
		f.pc++

		switch in.Op {
		case bytecode.OpMove:
			*regs[in.A] = *regs[in.B]

		case bytecode.OpLoadK:
			*regs[in.A] = constValue(f.proto.Constants[in.B])

		case bytecode.OpLoadNil:
			for i := in.A; i <= in.A+in.B; i++ {
				*regs[i] = nil
			}

		case bytecode.OpLoadBool:
			*regs[in.A] = in.B != 0
			if in.C != 0 {
				f.pc++
			}

		case bytecode.OpLoadInt:
			*regs[in.A] = int64(in.B)

		case bytecode.OpGetUpval:
			*regs[in.A] = *f.closure.Upvals[in.B]

		case bytecode.OpSetUpval:
			*f.closure.Upvals[in.B] = *regs[in.A]

		case bytecode.OpGetTabUp:
			env := *f.closure.Upvals[in.B]
			*regs[in.A] = getIndex(env, constValue(f.proto.Constants[in.C]))

		case bytecode.OpSetTabUp:
			env := *f.closure.Upvals[in.A]
			setIndex(env, constValue(f.proto.Constants[in.B]), *regs[in.C])

		case bytecode.OpNewTable:
			*regs[in.A] = runtime.NewTable()

		case bytecode.OpGetTable:
			*regs[in.A] = getIndex(*regs[in.B], *regs[in.C])

		case bytecode.OpSetTable:
			setIndex(*regs[in.A], *regs[in.B], *regs[in.C])

		case bytecode.OpGetField:
			*regs[in.A] = getIndex(*regs[in.B], constValue(f.proto.Constants[in.C]))

		case bytecode.OpSetField:
			setIndex(*regs[in.A], constValue(f.proto.Constants[in.B]), *regs[in.C])

		case bytecode.OpGetIndexI:
			t := asTable(*regs[in.B])
			*regs[in.A] = t.RawGet(int64(in.C))

		case bytecode.OpSetIndexI:
			t := asTable(*regs[in.A])
			t.RawSet(int64(in.B), *regs[in.C])

		case bytecode.OpSetList:
			t := asTable(*regs[in.A])
			for i := 0; i < in.B; i++ {
				t.RawSet(int64(in.C+i), *regs[in.A+1+i])
			}

		case bytecode.OpSelf:
			obj := *regs[in.B]
			*regs[in.A+1] = obj
			*regs[in.A] = selfMethod(obj, constValue(f.proto.Constants[in.C]))

		case bytecode.OpAdd:
			*regs[in.A] = arith('+', *regs[in.B], *regs[in.C])
		case bytecode.OpSub:
			*regs[in.A] = arith('-', *regs[in.B], *regs[in.C])
		case bytecode.OpMul:
			*regs[in.A] = arith('*', *regs[in.B], *regs[in.C])
		case bytecode.OpDiv:
			*regs[in.A] = arith('/', *regs[in.B], *regs[in.C])
		case bytecode.OpIDiv:
			*regs[in.A] = arith('\\', *regs[in.B], *regs[in.C])
		case bytecode.OpMod:
			*regs[in.A] = arith('%', *regs[in.B], *regs[in.C])
		case bytecode.OpPow:
			*regs[in.A] = arith('^', *regs[in.B], *regs[in.C])

		case bytecode.OpBAnd:
			*regs[in.A] = bitBin("__band", "band", *regs[in.B], *regs[in.C], func(ai, bi int64) int64 { return ai & bi })
		case bytecode.OpBOr:
			*regs[in.A] = bitBin("__bor", "bor", *regs[in.B], *regs[in.C], func(ai, bi int64) int64 { return ai | bi })
		case bytecode.OpBXor:
			*regs[in.A] = bitBin("__bxor", "bxor", *regs[in.B], *regs[in.C], func(ai, bi int64) int64 { return ai ^ bi })
		case bytecode.OpShl:
			*regs[in.A] = bitBin("__shl", "shl", *regs[in.B], *regs[in.C], func(ai, bi int64) int64 { return ai << uint(bi) })
		case bytecode.OpShr:
			*regs[in.A] = bitBin("__shr", "shr", *regs[in.B], *regs[in.C], func(ai, bi int64) int64 { return int64(uint64(ai) >> uint(bi)) })

		case bytecode.OpUnm:
			*regs[in.A] = unm(*regs[in.B])
		case bytecode.OpBNot:
			*regs[in.A] = bnot(*regs[in.B])
		case bytecode.OpNot:
			*regs[in.A] = !runtime.Truthy(*regs[in.B])
		case bytecode.OpLen:
			*regs[in.A] = length(*regs[in.B])
		case bytecode.OpConcat:
			*regs[in.A] = concat(*regs[in.B], *regs[in.C])

		case bytecode.OpEq:
			cond := runtime.Equals(*regs[in.A], *regs[in.B])
			if cond != (in.C != 0) {
				f.pc++
			}
		case bytecode.OpLt:
			cond := less(*regs[in.A], *regs[in.B], false)
			if cond != (in.C != 0) {
				f.pc++
			}
		case bytecode.OpLe:
			cond := less(*regs[in.A], *regs[in.B], true)
			if cond != (in.C != 0) {
				f.pc++
			}
		case bytecode.OpTest:
			if runtime.Truthy(*regs[in.A]) != (in.C != 0) {
				f.pc++
			}

		case bytecode.OpJmp:
			f.pc += in.C

		case bytecode.OpCall:
			nargs := in.B - 1
			nres := in.C - 1
			args := valuesOf(regs[in.A+1 : in.A+1+nargs])
			results := callValue(*regs[in.A], args)
			storeResults(regs, in.A, nres, results)

		case bytecode.OpTailCall:
			nargs := in.B - 1
			args := valuesOf(regs[in.A+1 : in.A+1+nargs])
			return callValue(*regs[in.A], args), nil

		case bytecode.OpReturn:
			nres := in.B - 1
			out := make([]runtime.Value, nres)
			for i := 0; i < nres; i++ {
				out[i] = *regs[in.A+i]
			}
			return out, nil

		case bytecode.OpClosure:
			*regs[in.A] = makeClosure(f, f.proto.Protos[in.B])

		case bytecode.OpVararg:
			n := in.B - 1
			if in.B == 0 {
				n = len(f.varargs)
			}
			for i := 0; i < n; i++ {
				if i < len(f.varargs) {
					*regs[in.A+i] = f.varargs[i]
				} else {
					*regs[in.A+i] = nil
				}
			}

		case bytecode.OpForPrep:
			if forPrepOutOfRange(*regs[in.A], *regs[in.A+1], *regs[in.A+2]) {
				f.pc += in.C
			}

		case bytecode.OpForLoop:
			if forLoopStillInRange(regs, in.A) {
				f.pc += in.C
			}

		case bytecode.OpTForCall:
			fn := *regs[in.A]
			args := []runtime.Value{*regs[in.A+1], *regs[in.A+2]}
			results := callValue(fn, args)
			for i := 0; i < in.B; i++ {
				if i < len(results) {
					*regs[in.A+3+i] = results[i]
				} else {
					*regs[in.A+3+i] = nil
				}
			}

		case bytecode.OpTForLoop:
			if *regs[in.A+3] != nil {
				*regs[in.A+2] = *regs[in.A+3]
				f.pc += in.C
			}

		case bytecode.OpClose, bytecode.OpTBC:
			// No-ops: the compiler never emits either (every OpJmp it emits
			// carries A=0, so upvalues are never closed early), and every
			// register is already its own heap cell (see frame's doc
			// comment), so there is nothing to sever or schedule here.

		default:
			panic(fmt.Sprintf("vm: unimplemented opcode %s", in.Op))
		}
	}
}

func constValue(c bytecode.Const) runtime.Value {
	switch c.Kind {
	case bytecode.ConstNil:
		return nil
	case bytecode.ConstBool:
		return c.Bool
	case bytecode.ConstInt:
		return c.Int
	case bytecode.ConstFloat:
		return c.Flt
	case bytecode.ConstString:
		return c.Str
	}
	return nil
}

func asTable(v runtime.Value) *runtime.Table {
	t, ok := v.(*runtime.Table)
	if !ok {
		panic("attempt to index a " + runtime.TypeName(v) + " value")
	}
	return t
}

func valuesOf(cells []*runtime.Value) []runtime.Value {
	out := make([]runtime.Value, len(cells))
	for i, c := range cells {
		out[i] = *c
	}
	return out
}

func storeResults(regs []*runtime.Value, base, nres int, results []runtime.Value) {
	for i := 0; i < nres; i++ {
		if i < len(results) {
			*regs[base+i] = results[i]
		} else {
			*regs[base+i] = nil
		}
	}
}

// makeClosure instantiates proto, a nested prototype of f's own, capturing
// each declared upvalue either from f's live register window (InStack) or
// by chaining through f's own closure's upvalues.
func makeClosure(f *frame, proto *bytecode.Prototype) *runtime.Closure {
	upvals := make([]*runtime.Value, len(proto.Upvalues))
	for i, uv := range proto.Upvalues {
		if uv.InStack {
			upvals[i] = f.regs[uv.Index]
		} else {
			upvals[i] = f.closure.Upvals[uv.Index]
		}
	}
	return &runtime.Closure{Proto: proto, Upvals: upvals}
}
