package compiler

import (
	"github.com/cjscript/cjc/bytecode"
	"github.com/cjscript/cjc/token"
)

// priority is a (left, right) binding-power pair; subexpr recurses with
// the operator's right priority, so right-associative operators (`^`)
// pass a right priority lower than their own left priority.
type priority struct{ left, right int }

var binPriority = map[token.Kind]priority{
	token.CARET: {14, 13}, token.POW: {14, 13},
	token.STAR: {11, 11}, token.SLASH: {11, 11}, token.IDIV: {11, 11}, token.PERCENT: {11, 11},
	token.PLUS: {10, 10}, token.MINUS: {10, 10},
	// `..` (RANGE_EXCL) as binary concat is handled via concatPriority below,
	// not through this map, since the same token also introduces range
	// literals in `for`/slice contexts.
	token.SHL: {7, 7}, token.SHR: {7, 7},
	token.AMP:  {6, 6},
	token.TILDE: {5, 5},
	token.PIPE: {4, 4},
	token.EQ: {3, 3}, token.NE: {3, 3}, token.LT: {3, 3}, token.LE: {3, 3}, token.GT: {3, 3}, token.GE: {3, 3},
	token.AND: {2, 2},
	token.OR:  {1, 1},
}

const unaryPriority = 12

// concatPriority is `..` used as the binary concatenation operator; it is
// looked up specially because RANGE_EXCL (`..`) is ambiguous with the
// range-literal use inside `for`/slice contexts. subexpr always treats it
// as concat; the `for (x in a..b)` and `a[s..e]` parsers read their start
// expression with subexpr(concatPriority.left), which stops before `..`.
var concatPriority = priority{9, 8}

func isBinOp(k token.Kind) bool {
	_, ok := binPriority[k]
	return ok || k == token.RANGE_EXCL
}

// expr parses a full expression: operator-precedence climbing followed by
// a greedy chain of `??` coalesce steps wrapped around subexpr(0).
func (c *Compiler) expr() int {
	reg := c.subexpr(0)
	for c.check(token.COALESCE) {
		c.next()
		rhs := c.subexpr(0)
		dst := c.fs.reserveReg(1)
		c.emitRuntimeCall2("__cangjie_coalesce", reg, rhs, dst)
		reg = dst
	}
	return reg
}

// subexpr implements the single recursive climbing routine: read a
// unary/primary term, then consume binary operators whose left priority
// exceeds limit, recursing with the operator's right
// priority.
func (c *Compiler) subexpr(limit int) int {
	var left int
	if isUnaryOp(c.cur.Kind) {
		op := c.next().Kind
		line := c.cur.Line
		operand := c.subexpr(unaryPriority)
		dst := c.fs.reserveReg(1)
		c.emitUnary(op, operand, dst, line)
		left = dst
	} else {
		left = c.simpleExp()
	}

	for {
		var p priority
		var ok bool
		op := c.cur.Kind
		if op == token.RANGE_EXCL {
			p, ok = concatPriority, true
		} else {
			p, ok = binPriority[op]
		}
		if !ok || p.left <= limit {
			break
		}
		line := c.cur.Line
		c.next()
		if op == token.AND || op == token.OR {
			left = c.emitShortCircuit(op, left, p.right, line)
			continue
		}
		right := c.subexpr(p.right)
		dst := c.fs.reserveReg(1)
		c.emitBinary(op, left, right, dst, line)
		left = dst
	}
	return left
}

func isUnaryOp(k token.Kind) bool {
	switch k {
	case token.MINUS, token.TILDE, token.BANG, token.HASH:
		return true
	}
	return false
}

func (c *Compiler) emitUnary(op token.Kind, operand, dst, line int) {
	var bop bytecode.Op
	switch op {
	case token.MINUS:
		bop = bytecode.OpUnm
	case token.TILDE:
		bop = bytecode.OpBNot
	case token.BANG:
		bop = bytecode.OpNot
	case token.HASH:
		bop = bytecode.OpLen
	}
	c.fs.emit(bop, dst, operand, 0, line)
}

func (c *Compiler) emitBinary(op token.Kind, left, right, dst, line int) {
	var bop bytecode.Op
	switch op {
	case token.PLUS:
		bop = bytecode.OpAdd
	case token.MINUS:
		bop = bytecode.OpSub
	case token.STAR:
		bop = bytecode.OpMul
	case token.SLASH:
		bop = bytecode.OpDiv
	case token.IDIV:
		bop = bytecode.OpIDiv
	case token.PERCENT:
		bop = bytecode.OpMod
	case token.CARET, token.POW:
		bop = bytecode.OpPow
	case token.RANGE_EXCL:
		bop = bytecode.OpConcat
	case token.SHL:
		bop = bytecode.OpShl
	case token.SHR:
		bop = bytecode.OpShr
	case token.AMP:
		bop = bytecode.OpBAnd
	case token.TILDE:
		bop = bytecode.OpBXor
	case token.PIPE:
		bop = bytecode.OpBOr
	case token.EQ:
		c.emitCompareInto(bytecode.OpEq, left, right, dst, line)
		return
	case token.NE:
		c.emitCompareInto(bytecode.OpEq, left, right, dst, line)
		c.fs.emit(bytecode.OpNot, dst, dst, 0, line)
		return
	case token.LT:
		c.emitCompareInto(bytecode.OpLt, left, right, dst, line)
		return
	case token.LE:
		c.emitCompareInto(bytecode.OpLe, left, right, dst, line)
		return
	case token.GT:
		c.emitCompareInto(bytecode.OpLt, right, left, dst, line)
		return
	case token.GE:
		c.emitCompareInto(bytecode.OpLe, right, left, dst, line)
		return
	default:
		c.throw("unsupported binary operator")
	}
	c.fs.emit(bop, dst, left, right, line)
}

// emitCompareInto materializes a skip-style comparison opcode (EQ/LT/LE,
// which only skip-or-don't-skip the following instruction) into an actual
// Boolean value in dst, using the classic compare/jump/loadbool-true/
// loadbool-false shape.
func (c *Compiler) emitCompareInto(op bytecode.Op, a, b, dst, line int) {
	c.fs.emit(op, a, b, 0, line)
	jmp := c.fs.emit(bytecode.OpJmp, 0, 0, 0, line)
	c.fs.emit(bytecode.OpLoadBool, dst, 1, 1, line)
	falsePC := len(c.fs.proto.Code)
	c.fs.emit(bytecode.OpLoadBool, dst, 0, 0, line)
	c.fs.proto.PatchJump(jmp, falsePC)
}

// emitCompareToBool is emitCompareInto for callers that don't already have
// a destination register (match's constant patterns).
func (c *Compiler) emitCompareToBool(op bytecode.Op, a, b, line int) int {
	dst := c.fs.reserveReg(1)
	c.emitCompareInto(op, a, b, dst, line)
	return dst
}

// emitShortCircuit compiles `&&`/`||`: left is already evaluated; this
// emits TEST+JMP over the right-hand operand's evaluation so that side
// effects in the untaken branch never run.
// For `&&`, a falsy left short-circuits to left itself; for `||`, a truthy
// left short-circuits to left itself — both without evaluating right.
func (c *Compiler) emitShortCircuit(op token.Kind, left int, rightLimit int, line int) int {
	dst := c.fs.reserveReg(1)
	c.fs.emit(bytecode.OpMove, dst, left, 0, line)
	wantTrueToSkip := 0
	if op == token.OR {
		wantTrueToSkip = 1
	}
	c.fs.emit(bytecode.OpTest, dst, 0, wantTrueToSkip, line)
	jmp := c.fs.emit(bytecode.OpJmp, 0, 0, 0, line)
	right := c.subexpr(rightLimit)
	c.fs.emit(bytecode.OpMove, dst, right, 0, line)
	c.fs.proto.PatchJump(jmp, len(c.fs.proto.Code))
	return dst
}

// emitRuntimeCall2 emits a call to a two-argument runtime helper
//, leaving its single result in dst. Helpers are resolved
// through _ENV like any other global function.
func (c *Compiler) emitRuntimeCall2(name string, a, b, dst int) {
	line := c.cur.Line
	fs := c.fs
	base := fs.reserveReg(3)
	c.loadGlobal(name, base, line)
	fs.emit(bytecode.OpMove, base+1, a, 0, line)
	fs.emit(bytecode.OpMove, base+2, b, 0, line)
	fs.emit(bytecode.OpCall, base, 3, 2, line)
	fs.emit(bytecode.OpMove, dst, base, 0, line)
}

// loadGlobal emits `_ENV[name]` into dst.
func (c *Compiler) loadGlobal(name string, dst, line int) {
	k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: name})
	env := c.fs.envUpval()
	c.fs.emit(bytecode.OpGetTabUp, dst, env, k, line)
}
