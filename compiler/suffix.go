package compiler

import (
	"github.com/cjscript/cjc/bytecode"
	"github.com/cjscript/cjc/token"
)

// lvKind tags what an lvalue actually addresses.
type lvKind int

const (
	lvValue  lvKind = iota // an already-evaluated r-value register (not assignable)
	lvLocal                // a local variable's register
	lvUpval                // an upvalue slot
	lvGlobal               // _ENV[name]
	lvField                // obj[K(key)]
	lvIndex                // obj[R(key)]
	lvSlice                // obj[start..end] / obj[start..=end]
)

// lvalue is an assignment target discovered while walking a suffix chain:
// tagged union over local/upvalue/global/field/index/slice, each knowing
// how to read its current value and how to write a new one.
type lvalue struct {
	kind      lvKind
	reg       int // lvLocal/lvValue: the register itself
	base      int // lvField/lvIndex/lvSlice: the object register
	key       int // lvField: const index; lvIndex: key register
	upvalIdx  int
	start, end int
	inclusive bool
	name      string
	readOnly  bool
}

func (lv lvalue) load(c *Compiler, line int) int {
	switch lv.kind {
	case lvLocal, lvValue:
		return lv.reg
	case lvUpval:
		dst := c.fs.reserveReg(1)
		c.fs.emit(bytecode.OpGetUpval, dst, lv.upvalIdx, 0, line)
		return dst
	case lvGlobal:
		dst := c.fs.reserveReg(1)
		env := c.fs.envUpval()
		c.fs.emit(bytecode.OpGetTabUp, dst, env, lv.key, line)
		return dst
	case lvField:
		dst := c.fs.reserveReg(1)
		c.fs.emit(bytecode.OpGetField, dst, lv.base, lv.key, line)
		return dst
	case lvIndex:
		dst := c.fs.reserveReg(1)
		c.fs.emit(bytecode.OpGetTable, dst, lv.base, lv.key, line)
		return dst
	case lvSlice:
		incl := c.loadBoolConst(lv.inclusive, line)
		return c.emitRuntimeCallN("__cangjie_array_slice", []int{lv.base, lv.start, lv.end, incl}, 1, line)
	}
	return 0
}

func (lv lvalue) store(c *Compiler, val, line int) {
	switch lv.kind {
	case lvLocal:
		if lv.readOnly {
			c.throwAt(line, "attempt to assign to const variable '%s'", lv.name)
		}
		c.fs.emit(bytecode.OpMove, lv.reg, val, 0, line)
	case lvUpval:
		c.fs.emit(bytecode.OpSetUpval, val, lv.upvalIdx, 0, line)
	case lvGlobal:
		env := c.fs.envUpval()
		c.fs.emit(bytecode.OpSetTabUp, env, lv.key, val, line)
	case lvField:
		c.fs.emit(bytecode.OpSetField, lv.base, lv.key, val, line)
	case lvIndex:
		c.fs.emit(bytecode.OpSetTable, lv.base, lv.key, val, line)
	case lvSlice:
		incl := c.loadBoolConst(lv.inclusive, line)
		c.emitRuntimeCallN("__cangjie_array_slice_set", []int{lv.base, lv.start, lv.end, incl, val}, 0, line)
	default:
		c.throwAt(line, "cannot assign to this expression")
	}
}

// suffixedTarget parses a primary expression followed by only the suffix
// forms that can be assignment targets (`.name`, `[expr]`), leaving any
// call/colon-call suffix for exprStat's r-value fallback.
func (c *Compiler) suffixedTarget() lvalue {
	line := c.cur.Line
	var base lvalue
	if c.check(token.IDENT) {
		name := c.next().Str
		base = c.resolveTargetName(name, line)
	} else {
		base = lvalue{kind: lvValue, reg: c.primaryExp()}
	}
	return c.suffixChain(base, line)
}

func (c *Compiler) resolveTargetName(name string, line int) lvalue {
	if lv, ok := c.fs.findLocal(name); ok {
		return lvalue{kind: lvLocal, reg: lv.reg, name: name, readOnly: lv.kind == VarConst}
	}
	if idx, ok := c.fs.resolveUpval(name); ok {
		return lvalue{kind: lvUpval, upvalIdx: idx, name: name}
	}
	if c.inStructMethod && c.isThisField(name) {
		self := c.resolveName("self", line)
		k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: name})
		return lvalue{kind: lvField, base: self, key: k}
	}
	k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: name})
	return lvalue{kind: lvGlobal, key: k, name: name}
}

func (c *Compiler) suffixChain(base lvalue, line int) lvalue {
	cur := base
	for {
		switch c.cur.Kind {
		case token.DOT:
			c.next()
			name := c.expectIdent()
			objReg := cur.load(c, line)
			if name == "size" {
				dst := c.fs.reserveReg(1)
				k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: "__n"})
				c.fs.emit(bytecode.OpGetField, dst, objReg, k, line)
				cur = lvalue{kind: lvValue, reg: dst}
				continue
			}
			k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: name})
			cur = lvalue{kind: lvField, base: objReg, key: k}
		case token.LBRACKET:
			c.next()
			objReg := cur.load(c, line)
			first := c.subexpr(concatPriority.left)
			if c.check(token.RANGE_EXCL) || c.check(token.RANGE_INCL) {
				inclusive := c.next().Kind == token.RANGE_INCL
				endReg := c.expr()
				c.expectMatch(token.RBRACKET, token.LBRACKET, line)
				cur = lvalue{kind: lvSlice, base: objReg, start: first, end: endReg, inclusive: inclusive}
				continue
			}
			c.expectMatch(token.RBRACKET, token.LBRACKET, line)
			cur = lvalue{kind: lvIndex, base: objReg, key: first}
		default:
			return cur
		}
		line = c.cur.Line
	}
}

// suffixedExp chains the r-value-only suffix forms onto an already-
// evaluated register: field/method access, index/slice read, colon
// method calls, and same-line function calls. calleeLine is the source line of the expression reg was
// produced from, used for the "`(` must share the callee's line" rule.
func (c *Compiler) suffixedExp(reg int, calleeLine int) int {
	cur := reg
	line := calleeLine
	for {
		switch c.cur.Kind {
		case token.DOT:
			c.next()
			nameLine := c.cur.Line
			name := c.expectIdent()
			if name == "size" && !(c.check(token.LPAREN) && c.cur.Line == nameLine) {
				dst := c.fs.reserveReg(1)
				k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: "__n"})
				c.fs.emit(bytecode.OpGetField, dst, cur, k, nameLine)
				cur = dst
				line = nameLine
				continue
			}
			if c.check(token.LPAREN) && c.cur.Line == nameLine {
				cur = c.methodCall(cur, name, nameLine)
				line = nameLine
				continue
			}
			dst := c.fs.reserveReg(1)
			k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: name})
			c.fs.emit(bytecode.OpGetField, dst, cur, k, nameLine)
			cur = dst
			line = nameLine
		case token.LBRACKET:
			brLine := c.cur.Line
			c.next()
			first := c.subexpr(concatPriority.left)
			if c.check(token.RANGE_EXCL) || c.check(token.RANGE_INCL) {
				inclusive := c.next().Kind == token.RANGE_INCL
				endReg := c.expr()
				c.expectMatch(token.RBRACKET, token.LBRACKET, brLine)
				incl := c.loadBoolConst(inclusive, brLine)
				cur = c.emitRuntimeCallN("__cangjie_array_slice", []int{cur, first, endReg, incl}, 1, brLine)
				line = brLine
				continue
			}
			c.expectMatch(token.RBRACKET, token.LBRACKET, brLine)
			dst := c.fs.reserveReg(1)
			c.fs.emit(bytecode.OpGetTable, dst, cur, first, brLine)
			cur = dst
			line = brLine
		case token.COLON:
			// Only `:name(` is a colon method call; any other `:` ends the
			// chain, as in a numeric for's `:step`.
			if c.lookahead().Kind != token.IDENT {
				return cur
			}
			snap := c.snapshot()
			c.next()
			c.next()
			isCall := c.check(token.LPAREN)
			c.restore(snap)
			if !isCall {
				return cur
			}
			c.next()
			nameLine := c.cur.Line
			name := c.expectIdent()
			cur = c.methodCall(cur, name, nameLine)
			line = nameLine
		case token.LPAREN:
			if c.cur.Line != line {
				return cur
			}
			callLine := c.cur.Line
			cur = c.callExpr(cur, callLine)
			line = callLine
		default:
			return cur
		}
	}
}

// methodCall compiles `.name(args)` / `:name(args)` through OpSelf, which
// preps both the function and the bound receiver in one instruction.
func (c *Compiler) methodCall(objReg int, name string, line int) int {
	base := c.fs.reserveReg(2)
	k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: name})
	c.fs.emit(bytecode.OpSelf, base, objReg, k, line)
	return c.finishCall(base, 2, line)
}

func (c *Compiler) callExpr(calleeReg, line int) int {
	return c.finishCall(calleeReg, 1, line)
}

// finishCall parses `(args)`. A plain comma-separated list of expressions
// compiles straight to CALL; the presence of any `name: value` argument
// triggers the named-call rewrite through __cangjie_named_call, since the
// register VM's calling convention has no slot for argument names.
func (c *Compiler) finishCall(base, nfixed, line int) int {
	c.expect(token.LPAREN)
	var posArgs []int
	var namedOrder []string
	named := map[string]int{}
	for !c.check(token.RPAREN) {
		if c.check(token.IDENT) && c.lookahead().Kind == token.COLON {
			name := c.next().Str
			c.next() // ':'
			namedOrder = append(namedOrder, name)
			named[name] = c.expr()
		} else {
			posArgs = append(posArgs, c.expr())
		}
		if !c.accept(token.COMMA) {
			break
		}
	}
	c.expectMatch(token.RPAREN, token.LPAREN, line)

	if len(namedOrder) == 0 {
		argBase := base + nfixed
		for i, a := range posArgs {
			c.fs.emit(bytecode.OpMove, argBase+i, a, 0, line)
		}
		c.fs.freeTo(argBase + len(posArgs))
		c.fs.emit(bytecode.OpCall, base, (nfixed-1)+len(posArgs)+1, 2, line)
		return base
	}

	fnArgs := []int{base}
	if nfixed == 2 {
		fnArgs = append(fnArgs, base+1)
	}
	fnArgs = append(fnArgs, posArgs...)
	npos := c.loadConstInt(int64(len(fnArgs)-1), line)
	tableReg := c.fs.reserveReg(1)
	c.fs.emit(bytecode.OpNewTable, tableReg, 0, len(namedOrder), line)
	for _, name := range namedOrder {
		k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: name})
		c.fs.emit(bytecode.OpSetField, tableReg, k, named[name], line)
	}
	fnArgs = append(fnArgs, npos, tableReg)
	return c.emitRuntimeCallN("__cangjie_named_call", fnArgs, 1, line)
}

// emitRuntimeCallN calls a runtime helper with an arbitrary argument list
// and nres results, leaving the first result's register as its return
// value.
func (c *Compiler) emitRuntimeCallN(name string, args []int, nres int, line int) int {
	fs := c.fs
	base := fs.reserveReg(1 + len(args))
	c.loadGlobalInto(base, name, line)
	for i, a := range args {
		fs.emit(bytecode.OpMove, base+1+i, a, 0, line)
	}
	fs.emit(bytecode.OpCall, base, len(args)+1, nres+1, line)
	return base
}

func (c *Compiler) loadBoolConst(b bool, line int) int {
	dst := c.fs.reserveReg(1)
	v := 0
	if b {
		v = 1
	}
	c.fs.emit(bytecode.OpLoadBool, dst, v, 0, line)
	return dst
}
