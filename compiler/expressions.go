package compiler

import (
	"github.com/cjscript/cjc/bytecode"
	"github.com/cjscript/cjc/token"
)

// simpleExp parses one primary expression and then chains any suffix
// forms onto it.
func (c *Compiler) simpleExp() int {
	line := c.cur.Line
	reg := c.primaryExp()
	return c.suffixedExp(reg, line)
}

func (c *Compiler) primaryExp() int {
	line := c.cur.Line
	switch c.cur.Kind {
	case token.INT:
		tok := c.next()
		dst := c.fs.reserveReg(1)
		k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstInt, Int: int64(tok.Num)})
		c.fs.emit(bytecode.OpLoadK, dst, k, 0, line)
		return dst
	case token.FLOAT:
		tok := c.next()
		dst := c.fs.reserveReg(1)
		k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstFloat, Flt: tok.Num})
		c.fs.emit(bytecode.OpLoadK, dst, k, 0, line)
		return dst
	case token.STRING:
		return c.stringLiteral()
	case token.TRUE, token.FALSE:
		tok := c.next()
		dst := c.fs.reserveReg(1)
		v := 0
		if tok.Kind == token.TRUE {
			v = 1
		}
		c.fs.emit(bytecode.OpLoadBool, dst, v, 0, line)
		return dst
	case token.NIL:
		c.next()
		dst := c.fs.reserveReg(1)
		c.fs.emit(bytecode.OpLoadNil, dst, 0, 0, line)
		return dst
	case token.THIS:
		c.next()
		return c.resolveName("self", line)
	case token.SUPER:
		return c.superCall(line)
	case token.IDENT:
		name := c.next().Str
		return c.identOrImplicitThis(name, line)
	case token.LPAREN:
		return c.parenOrTupleOrLambda()
	case token.LBRACKET:
		return c.arrayLiteral()
	case token.LBRACE:
		return c.braceForm()
	case token.IF:
		return c.ifAsExpr()
	case token.MATCH:
		return c.matchAsExpr()
	case token.WHILE:
		return c.iifeWrap(func() { c.whileStmt() })
	case token.FOR:
		return c.iifeWrap(func() { c.forStmt() })
	}
	c.throw("unexpected symbol")
	return 0
}

// stringLiteral compiles a (possibly interpolated) string literal into a
// CONCAT chain: `a${e}b` compiles to a concatenation whose runtime
// result equals "a" .. tostring(e_value) .. "b".
func (c *Compiler) stringLiteral() int {
	line := c.cur.Line
	tok := c.next() // consumes the (possibly prefix) STRING token
	parts := []int{c.loadConstString(tok.Str, line)}

	// The lexer leaves PendingInterpolation() true whenever it stopped
	// scanning at an unescaped `${`; each iteration here compiles the
	// embedded expression, then calls Resume to pick the literal scan back
	// up from just after the matching `}`.
	for c.lex.PendingInterpolation() {
		e := c.expr()
		asStr := c.fs.reserveReg(1)
		c.emitRuntimeCall1("__cangjie_tostring", e, asStr)
		parts = append(parts, asStr)
		// The `}` is already the current token and the lexer stands just
		// after it; advancing would lex the string's tail as code.
		if !c.check(token.RBRACE) {
			c.throw("'%s' expected", token.RBRACE)
		}
		next, _, err := c.lex.Resume()
		if err != nil {
			c.throwLex(err)
		}
		parts = append(parts, c.loadConstString(next.Str, next.Line))
		c.cur = c.mustNextAfterResume()
	}

	if len(parts) == 1 {
		return parts[0]
	}
	return c.concatAll(parts, line)
}

// mustNextAfterResume re-primes the current token after a Resume call,
// since Resume bypasses the normal Next()-via-next() path.
func (c *Compiler) mustNextAfterResume() token.Token {
	tok, err := c.lex.Next()
	if err != nil {
		c.throwLex(err)
	}
	return tok
}

func (c *Compiler) loadConstString(s string, line int) int {
	dst := c.fs.reserveReg(1)
	k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: s})
	c.fs.emit(bytecode.OpLoadK, dst, k, 0, line)
	return dst
}

func (c *Compiler) concatAll(regs []int, line int) int {
	dst := c.fs.reserveReg(1)
	acc := regs[0]
	for i := 1; i < len(regs); i++ {
		c.fs.emit(bytecode.OpConcat, dst, acc, regs[i], line)
		acc = dst
	}
	return dst
}

// identOrImplicitThis resolves a bare identifier: active local, then
// enclosing upvalue, then implicit-`this` field/method, then global.
func (c *Compiler) identOrImplicitThis(name string, line int) int {
	if lv, ok := c.fs.findLocal(name); ok {
		return lv.reg
	}
	if idx, ok := c.fs.resolveUpval(name); ok {
		dst := c.fs.reserveReg(1)
		c.fs.emit(bytecode.OpGetUpval, dst, idx, 0, line)
		return dst
	}
	if c.inStructMethod && c.isThisField(name) {
		self := c.resolveName("self", line)
		dst := c.fs.reserveReg(1)
		k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: name})
		c.fs.emit(bytecode.OpGetField, dst, self, k, line)
		return dst
	}
	dst := c.fs.reserveReg(1)
	c.loadGlobal(name, dst, line)
	return dst
}

func (c *Compiler) isThisField(name string) bool {
	for _, f := range c.thisFields {
		if f == name {
			return true
		}
	}
	return false
}

// resolveName looks up a non-implicit name through the normal
// local/upvalue/global chain (used for "self" and runtime helper names).
func (c *Compiler) resolveName(name string, line int) int {
	if lv, ok := c.fs.findLocal(name); ok {
		return lv.reg
	}
	if idx, ok := c.fs.resolveUpval(name); ok {
		dst := c.fs.reserveReg(1)
		c.fs.emit(bytecode.OpGetUpval, dst, idx, 0, line)
		return dst
	}
	dst := c.fs.reserveReg(1)
	c.loadGlobal(name, dst, line)
	return dst
}

// superCall compiles `super(args…)` to
// `__cangjie_super_init(self, currentClassName, args…)`.
func (c *Compiler) superCall(line int) int {
	c.next() // 'super'
	c.expect(token.LPAREN)
	var args []int
	for !c.check(token.RPAREN) {
		args = append(args, c.expr())
		if !c.accept(token.COMMA) {
			break
		}
	}
	c.expectMatch(token.RPAREN, token.LPAREN, line)

	self := c.resolveName("self", line)
	base := c.fs.reserveReg(2 + len(args))
	c.loadGlobalInto(base, "__cangjie_super_init", line)
	c.fs.emit(bytecode.OpMove, base+1, self, 0, line)
	cls := c.resolveName(c.currentClassName, line)
	c.fs.emit(bytecode.OpMove, base+2, cls, 0, line)
	for i, a := range args {
		c.fs.emit(bytecode.OpMove, base+3+i, a, 0, line)
	}
	c.fs.emit(bytecode.OpCall, base, 2+len(args)+1, 1, line)
	return base
}

func (c *Compiler) loadGlobalInto(reg int, name string, line int) {
	k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: name})
	env := c.fs.envUpval()
	c.fs.emit(bytecode.OpGetTabUp, reg, env, k, line)
}

func (c *Compiler) emitRuntimeCall1(name string, a, dst int) {
	line := c.cur.Line
	fs := c.fs
	base := fs.reserveReg(2)
	c.loadGlobalInto(base, name, line)
	fs.emit(bytecode.OpMove, base+1, a, 0, line)
	fs.emit(bytecode.OpCall, base, 2, 2, line)
	fs.emit(bytecode.OpMove, dst, base, 0, line)
}
