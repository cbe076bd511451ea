package compiler

import (
	"github.com/cjscript/cjc/bytecode"
	"github.com/cjscript/cjc/token"
)

// compileFunctionBody compiles `(params) [: Type] { body }` (or, with
// useArrow, `(params) => expr` / `(params) => { body }`) into a nested
// Prototype and emits a CLOSURE instruction for it in the enclosing
// function, returning the register holding the new closure.
//
// implicitSelf reserves register 0 for `self` without it counting as a
// declared parameter, used for struct/class/enum method bodies.
func (c *Compiler) compileFunctionBody(name string, implicitSelf bool, useArrow bool) int {
	line := c.cur.Line
	outer := c.fs
	fs := c.openFunc(outer, name, false)

	if implicitSelf {
		fs.newLocal("self", VarReg)
	}

	c.expect(token.LPAREN)
	for !c.check(token.RPAREN) {
		if c.accept(token.ELLIPSIS) {
			pname := c.expectIdent()
			if c.accept(token.COLON) {
				c.skipTypeAnnotation()
			}
			fs.newLocal(pname, VarVararg)
			fs.proto.IsVararg = true
			fs.proto.Params = append(fs.proto.Params, bytecode.ParamInfo{Name: pname, IsVariadic: true})
			break
		}
		pname := c.expectIdent()
		c.accept(token.BANG) // named-argument marker; no extra state needed beyond the param's own name
		if c.accept(token.COLON) {
			c.skipTypeAnnotation()
		}
		reg := fs.newLocal(pname, VarReg)
		hasDefault := false
		if c.accept(token.ASSIGN) {
			hasDefault = true
			c.compileParamDefault(reg, line)
		}
		fs.proto.Params = append(fs.proto.Params, bytecode.ParamInfo{Name: pname, HasDefault: hasDefault})
		if !c.accept(token.COMMA) {
			break
		}
	}
	c.expectMatch(token.RPAREN, token.LPAREN, line)
	fs.proto.NumParams = fs.nactvar

	if c.accept(token.COLON) {
		c.skipTypeAnnotation()
	}

	if useArrow {
		c.expect(token.ARROW)
		if c.check(token.LBRACE) {
			braceLine := c.cur.Line
			c.next()
			c.statListAutoReturn(token.RBRACE)
			c.expectMatch(token.RBRACE, token.LBRACE, braceLine)
		} else {
			eline := c.cur.Line
			reg := c.expr()
			c.fs.emit(bytecode.OpReturn, reg, 2, 0, eline)
		}
	} else {
		braceLine := c.cur.Line
		c.expect(token.LBRACE)
		c.statListAutoReturn(token.RBRACE)
		c.expectMatch(token.RBRACE, token.LBRACE, braceLine)
	}

	return c.closeAndEmitClosure(line)
}

// compileParamDefault emits `if reg == nil then reg = <default expr>`
// right after a parameter's register is reserved, so a call that omits a
// trailing positional/named argument (left nil by the calling convention)
// picks up its default at the callee side.
func (c *Compiler) compileParamDefault(reg, line int) {
	nilReg := c.fs.reserveReg(1)
	c.fs.emit(bytecode.OpLoadNil, nilReg, 0, 0, line)
	c.fs.emit(bytecode.OpEq, reg, nilReg, 0, line)
	guard := c.fs.emit(bytecode.OpJmp, 0, 0, 0, line)
	val := c.expr()
	c.fs.emit(bytecode.OpMove, reg, val, 0, line)
	c.fs.proto.PatchJump(guard, len(c.fs.proto.Code))
	c.fs.freeTo(c.fs.nactvar)
}

// closeAndEmitClosure closes the current (innermost) FuncState, registers
// its Prototype with the now-current (outer) one, and emits the CLOSURE
// instruction that instantiates it.
func (c *Compiler) closeAndEmitClosure(line int) int {
	proto := c.closeFunc()
	outer := c.fs
	idx := len(outer.proto.Protos)
	outer.proto.Protos = append(outer.proto.Protos, proto)
	dst := outer.reserveReg(1)
	outer.emit(bytecode.OpClosure, dst, idx, 0, line)
	return dst
}

// iifeWrap compiles body as a zero-argument nested function and calls it
// immediately, implementing every "form X used in expression position":
// `if`/`match`/`while`/`for` as expressions, and block expressions.
func (c *Compiler) iifeWrap(body func()) int {
	line := c.cur.Line
	c.openFunc(c.fs, "", false)
	body()
	closureReg := c.closeAndEmitClosure(line)
	c.fs.emit(bytecode.OpCall, closureReg, 1, 2, line)
	return closureReg
}
