package compiler

import (
	"github.com/cjscript/cjc/bytecode"
	"github.com/cjscript/cjc/token"
)

// parenOrTupleOrLambda disambiguates `(params) => ...` from a parenthesized
// group or tuple literal by scanning ahead to the matching `)` and checking
// for a trailing `=>`.
func (c *Compiler) parenOrTupleOrLambda() int {
	snap := c.snapshot()
	isLambda := c.looksLikeArrowLambda()
	c.restore(snap)
	if isLambda {
		return c.arrowLambda()
	}
	return c.parenGroupOrTuple()
}

func (c *Compiler) arrowLambda() int {
	return c.compileFunctionBody("", false, true)
}

// parenGroupOrTuple compiles `()` (unit), `(expr)` (a plain parenthesized
// group — not a tuple), and `(e1, e2, ...)` / the one-element trailing-
// comma form `(e,)` (tuples, via the runtime's tuple constructor, since the
// register VM has no tuple value kind of its own).
func (c *Compiler) parenGroupOrTuple() int {
	line := c.cur.Line
	c.expect(token.LPAREN)
	if c.check(token.RPAREN) {
		c.next()
		return c.emitRuntimeCallN("__cangjie_tuple", nil, 1, line)
	}
	first := c.expr()
	if !c.check(token.COMMA) {
		c.expectMatch(token.RPAREN, token.LPAREN, line)
		return first
	}
	elems := []int{first}
	for c.accept(token.COMMA) {
		if c.check(token.RPAREN) {
			break // trailing comma: (e,) is still a one-element tuple
		}
		elems = append(elems, c.expr())
	}
	c.expectMatch(token.RPAREN, token.LPAREN, line)
	return c.emitRuntimeCallN("__cangjie_tuple", elems, 1, line)
}

// arrayLiteral compiles `[e1, e2, ...]` into a fresh table populated by
// 0-based integer-immediate sets, with a `__n` field recording the element
// count so `.size` reads cost one GETFIELD regardless of array length.
func (c *Compiler) arrayLiteral() int {
	line := c.cur.Line
	c.expect(token.LBRACKET)
	var elems []int
	for !c.check(token.RBRACKET) {
		elems = append(elems, c.expr())
		if !c.accept(token.COMMA) {
			break
		}
	}
	c.expectMatch(token.RBRACKET, token.LBRACKET, line)

	arr := c.fs.reserveReg(1)
	c.fs.emit(bytecode.OpNewTable, arr, len(elems), 0, line)
	for i, e := range elems {
		c.fs.emit(bytecode.OpSetIndexI, arr, i, e, line)
	}
	n := c.loadConstInt(int64(len(elems)), line)
	k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: "__n"})
	c.fs.emit(bytecode.OpSetField, arr, k, n, line)
	c.fs.freeTo(arr + 1)
	return arr
}

// braceForm dispatches an already-unclassified `{` to whichever of the four
// shapes it turns out to be: empty table, brace-lambda, block expression, or
// table constructor.
func (c *Compiler) braceForm() int {
	line := c.cur.Line
	c.expect(token.LBRACE)

	if c.check(token.RBRACE) {
		c.next()
		t := c.fs.reserveReg(1)
		c.fs.emit(bytecode.OpNewTable, t, 0, 0, line)
		return t
	}
	if c.looksLikeBraceLambda() {
		return c.braceLambda(line)
	}
	if c.isBlockStatementStart() {
		reg := c.iifeWrap(func() {
			c.statListAutoReturn(token.RBRACE)
		})
		c.expectMatch(token.RBRACE, token.LBRACE, line)
		return reg
	}
	return c.tableConstructorBody(line)
}

// isBlockStatementStart reports whether the current token can only begin a
// statement, never a table-constructor entry — used to tell a block
// expression (`{ let x = ...; x }`) apart from a table literal whose first
// entry happens to be a bare identifier.
func (c *Compiler) isBlockStatementStart() bool {
	switch c.cur.Kind {
	case token.SEMI, token.LBRACE, token.IF, token.WHILE, token.FOR, token.MATCH,
		token.RETURN, token.BREAK, token.CONTINUE, token.LET, token.VAR,
		token.STRUCT, token.CLASS, token.INTERFACE, token.EXTEND, token.ENUM,
		token.FUNC, token.DCOLON:
		return true
	}
	return false
}

// tableConstructorBody compiles `{ field, field, ... }` where each field is
// either `name: expr` (a named/hash entry) or a bare `expr` (a positional
// entry, 0-based like array literals but without array-size metadata,
// matching plain object-literal use rather than sized-collection use).
func (c *Compiler) tableConstructorBody(line int) int {
	t := c.fs.reserveReg(1)
	c.fs.emit(bytecode.OpNewTable, t, 0, 0, line)
	idx := 0
	for !c.check(token.RBRACE) {
		if c.check(token.IDENT) && c.lookahead().Kind == token.COLON {
			name := c.next().Str
			c.next() // ':'
			val := c.expr()
			k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: name})
			c.fs.emit(bytecode.OpSetField, t, k, val, line)
		} else {
			val := c.expr()
			c.fs.emit(bytecode.OpSetIndexI, t, idx, val, line)
			idx++
		}
		if !c.accept(token.COMMA) {
			break
		}
	}
	c.expectMatch(token.RBRACE, token.LBRACE, line)
	c.fs.freeTo(t + 1)
	return t
}

// braceLambda compiles `{ name, name => body }` (or the zero-param `{ =>
// body }`), the parenthesis-free lambda shorthand.
func (c *Compiler) braceLambda(line int) int {
	outer := c.fs
	fs := c.openFunc(outer, "", false)
	for c.check(token.IDENT) {
		name := c.next().Str
		fs.newLocal(name, VarReg)
		fs.proto.Params = append(fs.proto.Params, bytecode.ParamInfo{Name: name})
		if !c.accept(token.COMMA) {
			break
		}
	}
	fs.proto.NumParams = fs.nactvar
	c.expect(token.ARROW)
	c.statListAutoReturn(token.RBRACE)
	c.expectMatch(token.RBRACE, token.LBRACE, line)
	return c.closeAndEmitClosure(line)
}
