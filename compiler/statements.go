package compiler

import (
	"github.com/cjscript/cjc/bytecode"
	"github.com/cjscript/cjc/token"
)

// stopAtEOF is the terminator statList looks for when parsing the main
// chunk's top-level statement list.
const stopAtEOF = token.EOF

// statList parses statements up to (but not consuming) term, discarding
// any trailing expression's value.
func (c *Compiler) statList(term token.Kind) {
	c.statListBody(false, term)
}

// statListAutoReturn is the auto-returning variant used for lambda
// bodies, block expressions, and auto-returning if/match arms: a trailing
// expression not already followed by more statements is turned into an
// implicit `return`.
func (c *Compiler) statListAutoReturn(term token.Kind) {
	c.statListBody(true, term)
}

func (c *Compiler) statListBody(autoReturn bool, term token.Kind) {
	for !c.check(term) && !c.check(token.EOF) {
		if autoReturn && c.atTrailingExpr(term) {
			// Compile the expression on trial: it is the trailing one only
			// if the list ends right after it (and any `;`). Otherwise the
			// trial code is dropped and the tokens are compiled again as a
			// statement.
			snap, pc := c.snapshot(), len(c.fs.proto.Code)
			line := c.cur.Line
			reg := c.expr()
			for c.accept(token.SEMI) {
			}
			if c.check(term) || c.check(token.EOF) {
				c.fs.emit(bytecode.OpReturn, reg, 2, 0, line)
				c.fs.freeTo(c.fs.nactvar)
				return
			}
			c.fs.proto.Code = c.fs.proto.Code[:pc]
			c.fs.proto.LineInfo = c.fs.proto.LineInfo[:pc]
			c.fs.freeTo(c.fs.nactvar)
			c.restore(snap)
		}
		c.statement()
		c.fs.freeTo(c.fs.nactvar)
	}
}

// atTrailingExpr reports whether the current position begins an
// expression that is not itself a statement keyword, i.e. candidate for
// the implicit trailing return. Expression-leading keyword
// forms (`if`, `match`, `while`, `for`) are handled by statement()'s own
// auto-returning dispatch instead, so they are excluded here.
func (c *Compiler) atTrailingExpr(terms ...token.Kind) bool {
	for _, t := range terms {
		if c.cur.Kind == t {
			return false
		}
	}
	switch c.cur.Kind {
	case token.EOF, token.SEMI,
		token.LET, token.VAR, token.RETURN, token.BREAK, token.CONTINUE,
		token.STRUCT, token.CLASS, token.INTERFACE, token.EXTEND, token.ENUM,
		token.FUNC, token.DCOLON:
		return false
	case token.IF, token.MATCH, token.WHILE, token.FOR:
		return true
	}
	return true
}

func (c *Compiler) statement() {
	switch c.cur.Kind {
	case token.SEMI:
		c.next()
	case token.LBRACE:
		c.blockStmt()
	case token.IF:
		c.ifStmt()
	case token.WHILE:
		c.whileStmt()
	case token.FOR:
		c.forStmt()
	case token.MATCH:
		c.matchStmt()
	case token.RETURN:
		c.returnStmt()
	case token.BREAK:
		c.breakStmt()
	case token.CONTINUE:
		c.continueStmt()
	case token.LET:
		c.localDecl(VarConst)
	case token.VAR:
		c.localDecl(VarReg)
	case token.STRUCT:
		c.structOrClassDecl(false)
	case token.CLASS:
		c.structOrClassDecl(true)
	case token.INTERFACE:
		c.interfaceDecl()
	case token.EXTEND:
		c.extendDecl()
	case token.ENUM:
		c.enumDecl()
	case token.FUNC:
		c.funcStmt()
	case token.DCOLON:
		c.labelStmt()
	default:
		c.exprStat()
	}
}

// blockStmt compiles a bare `{ ... }` as a nested scope, discarding any
// trailing value (unlike the brace-lambda/block-expression primary form).
func (c *Compiler) blockStmt() {
	line := c.cur.Line
	c.next()
	c.fs.enterBlock(false)
	c.statList(token.RBRACE)
	c.expectMatch(token.RBRACE, token.LBRACE, line)
	c.fs.leaveBlock()
}

// labelStmt consumes `::NAME::`. Gotos are not part of the surface
// grammar;
// the label itself carries no executable effect, so it's parsed and
// discarded (still giving `::` productions elsewhere, like `::main::`-
// style annotations, a well-defined no-op).
func (c *Compiler) labelStmt() {
	c.next() // '::'
	c.expectIdent()
	c.next() // '::' (lexed as DCOLON again, since '::' pairs)
}

// localDecl parses `let NAME [: Type] [= expr]` / `var NAME [: Type] [=
// expr]`.
func (c *Compiler) localDecl(kind VarKind) {
	c.next() // 'let'/'var'
	name := c.expectIdent()
	if c.accept(token.COLON) {
		c.skipTypeAnnotation()
	}
	line := c.cur.Line
	if c.accept(token.ASSIGN) {
		val := c.expr()
		// The local lands at nactvar, where the next statement's
		// temporaries cannot reach it.
		if val == c.fs.nactvar {
			c.fs.freeTo(val)
			c.fs.newLocal(name, kind)
		} else {
			c.fs.bindLocalFrom(name, kind, val, line)
		}
		c.fs.freeTo(c.fs.nactvar)
		return
	}
	reg := c.fs.newLocal(name, kind)
	c.fs.emit(bytecode.OpLoadNil, reg, 0, 0, line)
}

// returnStmt compiles `return [expr]`. A single-value return whose
// expression is a direct call is rewritten to TAILCALL unless the
// enclosing function has an open to-be-closed variable.
func (c *Compiler) returnStmt() {
	line := c.cur.Line
	c.next()
	if c.startsExpr() {
		reg := c.expr()
		tbc := false
		for b := c.fs.block; b != nil; b = b.parent {
			tbc = tbc || b.hasTBC
		}
		code := c.fs.proto.Code
		if n := len(code); n > 0 && !tbc && code[n-1].Op == bytecode.OpCall && code[n-1].A == reg && code[n-1].C == 2 {
			code[n-1].Op = bytecode.OpTailCall
		}
		c.fs.emit(bytecode.OpReturn, reg, 2, 0, line)
		return
	}
	c.fs.emit(bytecode.OpReturn, 0, 1, 0, line)
}

// startsExpr reports whether the current token can begin an expression,
// used to distinguish a bare `return` from `return expr`.
func (c *Compiler) startsExpr() bool {
	switch c.cur.Kind {
	case token.SEMI, token.RBRACE, token.EOF, token.CASE:
		return false
	}
	return true
}

// funcStmt compiles a top-level/nested `func NAME(params) { body }`.
// Module-level functions are wired through `__cangjie_overload` on every
// declaration, so that a second `func NAME` at the same arity-distinguishing
// scope merges into a dispatch table rather than clobbering the first;
// nested/local declarations just bind directly, since they shadow rather
// than overload.
func (c *Compiler) funcStmt() {
	line := c.cur.Line
	c.next() // 'func'
	name := c.expectIdent()
	closureReg := c.compileFunctionBody(name, false, false)

	if c.fs.prev == nil && c.fs.block == nil {
		nparams := c.fs.proto.Protos[len(c.fs.proto.Protos)-1].NumParams
		k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: name})
		env := c.fs.envUpval()
		existing := c.fs.reserveReg(1)
		c.fs.emit(bytecode.OpGetTabUp, existing, env, k, line)
		nparamsReg := c.loadConstInt(int64(nparams), line)
		dispatch := c.emitRuntimeCallN("__cangjie_overload", []int{existing, closureReg, nparamsReg}, 1, line)
		c.fs.emit(bytecode.OpSetTabUp, env, k, dispatch, line)
		return
	}
	reg := c.fs.newLocal(name, VarReg)
	if reg != closureReg {
		c.fs.emit(bytecode.OpMove, reg, closureReg, 0, line)
	}
}

// exprStat parses an expression-statement: either an assignment (plain or
// compound) to a local/upvalue/global/field/index/slice target, or a
// plain expression evaluated and discarded.
func (c *Compiler) exprStat() {
	tgt := c.suffixedTarget()
	line := c.cur.Line
	switch c.cur.Kind {
	case token.ASSIGN:
		c.next()
		rhs := c.expr()
		tgt.store(c, rhs, line)
	case token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN, token.SLASH_ASSIGN:
		op := compoundBinOp(c.next().Kind)
		rhs := c.expr()
		cur := tgt.load(c, line)
		dst := c.fs.reserveReg(1)
		c.emitBinary(op, cur, rhs, dst, line)
		tgt.store(c, dst, line)
	default:
		reg := tgt.load(c, line)
		c.suffixedExp(reg, line)
	}
}

func compoundBinOp(k token.Kind) token.Kind {
	switch k {
	case token.PLUS_ASSIGN:
		return token.PLUS
	case token.MINUS_ASSIGN:
		return token.MINUS
	case token.STAR_ASSIGN:
		return token.STAR
	case token.SLASH_ASSIGN:
		return token.SLASH
	}
	return k
}

// skipTypeAnnotation parses and discards a type expression: a name,
// optionally `?`-prefixed (Option sugar), optionally followed by an
// angle-bracket generic argument list, optionally followed by `[]`
//. pendingCloses counts `>` closes already consumed as part
// of an outer `>>` token, so a nested generic doesn't re-demand one.
func (c *Compiler) skipTypeAnnotation() { c.skipType(0) }

func (c *Compiler) skipType(pendingCloses int) int {
	c.accept(token.QUESTION)
	c.expectIdent()
	if c.accept(token.LT) {
		pendingCloses = c.skipType(pendingCloses)
		for c.accept(token.COMMA) {
			pendingCloses = c.skipType(pendingCloses)
		}
		if pendingCloses > 0 {
			pendingCloses--
		} else if c.accept(token.GT) {
			// consumed
		} else if c.accept(token.SHR) {
			// `>>` closes this level and the parent's in one token.
			pendingCloses++
		} else {
			c.expect(token.GT)
		}
	}
	if c.accept(token.LBRACKET) {
		c.expect(token.RBRACKET)
	}
	return pendingCloses
}
