package compiler

import (
	"github.com/cjscript/cjc/bytecode"
	"github.com/cjscript/cjc/token"
)

// patKind tags the shape of a parsed match/if-let/while-let pattern.
type patKind int

const (
	patWildcard patKind = iota // _
	patBind                    // plain lowercase name — binds unconditionally
	patTuple                   // (p1, p2, ...)
	patCtorNullary             // Ctor (no payload)
	patCtor                    // Ctor(p1, ..., pN)
	patTypeBind                // name: TypeName
	patConstInt
	patConstFloat
	patConstString
	patConstBool
	patConstNil
)

// patternDesc is the parsed form of one pattern; emitPatternTest walks it
// to emit the actual test-and-bind bytecode.
type patternDesc struct {
	kind     patKind
	name     string
	ctorName string
	typeName string
	sub      []patternDesc
	intVal   int64
	fltVal   float64
	strVal   string
	boolVal  bool
}

func isCapitalized(s string) bool {
	if len(s) == 0 {
		return false
	}
	return s[0] >= 'A' && s[0] <= 'Z'
}

// parsePatternDesc parses one pattern: wildcard, tuple, constructor
// (nullary or with payload), type-binding, or a constant literal. A bare
// identifier is treated as an unconditional binding unless it's
// capitalized, in which case it's read as a nullary enum/class-tag
// reference — the grammar has no other marker distinguishing the two.
func (c *Compiler) parsePatternDesc() patternDesc {
	line := c.cur.Line
	switch c.cur.Kind {
	case token.IDENT:
		name := c.cur.Str
		if name == "_" {
			c.next()
			return patternDesc{kind: patWildcard}
		}
		if c.lookahead().Kind == token.LPAREN {
			c.next() // ctor name
			c.next() // '('
			var sub []patternDesc
			for !c.check(token.RPAREN) {
				sub = append(sub, c.parsePatternDesc())
				if !c.accept(token.COMMA) {
					break
				}
			}
			c.expectMatch(token.RPAREN, token.LPAREN, line)
			return patternDesc{kind: patCtor, ctorName: name, sub: sub}
		}
		if c.lookahead().Kind == token.COLON {
			c.next()
			c.next() // ':'
			typeName := c.expectIdent()
			return patternDesc{kind: patTypeBind, name: name, typeName: typeName}
		}
		c.next()
		if isCapitalized(name) {
			return patternDesc{kind: patCtorNullary, ctorName: name}
		}
		return patternDesc{kind: patBind, name: name}
	case token.LPAREN:
		c.next()
		var sub []patternDesc
		for !c.check(token.RPAREN) {
			sub = append(sub, c.parsePatternDesc())
			if !c.accept(token.COMMA) {
				break
			}
		}
		c.expectMatch(token.RPAREN, token.LPAREN, line)
		return patternDesc{kind: patTuple, sub: sub}
	case token.INT:
		v := c.next().Num
		return patternDesc{kind: patConstInt, intVal: int64(v)}
	case token.FLOAT:
		v := c.next().Num
		return patternDesc{kind: patConstFloat, fltVal: v}
	case token.STRING:
		v := c.next().Str
		return patternDesc{kind: patConstString, strVal: v}
	case token.TRUE, token.FALSE:
		b := c.next().Kind == token.TRUE
		return patternDesc{kind: patConstBool, boolVal: b}
	case token.NIL:
		c.next()
		return patternDesc{kind: patConstNil}
	}
	c.throw("malformed pattern")
	return patternDesc{}
}

// andThen evaluates computeB only when aReg is still truthy, folding the
// result back into a single register — the short-circuiting AND that
// chains a constructor/tuple's per-element subpattern tests onto its tag
// check without paying for subpatterns once the tag has already failed.
func (c *Compiler) andThen(aReg, line int, computeB func() int) int {
	dst := c.fs.reserveReg(1)
	c.fs.emit(bytecode.OpMove, dst, aReg, 0, line)
	jmp := c.emitFalseJump(dst, line)
	b := computeB()
	c.fs.emit(bytecode.OpMove, dst, b, 0, line)
	c.fs.proto.PatchJump(jmp, len(c.fs.proto.Code))
	return dst
}

func (c *Compiler) matchTagTest(subject int, tag string, line int) int {
	nameReg := c.loadConstString(tag, line)
	return c.emitRuntimeCallN("__cangjie_match_tag", []int{subject, nameReg}, 1, line)
}

// emitPatternTest compiles one pattern against subject, returning a
// register holding the boolean match result. Bindings are emitted
// unconditionally (as plain register moves) regardless of whether the
// surrounding test ultimately succeeds, since the caller's false-branch
// jump means a failed test never reaches code that reads them.
func (c *Compiler) emitPatternTest(d patternDesc, subject, line int) int {
	switch d.kind {
	case patWildcard:
		return c.loadBoolConst(true, line)
	case patBind:
		c.fs.bindLocalFrom(d.name, VarReg, subject, line)
		return c.loadBoolConst(true, line)
	case patCtorNullary:
		return c.matchTagTest(subject, d.ctorName, line)
	case patCtor:
		ok := c.matchTagTest(subject, d.ctorName, line)
		for i, sp := range d.sub {
			idx := i + 1
			sp := sp
			ok = c.andThen(ok, line, func() int {
				elem := c.fs.reserveReg(1)
				c.fs.emit(bytecode.OpGetIndexI, elem, subject, idx, line)
				return c.emitPatternTest(sp, elem, line)
			})
		}
		return ok
	case patTuple:
		n := c.loadConstInt(int64(len(d.sub)), line)
		ok := c.emitRuntimeCallN("__cangjie_match_tuple", []int{subject, n}, 1, line)
		for i, sp := range d.sub {
			i := i
			sp := sp
			ok = c.andThen(ok, line, func() int {
				elem := c.fs.reserveReg(1)
				c.fs.emit(bytecode.OpGetIndexI, elem, subject, i, line)
				return c.emitPatternTest(sp, elem, line)
			})
		}
		return ok
	case patTypeBind:
		typeReg := c.resolveName(d.typeName, line)
		ok := c.emitRuntimeCallN("__cangjie_is_instance", []int{subject, typeReg}, 1, line)
		c.fs.bindLocalFrom(d.name, VarReg, subject, line)
		return ok
	case patConstInt:
		k := c.loadConstInt(d.intVal, line)
		return c.emitCompareToBool(bytecode.OpEq, subject, k, line)
	case patConstFloat:
		dst := c.fs.reserveReg(1)
		k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstFloat, Flt: d.fltVal})
		c.fs.emit(bytecode.OpLoadK, dst, k, 0, line)
		return c.emitCompareToBool(bytecode.OpEq, subject, dst, line)
	case patConstString:
		k := c.loadConstString(d.strVal, line)
		return c.emitCompareToBool(bytecode.OpEq, subject, k, line)
	case patConstBool:
		b := c.loadBoolConst(d.boolVal, line)
		return c.emitCompareToBool(bytecode.OpEq, subject, b, line)
	case patConstNil:
		dst := c.fs.reserveReg(1)
		c.fs.emit(bytecode.OpLoadNil, dst, 0, 0, line)
		return c.emitCompareToBool(bytecode.OpEq, subject, dst, line)
	}
	return c.loadBoolConst(false, line)
}

// matchCompile compiles `match (expr) { case Pattern => body ... }`. Each
// arm's body runs to the next `case`, `}`, or end-of-source with no braces
// required; autoReturn makes a trailing expression
// in each arm an implicit return, for match used in expression position.
func (c *Compiler) matchCompile(autoReturn bool) {
	line := c.cur.Line
	c.expect(token.MATCH)
	c.expect(token.LPAREN)
	exprLine := c.cur.Line
	subjVal := c.expr()
	c.expectMatch(token.RPAREN, token.LPAREN, line)
	// The subject lands at nactvar, below every arm's temporaries, so a
	// later arm's tests cannot overwrite it.
	subject := c.fs.bindLocalFrom("$matchsubject", VarConst, subjVal, exprLine)

	braceLine := c.cur.Line
	c.expect(token.LBRACE)
	var endJumps []int
	for c.check(token.CASE) {
		c.fs.enterBlock(false)
		caseLine := c.cur.Line
		c.next() // 'case'
		desc := c.parsePatternDesc()
		ok := c.emitPatternTest(desc, subject, caseLine)
		c.expect(token.ARROW)
		falseJmp := c.emitFalseJump(ok, caseLine)
		c.fs.freeTo(c.fs.nactvar)

		if autoReturn {
			c.matchArmBodyAutoReturn()
		} else {
			c.matchArmBodyStmt()
		}
		c.fs.leaveBlock()

		if !c.check(token.CASE) {
			c.fs.proto.PatchJump(falseJmp, len(c.fs.proto.Code))
			break
		}
		exitJmp := c.fs.emit(bytecode.OpJmp, 0, 0, 0, c.cur.Line)
		endJumps = append(endJumps, exitJmp)
		c.fs.proto.PatchJump(falseJmp, len(c.fs.proto.Code))
	}
	c.expectMatch(token.RBRACE, token.LBRACE, braceLine)

	end := len(c.fs.proto.Code)
	for _, j := range endJumps {
		c.fs.proto.PatchJump(j, end)
	}
}

func (c *Compiler) matchArmBodyStmt() {
	for !c.check(token.CASE) && !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.statement()
		c.fs.freeTo(c.fs.nactvar)
	}
}

func (c *Compiler) matchArmBodyAutoReturn() {
	for !c.check(token.CASE) && !c.check(token.RBRACE) && !c.check(token.EOF) {
		if c.atTrailingExpr(token.CASE, token.RBRACE) {
			// Trial compile, as in statListBody: only an expression that
			// ends the arm is returned.
			snap, pc := c.snapshot(), len(c.fs.proto.Code)
			line := c.cur.Line
			reg := c.expr()
			for c.accept(token.SEMI) {
			}
			if c.check(token.CASE) || c.check(token.RBRACE) || c.check(token.EOF) {
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

func (c *Compiler) matchStmt() { c.matchCompile(false) }

func (c *Compiler) matchAsExpr() int {
	return c.iifeWrap(func() { c.matchCompile(true) })
}
