package compiler

import (
	"github.com/cjscript/cjc/bytecode"
	"github.com/cjscript/cjc/token"
)

// emitFalseJump emits TEST+JMP that takes the jump when cond's register is
// falsy, leaving the JMP's pc unpatched for the caller to direct.
func (c *Compiler) emitFalseJump(cond, line int) int {
	c.fs.emit(bytecode.OpTest, cond, 0, 0, line)
	return c.fs.emit(bytecode.OpJmp, 0, 0, 0, line)
}

// emitTrueJump is emitFalseJump's mirror: the jump is taken when cond's
// register is truthy.
func (c *Compiler) emitTrueJump(cond, line int) int {
	c.fs.emit(bytecode.OpTest, cond, 0, 1, line)
	return c.fs.emit(bytecode.OpJmp, 0, 0, 0, line)
}

// ifStmt compiles `if (cond) { ... } else if (cond) { ... } else { ... }`
// as an ordinary statement: branch bodies discard their trailing value.
func (c *Compiler) ifStmt() { c.ifCompile(false) }

// ifAsExpr compiles the same grammar in expression position, wrapped in an
// immediately-invoked zero-argument closure whose branches auto-return
// their trailing expression.
func (c *Compiler) ifAsExpr() int {
	return c.iifeWrap(func() { c.ifCompile(true) })
}

// ifCompile is the shared core: autoReturn selects whether each arm's
// body is an ordinary statement list or the auto-returning variant used
// by lambda bodies, block expressions, and this function's own IIFE
// wrapper.
func (c *Compiler) ifCompile(autoReturn bool) {
	var endJumps []int
	c.expect(token.IF)
	for {
		line := c.cur.Line
		// The whole arm (condition plus body) shares one block, so that an
		// `if let Pattern <- expr` condition's bindings stay visible in the
		// body and are released together with it.
		c.fs.enterBlock(false)
		c.expect(token.LPAREN)
		var cond int
		if c.check(token.LET) {
			cond = c.ifLetCondition(line)
		} else {
			cond = c.expr()
		}
		c.expectMatch(token.RPAREN, token.LPAREN, line)
		falseJmp := c.emitFalseJump(cond, line)
		c.fs.freeTo(c.fs.nactvar)

		braceLine := c.cur.Line
		c.expect(token.LBRACE)
		c.statListBody(autoReturn, token.RBRACE)
		c.expectMatch(token.RBRACE, token.LBRACE, braceLine)
		c.fs.leaveBlock()

		if !c.check(token.ELSE) {
			c.fs.proto.PatchJump(falseJmp, len(c.fs.proto.Code))
			break
		}
		exitJmp := c.fs.emit(bytecode.OpJmp, 0, 0, 0, c.cur.Line)
		endJumps = append(endJumps, exitJmp)
		c.fs.proto.PatchJump(falseJmp, len(c.fs.proto.Code))
		c.next() // 'else'
		if c.check(token.IF) {
			continue
		}
		braceLine = c.cur.Line
		c.expect(token.LBRACE)
		c.fs.enterBlock(false)
		c.statListBody(autoReturn, token.RBRACE)
		c.fs.leaveBlock()
		c.expectMatch(token.RBRACE, token.LBRACE, braceLine)
		break
	}
	end := len(c.fs.proto.Code)
	for _, j := range endJumps {
		c.fs.proto.PatchJump(j, end)
	}
}

// expectArrowBind consumes the `<-` that separates an if-let/while-let
// pattern from its scrutinee. There is no dedicated token for it, so it surfaces
// as the ordinary LT/MINUS single-char tokens in sequence.
func (c *Compiler) expectArrowBind() {
	c.expect(token.LT)
	c.expect(token.MINUS)
}

// ifLetCondition compiles `let Pattern <- expr [&& extra | || extra]`
// inside an `if (...)`'s parens: the pattern's bindings are declared in
// the caller's already-open arm block, so they stay live for the body.
func (c *Compiler) ifLetCondition(parenLine int) int {
	c.expect(token.LET)
	desc := c.parsePatternDesc()
	c.expectArrowBind()
	exprLine := c.cur.Line
	subjVal := c.expr()
	subject := c.fs.newLocal("$matchsubject", VarConst)
	if subject != subjVal {
		c.fs.emit(bytecode.OpMove, subject, subjVal, 0, exprLine)
	}
	ok := c.emitPatternTest(desc, subject, exprLine)
	return c.whileLetExtra(ok, exprLine)
}

// whileLetExtra compiles an optional trailing `&& extra` / `|| extra`
// joined to a pattern-match condition. `&&` short-circuits normally; `||`
// still evaluates extra even when the match failed, since that's exactly
// the case where its value decides whether to proceed with nil bindings.
func (c *Compiler) whileLetExtra(ok, line int) int {
	switch c.cur.Kind {
	case token.AND:
		c.next()
		dst := c.fs.reserveReg(1)
		c.fs.emit(bytecode.OpMove, dst, ok, 0, line)
		jmp := c.emitFalseJump(dst, line)
		extra := c.expr()
		c.fs.emit(bytecode.OpMove, dst, extra, 0, line)
		c.fs.proto.PatchJump(jmp, len(c.fs.proto.Code))
		return dst
	case token.OR:
		c.next()
		dst := c.fs.reserveReg(1)
		c.fs.emit(bytecode.OpMove, dst, ok, 0, line)
		jmp := c.emitTrueJump(dst, line)
		extra := c.expr()
		c.fs.emit(bytecode.OpMove, dst, extra, 0, line)
		c.fs.proto.PatchJump(jmp, len(c.fs.proto.Code))
		return dst
	}
	return ok
}

// whileLetStmt compiles `while (let Pattern <- expr [&&/|| extra]) { body
// }`: the scrutinee's bytecode sits right after loopStart, so the loop's
// back-edge jump re-evaluates it every iteration without the parser ever
// re-reading a token.
func (c *Compiler) whileLetStmt(parenLine int) {
	c.expect(token.LET)
	desc := c.parsePatternDesc()
	c.expectArrowBind()

	loopStart := len(c.fs.proto.Code)
	block := c.fs.enterBlock(true)
	exprLine := c.cur.Line
	subjVal := c.expr()
	subject := c.fs.newLocal("$matchsubject", VarConst)
	if subject != subjVal {
		c.fs.emit(bytecode.OpMove, subject, subjVal, 0, exprLine)
	}
	ok := c.emitPatternTest(desc, subject, exprLine)
	ok = c.whileLetExtra(ok, exprLine)
	falseJmp := c.emitFalseJump(ok, exprLine)
	c.expectMatch(token.RPAREN, token.LPAREN, parenLine)
	c.fs.freeTo(c.fs.nactvar)

	braceLine := c.cur.Line
	c.expect(token.LBRACE)
	c.statList(token.RBRACE)
	c.expectMatch(token.RBRACE, token.LBRACE, braceLine)

	back := c.fs.emit(bytecode.OpJmp, 0, 0, 0, c.cur.Line)
	c.fs.proto.PatchJump(back, loopStart)
	end := len(c.fs.proto.Code)
	c.fs.proto.PatchJump(falseJmp, end)
	for _, j := range block.breakJumps {
		c.fs.proto.PatchJump(j, end)
	}
	for _, j := range block.continueJumps {
		c.fs.proto.PatchJump(j, loopStart)
	}
	c.fs.leaveBlock()
}

// whileStmt compiles `while (cond) { body }`, or `while (let Pattern <- e
// ...) { body }` which delegates to the pattern-matching engine.
func (c *Compiler) whileStmt() {
	line := c.cur.Line
	c.expect(token.WHILE)
	c.expect(token.LPAREN)
	if c.check(token.LET) {
		c.whileLetStmt(line)
		return
	}

	loopStart := len(c.fs.proto.Code)
	cond := c.expr()
	c.expectMatch(token.RPAREN, token.LPAREN, line)
	falseJmp := c.emitFalseJump(cond, line)
	c.fs.freeTo(c.fs.nactvar)

	braceLine := c.cur.Line
	c.expect(token.LBRACE)
	block := c.fs.enterBlock(true)
	c.statList(token.RBRACE)
	c.expectMatch(token.RBRACE, token.LBRACE, braceLine)

	back := c.fs.emit(bytecode.OpJmp, 0, 0, 0, c.cur.Line)
	c.fs.proto.PatchJump(back, loopStart)
	end := len(c.fs.proto.Code)
	c.fs.proto.PatchJump(falseJmp, end)
	for _, j := range block.breakJumps {
		c.fs.proto.PatchJump(j, end)
	}
	for _, j := range block.continueJumps {
		c.fs.proto.PatchJump(j, loopStart)
	}
	c.fs.leaveBlock()
}

// forStmt recognizes the three shapes of `for`: numeric range-for,
// single-variable generic-for (wrapped through __cangjie_iter), and
// two-variable generic-for.
func (c *Compiler) forStmt() {
	line := c.cur.Line
	c.expect(token.FOR)
	c.expect(token.LPAREN)

	first := c.expectIdent()
	var second string
	haveSecond := false
	if c.accept(token.COMMA) {
		second = c.expectIdent()
		haveSecond = true
	}
	c.expect(token.IN)

	// subexpr(concatPriority.left) stops before consuming `..`/`..=` as a
	// binary operator (concat only binds at that level via RANGE_EXCL, and
	// RANGE_INCL never binds as a binary op at all), so this always yields
	// just the range's start expression when one follows, letting the
	// range tokens surface as cur for the branch below.
	start := c.subexpr(concatPriority.left)
	if !haveSecond && (c.check(token.RANGE_EXCL) || c.check(token.RANGE_INCL)) {
		c.numericFor(first, start, line)
		return
	}
	c.genericFor(first, second, haveSecond, start, line)
}

// numericFor parses `start..end[:step]` / `start..=end[:step]` after
// `for (name in start` has already been consumed.
func (c *Compiler) numericFor(name string, start, line int) {
	inclusive := false
	switch c.cur.Kind {
	case token.RANGE_EXCL:
		c.next()
	case token.RANGE_INCL:
		c.next()
		inclusive = true
	}
	end := c.expr()
	step := 0
	if c.accept(token.COLON) {
		step = c.expr()
	} else {
		step = c.loadConstInt(1, line)
	}
	c.expectMatch(token.RPAREN, token.LPAREN, line)
	if !inclusive {
		one := c.loadConstInt(1, line)
		newEnd := c.fs.reserveReg(1)
		c.fs.emit(bytecode.OpSub, newEnd, end, one, line)
		end = newEnd
	}
	c.fs.freeTo(c.fs.nactvar)

	block := c.fs.enterBlock(true)
	// Index, limit and step are hidden locals of the loop block, so the
	// body's statement-boundary freeTo(nactvar) never reuses them.
	ctrlBase := c.fs.newLocal("(for index)", VarConst)
	c.fs.newLocal("(for limit)", VarConst)
	c.fs.newLocal("(for step)", VarConst)
	c.fs.emit(bytecode.OpMove, ctrlBase, start, 0, line)
	c.fs.emit(bytecode.OpMove, ctrlBase+1, end, 0, line)
	c.fs.emit(bytecode.OpMove, ctrlBase+2, step, 0, line)
	prep := c.fs.emit(bytecode.OpForPrep, ctrlBase, 0, 0, line)

	loopVar := c.fs.newLocal(name, VarConst)
	c.fs.emit(bytecode.OpMove, loopVar, ctrlBase, 0, line)

	braceLine := c.cur.Line
	c.expect(token.LBRACE)
	c.statList(token.RBRACE)
	c.expectMatch(token.RBRACE, token.LBRACE, braceLine)

	loopEdge := c.fs.emit(bytecode.OpForLoop, ctrlBase, 0, 0, c.cur.Line)
	c.fs.proto.PatchJump(loopEdge, prep+1)
	end2 := len(c.fs.proto.Code)
	c.fs.proto.PatchJump(prep, end2)
	for _, j := range block.breakJumps {
		c.fs.proto.PatchJump(j, end2)
	}
	for _, j := range block.continueJumps {
		c.fs.proto.PatchJump(j, loopEdge)
	}
	c.fs.leaveBlock()
}

// genericFor compiles the iterator-protocol form. A single loop variable
// is wrapped through __cangjie_iter so plain arrays become iterable; two
// variables pass the iterable through unchanged as a conventional
// iterator-function/state/control triple.
func (c *Compiler) genericFor(first, second string, haveSecond bool, start, line int) {
	iterExpr := start
	// The probe in forStmt parsed everything above concat-priority; only a
	// trailing `??` chain can still remain, since concat/comparison/&&/||
	// are not meaningful at the top level of a for-in iterable.
	for c.accept(token.COALESCE) {
		rhs := c.subexpr(0)
		dst := c.fs.reserveReg(1)
		c.emitRuntimeCall2("__cangjie_coalesce", iterExpr, rhs, dst)
		iterExpr = dst
	}
	c.expectMatch(token.RPAREN, token.LPAREN, line)

	ctrlBase := c.fs.reserveReg(3)
	if haveSecond {
		c.fs.emit(bytecode.OpMove, ctrlBase, iterExpr, 0, line)
		c.fs.emit(bytecode.OpLoadNil, ctrlBase+1, 1, 0, line)
	} else {
		triple := c.emitRuntimeCallN("__cangjie_iter", []int{iterExpr}, 3, line)
		c.fs.emit(bytecode.OpMove, ctrlBase, triple, 0, line)
		c.fs.emit(bytecode.OpMove, ctrlBase+1, triple+1, 0, line)
		c.fs.emit(bytecode.OpMove, ctrlBase+2, triple+2, 0, line)
	}
	c.fs.freeTo(ctrlBase + 3)

	loopStart := c.fs.emit(bytecode.OpJmp, 0, 0, 0, line)

	block := c.fs.enterBlock(true)
	bodyStart := len(c.fs.proto.Code)
	v1 := c.fs.newLocal(first, VarConst)
	var v2 int
	if haveSecond {
		v2 = c.fs.newLocal(second, VarConst)
	}

	braceLine := c.cur.Line
	c.expect(token.LBRACE)
	c.statList(token.RBRACE)
	c.expectMatch(token.RBRACE, token.LBRACE, braceLine)

	edgeLine := c.cur.Line
	c.fs.proto.PatchJump(loopStart, len(c.fs.proto.Code))
	callPC := c.fs.emit(bytecode.OpTForCall, ctrlBase, 2, 0, edgeLine)
	c.fs.emit(bytecode.OpMove, v1, ctrlBase+3, 0, edgeLine)
	if haveSecond {
		c.fs.emit(bytecode.OpMove, v2, ctrlBase+4, 0, edgeLine)
	}
	loopEdge := c.fs.emit(bytecode.OpTForLoop, ctrlBase, 0, 0, edgeLine)
	c.fs.proto.PatchJump(loopEdge, bodyStart)

	end := len(c.fs.proto.Code)
	for _, j := range block.breakJumps {
		c.fs.proto.PatchJump(j, end)
	}
	for _, j := range block.continueJumps {
		c.fs.proto.PatchJump(j, callPC)
	}
	c.fs.leaveBlock()
}

func (c *Compiler) breakStmt() {
	line := c.cur.Line
	c.expect(token.BREAK)
	b := c.fs.block
	for b != nil && !b.isLoop {
		b = b.parent
	}
	if b == nil {
		c.throwAt(line, "break outside a loop")
	}
	jmp := c.fs.emit(bytecode.OpJmp, 0, 0, 0, line)
	b.breakJumps = append(b.breakJumps, jmp)
}

func (c *Compiler) continueStmt() {
	line := c.cur.Line
	c.expect(token.CONTINUE)
	b := c.fs.block
	for b != nil && !b.isLoop {
		b = b.parent
	}
	if b == nil {
		c.throwAt(line, "continue outside a loop")
	}
	jmp := c.fs.emit(bytecode.OpJmp, 0, 0, 0, line)
	b.continueJumps = append(b.continueJumps, jmp)
}

func (c *Compiler) loadConstInt(v int64, line int) int {
	dst := c.fs.reserveReg(1)
	k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstInt, Int: v})
	c.fs.emit(bytecode.OpLoadK, dst, k, 0, line)
	return dst
}
