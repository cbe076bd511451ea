package compiler

import "github.com/cjscript/cjc/token"

// parserSnap captures enough of the parser's state to resurrect it: the
// lexer's raw byte position plus the single token of lookahead state
// layered on top, so parenOrTupleOrLambda/braceForm can probe ahead and
// rewind without the canonical stream ever observing the detour.
type parserSnap struct {
	pos, line  int
	cur, ahead token.Token
	haveAhead  bool
}

func (c *Compiler) snapshot() parserSnap {
	return parserSnap{pos: c.lex.Pos(), line: c.lex.Line(), cur: c.cur, ahead: c.ahead, haveAhead: c.haveAhead}
}

func (c *Compiler) restore(s parserSnap) {
	c.lex.SeekTo(s.pos, s.line)
	c.cur = s.cur
	c.ahead = s.ahead
	c.haveAhead = s.haveAhead
}

// looksLikeArrowLambda scans forward from an as-yet-unconsumed `(` to its
// matching `)`, then reports whether `=>` immediately follows — the only
// shape that distinguishes `(params) => body` from a parenthesized group
// or tuple. The scan runs through the
// ordinary token stream (mutating cur/ahead/the lexer position), so every
// call site must restore a snapshot taken before it.
func (c *Compiler) looksLikeArrowLambda() bool {
	c.expect(token.LPAREN)
	depth := 1
	for depth > 0 {
		switch c.cur.Kind {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
		case token.EOF:
			return false
		}
		c.next()
	}
	return c.check(token.ARROW)
}

// looksLikeBraceLambda reports whether the tokens just inside an already-
// consumed `{` form a brace-lambda parameter list (`name, name => ...` or
// the zero-param `=> ...`), as opposed to a table constructor.
func (c *Compiler) looksLikeBraceLambda() bool {
	if c.check(token.ARROW) {
		return true
	}
	if !c.check(token.IDENT) {
		return false
	}
	snap := c.snapshot()
	ok := c.scanBraceLambdaParams()
	c.restore(snap)
	return ok
}

func (c *Compiler) scanBraceLambdaParams() bool {
	for c.check(token.IDENT) {
		c.next()
		if c.accept(token.COMMA) {
			continue
		}
		break
	}
	return c.check(token.ARROW)
}
