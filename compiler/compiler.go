// Package compiler implements the single-pass recursive-descent
// parser/bytecode-emitter for Cangjie source: it reads
// tokens from lexer.Lexer and emits bytecode.Instruction values directly
// into the enclosing FuncState's bytecode.Prototype, with no intervening
// AST.
package compiler

import (
	"fmt"

	"github.com/cjscript/cjc/bytecode"
	"github.com/cjscript/cjc/lexer"
	"github.com/cjscript/cjc/token"
)

// SyntaxError is raised for any parse failure: unexpected token, missing
// delimiter, duplicate variable, type redefinition, assignment to a
// read-only binding, and so on. It is the Go analogue of the
// C sources' longjmp-based LUA_ERRSYNTAX unwind: Compile recovers exactly
// one of these and returns it as an error.
type SyntaxError struct {
	Chunk   string
	Line    int
	Msg     string
	Near    string
	ToClose string // e.g. "(to close '{' at line N)"
}

func (e *SyntaxError) Error() string {
	s := fmt.Sprintf("%s:%d: %s", e.Chunk, e.Line, e.Msg)
	if e.Near != "" {
		s += fmt.Sprintf(" near '%s'", e.Near)
	}
	if e.ToClose != "" {
		s += " " + e.ToClose
	}
	return s
}

// unwind is the internal panic value used to abandon a compile on the
// first error, mirroring a single never-recovered error path.
type unwind struct{ err *SyntaxError }

// Compiler is the parser-wide state (LexState, in the reference Lua
// compiler's terms): the token stream, the innermost FuncState, and the
// implicit-`this`/type-redefinition bookkeeping threaded through every
// parsing routine as a single owned
// struct.
type Compiler struct {
	lex   *lexer.Lexer
	chunk string

	cur   token.Token
	ahead token.Token
	haveAhead bool

	fs *FuncState

	// definedTypes guards against redeclaring a struct/class/interface/enum
	// name already present in the current scope.
	definedTypes map[string]bool

	// classFields records each declared class's field names, so that a
	// subclass can inherit implicit-`this` resolution for inherited fields.
	classFields map[string][]string

	// thisFields/inStructMethod/currentClassName implement implicit-`this`
	// and `super` dispatch while compiling a struct/class/enum method body.
	thisFields     []string
	inStructMethod bool
	currentClassName string
}

// Compile parses src (named chunk for diagnostics) and returns the main
// chunk's compiled prototype, or a *SyntaxError/*lexer.LexError. This is
// the single compiler entry point.
func Compile(src, chunk string) (proto *bytecode.Chunk, err error) {
	c := &Compiler{
		lex:          lexer.New(src, chunk),
		chunk:        chunk,
		definedTypes: make(map[string]bool),
		classFields:  make(map[string][]string),
	}

	defer func() {
		if r := recover(); r != nil {
			if u, ok := r.(unwind); ok {
				err = u.err
				return
			}
			panic(r)
		}
	}()

	if e := c.primeTokens(); e != nil {
		return nil, e
	}

	main := c.openFunc(nil, "main chunk", true)
	main.proto.Upvalues = append(main.proto.Upvalues, bytecode.UpvalDesc{Name: "_ENV", InStack: false, Index: 0})

	c.statList(stopAtEOF)
	c.expect(token.EOF)
	c.closeFunc()

	return &bytecode.Chunk{Name: chunk, Main: main.proto}, nil
}

func (c *Compiler) primeTokens() error {
	tok, err := c.lex.Next()
	if err != nil {
		return err
	}
	c.cur = tok
	return nil
}

// throw raises a SyntaxError and unwinds to Compile's recover.
func (c *Compiler) throw(format string, args ...interface{}) {
	panic(unwind{&SyntaxError{Chunk: c.chunk, Line: c.cur.Line, Msg: fmt.Sprintf(format, args...), Near: c.cur.String()}})
}

func (c *Compiler) throwAt(line int, format string, args ...interface{}) {
	panic(unwind{&SyntaxError{Chunk: c.chunk, Line: line, Msg: fmt.Sprintf(format, args...)}})
}

// next consumes the current token and advances, pulling from the
// single-slot lookahead if the parser previously peeked.
func (c *Compiler) next() token.Token {
	t := c.cur
	if c.haveAhead {
		c.cur = c.ahead
		c.haveAhead = false
	} else {
		tok, err := c.lex.Next()
		if err != nil {
			c.throwLex(err)
		}
		c.cur = tok
	}
	return t
}

// lookahead peeks one token beyond cur without consuming it.
func (c *Compiler) lookahead() token.Token {
	if !c.haveAhead {
		tok, err := c.lex.Next()
		if err != nil {
			c.throwLex(err)
		}
		c.ahead = tok
		c.haveAhead = true
	}
	return c.ahead
}

func (c *Compiler) throwLex(err error) {
	panic(unwind{&SyntaxError{Chunk: c.chunk, Line: c.cur.Line, Msg: err.Error()}})
}

func (c *Compiler) check(k token.Kind) bool { return c.cur.Kind == k }

func (c *Compiler) accept(k token.Kind) bool {
	if c.cur.Kind == k {
		c.next()
		return true
	}
	return false
}

func (c *Compiler) expect(k token.Kind) token.Token {
	if c.cur.Kind != k {
		c.throw("'%s' expected", k)
	}
	return c.next()
}

// expectMatch expects closer, reporting the opener's line if it is
// missing.
func (c *Compiler) expectMatch(closer, opener token.Kind, openerLine int) token.Token {
	if c.cur.Kind != closer {
		if openerLine == c.cur.Line {
			c.throw("'%s' expected", closer)
		}
		panic(unwind{&SyntaxError{
			Chunk: c.chunk, Line: c.cur.Line,
			Msg:     fmt.Sprintf("'%s' expected", closer),
			Near:    c.cur.String(),
			ToClose: fmt.Sprintf("(to close '%s' at line %d)", opener, openerLine),
		}})
	}
	return c.next()
}

func (c *Compiler) expectIdent() string {
	if c.cur.Kind != token.IDENT {
		c.throw("<name> expected")
	}
	tok := c.next()
	return tok.Str
}
