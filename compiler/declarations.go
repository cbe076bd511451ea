package compiler

import (
	"fmt"

	"github.com/cjscript/cjc/bytecode"
	"github.com/cjscript/cjc/token"
)

// declareType registers name in the current compilation's definition set,
// raising if it's already taken.
func (c *Compiler) declareType(name string, line int) {
	if c.definedTypes[name] {
		c.throwAt(line, "'%s' already defined", name)
	}
	c.definedTypes[name] = true
}

// skipTypeParams discards an optional `< T, U, ... >` generic parameter
// list the same way skipType discards ordinary type annotations. A `<`
// followed by `:` opens a supertype clause instead and is left for
// parseSupertypeClause.
func (c *Compiler) skipTypeParams() {
	if !c.check(token.LT) || c.lookahead().Kind == token.COLON {
		return
	}
	c.next()
	depth := 1
	for depth > 0 {
		switch c.cur.Kind {
		case token.LT:
			depth++
		case token.GT:
			depth--
		case token.SHR:
			depth -= 2
		case token.EOF:
			c.throw("unterminated type parameter list")
		}
		c.next()
	}
}

// parseSupertypeClause parses an optional `<: Name [& Name]*` clause,
// surfacing as LT then COLON since there is no dedicated token for `<:`
// (the same situation as `<-`). first is the parent class for
// struct/class, or the first implemented interface for extend; rest are
// additional interfaces.
func (c *Compiler) parseSupertypeClause() (first string, rest []string, ok bool) {
	if !(c.check(token.LT) && c.lookahead().Kind == token.COLON) {
		return "", nil, false
	}
	c.next() // '<'
	c.next() // ':'
	first = c.expectIdent()
	for c.accept(token.AMP) {
		rest = append(rest, c.expectIdent())
	}
	return first, rest, true
}

var operatorTokenMeta = map[token.Kind]string{
	token.PLUS: "__add", token.MINUS: "__sub", token.STAR: "__mul", token.SLASH: "__div",
	token.PERCENT: "__mod", token.POW: "__pow", token.IDIV: "__idiv",
	token.AMP: "__band", token.PIPE: "__bor", token.CARET: "__bxor", token.TILDE: "__bnot",
	token.SHL: "__shl", token.SHR: "__shr",
	token.EQ: "__eq", token.LT: "__lt", token.LE: "__le",
	token.HASH: "__len", token.RANGE_EXCL: "__concat",
}

// operatorDeclName parses the symbol following `operator func` and maps it
// to its metamethod name. isMinus flags the one
// genuinely ambiguous case: `-` is `__sub` as a binary op but `__unm` as
// unary, which can only be resolved once the declared parameter count is
// known.
func (c *Compiler) operatorDeclName() (meta string, isMinus bool) {
	if c.check(token.LBRACKET) {
		c.next()
		c.expect(token.RBRACKET)
		return "__index", false
	}
	if c.check(token.IDENT) {
		name := c.expectIdent()
		if name != "toString" {
			c.throw("unsupported operator name '%s'", name)
		}
		return "__tostring", false
	}
	tok := c.next()
	meta, ok := operatorTokenMeta[tok.Kind]
	if !ok {
		c.throw("unsupported operator symbol")
	}
	return meta, tok.Kind == token.MINUS
}

// resolveMinusArity renames __sub to __unm when the just-closed operator
// method's declared parameter list was empty (implicit self only),
// disambiguating `operator func -()` (unary negate) from `operator func
// -(other)` (binary subtract).
func (c *Compiler) resolveMinusArity(meta string) string {
	proto := c.fs.proto.Protos[len(c.fs.proto.Protos)-1]
	if proto.NumParams <= 1 {
		return "__unm"
	}
	return meta
}

func isBuiltinTypeName(name string) bool {
	switch name {
	case "Int64", "Float64", "String", "Bool":
		return true
	}
	return false
}

// structOrClassDecl compiles `struct`/`class NAME [<Tparams>] [<: Parent [&
// Iface]*] { members }`, including the primary-constructor shorthand
// `NAME(let/var field: T, ...) { body }`.
func (c *Compiler) structOrClassDecl(isClass bool) {
	line := c.cur.Line
	if isClass {
		c.expect(token.CLASS)
	} else {
		c.expect(token.STRUCT)
	}
	name := c.expectIdent()
	c.declareType(name, line)
	c.skipTypeParams()
	parent, ifaces, _ := c.parseSupertypeClause()

	k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: name})
	env := c.fs.envUpval()
	classReg := c.fs.reserveReg(1)
	c.fs.emit(bytecode.OpNewTable, classReg, 0, 0, line)
	c.fs.emit(bytecode.OpSetTabUp, env, k, classReg, line)
	idxK := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: "__index"})
	c.fs.emit(bytecode.OpSetField, classReg, idxK, classReg, line)

	savedThis, savedInMethod, savedClassName := c.thisFields, c.inStructMethod, c.currentClassName
	c.thisFields = append([]string(nil), c.classFields[parent]...)
	c.inStructMethod = true
	c.currentClassName = name

	hasInit := false
	var varFields []string

	if c.check(token.LPAREN) {
		c.primaryCtorDecl(classReg, line)
		hasInit = true
	} else {
		braceLine := c.cur.Line
		c.expect(token.LBRACE)
		for !c.check(token.RBRACE) {
			memberLine := c.cur.Line
			switch c.cur.Kind {
			case token.STATIC:
				c.next()
				c.expect(token.FUNC)
				mname := c.expectIdent()
				closureReg := c.compileFunctionBody(mname, false, false)
				mk := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: mname})
				c.fs.emit(bytecode.OpSetField, classReg, mk, closureReg, memberLine)
				flagK := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: "__static_" + mname})
				trueReg := c.loadBoolConst(true, memberLine)
				c.fs.emit(bytecode.OpSetField, classReg, flagK, trueReg, memberLine)
			case token.OPERATOR:
				c.next()
				c.expect(token.FUNC)
				meta, isMinus := c.operatorDeclName()
				closureReg := c.compileFunctionBody(meta, true, false)
				if isMinus {
					meta = c.resolveMinusArity(meta)
				}
				mk := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: meta})
				c.fs.emit(bytecode.OpSetField, classReg, mk, closureReg, memberLine)
			case token.INIT:
				c.next()
				closureReg := c.compileInitBody(memberLine)
				mk := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: "init"})
				c.fs.emit(bytecode.OpSetField, classReg, mk, closureReg, memberLine)
				hasInit = true
			case token.FUNC:
				c.next()
				mname := c.expectIdent()
				closureReg := c.compileFunctionBody(mname, true, false)
				c.thisFields = append(c.thisFields, mname)
				mk := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: mname})
				c.fs.emit(bytecode.OpSetField, classReg, mk, closureReg, memberLine)
			case token.LET, token.VAR:
				isVar := c.cur.Kind == token.VAR
				c.next()
				fname := c.expectIdent()
				if c.accept(token.COLON) {
					c.skipTypeAnnotation()
				}
				c.thisFields = append(c.thisFields, fname)
				if isVar {
					varFields = append(varFields, fname)
				}
				if c.accept(token.ASSIGN) {
					val := c.expr()
					fk := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: fname})
					c.fs.emit(bytecode.OpSetField, classReg, fk, val, memberLine)
					c.fs.freeTo(c.fs.nactvar)
				}
			default:
				c.throw("unexpected class/struct member")
			}
		}
		c.expectMatch(token.RBRACE, token.LBRACE, braceLine)
	}

	if parent != "" {
		parentVal := c.resolveName(parent, line)
		c.emitRuntimeCallN("__cangjie_set_parent", []int{classReg, parentVal}, 0, line)
	}
	for _, iface := range ifaces {
		ifaceVal := c.resolveName(iface, line)
		c.emitRuntimeCallN("__cangjie_apply_interface", []int{classReg, ifaceVal}, 0, line)
	}
	c.emitRuntimeCallN("__cangjie_setup_class", []int{classReg}, 0, line)

	if !hasInit && len(varFields) > 0 {
		for i, f := range varFields {
			fk := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: fmt.Sprintf("__field_%d", i+1)})
			nameReg := c.loadConstString(f, line)
			c.fs.emit(bytecode.OpSetField, classReg, fk, nameReg, line)
		}
		nReg := c.loadConstInt(int64(len(varFields)), line)
		nfK := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: "__nfields"})
		c.fs.emit(bytecode.OpSetField, classReg, nfK, nReg, line)
	}

	c.classFields[name] = c.thisFields
	c.thisFields, c.inStructMethod, c.currentClassName = savedThis, savedInMethod, savedClassName
	c.fs.freeTo(classReg + 1)
}

// primaryCtorDecl compiles the `NAME(let/var field: T, ...) { body }`
// constructor shorthand: every let/var parameter becomes both a
// constructor argument and a field assignment, the optional brace body
// runs afterward, and `self` is auto-returned.
func (c *Compiler) primaryCtorDecl(classReg, line int) {
	outer := c.fs
	fs := c.openFunc(outer, "init", false)
	fs.newLocal("self", VarReg)

	c.expect(token.LPAREN)
	var fields []string
	for !c.check(token.RPAREN) {
		if c.check(token.VAR) {
			c.next()
		} else {
			c.expect(token.LET)
		}
		pname := c.expectIdent()
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
		fields = append(fields, pname)
		c.thisFields = append(c.thisFields, pname)
		if !c.accept(token.COMMA) {
			break
		}
	}
	c.expectMatch(token.RPAREN, token.LPAREN, line)
	fs.proto.NumParams = fs.nactvar

	const selfReg = 0
	for _, f := range fields {
		lv, _ := fs.findLocal(f)
		fk := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: f})
		c.fs.emit(bytecode.OpSetField, selfReg, fk, lv.reg, line)
	}

	if c.check(token.LBRACE) {
		braceLine := c.cur.Line
		c.next()
		c.statList(token.RBRACE)
		c.expectMatch(token.RBRACE, token.LBRACE, braceLine)
	}
	c.fs.emit(bytecode.OpReturn, selfReg, 2, 0, c.cur.Line)
	closureReg := c.closeAndEmitClosure(line)

	mk := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: "init"})
	c.fs.emit(bytecode.OpSetField, classReg, mk, closureReg, line)
}

// compileInitBody compiles `init(params) { body }`, auto-appending `return
// self` the way every instantiation path expects.
func (c *Compiler) compileInitBody(line int) int {
	outer := c.fs
	fs := c.openFunc(outer, "init", false)
	fs.newLocal("self", VarReg)

	c.expect(token.LPAREN)
	for !c.check(token.RPAREN) {
		pname := c.expectIdent()
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

	braceLine := c.cur.Line
	c.expect(token.LBRACE)
	c.statList(token.RBRACE)
	c.expectMatch(token.RBRACE, token.LBRACE, braceLine)

	const selfReg = 0
	c.fs.emit(bytecode.OpReturn, selfReg, 2, 0, c.cur.Line)
	return c.closeAndEmitClosure(line)
}

// looksLikeMethodBody probes past an interface method's parameter list (and
// optional return type) to see whether a `{` body follows, distinguishing
// a concrete method from an abstract declaration.
func (c *Compiler) looksLikeMethodBody() bool {
	snap := c.snapshot()
	defer c.restore(snap)
	if !c.check(token.LPAREN) {
		return false
	}
	c.next()
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
	if c.accept(token.COLON) {
		c.skipTypeAnnotation()
	}
	return c.check(token.LBRACE)
}

// skipAbstractSignature consumes an interface method's parameter list and
// optional return type for real, without opening a function body, when
// looksLikeMethodBody reported no `{` follows.
func (c *Compiler) skipAbstractSignature() {
	line := c.cur.Line
	c.expect(token.LPAREN)
	for !c.check(token.RPAREN) {
		c.expectIdent()
		if c.accept(token.COLON) {
			c.skipTypeAnnotation()
		}
		if !c.accept(token.COMMA) {
			break
		}
	}
	c.expectMatch(token.RPAREN, token.LPAREN, line)
	if c.accept(token.COLON) {
		c.skipTypeAnnotation()
	}
}

// interfaceDecl compiles `interface NAME [<Tparams>] { method_decls }`: a
// plain table populated with whichever declarations have bodies.
func (c *Compiler) interfaceDecl() {
	line := c.cur.Line
	c.expect(token.INTERFACE)
	name := c.expectIdent()
	c.declareType(name, line)
	c.skipTypeParams()

	k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: name})
	env := c.fs.envUpval()
	ifaceReg := c.fs.reserveReg(1)
	c.fs.emit(bytecode.OpNewTable, ifaceReg, 0, 0, line)
	c.fs.emit(bytecode.OpSetTabUp, env, k, ifaceReg, line)

	braceLine := c.cur.Line
	c.expect(token.LBRACE)
	for !c.check(token.RBRACE) {
		memberLine := c.cur.Line
		isOperator := c.accept(token.OPERATOR)
		c.expect(token.FUNC)
		var mname string
		var isMinus bool
		if isOperator {
			mname, isMinus = c.operatorDeclName()
		} else {
			mname = c.expectIdent()
		}
		if !c.looksLikeMethodBody() {
			c.skipAbstractSignature()
			continue
		}
		closureReg := c.compileFunctionBody(mname, true, false)
		if isMinus {
			mname = c.resolveMinusArity(mname)
		}
		mk := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: mname})
		c.fs.emit(bytecode.OpSetField, ifaceReg, mk, closureReg, memberLine)
	}
	c.expectMatch(token.RBRACE, token.LBRACE, braceLine)
	c.fs.freeTo(ifaceReg + 1)
}

// extendDecl compiles `extend NAME [<Tparams>] [<: Iface [& Iface]*] {
// members }`. Built-in value types get a proxy table installed through
// __cangjie_extend_type; user-defined types have methods stored directly
// on the existing type table.
func (c *Compiler) extendDecl() {
	line := c.cur.Line
	c.expect(token.EXTEND)
	name := c.expectIdent()
	c.skipTypeParams()
	first, rest, hasSuper := c.parseSupertypeClause()
	var ifaces []string
	if hasSuper {
		ifaces = append(append(ifaces, first), rest...)
	}

	builtin := isBuiltinTypeName(name)
	var targetReg int
	if builtin {
		targetReg = c.fs.reserveReg(1)
		c.fs.emit(bytecode.OpNewTable, targetReg, 0, 0, line)
	} else {
		targetReg = c.resolveName(name, line)
	}

	braceLine := c.cur.Line
	c.expect(token.LBRACE)
	for !c.check(token.RBRACE) {
		memberLine := c.cur.Line
		isOperator := c.accept(token.OPERATOR)
		c.expect(token.FUNC)
		var mname string
		var isMinus bool
		if isOperator {
			mname, isMinus = c.operatorDeclName()
		} else {
			mname = c.expectIdent()
		}
		closureReg := c.compileFunctionBody(mname, true, false)
		if isMinus {
			mname = c.resolveMinusArity(mname)
		}
		mk := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: mname})
		c.fs.emit(bytecode.OpSetField, targetReg, mk, closureReg, memberLine)
	}
	c.expectMatch(token.RBRACE, token.LBRACE, braceLine)

	for _, iface := range ifaces {
		ifaceVal := c.resolveName(iface, line)
		c.emitRuntimeCallN("__cangjie_apply_interface", []int{targetReg, ifaceVal}, 0, line)
	}
	if builtin {
		nameReg := c.loadConstString(name, line)
		c.emitRuntimeCallN("__cangjie_extend_type", []int{nameReg, targetReg}, 0, line)
	}
	c.fs.freeTo(targetReg + 1)
}
