package compiler

import (
	"github.com/cjscript/cjc/bytecode"
	"github.com/cjscript/cjc/token"
)

// enumCtorInfo is one parsed `| Name [(T, ...)]` variant declaration.
type enumCtorInfo struct {
	name  string
	arity int
}

// enumDecl compiles `enum NAME [<Tparams>] { | Ctor1 [(T, ...)] | Ctor2 ...
// [func/operator func members] }`. Nullary constructors become plain
// tagged-table values; constructors with a payload become factory
// functions that build a tagged table from their arguments, with 1-based
// payload indexing matching a match pattern's `patCtor` reads.
func (c *Compiler) enumDecl() {
	line := c.cur.Line
	c.expect(token.ENUM)
	name := c.expectIdent()
	c.declareType(name, line)
	c.skipTypeParams()

	k := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: name})
	env := c.fs.envUpval()
	enumReg := c.fs.reserveReg(1)
	c.fs.emit(bytecode.OpNewTable, enumReg, 0, 0, line)
	c.fs.emit(bytecode.OpSetTabUp, env, k, enumReg, line)

	braceLine := c.cur.Line
	c.expect(token.LBRACE)

	var ctors []enumCtorInfo
	for c.accept(token.PIPE) {
		ctorLine := c.cur.Line
		ctorName := c.expectIdent()
		arity := 0
		if c.accept(token.LPAREN) {
			for !c.check(token.RPAREN) {
				c.skipTypeAnnotation()
				arity++
				if !c.accept(token.COMMA) {
					break
				}
			}
			c.expectMatch(token.RPAREN, token.LPAREN, ctorLine)
		}
		ctors = append(ctors, enumCtorInfo{ctorName, arity})
	}

	tagK := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: "__tag"})
	enumK := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: "__enum"})
	nargsK := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: "__nargs"})

	for _, ct := range ctors {
		ctorK := c.fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: ct.name})
		if ct.arity == 0 {
			valReg := c.fs.reserveReg(1)
			c.fs.emit(bytecode.OpNewTable, valReg, 0, 3, line)
			tagNameReg := c.loadConstString(ct.name, line)
			c.fs.emit(bytecode.OpSetField, valReg, tagK, tagNameReg, line)
			enumNameReg := c.loadConstString(name, line)
			c.fs.emit(bytecode.OpSetField, valReg, enumK, enumNameReg, line)
			zeroReg := c.loadConstInt(0, line)
			c.fs.emit(bytecode.OpSetField, valReg, nargsK, zeroReg, line)
			c.fs.emit(bytecode.OpSetField, enumReg, ctorK, valReg, line)
			c.fs.emit(bytecode.OpSetTabUp, env, ctorK, valReg, line)
			c.fs.freeTo(valReg)
		} else {
			factoryReg := c.compileEnumFactory(name, ct.name, ct.arity, tagK, enumK, nargsK, line)
			c.fs.emit(bytecode.OpSetField, enumReg, ctorK, factoryReg, line)
			c.fs.emit(bytecode.OpSetTabUp, env, ctorK, factoryReg, line)
		}
	}

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
		c.fs.emit(bytecode.OpSetField, enumReg, mk, closureReg, memberLine)
	}
	c.expectMatch(token.RBRACE, token.LBRACE, braceLine)

	c.emitRuntimeCallN("__cangjie_setup_enum", []int{enumReg}, 0, line)
	c.fs.freeTo(enumReg + 1)
}

// compileEnumFactory builds the nested function backing a constructor with
// a payload: `func(a1, ..., aN) { let v = {__tag=.., __enum=.., __nargs=N,
// [1]=a1, ..., [N]=aN}; __cangjie_enum_attach(v, EnumTable); return v }`.
func (c *Compiler) compileEnumFactory(enumName, ctorName string, arity int, tagK, enumK, nargsK, line int) int {
	outer := c.fs
	fs := c.openFunc(outer, ctorName, false)
	var params []int
	for i := 0; i < arity; i++ {
		pname := paramName(i)
		reg := fs.newLocal(pname, VarReg)
		params = append(params, reg)
		fs.proto.Params = append(fs.proto.Params, bytecode.ParamInfo{Name: pname})
	}
	fs.proto.NumParams = fs.nactvar

	// The key constants are re-added here: the indices passed in belong to
	// the enclosing prototype's constant table, not this one's.
	tagK = fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: "__tag"})
	enumK = fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: "__enum"})
	nargsK = fs.proto.AddConst(bytecode.Const{Kind: bytecode.ConstString, Str: "__nargs"})

	valReg := fs.reserveReg(1)
	fs.emit(bytecode.OpNewTable, valReg, arity, 3, line)
	tagNameReg := c.loadConstString(ctorName, line)
	fs.emit(bytecode.OpSetField, valReg, tagK, tagNameReg, line)
	enumNameReg := c.loadConstString(enumName, line)
	fs.emit(bytecode.OpSetField, valReg, enumK, enumNameReg, line)
	nargsReg := c.loadConstInt(int64(arity), line)
	fs.emit(bytecode.OpSetField, valReg, nargsK, nargsReg, line)
	for i, p := range params {
		fs.emit(bytecode.OpSetIndexI, valReg, i+1, p, line)
	}
	// The enum type's own name is bound as a global to the enum descriptor
	// table itself (see enumDecl's OpSetTabUp(env, k=name, enumReg)), so a
	// plain global lookup reaches it from here even though this factory is
	// a separate nested function. Attaching the dispatch metatable per
	// call is the only option: each call builds a fresh table, unlike the
	// nullary variants cangjieSetupEnum already sees at declaration time.
	enumTableReg := fs.reserveReg(1)
	c.loadGlobalInto(enumTableReg, enumName, line)
	c.emitRuntimeCallN("__cangjie_enum_attach", []int{valReg, enumTableReg}, 0, line)
	fs.emit(bytecode.OpReturn, valReg, 2, 0, line)
	return c.closeAndEmitClosure(line)
}

func paramName(i int) string {
	letters := "abcdefghijklmnopqrstuvwxyz"
	if i < len(letters) {
		return string(letters[i])
	}
	return string(letters[i%len(letters)]) + string(rune('0'+i/len(letters)))
}
