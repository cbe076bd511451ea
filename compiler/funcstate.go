package compiler

import "github.com/cjscript/cjc/bytecode"

// VarKind classifies a local binding.
type VarKind int

const (
	VarReg     VarKind = iota // regular mutable local
	VarConst                  // `let` — read-only
	VarCTC                    // compile-time constant folded into the constant table
	VarTBC                    // <close> to-be-closed
	VarVararg                 // vararg parameter
)

type localVar struct {
	name string
	kind VarKind
	reg  int
}

// blockCnt is one lexically nested block's bookkeeping: where its locals
// start, and (for loops) the jump lists break/continue patch into.
type blockCnt struct {
	firstLocal int
	isLoop     bool
	breakJumps []int
	// continueJumps are the jumps emitted by continue; patched to the
	// loop's continue point once the loop has been emitted.
	continueJumps []int
	hasTBC        bool
	parent        *blockCnt
}

// FuncState is the per-function single-pass compiler state: program
// counter (implicit in proto.Code), next free register, active locals,
// upvalues, and the nested-block stack.
type FuncState struct {
	prev *FuncState
	c    *Compiler

	proto *bytecode.Prototype

	nactvar int // number of active locals
	freereg int // next free register

	locals []localVar
	block  *blockCnt

	// matchJumps accumulates "this match arm didn't apply" jumps for the
	// pattern-matching engine to patch once every case has been emitted.
	matchJumps []int
}

func (c *Compiler) openFunc(prev *FuncState, name string, vararg bool) *FuncState {
	fs := &FuncState{
		prev: prev,
		c:    c,
		proto: &bytecode.Prototype{
			Source:   c.chunk,
			Name:     name,
			IsVararg: vararg,
		},
	}
	c.fs = fs
	return fs
}

func (c *Compiler) closeFunc() *bytecode.Prototype {
	fs := c.fs
	fs.proto.Emit(bytecode.Instruction{Op: bytecode.OpReturn, A: 0, B: 1, Line: c.cur.Line})
	c.fs = fs.prev
	return fs.proto
}

// reserveReg allocates n consecutive fresh registers, returning the first.
func (fs *FuncState) reserveReg(n int) int {
	r := fs.freereg
	fs.freereg += n
	if fs.freereg > fs.proto.MaxStack {
		fs.proto.MaxStack = fs.freereg
	}
	return r
}

// freeTo releases temporaries back down to reg, enforcing the
// freereg==nactvar statement-boundary invariant.
func (fs *FuncState) freeTo(reg int) {
	if reg < fs.nactvar {
		reg = fs.nactvar
	}
	fs.freereg = reg
}

func (fs *FuncState) emit(op bytecode.Op, a, b, cc, line int) int {
	return fs.proto.Emit(bytecode.Instruction{Op: op, A: a, B: b, C: cc, Line: line})
}

// newLocal declares name in the current block, allocating it the next
// register and marking it active.
func (fs *FuncState) newLocal(name string, kind VarKind) int {
	reg := fs.reserveReg(1)
	fs.locals = append(fs.locals, localVar{name: name, kind: kind, reg: reg})
	fs.nactvar++
	fs.proto.Locals = append(fs.proto.Locals, bytecode.LocVar{Name: name, StartPC: len(fs.proto.Code), Reg: reg})
	return reg
}

// bindLocalFrom declares name as a new local holding a copy of srcReg,
// landing it at register nactvar (the canonical next local slot) rather
// than wherever srcReg happens to sit. Pattern bindings compute their
// value into a temporary above any live locals (past a tag test, a tuple
// element fetch, ...); allocating the local there the way newLocal does
// would leave freereg above nactvar, and the caller's next freeTo(nactvar)
// would strand it for a later local to clobber. Compacting the bind here
// keeps every active local contiguous in 0..nactvar-1.
func (fs *FuncState) bindLocalFrom(name string, kind VarKind, srcReg, line int) int {
	reg := fs.nactvar
	if fs.freereg <= reg {
		fs.freereg = reg + 1
	}
	fs.emit(bytecode.OpMove, reg, srcReg, 0, line)
	fs.locals = append(fs.locals, localVar{name: name, kind: kind, reg: reg})
	fs.nactvar++
	fs.proto.Locals = append(fs.proto.Locals, bytecode.LocVar{Name: name, StartPC: len(fs.proto.Code), Reg: reg})
	return reg
}

// findLocal searches this function's active locals only (innermost
// first), for implicit-`this`/shadowing checks and plain name resolution.
func (fs *FuncState) findLocal(name string) (*localVar, bool) {
	for i := fs.nactvar - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			return &fs.locals[i], true
		}
	}
	return nil, false
}

// declaredInBlock reports whether name is already bound inside the
// current (innermost) block, used for the "no redeclaration within the
// same lexical block" invariant.
func (fs *FuncState) declaredInBlock(name string) bool {
	first := 0
	if fs.block != nil {
		first = fs.block.firstLocal
	}
	for i := fs.nactvar - 1; i >= first; i-- {
		if fs.locals[i].name == name {
			return true
		}
	}
	return false
}

func (fs *FuncState) enterBlock(isLoop bool) *blockCnt {
	b := &blockCnt{firstLocal: fs.nactvar, isLoop: isLoop, parent: fs.block}
	fs.block = b
	return b
}

// leaveBlock releases every local declared since the block opened,
// reclaiming their registers.
func (fs *FuncState) leaveBlock() {
	b := fs.block
	endPC := len(fs.proto.Code)
	for i := fs.nactvar - 1; i >= b.firstLocal; i-- {
		fs.proto.Locals[fs.localDebugIndex(i)].EndPC = endPC
	}
	fs.nactvar = b.firstLocal
	fs.locals = fs.locals[:b.firstLocal]
	fs.freeTo(b.firstLocal)
	fs.block = b.parent
}

// localDebugIndex maps an active-local slot to its entry in proto.Locals:
// the latest still-open entry with the same name and register. The two
// slices do not share indices, since leaveBlock drops locals from
// fs.locals while proto.Locals keeps every entry.
func (fs *FuncState) localDebugIndex(activeIdx int) int {
	lv := fs.locals[activeIdx]
	for i := len(fs.proto.Locals) - 1; i >= 0; i-- {
		d := fs.proto.Locals[i]
		if d.Name == lv.name && d.Reg == lv.reg && d.EndPC == 0 {
			return i
		}
	}
	return activeIdx
}

// resolveUpval finds or creates an upvalue in fs capturing name from an
// enclosing function, recursing outward and allocating new upvalue slots
// on the way back in.
func (fs *FuncState) resolveUpval(name string) (int, bool) {
	for i, uv := range fs.proto.Upvalues {
		if uv.Name == name {
			return i, true
		}
	}
	if fs.prev == nil {
		return 0, false
	}
	if lv, ok := fs.prev.findLocal(name); ok {
		fs.proto.Upvalues = append(fs.proto.Upvalues, bytecode.UpvalDesc{Name: name, InStack: true, Index: lv.reg})
		return len(fs.proto.Upvalues) - 1, true
	}
	if idx, ok := fs.prev.resolveUpval(name); ok {
		fs.proto.Upvalues = append(fs.proto.Upvalues, bytecode.UpvalDesc{Name: name, InStack: false, Index: idx})
		return len(fs.proto.Upvalues) - 1, true
	}
	return 0, false
}

// envUpval returns (creating if needed) the _ENV upvalue index used for
// global variable access.
func (fs *FuncState) envUpval() int {
	if idx, ok := fs.resolveUpval("_ENV"); ok {
		return idx
	}
	// The main chunk always has _ENV as upvalue 0; nested functions reach
	// it through resolveUpval's recursive capture above. This fallback only
	// triggers if resolution somehow missed it, which would be a bug.
	fs.proto.Upvalues = append(fs.proto.Upvalues, bytecode.UpvalDesc{Name: "_ENV", InStack: false, Index: 0})
	return len(fs.proto.Upvalues) - 1
}
