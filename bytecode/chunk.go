package bytecode

// ConstKind tags the type of a constant-pool entry.
type ConstKind uint8

const (
	ConstNil ConstKind = iota
	ConstBool
	ConstInt
	ConstFloat
	ConstString
)

// Const is one entry of a Prototype's constant pool.
type Const struct {
	Kind ConstKind
	Bool bool
	Int  int64
	Flt  float64
	Str  string
}

// LocVar is per-local debug info: the variable's name and the instruction
// range over which its register holds that variable.
type LocVar struct {
	Name    string
	StartPC int
	EndPC   int
	Reg     int
}

// UpvalDesc describes how a nested prototype's upvalue is captured: either
// from a register in the enclosing function (InStack=true) or from one of
// the enclosing function's own upvalues.
type UpvalDesc struct {
	Name    string
	InStack bool
	Index   int
}

// ParamInfo records one formal parameter's name and whether it has a
// default-value expression compiled into the prototype's body prologue;
// __cangjie_named_call and __cangjie_overload read this to place named
// arguments and to decide arity compatibility.
type ParamInfo struct {
	Name       string
	HasDefault bool
	IsVariadic bool
}

// Prototype is an immutable function template: its instruction stream,
// constant pool, nested prototypes, and debug tables. The VM instantiates closures from a Prototype by
// pairing it with captured upvalues.
type Prototype struct {
	Source    string
	Name      string // empty for the main chunk
	LineStart int
	NumParams int
	IsVararg  bool
	MaxStack  int

	Code      []Instruction
	Constants []Const
	Protos    []*Prototype
	Upvalues  []UpvalDesc
	Locals    []LocVar
	Params    []ParamInfo

	// LineInfo[i] is the source line of Code[i]; kept for VM runtime
	// errors even though Instruction.Line already carries it (mirrors the
	// split line-info array of the Lua sources).
	LineInfo []int
}

// AddConst interns a constant, returning its pool index. Compiler code
// calls this rather than appending directly so that identical literals
// share one constant-pool slot, the usual constant-folding behavior for
// a register-VM compiler.
func (p *Prototype) AddConst(c Const) int {
	for i, existing := range p.Constants {
		if existing.Kind == c.Kind {
			switch c.Kind {
			case ConstNil:
				return i
			case ConstBool:
				if existing.Bool == c.Bool {
					return i
				}
			case ConstInt:
				if existing.Int == c.Int {
					return i
				}
			case ConstFloat:
				if existing.Flt == c.Flt {
					return i
				}
			case ConstString:
				if existing.Str == c.Str {
					return i
				}
			}
		}
	}
	p.Constants = append(p.Constants, c)
	return len(p.Constants) - 1
}

// Emit appends an instruction and returns its program counter (index),
// used by the compiler to remember jump-patch sites.
func (p *Prototype) Emit(i Instruction) int {
	p.Code = append(p.Code, i)
	p.LineInfo = append(p.LineInfo, i.Line)
	if i.A+1 > p.MaxStack {
		p.MaxStack = i.A + 1
	}
	return len(p.Code) - 1
}

// PatchJump rewrites a previously-emitted jump's offset once its target
// is known, implementing the "jump patching over an append-only
// instruction buffer" pattern.
func (p *Prototype) PatchJump(pc int, target int) {
	p.Code[pc].C = target - pc - 1
}

// Chunk is the top-level compiled unit returned by compiler.Compile: the
// main prototype plus the chunk's diagnostic name.
type Chunk struct {
	Name string
	Main *Prototype
}
