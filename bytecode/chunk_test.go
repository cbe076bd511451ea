package bytecode

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAddConstDedupes(t *testing.T) {
	p := &Prototype{}
	i1 := p.AddConst(Const{Kind: ConstString, Str: "hello"})
	i2 := p.AddConst(Const{Kind: ConstString, Str: "hello"})
	i3 := p.AddConst(Const{Kind: ConstString, Str: "world"})
	if i1 != i2 {
		t.Fatalf("expected identical constants to share a pool slot, got %d and %d", i1, i2)
	}
	if i3 == i1 {
		t.Fatalf("expected distinct constants to get distinct slots")
	}
}

func TestEmitTracksMaxStack(t *testing.T) {
	p := &Prototype{}
	p.Emit(Instruction{Op: OpLoadK, A: 0})
	p.Emit(Instruction{Op: OpLoadK, A: 3})
	if p.MaxStack != 4 {
		t.Fatalf("MaxStack = %d, want 4", p.MaxStack)
	}
}

func TestPatchJump(t *testing.T) {
	p := &Prototype{}
	jmp := p.Emit(Instruction{Op: OpJmp})
	p.Emit(Instruction{Op: OpLoadNil})
	p.Emit(Instruction{Op: OpLoadNil})
	p.PatchJump(jmp, len(p.Code))
	if p.Code[jmp].C != 2 {
		t.Fatalf("patched offset = %d, want 2", p.Code[jmp].C)
	}
}

// buildSample exercises a representative slice of the instruction set so
// the determinism test below has something nontrivial to diff.
func buildSample() *Prototype {
	p := &Prototype{Source: "t", MaxStack: 2}
	k := p.AddConst(Const{Kind: ConstString, Str: "x"})
	p.Emit(Instruction{Op: OpGetTabUp, A: 0, B: 0, C: k, Line: 1})
	p.Emit(Instruction{Op: OpReturn, A: 0, B: 1, Line: 1})
	return p
}

// TestDeterminism checks that compiling (here, constructing) the same
// logical program twice yields an identical instruction stream, constant
// table, and line-info list.
func TestDeterminism(t *testing.T) {
	a := buildSample()
	b := buildSample()
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("prototype differs across identical builds (-want +got):\n%s", diff)
	}
}
