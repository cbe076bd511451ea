// Package vm implements the register machine that executes the bytecode
// package compiler emits: it instantiates closures, drives the fetch-
// decode-execute loop over bytecode.Instruction, and wires itself into
// package runtime's call-dispatch indirection so that runtime helpers can
// invoke user closures.
package vm

import (
	"fmt"

	"github.com/cjscript/cjc/bytecode"
	"github.com/cjscript/cjc/runtime"
)

func init() {
	runtime.CallClosure = callClosure
}

// NewMainClosure instantiates the top-level closure for a compiled chunk,
// binding its single upvalue (_ENV, seeded by compiler.Compile at index 0)
// to env.
func NewMainClosure(main *bytecode.Prototype, env *runtime.Table) *runtime.Closure {
	var envCell runtime.Value = env
	return &runtime.Closure{Proto: main, Upvals: []*runtime.Value{&envCell}}
}

// Run instantiates and executes chunk's main closure against a fresh
// global environment, recovering any runtime panic into an error.
func Run(chunk *bytecode.Chunk) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	env := runtime.NewGlobalEnv()
	main := NewMainClosure(chunk.Main, env)
	_, callErr := callClosure(main, nil)
	return callErr
}

// frame is one call's live register window plus its program counter.
// Every register is boxed in its own cell so that OpClosure can capture it
// as an upvalue by pointer; the compiler never emits OpClose (confirmed by
// its own emission sites always passing A=0), so cells are never severed
// from their register slot early — a deliberate scope match to what the
// compiler actually produces, recorded in DESIGN.md.
type frame struct {
	closure *runtime.Closure
	proto   *bytecode.Prototype
	regs    []*runtime.Value
	varargs []runtime.Value
	pc      int
}

func newFrame(cl *runtime.Closure, args []runtime.Value) *frame {
	proto := cl.Proto
	size := proto.MaxStack
	if proto.NumParams > size {
		size = proto.NumParams
	}
	if size < 1 {
		size = 1
	}
	regs := make([]*runtime.Value, size)
	for i := range regs {
		var v runtime.Value
		regs[i] = &v
	}

	fixed := proto.NumParams
	variadic := len(proto.Params) > 0 && proto.Params[len(proto.Params)-1].IsVariadic
	if variadic {
		fixed--
	}
	for i := 0; i < fixed; i++ {
		if i < len(args) {
			*regs[i] = args[i]
		}
	}
	var extra []runtime.Value
	if len(args) > fixed {
		extra = args[fixed:]
	}
	if variadic {
		*regs[proto.NumParams-1] = runtime.NewArray(extra)
	}

	return &frame{closure: cl, proto: proto, regs: regs, varargs: extra}
}

// callClosure runs cl against args to completion, returning its OpReturn
// results. It is registered as runtime.CallClosure so that package
// runtime's helpers (overload dispatch, class methods, iterators) can
// invoke user closures without runtime importing vm.
func callClosure(cl *runtime.Closure, args []runtime.Value) ([]runtime.Value, error) {
	f := newFrame(cl, args)
	return execute(f)
}

// callValue invokes any callable runtime.Value uniformly, used by OpCall/
// OpTailCall/OpSelf/OpTForCall so the VM doesn't special-case *Closure vs
// GoFunc vs *BoundMethod vs a __call-metatabled table.
func callValue(fn runtime.Value, args []runtime.Value) []runtime.Value {
	return runtime.CallGo(fn, args)
}
