package vm

import "github.com/cjscript/cjc/runtime"

// forPrepOutOfRange reports whether a numeric for's start/limit/step
// already describe a zero-iteration range, per compiler/control.go's
// numericFor: OpForPrep is the loop's only range guard, so a true result
// here tells the caller to jump straight past the whole loop body.
func forPrepOutOfRange(start, limit, step runtime.Value) bool {
	sf, _ := asFloat(step)
	if sf == 0 {
		panic("'for' step is zero")
	}
	startF, _ := asFloat(start)
	limitF, _ := asFloat(limit)
	if sf > 0 {
		return startF > limitF
	}
	return startF < limitF
}

// forLoopStillInRange advances the control variable at regs[a] by its
// step and reports whether the advanced value is still within the limit,
// implementing OpForLoop's back-edge test.
func forLoopStillInRange(regs []*runtime.Value, a int) bool {
	next := arith('+', *regs[a], *regs[a+2])
	*regs[a] = next
	limit := *regs[a+1]
	step := *regs[a+2]
	nf, _ := asFloat(next)
	lf, _ := asFloat(limit)
	sf, _ := asFloat(step)
	if sf > 0 {
		return nf <= lf
	}
	return nf >= lf
}
