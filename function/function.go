// Package function provides human-readable descriptions of compiled
// functions for the disassembler and REPL: a function's name and
// parameter list, read off a bytecode.Prototype/runtime.Closure pair
// rather than an AST node, since functions are compiled rather than
// walked.
package function

import (
	"fmt"
	"strings"

	"github.com/cjscript/cjc/bytecode"
	"github.com/cjscript/cjc/runtime"
)

// Signature renders a prototype's name and declared parameter list, e.g.
// "add(a, b, ...rest)".
func Signature(p *bytecode.Prototype) string {
	parts := make([]string, len(p.Params))
	for i, param := range p.Params {
		switch {
		case param.IsVariadic:
			parts[i] = "..." + param.Name
		case param.HasDefault:
			parts[i] = param.Name + "?"
		default:
			parts[i] = param.Name
		}
	}
	name := p.Name
	if name == "" {
		name = "<anonymous>"
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}

// Describe renders a closure's signature plus its captured-upvalue count,
// used by cjrepl when it prints a function-valued result.
func Describe(cl *runtime.Closure) string {
	sig := Signature(cl.Proto)
	if n := len(cl.Upvals); n > 0 {
		return fmt.Sprintf("<func %s, %d upvalue(s)>", sig, n)
	}
	return fmt.Sprintf("<func %s>", sig)
}
