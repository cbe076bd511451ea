package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders a chunk's main prototype and every nested prototype,
// depth-first, as a human-readable listing for the `cjc disasm` subcommand.
func Disassemble(chunk *Chunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "; chunk %s\n", chunk.Name)
	disasmProto(&b, chunk.Main, 0)
	return b.String()
}

func disasmProto(b *strings.Builder, p *Prototype, depth int) {
	indent := strings.Repeat("  ", depth)
	name := p.Name
	if name == "" {
		name = "main"
	}
	fmt.Fprintf(b, "%sfunction %s(params=%d, vararg=%v, maxstack=%d) line %d\n",
		indent, name, p.NumParams, p.IsVararg, p.MaxStack, p.LineStart)

	for i, c := range p.Constants {
		fmt.Fprintf(b, "%s  const[%d] = %s\n", indent, i, constString(c))
	}
	for i, in := range p.Code {
		fmt.Fprintf(b, "%s  [%d] %s  ; line %d\n", indent, i, in.String(), in.Line)
	}
	for _, proto := range p.Protos {
		disasmProto(b, proto, depth+1)
	}
}

func constString(c Const) string {
	switch c.Kind {
	case ConstNil:
		return "nil"
	case ConstBool:
		return fmt.Sprintf("%v", c.Bool)
	case ConstInt:
		return fmt.Sprintf("%d", c.Int)
	case ConstFloat:
		return fmt.Sprintf("%g", c.Flt)
	case ConstString:
		return fmt.Sprintf("%q", c.Str)
	}
	return "?"
}
