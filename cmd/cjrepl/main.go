// Command cjrepl is the interactive Read-Eval-Print Loop: readline for
// line editing/history and fatih/color for banner and result coloring,
// with each line compiled as its own chunk sharing one persistent global
// environment across the session.
package main

import (
	"fmt"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/cjscript/cjc/bytecode"
	"github.com/cjscript/cjc/compiler"
	"github.com/cjscript/cjc/function"
	"github.com/cjscript/cjc/runtime"
	"github.com/cjscript/cjc/vm"

	_ "github.com/cjscript/cjc/file"
)

const (
	version = "v0.1.0"
	prompt  = "cj> "
	banner  = `Cangjie-on-Lua REPL`
)

var (
	cyan   = color.New(color.FgCyan)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
)

func main() {
	cyan.Println(banner)
	cyan.Printf("%s | type .exit to quit\n", version)

	rl, err := readline.New(prompt)
	if err != nil {
		panic(err)
	}
	defer rl.Close()

	env := runtime.NewGlobalEnv()

	for {
		line, err := rl.Readline()
		if err != nil {
			fmt.Println("bye")
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == ".exit" {
			fmt.Println("bye")
			return
		}
		rl.SaveHistory(line)
		evalLine(env, line)
	}
}

// evalLine compiles line as a trailing expression first (so bare
// expressions print their value, the way the reference Lua CLI's own
// REPL disambiguates "return <line>" from a plain statement), falling
// back to compiling it as a statement when that fails.
func evalLine(env *runtime.Table, line string) {
	chunk, err := compiler.Compile("return "+line, "=stdin")
	if err != nil {
		chunk, err = compiler.Compile(line, "=stdin")
	}
	if err != nil {
		red.Println(err)
		return
	}
	results, callErr := runChunk(env, chunk)
	if callErr != nil {
		red.Println(callErr)
		return
	}
	for _, r := range results {
		yellow.Println(describeResult(r))
	}
}

// describeResult renders a closure with its signature and upvalue count
// (the way `.info`-style introspection would) rather than the bare
// "function: 0x..." ToString gives every other caller.
func describeResult(v runtime.Value) string {
	if cl, ok := v.(*runtime.Closure); ok {
		return function.Describe(cl)
	}
	return runtime.ToString(v)
}

// runChunk instantiates chunk's main closure against the REPL's shared
// global environment and executes it, recovering any runtime panic into
// an error the same way vm.Run does for non-interactive execution.
func runChunk(env *runtime.Table, chunk *bytecode.Chunk) (results []runtime.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	closure := vm.NewMainClosure(chunk.Main, env)
	return runtime.CallClosure(closure, nil)
}
