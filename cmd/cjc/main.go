// Command cjc is the Cangjie-on-Lua compiler driver: it parses and
// compiles source to bytecode, executes it, or prints a disassembly
// listing, grounded on the cobra command tree the "zb" sources use for
// their own compiler/store CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/cjscript/cjc/file"
)

func main() {
	root := &cobra.Command{
		Use:           "cjc",
		Short:         "Cangjie-on-Lua compiler and runner",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(
		newRunCommand(),
		newBuildCommand(),
		newDisasmCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cjc:", err)
		os.Exit(1)
	}
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
