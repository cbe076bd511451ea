package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cjscript/cjc/bytecode"
	"github.com/cjscript/cjc/compiler"
)

func newDisasmCommand() *cobra.Command {
	c := &cobra.Command{
		Use:                   "disasm FILE",
		Short:                 "compile a source file and print its bytecode listing",
		DisableFlagsInUseLine: true,
		Args:                  cobra.ExactArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.RunE = func(cmd *cobra.Command, args []string) error {
		src, err := readSource(args[0])
		if err != nil {
			return err
		}
		chunk, err := compiler.Compile(src, args[0])
		if err != nil {
			return err
		}
		fmt.Print(bytecode.Disassemble(chunk))
		return nil
	}
	return c
}
