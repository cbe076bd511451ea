package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cjscript/cjc/compiler"
	"github.com/cjscript/cjc/vm"
)

func newRunCommand() *cobra.Command {
	c := &cobra.Command{
		Use:                   "run FILE",
		Short:                 "compile and execute a source file",
		DisableFlagsInUseLine: true,
		Args:                  cobra.ExactArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.RunE = func(cmd *cobra.Command, args []string) error {
		return runFile(args[0])
	}
	return c
}

func runFile(path string) error {
	src, err := readSource(path)
	if err != nil {
		return err
	}
	chunk, err := compiler.Compile(src, path)
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}
	if err := vm.Run(chunk); err != nil {
		return fmt.Errorf("runtime error: %w", err)
	}
	return nil
}
