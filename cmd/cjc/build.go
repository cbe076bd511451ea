package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cjscript/cjc/compiler"
)

func newBuildCommand() *cobra.Command {
	c := &cobra.Command{
		Use:                   "build FILE",
		Short:                 "compile a source file and report errors without running it",
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
		if _, err := compiler.Compile(src, args[0]); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	}
	return c
}
