// Command cinder is the CLI front end for the bytecode VM: run a source
// file, start an interactive REPL, or disassemble compiled bytecode. It is
// deliberately thin; every subcommand is a few lines gluing pkg/reader,
// pkg/compiler, pkg/vm, and pkg/evaluator together.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cinder/pkg/builtins"
	"cinder/pkg/bytecode"
	"cinder/pkg/compiler"
	"cinder/pkg/vm"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cinder",
		Short:         "cinder - a stack-based bytecode VM for a small Lisp",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runREPL()
			}
			return runFile(args[0], false)
		},
	}
	root.AddCommand(newRunCmd(), newReplCmd(), newDisasmCmd(), newCheckCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var trace bool
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "compile and run a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(args[0], trace)
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "dump VM state (stack, globals, frames) if a runtime error occurs")
	return cmd
}

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "start an interactive read-eval-print loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL()
		},
	}
}

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <file>",
		Short: "compile a source file and print its bytecode listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return disassembleFile(args[0])
		},
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "run a file on both the VM and the reference evaluator and diff their output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return crossCheckFile(args[0])
		},
	}
}

func runFile(filename string, trace bool) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}
	chunk, err := compiler.CompileSource(string(data))
	if err != nil {
		printErr("Compile error: %s", err)
		return err
	}
	machine := vm.New(builtins.Standard())
	if err := machine.Run(chunk); err != nil {
		printErr("%s", err)
		if trace {
			fmt.Fprintln(os.Stderr, machine.Dump())
		}
		return err
	}
	return nil
}

func disassembleFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}
	chunk, err := compiler.CompileSource(string(data))
	if err != nil {
		printErr("Compile error: %s", err)
		return err
	}
	fmt.Println(bytecode.Disassemble(chunk, filename))
	return nil
}

// printErr writes a diagnostic to stderr in red.
func printErr(format string, args ...any) {
	red := color.New(color.FgRed)
	red.Fprintf(os.Stderr, format+"\n", args...)
}
