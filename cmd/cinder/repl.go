package main

import (
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"cinder/pkg/builtins"
	"cinder/pkg/compiler"
	"cinder/pkg/reader"
	"cinder/pkg/vm"
)

// runREPL drives an interactive read-eval-print loop against one
// persistent VM: every line is read, compiled into its own chunk, and run
// immediately on the same machine, so `define`/`defun` from one line stay
// visible to the next through the VM's globals.
func runREPL() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "cinder> ",
		HistoryFile:     historyFilePath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	prompt := color.New(color.FgCyan)
	prompt.Fprintln(rl.Stdout(), "cinder REPL (Ctrl-D to exit)")

	machine := vm.New(builtins.Standard())

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}
		evalLine(machine, line)
	}
}

func evalLine(machine *vm.VM, line string) {
	forms, err := reader.ReadAll(line)
	if err != nil {
		printErr("Parse error: %s", err)
		return
	}
	chunk, err := compiler.Compile(forms)
	if err != nil {
		printErr("Compile error: %s", err)
		return
	}
	if err := machine.Run(chunk); err != nil {
		printErr("%s", err)
	}
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.cinder_history"
}
