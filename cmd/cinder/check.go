package main

import (
	"bytes"
	"fmt"
	"os"

	"cinder/pkg/builtins"
	"cinder/pkg/compiler"
	"cinder/pkg/evaluator"
	"cinder/pkg/vm"
)

// crossCheckFile runs a program on both engines (the bytecode VM and the
// tree-walking reference evaluator) and reports a mismatch in their
// stdout, exactly the property pkg/evaluator's own tests check in
// miniature against pkg/compiler's test snippets.
func crossCheckFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}
	src := string(data)

	var vmOut bytes.Buffer
	chunk, err := compiler.CompileSource(src)
	if err != nil {
		printErr("Compile error: %s", err)
		return err
	}
	machine := vm.New(builtins.Standard())
	machine.SetStdout(&vmOut)
	if err := machine.Run(chunk); err != nil {
		printErr("VM runtime error: %s", err)
		return err
	}

	eval := evaluator.New(builtins.EvalStandard())
	if err := eval.RunSource(src); err != nil {
		printErr("Evaluator error: %s", err)
		return err
	}

	if vmOut.String() != eval.Output() {
		printErr("mismatch:\n  vm:        %q\n  evaluator: %q", vmOut.String(), eval.Output())
		return fmt.Errorf("cross-check mismatch")
	}
	fmt.Print(vmOut.String())
	return nil
}
