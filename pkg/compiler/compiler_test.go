package compiler

import (
	"bytes"
	"testing"

	"cinder/pkg/value"
	"cinder/pkg/vm"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string) string {
	t.Helper()
	chunk, err := CompileSource(src)
	require.NoError(t, err)

	machine := vm.New(arithmeticBuiltins())
	var out bytes.Buffer
	machine.SetStdout(&out)
	require.NoError(t, machine.Run(chunk))
	return out.String()
}

// arithmeticBuiltins gives the operator names a first-class value so a
// program can pass one around rather than only calling it directly.
// pkg/builtins supplies the real, full table; this is just enough for
// compiler-level tests to stay independent of that package.
func arithmeticBuiltins() map[string]value.BuiltinFunc {
	return map[string]value.BuiltinFunc{
		"+": func(args []value.Value) (value.Value, error) { return value.Add(args[0], args[1]) },
		"*": func(args []value.Value) (value.Value, error) { return value.Mul(args[0], args[1]) },
		"inc": func(args []value.Value) (value.Value, error) {
			return value.Add(args[0], value.Int64(1))
		},
		"equal?": func(args []value.Value) (value.Value, error) {
			return value.Boolean(value.StructuralEqual(args[0], args[1])), nil
		},
	}
}

func TestCompileArithmeticAndPrint(t *testing.T) {
	require.Equal(t, "3\n", run(t, `(print (+ 1 2))`))
}

func TestCompileSelectedOperatorAsValue(t *testing.T) {
	src := `
		(defun (a b) ((if b * +) 2 3))
		(defun (_add d e) (+ d e))
		(print (* (a true) (_add 2 3)))
	`
	require.Equal(t, "30\n", run(t, src))
}

func TestCompileCounterClosure(t *testing.T) {
	src := `
		(defun (make-counter)
		  (define x 0)
		  (defun (count) (print x) (set x (inc x)))
		  count)
		(define c (make-counter))
		(c) (c) (c)
	`
	require.Equal(t, "0\n1\n2\n", run(t, src))
}

func TestCompileQuotedListPrint(t *testing.T) {
	require.Equal(t, "(1 . (2 . nil))\n", run(t, `(print '(1 2))`))
}

func TestCompileZeroIsTruthy(t *testing.T) {
	require.Equal(t, "\"t\"\n", run(t, `(print (if 0 "t" "f"))`))
}

func TestCompileNestedDefunReturnsLocalClosure(t *testing.T) {
	src := `(defun (f) (defun (g) "asdf") g) (print ((f)))`
	require.Equal(t, "\"asdf\"\n", run(t, src))
}

func TestCompileLet(t *testing.T) {
	require.Equal(t, "7\n", run(t, `(print (let ((a 3) (b 4)) (+ a b)))`))
}

func TestCompileIfNoElseDefaultsNil(t *testing.T) {
	require.Equal(t, "nil\n", run(t, `(print (if false 1))`))
}

func TestIntAdditionAssociates(t *testing.T) {
	require.Equal(t, run(t, `(print (+ (+ 1 2) 3))`), run(t, `(print (+ 1 (+ 2 3)))`))
}

// TestQuoteMaterializesStably: two quotations of the same form are distinct
// allocations but structurally equal: the quote round-trip property.
func TestQuoteMaterializesStably(t *testing.T) {
	require.Equal(t, "true\n", run(t, `(print (equal? '(1 2) '(1 2)))`))
	require.Equal(t, "true\n", run(t, `(print (equal? 'x 'x))`))
}
