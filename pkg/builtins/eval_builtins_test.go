package builtins

import (
	"testing"

	"cinder/pkg/evaluator"

	"github.com/stretchr/testify/require"
)

func evalCall(t *testing.T, name string, args ...evaluator.Value) evaluator.Value {
	t.Helper()
	fn, ok := EvalStandard()[name]
	require.True(t, ok, "builtin %s not registered", name)
	v, err := fn(args)
	require.NoError(t, err)
	return v
}

func TestEvalArithmeticMatchesVMBuiltins(t *testing.T) {
	require.Equal(t, evaluator.Int(7), evalCall(t, "+", evaluator.Int(3), evaluator.Int(4)))
	require.Equal(t, evaluator.Bool(true), evalCall(t, "<", evaluator.Int(2), evaluator.Int(5)))
}

func TestEvalConsCarCdr(t *testing.T) {
	pair := evalCall(t, "cons", evaluator.Int(1), evaluator.List(nil))
	require.Equal(t, evaluator.Int(1), evalCall(t, "car", pair))
	require.Equal(t, evaluator.Bool(true), evalCall(t, "null?", evalCall(t, "cdr", pair)))
}

func TestEvalListAndDisplay(t *testing.T) {
	list := evalCall(t, "list", evaluator.Int(1), evaluator.Int(2))
	require.Equal(t, "(1 . (2 . nil))", evaluator.Display(list))
}

func TestEvalEqualStructural(t *testing.T) {
	a := evalCall(t, "list", evaluator.Int(1), evaluator.String("x"))
	b := evalCall(t, "list", evaluator.Int(1), evaluator.String("x"))
	require.Equal(t, evaluator.Bool(true), evalCall(t, "equal?", a, b))
}

func TestEvalIncDec(t *testing.T) {
	require.Equal(t, evaluator.Int(6), evalCall(t, "inc", evaluator.Int(5)))
	require.Equal(t, evaluator.Int(4), evalCall(t, "dec", evaluator.Int(5)))
}

func TestEvalStringAppend(t *testing.T) {
	s := evalCall(t, "string-append", evaluator.String("foo"), evaluator.String("bar"))
	require.Equal(t, "foobar", s.Str)
}

func TestEvalNumberStringRoundTrip(t *testing.T) {
	s := evalCall(t, "number->string", evaluator.Int(42))
	require.Equal(t, evaluator.Int(42), evalCall(t, "string->number", s))
}
