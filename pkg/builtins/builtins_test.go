package builtins

import (
	"testing"

	"cinder/pkg/value"

	"github.com/stretchr/testify/require"
)

func call(t *testing.T, name string, args ...value.Value) value.Value {
	t.Helper()
	fn, ok := Standard()[name]
	require.True(t, ok, "builtin %s not registered", name)
	v, err := fn(args)
	require.NoError(t, err)
	return v
}

func TestArithmeticBuiltinsMatchDedicatedOpcodes(t *testing.T) {
	require.Equal(t, value.Int64(7), call(t, "+", value.Int64(3), value.Int64(4)))
	require.Equal(t, value.Int64(12), call(t, "*", value.Int64(3), value.Int64(4)))
	require.Equal(t, value.Boolean(true), call(t, ">", value.Int64(5), value.Int64(2)))
}

func TestArithmeticBuiltinsArityError(t *testing.T) {
	_, err := Standard()["+"]([]value.Value{value.Int64(1)})
	require.Error(t, err)
}

func TestConsCarCdr(t *testing.T) {
	pair := call(t, "cons", value.Int64(1), value.Int64(2))
	require.Equal(t, value.Int64(1), call(t, "car", pair))
	require.Equal(t, value.Int64(2), call(t, "cdr", pair))
}

func TestListBuildsRightNestedConsChain(t *testing.T) {
	list := call(t, "list", value.Int64(1), value.Int64(2), value.Int64(3))
	require.Equal(t, "(1 . (2 . (3 . nil)))", value.Display(list))
}

func TestListOfNoArgumentsIsNil(t *testing.T) {
	require.True(t, call(t, "list").IsNil())
}

func TestPredicates(t *testing.T) {
	pair := call(t, "cons", value.Int64(1), value.Nil())
	require.Equal(t, value.Boolean(true), call(t, "pair?", pair))
	require.Equal(t, value.Boolean(false), call(t, "pair?", value.Int64(1)))
	require.Equal(t, value.Boolean(true), call(t, "null?", value.Nil()))
	require.Equal(t, value.Boolean(true), call(t, "list?", value.Nil()))
	require.Equal(t, value.Boolean(true), call(t, "list?", pair))
	require.Equal(t, value.Boolean(true), call(t, "number?", value.Int64(1)))
	require.Equal(t, value.Boolean(true), call(t, "string?", value.FromObject(value.NewString("x"))))
	require.Equal(t, value.Boolean(true), call(t, "symbol?", value.FromObject(value.NewSymbol("x"))))
	builtin := value.FromObject(value.NewBuiltin("car", Standard()["car"]))
	require.Equal(t, value.Boolean(true), call(t, "procedure?", builtin))
}

func TestIncDec(t *testing.T) {
	require.Equal(t, value.Int64(6), call(t, "inc", value.Int64(5)))
	require.Equal(t, value.Int64(4), call(t, "dec", value.Int64(5)))
}

func TestEqualIsStructuralNotPointerIdentity(t *testing.T) {
	a := call(t, "list", value.Int64(1), value.Int64(2))
	b := call(t, "list", value.Int64(1), value.Int64(2))
	require.NotSame(t, a.Obj, b.Obj, "test assumes two independently built lists, not the same allocation")
	require.Equal(t, value.Boolean(true), call(t, "equal?", a, b))
}

func TestStringBuiltins(t *testing.T) {
	appended := call(t, "string-append", value.FromObject(value.NewString("foo")), value.FromObject(value.NewString("bar")))
	require.Equal(t, "\"foobar\"", value.Display(appended))
	require.Equal(t, value.Int64(6), call(t, "string-length", appended))
}

func TestNumberStringRoundTrip(t *testing.T) {
	s := call(t, "number->string", value.Int64(42))
	require.Equal(t, value.Int64(42), call(t, "string->number", s))
}

func TestCarOnNonPairErrors(t *testing.T) {
	_, err := Standard()["car"]([]value.Value{value.Int64(1)})
	require.Error(t, err)
}
