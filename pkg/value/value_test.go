package value

import (
	"testing"

	"cinder/pkg/bytecode"

	"github.com/stretchr/testify/require"
)

func TestTruthy(t *testing.T) {
	require.False(t, Nil().Truthy())
	require.False(t, Boolean(false).Truthy())
	require.True(t, Boolean(true).Truthy())
	require.True(t, Int64(0).Truthy())
	require.True(t, FromObject(NewString("")).Truthy())
}

func TestDisplayScalars(t *testing.T) {
	require.Equal(t, "3", Display(Int64(3)))
	require.Equal(t, "3.5", Display(Flt(3.5)))
	require.Equal(t, "true", Display(Boolean(true)))
	require.Equal(t, "false", Display(Boolean(false)))
	require.Equal(t, "nil", Display(Nil()))
	require.Equal(t, `"hi"`, Display(FromObject(NewString("hi"))))
	require.Equal(t, "sym", Display(FromObject(NewSymbol("sym"))))
}

func TestDisplayConsChain(t *testing.T) {
	// '(1 2) materializes as plain list structure: (1 . (2 . nil))
	two := NewCons(NewBoxed(Int64(2)), nil)
	list := NewCons(NewBoxed(Int64(1)), two)
	require.Equal(t, "(1 . (2 . nil))", Display(FromObject(list)))
}

func TestDisplayQuote(t *testing.T) {
	require.Equal(t, "'x", Display(Quoted(NewSymbol("x"))))
}

func TestDisplayClosureAndBuiltin(t *testing.T) {
	c := NewClosure(&testTemplate)
	require.Equal(t, "closure counter", Display(FromObject(c)))

	b := NewBuiltin("car", func(args []Value) (Value, error) { return Nil(), nil })
	require.Equal(t, "builtin car", Display(FromObject(b)))
}

func TestUpvalueOpenClose(t *testing.T) {
	var slot Value = Int64(10)
	uv := NewOpenUpvalue(&slot, 0)
	require.True(t, uv.IsOpen())
	require.Equal(t, Int64(10), uv.Get())

	slot = Int64(20)
	require.Equal(t, Int64(20), uv.Get(), "open upvalue reads through to the live slot")

	uv.Close()
	require.False(t, uv.IsOpen())
	slot = Int64(99)
	require.Equal(t, Int64(20), uv.Get(), "closed upvalue keeps its own copy, independent of the stack slot")
}

func TestArithWidening(t *testing.T) {
	v, err := Add(Int64(1), Int64(2))
	require.NoError(t, err)
	require.Equal(t, Int64(3), v)

	v, err = Add(Int64(1), Flt(2.5))
	require.NoError(t, err)
	require.Equal(t, Flt(3.5), v)
}

func TestAddStringConcat(t *testing.T) {
	v, err := Add(FromObject(NewString("foo")), FromObject(NewString("bar")))
	require.NoError(t, err)
	require.Equal(t, "foobar", v.Obj.Str)
}

func TestDivByZero(t *testing.T) {
	_, err := Div(Int64(1), Int64(0))
	require.ErrorIs(t, err, ErrDivideByZero)

	_, err = Div(Flt(1), Flt(0))
	require.ErrorIs(t, err, ErrDivideByZero)
}

func TestTypeMismatch(t *testing.T) {
	_, err := Add(Int64(1), Boolean(true))
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestStructuralEqual(t *testing.T) {
	a := NewCons(NewBoxed(Int64(1)), NewCons(NewBoxed(Int64(2)), nil))
	b := NewCons(NewBoxed(Int64(1)), NewCons(NewBoxed(Int64(2)), nil))
	require.True(t, StructuralEqual(FromObject(a), FromObject(b)), "distinct cons chains with equal contents are structurally equal")
	require.False(t, a == b)
}

var testTemplate = bytecode.FunctionTemplate{Name: "counter"}
