package reader

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadAtom(t *testing.T) {
	forms, err := ReadAll("42")
	require.NoError(t, err)
	require.Len(t, forms, 1)
	require.Equal(t, Int(42), forms[0])
}

func TestReadList(t *testing.T) {
	forms, err := ReadAll("(+ 1 2)")
	require.NoError(t, err)
	items, ok := forms[0].Items()
	require.True(t, ok)
	require.Equal(t, []Datum{Symbol("+"), Int(1), Int(2)}, items)
}

func TestQuoteSugar(t *testing.T) {
	forms, err := ReadAll("'(1 2)")
	require.NoError(t, err)
	items, ok := forms[0].Items()
	require.True(t, ok)
	require.Equal(t, Symbol("quote"), items[0])
	inner, ok := items[1].Items()
	require.True(t, ok)
	require.Equal(t, []Datum{Int(1), Int(2)}, inner)
}

func TestUnterminatedListErrors(t *testing.T) {
	_, err := ReadAll("(+ 1 2")
	require.Error(t, err)
}

func TestMultipleTopLevelForms(t *testing.T) {
	forms, err := ReadAll("1 2 3")
	require.NoError(t, err)
	require.Len(t, forms, 3)
}

func TestNestedLists(t *testing.T) {
	forms, err := ReadAll("(defun (add1 x) (+ x 1))")
	require.NoError(t, err)
	items, ok := forms[0].Items()
	require.True(t, ok)
	require.Equal(t, Symbol("defun"), items[0])
	params, ok := items[1].Items()
	require.True(t, ok)
	require.Equal(t, []Datum{Symbol("add1"), Symbol("x")}, params)
}
