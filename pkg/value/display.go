package value

import (
	"strconv"
	"strings"
)

// Display renders v in its printed form. It is what OP_PRINT writes to
// stdout and what the golden tests compare against, so every branch here
// is load-bearing: changing the formatting changes observable program
// output.
func Display(v Value) string {
	switch v.Tag {
	case TagInt:
		return strconv.FormatInt(v.Int, 10)
	case TagFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case TagBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case TagNil:
		return "nil"
	case TagQuote:
		return "'" + displayObject(v.Obj)
	case TagObject:
		return displayObject(v.Obj)
	default:
		return "<unknown>"
	}
}

func displayObject(o *Object) string {
	if o == nil {
		return "nil"
	}
	switch o.Kind {
	case KindString:
		return "\"" + o.Str + "\""
	case KindSymbol:
		return o.Str
	case KindConsCell:
		var b strings.Builder
		b.WriteByte('(')
		b.WriteString(displaySlot(o.Car))
		b.WriteString(" . ")
		b.WriteString(displaySlot(o.Cdr))
		b.WriteByte(')')
		return b.String()
	case KindClosure:
		return "closure " + o.Template.Name
	case KindBuiltin:
		return "builtin " + o.BuiltinName
	case KindUpValue:
		return Display(o.Get())
	case KindBoxed:
		return Display(o.Boxed)
	default:
		return "<object>"
	}
}

// displaySlot renders a cons cell's car/cdr slot, which is nil (the list
// terminator) or any other heap object, never a raw scalar: scalars are
// always lifted through NewBoxed first.
func displaySlot(o *Object) string {
	if o == nil {
		return "nil"
	}
	return displayObject(o)
}
