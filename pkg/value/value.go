// Package value implements the runtime value representation: the tagged
// small-value union (Value) and the heap object model it points into
// (Object). The two share one package because they are mutually
// recursive: a Value can hold an *Object, and an Object's
// ConsCell/Closure/boxing-shell payload holds Values and *Objects right
// back.
package value

// Tag discriminates the variants of Value.
type Tag byte

const (
	TagInt Tag = iota
	TagFloat
	TagBool
	TagNil
	TagObject
	TagQuote
)

func (t Tag) String() string {
	switch t {
	case TagInt:
		return "int"
	case TagFloat:
		return "float"
	case TagBool:
		return "bool"
	case TagNil:
		return "nil"
	case TagObject:
		return "object"
	case TagQuote:
		return "quote"
	default:
		return "unknown"
	}
}

// Value is the VM's small-value union: scalars stored inline, everything
// else as a pointer onto the heap. It is a plain Go struct rather than an
// interface{} so it stays a fixed-size, stack-friendly value type:
// pushing and popping never allocates.
type Value struct {
	Tag   Tag
	Int   int64
	Float float64
	Bool  bool
	Obj   *Object // populated when Tag is TagObject or TagQuote
}

// Int64 constructs an integer Value.
func Int64(n int64) Value { return Value{Tag: TagInt, Int: n} }

// Flt constructs a floating-point Value.
func Flt(f float64) Value { return Value{Tag: TagFloat, Float: f} }

// Boolean constructs a boolean Value.
func Boolean(b bool) Value { return Value{Tag: TagBool, Bool: b} }

// Nil is the singleton nil Value.
func Nil() Value { return Value{Tag: TagNil} }

// FromObject wraps a heap object as an ObjectPtr value.
func FromObject(o *Object) Value { return Value{Tag: TagObject, Obj: o} }

// Quoted wraps a heap object as a Quote value: data, not code.
func Quoted(o *Object) Value { return Value{Tag: TagQuote, Obj: o} }

// IsNil reports whether v is the nil value.
func (v Value) IsNil() bool { return v.Tag == TagNil }

// Truthy reports whether v counts as true in a conditional: everything is
// truthy except nil and the boolean false.
func (v Value) Truthy() bool {
	switch v.Tag {
	case TagNil:
		return false
	case TagBool:
		return v.Bool
	default:
		return true
	}
}

// TypeName returns the source-facing type name used in type-mismatch
// runtime error messages.
func (v Value) TypeName() string {
	switch v.Tag {
	case TagInt:
		return "int"
	case TagFloat:
		return "float"
	case TagBool:
		return "bool"
	case TagNil:
		return "nil"
	case TagQuote:
		return "quote"
	case TagObject:
		if v.Obj == nil {
			return "object"
		}
		return v.Obj.Kind.String()
	default:
		return "unknown"
	}
}
