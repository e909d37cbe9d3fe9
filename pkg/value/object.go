package value

import "cinder/pkg/bytecode"

// Kind discriminates the variants of Object.
type Kind byte

const (
	KindString Kind = iota
	KindSymbol
	KindConsCell
	KindClosure
	KindBuiltin
	KindUpValue
	KindBoxed // a scalar Value lifted onto the heap so a ConsCell can hold it uniformly as *Object
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindConsCell:
		return "cons"
	case KindClosure:
		return "closure"
	case KindBuiltin:
		return "builtin"
	case KindUpValue:
		return "upvalue"
	case KindBoxed:
		return "boxed"
	default:
		return "unknown"
	}
}

// BuiltinFunc is the calling convention a host function implements: it
// receives the already-evaluated argument values and returns a result or
// an error. Builtins run synchronously on the single goroutine driving
// the VM, so they take no context or cancellation signal.
type BuiltinFunc func(args []Value) (Value, error)

// Object is a heap-allocated value. It is an intrusive singly-linked list
// node (Next) so a Heap can walk every live allocation without a separate
// index structure.
type Object struct {
	Next *Object
	Kind Kind

	// KindString, KindSymbol
	Str string

	// KindConsCell
	Car *Object
	Cdr *Object

	// KindClosure
	Template *bytecode.FunctionTemplate
	Upvalues []*Object // each element is a KindUpValue Object

	// KindBuiltin
	BuiltinName string
	Builtin     BuiltinFunc

	// KindUpValue: Location points at a live stack slot while the
	// upvalue is open; Close repoints it at Closed and the upvalue
	// never points into the stack again. StackIndex is the absolute
	// stack slot Location was opened over; it is what the VM's
	// open-upvalue list searches and orders by. The stack is
	// append-only and address-stable, so index order and address order
	// coincide, and comparing indices needs no unsafe pointer
	// arithmetic. OpenNext links this upvalue into that list; it is a
	// distinct chain from Next, which threads the heap's
	// allocation-order list instead.
	Location   *Value
	Closed     Value
	StackIndex int
	OpenNext   *Object

	// KindBoxed
	Boxed Value
}

// NewString allocates a KindString object.
func NewString(s string) *Object { return &Object{Kind: KindString, Str: s} }

// NewSymbol allocates a KindSymbol object.
func NewSymbol(s string) *Object { return &Object{Kind: KindSymbol, Str: s} }

// NewCons allocates a KindConsCell object. A nil car or cdr means the
// empty list terminator in that position.
func NewCons(car, cdr *Object) *Object {
	return &Object{Kind: KindConsCell, Car: car, Cdr: cdr}
}

// NewBoxed lifts a scalar Value onto the heap so it can sit in a cons
// cell's Car/Cdr, which are uniformly *Object.
func NewBoxed(v Value) *Object { return &Object{Kind: KindBoxed, Boxed: v} }

// NewBuiltin allocates a KindBuiltin object.
func NewBuiltin(name string, fn BuiltinFunc) *Object {
	return &Object{Kind: KindBuiltin, BuiltinName: name, Builtin: fn}
}

// NewClosure allocates a KindClosure object from a compiled template and
// its (not yet filled in) upvalue slots.
func NewClosure(template *bytecode.FunctionTemplate) *Object {
	return &Object{
		Kind:     KindClosure,
		Template: template,
		Upvalues: make([]*Object, len(template.UpvalueCaptures)),
	}
}

// NewOpenUpvalue allocates a KindUpValue object pointing at a live stack
// slot at the given absolute stack index.
func NewOpenUpvalue(location *Value, stackIndex int) *Object {
	return &Object{Kind: KindUpValue, Location: location, StackIndex: stackIndex}
}

// IsOpen reports whether an upvalue still points into the stack.
func (o *Object) IsOpen() bool {
	return o.Kind == KindUpValue && o.Location != &o.Closed
}

// Close copies the upvalue's current value into its own Closed field and
// repoints Location at that field. The transition is one-way: calling
// Close twice is a no-op, the second call just reads and rewrites Closed
// through the already-repointed Location.
func (o *Object) Close() {
	o.Closed = *o.Location
	o.Location = &o.Closed
}

// Get reads the live value an upvalue refers to, whether open or closed.
func (o *Object) Get() Value { return *o.Location }

// Set writes through an upvalue, whether open or closed.
func (o *Object) Set(v Value) { *o.Location = v }

// AsValue unboxes a KindBoxed object back into a plain Value. Car/Cdr of a
// cons cell may be either a KindBoxed scalar or another heap object
// (string, symbol, cons cell, closure); AsValue normalizes either case to
// the Value the source program should see when destructuring the cell.
func (o *Object) AsValue() Value {
	if o == nil {
		return Nil()
	}
	if o.Kind == KindBoxed {
		return o.Boxed
	}
	return FromObject(o)
}
