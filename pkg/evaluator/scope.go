package evaluator

// Scope is one layer of lexical environment, chained to its parent. A
// lambda call or let-binding pushes a new layer rather than cloning the
// whole environment, and a captured closure simply keeps a pointer to the
// layer live when it was created.
type Scope struct {
	parent *Scope
	vars   map[string]Value
}

// NewGlobalScope seeds the root scope with a builtin table.
func NewGlobalScope(builtins map[string]BuiltinFunc) *Scope {
	s := &Scope{vars: make(map[string]Value, len(builtins))}
	for name, fn := range builtins {
		s.vars[name] = Value{Kind: KindBuiltin, BuiltinName: name, Builtin: fn}
	}
	return s
}

// child returns a new scope layer nested under s.
func (s *Scope) child() *Scope {
	return &Scope{parent: s, vars: make(map[string]Value)}
}

func (s *Scope) define(name string, v Value) {
	s.vars[name] = v
}

// set rebinds name in the nearest scope layer that already defines it,
// falling back to defining it in the global (outermost) scope, matching
// pkg/vm's OpDeclareGlobal being reused for an unresolved `set` target.
func (s *Scope) set(name string, v Value) {
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[name]; ok {
			cur.vars[name] = v
			return
		}
	}
	root := s
	for root.parent != nil {
		root = root.parent
	}
	root.vars[name] = v
}

func (s *Scope) lookup(name string) (Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return Value{}, false
}
