package codegen

// scopeMap is an insertion-ordered name table. Order matters: the set of
// values merged at a control-flow join is derived by iterating scopes,
// and the block-argument order must be deterministic.
type scopeMap struct {
	names []string
	vals  map[string]*Value
}

func newScope() *scopeMap {
	return &scopeMap{vals: map[string]*Value{}}
}

func (s *scopeMap) get(name string) (*Value, bool) {
	v, ok := s.vals[name]
	return v, ok
}

func (s *scopeMap) has(name string) bool {
	_, ok := s.vals[name]
	return ok
}

func (s *scopeMap) set(name string, v *Value) {
	if _, ok := s.vals[name]; !ok {
		s.names = append(s.names, name)
	}
	s.vals[name] = v
}

// keys returns the names in first-insertion order. The caller must not
// mutate the slice.
func (s *scopeMap) keys() []string {
	return s.names
}

func (s *scopeMap) clone() *scopeMap {
	dup := &scopeMap{
		names: append([]string(nil), s.names...),
		vals:  make(map[string]*Value, len(s.vals)),
	}
	for k, v := range s.vals {
		dup.vals[k] = v
	}
	return dup
}
