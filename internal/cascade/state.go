package cascade

// State holds the current value and dirty flag of every cascade field.
// A zero value means unset. State is not safe for concurrent use; the
// owning editor serialises access.
type State struct {
	values map[Field]int64
	dirty  map[Field]bool
}

// FieldState is the exported view of one field.
type FieldState struct {
	Field Field `json:"field"`
	Value int64 `json:"value,omitempty"`
	Set   bool  `json:"set"`
	Dirty bool  `json:"dirty"`
	Ready bool  `json:"ready"`
}

func NewState() *State {
	return &State{
		values: make(map[Field]int64, len(Fields)),
		dirty:  make(map[Field]bool, len(Fields)),
	}
}

// Value returns the field value and whether it is set.
func (s *State) Value(f Field) (int64, bool) {
	v, ok := s.values[f]
	return v, ok && v != 0
}

// Dirty reports whether the user changed f since the draft was loaded.
func (s *State) Dirty(f Field) bool {
	return s.dirty[f]
}

// Ready reports whether every ancestor of f has a value, i.e. whether the
// option list of f can exist.
func (s *State) Ready(f Field) bool {
	for _, a := range Ancestors(f) {
		if _, ok := s.Value(a); !ok {
			return false
		}
	}
	return true
}

// SetByUser applies a direct user edit. v == 0 clears the field. The field
// becomes dirty; if the value changed every descendant is cleared. A cleared
// descendant is marked dirty when it held a value or when f replaced an
// earlier value, since the persisted record no longer describes that branch.
// Filling an unset field leaves its unset descendants open to reconciliation.
func (s *State) SetByUser(f Field, v int64) []Field {
	prev, hadPrev := s.Value(f)
	s.dirty[f] = true
	s.put(f, v)

	cleared := OnFieldChanged(f, true, prev != v)
	for _, d := range cleared {
		_, held := s.Value(d)
		delete(s.values, d)
		if held || hadPrev {
			s.dirty[d] = true
		}
	}
	return cleared
}

// SetProgrammatic moves an unset, non-dirty field to set. It never clears
// descendants and never overrides user intent.
func (s *State) SetProgrammatic(f Field, v int64) bool {
	if v == 0 || s.dirty[f] {
		return false
	}
	if _, ok := s.Value(f); ok {
		return false
	}
	s.values[f] = v
	return true
}

// Reset clears every value and dirty flag (load-triggered, not a user edit).
func (s *State) Reset() {
	s.values = make(map[Field]int64, len(Fields))
	s.dirty = make(map[Field]bool, len(Fields))
}

// Clone returns an independent copy.
func (s *State) Clone() *State {
	c := NewState()
	for k, v := range s.values {
		c.values[k] = v
	}
	for k, v := range s.dirty {
		c.dirty[k] = v
	}
	return c
}

// Values returns the set values keyed by field.
func (s *State) Values() map[Field]int64 {
	out := make(map[Field]int64, len(s.values))
	for k, v := range s.values {
		if v != 0 {
			out[k] = v
		}
	}
	return out
}

// DirtyFields returns the dirty flags keyed by field.
func (s *State) DirtyFields() map[Field]bool {
	out := make(map[Field]bool, len(s.dirty))
	for k, v := range s.dirty {
		if v {
			out[k] = true
		}
	}
	return out
}

// Restore rebuilds a State from persisted values and dirty flags.
func Restore(values map[Field]int64, dirty map[Field]bool) *State {
	s := NewState()
	for k, v := range values {
		if v != 0 {
			s.values[k] = v
		}
	}
	for k, v := range dirty {
		if v {
			s.dirty[k] = true
		}
	}
	return s
}

// View lists every field in cascade order.
func (s *State) View() []FieldState {
	out := make([]FieldState, 0, len(Fields))
	for _, f := range Fields {
		v, set := s.Value(f)
		out = append(out, FieldState{
			Field: f,
			Value: v,
			Set:   set,
			Dirty: s.dirty[f],
			Ready: s.Ready(f),
		})
	}
	return out
}

func (s *State) put(f Field, v int64) {
	if v == 0 {
		delete(s.values, f)
		return
	}
	s.values[f] = v
}
