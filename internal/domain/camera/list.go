package camera

// List is the ordered set of registered cameras. Duplicate labels are possible.
type List []Descriptor

// Clone returns a copy that shares no backing array with l. Never nil.
func (l List) Clone() List {
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Has reports whether at least one descriptor carries label.
func (l List) Has(label Label) bool {
	for _, d := range l {
		if d.Label == label {
			return true
		}
	}
	return false
}

// Without returns a new list with every descriptor matching label removed.
func (l List) Without(label Label) List {
	out := make(List, 0, len(l))
	for _, d := range l {
		if d.Label != label {
			out = append(out, d)
		}
	}
	return out
}

// Labels returns the labels in list order.
func (l List) Labels() []Label {
	out := make([]Label, len(l))
	for i, d := range l {
		out[i] = d.Label
	}
	return out
}
