package common

// AppendUnique appends v unless s already holds an equal element.
func AppendUnique[S ~[]E, E comparable](s S, v E) S {
	for _, cur := range s {
		if cur == v {
			return s
		}
	}

	return append(s, v)
}
