package collections

// Releaser is implemented by values that own resources. A container calls
// Release on every element it destroys while still owning it. Elements
// handed back to the caller are not released.
//
// Release must tolerate a nil pointer receiver.
type Releaser interface {
	Release()
}

func release[T any](v *T) {
	if r, ok := any(*v).(Releaser); ok {
		r.Release()
	}

	var zero T
	*v = zero
}

func releaseAll[T any](s []T) {
	for i := range s {
		release(&s[i])
	}
}
