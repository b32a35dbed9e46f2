package datatable

// Ownership tells who holds the authoritative value of a state slice.
type Ownership int

const (
	// Internal means the table owns and mutates the value itself.
	Internal Ownership = iota
	// External means the caller owns the value; the table only requests changes.
	External
)

// String returns the string representation of an Ownership.
func (o Ownership) String() string {
	if o == External {
		return "External"
	}
	return "Internal"
}

// Owned is a state slice resolved together with the party allowed to change it.
// It is produced by ResolveOwned on every access and must not be stored.
type Owned[T any] struct {
	Owner Ownership
	Value T
	set   func(T)
}

// Set forwards a new value to the owner: it writes the internal copy, or
// calls the caller's change handler when the slice is foreign-owned.
// Read-only slices drop the value.
func (o Owned[T]) Set(v T) {
	if o.set != nil {
		o.set(v)
	}
}

// ReadOnly reports whether changes to the slice are dropped: the caller
// supplied a value but no change handler.
func (o Owned[T]) ReadOnly() bool {
	return o.set == nil
}

// ResolveOwned picks the effective owner of a state slice. A caller-supplied
// value makes the slice foreign-owned; changes then go to onChange, or are
// dropped when onChange is nil. Without an external value the internal copy
// is used and onChange is ignored.
func ResolveOwned[T any](internal *T, external *T, onChange func(T)) Owned[T] {
	if external != nil {
		return Owned[T]{Owner: External, Value: *external, set: onChange}
	}
	return Owned[T]{
		Owner: Internal,
		Value: *internal,
		set:   func(v T) { *internal = v },
	}
}
