package clinic

// Entity is implemented by every list item of the record.
type Entity interface {
	Patient | Appointment | Payment
	EntityID() string
}

func (p Patient) EntityID() string     { return p.ID }
func (a Appointment) EntityID() string { return a.ID }
func (p Payment) EntityID() string     { return p.ID }

// Prepend returns a new list with item first, matching the most-recent-first
// storage order.
func Prepend[T Entity](list []T, item T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, item)
	return append(out, list...)
}

// ReplaceByID returns a new list where the entry sharing item's id is replaced.
// The boolean is false, and the list returned unchanged, when no entry matches.
func ReplaceByID[T Entity](list []T, item T) ([]T, bool) {
	id := item.EntityID()
	for i := range list {
		if list[i].EntityID() == id {
			out := append([]T(nil), list...)
			out[i] = item
			return out, true
		}
	}
	return list, false
}

// RemoveByID returns a new list without the entry whose id matches.
// The boolean is false, and the list returned unchanged, when nothing matched.
func RemoveByID[T Entity](list []T, id string) ([]T, bool) {
	out := make([]T, 0, len(list))
	removed := false
	for _, item := range list {
		if item.EntityID() == id {
			removed = true
			continue
		}
		out = append(out, item)
	}
	if !removed {
		return list, false
	}
	return out, true
}

// ContainsID reports whether any entry carries id.
func ContainsID[T Entity](list []T, id string) bool {
	for _, item := range list {
		if item.EntityID() == id {
			return true
		}
	}
	return false
}

// FindByID returns the entry carrying id.
func FindByID[T Entity](list []T, id string) (T, bool) {
	for _, item := range list {
		if item.EntityID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}
