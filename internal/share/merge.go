package share

// Identified is anything keyed by an identifier within its collection.
type Identified interface {
	Identity() string
}

// Reconcile merges incoming into existing by identity and returns a new
// slice. Existing entries whose ID appears in incoming are dropped from their
// position, incoming is appended in its given order, and everything else keeps
// its relative order. If incoming repeats an ID, the last occurrence wins.
// Neither argument is modified. Applying the same batch twice yields the same
// result as applying it once.
func Reconcile[T Identified](existing, incoming []T) []T {
	last := make(map[string]int, len(incoming))
	for i, v := range incoming {
		last[v.Identity()] = i
	}

	out := make([]T, 0, len(existing)+len(last))
	for _, v := range existing {
		if _, replaced := last[v.Identity()]; !replaced {
			out = append(out, v)
		}
	}
	for i, v := range incoming {
		if last[v.Identity()] == i {
			out = append(out, v)
		}
	}
	return out
}

// Overlap counts the existing entries that incoming would replace.
func Overlap[T Identified](existing, incoming []T) int {
	ids := make(map[string]bool, len(incoming))
	for _, v := range incoming {
		ids[v.Identity()] = true
	}
	n := 0
	for _, v := range existing {
		if ids[v.Identity()] {
			n++
		}
	}
	return n
}

// Remove returns a new slice without the entry whose ID is id, and whether
// one was found.
func Remove[T Identified](existing []T, id string) ([]T, bool) {
	out := make([]T, 0, len(existing))
	found := false
	for _, v := range existing {
		if v.Identity() == id {
			found = true
			continue
		}
		out = append(out, v)
	}
	return out, found
}
