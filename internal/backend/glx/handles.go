package glx

// handleTable maps small 1-based indices to native handles, so handles
// never travel through integer types. Index 0 is never handed out.
type handleTable[T comparable] struct {
	items []T
}

func (t *handleTable[T]) add(h T) int {
	t.items = append(t.items, h)
	return len(t.items)
}

func (t *handleTable[T]) get(i int) (T, bool) {
	var zero T
	if i < 1 || i > len(t.items) || t.items[i-1] == zero {
		return zero, false
	}
	return t.items[i-1], true
}

// drop forgets i; later lookups fail.
func (t *handleTable[T]) drop(i int) {
	if i >= 1 && i <= len(t.items) {
		var zero T
		t.items[i-1] = zero
	}
}
