package game

// TurnScheduler holds the turn order and whose turn it is. Order is join
// order and is never re-sorted.
type TurnScheduler struct {
	order []string
	index int
}

// Add appends a player to the end of the turn order
func (t *TurnScheduler) Add(id string) {
	t.order = append(t.order, id)
}

// Remove drops a player from the turn order. The index is only reset to
// zero when it falls off the end, so removing an earlier player hands the
// turn to whoever slid into the current position.
func (t *TurnScheduler) Remove(id string) bool {
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			if t.index >= len(t.order) {
				t.index = 0
			}
			return true
		}
	}
	return false
}

// Current returns the id holding the turn, or "" when nobody is seated
func (t *TurnScheduler) Current() string {
	if len(t.order) == 0 {
		return ""
	}
	return t.order[t.index]
}

// Index returns the position of the current turn in the order
func (t *TurnScheduler) Index() int {
	return t.index
}

// Len returns the number of players in the turn order
func (t *TurnScheduler) Len() int {
	return len(t.order)
}

// Order returns a copy of the turn order
func (t *TurnScheduler) Order() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Advance moves the turn to the next player that has not folded. If the
// scan wraps back to the current player the index stays put.
func (t *TurnScheduler) Advance(folded func(id string) bool) string {
	n := len(t.order)
	if n == 0 {
		return ""
	}
	for next := (t.index + 1) % n; next != t.index; next = (next + 1) % n {
		if !folded(t.order[next]) {
			t.index = next
			break
		}
	}
	return t.order[t.index]
}
