package game

// WindowPolicy controls how a sequence is sliced for time-evolution analysis.
// Windows are contiguous and non-overlapping; the final window absorbs any
// remainder so no turn is dropped.
type WindowPolicy struct {
	MinSize       int // minimum turns per window
	TargetWindows int // preferred number of windows per sequence
}

// DefaultWindowPolicy matches the historical analysis scripts: at least 10
// turns per window, aiming for 5 windows per sequence.
func DefaultWindowPolicy() WindowPolicy {
	return WindowPolicy{MinSize: 10, TargetWindows: 5}
}

// Window is a contiguous slice of a sequence's turns.
type Window struct {
	Start int    `json:"start"` // index into Sequence.Turns, inclusive
	End   int    `json:"end"`   // exclusive
	Turns []Turn `json:"-"`
}

// Len returns the number of turns in the window.
func (w Window) Len() int { return len(w.Turns) }

// OpponentMoves extracts the opponent's move column for the window.
func (w Window) OpponentMoves() []Move {
	moves := make([]Move, len(w.Turns))
	for i, t := range w.Turns {
		moves[i] = t.OpponentMove
	}
	return moves
}

// Split slices the sequence into windows under the policy. A sequence
// shorter than MinSize yields a single window holding everything.
func (p WindowPolicy) Split(s *Sequence) []Window {
	n := s.Len()
	if n == 0 {
		return nil
	}

	size := n / p.TargetWindows
	if size < p.MinSize {
		size = p.MinSize
	}

	var windows []Window
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		// Fold a short tail into the previous window instead of emitting
		// one below the minimum.
		if n-start < size && len(windows) > 0 {
			last := &windows[len(windows)-1]
			last.End = n
			last.Turns = s.Turns[last.Start:n]
			break
		}
		windows = append(windows, Window{Start: start, End: end, Turns: s.Turns[start:end]})
	}
	return windows
}
