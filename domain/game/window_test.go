package game

import "testing"

func sequenceOfLength(t *testing.T, n int) *Sequence {
	t.Helper()
	turns := make([]Turn, n)
	for i := range turns {
		turns[i] = Turn{Index: i, OwnMove: Rock, OpponentMove: Paper, Outcome: Loss}
	}
	seq, err := NewSequence("opp-1", turns)
	if err != nil {
		t.Fatalf("NewSequence: %v", err)
	}
	return seq
}

func TestSplitExactFit(t *testing.T) {
	windows := DefaultWindowPolicy().Split(sequenceOfLength(t, 50))
	if len(windows) != 5 {
		t.Fatalf("got %d windows, want 5", len(windows))
	}
	for i, w := range windows {
		if w.Len() != 10 {
			t.Errorf("window %d has %d turns, want 10", i, w.Len())
		}
	}
}

func TestSplitTailFoldsIntoLastWindow(t *testing.T) {
	windows := DefaultWindowPolicy().Split(sequenceOfLength(t, 47))
	if len(windows) != 4 {
		t.Fatalf("got %d windows, want 4", len(windows))
	}
	last := windows[len(windows)-1]
	if last.Start != 30 || last.End != 47 {
		t.Errorf("last window [%d,%d), want [30,47)", last.Start, last.End)
	}

	total := 0
	for _, w := range windows {
		total += w.Len()
	}
	if total != 47 {
		t.Errorf("windows cover %d turns, want 47", total)
	}
}

func TestSplitShortSequenceIsOneWindow(t *testing.T) {
	for _, n := range []int{1, 5, 10, 15} {
		windows := DefaultWindowPolicy().Split(sequenceOfLength(t, n))
		if len(windows) != 1 {
			t.Errorf("n=%d: got %d windows, want 1", n, len(windows))
			continue
		}
		if windows[0].Start != 0 || windows[0].End != n {
			t.Errorf("n=%d: window [%d,%d)", n, windows[0].Start, windows[0].End)
		}
	}
}

func TestSplitEmptySequence(t *testing.T) {
	seq := &Sequence{Opponent: "opp-1"}
	if windows := DefaultWindowPolicy().Split(seq); windows != nil {
		t.Errorf("empty sequence should yield no windows, got %d", len(windows))
	}
}
