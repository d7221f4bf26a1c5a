package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oppsight/domain/core"
	"oppsight/domain/detect"
	"oppsight/domain/game"
)

func newTestService() *AnalysisService {
	return NewAnalysisService(detect.DefaultThresholds(), detect.GateSignificance)
}

// copierSequence builds a 41-turn history where the opponent copies the
// observer's previous move on 3 of every 5 transitions and plays the
// opposite on the rest. Copy rate is exactly 0.6 with zero counter rate.
func copierSequence(t *testing.T) *game.Sequence {
	t.Helper()
	const n = 41
	own := make([]game.Move, n)
	for i := range own {
		own[i] = game.Moves[i%3]
	}
	opp := make([]game.Move, n)
	opp[0] = game.Rock
	for i := 1; i < n; i++ {
		if (i-1)%5 < 3 {
			opp[i] = own[i-1]
		} else {
			opp[i] = own[i-1].Beats()
		}
	}

	turns := make([]game.Turn, n)
	for i := range turns {
		turns[i] = game.Turn{
			Index:        i,
			OwnMove:      own[i],
			OpponentMove: opp[i],
			Outcome:      game.Judge(own[i], opp[i]),
		}
	}
	seq, err := game.NewSequence("copier", turns)
	require.NoError(t, err)
	return seq
}

func TestAnalyzeSequenceDetectsCopier(t *testing.T) {
	report, err := newTestService().AnalyzeSequence(copierSequence(t))
	require.NoError(t, err)

	assert.Equal(t, 41, report.TotalTurns)
	require.NotNil(t, report.Reactive)
	assert.InDelta(t, 0.6, report.Reactive.Copy.Value, 1e-9)
	assert.Zero(t, report.Reactive.Counter.Value)

	assert.True(t, report.HasAccepted(detect.SignalCopier), "copier detection should pass the gate")
	assert.False(t, report.HasAccepted(detect.SignalCounter))
	assert.Equal(t, detect.LabelReactive, report.Label)
}

func TestAnalyzeSequenceWindowLayout(t *testing.T) {
	report, err := newTestService().AnalyzeSequence(copierSequence(t))
	require.NoError(t, err)

	require.Len(t, report.Windows, 4)
	assert.Equal(t, 0, report.Windows[0].Start)
	assert.Equal(t, 41, report.Windows[len(report.Windows)-1].End)
	for _, w := range report.Windows {
		assert.GreaterOrEqual(t, w.Entropy, 0.0)
		assert.LessOrEqual(t, w.Entropy, 1.0)
	}
}

func TestAnalyzeSequenceShortHistory(t *testing.T) {
	turns := make([]game.Turn, 10)
	for i := range turns {
		turns[i] = game.Turn{
			Index:        i,
			OwnMove:      game.Moves[i%3],
			OpponentMove: game.Moves[(i+1)%3],
			Outcome:      game.Judge(game.Moves[i%3], game.Moves[(i+1)%3]),
		}
	}
	seq, err := game.NewSequence("short", turns)
	require.NoError(t, err)

	report, err := newTestService().AnalyzeSequence(seq)
	require.NoError(t, err)
	assert.Equal(t, detect.LabelInsufficientData, report.Label)
	assert.Equal(t, 10, report.TotalTurns)
}

func TestAnalyzeSequenceNil(t *testing.T) {
	_, err := newTestService().AnalyzeSequence(nil)
	assert.True(t, core.IsInsufficientData(err))
}

// stubHistory is an in-memory BattleHistory for fan-out tests.
type stubHistory struct {
	sequences map[core.OpponentID]*game.Sequence
}

func (s *stubHistory) ListOpponents(ctx context.Context, minTurns int) ([]core.OpponentID, error) {
	var ids []core.OpponentID
	for id, seq := range s.sequences {
		if seq.Len() >= minTurns {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *stubHistory) SequenceFor(ctx context.Context, id core.OpponentID) (*game.Sequence, error) {
	seq, ok := s.sequences[id]
	if !ok {
		return nil, core.ErrOpponentNotFound
	}
	return seq, nil
}

func TestAnalyzeAll(t *testing.T) {
	longSeq := copierSequence(t)

	shortTurns := []game.Turn{
		{Index: 0, OwnMove: game.Rock, OpponentMove: game.Paper, Outcome: game.Loss},
		{Index: 1, OwnMove: game.Rock, OpponentMove: game.Paper, Outcome: game.Loss},
	}
	shortSeq, err := game.NewSequence("b-short", shortTurns)
	require.NoError(t, err)

	history := &stubHistory{sequences: map[core.OpponentID]*game.Sequence{
		"a-copier": {Opponent: "a-copier", Turns: longSeq.Turns},
		"b-short":  shortSeq,
	}}

	reports, err := newTestService().AnalyzeAll(context.Background(), history, 1)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, core.OpponentID("a-copier"), reports[0].Opponent, "reports should be sorted by opponent")
	assert.Equal(t, core.OpponentID("b-short"), reports[1].Opponent)
	assert.Equal(t, detect.LabelInsufficientData, reports[1].Label)

	filtered, err := newTestService().AnalyzeAll(context.Background(), history, 15)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, core.OpponentID("a-copier"), filtered[0].Opponent)
}
