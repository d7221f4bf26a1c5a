package detect

import (
	"testing"

	"oppsight/domain/game"
)

func TestDominantTieBreak(t *testing.T) {
	if got := Uniform().Dominant(); got != game.Rock {
		t.Errorf("uniform dominant = %s, want rock by canonical order", got)
	}

	d := Distribution{game.Rock: 0.2, game.Paper: 0.4, game.Scissor: 0.4}
	if got := d.Dominant(); got != game.Paper {
		t.Errorf("dominant = %s, want paper", got)
	}
}

func TestRateConstructors(t *testing.T) {
	r := DefinedRate(3, 12)
	if !r.Defined || r.Value != 0.25 || r.Samples != 12 {
		t.Errorf("DefinedRate = %+v", r)
	}
	u := UndefinedRate(4)
	if u.Defined || u.Value != 0 || u.Samples != 4 {
		t.Errorf("UndefinedRate = %+v", u)
	}
}

func TestReportAcceptedFiltering(t *testing.T) {
	report := &OpponentReport{
		Detections: []GatedDetection{
			{Signal: Signal{Kind: SignalBias}, Accepted: true},
			{Signal: Signal{Kind: SignalCounter}, Accepted: false},
			{Signal: Signal{Kind: SignalMarkovMatch}, Accepted: true},
		},
	}
	if got := len(report.Accepted()); got != 2 {
		t.Errorf("accepted = %d, want 2", got)
	}
	if !report.HasAccepted(SignalBias) || report.HasAccepted(SignalCounter) {
		t.Error("HasAccepted must reflect only accepted detections")
	}
	if report.HasAccepted(SignalCopier) {
		t.Error("absent kinds must report false")
	}
}
