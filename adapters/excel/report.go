// Package excel exports evaluation and analysis results as xlsx workbooks.
package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"oppsight/domain/detect"
	"oppsight/internal/simkit"
)

// WriteEvaluation writes an evaluation workbook: a summary sheet with the
// gated metrics (and the baseline's alongside when present), a per-archetype
// breakdown of the gated run, and an optional survival sheet.
func WriteEvaluation(path string, cmp *simkit.ModeComparison, survival []simkit.SurvivalEstimate) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return fmt.Errorf("failed to rename summary sheet: %w", err)
	}
	writeSummarySheet(f, cmp)

	if _, err := f.NewSheet("Archetypes"); err != nil {
		return fmt.Errorf("failed to create archetypes sheet: %w", err)
	}
	writeArchetypeSheet(f, cmp.Gated.Archetypes)

	if len(survival) > 0 {
		if _, err := f.NewSheet("Survival"); err != nil {
			return fmt.Errorf("failed to create survival sheet: %w", err)
		}
		writeSurvivalSheet(f, survival)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, cmp *simkit.ModeComparison) {
	cfg := cmp.Gated.Config
	f.SetCellValue("Summary", "A1", "run_id")
	f.SetCellValue("Summary", "B1", cmp.Gated.Run.String())
	f.SetCellValue("Summary", "A2", "trials_per_archetype")
	f.SetCellValue("Summary", "B2", cfg.Trials)
	f.SetCellValue("Summary", "A3", "turns_per_trial")
	f.SetCellValue("Summary", "B3", cfg.TurnsPerTrial)
	f.SetCellValue("Summary", "A4", "noise")
	f.SetCellValue("Summary", "B4", cfg.Noise)
	f.SetCellValue("Summary", "A5", "seed")
	f.SetCellValue("Summary", "B5", cfg.Seed)

	headers := []string{"metric", "gated"}
	if cmp.Baseline != nil {
		headers = append(headers, "baseline")
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 7)
		f.SetCellValue("Summary", cell, h)
	}

	pick := func(m simkit.Metrics) []float64 {
		return []float64{
			m.Precision, m.Recall, m.F1, m.Accuracy,
			m.FalsePositiveRate, m.MeanDetectionTurn, m.MedianDetectionTurn,
		}
	}
	names := []string{
		"precision", "recall", "f1", "accuracy",
		"false_positive_rate", "mean_detection_turn", "median_detection_turn",
	}
	gated := pick(cmp.Gated.Metrics)
	for i, name := range names {
		f.SetCellValue("Summary", fmt.Sprintf("A%d", i+8), name)
		f.SetCellValue("Summary", fmt.Sprintf("B%d", i+8), gated[i])
	}
	if cmp.Baseline != nil {
		baseline := pick(cmp.Baseline.Metrics)
		for i := range names {
			f.SetCellValue("Summary", fmt.Sprintf("C%d", i+8), baseline[i])
		}
	}
}

func writeArchetypeSheet(f *excelize.File, outcomes []simkit.ArchetypeOutcome) {
	headers := []string{"archetype", "trials", "detected", "detection_rate", "mean_detection_turn"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue("Archetypes", cell, h)
	}
	for i, o := range outcomes {
		row := i + 2
		f.SetCellValue("Archetypes", fmt.Sprintf("A%d", row), o.Name)
		f.SetCellValue("Archetypes", fmt.Sprintf("B%d", row), o.Trials)
		f.SetCellValue("Archetypes", fmt.Sprintf("C%d", row), o.Detected)
		f.SetCellValue("Archetypes", fmt.Sprintf("D%d", row), o.DetectionRate)
		f.SetCellValue("Archetypes", fmt.Sprintf("E%d", row), o.MeanDetectionTurn)
	}
}

func writeSurvivalSheet(f *excelize.File, survival []simkit.SurvivalEstimate) {
	headers := []string{
		"archetype", "trials",
		"random_survival", "informed_survival", "survival_delta",
		"random_weighted", "informed_weighted", "weighted_delta",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue("Survival", cell, h)
	}
	for i, s := range survival {
		row := i + 2
		f.SetCellValue("Survival", fmt.Sprintf("A%d", row), s.Archetype)
		f.SetCellValue("Survival", fmt.Sprintf("B%d", row), s.Trials)
		f.SetCellValue("Survival", fmt.Sprintf("C%d", row), s.RandomSurvival)
		f.SetCellValue("Survival", fmt.Sprintf("D%d", row), s.InformedSurvival)
		f.SetCellValue("Survival", fmt.Sprintf("E%d", row), s.SurvivalDelta)
		f.SetCellValue("Survival", fmt.Sprintf("F%d", row), s.RandomWeighted)
		f.SetCellValue("Survival", fmt.Sprintf("G%d", row), s.InformedWeighted)
		f.SetCellValue("Survival", fmt.Sprintf("H%d", row), s.WeightedDelta)
	}
}

// WriteAnalyses writes one row per opponent report: turn count, label, and
// the accepted detections as a compact summary string.
func WriteAnalyses(path string, reports []*detect.OpponentReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Opponents"); err != nil {
		return fmt.Errorf("failed to rename opponents sheet: %w", err)
	}

	headers := []string{"opponent_id", "total_turns", "label", "accepted_detections", "shifts"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue("Opponents", cell, h)
	}

	for i, r := range reports {
		row := i + 2
		var summary string
		for _, d := range r.Accepted() {
			if summary != "" {
				summary += "; "
			}
			summary += fmt.Sprintf("%s (p=%.4f, conf=%.2f)", d.Signal, d.PValue, d.Confidence)
		}
		f.SetCellValue("Opponents", fmt.Sprintf("A%d", row), r.Opponent.String())
		f.SetCellValue("Opponents", fmt.Sprintf("B%d", row), r.TotalTurns)
		f.SetCellValue("Opponents", fmt.Sprintf("C%d", row), string(r.Label))
		f.SetCellValue("Opponents", fmt.Sprintf("D%d", row), summary)
		f.SetCellValue("Opponents", fmt.Sprintf("E%d", row), len(r.Shifts))
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
