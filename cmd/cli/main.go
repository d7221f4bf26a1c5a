package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"oppsight/adapters/excel"
	"oppsight/adapters/postgres"
	"oppsight/app"
	"oppsight/domain/core"
	"oppsight/domain/detect"
	"oppsight/internal/simkit"
	"oppsight/ui"
)

func main() {
	// Missing .env is fine; environment variables still apply.
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded configuration from .env")
	}

	rootCmd := &cobra.Command{
		Use:   "oppsight",
		Short: "Opponent pattern detection and adaptation analysis",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newSimulateCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var minTurns int
	var opponent string
	var xlsxPath string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze recorded battle histories",
		Long: `Run the full detection pipeline over the battle log.

Reads DATABASE_URL from the environment. With --opponent, analyzes one
opponent; otherwise every opponent with at least --min-turns recorded.

Example: oppsight analyze --min-turns 15 --xlsx report.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), opponent, minTurns, xlsxPath)
		},
	}

	cmd.Flags().IntVar(&minTurns, "min-turns", 15, "Minimum recorded turns per opponent")
	cmd.Flags().StringVar(&opponent, "opponent", "", "Analyze a single opponent ID")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write results to an xlsx workbook")

	return cmd
}

func runAnalyze(ctx context.Context, opponent string, minTurns int, xlsxPath string) error {
	db, err := postgres.Connect(requireEnv("DATABASE_URL"))
	if err != nil {
		return err
	}
	defer db.Close()

	history := postgres.NewBattleRepository(db)
	svc := app.NewAnalysisService(detect.DefaultThresholds(), detect.GateSignificance)

	var reports []*detect.OpponentReport
	if opponent != "" {
		id, err := core.ParseOpponentID(opponent)
		if err != nil {
			return err
		}
		seq, err := history.SequenceFor(ctx, id)
		if err != nil {
			return err
		}
		report, err := svc.AnalyzeSequence(seq)
		if err != nil {
			return err
		}
		reports = append(reports, report)
	} else {
		reports, err = svc.AnalyzeAll(ctx, history, minTurns)
		if err != nil {
			return err
		}
	}

	if err := printJSON(reports); err != nil {
		return err
	}
	if xlsxPath != "" {
		if err := excel.WriteAnalyses(xlsxPath, reports); err != nil {
			return err
		}
		log.Printf("Wrote analysis workbook to %s", xlsxPath)
	}
	return nil
}

func newSimulateCmd() *cobra.Command {
	var trials, turns int
	var noise float64
	var seed int64
	var compare, survival bool
	var xlsxPath string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Score the detector against synthetic opponents",
		Long: `Play seeded trials against the synthetic opponent roster and report
precision, recall, false-positive rate, and detection latency.

--compare also runs the raw-threshold baseline on the same trials.
--survival additionally measures random-vs-informed play per archetype.

Example: oppsight simulate --trials 500 --turns 30 --compare --xlsx eval.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := simkit.DefaultEvalConfig()
			cfg.Trials = trials
			cfg.TurnsPerTrial = turns
			cfg.Noise = noise
			cfg.Seed = seed
			return runSimulate(cmd.Context(), cfg, compare, survival, xlsxPath)
		},
	}

	cmd.Flags().IntVar(&trials, "trials", 500, "Trials per archetype")
	cmd.Flags().IntVar(&turns, "turns", 30, "Turns per trial")
	cmd.Flags().Float64Var(&noise, "noise", 0, "Extra per-turn noise on every archetype")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed for deterministic trials")
	cmd.Flags().BoolVar(&compare, "compare", false, "Also run the raw-threshold baseline")
	cmd.Flags().BoolVar(&survival, "survival", false, "Measure informed-play survival gain")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write the evaluation workbook here")

	return cmd
}

func runSimulate(ctx context.Context, cfg simkit.EvalConfig, compare, survival bool, xlsxPath string) error {
	var cmp *simkit.ModeComparison
	if compare {
		var err error
		cmp, err = simkit.CompareModes(ctx, cfg)
		if err != nil {
			return err
		}
	} else {
		eval, err := simkit.NewEvaluator(cfg).Run(ctx)
		if err != nil {
			return err
		}
		cmp = &simkit.ModeComparison{Gated: eval}
	}

	var estimates []simkit.SurvivalEstimate
	if survival {
		var err error
		estimates, err = simkit.NewEvaluator(cfg).MeasureExploitation(ctx)
		if err != nil {
			return err
		}
	}

	out := map[string]any{"gated": cmp.Gated}
	if compare {
		out["baseline"] = cmp.Baseline
	}
	if survival {
		out["survival"] = estimates
	}
	if err := printJSON(out); err != nil {
		return err
	}

	if xlsxPath != "" {
		if err := excel.WriteEvaluation(xlsxPath, cmp, estimates); err != nil {
			return err
		}
		log.Printf("Wrote evaluation workbook to %s", xlsxPath)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis JSON API",
		Long: `Start the HTTP server. DATABASE_URL is optional; without it the
opponent endpoints answer 503 and only simulation endpoints work.

Example: oppsight serve --addr :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envOr("HTTP_ADDR", ":8080"), "Listen address")

	return cmd
}

func runServe(addr string) error {
	svc := app.NewAnalysisService(detect.DefaultThresholds(), detect.GateSignificance)

	var server *ui.Server
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := postgres.Connect(dsn)
		if err != nil {
			return err
		}
		defer db.Close()
		server = ui.NewServer(ui.Config{Addr: addr}, postgres.NewBattleRepository(db), svc)
	} else {
		log.Printf("DATABASE_URL not set, opponent endpoints disabled")
		server = ui.NewServer(ui.Config{Addr: addr}, nil, svc)
	}

	return server.Start()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("%s must be set", key)
	}
	return v
}
