package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantpulse/tradecore/internal/config"
	"github.com/quantpulse/tradecore/internal/metrics"
	"github.com/quantpulse/tradecore/internal/reason"
	"github.com/quantpulse/tradecore/internal/replay"
)

const (
	appName = "tradecore"
	version = "v1.2.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Deterministic trading decision core",
		Version: version,
		Long: `tradecore is the decision core of an automated trading operation:
market context classification, four signal brains, portfolio risk
governance, and position health monitoring, composed as a replayable
pipeline. It performs no market I/O; feed it recorded day files.`,
	}

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a recorded day file through the pipeline",
		Long:  "Classifies every cycle, runs the brains, authorizes intents, and health-checks positions, logging every decision with its reason code.",
		RunE:  runReplay,
	}
	replayCmd.Flags().String("fixture", "", "path to the replay day file (required)")
	replayCmd.Flags().String("config", "", "optional threshold config overriding production defaults")
	_ = replayCmd.MarkFlagRequired("fixture")

	explainCmd := &cobra.Command{
		Use:   "explain",
		Short: "Dump the reason-code catalog and active thresholds",
		RunE:  runExplain,
	}
	explainCmd.Flags().String("config", "", "optional threshold config to dump instead of defaults")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the tradecore version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s\n", appName, version)
		},
	}

	rootCmd.AddCommand(replayCmd, explainCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	fixturePath, _ := cmd.Flags().GetString("fixture")
	fixture, err := replay.LoadFixture(fixturePath)
	if err != nil {
		return err
	}

	set := metrics.NewSet()
	nextID := func() (string, string) {
		return uuid.NewString(), uuid.NewString()
	}
	runner := replay.NewRunner(cfg, nextID, log.Logger, set)

	start := time.Now()
	result, err := runner.Run(fixture, cfg.Limits)
	if err != nil {
		return err
	}
	log.Info().
		Int("cycles", len(result.Reports)).
		Int("actions", len(result.Actions)).
		Dur("elapsed", time.Since(start)).
		Msg("replay complete")

	fmt.Println(set.Summary())
	return nil
}

func runExplain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Println("Reason codes:")
	for _, code := range reason.Catalog() {
		fmt.Printf("  %-28s (%s)\n", code, code.Component())
	}

	fmt.Println("\nActive thresholds:")
	out, err := yamlMarshal(cfg)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
