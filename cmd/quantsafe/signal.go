package main

import (
	"encoding/json"
	"fmt"

	"github.com/newthinker/quantsafe/internal/core"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	signalCount int
	signalJSON  bool
)

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Request trading signals from the configured model",
	Long: `Run one or more signal cycles against the configured LLM provider and
print each result. The price moves between cycles exactly as in the server.`,
	RunE: runSignal,
}

func init() {
	signalCmd.Flags().IntVarP(&signalCount, "count", "n", 1, "number of cycles to run")
	signalCmd.Flags().BoolVar(&signalJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(signalCmd)
}

type signalResult struct {
	Market core.MarketState    `json:"market"`
	Signal core.SignalResponse `json:"signal"`
}

func runSignal(cmd *cobra.Command, args []string) error {
	if signalCount < 1 {
		return fmt.Errorf("--count must be at least 1")
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	rt, err := build(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Warn("closing components", zap.Error(err))
		}
	}()

	out := cmd.OutOrStdout()
	results := make([]signalResult, 0, signalCount)

	for i := 0; i < signalCount; i++ {
		resp, err := rt.app.RequestSignal(cmd.Context())
		if err != nil {
			return fmt.Errorf("cycle %d: %w", i+1, err)
		}
		res := signalResult{Market: rt.app.Market(), Signal: resp}

		if signalJSON {
			results = append(results, res)
			continue
		}
		fmt.Fprintln(out, renderCard(res.Market, res.Signal))
	}

	if signalJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	return nil
}
