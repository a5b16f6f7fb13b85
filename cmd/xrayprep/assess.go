package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/alexshd/xrayprep"
	"github.com/alexshd/xrayprep/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Classify the candidate samples of a plan",
	Long: `Solve, evaluate and classify every candidate in the plan for transmission
and fluorescence measurement. With --metrics-out the outcome counts are also
written in the Prometheus text format, for the node exporter textfile
collector.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPlan(cmd)
		if err != nil {
			return err
		}
		candidates, err := p.BuildCandidates()
		if err != nil {
			return err
		}

		results, err := xrayprep.AssessCandidates(cmd.Context(), candidates, p.AssessConfig())
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		metrics := server.NewMetrics(reg)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CANDIDATE\tSAMPLE %\tEDGE STEP\tμt ABOVE\tTRANSMISSION\tFLUORESCENCE")
		for _, a := range results {
			if a.Err != nil {
				metrics.Assessments.WithLabelValues("error").Inc()
				logger.Warn("candidate not solved", "candidate", a.Candidate.Name, "error", a.Err)
				fmt.Fprintf(tw, "%s\t-\t-\t-\t%s\t%s\n", a.Candidate.Name, a.Transmission.Label, a.Fluorescence.Label)
				continue
			}
			outcome := "unsuitable"
			if a.Suitable() {
				outcome = "suitable"
			}
			metrics.Assessments.WithLabelValues(outcome).Inc()
			fmt.Fprintf(tw, "%s\t%.2f\t%.3f\t%.3f\t%s\t%s\n",
				a.Candidate.Name,
				a.Mix.SampleFractionPct,
				a.Mix.AchievedEdgeStep,
				a.Metrics.AbsorptionAbove,
				a.Transmission.Label,
				a.Fluorescence.Label)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if path, _ := cmd.Flags().GetString("metrics-out"); path != "" {
			if err := prometheus.WriteToTextfile(path, reg); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
			logger.Info("metrics written", "path", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(assessCmd)
	assessCmd.Flags().String("plan", "", "Plan file (YAML or JSON)")
	assessCmd.Flags().String("metrics-out", "", "Write outcome counts to this file in Prometheus text format")
}
