package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/alexshd/xrayprep"
	"github.com/spf13/cobra"
)

var feasibleCmd = &cobra.Command{
	Use:   "feasible",
	Short: "Run the largest-feasible-value searches of a plan",
	Long: `For each search in the plan, find the largest value in [min, max] whose
evaluated retained signal stays at or above the target percentage.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPlan(cmd)
		if err != nil {
			return err
		}
		queries, err := p.BuildQueries()
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SEARCH\tFEASIBLE\tVALUE\tRETAINED\tITER\tCONVERGED\tNOTE")
		for _, q := range queries {
			r, err := xrayprep.SolveMaxFeasible(q.Query)
			if err != nil {
				return fmt.Errorf("search %q: %w", q.Name, err)
			}
			logger.Debug("search finished",
				"search", q.Name,
				"feasible", r.Feasible,
				"iterations", r.Iterations)

			if !r.Feasible {
				fmt.Fprintf(tw, "%s\tno\t-\t%.2f\t-\t-\t%s\n", q.Name, r.BestAchievedValue, r.Reason)
				continue
			}
			fmt.Fprintf(tw, "%s\tyes\t%.6g\t%.2f\t%d\t%v\t%s\n",
				q.Name, r.Value, r.AchievedValue, r.Iterations, r.Converged, r.Note)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(feasibleCmd)
	feasibleCmd.Flags().String("plan", "", "Plan file (YAML or JSON)")
}
