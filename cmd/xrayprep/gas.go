package main

import (
	"fmt"

	"github.com/alexshd/xrayprep"
	"github.com/spf13/cobra"
)

var gasCmd = &cobra.Command{
	Use:   "gas",
	Short: "Apply the gas-fill edits of a plan",
	Long: `Start from the plan's initial gas fill and apply its add, remove, update,
undo and redo edits in order. Fractions always sum to 1.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPlan(cmd)
		if err != nil {
			return err
		}
		capacity, _ := cmd.Flags().GetInt("history")

		h := xrayprep.NewMixtureHistory(capacity)
		m, err := p.Gas.Apply(h)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, e := range m {
			fmt.Fprintf(out, "%-8s %.4f\n", e.Name, e.Fraction)
		}
		fmt.Fprintf(out, "sum      %.4f\n", m.Sum())
		logger.Debug("gas edits applied", "edits", len(p.Gas.Edits), "history", h.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(gasCmd)
	gasCmd.Flags().String("plan", "", "Plan file (YAML or JSON)")
	gasCmd.Flags().Int("history", 100, "Undo history capacity")
}
