package main

import (
	"fmt"

	"github.com/alexshd/xrayprep"
	"github.com/spf13/cobra"
)

var mixCmd = &cobra.Command{
	Use:   "mix",
	Short: "Solve sample and diluent masses for a target edge step",
	Example: `  xrayprep mix --sample-edge-step 100 --diluent-edge-step 0 \
    --total-mass 0.1 --area 1 --target 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		in := xrayprep.MixInputs{}
		in.SampleEdgeStep, _ = f.GetFloat64("sample-edge-step")
		in.DiluentEdgeStep, _ = f.GetFloat64("diluent-edge-step")
		in.TotalMass, _ = f.GetFloat64("total-mass")
		in.Area, _ = f.GetFloat64("area")
		in.TargetEdgeStep, _ = f.GetFloat64("target")

		r, err := xrayprep.SolveMix(in)
		if err != nil {
			return fmt.Errorf("solve mix: %w", err)
		}
		if !r.Physical() {
			logger.Warn("target edge step not reachable with this total mass",
				"sample_mass", r.SampleMass,
				"diluent_mass", r.DiluentMass)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "sample mass:      %.6g\n", r.SampleMass)
		fmt.Fprintf(out, "diluent mass:     %.6g\n", r.DiluentMass)
		fmt.Fprintf(out, "sample fraction:  %.3f%%\n", r.SampleFractionPct)
		fmt.Fprintf(out, "edge step:        %.6g\n", r.AchievedEdgeStep)
		fmt.Fprintf(out, "physical:         %v\n", r.Physical())
		return nil
	},
}

var thicknessCmd = &cobra.Command{
	Use:   "thickness",
	Short: "Convert a pressed pellet's mass and diameter to a thickness",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		mass, _ := f.GetFloat64("mass")
		diameter, _ := f.GetFloat64("diameter")
		density, _ := f.GetFloat64("density")

		d, err := xrayprep.PelletThickness(mass, diameter, density)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "thickness: %.6g\n", d)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mixCmd)
	mixCmd.Flags().Float64("sample-edge-step", 0, "Sample edge step (area/mass)")
	mixCmd.Flags().Float64("diluent-edge-step", 0, "Diluent edge step (area/mass)")
	mixCmd.Flags().Float64("total-mass", 0.1, "Total pellet mass")
	mixCmd.Flags().Float64("area", 1, "Illuminated pellet area")
	mixCmd.Flags().Float64("target", 1, "Target edge step (Δμt)")

	rootCmd.AddCommand(thicknessCmd)
	thicknessCmd.Flags().Float64("mass", 0, "Pellet mass in g")
	thicknessCmd.Flags().Float64("diameter", 1.3, "Pellet diameter in cm")
	thicknessCmd.Flags().Float64("density", 0, "Pellet density in g/cm³")
}
