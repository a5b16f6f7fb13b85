package main

import (
	"fmt"

	"github.com/alexshd/xrayprep"
	"github.com/spf13/cobra"
)

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Find the edge step whose pellet reaches a target absorption",
	Example: `  xrayprep target --sample-below 20 --sample-above 120 \
    --diluent-below 1 --diluent-above 1 --total-mass 0.1 --area 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		var in xrayprep.TargetAbsorptionInput
		in.Sample.Below, _ = f.GetFloat64("sample-below")
		in.Sample.Above, _ = f.GetFloat64("sample-above")
		in.Diluent.Below, _ = f.GetFloat64("diluent-below")
		in.Diluent.Above, _ = f.GetFloat64("diluent-above")
		in.TotalMass, _ = f.GetFloat64("total-mass")
		in.Area, _ = f.GetFloat64("area")
		in.TargetAbsorption, _ = f.GetFloat64("absorption")

		p, err := xrayprep.SuggestTargetEdgeStep(in)
		if err != nil {
			return fmt.Errorf("suggest edge step: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "edge step:          %.6g\n", p.EdgeStep)
		fmt.Fprintf(out, "sample mass:        %.6g\n", p.Mix.SampleMass)
		fmt.Fprintf(out, "diluent mass:       %.6g\n", p.Mix.DiluentMass)
		fmt.Fprintf(out, "sample fraction:    %.3f%%\n", p.Mix.SampleFractionPct)
		fmt.Fprintf(out, "absorption below:   %.4f\n", p.Metrics.AbsorptionBelow)
		fmt.Fprintf(out, "absorption above:   %.4f\n", p.Metrics.AbsorptionAbove)
		fmt.Fprintf(out, "transmission above: %.4g\n", p.Metrics.TransmissionAbove)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(targetCmd)
	targetCmd.Flags().Float64("sample-below", 0, "Sample attenuation coefficient below the edge")
	targetCmd.Flags().Float64("sample-above", 0, "Sample attenuation coefficient above the edge")
	targetCmd.Flags().Float64("diluent-below", 0, "Diluent attenuation coefficient below the edge")
	targetCmd.Flags().Float64("diluent-above", 0, "Diluent attenuation coefficient above the edge")
	targetCmd.Flags().Float64("total-mass", 0.1, "Total pellet mass")
	targetCmd.Flags().Float64("area", 1, "Illuminated pellet area")
	targetCmd.Flags().Float64("absorption", xrayprep.DefaultTargetAbsorption, "Target absorption (μt) above the edge")
}
