package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/imgtensor"
	"github.com/gogpu/imgtensor/internal/envconfig"
)

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare IMAGE...",
		Short: "Compare GPU and CPU tensors for the same images",
		Long: `Tensorize each IMAGE with both backends and report the L2 norm, the
largest and the mean absolute difference. Fails when the largest difference
reaches --tolerance.`,
		Args: cobra.MinimumNArgs(1),
		RunE: compareHandler,
	}
	addConfigFlags(cmd)
	cmd.Flags().Float64("tolerance", imgtensor.DefaultTolerance, "Largest allowed absolute difference")
	return cmd
}

func compareHandler(cmd *cobra.Command, args []string) error {
	cfg, err := configFromFlags(cmd)
	if err != nil {
		return err
	}
	tol, _ := cmd.Flags().GetFloat64("tolerance")

	cpuT, err := imgtensor.NewCPUTensorizer(cfg)
	if err != nil {
		return err
	}
	gpuT, err := imgtensor.NewGPUTensorizer(cfg, imgtensor.WithPowerPreference(envconfig.Power()))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		img, err := imgtensor.LoadImage(path)
		if err != nil {
			return err
		}
		want, err := cpuT.Tensorize(img)
		if err != nil {
			return err
		}
		got, err := gpuT.Tensorize(img)
		if err != nil {
			return err
		}
		d, err := imgtensor.Compare(want, got)
		if err != nil {
			return err
		}
		status := "ok"
		if !d.Within(tol) {
			status = "FAIL"
			failed++
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", path, d, status)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images differ by %v or more", failed, len(args), tol)
	}
	return nil
}
