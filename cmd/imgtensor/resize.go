package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/imgtensor"
	"github.com/gogpu/imgtensor/internal/envconfig"
)

func newResizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resize INPUT OUTPUT",
		Short: "Resample an image on the GPU",
		Long: `Resample INPUT to a fixed size with a compute shader and save it to OUTPUT.
The output format follows the extension: .jpg or .jpeg for JPEG, PNG otherwise.`,
		Args: cobra.ExactArgs(2),
		RunE: resizeHandler,
	}
	cmd.Flags().StringP("size", "s", "224x224", "Output size as WxH")
	filter := imgtensor.CatmullRom
	cmd.Flags().Var(&filter, "filter", "Resampling filter: catmullrom, bilinear, approxbilinear or nearest")
	return cmd
}

func resizeHandler(cmd *cobra.Command, args []string) error {
	size, _ := cmd.Flags().GetString("size")
	w, h, err := parseSize(size)
	if err != nil {
		return err
	}
	filter := *cmd.Flags().Lookup("filter").Value.(*imgtensor.Filter)

	img, err := imgtensor.LoadImage(args[0])
	if err != nil {
		return err
	}
	r, err := imgtensor.NewResizer(w, h,
		imgtensor.WithFilter(filter),
		imgtensor.WithPowerPreference(envconfig.Power()),
	)
	if err != nil {
		return err
	}
	if err := r.Rescale(img, args[1]); err != nil {
		return err
	}
	info := r.AdapterInfo()
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%dx%d\t%s (%s)\n", args[1], w, h, info.Name, info.Type)
	return nil
}
