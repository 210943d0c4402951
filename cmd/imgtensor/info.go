package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/imgtensor"
	"github.com/gogpu/imgtensor/internal/envconfig"
	"github.com/gogpu/imgtensor/internal/gpu"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show backends, shader status and the GPU adapter",
		Args:  cobra.NoArgs,
		RunE:  infoHandler,
	}
}

func infoHandler(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "backends:\t%s\n", strings.Join(imgtensor.Backends(), ", "))

	if err := gpu.ValidateShaders(); err != nil {
		fmt.Fprintf(out, "shaders:\t%v\n", err)
	} else {
		fmt.Fprintln(out, "shaders:\tok")
	}

	r, err := imgtensor.NewResizer(1, 1, imgtensor.WithPowerPreference(envconfig.Power()))
	switch {
	case errors.Is(err, imgtensor.ErrDeviceInit):
		fmt.Fprintf(out, "adapter:\tnone (%v)\n", err)
	case err != nil:
		return err
	default:
		info := r.AdapterInfo()
		fmt.Fprintf(out, "adapter:\t%s (%s)\n", info.Name, info.Type)
	}

	vals := envconfig.Values()
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "%s=%s\n", k, vals[k])
	}
	return nil
}
