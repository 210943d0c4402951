package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/imgtensor"
	"github.com/gogpu/imgtensor/internal/envconfig"
)

// appendEnvDocs adds the environment variables a command honors to its
// usage text.
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}
	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-20s   %s\n", e.Name, e.Description)
	}
	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// NewCLI builds the root command.
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "imgtensor",
		Short:         "Resize images and convert them to normalized CHW tensors",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := envconfig.LogLevel()
			if v, _ := cmd.Flags().GetBool("verbose"); v {
				level = slog.LevelDebug
			}
			imgtensor.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug information to stderr")

	tensorizeCmd := newTensorizeCmd()
	resizeCmd := newResizeCmd()
	compareCmd := newCompareCmd()
	infoCmd := newInfoCmd()

	envVars := envconfig.AsMap()
	for _, cmd := range []*cobra.Command{tensorizeCmd, resizeCmd, compareCmd, infoCmd} {
		switch cmd {
		case tensorizeCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["IMGTENSOR_BACKEND"],
				envVars["IMGTENSOR_JOBS"],
				envVars["IMGTENSOR_POWER"],
				envVars["IMGTENSOR_DEBUG"],
			})
		default:
			appendEnvDocs(cmd, []envconfig.EnvVar{envVars["IMGTENSOR_POWER"], envVars["IMGTENSOR_DEBUG"]})
		}
	}

	rootCmd.AddCommand(tensorizeCmd, resizeCmd, compareCmd, infoCmd)
	return rootCmd
}

// addConfigFlags registers the conversion flags shared by tensorize and
// compare.
func addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("preset", imgtensor.PresetImageNet, "Base configuration: imagenet or imagenet-nocrop")
	f.Int("width", 0, "Resample width (overrides the preset)")
	f.Int("height", 0, "Resample height (overrides the preset)")
	f.Int("crop", 0, "Center crop size (overrides the preset)")
	f.Float32Slice("mean", nil, "Per-channel mean, three values (overrides the preset)")
	f.Float32Slice("std", nil, "Per-channel std, three values (overrides the preset)")
	filter := imgtensor.CatmullRom
	f.Var(&filter, "filter", "Resampling filter: catmullrom, bilinear, approxbilinear or nearest")
}

// configFromFlags starts from --preset and applies every flag that was set.
func configFromFlags(cmd *cobra.Command) (imgtensor.Config, error) {
	f := cmd.Flags()
	name, _ := f.GetString("preset")
	cfg, err := imgtensor.PresetConfig(name)
	if err != nil {
		return cfg, err
	}
	for flag, dst := range map[string]*int{"width": &cfg.Width, "height": &cfg.Height, "crop": &cfg.Crop} {
		if f.Changed(flag) {
			*dst, _ = f.GetInt(flag)
		}
	}
	for flag, dst := range map[string]*[3]float32{"mean": &cfg.Mean, "std": &cfg.Std} {
		if !f.Changed(flag) {
			continue
		}
		v, _ := f.GetFloat32Slice(flag)
		if len(v) != 3 {
			return cfg, fmt.Errorf("%w: --%s needs 3 values, got %d", imgtensor.ErrInvalidConfig, flag, len(v))
		}
		copy(dst[:], v)
	}
	if f.Changed("filter") {
		cfg.Filter = *f.Lookup("filter").Value.(*imgtensor.Filter)
	}
	return cfg, cfg.Validate()
}

// backendOptions returns the construction options from --backend and the
// environment.
func backendOptions(cmd *cobra.Command) []imgtensor.Option {
	opts := []imgtensor.Option{imgtensor.WithPowerPreference(envconfig.Power())}
	backend := envconfig.Backend()
	if f := cmd.Flags().Lookup("backend"); f != nil && f.Changed {
		backend = f.Value.String()
	}
	if backend != "" {
		opts = append(opts, imgtensor.WithBackend(backend))
	}
	return opts
}

// parseSize parses "WxH" or a single number for a square.
func parseSize(s string) (w, h int, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		hs = ws
	}
	if w, err = strconv.Atoi(strings.TrimSpace(ws)); err == nil {
		h, err = strconv.Atoi(strings.TrimSpace(hs))
	}
	if err != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("%w: invalid size %q, want WxH", imgtensor.ErrInvalidConfig, s)
	}
	return w, h, nil
}
