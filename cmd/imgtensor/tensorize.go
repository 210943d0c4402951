package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/imgtensor"
	"github.com/gogpu/imgtensor/internal/envconfig"
)

func newTensorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tensorize IMAGE...",
		Short: "Convert images to normalized CHW tensors",
		Long: `Convert images to normalized channel-first tensors.

Each IMAGE is written as raw little-endian elements to OUTDIR/<name>.<dtype>,
with shape (1, 3, crop, crop). With --stack all images go to one file with
shape (N, 3, crop, crop), in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: tensorizeHandler,
	}
	addConfigFlags(cmd)
	cmd.Flags().String("backend", "", "Backend: gpu or cpu (default: gpu, falling back to cpu)")
	cmd.Flags().String("dtype", "f32", "Element type: f32 or f16")
	cmd.Flags().StringP("outdir", "o", ".", "Output directory")
	cmd.Flags().String("stack", "", "Write all tensors stacked into this file instead")
	cmd.Flags().UintP("jobs", "j", 0, "Images converted in parallel (default $IMGTENSOR_JOBS or number of CPUs)")
	return cmd
}

func tensorizeHandler(cmd *cobra.Command, args []string) error {
	cfg, err := configFromFlags(cmd)
	if err != nil {
		return err
	}
	dts, _ := cmd.Flags().GetString("dtype")
	dt, err := imgtensor.ParseDType(dts)
	if err != nil {
		return err
	}
	jobs, _ := cmd.Flags().GetUint("jobs")
	if jobs == 0 {
		jobs = envconfig.Jobs()
	}

	tz, err := imgtensor.New(cfg, backendOptions(cmd)...)
	if err != nil {
		return err
	}

	tensors, err := tensorizeAll(cmd.Context(), tz, args, int(jobs)) //nolint:gosec // small
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if stack, _ := cmd.Flags().GetString("stack"); stack != "" {
		batch, err := imgtensor.StackBatch(tensors...)
		if err != nil {
			return err
		}
		if err := writeTensor(stack, batch, dt); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\t%v\t%s\t%s\n", stack, batch.Shape, dt, tz.Backend())
		return nil
	}

	outdir, _ := cmd.Flags().GetString("outdir")
	for i, t := range tensors {
		path := filepath.Join(outdir, tensorFileName(args[i], dt))
		t = t.WithBatch()
		if err := writeTensor(path, t, dt); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\t%v\t%s\t%s\n", path, t.Shape, dt, tz.Backend())
	}
	return nil
}

// tensorizeAll converts paths with at most jobs conversions in flight. The
// result is in argument order. The first failure cancels the rest.
func tensorizeAll(ctx context.Context, tz imgtensor.Tensorizer, paths []string, jobs int) ([]imgtensor.Tensor, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	out := make([]imgtensor.Tensor, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := imgtensor.LoadImage(path)
			if err != nil {
				return err
			}
			t, err := tz.Tensorize(img)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			out[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// tensorFileName maps photo.jpg to photo.f32.
func tensorFileName(path string, dt imgtensor.DType) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "." + dt.String()
}

func writeTensor(path string, t imgtensor.Tensor, dt imgtensor.DType) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("%w: create file: %w", imgtensor.ErrIO, err)
	}
	if err := t.Encode(f, dt); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close file: %w", imgtensor.ErrIO, err)
	}
	return nil
}
