package imgtensor

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// gradient returns a w×h opaque image whose channels vary independently
// with position.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	return img
}

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func newCPU(t *testing.T, cfg Config) *CPUTensorizer {
	t.Helper()
	tz, err := NewCPUTensorizer(cfg)
	if err != nil {
		t.Fatalf("NewCPUTensorizer() error = %v", err)
	}
	return tz
}

func TestCPUTensorizer_Shape(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		src  image.Image
	}{
		{"default square", ImageNetDefault(), gradient(300, 300)},
		{"default wide", ImageNetDefault(), gradient(640, 120)},
		{"nocrop tiny", ImageNetNoCrop(), gradient(3, 5)},
		{"odd crop", Config{Channels: 3, Width: 50, Height: 41, Crop: 17, Mean: ImageNetMean, Std: ImageNetStd, Filter: Bilinear}, gradient(90, 70)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tz := newCPU(t, tt.cfg)
			out, err := tz.Tensorize(tt.src)
			if err != nil {
				t.Fatalf("Tensorize() error = %v", err)
			}
			crop := tt.cfg.Crop
			if diff := cmp.Diff([]int{3, crop, crop}, out.Shape); diff != "" {
				t.Errorf("shape mismatch (-want +got):\n%s", diff)
			}
			if out.Len() != 3*crop*crop {
				t.Errorf("Len() = %d, want %d", out.Len(), 3*crop*crop)
			}

			batch, err := tz.TensorizeBatch(tt.src)
			if err != nil {
				t.Fatalf("TensorizeBatch() error = %v", err)
			}
			if diff := cmp.Diff([]int{1, 3, crop, crop}, batch.Shape); diff != "" {
				t.Errorf("batch shape mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCPUTensorizer_NormalizationInvertible(t *testing.T) {
	cfg := ImageNetDefault()
	tz := newCPU(t, cfg)
	out, err := tz.Tensorize(gradient(333, 277))
	if err != nil {
		t.Fatal(err)
	}
	plane := cfg.Crop * cfg.Crop
	for i, v := range out.Data {
		c := i / plane
		p := v*cfg.Std[c] + cfg.Mean[c]
		if p < -1e-5 || p > 1+1e-5 {
			t.Fatalf("element %d (channel %d) reconstructs to %v, outside [0,1]", i, c, p)
		}
	}
}

func TestCPUTensorizer_SolidColor(t *testing.T) {
	cfg := ImageNetDefault()
	tz := newCPU(t, cfg)
	px := color.NRGBA{R: 255, G: 128, B: 0, A: 255}
	out, err := tz.Tensorize(solidImage(97, 61, px))
	if err != nil {
		t.Fatal(err)
	}
	rgb := [3]uint8{px.R, px.G, px.B}
	plane := cfg.Crop * cfg.Crop
	for c := range 3 {
		want := (float32(rgb[c])/255 - cfg.Mean[c]) / cfg.Std[c]
		got := out.Data[c*plane : (c+1)*plane]
		wantPlane := make([]float32, plane)
		for i := range wantPlane {
			wantPlane[i] = want
		}
		if diff := cmp.Diff(wantPlane, got, cmpopts.EquateApprox(0, 1e-5)); diff != "" {
			t.Errorf("channel %d mismatch (-want +got):\n%s", c, diff)
		}
	}
}

func TestCPUTensorizer_CenterCrop(t *testing.T) {
	// With the resample size equal to the source size every filter is the
	// identity, so the crop window can be checked pixel by pixel.
	const w, h, crop = 40, 30, 10
	src := gradient(w, h)
	cfg := Config{Channels: 3, Width: w, Height: h, Crop: crop, Std: [3]float32{1, 1, 1}, Filter: Nearest}
	out, err := newCPU(t, cfg).Tensorize(src)
	if err != nil {
		t.Fatal(err)
	}
	x0, y0 := cfg.CropOrigin()
	for c := range 3 {
		for y := range crop {
			for x := range crop {
				p := src.NRGBAAt(x0+x, y0+y)
				want := float32([3]uint8{p.R, p.G, p.B}[c]) / 255
				if got := out.At(c, y, x); got != want {
					t.Fatalf("At(%d,%d,%d) = %v, want %v", c, y, x, got, want)
				}
			}
		}
	}
}

func TestCPUTensorizer_Deterministic(t *testing.T) {
	tz := newCPU(t, ImageNetDefault())
	src := gradient(500, 371)
	first, err := tz.Tensorize(src)
	if err != nil {
		t.Fatal(err)
	}
	for range 3 {
		again, err := tz.Tensorize(src)
		if err != nil {
			t.Fatal(err)
		}
		for i := range first.Data {
			if math.Float32bits(first.Data[i]) != math.Float32bits(again.Data[i]) {
				t.Fatalf("element %d differs between runs: %v vs %v", i, first.Data[i], again.Data[i])
			}
		}
	}
}

func TestCPUTensorizer_ImageNetNoCropExample(t *testing.T) {
	tz := newCPU(t, ImageNetNoCrop())
	out, err := tz.Tensorize(gradient(512, 384))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{3, 224, 224}, out.Shape); diff != "" {
		t.Fatalf("shape mismatch (-want +got):\n%s", diff)
	}
	lo, hi := float32(math.Inf(1)), float32(math.Inf(-1))
	for _, v := range out.Data {
		lo, hi = min(lo, v), max(hi, v)
	}
	// (0-mean)/std and (1-mean)/std over the ImageNet channels.
	if lo < -2.12 || hi > 2.65 {
		t.Errorf("value range [%v, %v] outside [-2.12, 2.65]", lo, hi)
	}
}

func TestCPUTensorizer_EmptyImage(t *testing.T) {
	tz := newCPU(t, ImageNetDefault())
	if _, err := tz.Tensorize(image.NewRGBA(image.Rectangle{})); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Tensorize(empty) error = %v, want ErrShapeMismatch", err)
	}
	if _, err := tz.TensorizeBatch(nil); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("TensorizeBatch(nil) error = %v, want ErrShapeMismatch", err)
	}
}

func TestNewCPUTensorizer_InvalidConfig(t *testing.T) {
	cfg := ImageNetDefault()
	cfg.Crop = 300
	if _, err := NewCPUTensorizer(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewCPUTensorizer() error = %v, want ErrInvalidConfig", err)
	}
}
