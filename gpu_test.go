package imgtensor

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/draw"
)

// fakeProvider is a DeviceProvider whose device is not a *wgpu.Device.
type fakeProvider struct{}

func (fakeProvider) Device() gpucontext.Device             { return "not a device" }
func (fakeProvider) Queue() gpucontext.Queue               { return nil }
func (fakeProvider) Adapter() gpucontext.Adapter           { return nil }
func (fakeProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }
func (fakeProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{Name: "fake"} }

// softwareProvider reports a CPU-emulated adapter.
type softwareProvider struct{ fakeProvider }

func (softwareProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "Software Renderer", Type: gpucontext.AdapterTypeSoftware}
}

// newTestGPU builds a GPU tensorizer on a hardware adapter or skips.
func newTestGPU(t *testing.T, cfg Config) *GPUTensorizer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping GPU test in short mode")
	}
	tz, err := NewGPUTensorizer(cfg)
	if err != nil {
		if errors.Is(err, ErrDeviceInit) {
			t.Skipf("GPU not available: %v", err)
		}
		t.Fatalf("NewGPUTensorizer() error = %v", err)
	}
	t.Cleanup(tz.release)
	return tz
}

func TestGPUTensorizer_MatchesCPU(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		src  image.Image
	}{
		{"imagenet downscale", ImageNetDefault(), gradient(512, 384)},
		{"imagenet upscale", ImageNetDefault(), gradient(100, 50)},
		{"nocrop", ImageNetNoCrop(), gradient(640, 480)},
		{"bilinear odd crop", Config{Channels: 3, Width: 77, Height: 60, Crop: 45, Mean: ImageNetMean, Std: ImageNetStd, Filter: Bilinear}, gradient(300, 211)},
		{"translucent downscale", ImageNetDefault(), translucent(512, 384, 0)},
		{"translucent upscale", ImageNetNoCrop(), translucent(90, 70, 0)},
		{"translucent nearest", Config{Channels: 3, Width: 64, Height: 64, Crop: 64, Mean: ImageNetMean, Std: ImageNetStd, Filter: Nearest}, translucent(200, 150, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gpuT := newTestGPU(t, tt.cfg)
			cpuT := newCPU(t, tt.cfg)

			got, err := gpuT.Tensorize(tt.src)
			if err != nil {
				t.Fatalf("GPU Tensorize() error = %v", err)
			}
			want, err := cpuT.Tensorize(tt.src)
			if err != nil {
				t.Fatalf("CPU Tensorize() error = %v", err)
			}
			if diff := cmp.Diff(want.Shape, got.Shape); diff != "" {
				t.Fatalf("shape mismatch (-cpu +gpu):\n%s", diff)
			}
			d, err := Compare(want, got)
			if err != nil {
				t.Fatal(err)
			}
			if !d.Within(DefaultTolerance) {
				t.Errorf("GPU differs from CPU: %v", d)
			}
		})
	}
}

// translucent returns a gradient whose alpha ramps from 64 to opaque
// across x, except that the first transparent columns have alpha 0.
func translucent(w, h, transparent int) *image.NRGBA {
	img := gradient(w, h)
	for y := range h {
		for x := range w {
			a := uint8(64 + x*191/max(w-1, 1))
			if x < transparent {
				a = 0
			}
			img.Pix[img.PixOffset(x, y)+3] = a
		}
	}
	return img
}

func TestResizer_MatchesCPUOnTranslucent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping GPU test in short mode")
	}
	r, err := NewResizer(61, 47)
	if err != nil {
		if errors.Is(err, ErrDeviceInit) {
			t.Skipf("GPU not available: %v", err)
		}
		t.Fatalf("NewResizer() error = %v", err)
	}
	t.Cleanup(r.release)

	src := translucent(160, 120, 20)
	got, err := r.Resize(src)
	if err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
	want := image.NewNRGBA(image.Rect(0, 0, 61, 47))
	draw.CatmullRom.Scale(want, want.Rect, src, src.Bounds(), draw.Src, nil)

	for y := range 47 {
		for x := range 61 {
			g, w := got.NRGBAAt(x, y), want.NRGBAAt(x, y)
			if absDiff8(g.A, w.A) > 1 {
				t.Fatalf("alpha at (%d,%d) = %d, want %d", x, y, g.A, w.A)
			}
			// Straight color is ill-conditioned under near-zero alpha.
			if w.A < 32 {
				continue
			}
			if absDiff8(g.R, w.R) > 2 || absDiff8(g.G, w.G) > 2 || absDiff8(g.B, w.B) > 2 {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, g, w)
			}
		}
	}
}

func absDiff8(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestGPUTensorizer_Batch(t *testing.T) {
	tz := newTestGPU(t, ImageNetDefault())
	out, err := tz.TensorizeBatch(gradient(320, 240))
	if err != nil {
		t.Fatalf("TensorizeBatch() error = %v", err)
	}
	if diff := cmp.Diff([]int{1, 3, 224, 224}, out.Shape); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
	if tz.Backend() != BackendGPU {
		t.Errorf("Backend() = %q", tz.Backend())
	}
}

func TestResizer_Rescale(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping GPU test in short mode")
	}
	r, err := NewResizer(224, 224)
	if err != nil {
		if errors.Is(err, ErrDeviceInit) {
			t.Skipf("GPU not available: %v", err)
		}
		t.Fatalf("NewResizer() error = %v", err)
	}
	t.Cleanup(r.release)

	path := filepath.Join(t.TempDir(), "out.png")
	if err := r.Rescale(solidImage(100, 50, color.NRGBA{R: 10, G: 200, B: 30, A: 255}), path); err != nil {
		t.Fatalf("Rescale() error = %v", err)
	}
	img, err := LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage() error = %v", err)
	}
	if got := img.Bounds().Size(); got != (image.Point{X: 224, Y: 224}) {
		t.Errorf("saved size = %v, want 224x224", got)
	}

	if err := r.Rescale(gradient(10, 10), filepath.Join(t.TempDir(), "missing", "out.png")); !errors.Is(err, ErrIO) {
		t.Errorf("Rescale(unwritable) error = %v, want ErrIO", err)
	}
}

func TestNewResizer_InvalidArgs(t *testing.T) {
	if _, err := NewResizer(0, 10); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewResizer(0, 10) error = %v, want ErrInvalidConfig", err)
	}
	if _, err := NewResizer(10, 10, WithFilter(Filter(-1))); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewResizer(bad filter) error = %v, want ErrInvalidConfig", err)
	}
}

func TestNewGPUTensorizer_BadProvider(t *testing.T) {
	_, err := NewGPUTensorizer(ImageNetDefault(), WithDeviceProvider(fakeProvider{}))
	if !errors.Is(err, ErrDeviceInit) {
		t.Errorf("NewGPUTensorizer(fake provider) error = %v, want ErrDeviceInit", err)
	}
	// An explicit provider selects the GPU backend, so no fallback happens.
	if _, err := New(ImageNetDefault(), WithDeviceProvider(fakeProvider{})); !errors.Is(err, ErrDeviceInit) {
		t.Errorf("New(fake provider) error = %v, want ErrDeviceInit", err)
	}
}

func TestGPUConstructors_RejectSoftwareAdapter(t *testing.T) {
	sw := WithDeviceProvider(softwareProvider{})
	if _, err := NewGPUTensorizer(ImageNetDefault(), sw); !errors.Is(err, ErrDeviceInit) {
		t.Errorf("NewGPUTensorizer(software) error = %v, want ErrDeviceInit", err)
	}
	if _, err := NewResizer(224, 224, sw); !errors.Is(err, ErrDeviceInit) {
		t.Errorf("NewResizer(software) error = %v, want ErrDeviceInit", err)
	}
	if _, err := New(ImageNetDefault(), WithBackend("gpu"), sw); !errors.Is(err, ErrDeviceInit) {
		t.Errorf("New(gpu, software) error = %v, want ErrDeviceInit", err)
	}

	// On this machine's own adapter: either a hardware engine or ErrDeviceInit.
	tz, err := NewGPUTensorizer(ImageNetDefault())
	if err != nil {
		if !errors.Is(err, ErrDeviceInit) {
			t.Fatalf("NewGPUTensorizer() error = %v, want ErrDeviceInit kind", err)
		}
	} else {
		defer tz.release()
		if tz.AdapterInfo().Type == gpucontext.AdapterTypeSoftware {
			t.Errorf("NewGPUTensorizer() accepted software adapter %q", tz.AdapterInfo().Name)
		}
	}
	r, err := NewResizer(8, 8)
	if err != nil {
		if !errors.Is(err, ErrDeviceInit) {
			t.Fatalf("NewResizer() error = %v, want ErrDeviceInit kind", err)
		}
		return
	}
	defer r.release()
	if r.AdapterInfo().Type == gpucontext.AdapterTypeSoftware {
		t.Errorf("NewResizer() accepted software adapter %q", r.AdapterInfo().Name)
	}
}
