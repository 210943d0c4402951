package imgtensor

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// swapBackend replaces a registered backend for the duration of a test.
func swapBackend(t *testing.T, name string, f backendFactory) {
	t.Helper()
	orig := backends.Get(name)
	backends.Register(name, func() backendFactory { return f })
	t.Cleanup(func() {
		backends.Register(name, func() backendFactory { return orig })
	})
}

func TestBackends(t *testing.T) {
	if diff := cmp.Diff([]string{"cpu", "gpu"}, Backends()); diff != "" {
		t.Errorf("Backends() mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_ExplicitCPU(t *testing.T) {
	for _, name := range []string{"cpu", "CPU", " Cpu "} {
		tz, err := New(ImageNetDefault(), WithBackend(name))
		if err != nil {
			t.Fatalf("New(%q) error = %v", name, err)
		}
		if tz.Backend() != BackendCPU {
			t.Errorf("New(%q).Backend() = %q", name, tz.Backend())
		}
		if diff := cmp.Diff(ImageNetDefault(), tz.Config()); diff != "" {
			t.Errorf("Config() mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New(ImageNetDefault(), WithBackend("tpu")); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("New(tpu) error = %v, want ErrUnknownBackend", err)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := ImageNetNoCrop()
	cfg.Channels = 1
	if _, err := New(cfg, WithBackend("cpu")); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New() error = %v, want ErrInvalidConfig", err)
	}
}

func TestNew_FallsBackOnDeviceInit(t *testing.T) {
	swapBackend(t, BackendGPU, func(Config, options) (Tensorizer, error) {
		return nil, fmt.Errorf("%w: request adapter: none found", ErrDeviceInit)
	})

	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	tz, err := NewImageNet()
	if err != nil {
		t.Fatalf("NewImageNet() error = %v", err)
	}
	if tz.Backend() != BackendCPU {
		t.Errorf("Backend() = %q, want cpu", tz.Backend())
	}
	if !strings.Contains(buf.String(), "falling back to CPU") {
		t.Errorf("fallback not logged: %q", buf.String())
	}
}

func TestNew_FallsBackOnSoftwareAdapter(t *testing.T) {
	// The real GPU factory, as if adapter selection had found only a
	// software renderer.
	swapBackend(t, BackendGPU, func(cfg Config, o options) (Tensorizer, error) {
		o.provider = softwareProvider{}
		return newGPUTensorizer(cfg, o)
	})
	tz, err := NewImageNet()
	if err != nil {
		t.Fatalf("NewImageNet() error = %v", err)
	}
	if tz.Backend() != BackendCPU {
		t.Errorf("Backend() = %q, want cpu", tz.Backend())
	}
}

func TestNew_NoFallbackForOtherErrors(t *testing.T) {
	swapBackend(t, BackendGPU, func(Config, options) (Tensorizer, error) {
		return nil, fmt.Errorf("%w: create pipeline", ErrResourceCreation)
	})
	if _, err := NewImageNetNoCrop(); !errors.Is(err, ErrResourceCreation) {
		t.Errorf("NewImageNetNoCrop() error = %v, want ErrResourceCreation", err)
	}
}

func TestNew_ExplicitGPUDoesNotFallBack(t *testing.T) {
	swapBackend(t, BackendGPU, func(Config, options) (Tensorizer, error) {
		return nil, ErrDeviceInit
	})
	if _, err := New(ImageNetDefault(), WithBackend("gpu")); !errors.Is(err, ErrDeviceInit) {
		t.Errorf("New(gpu) error = %v, want ErrDeviceInit", err)
	}
}

func TestNew_OptionsReachFactory(t *testing.T) {
	var got options
	swapBackend(t, BackendGPU, func(_ Config, o options) (Tensorizer, error) {
		got = o
		return NewCPUTensorizer(ImageNetDefault())
	})
	p := fakeProvider{}
	if _, err := New(ImageNetDefault(), WithDeviceProvider(p)); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got.provider != p {
		t.Error("provider did not reach the GPU factory")
	}
}

func TestNewPreset(t *testing.T) {
	tz, err := NewPreset("ImageNet_NoCrop", WithBackend("cpu"))
	if err != nil {
		t.Fatalf("NewPreset() error = %v", err)
	}
	if tz.Config().Crop != 224 || tz.Config().Width != 224 {
		t.Errorf("Config() = %v", tz.Config())
	}
	if _, err := NewPreset("nope"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewPreset(nope) error = %v, want ErrInvalidConfig", err)
	}
}
