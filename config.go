package imgtensor

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Channels is the only supported channel count: R, G, B.
const Channels = 3

// ImageNet normalization constants, in [0,1] pixel units.
var (
	ImageNetMean = [3]float32{0.485, 0.456, 0.406}
	ImageNetStd  = [3]float32{0.229, 0.224, 0.225}
)

// Preset names accepted by PresetConfig.
const (
	PresetImageNet       = "imagenet"
	PresetImageNetNoCrop = "imagenet-nocrop"
)

// Config describes the conversion from an image to a tensor. It is a plain
// value: backends copy it at construction and never modify it.
type Config struct {
	// Channels must be 3.
	Channels int

	// Width and Height are the resample target before cropping.
	Width, Height int

	// Crop is the side of the centered square kept after resampling.
	Crop int

	// Mean and Std normalize each channel as (v - Mean[c]) / Std[c], with
	// v in [0,1].
	Mean, Std [3]float32

	// Filter is the resampling kernel.
	Filter Filter
}

// ImageNetDefault resamples to 256×256 and center-crops to 224×224.
func ImageNetDefault() Config {
	return Config{
		Channels: Channels,
		Width:    256,
		Height:   256,
		Crop:     224,
		Mean:     ImageNetMean,
		Std:      ImageNetStd,
		Filter:   CatmullRom,
	}
}

// ImageNetNoCrop resamples straight to 224×224.
func ImageNetNoCrop() Config {
	c := ImageNetDefault()
	c.Width, c.Height, c.Crop = 224, 224, 224
	return c
}

// PresetConfig returns the named preset. Names are matched
// case-insensitively.
func PresetConfig(name string) (Config, error) {
	switch foldName(name) {
	case PresetImageNet, "imagenet-default":
		return ImageNetDefault(), nil
	case PresetImageNetNoCrop:
		return ImageNetNoCrop(), nil
	default:
		return Config{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, name)
	}
}

// Validate reports the first problem with c, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.Channels != Channels:
		return fmt.Errorf("%w: channels = %d, want %d", ErrInvalidConfig, c.Channels, Channels)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: resample size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.Crop <= 0:
		return fmt.Errorf("%w: crop = %d", ErrInvalidConfig, c.Crop)
	case c.Crop > c.Width || c.Crop > c.Height:
		return fmt.Errorf("%w: crop %d exceeds resample size %dx%d", ErrInvalidConfig, c.Crop, c.Width, c.Height)
	case !c.Filter.valid():
		return fmt.Errorf("%w: filter %d", ErrInvalidConfig, int(c.Filter))
	}
	for i := range Channels {
		m, s := float64(c.Mean[i]), float64(c.Std[i])
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return fmt.Errorf("%w: mean[%d] = %v", ErrInvalidConfig, i, m)
		}
		if !(s > 0) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: std[%d] = %v", ErrInvalidConfig, i, s)
		}
	}
	return nil
}

// CropOrigin returns the top-left corner of the centered crop inside the
// resampled image.
func (c Config) CropOrigin() (x, y int) {
	return (c.Width - c.Crop) / 2, (c.Height - c.Crop) / 2
}

// Shape returns the single-image tensor shape (3, Crop, Crop).
func (c Config) Shape() []int {
	return []int{Channels, c.Crop, c.Crop}
}

// String implements fmt.Stringer.
func (c Config) String() string {
	return fmt.Sprintf("%dx%d crop %d %s mean %v std %v", c.Width, c.Height, c.Crop, c.Filter, c.Mean, c.Std)
}

// foldName normalizes a user-supplied name: surrounding space is trimmed,
// case is folded and underscores become hyphens. A Caser is stateful, so
// each call builds its own.
func foldName(s string) string {
	s = cases.Lower(language.Und).String(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "_", "-")
}
