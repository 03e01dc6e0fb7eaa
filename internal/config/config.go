// Package config loads airpaint settings from TOML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/ayusman/airpaint/internal/board"
	"github.com/ayusman/airpaint/internal/capture"
	"github.com/ayusman/airpaint/internal/detector"
	"github.com/ayusman/airpaint/internal/paint"
)

// ErrInvalid is returned by Validate for unusable settings.
var ErrInvalid = errors.New("invalid configuration")

// FileName is the config file looked up in Dir.
const FileName = "config.toml"

// Config is the full set of start-up settings.
type Config struct {
	Camera   Camera          `toml:"camera"`
	Brush    Brush           `toml:"brush"`
	Buttons  Buttons         `toml:"buttons"`
	Palette  []Swatch        `toml:"palette"`
	Resize   Resize          `toml:"resize"`
	Preview  Preview         `toml:"preview"`
	Detector detector.Config `toml:"detector"`
}

type Camera struct {
	Device     int      `toml:"device"`
	Width      int      `toml:"width"`
	Height     int      `toml:"height"`
	FPS        int      `toml:"fps"`
	Flip       string   `toml:"flip"`
	Brightness *float64 `toml:"brightness"`
	Contrast   *float64 `toml:"contrast"`
	Saturation *float64 `toml:"saturation"`
	Hue        *float64 `toml:"hue"`
}

type Brush struct {
	Color  []int `toml:"color"`
	Radius int   `toml:"radius"`
}

type Buttons struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Swatch is one palette button. Color is [r, g, b].
type Swatch struct {
	Name  string `toml:"name"`
	Color []int  `toml:"color"`
}

// Resize bounds the presented frame. Frames are only ever enlarged.
type Resize struct {
	Enabled bool `toml:"enabled"`
	Height  int  `toml:"height"`
	Width   int  `toml:"width"`
}

type Preview struct {
	Addr      string `toml:"addr"`
	Advertise bool   `toml:"advertise"`
	Window    bool   `toml:"window"`
	Tray      bool   `toml:"tray"`
}

// Default returns the built-in settings: a red, green and blue palette,
// a red brush of radius 6, 100x40 buttons and a 1200x1200 resize target.
func Default() Config {
	return Config{
		Camera: Camera{
			Device: 0,
			Width:  capture.DefaultWidth,
			Height: capture.DefaultHeight,
			FPS:    capture.DefaultFPS,
			Flip:   "none",
		},
		Brush:   Brush{Color: []int{255, 0, 0}, Radius: 6},
		Buttons: Buttons{Width: 100, Height: 40},
		Palette: []Swatch{
			{Name: "red", Color: []int{255, 0, 0}},
			{Name: "green", Color: []int{0, 255, 0}},
			{Name: "blue", Color: []int{0, 0, 255}},
		},
		Resize:   Resize{Enabled: true, Height: 1200, Width: 1200},
		Preview:  Preview{Window: true},
		Detector: detector.DefaultConfig(),
	}
}

// Dir returns ~/.airpaint.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".airpaint"
	}
	return filepath.Join(home, ".airpaint")
}

// DefaultPath returns the config file path inside Dir.
func DefaultPath() string {
	return filepath.Join(Dir(), FileName)
}

// Load decodes the TOML file at path over Default. A palette in the file
// replaces the default palette entirely.
func Load(path string) (Config, error) {
	cfg := Default()
	cfg.Palette = nil

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if !md.IsDefined("palette") {
		cfg.Palette = Default().Palette
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown keys %v in %s", ErrInvalid, undecoded, path)
	}

	return cfg, nil
}

// Save writes cfg to path as TOML, creating the parent directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Validate reports the first unusable setting, wrapped in ErrInvalid.
func (c Config) Validate() error {
	if len(c.Palette) == 0 {
		return fmt.Errorf("%w: palette is empty", ErrInvalid)
	}
	for i, s := range c.Palette {
		if _, err := toColor(s.Color); err != nil {
			return fmt.Errorf("%w: palette[%d] %q: %v", ErrInvalid, i, s.Name, err)
		}
	}
	if _, err := toColor(c.Brush.Color); err != nil {
		return fmt.Errorf("%w: brush color: %v", ErrInvalid, err)
	}
	if c.Brush.Radius <= 0 {
		return fmt.Errorf("%w: brush radius %d", ErrInvalid, c.Brush.Radius)
	}
	if c.Buttons.Width <= 0 || c.Buttons.Height <= 0 {
		return fmt.Errorf("%w: button size %dx%d", ErrInvalid, c.Buttons.Width, c.Buttons.Height)
	}
	if c.Resize.Enabled && (c.Resize.Width <= 0 || c.Resize.Height <= 0) {
		return fmt.Errorf("%w: resize target %dx%d", ErrInvalid, c.Resize.Width, c.Resize.Height)
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("%w: camera size %dx%d", ErrInvalid, c.Camera.Width, c.Camera.Height)
	}
	if _, err := capture.ParseFlip(c.Camera.Flip); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// BoardConfig converts the palette, brush and button settings. Call
// Validate first; invalid colors convert to black.
func (c Config) BoardConfig() board.Config {
	swatches := make([]board.Swatch, 0, len(c.Palette))
	for _, s := range c.Palette {
		col, _ := toColor(s.Color)
		swatches = append(swatches, board.Swatch{Name: s.Name, Color: col})
	}

	brush, _ := toColor(c.Brush.Color)
	return board.Config{
		Palette:      swatches,
		ButtonWidth:  c.Buttons.Width,
		ButtonHeight: c.Buttons.Height,
		BrushColor:   brush,
		BrushRadius:  c.Brush.Radius,
	}
}

// CaptureConfig converts the camera settings. Call Validate first.
func (c Config) CaptureConfig() capture.Config {
	flip, _ := capture.ParseFlip(c.Camera.Flip)
	return capture.Config{
		DeviceID: c.Camera.Device,
		Width:    c.Camera.Width,
		Height:   c.Camera.Height,
		FPS:      c.Camera.FPS,
		Flip:     flip,
		Properties: capture.Properties{
			Brightness: c.Camera.Brightness,
			Contrast:   c.Camera.Contrast,
			Saturation: c.Camera.Saturation,
			Hue:        c.Camera.Hue,
		},
	}
}

func toColor(rgb []int) (paint.Color, error) {
	if len(rgb) != 3 {
		return paint.Black, fmt.Errorf("want 3 channels, got %d", len(rgb))
	}
	for _, v := range rgb {
		if v < 0 || v > 255 {
			return paint.Black, fmt.Errorf("channel %d out of range", v)
		}
	}
	return paint.Color{R: uint8(rgb[0]), G: uint8(rgb[1]), B: uint8(rgb[2])}, nil
}
