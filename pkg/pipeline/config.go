package pipeline

import (
	"encoding/json"
	"fmt"
	"github.com/cyrilix/robocar-cones/pkg/cones"
	"github.com/cyrilix/robocar-cones/pkg/steering"
	"go.uber.org/zap"
	"image"
	"os"
)

// Window is a crop rectangle as written in the configuration file.
type Window struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (w Window) Rect() image.Rectangle {
	return image.Rect(w.X, w.Y, w.X+w.Width, w.Y+w.Height)
}

func windowOf(r image.Rectangle) Window {
	return Window{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Config holds the tuned constants of the pipeline.
type Config struct {
	Yellow cones.ColorRange `json:"yellow"`
	Blue   cones.ColorRange `json:"blue"`

	Refiner        cones.RefinerConfig `json:"refiner"`
	CannyThreshold float32             `json:"canny_threshold"`
	ApproxEpsilon  float64             `json:"approx_epsilon"`
	GroupBoxes     bool                `json:"group_boxes"`

	SearchWindow           Window `json:"search_window"`
	ClockwiseWindow        Window `json:"clockwise_window"`
	CounterClockwiseWindow Window `json:"counter_clockwise_window"`

	// DirectionThreshold is the x coordinate splitting left and right cones
	// when latching the direction, 0 means half of the search window.
	DirectionThreshold int `json:"direction_threshold"`
	SteeringBuffer     int `json:"steering_buffer"`
}

func DefaultConfig() *Config {
	return &Config{
		Yellow:                 cones.YellowRange,
		Blue:                   cones.BlueRange,
		Refiner:                cones.DefaultRefinerConfig,
		CannyThreshold:         cones.DefaultCannyThreshold,
		ApproxEpsilon:          cones.DefaultApproxEpsilon,
		SearchWindow:           windowOf(steering.DefaultSearchWindow),
		ClockwiseWindow:        windowOf(steering.DefaultTrackingWindow),
		CounterClockwiseWindow: windowOf(steering.DefaultTrackingWindow),
		DirectionThreshold:     steering.DefaultDirectionThreshold,
		SteeringBuffer:         steering.DefaultBuffer,
	}
}

// LoadConfig reads a json configuration file on top of the default values.
// An empty path returns the defaults.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	if configPath == "" {
		zap.S().Warnf("no configuration defined for cones pipeline, use default")
		return cfg, nil
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("unable to load pipeline config from file '%v': %w", configPath, err)
	}
	err = json.Unmarshal(content, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to unmarshal json config '%s': %w", configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config '%s': %w", configPath, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Yellow.Validate(); err != nil {
		return fmt.Errorf("invalid yellow range: %w", err)
	}
	if err := c.Blue.Validate(); err != nil {
		return fmt.Errorf("invalid blue range: %w", err)
	}
	if err := c.Refiner.Validate(); err != nil {
		return fmt.Errorf("invalid refiner: %w", err)
	}
	if c.CannyThreshold <= 0 {
		return fmt.Errorf("invalid canny threshold %v, must be > 0", c.CannyThreshold)
	}
	if c.ApproxEpsilon < 0 {
		return fmt.Errorf("invalid polygon approximation epsilon %v, must be >= 0", c.ApproxEpsilon)
	}
	if err := c.ROISelector().Validate(); err != nil {
		return fmt.Errorf("invalid windows: %w", err)
	}
	if c.DirectionThreshold < 0 {
		return fmt.Errorf("invalid direction threshold %v, must be >= 0", c.DirectionThreshold)
	}
	if c.SteeringBuffer < 0 || c.SteeringBuffer >= c.ClockwiseWindow.Width/2 || c.SteeringBuffer >= c.CounterClockwiseWindow.Width/2 {
		return fmt.Errorf("invalid steering buffer %v for tracking windows", c.SteeringBuffer)
	}
	return nil
}

func (c *Config) ROISelector() *steering.ROISelector {
	return &steering.ROISelector{
		Search:           c.SearchWindow.Rect(),
		Clockwise:        c.ClockwiseWindow.Rect(),
		CounterClockwise: c.CounterClockwiseWindow.Rect(),
	}
}

func (c *Config) directionThreshold() int {
	if c.DirectionThreshold == 0 {
		return c.SearchWindow.Width / 2
	}
	return c.DirectionThreshold
}
