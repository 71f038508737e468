package pipeline

import (
	"github.com/cyrilix/robocar-cones/pkg/cones"
	"github.com/cyrilix/robocar-cones/pkg/frame"
	"github.com/cyrilix/robocar-cones/pkg/steering"
	"gocv.io/x/gocv"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"
	"time"
)

var (
	yellowCone = color.RGBA{R: 255, G: 221, B: 0, A: 0}
	blueCone   = color.RGBA{R: 0, G: 80, B: 200, A: 0}
)

type cone struct {
	center image.Point
	c      color.RGBA
}

func syntheticFrame(id string, cs ...cone) *frame.Frame {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), frame.ReferenceSize.Y, frame.ReferenceSize.X, gocv.MatTypeCV8UC3)
	for _, c := range cs {
		r := image.Rect(c.center.X-15, c.center.Y-15, c.center.X+15, c.center.Y+15)
		gocv.Rectangle(&img, r, c.c, -1)
	}
	return &frame.Frame{ID: id, Name: "test", CreatedAt: time.UnixMicro(1_000_000), Mat: img}
}

func newPipeline(t *testing.T, cfg *Config) *Pipeline {
	t.Helper()
	p, err := New(cfg, "cones")
	if err != nil {
		t.Fatalf("unable to build pipeline: %v", err)
	}
	return p
}

func TestPipeline_Process_Undetermined(t *testing.T) {
	cfg := DefaultConfig()
	p := newPipeline(t, cfg)
	defer p.Close()
	state := NewState(cfg)

	f := syntheticFrame("1", cone{center: image.Pt(100, 350), c: yellowCone})
	defer f.Close()

	got, err := p.Process(state, f)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if got.TrackDirection != steering.Undetermined {
		t.Errorf("direction = %v, want %v", got.TrackDirection, steering.Undetermined)
	}
	if got.Valid {
		t.Errorf("record should not hold an estimate before direction is latched")
	}
	if got.Window != steering.DefaultSearchWindow {
		t.Errorf("window = %v, want search window %v", got.Window, steering.DefaultSearchWindow)
	}
	if got.Yellow.Empty() {
		t.Errorf("yellow cone not detected")
	}
	if !strings.HasSuffix(got.Line(), ";"+NoEstimate) {
		t.Errorf("Line() = %v, want no estimate sentinel", got.Line())
	}
	if state.Stats.Total() != 1 {
		t.Errorf("stats total = %v, want 1", state.Stats.Total())
	}
}

func TestPipeline_Process_LatchThenTrack(t *testing.T) {
	cfg := DefaultConfig()
	p := newPipeline(t, cfg)
	defer p.Close()
	state := NewState(cfg)

	f := syntheticFrame("1", cone{center: image.Pt(500, 350), c: yellowCone}, cone{center: image.Pt(100, 350), c: blueCone})
	defer f.Close()

	got, err := p.Process(state, f)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if got.TrackDirection != steering.Clockwise {
		t.Fatalf("direction = %v, want %v", got.TrackDirection, steering.Clockwise)
	}
	if !got.Valid {
		t.Fatalf("latching frame should hold an estimate")
	}
	if got.Color != cones.Blue {
		t.Errorf("chosen cone = %v, want blue", got.Color)
	}
	if got.Value >= 0 || got.Value <= -steering.MaxAngle {
		t.Errorf("angle = %v, want in ]-%v, 0[", got.Value, steering.MaxAngle)
	}
	if !strings.HasPrefix(got.Line(), "Blue: cones;1000000;") {
		t.Errorf("Line() = %v", got.Line())
	}

	// Next frame uses the tracking window, whatever it sees.
	next := syntheticFrame("2")
	defer next.Close()
	got, err = p.Process(state, next)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if got.Window != steering.DefaultTrackingWindow {
		t.Errorf("window = %v, want tracking window %v", got.Window, steering.DefaultTrackingWindow)
	}
	if got.TrackDirection != steering.Clockwise {
		t.Errorf("direction changed to %v", got.TrackDirection)
	}
	if got.Valid {
		t.Errorf("empty frame should not hold an estimate")
	}
}

func TestPipeline_Process_YellowOnlyClockwise(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClockwiseWindow = Window{X: 0, Y: 280, Width: 160, Height: 60}
	p := newPipeline(t, cfg)
	defer p.Close()

	state := NewState(cfg)
	if d := state.latch([]image.Point{{X: 500, Y: 0}}, []image.Rectangle{image.Rect(100, 0, 110, 10)}); d != steering.Clockwise {
		t.Fatalf("unable to latch clockwise direction, got %v", d)
	}

	f := syntheticFrame("1", cone{center: image.Pt(100, 310), c: yellowCone})
	defer f.Close()

	got, err := p.Process(state, f)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if !got.Valid {
		t.Fatalf("record should hold an estimate")
	}
	if got.Color != cones.Yellow {
		t.Errorf("chosen cone = %v, want yellow", got.Color)
	}
	if math.Abs(got.Value) <= 0 || math.Abs(got.Value) >= steering.MaxAngle {
		t.Errorf("angle = %v, want magnitude in ]0, %v[", got.Value, steering.MaxAngle)
	}
	boxes := got.FrameBoxes(got.Yellow)
	if len(boxes) == 0 || !image.Pt(100, 310).In(boxes[0].Inset(-2)) {
		t.Errorf("yellow boxes in frame coordinates = %v, want around (100,310)", boxes)
	}
}

func TestPipeline_Process_WindowOutsideFrame(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SearchWindow = Window{X: 700, Y: 0, Width: 100, Height: 100}
	cfg.ClockwiseWindow = Window{X: 700, Y: 0, Width: 50, Height: 50}
	cfg.CounterClockwiseWindow = Window{X: 700, Y: 0, Width: 50, Height: 50}
	p := newPipeline(t, cfg)
	defer p.Close()
	state := NewState(cfg)

	f := syntheticFrame("1", cone{center: image.Pt(100, 350), c: yellowCone})
	defer f.Close()

	got, err := p.Process(state, f)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if got.Valid || !got.Yellow.Empty() || !got.Blue.Empty() {
		t.Errorf("nothing should be detected outside the frame: %+v", got)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Yellow.Min.H = 40
	if _, err := New(cfg, "cones"); err == nil {
		t.Errorf("New() should reject an inverted color range")
	}
}

func TestNewState_DirectionThreshold(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
		search    Window
		want      int
	}{
		{name: "reference frame middle", threshold: 320, search: windowOf(steering.DefaultSearchWindow), want: 320},
		{name: "half of search window", threshold: 0, search: Window{X: 100, Y: 260, Width: 400, Height: 220}, want: 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DirectionThreshold = tt.threshold
			cfg.SearchWindow = tt.search
			if got := NewState(cfg).direction.Threshold(); got != tt.want {
				t.Errorf("threshold = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPipeline_Process_UnconvertibleFrame(t *testing.T) {
	cfg := DefaultConfig()
	p := newPipeline(t, cfg)
	defer p.Close()
	state := NewState(cfg)

	gray := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(128, 0, 0, 0), frame.ReferenceSize.Y, frame.ReferenceSize.X, gocv.MatTypeCV8UC1)
	f := &frame.Frame{ID: "gray", Name: "test", CreatedAt: time.UnixMicro(1_000_000), Mat: gray}
	defer f.Close()

	got, err := p.Process(state, f)
	if err == nil {
		t.Fatalf("Process() = %v, want error on a single channel frame", got.Line())
	}
	if state.Stats.Total() != 0 {
		t.Errorf("failed frame should not be counted in stats")
	}
}

func TestPipeline_Process_WindowPastLeftEdge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClockwiseWindow = Window{X: -100, Y: 280, Width: 260, Height: 60}
	p := newPipeline(t, cfg)
	defer p.Close()

	state := NewState(cfg)
	if d := state.latch([]image.Point{{X: 500, Y: 0}}, []image.Rectangle{image.Rect(100, 0, 110, 10)}); d != steering.Clockwise {
		t.Fatalf("unable to latch clockwise direction, got %v", d)
	}

	f := syntheticFrame("1", cone{center: image.Pt(100, 310), c: yellowCone})
	defer f.Close()

	got, err := p.Process(state, f)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if !got.Valid {
		t.Fatalf("record should hold an estimate")
	}
	// the cone lies 200 px from the window left side, not 100 px from the crop one
	want := steering.WheelAngle(false, cones.Yellow, 200, 260, steering.DefaultBuffer)
	if math.Abs(got.Value-want) > 0.01 {
		t.Errorf("angle = %v, want about %v", got.Value, want)
	}
}
