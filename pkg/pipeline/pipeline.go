package pipeline

import (
	"fmt"
	"github.com/cyrilix/robocar-cones/pkg/cones"
	"github.com/cyrilix/robocar-cones/pkg/frame"
	"github.com/cyrilix/robocar-cones/pkg/steering"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
	"image"
	"time"
)

// staleReference is the age past which the reference steering is reported as
// stale at debug level.
const staleReference = time.Second

// Pipeline turns a frame into a steering record. It holds no state across
// frames: everything carried over lives in State.
type Pipeline struct {
	group     string
	yellow    cones.ColorRange
	blue      cones.ColorRange
	detector  *cones.Detector
	selector  *steering.ROISelector
	estimator *steering.Estimator
}

func New(cfg *Config, group string) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("unable to build pipeline: %w", err)
	}
	extractor := cones.NewCannyExtractor(
		cones.WithCannyThreshold(cfg.CannyThreshold),
		cones.WithApproxEpsilon(cfg.ApproxEpsilon),
		cones.WithGrouping(cfg.GroupBoxes),
	)
	zap.S().Infof("yellow cones in %v (%v), blue cones in %v (%v)",
		cfg.Yellow, cfg.Yellow.Swatch(), cfg.Blue, cfg.Blue.Swatch())
	return &Pipeline{
		group:     group,
		yellow:    cfg.Yellow,
		blue:      cfg.Blue,
		detector:  cones.NewDetector(cones.NewRefiner(cfg.Refiner), extractor),
		selector:  cfg.ROISelector(),
		estimator: steering.NewEstimator(cfg.SteeringBuffer),
	}, nil
}

func (p *Pipeline) Close() error {
	return p.detector.Close()
}

// Process runs the detection on the region of interest selected from the
// direction latched so far, tries to latch the direction, then estimates the
// steering from the chosen cone. A frame without usable cone gives a record
// with Valid set to false. Errors come from the image backend or from an
// estimate requested on an unusable window.
func (p *Pipeline) Process(state *State, f *frame.Frame) (*Record, error) {
	reference, updatedAt := state.Reference.Get()
	if !updatedAt.IsZero() {
		if age := time.Since(updatedAt); age > staleReference {
			zap.S().Debugf("reference steering %v is %v old on frame %v", reference, age, f.ID)
		}
	}
	window := p.selector.Select(state.Direction())
	crop := window.Intersect(image.Rect(0, 0, f.Mat.Cols(), f.Mat.Rows()))

	record := &Record{
		Group:     p.group,
		FrameID:   f.ID,
		FrameName: f.Name,
		Timestamp: f.CreatedAt,
		FrameSize: image.Pt(f.Mat.Cols(), f.Mat.Rows()),
		Window:    window,
		Crop:      crop,
		Yellow:    cones.Detection{Color: cones.Yellow},
		Blue:      cones.Detection{Color: cones.Blue},
		Reference: reference,
	}

	if crop.Empty() {
		zap.S().Warnf("window %v outside frame %vx%v, skip frame %v", window, f.Mat.Cols(), f.Mat.Rows(), f.ID)
	} else if err := p.detect(f.Mat, crop, record); err != nil {
		return nil, fmt.Errorf("unable to detect cones on frame %v: %w", f.ID, err)
	}

	dir := state.latch(record.Yellow.Centers, record.Blue.Boxes)
	record.TrackDirection = dir

	if dir.Determined() {
		if c, center, ok := steering.SelectCone(record.Yellow.Centers, record.Blue.Centers); ok {
			// centers are relative to the crop, the estimator works in window coordinates
			center = center.Add(crop.Min.Sub(window.Min))
			result, err := p.estimator.Estimate(dir, c, center, window)
			if err != nil {
				return nil, fmt.Errorf("unable to estimate steering for frame %v: %w", f.ID, err)
			}
			record.Valid = true
			record.Color = result.Color
			record.Value = result.Angle
			record.Direction = result.Direction
		}
	}

	state.Stats.Add(record)
	return record, nil
}

func (p *Pipeline) detect(img gocv.Mat, crop image.Rectangle, record *Record) error {
	region := img.Region(crop)
	defer func() {
		if err := region.Close(); err != nil {
			zap.S().Warnf("unable to close region resource: %v", err)
		}
	}()

	hsv := gocv.NewMat()
	defer func() {
		if err := hsv.Close(); err != nil {
			zap.S().Warnf("unable to close hsv resource: %v", err)
		}
	}()
	if err := gocv.CvtColor(region, &hsv, gocv.ColorBGRToHSV); err != nil {
		return fmt.Errorf("unable to convert region %v to hsv: %w", crop, err)
	}

	yellow, err := p.detector.Detect(hsv, cones.Yellow, p.yellow)
	if err != nil {
		return err
	}
	blue, err := p.detector.Detect(hsv, cones.Blue, p.blue)
	if err != nil {
		return err
	}
	record.Yellow, record.Blue = yellow, blue
	return nil
}
