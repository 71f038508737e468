package pipeline

import (
	"fmt"
	"github.com/cyrilix/robocar-cones/pkg/cones"
	"github.com/cyrilix/robocar-cones/pkg/steering"
	"image"
	"io"
	"strings"
	"sync"
	"time"
)

// NoEstimate is printed instead of a value when no steering was computed.
const NoEstimate = "-0"

// Record is the outcome of one frame.
type Record struct {
	Group     string
	FrameID   string
	FrameName string
	Timestamp time.Time
	FrameSize image.Point

	// Window is the selected region of interest, its width is the steering
	// normalization base. Crop is the part of it inside the frame.
	Window         image.Rectangle
	Crop           image.Rectangle
	TrackDirection steering.TrackDirection

	// Boxes and centers are in crop coordinates.
	Yellow cones.Detection
	Blue   cones.Detection

	Valid     bool
	Color     cones.Color
	Value     float64
	Direction float64

	// Reference is the last reference steering received, normalized to
	// [-1, 1] like Steering.
	Reference float64
}

// Steering is the published steering: Value normalized by the maximum angle,
// 0 when there is no estimate.
func (r *Record) Steering() float32 {
	if !r.Valid {
		return 0.
	}
	return float32(r.Value / steering.MaxAngle)
}

// Line formats the record as groupId;timestamp;value with the timestamp in
// microseconds.
func (r *Record) Line() string {
	if !r.Valid {
		return fmt.Sprintf("%s;%d;%s", r.Group, r.Timestamp.UnixMicro(), NoEstimate)
	}
	return fmt.Sprintf("%v: %s;%d;%g", r.Color, r.Group, r.Timestamp.UnixMicro(), r.Value)
}

// CentersLine lists the cone centers of both colors.
func (r *Record) CentersLine() string {
	var sb strings.Builder
	sb.WriteString("Yellow objects:")
	for _, pt := range r.Yellow.Centers {
		fmt.Fprintf(&sb, " (%d,%d)", pt.X, pt.Y)
	}
	sb.WriteString("; Blue objects:")
	for _, pt := range r.Blue.Centers {
		fmt.Fprintf(&sb, " (%d,%d)", pt.X, pt.Y)
	}
	return sb.String()
}

// FrameBoxes returns the boxes of the given detection in frame coordinates.
func (r *Record) FrameBoxes(d cones.Detection) []image.Rectangle {
	boxes := make([]image.Rectangle, 0, len(d.Boxes))
	for _, b := range d.Boxes {
		boxes = append(boxes, b.Add(r.Crop.Min))
	}
	return boxes
}

// RecordWriter appends record lines to a writer.
type RecordWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewRecordWriter(w io.Writer) *RecordWriter {
	return &RecordWriter{w: w}
}

func (rw *RecordWriter) Write(r *Record) error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	_, err := fmt.Fprintln(rw.w, r.Line())
	if err != nil {
		return fmt.Errorf("unable to write diagnostic record: %w", err)
	}
	return nil
}
