package pipeline

import (
	"github.com/cyrilix/robocar-cones/pkg/steering"
	"image"
	"sync"
	"time"
)

// ReferenceCell holds the latest reference steering value. It is written by
// the asynchronous receiver and read once per frame.
type ReferenceCell struct {
	mu        sync.Mutex
	value     float64
	updatedAt time.Time
}

func (c *ReferenceCell) Set(value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.updatedAt = time.Now()
}

func (c *ReferenceCell) Get() (float64, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.updatedAt
}

// State is what the pipeline carries from one frame to the next.
type State struct {
	direction *steering.DirectionDetector
	Reference *ReferenceCell
	Stats     *Stats
}

func NewState(cfg *Config) *State {
	return &State{
		direction: steering.NewDirectionDetector(cfg.directionThreshold()),
		Reference: &ReferenceCell{},
		Stats:     &Stats{},
	}
}

func (s *State) Direction() steering.TrackDirection {
	return s.direction.Direction()
}

func (s *State) latch(yellowCenters []image.Point, blueBoxes []image.Rectangle) steering.TrackDirection {
	return s.direction.Update(yellowCenters, blueBoxes)
}
