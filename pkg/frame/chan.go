package frame

import (
	"context"
	"go.uber.org/zap"
)

// ChanSource is fed by an asynchronous receiver. It keeps only the newest
// frame when the consumer falls behind.
type ChanSource struct {
	frames chan *Frame
}

func NewChanSource() *ChanSource {
	return &ChanSource{frames: make(chan *Frame, 1)}
}

// Push queues f, dropping the pending frame if any. Push must not be called
// concurrently.
func (s *ChanSource) Push(f *Frame) {
	for {
		select {
		case s.frames <- f:
			return
		default:
		}
		select {
		case old := <-s.frames:
			zap.S().Debugf("drop frame %v, consumer too slow", old.ID)
			if err := old.Close(); err != nil {
				zap.S().Warnf("unable to close dropped frame: %v", err)
			}
		default:
		}
	}
}

func (s *ChanSource) Wait(ctx context.Context) (*Frame, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case f := <-s.frames:
		return f, nil
	}
}
