package part

import (
	"context"
	"errors"
	"github.com/cyrilix/robocar-base/service"
	"github.com/cyrilix/robocar-cones/pkg/frame"
	"github.com/cyrilix/robocar-cones/pkg/pipeline"
	"github.com/cyrilix/robocar-protobuf/go/events"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
	"image"
	"io"
	"os"
	"sync"
)

type Option func(p *ConesPart)

// WithSource replaces the camera topic by another frame source. Nothing is
// subscribed nor published in this mode.
func WithSource(src frame.Source) Option {
	return func(p *ConesPart) {
		p.source = src
		p.offline = true
	}
}

func WithRecordWriter(w *pipeline.RecordWriter) Option {
	return func(p *ConesPart) {
		p.writer = w
	}
}

// WithFrameSize resizes received frames, zero keeps their size.
func WithFrameSize(size image.Point) Option {
	return func(p *ConesPart) {
		p.frameSize = size
	}
}

func WithDebug(debug bool) Option {
	return func(p *ConesPart) {
		p.debug = debug
	}
}

func NewPart(client mqtt.Client, pl *pipeline.Pipeline, state *pipeline.State,
	cameraTopic, referenceTopic, steeringTopic, objectsTopic string, options ...Option) *ConesPart {
	frames := frame.NewChanSource()
	ctx, cancel := context.WithCancel(context.Background())
	p := &ConesPart{
		client:         client,
		cameraTopic:    cameraTopic,
		referenceTopic: referenceTopic,
		steeringTopic:  steeringTopic,
		objectsTopic:   objectsTopic,
		pipeline:       pl,
		state:          state,
		frames:         frames,
		source:         frames,
		writer:         pipeline.NewRecordWriter(os.Stdout),
		frameSize:      frame.ReferenceSize,
		ctx:            ctx,
		cancel:         cancel,
	}
	for _, o := range options {
		o(p)
	}
	return p
}

type ConesPart struct {
	client                                                   mqtt.Client
	cameraTopic, referenceTopic, steeringTopic, objectsTopic string

	pipeline *pipeline.Pipeline
	state    *pipeline.State

	frames    *frame.ChanSource
	source    frame.Source
	offline   bool
	frameSize image.Point
	writer    *pipeline.RecordWriter

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	debug    bool
}

// Start processes frames until Stop is called or the source is exhausted.
func (p *ConesPart) Start() error {
	if !p.offline {
		if err := registerCallbacks(p); err != nil {
			zap.S().Errorf("unable to register callbacks: %v", err)
			return err
		}
	}

	for {
		f, err := p.source.Wait(p.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			zap.S().Errorf("unable to get frame: %v", err)
			continue
		}
		p.process(f)
	}
}

// Stop cancels the loop and logs the accuracy summary. Only the first call
// has an effect.
func (p *ConesPart) Stop() {
	p.stopOnce.Do(func() {
		p.cancel()
		if exact, within := p.state.Stats.Accuracy(); p.state.Stats.Total() > 0 {
			zap.S().Infof("%v frames processed, %.1f%% equal to reference, %.1f%% within 50%% of reference",
				p.state.Stats.Total(), exact, within)
		}
		if !p.offline {
			service.StopService("cones", p.client, p.cameraTopic, p.referenceTopic)
		}
	})
}

func (p *ConesPart) process(f *frame.Frame) {
	defer func() {
		if err := f.Close(); err != nil {
			zap.S().Warnf("unable to close frame resource: %v", err)
		}
	}()

	record, err := p.pipeline.Process(p.state, f)
	if err != nil {
		zap.S().Errorf("unable to process frame %v: %v", f.ID, err)
		return
	}
	if err := p.writer.Write(record); err != nil {
		zap.S().Errorf("%v", err)
	}
	if p.debug {
		zap.S().Debugf("frame %v, direction %v, window %v, steering %v, wheel direction %v, reference %v, %v",
			f.ID, record.TrackDirection, record.Window, record.Steering(), record.Direction, record.Reference, record.CentersLine())
	}

	if p.offline {
		return
	}
	p.publishSteering(record)
	if p.objectsTopic != "" {
		p.publishObjects(record)
	}
}

func frameRef(r *pipeline.Record) *events.FrameRef {
	return &events.FrameRef{
		Name:      r.FrameName,
		Id:        r.FrameID,
		CreatedAt: timestamppb.New(r.Timestamp),
	}
}

func (p *ConesPart) publishSteering(r *pipeline.Record) {
	msg := events.SteeringMessage{
		Steering:   r.Steering(),
		Confidence: 0.,
		FrameRef:   frameRef(r),
	}
	if r.Valid {
		msg.Confidence = 1.
	}
	payload, err := proto.Marshal(&msg)
	if err != nil {
		zap.S().Errorf("unable to marshal protobuf steering message: %v", err)
		return
	}
	publish(p.client, p.steeringTopic, &payload)
}

func (p *ConesPart) publishObjects(r *pipeline.Record) {
	boxes := append(r.FrameBoxes(r.Yellow), r.FrameBoxes(r.Blue)...)
	objects := make([]*events.Object, 0, len(boxes))
	w, h := float32(r.FrameSize.X), float32(r.FrameSize.Y)
	for _, b := range boxes {
		objects = append(objects, &events.Object{
			Type:       events.TypeObject_ANY,
			Left:       float32(b.Min.X) / w,
			Top:        float32(b.Min.Y) / h,
			Right:      float32(b.Max.X) / w,
			Bottom:     float32(b.Max.Y) / h,
			Confidence: 1.,
		})
	}
	msg := events.ObjectsMessage{
		Objects:  objects,
		FrameRef: frameRef(r),
	}
	payload, err := proto.Marshal(&msg)
	if err != nil {
		zap.S().Errorf("unable to marshal protobuf objects message: %v", err)
		return
	}
	publish(p.client, p.objectsTopic, &payload)
}

func (p *ConesPart) onFrame(_ mqtt.Client, message mqtt.Message) {
	var msg events.FrameMessage
	err := proto.Unmarshal(message.Payload(), &msg)
	if err != nil {
		zap.S().Errorf("unable to unmarshal protobuf %T message: %v", &msg, err)
		return
	}

	mat, err := frame.Decode(msg.GetFrame(), p.frameSize)
	if err != nil {
		zap.S().Errorf("unable to decode frame %v: %v", msg.GetId().GetId(), err)
		_ = mat.Close()
		return
	}
	p.frames.Push(&frame.Frame{
		ID:        msg.GetId().GetId(),
		Name:      msg.GetId().GetName(),
		CreatedAt: msg.GetId().GetCreatedAt().AsTime(),
		Mat:       mat,
	})
}

func (p *ConesPart) onReferenceSteering(_ mqtt.Client, message mqtt.Message) {
	var msg events.SteeringMessage
	err := proto.Unmarshal(message.Payload(), &msg)
	if err != nil {
		zap.S().Errorf("unable to unmarshal protobuf %T message: %v", &msg, err)
		return
	}
	// same scale as the published steering
	p.state.Reference.Set(float64(msg.GetSteering()))
}

var registerCallbacks = func(p *ConesPart) error {
	err := service.RegisterCallback(p.client, p.cameraTopic, p.onFrame)
	if err != nil {
		return err
	}

	if p.referenceTopic == "" {
		return nil
	}
	err = service.RegisterCallback(p.client, p.referenceTopic, p.onReferenceSteering)
	if err != nil {
		return err
	}
	return nil
}

var publish = func(client mqtt.Client, topic string, payload *[]byte) {
	client.Publish(topic, 0, false, *payload)
}
