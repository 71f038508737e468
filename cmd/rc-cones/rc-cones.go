package main

import (
	"flag"
	"github.com/cyrilix/robocar-base/cli"
	"github.com/cyrilix/robocar-cones/pkg/frame"
	"github.com/cyrilix/robocar-cones/pkg/part"
	"github.com/cyrilix/robocar-cones/pkg/pipeline"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"
	"image"
	"io"
	"log"
	"os"
)

const (
	DefaultClientId = "robocar-cones"
	DefaultGroupId  = "cones"
)

func main() {
	var mqttBroker, username, password, clientId string
	var cameraTopic, referenceTopic, steeringTopic, objectsTopic string
	var configPath, groupId, framesDir, diagFile string
	var debug bool

	mqttQos := cli.InitIntFlag("MQTT_QOS", 0)
	_, mqttRetain := os.LookupEnv("MQTT_RETAIN")

	cli.InitMqttFlags(DefaultClientId, &mqttBroker, &username, &password, &clientId, &mqttQos, &mqttRetain)

	flag.StringVar(&cameraTopic, "mqtt-topic-camera", os.Getenv("MQTT_TOPIC_CAMERA"), "Mqtt topic that contains camera frames, use MQTT_TOPIC_CAMERA if args not set")
	flag.StringVar(&referenceTopic, "mqtt-topic-reference-steering", os.Getenv("MQTT_TOPIC_REFERENCE_STEERING"), "Mqtt topic that contains reference steering value, use MQTT_TOPIC_REFERENCE_STEERING if args not set")
	flag.StringVar(&steeringTopic, "mqtt-topic-steering", os.Getenv("MQTT_TOPIC_STEERING"), "Mqtt topic to publish steering result, use MQTT_TOPIC_STEERING if args not set")
	flag.StringVar(&objectsTopic, "mqtt-topic-objects", os.Getenv("MQTT_TOPIC_OBJECTS"), "Mqtt topic to publish detected cones, use MQTT_TOPIC_OBJECTS if args not set")
	flag.StringVar(&configPath, "config", os.Getenv("CONES_CONFIG"), "Path to json configuration file, use CONES_CONFIG if args not set")
	flag.StringVar(&groupId, "group-id", DefaultGroupId, "Identifier written on each diagnostic line")
	flag.StringVar(&framesDir, "frames-dir", "", "Replay images from this directory instead of listening camera topic")
	flag.StringVar(&diagFile, "diag-file", "", "Write diagnostic lines to this rotated file instead of stdout")

	frameWidth := cli.InitIntFlag("FRAME_WIDTH", frame.ReferenceSize.X)
	frameHeight := cli.InitIntFlag("FRAME_HEIGHT", frame.ReferenceSize.Y)
	flag.IntVar(&frameWidth, "frame-width", frameWidth, "Frame width used for processing, use FRAME_WIDTH if args not set")
	flag.IntVar(&frameHeight, "frame-height", frameHeight, "Frame height used for processing, use FRAME_HEIGHT if args not set")

	logLevel := zap.LevelFlag("log", zap.InfoLevel, "log level")

	flag.Parse()

	if len(os.Args) <= 1 {
		flag.PrintDefaults()
		os.Exit(1)
	}

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(*logLevel)
	lgr, err := config.Build()
	if err != nil {
		log.Fatalf("unable to init logger: %v", err)
	}
	defer func() {
		if err := lgr.Sync(); err != nil {
			log.Printf("unable to Sync logger: %v\n", err)
		}
	}()
	zap.ReplaceGlobals(lgr)

	debug = logLevel.Enabled(zap.DebugLevel)

	cfg, err := pipeline.LoadConfig(configPath)
	if err != nil {
		zap.S().Fatalf("unable to load configuration: %v", err)
	}
	pl, err := pipeline.New(cfg, groupId)
	if err != nil {
		zap.S().Fatalf("unable to init pipeline: %v", err)
	}
	defer func() {
		if err := pl.Close(); err != nil {
			zap.S().Warnf("unable to release pipeline resources: %v", err)
		}
	}()

	var diag io.Writer = os.Stdout
	if diagFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   diagFile,
			MaxSize:    50,
			MaxBackups: 5,
			Compress:   true,
		}
		defer func() {
			if err := rotated.Close(); err != nil {
				zap.S().Warnf("unable to close diagnostic file: %v", err)
			}
		}()
		diag = rotated
	}

	frameSize := image.Pt(frameWidth, frameHeight)
	options := []part.Option{
		part.WithRecordWriter(pipeline.NewRecordWriter(diag)),
		part.WithFrameSize(frameSize),
		part.WithDebug(debug),
	}

	var client mqtt.Client
	if framesDir != "" {
		src, err := frame.NewDirSource(framesDir, frameSize)
		if err != nil {
			zap.S().Fatalf("unable to replay frames: %v", err)
		}
		zap.S().Infof("replay %v frames from %v", src.Len(), framesDir)
		options = append(options, part.WithSource(src))
	} else {
		client, err = cli.Connect(mqttBroker, username, password, clientId)
		if err != nil {
			log.Fatalf("unable to connect to mqtt bus: %v", err)
		}
		defer client.Disconnect(50)
	}

	p := part.NewPart(client, pl, pipeline.NewState(cfg), cameraTopic, referenceTopic, steeringTopic, objectsTopic, options...)
	defer p.Stop()

	cli.HandleExit(p)

	err = p.Start()
	if err != nil {
		zap.S().Fatalf("unable to start service: %v", err)
	}
}
