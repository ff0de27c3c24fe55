package main

import (
	"context"
	"flag"
	"log"
	"net/netip"
	"os"
	"os/signal"
	"syscall"

	"essaim.dev/topography/config"
	"essaim.dev/topography/depthstream"
	"essaim.dev/topography/frame"
	"essaim.dev/topography/freenect"
	"essaim.dev/topography/kinect"
	"essaim.dev/topography/logging"
)

var (
	configFlag string
)

func init() {
	flag.StringVar(&configFlag, "config", config.FileName, "path to the yaml configuration file")
}

func main() {
	flag.Parse()

	cfg, err := config.Load(configFlag)
	if err != nil {
		log.Fatalf("could not load configuration: %s", err)
	}

	logger, err := logging.New("topographyserver", cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		log.Fatalf("could not create logger: %s", err)
	}
	defer logger.Sync()

	addr, err := netip.ParseAddrPort(cfg.Stream.Addr)
	if err != nil {
		logger.Fatalw("could not parse stream address", "addr", cfg.Stream.Addr, "error", err)
	}

	server, err := depthstream.NewServer(addr, frame.Width, frame.Height, cfg.Stream.MaxFPS, cfg.Stream.Chunks, logger.Named("depthstream"))
	if err != nil {
		logger.Fatalw("could not start depth stream server", "error", err)
	}
	defer server.Close()

	sensor, err := freenect.OpenSensor(cfg.Sensor.Device, cfg.Sensor.Tilt)
	if err != nil {
		logger.Fatalw("could not open kinect", "device", cfg.Sensor.Device, "error", err)
	}
	sensor.Context().SetLogFunc(freenect.ZapLogFunc(logger.Named("freenect")))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Infow("relaying depth frames", "addr", addr, "maxfps", cfg.Stream.MaxFPS, "chunks", cfg.Stream.Chunks)

	drv := kinect.NewDriver(sensor, cfg.Sensor.Poll, logger, server.Publish)
	if err := drv.Run(ctx); err != nil {
		logger.Errorw("depth acquisition stopped", "error", err)
	}

	logger.Infow("stopped", "frames", drv.Frames(), "sent", server.Sent(), "skipped", server.Skipped())
}
