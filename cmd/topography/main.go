package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"net/netip"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/exp/shiny/driver"

	"essaim.dev/topography/colorize"
	"essaim.dev/topography/config"
	"essaim.dev/topography/depthstream"
	"essaim.dev/topography/display"
	"essaim.dev/topography/dmx"
	"essaim.dev/topography/exchange"
	"essaim.dev/topography/frame"
	"essaim.dev/topography/freenect"
	"essaim.dev/topography/kinect"
	"essaim.dev/topography/lighting"
	"essaim.dev/topography/logging"
	"essaim.dev/topography/snapshot"
)

var (
	configFlag string
	mkconfFlag bool
)

func init() {
	flag.StringVar(&configFlag, "config", config.FileName, "path to the yaml configuration file")
	flag.BoolVar(&mkconfFlag, "mkconf", false, "print the default configuration and exit")
}

func main() {
	flag.Parse()

	if mkconfFlag {
		if err := config.WriteDefault(os.Stdout); err != nil {
			log.Fatalf("could not write configuration: %s", err)
		}
		return
	}

	cfg, err := config.Load(configFlag)
	if err != nil {
		log.Fatalf("could not load configuration: %s", err)
	}

	logger, err := logging.New("topography", cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		log.Fatalf("could not create logger: %s", err)
	}
	defer logger.Sync()

	lut, err := cfg.Spectrum.Build()
	if err != nil {
		logger.Fatalw("could not build spectrum", "mode", cfg.Spectrum.Mode, "error", err)
	}

	ex, err := exchange.New(frame.Width, frame.Height, cfg.Display.Blocking)
	if err != nil {
		logger.Fatalw("could not allocate frame buffers", "error", err)
	}

	colorizer, err := colorize.New(lut, colorize.Options{
		Contour: cfg.Contour.Enabled,
		Bands:   cfg.Contour.Bands,
	})
	if err != nil {
		logger.Fatalw("could not create colorizer", "error", err)
	}

	saver, err := snapshot.NewSaver(cfg.Snapshot.Dir)
	if err != nil {
		logger.Fatalw("could not prepare snapshots", "error", err)
	}

	sensor, err := openSensor(cfg.Sensor, logger)
	if err != nil {
		logger.Fatalw("could not open depth sensor", "source", cfg.Sensor.Source, "error", err)
	}

	recorder := &kinect.Recorder{}
	handlers := []kinect.DepthFunc{
		kinect.NewRenderer(ex, colorizer, logger).Depth,
		recorder.Depth,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Stream.Serve {
		server, err := newStreamServer(cfg.Stream, logger)
		if err != nil {
			logger.Fatalw("could not start depth stream server", "error", err)
		}
		defer server.Close()

		handlers = append(handlers, server.Publish)
	}

	// Closed once the fixture has been blacked out, before the device is.
	lightingDone := make(chan struct{})

	if cfg.Lighting.Enabled {
		dev, err := dmx.OpenDevice()
		if err != nil {
			logger.Fatalw("could not open dmx device", "error", err)
		}
		defer dev.Close()

		follower := lighting.NewFollower(colorizer, dev, cfg.Lighting.Channel, cfg.Lighting.Refresh, logger)
		handlers = append(handlers, follower.Depth)

		go func() {
			defer close(lightingDone)

			if err := follower.Run(ctx); err != nil {
				logger.Errorw("lighting stopped", "error", err)
			}
		}()
	} else {
		close(lightingDone)
	}

	drv := kinect.NewDriver(sensor, cfg.Sensor.Poll, logger, handlers...)

	acquisitionDone := make(chan struct{})
	go func() {
		defer close(acquisitionDone)

		if err := drv.Run(ctx); err != nil {
			logger.Errorw("depth acquisition stopped", "error", err)
		}
	}()

	d := display.New(ex, colorizer, snapshotFunc(saver, recorder, logger), display.Options{
		Title:   cfg.Display.Title,
		Width:   frame.Width,
		Height:  frame.Height,
		Refresh: cfg.Display.Refresh,
		Flip:    cfg.Display.Flip,
	}, logger)

	displayStopped := make(chan error, 1)
	go func() {
		displayStopped <- d.Run(ctx)
	}()

	go reloadOnHangup(ctx, configFlag, colorizer, logger)

	driver.Main(d.Main)

	cancel()
	<-acquisitionDone
	<-lightingDone
	ex.Close()

	if err := <-displayStopped; err != nil {
		logger.Errorw("display stopped", "error", err)
	}

	stats := ex.Stats()
	logger.Infow("stopped",
		"frames", drv.Frames(),
		"published", stats.Published,
		"consumed", stats.Consumed,
		"dropped", stats.Dropped,
	)
}

func openSensor(cfg config.Sensor, logger *zap.SugaredLogger) (kinect.Sensor, error) {
	switch cfg.Source {
	case config.SourceStream:
		addr, err := netip.ParseAddrPort(cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("could not parse stream address: %w", err)
		}

		c, err := depthstream.NewClient(addr, nil, frame.Width, frame.Height, logger.Named("depthstream"))
		if err != nil {
			return nil, err
		}
		return c, nil

	default:
		s, err := freenect.OpenSensor(cfg.Device, cfg.Tilt)
		if err != nil {
			return nil, err
		}
		s.Context().SetLogFunc(freenect.ZapLogFunc(logger.Named("freenect")))
		return s, nil
	}
}

func newStreamServer(cfg config.Stream, logger *zap.SugaredLogger) (*depthstream.Server, error) {
	addr, err := netip.ParseAddrPort(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("could not parse stream address: %w", err)
	}

	return depthstream.NewServer(addr, frame.Width, frame.Height, cfg.MaxFPS, cfg.Chunks, logger.Named("depthstream"))
}

func snapshotFunc(saver *snapshot.Saver, recorder *kinect.Recorder, logger *zap.SugaredLogger) display.SnapshotFunc {
	return func(img image.Image) {
		depth, timestamp, ok := recorder.Latest()
		if !ok {
			logger.Warnw("no depth frame to snapshot yet")
			return
		}

		stem, err := saver.Save(img, depth, frame.Width, frame.Height, timestamp)
		if err != nil {
			logger.Errorw("could not save snapshot", "error", err)
			return
		}
		logger.Infow("snapshot saved", "path", stem)
	}
}

// reloadOnHangup rebuilds the spectrum from the configuration on SIGHUP. A
// failed reload keeps the current spectrum.
func reloadOnHangup(ctx context.Context, path string, colorizer *colorize.Colorizer, logger *zap.SugaredLogger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return

		case <-hup:
			cfg, err := config.Load(path)
			if err != nil {
				logger.Warnw("could not reload configuration", "error", err)
				continue
			}

			s, err := cfg.Spectrum.Build()
			if err != nil {
				logger.Warnw("could not rebuild spectrum", "mode", cfg.Spectrum.Mode, "error", err)
				continue
			}

			if err := colorizer.SetSpectrum(s); err != nil {
				logger.Warnw("could not swap spectrum", "error", err)
				continue
			}
			logger.Infow("spectrum reloaded", "mode", cfg.Spectrum.Mode)
		}
	}
}
