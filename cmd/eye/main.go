package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giongto35/eye/pkg/config"
	"github.com/giongto35/eye/pkg/eye"
	"github.com/giongto35/eye/pkg/eye/dl"
	"github.com/giongto35/eye/pkg/eye/manager"
	"github.com/giongto35/eye/pkg/logger"
	"github.com/giongto35/eye/pkg/monitoring"
	"github.com/giongto35/eye/pkg/os"
	"github.com/giongto35/eye/pkg/service"
	"github.com/giongto35/eye/pkg/thread"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
)

var Version = "?"

var errEnough = errors.New("enough frames")

var exitCode int

func run() {
	conf, err := config.ParseFlags("eye", os.Args())
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Println(err)
		exitCode = 2
		return
	}

	log := logger.NewConsole(conf.Debug, "eye", conf.Log.NoColor)
	if conf.Log.Json {
		log = logger.New(conf.Debug)
	}
	log.Info().Msgf("version %s", Version)
	if log.GetLevel() < logger.InfoLevel {
		log.Debug().Msgf("config: %+v", conf)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-os.ExpectTermination():
			log.Info().Msg("stopping after the current frame")
			cancel()
		case <-ctx.Done():
		}
	}()

	reg := prometheus.NewRegistry()
	var services service.Group
	if conf.Monitoring.IsEnabled() {
		services.Add(monitoring.New(conf.Monitoring, reg, log))
	}
	services.Start()
	defer func() {
		sctx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := services.Shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("service shutdown errors")
		}
	}()

	if err := capture(ctx, conf, monitoring.NewCaptureMetrics(reg), log); err != nil {
		log.Error().Err(err).Msg("capture failed")
		exitCode = 1
	}
}

func capture(ctx context.Context, conf *config.Config, metrics *monitoring.CaptureMetrics, log *logger.Logger) error {
	m, err := manager.New(conf.Library, log)
	if err != nil {
		return err
	}
	loc, err := m.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("couldn't get the native lib: %w", err)
	}
	log.Info().Msgf("native lib: %v (cached: %v)", loc.Path, loc.Cached)

	lib, err := dl.Open(loc.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := lib.Close(); err != nil {
			log.Warn().Err(err).Msg("lib close")
		}
	}()

	if conf.Capture.Output != "" {
		if err := os.CheckCreateDir(conf.Capture.Output); err != nil {
			return err
		}
	}
	s := newSaver(conf.Capture.Output, conf.Capture.Scale, log)

	if conf.Capture.Snapshot {
		var frame []byte
		var d eye.Descriptor
		thread.Call(func() { frame, d, err = eye.Snapshot(lib) })
		if err != nil {
			return err
		}
		printDescriptor(d)
		return save(s, 0, d, frame, log)
	}

	var cam *eye.Camera
	thread.Call(func() { cam, err = eye.New(lib, eye.WithLogger(log), eye.WithMetrics(metrics)) })
	if err != nil {
		return err
	}
	defer func() { _ = cam.Close() }()

	d, err := cam.Descriptor()
	if err != nil {
		return err
	}
	printDescriptor(d)
	if size, ok := d.FrameSize(); ok {
		log.Debug().Msgf("expected frame size: %v bytes", size)
	}

	frames := cam.Frames()
	err = frames.Each(ctx, func(i uint64, frame []byte) error {
		if err := save(s, i, d, frame, log); err != nil {
			return err
		}
		if conf.Capture.Frames > 0 && i+1 >= uint64(conf.Capture.Frames) {
			return errEnough
		}
		return nil
	})
	log.Info().Msgf("captured %v frames", frames.Count())
	if errors.Is(err, errEnough) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func save(s *saver, i uint64, d eye.Descriptor, frame []byte, log *logger.Logger) error {
	name, err := s.Save(i, d, frame)
	if err != nil {
		return fmt.Errorf("frame %v: %w", i, err)
	}
	if name != "" {
		log.Info().Msgf("Image saved to %v", name)
	}
	return nil
}

func printDescriptor(d eye.Descriptor) {
	b, err := json.Marshal(d)
	if err != nil {
		fmt.Println(d)
		return
	}
	fmt.Println(string(b))
}

func main() {
	thread.Wrap(run)
	os.Exit(exitCode)
}
