package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwbudde/algo-theremin/playback"
	"github.com/cwbudde/algo-theremin/preset"
	"github.com/cwbudde/algo-theremin/theremin"
	"github.com/cwbudde/algo-theremin/tracking"
)

func main() {
	sampleRate := flag.Int("sample-rate", 48000, "Output sample rate in Hz")
	latency := flag.Duration("latency", 20*time.Millisecond, "Device buffer size")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	irPath := flag.String("ir", "", "Reverb IR WAV path override (optional)")
	paced := flag.Bool("paced", false, "Pace frames by their t_ms stamps (for recorded replays)")
	statusEvery := flag.Duration("status", 500*time.Millisecond, "Interval of the status line (0 disables)")
	verbose := flag.Bool("verbose", false, "Log engine debug events")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(logger, *sampleRate, *latency, *presetPath, *irPath, *paced, *statusEvery); err != nil {
		logger.Error("theremin-play failed", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, sampleRate int, latency time.Duration, presetPath, irPath string, paced bool, statusEvery time.Duration) error {
	params := theremin.NewDefaultParams()
	if presetPath != "" {
		p, err := preset.LoadJSON(presetPath)
		if err != nil {
			return err
		}
		params = p
	}
	if irPath != "" {
		params.ReverbIRWavPath = irPath
	}

	th := theremin.NewTheremin(sampleRate, params)
	th.SetLogger(logger)
	if err := th.InitAudio(); err != nil {
		return err
	}
	engine := playback.NewSynced(th)

	player, err := playback.NewOtoPlayer(sampleRate, latency)
	if err != nil {
		return err
	}
	defer func() {
		if err := player.Close(); err != nil {
			logger.Warn("close audio device", "err", err)
		}
	}()
	player.SetupPlayer(engine)
	player.Start()
	logger.Info("audio started", "sample_rate", sampleRate, "latency", latency)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	frames := make(chan tracking.Frame)
	readErr := make(chan error, 1)
	go func() {
		readErr <- readFrames(ctx, os.Stdin, frames)
	}()

	var ticker <-chan time.Time
	if statusEvery > 0 {
		t := time.NewTicker(statusEvery)
		defer t.Stop()
		ticker = t.C
	}

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			logger.Info("interrupted")
			return nil
		case err := <-readErr:
			if err != nil {
				return err
			}
			logger.Info("tracker stream ended")
			return nil
		case f := <-frames:
			if paced {
				if wait := time.Until(start.Add(f.Offset())); wait > 0 {
					time.Sleep(wait)
				}
			}
			now := time.Now()
			engine.Do(func() { th.HandleResults(f.Hands, now) })
		case <-ticker:
			var d theremin.Display
			engine.Do(func() { d = th.Display() })
			fmt.Fprintf(os.Stderr, "\r%s", d.String())
		}
	}
}

func readFrames(ctx context.Context, r io.Reader, out chan<- tracking.Frame) error {
	dec := tracking.NewDecoder(r)
	for {
		f, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tracker stream: %w", err)
		}
		select {
		case out <- f:
		case <-ctx.Done():
			return nil
		}
	}
}
