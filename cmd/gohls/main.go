// Command gohls downloads an HLS stream to a single mp4 file.
//
//	gohls -url https://example.com/master.m3u8 -o out.mp4
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/eleven-am/gohls"
	"github.com/eleven-am/gohls/internal/config"
	"github.com/eleven-am/gohls/internal/mux"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gohls: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		manifestURL = flag.String("url", "", "manifest URL (required)")
		output      = flag.String("o", "", "output file (default output/<timestamp>-output.mp4)")
		concurrency = flag.Int("concurrency", 0, "max concurrent segment downloads")
		retries     = flag.Int("retries", 0, "attempts per segment")
		limit       = flag.String("limit", "", "bandwidth cap, e.g. 2MB (bytes per second)")
		workDir     = flag.String("workdir", "", "directory for temporary segment files")
		ffmpegPath  = flag.String("ffmpeg", "", "ffmpeg binary (default from PATH)")
		keep        = flag.Bool("keep", false, "keep temporary segment files after muxing")
		verbose     = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	if *manifestURL == "" {
		flag.Usage()
		return errors.New("-url is required")
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, cfgErrs := config.FromEnv()
	for _, err := range cfgErrs {
		logger.Warn("ignoring environment override", "error", err)
	}
	if *concurrency > 0 {
		cfg.Concurrency = *concurrency
	}
	if *retries > 0 {
		cfg.MaxAttempts = *retries
	}
	if *workDir != "" {
		cfg.WorkDir = *workDir
	}
	if *limit != "" {
		bytes, err := humanize.ParseBytes(*limit)
		if err != nil {
			return fmt.Errorf("parse -limit: %w", err)
		}
		cfg.BandwidthLimit = int64(bytes)
	}

	outPath, err := outputPath(*output)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	display := newDisplay()
	controller := gohls.NewController(gohls.Options{
		Config:     cfg,
		Logger:     logger,
		OnProgress: display.update,
	})

	started := time.Now()
	result, err := controller.Download(ctx, *manifestURL)
	display.finish()
	if err != nil {
		return err
	}

	fmt.Printf("downloaded %d/%d segments (%s) in %s\n",
		result.Completed, result.Completed+result.Failed,
		humanize.Bytes(uint64(totalBytes(result))),
		time.Since(started).Round(time.Second))

	if !result.Complete() {
		return fmt.Errorf("%d segments failed (indices %s); not muxing an incomplete stream",
			result.Failed, indexList(result.FailedIndices))
	}
	if ctx.Err() != nil {
		return fmt.Errorf("cancelled: %w", ctx.Err())
	}

	muxer := mux.New(*ffmpegPath, logger)
	if err := muxer.Mux(ctx, result.Files, outPath); err != nil {
		return err
	}

	if !*keep {
		for _, f := range result.Files {
			os.Remove(f)
		}
	}

	fmt.Printf("wrote %s\n", outPath)
	return nil
}

// outputPath picks the final mp4 location, defaulting to an epoch-stamped
// name under output/.
func outputPath(flagValue string) (string, error) {
	path := flagValue
	if path == "" {
		path = filepath.Join("output", fmt.Sprintf("%d-output.mp4", time.Now().UnixMilli()))
	}
	if filepath.Ext(path) == "" {
		path += ".mp4"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output dir: %w", err)
		}
	}
	return path, nil
}

func totalBytes(result *gohls.Result) int64 {
	var n int64
	for _, out := range result.Outcomes {
		n += out.BytesWritten
	}
	return n
}

func indexList(indices []int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		if idx == -1 {
			parts[i] = "init"
			continue
		}
		parts[i] = fmt.Sprintf("%d", idx)
	}
	return strings.Join(parts, ", ")
}

// display renders download progress on stderr. The bar is created on the
// first update, once the segment count is known.
type display struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newDisplay() *display {
	return &display{}
}

func (d *display) update(snap gohls.Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bar == nil {
		d.bar = progressbar.NewOptions(snap.Total,
			progressbar.OptionSetDescription("downloading"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	if snap.BytesPerSecond > 0 {
		d.bar.Describe(fmt.Sprintf("downloading %s/s", humanize.Bytes(uint64(snap.BytesPerSecond))))
	}
	d.bar.Set(snap.Completed + snap.Failed)
}

func (d *display) finish() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bar != nil {
		d.bar.Finish()
	}
}
