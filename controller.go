// Package gohls downloads HLS media referenced by an m3u8 manifest.
//
// gohls resolves a manifest URL to a media playlist (following a master
// playlist to its best variant when needed), downloads every segment
// concurrently under a configurable limit, and reports per-segment outcomes
// plus an ordered list of local files ready for muxing. Segment order in the
// output always matches manifest order, regardless of which downloads finish
// first.
//
// # Basic Usage
//
//	controller := gohls.NewController(gohls.Options{
//	    Config: gohls.DefaultConfig(),
//	    OnProgress: func(snap gohls.Snapshot) {
//	        fmt.Printf("\r%d/%d", snap.Completed+snap.Failed, snap.Total)
//	    },
//	})
//
//	result, err := controller.Download(ctx, "https://example.com/master.m3u8")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// result.Files holds the ordered segment paths, init segment first.
//
// # Failure Model
//
// Manifest-level problems (unreachable URL, unparseable playlist, empty
// variant list) fail the whole run with an error. Segment-level problems do
// not: transient failures are retried with exponential backoff, permanent
// ones are recorded in the result, and the batch keeps going. A failed
// segment never leaves a partial file behind.
//
// # Variant Selection
//
// When the manifest is a master playlist the variant with the highest
// declared bandwidth wins; with no declared bandwidths the first listed
// variant is used. Selection is deterministic for a given manifest.
package gohls

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/eleven-am/gohls/internal/config"
	"github.com/eleven-am/gohls/internal/domain"
	"github.com/eleven-am/gohls/internal/fetch"
	"github.com/eleven-am/gohls/internal/manifest"
	"github.com/eleven-am/gohls/internal/progress"
	"github.com/eleven-am/gohls/internal/resolver"
	"github.com/eleven-am/gohls/internal/retry"
	"github.com/eleven-am/gohls/internal/schedule"
)

type (
	// Config controls concurrency, retries, timeouts and file placement.
	Config = config.Config

	// Snapshot is a consistent view of batch progress.
	Snapshot = domain.Snapshot

	// Result reports the terminal state of a download run.
	Result = domain.Result

	// Outcome is the terminal state of a single segment.
	Outcome = domain.Outcome

	// ParseError reports manifest text that could not be interpreted.
	ParseError = domain.ParseError

	// InvalidURLError reports a reference that could not be resolved.
	InvalidURLError = domain.InvalidURLError
)

// ErrNoVariants is returned (wrapped) when a master manifest lists no
// variant streams.
var ErrNoVariants = domain.ErrNoVariants

// DefaultConfig returns the built-in configuration: 6 concurrent downloads,
// 3 attempts per segment, 30s request timeout, 10s connect timeout.
func DefaultConfig() Config {
	return config.Default()
}

// Options configures the Controller. The zero value is usable.
type Options struct {
	// Config holds tuning knobs; zero-value fields fall back to defaults.
	Config Config

	// Client overrides the HTTP client. When nil a client is built from
	// Config's timeouts.
	Client *http.Client

	// Logger receives structured diagnostics. Default: discard.
	Logger *slog.Logger

	// OnProgress, when set, is called with a fresh snapshot after every
	// segment reaches a terminal state. It must be fast; it runs on the
	// download goroutines.
	OnProgress func(Snapshot)
}

func (o *Options) setDefaults() {
	o.Config.Normalize()
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.Client == nil {
		o.Client = fetch.NewHTTPClient(o.Config)
	}
}

// Controller is the entry point for manifest-driven downloads. It is safe
// for concurrent use; each Download call runs independently.
type Controller struct {
	opts   Options
	client *fetch.Client
	parser *manifest.Parser
}

// NewController creates a Controller with the given options.
func NewController(opts Options) *Controller {
	opts.setDefaults()

	res := resolver.New(opts.Config.CacheSize)
	return &Controller{
		opts:   opts,
		client: fetch.NewClient(opts.Client, opts.Config, opts.Logger),
		parser: manifest.NewParser(res),
	}
}

// Download fetches the manifest at manifestURL and downloads its segments
// into Config.WorkDir. Master manifests are followed to their selected
// variant first; a variant that resolves to another master manifest is a
// ParseError.
//
// The returned error covers manifest-level failures only. Per-segment
// failures are reported through the Result, which is non-nil whenever the
// run reached the download phase.
func (c *Controller) Download(ctx context.Context, manifestURL string) (*Result, error) {
	media, err := c.resolveMedia(ctx, manifestURL)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(c.opts.Config.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	runID := uuid.NewString()[:8]
	c.opts.Logger.Info("starting download",
		"run", runID, "segments", len(media.Segments), "init", media.Init != nil)

	total := len(media.Segments)
	if media.Init != nil {
		total++
	}
	tracker := progress.NewTracker(total)

	policy := retry.New(c.client, c.opts.Config.MaxAttempts, c.opts.Config.RetryBaseDelay, c.opts.Logger)

	result := &Result{}

	if media.Init != nil {
		out := c.downloadInit(ctx, policy, media.Init, runID)
		tracker.Record(out)
		c.notify(tracker)
		if out.State == domain.OutcomeSuccess {
			result.InitPath = out.LocalPath
			result.Completed++
		} else {
			result.Failed++
			result.FailedIndices = append(result.FailedIndices, -1)
			c.opts.Logger.Warn("init segment failed", "error", out.Err)
		}
	}

	sched := schedule.New(c.opts.Config.Concurrency, policy, tracker, c.opts.OnProgress, c.opts.Logger)
	destFor := func(seg domain.Segment) string {
		return filepath.Join(c.opts.Config.WorkDir, fmt.Sprintf("%s-segment-%05d.ts", runID, seg.Index))
	}
	result.Outcomes = sched.Run(ctx, media.Segments, destFor)

	if result.InitPath != "" {
		result.Files = append(result.Files, result.InitPath)
	}
	for _, out := range result.Outcomes {
		if out.State == domain.OutcomeSuccess {
			result.Completed++
			result.Files = append(result.Files, out.LocalPath)
		} else {
			result.Failed++
			result.FailedIndices = append(result.FailedIndices, out.Segment.Index)
		}
	}

	c.opts.Logger.Info("download finished",
		"run", runID, "completed", result.Completed, "failed", result.Failed)

	return result, nil
}

// resolveMedia follows manifestURL to a media playlist, selecting a variant
// when the URL names a master playlist.
func (c *Controller) resolveMedia(ctx context.Context, manifestURL string) (*domain.Media, error) {
	data, err := c.client.FetchBytes(ctx, manifestURL)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}

	man, err := c.parser.Parse(data, manifestURL)
	if err != nil {
		return nil, err
	}

	master, ok := man.(*domain.Master)
	if !ok {
		return man.(*domain.Media), nil
	}

	variant, err := manifest.Select(master.Variants)
	if err != nil {
		return nil, err
	}
	c.opts.Logger.Info("selected variant",
		"uri", variant.URI, "bandwidth", variant.Bandwidth)

	data, err = c.client.FetchBytes(ctx, variant.URI)
	if err != nil {
		return nil, fmt.Errorf("fetch variant manifest: %w", err)
	}

	man, err = c.parser.Parse(data, variant.URI)
	if err != nil {
		return nil, err
	}

	media, ok := man.(*domain.Media)
	if !ok {
		return nil, &domain.ParseError{URL: variant.URI, Reason: "variant resolved to another master playlist"}
	}
	return media, nil
}

func (c *Controller) downloadInit(ctx context.Context, policy *retry.Policy, init *domain.InitSegment, runID string) domain.Outcome {
	seg := domain.Segment{Index: -1, URI: init.URI, ByteRange: init.ByteRange}
	dest := filepath.Join(c.opts.Config.WorkDir, fmt.Sprintf("%s-init.mp4", runID))
	return policy.Fetch(ctx, seg, dest)
}

func (c *Controller) notify(tracker *progress.Tracker) {
	if c.opts.OnProgress != nil {
		c.opts.OnProgress(tracker.Snapshot())
	}
}
