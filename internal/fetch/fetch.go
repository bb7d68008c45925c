// Package fetch performs single HTTP download attempts and classifies their
// outcomes. Retry decisions live elsewhere; this package only reports
// whether another attempt could help.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"

	"golang.org/x/time/rate"

	"github.com/eleven-am/gohls/internal/config"
	"github.com/eleven-am/gohls/internal/domain"
)

// Client downloads segments and manifests over HTTP. A shared rate limiter,
// when configured, caps throughput across all in-flight downloads.
type Client struct {
	http      *http.Client
	chunkSize int
	limiter   *rate.Limiter
	logger    *slog.Logger

	create func(string) (io.WriteCloser, error)
}

// NewHTTPClient builds an http.Client with the configured total request
// timeout and connection timeout.
func NewHTTPClient(cfg config.Config) *http.Client {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	return &http.Client{
		Timeout: cfg.RequestTimeout,
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			MaxIdleConnsPerHost: cfg.Concurrency,
		},
	}
}

// NewClient wraps hc for segment and manifest fetching. hc may come from
// NewHTTPClient or be caller-supplied.
func NewClient(hc *http.Client, cfg config.Config, logger *slog.Logger) *Client {
	c := &Client{
		http:      hc,
		chunkSize: cfg.ChunkSize,
		logger:    logger,
		create: func(path string) (io.WriteCloser, error) {
			return os.Create(path)
		},
	}
	if cfg.BandwidthLimit > 0 {
		burst := cfg.ChunkSize
		if int64(burst) < cfg.BandwidthLimit/10 {
			burst = int(cfg.BandwidthLimit / 10)
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.BandwidthLimit), burst)
	}
	return c
}

// Fetch performs one GET attempt for seg, streaming the body to dest in
// chunks. Failed attempts never leave a partial file behind.
func (c *Client) Fetch(ctx context.Context, seg domain.Segment, dest string) domain.Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, seg.URI, nil)
	if err != nil {
		return domain.Fatal(seg, fmt.Errorf("build request: %w", err))
	}
	if seg.ByteRange != nil {
		req.Header.Set("Range", rangeHeader(seg.ByteRange))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport errors and timeouts are worth another attempt.
		return domain.Retryable(seg, fmt.Errorf("request %s: %w", seg.URI, err))
	}
	defer resp.Body.Close()

	if out, ok := c.classifyStatus(seg, resp); !ok {
		return out
	}

	f, err := c.create(dest)
	if err != nil {
		return domain.Fatal(seg, fmt.Errorf("create %s: %w", dest, err))
	}

	var body io.Reader = resp.Body
	if c.limiter != nil {
		body = &limitedReader{r: resp.Body, limiter: c.limiter, ctx: ctx}
	}

	written, err := copyChunks(f, body, make([]byte, c.chunkSize))
	if err != nil {
		f.Close()
		discard(dest)
		// A failed destination write cannot be cured by refetching; a
		// truncated or broken body can.
		var werr *writeError
		if errors.As(err, &werr) {
			return domain.Fatal(seg, fmt.Errorf("write %s: %w", dest, werr.Unwrap()))
		}
		return domain.Retryable(seg, fmt.Errorf("read body for segment %d: %w", seg.Index, err))
	}
	if err := f.Close(); err != nil {
		discard(dest)
		return domain.Fatal(seg, fmt.Errorf("close %s: %w", dest, err))
	}

	c.logger.Debug("segment written", "index", seg.Index, "bytes", written, "path", dest)
	return domain.Success(seg, written, dest)
}

// classifyStatus reports whether the response is usable. ok is false when an
// outcome has already been decided.
func (c *Client) classifyStatus(seg domain.Segment, resp *http.Response) (domain.Outcome, bool) {
	code := resp.StatusCode

	switch {
	case code == http.StatusPartialContent:
		return domain.Outcome{}, true
	case code == http.StatusOK:
		// A server answering 200 to a ranged request ignored the range;
		// the body is the whole resource, not the requested slice.
		if seg.ByteRange != nil {
			return domain.Fatal(seg, fmt.Errorf("server ignored range request for %s", seg.URI)), false
		}
		return domain.Outcome{}, true
	case code >= 500 || code == http.StatusTooManyRequests:
		return domain.Retryable(seg, fmt.Errorf("fetch %s: status %d", seg.URI, code)), false
	default:
		return domain.Fatal(seg, fmt.Errorf("fetch %s: status %d", seg.URI, code)), false
	}
}

// FetchBytes downloads a small resource (a manifest) fully into memory using
// the same client and timeouts as segment fetches.
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return data, nil
}

func rangeHeader(br *domain.ByteRange) string {
	return fmt.Sprintf("bytes=%d-%d", br.Offset, br.Offset+br.Length-1)
}

// discard removes a partial file; a leftover is swept with the work dir
// anyway, so the error is not propagated.
func discard(path string) {
	os.Remove(path)
}

// writeError marks a failure on the destination side of a copy.
type writeError struct {
	err error
}

func (e *writeError) Error() string { return e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

// copyChunks streams src to dst one buffer at a time, tagging destination
// failures with writeError so callers can tell them from read failures.
func copyChunks(dst io.Writer, src io.Reader, buf []byte) (int64, error) {
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			wn, werr := dst.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, &writeError{err: werr}
			}
			if wn < n {
				return written, &writeError{err: io.ErrShortWrite}
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// limitedReader throttles reads against a shared limiter.
type limitedReader struct {
	r       io.Reader
	limiter *rate.Limiter
	ctx     context.Context
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	if burst := lr.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}
	n, err := lr.r.Read(p)
	if n > 0 {
		if werr := lr.limiter.WaitN(lr.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
