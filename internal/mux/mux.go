// Package mux assembles downloaded segment files into a single container
// with ffmpeg's concat demuxer.
package mux

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type Muxer struct {
	ffmpegPath string
	logger     *slog.Logger
}

// New builds a Muxer; an empty ffmpegPath resolves "ffmpeg" from PATH.
func New(ffmpegPath string, logger *slog.Logger) *Muxer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Muxer{ffmpegPath: ffmpegPath, logger: logger}
}

// ConcatList renders the concat demuxer input for files, in order. Single
// quotes in paths are escaped per ffmpeg's quoting rules.
func ConcatList(files []string) string {
	var b strings.Builder
	for _, f := range files {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(f, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

// Args builds the ffmpeg argument list for a stream-copy concat of listPath
// into output.
func (m *Muxer) Args(listPath, output string) []string {
	return []string{
		"-nostats",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y",
		output,
	}
}

// Mux concatenates files into output. The concat list is written next to the
// output file and removed afterwards.
func (m *Muxer) Mux(ctx context.Context, files []string, output string) error {
	if len(files) == 0 {
		return fmt.Errorf("mux: no input files")
	}

	list, err := os.CreateTemp(filepath.Dir(output), "concat-*.txt")
	if err != nil {
		return fmt.Errorf("create concat list: %w", err)
	}
	defer os.Remove(list.Name())

	if _, err := list.WriteString(ConcatList(files)); err != nil {
		list.Close()
		return fmt.Errorf("write concat list: %w", err)
	}
	if err := list.Close(); err != nil {
		return fmt.Errorf("close concat list: %w", err)
	}

	args := m.Args(list.Name(), output)
	m.logger.Debug("running ffmpeg", "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, m.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("ffmpeg concat: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg concat: %w", err)
	}

	return nil
}
