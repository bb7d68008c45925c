// Package manifest parses playlist text into domain types and selects a
// variant to download.
package manifest

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/grafov/m3u8"

	"github.com/eleven-am/gohls/internal/domain"
	"github.com/eleven-am/gohls/internal/resolver"
)

// Parser turns raw playlist bytes into a domain.Manifest. Every URI in the
// result is absolute, resolved against the URL the playlist was fetched from.
type Parser struct {
	resolver *resolver.Resolver
}

func NewParser(res *resolver.Resolver) *Parser {
	return &Parser{resolver: res}
}

// Parse decodes data fetched from base. Unknown tags are ignored; text with
// no recognizable variant or segment directives fails with ParseError.
func (p *Parser) Parse(data []byte, base string) (domain.Manifest, error) {
	playlist, listType, err := m3u8.DecodeFrom(bytes.NewReader(data), false)
	if err != nil {
		return nil, &domain.ParseError{URL: base, Reason: "decode failed", Err: err}
	}

	switch listType {
	case m3u8.MASTER:
		return p.master(playlist.(*m3u8.MasterPlaylist), base)
	case m3u8.MEDIA:
		return p.media(playlist.(*m3u8.MediaPlaylist), base)
	default:
		return nil, &domain.ParseError{URL: base, Reason: "unrecognized playlist type"}
	}
}

func (p *Parser) master(pl *m3u8.MasterPlaylist, base string) (*domain.Master, error) {
	master := &domain.Master{}
	for _, v := range pl.Variants {
		if v == nil || v.URI == "" {
			continue
		}
		uri, err := p.resolver.Resolve(base, v.URI)
		if err != nil {
			return nil, err
		}
		master.Variants = append(master.Variants, domain.Variant{
			URI:        uri,
			Bandwidth:  int64(v.Bandwidth),
			Resolution: parseResolution(v.Resolution),
		})
	}
	if len(master.Variants) == 0 {
		return nil, &domain.ParseError{URL: base, Reason: "no variant streams"}
	}
	return master, nil
}

func (p *Parser) media(pl *m3u8.MediaPlaylist, base string) (*domain.Media, error) {
	media := &domain.Media{TargetDuration: pl.TargetDuration}

	if pl.Map != nil && pl.Map.URI != "" {
		uri, err := p.resolver.Resolve(base, pl.Map.URI)
		if err != nil {
			return nil, err
		}
		media.Init = &domain.InitSegment{
			URI:       uri,
			ByteRange: byteRange(pl.Map.Limit, pl.Map.Offset),
		}
	}

	for _, seg := range pl.Segments {
		if seg == nil {
			break
		}
		uri, err := p.resolver.Resolve(base, seg.URI)
		if err != nil {
			return nil, err
		}
		media.Segments = append(media.Segments, domain.Segment{
			Index:     len(media.Segments),
			URI:       uri,
			Duration:  seg.Duration,
			ByteRange: byteRange(seg.Limit, seg.Offset),
		})
	}
	if len(media.Segments) == 0 {
		return nil, &domain.ParseError{URL: base, Reason: "no segments"}
	}
	return media, nil
}

func byteRange(limit, offset int64) *domain.ByteRange {
	if limit <= 0 {
		return nil
	}
	return &domain.ByteRange{Offset: offset, Length: limit}
}

// parseResolution reads a "1280x720" attribute; nil when absent or malformed.
func parseResolution(s string) *domain.Resolution {
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return nil
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return nil
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return nil
	}
	return &domain.Resolution{Width: width, Height: height}
}
