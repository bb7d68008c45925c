package manifest

import (
	"errors"
	"testing"

	"github.com/eleven-am/gohls/internal/domain"
	"github.com/eleven-am/gohls/internal/resolver"
)

const masterSample = `#EXTM3U
#EXT-X-VERSION:4
#EXT-X-STREAM-INF:BANDWIDTH=500000,RESOLUTION=640x360
low/playlist.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=1500000,RESOLUTION=1280x720
high/playlist.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=1000000,RESOLUTION=960x540
mid/playlist.m3u8
`

const mediaSample = `#EXTM3U
#EXT-X-VERSION:4
#EXT-X-TARGETDURATION:6
#EXT-X-MEDIA-SEQUENCE:0
#EXT-X-MAP:URI="init.mp4"
#EXTINF:5.960,
seg000.ts
#EXTINF:6.000,
seg001.ts
#EXTINF:3.200,
https://cdn.example.net/seg002.ts
#EXT-X-ENDLIST
`

const byteRangeSample = `#EXTM3U
#EXT-X-VERSION:4
#EXT-X-TARGETDURATION:4
#EXTINF:4.000,
#EXT-X-BYTERANGE:1000@2000
all.ts
#EXT-X-ENDLIST
`

func newParser() *Parser {
	return NewParser(resolver.New(64))
}

func TestParseMaster(t *testing.T) {
	man, err := newParser().Parse([]byte(masterSample), "https://example.com/a/master.m3u8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	master, ok := man.(*domain.Master)
	if !ok {
		t.Fatalf("expected *domain.Master, got %T", man)
	}
	if len(master.Variants) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(master.Variants))
	}

	first := master.Variants[0]
	if first.URI != "https://example.com/a/low/playlist.m3u8" {
		t.Errorf("expected resolved variant URI, got %s", first.URI)
	}
	if first.Bandwidth != 500000 {
		t.Errorf("expected bandwidth 500000, got %d", first.Bandwidth)
	}
	if first.Resolution == nil || first.Resolution.Width != 640 || first.Resolution.Height != 360 {
		t.Errorf("expected resolution 640x360, got %+v", first.Resolution)
	}
}

func TestParseMedia(t *testing.T) {
	man, err := newParser().Parse([]byte(mediaSample), "https://example.com/a/b/playlist.m3u8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	media, ok := man.(*domain.Media)
	if !ok {
		t.Fatalf("expected *domain.Media, got %T", man)
	}
	if len(media.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(media.Segments))
	}
	if media.TargetDuration != 6 {
		t.Errorf("expected target duration 6, got %v", media.TargetDuration)
	}

	if media.Init == nil {
		t.Fatal("expected init segment")
	}
	if media.Init.URI != "https://example.com/a/b/init.mp4" {
		t.Errorf("expected resolved init URI, got %s", media.Init.URI)
	}

	for i, seg := range media.Segments {
		if seg.Index != i {
			t.Errorf("segment %d: expected index %d, got %d", i, i, seg.Index)
		}
	}
	if media.Segments[0].URI != "https://example.com/a/b/seg000.ts" {
		t.Errorf("expected resolved segment URI, got %s", media.Segments[0].URI)
	}
	if media.Segments[2].URI != "https://cdn.example.net/seg002.ts" {
		t.Errorf("expected absolute segment URI unchanged, got %s", media.Segments[2].URI)
	}
	if media.Segments[1].Duration != 6.0 {
		t.Errorf("expected duration 6.0, got %v", media.Segments[1].Duration)
	}
}

func TestParseByteRange(t *testing.T) {
	man, err := newParser().Parse([]byte(byteRangeSample), "https://example.com/playlist.m3u8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	media := man.(*domain.Media)
	br := media.Segments[0].ByteRange
	if br == nil {
		t.Fatal("expected byte range")
	}
	if br.Length != 1000 || br.Offset != 2000 {
		t.Errorf("expected range 1000@2000, got %d@%d", br.Length, br.Offset)
	}
}

func TestParseMalformed(t *testing.T) {
	cases := map[string]string{
		"garbage":     "this is not a playlist\nat all\n",
		"empty media": "#EXTM3U\n#EXT-X-TARGETDURATION:6\n#EXT-X-ENDLIST\n",
	}

	for name, input := range cases {
		_, err := newParser().Parse([]byte(input), "https://example.com/playlist.m3u8")
		if err == nil {
			t.Errorf("%s: expected error", name)
			continue
		}
		var parseErr *domain.ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("%s: expected ParseError, got %T", name, err)
		}
	}
}

func TestParseIgnoresUnknownTags(t *testing.T) {
	input := "#EXTM3U\n#EXT-X-TARGETDURATION:4\n#EXT-X-CUSTOM-THING:whatever\n#EXTINF:4.0,\nseg.ts\n#EXT-X-ENDLIST\n"

	man, err := newParser().Parse([]byte(input), "https://example.com/playlist.m3u8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	media := man.(*domain.Media)
	if len(media.Segments) != 1 {
		t.Errorf("expected 1 segment, got %d", len(media.Segments))
	}
}
