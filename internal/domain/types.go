package domain

// ByteRange identifies a sub-range of a shared resource, as declared by
// EXT-X-BYTERANGE or an EXT-X-MAP BYTERANGE attribute.
type ByteRange struct {
	Offset int64
	Length int64
}

// Resolution is the advertised pixel dimensions of a variant stream.
type Resolution struct {
	Width  int
	Height int
}

// Variant is one alternative-quality stream listed in a master manifest.
// Bandwidth is zero when the manifest does not declare one.
type Variant struct {
	URI        string
	Bandwidth  int64
	Resolution *Resolution
}

// Segment is one chunk of media referenced by a media manifest. URI is
// absolute after resolution. Index equals manifest order and is the required
// assembly order regardless of download completion order.
type Segment struct {
	Index     int
	URI       string
	Duration  float64
	ByteRange *ByteRange
}

// InitSegment is an initialization chunk (EXT-X-MAP) that must precede the
// first media segment in the assembled output.
type InitSegment struct {
	URI       string
	ByteRange *ByteRange
}

// Manifest is a parsed playlist: either a *Master or a *Media, never both.
type Manifest interface {
	isManifest()
}

// Master is a manifest listing variant streams.
type Master struct {
	Variants []Variant
}

// Media is a manifest listing media segments in playback order.
type Media struct {
	Segments       []Segment
	TargetDuration float64
	Init           *InitSegment
}

func (*Master) isManifest() {}
func (*Media) isManifest()  {}
