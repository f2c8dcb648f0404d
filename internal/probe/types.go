package probe

import (
	"strconv"
	"strings"

	"github.com/backmassage/speedbatch/internal/format"
)

// FormatInfo holds container-level metadata from ffprobe's format section.
type FormatInfo struct {
	Filename       string
	NbStreams      int
	FormatName     string
	FormatLongName string
	Duration       float64
	Size           int64
	BitRate        int64
	Tags           map[string]string
}

// AudioStream holds the parsed properties of a single audio stream.
type AudioStream struct {
	Index         int
	Codec         string
	Profile       string
	Channels      int
	ChannelLayout string
	SampleRate    int
	BitRate       int64
	Language      string
	IsDefault     bool
}

// ProbeResult is the fully parsed output of a single ffprobe JSON call.
// PrimaryAudio is the default audio stream, or the first one (nil if none).
type ProbeResult struct {
	Format       FormatInfo
	PrimaryAudio *AudioStream
	AudioStreams []AudioStream
	HasCoverArt  bool
}

// AudioBitRate returns the primary audio stream bitrate in bits/sec,
// falling back to the format-level bitrate when the stream value is
// unavailable or zero.
func (p *ProbeResult) AudioBitRate() int64 {
	if p.PrimaryAudio != nil && p.PrimaryAudio.BitRate > 0 {
		return p.PrimaryAudio.BitRate
	}
	return p.Format.BitRate
}

// SampleRate returns the primary stream's sample rate in Hz, or 0.
func (p *ProbeResult) SampleRate() int {
	if p.PrimaryAudio == nil {
		return 0
	}
	return p.PrimaryAudio.SampleRate
}

// Codec returns the primary stream's codec name, or "".
func (p *ProbeResult) Codec() string {
	if p.PrimaryAudio == nil {
		return ""
	}
	return p.PrimaryAudio.Codec
}

// Layout returns "<channels>ch @ <rate> Hz" or "unknown".
func (p *ProbeResult) Layout() string {
	a := p.PrimaryAudio
	if a == nil || a.Channels <= 0 || a.SampleRate <= 0 {
		return "unknown"
	}
	return strconv.Itoa(a.Channels) + "ch @ " + strconv.Itoa(a.SampleRate) + " Hz"
}

// CodecFormat maps an ffprobe codec name to the registry format that holds
// it. Codecs outside the registry report false.
func CodecFormat(codec string) (format.Format, bool) {
	c := strings.ToLower(codec)
	switch {
	case c == "vorbis":
		return format.OGG, true
	case c == "mp3" || c == "mp3float":
		return format.MP3, true
	case strings.HasPrefix(c, "pcm_"):
		return format.WAV, true
	case c == "flac":
		return format.FLAC, true
	case c == "aac" || c == "aac_latm":
		return format.AAC, true
	case c == "opus":
		return format.OPUS, true
	case c == "alac":
		return format.ALAC, true
	case strings.HasPrefix(c, "wma"):
		return format.WMA, true
	}
	return 0, false
}
