package format

import (
	"fmt"
	"strings"
)

// Format identifies one of the supported audio formats. Values are stable
// and double as bit positions inside a [Set].
type Format uint8

const (
	OGG  Format = iota // Ogg Vorbis.
	MP3                // MPEG-1/2 Audio Layer III.
	WAV                // RIFF WAVE.
	FLAC               // Free Lossless Audio Codec.
	AAC                // AAC, raw ADTS or in an MP4/M4A container.
	OPUS               // Opus, usually in an Ogg container.
	ALAC               // Apple Lossless, in an MP4 container.
	WMA                // Windows Media Audio (ASF container).

	numFormats
)

// formatInfo is the static per-format data: name, extensions (lowercase,
// no dot, first is canonical), and the ffmpeg encoder that keeps the
// output in the same format.
type formatInfo struct {
	name       string
	extensions []string
	encoder    string
}

var formatTable = [numFormats]formatInfo{
	OGG:  {"ogg", []string{"ogg", "oga"}, "libvorbis"},
	MP3:  {"mp3", []string{"mp3"}, "libmp3lame"},
	WAV:  {"wav", []string{"wav", "wave"}, "pcm_s16le"},
	FLAC: {"flac", []string{"flac"}, "flac"},
	AAC:  {"aac", []string{"m4a", "aac"}, "aac"},
	OPUS: {"opus", []string{"opus"}, "libopus"},
	ALAC: {"alac", []string{"alac"}, "alac"},
	WMA:  {"wma", []string{"wma"}, "wmav2"},
}

// Formats returns every supported format in identifier order.
func Formats() []Format {
	out := make([]Format, 0, numFormats)
	for f := Format(0); f < numFormats; f++ {
		out = append(out, f)
	}
	return out
}

// Valid reports whether f is one of the known formats.
func (f Format) Valid() bool { return f < numFormats }

// String returns the lowercase canonical name (e.g. "flac").
func (f Format) String() string {
	if !f.Valid() {
		return fmt.Sprintf("format(%d)", uint8(f))
	}
	return formatTable[f].name
}

// Extensions returns the file extensions for f, lowercase without the dot.
// The first element is the canonical extension.
func (f Format) Extensions() []string {
	if !f.Valid() {
		return nil
	}
	return append([]string(nil), formatTable[f].extensions...)
}

// Encoder returns the ffmpeg audio encoder that writes f.
func (f Format) Encoder() string {
	if !f.Valid() {
		return ""
	}
	return formatTable[f].encoder
}

// ParseFormat resolves a format name case-insensitively.
func ParseFormat(name string) (Format, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for f := Format(0); f < numFormats; f++ {
		if formatTable[f].name == n {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unsupported format %q (supported: %s, all)", name, strings.Join(names(), ", "))
}

func names() []string {
	out := make([]string, 0, numFormats)
	for f := Format(0); f < numFormats; f++ {
		out = append(out, formatTable[f].name)
	}
	return out
}
