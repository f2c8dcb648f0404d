package format

import (
	"path/filepath"
	"strings"
)

// Signature is a byte pattern expected at a fixed offset from the start of
// a file. When Mask is set (same length as Magic) each header byte is
// ANDed with the mask before comparison, which lets frame-sync patterns
// ignore version and protection bits.
type Signature struct {
	Offset int
	Magic  []byte
	Mask   []byte
}

// Matches reports whether header carries the signature.
func (s Signature) Matches(header []byte) bool {
	end := s.Offset + len(s.Magic)
	if len(s.Magic) == 0 || len(header) < end {
		return false
	}
	for i, want := range s.Magic {
		b := header[s.Offset+i]
		if s.Mask != nil {
			b &= s.Mask[i]
		}
		if b != want {
			return false
		}
	}
	return true
}

// Container names reported by content matches.
const (
	ContainerMP4 = "mp4"
	ContainerOgg = "ogg"
	ContainerASF = "asf"
)

// rule is one content signature set. All parts must match.
type rule struct {
	format    Format
	container string
	parts     []Signature
}

// asfGUID is the ASF Header Object GUID that opens every WMA file.
var asfGUID = []byte{
	0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11,
	0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C,
}

// rules are evaluated in order; more specific patterns come first so that
// Opus-in-Ogg is not reported as plain Ogg Vorbis.
var rules = []rule{
	{OPUS, ContainerOgg, []Signature{
		{Offset: 0, Magic: []byte("OggS")},
		{Offset: 28, Magic: []byte("OpusHead")},
	}},
	{OGG, ContainerOgg, []Signature{{Offset: 0, Magic: []byte("OggS")}}},
	{FLAC, "", []Signature{{Offset: 0, Magic: []byte("fLaC")}}},
	{WAV, "", []Signature{
		{Offset: 0, Magic: []byte("RIFF")},
		{Offset: 8, Magic: []byte("WAVE")},
	}},
	{WMA, ContainerASF, []Signature{{Offset: 0, Magic: asfGUID}}},
	{AAC, ContainerMP4, []Signature{
		{Offset: 4, Magic: []byte("ftyp")},
		{Offset: 8, Magic: []byte("M4A ")},
	}},
	{MP3, "", []Signature{{Offset: 0, Magic: []byte("ID3")}}},
	// MPEG audio frame sync, layer III.
	{MP3, "", []Signature{{Offset: 0, Magic: []byte{0xFF, 0xF2}, Mask: []byte{0xFF, 0xF6}}}},
	// ADTS frame sync (layer bits 00).
	{AAC, "", []Signature{{Offset: 0, Magic: []byte{0xFF, 0xF0}, Mask: []byte{0xFF, 0xF6}}}},
}

// extensionIndex maps a lowercase extension (no dot) to its format.
var extensionIndex = func() map[string]Format {
	m := make(map[string]Format)
	for f := Format(0); f < numFormats; f++ {
		for _, ext := range formatTable[f].extensions {
			m[ext] = f
		}
	}
	return m
}()

// maxHeaderLen is the longest prefix any signature needs.
var maxHeaderLen = func() int {
	n := 0
	for _, r := range rules {
		for _, p := range r.parts {
			if end := p.Offset + len(p.Magic); end > n {
				n = end
			}
		}
	}
	return n
}()

// MaxHeaderLen returns how many leading bytes the sniffer reads.
func MaxHeaderLen() int { return maxHeaderLen }

// MagicMatch is the result of a content lookup.
type MagicMatch struct {
	Format    Format
	Container string // ContainerMP4, ContainerOgg, ContainerASF, or "".
}

// MatchMagic returns the first rule whose signatures all match header.
func MatchMagic(header []byte) (MagicMatch, bool) {
	for _, r := range rules {
		if matchAll(r.parts, header) {
			return MagicMatch{Format: r.format, Container: r.container}, true
		}
	}
	return MagicMatch{}, false
}

func matchAll(parts []Signature, header []byte) bool {
	for _, p := range parts {
		if !p.Matches(header) {
			return false
		}
	}
	return true
}

// LookupByMagic identifies a format from leading file bytes.
func LookupByMagic(header []byte) (Format, bool) {
	m, ok := MatchMagic(header)
	return m.Format, ok
}

// LookupByExtension identifies a format from a file extension. The lookup
// is case-insensitive and accepts the extension with or without its dot.
func LookupByExtension(ext string) (Format, bool) {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	f, ok := extensionIndex[ext]
	return f, ok
}

// LookupByPath identifies a format from the extension of path.
func LookupByPath(path string) (Format, bool) {
	return LookupByExtension(filepath.Ext(path))
}
