package format

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dhowden/tag"
)

// Method records which check produced a detection.
type Method int

const (
	ByMagic     Method = iota + 1 // Registry signature in the file header.
	ByTag                         // Tag/container identification (ID3v1 trailer, MP4 brand).
	ByExtension                   // File extension fallback.
)

func (m Method) String() string {
	switch m {
	case ByMagic:
		return "magic"
	case ByTag:
		return "tag"
	case ByExtension:
		return "extension"
	default:
		return "none"
	}
}

// Detection is the resolved format of one file.
type Detection struct {
	Format    Format
	Method    Method
	Container string
}

// Refiner inspects an MP4-container file and reports its real codec. The
// header alone cannot tell AAC from ALAC.
type Refiner func(path string) (Format, bool)

// Sniffer detects audio formats. The zero value is ready to use.
type Sniffer struct {
	// Refine, when set, is consulted for MP4-container detections.
	Refine Refiner
}

// Detect is [Sniffer.Detect] with no refiner.
func Detect(path string) (Detection, bool, error) {
	var s Sniffer
	return s.Detect(path)
}

// Detect reads at most [MaxHeaderLen] bytes of path and resolves its
// format. Content wins over the file name: registry signatures are tried
// first, then tag-level identification, then the extension. A file that
// matches nothing returns ok == false and a nil error. A file that cannot
// be opened or read returns an error.
func (s *Sniffer) Detect(path string) (Detection, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return Detection{}, false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, maxHeaderLen)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Detection{}, false, fmt.Errorf("read %s: %w", path, err)
	}
	header = header[:n]

	if m, ok := MatchMagic(header); ok {
		return s.finish(path, Detection{Format: m.Format, Method: ByMagic, Container: m.Container}), true, nil
	}

	if d, ok := identifyTag(f, path, header); ok {
		return s.finish(path, d), true, nil
	}

	if ft, ok := LookupByPath(path); ok {
		return Detection{Format: ft, Method: ByExtension}, true, nil
	}
	return Detection{}, false, nil
}

// finish resolves MP4-container detections to AAC or ALAC.
func (s *Sniffer) finish(path string, d Detection) Detection {
	if d.Container != ContainerMP4 {
		return d
	}
	if ext, ok := LookupByPath(path); ok && ext == ALAC {
		d.Format = ALAC
	}
	if s.Refine != nil {
		if ft, ok := s.Refine(path); ok && (ft == AAC || ft == ALAC) {
			d.Format = ft
		}
	}
	return d
}

// identifyTag asks dhowden/tag for a second content opinion. It catches
// MP3 files that only carry an ID3v1 trailer and MP4 brands other than
// "M4A ". tag reports MP3 for any file ending in a "TAG" block, so that
// answer is ignored when header reads as plain text.
func identifyTag(r io.ReadSeeker, path string, header []byte) (Detection, bool) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Detection{}, false
	}
	tf, ft, err := tag.Identify(r)
	if err != nil {
		return Detection{}, false
	}
	switch ft {
	case tag.MP3:
		if looksLikeText(header) {
			return Detection{}, false
		}
		return Detection{Format: MP3, Method: ByTag}, true
	case tag.FLAC:
		return Detection{Format: FLAC, Method: ByTag}, true
	case tag.OGG:
		return Detection{Format: OGG, Method: ByTag, Container: ContainerOgg}, true
	case tag.ALAC:
		return Detection{Format: ALAC, Method: ByTag, Container: ContainerMP4}, true
	case tag.M4A, tag.M4B, tag.M4P:
		return Detection{Format: AAC, Method: ByTag, Container: ContainerMP4}, true
	}
	if tf == tag.MP4 {
		// Unknown brand; only trust it when the name agrees it is audio.
		if ext, ok := LookupByPath(path); ok && (ext == AAC || ext == ALAC) {
			return Detection{Format: ext, Method: ByTag, Container: ContainerMP4}, true
		}
	}
	return Detection{}, false
}

// looksLikeText reports whether b is non-empty and free of control bytes
// other than tab, newline and carriage return.
func looksLikeText(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c < 0x20 && c != '\t' && c != '\n' && c != '\r' || c == 0x7F {
			return false
		}
	}
	return true
}
