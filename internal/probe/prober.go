package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/backmassage/speedbatch/internal/format"
)

// Prober runs ffprobe. The zero value uses "ffprobe" from PATH.
type Prober struct {
	Binary string
}

// New returns a Prober for the given ffprobe binary.
func New(binary string) *Prober {
	return &Prober{Binary: binary}
}

func (p *Prober) binary() string {
	if p == nil || p.Binary == "" {
		return "ffprobe"
	}
	return p.Binary
}

// Probe runs a single ffprobe JSON call against path and returns the
// parsed result. Only audio streams and the format section are requested.
func (p *Prober) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	cmd := exec.CommandContext(ctx, p.binary(),
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %q: %w", path, err)
	}

	return ParseJSON(out)
}

// refineTimeout bounds a single codec lookup made during sniffing.
const refineTimeout = 15 * time.Second

// Refiner returns a [format.Refiner] that asks ffprobe for the codec of an
// MP4-container file. Probe failures leave the sniffer's guess untouched.
func (p *Prober) Refiner(ctx context.Context) format.Refiner {
	return func(path string) (format.Format, bool) {
		ctx, cancel := context.WithTimeout(ctx, refineTimeout)
		defer cancel()
		pr, err := p.Probe(ctx, path)
		if err != nil {
			return 0, false
		}
		return CodecFormat(pr.Codec())
	}
}

// ParseJSON converts raw ffprobe JSON output into a ProbeResult.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*ProbeResult, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	return buildResult(&raw), nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Filename       string            `json:"filename"`
	NbStreams      int               `json:"nb_streams"`
	FormatName     string            `json:"format_name"`
	FormatLongName string            `json:"format_long_name"`
	Duration       string            `json:"duration"`
	Size           string            `json:"size"`
	BitRate        string            `json:"bit_rate"`
	Tags           map[string]string `json:"tags"`
}

type ffprobeStream struct {
	Index         int               `json:"index"`
	CodecName     string            `json:"codec_name"`
	CodecType     string            `json:"codec_type"`
	Profile       string            `json:"profile"`
	BitRate       string            `json:"bit_rate"`
	Channels      int               `json:"channels"`
	ChannelLayout string            `json:"channel_layout"`
	SampleRate    string            `json:"sample_rate"`
	Disposition   map[string]int    `json:"disposition"`
	Tags          map[string]string `json:"tags"`
}

// --- Conversion from wire types to domain types ---

func buildResult(raw *ffprobeOutput) *ProbeResult {
	pr := &ProbeResult{
		Format: convertFormat(&raw.Format),
	}

	primary := -1
	for i := range raw.Streams {
		s := &raw.Streams[i]
		switch s.CodecType {
		case "audio":
			a := convertAudio(s)
			pr.AudioStreams = append(pr.AudioStreams, a)
			if primary < 0 || (a.IsDefault && !pr.AudioStreams[primary].IsDefault) {
				primary = len(pr.AudioStreams) - 1
			}
		case "video":
			// Audio files only carry video as embedded artwork.
			if s.Disposition["attached_pic"] == 1 || isImageCodec(s.CodecName) {
				pr.HasCoverArt = true
			}
		}
	}
	if primary >= 0 {
		pr.PrimaryAudio = &pr.AudioStreams[primary]
	}
	return pr
}

func isImageCodec(codec string) bool {
	switch codec {
	case "mjpeg", "png", "bmp", "gif", "webp":
		return true
	}
	return false
}

func convertFormat(f *ffprobeFormat) FormatInfo {
	return FormatInfo{
		Filename:       f.Filename,
		NbStreams:      f.NbStreams,
		FormatName:     f.FormatName,
		FormatLongName: f.FormatLongName,
		Duration:       parseFloat(f.Duration),
		Size:           parseInt64(f.Size),
		BitRate:        parseInt64(f.BitRate),
		Tags:           f.Tags,
	}
}

func convertAudio(s *ffprobeStream) AudioStream {
	return AudioStream{
		Index:         s.Index,
		Codec:         s.CodecName,
		Profile:       s.Profile,
		Channels:      s.Channels,
		ChannelLayout: s.ChannelLayout,
		SampleRate:    parseInt(s.SampleRate),
		BitRate:       parseInt64(s.BitRate),
		Language:      s.Tags["language"],
		IsDefault:     s.Disposition["default"] == 1,
	}
}

// --- Numeric parsing helpers (ffprobe returns numbers as strings) ---

func parseInt64(s string) int64 {
	s = strings.TrimSpace(s)
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseInt(s string) int {
	s = strings.TrimSpace(s)
	n, _ := strconv.Atoi(s)
	return n
}
