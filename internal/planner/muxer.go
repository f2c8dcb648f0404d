package planner

import (
	"path/filepath"
	"strings"

	"github.com/backmassage/speedbatch/internal/format"
)

// extensionMuxers maps a lowercase extension to its ffmpeg muxer. Temp
// files carry a prefix, so the muxer is always passed explicitly rather
// than left to ffmpeg's name-based guess.
var extensionMuxers = map[string]string{
	"ogg":  "ogg",
	"oga":  "ogg",
	"mp3":  "mp3",
	"wav":  "wav",
	"wave": "wav",
	"flac": "flac",
	"m4a":  "ipod",
	"aac":  "adts",
	"opus": "opus",
	"alac": "ipod",
	"wma":  "asf",
}

// MuxerFor returns the muxer for writing ft to dest. The extension decides
// when it agrees with the detected format (.aac → ADTS, .m4a → MP4);
// otherwise the format and its detected container do, so a mislabeled
// file keeps its real format.
func MuxerFor(ft format.Format, container, dest string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(dest), "."))
	if byExt, ok := format.LookupByExtension(ext); ok && byExt == ft {
		if m, ok := extensionMuxers[ext]; ok {
			return m
		}
	}

	switch ft {
	case format.OGG:
		return "ogg"
	case format.MP3:
		return "mp3"
	case format.WAV:
		return "wav"
	case format.FLAC:
		return "flac"
	case format.AAC:
		if container == format.ContainerMP4 {
			return "ipod"
		}
		return "adts"
	case format.OPUS:
		return "opus"
	case format.ALAC:
		return "ipod"
	case format.WMA:
		return "asf"
	default:
		return ""
	}
}
