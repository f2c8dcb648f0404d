// Package probe provides ffprobe-based audio inspection and typed result
// structures. One JSON call per file yields the container, the primary
// audio stream, and whether embedded cover art is present.
//
// The results feed three places: the pitch-shift filter needs the source
// sample rate, the format sniffer asks for the real codec inside MP4
// containers (AAC vs ALAC), and the scan report shows codec and bitrate.
package probe
