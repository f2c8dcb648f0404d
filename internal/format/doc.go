// Package format identifies audio files by content and by name.
//
// The registry holds the closed set of supported formats (OGG, MP3, WAV,
// FLAC, AAC, OPUS, ALAC, WMA) with their magic-byte signatures, canonical
// extensions, and preferred ffmpeg encoders. [Set] is the selection type
// used by the CLI ("all" or any subset). [Sniffer] reads a bounded header
// from a file and resolves its format, preferring content over the file
// name.
package format
