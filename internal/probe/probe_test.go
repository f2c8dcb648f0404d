package probe

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/speedbatch/internal/format"
)

// MP3 with an ID3 cover image stored as an attached picture.
const sampleMP3 = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "mp3",
      "codec_type": "audio",
      "channels": 2,
      "channel_layout": "stereo",
      "sample_rate": "44100",
      "bit_rate": "320000",
      "disposition": { "default": 0, "attached_pic": 0 },
      "tags": {}
    },
    {
      "index": 1,
      "codec_name": "mjpeg",
      "codec_type": "video",
      "disposition": { "default": 0, "attached_pic": 1 },
      "tags": { "comment": "Cover (front)" }
    }
  ],
  "format": {
    "filename": "/music/Artist/01 Track.mp3",
    "nb_streams": 2,
    "format_name": "mp3",
    "format_long_name": "MP2/3 (MPEG audio layer 2/3)",
    "duration": "241.632653",
    "size": "9712345",
    "bit_rate": "321562",
    "tags": { "title": "Track" }
  }
}`

// M4A holding ALAC, with no stream bitrate.
const sampleALAC = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "alac",
      "codec_type": "audio",
      "channels": 2,
      "sample_rate": "96000",
      "disposition": { "default": 1 },
      "tags": { "language": "und" }
    }
  ],
  "format": {
    "filename": "hires.m4a",
    "nb_streams": 1,
    "format_name": "mov,mp4,m4a,3gp,3g2,mj2",
    "duration": "10.000",
    "size": "5000000",
    "bit_rate": "4000000"
  }
}`

// Two audio streams; the second is the default.
const sampleMulti = `{
  "streams": [
    { "index": 0, "codec_name": "wmav2", "codec_type": "audio", "channels": 1,
      "sample_rate": "22050", "disposition": { "default": 0 } },
    { "index": 1, "codec_name": "wmapro", "codec_type": "audio", "channels": 6,
      "sample_rate": "48000", "disposition": { "default": 1 } }
  ],
  "format": { "filename": "multi.wma", "format_name": "asf" }
}`

func TestParseJSON_MP3WithCover(t *testing.T) {
	pr, err := ParseJSON([]byte(sampleMP3))
	require.NoError(t, err)

	assert.Equal(t, "/music/Artist/01 Track.mp3", pr.Format.Filename)
	assert.Equal(t, 2, pr.Format.NbStreams)
	assert.InDelta(t, 241.632653, pr.Format.Duration, 1e-9)
	assert.Equal(t, int64(9712345), pr.Format.Size)
	assert.Equal(t, "Track", pr.Format.Tags["title"])

	require.Len(t, pr.AudioStreams, 1)
	require.NotNil(t, pr.PrimaryAudio)
	assert.Equal(t, "mp3", pr.Codec())
	assert.Equal(t, 44100, pr.SampleRate())
	assert.Equal(t, int64(320000), pr.AudioBitRate())
	assert.True(t, pr.HasCoverArt)
	assert.Equal(t, "2ch @ 44100 Hz", pr.Layout())
}

func TestParseJSON_BitrateFallsBackToFormat(t *testing.T) {
	pr, err := ParseJSON([]byte(sampleALAC))
	require.NoError(t, err)

	assert.Equal(t, "alac", pr.Codec())
	assert.Equal(t, 96000, pr.SampleRate())
	assert.Equal(t, int64(4000000), pr.AudioBitRate())
	assert.False(t, pr.HasCoverArt)
	assert.Equal(t, "und", pr.PrimaryAudio.Language)
}

func TestParseJSON_DefaultStreamIsPrimary(t *testing.T) {
	pr, err := ParseJSON([]byte(sampleMulti))
	require.NoError(t, err)

	require.Len(t, pr.AudioStreams, 2)
	assert.Equal(t, 1, pr.PrimaryAudio.Index)
	assert.Equal(t, "wmapro", pr.Codec())
	assert.Equal(t, 6, pr.PrimaryAudio.Channels)
}

func TestParseJSON_NoAudio(t *testing.T) {
	pr, err := ParseJSON([]byte(`{"streams": [], "format": {"filename": "x"}}`))
	require.NoError(t, err)

	assert.Nil(t, pr.PrimaryAudio)
	assert.Zero(t, pr.SampleRate())
	assert.Empty(t, pr.Codec())
	assert.Equal(t, "unknown", pr.Layout())
}

func TestParseJSON_Invalid(t *testing.T) {
	_, err := ParseJSON([]byte("not json"))
	assert.Error(t, err)
}

func TestCodecFormat(t *testing.T) {
	tests := []struct {
		codec string
		want  format.Format
		ok    bool
	}{
		{"vorbis", format.OGG, true},
		{"mp3", format.MP3, true},
		{"pcm_s16le", format.WAV, true},
		{"pcm_f32le", format.WAV, true},
		{"flac", format.FLAC, true},
		{"aac", format.AAC, true},
		{"opus", format.OPUS, true},
		{"alac", format.ALAC, true},
		{"wmav2", format.WMA, true},
		{"WMAPRO", format.WMA, true},
		{"ac3", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.codec, func(t *testing.T) {
			got, ok := CodecFormat(tt.codec)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

// fakeProbe writes a shell script that prints body regardless of arguments.
func fakeProbe(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stub needs a POSIX shell")
	}
	dir := t.TempDir()
	data := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(data, []byte(body), 0o644))
	script := filepath.Join(dir, "ffprobe")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ncat '"+data+"'\n"), 0o755))
	return script
}

func TestProber_Probe(t *testing.T) {
	p := New(fakeProbe(t, sampleALAC))

	pr, err := p.Probe(context.Background(), "ignored.m4a")
	require.NoError(t, err)
	assert.Equal(t, "alac", pr.Codec())
}

func TestProber_MissingBinary(t *testing.T) {
	p := New(filepath.Join(t.TempDir(), "no-such-ffprobe"))
	_, err := p.Probe(context.Background(), "x.mp3")
	assert.Error(t, err)
}

func TestProber_Refiner(t *testing.T) {
	refine := New(fakeProbe(t, sampleALAC)).Refiner(context.Background())
	got, ok := refine("hires.m4a")
	require.True(t, ok)
	assert.Equal(t, format.ALAC, got)

	refine = New(filepath.Join(t.TempDir(), "missing")).Refiner(context.Background())
	_, ok = refine("hires.m4a")
	assert.False(t, ok, "probe failure keeps the sniffer's guess")
}
