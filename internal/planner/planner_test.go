package planner

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/speedbatch/internal/config"
	"github.com/backmassage/speedbatch/internal/format"
	"github.com/backmassage/speedbatch/internal/naming"
	"github.com/backmassage/speedbatch/internal/probe"
)

// --- Helper builders ---

func defaultCfg(speed float64) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Speed = speed
	return &cfg
}

func oggInput() Input {
	return Input{
		Path:      "/music/a.ogg",
		Dest:      "/music/a_1.5x.ogg",
		Detection: format.Detection{Format: format.OGG, Method: format.ByMagic, Container: format.ContainerOgg},
	}
}

func probed(rate int) *probe.ProbeResult {
	a := probe.AudioStream{Codec: "vorbis", Channels: 2, SampleRate: rate}
	pr := &probe.ProbeResult{AudioStreams: []probe.AudioStream{a}}
	pr.PrimaryAudio = &pr.AudioStreams[0]
	return pr
}

// --- AtempoChain ---

func TestAtempoChain(t *testing.T) {
	tests := []struct {
		speed float64
		want  string
	}{
		{1, "atempo=1"},
		{1.5, "atempo=1.5"},
		{2, "atempo=2"},
		{0.5, "atempo=0.5"},
		{3, "atempo=2,atempo=1.5"},
		{4, "atempo=2,atempo=2"},
		{0.25, "atempo=0.5,atempo=0.5"},
		{0.75, "atempo=0.75"},
		{10, "atempo=2,atempo=2,atempo=2,atempo=1.25"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := AtempoChain(tt.speed)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAtempoChain_StagesInRangeAndProductMatches(t *testing.T) {
	for _, speed := range []float64{0.01, 0.3, 0.49, 0.51, 1.99, 2.01, 7.3, 100} {
		chain, err := AtempoChain(speed)
		require.NoError(t, err)

		product := 1.0
		for _, stage := range strings.Split(chain, ",") {
			f, err := strconv.ParseFloat(strings.TrimPrefix(stage, "atempo="), 64)
			require.NoError(t, err, stage)
			assert.GreaterOrEqual(t, f, atempoMin, "stage %s of %v", stage, speed)
			assert.LessOrEqual(t, f, atempoMax, "stage %s of %v", stage, speed)
			product *= f
		}
		assert.InEpsilon(t, speed, product, 1e-9)
	}
}

func TestAtempoChain_RejectsNonPositive(t *testing.T) {
	for _, speed := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := AtempoChain(speed)
		assert.ErrorIs(t, err, config.ErrNonPositiveSpeed, "speed %v", speed)
	}
}

// --- BuildSpeedFilter ---

func TestBuildSpeedFilter_Shift(t *testing.T) {
	filter, note, err := BuildSpeedFilter(1.5, config.PitchShift, 44100)
	require.NoError(t, err)
	assert.Equal(t, "asetrate=66150,aresample=44100", filter)
	assert.Empty(t, note)
}

func TestBuildSpeedFilter_ShiftWithoutRateFallsBack(t *testing.T) {
	filter, note, err := BuildSpeedFilter(3, config.PitchShift, 0)
	require.NoError(t, err)
	assert.Equal(t, "atempo=2,atempo=1.5", filter)
	assert.NotEmpty(t, note)
}

func TestBuildSpeedFilter_Preserve(t *testing.T) {
	filter, note, err := BuildSpeedFilter(1.25, config.PitchPreserve, 48000)
	require.NoError(t, err)
	assert.Equal(t, "atempo=1.25", filter)
	assert.Empty(t, note)
}

// --- MuxerFor ---

func TestMuxerFor(t *testing.T) {
	tests := []struct {
		name      string
		ft        format.Format
		container string
		dest      string
		want      string
	}{
		{"ogg", format.OGG, format.ContainerOgg, "a.ogg", "ogg"},
		{"oga", format.OGG, format.ContainerOgg, "a.oga", "ogg"},
		{"mp3", format.MP3, "", "a.mp3", "mp3"},
		{"wav", format.WAV, "", "a.WAV", "wav"},
		{"flac", format.FLAC, "", "a.flac", "flac"},
		{"m4a", format.AAC, format.ContainerMP4, "a.m4a", "ipod"},
		{"raw aac", format.AAC, "", "a.aac", "adts"},
		{"opus", format.OPUS, format.ContainerOgg, "a.opus", "opus"},
		{"alac in m4a", format.ALAC, format.ContainerMP4, "a.m4a", "ipod"},
		{"alac ext", format.ALAC, format.ContainerMP4, "a.alac", "ipod"},
		{"wma", format.WMA, format.ContainerASF, "a.wma", "asf"},
		{"ogg content named mp3", format.OGG, format.ContainerOgg, "clip.mp3", "ogg"},
		{"mp4 aac with unknown ext", format.AAC, format.ContainerMP4, "a.bin", "ipod"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MuxerFor(tt.ft, tt.container, tt.dest))
		})
	}
}

// --- BuildPlan ---

func TestBuildPlan_Preserve(t *testing.T) {
	plan, err := BuildPlan(defaultCfg(1.5), oggInput())
	require.NoError(t, err)

	assert.Equal(t, "/music/a.ogg", plan.InputPath)
	assert.Equal(t, "/music/a_1.5x.ogg", plan.OutputPath)
	assert.Equal(t, format.OGG, plan.Format)
	assert.Equal(t, "libvorbis", plan.Encoder)
	assert.Equal(t, "ogg", plan.Muxer)
	assert.Equal(t, "atempo=1.5", plan.AudioFilter)
	assert.Equal(t, config.PitchPreserve, plan.Pitch)
	assert.Empty(t, plan.Note)

	assert.Equal(t, filepath.Dir(plan.OutputPath), filepath.Dir(plan.TempPath))
	assert.True(t, naming.IsTempName(filepath.Base(plan.TempPath)))
}

func TestBuildPlan_ShiftUsesProbedRate(t *testing.T) {
	cfg := defaultCfg(2)
	cfg.Pitch = config.PitchShift
	in := oggInput()
	in.Probe = probed(48000)

	plan, err := BuildPlan(cfg, in)
	require.NoError(t, err)
	assert.Equal(t, 48000, plan.SampleRate)
	assert.Equal(t, "asetrate=96000,aresample=48000", plan.AudioFilter)
}

func TestBuildPlan_ShiftWithoutProbeNotes(t *testing.T) {
	cfg := defaultCfg(2)
	cfg.Pitch = config.PitchShift

	plan, err := BuildPlan(cfg, oggInput())
	require.NoError(t, err)
	assert.Equal(t, "atempo=2", plan.AudioFilter)
	assert.NotEmpty(t, plan.Note)
}

func TestBuildPlan_EncoderPerFormat(t *testing.T) {
	want := map[format.Format]string{
		format.OGG:  "libvorbis",
		format.MP3:  "libmp3lame",
		format.WAV:  "pcm_s16le",
		format.FLAC: "flac",
		format.AAC:  "aac",
		format.OPUS: "libopus",
		format.ALAC: "alac",
		format.WMA:  "wmav2",
	}
	for ft, enc := range want {
		in := Input{Path: "/m/x", Dest: "/m/x_2x." + ft.Extensions()[0], Detection: format.Detection{Format: ft}}
		plan, err := BuildPlan(defaultCfg(2), in)
		require.NoError(t, err, ft.String())
		assert.Equal(t, enc, plan.Encoder, ft.String())
		assert.NotEmpty(t, plan.Muxer, ft.String())
	}
}

func TestBuildPlan_Errors(t *testing.T) {
	_, err := BuildPlan(defaultCfg(0), oggInput())
	assert.ErrorIs(t, err, config.ErrNonPositiveSpeed)

	in := oggInput()
	in.Dest = ""
	_, err = BuildPlan(defaultCfg(1.5), in)
	assert.Error(t, err)

	in = oggInput()
	in.Detection.Format = format.Format(200)
	_, err = BuildPlan(defaultCfg(1.5), in)
	assert.Error(t, err)
}

// --- EstimateOutput ---

func TestEstimateOutput(t *testing.T) {
	pr := &probe.ProbeResult{Format: probe.FormatInfo{Duration: 300, Size: 6_000_000}}
	est := EstimateOutput(pr, 1.5)

	require.True(t, est.Known)
	assert.Equal(t, 5*time.Minute, est.Duration)
	assert.Equal(t, 200*time.Second, est.ProjectedDuration)
	assert.Equal(t, int64(4_000_000), est.ProjectedBytes)
}

func TestEstimateOutput_FromBitrate(t *testing.T) {
	pr := &probe.ProbeResult{Format: probe.FormatInfo{Duration: 60, BitRate: 128000}}
	est := EstimateOutput(pr, 2)
	require.True(t, est.Known)
	assert.Equal(t, 30*time.Second, est.ProjectedDuration)
	assert.Equal(t, int64(480_000), est.ProjectedBytes)
}

func TestEstimateOutput_Unknown(t *testing.T) {
	assert.False(t, EstimateOutput(nil, 2).Known)
	assert.False(t, EstimateOutput(&probe.ProbeResult{}, 2).Known)
}
