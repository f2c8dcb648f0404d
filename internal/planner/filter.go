package planner

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/backmassage/speedbatch/internal/config"
)

// atempo accepts factors in [0.5, 2.0]; larger changes are chained.
const (
	atempoMin = 0.5
	atempoMax = 2.0
)

// AtempoChain returns the atempo filter chain for speed, splitting it into
// stages that each stay inside the filter's accepted range:
//
//	1.5  → atempo=1.5
//	3    → atempo=2,atempo=1.5
//	0.25 → atempo=0.5,atempo=0.5
func AtempoChain(speed float64) (string, error) {
	if err := config.ValidateSpeed(speed); err != nil {
		return "", err
	}

	var stages []string
	s := speed
	for s > atempoMax {
		stages = append(stages, "atempo="+formatFactor(atempoMax))
		s /= atempoMax
	}
	for s < atempoMin {
		stages = append(stages, "atempo="+formatFactor(atempoMin))
		s /= atempoMin
	}
	stages = append(stages, "atempo="+formatFactor(s))
	return strings.Join(stages, ","), nil
}

// BuildSpeedFilter returns the -filter:a chain for the requested speed and
// pitch mode. Pitch shift resamples: asetrate plays the stream SR*speed
// samples per second, aresample brings it back to SR. It needs the source
// sample rate; without one it falls back to atempo and returns a note.
func BuildSpeedFilter(speed float64, pitch config.PitchMode, sampleRate int) (filter, note string, err error) {
	if pitch == config.PitchShift {
		if err := config.ValidateSpeed(speed); err != nil {
			return "", "", err
		}
		if sampleRate > 0 {
			target := int(math.Round(float64(sampleRate) * speed))
			if target < 1 {
				target = 1
			}
			return fmt.Sprintf("asetrate=%d,aresample=%d", target, sampleRate), "", nil
		}
		note = "sample rate unknown; pitch preserved via atempo"
	}

	filter, err = AtempoChain(speed)
	return filter, note, err
}

// formatFactor renders a tempo factor in its shortest exact form.
func formatFactor(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
