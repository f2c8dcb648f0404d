package planner

import (
	"fmt"

	"github.com/backmassage/speedbatch/internal/config"
	"github.com/backmassage/speedbatch/internal/naming"
)

// BuildPlan produces a complete FilePlan from config and what the pipeline
// learned about the file. It is called once per dispatched task.
//
// Flow:
//  1. Resolve encoder and muxer from the detected format
//  2. Build the speed filter (atempo chain, or asetrate for pitch shift)
//  3. Assign a fresh temp path next to the destination
func BuildPlan(cfg *config.Config, in Input) (*FilePlan, error) {
	ft := in.Detection.Format
	if !ft.Valid() {
		return nil, fmt.Errorf("plan %s: unknown format %d", in.Path, ft)
	}
	if in.Dest == "" {
		return nil, fmt.Errorf("plan %s: empty destination", in.Path)
	}

	plan := &FilePlan{
		InputPath:  in.Path,
		OutputPath: in.Dest,
		TempPath:   naming.TempPath(in.Dest),
		Format:     ft,
		Encoder:    ft.Encoder(),
		Muxer:      MuxerFor(ft, in.Detection.Container, in.Dest),
		Speed:      cfg.Speed,
		Pitch:      cfg.Pitch,
	}
	if in.Probe != nil {
		plan.SampleRate = in.Probe.SampleRate()
	}

	filter, note, err := BuildSpeedFilter(cfg.Speed, cfg.Pitch, plan.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", in.Path, err)
	}
	plan.AudioFilter = filter
	plan.Note = note
	return plan, nil
}
