// Package planner turns one discovered audio file into a FilePlan that the
// ffmpeg package consumes: the speed filter chain, the encoder and muxer
// that keep the source format, and the destination and temp paths.
//
//   - FilePlan, Input (types.go)
//   - BuildPlan (planner.go)
//   - AtempoChain, BuildSpeedFilter (filter.go)
//   - MuxerFor (muxer.go)
//   - Estimate: projected duration and size for reports (estimation.go)
package planner
