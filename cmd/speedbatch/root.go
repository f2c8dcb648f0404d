package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/backmassage/speedbatch/internal/check"
	"github.com/backmassage/speedbatch/internal/config"
	"github.com/backmassage/speedbatch/internal/display"
	"github.com/backmassage/speedbatch/internal/ffmpeg"
	"github.com/backmassage/speedbatch/internal/logging"
	"github.com/backmassage/speedbatch/internal/pipeline"
	"github.com/backmassage/speedbatch/internal/probe"
	"github.com/backmassage/speedbatch/internal/runlock"
	"github.com/backmassage/speedbatch/internal/term"
)

func newRootCommand() *cobra.Command {
	var configPath string
	cfg := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "speedbatch [flags] <input_dir>",
		Short: "Change the playback speed of every audio file in a directory tree",
		Long: `speedbatch walks input_dir, detects each file's audio format from its
content (falling back to the extension), and runs ffmpeg on every file in
the selected formats in parallel.

By default each result is written next to its source as <name>_<speed>x<ext>.
Use --output inplace to replace sources, or --output mirror -o DIR to write
a parallel tree.`,
		Example: `  speedbatch -s 1.5 ~/Podcasts
  speedbatch -s 2 -f ogg,mp3 --output mirror -o /srv/fast ~/Audiobooks
  speedbatch -s 0.8 --pitch shift --dry-run ./lectures`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.InputDir = config.NormalizeDirArg(args[0])
			log, err := loadConfig(cmd, &cfg, configPath, nil)
			if err != nil {
				return err
			}
			defer log.Close()
			return runBatch(cmd.Context(), cmd, &cfg, log)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	config.BindFlags(rootCmd.Flags(), &cfg)
	rootCmd.Flags().SortFlags = false

	rootCmd.AddCommand(newScanCommand(&configPath))
	rootCmd.AddCommand(newCheckCommand(&configPath))
	rootCmd.AddCommand(newConfigCommand())
	return rootCmd
}

// loadConfig layers the config file and the command's flags over cfg,
// validates the result and builds the logger. adjust, when set, runs
// between resolving and validation.
func loadConfig(cmd *cobra.Command, cfg *config.Config, configPath string, adjust func(*config.Config)) (*logging.Logger, error) {
	if err := config.Resolve(cmd.Flags(), cfg, configPath); err != nil {
		return nil, err
	}
	if adjust != nil {
		adjust(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return logging.NewLogger(cfg)
}

// runBatch is the main flow: request → path checks → dependency check →
// run lock → pipeline → summary.
func runBatch(ctx context.Context, cmd *cobra.Command, cfg *config.Config, log *logging.Logger) error {
	out := cmd.OutOrStdout()
	display.PrintBanner(out, version)

	req, err := pipeline.NewRequest(*cfg)
	if err != nil {
		return err
	}

	if cfg.Output == config.OutputMirror {
		if err := prepareMirror(cfg, req.Root()); err != nil {
			log.Error("%v", err)
			return errReported
		}
		// Rebuild with the resolved output root.
		if req, err = pipeline.NewRequest(*cfg); err != nil {
			return err
		}
	}

	logRunHeader(log, cfg, req)

	// Fail fast when ffmpeg is missing instead of failing every file.
	if err := check.CheckDeps(cfg); err != nil {
		log.Error("%v", err)
		log.Error("Install ffmpeg or point --ffmpeg at it (see `speedbatch check`)")
		return errReported
	}

	lock, err := runlock.Acquire(req.Root())
	if err != nil {
		log.Error("%v", err)
		return errReported
	}
	defer lock.Release()

	deps := pipeline.Deps{
		Transcoder: ffmpeg.NewExecutor(cfg),
		Log:        log,
	}
	if check.NeedsProber(cfg) {
		deps.Prober = probe.New(cfg.FFprobePath)
	}
	if !cfg.HideProgress && term.IsTerminal(os.Stderr) {
		deps.Progress = os.Stderr
	}

	sum, err := pipeline.Run(ctx, req, deps)
	pipeline.LogSummary(out, log, sum, cfg.DryRun)

	switch {
	case errors.Is(err, context.Canceled):
		log.Warn("Interrupted; unfinished files were left untouched")
		return err
	case err != nil:
		log.Error("%v", err)
		return errReported
	case sum.Failed > 0:
		return errReported
	}
	return nil
}

// prepareMirror creates the output root and refuses one inside the input
// tree, which the walk would otherwise pick up again.
func prepareMirror(cfg *config.Config, inputRoot string) error {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("cannot create output directory %s: %w", cfg.OutputDir, err)
	}
	inputAbs, err := absPath(inputRoot)
	if err != nil {
		return fmt.Errorf("cannot resolve input path %s: %w", inputRoot, err)
	}
	outputAbs, err := absPath(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("cannot resolve output path %s: %w", cfg.OutputDir, err)
	}
	if err := cfg.ValidatePaths(inputAbs, outputAbs); err != nil {
		return fmt.Errorf("%w; choose an output path outside %s", err, inputRoot)
	}
	cfg.OutputDir = outputAbs
	return nil
}

func logRunHeader(log *logging.Logger, cfg *config.Config, req *pipeline.Request) {
	log.Info("=== speedbatch v%s (%s) ===", version, commit)
	log.Info("In:      %s", req.Root())
	log.Info("Speed:   %sx (pitch %s)", config.FormatSpeed(req.Speed()), req.Pitch())
	log.Info("Formats: %s", req.Formats())
	switch req.Policy() {
	case config.OutputMirror:
		log.Info("Out:     %s", cfg.OutputDir)
	case config.OutputInPlace:
		log.Warn("Out:     in place (sources are replaced)")
	default:
		log.Info("Out:     next to sources as *%s", cfg.SiblingSuffix())
	}
	log.Info("Workers: %d", req.Workers())
	if cfg.ConfigFile != "" {
		log.Debug("Config:  %s", cfg.ConfigFile)
	}
	if cfg.DryRun {
		log.Warn("DRY RUN: no files will be written")
	}
}

func newScanCommand(configPath *string) *cobra.Command {
	cfg := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "scan <input_dir>",
		Short: "Report the audio files a run would process, with projected durations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.InputDir = config.NormalizeDirArg(args[0])
			log, err := loadConfig(cmd, &cfg, *configPath, func(c *config.Config) {
				if c.Speed == 0 {
					c.Speed = 1
				}
			})
			if err != nil {
				return err
			}
			defer log.Close()

			req, err := pipeline.NewRequest(cfg)
			if err != nil {
				return err
			}

			var prober *probe.Prober
			if err := check.CheckProber(&cfg); err != nil {
				log.Warn("%v; reporting formats only", err)
			} else {
				prober = probe.New(cfg.FFprobePath)
			}

			log.Info("Scanning %s", req.Root())
			report, err := pipeline.Scan(cmd.Context(), req, prober, log)
			if err != nil {
				return err
			}
			pipeline.PrintScan(cmd.OutOrStdout(), log, report, req.Speed())
			return nil
		},
	}
	config.BindFlags(cmd.Flags(), &cfg)
	return cmd
}

func newCheckCommand(configPath *string) *cobra.Command {
	cfg := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check ffmpeg, ffprobe, speed filters and encoders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.CheckOnly = true
			log, err := loadConfig(cmd, &cfg, *configPath, nil)
			if err != nil {
				return err
			}
			defer log.Close()

			display.PrintBanner(cmd.OutOrStdout(), version)
			if !check.RunCheck(cmd.Context(), &cfg, log, cmd.OutOrStdout()) {
				return errReported
			}
			return nil
		},
	}
	config.BindFlags(cmd.Flags(), &cfg)
	return cmd
}

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigPathCommand())
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			}
			if err := config.WriteSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	return cmd
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the default configuration file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

// absPath returns the absolute, symlink-resolved path for comparing the
// input and output hierarchies.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
