package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/san-kum/popcorn/internal/animate"
	"github.com/san-kum/popcorn/internal/compute"
	"github.com/san-kum/popcorn/internal/config"
	"github.com/san-kum/popcorn/internal/display"
	"github.com/san-kum/popcorn/internal/dynamo"
	"github.com/san-kum/popcorn/internal/export"
	"github.com/san-kum/popcorn/internal/field"
	"github.com/san-kum/popcorn/internal/sim"
	"github.com/san-kum/popcorn/internal/viz"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	configFile string
	preset     string
	workers    int
	seed       int64
	frames     int
	startFrame int
	samples    int
	backend    string
	fieldName  string
	exportStub string
	frameLog   string
	logFormat  string
	logFile    string
	verbose    bool
	quiet      bool
	overlay    bool
	benchRuns  int
	outFile    string

	logOut io.Closer
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "popcorn [stub]",
		Short:             "popcorn strange attractor renderer",
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupLogging,
		RunE:              runWindow,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "yaml config file")
	pf.StringVarP(&preset, "preset", "p", "", "preset name (see presets)")
	pf.IntVarP(&workers, "workers", "w", 0, "sampling workers (0 = one per CPU)")
	pf.Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	pf.IntVarP(&frames, "frames", "n", 0, "frames to render (0 = config value)")
	pf.IntVar(&startFrame, "start", 0, "first frame index; the animation is advanced to it")
	pf.IntVar(&samples, "samples", 0, "trajectories per frame (0 = config value)")
	pf.StringVar(&backend, "backend", "", "sampling backend: auto, scalar, batch4")
	pf.StringVar(&fieldName, "field", "", "velocity field: "+strings.Join(field.Names(), ", "))
	pf.StringVarP(&exportStub, "export", "o", "", "write <stub><frame>.hdr after every frame")
	pf.StringVar(&frameLog, "frame-log", "", "per-frame CSV log path")
	pf.StringVar(&logFormat, "log-format", "text", "log format: text or json")
	pf.StringVar(&logFile, "log-file", "", "write logs to a file instead of stderr")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.Flags().BoolVar(&overlay, "overlay", true, "draw the status bar")

	runCmd := &cobra.Command{
		Use:   "run [stub]",
		Short: "render in a window",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWindow,
	}
	runCmd.Flags().BoolVar(&overlay, "overlay", true, "draw the status bar")

	renderCmd := &cobra.Command{
		Use:   "render [stub]",
		Short: "render headless with a terminal progress view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRender,
	}
	renderCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "no progress view")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time frames headless and chart tick durations",
		Args:  cobra.NoArgs,
		RunE:  runBench,
	}
	benchCmd.Flags().IntVar(&benchRuns, "runs", 2, "frames to time")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  dumpConfig,
	}
	configCmd.Flags().StringVar(&outFile, "out", "", "write to a file instead of stdout")

	rootCmd.AddCommand(runCmd, renderCmd, benchCmd, presetsCmd, configCmd)

	err := rootCmd.Execute()
	if err != nil {
		slog.Error("popcorn failed", "error", err)
	}
	closeLog()
	if err != nil {
		if errors.Is(err, dynamo.ErrDisplayInit) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command, args []string) error {
	var w io.Writer = os.Stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		w = f
		logOut = f
	}
	logger, err := newLogger(w, logFormat, verbose)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

// closeLog releases the --log-file handle and points the default logger
// back at stderr.
func closeLog() {
	if logOut == nil {
		return
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err := logOut.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close log file: %v\n", err)
	}
	logOut = nil
}

func newLogger(w io.Writer, format string, debug bool) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}
	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

// loadConfig resolves defaults, preset, config file and flags in that
// order.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.Preset(preset)
		if cfg == nil {
			names := config.ListPresets()
			return nil, fmt.Errorf("unknown preset %q (available: %s)", preset, strings.Join(names, ", "))
		}
	}
	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Sampling.Workers = workers
	}
	if flags.Changed("seed") {
		cfg.Sampling.Seed = seed
	}
	if frames > 0 {
		cfg.Animation.MaxFrames = frames
	}
	if startFrame > 0 {
		cfg.Animation.StartFrame = startFrame
	}
	if samples > 0 {
		cfg.Sampling.FrameSamples = samples
	}
	if backend != "" {
		cfg.Compute.Backend = backend
	}
	if fieldName != "" {
		cfg.Field.Name = fieldName
	}
	if exportStub != "" {
		cfg.Export.Stub = exportStub
	}
	if len(args) > 0 {
		cfg.Export.Stub = args[0]
	}
	if frameLog != "" {
		cfg.Export.Log = frameLog
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type session struct {
	engine *sim.Engine
	pool   *sim.Pool
	flog   *export.FrameLog
}

func (s *session) Close() {
	s.pool.Close()
	if err := s.flog.Close(); err != nil {
		slog.Warn("frame log close failed", "error", err)
	}
}

func newSession(cfg *config.Config, surf sim.Surface, preview bool) (*session, error) {
	f, err := field.New(cfg.Field.Name)
	if err != nil {
		return nil, err
	}
	if err := field.Configure(f, cfg.Field.Params); err != nil {
		return nil, err
	}
	b, err := compute.Select(cfg.Compute.Backend)
	if err != nil {
		return nil, err
	}

	rngSeed := cfg.Sampling.Seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	n := sim.WorkerCount(cfg.Sampling.Workers, cfg.Sampling.MaxWorkers)
	pool := sim.NewPool(n, cfg.Screen.Width, cfg.Screen.Height, rngSeed, b)

	anim := animate.New(cfg.Coefficients(), cfg.Rates(), cfg.Domain.OffsetY, cfg.Animation.OffsetRate, cfg.Animation.Dt)
	settings := sim.Settings{
		Width:         cfg.Screen.Width,
		Height:        cfg.Screen.Height,
		Window:        cfg.Window(),
		FrameSamples:  cfg.Sampling.FrameSamples,
		TicksPerFrame: cfg.Sampling.TicksPerFrame,
		IterMax:       cfg.Sampling.IterMax,
		Delta:         cfg.Sampling.Delta,
		StartFrame:    cfg.Animation.StartFrame,
		MaxFrames:     cfg.Animation.MaxFrames,
		Intensify:     cfg.Tonemap.Intensify,
		Dampen:        cfg.Tonemap.Dampen,
		Preview:       preview,
	}
	ctx, err := sim.NewContext(settings, f, anim, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}

	opts := []sim.Option{sim.WithLogger(slog.Default())}
	if cfg.ExportEnabled() {
		opts = append(opts, sim.WithExporter(export.NewExporter(cfg.Export.Stub)))
	}
	flog, err := export.NewFrameLog(cfg.Export.Log)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if flog != nil {
		opts = append(opts, sim.WithRecorder(flog))
	}

	slog.Debug("session ready", "field", cfg.Field.Name, "workers", n, "seed", rngSeed, "backend", b.Name())
	return &session{engine: sim.NewEngine(ctx, surf, opts...), pool: pool, flog: flog}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runWindow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	win, err := display.OpenWindow(cfg.Screen.Width, cfg.Screen.Height, display.WindowOptions{
		Title:     cfg.Screen.Title,
		TargetFPS: cfg.Screen.TargetFPS,
		Overlay:   overlay,
	})
	if err != nil {
		return err
	}
	defer win.Close()

	s, err := newSession(cfg, win, true)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signalContext()
	defer stop()
	return s.engine.Run(ctx)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if !cfg.ExportEnabled() {
		slog.Warn("no export stub set; frames are computed but not written")
	}

	var surf display.Surface = &display.Null{}
	if !quiet {
		surf = display.NewTerminal(cfg.Screen.Title, os.Stdin, os.Stdout)
	}
	defer surf.Close()

	s, err := newSession(cfg, surf, false)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signalContext()
	defer stop()
	return s.engine.Run(ctx)
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	cfg.Animation.MaxFrames = cfg.Animation.StartFrame + max(benchRuns, 1)
	cfg.Export.Stub = ""

	s, err := newSession(cfg, &display.Null{}, false)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signalContext()
	defer stop()

	start := time.Now()
	if err := s.engine.Run(ctx); err != nil {
		return err
	}
	elapsed := time.Since(start)

	e := s.engine
	t := e.Timer()
	mean, std := t.MeanStdDev()
	sc := e.Context()

	lines := []string{
		viz.Title.Render("popcorn bench"),
		"",
		viz.Metric("backend", sc.Pool.Backend().Name()),
		viz.Metric("workers", sc.Pool.Size()),
		viz.Metric("frames", sc.Counters.Frame-cfg.Animation.StartFrame),
		viz.Metric("samples", sc.Counters.Total),
		viz.Metric("elapsed", elapsed.Round(time.Millisecond)),
	}
	for _, m := range e.Metrics() {
		lines = append(lines, viz.Metric(m.Name(), fmt.Sprintf("%.3f", m.Value())))
	}
	lines = append(lines,
		viz.Metric("tick", fmt.Sprintf("%.3f ± %.3f ms", mean, std)),
		viz.Metric("calc", fmt.Sprintf("%.1f%%", t.CalcPct())),
		viz.Metric("draw", fmt.Sprintf("%.1f%%", t.DrawPct())),
	)
	summary := strings.Join(lines, "\n")

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, viz.Panel.Render(summary))
	fmt.Fprintln(out)
	fmt.Fprintln(out, viz.TimingChart(t.Samples(), 70, 12))
	fmt.Fprintln(out)
	fmt.Fprintln(out, viz.Profile(sc.Merged.RowProfile(), 70, 10))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	names := config.ListPresets()
	out := cmd.OutOrStdout()
	for _, name := range names {
		c := config.Preset(name)
		fmt.Fprintf(out, "%-10s %s\n", viz.Title.Render(name), viz.Subtle.Render(fmt.Sprintf(
			"%dx%d  field=%s  samples=%d  ticks=%d  backend=%s",
			c.Screen.Width, c.Screen.Height, c.Field.Name,
			c.Sampling.FrameSamples, c.Sampling.TicksPerFrame, c.Compute.Backend)))
	}
	return nil
}

func dumpConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if outFile != "" {
		return config.Save(outFile, cfg)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
