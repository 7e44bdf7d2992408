package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/danielpatrickdp/tau-anchor/internal/analysis"
	"github.com/danielpatrickdp/tau-anchor/internal/engine"
	"github.com/danielpatrickdp/tau-anchor/internal/host"
	"github.com/danielpatrickdp/tau-anchor/internal/render"
	"github.com/danielpatrickdp/tau-anchor/internal/store"
	"github.com/danielpatrickdp/tau-anchor/internal/telemetry"
)

// cliSteps is the finite run length when neither --steps nor TAU_STEPS is set.
const cliSteps = 300

// #region options

type options struct {
	steps        uint64
	infinite     bool
	stopProb     float64
	hardCap      uint64
	seed         int64
	encoded      bool
	ascii        bool
	terminalPlot bool
	tui          bool
	udp          string
	ws           string
	grpcAddr     string
	dbPath       string
	configPath   string
	phaseCSV     string
	phaseWindow  int
}

func parseOptions() options {
	var o options
	flag.Uint64Var(&o.steps, "steps", envUint("TAU_STEPS", cliSteps), "number of steps for a finite run")
	flag.BoolVar(&o.infinite, "infinite", envBool("TAU_INFINITE"), "run until the stochastic stop, the hard cap or Ctrl-C")
	flag.Float64Var(&o.stopProb, "stop-prob", envFloat("TAU_STOP_PROB", host.DefaultStopProbability), "per-step stop probability for --infinite")
	flag.Uint64Var(&o.hardCap, "hard-cap", envUint("TAU_HARD_CAP", host.DefaultHardCap), "step cap for --infinite")
	flag.Int64Var(&o.seed, "seed", int64(envUint("TAU_SEED", 0)), "seed for the stochastic stop (0 = time based)")
	flag.BoolVar(&o.encoded, "encoded", envBool("TAU_ENCODED"), "space-separate the anchor pattern")
	flag.BoolVar(&o.ascii, "ascii", envBool("TAU_ASCII"), "ASCII sparkline instead of Unicode blocks")
	flag.BoolVar(&o.terminalPlot, "terminal-plot", envBool("TAU_TERMINAL_PLOT"), "redraw an in-place status line with a sparkline")
	flag.BoolVar(&o.tui, "tui", envBool("TAU_TUI"), "full-screen dashboard")
	flag.StringVar(&o.udp, "udp", envOr("TAU_UDP", ""), "stream JSON records to host:port over UDP")
	flag.StringVar(&o.ws, "ws", envOr("TAU_WS", ""), "stream JSON records to a ws:// or wss:// endpoint")
	flag.StringVar(&o.grpcAddr, "grpc", envOr("TAU_GRPC", ""), "serve the Telemetry Subscribe stream on this address")
	flag.StringVar(&o.dbPath, "db", envOr("TAU_DB", ""), "record the run and every step in this SQLite file")
	flag.StringVar(&o.configPath, "config", envOr("TAU_CONFIG", ""), "engine config JSON (defaults apply to absent fields)")
	flag.StringVar(&o.phaseCSV, "phase-csv", envOr("TAU_PHASE_CSV", ""), "write phase error of the retained history to this CSV file")
	flag.IntVar(&o.phaseWindow, "phase-window", analysis.DefaultWindow, "smoothing window for --phase-csv")
	flag.Parse()
	return o
}

// #endregion options

// #region main
func main() {
	opts := parseOptions()
	if err := run(opts); err != nil {
		log.Fatalf("tau: %v", err)
	}
}

func run(opts options) error {
	if !opts.infinite && opts.steps == 0 {
		return fmt.Errorf("--steps must be > 0")
	}
	cfg := engine.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = engine.LoadConfig(opts.configPath); err != nil {
			return err
		}
	}
	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Sinks
	sinks, runStore, runID, cleanup, err := openSinks(ctx, opts, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var dispatcher *telemetry.Dispatcher
	if len(sinks) > 0 {
		dcfg := telemetry.DefaultDispatcherConfig()
		if runStore != nil {
			// the step log is the replay source, so give it room to absorb disk stalls
			dcfg.QueueSize = 1 << 16
		}
		dispatcher = telemetry.NewDispatcher(dcfg, sinks...)
	}

	loop := &host.Loop{Stepper: eng, Stop: stopPredicate(opts)}
	if dispatcher != nil {
		loop.Observers = append(loop.Observers, dispatcher)
	}

	var sum host.Summary
	var runErr error
	if opts.tui {
		sum, runErr = runDashboard(ctx, loop, opts)
	} else {
		printer := render.NewPrinter(os.Stdout, render.PrinterConfig{
			Plot:    opts.terminalPlot,
			ASCII:   opts.ascii,
			Encoded: opts.encoded,
		})
		loop.Observers = append(loop.Observers, printer)
		sum, runErr = loop.Run(ctx)
		if err := printer.Finish(); err != nil {
			log.Printf("console: %v", err)
		}
	}

	if dispatcher != nil {
		if err := dispatcher.Close(); err != nil {
			log.Printf("telemetry: %v", err)
		}
		st := dispatcher.Stats()
		log.Printf("telemetry: enqueued=%d dropped=%d sent=%d failed=%d skipped=%d",
			st.Enqueued, st.Dropped, st.Sent, st.Failed, st.Skipped)
	}

	if runStore != nil {
		status := store.StatusFinished
		if sum.Cancelled || runErr != nil {
			status = store.StatusCancelled
		}
		if err := runStore.FinishRun(runID, sum.Steps, status); err != nil {
			log.Printf("store: %v", err)
		} else {
			log.Printf("store: run %s recorded (%d steps)", runID, sum.Steps)
		}
	}

	if runErr != nil {
		return runErr
	}

	if sum.Cancelled {
		fmt.Println("\nInterrupted. Exiting...")
	}
	fmt.Println(render.FinalLine(sum.Steps, sum.Anchors, sum.Cancelled))

	if opts.phaseCSV != "" {
		if err := writePhaseCSV(opts.phaseCSV, eng.History().Values(), opts.phaseWindow); err != nil {
			return err
		}
		fmt.Printf("Phase error saved to %s\n", opts.phaseCSV)
	}
	return nil
}
// #endregion main

// #region run-modes

func stopPredicate(opts options) host.StopPredicate {
	if !opts.infinite {
		return host.AfterSteps(opts.steps)
	}
	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	return host.AnyOf(host.HardCap(opts.hardCap), host.StochasticStop(rng, opts.stopProb))
}

// runDashboard drives the loop on its own goroutine while the dashboard owns
// the terminal. Quitting the dashboard cancels the run.
func runDashboard(ctx context.Context, loop *host.Loop, opts options) (host.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	feed := render.NewFeed(256)
	loop.Observers = append(loop.Observers, feed)

	type result struct {
		sum host.Summary
		err error
	}
	done := make(chan result, 1)
	go func() {
		sum, err := loop.Run(ctx)
		feed.Close()
		done <- result{sum, err}
	}()

	model := render.NewModel(feed, opts.ascii, opts.encoded, false)
	if _, err := render.Run(model, tea.WithAltScreen(), tea.WithContext(ctx)); err != nil && ctx.Err() == nil {
		log.Printf("%v", err)
	}
	cancel()
	res := <-done
	if dropped := feed.Dropped(); dropped > 0 {
		log.Printf("dashboard: skipped %d records while redrawing", dropped)
	}
	return res.sum, res.err
}

// #endregion run-modes

// #region sinks

func openSinks(ctx context.Context, opts options, cfg engine.Config) ([]telemetry.Sink, *store.Store, string, func(), error) {
	var sinks []telemetry.Sink
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) ([]telemetry.Sink, *store.Store, string, func(), error) {
		for _, s := range sinks {
			s.Close()
		}
		cleanup()
		return nil, nil, "", func() {}, err
	}

	if opts.udp != "" {
		target, err := telemetry.ParseUDPTarget(opts.udp)
		if err != nil {
			return fail(err)
		}
		udp, err := telemetry.NewUDPSink(target)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, udp)
		log.Printf("telemetry: udp -> %s", target)
	}

	if opts.ws != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		ws, err := telemetry.DialWebSocket(dialCtx, opts.ws)
		cancel()
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, ws)
		log.Printf("telemetry: websocket -> %s", opts.ws)
	}

	if opts.grpcAddr != "" {
		lis, err := net.Listen("tcp", opts.grpcAddr)
		if err != nil {
			return fail(fmt.Errorf("grpc listen %s: %w", opts.grpcAddr, err))
		}
		srv := telemetry.NewStreamServer(256)
		go func() {
			if err := srv.Serve(lis); err != nil {
				log.Printf("telemetry: %v", err)
			}
		}()
		sinks = append(sinks, srv)
		log.Printf("telemetry: grpc Subscribe on %s", lis.Addr())
	}

	var runStore *store.Store
	var runID string
	if opts.dbPath != "" {
		s, err := store.NewStore(opts.dbPath)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { s.Close() })
		cfgJSON, err := json.Marshal(cfg)
		if err != nil {
			return fail(fmt.Errorf("marshal config: %w", err))
		}
		run, err := s.CreateRun(string(cfgJSON))
		if err != nil {
			return fail(err)
		}
		runStore, runID = s, run.ID
		sinks = append(sinks, s.NewRunSink(run.ID))
		log.Printf("store: run %s -> %s", run.ID, opts.dbPath)
	}

	return sinks, runStore, runID, cleanup, nil
}

// #endregion sinks

// #region phase-csv

func writePhaseCSV(path string, harmonics []float64, window int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := analysis.WriteCSV(f, analysis.PhaseError(harmonics, window)); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// #endregion phase-csv

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(envOr(key, "false"))
	return err == nil && v
}

func envUint(key string, fallback uint64) uint64 {
	v, err := strconv.ParseUint(envOr(key, ""), 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(envOr(key, ""), 64)
	if err != nil {
		return fallback
	}
	return v
}
// #endregion helpers
