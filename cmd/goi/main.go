package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"goi/internal/export"
	"goi/internal/persistence/runs"
	"goi/internal/sims/factions"
	"goi/internal/termview"
	"goi/internal/transport/observer"
)

type options struct {
	scenario string

	rows, cols     int
	factions       int
	density, scale float64
	seed           int64
	every, radius  int

	generations int
	threads     int
	sequential  bool

	print  bool
	export string
	watch  bool
	tps    int
	serve  string
	db     string
	label  string

	verbose bool
}

func main() {
	var o options
	flag.StringVar(&o.scenario, "scenario", "", "YAML or JSON scenario file (random world when empty)")
	flag.IntVar(&o.rows, "rows", 64, "rows of a random world")
	flag.IntVar(&o.cols, "cols", 64, "columns of a random world")
	flag.IntVar(&o.factions, "factions", 4, "factions in a random world (1-9)")
	flag.Float64Var(&o.density, "density", 0.35, "probability a random cell starts alive")
	flag.Float64Var(&o.scale, "scale", 12, "territory size of a random world")
	flag.Int64Var(&o.seed, "seed", 1, "random world seed")
	flag.IntVar(&o.every, "invasion-every", 25, "random invasion interval in generations (0 disables)")
	flag.IntVar(&o.radius, "invasion-radius", 4, "random invasion radius")
	flag.IntVar(&o.generations, "generations", 100, "generations to simulate")
	flag.IntVar(&o.threads, "threads", runtime.NumCPU(), "worker goroutines")
	flag.BoolVar(&o.sequential, "sequential", false, "evaluate on a single goroutine")
	flag.BoolVar(&o.print, "print", false, "print every generation to stdout")
	flag.StringVar(&o.export, "export", "", "write zstd-compressed JSONL frames to this file")
	flag.BoolVar(&o.watch, "watch", false, "show generations in the terminal")
	flag.IntVar(&o.tps, "tps", 15, "generations per second while watching")
	flag.StringVar(&o.serve, "serve", "", "stream frames over WebSocket at this address (e.g. :8080)")
	flag.StringVar(&o.db, "db", "", "record the run in this SQLite ledger")
	flag.StringVar(&o.label, "label", "", "label stored with the run")
	flag.BoolVar(&o.verbose, "v", false, "verbose logging")
	flag.Parse()

	logger, err := newLogger(o.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	res, in, err := run(ctx, o, explicit, logger)
	if errors.Is(err, termview.ErrQuit) {
		logger.Info("stopped from viewer")
		return
	}
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		stop()
		os.Exit(1)
	}

	fmt.Printf("Death toll: %s over %s generations on a %dx%d world (%s)\n",
		humanize.Comma(int64(res.DeathToll)), humanize.Comma(int64(res.Generations)),
		in.Start.Rows, in.Start.Cols, res.Elapsed.Round(time.Millisecond))

	if o.db != "" {
		if err := record(ctx, o, in, res); err != nil {
			logger.Error("record run", zap.Error(err))
			stop()
			os.Exit(1)
		}
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func loadInput(o options, explicit map[string]bool) (factions.Input, error) {
	if o.scenario == "" {
		cfg := factions.GenConfig{
			Rows:     o.rows,
			Cols:     o.cols,
			Factions: o.factions,
			Density:  o.density,
			Scale:    o.scale,
			Seed:     o.seed,
		}
		return factions.RandomInput(cfg, o.generations, o.every, o.radius, o.threads), nil
	}
	sc, err := factions.LoadScenario(o.scenario)
	if err != nil {
		return factions.Input{}, err
	}
	in, err := sc.Input()
	if err != nil {
		return factions.Input{}, fmt.Errorf("%s: %w", o.scenario, err)
	}
	if explicit["threads"] || sc.Threads == 0 {
		in.Threads = o.threads
	}
	if explicit["generations"] {
		in.Generations = o.generations
	}
	return in, nil
}

func run(ctx context.Context, o options, explicit map[string]bool, logger *zap.Logger) (factions.Result, factions.Input, error) {
	in, err := loadInput(o, explicit)
	if err != nil {
		return factions.Result{}, in, err
	}

	var sinks []factions.SnapshotSink
	if o.print {
		sinks = append(sinks, export.NewTextSink(os.Stdout))
	}
	if o.export != "" {
		fw, err := export.CreateFrames(o.export)
		if err != nil {
			return factions.Result{}, in, err
		}
		defer func() {
			if err := fw.Close(); err != nil {
				logger.Error("close frames", zap.Error(err))
			}
		}()
		sinks = append(sinks, fw)
	}
	if o.serve != "" {
		srv, err := serve(o.serve, logger)
		if err != nil {
			return factions.Result{}, in, err
		}
		defer srv.shutdown()
		sinks = append(sinks, srv.obs)
	}
	if o.watch {
		v, err := termview.Open(o.tps)
		if err != nil {
			return factions.Result{}, in, err
		}
		defer v.Close()
		sinks = append(sinks, v)
	}

	strategy := factions.Parallel
	if o.sequential {
		strategy = factions.Sequential
	}
	res, err := factions.Simulate(ctx, in,
		factions.WithLogger(logger),
		factions.WithStrategy(strategy),
		factions.WithSink(export.Tee(sinks...)),
	)
	return res, in, err
}

type observerServer struct {
	obs  *observer.Server
	http *http.Server
	log  *zap.Logger
}

func serve(addr string, logger *zap.Logger) (*observerServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	obs := observer.NewServer(observer.DefaultConfig(), logger)
	mux := http.NewServeMux()
	mux.Handle("/ws", obs.Handler())
	s := &observerServer{obs: obs, http: &http.Server{Handler: mux}, log: logger}
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("observer server", zap.Error(err))
		}
	}()
	logger.Info("streaming frames", zap.String("url", "ws://"+ln.Addr().String()+"/ws"))
	return s, nil
}

func (s *observerServer) shutdown() {
	s.obs.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		s.log.Warn("observer shutdown", zap.Error(err))
	}
}

func record(ctx context.Context, o options, in factions.Input, res factions.Result) error {
	db, err := runs.Open(o.db)
	if err != nil {
		return err
	}
	defer db.Close()

	strategy := factions.Parallel
	if o.sequential {
		strategy = factions.Sequential
	}
	label := o.label
	if label == "" {
		label = o.scenario
	}
	_, err = db.Insert(ctx, runs.Record{
		Label:       label,
		Rows:        in.Start.Rows,
		Cols:        in.Start.Cols,
		Generations: res.Generations,
		Threads:     in.Threads,
		Strategy:    strategy.String(),
		DeathToll:   res.DeathToll,
		Digest:      factions.Digest(res.Final),
		ElapsedMS:   res.Elapsed.Milliseconds(),
	})
	return err
}
