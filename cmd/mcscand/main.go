// Command mcscand runs the Minecraft server discovery pipeline: it
// enumerates the IPv4 address space, probes candidates for a Minecraft
// status response, records hits and player churn in Postgres, and
// periodically re-probes already-known servers.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"syscall"
	"time"

	vmetrics "github.com/VictoriaMetrics/metrics"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/kybe236/mc-scanner/internal/store"
	"github.com/kybe236/mc-scanner/pkg/addrspace"
	"github.com/kybe236/mc-scanner/pkg/blacklist"
	"github.com/kybe236/mc-scanner/pkg/config"
	"github.com/kybe236/mc-scanner/pkg/metrics"
	"github.com/kybe236/mc-scanner/pkg/probe"
	"github.com/kybe236/mc-scanner/pkg/rescan"
)

var opt struct {
	ConfigFile string
	Help       bool
}

func init() {
	pflag.StringVarP(&opt.ConfigFile, "config", "c", "", "Path to the mcscand TOML config file")
	pflag.BoolVarP(&opt.Help, "help", "h", false, "Show this help text")
}

func main() {
	pflag.Parse()
	if opt.Help {
		fmt.Printf("usage: %s [options]\n\noptions:\n%s", os.Args[0], pflag.CommandLine.FlagUsages())
		os.Exit(2)
	}

	cfg, err := config.Load(opt.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		os.Exit(1)
	}

	logger := configureLogging(cfg)

	bl, err := blacklist.Load(cfg.BlacklistFile)
	if err != nil {
		logger.Fatal().Err(err).Str("file", cfg.BlacklistFile).Msg("load blacklist")
	}
	logger.Info().Int("entries", len(bl.Entries())).Msg("loaded blacklist")

	db, err := store.Open(cfg.DBURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to database")
	}
	defer db.Close()

	mset := vmetrics.NewSet()
	m := metrics.New(mset)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
			mset.WritePrometheus(w)
		})
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("starting metrics server")
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	engine := &probe.Engine{
		WorkerCount: cfg.WorkerCount,
		Timeout:     time.Duration(cfg.TimeoutMS) * time.Millisecond,
		Blacklist:   bl,
		Metrics:     m,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.WorkerRecheckCount > 0 {
		rs := &rescan.Rescanner{
			DB:        db,
			Engine:    engine,
			Blacklist: bl,
			Metrics:   m,
			Workers:   cfg.WorkerRecheckCount,
			Interval:  rescanInterval(cfg),
		}
		go func() {
			if err := rs.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("rescanner stopped")
			}
		}()
	}

	if cfg.WorkerCount > 0 {
		runScanner(ctx, logger, db, engine, bl, m, cfg)
	}

	<-ctx.Done()
	logger.Info().Msg("shutting down")
}

// rescanInterval returns the sleep between rescan rounds; the config
// surface doesn't carry a dedicated key for it (only worker_recheck, the
// parallelism), so this follows spec's documented default of 60s.
func rescanInterval(cfg config.Config) time.Duration {
	return rescan.DefaultInterval
}

func runScanner(ctx context.Context, logger zerolog.Logger, db *store.DB, engine *probe.Engine, bl *blacklist.Blacklist, m *metrics.Metrics, cfg config.Config) {
	addrs := make(chan netip.Addr, cfg.WorkerCount*100)
	targets := make(chan netip.AddrPort, cfg.WorkerCount*100)
	results := make(chan probe.Result, cfg.WorkerCount)

	enumerator := addrspace.Enumerator{
		Seed:      randomSeed(),
		Rounds:    addrspace.DefaultRounds,
		Blacklist: bl,
		Start:     0,
		End:       1 << 32,
	}

	go func() {
		defer close(addrs)
		if err := enumerator.Run(ctx, addrs); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("enumerator stopped")
		}
	}()

	go func() {
		defer close(targets)
		for addr := range addrs {
			m.EnumeratorAddressesTotal.Inc()
			select {
			case targets <- netip.AddrPortFrom(addr, 25565):
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		defer close(results)
		engine.Run(ctx, targets, results)
	}()

	fanoutCfg := probe.FanOutConfig{
		MaxConcurrent:    32,
		SubnetPrefix:     cfg.ISPScanSubnet,
		ExtendedPortScan: cfg.ExtendedPortScan,
	}

	for res := range results {
		handleResult(ctx, logger, db, engine, m, cfg, fanoutCfg, res)
	}
}

func handleResult(ctx context.Context, logger zerolog.Logger, db *store.DB, engine *probe.Engine, m *metrics.Metrics, cfg config.Config, fanoutCfg probe.FanOutConfig, res probe.Result) {
	if res.Kind == probe.KindJSONParseError {
		logger.Warn().Str("addr", res.Addr.String()).Msg("JsonError")
		return
	}
	if res.Kind != probe.KindSuccess {
		return
	}
	logger.Info().Str("addr", res.Addr.String()).Msg("got status response")

	events, err := db.RecordStatus(ctx, res.Addr.Addr(), res.Addr.Port(), res.Payload)
	if err != nil {
		logger.Error().Err(err).Str("addr", res.Addr.String()).Msg("record status")
		return
	}
	for _, ev := range events {
		m.ObservePlayerEvent(ev.Action == store.ActionJoined)
	}

	if cfg.EnableISPScan {
		m.FanoutHitsTotal.Inc()
		go func() {
			if err := engine.FanOut(ctx, res.Addr, fanoutCfg, func(r probe.Result) {
				m.FanoutProbesSent.Inc()
				if r.Kind != probe.KindSuccess {
					return
				}
				if _, err := db.RecordStatus(ctx, r.Addr.Addr(), r.Addr.Port(), r.Payload); err != nil {
					logger.Error().Err(err).Str("addr", r.Addr.String()).Msg("record fan-out status")
				}
			}); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Str("addr", res.Addr.String()).Msg("fan-out")
			}
		}()
	}
}

func randomSeed() uint64 {
	return rand.Uint64()
}

func configureLogging(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var w zerolog.ConsoleWriter
	var logger zerolog.Logger
	if cfg.LogStdout {
		if cfg.LogStdoutPretty {
			w = zerolog.ConsoleWriter{Out: os.Stdout}
			logger = zerolog.New(w)
		} else {
			logger = zerolog.New(os.Stdout)
		}
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
