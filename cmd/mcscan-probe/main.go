// Command mcscan-probe probes one or more Minecraft servers directly,
// without going through the address-space enumerator, and optionally
// records the result the same way the daemon does.
package main

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"sync"
	"time"

	"github.com/spf13/pflag"

	"github.com/kybe236/mc-scanner/internal/store"
	"github.com/kybe236/mc-scanner/pkg/config"
	"github.com/kybe236/mc-scanner/pkg/probe"
)

var opt struct {
	ConfigFile  string
	Connections int
	Timeout     time.Duration
	Save        bool
	Help        bool
}

func init() {
	pflag.StringVarP(&opt.ConfigFile, "config", "c", "", "Path to the mcscand TOML config file (required with --save)")
	pflag.IntVarP(&opt.Connections, "connections", "n", 1, "Number of concurrent probes")
	pflag.DurationVarP(&opt.Timeout, "timeout", "t", 3*time.Second, "Per-connection timeout")
	pflag.BoolVar(&opt.Save, "save", false, "Record a successful probe to the database")
	pflag.BoolVarP(&opt.Help, "help", "h", false, "Show this help text")
}

func main() {
	pflag.Parse()

	if pflag.NArg() < 1 || opt.Help {
		fmt.Printf("usage: %s [options] ip[:port]...\n\noptions:\n%s", os.Args[0], pflag.CommandLine.FlagUsages())
		if opt.Help {
			os.Exit(2)
		}
		os.Exit(0)
	}

	targets, err := parseTargets(pflag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(2)
	}

	var db *store.DB
	if opt.Save {
		cfg, err := config.Load(opt.ConfigFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: load config: %v\n", err)
			os.Exit(2)
		}
		db, err = store.Open(cfg.DBURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: connect to database: %v\n", err)
			os.Exit(2)
		}
		defer db.Close()
	}

	engine := &probe.Engine{Timeout: opt.Timeout}

	queue := make(chan int)
	go func() {
		defer close(queue)
		for i := range targets {
			queue <- i
		}
	}()

	results := make(chan probe.Result)
	var wg sync.WaitGroup
	for n := 0; n < opt.Connections; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				results <- engine.Probe(context.Background(), targets[i])
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var fail bool
	for res := range results {
		if res.Kind != probe.KindSuccess {
			fmt.Fprintf(os.Stderr, "%s: %v\n", res.Addr, res.Err)
			fail = true
			continue
		}
		fmt.Printf("%s: %s\n", res.Addr, res.Payload.Description)
		if db != nil {
			if _, err := db.RecordStatus(context.Background(), res.Addr.Addr(), res.Addr.Port(), res.Payload); err != nil {
				fmt.Fprintf(os.Stderr, "%s: record: %v\n", res.Addr, err)
				fail = true
			}
		}
	}
	if fail {
		os.Exit(1)
	}
}

func parseTargets(args []string) ([]netip.AddrPort, error) {
	targets := make([]netip.AddrPort, len(args))
	for i, a := range args {
		if ap, err := netip.ParseAddrPort(a); err == nil {
			targets[i] = ap
			continue
		}
		addr, err := netip.ParseAddr(a)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", a, err)
		}
		targets[i] = netip.AddrPortFrom(addr, 25565)
	}
	return targets, nil
}
