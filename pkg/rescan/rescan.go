// Package rescan periodically re-probes already-known servers to detect
// liveness and player churn, independent of the address-space enumerator.
package rescan

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/kybe236/mc-scanner/internal/store"
	"github.com/kybe236/mc-scanner/pkg/blacklist"
	"github.com/kybe236/mc-scanner/pkg/metrics"
	"github.com/kybe236/mc-scanner/pkg/probe"
)

// DefaultInterval is how long the rescanner sleeps between rounds when
// Interval is unset.
const DefaultInterval = 60 * time.Second

// Rescanner re-lists known servers and re-probes them on a fixed interval,
// spreading the list across a fixed number of concurrent workers the way
// the scanner's ISP-scan subnet sweep spreads neighbor addresses across a
// semaphore.
type Rescanner struct {
	DB        *store.DB
	Engine    *probe.Engine
	Blacklist *blacklist.Blacklist
	Metrics   *metrics.Metrics

	// Workers is the number of concurrent chunks the server list is split
	// across each round; it bounds concurrency, not a sleep duration.
	Workers int

	// Interval is how long to sleep between rounds. Defaults to
	// DefaultInterval.
	Interval time.Duration
}

// Run loops until ctx is canceled, fetching the known server list, chunking
// it across r.Workers goroutines, and re-probing each target through the
// same probe engine the fresh scanner uses. A panic in a single target's
// handling is isolated and counted, not propagated.
func (r *Rescanner) Run(ctx context.Context) error {
	if r.Workers <= 0 {
		return nil
	}
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.runRound(ctx)
		if r.Metrics != nil {
			r.Metrics.RescanRoundsTotal.Inc()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (r *Rescanner) runRound(ctx context.Context) {
	keys, err := r.DB.ListServerKeys(ctx)
	if err != nil {
		return
	}

	targets := filterTargets(keys, r.Blacklist)
	if len(targets) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, chunk := range chunkTargets(targets, r.Workers) {
		wg.Add(1)
		go func(chunk []netip.AddrPort) {
			defer wg.Done()
			for _, addr := range chunk {
				r.rescanOne(ctx, addr)
			}
		}(chunk)
	}
	wg.Wait()
}

// filterTargets parses each "ip:port" key, tolerantly defaulting the port,
// dropping unparseable and blacklisted entries.
func filterTargets(keys []string, bl *blacklist.Blacklist) []netip.AddrPort {
	targets := make([]netip.AddrPort, 0, len(keys))
	for _, key := range keys {
		addr, port, ok := store.ParseAddrPortKey(key)
		if !ok {
			continue
		}
		if bl != nil && bl.Contains(addr) {
			continue
		}
		targets = append(targets, netip.AddrPortFrom(addr, port))
	}
	return targets
}

// chunkTargets splits targets into at most workers roughly-equal
// contiguous chunks, the same div_ceil chunking the rescanner this package
// is grounded on uses to spread a server list across a fixed worker count.
func chunkTargets(targets []netip.AddrPort, workers int) [][]netip.AddrPort {
	if workers < 1 {
		workers = 1
	}
	chunkSize := (len(targets) + workers - 1) / workers
	if chunkSize < 1 {
		chunkSize = 1
	}

	var chunks [][]netip.AddrPort
	for start := 0; start < len(targets); start += chunkSize {
		end := start + chunkSize
		if end > len(targets) {
			end = len(targets)
		}
		chunks = append(chunks, targets[start:end])
	}
	return chunks
}

func (r *Rescanner) rescanOne(ctx context.Context, addr netip.AddrPort) {
	var panicked bool
	var taskErr error
	defer func() {
		if rec := recover(); rec != nil {
			panicked = true
			taskErr = fmt.Errorf("rescan: panic: %v", rec)
		}
		if r.Metrics != nil {
			r.Metrics.ObserveRescanTask(taskErr, panicked)
		}
	}()

	// Bound the probe and the persist together by twice the per-connection
	// timeout.
	ctx, cancel := context.WithTimeout(ctx, 2*r.Engine.Timeout)
	defer cancel()

	res := r.Engine.Probe(ctx, addr)
	if res.Kind != probe.KindSuccess {
		taskErr = res.Err
		return
	}

	if _, err := r.DB.RecordStatus(ctx, addr.Addr(), addr.Port(), res.Payload); err != nil {
		taskErr = err
	}
}
