// Package probe runs the TCP status probe against candidate addresses and
// classifies the outcome.
package probe

import (
	"context"
	"errors"
	"io"
	"net"
	"net/netip"
	"syscall"
	"time"

	"github.com/kybe236/mc-scanner/internal/store"
	"github.com/kybe236/mc-scanner/pkg/blacklist"
	"github.com/kybe236/mc-scanner/pkg/mcstatus"
	"github.com/kybe236/mc-scanner/pkg/metrics"
)

// Kind classifies how a probe attempt ended.
type Kind int

const (
	KindSuccess Kind = iota
	KindBlacklisted
	KindConnectTimeout
	KindConnectRefused
	KindWriteFailed
	KindShortRead
	KindMalformedVarInt
	KindFrameTooLarge
	KindInvalidUTF8
	KindJSONParseError
	KindOther
)

// ErrInvalidStatusJSON is the Result.Err set when a server's status
// response isn't parseable JSON at all.
var ErrInvalidStatusJSON = errors.New("probe: invalid status json")

// Result is the outcome of one probe attempt.
type Result struct {
	Addr    netip.AddrPort
	Kind    Kind
	Err     error
	Latency time.Duration
	RawJSON string
	Payload store.StatusPayload
}

// Engine runs probes against a stream of candidate addresses using a fixed
// pool of workers.
type Engine struct {
	WorkerCount  int
	Timeout      time.Duration
	MaxFrameSize int
	Blacklist    *blacklist.Blacklist
	Metrics      *metrics.Metrics
}

// Run starts e.WorkerCount goroutines, each pulling addresses off addrs
// (skipping those in Blacklist without touching the network) and probing
// them with a Minecraft status handshake, writing one Result per address
// to results until addrs is closed or ctx is canceled. Run blocks until
// every worker has exited.
func (e *Engine) Run(ctx context.Context, addrs <-chan netip.AddrPort, results chan<- Result) {
	workers := e.WorkerCount
	if workers < 1 {
		workers = 1
	}

	done := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for {
				select {
				case <-ctx.Done():
					return
				case addr, ok := <-addrs:
					if !ok {
						return
					}
					results <- e.Probe(ctx, addr)
				}
			}
		}()
	}
	for i := 0; i < workers; i++ {
		<-done
	}
}

// Probe performs a single status probe against addr. The overall
// operation, including any DNS-free TCP handshake retries the underlying
// dialer performs, is bounded by 2x e.Timeout; the connect-and-exchange
// itself is bounded by e.Timeout.
func (e *Engine) Probe(ctx context.Context, addr netip.AddrPort) Result {
	start := time.Now()

	if e.Blacklist != nil && e.Blacklist.Contains(addr.Addr()) {
		return e.finish(Result{Addr: addr, Kind: KindBlacklisted}, start)
	}

	globalCtx, cancel := context.WithTimeout(ctx, 2*e.Timeout)
	defer cancel()

	perAttemptCtx, cancel2 := context.WithTimeout(globalCtx, e.Timeout)
	defer cancel2()

	raw, err := mcstatus.Ping(perAttemptCtx, addr, e.maxFrameSize())
	if err != nil {
		return e.finish(Result{Addr: addr, Kind: classify(err), Err: err}, start)
	}

	payload, ok := store.ParseStatusJSON(raw)
	if !ok {
		return e.finish(Result{Addr: addr, Kind: KindJSONParseError, Err: ErrInvalidStatusJSON, RawJSON: raw}, start)
	}
	return e.finish(Result{Addr: addr, Kind: KindSuccess, RawJSON: raw, Payload: payload}, start)
}

func (e *Engine) maxFrameSize() int {
	if e.MaxFrameSize > 0 {
		return e.MaxFrameSize
	}
	return mcstatus.DefaultMaxFrameSize
}

func (e *Engine) finish(r Result, start time.Time) Result {
	r.Latency = time.Since(start)
	if e.Metrics != nil {
		e.Metrics.ObserveProbe(toMetricsResult(r.Kind), float64(r.Latency.Milliseconds()), r.Addr.Addr())
	}
	return r
}

func toMetricsResult(k Kind) metrics.ProbeResult {
	switch k {
	case KindSuccess:
		return metrics.ProbeSuccess
	case KindBlacklisted:
		return metrics.ProbeBlacklisted
	case KindConnectTimeout:
		return metrics.ProbeConnectTimeout
	case KindConnectRefused:
		return metrics.ProbeConnectRefused
	case KindWriteFailed:
		return metrics.ProbeWriteFailed
	case KindShortRead:
		return metrics.ProbeShortRead
	case KindMalformedVarInt:
		return metrics.ProbeMalformedVarInt
	case KindFrameTooLarge:
		return metrics.ProbeFrameTooLarge
	case KindInvalidUTF8:
		return metrics.ProbeInvalidUTF8
	case KindJSONParseError:
		return metrics.ProbeJSONParseError
	default:
		return metrics.ProbeOtherError
	}
}

// classify maps an error from mcstatus.Ping to the Kind a metric or a
// server-behavior report should record it as.
func classify(err error) Kind {
	switch {
	case errors.Is(err, mcstatus.ErrMalformedVarInt):
		return KindMalformedVarInt
	case errors.Is(err, mcstatus.ErrStringTooLong):
		return KindMalformedVarInt
	case errors.Is(err, mcstatus.ErrFrameTooLarge):
		return KindFrameTooLarge
	case errors.Is(err, mcstatus.ErrInvalidUTF8):
		return KindInvalidUTF8
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return KindShortRead
	case errors.Is(err, syscall.ECONNREFUSED):
		return KindConnectRefused
	case errors.Is(err, context.DeadlineExceeded):
		return KindConnectTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindConnectTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "write" {
		return KindWriteFailed
	}

	return KindOther
}
