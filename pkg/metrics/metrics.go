package metrics

import (
	"net/netip"
	"sync"

	"github.com/VictoriaMetrics/metrics"
)

// Metrics holds every counter, gauge, and histogram the scanner exposes.
// Fields are resolved once via New so hot paths never pay for a map
// lookup or a metric-not-found check, and so every metric still appears
// in scrape output at zero instead of being absent until first use.
type Metrics struct {
	set *metrics.Set

	once sync.Once

	ProbesAttemptedTotal *metrics.Counter
	ProbesResultTotal    struct {
		success          *metrics.Counter
		connect_timeout  *metrics.Counter
		connect_refused  *metrics.Counter
		write_failed     *metrics.Counter
		short_read       *metrics.Counter
		malformed_varint *metrics.Counter
		frame_too_large  *metrics.Counter
		invalid_utf8     *metrics.Counter
		json_parse_error *metrics.Counter
		blacklisted      *metrics.Counter
		other_error      *metrics.Counter
	}
	ProbesInFlight   *metrics.Gauge
	ProbeLatencyMS   *metrics.Histogram
	FanoutHitsTotal  *metrics.Counter
	FanoutProbesSent *metrics.Counter
	RescanRoundsTotal *metrics.Counter
	RescanTasksTotal  struct {
		success *metrics.Counter
		failed  *metrics.Counter
		panic   *metrics.Counter
	}
	PlayerEventsTotal struct {
		joined *metrics.Counter
		left   *metrics.Counter
	}
	EnumeratorAddressesTotal *metrics.Counter

	// HitsByOctet tracks positive probe results by the responding
	// address's first octet, giving a coarse view of where in the
	// address space live servers are turning up.
	HitsByOctet *OctetCounter
}

// New returns an initialized Metrics registered under set, resolving every
// metric's label permutations exactly once regardless of how many
// goroutines race to call it.
func New(set *metrics.Set) *Metrics {
	m := &Metrics{set: set}
	m.init()
	return m
}

func (m *Metrics) init() {
	m.once.Do(func() {
		m.ProbesAttemptedTotal = m.set.NewCounter(`mcscan_probes_attempted_total`)

		m.ProbesResultTotal.success = m.set.NewCounter(`mcscan_probes_result_total{result="success"}`)
		m.ProbesResultTotal.connect_timeout = m.set.NewCounter(`mcscan_probes_result_total{result="connect_timeout"}`)
		m.ProbesResultTotal.connect_refused = m.set.NewCounter(`mcscan_probes_result_total{result="connect_refused"}`)
		m.ProbesResultTotal.write_failed = m.set.NewCounter(`mcscan_probes_result_total{result="write_failed"}`)
		m.ProbesResultTotal.short_read = m.set.NewCounter(`mcscan_probes_result_total{result="short_read"}`)
		m.ProbesResultTotal.malformed_varint = m.set.NewCounter(`mcscan_probes_result_total{result="malformed_varint"}`)
		m.ProbesResultTotal.frame_too_large = m.set.NewCounter(`mcscan_probes_result_total{result="frame_too_large"}`)
		m.ProbesResultTotal.invalid_utf8 = m.set.NewCounter(`mcscan_probes_result_total{result="invalid_utf8"}`)
		m.ProbesResultTotal.json_parse_error = m.set.NewCounter(`mcscan_probes_result_total{result="json_parse_error"}`)
		m.ProbesResultTotal.blacklisted = m.set.NewCounter(`mcscan_probes_result_total{result="blacklisted"}`)
		m.ProbesResultTotal.other_error = m.set.NewCounter(`mcscan_probes_result_total{result="other_error"}`)

		m.ProbesInFlight = m.set.NewGauge(`mcscan_probes_in_flight`, nil)
		m.ProbeLatencyMS = m.set.NewHistogram(`mcscan_probe_latency_ms`)

		m.FanoutHitsTotal = m.set.NewCounter(`mcscan_fanout_hits_total`)
		m.FanoutProbesSent = m.set.NewCounter(`mcscan_fanout_probes_sent_total`)

		m.RescanRoundsTotal = m.set.NewCounter(`mcscan_rescan_rounds_total`)
		m.RescanTasksTotal.success = m.set.NewCounter(`mcscan_rescan_tasks_total{result="success"}`)
		m.RescanTasksTotal.failed = m.set.NewCounter(`mcscan_rescan_tasks_total{result="failed"}`)
		m.RescanTasksTotal.panic = m.set.NewCounter(`mcscan_rescan_tasks_total{result="panic"}`)

		m.PlayerEventsTotal.joined = m.set.NewCounter(`mcscan_player_events_total{action="joined"}`)
		m.PlayerEventsTotal.left = m.set.NewCounter(`mcscan_player_events_total{action="left"}`)

		m.EnumeratorAddressesTotal = m.set.NewCounter(`mcscan_enumerator_addresses_total`)

		m.HitsByOctet = NewOctetCounter(m.set, `mcscan_hits_by_octet_total`)
	})
}

// ProbeResult is the classification a probe attempt ends in, used to pick
// which mcscan_probes_result_total series to increment.
type ProbeResult int

const (
	ProbeSuccess ProbeResult = iota
	ProbeConnectTimeout
	ProbeConnectRefused
	ProbeWriteFailed
	ProbeShortRead
	ProbeMalformedVarInt
	ProbeFrameTooLarge
	ProbeInvalidUTF8
	ProbeJSONParseError
	ProbeBlacklisted
	ProbeOtherError
)

// ObserveProbe increments the result counter for result and, for attempts
// that reached the network, records latencyMS in the latency histogram.
// addr is the probed address; on ProbeSuccess it also bumps HitsByOctet.
func (m *Metrics) ObserveProbe(result ProbeResult, latencyMS float64, addr netip.Addr) {
	m.ProbesAttemptedTotal.Inc()
	switch result {
	case ProbeSuccess:
		m.ProbesResultTotal.success.Inc()
		m.ProbeLatencyMS.Update(latencyMS)
		if addr.IsValid() {
			m.HitsByOctet.Inc(addr)
		}
	case ProbeConnectTimeout:
		m.ProbesResultTotal.connect_timeout.Inc()
	case ProbeConnectRefused:
		m.ProbesResultTotal.connect_refused.Inc()
	case ProbeWriteFailed:
		m.ProbesResultTotal.write_failed.Inc()
		m.ProbeLatencyMS.Update(latencyMS)
	case ProbeShortRead:
		m.ProbesResultTotal.short_read.Inc()
		m.ProbeLatencyMS.Update(latencyMS)
	case ProbeMalformedVarInt:
		m.ProbesResultTotal.malformed_varint.Inc()
		m.ProbeLatencyMS.Update(latencyMS)
	case ProbeFrameTooLarge:
		m.ProbesResultTotal.frame_too_large.Inc()
		m.ProbeLatencyMS.Update(latencyMS)
	case ProbeInvalidUTF8:
		m.ProbesResultTotal.invalid_utf8.Inc()
		m.ProbeLatencyMS.Update(latencyMS)
	case ProbeJSONParseError:
		m.ProbesResultTotal.json_parse_error.Inc()
		m.ProbeLatencyMS.Update(latencyMS)
	case ProbeBlacklisted:
		m.ProbesResultTotal.blacklisted.Inc()
	default:
		m.ProbesResultTotal.other_error.Inc()
	}
}

// ObservePlayerEvent increments the joined or left counter.
func (m *Metrics) ObservePlayerEvent(joined bool) {
	if joined {
		m.PlayerEventsTotal.joined.Inc()
	} else {
		m.PlayerEventsTotal.left.Inc()
	}
}

// ObserveRescanTask increments the rescan task outcome matching err and
// panicked.
func (m *Metrics) ObserveRescanTask(err error, panicked bool) {
	switch {
	case panicked:
		m.RescanTasksTotal.panic.Inc()
	case err != nil:
		m.RescanTasksTotal.failed.Inc()
	default:
		m.RescanTasksTotal.success.Inc()
	}
}
