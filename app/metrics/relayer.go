package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Relayer holds the counters of an in-process relayer. Every counter is
// labelled with the origin and destination domain of the message.
type Relayer struct {
	Dispatched *prometheus.CounterVec
	Delivered  *prometheus.CounterVec
	Failed     *prometheus.CounterVec
	Pending    prometheus.Gauge
}

// NewRelayer creates the relayer metrics and registers them with reg. A nil
// reg leaves them unregistered.
func NewRelayer(reg prometheus.Registerer) (*Relayer, error) {
	labels := []string{"origin", "destination"}
	m := &Relayer{
		Dispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hyperlane_messages_dispatched_total",
				Help: "Messages indexed from origin mailboxes",
			},
			labels,
		),
		Delivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hyperlane_messages_delivered_total",
				Help: "Messages processed by destination mailboxes",
			},
			labels,
		),
		Failed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hyperlane_messages_failed_total",
				Help: "Messages the relayer gave up on",
			},
			labels,
		),
		Pending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hyperlane_messages_pending",
				Help: "Messages indexed but not yet delivered",
			},
		),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Dispatched, m.Delivered, m.Failed, m.Pending} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Labels formats a route as metric label values.
func Labels(origin, destination uint32) []string {
	return []string{fmt.Sprint(origin), fmt.Sprint(destination)}
}
