package client

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nilswloka/overtone/internal/alloc"
)

// metrics holds the client's prometheus collectors. A nil *metrics is valid
// and makes every method a no-op, which is how the disabled path works.
type metrics struct {
	sent          *prometheus.CounterVec
	received      *prometheus.CounterVec
	replyTimeouts *prometheus.CounterVec
	idsInUse      *prometheus.GaugeVec
}

func newCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "overtone",
			Subsystem: "client",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		sent:          newCounterVec("messages_sent_total", "Outbound OSC messages by address.", []string{"address"}),
		received:      newCounterVec("messages_received_total", "Inbound OSC messages by address.", []string{"address"}),
		replyTimeouts: newCounterVec("reply_timeouts_total", "Reply waits that exceeded their budget, by topic.", []string{"topic"}),
		idsInUse: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "overtone",
				Subsystem: "client",
				Name:      "ids_in_use",
				Help:      "Allocated identifiers by category.",
			},
			[]string{"category"},
		),
	}

	for _, col := range []prometheus.Collector{m.sent, m.received, m.replyTimeouts, m.idsInUse} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) messageSent(address string) {
	if m == nil {
		return
	}
	m.sent.WithLabelValues(address).Inc()
}

func (m *metrics) messageReceived(address string) {
	if m == nil {
		return
	}
	m.received.WithLabelValues(address).Inc()
}

func (m *metrics) replyTimedOut(topic string) {
	if m == nil {
		return
	}
	m.replyTimeouts.WithLabelValues(topic).Inc()
}

func (m *metrics) setIDsInUse(a *alloc.Allocator) {
	if m == nil {
		return
	}
	for _, cat := range alloc.Categories() {
		m.idsInUse.WithLabelValues(string(cat)).Set(float64(a.InUse(cat)))
	}
}
