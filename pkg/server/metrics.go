package server

import (
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/clintecker/hector/pkg/session"
)

const namespace = "hector"

// Metrics tracks server runtime statistics on a private Prometheus registry.
type Metrics struct {
	startTime time.Time
	registry  *prometheus.Registry

	connectionsTotal  prometheus.Counter
	connectionsActive prometheus.Gauge
	registrations     prometheus.Counter
	authFailures      prometheus.Counter
	pingTimeouts      prometheus.Counter
	messagesRelayed   prometheus.Counter
	commands          *prometheus.CounterVec
	commandErrors     *prometheus.CounterVec

	sessions func() int
	channels func() int
}

// NewMetrics creates the collectors. sessions and channels report the
// current registry sizes.
func NewMetrics(sessions, channels func() int) *Metrics {
	m := &Metrics{
		startTime: time.Now(),
		registry:  prometheus.NewRegistry(),
		sessions:  sessions,
		channels:  channels,

		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "connections_total",
			Help: "Lifetime TCP connections accepted.",
		}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "connections_active",
			Help: "Current open connections, registered or not.",
		}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "registrations_total",
			Help: "Connections that completed registration.",
		}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "auth_failures_total",
			Help: "Failed PASS/USER authentications.",
		}),
		pingTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "ping_timeouts_total",
			Help: "Sessions closed for not answering PING.",
		}),
		messagesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "messages_relayed_total",
			Help: "PRIVMSG and NOTICE deliveries.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "commands_total",
			Help: "Dispatched commands by name.",
		}, []string{"command"}),
		commandErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "command_errors_total",
			Help: "Commands whose capability returned an error.",
		}, []string{"command"}),
	}

	m.registry.MustRegister(
		m.connectionsTotal,
		m.connectionsActive,
		m.registrations,
		m.authFailures,
		m.pingTimeouts,
		m.messagesRelayed,
		m.commands,
		m.commandErrors,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "sessions",
			Help: "Registered sessions.",
		}, func() float64 { return float64(m.sessions()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "channels",
			Help: "Channels with at least one member.",
		}, func() float64 { return float64(m.channels()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "uptime_seconds",
			Help: "Server uptime in seconds.",
		}, func() float64 { return time.Since(m.startTime).Seconds() }),
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the Prometheus registry backing /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Instrument wraps every capability so dispatches and failures are counted.
func (m *Metrics) Instrument(cmds session.Commands) session.Commands {
	out := make(session.Commands, len(cmds))
	for name, capability := range cmds {
		count := m.commands.WithLabelValues(name)
		failed := m.commandErrors.WithLabelValues(name)
		out[name] = func(sess *session.Session) error {
			count.Inc()
			err := capability(sess)
			if err != nil && !isProtocolError(err) {
				failed.Inc()
			}
			return err
		}
	}
	return out
}

func isProtocolError(err error) bool {
	var nameErr *session.NameError
	return errors.As(err, &nameErr)
}

// LogSummary writes a metrics summary to the logger.
func (m *Metrics) LogSummary(logger *slog.Logger) {
	logger.Info("metrics",
		"uptime", time.Since(m.startTime).Truncate(time.Second).String(),
		"sessions", m.sessions(),
		"channels", m.channels(),
	)
}

// StartPeriodicLog logs a summary every interval until done is closed.
func (m *Metrics) StartPeriodicLog(logger *slog.Logger, interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m.LogSummary(logger)
			}
		}
	}()
}
