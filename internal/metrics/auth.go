package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Auth-related Prometheus metrics. Standalone package to avoid import cycles
// between the auth core and the HTTP layer.

var (
	AuthDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gatehouse_auth_decisions_total",
		Help: "Dispatcher decisions by outcome",
	}, []string{"outcome"}) // outcome: allow|denied_origin|denied_credentials|denied_scope

	Logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gatehouse_logins_total",
		Help: "Interactive login attempts by result",
	}, []string{"result"}) // result: ok|bad_credentials

	StateFlushes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gatehouse_state_flushes_total",
		Help: "Durable state writes by result",
	}, []string{"result"}) // result: ok|error

	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gatehouse_active_sessions",
		Help: "Live (non-expired) session tokens",
	})
)

// Register registers the auth metrics on the given registry (or the default
// registerer if nil). Double registration is tolerated.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{AuthDecisions, Logins, StateFlushes, ActiveSessions} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
