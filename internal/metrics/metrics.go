package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Set owns the daemon's Prometheus registry and the wallet counters served
// on /metrics. Counters carry no origin labels; origins are browsing
// history and stay out of the metrics surface entirely.
type Set struct {
	registry *prometheus.Registry

	RPCRequests    *prometheus.CounterVec
	GateViolations *prometheus.CounterVec
	Logins         prometheus.Counter
	Signatures     prometheus.Counter
	LinksCreated   prometheus.Counter
	Unlinks        prometheus.Counter
	Transfers      prometheus.Counter
	Confirmations  *prometheus.CounterVec
}

func New() *Set {
	s := &Set{
		registry: prometheus.NewRegistry(),
		RPCRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maskwallet_rpc_requests_total",
			Help: "RPC requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GateViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maskwallet_gate_violations_total",
			Help: "Access gate violations by kind.",
		}, []string{"kind"}),
		Logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maskwallet_logins_total",
			Help: "Successful session logins.",
		}),
		Signatures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maskwallet_signatures_total",
			Help: "Request signatures produced.",
		}),
		LinksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maskwallet_links_created_total",
			Help: "Origin links created.",
		}),
		Unlinks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maskwallet_unlinks_total",
			Help: "Origin link removals.",
		}),
		Transfers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maskwallet_transfers_total",
			Help: "Asset transfers submitted to the agent.",
		}),
		Confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maskwallet_confirmations_total",
			Help: "User confirmation prompts by outcome.",
		}, []string{"outcome"}),
	}
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		s.RPCRequests,
		s.GateViolations,
		s.Logins,
		s.Signatures,
		s.LinksCreated,
		s.Unlinks,
		s.Transfers,
		s.Confirmations,
	)
	return s
}

func (s *Set) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
