// Package metrics define los colectores Prometheus del motor de envío.
// Paquete aparte para evitar ciclos de import entre engine y cualquier
// superficie HTTP que exponga /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EmailsEnqueued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mailroom_emails_enqueued_total",
		Help: "Attempts aceptados por Enqueue",
	})

	EmailsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mailroom_emails_sent_total",
		Help: "Attempts finalizados como sent",
	})

	EmailsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailroom_emails_failed_total",
		Help: "Attempts finalizados como failed, por clase de error",
	}, []string{"reason"})

	EmailRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mailroom_email_retries_total",
		Help: "Reintentos de transmisión consumidos",
	})

	EnqueueLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mailroom_enqueue_latency_ms",
		Help:    "Latencia de Enqueue en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
)

// Register registra los colectores en reg (o en el default si es nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		EmailsEnqueued, EmailsSent, EmailsFailed, EmailRetries, EnqueueLatency,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
