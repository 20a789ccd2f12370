// Package metrics contadores de la corrida en un registro Prometheus propio.
// Al ser un job de una sola ejecución no expone /metrics: vuelca el registro en
// formato textfile para el textfile collector de node_exporter.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder métricas de una corrida.
type Recorder struct {
	reg       *prometheus.Registry
	documents *prometheus.CounterVec
	written   *prometheus.CounterVec
	failed    *prometheus.CounterVec
	duration  prometheus.Gauge
	lastRun   prometheus.Gauge
}

// NewRecorder crea el registro y sus métricas.
func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ncingest_documents_total",
			Help: "Documentos procesados por resultado (resolved, duplicate, unresolved o motivo de rechazo)",
		}, []string{"outcome"}),
		written: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ncingest_records_written_total",
			Help: "Notas de crédito escritas en la tabla destino",
		}, []string{"strategy"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ncingest_records_failed_total",
			Help: "Notas de crédito que no se pudieron escribir (enviadas al archivo de derrame)",
		}, []string{"strategy"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ncingest_run_duration_seconds",
			Help: "Duración de la última corrida",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ncingest_last_run_timestamp_seconds",
			Help: "Fin de la última corrida (epoch)",
		}),
	}
	r.reg.MustRegister(r.documents, r.written, r.failed, r.duration, r.lastRun)
	return r
}

// Document cuenta un documento con su resultado.
func (r *Recorder) Document(outcome string) {
	r.documents.WithLabelValues(outcome).Inc()
}

// Written cuenta registros escritos y fallidos de una estrategia.
func (r *Recorder) Written(strategy string, written, failed int) {
	r.written.WithLabelValues(strategy).Add(float64(written))
	r.failed.WithLabelValues(strategy).Add(float64(failed))
}

// Finish registra la duración y la hora de fin.
func (r *Recorder) Finish(d time.Duration, at time.Time) {
	r.duration.Set(d.Seconds())
	r.lastRun.Set(float64(at.Unix()))
}

// WriteTextfile vuelca el registro en path (escritura atómica vía archivo temporal).
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("metrics: textfile %s: %w", path, err)
	}
	return nil
}

// Registry expone el registro (tests).
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}
