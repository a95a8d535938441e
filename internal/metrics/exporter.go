// Package metrics exports turnaround-time summaries in the Prometheus text
// exposition format.
//
// The analyzer is a one-shot tool, so nothing is served: the summaries are
// gathered from a private registry and written once, either to a writer or
// to a node_exporter textfile-collector file.
package metrics

import (
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/stats"
)

// Metric names.
const (
	TurnaroundName    = "elapsed_time_turnaround_microseconds"
	TurnaroundMinName = "elapsed_time_turnaround_min_microseconds"
	TurnaroundMaxName = "elapsed_time_turnaround_max_microseconds"
	InfoName          = "elapsed_time_analyzer_info"
)

// Exporter holds the registry and the turnaround collector.
type Exporter struct {
	registry  *prometheus.Registry
	collector *TurnaroundCollector
	info      *prometheus.GaugeVec
}

// ExporterConfig describes one analyzed log.
type ExporterConfig struct {
	Version   string
	Session   string
	Method    stats.Method
	Summaries []stats.Summary
}

// NewExporter creates an exporter with its own registry.
func NewExporter(cfg ExporterConfig) *Exporter {
	return NewExporterWithRegistry(cfg, prometheus.NewRegistry())
}

// NewExporterWithRegistry creates an exporter on a caller-supplied registry.
// Useful for testing.
func NewExporterWithRegistry(cfg ExporterConfig, registry *prometheus.Registry) *Exporter {
	e := &Exporter{
		registry:  registry,
		collector: NewTurnaroundCollector(cfg.Session, cfg.Summaries),
		info: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: InfoName,
				Help: "Information about the analyzed log (value always 1)",
			},
			[]string{"version", "session", "method"},
		),
	}

	method := cfg.Method
	if method == "" {
		method = stats.MethodExact
	}
	e.info.WithLabelValues(cfg.Version, cfg.Session, string(method)).Set(1)

	registry.MustRegister(e.info, e.collector)
	return e
}

// Registry returns the exporter's registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Write gathers every metric and encodes it as Prometheus text.
func (e *Exporter) Write(w io.Writer) error {
	families, err := e.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteFile writes the metrics to path through a temporary file and a
// rename, so textfile collectors never read a partial file.
func (e *Exporter) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}

// =============================================================================
// TurnaroundCollector
// =============================================================================

// TurnaroundCollector emits one const summary per transition.
type TurnaroundCollector struct {
	session   string
	summaries []stats.Summary

	summaryDesc *prometheus.Desc
	minDesc     *prometheus.Desc
	maxDesc     *prometheus.Desc
}

// NewTurnaroundCollector creates a collector for a session's summaries.
func NewTurnaroundCollector(session string, summaries []stats.Summary) *TurnaroundCollector {
	labels := []string{"session", "part"}
	return &TurnaroundCollector{
		session:   session,
		summaries: summaries,
		summaryDesc: prometheus.NewDesc(
			TurnaroundName,
			"Turnaround time between consecutive stages (part N is stage N-1 to N)",
			labels, nil,
		),
		minDesc: prometheus.NewDesc(
			TurnaroundMinName,
			"Smallest observed turnaround time per part",
			labels, nil,
		),
		maxDesc: prometheus.NewDesc(
			TurnaroundMaxName,
			"Largest observed turnaround time per part",
			labels, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *TurnaroundCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.summaryDesc
	ch <- c.minDesc
	ch <- c.maxDesc
}

// Collect implements prometheus.Collector.
func (c *TurnaroundCollector) Collect(ch chan<- prometheus.Metric) {
	for i, s := range c.summaries {
		part := strconv.Itoa(i + 1)
		ch <- prometheus.MustNewConstSummary(
			c.summaryDesc,
			uint64(s.Count),
			s.Sum,
			map[float64]float64{
				stats.P50: float64(s.P50),
				stats.P90: float64(s.P90),
				stats.P99: float64(s.P99),
			},
			c.session, part,
		)
		ch <- prometheus.MustNewConstMetric(c.minDesc, prometheus.GaugeValue, float64(s.Min), c.session, part)
		ch <- prometheus.MustNewConstMetric(c.maxDesc, prometheus.GaugeValue, float64(s.Max), c.session, part)
	}
}
