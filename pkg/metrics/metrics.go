package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics collects per-run optimizer statistics. A batch process has no
// scrape surface, so the registry is exported through a Pushgateway when
// one is configured and otherwise stays in memory, reachable through Gatherer.
type Metrics struct {
	registry *prometheus.Registry

	exams             prometheus.Gauge
	surveillances     prometheus.Gauge
	studentViolations prometheus.Gauge
	underProctored    prometheus.Gauge
	unplacedGroups    prometheus.Gauge
	chromaticEstimate prometheus.Gauge
	runDuration       prometheus.Gauge
	phaseDuration     *prometheus.GaugeVec
}

// New registers the optimizer collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		exams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "exam_optimizer_exams_total",
			Help: "Number of exam records written by the last run",
		}),
		surveillances: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "exam_optimizer_surveillances_total",
			Help: "Number of proctoring assignments written by the last run",
		}),
		studentViolations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "exam_optimizer_student_violations",
			Help: "Unavoidable same-day student conflicts accepted by the last run",
		}),
		underProctored: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "exam_optimizer_under_proctored_modules",
			Help: "Modules left short of proctors by the last run",
		}),
		unplacedGroups: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "exam_optimizer_unplaced_groups",
			Help: "Student groups the room packer could not place",
		}),
		chromaticEstimate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "exam_optimizer_chromatic_estimate",
			Help: "Greedy chromatic estimate of the module conflict graph",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "exam_optimizer_run_duration_seconds",
			Help: "Wall clock duration of the last run",
		}),
		phaseDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "exam_optimizer_phase_duration_seconds",
			Help: "Wall clock duration per pipeline phase",
		}, []string{"phase"}),
	}

	registry.MustRegister(
		m.exams,
		m.surveillances,
		m.studentViolations,
		m.underProctored,
		m.unplacedGroups,
		m.chromaticEstimate,
		m.runDuration,
		m.phaseDuration,
	)

	return m
}

// SetCounts records the headline numbers of a finished run.
func (m *Metrics) SetCounts(exams, surveillances, studentViolations, underProctored, unplacedGroups int) {
	m.exams.Set(float64(exams))
	m.surveillances.Set(float64(surveillances))
	m.studentViolations.Set(float64(studentViolations))
	m.underProctored.Set(float64(underProctored))
	m.unplacedGroups.Set(float64(unplacedGroups))
}

// SetChromaticEstimate records the coloring probe result.
func (m *Metrics) SetChromaticEstimate(k int) {
	m.chromaticEstimate.Set(float64(k))
}

// ObservePhase records the duration of one pipeline phase.
func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	m.phaseDuration.WithLabelValues(phase).Set(d.Seconds())
}

// ObserveRun records the total run duration.
func (m *Metrics) ObserveRun(d time.Duration) {
	m.runDuration.Set(d.Seconds())
}

// Gatherer exposes the registry for tests and custom exporters.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Push exports the registry to a Pushgateway. A failed push never fails the
// run; the caller decides what to do with the returned error.
func (m *Metrics) Push(url, job string) error {
	if url == "" {
		return nil
	}
	return push.New(url, job).Gatherer(m.registry).Push()
}
