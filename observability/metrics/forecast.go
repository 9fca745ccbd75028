package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ForecastMetrics exposes the scoring engine's operational signals. All
// methods are nil-safe so the engine can run without telemetry in tests.
type ForecastMetrics struct {
	scoreReports *prometheus.CounterVec
	epochsClosed prometheus.Counter
	recoveries   prometheus.Counter
	submissions  *prometheus.CounterVec
	epochPool    prometheus.Gauge
	rewardsSum   *prometheus.GaugeVec
	roundingDust *prometheus.GaugeVec
}

var (
	forecastOnce     sync.Once
	forecastRegistry *ForecastMetrics
)

// Forecast returns the process-wide forecast metrics registry.
func Forecast() *ForecastMetrics {
	forecastOnce.Do(func() {
		forecastRegistry = &ForecastMetrics{
			scoreReports: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "forecast_score_reports_total",
				Help: "Count of accepted score reports by role.",
			}, []string{"role"}),
			epochsClosed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "forecast_epochs_closed_total",
				Help: "Count of epochs closed at their deadline.",
			}),
			recoveries: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "forecast_recovery_finalizations_total",
				Help: "Count of epochs finalized through the recovery path.",
			}),
			submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "forecast_leaderboard_submissions_total",
				Help: "Count of leaderboard submissions by verification result.",
			}, []string{"result"}),
			epochPool: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "forecast_epoch_pool",
				Help: "Contribution pool of the active epoch.",
			}),
			rewardsSum: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "forecast_rewards_sum",
				Help: "Total rewards paid per epoch.",
			}, []string{"epoch"}),
			roundingDust: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "forecast_rounding_dust",
				Help: "Undistributed remainder retained per epoch.",
			}, []string{"epoch"}),
		}
		prometheus.MustRegister(
			forecastRegistry.scoreReports,
			forecastRegistry.epochsClosed,
			forecastRegistry.recoveries,
			forecastRegistry.submissions,
			forecastRegistry.epochPool,
			forecastRegistry.rewardsSum,
			forecastRegistry.roundingDust,
		)
	})
	return forecastRegistry
}

// IncScoreReport records one accepted score report for the role.
func (m *ForecastMetrics) IncScoreReport(role string) {
	if m == nil {
		return
	}
	if role == "" {
		role = "unknown"
	}
	m.scoreReports.WithLabelValues(role).Inc()
}

// IncEpochClosed records an epoch boundary crossing.
func (m *ForecastMetrics) IncEpochClosed() {
	if m == nil {
		return
	}
	m.epochsClosed.Inc()
}

// IncRecovery records a recovery-path finalization.
func (m *ForecastMetrics) IncRecovery() {
	if m == nil {
		return
	}
	m.recoveries.Inc()
}

// IncSubmission records a leaderboard submission outcome.
func (m *ForecastMetrics) IncSubmission(result string) {
	if m == nil {
		return
	}
	if result == "" {
		result = "unknown"
	}
	m.submissions.WithLabelValues(result).Inc()
}

// SetEpochPool publishes the active epoch's pool balance.
func (m *ForecastMetrics) SetEpochPool(amount float64) {
	if m == nil {
		return
	}
	m.epochPool.Set(amount)
}

// ObserveRewardsSum publishes the total paid for an epoch.
func (m *ForecastMetrics) ObserveRewardsSum(epoch uint64, amount float64) {
	if m == nil {
		return
	}
	m.rewardsSum.WithLabelValues(fmt.Sprintf("%d", epoch)).Set(amount)
}

// ObserveRoundingDust publishes the retained remainder for an epoch.
func (m *ForecastMetrics) ObserveRoundingDust(epoch uint64, dust float64) {
	if m == nil {
		return
	}
	m.roundingDust.WithLabelValues(fmt.Sprintf("%d", epoch)).Set(dust)
}
