package metric

import (
	"log/slog"
	"time"

	"dayplan/src-server/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// register tolerates a collector that is already registered, which happens
// when Init runs twice in one process (tests).
func register(name string, c prometheus.Collector) bool {
	if err := prometheus.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register "+name+" metric", "error", err)
			return false
		}
	}
	slog.Debug(name + " metric registered")
	return true
}

func unregister(name string, c prometheus.Collector) {
	switch prometheus.Unregister(c) {
	case true:
		slog.Debug(name + " metric unregistered")
	case false:
		slog.Warn(name + " metric not registered")
	}
}

// latencyGauge shows the last sample from ch and falls back to 0 when no
// sample arrived for clearTickerInterval.
func latencyGauge(as *utils.AppState, name, help string, ch <-chan float64, clearTickerInterval time.Duration) {
	gauge := promauto.With(nil).NewGauge(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	})
	if register(name, gauge) {
		gauge.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				unregister(name, gauge)
				return
			case latency := <-ch:
				gauge.Set(latency)
				clearTicker.Reset(clearTickerInterval)
			case <-clearTicker.C:
				gauge.Set(0)
			}
		}
	}()
}

// probeGauge samples fn every tickerInterval.
func probeGauge(as *utils.AppState, name, help string, fn func() (float64, error), tickerInterval time.Duration) {
	gauge := promauto.With(nil).NewGauge(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	})
	if register(name, gauge) {
		gauge.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		ticker := time.NewTicker(tickerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				unregister(name, gauge)
				return
			case <-ticker.C:
				value, err := fn()
				if err != nil {
					slog.Error("can't sample "+name, "error", err)
					continue
				}
				gauge.Set(value)
			}
		}
	}()
}

func reminderResults(as *utils.AppState) {
	name := "dayplan_reminders_total"
	counter := promauto.With(nil).NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: "Reminder scheduling attempts by outcome",
	}, []string{"status"})
	register(name, counter)
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		for {
			select {
			case <-*gracefulShutdownCh:
				unregister(name, counter)
				return
			case status := <-as.MetricChans.ReminderResult:
				counter.WithLabelValues(status).Inc()
			}
		}
	}()
}

func Init(as *utils.AppState) {
	tickerInterval := as.Config.GetMetricCollectionInterval()
	clearTickerInterval := as.Config.GetMetricCollectionInterval() * 2

	latencyGauge(as, "dayplan_storage_read_microsec",
		"The latency of a storage read in microseconds",
		as.MetricChans.StorageRead, clearTickerInterval)
	latencyGauge(as, "dayplan_storage_write_microsec",
		"The latency of a storage write in microseconds",
		as.MetricChans.StorageWrite, clearTickerInterval)
	latencyGauge(as, "dayplan_notification_send_microsec",
		"The latency of delivering one notification in microseconds",
		as.MetricChans.NotificationSend, clearTickerInterval)
	reminderResults(as)

	probeGauge(as, "dayplan_storage_empty_read_microsec",
		"The latency of reading a missing storage key in microseconds",
		func() (float64, error) {
			latency, err := storageEmptyRead(as)
			return float64(latency.Microseconds()), err
		}, tickerInterval)
	probeGauge(as, "dayplan_pending_triggers",
		"The number of armed triggers that have not fired yet",
		func() (float64, error) {
			n, err := pendingTriggers(as)
			return float64(n), err
		}, tickerInterval)
	if as.DgSession != nil {
		probeGauge(as, "dayplan_discord_heartbeat_latency_microsec",
			"The latency of a discord heartbeat in microseconds",
			func() (float64, error) {
				return float64(as.DgSession.HeartbeatLatency().Microseconds()), nil
			}, tickerInterval)
	}
}
