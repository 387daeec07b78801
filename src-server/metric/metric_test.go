package metric_test

import (
	"database/sql"
	"testing"
	"time"

	"dayplan/src-server/metric"
	"dayplan/src-server/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func counterValue(t *testing.T, name, label string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, pair := range m.GetLabel() {
				if pair.GetValue() == label {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestInitCountsReminderResults(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	rawDB, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	rawDB.SetMaxOpenConns(1)
	as := utils.NewAppStateFromDB(utils.NewConfig(), rawDB, nil)
	metric.Init(as)
	t.Cleanup(as.GracefulShutdown)

	as.MetricChans.ReminderResult <- "armed"
	as.MetricChans.ReminderResult <- "rejected"
	as.MetricChans.ReminderResult <- "armed"

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if counterValue(t, "dayplan_reminders_total", "armed") == 2 &&
			counterValue(t, "dayplan_reminders_total", "rejected") == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("armed = %v, rejected = %v",
		counterValue(t, "dayplan_reminders_total", "armed"),
		counterValue(t, "dayplan_reminders_total", "rejected"))
}
