package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/async-sched/pkg/types"
)

func TestRecordCycleIncrementsCounterAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCycle(0.01)
	c.RecordCycle(0.02)

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range metricFamilies {
		if mf.GetName() == "scheduler_cycles_total" {
			found = true
			require.Len(t, mf.Metric, 1)
			require.Equal(t, float64(2), mf.Metric[0].GetCounter().GetValue())
		}
	}
	require.True(t, found, "scheduler_cycles_total not registered")
}

func TestRecordJobRunLabelsByPriority(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordJobRun(types.High)
	c.RecordJobRun(types.High)
	c.RecordJobRun(types.Low)

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)

	var high, low *dto.Metric
	for _, mf := range metricFamilies {
		if mf.GetName() != "scheduler_jobs_run_total" {
			continue
		}
		for _, m := range mf.Metric {
			for _, l := range m.Label {
				if l.GetName() == "priority" && l.GetValue() == "high" {
					high = m
				}
				if l.GetName() == "priority" && l.GetValue() == "low" {
					low = m
				}
			}
		}
	}
	require.NotNil(t, high)
	require.NotNil(t, low)
	require.Equal(t, float64(2), high.GetCounter().GetValue())
	require.Equal(t, float64(1), low.GetCounter().GetValue())
}
