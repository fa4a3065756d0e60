package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/instance"
)

func TestSummarizeSample(t *testing.T) {
	inst, err := instance.Load("../../testdata/instances", "scc_01")
	require.NoError(t, err)

	s := Summarize(inst)
	assert.Equal(t, "scc_01", s.Name)
	assert.Equal(t, 4, s.Stages)
	assert.Equal(t, 7, s.Machines)
	assert.Equal(t, 2, s.Casts)
	assert.Equal(t, 5, s.Charges)

	assert.Equal(t, 2, s.CastLength.Count)
	assert.Equal(t, 2.0, s.CastLength.Min)
	assert.Equal(t, 3.0, s.CastLength.Max)
	assert.InDelta(t, 2.5, s.CastLength.Mean, 1e-9)
	assert.InDelta(t, 0.7071067811865476, s.CastLength.StdDev, 1e-9)

	assert.InDelta(t, 228.0, s.DueDate.Mean, 1e-9)
	assert.InDelta(t, 39.6232255123179, s.DueDate.StdDev, 1e-9)
	assert.Equal(t, 180.0, s.DueDate.Min)
	assert.Equal(t, 280.0, s.DueDate.Max)

	require.Len(t, s.PerStage, 4)
	want := []struct {
		stage    string
		machines int
		rows     int
		min, max float64
		mean     float64
		stdDev   float64
	}{
		{"EAF", 2, 10, 68, 82, 74.5, 4.576510072581994},
		{"AOD", 1, 5, 38, 45, 41.2, 2.588435821108957},
		{"LF", 2, 6, 30, 40, 34.166666666666664, 3.65604522218567},
		{"CC", 2, 8, 48, 60, 52.875, 4.323936698360485},
	}
	for i, w := range want {
		got := s.PerStage[i]
		assert.Equal(t, w.stage, got.Stage)
		assert.Equal(t, w.machines, got.Machines)
		assert.Equal(t, 5, got.Charges)
		assert.Equal(t, w.rows, got.Times.Count)
		assert.Equal(t, w.min, got.Times.Min)
		assert.Equal(t, w.max, got.Times.Max)
		assert.InDelta(t, w.mean, got.Times.Mean, 1e-9)
		assert.InDelta(t, w.stdDev, got.Times.StdDev, 1e-9)
	}
}

func TestDescribeEdgeCases(t *testing.T) {
	assert.Equal(t, Dist{}, describe(nil))
	assert.Equal(t, Dist{Count: 1, Min: 4, Max: 4, Mean: 4}, describe([]float64{4}))
}
