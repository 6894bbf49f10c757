package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampPercent(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-50, 0},
		{-1, 0},
		{0, 0},
		{42, 42},
		{100, 100},
		{101, 100},
		{1000, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampPercent(tt.in), "ClampPercent(%d)", tt.in)
	}
}

func TestPercentOf(t *testing.T) {
	tests := []struct {
		name        string
		part, whole int64
		want        int
	}{
		{"three quarters", 1_500_000, 2_000_000, 75},
		{"truncates", 2, 3, 66},
		{"negative ratio clamps to zero", -10, 100, 0},
		{"ratio above one clamps", 300, 100, 100},
		{"zero whole", 5, 0, 0},
		{"negative whole", 5, -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PercentOf(tt.part, tt.whole))
		})
	}
}

func TestReading(t *testing.T) {
	var missing Reading[float64]
	assert.False(t, missing.Valid)
	assert.Equal(t, -1.0, missing.Or(-1))

	got := Available(48.25)
	assert.True(t, got.Valid)
	assert.Equal(t, 48.25, got.Or(-1))
}

func TestSnapshotTempText(t *testing.T) {
	assert.Equal(t, "N/A", Snapshot{}.TempText())
	assert.Equal(t, "48.3°C", Snapshot{CPUTemp: Available(48.25)}.TempText())
	assert.Equal(t, "0.0°C", Snapshot{CPUTemp: Available(0.0)}.TempText())
}

func TestSnapshotJSON_UnavailableTempIsNull(t *testing.T) {
	data, err := json.Marshal(Snapshot{Memory: UnavailableUsage, Disk: UnavailableUsage, IP: NoIP})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["cpu_temp_c"])
	assert.Equal(t, "No IP", decoded["ip"])
	assert.Equal(t, "N/A", decoded["memory"].(map[string]any)["label"])
}
