package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordDataTime(t *testing.T) {
	r := &Record{Timestamp: "X20240315123456L3A"}
	got, ok := r.DataTime()
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 15, 12, 34, 56, 0, time.UTC), got)

	_, ok = (&Record{Timestamp: "X2024"}).DataTime()
	assert.False(t, ok)
	_, ok = (&Record{Timestamp: "X2024ab15123456"}).DataTime()
	assert.False(t, ok)
}

func TestRecordGPSLock(t *testing.T) {
	tests := []struct {
		ts   string
		want string
	}{
		{"X20240101000000L3A", "3D"},
		{"X20240101000000L2A", "2D"},
		{"X20240101000000U3A", "0"},
		{"X20240101000000X3A", "0"},
		{"X20240101000000L1A", "0"},
		{"X20240101000000L0A", "0"},
		{"X2024", "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, (&Record{Timestamp: tt.ts}).GPSLock(), tt.ts)
	}
}

func TestRecordSatellites(t *testing.T) {
	n, ok := (&Record{Timestamp: "X20240101000000L3A"}).Satellites()
	assert.True(t, ok)
	assert.Equal(t, 10, n)

	_, ok = (&Record{Timestamp: "X20240101000000L3"}).Satellites()
	assert.False(t, ok)
	_, ok = (&Record{Timestamp: "X20240101000000L3z"}).Satellites()
	assert.False(t, ok)
}

func TestRecordSample(t *testing.T) {
	r := &Record{
		Timestamp:    "X20240101000000UD0",
		Radios:       [3]Radio{{Amplitude: 1, Frequency: 2}, {Amplitude: 3, Frequency: 4}, {Amplitude: 5, Frequency: 6}},
		Magnetometer: [3]float64{7, 8, 9},
	}
	s := r.Sample()
	assert.Equal(t, "X20240101000000UD0", s.Timestamp)
	assert.Equal(t, [3]float64{1, 3, 5}, s.Amplitude)
	assert.Equal(t, [3]float64{2, 4, 6}, s.Frequency)
	assert.Equal(t, [3]float64{7, 8, 9}, s.Magnetometer)
}
