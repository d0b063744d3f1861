package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64p(v int64) *int64       { return &v }
func float64p(v float64) *float64 { return &v }
func stringp(v string) *string    { return &v }

func TestProgressSnapshot_Apply_PresentFieldsOnly(t *testing.T) {
	snap := ProgressSnapshot{
		FilesProcessed: 10,
		FilesTotal:     100,
		Phase:          PhaseProcessing,
		PhaseName:      "Processing files",
	}

	snap.Apply(ProgressUpdate{
		FilesProcessed: int64p(25),
		MBProcessed:    float64p(12.5),
	})

	assert.Equal(t, int64(25), snap.FilesProcessed)
	assert.Equal(t, int64(100), snap.FilesTotal, "absent field keeps prior value")
	assert.Equal(t, 12.5, snap.MBProcessed)
	assert.Equal(t, PhaseProcessing, snap.Phase)
}

func TestProgressSnapshot_Apply_PhaseChange(t *testing.T) {
	snap := ProgressSnapshot{Phase: PhaseDiscovery, PhaseName: "Scanning folders"}

	snap.Apply(ProgressUpdate{
		Phase:            stringp(PhaseProcessing),
		PhaseName:        stringp("Processing files"),
		PhaseDescription: stringp("Downloading and ingesting"),
		FoldersFound:     int64p(42),
		FilesFound:       int64p(980),
		TotalSize:        float64p(2048.0),
	})

	assert.Equal(t, PhaseProcessing, snap.Phase)
	assert.Equal(t, "Processing files", snap.PhaseName)
	assert.Equal(t, int64(42), snap.FoldersFound)
	assert.Equal(t, int64(980), snap.FilesFound)
	assert.Equal(t, 2048.0, snap.TotalSize)
}

func TestETA_Suppressed(t *testing.T) {
	// With zero files processed the estimate is undefined regardless of
	// the total.
	_, ok := ETA(time.Minute, 0, 1000)
	assert.False(t, ok)

	_, ok = ETA(time.Minute, 0, 0)
	assert.False(t, ok)

	// Total at or behind processed is also undefined.
	_, ok = ETA(time.Minute, 10, 10)
	assert.False(t, ok)

	_, ok = ETA(time.Minute, 20, 10)
	assert.False(t, ok)
}

func TestETA_Estimate(t *testing.T) {
	// 10 of 30 files in 1 minute: 20 remaining at the same rate = 2 minutes.
	eta, ok := ETA(time.Minute, 10, 30)
	require.True(t, ok)
	assert.Equal(t, 2*time.Minute, eta)
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "00:59", FormatClock(59*time.Second))
	assert.Equal(t, "02:05", FormatClock(125*time.Second))
	assert.Equal(t, "1:00:01", FormatClock(3601*time.Second))
	assert.Equal(t, "00:00", FormatClock(-5*time.Second))
}

func TestFormatMB(t *testing.T) {
	assert.Equal(t, "12.3 MB", FormatMB(12.34))
	assert.Equal(t, "0.0 MB", FormatMB(-1))
}

func TestProgressSnapshot_Fraction(t *testing.T) {
	byFiles := ProgressSnapshot{FilesProcessed: 25, FilesTotal: 100}
	assert.InDelta(t, 0.25, byFiles.Fraction(), 1e-9)

	byBytes := ProgressSnapshot{MBProcessed: 50, MBTotal: 200}
	assert.InDelta(t, 0.25, byBytes.Fraction(), 1e-9)

	empty := ProgressSnapshot{}
	assert.Zero(t, empty.Fraction())

	over := ProgressSnapshot{FilesProcessed: 120, FilesTotal: 100}
	assert.Equal(t, 1.0, over.Fraction())
}
