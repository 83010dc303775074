package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/scenery/internal/config"
	"github.com/plus3/scenery/internal/log"
	"github.com/plus3/scenery/scene"
)

func TestStatsFinalize(t *testing.T) {
	var s Stats
	s.Finalize()
	assert.Zero(t, s.Avg)

	for i := 1; i <= 20; i++ {
		s.Samples = append(s.Samples, time.Duration(i)*time.Millisecond)
	}
	s.Finalize()
	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 20*time.Millisecond, s.Max)
	assert.Equal(t, 10500*time.Microsecond, s.Avg)
	assert.Equal(t, 19*time.Millisecond, s.P95)
}

func TestReportGenerate(t *testing.T) {
	r := &Report{
		Frames:         300,
		Entities:       10,
		Workers:        2,
		Fingerprint:    0xabc,
		GCPauseMetrics: true,
		Loop: &scene.LoopStats{
			Phases: []scene.SystemStats{{Name: "update"}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, r.Generate(&buf))

	out := buf.String()
	assert.Contains(t, out, "- **Frames:** 300")
	assert.NotContains(t, out, "Run Duration")
	assert.Contains(t, out, "- update: avg 0s")
	assert.Contains(t, out, "0000000000000abc")
	assert.Contains(t, out, "GC Pause Durations")
}

func TestRun(t *testing.T) {
	cfg := config.Default()
	cfg.Stress.Entities = 40
	cfg.Stress.Frames = 25
	cfg.Stress.Spread = 5
	cfg.Loop.Workers = 2

	r, err := run(cfg, log.Nop(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(25), r.TotalFrames)
	assert.Len(t, r.UpdateTime.Samples, 25)
	assert.Equal(t, 41, r.FinalEntities)
	assert.Len(t, r.Loop.Systems, 2)
	assert.NotZero(t, r.Fingerprint)

	t.Run("duration", func(t *testing.T) {
		r, err := run(cfg, log.Nop(), 20*time.Millisecond)
		require.NoError(t, err)
		assert.Positive(t, r.TotalFrames)
	})
}

func TestRealMain(t *testing.T) {
	noEnv := filepath.Join(t.TempDir(), "missing.env")

	t.Run("report", func(t *testing.T) {
		var out bytes.Buffer
		err := realMain(options{envFile: noEnv, entities: 5, frames: 3}, &out)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "--- Scene Stress Report ---")
		assert.Contains(t, out.String(), "--- End of Report ---")
	})

	t.Run("unknown profile mode", func(t *testing.T) {
		var out bytes.Buffer
		err := realMain(options{envFile: noEnv, entities: 5, frames: 3, profile: "trace"}, &out)
		assert.ErrorContains(t, err, `unknown profile mode "trace"`)
		assert.Empty(t, out.String())
	})

	t.Run("missing config", func(t *testing.T) {
		err := realMain(options{configPath: filepath.Join(t.TempDir(), "nope.yaml"), envFile: noEnv}, &bytes.Buffer{})
		assert.ErrorContains(t, err, "load config")
	})
}
