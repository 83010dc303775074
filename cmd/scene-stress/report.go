package main

import (
	"fmt"
	"io"
	"runtime"
	"slices"
	"text/template"
	"time"

	"github.com/plus3/scenery/scene"
)

type Report struct {
	// Configuration
	Frames   int
	Duration time.Duration
	Entities int
	Workers  int

	// Results
	TotalFrames    int64
	TotalTime      time.Duration
	UpdateTime     Stats
	QueryTime      Stats
	Contacts       int64
	ProxyHits      int64
	FullHits       int64
	RenderErrors   int64
	FinalEntities  int
	Fingerprint    uint64
	Loop           *scene.LoopStats
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	P95     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		if sample < s.Min {
			s.Min = sample
		}
		if sample > s.Max {
			s.Max = sample
		}
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))

	sorted := slices.Clone(s.Samples)
	slices.Sort(sorted)
	s.P95 = sorted[(len(sorted)-1)*95/100]
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# Scene Stress Test Report

## Test Configuration
{{- if .Duration}}
- **Run Duration:** {{.Duration}}
{{- else}}
- **Frames:** {{.Frames}}
{{- end}}
- **Initial Entities:** {{.Entities}}
- **Query Workers:** {{.Workers}}

## Performance Results
- **Total Frames:** {{.TotalFrames}}
- **Total Test Time:** {{.TotalTime}}
- **Frame Time (update, barrier, render):**
  - **Avg:** {{.UpdateTime.Avg}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}
  - **P95:** {{.UpdateTime.P95}}
- **Collision Query Time:**
  - **Avg:** {{.QueryTime.Avg}}
  - **Max:** {{.QueryTime.Max}}
  - **P95:** {{.QueryTime.P95}}
{{- with .Loop}}

## Phases
{{- range .Phases}}
- {{.Name}}: avg {{.AvgDuration}}, max {{.MaxDuration}}
{{- end}}
{{- range .Systems}}
- {{.Name}}: avg {{.AvgDuration}}, max {{.MaxDuration}}
{{- end}}
{{- end}}

## Scene Results
- **Contacts:** {{.Contacts}}
- **Sensor Hits:** {{.ProxyHits}} (proxy) / {{.FullHits}} (full)
- **Render Errors:** {{.RenderErrors}}
- **Final Entities:** {{.FinalEntities}}
- **Fingerprint:** {{hex .Fingerprint}}

## Memory Usage (MiB)
- Heap Alloc:     {{mb .MemStatsStart.HeapAlloc}} (start) -> {{mb .MemStatsEnd.HeapAlloc}} (end) -> delta: {{mb (bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc)}}
- Total Alloc:    {{mb .MemStatsStart.TotalAlloc}} (start) -> {{mb .MemStatsEnd.TotalAlloc}} (end) -> delta: {{mb (bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc)}}
- Sys Memory:     {{mb .MemStatsStart.Sys}} (start) -> {{mb .MemStatsEnd.Sys}} (end) -> delta: {{mb (bsub .MemStatsEnd.Sys .MemStatsStart.Sys)}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{ns (subns .MemStatsEnd.PauseTotalNs .MemStatsStart.PauseTotalNs)}}
- **Num GC Cycles:** {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{end}}`

	fm := template.FuncMap{
		"mb": func(v any) string {
			switch val := v.(type) {
			case uint64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			case int64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			default:
				return "N/A"
			}
		},
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"subns": func(a, b uint64) uint64 {
			return a - b
		},
		"ns": func(ns uint64) string {
			return time.Duration(ns).String()
		},
		"hex": func(v uint64) string {
			return fmt.Sprintf("%016x", v)
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
