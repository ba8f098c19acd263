package runner

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Stats summarises response times.
type Stats struct {
	Count int64
	Min   time.Duration
	Mean  time.Duration
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// statsRecorder keeps response times in microseconds, from 1us to 1h.
type statsRecorder struct {
	histogram *hdrhistogram.Histogram
}

func newStatsRecorder() *statsRecorder {
	return &statsRecorder{histogram: hdrhistogram.New(1, 3_600_000_000, 3)}
}

func (s *statsRecorder) Record(d time.Duration) {
	us := d.Microseconds()
	if us < 1 {
		us = 1
	}
	_ = s.histogram.RecordValue(us)
}

func (s *statsRecorder) Merge(other *statsRecorder) {
	if other == nil {
		return
	}
	s.histogram.Merge(other.histogram)
}

func (s *statsRecorder) Stats() Stats {
	h := s.histogram
	if h.TotalCount() == 0 {
		return Stats{}
	}
	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	return Stats{
		Count: h.TotalCount(),
		Min:   us(h.Min()),
		Mean:  time.Duration(h.Mean() * float64(time.Microsecond)),
		P50:   us(h.ValueAtQuantile(50)),
		P95:   us(h.ValueAtQuantile(95)),
		P99:   us(h.ValueAtQuantile(99)),
		Max:   us(h.Max()),
	}
}

// Summarize merges the response time stats of several runs.
func Summarize(results []*RunResult) Stats {
	total := newStatsRecorder()
	for _, r := range results {
		total.Merge(r.stats)
	}
	return total.Stats()
}
