package model

import (
	"slices"
	"sync"
	"time"
)

// Operation names a kind of model call tracked by CallStats.
type Operation string

const (
	// OpPhraseEmbedding is the one-off embedding of taxonomy phrases at load.
	OpPhraseEmbedding Operation = "phrase_embedding"
	// OpPageEmbedding embeds one page per call while classifying.
	OpPageEmbedding Operation = "page_embedding"
	OpSentiment     Operation = "sentiment"
)

type call struct {
	at      time.Time
	elapsed int64 // ms
	texts   int
	failed  bool
}

// OperationSnapshot aggregates the calls of one operation still inside the
// window. Latency fields cover every call, failed ones included.
type OperationSnapshot struct {
	Calls     int     `json:"calls"`
	Errors    int     `json:"errors"`
	Texts     int     `json:"texts"`
	MinMs     int64   `json:"min_ms"`
	MaxMs     int64   `json:"max_ms"`
	AvgMs     float64 `json:"avg_ms"`
	P50Ms     float64 `json:"p50_ms"`
	P95Ms     float64 `json:"p95_ms"`
	MsPerText float64 `json:"ms_per_text"`
}

// CallStats keeps recent model calls per operation within a rolling window.
type CallStats struct {
	mu     sync.Mutex
	calls  map[Operation][]call
	window time.Duration
}

func NewCallStats(window time.Duration) *CallStats {
	if window <= 0 {
		window = time.Hour
	}
	return &CallStats{calls: make(map[Operation][]call), window: window}
}

// Record adds one call of op that handled texts inputs.
func (s *CallStats) Record(op Operation, d time.Duration, texts int, err error) {
	now := time.Now()
	c := call{at: now, elapsed: max(d.Milliseconds(), 0), texts: texts, failed: err != nil}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op] = append(s.prune(op, now), c)
}

// Snapshot returns one entry per operation that has calls in the window.
func (s *CallStats) Snapshot() map[Operation]OperationSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[Operation]OperationSnapshot, len(s.calls))
	for op := range s.calls {
		calls := s.prune(op, now)
		s.calls[op] = calls
		if len(calls) == 0 {
			continue
		}
		out[op] = summarize(calls)
	}
	return out
}

// Operation returns the snapshot for op, zero when it has no recent calls.
func (s *CallStats) Operation(op Operation) OperationSnapshot {
	return s.Snapshot()[op]
}

func (s *CallStats) prune(op Operation, now time.Time) []call {
	cutoff := now.Add(-s.window)
	kept := s.calls[op][:0]
	for _, c := range s.calls[op] {
		if !c.at.Before(cutoff) {
			kept = append(kept, c)
		}
	}
	return kept
}

func summarize(calls []call) OperationSnapshot {
	snap := OperationSnapshot{Calls: len(calls)}
	elapsed := make([]int64, 0, len(calls))
	var total int64
	for _, c := range calls {
		elapsed = append(elapsed, c.elapsed)
		total += c.elapsed
		snap.Texts += c.texts
		if c.failed {
			snap.Errors++
		}
	}
	slices.Sort(elapsed)

	snap.MinMs = elapsed[0]
	snap.MaxMs = elapsed[len(elapsed)-1]
	snap.AvgMs = float64(total) / float64(len(elapsed))
	snap.P50Ms = percentile(elapsed, 50)
	snap.P95Ms = percentile(elapsed, 95)
	if snap.Texts > 0 {
		snap.MsPerText = float64(total) / float64(snap.Texts)
	}
	return snap
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	rank := float64(len(sorted)-1) * pct / 100
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + float64(sorted[lo+1]-sorted[lo])*frac
}
