package model

import "time"

// BatchStatistics accumulates counters for one pipeline run. Values are
// merged by the caller when a running total across runs is wanted.
type BatchStatistics struct {
	BatchID         string                 `json:"batch_id,omitempty"`
	StartedAt       time.Time              `json:"started_at"`
	FinishedAt      time.Time              `json:"finished_at"`
	TotalProcessed  int                    `json:"total_processed"`
	GeminiSuccess   int                    `json:"gemini_success"`
	FallbackUsed    int                    `json:"fallback_used"`
	Errors          int                    `json:"errors"`
	FallbackReasons map[FallbackReason]int `json:"fallback_reasons"`
	LowConfidence   int                    `json:"low_confidence"`
	TotalWarnings   int                    `json:"total_warnings"`
	CacheHits       int                    `json:"cache_hits"`
}

// NewBatchStatistics returns an empty statistics value.
func NewBatchStatistics(batchID string) BatchStatistics {
	return BatchStatistics{
		BatchID:         batchID,
		StartedAt:       time.Now().UTC(),
		FallbackReasons: make(map[FallbackReason]int),
	}
}

// Record counts one result. lowConfidence is the threshold below which a
// result counts as low confidence.
func (s *BatchStatistics) Record(r ParsedName, lowConfidence float64) {
	if s.FallbackReasons == nil {
		s.FallbackReasons = make(map[FallbackReason]int)
	}
	s.TotalProcessed++
	switch r.ParsingMethod {
	case MethodGemini:
		s.GeminiSuccess++
	case MethodFallback:
		s.FallbackUsed++
		if r.FallbackReason != ReasonNone {
			s.FallbackReasons[r.FallbackReason]++
		}
	case MethodError:
		s.Errors++
		if r.FallbackReason != ReasonNone {
			s.FallbackReasons[r.FallbackReason]++
		}
	}
	if r.ParsingConfidence < lowConfidence {
		s.LowConfidence++
	}
	s.TotalWarnings += len(r.Warnings)
}

// Merge adds the counters of o into s.
func (s *BatchStatistics) Merge(o BatchStatistics) {
	if s.FallbackReasons == nil {
		s.FallbackReasons = make(map[FallbackReason]int)
	}
	if s.StartedAt.IsZero() || (!o.StartedAt.IsZero() && o.StartedAt.Before(s.StartedAt)) {
		s.StartedAt = o.StartedAt
	}
	if o.FinishedAt.After(s.FinishedAt) {
		s.FinishedAt = o.FinishedAt
	}
	s.TotalProcessed += o.TotalProcessed
	s.GeminiSuccess += o.GeminiSuccess
	s.FallbackUsed += o.FallbackUsed
	s.Errors += o.Errors
	s.LowConfidence += o.LowConfidence
	s.TotalWarnings += o.TotalWarnings
	s.CacheHits += o.CacheHits
	for reason, n := range o.FallbackReasons {
		s.FallbackReasons[reason] += n
	}
}

// FallbackRate returns fallback-used / total processed.
func (s BatchStatistics) FallbackRate() float64 {
	if s.TotalProcessed == 0 {
		return 0
	}
	return float64(s.FallbackUsed) / float64(s.TotalProcessed)
}
