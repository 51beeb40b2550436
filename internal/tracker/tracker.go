// Package tracker builds final parse results with fallback accounting
// warnings and summarizes result quality across a batch.
package tracker

import (
	"fmt"
	"sort"

	"github.com/tidyframe/tidyframe/internal/model"
)

// Default confidence thresholds.
const (
	DefaultLowConfidence     = 0.7
	DefaultVeryLowConfidence = 0.5
)

// Confidence warnings appended by Annotate.
const (
	WarnVeryLowConfidence = "Very low confidence, manual review recommended"
	WarnLowConfidence     = "Low confidence, verification suggested"
)

var reasonPhrases = map[model.FallbackReason]string{
	model.ReasonPrimaryDisabled: "Parsed with rule-based parser (primary parser disabled)",
	model.ReasonAPIError:        "Primary parser API error; used rule-based parser",
	model.ReasonTimeout:         "Primary parser timed out; used rule-based parser",
	model.ReasonRateLimited:     "Primary parser rate limited; used rule-based parser",
	model.ReasonCircuitOpen:     "Primary parser temporarily unavailable; used rule-based parser",
	model.ReasonInvalidResponse: "Primary parser returned an invalid response; used rule-based parser",
	model.ReasonInvalidInput:    "Input rejected by validation",
	model.ReasonParseError:      "Unexpected parsing error",
}

// ReasonPhrase returns the human-readable explanation for a fallback reason.
func ReasonPhrase(r model.FallbackReason) string {
	if p, ok := reasonPhrases[r]; ok {
		return p
	}
	return "Used rule-based parser"
}

// Thresholds configures the confidence levels that trigger warnings.
type Thresholds struct {
	LowConfidence     float64
	VeryLowConfidence float64
}

// Tracker annotates results and records them into batch statistics. It
// holds no counters of its own; callers own the BatchStatistics they pass
// in, or use a Session.
type Tracker struct {
	low     float64
	veryLow float64
}

// New creates a Tracker. Zero thresholds take the defaults.
func New(th Thresholds) *Tracker {
	t := &Tracker{low: th.LowConfidence, veryLow: th.VeryLowConfidence}
	if t.low <= 0 {
		t.low = DefaultLowConfidence
	}
	if t.veryLow <= 0 {
		t.veryLow = DefaultVeryLowConfidence
	}
	return t
}

// LowConfidence returns the low-confidence threshold.
func (t *Tracker) LowConfidence() float64 { return t.low }

// Fields carries the parsed name fields of a result.
type Fields struct {
	FirstName        string
	LastName         string
	EntityType       model.EntityType
	Gender           model.Gender
	GenderConfidence float64
	IsAgricultural   bool
	RowIndex         int
}

// ResultInput describes a result to build with CreateResult.
type ResultInput struct {
	Method       model.ParsingMethod
	Success      bool
	Confidence   float64
	Reason       model.FallbackReason
	Warnings     []string
	OriginalText string
	Fields       Fields
}

// CreateResult assembles a ParsedName and annotates it. An unsuccessful
// input becomes an error result with no name fields.
func (t *Tracker) CreateResult(in ResultInput) model.ParsedName {
	r := model.ParsedName{
		FirstName:         in.Fields.FirstName,
		LastName:          in.Fields.LastName,
		EntityType:        in.Fields.EntityType,
		Gender:            in.Fields.Gender,
		GenderConfidence:  in.Fields.GenderConfidence,
		IsAgricultural:    in.Fields.IsAgricultural,
		RowIndex:          in.Fields.RowIndex,
		ParsingConfidence: in.Confidence,
		ParsingMethod:     in.Method,
		FallbackReason:    in.Reason,
		OriginalText:      in.OriginalText,
		Warnings:          make([]string, 0, len(in.Warnings)+2),
	}
	if r.EntityType == "" {
		r.EntityType = model.EntityUnknown
	}
	if r.Gender == "" {
		r.Gender = model.GenderUnknown
	}
	if !in.Success {
		r.ParsingMethod = model.MethodError
		r.FirstName, r.LastName = "", ""
		r.EntityType = model.EntityUnknown
		r.Gender, r.GenderConfidence = model.GenderUnknown, 0
		r.ParsingConfidence = 0
		if r.FallbackReason == model.ReasonNone {
			r.FallbackReason = model.ReasonParseError
		}
	}
	for _, w := range in.Warnings {
		r.AddWarning(w)
	}
	return t.Annotate(r)
}

// Annotate appends the fallback explanation and confidence warnings to r.
func (t *Tracker) Annotate(r model.ParsedName) model.ParsedName {
	r = r.Clone()
	if r.Warnings == nil {
		r.Warnings = []string{}
	}
	if r.ParsingMethod == model.MethodFallback && r.FallbackReason != model.ReasonNone {
		r.AddWarning(ReasonPhrase(r.FallbackReason))
	}
	switch {
	case r.ParsingConfidence < t.veryLow:
		r.AddWarning(WarnVeryLowConfidence)
	case r.ParsingConfidence < t.low:
		r.AddWarning(WarnLowConfidence)
	}
	return r
}

// Record counts r into stats.
func (t *Tracker) Record(stats *model.BatchStatistics, r model.ParsedName) {
	stats.Record(r, t.low)
}

// Summary aggregates quality metrics over a result set.
type Summary struct {
	Total             int                          `json:"total"`
	GeminiCount       int                          `json:"gemini_count"`
	FallbackCount     int                          `json:"fallback_count"`
	ErrorCount        int                          `json:"error_count"`
	FallbackReasons   map[model.FallbackReason]int `json:"fallback_reasons"`
	LowConfidence     int                          `json:"low_confidence_count"`
	WithWarnings      int                          `json:"results_with_warnings"`
	GeminiRate        float64                      `json:"gemini_rate"`
	FallbackRate      float64                      `json:"fallback_rate"`
	LowConfidenceRate float64                      `json:"low_confidence_rate"`
	QualityScore      float64                      `json:"quality_score"`
	Recommendations   []string                     `json:"recommendations"`
}

// Recommendation thresholds.
const (
	fallbackRateLimit = 0.10
	lowConfRateLimit  = 0.20
	reasonRateLimit   = 0.05
)

// Summarize computes the warning summary of results. QualityScore averages
// the gemini usage rate, the high-confidence rate and the no-warning rate,
// the last at half weight.
func (t *Tracker) Summarize(results []model.ParsedName) Summary {
	s := Summary{
		FallbackReasons: map[model.FallbackReason]int{},
		Recommendations: []string{},
	}
	s.Total = len(results)
	if s.Total == 0 {
		return s
	}

	for _, r := range results {
		switch r.ParsingMethod {
		case model.MethodGemini:
			s.GeminiCount++
		case model.MethodFallback:
			s.FallbackCount++
		case model.MethodError:
			s.ErrorCount++
		}
		if r.FallbackReason != model.ReasonNone {
			s.FallbackReasons[r.FallbackReason]++
		}
		if r.ParsingConfidence < t.low {
			s.LowConfidence++
		}
		if len(r.Warnings) > 0 {
			s.WithWarnings++
		}
	}

	total := float64(s.Total)
	s.GeminiRate = float64(s.GeminiCount) / total
	s.FallbackRate = float64(s.FallbackCount) / total
	s.LowConfidenceRate = float64(s.LowConfidence) / total
	highConfRate := 1 - s.LowConfidenceRate
	noWarnRate := 1 - float64(s.WithWarnings)/total
	s.QualityScore = (s.GeminiRate + highConfRate + 0.5*noWarnRate) / 2.5

	if s.FallbackRate > fallbackRateLimit {
		s.Recommendations = append(s.Recommendations, fmt.Sprintf(
			"Fallback parser used for %.0f%% of names; consider checking API status", s.FallbackRate*100))
	}
	if s.LowConfidenceRate > lowConfRateLimit {
		s.Recommendations = append(s.Recommendations, fmt.Sprintf(
			"%.0f%% of results have low confidence; manual review recommended", s.LowConfidenceRate*100))
	}
	reasons := make([]string, 0, len(s.FallbackReasons))
	for r := range s.FallbackReasons {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		rate := float64(s.FallbackReasons[model.FallbackReason(r)]) / total
		if rate > reasonRateLimit {
			s.Recommendations = append(s.Recommendations, fmt.Sprintf(
				"Fallback reason %q affects %.0f%% of names; investigate configuration", r, rate*100))
		}
	}
	return s
}
