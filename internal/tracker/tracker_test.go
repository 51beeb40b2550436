package tracker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidyframe/tidyframe/internal/model"
)

func TestCreateResult_Fallback(t *testing.T) {
	tr := New(Thresholds{})
	r := tr.CreateResult(ResultInput{
		Method:       model.MethodFallback,
		Success:      true,
		Confidence:   0.85,
		Reason:       model.ReasonTimeout,
		Warnings:     []string{"Joint ownership detected"},
		OriginalText: "Smith John & Mary",
		Fields: Fields{
			FirstName:  "John",
			LastName:   "Smith",
			EntityType: model.EntityPerson,
			Gender:     model.GenderMale,
			RowIndex:   4,
		},
	})

	assert.Equal(t, "John", r.FirstName)
	assert.Equal(t, 4, r.RowIndex)
	assert.Equal(t, []string{"Joint ownership detected", ReasonPhrase(model.ReasonTimeout)}, r.Warnings)
}

func TestCreateResult_ConfidenceWarnings(t *testing.T) {
	tr := New(Thresholds{})

	tests := []struct {
		conf float64
		want string
	}{
		{conf: 0.3, want: WarnVeryLowConfidence},
		{conf: 0.6, want: WarnLowConfidence},
		{conf: 0.9, want: ""},
	}
	for _, tt := range tests {
		r := tr.CreateResult(ResultInput{Method: model.MethodGemini, Success: true, Confidence: tt.conf})
		if tt.want == "" {
			assert.Empty(t, r.Warnings)
			continue
		}
		assert.Equal(t, []string{tt.want}, r.Warnings)
	}
}

func TestCreateResult_Failure(t *testing.T) {
	r := New(Thresholds{}).CreateResult(ResultInput{
		Method:       model.MethodFallback,
		Success:      false,
		Confidence:   0.9,
		OriginalText: "???",
		Fields:       Fields{FirstName: "X", EntityType: model.EntityPerson},
	})
	assert.Equal(t, model.MethodError, r.ParsingMethod)
	assert.Equal(t, model.ReasonParseError, r.FallbackReason)
	assert.Equal(t, model.EntityUnknown, r.EntityType)
	assert.Empty(t, r.FirstName)
	assert.Zero(t, r.ParsingConfidence)
	assert.Contains(t, r.Warnings, WarnVeryLowConfidence)
}

func TestAnnotate_NoDuplicateWarnings(t *testing.T) {
	tr := New(Thresholds{})
	r := model.ParsedName{ParsingMethod: model.MethodFallback, FallbackReason: model.ReasonAPIError, ParsingConfidence: 0.6}
	once := tr.Annotate(r)
	twice := tr.Annotate(once)
	assert.Equal(t, once.Warnings, twice.Warnings)
	assert.Nil(t, r.Warnings)
}

func TestSummarize(t *testing.T) {
	tr := New(Thresholds{})
	results := []model.ParsedName{
		{ParsingMethod: model.MethodGemini, ParsingConfidence: 0.95},
		{ParsingMethod: model.MethodGemini, ParsingConfidence: 0.9},
		{ParsingMethod: model.MethodFallback, FallbackReason: model.ReasonTimeout, ParsingConfidence: 0.85, Warnings: []string{"w"}},
		{ParsingMethod: model.MethodError, FallbackReason: model.ReasonParseError, ParsingConfidence: 0, Warnings: []string{"e"}},
	}

	s := tr.Summarize(results)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.GeminiCount)
	assert.Equal(t, 1, s.FallbackCount)
	assert.Equal(t, 1, s.ErrorCount)
	assert.Equal(t, 1, s.FallbackReasons[model.ReasonTimeout])
	assert.Equal(t, 1, s.LowConfidence)
	assert.Equal(t, 2, s.WithWarnings)
	assert.InDelta(t, 0.5, s.GeminiRate, 0.0001)
	// (0.5 + 0.75 + 0.5*0.5) / 2.5
	assert.InDelta(t, 0.6, s.QualityScore, 0.0001)

	require.Len(t, s.Recommendations, 4)
	assert.Contains(t, s.Recommendations[0], "consider checking API status")
	assert.Contains(t, s.Recommendations[1], "manual review recommended")
	assert.Contains(t, s.Recommendations[2], "parse_error")
	assert.Contains(t, s.Recommendations[3], "timeout")
}

func TestSummarize_Empty(t *testing.T) {
	s := New(Thresholds{}).Summarize(nil)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.QualityScore)
	assert.Empty(t, s.Recommendations)
}

func TestSummarize_Perfect(t *testing.T) {
	s := New(Thresholds{}).Summarize([]model.ParsedName{
		{ParsingMethod: model.MethodGemini, ParsingConfidence: 0.9},
	})
	assert.InDelta(t, 1.0, s.QualityScore, 0.0001)
	assert.Empty(t, s.Recommendations)
}

func TestSession(t *testing.T) {
	sess := NewSession()
	tr := New(Thresholds{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := model.NewBatchStatistics("b")
			tr.Record(&b, model.ParsedName{ParsingMethod: model.MethodFallback, FallbackReason: model.ReasonTimeout, ParsingConfidence: 0.5})
			sess.Merge(b)
		}()
	}
	wg.Wait()

	st := sess.Statistics()
	assert.Equal(t, 10, st.TotalProcessed)
	assert.Equal(t, 10, st.FallbackUsed)
	assert.Equal(t, 10, st.LowConfidence)
	assert.Equal(t, 10, st.FallbackReasons[model.ReasonTimeout])

	// The snapshot is detached from the session.
	st.FallbackReasons[model.ReasonTimeout] = 0
	assert.Equal(t, 10, sess.Statistics().FallbackReasons[model.ReasonTimeout])

	sess.Reset()
	assert.Zero(t, sess.Statistics().TotalProcessed)
}
