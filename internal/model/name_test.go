package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsedName_AddWarning(t *testing.T) {
	var p ParsedName
	p.AddWarning("a")
	p.AddWarning("b")
	p.AddWarning("a")
	assert.Equal(t, []string{"a", "b"}, p.Warnings)
}

func TestParsedName_Clone(t *testing.T) {
	p := ParsedName{FirstName: "John", Warnings: []string{"x"}}
	c := p.Clone()
	c.Warnings[0] = "y"
	assert.Equal(t, "x", p.Warnings[0])
	assert.Equal(t, "John", c.FirstName)
}

func TestEmptyAndErrorResults(t *testing.T) {
	e := EmptyResult("  ")
	assert.Equal(t, EntityUnknown, e.EntityType)
	assert.InDelta(t, 0.5, e.ParsingConfidence, 0.001)
	assert.Equal(t, MethodFallback, e.ParsingMethod)
	assert.False(t, e.HasName())

	r := ErrorResult("bad", "Parsing failed: boom")
	assert.Equal(t, MethodError, r.ParsingMethod)
	assert.Equal(t, ReasonParseError, r.FallbackReason)
	assert.Equal(t, []string{"Parsing failed: boom"}, r.Warnings)
	assert.Zero(t, r.ParsingConfidence)
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, EntityTrust.Valid())
	assert.False(t, EntityType("llc").Valid())
	assert.True(t, GenderFemale.Valid())
	assert.False(t, Gender("x").Valid())
}

func TestCachedResult_Expired(t *testing.T) {
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	c := CachedResult{CachedAt: now.Add(-25 * time.Hour)}
	assert.True(t, c.Expired(now, 24*time.Hour))
	assert.False(t, c.Expired(now, 48*time.Hour))
	assert.False(t, c.Expired(now, 0))
}

func TestBatchStatistics(t *testing.T) {
	s := NewBatchStatistics("b1")
	s.Record(ParsedName{ParsingMethod: MethodGemini, ParsingConfidence: 0.9}, 0.7)
	s.Record(ParsedName{ParsingMethod: MethodFallback, FallbackReason: ReasonTimeout, ParsingConfidence: 0.6, Warnings: []string{"w"}}, 0.7)
	s.Record(ParsedName{ParsingMethod: MethodError, FallbackReason: ReasonParseError}, 0.7)

	assert.Equal(t, 3, s.TotalProcessed)
	assert.Equal(t, 1, s.GeminiSuccess)
	assert.Equal(t, 1, s.FallbackUsed)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, 1, s.FallbackReasons[ReasonTimeout])
	assert.Equal(t, 2, s.LowConfidence)
	assert.Equal(t, 1, s.TotalWarnings)

	o := NewBatchStatistics("b2")
	o.Record(ParsedName{ParsingMethod: MethodFallback, ParsingConfidence: 0.9}, 0.7)
	s.Merge(o)
	assert.Equal(t, 4, s.TotalProcessed)
	assert.InDelta(t, 0.5, s.FallbackRate(), 0.001)
}
