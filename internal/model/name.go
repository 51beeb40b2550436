package model

import "time"

// EntityType classifies what kind of owner a name string denotes.
type EntityType string

const (
	EntityPerson  EntityType = "person"
	EntityCompany EntityType = "company"
	EntityTrust   EntityType = "trust"
	EntityUnknown EntityType = "unknown"
)

// Valid reports whether t is one of the known entity types.
func (t EntityType) Valid() bool {
	switch t {
	case EntityPerson, EntityCompany, EntityTrust, EntityUnknown:
		return true
	}
	return false
}

// Gender is the inferred gender of the chosen first name.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// Valid reports whether g is one of the known gender values.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderUnknown:
		return true
	}
	return false
}

// ParsingMethod records which parser produced a result.
type ParsingMethod string

const (
	MethodFallback ParsingMethod = "fallback"
	MethodGemini   ParsingMethod = "gemini"
	MethodError    ParsingMethod = "error"
)

// FallbackReason explains why the fallback parser was used instead of the
// primary parser.
type FallbackReason string

const (
	ReasonNone            FallbackReason = ""
	ReasonPrimaryDisabled FallbackReason = "primary_disabled"
	ReasonAPIError        FallbackReason = "api_error"
	ReasonTimeout         FallbackReason = "timeout"
	ReasonRateLimited     FallbackReason = "rate_limited"
	ReasonCircuitOpen     FallbackReason = "circuit_open"
	ReasonInvalidResponse FallbackReason = "invalid_response"
	ReasonInvalidInput    FallbackReason = "invalid_input"
	ReasonParseError      FallbackReason = "parse_error"
)

// RawNameInput is a single owner string read from a spreadsheet row.
type RawNameInput struct {
	Text     string `json:"text"`
	RowIndex int    `json:"row_index"`
}

// ParsedName is the structured result of parsing one owner string.
type ParsedName struct {
	FirstName         string         `json:"first_name"`
	LastName          string         `json:"last_name"`
	EntityType        EntityType     `json:"entity_type"`
	Gender            Gender         `json:"gender"`
	GenderConfidence  float64        `json:"gender_confidence"`
	ParsingConfidence float64        `json:"parsing_confidence"`
	IsAgricultural    bool           `json:"is_agricultural"`
	Warnings          []string       `json:"warnings"`
	ParsingMethod     ParsingMethod  `json:"parsing_method"`
	FallbackReason    FallbackReason `json:"fallback_reason,omitempty"`
	OriginalText      string         `json:"original_text"`
	RowIndex          int            `json:"row_index"`
}

// AddWarning appends a warning, skipping exact duplicates.
func (p *ParsedName) AddWarning(w string) {
	for _, existing := range p.Warnings {
		if existing == w {
			return
		}
	}
	p.Warnings = append(p.Warnings, w)
}

// Clone returns a copy of p that does not share the warnings slice.
func (p ParsedName) Clone() ParsedName {
	if p.Warnings != nil {
		w := make([]string, len(p.Warnings))
		copy(w, p.Warnings)
		p.Warnings = w
	}
	return p
}

// HasName reports whether either name field is populated.
func (p ParsedName) HasName() bool {
	return p.FirstName != "" || p.LastName != ""
}

// EmptyResult is the canonical result for blank input.
func EmptyResult(original string) ParsedName {
	return ParsedName{
		EntityType:        EntityUnknown,
		Gender:            GenderUnknown,
		ParsingConfidence: 0.5,
		ParsingMethod:     MethodFallback,
		OriginalText:      original,
		Warnings:          []string{},
	}
}

// ErrorResult is the canonical result for an item whose parse failed.
func ErrorResult(original, warning string) ParsedName {
	return ParsedName{
		EntityType:     EntityUnknown,
		Gender:         GenderUnknown,
		ParsingMethod:  MethodError,
		FallbackReason: ReasonParseError,
		OriginalText:   original,
		Warnings:       []string{warning},
	}
}

// CachedResult is a memoized ParsedName plus cache bookkeeping.
type CachedResult struct {
	Key            string     `json:"cache_key"`
	NormalizedName string     `json:"normalized_name"`
	Result         ParsedName `json:"result"`
	CachedAt       time.Time  `json:"cached_at"`
	LastAccessed   time.Time  `json:"last_accessed"`
	AccessCount    int        `json:"access_count"`
}

// Expired reports whether the entry is older than ttl at now. A zero ttl
// never expires.
func (c *CachedResult) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(c.CachedAt) > ttl
}
