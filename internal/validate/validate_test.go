package validate

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidyframe/tidyframe/internal/model"
	"github.com/tidyframe/tidyframe/internal/scorer"
)

func TestValidateInput_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		err   string
	}{
		{name: "script tag", input: "<script>alert(1)</script>", err: "HTML"},
		{name: "bold tag", input: "Smith <b>John</b>", err: "HTML"},
		{name: "too long", input: strings.Repeat("a", MaxInputLength+1), err: "500"},
		{name: "sql select", input: "Smith; SELECT * FROM users", err: "SQL"},
		{name: "sql drop", input: "Robert'); DROP TABLE students", err: "SQL"},
		{name: "sql tautology", input: "x' or '1'='1", err: "SQL"},
		{name: "email", input: "john.smith@example.com", err: "email"},
		{name: "url", input: "see https://example.com/owner", err: "URL"},
		{name: "www", input: "www.smithfarms.com", err: "URL"},
		{name: "punctuation run", input: "Smith !!!!! John", err: "punctuation"},
		{name: "digit run", input: "Smith John 5551234567", err: "digits"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateInput(tt.input)
			assert.False(t, res.Valid)
			assert.Contains(t, res.Error, tt.err)
			assert.Empty(t, res.Sanitized)
		})
	}
}

func TestValidateInput_Accepts(t *testing.T) {
	for _, in := range []string{
		"Smith John",
		"Mills Edwin L & Gloria F Rev Trust",
		"Smith John/Jones Mary",
		"O'Brien-Murphy, Seán",
		"Smith John Trust Dtd 01/15/1998",
		"Иванов Иван",
		"Union County Bank",
		"Select Farms LLC",
	} {
		t.Run(in, func(t *testing.T) {
			res := ValidateInput(in)
			assert.True(t, res.Valid, res.Error)
			assert.Empty(t, res.Error)
			assert.Empty(t, res.Warnings)
		})
	}
}

func TestValidateInput_Sanitizes(t *testing.T) {
	res := ValidateInput("  Smith \t John\x00  ")
	require.True(t, res.Valid)
	assert.Equal(t, "Smith John", res.Sanitized)
}

func TestValidateInput_SoftWarnings(t *testing.T) {
	res := ValidateInput("Smith John #2")
	assert.True(t, res.Valid)
	assert.Contains(t, res.Warnings, "Input contains unusual characters")

	res = ValidateInput(strings.Repeat("Smith ", 5))
	assert.True(t, res.Valid)
	assert.Contains(t, res.Warnings, "Input contains excessive word repetition")

	words := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		words = append(words, string(rune('a'+i))+"x")
	}
	res = ValidateInput(strings.Join(words, " "))
	assert.True(t, res.Valid)
	assert.Contains(t, res.Warnings, "Input has an unusually high word count")
}

func TestValidateResult_Clean(t *testing.T) {
	r := model.ParsedName{
		FirstName:         "Judy",
		LastName:          "Uhl",
		EntityType:        model.EntityPerson,
		Gender:            model.GenderFemale,
		GenderConfidence:  0.95,
		ParsingConfidence: 0.85,
		OriginalText:      "Uhl Judy",
	}
	c := ValidateResult(r)
	assert.True(t, c.Valid)
	assert.Empty(t, c.Warnings)
	assert.Equal(t, r, c.Corrected)
}

func TestValidateResult_Corrections(t *testing.T) {
	tests := []struct {
		name  string
		in    model.ParsedName
		check func(t *testing.T, out model.ParsedName)
	}{
		{
			name: "company names cleared",
			in: model.ParsedName{FirstName: "Acme", LastName: "Corp", EntityType: model.EntityCompany,
				Gender: model.GenderUnknown, ParsingConfidence: 0.9, OriginalText: "Acme Corp"},
			check: func(t *testing.T, out model.ParsedName) {
				assert.Empty(t, out.FirstName)
				assert.Empty(t, out.LastName)
			},
		},
		{
			name: "business phrase as person",
			in: model.ParsedName{FirstName: "Smith", LastName: "Holdings", EntityType: model.EntityPerson,
				Gender: model.GenderMale, GenderConfidence: 0.3, ParsingConfidence: 0.8, OriginalText: "Smith Holdings"},
			check: func(t *testing.T, out model.ParsedName) {
				assert.Equal(t, model.EntityCompany, out.EntityType)
				assert.Empty(t, out.FirstName)
				assert.Equal(t, model.GenderUnknown, out.Gender)
			},
		},
		{
			name: "institution surname kept as person",
			in: model.ParsedName{FirstName: "Mary", LastName: "Church", EntityType: model.EntityPerson,
				Gender: model.GenderFemale, GenderConfidence: 0.9, ParsingConfidence: 0.8, OriginalText: "Church Mary"},
			check: func(t *testing.T, out model.ParsedName) {
				assert.Equal(t, model.EntityPerson, out.EntityType)
				assert.Equal(t, "Mary", out.FirstName)
				assert.Equal(t, "Church", out.LastName)
			},
		},
		{
			name: "confidence clamped",
			in: model.ParsedName{FirstName: "John", LastName: "Smith", EntityType: model.EntityPerson,
				Gender: model.GenderMale, GenderConfidence: 1.4, ParsingConfidence: -0.2, OriginalText: "Smith John"},
			check: func(t *testing.T, out model.ParsedName) {
				assert.InDelta(t, 0.0, out.ParsingConfidence, 0.0001)
				assert.InDelta(t, 1.0, out.GenderConfidence, 0.0001)
			},
		},
		{
			name: "nan confidence",
			in: model.ParsedName{FirstName: "John", EntityType: model.EntityPerson, Gender: model.GenderMale,
				ParsingConfidence: math.NaN(), OriginalText: "John"},
			check: func(t *testing.T, out model.ParsedName) {
				assert.InDelta(t, 0.0, out.ParsingConfidence, 0.0001)
			},
		},
		{
			name: "invalid gender",
			in: model.ParsedName{FirstName: "Pat", EntityType: model.EntityPerson, Gender: model.Gender("M"),
				GenderConfidence: 0.9, ParsingConfidence: 0.6, OriginalText: "Pat"},
			check: func(t *testing.T, out model.ParsedName) {
				assert.Equal(t, model.GenderMale, out.Gender)
				assert.InDelta(t, scorer.DefaultGenderConfidence, out.GenderConfidence, 0.0001)
			},
		},
		{
			name: "agricultural flag set",
			in: model.ParsedName{LastName: "Miller", EntityType: model.EntityTrust, Gender: model.GenderUnknown,
				ParsingConfidence: 0.8, OriginalText: "Miller Ranch Trust"},
			check: func(t *testing.T, out model.ParsedName) {
				assert.True(t, out.IsAgricultural)
			},
		},
		{
			name: "agricultural flag cleared",
			in: model.ParsedName{FirstName: "John", LastName: "Smith", EntityType: model.EntityPerson,
				Gender: model.GenderMale, GenderConfidence: 0.95, ParsingConfidence: 0.85,
				IsAgricultural: true, OriginalText: "Smith John"},
			check: func(t *testing.T, out model.ParsedName) {
				assert.False(t, out.IsAgricultural)
			},
		},
		{
			name: "invalid entity type",
			in: model.ParsedName{EntityType: model.EntityType("llc"), Gender: model.GenderUnknown,
				ParsingConfidence: 0.5, OriginalText: "x"},
			check: func(t *testing.T, out model.ParsedName) {
				assert.Equal(t, model.EntityUnknown, out.EntityType)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ValidateResult(tt.in)
			assert.False(t, c.Valid)
			assert.NotEmpty(t, c.Warnings)
			tt.check(t, c.Corrected)
		})
	}
}

func TestValidateResult_KeepsUnknownGender(t *testing.T) {
	c := ValidateResult(model.ParsedName{
		FirstName: "Jordan", LastName: "Lee", EntityType: model.EntityPerson,
		Gender: model.GenderUnknown, GenderConfidence: 0.5, ParsingConfidence: 0.85, OriginalText: "Lee Jordan",
	})
	assert.True(t, c.Valid)
	assert.Equal(t, model.GenderUnknown, c.Corrected.Gender)
}

func TestValidateResult_EmptyNamesWarn(t *testing.T) {
	c := ValidateResult(model.ParsedName{
		EntityType: model.EntityPerson, Gender: model.GenderUnknown,
		ParsingConfidence: 0.3, OriginalText: "Smith John",
	})
	assert.False(t, c.Valid)
	assert.Contains(t, c.Warnings, "No name extracted from multi-word input")
}

func TestValidateResult_DoesNotMutateInput(t *testing.T) {
	in := model.ParsedName{FirstName: "A", LastName: "B", EntityType: model.EntityCompany,
		Gender: model.GenderUnknown, Warnings: []string{"w"}, OriginalText: "A B LLC"}
	_ = ValidateResult(in)
	assert.Equal(t, "A", in.FirstName)
}

func TestCleanNamePart(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"John", "John", true},
		{"  O'Brien  ", "O'Brien", true},
		{"Smith-Jones", "Smith-Jones", true},
		{"Jo$hn", "John", true},
		{"José", "José", true},
		{"J", "", false},
		{"", "", false},
		{"...", "", false},
		{"1234", "", false},
		{"#1", "", false},
		{"A.", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := CleanNamePart(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectEntityType(t *testing.T) {
	c := DetectEntityType("Lakeview Farms LLC")
	assert.Equal(t, model.EntityCompany, c.Type)
	assert.Contains(t, c.Indicators, "company:llc")
}
