package validate

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/tidyframe/tidyframe/internal/entity"
	"github.com/tidyframe/tidyframe/internal/model"
	"github.com/tidyframe/tidyframe/internal/scorer"
)

// ResultCheck is the outcome of ValidateResult. Corrected is always usable,
// whether or not corrections were applied.
type ResultCheck struct {
	Valid     bool             `json:"is_valid"`
	Corrected model.ParsedName `json:"corrected_result"`
	Warnings  []string         `json:"validation_warnings"`
}

func (c *ResultCheck) warn(msg string) {
	c.Valid = false
	c.Warnings = append(c.Warnings, msg)
}

// ValidateResult cross-checks a parsed result against its original text
// and corrects structurally invalid values. It never fails.
func ValidateResult(r model.ParsedName) ResultCheck {
	c := ResultCheck{Valid: true, Corrected: r.Clone(), Warnings: []string{}}
	out := &c.Corrected

	if !out.EntityType.Valid() {
		c.warn("Invalid entity type corrected to unknown")
		out.EntityType = model.EntityUnknown
	}

	switch out.EntityType {
	case model.EntityCompany:
		if out.HasName() {
			c.warn("Company entity had name fields; names cleared")
			out.FirstName, out.LastName = "", ""
		}
	case model.EntityPerson:
		if looksLikeBusiness(out.OriginalText) {
			c.warn("Business name parsed as person; corrected to company")
			out.EntityType = model.EntityCompany
			out.FirstName, out.LastName = "", ""
			out.Gender, out.GenderConfidence = model.GenderUnknown, 0
		} else if !out.HasName() && len(entity.Words(out.OriginalText)) >= 2 {
			c.warn("No name extracted from multi-word input")
		}
	}

	if v, clamped := clamp(out.ParsingConfidence); clamped {
		c.warn("Parsing confidence out of range; clamped")
		out.ParsingConfidence = v
	}
	if !out.Gender.Valid() {
		c.warn("Invalid gender value corrected to male")
		out.Gender, out.GenderConfidence = model.GenderMale, scorer.DefaultGenderConfidence
	}
	if v, clamped := clamp(out.GenderConfidence); clamped {
		c.warn("Gender confidence out of range; clamped")
		out.GenderConfidence = v
	}

	if want := entity.IsAgricultural(out.OriginalText); want != out.IsAgricultural {
		c.warn("Agricultural flag corrected")
		out.IsAgricultural = want
	}

	if !c.Valid {
		zap.L().Debug("validate: result corrected",
			zap.String("input", out.OriginalText),
			zap.Strings("warnings", c.Warnings),
		)
	}
	return c
}

// looksLikeBusiness reports whether text is a multi-word phrase that
// classifies as a company.
func looksLikeBusiness(text string) bool {
	if len(entity.Words(text)) < 2 {
		return false
	}
	return entity.Classify(text).Type == model.EntityCompany
}

func clamp(v float64) (float64, bool) {
	switch {
	case math.IsNaN(v), v < 0:
		return 0, true
	case v > 1:
		return 1, true
	}
	return v, false
}

var (
	allPunctRe   = regexp.MustCompile(`^[\p{P}\p{S}\s]+$`)
	allDigitsRe  = regexp.MustCompile(`^[\d\s]+$`)
	disallowedRe = regexp.MustCompile(`[^\p{L}\p{M}\s\-'.]`)
	letterRe     = regexp.MustCompile(`\p{L}`)
)

// CleanNamePart filters a single name token. It reports false for input
// that carries no usable name, which callers treat as "no data" rather
// than an empty value.
func CleanNamePart(text string) (string, bool) {
	s := strings.TrimSpace(text)
	if utf8.RuneCountInString(s) <= 1 || allPunctRe.MatchString(s) || allDigitsRe.MatchString(s) {
		return "", false
	}
	s = disallowedRe.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, "-'. ")
	if utf8.RuneCountInString(s) < 2 || !letterRe.MatchString(s) {
		return "", false
	}
	return s, true
}

// DetectEntityType classifies text and reports the matched indicators and
// per-type scores.
func DetectEntityType(text string) entity.Classification {
	return entity.Classify(text)
}
