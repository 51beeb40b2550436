package scorer

import (
	"strings"

	"github.com/tidyframe/tidyframe/internal/model"
)

// Gender confidences.
const (
	genderConfVeryCommon = 0.95
	genderConfCommon     = 0.9
	genderConfOftenSeen  = 0.85
	genderConfEnding     = 0.6
	genderConfUnisex     = 0.5

	// DefaultGenderConfidence applies when the name is not recognized and
	// the male default is used.
	DefaultGenderConfidence = 0.3
)

// Gender implements Strategy. Unrecognized names default to male with low
// confidence so fallback results agree with the primary parser's convention.
func (s *Static) Gender(firstName string) (model.Gender, float64) {
	t := strings.ToLower(strings.TrimSpace(firstName))
	if t == "" {
		return model.GenderUnknown, 0
	}
	if s.unisex[t] {
		return model.GenderUnknown, genderConfUnisex
	}
	if g, ok := s.genders[t]; ok {
		switch s.genderTop[t] {
		case TierVeryCommon:
			return g, genderConfVeryCommon
		case TierCommon:
			return g, genderConfCommon
		default:
			return g, genderConfOftenSeen
		}
	}
	if hasAnySuffix(t, genderEndings, 2) {
		return model.GenderFemale, genderConfEnding
	}
	return model.GenderMale, DefaultGenderConfidence
}
