// Package scorer estimates how likely a token is to be a given name or a
// family name, and infers gender from a given name. All scoring is a pure
// function of the lowercase token.
package scorer

import (
	"strings"
	"unicode/utf8"

	"github.com/tidyframe/tidyframe/internal/model"
)

const unknownBaseline = 45.0

// Strategy scores name tokens. Implementations must be safe for concurrent
// use and must not perform I/O.
type Strategy interface {
	// FirstNameScore returns 0-100, higher meaning more likely a given name.
	FirstNameScore(token string) float64
	// LastNameScore returns 0-100, higher meaning more likely a family name.
	LastNameScore(token string) float64
	// Gender infers gender and confidence from a given name.
	Gender(firstName string) (model.Gender, float64)
}

// Static scores tokens against built-in frequency tables. It is immutable
// once constructed.
type Static struct {
	first     map[string]Tier
	last      map[string]Tier
	genders   map[string]model.Gender
	genderTop map[string]Tier
	unisex    map[string]bool
}

var _ Strategy = (*Static)(nil)

// NewStatic builds a Static scorer from the built-in tables plus any extra
// tables (typically loaded with LoadTables).
func NewStatic(extra ...Tables) *Static {
	s := &Static{
		first:     make(map[string]Tier),
		last:      make(map[string]Tier),
		genders:   make(map[string]model.Gender),
		genderTop: make(map[string]Tier),
		unisex:    make(map[string]bool),
	}
	s.addFirst(maleVeryCommon, TierVeryCommon, model.GenderMale)
	s.addFirst(maleCommon, TierCommon, model.GenderMale)
	s.addFirst(maleOftenSeen, TierOftenSeen, model.GenderMale)
	s.addFirst(femaleVeryCommon, TierVeryCommon, model.GenderFemale)
	s.addFirst(femaleCommon, TierCommon, model.GenderFemale)
	s.addFirst(femaleOftenSeen, TierOftenSeen, model.GenderFemale)
	s.addFirst(unisexNames, TierCommon, model.GenderUnknown)
	s.addLast(lastVeryCommon, TierVeryCommon)
	s.addLast(lastCommon, TierCommon)
	s.addLast(lastOftenSeen, TierOftenSeen)

	for _, t := range extra {
		s.addFirst(t.FirstNames.Male, TierCommon, model.GenderMale)
		s.addFirst(t.FirstNames.Female, TierCommon, model.GenderFemale)
		s.addFirst(t.FirstNames.Unisex, TierCommon, model.GenderUnknown)
		s.addLast(t.LastNames.VeryCommon, TierVeryCommon)
		s.addLast(t.LastNames.Common, TierCommon)
		s.addLast(t.LastNames.OftenSeen, TierOftenSeen)
	}
	return s
}

func (s *Static) addFirst(names []string, tier Tier, g model.Gender) {
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if tier > s.first[n] {
			s.first[n] = tier
		}
		if g == model.GenderUnknown {
			s.unisex[n] = true
			continue
		}
		if prev, ok := s.genders[n]; ok && prev != g {
			s.unisex[n] = true
			continue
		}
		s.genders[n] = g
		if tier > s.genderTop[n] {
			s.genderTop[n] = tier
		}
	}
}

func (s *Static) addLast(names []string, tier Tier) {
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" && tier > s.last[n] {
			s.last[n] = tier
		}
	}
}

// FirstNameTier returns the table tier of token as a given name.
func (s *Static) FirstNameTier(token string) Tier {
	return s.first[strings.ToLower(token)]
}

// LastNameTier returns the table tier of token as a family name.
func (s *Static) LastNameTier(token string) Tier {
	return s.last[strings.ToLower(token)]
}

// FirstNameScore implements Strategy.
func (s *Static) FirstNameScore(token string) float64 {
	t := strings.ToLower(token)
	score := s.FirstNameTier(t).baseline()
	if HasFemaleEnding(t) {
		score += 10
	}
	if n := utf8.RuneCountInString(t); n >= 3 && n <= 7 {
		score += 5
	}
	if HasSurnamePrefix(t) {
		score -= 20
	}
	return clamp(score)
}

// LastNameScore implements Strategy.
func (s *Static) LastNameScore(token string) float64 {
	t := strings.ToLower(token)
	score := s.LastNameTier(t).baseline()
	if n := utf8.RuneCountInString(t); n >= 5 && n <= 12 {
		score += 10
	}
	if HasSurnamePrefix(t) {
		score += 20
	}
	if HasSurnameSuffix(t) {
		score += 15
	}
	return clamp(score)
}

// HasFemaleEnding reports whether token ends in -a, -y, -ie, -ine or -elle.
func HasFemaleEnding(token string) bool {
	return hasAnySuffix(strings.ToLower(token), femaleEndings, 3)
}

// HasSurnamePrefix reports whether token starts with a concatenated surname
// prefix (Mc, Mac, O', Fitz, Vander) or is itself a surname particle.
func HasSurnamePrefix(token string) bool {
	t := strings.ToLower(token)
	if surnameParticles[t] {
		return true
	}
	for _, p := range surnamePrefixes {
		if utf8.RuneCountInString(t) >= p.minLen && strings.HasPrefix(t, p.prefix) {
			return true
		}
	}
	return false
}

// HasSurnameSuffix reports whether token ends in a family-name suffix such
// as -son, -sen, -berg, -stein or -ski.
func HasSurnameSuffix(token string) bool {
	return hasAnySuffix(strings.ToLower(token), surnameSuffixes, 2)
}

// IsParticle reports whether token starts a compound surname.
func IsParticle(token string) bool {
	return surnameParticles[strings.ToLower(token)]
}

// IsParticleContinuation reports whether token may sit between a particle
// and the surname proper.
func IsParticleContinuation(token string) bool {
	return particleContinuations[strings.ToLower(token)]
}

// hasAnySuffix requires at least minStem runes before the suffix so that
// "Ty" or "Ski" alone do not match.
func hasAnySuffix(t string, suffixes []string, minStem int) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(t, suf) && utf8.RuneCountInString(t)-utf8.RuneCountInString(suf) >= minStem {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
