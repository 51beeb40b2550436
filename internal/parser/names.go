package parser

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/tidyframe/tidyframe/internal/scorer"
)

// ambiguityDelta is the first/last score gap under which a token's role is
// considered undecided.
const ambiguityDelta = 20.0

// unit is one or more tokens acting as a single name part.
type unit struct {
	text     string
	compound bool
}

// mergeCompounds joins surname particles with the token that follows them
// (Van Dyke, De La Cruz). Only the surname position is merged: a particle
// run starting the name when leading is set, and one ending it when
// trailing is set. Elsewhere a particle is a middle name ("Nguyen Van
// Minh"). A hyphenated token in a merged position is a compound surname.
func mergeCompounds(tokens []string, leading, trailing bool) []unit {
	units := make([]unit, 0, len(tokens))
	i := 0
	if leading {
		if end := particleRun(tokens, 0); end > 0 {
			units = append(units, unit{text: strings.Join(tokens[:end+1], " "), compound: true})
			i = end + 1
		} else if len(tokens) >= 3 && strings.Contains(tokens[0], "-") {
			units = append(units, unit{text: tokens[0], compound: true})
			i = 1
		}
	}

	tail := len(tokens)
	if trailing {
		for j := max(i, 1); j < len(tokens)-1; j++ {
			if particleRun(tokens, j) == len(tokens)-1 {
				tail = j
				break
			}
		}
	}
	for ; i < tail; i++ {
		units = append(units, unit{text: tokens[i]})
	}
	if tail < len(tokens) {
		units = append(units, unit{text: strings.Join(tokens[tail:], " "), compound: true})
	} else if trailing && len(tokens) >= 3 && len(units) > 1 && strings.Contains(units[len(units)-1].text, "-") {
		units[len(units)-1].compound = true
	}
	return units
}

// particleRun returns the index of the surname ending a particle run that
// starts at i, or -1 when tokens[i] does not start one.
func particleRun(tokens []string, i int) int {
	if i >= len(tokens)-1 || !scorer.IsParticle(tokens[i]) {
		return -1
	}
	j := i + 1
	for j < len(tokens)-1 && scorer.IsParticleContinuation(tokens[j]) {
		j++
	}
	return j
}

// units merges compounds where the surname is expected: leading under
// last_first, trailing under first_last, and either end when the order is
// decided by scoring.
func (p *Parser) units(tokens []string, useScoring bool) []unit {
	switch {
	case useScoring:
		return mergeCompounds(tokens, true, true)
	case p.order == OrderFirstLast:
		return mergeCompounds(tokens, false, true)
	default:
		return mergeCompounds(tokens, true, false)
	}
}

// givenName picks the first unit, skipping index skip, that is not a
// compound or a bare particle, falling back to any other unit.
func givenName(units []unit, skip int) string {
	fallback := ""
	for j, u := range units {
		if j == skip || u.compound {
			continue
		}
		if !scorer.IsParticle(u.text) {
			return u.text
		}
		if fallback == "" {
			fallback = u.text
		}
	}
	return fallback
}

// assignParts maps cleaned tokens to first/last names. With useScoring,
// ambiguous two-part names are ordered by name recognition instead of the
// configured default order.
func (p *Parser) assignParts(tokens []string, useScoring bool) nameParts {
	units := p.units(tokens, useScoring)

	for i, u := range units {
		if u.compound {
			return nameParts{first: givenName(units, i), last: u.text, confidence: confCompound}
		}
	}

	switch len(units) {
	case 0:
		return nameParts{confidence: confNoTokens}
	case 1:
		return nameParts{first: units[0].text, confidence: confSingleToken}
	case 2:
		if useScoring {
			return p.recognizeTwo(units[0].text, units[1].text)
		}
		return p.defaultOrder(units[0].text, units[1].text, confTwoTokens)
	default:
		if p.order == OrderFirstLast {
			return nameParts{first: units[0].text, last: units[len(units)-1].text, confidence: confThreePlus}
		}
		// Surname first, given name second; particles and the rest are
		// middle names.
		return nameParts{first: givenName(units, 0), last: units[0].text, confidence: confThreePlus}
	}
}

func (p *Parser) defaultOrder(a, b string, confidence float64) nameParts {
	if p.order == OrderFirstLast {
		return nameParts{first: a, last: b, confidence: confidence}
	}
	return nameParts{first: b, last: a, confidence: confidence}
}

// recognizeTwo orders two tokens by comparing how strongly each scores as
// a given name versus a family name.
func (p *Parser) recognizeTwo(a, b string) nameParts {
	fa, la := p.scorer.FirstNameScore(a), p.scorer.LastNameScore(a)
	fb, lb := p.scorer.FirstNameScore(b), p.scorer.LastNameScore(b)

	lastFirst := nameParts{first: b, last: a, confidence: confRecognized}
	firstLast := nameParts{first: a, last: b, confidence: confRecognized}

	switch {
	case la > fa && fb > lb:
		return lastFirst
	case fa > la && lb > fb:
		return firstLast
	}

	deltaA, deltaB := math.Abs(la-fa), math.Abs(lb-fb)
	if deltaA < ambiguityDelta && deltaB < ambiguityDelta {
		lastFirst.confidence, firstLast.confidence = confTieBreak, confTieBreak

		femA, femB := scorer.HasFemaleEnding(a), scorer.HasFemaleEnding(b)
		switch {
		case femB && !femA:
			return lastFirst
		case femA && !femB:
			return firstLast
		}

		lenA, lenB := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
		if lenA-lenB > 2 {
			return lastFirst
		}
		if lenB-lenA > 2 {
			return firstLast
		}

		if lb > la {
			return firstLast
		}
		return lastFirst
	}

	// One token has the clearer preference; let it decide.
	if deltaA >= deltaB {
		if la >= fa {
			return lastFirst
		}
		return firstLast
	}
	if lb >= fb {
		return firstLast
	}
	return lastFirst
}
