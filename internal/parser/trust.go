package parser

import (
	"github.com/tidyframe/tidyframe/internal/entity"
	"github.com/tidyframe/tidyframe/internal/model"
)

const warnTrustNoName = "No individual name found in trust name"

// parseTrust extracts the grantor's name from a trust or estate string.
// Entity markers, dates and initials are dropped; for joint trusts the
// first listed person is used (or the male co-owner under JointPreferMale).
// A single surviving token is a surname ("Cheslak Family Trust"), and two
// tokens are ordered by name recognition since trust naming order varies.
func (p *Parser) parseTrust(text string, res *model.ParsedName) nameParts {
	text = stripDates(text, res)

	segments := []string{text}
	if entity.IsJoint(text) {
		segments = entity.SplitJoint(text)
	}

	candidates := make([][]string, 0, len(segments))
	for _, seg := range segments {
		if tokens := cleanTokens(seg, true, res); len(tokens) > 0 {
			candidates = append(candidates, tokens)
		}
	}
	if len(candidates) == 0 {
		res.AddWarning(warnTrustNoName)
		return nameParts{confidence: confTrustNoName}
	}

	idx := 0
	if p.joint == JointPreferMale {
		idx = p.preferMaleIndex(candidates)
	}
	tokens := candidates[idx]

	units := p.units(tokens, true)
	if len(units) == 1 {
		if idx > 0 {
			// A later co-owner listed by given name only shares the
			// first owner's surname.
			donor := p.assignParts(candidates[0], true)
			return nameParts{first: units[0].text, last: donor.last, confidence: confJoint}
		}
		return nameParts{last: units[0].text, confidence: confCompound}
	}

	parts := p.assignParts(tokens, true)
	if parts.confidence < confTrustNoName {
		parts.confidence = confTrustNoName
	}
	return parts
}

func (p *Parser) preferMaleIndex(candidates [][]string) int {
	for i, tokens := range candidates {
		first := ""
		if units := p.units(tokens, true); len(units) == 1 {
			if i > 0 {
				first = units[0].text
			}
		} else {
			first = p.assignParts(tokens, true).first
		}
		if g, conf := p.scorer.Gender(first); g == model.GenderMale && conf >= preferMaleThreshold {
			return i
		}
	}
	return 0
}
