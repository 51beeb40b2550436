package parser

import (
	"regexp"
	"strings"

	"github.com/tidyframe/tidyframe/internal/entity"
	"github.com/tidyframe/tidyframe/internal/model"
)

const (
	warnJoint          = "Joint ownership detected; parsed primary owner only"
	warnBorrowedLast   = "Last name borrowed from co-owner"
	warnNoUsableTokens = "No usable name tokens after cleanup"
)

var ampRe = regexp.MustCompile(`(?i)(&|\band\b)`)

// parseSingle handles one owner: "Last, First" when exactly one comma is
// present, otherwise token-level assignment.
func (p *Parser) parseSingle(phrase string, res *model.ParsedName) nameParts {
	if strings.Count(phrase, ",") == 1 {
		idx := strings.Index(phrase, ",")
		lastTokens := cleanTokens(phrase[:idx], false, res)
		firstTokens := cleanTokens(phrase[idx+1:], false, res)
		if len(lastTokens) > 0 || len(firstTokens) > 0 {
			parts := nameParts{last: strings.Join(lastTokens, " "), confidence: confComma}
			if len(firstTokens) > 0 {
				parts.first = firstTokens[0]
			}
			if parts.first == "" || parts.last == "" {
				parts.confidence = confSingleToken
			}
			return parts
		}
	}

	tokens := cleanTokens(phrase, false, res)
	if len(tokens) == 0 {
		res.AddWarning(warnNoUsableTokens)
	}
	return p.assignParts(tokens, false)
}

// parseJoint handles owner strings naming several people. With both "/"
// and "&", the segment after the last "&" is the preferred owner and a
// missing last name is borrowed from the segment before the first "/".
func (p *Parser) parseJoint(text string, res *model.ParsedName) nameParts {
	res.AddWarning(warnJoint)
	text = stripDates(text, res)

	hasSlash := strings.Contains(text, "/")
	ampLocs := ampRe.FindAllStringIndex(text, -1)

	var parts nameParts
	switch {
	case hasSlash && len(ampLocs) > 0:
		after := text[ampLocs[len(ampLocs)-1][1]:]
		parts = p.parseSingle(after, res)
		if parts.last == "" {
			before := text[:strings.Index(text, "/")]
			if donor := p.parseSingle(before, res); donor.last != "" {
				parts.last = donor.last
				res.AddWarning(warnBorrowedLast)
			}
		}
	case hasSlash:
		parts = p.parseSingle(strings.Split(text, "/")[0], res)
	default:
		segments := entity.SplitJoint(text)
		if len(segments) == 0 {
			return nameParts{confidence: confNoTokens}
		}
		parts = p.pickSegment(segments, res)
		if parts.last == "" && parts.first != "" {
			p.borrowSharedLast(segments, &parts, res)
		}
	}

	if parts.confidence > confJoint {
		parts.confidence = confJoint
	}
	return parts
}

// pickSegment parses the primary owner according to the joint policy.
func (p *Parser) pickSegment(segments []string, res *model.ParsedName) nameParts {
	primary := p.parseSingle(segments[0], res)
	if p.joint != JointPreferMale || len(segments) == 1 {
		return primary
	}
	if g, conf := p.scorer.Gender(primary.first); g == model.GenderMale && conf >= preferMaleThreshold {
		return primary
	}
	for _, seg := range segments[1:] {
		// Scratch result so rejected candidates leave no warnings behind.
		scratch := model.ParsedName{}
		cand := p.parseSingle(seg, &scratch)
		if g, conf := p.scorer.Gender(cand.first); g == model.GenderMale && conf >= preferMaleThreshold {
			for _, w := range scratch.Warnings {
				res.AddWarning(w)
			}
			if cand.last == "" {
				cand.last = primary.last
			}
			return cand
		}
	}
	return primary
}

// borrowSharedLast fills a missing last name from the final token of the
// last multi-token segment ("John & Mary Smith").
func (p *Parser) borrowSharedLast(segments []string, parts *nameParts, res *model.ParsedName) {
	for i := len(segments) - 1; i > 0; i-- {
		scratch := model.ParsedName{}
		tokens := cleanTokens(segments[i], false, &scratch)
		if len(tokens) >= 2 {
			parts.last = tokens[len(tokens)-1]
			res.AddWarning(warnBorrowedLast)
			return
		}
	}
}
