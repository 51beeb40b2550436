package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tidyframe/tidyframe/internal/entity"
	"github.com/tidyframe/tidyframe/internal/model"
)

// Cleaning warnings. Each kind is reported once per parse.
const (
	warnRemovedNumbers = "Removed numeric or date tokens"
	warnRemovedTitles  = "Removed titles or generational suffixes"
	warnRemovedJoint   = "Removed et al / et ux co-owner markers"
)

var (
	dateRe    = regexp.MustCompile(`\b\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}\b`)
	etAlRe    = regexp.MustCompile(`(?i)\bet\.?\s*(al|ux|vir)\b\.?`)
	nonNameRe = regexp.MustCompile(`[^\p{L}'\-]`)
	digitRe   = regexp.MustCompile(`\d`)
)

// titles and generational suffixes dropped before name assignment.
var titleWords = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "miss": true, "dr": true, "hon": true,
	"sir": true, "md": true, "dds": true, "phd": true, "esq": true, "cpa": true,
	"jr": true, "sr": true, "ii": true, "iii": true, "iv": true,
}

// noiseWords carry no name content in ownership records.
var noiseWords = map[string]bool{
	"etal": true, "etux": true, "etvir": true, "dtd": true, "dated": true,
	"ua": true, "fbo": true, "deceased": true, "decd": true, "agreement": true,
	"of": true, "the": true, "for": true, "under": true, "life": true,
}

// stripDates removes date expressions so their slashes are not mistaken
// for joint separators.
func stripDates(s string, res *model.ParsedName) string {
	if dateRe.MatchString(s) {
		res.AddWarning(warnRemovedNumbers)
		s = dateRe.ReplaceAllString(s, " ")
	}
	return s
}

// cleanTokens splits phrase into name-bearing tokens. Single-letter
// initials, numbers, titles, suffixes and noise words are removed; with
// dropMarkers, trust markers are removed too.
func cleanTokens(phrase string, dropMarkers bool, res *model.ParsedName) []string {
	if etAlRe.MatchString(phrase) {
		res.AddWarning(warnRemovedJoint)
		phrase = etAlRe.ReplaceAllString(phrase, " ")
	}

	raw := strings.FieldsFunc(phrase, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})

	tokens := make([]string, 0, len(raw))
	for i, tok := range raw {
		if digitRe.MatchString(tok) {
			res.AddWarning(warnRemovedNumbers)
			continue
		}
		tok = strings.Trim(nonNameRe.ReplaceAllString(tok, ""), "'-")
		if tok == "" {
			continue
		}
		lower := strings.ToLower(tok)
		switch {
		case titleWords[lower]:
			res.AddWarning(warnRemovedTitles)
			continue
		case noiseWords[lower]:
			if lower == "etal" || lower == "etux" || lower == "etvir" {
				res.AddWarning(warnRemovedJoint)
			}
			continue
		case dropMarkers && entity.IsTrustWord(lower):
			continue
		}
		if utf8.RuneCountInString(tok) == 1 {
			// "O" survives only as a particle in front of another token.
			if lower != "o" || i == len(raw)-1 {
				continue
			}
		}
		tokens = append(tokens, tok)
	}
	return tokens
}
