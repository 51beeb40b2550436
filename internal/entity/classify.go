// Package entity classifies owner strings as person, company or trust using
// keyword marker sets.
package entity

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tidyframe/tidyframe/internal/model"
)

// Marker weights. The weight of the strongest marker found becomes the
// classification confidence.
const (
	weightStrong = 0.95
	weightMedium = 0.9
	weightWeak   = 0.75
	weightPerson = 0.8
)

// companyMarkers maps lowercase words to the confidence they carry.
var companyMarkers = map[string]float64{
	"llc": weightStrong, "inc": weightStrong, "incorporated": weightStrong,
	"corp": weightStrong, "corporation": weightStrong, "company": weightStrong,
	"co": weightStrong, "ltd": weightStrong, "limited": weightStrong,
	"lp": weightStrong, "llp": weightStrong, "lllp": weightStrong,
	"pllc": weightStrong, "plc": weightStrong, "pc": weightStrong,

	"properties": weightMedium, "property": weightMedium, "enterprises": weightMedium,
	"enterprise": weightMedium, "holdings": weightMedium, "holding": weightMedium,
	"group": weightMedium, "partnership": weightMedium, "partners": weightMedium,
	"associates": weightMedium, "investments": weightMedium, "investment": weightMedium,
	"realty": weightMedium, "development": weightMedium, "farms": weightMedium,
	"ranches": weightMedium, "association": weightMedium,
	"assn": weightMedium, "cooperative": weightMedium, "coop": weightMedium,
	"ministries": weightMedium, "foundation": weightMedium, "management": weightMedium,
	"ventures": weightMedium, "industries": weightMedium,
	"services": weightMedium, "apartments": weightMedium, "dept": weightMedium,
	"department": weightMedium,
}

// contextMarkers are institution words that are also surnames ("Church
// Mary", "Land Robert"). They mark a company only beside another company
// marker, inside a business phrase, or after the leading word.
var contextMarkers = map[string]bool{
	"land": true, "bank": true, "church": true, "village": true, "school": true,
	"county": true, "township": true, "district": true, "college": true,
	"university": true, "capital": true, "agency": true, "authority": true,
	"commission": true, "railroad": true, "dairy": true,
}

// phraseWords appear in institutional names ("First National Bank",
// "County of Story", "Lutheran Church").
var phraseWords = map[string]bool{
	"of": true, "first": true, "national": true, "state": true, "community": true,
	"united": true, "public": true, "city": true, "board": true, "citizens": true,
	"savings": true, "baptist": true, "lutheran": true, "methodist": true,
	"catholic": true, "christian": true, "evangelical": true,
}

// trustMarkers maps lowercase words to the confidence they carry.
var trustMarkers = map[string]float64{
	"trust": weightMedium, "trusts": weightMedium, "trst": weightMedium,
	"tr": weightMedium, "ttee": weightMedium, "ttees": weightMedium,
	"trustee": weightMedium, "trustees": weightMedium, "estate": weightMedium,
	"revocable": weightMedium, "irrevocable": weightMedium, "irrev": weightMedium,
	"rev": weightMedium, "rlt": weightMedium, "heirs": weightMedium,
	"co-trustee": weightMedium, "co-trustees": weightMedium,
	"co-ttee": weightMedium, "co-ttees": weightMedium, "co-tr": weightMedium,

	"family": weightWeak, "living": weightWeak,
}

// agriculturalTerms flag farm-related owners for downstream filtering.
var agriculturalTerms = map[string]bool{
	"farm": true, "farms": true, "farming": true, "farmer": true, "farmers": true,
	"ranch": true, "ranches": true, "ranching": true,
	"agriculture": true, "agricultural": true, "agri": true, "agri-business": true,
	"livestock": true, "grain": true, "grains": true,
	"dairy": true, "dairies": true, "cattle": true,
	"orchard": true, "orchards": true,
}

var (
	wordRe     = regexp.MustCompile(`[\p{L}][\p{L}'\-]*`)
	jointRe    = regexp.MustCompile(`(?i)(&|/|\band\b)`)
	leadingThe = regexp.MustCompile(`(?i)^\s*the\s+\S`)
)

// Classification is the outcome of marker-based entity detection.
type Classification struct {
	Type       model.EntityType             `json:"entity_type"`
	Confidence float64                      `json:"confidence"`
	Indicators []string                     `json:"indicators"`
	Scores     map[model.EntityType]float64 `json:"scores"`
}

// Words returns the lowercase alphabetic words of text.
func Words(text string) []string {
	raw := wordRe.FindAllString(strings.ToLower(text), -1)
	words := make([]string, 0, len(raw))
	for _, w := range raw {
		w = strings.Trim(w, "'-")
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// Classify determines the entity type of text. Company markers are checked
// first, then trust markers. A leading "The" marks a company only when no
// trust marker is present ("The Smith Family Trust" stays a trust).
func Classify(text string) Classification {
	c := Classification{
		Type:   model.EntityUnknown,
		Scores: map[model.EntityType]float64{},
	}
	words := Words(text)
	if len(words) == 0 {
		return c
	}

	var companyScore, trustScore float64
	for _, w := range words {
		if weight, ok := companyMarkers[w]; ok {
			c.Indicators = append(c.Indicators, "company:"+w)
			companyScore = max(companyScore, weight)
		}
		if weight, ok := trustMarkers[w]; ok {
			c.Indicators = append(c.Indicators, "trust:"+w)
			trustScore = max(trustScore, weight)
		}
	}
	if w, weight := contextMarker(words, companyScore > 0, trustScore > 0); weight > 0 {
		c.Indicators = append(c.Indicators, "company:"+w)
		companyScore = max(companyScore, weight)
	}
	if leadingThe.MatchString(text) && trustScore == 0 {
		c.Indicators = append(c.Indicators, "company:leading_the")
		companyScore = max(companyScore, weightWeak)
	}

	personScore := 0.0
	if nameLikeCount(words) > 0 {
		personScore = weightPerson
	}
	c.Scores[model.EntityCompany] = companyScore
	c.Scores[model.EntityTrust] = trustScore
	c.Scores[model.EntityPerson] = personScore
	sort.Strings(c.Indicators)

	switch {
	case companyScore > 0:
		c.Type, c.Confidence = model.EntityCompany, companyScore
	case trustScore > 0:
		c.Type, c.Confidence = model.EntityTrust, trustScore
	case personScore > 0:
		c.Type, c.Confidence = model.EntityPerson, personScore
	}
	return c
}

// contextMarker returns the first context marker of words and its weight,
// or zero when none applies. A business phrase or another company marker
// gives full weight. Otherwise a marker after the leading word gives weak
// weight, except in trust strings where it is a grantor's surname.
func contextMarker(words []string, hasCompany, hasTrust bool) (string, float64) {
	phrase := hasCompany
	for _, w := range words {
		if w != "of" && phraseWords[w] {
			phrase = true
			break
		}
	}
	found, weight := "", 0.0
	for i, w := range words {
		if !contextMarkers[w] {
			continue
		}
		ofPhrase := (i > 0 && words[i-1] == "of") || (i+1 < len(words) && words[i+1] == "of")
		switch {
		case phrase || ofPhrase:
			return w, weightMedium
		case i > 0 && !hasTrust && weight == 0:
			found, weight = w, weightWeak
		}
	}
	return found, weight
}

// isCompanyWord reports whether w (lowercase) is a company marker on its
// own. Context markers are not included.
func isCompanyWord(w string) bool {
	_, ok := companyMarkers[w]
	return ok
}

// IsTrustWord reports whether w (lowercase) is a trust marker.
func IsTrustWord(w string) bool {
	_, ok := trustMarkers[w]
	return ok
}

// IsAgricultural reports whether text mentions a farm-related term.
func IsAgricultural(text string) bool {
	for _, w := range Words(text) {
		if agriculturalTerms[w] {
			return true
		}
	}
	return false
}

// IsJoint reports whether text joins several owners with &, "and" or /.
func IsJoint(text string) bool {
	return jointRe.MatchString(text)
}

// SplitJoint splits text on every joint separator.
func SplitJoint(text string) []string {
	parts := jointRe.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func nameLikeCount(words []string) int {
	n := 0
	for _, w := range words {
		if len(w) < 2 || w == "and" {
			continue
		}
		if isCompanyWord(w) || IsTrustWord(w) {
			continue
		}
		n++
	}
	return n
}
