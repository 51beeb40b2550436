// Package validate checks raw name inputs before parsing and cross-checks
// parsed results afterwards, correcting structurally invalid values.
package validate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tidyframe/tidyframe/internal/entity"
)

// MaxInputLength is the longest accepted input, in characters.
const MaxInputLength = 500

// maxWords is the word count above which an input is flagged as unusual.
const maxWords = 20

// repeatLimit is how often one word may appear before it is flagged.
const repeatLimit = 3

var sqlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(select|delete)\b.+\bfrom\b`),
	regexp.MustCompile(`(?i)\binsert\b.+\binto\b`),
	regexp.MustCompile(`(?i)\bupdate\b.+\bset\b`),
	regexp.MustCompile(`(?i)\b(drop|truncate|alter)\s+(table|database|schema)\b`),
	regexp.MustCompile(`(?i)\bunion\b.+\bselect\b`),
	regexp.MustCompile(`(?i)'\s*or\s+'?\w+'?\s*=\s*'?\w+`),
	regexp.MustCompile(`(?i)\b(exec|execute)\s*\(`),
	regexp.MustCompile(`(/\*|\*/|;\s*--)`),
}

var (
	htmlRe     = regexp.MustCompile(`<\s*/?\s*[a-zA-Z][^>]*>`)
	emailRe    = regexp.MustCompile(`[\w.+\-]+@[\w\-]+\.[\w.\-]+`)
	urlRe      = regexp.MustCompile(`(?i)\b(https?://|ftp://|www\.)\S+`)
	punctRunRe = regexp.MustCompile(`[^\p{L}\p{M}\p{N}\s]{4,}`)
	digitRunRe = regexp.MustCompile(`\d{10,}`)

	// Letters (any script), digits, whitespace and the punctuation that
	// appears in ownership records. &, "and" and / carry the joint-owner
	// signal and must survive.
	allowedRe = regexp.MustCompile(`^[\p{L}\p{M}\p{N}\s\-'.&,/()]*$`)
)

// InputResult is the outcome of ValidateInput.
type InputResult struct {
	Valid     bool     `json:"is_valid"`
	Error     string   `json:"error,omitempty"`
	Warnings  []string `json:"warnings"`
	Sanitized string   `json:"sanitized_text"`
}

// ValidateInput rejects malformed or abusive input and returns a sanitized
// copy of acceptable input. Rejection is a normal result, not an error.
func ValidateInput(text string) InputResult {
	res := InputResult{Warnings: []string{}}

	if utf8.RuneCountInString(text) > MaxInputLength {
		res.Error = "Input exceeds 500 characters"
		return res
	}
	for _, re := range sqlPatterns {
		if re.MatchString(text) {
			res.Error = "Input contains SQL-like content"
			return res
		}
	}
	switch {
	case htmlRe.MatchString(text):
		res.Error = "Input contains HTML tags"
		return res
	case emailRe.MatchString(text):
		res.Error = "Input contains an email address"
		return res
	case urlRe.MatchString(text):
		res.Error = "Input contains a URL"
		return res
	case punctRunRe.MatchString(text):
		res.Error = "Input contains excessive punctuation"
		return res
	case digitRunRe.MatchString(text):
		res.Error = "Input contains a long run of digits"
		return res
	}

	res.Valid = true
	res.Sanitized = sanitize(text)

	if !allowedRe.MatchString(res.Sanitized) {
		res.Warnings = append(res.Warnings, "Input contains unusual characters")
	}
	words := entity.Words(res.Sanitized)
	if len(words) > maxWords {
		res.Warnings = append(res.Warnings, "Input has an unusually high word count")
	}
	if hasRepetition(words) {
		res.Warnings = append(res.Warnings, "Input contains excessive word repetition")
	}
	return res
}

// sanitize drops control characters and collapses whitespace.
func sanitize(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	return strings.Join(strings.Fields(cleaned), " ")
}

func hasRepetition(words []string) bool {
	counts := make(map[string]int, len(words))
	for _, w := range words {
		if len(w) < 2 {
			continue
		}
		counts[w]++
		if counts[w] > repeatLimit {
			return true
		}
	}
	return false
}
