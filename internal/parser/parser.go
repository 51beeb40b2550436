// Package parser implements the rule-based fallback name parser. It splits
// property-owner strings into first and last names, classifies the entity
// type and infers gender without any external calls.
package parser

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tidyframe/tidyframe/internal/entity"
	"github.com/tidyframe/tidyframe/internal/model"
	"github.com/tidyframe/tidyframe/internal/normalize"
	"github.com/tidyframe/tidyframe/internal/scorer"
)

// NameOrder is the token order assumed for ambiguous two-token names.
type NameOrder string

const (
	OrderLastFirst NameOrder = "last_first"
	OrderFirstLast NameOrder = "first_last"
)

// JointPolicy picks which owner of a joint name supplies the parsed name.
type JointPolicy string

const (
	JointFirstListed JointPolicy = "first_listed"
	JointPreferMale  JointPolicy = "prefer_male"
)

// preferMaleThreshold is the gender confidence a co-owner's given name must
// reach to be preferred under JointPreferMale.
const preferMaleThreshold = 0.8

// Confidence levels assigned by the rule that produced a person name.
const (
	confComma         = 0.9
	confTwoTokens     = 0.85
	confRecognized    = 0.85
	confCompound      = 0.8
	confJoint         = 0.8
	confThreePlus     = 0.75
	confTieBreak      = 0.7
	confTrustNoName   = 0.7
	confSingleToken   = 0.6
	confNoTokens      = 0.3
	confNoNameContent = 0.3
)

// Options configures a Parser.
type Options struct {
	// Scorer ranks tokens as given or family names. Defaults to the
	// built-in static tables.
	Scorer scorer.Strategy
	// NameOrder is the default for two-token person names. Defaults to
	// OrderLastFirst, the dominant convention in county ownership records.
	NameOrder NameOrder
	// JointPolicy picks the primary owner of joint names. Defaults to
	// JointFirstListed.
	JointPolicy JointPolicy
}

// Parser is the fallback name parser. It holds no mutable state and is safe
// for concurrent use.
type Parser struct {
	scorer scorer.Strategy
	order  NameOrder
	joint  JointPolicy
}

// New creates a Parser, filling unset options with defaults.
func New(opts Options) *Parser {
	p := &Parser{
		scorer: opts.Scorer,
		order:  opts.NameOrder,
		joint:  opts.JointPolicy,
	}
	if p.scorer == nil {
		p.scorer = scorer.NewStatic()
	}
	if p.order != OrderFirstLast {
		p.order = OrderLastFirst
	}
	if p.joint != JointPreferMale {
		p.joint = JointFirstListed
	}
	return p
}

// ParseError reports an unexpected failure while parsing one input. It is
// distinct from a low-confidence or empty result, which are normal outcomes.
type ParseError struct {
	Input string
	Cause any
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parser: failed to parse %q: %v", e.Input, e.Cause)
}

// TryParse parses text, converting any internal failure into a *ParseError.
func (p *Parser) TryParse(text string) (res model.ParsedName, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = model.ParsedName{}
			err = &ParseError{Input: text, Cause: r}
		}
	}()
	return p.parse(text), nil
}

// Parse parses text and never fails: internal errors yield the canonical
// error result.
func (p *Parser) Parse(text string) model.ParsedName {
	res, err := p.TryParse(text)
	if err != nil {
		zap.L().Error("parser: parse failed", zap.String("input", text), zap.Error(err))
		return model.ErrorResult(text, "Parsing failed: "+err.Error())
	}
	return res
}

// ParseBatch parses each name in order. A failing item yields the error
// result at its index and does not abort the batch.
func (p *Parser) ParseBatch(names []string) []model.ParsedName {
	results := make([]model.ParsedName, len(names))
	for i, name := range names {
		res, err := p.TryParse(name)
		if err != nil {
			zap.L().Error("parser: batch item failed", zap.Int("index", i), zap.Error(err))
			res = model.ErrorResult(name, "Parsing failed: "+err.Error())
		}
		res.RowIndex = i
		results[i] = res
	}
	return results
}

// nameParts is an intermediate first/last assignment.
type nameParts struct {
	first      string
	last       string
	confidence float64
}

func (p *Parser) parse(text string) model.ParsedName {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return model.EmptyResult(text)
	}

	res := model.ParsedName{
		EntityType:     model.EntityUnknown,
		Gender:         model.GenderUnknown,
		ParsingMethod:  model.MethodFallback,
		OriginalText:   text,
		IsAgricultural: entity.IsAgricultural(trimmed),
		Warnings:       []string{},
	}

	cls := entity.Classify(trimmed)
	res.EntityType = cls.Type

	var parts nameParts
	switch cls.Type {
	case model.EntityCompany:
		res.ParsingConfidence = cls.Confidence
		return res
	case model.EntityUnknown:
		res.ParsingConfidence = confNoNameContent
		res.AddWarning("No name content found")
		return res
	case model.EntityTrust:
		parts = p.parseTrust(trimmed, &res)
	default:
		if entity.IsJoint(trimmed) {
			parts = p.parseJoint(trimmed, &res)
		} else {
			parts = p.parseSingle(trimmed, &res)
		}
	}

	res.FirstName = displayName(parts.first)
	res.LastName = displayName(parts.last)
	res.ParsingConfidence = parts.confidence

	if res.FirstName != "" {
		res.Gender, res.GenderConfidence = p.scorer.Gender(res.FirstName)
	}
	return res
}

func displayName(s string) string {
	if s == "" {
		return ""
	}
	toks := strings.Fields(s)
	for i, t := range toks {
		toks[i] = normalize.Display(t)
	}
	return strings.Join(toks, " ")
}
